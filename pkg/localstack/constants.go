package localstack

const (
	DefaultRegion = "us-east-1"

	TestAccessKey = "test"
	TestSecretKey = "test"

	// LocalhostDomainName and all of its subdomains resolve to 127.0.0.1.
	LocalhostDomainName = "localhost.localstack.cloud"

	// DefaultReadyToken is logged by LocalStack once all services are up.
	DefaultReadyToken = `Ready\.`

	managedByLabel = "cloud.localstack.managed-by"
	managedByValue = "localstack-go"
)
