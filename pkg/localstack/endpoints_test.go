package localstack

import (
	"context"
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/localstack/localstack-go/pkg/config"
	"github.com/localstack/localstack-go/pkg/executor/mocks"
	"github.com/localstack/localstack-go/pkg/portmap"
)

// startedLocalstack returns an instance that looks started, with every
// known service on the edge port.
func startedLocalstack(t *testing.T, host string) (*Localstack, *mocks.MockExecutor) {
	m := mocks.NewMockExecutor(t)
	ports := map[string]int{}
	for _, s := range Services() {
		ports[s.String()] = 4566
	}

	ls := newTestLocalstack(m)
	ls.locked = true
	ls.externalHostName = host
	ls.container = &Container{executor: m, id: freshID, name: config.DefaultContainerName}
	ls.ports = portmap.NewMap(ports)
	return ls, m
}

func TestEndpointGetters(t *testing.T) {
	t.Setenv(config.EnvUseSSL, "")
	ctx := context.Background()
	ls, m := startedLocalstack(t, "localhost")
	m.On("GetExternalPort", mock.Anything, freshID, 4566).Return(49153, nil)

	getters := map[string]func(context.Context) (string, error){
		"kinesis":         ls.EndpointKinesis,
		"lambda":          ls.EndpointLambda,
		"dynamodb":        ls.EndpointDynamoDB,
		"dynamodbstreams": ls.EndpointDynamoDBStreams,
		"apigateway":      ls.EndpointAPIGateway,
		"elasticsearch":   ls.EndpointElasticsearch,
		"es":              ls.EndpointElasticsearchService,
		"firehose":        ls.EndpointFirehose,
		"sns":             ls.EndpointSNS,
		"sqs":             ls.EndpointSQS,
		"redshift":        ls.EndpointRedshift,
		"cloudwatch":      ls.EndpointCloudWatch,
		"logs":            ls.EndpointCloudWatchLogs,
		"ses":             ls.EndpointSES,
		"route53":         ls.EndpointRoute53,
		"cloudformation":  ls.EndpointCloudFormation,
		"ssm":             ls.EndpointSSM,
		"secretsmanager":  ls.EndpointSecretsManager,
		"ec2":             ls.EndpointEC2,
		"stepfunctions":   ls.EndpointStepFunctions,
		"iam":             ls.EndpointIAM,
	}
	for service, getter := range getters {
		endpoint, err := getter(ctx)
		require.NoError(t, err, service)
		assert.Equal(t, "http://localhost:49153", endpoint, service)
	}

	endpoint, err := ls.EndpointS3(ctx)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost.localstack.cloud:49153", endpoint)

	assert.Equal(t, "us-east-1", ls.DefaultRegion())
}

func TestEndpointUsesSSL(t *testing.T) {
	t.Setenv(config.EnvUseSSL, "true")
	ctx := context.Background()
	ls, m := startedLocalstack(t, "localhost")
	m.On("GetExternalPort", mock.Anything, freshID, 4566).Return(4566, nil)

	endpoint, err := ls.EndpointSNS(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://localhost:4566", endpoint)

	endpoint, err = ls.EndpointS3(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://localhost.localstack.cloud:4566", endpoint)

	// the setting is read on every call
	t.Setenv(config.EnvUseSSL, "false")
	endpoint, err = ls.EndpointSNS(ctx)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:4566", endpoint)
}

func TestEndpointExternalHostName(t *testing.T) {
	t.Setenv(config.EnvUseSSL, "")
	ctx := context.Background()
	ls, m := startedLocalstack(t, "docker")
	m.On("GetExternalPort", mock.Anything, freshID, 4566).Return(4566, nil)

	endpoint, err := ls.EndpointSQS(ctx)
	require.NoError(t, err)
	assert.Equal(t, "http://docker:4566", endpoint)

	endpoint, err = ls.EndpointS3(ctx)
	require.NoError(t, err)
	assert.Equal(t, "http://docker:4566", endpoint)
}

func TestEndpointForPortError(t *testing.T) {
	ls, m := startedLocalstack(t, "localhost")
	m.On("GetExternalPort", mock.Anything, freshID, 4510).Return(0, errors.New("port 4510/tcp is not published")).Once()

	_, err := ls.EndpointForPort(context.Background(), 4510)
	assert.ErrorContains(t, err, "resolve external port for 4510")
	assert.ErrorContains(t, err, "not published")
}

func TestServicesListsEveryGetter(t *testing.T) {
	list := Services()
	assert.Len(t, list, 22)
	assert.Contains(t, list, ServiceS3)
	assert.Contains(t, list, ServiceIAM)

	// callers get a copy
	list[0] = "changed"
	assert.Equal(t, ServiceS3, Services()[0])
}

func TestHTTPClient(t *testing.T) {
	t.Setenv(config.EnvUseSSL, "1")
	client := HTTPClient()
	require.NotNil(t, client.Transport)
	assert.True(t, client.Transport.(*http.Transport).TLSClientConfig.InsecureSkipVerify)

	t.Setenv(config.EnvUseSSL, "0")
	client = HTTPClient()
	tlsConfig := client.Transport.(*http.Transport).TLSClientConfig
	assert.True(t, tlsConfig == nil || !tlsConfig.InsecureSkipVerify)
}

func TestContext(t *testing.T) {
	ls := newTestLocalstack(mocks.NewMockExecutor(t))

	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	ctx := NewContext(context.Background(), ls)
	got, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Same(t, ls, got)

	_, ok = FromContext(NewContext(context.Background(), nil))
	assert.False(t, ok)
}
