package localstack

// ServiceName identifies an emulated AWS service as LocalStack names it.
type ServiceName string

const (
	ServiceS3                   ServiceName = "s3"
	ServiceKinesis              ServiceName = "kinesis"
	ServiceLambda               ServiceName = "lambda"
	ServiceDynamoDB             ServiceName = "dynamodb"
	ServiceDynamoDBStreams      ServiceName = "dynamodbstreams"
	ServiceAPIGateway           ServiceName = "apigateway"
	ServiceElasticsearch        ServiceName = "elasticsearch"
	ServiceElasticsearchService ServiceName = "es"
	ServiceFirehose             ServiceName = "firehose"
	ServiceSNS                  ServiceName = "sns"
	ServiceSQS                  ServiceName = "sqs"
	ServiceRedshift             ServiceName = "redshift"
	ServiceCloudWatch           ServiceName = "cloudwatch"
	ServiceCloudWatchLogs       ServiceName = "logs"
	ServiceSES                  ServiceName = "ses"
	ServiceRoute53              ServiceName = "route53"
	ServiceCloudFormation       ServiceName = "cloudformation"
	ServiceSSM                  ServiceName = "ssm"
	ServiceSecretsManager       ServiceName = "secretsmanager"
	ServiceEC2                  ServiceName = "ec2"
	ServiceStepFunctions        ServiceName = "stepfunctions"
	ServiceIAM                  ServiceName = "iam"
)

var services = []ServiceName{
	ServiceS3,
	ServiceKinesis,
	ServiceLambda,
	ServiceDynamoDB,
	ServiceDynamoDBStreams,
	ServiceAPIGateway,
	ServiceElasticsearch,
	ServiceElasticsearchService,
	ServiceFirehose,
	ServiceSNS,
	ServiceSQS,
	ServiceRedshift,
	ServiceCloudWatch,
	ServiceCloudWatchLogs,
	ServiceSES,
	ServiceRoute53,
	ServiceCloudFormation,
	ServiceSSM,
	ServiceSecretsManager,
	ServiceEC2,
	ServiceStepFunctions,
	ServiceIAM,
}

// Services lists every service with a dedicated endpoint getter.
func Services() []ServiceName {
	return append([]ServiceName(nil), services...)
}

func (s ServiceName) String() string {
	return string(s)
}
