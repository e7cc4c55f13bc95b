package localstack

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/localstack/localstack-go/pkg/config"
)

// ServicePort returns the container port serving service.
func (l *Localstack) ServicePort(service string) (int, error) {
	l.mu.RLock()
	ports := l.ports
	l.mu.RUnlock()

	if ports == nil {
		return 0, ErrPortMapUnresolved
	}
	port, ok := ports.Port(service)
	if !ok {
		return 0, &UnknownServiceError{Service: service}
	}
	return port, nil
}

// EndpointForPort returns the URL under which the container port is
// reachable from the host.
func (l *Localstack) EndpointForPort(ctx context.Context, port int) (string, error) {
	l.mu.RLock()
	c, host := l.container, l.externalHostName
	l.mu.RUnlock()

	if c == nil {
		return "", ErrContainerNotStarted
	}
	externalPort, err := c.ExternalPortFor(ctx, port)
	if err != nil {
		return "", errors.Wrapf(err, "resolve external port for %d", port)
	}

	protocol := "http"
	if config.UseSSL() {
		protocol = "https"
	}
	return fmt.Sprintf("%s://%s:%d", protocol, host, externalPort), nil
}

func (l *Localstack) EndpointForService(ctx context.Context, service string) (string, error) {
	port, err := l.ServicePort(service)
	if err != nil {
		return "", err
	}
	return l.EndpointForPort(ctx, port)
}

func (l *Localstack) endpoint(ctx context.Context, service ServiceName) (string, error) {
	return l.EndpointForService(ctx, string(service))
}

// EndpointS3 points at the localhost.localstack.cloud wildcard domain
// instead of localhost. S3 clients using virtual host style addressing
// prepend the bucket name to the host, and <bucket>.localhost does not
// resolve.
func (l *Localstack) EndpointS3(ctx context.Context) (string, error) {
	endpoint, err := l.endpoint(ctx, ServiceS3)
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(endpoint, "localhost", LocalhostDomainName), nil
}

func (l *Localstack) EndpointKinesis(ctx context.Context) (string, error) {
	return l.endpoint(ctx, ServiceKinesis)
}

func (l *Localstack) EndpointLambda(ctx context.Context) (string, error) {
	return l.endpoint(ctx, ServiceLambda)
}

func (l *Localstack) EndpointDynamoDB(ctx context.Context) (string, error) {
	return l.endpoint(ctx, ServiceDynamoDB)
}

func (l *Localstack) EndpointDynamoDBStreams(ctx context.Context) (string, error) {
	return l.endpoint(ctx, ServiceDynamoDBStreams)
}

func (l *Localstack) EndpointAPIGateway(ctx context.Context) (string, error) {
	return l.endpoint(ctx, ServiceAPIGateway)
}

func (l *Localstack) EndpointElasticsearch(ctx context.Context) (string, error) {
	return l.endpoint(ctx, ServiceElasticsearch)
}

func (l *Localstack) EndpointElasticsearchService(ctx context.Context) (string, error) {
	return l.endpoint(ctx, ServiceElasticsearchService)
}

func (l *Localstack) EndpointFirehose(ctx context.Context) (string, error) {
	return l.endpoint(ctx, ServiceFirehose)
}

func (l *Localstack) EndpointSNS(ctx context.Context) (string, error) {
	return l.endpoint(ctx, ServiceSNS)
}

func (l *Localstack) EndpointSQS(ctx context.Context) (string, error) {
	return l.endpoint(ctx, ServiceSQS)
}

func (l *Localstack) EndpointRedshift(ctx context.Context) (string, error) {
	return l.endpoint(ctx, ServiceRedshift)
}

func (l *Localstack) EndpointCloudWatch(ctx context.Context) (string, error) {
	return l.endpoint(ctx, ServiceCloudWatch)
}

func (l *Localstack) EndpointCloudWatchLogs(ctx context.Context) (string, error) {
	return l.endpoint(ctx, ServiceCloudWatchLogs)
}

func (l *Localstack) EndpointSES(ctx context.Context) (string, error) {
	return l.endpoint(ctx, ServiceSES)
}

func (l *Localstack) EndpointRoute53(ctx context.Context) (string, error) {
	return l.endpoint(ctx, ServiceRoute53)
}

func (l *Localstack) EndpointCloudFormation(ctx context.Context) (string, error) {
	return l.endpoint(ctx, ServiceCloudFormation)
}

func (l *Localstack) EndpointSSM(ctx context.Context) (string, error) {
	return l.endpoint(ctx, ServiceSSM)
}

func (l *Localstack) EndpointSecretsManager(ctx context.Context) (string, error) {
	return l.endpoint(ctx, ServiceSecretsManager)
}

func (l *Localstack) EndpointEC2(ctx context.Context) (string, error) {
	return l.endpoint(ctx, ServiceEC2)
}

func (l *Localstack) EndpointStepFunctions(ctx context.Context) (string, error) {
	return l.endpoint(ctx, ServiceStepFunctions)
}

func (l *Localstack) EndpointIAM(ctx context.Context) (string, error) {
	return l.endpoint(ctx, ServiceIAM)
}

func (l *Localstack) DefaultRegion() string {
	return DefaultRegion
}

// HTTPClient returns a client for talking to LocalStack directly. With
// USE_SSL on it accepts the self-signed LocalStack certificate.
func HTTPClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if config.UseSSL() {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}
	return &http.Client{
		Transport: transport,
		Timeout:   30 * time.Second,
	}
}
