package localstacktest

import (
	"context"

	"github.com/stretchr/testify/suite"

	"github.com/localstack/localstack-go/pkg/config"
	"github.com/localstack/localstack-go/pkg/executor"
	"github.com/localstack/localstack-go/pkg/localstack"
)

// Suite starts one LocalStack container for all tests of a testify suite.
// Without an explicit Config the settings come from ConfigFromEnv.
// Embedding suites that need different settings adjust Config or call
// SetExecutor before SetupSuite runs.
type Suite struct {
	suite.Suite

	Config  config.LocalstackConfig
	Options []localstack.Option

	executor   executor.Executor
	ownsClient bool
	localstack *localstack.Localstack
	result     localstack.StartResult
}

// Executor returns the current executor, or connects to the docker daemon
// if none was set.
func (s *Suite) Executor() executor.Executor {
	if s.executor == nil {
		e, err := executor.New()
		s.Require().NoError(err)
		s.executor = e
		s.ownsClient = true
	}
	return s.executor
}

func (s *Suite) SetExecutor(e executor.Executor) {
	s.executor = e
	s.ownsClient = false
}

func (s *Suite) SetupSuite() {
	if s.Config.ImageName == "" {
		cfg, err := ConfigFromEnv()
		s.Require().NoError(err)
		s.Config = cfg
	}

	s.localstack = localstack.New(s.Executor(), s.Options...)
	result, err := s.localstack.Startup(context.Background(), s.Config)
	s.Require().NoError(err)
	s.result = result
	if result.Outcome == localstack.AdoptedExisting {
		s.T().Logf("using running LocalStack container %s: %v", result.ContainerID.Short(), result.Cause)
	}
}

func (s *Suite) TearDownSuite() {
	if s.localstack != nil {
		s.NoError(s.localstack.Stop(context.Background()))
	}
	if s.ownsClient {
		s.NoError(s.executor.Close())
	}
}

func (s *Suite) Localstack() *localstack.Localstack {
	return s.localstack
}

// StartResult tells whether SetupSuite started a container or adopted one.
func (s *Suite) StartResult() localstack.StartResult {
	return s.result
}

// Endpoint resolves the URL of service, failing the test on error.
func (s *Suite) Endpoint(service localstack.ServiceName) string {
	var (
		endpoint string
		err      error
	)
	if service == localstack.ServiceS3 {
		endpoint, err = s.localstack.EndpointS3(context.Background())
	} else {
		endpoint, err = s.localstack.EndpointForService(context.Background(), string(service))
	}
	s.Require().NoError(err)
	return endpoint
}
