package localstacktest

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/localstack/localstack-go/pkg/common"
	"github.com/localstack/localstack-go/pkg/config"
	"github.com/localstack/localstack-go/pkg/executor"
	"github.com/localstack/localstack-go/pkg/executor/mocks"
	"github.com/localstack/localstack-go/pkg/localstack"
)

const containerID = common.ContainerID("c0ffee0123456789abcdef")

const portConfig = `'sqs': '{proto}://{host}:4576',
'sns': '{proto}://{host}:4575',
's3': '{proto}://{host}:4572',`

func expectLifecycle(m *mocks.MockExecutor) {
	m.On("ImageExists", mock.Anything, "localstack/localstack:latest").Return(true, nil).Once()
	m.On("CreateContainer", mock.Anything, mock.Anything).Return(containerID, nil).Once()
	m.On("StartContainer", mock.Anything, containerID).Return(nil).Once()
	m.On("ExecContainer", mock.Anything, containerID, []string{"cat", config.DefaultPortConfigFile}).
		Return(portConfig, nil).Once()
	m.On("StreamLogs", mock.Anything, containerID).
		Return(io.NopCloser(strings.NewReader("Ready.\n")), nil).Once()
	m.On("GetExternalPort", mock.Anything, containerID, 4566).Return(4566, nil).Maybe()
	m.On("StopContainer", mock.Anything, containerID).Return(nil).Once()
	m.On("RemoveContainer", mock.Anything, containerID).Return(nil).Once()
}

var fastRetry = localstack.WithRetryPolicy(executor.RetryPolicy{MaxRetries: 1, Wait: time.Millisecond})

func TestStartWithExecutor(t *testing.T) {
	t.Setenv(config.EnvEdgePort, "4566")
	t.Setenv(config.EnvUseSSL, "")
	m := mocks.NewMockExecutor(t)
	expectLifecycle(m)

	ls := StartWithExecutor(t, m, config.DefaultLocalstackConfig(), fastRetry)

	endpoint, err := ls.EndpointSQS(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:4566", endpoint)
}

type LocalstackSuite struct {
	Suite
	mock *mocks.MockExecutor
}

func (s *LocalstackSuite) SetupSuite() {
	s.mock = mocks.NewMockExecutor(s.T())
	expectLifecycle(s.mock)
	s.SetExecutor(s.mock)
	s.Options = []localstack.Option{fastRetry}
	s.Suite.SetupSuite()
}

func (s *LocalstackSuite) TestEndpoints() {
	s.Equal("http://localhost:4566", s.Endpoint(localstack.ServiceSNS))
	s.Equal("http://localhost.localstack.cloud:4566", s.Endpoint(localstack.ServiceS3))
}

func (s *LocalstackSuite) TestStartResult() {
	s.Equal(localstack.StartedFresh, s.StartResult().Outcome)
	s.Equal(containerID, s.Localstack().Container().ID())
}

func TestLocalstackSuite(t *testing.T) {
	t.Setenv(config.EnvEdgePort, "4566")
	t.Setenv(config.EnvUseSSL, "")
	t.Setenv(EnvConfigFile, "")
	suite.Run(t, new(LocalstackSuite))
}

func TestConfigFromEnv(t *testing.T) {
	dir := t.TempDir()
	location := filepath.Join(dir, "localstack.yaml")
	require.NoError(t, os.WriteFile(location, []byte("imageTag: \"3.8\"\nrandomizePorts: true\n"), 0o644))
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(EnvConfigFile+"="+location+"\n"), 0o644))

	t.Setenv(EnvConfigFile, "")
	require.NoError(t, os.Unsetenv(EnvConfigFile))

	cfg, err := ConfigFromEnv(envFile)
	require.NoError(t, err)
	assert.Equal(t, "localstack/localstack:3.8", cfg.Image())
	assert.True(t, cfg.RandomizePorts)
	assert.Equal(t, config.DefaultContainerName, cfg.ContainerName)
}

func TestConfigFromEnvDefaults(t *testing.T) {
	t.Setenv(EnvConfigFile, "")

	cfg, err := ConfigFromEnv(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, config.DefaultLocalstackConfig(), cfg)
}
