// Package localstacktest wires a LocalStack container into go tests.
//
//	func TestQueue(t *testing.T) {
//	    ls := localstacktest.Start(t, config.DefaultLocalstackConfig())
//	    endpoint, err := ls.EndpointSQS(context.Background())
//	    ...
//	}
package localstacktest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/localstack/localstack-go/pkg/config"
	"github.com/localstack/localstack-go/pkg/executor"
	"github.com/localstack/localstack-go/pkg/localstack"
)

// Start runs LocalStack against the local docker daemon for the duration
// of t. The container is stopped when the test finishes.
func Start(t testing.TB, cfg config.LocalstackConfig, opts ...localstack.Option) *localstack.Localstack {
	t.Helper()

	e, err := executor.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := e.Close(); err != nil {
			t.Logf("closing docker client: %v", err)
		}
	})
	return StartWithExecutor(t, e, cfg, opts...)
}

// StartWithExecutor is Start with a caller supplied container runtime.
func StartWithExecutor(t testing.TB, e executor.Executor, cfg config.LocalstackConfig, opts ...localstack.Option) *localstack.Localstack {
	t.Helper()

	ls := localstack.New(e, opts...)
	result, err := ls.Startup(context.Background(), cfg)
	require.NoError(t, err)
	if result.Outcome == localstack.AdoptedExisting {
		t.Logf("using running LocalStack container %s: %v", result.ContainerID.Short(), result.Cause)
	}

	t.Cleanup(func() {
		if err := ls.Stop(context.Background()); err != nil {
			t.Errorf("stopping LocalStack: %v", err)
		}
	})
	return ls
}

// EnvConfigFile names a YAML file with the LocalStack settings for tests.
const EnvConfigFile = "LOCALSTACK_CONFIG"

// ConfigFromEnv loads the optional .env files, then the YAML file named by
// LOCALSTACK_CONFIG. Without it the defaults are returned.
func ConfigFromEnv(envFiles ...string) (config.LocalstackConfig, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	if err := config.LoadEnvFiles(envFiles...); err != nil {
		return config.LocalstackConfig{}, err
	}

	location := config.ReadEnvVar(EnvConfigFile)
	if location == "" {
		return config.DefaultLocalstackConfig(), nil
	}
	return config.LoadLocalstackConfig(location)
}
