package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/thoas/go-funk"
)

const (
	EnvUseSSL   = "USE_SSL"
	EnvEdgePort = "EDGE_PORT"

	envDockerConfig = "DOCKER_CONFIG"

	DefaultEdgePort = 4566
)

// values that switch a flag off; anything else set in the environment
// switches it on
var falsyValues = []string{"false", "0", ""}

// ReadEnvVar safely reads a variable from the environment.
// If the variable does not exist, an empty string is returned.
func ReadEnvVar(env string) string {
	if e, ok := os.LookupEnv(env); ok {
		return e
	}
	return ""
}

// ReadEnvVarWithDefault safely reads a variable from the environment.
// If the variable does not exist, the provided default is returned.
func ReadEnvVarWithDefault(env string, def string) string {
	if e, ok := os.LookupEnv(env); ok {
		return e
	}
	return def
}

// IsEnvConfigSet reports whether a flag style variable is switched on.
// Unset, empty, "0" and "false" (after trimming) count as off.
func IsEnvConfigSet(env string) bool {
	value, ok := os.LookupEnv(env)
	if !ok {
		return false
	}
	return !funk.ContainsString(falsyValues, strings.TrimSpace(value))
}

// UseSSL reports whether endpoints should be served over https.
func UseSSL() bool {
	return IsEnvConfigSet(EnvUseSSL)
}

// EdgePort returns the port LocalStack multiplexes every service on,
// honouring the EDGE_PORT override.
func EdgePort() (int, error) {
	value := ReadEnvVar(EnvEdgePort)
	if strings.TrimSpace(value) == "" {
		return DefaultEdgePort, nil
	}
	port, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s %q", EnvEdgePort, value)
	}
	if port <= 0 || port > 65535 {
		return 0, errors.Errorf("invalid %s %q: out of range", EnvEdgePort, value)
	}
	return port, nil
}

// LoadEnvFiles loads dotenv files into the process environment. Variables
// that are already set are left untouched. Missing files are skipped.
func LoadEnvFiles(paths ...string) error {
	var existing []string
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return errors.Wrapf(err, "stat %s", path)
		}
		existing = append(existing, path)
	}
	if len(existing) == 0 {
		return nil
	}
	return errors.Wrap(godotenv.Load(existing...), "load env files")
}

// DockerConfigPaths lists the docker CLI config files that may carry
// registry credentials, most specific first.
func DockerConfigPaths() []string {
	var paths []string
	if dir := ReadEnvVar(envDockerConfig); dir != "" {
		paths = append(paths, filepath.Join(dir, "config.json"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".docker", "config.json"))
	}
	return paths
}
