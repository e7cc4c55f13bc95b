package executor

import (
	"encoding/base64"
	"encoding/json"
	"os"
	"strings"

	"github.com/docker/cli/cli/config/configfile"
	"github.com/docker/docker/api/types/registry"
	"github.com/pkg/errors"

	"github.com/localstack/localstack-go/pkg/log"
)

// readRegistryConfigs collects registry credentials from docker CLI config
// files and returns them encoded for the pull API, keyed by registry. The
// first file that has an entry for a registry wins.
func readRegistryConfigs(paths []string) (map[string]string, error) {
	encoded := make(map[string]string)
	for _, path := range paths {
		expanded := os.ExpandEnv(path)

		configBytes, err := os.ReadFile(expanded)
		if err != nil {
			log.Debug("unable to read config file: %s", err)
			continue
		}

		var dockerConfig configfile.ConfigFile
		if err := json.Unmarshal(configBytes, &dockerConfig); err != nil {
			log.Info("failed to parse config file: %s", err)
			continue
		}
		for server, dockerAuthConfig := range dockerConfig.AuthConfigs {
			if _, ok := encoded[server]; ok {
				continue
			}
			authConfig := registry.AuthConfig{
				Username:      dockerAuthConfig.Username,
				Password:      dockerAuthConfig.Password,
				Auth:          dockerAuthConfig.Auth,
				ServerAddress: dockerAuthConfig.ServerAddress,
			}
			if len(authConfig.Auth) > 0 {
				authPlain, err := base64.StdEncoding.DecodeString(authConfig.Auth)
				if err != nil {
					return nil, errors.Wrapf(err, "decode auth for %s in %s", server, expanded)
				}
				username, password, found := strings.Cut(string(authPlain), ":")
				if !found {
					return nil, errors.Errorf("malformed auth for %s in %s", server, expanded)
				}
				authConfig.Username = username
				authConfig.Password = password
			}
			if authConfig.ServerAddress == "" {
				authConfig.ServerAddress = server
			}
			encodedAuthConfig, err := registry.EncodeAuthConfig(authConfig)
			if err != nil {
				return nil, errors.Wrapf(err, "encode auth for %s", server)
			}
			encoded[registryKey(server)] = encodedAuthConfig
			log.Info("read credentials for %s from %s", server, expanded)
		}
	}
	return encoded, nil
}

// registryKey normalises the server names docker writes into its config
// ("https://index.docker.io/v1/") to the host form getFullImageRef returns.
func registryKey(server string) string {
	server = strings.TrimPrefix(server, "https://")
	server = strings.TrimPrefix(server, "http://")
	server, _, _ = strings.Cut(server, "/")
	if server == "index.docker.io" || server == "registry-1.docker.io" {
		return "docker.io"
	}
	return server
}
