package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
	"gopkg.in/yaml.v3"
)

const (
	DefaultImageName     = "localstack/localstack"
	DefaultImageTag      = "latest"
	DefaultContainerName = "localstack-main"
	DefaultHostName      = "localhost"
	DefaultReadyTimeout  = 2 * time.Minute

	// DefaultPortConfigFile is the localstack_client config shipped in the
	// image; it lists every service together with its legacy port. Only
	// images built on python3.8 have it at this path. For newer tags set
	// PortConfigFile (portConfigFile in YAML) to the file of the image in
	// use, otherwise reading it retries per the RetryPolicy and the start
	// falls back to adopting a running container.
	DefaultPortConfigFile = "/opt/code/localstack/.venv/lib/python3.8/site-packages/localstack_client/config.py"
)

// LocalstackConfig describes how the LocalStack container is started. It is
// built before startup and treated as read-only afterwards.
type LocalstackConfig struct {
	ExternalHostName string            `yaml:"externalHostName"`
	PullNewImage     bool              `yaml:"pullNewImage"`
	RandomizePorts   bool              `yaml:"randomizePorts"`
	ImageName        string            `yaml:"imageName"`
	ImageTag         string            `yaml:"imageTag"`
	ContainerName    string            `yaml:"containerName"`
	Environment      map[string]string `yaml:"environment"`
	PortMappings     []PortMapping     `yaml:"portMappings"`
	Mounts           map[string]string `yaml:"mounts"`

	// IgnoreDockerRunErrors makes a failed start fall back to an already
	// running LocalStack container instead of failing.
	IgnoreDockerRunErrors bool `yaml:"ignoreDockerRunErrors"`

	ReadyTimeout   time.Duration `yaml:"readyTimeout"`
	PortConfigFile string        `yaml:"portConfigFile"`

	// InitCommands run inside the container once it is ready, one shell
	// style command line each.
	InitCommands []string `yaml:"initCommands"`
}

func DefaultLocalstackConfig() LocalstackConfig {
	return LocalstackConfig{
		ExternalHostName:      DefaultHostName,
		ImageName:             DefaultImageName,
		ImageTag:              DefaultImageTag,
		ContainerName:         DefaultContainerName,
		IgnoreDockerRunErrors: true,
		ReadyTimeout:          DefaultReadyTimeout,
		PortConfigFile:        DefaultPortConfigFile,
	}
}

// LoadLocalstackConfig reads a YAML file on top of the defaults.
func LoadLocalstackConfig(location string) (LocalstackConfig, error) {
	file, err := os.ReadFile(location)
	if err != nil {
		return LocalstackConfig{}, errors.Wrapf(err, "read %s", location)
	}

	cfg := DefaultLocalstackConfig()
	if err := yaml.Unmarshal(file, &cfg); err != nil {
		return LocalstackConfig{}, errors.Wrapf(err, "parse %s", location)
	}
	if err := cfg.Validate(); err != nil {
		return LocalstackConfig{}, errors.Wrapf(err, "invalid config %s", location)
	}
	return cfg, nil
}

// Image returns the image reference, defaulting the tag to latest.
func (c LocalstackConfig) Image() string {
	tag := c.ImageTag
	if tag == "" {
		tag = DefaultImageTag
	}
	return c.ImageName + ":" + tag
}

func (c LocalstackConfig) Validate() error {
	if c.ExternalHostName == "" {
		return errors.New("external host name is required")
	}
	if c.ImageName == "" {
		return errors.New("image name is required")
	}
	if c.ReadyTimeout < 0 {
		return errors.Errorf("ready timeout must not be negative: %s", c.ReadyTimeout)
	}
	for _, pm := range c.PortMappings {
		if !validPort(pm.Internal) {
			return errors.Errorf("invalid internal port %d", pm.Internal)
		}
		if pm.External != 0 && !validPort(pm.External) {
			return errors.Errorf("invalid external port %d for %d", pm.External, pm.Internal)
		}
	}
	return nil
}

// Clone returns a copy that shares no maps or slices with c.
func (c LocalstackConfig) Clone() LocalstackConfig {
	out := c
	if c.Environment != nil {
		out.Environment = maps.Clone(c.Environment)
	}
	if c.Mounts != nil {
		out.Mounts = maps.Clone(c.Mounts)
	}
	if c.PortMappings != nil {
		out.PortMappings = append([]PortMapping(nil), c.PortMappings...)
	}
	if c.InitCommands != nil {
		out.InitCommands = append([]string(nil), c.InitCommands...)
	}
	return out
}

func validPort(p int) bool {
	return p > 0 && p <= 65535
}
