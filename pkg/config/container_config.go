package config

// ContainerStartConfig is everything the executor needs to create a
// container.
type ContainerStartConfig struct {
	Name   string
	Image  string
	Mounts map[string]string
	Env    map[string]string
	Labels map[string]string

	// Ports are bound on the host. A zero External lets docker pick one.
	Ports []PortMapping
}

// PortMapping binds a container port to a host port.
type PortMapping struct {
	Internal int `yaml:"internal"`
	External int `yaml:"external"`
}
