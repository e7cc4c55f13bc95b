package localstack

import (
	"context"
	"regexp"
	"strconv"
	"time"

	"github.com/google/shlex"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"golang.org/x/exp/maps"

	"github.com/localstack/localstack-go/pkg/common"
	"github.com/localstack/localstack-go/pkg/config"
	"github.com/localstack/localstack-go/pkg/executor"
	"github.com/localstack/localstack-go/pkg/log"
	"github.com/localstack/localstack-go/pkg/readiness"
)

// Container is a handle on one LocalStack container. Only the Localstack
// that created or adopted it stops it.
type Container struct {
	executor executor.Executor
	id       common.ContainerID
	name     string
}

// CreateContainer pulls the image if needed, then creates and starts a
// LocalStack container publishing edgePort.
func CreateContainer(ctx context.Context, e executor.Executor, cfg config.LocalstackConfig, edgePort int) (*Container, error) {
	image := cfg.Image()
	if err := ensureImage(ctx, e, image, cfg.PullNewImage); err != nil {
		return nil, err
	}

	startConfig := containerStartConfig(cfg, edgePort)
	id, err := e.CreateContainer(ctx, startConfig)
	if err != nil {
		return nil, err
	}

	c := &Container{executor: e, id: id, name: cfg.ContainerName}
	if err := e.StartContainer(ctx, id); err != nil {
		if rmErr := e.RemoveContainer(ctx, id); rmErr != nil {
			log.Warn("remove unstarted container %s: %v", id.Short(), rmErr)
		}
		return nil, err
	}
	return c, nil
}

// AdoptRunningContainer finds a running LocalStack container, first by
// container name, then among the containers this package started, then by
// image.
func AdoptRunningContainer(ctx context.Context, e executor.Executor, cfg config.LocalstackConfig) (*Container, error) {
	var filters []executor.ContainerFilter
	if cfg.ContainerName != "" {
		filters = append(filters, executor.ContainerFilter{Name: cfg.ContainerName})
	}
	filters = append(filters,
		executor.ContainerFilter{Image: cfg.Image(), Labels: managedLabels()},
		executor.ContainerFilter{Image: cfg.Image()},
	)

	for _, filter := range filters {
		id, err := e.FindRunningContainer(ctx, filter)
		if errors.Is(err, executor.ErrContainerNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		log.Info("adopting running LocalStack container %s", id.Short())
		return &Container{executor: e, id: id, name: cfg.ContainerName}, nil
	}
	return nil, ErrNoRunningContainer
}

func ensureImage(ctx context.Context, e executor.Executor, image string, pullNewImage bool) error {
	if !pullNewImage {
		exists, err := e.ImageExists(ctx, image)
		if err != nil {
			return err
		}
		if exists {
			log.Debug("%s already exists", image)
			return nil
		}
	}
	return e.PullImage(ctx, image)
}

func containerStartConfig(cfg config.LocalstackConfig, edgePort int) config.ContainerStartConfig {
	env := map[string]string{}
	if edgePort != config.DefaultEdgePort {
		env["GATEWAY_LISTEN"] = "0.0.0.0:" + strconv.Itoa(edgePort)
		env["EDGE_PORT"] = strconv.Itoa(edgePort)
	}
	if config.UseSSL() {
		env[config.EnvUseSSL] = "1"
	}
	maps.Copy(env, cfg.Environment)

	external := edgePort
	if cfg.RandomizePorts {
		external = 0
	}
	ports := []config.PortMapping{{Internal: edgePort, External: external}}
	for _, pm := range cfg.PortMappings {
		ports = mergePortMapping(ports, pm)
	}

	return config.ContainerStartConfig{
		Name:   cfg.ContainerName,
		Image:  cfg.Image(),
		Env:    env,
		Mounts: cfg.Mounts,
		Labels: managedLabels(),
		Ports:  ports,
	}
}

func managedLabels() map[string]string {
	return map[string]string{managedByLabel: managedByValue}
}

// mergePortMapping replaces the binding for pm.Internal or appends it.
func mergePortMapping(ports []config.PortMapping, pm config.PortMapping) []config.PortMapping {
	for i := range ports {
		if ports[i].Internal == pm.Internal {
			ports[i] = pm
			return ports
		}
	}
	return append(ports, pm)
}

func (c *Container) ID() common.ContainerID {
	return c.id
}

func (c *Container) Name() string {
	return c.name
}

func (c *Container) ExternalPortFor(ctx context.Context, internalPort int) (int, error) {
	return c.executor.GetExternalPort(ctx, c.id, internalPort)
}

func (c *Container) ExecuteCommand(ctx context.Context, command []string) (string, error) {
	return c.executor.ExecContainer(ctx, c.id, command)
}

// ExecuteShell splits cmdline with shell quoting rules and runs it. No
// shell is involved, so pipes and variables are not expanded.
func (c *Container) ExecuteShell(ctx context.Context, cmdline string) (string, error) {
	args, err := shlex.Split(cmdline)
	if err != nil {
		return "", errors.Wrapf(err, "parse command %q", cmdline)
	}
	if len(args) == 0 {
		return "", errors.Errorf("empty command %q", cmdline)
	}
	return c.ExecuteCommand(ctx, args)
}

// WaitForLogToken follows the container output until a line matches token.
func (c *Container) WaitForLogToken(ctx context.Context, token *regexp.Regexp, timeout time.Duration) error {
	logs, err := c.executor.StreamLogs(ctx, c.id)
	if err != nil {
		return err
	}
	defer logs.Close()
	return readiness.WaitForToken(ctx, logs, token, timeout)
}

func (c *Container) IsRunning(ctx context.Context) (bool, error) {
	return c.executor.IsContainerRunning(ctx, c.id)
}

// Stop stops and removes the container. Removal is attempted even when
// stopping fails.
func (c *Container) Stop(ctx context.Context) error {
	var result error
	if err := c.executor.StopContainer(ctx, c.id); err != nil {
		result = multierror.Append(result, err)
	}
	if err := c.executor.RemoveContainer(ctx, c.id); err != nil {
		result = multierror.Append(result, err)
	}
	if result == nil {
		log.Info("stopped LocalStack container %s", c.id.Short())
	}
	return result
}
