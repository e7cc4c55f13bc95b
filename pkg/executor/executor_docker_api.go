package executor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/errdefs"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/docker/go-connections/nat"
	"github.com/pkg/errors"
	"golang.org/x/exp/maps"

	"github.com/localstack/localstack-go/pkg/common"
	"github.com/localstack/localstack-go/pkg/config"
	"github.com/localstack/localstack-go/pkg/log"
)

const (
	stopTimeoutSeconds = 10
	removeTimeout      = 10 * time.Second
)

type dockerAPIExecutor struct {
	client      *client.Client
	authConfigs map[string]string
	retry       RetryPolicy
}

func newDockerAPIExecutor() (*dockerAPIExecutor, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, errors.Wrap(err, "docker client")
	}

	authConfigs, err := readRegistryConfigs(config.DockerConfigPaths())
	if err != nil {
		log.Error("Error reading registry auth files: %s", err)
		authConfigs = map[string]string{}
	}

	return &dockerAPIExecutor{
		client:      cli,
		authConfigs: authConfigs,
		retry:       DefaultRetryPolicy,
	}, nil
}

func (d *dockerAPIExecutor) Close() error {
	return d.client.Close()
}

func convertMapToSlice(env map[string]string) []string {
	keys := maps.Keys(env)
	sort.Strings(keys)

	result := make([]string, 0, len(keys))
	for _, k := range keys {
		result = append(result, k+"="+env[k])
	}
	return result
}

func tcpPort(p int) nat.Port {
	return nat.Port(fmt.Sprintf("%d/tcp", p))
}

// buildPortBindings exposes every mapped port and publishes it on the
// host. An External of zero leaves the host port to docker.
func buildPortBindings(ports []config.PortMapping) (nat.PortSet, nat.PortMap) {
	exposed := nat.PortSet{}
	bindings := nat.PortMap{}
	for _, pm := range ports {
		port := tcpPort(pm.Internal)
		exposed[port] = struct{}{}

		hostPort := ""
		if pm.External > 0 {
			hostPort = strconv.Itoa(pm.External)
		}
		bindings[port] = []nat.PortBinding{{HostIP: "0.0.0.0", HostPort: hostPort}}
	}
	return exposed, bindings
}

func buildMounts(mounts map[string]string) (map[string]struct{}, []string) {
	var binds []string
	volumes := map[string]struct{}{}

	for containerPath, hostPath := range mounts {
		if hostPath == "" {
			volumes[containerPath] = struct{}{}
		} else {
			binds = append(binds, fmt.Sprintf("%s:%s", hostPath, containerPath))
		}
	}
	sort.Strings(binds)
	return volumes, binds
}

func (d *dockerAPIExecutor) CreateContainer(ctx context.Context, startConfig config.ContainerStartConfig) (common.ContainerID, error) {
	volumes, binds := buildMounts(startConfig.Mounts)
	exposed, bindings := buildPortBindings(startConfig.Ports)

	containerConfig := &container.Config{
		Image:        startConfig.Image,
		Env:          convertMapToSlice(startConfig.Env),
		Labels:       startConfig.Labels,
		Volumes:      volumes,
		ExposedPorts: exposed,
	}

	hostConfig := &container.HostConfig{
		Binds:        binds,
		PortBindings: bindings,
	}
	resp, err := d.client.ContainerCreate(ctx, containerConfig, hostConfig, nil, nil, startConfig.Name)
	if err != nil {
		return "", errors.Wrapf(err, "create %s", startConfig.Name)
	}
	for _, warning := range resp.Warnings {
		log.Warn("create %s: %s", startConfig.Name, warning)
	}

	id := common.ContainerID(resp.ID)
	log.Info("created %s with %s (%s)", startConfig.Name, startConfig.Image, id.Short())
	return id, nil
}

func (d *dockerAPIExecutor) StartContainer(ctx context.Context, id common.ContainerID) error {
	if err := d.client.ContainerStart(ctx, id.Long(), container.StartOptions{}); err != nil {
		return errors.Wrapf(err, "start %s", id.Short())
	}
	log.Info("started %s", id.Short())
	return nil
}

func (d *dockerAPIExecutor) ExecContainer(ctx context.Context, id common.ContainerID, command []string) (string, error) {
	execConfig := container.ExecOptions{
		AttachStdout: true,
		AttachStderr: true,
		Cmd:          command,
	}

	resp, err := d.client.ContainerExecCreate(ctx, id.Long(), execConfig)
	if err != nil {
		return "", errors.Wrap(err, "error creating exec")
	}

	attachResp, err := d.client.ContainerExecAttach(ctx, resp.ID, container.ExecStartOptions{Detach: false, Tty: false})
	if err != nil {
		return "", errors.Wrap(err, "error attaching to exec")
	}
	defer attachResp.Close()

	var stdoutBuf, stderrBuf bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdoutBuf, &stderrBuf, attachResp.Reader); err != nil {
		return "", errors.Wrap(err, "error reading exec output")
	}

	execInspect, err := d.client.ContainerExecInspect(ctx, resp.ID)
	if err != nil {
		return "", errors.Wrap(err, "error inspecting exec")
	}
	log.Debug("exec %s %s (exitCode=%d, outBytes=%d)",
		id.Short(), common.CommandLine(command), execInspect.ExitCode, stdoutBuf.Len())

	if execInspect.ExitCode != 0 {
		return stdoutBuf.String(), errors.Errorf("command %q exited with %d: %s",
			common.CommandLine(command), execInspect.ExitCode, strings.TrimSpace(stderrBuf.String()))
	}
	return stdoutBuf.String(), nil
}

// logStream closes the docker response along with the pipe, so a
// consumer giving up also ends the demultiplexing goroutine.
type logStream struct {
	*io.PipeReader
	source io.Closer
}

func (l *logStream) Close() error {
	err := l.source.Close()
	if perr := l.PipeReader.Close(); err == nil {
		err = perr
	}
	return err
}

func (d *dockerAPIExecutor) StreamLogs(ctx context.Context, id common.ContainerID) (io.ReadCloser, error) {
	inspect, err := d.client.ContainerInspect(ctx, id.Long())
	if err != nil {
		return nil, errors.Wrapf(err, "inspect %s", id.Short())
	}

	logsReader, err := d.client.ContainerLogs(ctx, id.Long(), container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     true,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "error getting container logs for %s", id.Short())
	}

	// with a TTY the stream is raw, otherwise it is multiplexed
	if inspect.Config != nil && inspect.Config.Tty {
		return logsReader, nil
	}

	pr, pw := io.Pipe()
	go func() {
		_, err := stdcopy.StdCopy(pw, pw, logsReader)
		pw.CloseWithError(err)
	}()
	return &logStream{PipeReader: pr, source: logsReader}, nil
}

func (d *dockerAPIExecutor) StopContainer(ctx context.Context, id common.ContainerID) error {
	timeout := stopTimeoutSeconds
	err := d.client.ContainerStop(ctx, id.Long(), container.StopOptions{
		Signal:  "SIGTERM",
		Timeout: &timeout,
	})
	if err != nil {
		return errors.Wrapf(err, "error stopping container %s", id.Short())
	}
	log.Debug("stop %s", id.Short())
	return nil
}

func (d *dockerAPIExecutor) RemoveContainer(ctx context.Context, id common.ContainerID) error {
	timeoutContext, cancel := context.WithTimeout(ctx, removeTimeout)
	defer cancel()

	err := d.client.ContainerRemove(timeoutContext, id.Long(), container.RemoveOptions{
		RemoveVolumes: true,
		Force:         true,
	})
	if err != nil && !errdefs.IsNotFound(err) {
		return errors.Wrapf(err, "error removing container %s", id.Short())
	}
	log.Debug("remove %s", id.Short())
	return nil
}

func (d *dockerAPIExecutor) IsContainerRunning(ctx context.Context, id common.ContainerID) (bool, error) {
	inspect, err := d.client.ContainerInspect(ctx, id.Long())
	if err != nil {
		if errdefs.IsNotFound(err) {
			return false, nil
		}
		return false, errors.Wrapf(err, "inspect %s", id.Short())
	}
	running := inspect.State != nil && inspect.State.Running
	log.Trace("%s running: %v", id.Short(), running)
	return running, nil
}

func (d *dockerAPIExecutor) GetExternalPort(ctx context.Context, id common.ContainerID, internalPort int) (int, error) {
	inspect, err := d.client.ContainerInspect(ctx, id.Long())
	if err != nil {
		return 0, errors.Wrapf(err, "inspect %s", id.Short())
	}
	if inspect.NetworkSettings == nil {
		return 0, errors.Errorf("container %s has no network settings", id.Short())
	}
	return externalPortFrom(inspect.NetworkSettings.Ports, internalPort)
}

func externalPortFrom(ports nat.PortMap, internalPort int) (int, error) {
	for _, binding := range ports[tcpPort(internalPort)] {
		if binding.HostPort == "" {
			continue
		}
		port, err := strconv.Atoi(binding.HostPort)
		if err != nil {
			return 0, errors.Wrapf(err, "host port %q for %d", binding.HostPort, internalPort)
		}
		return port, nil
	}
	return 0, errors.Errorf("port %d is not published", internalPort)
}

func containerListFilters(filter ContainerFilter) filters.Args {
	args := filters.NewArgs()
	if filter.Name != "" {
		// the name filter is a regular expression over "/<name>"
		args.Add("name", "^/"+filter.Name+"$")
	}
	if filter.Image != "" {
		args.Add("ancestor", filter.Image)
	}
	labels := maps.Keys(filter.Labels)
	sort.Strings(labels)
	for _, k := range labels {
		args.Add("label", k+"="+filter.Labels[k])
	}
	return args
}

func (d *dockerAPIExecutor) FindRunningContainer(ctx context.Context, filter ContainerFilter) (common.ContainerID, error) {
	containers, err := d.client.ContainerList(ctx, container.ListOptions{
		Filters: containerListFilters(filter),
	})
	if err != nil {
		return "", errors.Wrap(err, "list containers")
	}
	for _, c := range containers {
		if c.State != "running" {
			continue
		}
		id := common.ContainerID(c.ID)
		log.Debug("found running container %s (%v)", id.Short(), c.Names)
		return id, nil
	}
	return "", ErrContainerNotFound
}

func (d *dockerAPIExecutor) ImageExists(ctx context.Context, ref string) (bool, error) {
	images, err := d.client.ImageList(ctx, image.ListOptions{
		Filters: filters.NewArgs(filters.Arg("reference", ref)),
	})
	if err != nil {
		return false, errors.Wrapf(err, "%s", ref)
	}
	return len(images) != 0, nil
}

func (d *dockerAPIExecutor) PullImage(ctx context.Context, ref string) error {
	var pullOptions image.PullOptions
	imageRegistry, _, _ := getFullImageRef(ref)
	if auth, ok := d.authConfigs[imageRegistry]; ok {
		pullOptions = image.PullOptions{RegistryAuth: auth}
	}
	log.Info("pulling %s from %s", ref, imageRegistry)

	_, err := Retry(ctx, d.retry, func() (string, error) {
		reader, err := d.client.ImagePull(ctx, ref, pullOptions)
		if err != nil {
			return NoOutput, err
		}
		defer reader.Close()
		// the pull only completes once the progress stream is drained
		_, err = io.Copy(io.Discard, reader)
		return NoOutput, err
	})
	if err != nil {
		return errors.Wrapf(err, "pull %s", ref)
	}
	log.Info("pulled %s", ref)
	return nil
}

func getFullImageRef(ref string) (registry, repository, tag string) {
	registry = "docker.io"
	tag = "latest"
	if idx := strings.LastIndex(ref, ":"); idx > strings.LastIndex(ref, "/") {
		tag = ref[idx+1:]
		ref = ref[:idx]
	}
	if strings.Contains(ref, "/") {
		parts := strings.Split(ref, "/")
		if len(parts) == 3 || (len(parts) == 2 && strings.ContainsAny(parts[0], ".:")) {
			registry = parts[0]
			repository = strings.Join(parts[1:], "/")
		} else if len(parts) == 2 {
			repository = strings.Join(parts, "/")
		} else {
			repository = ref
		}
	} else {
		repository = "library/" + ref
	}
	return registry, repository, tag
}
