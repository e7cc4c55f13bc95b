package executor

import (
	"context"
	"io"

	"github.com/pkg/errors"

	"github.com/localstack/localstack-go/pkg/common"
	"github.com/localstack/localstack-go/pkg/config"
)

var ErrContainerNotFound = errors.New("container not found")

// ContainerFilter selects running containers. Empty fields are ignored.
type ContainerFilter struct {
	Name   string
	Image  string
	Labels map[string]string
}

// Executor is the container runtime as seen by the LocalStack lifecycle.
type Executor interface {
	PullImage(ctx context.Context, image string) error
	ImageExists(ctx context.Context, image string) (bool, error)

	CreateContainer(ctx context.Context, config config.ContainerStartConfig) (common.ContainerID, error)
	StartContainer(ctx context.Context, id common.ContainerID) error
	StopContainer(ctx context.Context, id common.ContainerID) error
	RemoveContainer(ctx context.Context, id common.ContainerID) error
	IsContainerRunning(ctx context.Context, id common.ContainerID) (bool, error)

	// ExecContainer runs command inside the container and returns its
	// stdout. A non-zero exit code is an error.
	ExecContainer(ctx context.Context, id common.ContainerID, command []string) (string, error)

	// GetExternalPort maps a container tcp port to the host port it is
	// published on.
	GetExternalPort(ctx context.Context, id common.ContainerID, internalPort int) (int, error)

	// StreamLogs follows the combined stdout and stderr of the container
	// from its start. Closing the reader stops the stream.
	StreamLogs(ctx context.Context, id common.ContainerID) (io.ReadCloser, error)

	// FindRunningContainer returns the first running container matching
	// the filter, or ErrContainerNotFound.
	FindRunningContainer(ctx context.Context, filter ContainerFilter) (common.ContainerID, error)

	Close() error
}

func New() (Executor, error) {
	return newDockerAPIExecutor()
}
