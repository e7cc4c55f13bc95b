package localstack

import (
	"github.com/pkg/errors"
)

var (
	ErrAlreadyStarted      = errors.New("a LocalStack container is starting or already started")
	ErrPortMapUnresolved   = errors.New("service to port mapping has not been determined yet")
	ErrContainerNotStarted = errors.New("container not started")
	ErrNoRunningContainer  = errors.New("no running LocalStack container found")
	ErrStartAborted        = errors.New("startup aborted by Stop")
)

// UnknownServiceError is returned for a service missing from the port map.
type UnknownServiceError struct {
	Service string
}

func (e *UnknownServiceError) Error() string {
	return "unknown port mapping for service: " + e.Service
}

// StartupError means no usable container could be obtained.
type StartupError struct {
	Cause error
}

func (e *StartupError) Error() string {
	return "could not start the LocalStack container: " + e.Cause.Error()
}

func (e *StartupError) Unwrap() error {
	return e.Cause
}
