// Package mocks provides a testify mock of executor.Executor.
package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/localstack/localstack-go/pkg/common"
	"github.com/localstack/localstack-go/pkg/config"
	"github.com/localstack/localstack-go/pkg/executor"
)

type MockExecutor struct {
	mock.Mock
}

var _ executor.Executor = (*MockExecutor)(nil)

// NewMockExecutor creates a mock whose expectations are asserted when the
// test finishes.
func NewMockExecutor(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockExecutor {
	m := &MockExecutor{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockExecutor) PullImage(ctx context.Context, image string) error {
	args := m.Called(ctx, image)
	return args.Error(0)
}

func (m *MockExecutor) ImageExists(ctx context.Context, image string) (bool, error) {
	args := m.Called(ctx, image)
	return args.Bool(0), args.Error(1)
}

func (m *MockExecutor) CreateContainer(ctx context.Context, cfg config.ContainerStartConfig) (common.ContainerID, error) {
	args := m.Called(ctx, cfg)
	return args.Get(0).(common.ContainerID), args.Error(1)
}

func (m *MockExecutor) StartContainer(ctx context.Context, id common.ContainerID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockExecutor) StopContainer(ctx context.Context, id common.ContainerID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockExecutor) RemoveContainer(ctx context.Context, id common.ContainerID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockExecutor) IsContainerRunning(ctx context.Context, id common.ContainerID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockExecutor) ExecContainer(ctx context.Context, id common.ContainerID, command []string) (string, error) {
	args := m.Called(ctx, id, command)
	return args.String(0), args.Error(1)
}

func (m *MockExecutor) GetExternalPort(ctx context.Context, id common.ContainerID, internalPort int) (int, error) {
	args := m.Called(ctx, id, internalPort)
	return args.Int(0), args.Error(1)
}

// StreamLogs returns the io.ReadCloser configured with Return. A
// function of type func() io.ReadCloser is called on every invocation so
// each caller gets a fresh stream.
func (m *MockExecutor) StreamLogs(ctx context.Context, id common.ContainerID) (io.ReadCloser, error) {
	args := m.Called(ctx, id)
	var rc io.ReadCloser
	switch v := args.Get(0).(type) {
	case func() io.ReadCloser:
		rc = v()
	case io.ReadCloser:
		rc = v
	}
	return rc, args.Error(1)
}

func (m *MockExecutor) FindRunningContainer(ctx context.Context, filter executor.ContainerFilter) (common.ContainerID, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(common.ContainerID), args.Error(1)
}

func (m *MockExecutor) Close() error {
	args := m.Called()
	return args.Error(0)
}
