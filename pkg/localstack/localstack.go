// Package localstack runs a LocalStack container for tests and resolves
// the endpoints of the AWS services it emulates.
//
// A Localstack value owns at most one container at a time:
//
//	ls := localstack.New(exec)
//	result, err := ls.Startup(ctx, config.DefaultLocalstackConfig())
//	if err != nil {
//	    return err
//	}
//	defer ls.Stop(ctx)
//
//	endpoint, err := ls.EndpointSQS(ctx)
package localstack

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/localstack/localstack-go/pkg/common"
	"github.com/localstack/localstack-go/pkg/config"
	"github.com/localstack/localstack-go/pkg/executor"
	"github.com/localstack/localstack-go/pkg/log"
	"github.com/localstack/localstack-go/pkg/portmap"
)

// StartOutcome tells how Startup obtained its container.
type StartOutcome int

const (
	StartedFresh StartOutcome = iota
	AdoptedExisting
)

func (o StartOutcome) String() string {
	switch o {
	case StartedFresh:
		return "started"
	case AdoptedExisting:
		return "adopted"
	default:
		return fmt.Sprintf("StartOutcome(%d)", int(o))
	}
}

// StartResult describes a successful Startup. Cause holds the start error
// that was absorbed when an existing container was adopted instead.
type StartResult struct {
	Outcome     StartOutcome
	ContainerID common.ContainerID
	Cause       error
}

type Option func(*Localstack)

// WithExtractor replaces the port map extractor built from the edge port.
func WithExtractor(e portmap.Extractor) Option {
	return func(l *Localstack) {
		l.extractor = e
	}
}

func WithRetryPolicy(p executor.RetryPolicy) Option {
	return func(l *Localstack) {
		l.retry = p
	}
}

func WithReadyToken(token *regexp.Regexp) Option {
	return func(l *Localstack) {
		l.readyToken = token
	}
}

type Localstack struct {
	executor   executor.Executor
	extractor  portmap.Extractor
	retry      executor.RetryPolicy
	readyToken *regexp.Regexp

	mu               sync.RWMutex
	locked           bool
	inflight         *startAttempt
	container        *Container
	ports            *portmap.Map
	externalHostName string
}

// startAttempt is one Startup call between taking and returning the lock.
type startAttempt struct {
	cancel  context.CancelFunc
	done    chan struct{}
	aborted bool // guarded by Localstack.mu
}

func New(e executor.Executor, opts ...Option) *Localstack {
	l := &Localstack{
		executor:   e,
		retry:      executor.DefaultRetryPolicy,
		readyToken: regexp.MustCompile(DefaultReadyToken),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Startup starts a LocalStack container and blocks until it reports ready.
// A second call before Stop fails with ErrAlreadyStarted.
//
// When the start fails and cfg.IgnoreDockerRunErrors is set, an already
// running LocalStack container is adopted instead and the result carries
// the absorbed failure in Cause. Otherwise the partial container is
// stopped and a *StartupError is returned.
//
// A Stop issued while Startup is in flight cancels it. Startup then
// returns a *StartupError wrapping ErrStartAborted and Stop removes
// whatever container was created.
func (l *Localstack) Startup(ctx context.Context, cfg config.LocalstackConfig) (StartResult, error) {
	startCtx, attempt, err := l.lock(ctx, cfg.ExternalHostName)
	if err != nil {
		return StartResult{}, err
	}
	defer l.finish(attempt)

	cfg = cfg.Clone()
	if cfg.PortConfigFile == "" {
		cfg.PortConfigFile = config.DefaultPortConfigFile
	}
	if err := cfg.Validate(); err != nil {
		l.unlock()
		return StartResult{}, &StartupError{Cause: err}
	}

	edgePort, err := config.EdgePort()
	if err != nil {
		l.unlock()
		return StartResult{}, &StartupError{Cause: err}
	}
	extractor := l.extractor
	if extractor == nil {
		extractor, err = portmap.NewRegexExtractor(portmap.DefaultPattern, edgePort)
		if err != nil {
			l.unlock()
			return StartResult{}, &StartupError{Cause: err}
		}
	}

	c, startErr := l.startFresh(startCtx, cfg, edgePort, extractor)
	if l.aborted(attempt) {
		return StartResult{}, abortedError(startErr)
	}
	if startErr == nil {
		log.Info("LocalStack container %s is ready", c.ID().Short())
		return StartResult{Outcome: StartedFresh, ContainerID: c.ID()}, nil
	}

	// cleanup must still run when ctx is what ended the start
	cleanupCtx := context.WithoutCancel(ctx)
	if !cfg.IgnoreDockerRunErrors {
		l.discardContainer(cleanupCtx)
		l.unlock()
		return StartResult{}, &StartupError{Cause: startErr}
	}

	log.Info("Ignoring error when starting LocalStack container, due to ignoreDockerRunErrors=true: %v", startErr)
	l.discardContainer(cleanupCtx)

	c, adoptErr := l.adopt(startCtx, cfg, extractor)
	if l.aborted(attempt) {
		return StartResult{}, abortedError(multierror.Append(startErr, adoptErr))
	}
	if adoptErr != nil {
		l.release()
		return StartResult{}, &StartupError{Cause: multierror.Append(startErr, adoptErr)}
	}
	return StartResult{Outcome: AdoptedExisting, ContainerID: c.ID(), Cause: startErr}, nil
}

// abortedError leaves the container and the lock in place for the Stop
// that cancelled the start.
func abortedError(cause error) error {
	if cause == nil {
		return &StartupError{Cause: ErrStartAborted}
	}
	return &StartupError{Cause: multierror.Append(ErrStartAborted, cause)}
}

func (l *Localstack) startFresh(ctx context.Context, cfg config.LocalstackConfig, edgePort int, extractor portmap.Extractor) (*Container, error) {
	c, err := CreateContainer(ctx, l.executor, cfg, edgePort)
	if err != nil {
		return nil, err
	}
	l.setContainer(c)

	if err := l.loadPortMap(ctx, c, cfg, extractor); err != nil {
		return c, err
	}

	log.Info("Waiting for LocalStack container to be ready...")
	if err := c.WaitForLogToken(ctx, l.readyToken, cfg.ReadyTimeout); err != nil {
		return c, err
	}

	for _, cmdline := range cfg.InitCommands {
		out, err := c.ExecuteShell(ctx, cmdline)
		if err != nil {
			return c, errors.Wrapf(err, "init command %q", cmdline)
		}
		log.Debug("init command %q: %s", cmdline, strings.TrimSpace(out))
	}
	return c, nil
}

func (l *Localstack) adopt(ctx context.Context, cfg config.LocalstackConfig, extractor portmap.Extractor) (*Container, error) {
	c, err := AdoptRunningContainer(ctx, l.executor, cfg)
	if err != nil {
		return nil, err
	}
	l.setContainer(c)

	if err := l.loadPortMap(ctx, c, cfg, extractor); err != nil {
		return nil, err
	}
	return c, nil
}

func nonEmptyOutput(output string, err error) error {
	if err != nil {
		return err
	}
	if strings.TrimSpace(output) == "" {
		return errors.New("empty output")
	}
	return nil
}

func (l *Localstack) loadPortMap(ctx context.Context, c *Container, cfg config.LocalstackConfig, extractor portmap.Extractor) error {
	command := []string{"cat", cfg.PortConfigFile}
	output, err := executor.RetryWithErrorCheck(ctx, l.retry, nonEmptyOutput, func() (string, error) {
		return c.ExecuteCommand(ctx, command)
	})
	if err != nil {
		return errors.Wrapf(err, "read port config %s", cfg.PortConfigFile)
	}

	ports, err := extractor.Extract(output)
	if err != nil {
		return errors.Wrap(err, "extract port map")
	}

	l.mu.Lock()
	l.ports = ports
	l.mu.Unlock()
	return nil
}

// Stop stops the container, if any, and always releases the start lock so
// Startup may be called again. Calling Stop with nothing running is a
// no-op. A Startup still in flight is cancelled and waited for first.
func (l *Localstack) Stop(ctx context.Context) error {
	c := l.takeOver()
	defer l.unlock()
	if c == nil {
		return nil
	}
	return c.Stop(ctx)
}

// IsRunning reports whether the container is alive. Runtime errors count
// as not running.
func (l *Localstack) IsRunning(ctx context.Context) bool {
	c := l.currentContainer()
	if c == nil {
		return false
	}
	running, err := c.IsRunning(ctx)
	if err != nil {
		log.Debug("checking %s: %v", c.ID().Short(), err)
		return false
	}
	return running
}

// Container returns the current handle, or nil before Startup.
func (l *Localstack) Container() *Container {
	return l.currentContainer()
}

func (l *Localstack) lock(ctx context.Context, externalHostName string) (context.Context, *startAttempt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.locked {
		return nil, nil, ErrAlreadyStarted
	}
	startCtx, cancel := context.WithCancel(ctx)
	l.locked = true
	l.externalHostName = externalHostName
	l.inflight = &startAttempt{cancel: cancel, done: make(chan struct{})}
	return startCtx, l.inflight, nil
}

// finish marks the attempt as returned, unblocking a waiting Stop.
func (l *Localstack) finish(attempt *startAttempt) {
	l.mu.Lock()
	if l.inflight == attempt {
		l.inflight = nil
	}
	l.mu.Unlock()

	attempt.cancel()
	close(attempt.done)
}

// takeOver cancels a Startup in flight and waits for it to return, then
// detaches the container. The lock stays held until the caller unlocks,
// so no new start overlaps the teardown.
func (l *Localstack) takeOver() *Container {
	for {
		l.mu.Lock()
		attempt := l.inflight
		if attempt == nil {
			l.locked = true
			c := l.container
			l.container = nil
			l.ports = nil
			l.mu.Unlock()
			return c
		}
		attempt.aborted = true
		attempt.cancel()
		l.mu.Unlock()
		<-attempt.done
	}
}

func (l *Localstack) aborted(attempt *startAttempt) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return attempt.aborted
}

func (l *Localstack) unlock() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.locked = false
}

func (l *Localstack) setContainer(c *Container) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.container = c
}

func (l *Localstack) currentContainer() *Container {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.container
}

// takeContainer detaches the container and its port map.
func (l *Localstack) takeContainer() *Container {
	l.mu.Lock()
	defer l.mu.Unlock()
	c := l.container
	l.container = nil
	l.ports = nil
	return c
}

// discardContainer stops a container that failed to start, keeping the lock.
func (l *Localstack) discardContainer(ctx context.Context) {
	if c := l.takeContainer(); c != nil {
		if err := c.Stop(ctx); err != nil {
			log.Warn("discard container %s: %v", c.ID().Short(), err)
		}
	}
}

// release forgets an adopted container without stopping it.
func (l *Localstack) release() {
	l.takeContainer()
	l.unlock()
}
