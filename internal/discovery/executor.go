// SPDX-FileCopyrightText: 2026 The pathwatch authors
//
// SPDX-License-Identifier: Apache-2.0

package discovery

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pathwatch/pathwatch/internal/helper"
	"github.com/pathwatch/pathwatch/internal/logger"
)

var _ Executor = (*executor)(nil)

// defaultBinary is the hop-discovery binary expected on the PATH.
const defaultBinary = "traceroute"

type executor struct {
	binary    string
	buildArgs func(cfg Config) []string
}

// NewExecutor creates a new Executor that drives the system traceroute binary.
func NewExecutor() Executor {
	return &executor{
		binary:    defaultBinary,
		buildArgs: defaultArgs,
	}
}

// defaultArgs builds the traceroute invocation for the given config.
// Numeric output and a single query per hop keep the output parseable
// and the run fast.
func defaultArgs(cfg Config) []string {
	args := []string{"-n", "-q", "1", "-m", strconv.Itoa(cfg.MaxHops)}
	switch cfg.Protocol {
	case ProtocolICMP:
		args = append(args, "-I")
	case ProtocolTCP:
		args = append(args, "-T")
		if cfg.Port > 0 {
			args = append(args, "-p", strconv.Itoa(cfg.Port))
		}
	default:
		if cfg.Port > 0 {
			args = append(args, "-p", strconv.Itoa(cfg.Port))
		}
	}
	return append(args, cfg.Target)
}

// Start begins a discovery run. The process is spawned with its own process
// group so cancellation can terminate it together with any children.
func (e *executor) Start(ctx context.Context, cfg Config) (Run, error) {
	if err := cfg.Validate(); err != nil {
		return nil, ErrExecutor{Err: err}
	}

	runCtx, cancel := context.WithCancel(ctx)
	if cfg.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, cfg.Timeout)
	}

	log := logger.FromContext(ctx)
	var (
		cmd    *exec.Cmd
		stdout io.ReadCloser
		stderr bytes.Buffer
	)
	start := func(context.Context) error {
		cmd = exec.Command(e.binary, e.buildArgs(cfg)...) // #nosec G204 // args are validated and numeric
		cmd.SysProcAttr = sysProcAttr()
		cmd.Stderr = &stderr

		var err error
		stdout, err = cmd.StdoutPipe()
		if err != nil {
			return err
		}
		return cmd.Start()
	}

	if err := helper.Retry(start, cfg.Retry)(runCtx); err != nil {
		cancel()
		return nil, ErrExecutor{Err: err}
	}
	log.DebugContext(ctx, "Started discovery process", "target", cfg.Target, "pid", cmd.Process.Pid)

	r := &processRun{
		events:  make(chan HopEvent, cfg.MaxHops),
		done:    make(chan struct{}),
		cmd:     cmd,
		ctx:     runCtx,
		cancel:  cancel,
		timeout: cfg.Timeout,
		stderr:  &stderr,
	}
	go r.watch()
	go r.consume(stdout)
	return r, nil
}

var _ Run = (*processRun)(nil)

type processRun struct {
	events  chan HopEvent
	done    chan struct{}
	cmd     *exec.Cmd
	ctx     context.Context
	cancel  context.CancelFunc
	timeout time.Duration
	stderr  *bytes.Buffer
	hops    atomic.Int64
	err     error
	once    sync.Once
}

func (r *processRun) Events() <-chan HopEvent {
	return r.events
}

func (r *processRun) Wait() error {
	<-r.done
	return r.err
}

func (r *processRun) Cancel() {
	r.cancel()
}

// watch terminates the process group as soon as the run context ends.
// Without the explicit kill an orphaned traceroute would keep probing
// after a session is stopped.
func (r *processRun) watch() {
	select {
	case <-r.ctx.Done():
		killProcessGroup(r.cmd.Process.Pid)
	case <-r.done:
	}
}

// consume reads the process output line by line, emits hop events and
// classifies the final outcome once the process exits.
func (r *processRun) consume(stdout io.Reader) {
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		ev, ok := parseLine(scanner.Text())
		if !ok {
			continue
		}
		r.hops.Add(1)
		r.events <- ev
	}

	werr := r.cmd.Wait()
	r.err = r.outcome(werr)
	r.cancel()
	close(r.events)
	r.once.Do(func() { close(r.done) })
}

func (r *processRun) outcome(werr error) error {
	if errors.Is(r.ctx.Err(), context.DeadlineExceeded) {
		return ErrDiscoveryTimeout{Timeout: r.timeout}
	}
	if r.ctx.Err() != nil {
		return context.Canceled
	}
	if werr == nil {
		return nil
	}

	// traceroute may exit nonzero even after reporting usable hops,
	// e.g. when late probes hit an unreachable network.
	if r.hops.Load() > 0 {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(werr, &exitErr) {
		return ErrDiscoveryFailed{ExitCode: exitErr.ExitCode(), Stderr: string(bytes.TrimSpace(r.stderr.Bytes()))}
	}
	return ErrDiscoveryFailed{ExitCode: -1, Stderr: werr.Error()}
}
