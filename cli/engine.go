package cli

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/santiagomed/infragenie/core"
	"github.com/santiagomed/infragenie/generator"
	"github.com/santiagomed/infragenie/logger"
)

var ErrBusy = errors.New("a generation request is already in flight")

// Outcome is the result of one submission.
type Outcome struct {
	Seq    int
	Result *core.GenerationResult
	Err    error
}

// Ticket describes an accepted submission.
type Ticket struct {
	Seq      int
	Started  time.Time
	Deadline time.Time
	Done     <-chan Outcome
}

// Engine runs at most one generation request at a time. It is a guard, not a
// queue: a second Submit while one is running fails with ErrBusy.
type Engine struct {
	client  generator.Client
	logger  logger.Logger
	timeout time.Duration

	ctx      context.Context
	shutdown context.CancelFunc
	workerWG sync.WaitGroup

	mu       sync.Mutex
	seq      int
	inFlight bool
	cancel   context.CancelFunc
}

func NewEngine(client generator.Client, l logger.Logger, timeout time.Duration) *Engine {
	if l == nil {
		l = logger.NewNullLogger()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		client:   client,
		logger:   l,
		timeout:  timeout,
		ctx:      ctx,
		shutdown: cancel,
	}
}

// Submit validates req and starts it. Blank prompts never reach the client.
func (e *Engine) Submit(req core.GenerationRequest) (Ticket, error) {
	if _, err := core.NewGenerationRequest(req.CloudProvider, req.Prompt, req.AIProvider); err != nil {
		return Ticket{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ctx.Err() != nil {
		return Ticket{}, errors.New("engine is shut down")
	}
	if e.inFlight {
		e.logger.Warn("Rejected submission while another request is in flight")
		return Ticket{}, ErrBusy
	}

	e.seq++
	seq := e.seq
	started := time.Now()
	ctx, cancel := context.WithTimeout(e.ctx, e.timeout)
	deadline, _ := ctx.Deadline()
	e.inFlight = true
	e.cancel = cancel

	done := make(chan Outcome, 1)
	e.workerWG.Add(1)
	go e.run(ctx, cancel, seq, req, done)

	e.logger.Debug(fmt.Sprintf("Submitted request %d", seq))
	return Ticket{Seq: seq, Started: started, Deadline: deadline, Done: done}, nil
}

func (e *Engine) run(ctx context.Context, cancel context.CancelFunc, seq int, req core.GenerationRequest, done chan<- Outcome) {
	defer e.workerWG.Done()
	defer cancel()

	startTime := time.Now()
	result, err := e.client.Generate(ctx, req)

	e.mu.Lock()
	if e.seq == seq {
		e.inFlight = false
		e.cancel = nil
	}
	e.mu.Unlock()

	if err != nil {
		e.logger.Error(fmt.Sprintf("Request %d failed after %v: %v", seq, time.Since(startTime), err))
	} else {
		e.logger.Info(fmt.Sprintf("Request %d completed in %v", seq, time.Since(startTime)))
	}

	done <- Outcome{Seq: seq, Result: result, Err: err}
	close(done)
}

// Cancel aborts the in-flight request, if any.
func (e *Engine) Cancel() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.inFlight || e.cancel == nil {
		return false
	}
	e.cancel()
	e.logger.Info(fmt.Sprintf("Cancelled request %d", e.seq))
	return true
}

func (e *Engine) InFlight() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.inFlight
}

// Shutdown cancels any running request and waits up to timeout for it to
// return.
func (e *Engine) Shutdown(timeout time.Duration) {
	e.shutdown()

	done := make(chan struct{})
	go func() {
		e.workerWG.Wait()
		close(done)
	}()

	select {
	case <-done:
		e.logger.Info("Engine shut down gracefully")
	case <-time.After(timeout):
		e.logger.Warn("Shutdown timed out, a request may still be running")
	}
}
