// Package orchestrator registers validators and runs them over one
// snapshot, serially or in bounded-concurrency batches, with per-validator
// timeouts and fault isolation.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aidanlsb/lorecheck/internal/issue"
	"github.com/aidanlsb/lorecheck/internal/snapshot"
)

// DefaultConcurrency is the batch size when none is configured.
const DefaultConcurrency = 3

var (
	// ErrAlreadyRunning is returned by Run while another run is in flight.
	ErrAlreadyRunning = errors.New("orchestrator is already running")
	// ErrDuplicateValidator is returned when registering a taken name.
	ErrDuplicateValidator = errors.New("validator already registered")
	// ErrUnknownValidator is returned for names that were never registered.
	ErrUnknownValidator = errors.New("unknown validator")
	// ErrTimeout is the cause recorded for validators that exceed the timeout.
	ErrTimeout = errors.New("validator timed out")
)

// Validator checks a snapshot. Implementations must treat the snapshot as
// read-only; they may be called concurrently with other validators.
type Validator interface {
	Validate(ctx context.Context, snap *snapshot.Snapshot) (issue.Result, error)
}

// Func adapts a function to the Validator interface.
type Func func(ctx context.Context, snap *snapshot.Snapshot) (issue.Result, error)

// Validate calls f.
func (f Func) Validate(ctx context.Context, snap *snapshot.Snapshot) (issue.Result, error) {
	return f(ctx, snap)
}

// Registration describes a registered validator.
type Registration struct {
	Name        string
	Description string
	Enabled     bool
	validator   Validator
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithConcurrency sets the batch size. Values below 1 are clamped to 1.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n < 1 {
			n = 1
		}
		o.concurrency = n
	}
}

// WithSerial runs validators one at a time.
func WithSerial() Option {
	return func(o *Orchestrator) { o.serial = true }
}

// WithTimeout bounds each validator call. Zero disables the timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithObserver registers a progress observer.
func WithObserver(fn Observer) Option {
	return func(o *Orchestrator) { o.observers = append(o.observers, fn) }
}

// Orchestrator runs registered validators. Registration is not allowed
// while a run is in flight.
type Orchestrator struct {
	concurrency int
	serial      bool
	timeout     time.Duration
	logger      *slog.Logger
	observers   []Observer

	mu      sync.Mutex
	regs    []*Registration
	state   State
	running bool

	emitMu sync.Mutex
}

// New creates an orchestrator.
func New(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		concurrency: DefaultConcurrency,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Register adds a named validator. Order of registration is the order of
// the final report.
func (o *Orchestrator) Register(name, description string, v Validator, enabled bool) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.running {
		return ErrAlreadyRunning
	}
	for _, r := range o.regs {
		if r.Name == name {
			return fmt.Errorf("%w: %s", ErrDuplicateValidator, name)
		}
	}
	o.regs = append(o.regs, &Registration{
		Name:        name,
		Description: description,
		Enabled:     enabled,
		validator:   v,
	})
	return nil
}

// SetEnabled toggles a registered validator.
func (o *Orchestrator) SetEnabled(name string, enabled bool) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	for _, r := range o.regs {
		if r.Name == name {
			r.Enabled = enabled
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownValidator, name)
}

// Validators returns the registrations in order.
func (o *Orchestrator) Validators() []Registration {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make([]Registration, len(o.regs))
	for i, r := range o.regs {
		out[i] = *r
	}
	return out
}

// State returns the current run state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Mode describes how validators are scheduled ("serial" or "batched(n)").
func (o *Orchestrator) Mode() string {
	if o.serial {
		return "serial"
	}
	return fmt.Sprintf("batched(%d)", o.concurrency)
}

func (o *Orchestrator) batchSize() int {
	if o.serial {
		return 1
	}
	return o.concurrency
}

// Run executes every enabled validator against snap and aggregates the
// results. Validators run in batches of the configured concurrency; batch
// i+1 starts only after every validator in batch i has settled. A
// validator that errors, panics or times out is recorded as failed and
// never affects its siblings. Cancelling ctx stops issuing new batches;
// validators that never started are recorded as failed with the cause.
//
// The returned error is non-nil only when the orchestrator is already
// running; validation failures are reported in the Report.
func (o *Orchestrator) Run(ctx context.Context, snap *snapshot.Snapshot) (*Report, error) {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return nil, ErrAlreadyRunning
	}
	o.running = true
	regs := make([]Registration, len(o.regs))
	for i, r := range o.regs {
		regs[i] = *r
	}
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.running = false
		o.mu.Unlock()
	}()

	started := time.Now()
	results := make([]ValidatorReport, len(regs))

	var enabled []int
	for i, r := range regs {
		if r.Enabled {
			enabled = append(enabled, i)
			continue
		}
		results[i] = ValidatorReport{
			Name:        r.Name,
			Description: r.Description,
			IsValid:     true,
			Skipped:     true,
			Issues:      []issue.Issue{},
			Warnings:    []issue.Issue{},
		}
	}

	size := o.batchSize()
	batches := chunk(enabled, size)
	o.logger.Debug("starting run", "validators", len(enabled), "batches", len(batches), "mode", o.Mode())

	for b, batch := range batches {
		if err := ctx.Err(); err != nil {
			for _, idx := range batch {
				results[idx] = failed(regs[idx], fmt.Errorf("run cancelled before start: %w", err), 0)
			}
			continue
		}

		o.setState(State{Phase: PhaseRunning, Batch: b + 1, Batches: len(batches)})

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(size)
		for _, idx := range batch {
			idx := idx
			g.Go(func() error {
				results[idx] = o.runOne(gctx, regs[idx], snap)
				o.emit(Event{State: o.State(), Validator: &results[idx]})
				// Failures are results, never group errors, so siblings
				// are not cancelled.
				return nil
			})
		}
		_ = g.Wait()
	}

	o.setState(State{Phase: PhaseAggregating})
	report := &Report{
		Validators: results,
		StartedAt:  started,
		Mode:       o.Mode(),
	}
	report.Summary = aggregate(results, time.Since(started))

	o.setState(State{Phase: PhaseDone, Passed: report.Summary.IsValid})
	o.logger.Debug("run finished",
		"passed", report.Summary.Passed,
		"failed", report.Summary.Failed,
		"duration_ms", report.Summary.DurationMs)
	return report, nil
}

type outcome struct {
	result issue.Result
	err    error
}

// runOne races one validator against the timeout and the run context.
func (o *Orchestrator) runOne(ctx context.Context, reg Registration, snap *snapshot.Snapshot) ValidatorReport {
	start := time.Now()

	vctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				o.logger.Debug("validator panic stack", "validator", reg.Name, "stack", string(debug.Stack()))
				done <- outcome{err: fmt.Errorf("panic: %v", p)}
			}
		}()
		res, err := reg.validator.Validate(vctx, snap)
		done <- outcome{result: res, err: err}
	}()

	var timeout <-chan time.Time
	if o.timeout > 0 {
		timer := time.NewTimer(o.timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case out := <-done:
		elapsed := time.Since(start)
		if out.err != nil {
			o.logger.Warn("validator failed", "validator", reg.Name, "error", out.err)
			return failed(reg, out.err, elapsed)
		}
		o.logger.Debug("validator finished", "validator", reg.Name,
			"valid", out.result.IsValid, "errors", len(out.result.Errors),
			"warnings", len(out.result.Warnings), "duration", elapsed)
		return succeeded(reg, out.result, elapsed)

	case <-timeout:
		o.logger.Warn("validator timed out", "validator", reg.Name, "timeout", o.timeout)
		return timedOut(reg, o.timeout)

	case <-ctx.Done():
		return failed(reg, fmt.Errorf("run cancelled: %w", context.Cause(ctx)), time.Since(start))
	}
}

func succeeded(reg Registration, res issue.Result, elapsed time.Duration) ValidatorReport {
	r := ValidatorReport{
		Name:         reg.Name,
		Description:  reg.Description,
		IsValid:      res.IsValid,
		Issues:       res.Errors,
		Warnings:     res.Warnings,
		CountsByKind: res.CountsByKind,
		Details:      res.Details,
		DurationMs:   elapsed.Milliseconds(),
	}
	if r.Issues == nil {
		r.Issues = []issue.Issue{}
	}
	if r.Warnings == nil {
		r.Warnings = []issue.Issue{}
	}
	// A validator that reports errors is never valid.
	if len(r.Issues) > 0 {
		r.IsValid = false
	}
	return r
}

func failed(reg Registration, err error, elapsed time.Duration) ValidatorReport {
	i := issue.Errorf(issue.ValidatorFailure, "validator %s failed: %v", reg.Name, err)
	return ValidatorReport{
		Name:         reg.Name,
		Description:  reg.Description,
		Issues:       []issue.Issue{i},
		Warnings:     []issue.Issue{},
		CountsByKind: map[issue.Kind]int{issue.ValidatorFailure: 1},
		DurationMs:   elapsed.Milliseconds(),
		Error:        err.Error(),
	}
}

func timedOut(reg Registration, timeout time.Duration) ValidatorReport {
	err := fmt.Errorf("%w after %s", ErrTimeout, timeout)
	i := issue.Errorf(issue.ValidatorTimeout, "validator %s timed out after %s", reg.Name, timeout)
	return ValidatorReport{
		Name:         reg.Name,
		Description:  reg.Description,
		Issues:       []issue.Issue{i},
		Warnings:     []issue.Issue{},
		CountsByKind: map[issue.Kind]int{issue.ValidatorTimeout: 1},
		DurationMs:   timeout.Milliseconds(),
		Error:        err.Error(),
	}
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
	o.emit(Event{State: s})
}

func (o *Orchestrator) emit(e Event) {
	if len(o.observers) == 0 {
		return
	}
	o.emitMu.Lock()
	defer o.emitMu.Unlock()
	for _, fn := range o.observers {
		fn(e)
	}
}

// chunk splits indexes into consecutive batches of at most size.
func chunk(indexes []int, size int) [][]int {
	var batches [][]int
	for start := 0; start < len(indexes); start += size {
		end := start + size
		if end > len(indexes) {
			end = len(indexes)
		}
		batches = append(batches, indexes[start:end])
	}
	return batches
}
