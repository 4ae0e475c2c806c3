package dispatch

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wendellvieira/rpg-ai-sub001/internal/logger"
)

const eventSource = "dispatcher"

type flight struct {
	canceled chan struct{}
}

// Dispatcher is the single entry point for action requests. Construct one per
// logical service with New; it holds no global state.
type Dispatcher struct {
	registry *Registry
	cfg      atomic.Pointer[Config]
	bus      *Bus
	log      logrus.FieldLogger
	metrics  *metricsRecorder
	disabled atomic.Bool

	mu       sync.Mutex
	inflight map[string]*flight
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the diagnostic logger. The default is logger.Log.
func WithLogger(l logrus.FieldLogger) Option {
	return func(d *Dispatcher) { d.log = l }
}

// WithBus shares an existing event bus.
func WithBus(b *Bus) Option {
	return func(d *Dispatcher) { d.bus = b }
}

// New seals reg and returns a dispatcher over it.
func New(reg *Registry, cfg Config, opts ...Option) *Dispatcher {
	reg.Seal()
	d := &Dispatcher{
		registry: reg,
		metrics:  newMetricsRecorder(),
		inflight: make(map[string]*flight),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.log == nil {
		d.log = logger.Log
	}
	if d.bus == nil {
		d.bus = NewBus(d.log)
	}
	d.Reconfigure(cfg)
	return d
}

// Reconfigure swaps in a new configuration snapshot. Requests already past
// admission keep the snapshot they started with.
func (d *Dispatcher) Reconfigure(cfg Config) {
	cfg = cfg.normalized()
	d.cfg.Store(&cfg)
}

func (d *Dispatcher) Config() Config {
	return *d.cfg.Load()
}

// Bus returns the event bus listeners subscribe to.
func (d *Dispatcher) Bus() *Bus {
	return d.bus
}

// On subscribes fn to events of type t (or Wildcard).
func (d *Dispatcher) On(t EventType, fn Listener) func() {
	return d.bus.Subscribe(t, fn)
}

// Catalog returns the function catalog of every registered handler.
func (d *Dispatcher) Catalog() []FunctionDef {
	return d.registry.Catalog()
}

// Dispatch runs one request to completion and always returns a response.
// The handler races the configured timeout; losing the race abandons the
// handler, it is not interrupted. Cancelling ctx or calling Cancel with the
// request id does the same.
func (d *Dispatcher) Dispatch(ctx context.Context, req ActionRequest, actx ActionContext) ActionResponse {
	start := time.Now()
	cfg := d.Config()

	h, registered := d.registry.Lookup(req.Method)
	result, err := d.run(ctx, cfg, h, registered, req, actx)
	end := time.Now()

	resp := ActionResponse{
		ID:         req.ID,
		Success:    err == nil,
		Timestamp:  end,
		DurationMs: float64(end.Sub(start)) / float64(time.Millisecond),
	}
	if err != nil {
		resp.Error = err.Error()
		resp.Code = Code(err)
	} else {
		resp.Result = result
	}

	d.metrics.record(req.Method, registered, resp.Success, end.Sub(start), end)
	d.report(cfg, req, resp, actx)
	return resp
}

func (d *Dispatcher) run(ctx context.Context, cfg Config, h Handler, registered bool, req ActionRequest, actx ActionContext) (any, error) {
	if d.disabled.Load() {
		return nil, ErrDisabled
	}
	if err := checkStructure(req); err != nil {
		return nil, err
	}
	if !registered {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, req.Method)
	}
	if isRestricted(h) && !cfg.AllowUnsafeFunctions {
		return nil, fmt.Errorf("%w: %q requires allowUnsafeFunctions", ErrRestricted, req.Method)
	}
	if cfg.ValidateParams {
		if errs := h.Validate(req.Params); len(errs) > 0 {
			joined := errors.Join(errs...)
			return nil, fmt.Errorf("%w: %s", ErrInvalidParameters, strings.ReplaceAll(joined.Error(), "\n", "; "))
		}
	}
	if missing := missingContext(actx, h.RequiredContext()); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingContext, strings.Join(missing, ", "))
	}

	f, err := d.admit(req, cfg.MaxConcurrentActions)
	if err != nil {
		return nil, err
	}
	defer d.release(req.ID, f)

	return d.execute(ctx, cfg, h, req, actx, f)
}

func checkStructure(req ActionRequest) error {
	var missing []string
	if strings.TrimSpace(req.ID) == "" {
		missing = append(missing, "id")
	}
	if strings.TrimSpace(req.Method) == "" {
		missing = append(missing, "method")
	}
	if req.Params == nil {
		missing = append(missing, "params")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrMalformedRequest, strings.Join(missing, ", "))
	}
	return nil
}

func missingContext(actx ActionContext, extra []string) []string {
	var missing []string
	seen := make(map[string]struct{}, len(RequiredContext)+len(extra))
	for _, key := range append(append([]string(nil), RequiredContext...), extra...) {
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if v, ok := actx[key]; !ok || v == nil {
			missing = append(missing, key)
		}
	}
	return missing
}

// admit checks the ceiling and registers the request in one critical
// section, so max+1 simultaneous callers produce exactly one rejection.
func (d *Dispatcher) admit(req ActionRequest, limit int) (*flight, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, dup := d.inflight[req.ID]; dup {
		return nil, fmt.Errorf("%w: id %q is already in flight", ErrMalformedRequest, req.ID)
	}
	if len(d.inflight) >= limit {
		return nil, fmt.Errorf("%w: limit is %d", ErrConcurrencyExceeded, limit)
	}
	f := &flight{canceled: make(chan struct{})}
	d.inflight[req.ID] = f
	return f, nil
}

func (d *Dispatcher) release(id string, f *flight) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.inflight[id] == f {
		delete(d.inflight, id)
	}
}

type outcome struct {
	result any
	err    error
}

func (d *Dispatcher) execute(ctx context.Context, cfg Config, h Handler, req ActionRequest, actx ActionContext, f *flight) (any, error) {
	done := make(chan outcome, 1)
	// The handler keeps ctx's values but not its cancellation: abandoning
	// a request never interrupts work already running.
	hctx := context.WithoutCancel(ctx)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				d.log.WithField("request_id", req.ID).Errorf("handler panic: %v\n%s", r, debug.Stack())
				done <- outcome{err: fmt.Errorf("%w: panic: %v", ErrHandlerFailure, r)}
			}
		}()
		res, err := h.Execute(hctx, req.Params, actx)
		done <- outcome{result: res, err: err}
	}()

	timer := time.NewTimer(cfg.Timeout())
	defer timer.Stop()

	select {
	case out := <-done:
		if out.err != nil {
			if isKind(out.err) {
				return nil, out.err
			}
			return nil, fmt.Errorf("%w: %w", ErrHandlerFailure, out.err)
		}
		return out.result, nil
	case <-timer.C:
		return nil, fmt.Errorf("%w after %dms", ErrTimeout, cfg.TimeoutMs)
	case <-f.canceled:
		return nil, ErrCanceled
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrCanceled, ctx.Err())
	}
}

func (d *Dispatcher) report(cfg Config, req ActionRequest, resp ActionResponse, actx ActionContext) {
	fields := logrus.Fields{
		"request_id":  req.ID,
		"method":      req.Method,
		"duration_ms": resp.DurationMs,
	}
	if resp.Success {
		if cfg.EnableLogging {
			d.log.WithFields(fields).Info("action completed")
		}
		d.bus.Emit(NewEvent(EventAction, eventSource, ActionEvent{Request: req, Response: resp, Context: actx}))
		return
	}

	fields["code"] = resp.Code
	d.log.WithFields(fields).Warn(resp.Error)
	d.bus.Emit(NewEvent(EventError, eventSource, ActionEvent{Request: req, Response: resp, Context: actx}))
}

// Cancel drops id from the in-flight set. The waiting Dispatch call returns
// a CANCELED response; the handler itself keeps running. It reports whether
// id was in flight.
func (d *Dispatcher) Cancel(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	f, ok := d.inflight[id]
	if !ok {
		return false
	}
	delete(d.inflight, id)
	close(f.canceled)
	return true
}

// Disable rejects every new request, forgets in-flight bookkeeping and
// drops all listeners.
func (d *Dispatcher) Disable() {
	d.disabled.Store(true)
	d.mu.Lock()
	d.inflight = make(map[string]*flight)
	d.mu.Unlock()
	d.bus.Clear()
	d.log.Info("dispatcher disabled")
}

func (d *Dispatcher) Enable() {
	d.disabled.Store(false)
	d.log.Info("dispatcher enabled")
}

func (d *Dispatcher) Enabled() bool {
	return !d.disabled.Load()
}

// Metrics returns a copy of the counters.
func (d *Dispatcher) Metrics() Metrics {
	return d.metrics.snapshot()
}

// ResetMetrics zeroes the counters.
func (d *Dispatcher) ResetMetrics() {
	d.metrics.reset()
}

// State is a read-only view of the dispatcher.
type State struct {
	Enabled   bool     `json:"enabled"`
	InFlight  []string `json:"inFlight"`
	Listeners int      `json:"listeners"`
	Methods   []string `json:"methods"`
	Config    Config   `json:"config"`
}

func (d *Dispatcher) State() State {
	d.mu.Lock()
	ids := make([]string, 0, len(d.inflight))
	for id := range d.inflight {
		ids = append(ids, id)
	}
	d.mu.Unlock()
	sort.Strings(ids)

	return State{
		Enabled:   d.Enabled(),
		InFlight:  ids,
		Listeners: d.bus.Count(),
		Methods:   d.registry.Methods(),
		Config:    d.Config(),
	}
}
