package dispatch_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wendellvieira/rpg-ai-sub001/internal/dispatch"
	"github.com/wendellvieira/rpg-ai-sub001/internal/logger"
)

type stubHandler struct {
	validate func(dispatch.Params) []error
	execute  func(context.Context, dispatch.Params, dispatch.ActionContext) (any, error)
	required []string
	restrict bool
}

func (s *stubHandler) Validate(p dispatch.Params) []error {
	if s.validate == nil {
		return nil
	}
	return s.validate(p)
}

func (s *stubHandler) Execute(ctx context.Context, p dispatch.Params, actx dispatch.ActionContext) (any, error) {
	if s.execute == nil {
		return "ok", nil
	}
	return s.execute(ctx, p, actx)
}

func (s *stubHandler) RequiredContext() []string { return s.required }
func (s *stubHandler) Restricted() bool          { return s.restrict }

func newDispatcher(t *testing.T, cfg dispatch.Config, handlers map[string]dispatch.Handler) *dispatch.Dispatcher {
	t.Helper()
	reg := dispatch.NewRegistry()
	for name, h := range handlers {
		require.NoError(t, reg.Register(name, h))
	}
	return dispatch.New(reg, cfg, dispatch.WithLogger(logger.Discard()))
}

func actx() dispatch.ActionContext {
	return dispatch.NewActionContext("s1", "fighter", 0, 1)
}

func request(id, method string) dispatch.ActionRequest {
	return dispatch.ActionRequest{ID: id, Method: method, Params: dispatch.Params{}, Timestamp: time.Now()}
}

func TestDispatchSuccess(t *testing.T) {
	d := newDispatcher(t, dispatch.DefaultConfig(), map[string]dispatch.Handler{
		"attack": &stubHandler{execute: func(_ context.Context, p dispatch.Params, a dispatch.ActionContext) (any, error) {
			return fmt.Sprintf("%s hits %s", a.ParticipantID(), p.StringOr("target", "?")), nil
		}},
	})

	var events []dispatch.Event
	d.On(dispatch.EventAction, func(e dispatch.Event) { events = append(events, e) })

	req := request("r1", "attack")
	req.Params["target"] = "goblin"
	resp := d.Dispatch(context.Background(), req, actx())

	assert.True(t, resp.Success)
	assert.Equal(t, "r1", resp.ID)
	assert.Equal(t, "fighter hits goblin", resp.Result)
	assert.Empty(t, resp.Error)
	assert.Empty(t, resp.Code)
	assert.False(t, resp.Timestamp.IsZero())

	require.Len(t, events, 1)
	assert.Equal(t, "dispatcher", events[0].Source)
	assert.NotEmpty(t, events[0].ID)
	data, ok := events[0].Data.(dispatch.ActionEvent)
	require.True(t, ok)
	assert.Equal(t, "r1", data.Response.ID)

	m := d.Metrics()
	assert.EqualValues(t, 1, m.TotalRequests)
	assert.EqualValues(t, 1, m.SuccessfulRequests)
	assert.EqualValues(t, 0, m.FailedRequests)
	assert.False(t, m.LastActivity.IsZero())
}

func TestDispatchMalformed(t *testing.T) {
	d := newDispatcher(t, dispatch.DefaultConfig(), map[string]dispatch.Handler{"attack": &stubHandler{}})

	tests := []dispatch.ActionRequest{
		{Method: "attack", Params: dispatch.Params{}},
		{ID: "r1", Params: dispatch.Params{}},
		{ID: "r1", Method: "attack"},
	}
	for _, req := range tests {
		resp := d.Dispatch(context.Background(), req, actx())
		assert.False(t, resp.Success)
		assert.Equal(t, dispatch.CodeMalformedRequest, resp.Code)
	}
	assert.EqualValues(t, 3, d.Metrics().FailedRequests)
}

func TestDispatchUnknownMethod(t *testing.T) {
	d := newDispatcher(t, dispatch.DefaultConfig(), nil)

	var errorsSeen int
	d.On(dispatch.EventError, func(dispatch.Event) { errorsSeen++ })

	resp := d.Dispatch(context.Background(), request("r1", "fly"), actx())
	assert.Equal(t, dispatch.CodeUnknownMethod, resp.Code)
	assert.Contains(t, resp.Error, "fly")
	assert.Equal(t, 1, errorsSeen)
	assert.Empty(t, d.Metrics().FunctionsUsed)
}

func TestDispatchInvalidParametersJoinsAll(t *testing.T) {
	called := false
	h := &stubHandler{
		validate: func(dispatch.Params) []error {
			return []error{errors.New("target is required"), errors.New("weapon is unknown")}
		},
		execute: func(context.Context, dispatch.Params, dispatch.ActionContext) (any, error) {
			called = true
			return nil, nil
		},
	}
	d := newDispatcher(t, dispatch.DefaultConfig(), map[string]dispatch.Handler{"attack": h})

	resp := d.Dispatch(context.Background(), request("r1", "attack"), actx())
	assert.Equal(t, dispatch.CodeInvalidParameters, resp.Code)
	assert.Contains(t, resp.Error, "target is required")
	assert.Contains(t, resp.Error, "weapon is unknown")
	assert.False(t, called)

	cfg := dispatch.DefaultConfig()
	cfg.ValidateParams = false
	d.Reconfigure(cfg)
	resp = d.Dispatch(context.Background(), request("r2", "attack"), actx())
	assert.True(t, resp.Success)
	assert.True(t, called)
}

func TestDispatchMissingContext(t *testing.T) {
	d := newDispatcher(t, dispatch.DefaultConfig(), map[string]dispatch.Handler{
		"attack": &stubHandler{required: []string{"targetId"}},
	})

	resp := d.Dispatch(context.Background(), request("r1", "attack"), dispatch.ActionContext{dispatch.CtxSessionID: "s1"})
	assert.Equal(t, dispatch.CodeMissingContext, resp.Code)
	assert.Contains(t, resp.Error, "participantId")
	assert.Contains(t, resp.Error, "targetId")

	resp = d.Dispatch(context.Background(), request("r2", "attack"), actx())
	assert.Equal(t, dispatch.CodeMissingContext, resp.Code)
	assert.NotContains(t, resp.Error, "sessionId")

	full := actx()
	full["targetId"] = "goblin"
	resp = d.Dispatch(context.Background(), request("r3", "attack"), full)
	assert.True(t, resp.Success)
}

func TestDispatchConcurrencyCeiling(t *testing.T) {
	release := make(chan struct{})
	h := &stubHandler{execute: func(context.Context, dispatch.Params, dispatch.ActionContext) (any, error) {
		<-release
		return "done", nil
	}}
	cfg := dispatch.DefaultConfig()
	cfg.MaxConcurrentActions = 3
	cfg.TimeoutMs = 5000
	d := newDispatcher(t, cfg, map[string]dispatch.Handler{"attack": h})

	n := cfg.MaxConcurrentActions + 1
	responses := make(chan dispatch.ActionResponse, n)
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		go func(i int) {
			<-start
			responses <- d.Dispatch(context.Background(), request(fmt.Sprintf("r%d", i), "attack"), actx())
		}(i)
	}
	close(start)

	first := <-responses
	assert.Equal(t, dispatch.CodeConcurrencyExceeded, first.Code)
	assert.Len(t, d.State().InFlight, cfg.MaxConcurrentActions)

	close(release)
	rejected := 1
	for i := 1; i < n; i++ {
		resp := <-responses
		if resp.Code == dispatch.CodeConcurrencyExceeded {
			rejected++
			continue
		}
		assert.True(t, resp.Success)
	}
	assert.Equal(t, 1, rejected)

	m := d.Metrics()
	assert.EqualValues(t, n, m.TotalRequests)
	assert.EqualValues(t, 3, m.SuccessfulRequests)
	assert.EqualValues(t, 1, m.FailedRequests)
	assert.Empty(t, d.State().InFlight)
}

func TestDispatchTimeoutAbandonsHandler(t *testing.T) {
	release := make(chan struct{})
	finished := make(chan struct{})
	h := &stubHandler{execute: func(ctx context.Context, _ dispatch.Params, _ dispatch.ActionContext) (any, error) {
		defer close(finished)
		<-release
		return "late", ctx.Err()
	}}
	cfg := dispatch.DefaultConfig()
	cfg.TimeoutMs = 50
	d := newDispatcher(t, cfg, map[string]dispatch.Handler{"attack": h})

	resp := d.Dispatch(context.Background(), request("r1", "attack"), actx())
	assert.False(t, resp.Success)
	assert.Equal(t, dispatch.CodeTimeout, resp.Code)
	assert.GreaterOrEqual(t, resp.DurationMs, 50.0)
	assert.Empty(t, d.State().InFlight)

	// The abandoned handler still runs to completion, without a cancelled
	// context, and never touches the counters.
	close(release)
	<-finished
	m := d.Metrics()
	assert.EqualValues(t, 1, m.TotalRequests)
	assert.EqualValues(t, 0, m.SuccessfulRequests)
	assert.EqualValues(t, 1, m.FailedRequests)
}

func TestDispatchHandlerFailure(t *testing.T) {
	d := newDispatcher(t, dispatch.DefaultConfig(), map[string]dispatch.Handler{
		"roll_dice": &stubHandler{execute: func(context.Context, dispatch.Params, dispatch.ActionContext) (any, error) {
			return nil, errors.New("invalid dice expression \"2x6\"")
		}},
		"attack": &stubHandler{execute: func(context.Context, dispatch.Params, dispatch.ActionContext) (any, error) {
			return nil, fmt.Errorf("%w: no combatant named ghost", dispatch.ErrInvalidParameters)
		}},
		"panic": &stubHandler{execute: func(context.Context, dispatch.Params, dispatch.ActionContext) (any, error) {
			panic("boom")
		}},
	})

	resp := d.Dispatch(context.Background(), request("r1", "roll_dice"), actx())
	assert.Equal(t, dispatch.CodeHandlerFailure, resp.Code)
	assert.Contains(t, resp.Error, "2x6")

	resp = d.Dispatch(context.Background(), request("r2", "attack"), actx())
	assert.Equal(t, dispatch.CodeInvalidParameters, resp.Code)

	resp = d.Dispatch(context.Background(), request("r3", "panic"), actx())
	assert.Equal(t, dispatch.CodeHandlerFailure, resp.Code)
	assert.Contains(t, resp.Error, "boom")

	assert.EqualValues(t, 3, d.Metrics().FailedRequests)
}

func TestDispatchRestricted(t *testing.T) {
	d := newDispatcher(t, dispatch.DefaultConfig(), map[string]dispatch.Handler{
		"force_turn": &stubHandler{restrict: true},
	})

	resp := d.Dispatch(context.Background(), request("r1", "force_turn"), actx())
	assert.Equal(t, dispatch.CodeRestricted, resp.Code)

	cfg := d.Config()
	cfg.AllowUnsafeFunctions = true
	d.Reconfigure(cfg)
	resp = d.Dispatch(context.Background(), request("r2", "force_turn"), actx())
	assert.True(t, resp.Success)
}

func TestCancelByID(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	finished := make(chan struct{})
	d := newDispatcher(t, dispatch.DefaultConfig(), map[string]dispatch.Handler{
		"attack": &stubHandler{execute: func(context.Context, dispatch.Params, dispatch.ActionContext) (any, error) {
			defer close(finished)
			close(started)
			<-release
			return nil, nil
		}},
	})

	done := make(chan dispatch.ActionResponse, 1)
	go func() { done <- d.Dispatch(context.Background(), request("r1", "attack"), actx()) }()

	<-started
	assert.True(t, d.Cancel("r1"))
	assert.False(t, d.Cancel("r1"))

	resp := <-done
	assert.Equal(t, dispatch.CodeCanceled, resp.Code)

	select {
	case <-finished:
		t.Fatal("cancel must not interrupt the handler")
	default:
	}
	close(release)
	<-finished
}

func TestCallerContextCanceled(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	d := newDispatcher(t, dispatch.DefaultConfig(), map[string]dispatch.Handler{
		"attack": &stubHandler{execute: func(context.Context, dispatch.Params, dispatch.ActionContext) (any, error) {
			<-release
			return nil, nil
		}},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	resp := d.Dispatch(ctx, request("r1", "attack"), actx())
	assert.Equal(t, dispatch.CodeCanceled, resp.Code)
}

func TestDuplicateInFlightID(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	d := newDispatcher(t, dispatch.DefaultConfig(), map[string]dispatch.Handler{
		"attack": &stubHandler{execute: func(context.Context, dispatch.Params, dispatch.ActionContext) (any, error) {
			close(started)
			<-release
			return nil, nil
		}},
	})

	done := make(chan dispatch.ActionResponse, 1)
	go func() { done <- d.Dispatch(context.Background(), request("same", "attack"), actx()) }()
	<-started

	resp := d.Dispatch(context.Background(), request("same", "attack"), actx())
	assert.Equal(t, dispatch.CodeMalformedRequest, resp.Code)

	close(release)
	assert.True(t, (<-done).Success)
}

func TestDisableAndEnable(t *testing.T) {
	d := newDispatcher(t, dispatch.DefaultConfig(), map[string]dispatch.Handler{"attack": &stubHandler{}})
	d.On(dispatch.Wildcard, func(dispatch.Event) {})
	require.Equal(t, 1, d.State().Listeners)

	d.Disable()
	assert.False(t, d.Enabled())
	assert.Equal(t, 0, d.State().Listeners)

	resp := d.Dispatch(context.Background(), request("r1", "attack"), actx())
	assert.Equal(t, dispatch.CodeDisabled, resp.Code)

	d.Enable()
	resp = d.Dispatch(context.Background(), request("r2", "attack"), actx())
	assert.True(t, resp.Success)
}

func TestDisableForgetsRunningRequests(t *testing.T) {
	cfg := dispatch.DefaultConfig()
	cfg.MaxConcurrentActions = 1
	started := make(chan struct{})
	release := make(chan struct{})
	d := newDispatcher(t, cfg, map[string]dispatch.Handler{
		"slow": &stubHandler{execute: func(context.Context, dispatch.Params, dispatch.ActionContext) (any, error) {
			close(started)
			<-release
			return "late", nil
		}},
		"quick": &stubHandler{},
	})

	done := make(chan dispatch.ActionResponse, 1)
	go func() { done <- d.Dispatch(context.Background(), request("r1", "slow"), actx()) }()
	<-started
	assert.Equal(t, []string{"r1"}, d.State().InFlight)

	resp := d.Dispatch(context.Background(), request("r2", "quick"), actx())
	assert.Equal(t, dispatch.CodeConcurrencyExceeded, resp.Code)

	d.Disable()
	d.Enable()
	assert.Empty(t, d.State().InFlight)

	// The abandoned request no longer counts against the ceiling.
	resp = d.Dispatch(context.Background(), request("r3", "quick"), actx())
	assert.True(t, resp.Success)

	close(release)
	first := <-done
	assert.True(t, first.Success)
	assert.Empty(t, d.State().InFlight)
}

func TestMetricsRunningMean(t *testing.T) {
	var mu sync.Mutex
	delays := []time.Duration{2 * time.Millisecond, 5 * time.Millisecond, 1 * time.Millisecond, 8 * time.Millisecond, 3 * time.Millisecond}
	i := 0
	d := newDispatcher(t, dispatch.DefaultConfig(), map[string]dispatch.Handler{
		"attack": &stubHandler{execute: func(context.Context, dispatch.Params, dispatch.ActionContext) (any, error) {
			mu.Lock()
			delay := delays[i%len(delays)]
			i++
			mu.Unlock()
			time.Sleep(delay)
			return nil, nil
		}},
	})

	const k = 5
	sum := 0.0
	for n := 0; n < k; n++ {
		resp := d.Dispatch(context.Background(), request(fmt.Sprintf("r%d", n), "attack"), actx())
		require.True(t, resp.Success)
		sum += resp.DurationMs
	}

	m := d.Metrics()
	assert.EqualValues(t, k, m.FunctionsUsed["attack"])
	assert.EqualValues(t, k, m.SuccessfulRequests)
	assert.InDelta(t, sum/k, m.AverageResponseTime, 1e-6)

	m.FunctionsUsed["attack"] = 0
	assert.EqualValues(t, k, d.Metrics().FunctionsUsed["attack"])

	d.ResetMetrics()
	assert.Zero(t, d.Metrics().TotalRequests)
}

func TestConfigDefaultsAndNormalization(t *testing.T) {
	d := newDispatcher(t, dispatch.Config{}, nil)

	cfg := d.Config()
	assert.Equal(t, dispatch.DefaultTimeoutMs, cfg.TimeoutMs)
	assert.Equal(t, dispatch.DefaultMaxConcurrentActions, cfg.MaxConcurrentActions)
	assert.Equal(t, 30*time.Second, cfg.Timeout())
	assert.True(t, dispatch.DefaultConfig().ValidateParams)
}
