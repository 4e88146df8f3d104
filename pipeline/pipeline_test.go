package pipeline

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/reqrep/transform/catalog"
	"github.com/reqrep/transform/internal/telemetry"
	"github.com/reqrep/transform/messagecontext"
	"github.com/reqrep/transform/payload"
	"github.com/reqrep/transform/plan"
)

func newExecutor(t *testing.T, globalMode plan.FailureMode) *Executor {
	t.Helper()
	tel, err := telemetry.New(telemetry.Options{ServiceName: "test"})
	if err != nil {
		t.Fatal(err)
	}
	return New(catalog.NewRegistry(), tel, nil, time.Second, globalMode)
}

func newRequestContext(t *testing.T) *messagecontext.Context {
	t.Helper()
	u, err := url.Parse("/x")
	if err != nil {
		t.Fatal(err)
	}
	p := payload.New("", nil, nil)
	return messagecontext.New(context.Background(), messagecontext.Request, "GET", u, nil, p)
}

func TestRunRequestAppliesInOrder(t *testing.T) {
	mc := newRequestContext(t)
	detail := plan.Detail{
		Request: []plan.Entry{
			{Order: 2, TransformName: "set-header", Params: map[string]string{"key": "X-Trace", "value": "second"}},
			{Order: 1, TransformName: "set-header", Params: map[string]string{"key": "X-Trace", "value": "first"}},
		},
	}
	ex := newExecutor(t, plan.StopPipeline)
	if err := ex.RunRequest(context.Background(), mc, detail); err != nil {
		t.Fatal(err)
	}
	if got := mc.Header("X-Trace"); got != "second" {
		t.Errorf("expected last-applied value 'second', got %q", got)
	}
}

func TestRunRequestStopPipelinePropagatesFailure(t *testing.T) {
	mc := newRequestContext(t)
	detail := plan.Detail{
		Request: []plan.Entry{
			{Order: 1, TransformName: "rewrite-path-regex", Params: map[string]string{"pattern": "(", "replacement": "x"}},
		},
	}
	ex := newExecutor(t, plan.StopPipeline)
	err := ex.RunRequest(context.Background(), mc, detail)
	if err == nil {
		t.Fatal("expected error from unresolvable transform")
	}
}

func TestRunRequestLogAndSkipSwallowsFailure(t *testing.T) {
	mc := newRequestContext(t)
	detail := plan.Detail{
		FailureModeSet: true,
		FailureMode:    plan.LogAndSkip,
		Request: []plan.Entry{
			{Order: 1, TransformName: "does-not-exist"},
			{Order: 2, TransformName: "set-header", Params: map[string]string{"key": "X-After", "value": "yes"}},
		},
	}
	ex := newExecutor(t, plan.StopPipeline)
	if err := ex.RunRequest(context.Background(), mc, detail); err != nil {
		t.Fatalf("expected LogAndSkip to swallow the failure, got %v", err)
	}
	if got := mc.Header("X-After"); got != "yes" {
		t.Errorf("expected subsequent transform to still run, got %q", got)
	}
}

func TestRunRequestEmptyPlanIsNoop(t *testing.T) {
	mc := newRequestContext(t)
	ex := newExecutor(t, plan.StopPipeline)
	if err := ex.RunRequest(context.Background(), mc, plan.Empty); err != nil {
		t.Fatal(err)
	}
}
