// Package pipeline implements Component F: the executor that runs a
// plan.Detail's transforms against a Message Context, honoring ordering,
// per-transform timeouts, failure modes, and optional parallel fan-out.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/reqrep/transform/catalog"
	"github.com/reqrep/transform/internal/telemetry"
	"github.com/reqrep/transform/messagecontext"
	"github.com/reqrep/transform/plan"
)

// Executor runs a resolved plan.Detail's transforms for one side of an
// exchange.
type Executor struct {
	registry      *catalog.Registry
	telemetry     *telemetry.Telemetry
	logger        *slog.Logger
	globalTimeout time.Duration
	globalMode    plan.FailureMode
}

// New constructs an Executor.
func New(registry *catalog.Registry, tel *telemetry.Telemetry, logger *slog.Logger, globalTimeout time.Duration, globalMode plan.FailureMode) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		registry:      registry,
		telemetry:     tel,
		logger:        logger,
		globalTimeout: globalTimeout,
		globalMode:    globalMode,
	}
}

// RunRequest executes detail.Request against mc (side == Request).
func (e *Executor) RunRequest(ctx context.Context, mc *messagecontext.Context, detail plan.Detail) error {
	return e.run(ctx, mc, detail, detail.Request, "request")
}

// RunResponse executes detail.Response against mc (side == Response).
func (e *Executor) RunResponse(ctx context.Context, mc *messagecontext.Context, detail plan.Detail) error {
	return e.run(ctx, mc, detail, detail.Response, "response")
}

func (e *Executor) run(ctx context.Context, mc *messagecontext.Context, detail plan.Detail, rawEntries []plan.Entry, side string) error {
	entries := plan.Sorted(rawEntries)
	if len(entries) == 0 {
		return nil
	}

	ctx, span := e.telemetry.Tracer().Start(ctx, "reqrep.pipeline."+side)
	defer span.End()

	for i := 0; i < len(entries); {
		batch, next := nextBatch(entries, i)
		if len(batch) == 1 {
			if err := e.runOne(ctx, mc, detail, batch[0], side); err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return err
			}
		} else {
			if err := e.runParallel(ctx, mc, detail, batch, side); err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return err
			}
		}
		i = next
	}
	return nil
}

// nextBatch returns the contiguous run of entries starting at i that
// share the same Order and are all AllowParallel, plus the index
// following the batch. A single non-parallel entry is its own batch.
func nextBatch(entries []plan.Entry, i int) ([]plan.Entry, int) {
	if !entries[i].AllowParallel {
		return entries[i : i+1], i + 1
	}
	j := i + 1
	for j < len(entries) && entries[j].AllowParallel && entries[j].Order == entries[i].Order {
		j++
	}
	return entries[i:j], j
}

func (e *Executor) runParallel(ctx context.Context, mc *messagecontext.Context, detail plan.Detail, batch []plan.Entry, side string) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, entry := range batch {
		entry := entry
		g.Go(func() error {
			return e.runOne(gctx, mc, detail, entry, side)
		})
	}
	return g.Wait()
}

func (e *Executor) runOne(ctx context.Context, mc *messagecontext.Context, detail plan.Detail, entry plan.Entry, side string) error {
	timeout := plan.EffectiveTimeout(entry, e.globalTimeout)
	mode := plan.EffectiveFailureMode(entry, detail, e.globalMode)

	ctx, span := e.telemetry.Tracer().Start(ctx, "reqrep.transform."+entry.TransformName)
	defer span.End()
	span.SetAttributes(
		attribute.String("reqrep.transform.name", entry.TransformName),
		attribute.String("reqrep.pipeline.side", side),
	)

	transform, err := e.registry.Resolve(entry.TransformName, entry.Params)
	if err != nil {
		return e.handleFailure(ctx, entry, side, mode, err)
	}

	// per-transform cancellation = AND of exchange abort + this deadline.
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	buffered := messagecontext.AsBuffered(mc)
	if !transform.ShouldApply(buffered) {
		e.telemetry.Skipped.Add(ctx, 1)
		return nil
	}

	done := make(chan error, 1)
	go func() {
		done <- transform.Apply(buffered)
	}()

	select {
	case applyErr := <-done:
		if applyErr == nil {
			e.telemetry.Executed.Add(ctx, 1)
			return nil
		}
		return e.handleFailure(ctx, entry, side, mode, applyErr)
	case <-runCtx.Done():
		timeoutErr := &TimeoutError{Transform: entry.TransformName, Side: side}
		return e.handleFailure(ctx, entry, side, mode, timeoutErr)
	}
}

func (e *Executor) handleFailure(ctx context.Context, entry plan.Entry, side string, mode plan.FailureMode, cause error) error {
	switch mode {
	case plan.StopPipeline:
		e.telemetry.Failed.Add(ctx, 1)
		return &TransformationFailure{Transform: entry.TransformName, Side: side, Err: cause}
	case plan.LogAndSkip:
		e.logger.Warn("transform failed, continuing", "transform", entry.TransformName, "side", side, "error", cause)
		e.telemetry.Failed.Add(ctx, 1)
		return nil
	default: // Continue
		e.telemetry.Failed.Add(ctx, 1)
		return nil
	}
}
