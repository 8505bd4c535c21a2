// Package pipeline orchestrates the order run: submit every record,
// retry transient faults, recover the session after fatal ones, build
// receipts and archive them at the end.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"orderbot/services/orders"
	"orderbot/services/receipts"
	"orderbot/services/storefront"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/pipeline")

// retries absorb transient UI timing glitches, not systemic failures,
// so the bound stays small: one first attempt plus two retries
const maxSubmitRetries = 2

// Navigator is the capability set the orchestrator needs from the
// browser layer: {open, submitOrder, close}. LiveNavigator adapts the
// storefront implementation; tests substitute fakes.
type Navigator interface {
	Open(ctx context.Context) error
	SubmitOrder(ctx context.Context, order orders.Order) (receipts.Confirmation, error)
	Close()
}

type ReceiptBuilder interface {
	Build(ctx context.Context, order orders.Order, conf receipts.Confirmation) (receipts.Artifact, error)
}

type Archiver interface {
	Archive(artifacts []receipts.Artifact, outputPath string) error
}

// LiveNavigator adapts a storefront navigator to the orchestrator's
// interface.
func LiveNavigator(n *storefront.Navigator) Navigator {
	return liveNavigator{n}
}

type liveNavigator struct {
	nav *storefront.Navigator
}

func (l liveNavigator) Open(ctx context.Context) error { return l.nav.Open(ctx) }
func (l liveNavigator) Close()                         { l.nav.Close() }

func (l liveNavigator) SubmitOrder(ctx context.Context, order orders.Order) (receipts.Confirmation, error) {
	conf, err := l.nav.SubmitOrder(ctx, order)
	if err != nil {
		return nil, err
	}
	return conf, nil
}

type Options struct {
	Navigator   Navigator
	Builder     ReceiptBuilder
	Archiver    Archiver
	ArchivePath string
	// pause between submit retries, defaults to 2s
	RetryInterval time.Duration
}

type Runner struct {
	opts Options
}

func New(opts Options) *Runner {
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = time.Second * 2
	}
	return &Runner{opts: opts}
}

// sessionLostError marks a failed session recovery; nothing further in
// the run can succeed past it.
type sessionLostError struct {
	cause error
}

func (e *sessionLostError) Error() string {
	return fmt.Sprintf("failed to recover storefront session: %v", e.cause)
}

func (e *sessionLostError) Unwrap() error { return e.cause }

// Run processes every order in input order. Per-order failures are
// contained and reported through the outcome; a non-nil error means
// the run itself failed (unrecoverable session, cancellation or
// archiving fault). The outcome holds whatever was decided before the
// abort.
func (r *Runner) Run(ctx context.Context, orderList []orders.Order) (Outcome, error) {
	ctx, span := tracer.Start(ctx, "pipeline:Run")
	defer span.End()

	outcome := Outcome{}

	if err := r.opts.Navigator.Open(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to open storefront session")
		return outcome, err
	}
	defer r.opts.Navigator.Close()

	var artifacts []receipts.Artifact
	for _, order := range orderList {
		result, err := r.processOrder(ctx, order, &artifacts)
		outcome.Results = append(outcome.Results, result)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "run aborted")
			return outcome, err
		}
	}

	if err := r.opts.Archiver.Archive(artifacts, r.opts.ArchivePath); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to archive receipts")
		return outcome, err
	}
	outcome.ArchivePath = r.opts.ArchivePath

	slog.InfoContext(ctx, "run complete",
		"orders", len(orderList),
		"succeeded", outcome.Succeeded(),
		"failed", outcome.Failed(),
		"archive", outcome.ArchivePath,
	)
	return outcome, nil
}

// processOrder drives one record to a final disposition. The returned
// error is run-level: the order loop must stop on it.
func (r *Runner) processOrder(ctx context.Context, order orders.Order, artifacts *[]receipts.Artifact) (OrderResult, error) {
	ctx, span := tracer.Start(ctx, "pipeline:processOrder")
	defer span.End()

	result := OrderResult{OrderNumber: order.OrderNumber}
	var conf receipts.Confirmation

	policy := backoff.WithContext(
		backoff.WithMaxRetries(
			backoff.NewConstantBackOff(r.opts.RetryInterval),
			maxSubmitRetries,
		),
		ctx,
	)
	submit := func() error {
		result.Attempts++
		c, err := r.opts.Navigator.SubmitOrder(ctx, order)
		if err == nil {
			conf = c
			return nil
		}

		var transient *storefront.TransientError
		if errors.As(err, &transient) {
			slog.WarnContext(ctx, "transient submission failure",
				"order", order.OrderNumber,
				"attempt", result.Attempts,
				"err", err,
			)
			return err
		}

		var fatal *storefront.FatalError
		if errors.As(err, &fatal) {
			slog.WarnContext(ctx, "session lost, reopening",
				"order", order.OrderNumber,
				"err", err,
			)
			if rerr := r.opts.Navigator.Open(ctx); rerr != nil {
				return backoff.Permanent(&sessionLostError{cause: errors.Join(err, rerr)})
			}
			// the same record is retried against the recovered session
			return err
		}

		return backoff.Permanent(err)
	}

	if err := backoff.Retry(submit, policy); err != nil {
		result.Status = StatusFailed
		result.Err = err

		var lost *sessionLostError
		if errors.As(err, &lost) {
			return result, lost
		}
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		span.RecordError(err)
		span.SetStatus(codes.Error, "order failed")
		slog.ErrorContext(ctx, "order failed",
			"order", order.OrderNumber,
			"attempts", result.Attempts,
			"err", err,
		)
		return result, nil
	}

	artifact, err := r.opts.Builder.Build(ctx, order, conf)
	if err != nil {
		// composition from a confirmed result is deterministic: no retry
		result.Status = StatusFailed
		result.Err = err
		span.RecordError(err)
		span.SetStatus(codes.Error, "receipt build failed")
		slog.ErrorContext(ctx, "receipt build failed", "order", order.OrderNumber, "err", err)
		return result, nil
	}

	*artifacts = append(*artifacts, artifact)
	result.Status = StatusSucceeded
	return result, nil
}
