// Package storefront drives the RobotSpareBin order form through a
// single live browser session.
package storefront

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"orderbot/lib/browser"
	"orderbot/services/orders"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/storefront")

const (
	modalDismissSel = `div.modal-dialog button.btn-dark`
	headSel         = `#head`
	legsSel         = `input[placeholder="Enter the part number for the legs"]`
	addressSel      = `#address`
	submitSel       = `#order`
	receiptSel      = `#receipt`
	previewSel      = `#robot-preview-image`
	orderAnotherSel = `#order-another`
	errorBannerSel  = `div.alert-danger`
)

// head selection ids as they appear in the order form dropdown
var headLabels = map[string]string{
	"1": "Roll-a-thor head",
	"2": "Peanut crusher head",
	"3": "D.A.V.E head",
	"4": "Andy Roid head",
	"5": "Spanner mate head",
	"6": "Drillbit 2000 head",
}

// HeadLabel resolves a head selection id to its visible label, falling
// back to the first option on unknown ids. The form itself is the
// validator of order contents.
func HeadLabel(id string) (string, string) {
	if label, ok := headLabels[id]; ok {
		return id, label
	}
	return "1", headLabels["1"]
}

type Options struct {
	URL      string
	Headless bool
	// bound on the root page load, defaults to 30s
	OpenTimeout time.Duration
	// bound on the confirmation appearing after submit, defaults to 10s
	SubmitTimeout time.Duration
}

// Navigator owns the live browser session exclusively. It is not safe
// for concurrent use; submissions are strictly sequenced.
type Navigator struct {
	opts    Options
	session *browser.Session
	state   State
}

func NewNavigator(opts Options) *Navigator {
	if opts.OpenTimeout <= 0 {
		opts.OpenTimeout = time.Second * 30
	}
	if opts.SubmitTimeout <= 0 {
		opts.SubmitTimeout = time.Second * 10
	}
	return &Navigator{opts: opts, state: StateClosed}
}

func (n *Navigator) State() State {
	return n.state
}

func (n *Navigator) setState(to State) {
	if !CanTransition(n.state, to) {
		slog.Warn("invalid navigator transition", "from", n.state, "to", to)
	}
	n.state = to
}

// Open launches the session, navigates to the storefront root and
// dismisses the onboarding dialog if present. Absence of the dialog is
// treated as already-dismissed.
func (n *Navigator) Open(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "navigator:Open")
	defer span.End()

	if n.state != StateClosed {
		return fmt.Errorf("cannot open session from state %s", n.state)
	}
	n.setState(StateOpening)

	n.session = browser.NewSession(browser.Options{Headless: n.opts.Headless})
	if err := n.session.Start(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to launch browser")
		n.Close()
		return &NavigationError{URL: n.opts.URL, Cause: err}
	}
	if err := n.session.Navigate(n.opts.URL); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load storefront root")
		n.Close()
		return &NavigationError{URL: n.opts.URL, Cause: err}
	}

	n.dismissModal(ctx)

	if err := n.session.WaitVisible(headSel, n.opts.OpenTimeout); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "order form never became visible")
		n.Close()
		return &NavigationError{URL: n.opts.URL, Cause: err}
	}

	n.setState(StateReady)
	slog.InfoContext(ctx, "storefront session opened", "url", n.opts.URL)
	return nil
}

func (n *Navigator) dismissModal(ctx context.Context) {
	// the dialog is not always shown, give it a moment then move on
	_ = n.session.WaitVisible(modalDismissSel, time.Second*3)
	clicked, err := n.session.ClickIfPresent(modalDismissSel)
	if err != nil {
		slog.WarnContext(ctx, "failed to dismiss onboarding dialog", "err", err)
		return
	}
	if clicked {
		slog.DebugContext(ctx, "dismissed onboarding dialog")
	}
}

// SubmitOrder fills the form from the order record, submits it and
// waits for the confirmation. On a transient failure the session stays
// live and the same record can be resubmitted; on a fatal failure the
// session has been released.
func (n *Navigator) SubmitOrder(ctx context.Context, order orders.Order) (*Confirmation, error) {
	ctx, span := tracer.Start(ctx, "navigator:SubmitOrder")
	defer span.End()

	if err := ctx.Err(); err != nil {
		return nil, n.fatal("run cancelled", err)
	}

	switch n.state {
	case StateReady:
	case StateConfirmed:
		// the previous order's follow-up prompt is part of normal flow
		if err := n.advancePastConfirmation(ctx); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to advance past previous confirmation")
			return nil, err
		}
	default:
		return nil, n.fatal(fmt.Sprintf("cannot submit from state %s", n.state), nil)
	}

	if err := n.fillForm(order); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fill order form")
		return nil, n.classify("form fill failed", err)
	}

	n.setState(StateSubmitting)
	if err := n.session.Click(submitSel); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to click submit")
		return nil, n.classify("submit click failed", err)
	}

	if err := n.session.WaitVisible(receiptSel, n.opts.SubmitTimeout); err != nil {
		if !n.session.Alive() {
			span.SetStatus(codes.Error, "session died while waiting for confirmation")
			return nil, n.fatal("session died while waiting for confirmation", err)
		}
		n.setState(StateReady)
		if rejected, _ := n.session.Exists(errorBannerSel); rejected {
			slog.WarnContext(ctx, "storefront rejected submission", "order", order.OrderNumber)
			return nil, &TransientError{Reason: "storefront rejected the submission"}
		}
		slog.WarnContext(ctx, "no confirmation within bound", "order", order.OrderNumber)
		return nil, &TransientError{Reason: "no confirmation within bound"}
	}

	receiptHTML, err := n.session.InnerHTML(receiptSel)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read receipt")
		return nil, n.classify("failed to read receipt", err)
	}

	n.setState(StateConfirmed)
	slog.InfoContext(ctx, "order confirmed", "order", order.OrderNumber)
	return &Confirmation{
		orderNumber: order.OrderNumber,
		receiptHTML: receiptHTML,
		session:     n.session,
	}, nil
}

func (n *Navigator) fillForm(order orders.Order) error {
	headValue, _ := HeadLabel(order.Head)
	if err := n.session.SetValue(headSel, headValue); err != nil {
		return err
	}
	if err := n.session.Click(fmt.Sprintf("#id-body-%s", order.Body)); err != nil {
		return err
	}
	if err := n.session.SetValue(legsSel, order.Legs); err != nil {
		return err
	}
	return n.session.SetValue(addressSel, order.Address)
}

func (n *Navigator) advancePastConfirmation(ctx context.Context) error {
	if err := n.session.Click(orderAnotherSel); err != nil {
		return n.classify("failed to start next order", err)
	}
	n.dismissModal(ctx)
	if err := n.session.WaitVisible(headSel, n.opts.OpenTimeout); err != nil {
		return n.classify("order form never came back", err)
	}
	n.setState(StateReady)
	return nil
}

// classify maps a browser error to the failure taxonomy: a live
// session means the fault is retry-safe, a dead one is fatal.
func (n *Navigator) classify(reason string, err error) error {
	if n.session != nil && n.session.Alive() {
		n.setState(StateReady)
		return &TransientError{Reason: fmt.Sprintf("%s: %v", reason, err)}
	}
	return n.fatal(reason, err)
}

func (n *Navigator) fatal(reason string, err error) error {
	n.Close()
	return &FatalError{Reason: reason, Cause: err}
}

// Close releases the session unconditionally; safe to call from any
// state, including after a fatal failure.
func (n *Navigator) Close() {
	if n.session != nil {
		n.session.Close()
		n.session = nil
	}
	if n.state != StateClosed {
		n.setState(StateClosed)
	}
}
