package storefront

import (
	"context"

	"orderbot/lib/browser"
)

// Confirmation is the opaque handle produced by a successful
// submission. It stays valid until the next SubmitOrder call moves the
// page past the confirmation screen.
type Confirmation struct {
	orderNumber string
	receiptHTML string
	session     *browser.Session
}

func (c *Confirmation) OrderNumber() string {
	return c.orderNumber
}

// ReceiptHTML is the inner HTML of the storefront's receipt element,
// captured at confirmation time.
func (c *Confirmation) ReceiptHTML() string {
	return c.receiptHTML
}

// Snapshot captures a PNG of the robot preview on the confirmation
// page.
func (c *Confirmation) Snapshot(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.session.ScreenshotElement(previewSel)
}
