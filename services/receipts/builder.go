// Package receipts composes per-order proof-of-purchase PDFs from a
// submission confirmation.
package receipts

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"orderbot/lib/htmlutil"
	"orderbot/services/orders"

	"github.com/go-pdf/fpdf"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/receipts")

// Confirmation is what the builder needs from a successful submission.
// Implemented by storefront.Confirmation; fakes stand in for it in
// tests.
type Confirmation interface {
	OrderNumber() string
	ReceiptHTML() string
	Snapshot(ctx context.Context) ([]byte, error)
}

// Artifact is one generated receipt file, named by order number. Owned
// by the caller until handed to the archiver.
type Artifact struct {
	OrderNumber string
	Path        string
}

// RenderError means receipt composition failed. Composing from an
// already-confirmed result is deterministic, so there is no retry.
type RenderError struct {
	OrderNumber string
	Cause       error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("failed to render receipt for order %s: %v", e.OrderNumber, e.Cause)
}

func (e *RenderError) Unwrap() error { return e.Cause }

type Builder struct {
	// directory receiving both the receipt PDFs and the short-lived
	// snapshot files
	Dir string
}

func NewBuilder(dir string) *Builder {
	return &Builder{Dir: dir}
}

// Build captures the confirmation snapshot, composes the receipt PDF
// and returns the artifact. The snapshot file is deleted before Build
// returns, on both success and failure paths.
func (b *Builder) Build(ctx context.Context, order orders.Order, conf Confirmation) (Artifact, error) {
	ctx, span := tracer.Start(ctx, "builder:Build")
	defer span.End()

	if err := os.MkdirAll(b.Dir, 0755); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create receipts directory")
		return Artifact{}, &RenderError{OrderNumber: order.OrderNumber, Cause: err}
	}

	png, err := conf.Snapshot(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to capture snapshot")
		return Artifact{}, &RenderError{OrderNumber: order.OrderNumber, Cause: err}
	}

	snapshotPath := filepath.Join(b.Dir, fmt.Sprintf("order_%s.png", order.OrderNumber))
	if err := os.WriteFile(snapshotPath, png, 0644); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to write snapshot file")
		return Artifact{}, &RenderError{OrderNumber: order.OrderNumber, Cause: err}
	}
	defer func() {
		if err := os.Remove(snapshotPath); err != nil {
			slog.WarnContext(ctx, "failed to remove snapshot file", "path", snapshotPath, "err", err)
		}
	}()

	pdfPath := filepath.Join(b.Dir, fmt.Sprintf("order_%s.pdf", order.OrderNumber))
	if err := composePdf(order, conf.ReceiptHTML(), snapshotPath, pdfPath); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to compose pdf")
		return Artifact{}, &RenderError{OrderNumber: order.OrderNumber, Cause: err}
	}

	slog.InfoContext(ctx, "receipt written", "order", order.OrderNumber, "path", pdfPath)
	return Artifact{OrderNumber: order.OrderNumber, Path: pdfPath}, nil
}

func composePdf(order orders.Order, receiptHTML, snapshotPath, dest string) error {
	lines, err := htmlutil.TextLines(receiptHTML)
	if err != nil {
		return fmt.Errorf("parse receipt html: %w", err)
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, fmt.Sprintf("Order %s", order.OrderNumber), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	for _, line := range lines {
		pdf.MultiCell(0, 6, line, "", "L", false)
	}
	pdf.MultiCell(0, 6, fmt.Sprintf("Delivery address: %s", order.Address), "", "L", false)

	pdf.ImageOptions(
		snapshotPath,
		20, pdf.GetY()+6, 90, 0,
		false,
		fpdf.ImageOptions{ImageType: "PNG"},
		0, "",
	)

	return pdf.OutputFileAndClose(dest)
}
