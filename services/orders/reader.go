package orders

import (
	"context"
	"fmt"
	"os"

	"github.com/gocarina/gocsv"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/orders")

func init() {
	// columns are matched by header name, not position; a header
	// missing entirely is a structural error rather than a zero value
	gocsv.FailIfUnmatchedStructTags = true
}

// Read parses the orders CSV at path into order records, in file
// order. Input position matters: receipts are traced back to it by
// order number.
func Read(ctx context.Context, path string) ([]Order, error) {
	_, span := tracer.Start(ctx, "Read")
	defer span.End()

	file, err := os.Open(path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to open orders file")
		return nil, err
	}
	defer file.Close()

	var rows []Order
	if err := gocsv.UnmarshalFile(file, &rows); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode orders csv")
		return nil, &MalformedInputError{Path: path, Reason: err.Error()}
	}

	seen := make(map[string]bool, len(rows))
	for i, row := range rows {
		// row 1 is the header
		rownum := i + 2
		if err := validateRow(path, rownum, row); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "invalid order row")
			return nil, err
		}
		if seen[row.OrderNumber] {
			err := &MalformedInputError{
				Path: path, Row: rownum,
				Reason: fmt.Sprintf("duplicate order number %q", row.OrderNumber),
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, "duplicate order number")
			return nil, err
		}
		seen[row.OrderNumber] = true
	}

	return rows, nil
}

func validateRow(path string, rownum int, row Order) error {
	required := []struct {
		column string
		value  string
	}{
		{"Order number", row.OrderNumber},
		{"Head", row.Head},
		{"Body", row.Body},
		{"Legs", row.Legs},
		{"Address", row.Address},
	}
	for _, field := range required {
		if field.value == "" {
			return &MalformedInputError{
				Path: path, Row: rownum,
				Reason: fmt.Sprintf("empty required field %q", field.column),
			}
		}
	}
	return nil
}
