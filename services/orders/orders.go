// Package orders turns the storefront's orders CSV into typed order
// records for the pipeline.
package orders

import "fmt"

// Order is one input row describing a single robot purchase request.
// Immutable once produced by Read.
type Order struct {
	OrderNumber string `csv:"Order number"`
	Head        string `csv:"Head"`
	Body        string `csv:"Body"`
	Legs        string `csv:"Legs"`
	Address     string `csv:"Address"`
}

// MalformedInputError means the input file is structurally invalid.
// The whole run aborts on it: silently skipping rows would break the
// one-receipt-per-row guarantee.
type MalformedInputError struct {
	Path   string
	Row    int
	Reason string
}

func (e *MalformedInputError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("malformed input %s, row %d: %s", e.Path, e.Row, e.Reason)
	}
	return fmt.Sprintf("malformed input %s: %s", e.Path, e.Reason)
}
