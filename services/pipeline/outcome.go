package pipeline

type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// OrderResult is the final disposition of one input row.
type OrderResult struct {
	OrderNumber string
	Status      Status
	Attempts    int
	Err         error
}

// Outcome aggregates per-order results for reporting. It lives only
// for the duration of the process.
type Outcome struct {
	Results     []OrderResult
	ArchivePath string
}

func (o Outcome) Succeeded() int {
	n := 0
	for _, r := range o.Results {
		if r.Status == StatusSucceeded {
			n++
		}
	}
	return n
}

func (o Outcome) Failed() int {
	n := 0
	for _, r := range o.Results {
		if r.Status == StatusFailed {
			n++
		}
	}
	return n
}
