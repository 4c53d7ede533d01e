package scraper

import "pinscraper/pkg/models"

// OutcomeKind classifies what happened to one candidate
type OutcomeKind int

const (
	// Skipped candidates had no usable source or were filtered out
	Skipped OutcomeKind = iota
	// Rejected candidates failed fetching, validation or saving
	Rejected
	// Accepted candidates were written to disk
	Accepted
)

func (k OutcomeKind) String() string {
	switch k {
	case Accepted:
		return "accepted"
	case Rejected:
		return "rejected"
	default:
		return "skipped"
	}
}

// Outcome is the result of processing one candidate element.
type Outcome struct {
	Kind   OutcomeKind
	Image  models.AcceptedImage
	Reason string
}

func skipped(reason string) Outcome {
	return Outcome{Kind: Skipped, Reason: reason}
}

func rejected(reason string) Outcome {
	return Outcome{Kind: Rejected, Reason: reason}
}

// Tally aggregates outcomes over a run.
type Tally struct {
	Accepted int
	Rejected int
	Skipped  int
	Scrolls  int
}

func (t *Tally) add(o Outcome) {
	switch o.Kind {
	case Accepted:
		t.Accepted++
	case Rejected:
		t.Rejected++
	default:
		t.Skipped++
	}
}
