package intake

import (
	"context"

	"github.com/jaykayes/lottery-script/internal/domain/dedupe"
	"github.com/jaykayes/lottery-script/internal/domain/model"
)

// Report counts what Prepare removed or flagged.
type Report struct {
	Read       int
	Early      int
	Late       int
	Duplicates int
	Ineligible int
	Accepted   int
}

// Prepare keeps the applications submitted inside the window, then keeps the
// last submission per name and after that per username, and marks each
// survivor eligible when it accepted the terms. Order is preserved.
func Prepare(ctx context.Context, applicants []model.Applicant, terms *Terms, window Window) ([]model.Applicant, Report) {
	rep := Report{Read: len(applicants)}

	inWindow := make([]model.Applicant, 0, len(applicants))
	for _, a := range applicants {
		switch {
		case !window.Opening.IsZero() && a.Submitted.Before(window.Opening):
			rep.Early++
		case !window.Contains(a.Submitted):
			rep.Late++
		default:
			inWindow = append(inWindow, a)
		}
	}

	kept, removed := dedupe.KeepLast(ctx, inWindow,
		func(a model.Applicant) string { return a.Identity },
		func(a model.Applicant) string { return a.Username },
	)
	rep.Duplicates = removed

	for i := range kept {
		kept[i].Eligible = terms.Accepted(kept[i].Identity, kept[i].Username)
		if kept[i].Eligible {
			rep.Accepted++
		} else {
			rep.Ineligible++
		}
	}
	return kept, rep
}
