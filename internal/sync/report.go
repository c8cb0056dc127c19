package sync

import (
	"fmt"
	"io"

	"driveflat/internal/model"
)

// Reporter streams one line per outcome as it is decided and keeps the
// running tally. It makes no decisions.
type Reporter struct {
	w       io.Writer
	summary model.Summary
}

// NewReporter writes report lines to w.
func NewReporter(w io.Writer) *Reporter {
	return &Reporter{w: w}
}

// Report prints one outcome and counts it.
func (r *Reporter) Report(o model.Outcome) {
	r.summary.Add(o)
	switch o.Status {
	case model.StatusRenamedImported:
		fmt.Fprintf(r.w, "%s -> %s: %s\n", o.Record.Name, o.DestName, o.Status)
	default:
		if o.Message != "" {
			fmt.Fprintf(r.w, "%s: %s - %s\n", o.Record.Name, o.Status, o.Message)
			return
		}
		fmt.Fprintf(r.w, "%s: %s\n", o.Record.Name, o.Status)
	}
}

// ReportAll prints a batch of pre-made outcomes in order.
func (r *Reporter) ReportAll(outcomes []model.Outcome) {
	for _, o := range outcomes {
		r.Report(o)
	}
}

// Flush prints the final tally.
func (r *Reporter) Flush() {
	fmt.Fprintln(r.w, r.summary.String())
}

// Summary returns the counts accumulated so far.
func (r *Reporter) Summary() model.Summary {
	return r.summary
}
