// pkg/session/result.go
package session

import (
	"github.com/google/uuid"

	"github.com/DanCorvesor/environ-policies/pkg/model"
)

// State is the session's terminal classification: it lets a caller
// distinguish a fully successful run, a partial one with rejected rows, a
// deliberately unpersisted (store-less) run that completed validation, and a
// run that aborted before persistence.
type State string

const (
	StateSucceeded State = "succeeded"
	StatePartial   State = "partial"
	StateValidated State = "validated"
	StateAborted   State = "aborted"
)

// Result summarizes one session's pipeline run.
type Result struct {
	SessionID    uuid.UUID
	Path         string
	Kind         model.Kind
	State        State
	RowsValid    int
	RowsRejected int
	Cleaning     *model.CleaningReport
	Outcomes     []model.ValidationOutcome
	Write        *model.WriteSummary
}

// Result builds the session's current result. Before persistence has
// completed the state is StateAborted, except for a session with no store:
// there validation is the final stage, and completing it is StateValidated.
func (s *Session) Result() *Result {
	r := &Result{
		SessionID: s.id,
		Path:      s.path,
		Kind:      s.kind,
		State:     StateAborted,
		Cleaning:  s.report,
		Outcomes:  s.outcomes,
		Write:     s.summary,
	}
	for _, o := range s.outcomes {
		if o.Valid() {
			r.RowsValid++
		} else {
			r.RowsRejected++
		}
	}
	switch {
	case s.stage == StagePersisted:
		if r.RowsRejected == 0 {
			r.State = StateSucceeded
		} else {
			r.State = StatePartial
		}
	case s.stage == StageValidated && s.store == nil:
		r.State = StateValidated
	}
	return r
}
