package circulation

import (
	"fmt"

	"library-circulation-backend/internal/ledger"
	"library-circulation-backend/internal/model"
)

// Event is something that happens to a circulation request.
type Event string

const (
	EventApprove Event = "approve"
	EventReject  Event = "reject"
	EventCancel  Event = "cancel"
	EventExpire  Event = "expire"
	EventReturn  Event = "return"
)

// transition is one row of the request lifecycle table.
type transition struct {
	from     model.RequestState
	to       model.RequestState
	apply    func(ledger.Counts) (ledger.Counts, error)
	activity model.ActivityType
}

var transitions = map[Event]transition{
	EventApprove: {model.StateRequested, model.StateIssued, ledger.Counts.ConvertReservationToIssue, model.ActivityIssue},
	EventReject:  {model.StateRequested, model.StateRejected, ledger.Counts.ReleaseReservation, model.ActivityRequestRejected},
	EventCancel:  {model.StateRequested, model.StateRejected, ledger.Counts.ReleaseReservation, model.ActivityRequestRejected},
	EventExpire:  {model.StateRequested, model.StateExpired, ledger.Counts.ReleaseReservation, model.ActivityRequestExpired},
	EventReturn:  {model.StateIssued, model.StateReturned, ledger.Counts.ReturnCopy, model.ActivityReturn},
}

// Next returns the state a request in state from moves to on ev.
func Next(from model.RequestState, ev Event) (model.RequestState, error) {
	t, err := lookup(from, ev)
	if err != nil {
		return "", err
	}
	return t.to, nil
}

func lookup(from model.RequestState, ev Event) (transition, error) {
	t, ok := transitions[ev]
	if !ok {
		return transition{}, fmt.Errorf("%w: unknown event %q", ErrInvalidStateTransition, ev)
	}
	if t.from != from {
		return transition{}, fmt.Errorf("%w: cannot %s a %s request", ErrInvalidStateTransition, ev, from)
	}
	return t, nil
}
