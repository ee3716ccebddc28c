package circulation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"library-circulation-backend/internal/model"
)

func TestNext(t *testing.T) {
	states := []model.RequestState{
		model.StateRequested, model.StateIssued, model.StateReturned, model.StateRejected, model.StateExpired,
	}
	events := []Event{EventApprove, EventReject, EventCancel, EventExpire, EventReturn}

	legal := map[model.RequestState]map[Event]model.RequestState{
		model.StateRequested: {
			EventApprove: model.StateIssued,
			EventReject:  model.StateRejected,
			EventCancel:  model.StateRejected,
			EventExpire:  model.StateExpired,
		},
		model.StateIssued: {
			EventReturn: model.StateReturned,
		},
	}

	for _, from := range states {
		for _, ev := range events {
			to, err := Next(from, ev)
			want, ok := legal[from][ev]
			if ok {
				assert.NoError(t, err, "%s on %s", ev, from)
				assert.Equal(t, want, to)
				continue
			}
			assert.ErrorIs(t, err, ErrInvalidStateTransition, "%s on %s", ev, from)
			assert.Empty(t, to)
		}
	}

	_, err := Next(model.StateRequested, Event("renew"))
	assert.ErrorIs(t, err, ErrInvalidStateTransition)
}

func TestTerminalStatesHaveNoTransitions(t *testing.T) {
	for _, from := range []model.RequestState{model.StateReturned, model.StateRejected, model.StateExpired} {
		assert.True(t, from.Terminal())
		for ev := range transitions {
			_, err := Next(from, ev)
			assert.ErrorIs(t, err, ErrInvalidStateTransition)
		}
	}
}
