package circulation

import (
	"errors"

	"library-circulation-backend/internal/ledger"
	"library-circulation-backend/internal/model"
	"library-circulation-backend/internal/store"
)

// Error kinds returned by the engine. Match them with errors.Is.
var (
	ErrNoCopiesAvailable      = ledger.ErrNoCopiesAvailable
	ErrInvariantViolation     = ledger.ErrInvariantViolation
	ErrNotFound               = store.ErrNotFound
	ErrDecode                 = model.ErrDecode
	ErrDuplicateActiveRequest = errors.New("member already holds an active request for this title")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrInvalidArgument        = errors.New("invalid argument")
)

// Kind names the error kind of err for logs and metrics labels.
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrNoCopiesAvailable):
		return "no_copies_available"
	case errors.Is(err, ErrDuplicateActiveRequest):
		return "duplicate_active_request"
	case errors.Is(err, ErrInvalidStateTransition):
		return "invalid_state_transition"
	case errors.Is(err, ErrInvariantViolation):
		return "invariant_violation"
	case errors.Is(err, ErrDecode):
		return "decode"
	case errors.Is(err, ErrInvalidArgument):
		return "invalid_argument"
	}
	return "internal"
}
