package circulation

import (
	"time"

	"github.com/shopspring/decimal"
)

// Notice describes a committed transition for user-facing messaging.
type Notice struct {
	Event     Event
	RequestID string
	MemberID  string
	TitleID   string
	TitleName string
	DueAt     *time.Time
	Fine      decimal.Decimal
	At        time.Time
}

// Notifier is informed after a transition commits. Implementations must not
// block; delivery failures never affect the transition.
type Notifier interface {
	Notify(n Notice)
}

type noopNotifier struct{}

func (noopNotifier) Notify(Notice) {}
