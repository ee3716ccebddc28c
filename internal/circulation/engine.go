// Package circulation implements the lending lifecycle of a title: reserve,
// cancel, issue, return and fine accrual, each applied as one atomic unit of
// work against the store.
package circulation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"library-circulation-backend/config"
	"library-circulation-backend/internal/clock"
	"library-circulation-backend/internal/fine"
	"library-circulation-backend/internal/keylock"
	"library-circulation-backend/internal/model"
	"library-circulation-backend/internal/store"
)

// DefaultLoanPeriod is how long an issued copy may be kept.
const DefaultLoanPeriod = 15 * 24 * time.Hour

// Policy is the lending policy applied by the engine.
type Policy struct {
	LoanPeriod time.Duration
	Fine       fine.Policy
}

// DefaultPolicy returns a 15 day loan with the default fine policy.
func DefaultPolicy() Policy {
	return Policy{LoanPeriod: DefaultLoanPeriod, Fine: fine.DefaultPolicy()}
}

// PolicyFromConfig builds a Policy from the circulation section of the config.
func PolicyFromConfig(c config.CirculationConfig) Policy {
	return Policy{
		LoanPeriod: c.LoanPeriod(),
		Fine: fine.Policy{
			GracePeriodDays: c.GracePeriodDays,
			DailyRate:       c.DailyRate,
		},
	}
}

// Engine orchestrates the ledger, the request state machine and the activity
// log. It is safe for concurrent use.
type Engine struct {
	store    store.Store
	clock    clock.Clock
	notifier Notifier
	policy   Policy

	titleLocks   *keylock.Map
	requestLocks *keylock.Map
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the system clock.
func WithClock(c clock.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithNotifier sets the adapter informed of successful transitions.
func WithNotifier(n Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// WithPolicy overrides the default lending policy.
func WithPolicy(p Policy) Option {
	return func(e *Engine) { e.policy = p }
}

// NewEngine creates an engine on top of s.
func NewEngine(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:        s,
		clock:        clock.System{},
		notifier:     noopNotifier{},
		policy:       DefaultPolicy(),
		titleLocks:   keylock.New(),
		requestLocks: keylock.New(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Policy returns the lending policy in effect.
func (e *Engine) Policy() Policy { return e.policy }

// RequestTitle reserves one copy of titleID for memberID.
func (e *Engine) RequestTitle(ctx context.Context, memberID, titleID string) (*model.CirculationRequest, error) {
	unlock := e.titleLocks.Lock(titleID)
	defer unlock()

	now := e.clock.Now()
	var req *model.CirculationRequest
	err := e.store.InTx(ctx, func(tx store.Tx) error {
		if _, err := tx.GetMember(memberID); err != nil {
			return err
		}
		title, err := tx.LockTitle(titleID)
		if err != nil {
			return err
		}
		if title.Archived() {
			return fmt.Errorf("%w: title %s is archived", ErrNotFound, titleID)
		}

		dup, err := tx.HasActiveRequest(memberID, titleID)
		if err != nil {
			return err
		}
		if dup {
			return fmt.Errorf("%w: member %s, title %s", ErrDuplicateActiveRequest, memberID, titleID)
		}

		counts, err := title.Counts().ReserveOneCopy()
		if err != nil {
			return e.ledgerError(titleID, err)
		}
		title.SetCounts(counts)
		if err := tx.SaveTitle(title); err != nil {
			return err
		}

		req = &model.CirculationRequest{
			ID:          newID(),
			TitleID:     titleID,
			MemberID:    memberID,
			State:       model.StateRequested,
			RequestedAt: now,
			UpdatedAt:   now,
		}
		if err := tx.CreateRequest(req); err != nil {
			return err
		}
		return tx.AppendActivity(&model.ActivityEntry{
			ID:        newID(),
			Type:      model.ActivityRequest,
			RequestID: req.ID,
			TitleID:   titleID,
			MemberID:  memberID,
			Timestamp: now,
		})
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// CancelRequest withdraws a member's pending request.
func (e *Engine) CancelRequest(ctx context.Context, requestID string) error {
	_, err := e.apply(ctx, requestID, EventCancel, func(r *model.CirculationRequest, entry *model.ActivityEntry, now time.Time) error {
		r.ClosedAt = &now
		entry.Notes = "cancelled by member"
		return nil
	})
	return err
}

// RejectRequest is a librarian declining a pending request.
func (e *Engine) RejectRequest(ctx context.Context, requestID, librarianID, notes string) (*model.CirculationRequest, error) {
	return e.apply(ctx, requestID, EventReject, func(r *model.CirculationRequest, entry *model.ActivityEntry, now time.Time) error {
		r.ClosedAt = &now
		entry.LibrarianID = librarianID
		entry.Notes = notes
		return nil
	})
}

// ExpireRequest closes a pending request whose challenge window elapsed.
func (e *Engine) ExpireRequest(ctx context.Context, requestID string) (*model.CirculationRequest, error) {
	return e.apply(ctx, requestID, EventExpire, func(r *model.CirculationRequest, entry *model.ActivityEntry, now time.Time) error {
		r.ClosedAt = &now
		return nil
	})
}

// IssueRequest hands the reserved copy to the member.
func (e *Engine) IssueRequest(ctx context.Context, requestID, librarianID string) (*model.CirculationRequest, error) {
	return e.apply(ctx, requestID, EventApprove, func(r *model.CirculationRequest, entry *model.ActivityEntry, now time.Time) error {
		due := now.Add(e.policy.LoanPeriod)
		r.IssuedAt = &now
		r.IssuedBy = librarianID
		r.DueAt = &due
		r.Fine = model.FineRecord{AmountDue: decimal.Zero, LastCalculatedAt: &now}
		entry.LibrarianID = librarianID
		return nil
	})
}

// ReturnCopy takes the copy back and finalizes the fine.
func (e *Engine) ReturnCopy(ctx context.Context, requestID string) (*model.CirculationRequest, error) {
	return e.apply(ctx, requestID, EventReturn, func(r *model.CirculationRequest, entry *model.ActivityEntry, now time.Time) error {
		if r.IssuedAt == nil {
			return fmt.Errorf("%w: issued request %s has no issue time", ErrDecode, r.ID)
		}
		a := e.policy.Fine.Calculate(*r.IssuedAt, now)
		r.ReturnedAt = &now
		r.ClosedAt = &now
		r.Fine = model.FineRecord{
			DaysOverdue:      a.DaysOverdue,
			AmountDue:        a.Amount,
			IsPaid:           r.Fine.IsPaid,
			LastCalculatedAt: &now,
		}
		entry.Dues = decimal.NewNullDecimal(a.Amount)
		return nil
	})
}

// RecomputeFine refreshes the fine snapshot of an issued request. It does not
// change the request state and writes no activity entry.
func (e *Engine) RecomputeFine(ctx context.Context, requestID string) (*model.FineRecord, error) {
	unlock := e.requestLocks.Lock(requestID)
	defer unlock()

	now := e.clock.Now()
	var record model.FineRecord
	err := e.store.InTx(ctx, func(tx store.Tx) error {
		r, err := tx.LockRequest(requestID)
		if err != nil {
			return err
		}
		if r.State != model.StateIssued {
			return fmt.Errorf("%w: fine is only recomputed for issued requests, %s is %s", ErrInvalidStateTransition, requestID, r.State)
		}
		if r.IssuedAt == nil {
			return fmt.Errorf("%w: issued request %s has no issue time", ErrDecode, requestID)
		}
		a := e.policy.Fine.Calculate(*r.IssuedAt, now)
		r.Fine.DaysOverdue = a.DaysOverdue
		r.Fine.AmountDue = a.Amount
		r.Fine.LastCalculatedAt = &now
		r.UpdatedAt = now
		if err := tx.SaveRequest(r); err != nil {
			return err
		}
		record = r.Fine
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

type mutator func(r *model.CirculationRequest, entry *model.ActivityEntry, now time.Time) error

// apply runs one lifecycle transition: the request row, the title counts and
// the activity entry are written in a single transaction under the request
// lock and then the title lock.
func (e *Engine) apply(ctx context.Context, requestID string, ev Event, mutate mutator) (*model.CirculationRequest, error) {
	unlockReq := e.requestLocks.Lock(requestID)
	defer unlockReq()

	// The title of a request never changes, so it can be read before locking.
	current, err := e.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	unlockTitle := e.titleLocks.Lock(current.TitleID)
	defer unlockTitle()

	now := e.clock.Now()
	var (
		req   *model.CirculationRequest
		title *model.Title
	)
	err = e.store.InTx(ctx, func(tx store.Tx) error {
		r, err := tx.LockRequest(requestID)
		if err != nil {
			return err
		}
		t, err := lookup(r.State, ev)
		if err != nil {
			return err
		}

		ti, err := tx.LockTitle(r.TitleID)
		if err != nil {
			return err
		}
		counts, err := t.apply(ti.Counts())
		if err != nil {
			return e.ledgerError(ti.ID, err)
		}
		ti.SetCounts(counts)

		entry := &model.ActivityEntry{
			ID:        newID(),
			Type:      t.activity,
			RequestID: r.ID,
			TitleID:   r.TitleID,
			MemberID:  r.MemberID,
			Timestamp: now,
		}
		r.State = t.to
		r.UpdatedAt = now
		if err := mutate(r, entry, now); err != nil {
			return err
		}

		if err := tx.SaveTitle(ti); err != nil {
			return err
		}
		if err := tx.SaveRequest(r); err != nil {
			return err
		}
		if err := tx.AppendActivity(entry); err != nil {
			return err
		}
		req, title = r, ti
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.notifier.Notify(Notice{
		Event:     ev,
		RequestID: req.ID,
		MemberID:  req.MemberID,
		TitleID:   req.TitleID,
		TitleName: title.Name,
		DueAt:     req.DueAt,
		Fine:      req.Fine.AmountDue,
		At:        now,
	})
	return req, nil
}

// ledgerError logs invariant violations loudly; they always indicate a bug.
func (e *Engine) ledgerError(titleID string, err error) error {
	if errors.Is(err, ErrInvariantViolation) {
		log.Printf("INVARIANT VIOLATION on title %s: %v", titleID, err)
	}
	return err
}

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}
