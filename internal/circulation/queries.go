package circulation

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"library-circulation-backend/internal/fine"
	"library-circulation-backend/internal/ledger"
	"library-circulation-backend/internal/model"
)

// GetInventoryCounts returns the current counts of a title.
func (e *Engine) GetInventoryCounts(ctx context.Context, titleID string) (ledger.Counts, error) {
	t, err := e.store.GetTitle(ctx, titleID)
	if err != nil {
		return ledger.Counts{}, err
	}
	return t.Counts(), nil
}

// GetRequest returns one circulation request.
func (e *Engine) GetRequest(ctx context.Context, requestID string) (*model.CirculationRequest, error) {
	return e.store.GetRequest(ctx, requestID)
}

// GetActiveRequestsForMember returns the member's Requested and Issued requests.
func (e *Engine) GetActiveRequestsForMember(ctx context.Context, memberID string) ([]model.CirculationRequest, error) {
	if _, err := e.store.GetMember(ctx, memberID); err != nil {
		return nil, err
	}
	return e.store.ActiveRequestsForMember(ctx, memberID)
}

// GetHistoryForMember returns the member's activity log, oldest first.
func (e *Engine) GetHistoryForMember(ctx context.Context, memberID string) ([]model.ActivityEntry, error) {
	if _, err := e.store.GetMember(ctx, memberID); err != nil {
		return nil, err
	}
	return e.store.HistoryForMember(ctx, memberID)
}

// GetHistoryForTitle returns the title's activity log, oldest first.
func (e *Engine) GetHistoryForTitle(ctx context.Context, titleID string) ([]model.ActivityEntry, error) {
	if _, err := e.store.GetTitle(ctx, titleID); err != nil {
		return nil, err
	}
	return e.store.HistoryForTitle(ctx, titleID)
}

// MemberOverview is everything a member's account page shows.
type MemberOverview struct {
	Member  *model.Member              `json:"member"`
	Active  []model.CirculationRequest `json:"active"`
	History []model.ActivityEntry      `json:"history"`
}

// GetMemberOverview loads the member, their active requests and their history
// in parallel. The first failure cancels the other lookups.
func (e *Engine) GetMemberOverview(ctx context.Context, memberID string) (*MemberOverview, error) {
	var ov MemberOverview
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, err := e.store.GetMember(gctx, memberID)
		ov.Member = m
		return err
	})
	g.Go(func() error {
		reqs, err := e.store.ActiveRequestsForMember(gctx, memberID)
		ov.Active = reqs
		return err
	})
	g.Go(func() error {
		hist, err := e.store.HistoryForMember(gctx, memberID)
		ov.History = hist
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &ov, nil
}

// OverdueLoan is an issued request past its due date with a fine estimate.
type OverdueLoan struct {
	Request model.CirculationRequest `json:"request"`
	Fine    fine.Assessment          `json:"fine"`
}

// ListOverdue returns issued requests whose due date has passed. The fine is
// computed for display and not persisted.
func (e *Engine) ListOverdue(ctx context.Context) ([]OverdueLoan, error) {
	now := e.clock.Now()
	reqs, err := e.store.IssuedDueBefore(ctx, now)
	if err != nil {
		return nil, err
	}
	loans := make([]OverdueLoan, 0, len(reqs))
	for _, r := range reqs {
		loan := OverdueLoan{Request: r}
		if r.IssuedAt != nil {
			loan.Fine = e.policy.Fine.Calculate(*r.IssuedAt, now)
		}
		loans = append(loans, loan)
	}
	return loans, nil
}

// StaleRequests returns requests that have been waiting longer than window.
func (e *Engine) StaleRequests(ctx context.Context, window time.Duration) ([]model.CirculationRequest, error) {
	return e.store.RequestsInStateBefore(ctx, model.StateRequested, e.clock.Now().Add(-window))
}
