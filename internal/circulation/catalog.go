package circulation

import (
	"context"
	"fmt"
	"strings"

	"library-circulation-backend/internal/ledger"
	"library-circulation-backend/internal/model"
	"library-circulation-backend/internal/parse"
	"library-circulation-backend/internal/store"
)

// NewTitle is the catalog data for AddTitle.
type NewTitle struct {
	ISBN   string
	Name   string
	Author string
	Genre  string
	Copies int
}

// AddTitle catalogs a title with Copies available copies. A non-empty ISBN
// is validated and stored in ISBN-13 form.
func (e *Engine) AddTitle(ctx context.Context, nt NewTitle) (*model.Title, error) {
	if strings.TrimSpace(nt.Name) == "" {
		return nil, fmt.Errorf("%w: title name is required", ErrInvalidArgument)
	}
	if nt.Copies < 0 {
		return nil, fmt.Errorf("%w: copies must not be negative, got %d", ErrInvalidArgument, nt.Copies)
	}
	isbn := nt.ISBN
	if strings.TrimSpace(isbn) != "" {
		normalized, err := parse.ISBN(isbn)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
		}
		isbn = normalized
	}
	counts, err := ledger.New(nt.Copies)
	if err != nil {
		return nil, err
	}

	now := e.clock.Now()
	title := &model.Title{
		ID:        newID(),
		ISBN:      isbn,
		Name:      nt.Name,
		Author:    nt.Author,
		Genre:     nt.Genre,
		CreatedAt: now,
		UpdatedAt: now,
	}
	title.SetCounts(counts)
	if err := e.store.InTx(ctx, func(tx store.Tx) error {
		return tx.CreateTitle(title)
	}); err != nil {
		return nil, err
	}
	return title, nil
}

// AddCopies grows an existing title by n available copies.
func (e *Engine) AddCopies(ctx context.Context, titleID string, n int) (*model.Title, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: copies to add must be positive, got %d", ErrInvalidArgument, n)
	}
	unlock := e.titleLocks.Lock(titleID)
	defer unlock()

	var title *model.Title
	err := e.store.InTx(ctx, func(tx store.Tx) error {
		t, err := tx.LockTitle(titleID)
		if err != nil {
			return err
		}
		if t.Archived() {
			return fmt.Errorf("%w: title %s is archived", ErrNotFound, titleID)
		}
		counts, err := t.Counts().AddCopies(n)
		if err != nil {
			return e.ledgerError(titleID, err)
		}
		t.SetCounts(counts)
		t.UpdatedAt = e.clock.Now()
		title = t
		return tx.SaveTitle(t)
	})
	if err != nil {
		return nil, err
	}
	return title, nil
}

// ArchiveTitle withdraws a title from circulation. No copy may be reserved
// or issued. Archiving an archived title is a no-op.
func (e *Engine) ArchiveTitle(ctx context.Context, titleID string) (*model.Title, error) {
	unlock := e.titleLocks.Lock(titleID)
	defer unlock()

	var title *model.Title
	err := e.store.InTx(ctx, func(tx store.Tx) error {
		t, err := tx.LockTitle(titleID)
		if err != nil {
			return err
		}
		title = t
		if t.Archived() {
			return nil
		}
		if !t.Counts().CanArchive() {
			return fmt.Errorf("%w: title %s still has copies out (%s)", ErrInvalidStateTransition, titleID, t.Counts())
		}
		now := e.clock.Now()
		t.ArchivedAt = &now
		t.UpdatedAt = now
		return tx.SaveTitle(t)
	})
	if err != nil {
		return nil, err
	}
	return title, nil
}

// RegisterMember creates a member who can request titles.
func (e *Engine) RegisterMember(ctx context.Context, name string) (*model.Member, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: member name is required", ErrInvalidArgument)
	}
	m := &model.Member{ID: newID(), Name: name, CreatedAt: e.clock.Now()}
	if err := e.store.CreateMember(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// ListTitles returns every title still in circulation.
func (e *Engine) ListTitles(ctx context.Context) ([]model.Title, error) {
	return e.store.ListTitles(ctx)
}
