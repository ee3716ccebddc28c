package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"library-circulation-backend/internal/model"
)

// ErrNotFound is returned when a title, member or request does not exist.
var ErrNotFound = errors.New("not found")

// Store defines the persistence operations used by the circulation engine.
// Mutations happen inside InTx; everything else is a plain read.
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error

	GetTitle(ctx context.Context, id string) (*model.Title, error)
	ListTitles(ctx context.Context) ([]model.Title, error)
	GetMember(ctx context.Context, id string) (*model.Member, error)
	CreateMember(ctx context.Context, m *model.Member) error
	GetRequest(ctx context.Context, id string) (*model.CirculationRequest, error)
	ActiveRequestsForMember(ctx context.Context, memberID string) ([]model.CirculationRequest, error)
	RequestsInStateBefore(ctx context.Context, state model.RequestState, before time.Time) ([]model.CirculationRequest, error)
	IssuedDueBefore(ctx context.Context, before time.Time) ([]model.CirculationRequest, error)
	HistoryForMember(ctx context.Context, memberID string) ([]model.ActivityEntry, error)
	HistoryForTitle(ctx context.Context, titleID string) ([]model.ActivityEntry, error)

	SubscriptionsForMember(ctx context.Context, memberID string) ([]model.PushSubscription, error)
	UpsertSubscription(ctx context.Context, sub *model.PushSubscription) error
	DeleteSubscription(ctx context.Context, memberID, endpoint string) error
}

// Tx is the unit of work handed to InTx. Lock* reads take row locks on
// databases that support them.
type Tx interface {
	LockTitle(id string) (*model.Title, error)
	CreateTitle(t *model.Title) error
	SaveTitle(t *model.Title) error
	GetMember(id string) (*model.Member, error)
	HasActiveRequest(memberID, titleID string) (bool, error)
	CreateRequest(r *model.CirculationRequest) error
	LockRequest(id string) (*model.CirculationRequest, error)
	SaveRequest(r *model.CirculationRequest) error
	AppendActivity(e *model.ActivityEntry) error
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// InTx runs fn in a single database transaction. Any error returned by fn
// rolls the whole unit of work back.
func (s *gormStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTx{db: tx})
	})
}

func (s *gormStore) GetTitle(ctx context.Context, id string) (*model.Title, error) {
	var t model.Title
	if err := s.db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "title %s", id)
	}
	return &t, nil
}

func (s *gormStore) ListTitles(ctx context.Context) ([]model.Title, error) {
	var titles []model.Title
	if err := s.db.WithContext(ctx).
		Where("archived_at IS NULL").
		Order("title, id").
		Find(&titles).Error; err != nil {
		return nil, fmt.Errorf("failed to list titles: %w", err)
	}
	return titles, nil
}

func (s *gormStore) GetMember(ctx context.Context, id string) (*model.Member, error) {
	return getMember(s.db.WithContext(ctx), id)
}

func (s *gormStore) CreateMember(ctx context.Context, m *model.Member) error {
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("failed to create member %s: %w", m.ID, err)
	}
	return nil
}

func (s *gormStore) GetRequest(ctx context.Context, id string) (*model.CirculationRequest, error) {
	var r model.CirculationRequest
	if err := s.db.WithContext(ctx).First(&r, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "request %s", id)
	}
	return &r, nil
}

func (s *gormStore) ActiveRequestsForMember(ctx context.Context, memberID string) ([]model.CirculationRequest, error) {
	var reqs []model.CirculationRequest
	if err := s.db.WithContext(ctx).
		Where("member_id = ? AND state IN ?", memberID, []model.RequestState{model.StateRequested, model.StateIssued}).
		Order("requested_at, id").
		Find(&reqs).Error; err != nil {
		return nil, fmt.Errorf("failed to load active requests for member %s: %w", memberID, err)
	}
	return reqs, nil
}

func (s *gormStore) RequestsInStateBefore(ctx context.Context, state model.RequestState, before time.Time) ([]model.CirculationRequest, error) {
	var reqs []model.CirculationRequest
	if err := s.db.WithContext(ctx).
		Where("state = ? AND requested_at < ?", state, before).
		Order("requested_at, id").
		Find(&reqs).Error; err != nil {
		return nil, fmt.Errorf("failed to load %s requests: %w", state, err)
	}
	return reqs, nil
}

func (s *gormStore) IssuedDueBefore(ctx context.Context, before time.Time) ([]model.CirculationRequest, error) {
	var reqs []model.CirculationRequest
	if err := s.db.WithContext(ctx).
		Where("state = ? AND due_at < ?", model.StateIssued, before).
		Order("due_at, id").
		Find(&reqs).Error; err != nil {
		return nil, fmt.Errorf("failed to load overdue requests: %w", err)
	}
	return reqs, nil
}

func (s *gormStore) HistoryForMember(ctx context.Context, memberID string) ([]model.ActivityEntry, error) {
	return s.history(ctx, "member_id = ?", memberID)
}

func (s *gormStore) HistoryForTitle(ctx context.Context, titleID string) ([]model.ActivityEntry, error) {
	return s.history(ctx, "title_id = ?", titleID)
}

func (s *gormStore) history(ctx context.Context, where string, arg string) ([]model.ActivityEntry, error) {
	var entries []model.ActivityEntry
	if err := s.db.WithContext(ctx).
		Where(where, arg).
		Order("timestamp, id").
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to load activity log: %w", err)
	}
	return entries, nil
}

func (s *gormStore) SubscriptionsForMember(ctx context.Context, memberID string) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	if err := s.db.WithContext(ctx).Where("member_id = ?", memberID).Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("failed to load subscriptions for member %s: %w", memberID, err)
	}
	return subs, nil
}

func (s *gormStore) UpsertSubscription(ctx context.Context, sub *model.PushSubscription) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"member_id", "p256dh", "auth"}),
	}).Create(sub).Error
}

func (s *gormStore) DeleteSubscription(ctx context.Context, memberID, endpoint string) error {
	res := s.db.WithContext(ctx).
		Where("member_id = ? AND endpoint = ?", memberID, endpoint).
		Delete(&model.PushSubscription{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete subscription: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: subscription %s", ErrNotFound, endpoint)
	}
	return nil
}

// gormTx implements Tx on top of a GORM transaction handle.
type gormTx struct {
	db *gorm.DB
}

func (t *gormTx) LockTitle(id string) (*model.Title, error) {
	var title model.Title
	if err := t.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&title, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "title %s", id)
	}
	return &title, nil
}

func (t *gormTx) CreateTitle(title *model.Title) error {
	if err := t.db.Create(title).Error; err != nil {
		return fmt.Errorf("failed to create title %s: %w", title.ID, err)
	}
	return nil
}

func (t *gormTx) SaveTitle(title *model.Title) error {
	if err := t.db.Save(title).Error; err != nil {
		return fmt.Errorf("failed to save title %s: %w", title.ID, err)
	}
	return nil
}

func (t *gormTx) GetMember(id string) (*model.Member, error) {
	return getMember(t.db, id)
}

func (t *gormTx) HasActiveRequest(memberID, titleID string) (bool, error) {
	var n int64
	if err := t.db.Model(&model.CirculationRequest{}).
		Where("member_id = ? AND title_id = ? AND state IN ?", memberID, titleID,
			[]model.RequestState{model.StateRequested, model.StateIssued}).
		Count(&n).Error; err != nil {
		return false, fmt.Errorf("failed to check active requests: %w", err)
	}
	return n > 0, nil
}

func (t *gormTx) CreateRequest(r *model.CirculationRequest) error {
	if err := t.db.Create(r).Error; err != nil {
		return fmt.Errorf("failed to create request %s: %w", r.ID, err)
	}
	return nil
}

func (t *gormTx) LockRequest(id string) (*model.CirculationRequest, error) {
	var r model.CirculationRequest
	if err := t.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&r, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "request %s", id)
	}
	return &r, nil
}

func (t *gormTx) SaveRequest(r *model.CirculationRequest) error {
	if err := t.db.Save(r).Error; err != nil {
		return fmt.Errorf("failed to save request %s: %w", r.ID, err)
	}
	return nil
}

func (t *gormTx) AppendActivity(e *model.ActivityEntry) error {
	if err := t.db.Create(e).Error; err != nil {
		return fmt.Errorf("failed to append activity %s: %w", e.Type, err)
	}
	return nil
}

func getMember(db *gorm.DB, id string) (*model.Member, error) {
	var m model.Member
	if err := db.First(&m, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "member %s", id)
	}
	return &m, nil
}

// notFound maps gorm.ErrRecordNotFound to ErrNotFound and wraps anything
// else as a lookup failure.
func notFound(err error, format string, args ...any) error {
	what := fmt.Sprintf(format, args...)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return fmt.Errorf("failed to load %s: %w", what, err)
}
