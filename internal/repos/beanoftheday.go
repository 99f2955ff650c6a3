package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/allthebeans-backend/internal/logger"
	"github.com/yungbote/allthebeans-backend/internal/types"
)

// BeanOfTheDayRepo is the append-only ledger of date -> bean selections. It
// does not enforce at-most-one-per-date itself; that is the selector's
// protocol (plus the defensive unique index on the date column).
type BeanOfTheDayRepo interface {
	GetForDate(ctx context.Context, tx *gorm.DB, date time.Time) (*types.BeanOfTheDay, error)
	Create(ctx context.Context, tx *gorm.DB, beanID uuid.UUID, date time.Time) (*types.BeanOfTheDay, error)
}

type beanOfTheDayRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBeanOfTheDayRepo(db *gorm.DB, baseLog *logger.Logger) BeanOfTheDayRepo {
	repoLog := baseLog.With("repo", "BeanOfTheDayRepo")
	return &beanOfTheDayRepo{db: db, log: repoLog}
}

// GetForDate returns nil when no selection has been recorded for the date.
func (bor *beanOfTheDayRepo) GetForDate(ctx context.Context, tx *gorm.DB, date time.Time) (*types.BeanOfTheDay, error) {
	transaction := tx
	if transaction == nil {
		transaction = bor.db
	}

	var record types.BeanOfTheDay
	if err := transaction.WithContext(ctx).
		Where("date = ?", types.DateOnly(date)).
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (bor *beanOfTheDayRepo) Create(ctx context.Context, tx *gorm.DB, beanID uuid.UUID, date time.Time) (*types.BeanOfTheDay, error) {
	transaction := tx
	if transaction == nil {
		transaction = bor.db
	}

	record := &types.BeanOfTheDay{
		ID:     uuid.New(),
		BeanID: beanID,
		Date:   types.DateOnly(date),
	}
	if err := transaction.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}
