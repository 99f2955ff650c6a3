package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/allthebeans-backend/internal/apperr"
	"github.com/yungbote/allthebeans-backend/internal/db"
	"github.com/yungbote/allthebeans-backend/internal/logger"
	"github.com/yungbote/allthebeans-backend/internal/repos"
	"github.com/yungbote/allthebeans-backend/internal/types"
)

// IntPicker returns a uniform index in [0, n). Injected so selection is
// deterministic under test; the default reseeds per call.
type IntPicker func(n int) int

func defaultPicker(n int) int {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return rng.Intn(n)
}

type BeanOfTheDayService interface {
	GetToday(ctx context.Context) (*types.Bean, error)
	GetForDate(ctx context.Context, date time.Time) (*types.Bean, error)
}

type beanOfTheDayService struct {
	log      *logger.Logger
	exec     *db.ExecutionStrategy
	beanRepo repos.BeanRepo
	botdRepo repos.BeanOfTheDayRepo
	pick     IntPicker
}

func NewBeanOfTheDayService(
	baseLog *logger.Logger,
	exec *db.ExecutionStrategy,
	beanRepo repos.BeanRepo,
	botdRepo repos.BeanOfTheDayRepo,
	pick IntPicker,
) BeanOfTheDayService {
	serviceLog := baseLog.With("service", "BeanOfTheDayService")
	if pick == nil {
		pick = defaultPicker
	}
	return &beanOfTheDayService{
		log:      serviceLog,
		exec:     exec,
		beanRepo: beanRepo,
		botdRepo: botdRepo,
		pick:     pick,
	}
}

func (bods *beanOfTheDayService) GetToday(ctx context.Context) (*types.Bean, error) {
	return bods.GetForDate(ctx, time.Now().UTC())
}

// GetForDate returns the bean recorded for the date, or selects one,
// records it and returns it. Concurrent first requests for the same date
// converge on one committed ledger row: the body runs under serializable
// isolation, losers abort, and the retry re-executes from the read so it
// observes the winner's row.
func (bods *beanOfTheDayService) GetForDate(ctx context.Context, date time.Time) (*types.Bean, error) {
	var bean *types.Bean
	err := bods.exec.Serializable(ctx, func(tx *gorm.DB) error {
		record, err := bods.botdRepo.GetForDate(ctx, tx, date)
		if err != nil {
			return err
		}
		if record != nil {
			bean, err = bods.resolve(ctx, tx, record.BeanID)
			return err
		}

		previous, err := bods.botdRepo.GetForDate(ctx, tx, date.AddDate(0, 0, -1))
		if err != nil {
			return err
		}

		candidates, err := bods.beanRepo.ListIDs(ctx, tx)
		if err != nil {
			return err
		}
		if previous != nil {
			candidates = excludeID(candidates, previous.BeanID)
		}
		if len(candidates) == 0 {
			return apperr.NotFoundf("not enough beans to select a bean of the day")
		}

		selected := candidates[bods.pick(len(candidates))]
		if _, err := bods.botdRepo.Create(ctx, tx, selected, date); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// Another transaction committed the day's pick between our
				// read and write; rerun the body and take the read branch.
				return fmt.Errorf("%w: bean of the day for %s already recorded", db.ErrConcurrentUpdate, date.Format("2006-01-02"))
			}
			return err
		}
		bods.log.Info("Selected bean of the day", "date", date.Format("2006-01-02"), "bean_id", selected)
		bean, err = bods.resolve(ctx, tx, selected)
		return err
	})
	if err != nil {
		return nil, err
	}
	return bean, nil
}

// resolve fetches the recorded bean. A miss here means the ledger references
// a bean that no longer exists: referential inconsistency, not a user-facing
// 404.
func (bods *beanOfTheDayService) resolve(ctx context.Context, tx *gorm.DB, beanID uuid.UUID) (*types.Bean, error) {
	bean, err := bods.beanRepo.GetByID(ctx, tx, beanID)
	if err != nil {
		if apperr.IsNotFound(err) {
			bods.log.Error("Ledger references a missing bean", "bean_id", beanID)
			return nil, apperr.Internal(fmt.Errorf("bean of the day %s no longer exists", beanID))
		}
		return nil, err
	}
	return bean, nil
}

func excludeID(ids []uuid.UUID, exclude uuid.UUID) []uuid.UUID {
	filtered := ids[:0:0]
	for _, id := range ids {
		if id != exclude {
			filtered = append(filtered, id)
		}
	}
	return filtered
}
