package repos

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/allthebeans-backend/internal/apperr"
	"github.com/yungbote/allthebeans-backend/internal/logger"
	"github.com/yungbote/allthebeans-backend/internal/types"
)

type BeanRepo interface {
	Search(ctx context.Context, tx *gorm.DB, pageNumber, pageSize int, search string) ([]*types.Bean, error)
	Count(ctx context.Context, tx *gorm.DB, search string) (int64, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Bean, error)
	GetByIDOrNil(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Bean, error)
	ListIDs(ctx context.Context, tx *gorm.DB) ([]uuid.UUID, error)
	Create(ctx context.Context, tx *gorm.DB, bean *types.Bean) (*types.Bean, error)
	Update(ctx context.Context, tx *gorm.DB, bean *types.Bean) error
	Delete(ctx context.Context, tx *gorm.DB, bean *types.Bean) error
	CountByCountry(ctx context.Context, tx *gorm.DB, countryID int64) (int64, error)
}

type beanRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBeanRepo(db *gorm.DB, baseLog *logger.Logger) BeanRepo {
	repoLog := baseLog.With("repo", "BeanRepo")
	return &beanRepo{db: db, log: repoLog}
}

// applySearch filters by a case-insensitive substring over name, description
// and country name, and additionally by any colour whose display label
// contains the search text. Blank search means no filter.
func applySearch(q *gorm.DB, search string) *gorm.DB {
	needle := strings.ToLower(strings.TrimSpace(search))
	if needle == "" {
		return q
	}
	pattern := "%" + needle + "%"
	q = q.Joins("JOIN country ON country.id = bean.country_id")
	cond := q.Session(&gorm.Session{NewDB: true}).
		Where("LOWER(bean.name) LIKE ?", pattern).
		Or("LOWER(bean.description) LIKE ?", pattern).
		Or("LOWER(country.name) LIKE ?", pattern)
	if colours := types.MatchingColours(needle); len(colours) > 0 {
		cond = cond.Or("bean.colour IN ?", colours)
	}
	return q.Where(cond)
}

func validatePagination(pageNumber, pageSize int) error {
	if pageNumber < 1 {
		return apperr.Invalidf("pageNumber must be at least 1, got %d", pageNumber)
	}
	if pageSize < 1 {
		return apperr.Invalidf("pageSize must be at least 1, got %d", pageSize)
	}
	return nil
}

func (br *beanRepo) Search(ctx context.Context, tx *gorm.DB, pageNumber, pageSize int, search string) ([]*types.Bean, error) {
	transaction := tx
	if transaction == nil {
		transaction = br.db
	}

	if err := validatePagination(pageNumber, pageSize); err != nil {
		return nil, err
	}

	var results []*types.Bean
	q := transaction.WithContext(ctx).Model(&types.Bean{})
	q = applySearch(q, search)
	if err := q.
		Preload("Country").
		Order("bean.id").
		Offset((pageNumber - 1) * pageSize).
		Limit(pageSize).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (br *beanRepo) Count(ctx context.Context, tx *gorm.DB, search string) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = br.db
	}

	var count int64
	q := transaction.WithContext(ctx).Model(&types.Bean{})
	q = applySearch(q, search)
	if err := q.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (br *beanRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Bean, error) {
	transaction := tx
	if transaction == nil {
		transaction = br.db
	}

	var bean types.Bean
	if err := transaction.WithContext(ctx).
		Preload("Country").
		Where("id = ?", id).
		First(&bean).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("bean with id %s was not found", id)
		}
		return nil, err
	}
	return &bean, nil
}

// GetByIDOrNil is the upsert probe: a missing bean is not an error here.
func (br *beanRepo) GetByIDOrNil(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Bean, error) {
	bean, err := br.GetByID(ctx, tx, id)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return bean, nil
}

// ListIDs returns every bean id, ordered, for the selector's candidate set.
func (br *beanRepo) ListIDs(ctx context.Context, tx *gorm.DB) ([]uuid.UUID, error) {
	transaction := tx
	if transaction == nil {
		transaction = br.db
	}

	var ids []uuid.UUID
	if err := transaction.WithContext(ctx).
		Model(&types.Bean{}).
		Order("id").
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (br *beanRepo) Create(ctx context.Context, tx *gorm.DB, bean *types.Bean) (*types.Bean, error) {
	transaction := tx
	if transaction == nil {
		transaction = br.db
	}

	if bean.ID == uuid.Nil {
		bean.ID = uuid.New()
	}
	bean.Description = strings.TrimSpace(bean.Description)

	if err := transaction.WithContext(ctx).Create(bean).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict(errors.New("a bean with this name already exists"))
		}
		return nil, err
	}
	return bean, nil
}

func (br *beanRepo) Update(ctx context.Context, tx *gorm.DB, bean *types.Bean) error {
	transaction := tx
	if transaction == nil {
		transaction = br.db
	}

	bean.Description = strings.TrimSpace(bean.Description)
	// Country is an association; saving it alongside the row would upsert it.
	if err := transaction.WithContext(ctx).
		Omit("Country").
		Save(bean).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperr.Conflict(errors.New("a bean with this name already exists"))
		}
		return err
	}
	return nil
}

func (br *beanRepo) Delete(ctx context.Context, tx *gorm.DB, bean *types.Bean) error {
	transaction := tx
	if transaction == nil {
		transaction = br.db
	}

	return transaction.WithContext(ctx).Delete(bean).Error
}

func (br *beanRepo) CountByCountry(ctx context.Context, tx *gorm.DB, countryID int64) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = br.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Bean{}).
		Where("country_id = ?", countryID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
