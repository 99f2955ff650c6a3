package repos

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/yungbote/allthebeans-backend/internal/apperr"
	"github.com/yungbote/allthebeans-backend/internal/logger"
	"github.com/yungbote/allthebeans-backend/internal/types"
)

type CountryRepo interface {
	GetOrCreateByName(ctx context.Context, tx *gorm.DB, name string) (*types.Country, error)
	GetByID(ctx context.Context, tx *gorm.DB, id int64) (*types.Country, error)
	Delete(ctx context.Context, tx *gorm.DB, country *types.Country) error
}

type countryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCountryRepo(db *gorm.DB, baseLog *logger.Logger) CountryRepo {
	repoLog := baseLog.With("repo", "CountryRepo")
	return &countryRepo{db: db, log: repoLog}
}

// GetOrCreateByName returns the existing country with an exact-match name, or
// inserts a new row. Two concurrent creates of the same name are resolved by
// the enclosing serializable transaction: one writer commits, the other
// aborts and observes the committed row on re-execution.
func (cr *countryRepo) GetOrCreateByName(ctx context.Context, tx *gorm.DB, name string) (*types.Country, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	var country types.Country
	err := transaction.WithContext(ctx).
		Where("name = ?", name).
		First(&country).Error
	if err == nil {
		return &country, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	country = types.Country{Name: name}
	if err := transaction.WithContext(ctx).Create(&country).Error; err != nil {
		return nil, err
	}
	cr.log.Debug("Created country", "name", name, "id", country.ID)
	return &country, nil
}

// GetByID missing here means a bean referenced a country that does not
// exist, which is a referential-integrity violation, not a user error.
func (cr *countryRepo) GetByID(ctx context.Context, tx *gorm.DB, id int64) (*types.Country, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	var country types.Country
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&country).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			cr.log.Error("Country referenced by a bean does not exist", "country_id", id)
			return nil, apperr.NotFoundf("country with id %d was not found", id)
		}
		return nil, err
	}
	return &country, nil
}

// Delete assumes the caller verified no beans still reference the country.
func (cr *countryRepo) Delete(ctx context.Context, tx *gorm.DB, country *types.Country) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	return transaction.WithContext(ctx).Delete(country).Error
}
