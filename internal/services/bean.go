package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/yungbote/allthebeans-backend/internal/db"
	"github.com/yungbote/allthebeans-backend/internal/logger"
	"github.com/yungbote/allthebeans-backend/internal/repos"
	"github.com/yungbote/allthebeans-backend/internal/types"
)

// CreateBeanInput carries every mutable bean field plus the country name the
// bean should reference. The country is lazily created when unknown.
type CreateBeanInput struct {
	Index       uint
	IsBOTD      bool
	Cost        decimal.Decimal
	ImageName   string
	Colour      types.BeanColour
	Name        string
	Description string
	CountryName string
}

// PatchBeanInput applies only the fields that are non-nil; absent fields are
// left untouched, and the country is only resolved when a name was supplied.
type PatchBeanInput struct {
	Index       *uint
	IsBOTD      *bool
	Cost        *decimal.Decimal
	ImageName   *string
	Colour      *types.BeanColour
	Name        *string
	Description *string
	CountryName *string
}

type BeanService interface {
	GetAll(ctx context.Context, pageNumber, pageSize int, search string) ([]*types.Bean, int64, error)
	GetByID(ctx context.Context, id uuid.UUID) (*types.Bean, error)
	Create(ctx context.Context, input CreateBeanInput) (*types.Bean, error)
	CreateOrUpdate(ctx context.Context, id uuid.UUID, input CreateBeanInput) (*types.Bean, error)
	Patch(ctx context.Context, id uuid.UUID, input PatchBeanInput) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type beanService struct {
	log         *logger.Logger
	exec        *db.ExecutionStrategy
	beanRepo    repos.BeanRepo
	countryRepo repos.CountryRepo
}

func NewBeanService(
	baseLog *logger.Logger,
	exec *db.ExecutionStrategy,
	beanRepo repos.BeanRepo,
	countryRepo repos.CountryRepo,
) BeanService {
	serviceLog := baseLog.With("service", "BeanService")
	return &beanService{
		log:         serviceLog,
		exec:        exec,
		beanRepo:    beanRepo,
		countryRepo: countryRepo,
	}
}

func (bs *beanService) GetAll(ctx context.Context, pageNumber, pageSize int, search string) ([]*types.Bean, int64, error) {
	beans, err := bs.beanRepo.Search(ctx, nil, pageNumber, pageSize, search)
	if err != nil {
		return nil, 0, err
	}
	total, err := bs.beanRepo.Count(ctx, nil, search)
	if err != nil {
		return nil, 0, err
	}
	return beans, total, nil
}

func (bs *beanService) GetByID(ctx context.Context, id uuid.UUID) (*types.Bean, error) {
	return bs.beanRepo.GetByID(ctx, nil, id)
}

func (bs *beanService) Create(ctx context.Context, input CreateBeanInput) (*types.Bean, error) {
	var beanID uuid.UUID
	err := bs.exec.Serializable(ctx, func(tx *gorm.DB) error {
		country, err := bs.countryRepo.GetOrCreateByName(ctx, tx, input.CountryName)
		if err != nil {
			return err
		}
		created, err := bs.beanRepo.Create(ctx, tx, input.toBean(country.ID))
		if err != nil {
			return err
		}
		beanID = created.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return bs.beanRepo.GetByID(ctx, nil, beanID)
}

// CreateOrUpdate upserts by id. When the bean does not exist the store
// generates a fresh id; the caller-supplied id is deliberately not honored.
func (bs *beanService) CreateOrUpdate(ctx context.Context, id uuid.UUID, input CreateBeanInput) (*types.Bean, error) {
	var beanID uuid.UUID
	err := bs.exec.Serializable(ctx, func(tx *gorm.DB) error {
		bean, err := bs.beanRepo.GetByIDOrNil(ctx, tx, id)
		if err != nil {
			return err
		}
		country, err := bs.countryRepo.GetOrCreateByName(ctx, tx, input.CountryName)
		if err != nil {
			return err
		}
		if bean == nil {
			created, err := bs.beanRepo.Create(ctx, tx, input.toBean(country.ID))
			if err != nil {
				return err
			}
			beanID = created.ID
			return nil
		}
		beanID = bean.ID
		input.applyTo(bean, country.ID)
		return bs.beanRepo.Update(ctx, tx, bean)
	})
	if err != nil {
		return nil, err
	}
	return bs.beanRepo.GetByID(ctx, nil, beanID)
}

func (bs *beanService) Patch(ctx context.Context, id uuid.UUID, input PatchBeanInput) error {
	return bs.exec.Serializable(ctx, func(tx *gorm.DB) error {
		bean, err := bs.beanRepo.GetByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if input.CountryName != nil {
			country, err := bs.countryRepo.GetOrCreateByName(ctx, tx, *input.CountryName)
			if err != nil {
				return err
			}
			bean.CountryID = country.ID
			bean.Country = nil
		}
		if input.Index != nil {
			bean.Index = *input.Index
		}
		if input.IsBOTD != nil {
			bean.IsBOTD = *input.IsBOTD
		}
		if input.Cost != nil {
			bean.Cost = *input.Cost
		}
		if input.ImageName != nil {
			bean.ImageName = *input.ImageName
		}
		if input.Colour != nil {
			bean.Colour = *input.Colour
		}
		if input.Name != nil {
			bean.Name = *input.Name
		}
		if input.Description != nil {
			bean.Description = *input.Description
		}
		return bs.beanRepo.Update(ctx, tx, bean)
	})
}

// Delete removes the bean, then removes its country when the bean was the
// last one referencing it. The bean row must be gone before counting,
// otherwise the count would include the bean being deleted.
func (bs *beanService) Delete(ctx context.Context, id uuid.UUID) error {
	return bs.exec.Serializable(ctx, func(tx *gorm.DB) error {
		bean, err := bs.beanRepo.GetByID(ctx, tx, id)
		if err != nil {
			return err
		}
		countryID := bean.CountryID
		if err := bs.beanRepo.Delete(ctx, tx, bean); err != nil {
			return err
		}
		remaining, err := bs.beanRepo.CountByCountry(ctx, tx, countryID)
		if err != nil {
			return err
		}
		if remaining > 0 {
			return nil
		}
		country, err := bs.countryRepo.GetByID(ctx, tx, countryID)
		if err != nil {
			return err
		}
		bs.log.Debug("Deleting orphaned country", "country", country.Name)
		return bs.countryRepo.Delete(ctx, tx, country)
	})
}

func (in CreateBeanInput) toBean(countryID int64) *types.Bean {
	return &types.Bean{
		Index:       in.Index,
		IsBOTD:      in.IsBOTD,
		Cost:        in.Cost,
		ImageName:   in.ImageName,
		Colour:      in.Colour,
		Name:        in.Name,
		Description: in.Description,
		CountryID:   countryID,
	}
}

func (in CreateBeanInput) applyTo(bean *types.Bean, countryID int64) {
	bean.Index = in.Index
	bean.IsBOTD = in.IsBOTD
	bean.Cost = in.Cost
	bean.ImageName = in.ImageName
	bean.Colour = in.Colour
	bean.Name = in.Name
	bean.Description = in.Description
	bean.CountryID = countryID
	bean.Country = nil
}
