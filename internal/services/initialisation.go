package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/yungbote/allthebeans-backend/internal/db"
	"github.com/yungbote/allthebeans-backend/internal/logger"
	"github.com/yungbote/allthebeans-backend/internal/repos"
	"github.com/yungbote/allthebeans-backend/internal/types"
)

// InitialisationService seeds the catalog from a JSON file of bean records.
// Records whose bean name already exists are skipped, so seeding is
// idempotent across restarts.
type InitialisationService interface {
	InitialiseFromFile(ctx context.Context, path string) (int, error)
	Initialise(ctx context.Context, input CreateBeanInput) error
}

type initialisationService struct {
	db          *gorm.DB
	log         *logger.Logger
	exec        *db.ExecutionStrategy
	beanRepo    repos.BeanRepo
	countryRepo repos.CountryRepo
}

func NewInitialisationService(
	theDB *gorm.DB,
	baseLog *logger.Logger,
	exec *db.ExecutionStrategy,
	beanRepo repos.BeanRepo,
	countryRepo repos.CountryRepo,
) InitialisationService {
	serviceLog := baseLog.With("service", "InitialisationService")
	return &initialisationService{
		db:          theDB,
		log:         serviceLog,
		exec:        exec,
		beanRepo:    beanRepo,
		countryRepo: countryRepo,
	}
}

// seedBean mirrors the create payload's wire shape.
type seedBean struct {
	Index       uint             `json:"index"`
	IsBOTD      bool             `json:"isBOTD"`
	Cost        decimal.Decimal  `json:"cost"`
	Image       string           `json:"image"`
	Colour      types.BeanColour `json:"colour"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Country     string           `json:"country"`
}

func (is *initialisationService) InitialiseFromFile(ctx context.Context, path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read seed file: %w", err)
	}
	var seeds []seedBean
	if err := json.Unmarshal(raw, &seeds); err != nil {
		return 0, fmt.Errorf("parse seed file: %w", err)
	}

	created := 0
	for _, seed := range seeds {
		var exists int64
		if err := is.db.WithContext(ctx).
			Model(&types.Bean{}).
			Where("name = ?", seed.Name).
			Count(&exists).Error; err != nil {
			return created, err
		}
		if exists > 0 {
			is.log.Debug("Seed bean already present, skipping", "name", seed.Name)
			continue
		}
		err := is.Initialise(ctx, CreateBeanInput{
			Index:       seed.Index,
			IsBOTD:      seed.IsBOTD,
			Cost:        seed.Cost,
			ImageName:   seed.Image,
			Colour:      seed.Colour,
			Name:        seed.Name,
			Description: seed.Description,
			CountryName: seed.Country,
		})
		if err != nil {
			return created, fmt.Errorf("seed bean %q: %w", seed.Name, err)
		}
		created++
	}
	is.log.Info("Seeded beans", "created", created, "total", len(seeds))
	return created, nil
}

func (is *initialisationService) Initialise(ctx context.Context, input CreateBeanInput) error {
	return is.exec.Serializable(ctx, func(tx *gorm.DB) error {
		country, err := is.countryRepo.GetOrCreateByName(ctx, tx, input.CountryName)
		if err != nil {
			return err
		}
		_, err = is.beanRepo.Create(ctx, tx, input.toBean(country.ID))
		return err
	})
}
