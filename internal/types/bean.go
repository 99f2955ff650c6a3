package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Bean struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Index       uint            `gorm:"column:index;not null" json:"index"`
	IsBOTD      bool            `gorm:"column:is_botd;not null;default:false" json:"is_botd"`
	Cost        decimal.Decimal `gorm:"column:cost;type:decimal(12,2);not null" json:"cost"`
	ImageName   string          `gorm:"column:image_name;size:50;not null" json:"image_name"`
	Colour      BeanColour      `gorm:"column:colour;not null;default:0" json:"colour"`
	Name        string          `gorm:"column:name;size:100;uniqueIndex;not null" json:"name"`
	Description string          `gorm:"column:description;size:2000;not null" json:"description"`
	CountryID   int64           `gorm:"column:country_id;not null;index" json:"country_id"`
	Country     *Country        `gorm:"constraint:OnDelete:CASCADE;foreignKey:CountryID;references:ID" json:"country,omitempty"`
	CreatedAt   time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"not null" json:"updated_at"`
}

func (Bean) TableName() string { return "bean" }

// CountryName is tolerant of the association not being loaded.
func (b *Bean) CountryName() string {
	if b == nil || b.Country == nil {
		return ""
	}
	return b.Country.Name
}
