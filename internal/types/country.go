package types

import (
	"time"
)

type Country struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"column:name;size:100;uniqueIndex;not null" json:"name"`
	Beans     []*Bean   `gorm:"foreignKey:CountryID;references:ID" json:"beans,omitempty"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Country) TableName() string { return "country" }
