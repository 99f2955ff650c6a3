package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// BeanOfTheDay is the ledger of date -> bean selections. The unique index on
// Date backs up the serializable-isolation protocol in the selector: a
// duplicate insert means another transaction already committed the day's
// pick, and the loser re-reads instead.
type BeanOfTheDay struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	BeanID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"bean_id"`
	Bean      *Bean          `gorm:"constraint:OnDelete:CASCADE;foreignKey:BeanID;references:ID" json:"bean,omitempty"`
	Date      datatypes.Date `gorm:"column:date;uniqueIndex;not null" json:"date"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
}

func (BeanOfTheDay) TableName() string { return "bean_of_the_day" }

// DateOnly truncates t to a calendar date in UTC. Every read and write of the
// ledger goes through this so equality comparisons hold across drivers.
func DateOnly(t time.Time) datatypes.Date {
	return datatypes.Date(time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC))
}
