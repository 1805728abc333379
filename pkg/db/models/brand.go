package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Brand maps spelling variants found in offer names onto one canonical brand.
type Brand struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	Canonical string         `gorm:"column:canonical;not null"`
	Aliases   pq.StringArray `gorm:"column:aliases;type:text[]"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
