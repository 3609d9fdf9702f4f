package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// rooms
type Room struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	LocationID uuid.UUID `gorm:"type:uuid;not null;index"`

	// Уникально в пределах локации без учёта регистра (проверяется сервисом и индексом в миграции).
	Name string `gorm:"type:varchar(255);not null"`

	// Базовая ставка в час, используется когда у комнаты нет действующей цены.
	HourlyRate float64 `gorm:"type:numeric(12,2);not null;default:0"`

	Active    bool   `gorm:"not null;default:true;index"`
	SortOrder int    `gorm:"not null;default:0"`
	Color     string `gorm:"type:varchar(16)"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (r *Room) BeforeCreate(*gorm.DB) error { ensureID(&r.ID); return nil }
