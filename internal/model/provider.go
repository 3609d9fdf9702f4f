package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ServiceProvider — мастер или команда, которой выставляются счета за бронирования.
type ServiceProvider struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	LocationID uuid.UUID `gorm:"type:uuid;not null;index"`

	// Отображаемое имя, уникально в пределах локации без учёта регистра.
	Name string `gorm:"type:varchar(255);not null"`

	Active    bool   `gorm:"not null;default:true;index"`
	SortOrder int    `gorm:"not null;default:0"`
	Color     string `gorm:"type:varchar(16)"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (p *ServiceProvider) BeforeCreate(*gorm.DB) error { ensureID(&p.ID); return nil }
