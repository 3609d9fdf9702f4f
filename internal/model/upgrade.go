package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// upgrades — дополнительные опции к бронированию (свет, фон, реквизит), цена за единицу.
type Upgrade struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	Name   string `gorm:"type:varchar(255);not null"`
	Active bool   `gorm:"not null;default:true;index"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (u *Upgrade) BeforeCreate(*gorm.DB) error { ensureID(&u.ID); return nil }
