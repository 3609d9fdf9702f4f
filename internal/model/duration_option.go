package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// duration_options — допустимые длительности бронирования для интерфейса.
// Либо фиксированная (Minutes), либо переменная (MinMinutes..MaxMinutes с шагом StepMinutes).
type DurationOption struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	LocationID uuid.UUID `gorm:"type:uuid;not null;index"`

	Minutes     *int `gorm:"type:integer"`
	MinMinutes  *int `gorm:"type:integer"`
	MaxMinutes  *int `gorm:"type:integer"`
	StepMinutes *int `gorm:"type:integer"`

	Label     string `gorm:"type:varchar(255);not null"`
	Active    bool   `gorm:"not null;default:true"`
	SortOrder int    `gorm:"not null;default:0"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (d *DurationOption) BeforeCreate(*gorm.DB) error { ensureID(&d.ID); return nil }

func (d *DurationOption) Fixed() bool { return d.Minutes != nil }

// Allows проверяет, подходит ли длительность брони под опцию.
func (d *DurationOption) Allows(minutes int) bool {
	if d.Fixed() {
		return *d.Minutes == minutes
	}
	if d.MinMinutes == nil || d.MaxMinutes == nil || d.StepMinutes == nil || *d.StepMinutes <= 0 {
		return false
	}
	if minutes < *d.MinMinutes || minutes > *d.MaxMinutes {
		return false
	}
	return (minutes-*d.MinMinutes)%*d.StepMinutes == 0
}
