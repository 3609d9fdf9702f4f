package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ensureID заполняет первичный ключ до вставки, чтобы не зависеть от gen_random_uuid()
// (sqlite в тестах его не умеет).
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// locations — корень арендной иерархии: комнаты, провайдеры, варианты длительности.
type Location struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	Name     string `gorm:"type:varchar(255);not null"`
	TimeZone string `gorm:"type:varchar(64);not null;default:'UTC'"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (l *Location) BeforeCreate(*gorm.DB) error { ensureID(&l.ID); return nil }

// Loc — часовой пояс локации, по умолчанию UTC.
func (l *Location) Loc() *time.Location {
	if l == nil || l.TimeZone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(l.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}
