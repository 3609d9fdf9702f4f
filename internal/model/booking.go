package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/studio-booking/internal/calendar"
)

// bookings
type Booking struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	RoomID            uuid.UUID `gorm:"type:uuid;not null;index:idx_bookings_room_time,priority:1"`
	ServiceProviderID uuid.UUID `gorm:"type:uuid;not null;index"`

	// Момент начала; в часовой пояс локации переводится только при отображении.
	StartsAt        time.Time `gorm:"not null;index:idx_bookings_room_time,priority:2"`
	DurationMinutes int       `gorm:"not null"`
	RestingMinutes  int       `gorm:"not null;default:0"`

	// StartsAt + длительность + отдых; комната занята до этого момента.
	BlockedUntil time.Time `gorm:"not null"`

	ClientAlias string `gorm:"type:varchar(255);not null;default:''"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`

	// Загружаются и сохраняются репозиторием явно.
	Upgrades []BookingUpgrade `gorm:"-"`
}

func (b *Booking) BeforeCreate(*gorm.DB) error { ensureID(&b.ID); return nil }

// Occupied — [StartsAt, StartsAt + duration + resting).
func (b *Booking) Occupied() calendar.TimeRange {
	return calendar.OccupiedRange(b.StartsAt, b.DurationMinutes, b.RestingMinutes)
}

// Billable — [StartsAt, StartsAt + duration), отдых в счёт не идёт.
func (b *Booking) Billable() calendar.TimeRange {
	return calendar.OccupiedRange(b.StartsAt, b.DurationMinutes, 0)
}

// booking_upgrades — опции бронирования с количеством.
type BookingUpgrade struct {
	BookingID uuid.UUID `gorm:"type:uuid;primaryKey"`
	UpgradeID uuid.UUID `gorm:"type:uuid;primaryKey;index"`
	Quantity  int       `gorm:"not null;default:1"`
}
