package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// billings — неизменяемый счёт провайдеру за период.
type Billing struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	ServiceProviderID uuid.UUID `gorm:"type:uuid;not null;index"`

	PeriodStart time.Time `gorm:"not null"`
	PeriodEnd   time.Time `gorm:"not null"`

	TotalAmount float64 `gorm:"type:numeric(12,2);not null"`

	CreatedAt time.Time `gorm:"not null;index"`
}

func (b *Billing) BeforeCreate(*gorm.DB) error { ensureID(&b.ID); return nil }

// billing_items — одна строка счёта на бронирование. Уникальный индекс по booking_id
// гарантирует, что бронирование попадает в счёт не более одного раза.
type BillingItem struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	BillingID uuid.UUID `gorm:"type:uuid;not null;index"`
	BookingID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`

	Amount      float64 `gorm:"type:numeric(12,2);not null"`
	Description string  `gorm:"type:text"`

	// Разбивка суммы по ступеням и опциям (JSON).
	Breakdown datatypes.JSON

	Billing *Billing `gorm:"foreignKey:BillingID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Booking *Booking `gorm:"foreignKey:BookingID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

func (i *BillingItem) BeforeCreate(*gorm.DB) error { ensureID(&i.ID); return nil }
