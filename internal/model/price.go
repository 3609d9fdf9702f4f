package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/studio-booking/internal/pricing"
)

// Price — одно окно действия цены комнаты или опции, без привязки к таблице.
// ValidTo == nil у открытого окна.
type Price struct {
	ID        uuid.UUID
	EntityID  uuid.UUID
	Amount    float64
	ValidFrom time.Time
	ValidTo   *time.Time
}

// Covers: t попадает в [ValidFrom, ValidTo).
func (p Price) Covers(t time.Time) bool {
	if t.Before(p.ValidFrom) {
		return false
	}
	return p.ValidTo == nil || t.Before(*p.ValidTo)
}

// room_prices
type RoomPrice struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	RoomID uuid.UUID `gorm:"type:uuid;not null;index:idx_room_prices_window,priority:1"`
	Amount float64   `gorm:"type:numeric(12,2);not null"`

	ValidFrom time.Time `gorm:"not null;index:idx_room_prices_window,priority:2"`
	ValidTo   *time.Time

	CreatedAt time.Time `gorm:"not null"`
}

func (p *RoomPrice) BeforeCreate(*gorm.DB) error { ensureID(&p.ID); return nil }

func (p RoomPrice) ToPrice() Price {
	return Price{ID: p.ID, EntityID: p.RoomID, Amount: p.Amount, ValidFrom: p.ValidFrom, ValidTo: p.ValidTo}
}

func RoomPriceFrom(p Price) RoomPrice {
	return RoomPrice{ID: p.ID, RoomID: p.EntityID, Amount: p.Amount, ValidFrom: p.ValidFrom, ValidTo: p.ValidTo}
}

// room_price_tiers — ступени длительности одной цены комнаты; пересоздаются целиком при изменении.
type RoomPriceTier struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	RoomPriceID uuid.UUID `gorm:"type:uuid;not null;index"`

	FromMinutes int  `gorm:"not null"`
	ToMinutes   *int `gorm:"type:integer"`

	PriceType string  `gorm:"type:varchar(16);not null"`
	Price     float64 `gorm:"type:numeric(12,2);not null"`
	SortOrder int     `gorm:"not null;default:0"`
}

func (t *RoomPriceTier) BeforeCreate(*gorm.DB) error { ensureID(&t.ID); return nil }

func (t RoomPriceTier) ToTier() pricing.Tier {
	return pricing.Tier{
		FromMinutes: t.FromMinutes,
		ToMinutes:   t.ToMinutes,
		Type:        pricing.PriceType(t.PriceType),
		Price:       t.Price,
	}
}

// upgrade_prices — та же временная шкала, что и у комнат, без ступеней.
type UpgradePrice struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	UpgradeID uuid.UUID `gorm:"type:uuid;not null;index:idx_upgrade_prices_window,priority:1"`
	Amount    float64   `gorm:"type:numeric(12,2);not null"`

	ValidFrom time.Time `gorm:"not null;index:idx_upgrade_prices_window,priority:2"`
	ValidTo   *time.Time

	CreatedAt time.Time `gorm:"not null"`
}

func (p *UpgradePrice) BeforeCreate(*gorm.DB) error { ensureID(&p.ID); return nil }

func (p UpgradePrice) ToPrice() Price {
	return Price{ID: p.ID, EntityID: p.UpgradeID, Amount: p.Amount, ValidFrom: p.ValidFrom, ValidTo: p.ValidTo}
}

func UpgradePriceFrom(p Price) UpgradePrice {
	return UpgradePrice{ID: p.ID, UpgradeID: p.EntityID, Amount: p.Amount, ValidFrom: p.ValidFrom, ValidTo: p.ValidTo}
}
