package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/Leganyst/studio-booking/internal/apperror"
	"github.com/Leganyst/studio-booking/internal/model"
	"github.com/Leganyst/studio-booking/internal/pricing"
	"github.com/Leganyst/studio-booking/internal/repository"
)

// UpgradeLine — вклад одной опции в стоимость бронирования.
type UpgradeLine struct {
	UpgradeID uuid.UUID `json:"upgrade_id"`
	PriceID   uuid.UUID `json:"price_id"`
	UnitPrice float64   `json:"unit_price"`
	Quantity  int       `json:"quantity"`
	Amount    float64   `json:"amount"`
}

// BookingQuote — стоимость бронирования по ценам, действовавшим в момент его начала.
type BookingQuote struct {
	BookingID   uuid.UUID     `json:"booking_id"`
	RoomPriceID *uuid.UUID    `json:"room_price_id,omitempty"`
	Room        pricing.Quote `json:"room"`
	Upgrades    []UpgradeLine `json:"upgrades"`
	Total       float64       `json:"total"`
}

// Pricer считает стоимость бронирования: ступени цены комнаты плюс опции.
// Оплачивается только длительность, время отдыха не входит.
type Pricer struct {
	rooms         repository.RoomRepository
	roomPrices    repository.PriceRepository
	tiers         repository.TierRepository
	upgradePrices repository.PriceRepository
}

func NewPricer(
	rooms repository.RoomRepository,
	roomPrices repository.PriceRepository,
	tiers repository.TierRepository,
	upgradePrices repository.PriceRepository,
) *Pricer {
	return &Pricer{
		rooms:         rooms,
		roomPrices:    roomPrices,
		tiers:         tiers,
		upgradePrices: upgradePrices,
	}
}

func (p *Pricer) Price(ctx context.Context, b *model.Booking) (*BookingQuote, error) {
	tiers, priceID, err := p.roomTiersAt(ctx, b)
	if err != nil {
		return nil, err
	}

	roomQuote, err := pricing.Calculate(b.DurationMinutes, tiers)
	if err != nil {
		return nil, err
	}

	q := &BookingQuote{
		BookingID:   b.ID,
		RoomPriceID: priceID,
		Room:        roomQuote,
		Upgrades:    make([]UpgradeLine, 0, len(b.Upgrades)),
	}
	total := roomQuote.Total
	for _, bu := range b.Upgrades {
		price, err := p.upgradePrices.FindAt(ctx, bu.UpgradeID, b.StartsAt)
		if err != nil {
			return nil, err
		}
		line := UpgradeLine{
			UpgradeID: bu.UpgradeID,
			PriceID:   price.ID,
			UnitPrice: price.Amount,
			Quantity:  bu.Quantity,
			Amount:    pricing.RoundCents(price.Amount * float64(bu.Quantity)),
		}
		q.Upgrades = append(q.Upgrades, line)
		total += line.Amount
	}
	q.Total = pricing.RoundCents(total)
	return q, nil
}

// roomTiersAt: ступени цены, действовавшей в момент начала. Без цены берётся почасовая
// ставка комнаты, у цены без ступеней сумма считается ставкой в час.
func (p *Pricer) roomTiersAt(ctx context.Context, b *model.Booking) ([]pricing.Tier, *uuid.UUID, error) {
	price, err := p.roomPrices.FindAt(ctx, b.RoomID, b.StartsAt)
	if errors.Is(err, apperror.ErrNotFound) {
		room, err := p.rooms.GetByID(ctx, b.RoomID)
		if err != nil {
			return nil, nil, err
		}
		return pricing.DefaultTiers(room.HourlyRate), nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	rows, err := p.tiers.FindByPrice(ctx, price.ID)
	if err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		return pricing.DefaultTiers(price.Amount), &price.ID, nil
	}
	tiers := make([]pricing.Tier, 0, len(rows))
	for _, r := range rows {
		tiers = append(tiers, r.ToTier())
	}
	return tiers, &price.ID, nil
}
