package httpapi

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/Leganyst/studio-booking/internal/calendar"
	"github.com/Leganyst/studio-booking/internal/model"
	"github.com/Leganyst/studio-booking/internal/pricing"
	"github.com/Leganyst/studio-booking/internal/service"
)

// ---- requests ----

type upgradeQuantity struct {
	UpgradeID uuid.UUID `json:"upgrade_id"`
	Quantity  int       `json:"quantity"`
}

type bookingRequest struct {
	RoomID            uuid.UUID         `json:"room_id"`
	ServiceProviderID uuid.UUID         `json:"service_provider_id"`
	StartsAt          time.Time         `json:"starts_at"`
	DurationMinutes   int               `json:"duration_minutes"`
	RestingMinutes    int               `json:"resting_minutes"`
	ClientAlias       string            `json:"client_alias"`
	Upgrades          []upgradeQuantity `json:"upgrades"`
}

func (r bookingRequest) input() service.BookingInput {
	in := service.BookingInput{
		RoomID:            r.RoomID,
		ServiceProviderID: r.ServiceProviderID,
		StartsAt:          r.StartsAt,
		DurationMinutes:   r.DurationMinutes,
		RestingMinutes:    r.RestingMinutes,
		ClientAlias:       r.ClientAlias,
	}
	for _, u := range r.Upgrades {
		in.Upgrades = append(in.Upgrades, model.BookingUpgrade{UpgradeID: u.UpgradeID, Quantity: u.Quantity})
	}
	return in
}

type priceRequest struct {
	Amount    float64   `json:"amount"`
	ValidFrom time.Time `json:"valid_from"`
}

type tierInput struct {
	FromMinutes int     `json:"from_minutes"`
	ToMinutes   *int    `json:"to_minutes"`
	PriceType   string  `json:"price_type"`
	Price       float64 `json:"price"`
}

type tiersRequest struct {
	Tiers []tierInput `json:"tiers"`
}

func (r tiersRequest) tiers() ([]pricing.Tier, error) {
	out := make([]pricing.Tier, 0, len(r.Tiers))
	for _, t := range r.Tiers {
		pt, err := pricing.ParsePriceType(t.PriceType)
		if err != nil {
			return nil, err
		}
		out = append(out, pricing.Tier{FromMinutes: t.FromMinutes, ToMinutes: t.ToMinutes, Type: pt, Price: t.Price})
	}
	return out, nil
}

type billingRequest struct {
	BookingIDs  []uuid.UUID `json:"booking_ids"`
	PeriodStart time.Time   `json:"period_start"`
	PeriodEnd   time.Time   `json:"period_end"`
}

type periodBillingRequest struct {
	ServiceProviderID uuid.UUID `json:"service_provider_id"`
	PeriodStart       time.Time `json:"period_start"`
	PeriodEnd         time.Time `json:"period_end"`
}

type locationRequest struct {
	Name     string `json:"name"`
	TimeZone string `json:"time_zone"`
}

type roomRequest struct {
	Name       string  `json:"name"`
	HourlyRate float64 `json:"hourly_rate"`
	Active     *bool   `json:"active"`
	SortOrder  int     `json:"sort_order"`
	Color      string  `json:"color"`
}

type providerRequest struct {
	Name      string `json:"name"`
	Active    *bool  `json:"active"`
	SortOrder int    `json:"sort_order"`
	Color     string `json:"color"`
}

type durationOptionRequest struct {
	Label       string `json:"label"`
	Minutes     *int   `json:"minutes"`
	MinMinutes  *int   `json:"min_minutes"`
	MaxMinutes  *int   `json:"max_minutes"`
	StepMinutes *int   `json:"step_minutes"`
	Active      *bool  `json:"active"`
	SortOrder   int    `json:"sort_order"`
}

type upgradeRequest struct {
	Name   string `json:"name"`
	Active *bool  `json:"active"`
}

// activeOr: отсутствующий флаг означает активную сущность.
func activeOr(v *bool) bool {
	return v == nil || *v
}

// ---- responses ----

type bookingResponse struct {
	ID                uuid.UUID         `json:"id"`
	RoomID            uuid.UUID         `json:"room_id"`
	ServiceProviderID uuid.UUID         `json:"service_provider_id"`
	StartsAt          time.Time         `json:"starts_at"`
	DurationMinutes   int               `json:"duration_minutes"`
	RestingMinutes    int               `json:"resting_minutes"`
	BlockedUntil      time.Time         `json:"blocked_until"`
	ClientAlias       string            `json:"client_alias"`
	Upgrades          []upgradeQuantity `json:"upgrades"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

func toBooking(b *model.Booking) bookingResponse {
	resp := bookingResponse{
		ID:                b.ID,
		RoomID:            b.RoomID,
		ServiceProviderID: b.ServiceProviderID,
		StartsAt:          b.StartsAt,
		DurationMinutes:   b.DurationMinutes,
		RestingMinutes:    b.RestingMinutes,
		BlockedUntil:      b.BlockedUntil,
		ClientAlias:       b.ClientAlias,
		Upgrades:          make([]upgradeQuantity, 0, len(b.Upgrades)),
		CreatedAt:         b.CreatedAt,
		UpdatedAt:         b.UpdatedAt,
	}
	for _, u := range b.Upgrades {
		resp.Upgrades = append(resp.Upgrades, upgradeQuantity{UpgradeID: u.UpgradeID, Quantity: u.Quantity})
	}
	return resp
}

type priceResponse struct {
	ID        uuid.UUID  `json:"id"`
	EntityID  uuid.UUID  `json:"entity_id"`
	Amount    float64    `json:"amount"`
	ValidFrom time.Time  `json:"valid_from"`
	ValidTo   *time.Time `json:"valid_to"`
}

func toPrice(p *model.Price) priceResponse {
	return priceResponse{ID: p.ID, EntityID: p.EntityID, Amount: p.Amount, ValidFrom: p.ValidFrom, ValidTo: p.ValidTo}
}

type tierResponse struct {
	ID          uuid.UUID `json:"id"`
	RoomPriceID uuid.UUID `json:"room_price_id"`
	FromMinutes int       `json:"from_minutes"`
	ToMinutes   *int      `json:"to_minutes"`
	PriceType   string    `json:"price_type"`
	Price       float64   `json:"price"`
	SortOrder   int       `json:"sort_order"`
}

func toTiers(rows []model.RoomPriceTier) []tierResponse {
	out := make([]tierResponse, 0, len(rows))
	for _, t := range rows {
		out = append(out, tierResponse{
			ID:          t.ID,
			RoomPriceID: t.RoomPriceID,
			FromMinutes: t.FromMinutes,
			ToMinutes:   t.ToMinutes,
			PriceType:   t.PriceType,
			Price:       t.Price,
			SortOrder:   t.SortOrder,
		})
	}
	return out
}

type billingResponse struct {
	ID                uuid.UUID `json:"id"`
	ServiceProviderID uuid.UUID `json:"service_provider_id"`
	PeriodStart       time.Time `json:"period_start"`
	PeriodEnd         time.Time `json:"period_end"`
	TotalAmount       float64   `json:"total_amount"`
	CreatedAt         time.Time `json:"created_at"`
}

func toBilling(b *model.Billing) billingResponse {
	return billingResponse{
		ID:                b.ID,
		ServiceProviderID: b.ServiceProviderID,
		PeriodStart:       b.PeriodStart,
		PeriodEnd:         b.PeriodEnd,
		TotalAmount:       b.TotalAmount,
		CreatedAt:         b.CreatedAt,
	}
}

type billingItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	BillingID   uuid.UUID       `json:"billing_id"`
	BookingID   uuid.UUID       `json:"booking_id"`
	Amount      float64         `json:"amount"`
	Description string          `json:"description"`
	Breakdown   json.RawMessage `json:"breakdown,omitempty"`
}

func toBillingItems(items []model.BillingItem) []billingItemResponse {
	out := make([]billingItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, billingItemResponse{
			ID:          it.ID,
			BillingID:   it.BillingID,
			BookingID:   it.BookingID,
			Amount:      it.Amount,
			Description: it.Description,
			Breakdown:   json.RawMessage(it.Breakdown),
		})
	}
	return out
}

type slotResponse struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func toSlots(ranges []calendar.TimeRange) []slotResponse {
	out := make([]slotResponse, 0, len(ranges))
	for _, r := range ranges {
		out = append(out, slotResponse{Start: r.Start, End: r.End})
	}
	return out
}

type locationResponse struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	TimeZone string    `json:"time_zone"`
}

func toLocation(l *model.Location) locationResponse {
	return locationResponse{ID: l.ID, Name: l.Name, TimeZone: l.TimeZone}
}

type roomResponse struct {
	ID         uuid.UUID `json:"id"`
	LocationID uuid.UUID `json:"location_id"`
	Name       string    `json:"name"`
	HourlyRate float64   `json:"hourly_rate"`
	Active     bool      `json:"active"`
	SortOrder  int       `json:"sort_order"`
	Color      string    `json:"color"`
}

func toRoom(r *model.Room) roomResponse {
	return roomResponse{
		ID:         r.ID,
		LocationID: r.LocationID,
		Name:       r.Name,
		HourlyRate: r.HourlyRate,
		Active:     r.Active,
		SortOrder:  r.SortOrder,
		Color:      r.Color,
	}
}

type providerResponse struct {
	ID         uuid.UUID `json:"id"`
	LocationID uuid.UUID `json:"location_id"`
	Name       string    `json:"name"`
	Active     bool      `json:"active"`
	SortOrder  int       `json:"sort_order"`
	Color      string    `json:"color"`
}

func toProvider(p *model.ServiceProvider) providerResponse {
	return providerResponse{
		ID:         p.ID,
		LocationID: p.LocationID,
		Name:       p.Name,
		Active:     p.Active,
		SortOrder:  p.SortOrder,
		Color:      p.Color,
	}
}

type durationOptionResponse struct {
	ID          uuid.UUID `json:"id"`
	LocationID  uuid.UUID `json:"location_id"`
	Label       string    `json:"label"`
	Minutes     *int      `json:"minutes,omitempty"`
	MinMinutes  *int      `json:"min_minutes,omitempty"`
	MaxMinutes  *int      `json:"max_minutes,omitempty"`
	StepMinutes *int      `json:"step_minutes,omitempty"`
	Active      bool      `json:"active"`
	SortOrder   int       `json:"sort_order"`
}

func toDurationOption(d *model.DurationOption) durationOptionResponse {
	return durationOptionResponse{
		ID:          d.ID,
		LocationID:  d.LocationID,
		Label:       d.Label,
		Minutes:     d.Minutes,
		MinMinutes:  d.MinMinutes,
		MaxMinutes:  d.MaxMinutes,
		StepMinutes: d.StepMinutes,
		Active:      d.Active,
		SortOrder:   d.SortOrder,
	}
}

type upgradeResponse struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Active bool      `json:"active"`
}

func toUpgrade(u *model.Upgrade) upgradeResponse {
	return upgradeResponse{ID: u.ID, Name: u.Name, Active: u.Active}
}

// mapSlice применяет преобразование к каждому элементу.
func mapSlice[T, R any](in []T, f func(*T) R) []R {
	out := make([]R, 0, len(in))
	for i := range in {
		out = append(out, f(&in[i]))
	}
	return out
}
