package events

import "time"

type Booking struct {
	BookingID         string    `json:"booking_id"`
	RoomID            string    `json:"room_id"`
	ServiceProviderID string    `json:"service_provider_id"`
	StartsAt          time.Time `json:"starts_at"`
	DurationMinutes   int       `json:"duration_minutes"`
	RestingMinutes    int       `json:"resting_minutes"`
}

type Billing struct {
	BillingID         string    `json:"billing_id"`
	ServiceProviderID string    `json:"service_provider_id"`
	PeriodStart       time.Time `json:"period_start"`
	PeriodEnd         time.Time `json:"period_end"`
	TotalAmount       float64   `json:"total_amount"`
}

type Price struct {
	Entity    string    `json:"entity"` // room | upgrade
	EntityID  string    `json:"entity_id"`
	PriceID   string    `json:"price_id"`
	Amount    float64   `json:"amount"`
	ValidFrom time.Time `json:"valid_from"`
}
