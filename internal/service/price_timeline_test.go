package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Leganyst/studio-booking/internal/apperror"
	"github.com/Leganyst/studio-booking/internal/events"
	"github.com/Leganyst/studio-booking/internal/model"
	"github.com/Leganyst/studio-booking/internal/pricing"
)

func TestPriceTimeline_SetNewPrice_ChainsHistory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	jan, err := env.roomPrices.SetNewPrice(ctx, env.room.ID, 40, date(2025, 1, 1))
	if err != nil {
		t.Fatalf("first price: %v", err)
	}
	feb, err := env.roomPrices.SetNewPrice(ctx, env.room.ID, 50, date(2025, 2, 1))
	if err != nil {
		t.Fatalf("second price: %v", err)
	}
	apr, err := env.roomPrices.SetNewPrice(ctx, env.room.ID, 60, date(2025, 4, 1))
	if err != nil {
		t.Fatalf("third price: %v", err)
	}

	history, err := env.roomPrices.History(ctx, env.room.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 prices, got %d", len(history))
	}
	// новые первыми
	if history[0].ID != apr.ID || history[1].ID != feb.ID || history[2].ID != jan.ID {
		t.Fatalf("unexpected order: %+v", history)
	}
	if history[0].ValidTo != nil {
		t.Fatalf("latest price must be open")
	}
	for i := 1; i < len(history); i++ {
		closed := history[i]
		if closed.ValidTo == nil || !closed.ValidTo.Equal(history[i-1].ValidFrom) {
			t.Fatalf("price %s must end where the next one starts, got %v", closed.ID, closed.ValidTo)
		}
	}

	current, err := env.roomPrices.Current(ctx, env.room.ID)
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if current.ID != apr.ID || current.Amount != 60 {
		t.Fatalf("current: %+v", current)
	}

	n := 0
	for _, k := range env.publisher.keys() {
		if k == events.PriceChanged {
			n++
		}
	}
	if n != 3 {
		t.Fatalf("expected 3 price events, got %d", n)
	}
}

func TestPriceTimeline_SetNewPrice_MustStartAfterOpenPrice(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	open, err := env.roomPrices.SetNewPrice(ctx, env.room.ID, 40, date(2025, 2, 1))
	if err != nil {
		t.Fatalf("first price: %v", err)
	}

	for _, from := range []time.Time{date(2025, 2, 1), date(2025, 1, 1)} {
		_, err := env.roomPrices.SetNewPrice(ctx, env.room.ID, 50, from)
		if !errors.Is(err, apperror.ErrInvalidRange) {
			t.Fatalf("valid_from %v: expected invalid range, got %v", from, err)
		}
		appErr, _ := apperror.As(err)
		if len(appErr.IDs) != 1 || appErr.IDs[0] != open.ID.String() {
			t.Fatalf("error must name the open price, got %v", appErr.IDs)
		}
	}

	history, err := env.roomPrices.History(ctx, env.room.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 || history[0].ValidTo != nil {
		t.Fatalf("rejected change must leave the open price untouched: %+v", history)
	}
}

func TestPriceTimeline_SetNewPrice_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.roomPrices.SetNewPrice(ctx, env.room.ID, -1, date(2025, 1, 1)); !errors.Is(err, apperror.ErrInvalidRange) {
		t.Fatalf("negative amount: %v", err)
	}
	if _, err := env.roomPrices.SetNewPrice(ctx, env.room.ID, 10, time.Time{}); !errors.Is(err, apperror.ErrInvalidRange) {
		t.Fatalf("zero valid_from: %v", err)
	}
	if _, err := env.roomPrices.SetNewPrice(ctx, uuid.New(), 10, date(2025, 1, 1)); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("unknown room: %v", err)
	}
}

func TestPriceTimeline_At(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	jan, _ := env.roomPrices.SetNewPrice(ctx, env.room.ID, 40, date(2025, 1, 1))
	feb, _ := env.roomPrices.SetNewPrice(ctx, env.room.ID, 50, date(2025, 2, 1))
	if jan == nil || feb == nil {
		t.Fatalf("setup failed")
	}

	cases := []struct {
		name string
		at   time.Time
		want uuid.UUID
	}{
		{"inside closed window", date(2025, 1, 15), jan.ID},
		{"closed window start", date(2025, 1, 1), jan.ID},
		{"boundary belongs to next", date(2025, 2, 1), feb.ID},
		{"open window", date(2026, 6, 1), feb.ID},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := env.roomPrices.At(ctx, env.room.ID, tc.at)
			if err != nil {
				t.Fatalf("at: %v", err)
			}
			if p.ID != tc.want {
				t.Fatalf("got price %s, want %s", p.ID, tc.want)
			}
		})
	}

	if _, err := env.roomPrices.At(ctx, env.room.ID, date(2024, 12, 31)); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("before first price: expected not found, got %v", err)
	}
}

func TestPriceTimeline_Upgrades(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	u := model.Upgrade{Name: "Backdrop"}
	if err := env.catalog.CreateUpgrade(ctx, &u); err != nil {
		t.Fatalf("create upgrade: %v", err)
	}
	if _, err := env.upgradePrices.SetNewPrice(ctx, u.ID, 5, date(2025, 1, 1)); err != nil {
		t.Fatalf("price: %v", err)
	}
	if _, err := env.upgradePrices.SetNewPrice(ctx, u.ID, 8, date(2025, 3, 1)); err != nil {
		t.Fatalf("price: %v", err)
	}
	p, err := env.upgradePrices.At(ctx, u.ID, date(2025, 2, 10))
	if err != nil || p.Amount != 5 {
		t.Fatalf("february upgrade price: %+v %v", p, err)
	}
}

func TestPricer_UsesPriceValidAtBookingStart(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.roomPrices.SetNewPrice(ctx, env.room.ID, 40, date(2025, 1, 1)); err != nil {
		t.Fatalf("price: %v", err)
	}
	light := model.Upgrade{Name: "Light"}
	if err := env.catalog.CreateUpgrade(ctx, &light); err != nil {
		t.Fatalf("create upgrade: %v", err)
	}
	if _, err := env.upgradePrices.SetNewPrice(ctx, light.ID, 5, date(2025, 1, 1)); err != nil {
		t.Fatalf("upgrade price: %v", err)
	}

	b, err := env.bookings.Create(ctx, BookingInput{
		RoomID:            env.room.ID,
		ServiceProviderID: env.provider.ID,
		StartsAt:          at(9, 0),
		DurationMinutes:   90,
		RestingMinutes:    30,
		Upgrades:          []model.BookingUpgrade{{UpgradeID: light.ID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	before, err := env.bookings.Quote(ctx, b.ID)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	// 90 минут по 40/ч = 60, плюс 2 × 5; отдых не оплачивается
	if before.Room.Total != 60 || before.Total != 70 {
		t.Fatalf("quote: room %v total %v", before.Room.Total, before.Total)
	}

	// новые цены после начала бронирования не влияют на его стоимость
	if _, err := env.roomPrices.SetNewPrice(ctx, env.room.ID, 100, at(9, 1)); err != nil {
		t.Fatalf("raise room price: %v", err)
	}
	if _, err := env.upgradePrices.SetNewPrice(ctx, light.ID, 50, date(2025, 4, 1)); err != nil {
		t.Fatalf("raise upgrade price: %v", err)
	}

	after, err := env.bookings.Quote(ctx, b.ID)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if after.Total != before.Total || *after.RoomPriceID != *before.RoomPriceID {
		t.Fatalf("historical quote changed: before %+v after %+v", before, after)
	}
}

func TestPricer_FallsBackToRoomHourlyRate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	b := env.book(t, at(9, 0), 45, 0)
	q, err := env.bookings.Quote(ctx, b.ID)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if q.RoomPriceID != nil || q.Total != 30 {
		t.Fatalf("expected 45 minutes at 40/h without price id, got %+v", q)
	}
}

func TestPricer_MissingUpgradePrice(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	u := model.Upgrade{Name: "Fog"}
	if err := env.catalog.CreateUpgrade(ctx, &u); err != nil {
		t.Fatalf("create upgrade: %v", err)
	}
	b, err := env.bookings.Create(ctx, BookingInput{
		RoomID:            env.room.ID,
		ServiceProviderID: env.provider.ID,
		StartsAt:          at(9, 0),
		DurationMinutes:   60,
		Upgrades:          []model.BookingUpgrade{{UpgradeID: u.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if _, err := env.bookings.Quote(ctx, b.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("expected not found for unpriced upgrade, got %v", err)
	}
}

func TestTierService_ReplaceAndQuote(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	price, err := env.roomPrices.SetNewPrice(ctx, env.room.ID, 40, date(2025, 1, 1))
	if err != nil {
		t.Fatalf("price: %v", err)
	}

	// подаются не по порядку, сервис сортирует
	tiers := []pricing.Tier{
		{FromMinutes: 60, Type: pricing.PriceTypeHourly, Price: 30},
		{FromMinutes: 0, ToMinutes: intPtr(60), Type: pricing.PriceTypeFixed, Price: 50},
	}
	rows, err := env.tiers.Create(ctx, price.ID, tiers)
	if err != nil {
		t.Fatalf("create tiers: %v", err)
	}
	if len(rows) != 2 || rows[0].FromMinutes != 0 {
		t.Fatalf("tiers must be sorted: %+v", rows)
	}

	b := env.book(t, at(9, 0), 90, 0)
	q, err := env.bookings.Quote(ctx, b.ID)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	// 50 за первый час и 30 минут по 30/ч
	if q.Total != 65 || len(q.Room.Lines) != 2 {
		t.Fatalf("quote: %+v", q.Room)
	}

	listed, err := env.tiers.List(ctx, price.ID)
	if err != nil || len(listed) != 2 {
		t.Fatalf("list: %v %v", listed, err)
	}

	_, err = env.tiers.Update(ctx, price.ID, []pricing.Tier{
		{FromMinutes: 0, ToMinutes: intPtr(60), Type: pricing.PriceTypeFixed, Price: 50},
		{FromMinutes: 90, Type: pricing.PriceTypeHourly, Price: 30},
	})
	if !errors.Is(err, apperror.ErrInvalidRange) {
		t.Fatalf("gap must be rejected, got %v", err)
	}
	if _, err := env.tiers.Update(ctx, price.ID, nil); !errors.Is(err, apperror.ErrInvalidRange) {
		t.Fatalf("empty set must be rejected, got %v", err)
	}
}

func TestTierService_AcceptsAnyPriceTypeCase(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	price, err := env.roomPrices.SetNewPrice(ctx, env.room.ID, 40, date(2025, 1, 1))
	if err != nil {
		t.Fatalf("price: %v", err)
	}
	rows, err := env.tiers.Create(ctx, price.ID, []pricing.Tier{
		{FromMinutes: 0, ToMinutes: intPtr(60), Type: "fixed", Price: 50},
		{FromMinutes: 60, Type: "Hourly", Price: 30},
	})
	if err != nil {
		t.Fatalf("create tiers: %v", err)
	}
	if rows[0].PriceType != string(pricing.PriceTypeFixed) || rows[1].PriceType != string(pricing.PriceTypeHourly) {
		t.Fatalf("stored types must be canonical: %q %q", rows[0].PriceType, rows[1].PriceType)
	}

	cases := []struct {
		start time.Time
		dur   int
		want  float64
	}{
		{at(9, 0), 30, 50},
		{at(10, 0), 60, 50},
		{at(11, 0), 90, 65},
		{at(13, 0), 150, 95},
	}
	for _, tc := range cases {
		b := env.book(t, tc.start, tc.dur, 0)
		q, err := env.bookings.Quote(ctx, b.ID)
		if err != nil {
			t.Fatalf("quote %d min: %v", tc.dur, err)
		}
		if q.Total != tc.want {
			t.Fatalf("quote %d min: expected %v, got %v", tc.dur, tc.want, q.Total)
		}
	}
}

func TestTierService_Delete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	price, err := env.roomPrices.SetNewPrice(ctx, env.room.ID, 40, date(2025, 1, 1))
	if err != nil {
		t.Fatalf("price: %v", err)
	}
	rows, err := env.tiers.Create(ctx, price.ID, []pricing.Tier{
		{FromMinutes: 0, ToMinutes: intPtr(60), Type: pricing.PriceTypeFixed, Price: 50},
		{FromMinutes: 60, ToMinutes: intPtr(120), Type: pricing.PriceTypeHourly, Price: 30},
		{FromMinutes: 120, Type: pricing.PriceTypeHourly, Price: 20},
	})
	if err != nil {
		t.Fatalf("create tiers: %v", err)
	}

	// удаление средней ступени оставило бы разрыв
	if err := env.tiers.Delete(ctx, price.ID, rows[1].ID); !errors.Is(err, apperror.ErrInvalidRange) {
		t.Fatalf("expected invalid range, got %v", err)
	}
	if err := env.tiers.Delete(ctx, price.ID, uuid.New()); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := env.tiers.Delete(ctx, price.ID, rows[2].ID); err != nil {
		t.Fatalf("delete last tier: %v", err)
	}

	left, err := env.tiers.List(ctx, price.ID)
	if err != nil || len(left) != 2 {
		t.Fatalf("expected 2 tiers left: %v %v", left, err)
	}
}

func TestTierService_ClosedPriceIsHistory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	old, err := env.roomPrices.SetNewPrice(ctx, env.room.ID, 40, date(2025, 1, 1))
	if err != nil {
		t.Fatalf("price: %v", err)
	}
	if _, err := env.roomPrices.SetNewPrice(ctx, env.room.ID, 45, date(2025, 2, 1)); err != nil {
		t.Fatalf("price: %v", err)
	}

	_, err = env.tiers.Create(ctx, old.ID, pricing.DefaultTiers(40))
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("expected conflict on closed price, got %v", err)
	}
}
