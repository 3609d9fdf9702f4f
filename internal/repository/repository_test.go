package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Leganyst/studio-booking/internal/apperror"
	"github.com/Leganyst/studio-booking/internal/calendar"
	appdb "github.com/Leganyst/studio-booking/internal/db"
	"github.com/Leganyst/studio-booking/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := appdb.GormConfig()
	cfg.Logger = gormlogger.Default.LogMode(gormlogger.Silent)
	db, err := gorm.Open(sqlite.Open(":memory:"), cfg)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// :memory: живёт в рамках одного соединения
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := model.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

type fixture struct {
	location model.Location
	room     model.Room
	provider model.ServiceProvider
}

func seed(t *testing.T, db *gorm.DB) fixture {
	t.Helper()
	f := fixture{location: model.Location{Name: "Main"}}
	if err := db.Create(&f.location).Error; err != nil {
		t.Fatalf("create location: %v", err)
	}
	f.room = model.Room{LocationID: f.location.ID, Name: "Studio A", HourlyRate: 40}
	if err := db.Create(&f.room).Error; err != nil {
		t.Fatalf("create room: %v", err)
	}
	f.provider = model.ServiceProvider{LocationID: f.location.ID, Name: "Anna"}
	if err := db.Create(&f.provider).Error; err != nil {
		t.Fatalf("create provider: %v", err)
	}
	return f
}

func at(h, m int) time.Time {
	return time.Date(2025, 3, 10, h, m, 0, 0, time.UTC)
}

func newBooking(f fixture, start time.Time, dur, rest int) *model.Booking {
	b := &model.Booking{
		RoomID:            f.room.ID,
		ServiceProviderID: f.provider.ID,
		StartsAt:          start,
		DurationMinutes:   dur,
		RestingMinutes:    rest,
	}
	b.BlockedUntil = b.Occupied().End
	return b
}

func TestBookingRepository_FindOverlapping(t *testing.T) {
	db := newTestDB(t)
	f := seed(t, db)
	repo := NewGormBookingRepository(db)
	ctx := context.Background()

	existing := newBooking(f, at(9, 0), 60, 15) // занято 09:00–10:15
	if err := repo.Create(ctx, existing); err != nil {
		t.Fatalf("create: %v", err)
	}

	cases := []struct {
		name  string
		tr    calendar.TimeRange
		count int
	}{
		{"touching after resting", calendar.TimeRange{Start: at(10, 15), End: at(11, 0)}, 0},
		{"touching before", calendar.TimeRange{Start: at(8, 0), End: at(9, 0)}, 0},
		{"inside resting", calendar.TimeRange{Start: at(10, 0), End: at(10, 30)}, 1},
		{"covering", calendar.TimeRange{Start: at(8, 0), End: at(12, 0)}, 1},
	}
	for _, tc := range cases {
		got, err := repo.FindOverlapping(ctx, f.room.ID, tc.tr, nil)
		if err != nil {
			t.Fatalf("%s: find: %v", tc.name, err)
		}
		if len(got) != tc.count {
			t.Fatalf("%s: expected %d overlaps, got %d", tc.name, tc.count, len(got))
		}
	}

	got, err := repo.FindOverlapping(ctx, f.room.ID, calendar.TimeRange{Start: at(9, 30), End: at(10, 0)}, &existing.ID)
	if err != nil {
		t.Fatalf("find with exclude: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("excluded booking must not be reported, got %d", len(got))
	}

	got, err = repo.FindOverlapping(ctx, uuid.New(), calendar.TimeRange{Start: at(9, 30), End: at(10, 0)}, nil)
	if err != nil {
		t.Fatalf("find other room: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("other room must be free, got %d", len(got))
	}
}

func TestTimeColumns_ReadBackAsInstants(t *testing.T) {
	db := newTestDB(t)
	f := seed(t, db)
	bookings := NewGormBookingRepository(db)
	billings := NewGormBillingRepository(db)
	ctx := context.Background()

	// не-UTC вход должен вернуться тем же моментом
	msk := time.FixedZone("MSK", 3*60*60)
	start := time.Date(2025, 3, 10, 12, 15, 0, 0, msk)
	b := newBooking(f, start, 45, 15)
	if err := bookings.Create(ctx, b); err != nil {
		t.Fatalf("create booking: %v", err)
	}
	got, err := bookings.GetByID(ctx, b.ID)
	if err != nil {
		t.Fatalf("get booking: %v", err)
	}
	if !got.StartsAt.Equal(start) || !got.BlockedUntil.Equal(start.Add(time.Hour)) {
		t.Fatalf("booking times: starts %v, blocked until %v", got.StartsAt, got.BlockedUntil)
	}

	bill := &model.Billing{ServiceProviderID: f.provider.ID, PeriodStart: at(0, 0), PeriodEnd: at(23, 0), TotalAmount: 30}
	if err := billings.Save(ctx, bill, []model.BillingItem{{BookingID: b.ID, Amount: 30}}); err != nil {
		t.Fatalf("save billing: %v", err)
	}
	readBill, err := billings.FindByID(ctx, bill.ID)
	if err != nil {
		t.Fatalf("find billing: %v", err)
	}
	if !readBill.PeriodStart.Equal(at(0, 0)) || !readBill.PeriodEnd.Equal(at(23, 0)) {
		t.Fatalf("billing period: %v - %v", readBill.PeriodStart, readBill.PeriodEnd)
	}
}

func TestBookingRepository_UpgradesRoundTrip(t *testing.T) {
	db := newTestDB(t)
	f := seed(t, db)
	repo := NewGormBookingRepository(db)
	ctx := context.Background()

	u1 := model.Upgrade{Name: "Light"}
	u2 := model.Upgrade{Name: "Backdrop"}
	if err := db.Create(&u1).Error; err != nil {
		t.Fatalf("create upgrade: %v", err)
	}
	if err := db.Create(&u2).Error; err != nil {
		t.Fatalf("create upgrade: %v", err)
	}

	b := newBooking(f, at(12, 0), 90, 0)
	b.Upgrades = []model.BookingUpgrade{{UpgradeID: u1.ID, Quantity: 2}}
	if err := repo.Create(ctx, b); err != nil {
		t.Fatalf("create: %v", err)
	}

	loaded, err := repo.GetByID(ctx, b.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(loaded.Upgrades) != 1 || loaded.Upgrades[0].Quantity != 2 {
		t.Fatalf("unexpected upgrades: %+v", loaded.Upgrades)
	}

	loaded.Upgrades = []model.BookingUpgrade{{UpgradeID: u2.ID, Quantity: 1}}
	loaded.ClientAlias = "band"
	if err := repo.Update(ctx, loaded); err != nil {
		t.Fatalf("update: %v", err)
	}

	again, err := repo.GetByID(ctx, b.ID)
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if len(again.Upgrades) != 1 || again.Upgrades[0].UpgradeID != u2.ID {
		t.Fatalf("upgrades were not replaced: %+v", again.Upgrades)
	}
	if again.ClientAlias != "band" {
		t.Fatalf("client alias = %q", again.ClientAlias)
	}

	if err := repo.Delete(ctx, b.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, b.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if err := repo.Delete(ctx, b.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestBookingRepository_ListUnbilled(t *testing.T) {
	db := newTestDB(t)
	f := seed(t, db)
	repo := NewGormBookingRepository(db)
	billings := NewGormBillingRepository(db)
	ctx := context.Background()

	b1 := newBooking(f, at(9, 0), 60, 0)
	b2 := newBooking(f, at(11, 0), 60, 0)
	outside := newBooking(f, at(9, 0).AddDate(0, 1, 0), 60, 0)
	for _, b := range []*model.Booking{b1, b2, outside} {
		if err := repo.Create(ctx, b); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	bill := &model.Billing{ServiceProviderID: f.provider.ID, PeriodStart: at(0, 0), PeriodEnd: at(23, 0), TotalAmount: 40}
	if err := billings.Save(ctx, bill, []model.BillingItem{{BookingID: b1.ID, Amount: 40}}); err != nil {
		t.Fatalf("save billing: %v", err)
	}

	got, err := repo.ListUnbilled(ctx, f.provider.ID, at(0, 0), at(23, 0))
	if err != nil {
		t.Fatalf("list unbilled: %v", err)
	}
	if len(got) != 1 || got[0].ID != b2.ID {
		t.Fatalf("expected only %s, got %+v", b2.ID, got)
	}

	n, err := repo.CountByProvider(ctx, f.provider.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 3 {
		t.Fatalf("count by provider = %d, want 3", n)
	}
}

func TestPriceRepository_Timeline(t *testing.T) {
	db := newTestDB(t)
	f := seed(t, db)
	repo := NewGormRoomPriceRepository(db)
	ctx := context.Background()

	jan := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	if _, err := repo.FindOpen(ctx, f.room.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("expected not found before first price, got %v", err)
	}

	first := &model.Price{EntityID: f.room.ID, Amount: 40, ValidFrom: jan}
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("create: %v", err)
	}
	if first.ID == uuid.Nil {
		t.Fatalf("id must be assigned on create")
	}
	if err := repo.Close(ctx, first.ID, feb); err != nil {
		t.Fatalf("close: %v", err)
	}
	second := &model.Price{EntityID: f.room.ID, Amount: 55, ValidFrom: feb}
	if err := repo.Create(ctx, second); err != nil {
		t.Fatalf("create second: %v", err)
	}

	open, err := repo.FindOpen(ctx, f.room.ID)
	if err != nil {
		t.Fatalf("find open: %v", err)
	}
	if open.ID != second.ID {
		t.Fatalf("open price = %s, want %s", open.ID, second.ID)
	}

	mid := jan.Add(10 * 24 * time.Hour)
	p, err := repo.FindAt(ctx, f.room.ID, mid)
	if err != nil {
		t.Fatalf("find at: %v", err)
	}
	if p.Amount != 40 {
		t.Fatalf("price in january = %v, want 40", p.Amount)
	}
	p, err = repo.FindAt(ctx, f.room.ID, feb)
	if err != nil {
		t.Fatalf("find at boundary: %v", err)
	}
	if p.Amount != 55 {
		t.Fatalf("price at boundary = %v, want 55", p.Amount)
	}
	if _, err := repo.FindAt(ctx, f.room.ID, jan.Add(-time.Hour)); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("expected not found before first window, got %v", err)
	}

	history, err := repo.FindHistory(ctx, f.room.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 || history[0].ID != second.ID || history[1].ValidTo == nil || !history[1].ValidTo.Equal(feb) {
		t.Fatalf("unexpected history: %+v", history)
	}

	if err := repo.Close(ctx, first.ID, feb); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("closing a closed price must fail with not found, got %v", err)
	}
}

func TestTierRepository_ReplaceAll(t *testing.T) {
	db := newTestDB(t)
	f := seed(t, db)
	prices := NewGormRoomPriceRepository(db)
	tiers := NewGormTierRepository(db)
	ctx := context.Background()

	price := &model.Price{EntityID: f.room.ID, Amount: 0, ValidFrom: at(0, 0)}
	if err := prices.Create(ctx, price); err != nil {
		t.Fatalf("create price: %v", err)
	}

	sixty := 60
	first := []model.RoomPriceTier{
		{FromMinutes: 60, PriceType: "HOURLY", Price: 30},
		{FromMinutes: 0, ToMinutes: &sixty, PriceType: "FIXED", Price: 50},
	}
	if err := tiers.ReplaceAll(ctx, price.ID, first); err != nil {
		t.Fatalf("replace: %v", err)
	}
	got, err := tiers.FindByPrice(ctx, price.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(got) != 2 || got[0].FromMinutes != 0 || got[1].FromMinutes != 60 {
		t.Fatalf("tiers must come back ordered by from_minutes: %+v", got)
	}

	if err := tiers.ReplaceAll(ctx, price.ID, []model.RoomPriceTier{{FromMinutes: 0, PriceType: "HOURLY", Price: 35}}); err != nil {
		t.Fatalf("replace again: %v", err)
	}
	got, err = tiers.FindByPrice(ctx, price.ID)
	if err != nil {
		t.Fatalf("find again: %v", err)
	}
	if len(got) != 1 || got[0].Price != 35 {
		t.Fatalf("old tiers must be gone: %+v", got)
	}
}

func TestBillingRepository_SaveTwiceIsAlreadyBilled(t *testing.T) {
	db := newTestDB(t)
	f := seed(t, db)
	bookings := NewGormBookingRepository(db)
	repo := NewGormBillingRepository(db)
	ctx := context.Background()

	b := newBooking(f, at(9, 0), 60, 0)
	if err := bookings.Create(ctx, b); err != nil {
		t.Fatalf("create booking: %v", err)
	}

	first := &model.Billing{ServiceProviderID: f.provider.ID, PeriodStart: at(0, 0), PeriodEnd: at(23, 0), TotalAmount: 40}
	if err := repo.Save(ctx, first, []model.BillingItem{{BookingID: b.ID, Amount: 40}}); err != nil {
		t.Fatalf("save: %v", err)
	}

	exists, err := repo.ExistsForBooking(ctx, b.ID)
	if err != nil || !exists {
		t.Fatalf("exists = %v, err = %v", exists, err)
	}

	second := &model.Billing{ServiceProviderID: f.provider.ID, PeriodStart: at(0, 0), PeriodEnd: at(23, 0), TotalAmount: 40}
	err = repo.Save(ctx, second, []model.BillingItem{{BookingID: b.ID, Amount: 40}})
	if !errors.Is(err, apperror.ErrAlreadyBilled) {
		t.Fatalf("expected already billed, got %v", err)
	}

	items, err := repo.ItemsByBilling(ctx, first.ID)
	if err != nil {
		t.Fatalf("items: %v", err)
	}
	if len(items) != 1 || items[0].Booking == nil || items[0].Booking.ID != b.ID {
		t.Fatalf("unexpected items: %+v", items)
	}

	byProvider, err := repo.FindByProvider(ctx, f.provider.ID)
	if err != nil {
		t.Fatalf("by provider: %v", err)
	}
	if len(byProvider) < 1 {
		t.Fatalf("expected at least one billing for provider")
	}
}

func TestRoomRepository_NameTakenIgnoresCase(t *testing.T) {
	db := newTestDB(t)
	f := seed(t, db)
	repo := NewGormRoomRepository(db)
	ctx := context.Background()

	taken, err := repo.NameTaken(ctx, f.location.ID, "  studio a ", nil)
	if err != nil {
		t.Fatalf("name taken: %v", err)
	}
	if !taken {
		t.Fatalf("expected case-insensitive match")
	}

	taken, err = repo.NameTaken(ctx, f.location.ID, "Studio A", &f.room.ID)
	if err != nil {
		t.Fatalf("name taken with exclude: %v", err)
	}
	if taken {
		t.Fatalf("room must not collide with itself")
	}

	if err := repo.Deactivate(ctx, f.room.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	active, err := repo.ListByLocation(ctx, f.location.ID, true)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("deactivated room must not be listed as active")
	}
}

func TestGormTransactor_RollsBackOnError(t *testing.T) {
	db := newTestDB(t)
	f := seed(t, db)
	tx := NewGormTransactor(db, nil)
	repo := NewGormBookingRepository(db)
	ctx := context.Background()

	boom := errors.New("boom")
	err := tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := repo.Create(ctx, newBooking(f, at(9, 0), 60, 0)); err != nil {
			return err
		}
		// вложенный вызов присоединяется к внешней транзакции
		return tx.WithinTx(ctx, func(context.Context) error { return boom })
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	n, err := repo.CountByRoom(ctx, f.room.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("booking must be rolled back, found %d", n)
	}
}
