package service

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	appdb "github.com/Leganyst/studio-booking/internal/db"
	"github.com/Leganyst/studio-booking/internal/metrics"
	"github.com/Leganyst/studio-booking/internal/model"
	"github.com/Leganyst/studio-booking/internal/repository"
)

type recordedEvent struct {
	key     string
	payload any
}

// recordingPublisher запоминает опубликованные события.
type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *recordingPublisher) Publish(_ context.Context, key string, v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{key: key, payload: v})
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.key)
	}
	return out
}

type testEnv struct {
	db        *gorm.DB
	publisher *recordingPublisher
	metrics   *metrics.Metrics

	bookings      *BookingService
	billings      *BillingService
	roomPrices    *PriceTimeline
	upgradePrices *PriceTimeline
	tiers         *TierService
	catalog       *CatalogService
	export        *ExportService

	location model.Location
	room     model.Room
	provider model.ServiceProvider
}

func newTestEnv(t *testing.T) *testEnv {
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
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := model.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	log := logrus.New()
	log.SetOutput(io.Discard)

	tx := repository.NewGormTransactor(db, nil)
	bookingRepo := repository.NewGormBookingRepository(db)
	roomRepo := repository.NewGormRoomRepository(db)
	providerRepo := repository.NewGormProviderRepository(db)
	locationRepo := repository.NewGormLocationRepository(db)
	upgradeRepo := repository.NewGormUpgradeRepository(db)
	durationRepo := repository.NewGormDurationOptionRepository(db)
	billingRepo := repository.NewGormBillingRepository(db)
	roomPriceRepo := repository.NewGormRoomPriceRepository(db)
	upgradePriceRepo := repository.NewGormUpgradePriceRepository(db)
	tierRepo := repository.NewGormTierRepository(db)

	pub := &recordingPublisher{}
	m := metrics.New(prometheus.NewRegistry())
	pricer := NewPricer(roomRepo, roomPriceRepo, tierRepo, upgradePriceRepo)

	env := &testEnv{
		db:            db,
		publisher:     pub,
		metrics:       m,
		bookings:      NewBookingService(tx, bookingRepo, roomRepo, providerRepo, upgradeRepo, billingRepo, pricer, pub, m, log),
		billings:      NewBillingService(tx, bookingRepo, billingRepo, providerRepo, roomRepo, locationRepo, pricer, pub, m, log),
		roomPrices:    NewRoomPriceTimeline(tx, roomPriceRepo, roomRepo, pub, m, log),
		upgradePrices: NewUpgradePriceTimeline(tx, upgradePriceRepo, upgradeRepo, pub, m, log),
		tiers:         NewTierService(tx, roomPriceRepo, tierRepo, log),
		catalog:       NewCatalogService(tx, locationRepo, roomRepo, providerRepo, durationRepo, upgradeRepo, bookingRepo, log),
		export:        NewExportService(billingRepo, providerRepo, roomRepo, locationRepo, nil, time.Hour, log),
	}

	ctx := context.Background()
	env.location = model.Location{Name: "Main", TimeZone: "UTC"}
	if err := env.catalog.CreateLocation(ctx, &env.location); err != nil {
		t.Fatalf("create location: %v", err)
	}
	env.room = model.Room{LocationID: env.location.ID, Name: "Studio A", HourlyRate: 40, Active: true}
	if err := env.catalog.CreateRoom(ctx, &env.room); err != nil {
		t.Fatalf("create room: %v", err)
	}
	env.provider = model.ServiceProvider{LocationID: env.location.ID, Name: "Anna", Active: true}
	if err := env.catalog.CreateProvider(ctx, &env.provider); err != nil {
		t.Fatalf("create provider: %v", err)
	}
	return env
}

func (e *testEnv) addProvider(t *testing.T, name string) model.ServiceProvider {
	t.Helper()
	p := model.ServiceProvider{LocationID: e.location.ID, Name: name, Active: true}
	if err := e.catalog.CreateProvider(context.Background(), &p); err != nil {
		t.Fatalf("create provider %s: %v", name, err)
	}
	return p
}

func (e *testEnv) book(t *testing.T, start time.Time, dur, rest int) *model.Booking {
	t.Helper()
	b, err := e.bookings.Create(context.Background(), BookingInput{
		RoomID:            e.room.ID,
		ServiceProviderID: e.provider.ID,
		StartsAt:          start,
		DurationMinutes:   dur,
		RestingMinutes:    rest,
	})
	if err != nil {
		t.Fatalf("book %s: %v", start.Format(time.Kitchen), err)
	}
	return b
}

// at — время 10 марта 2025 года в UTC.
func at(h, m int) time.Time {
	return time.Date(2025, 3, 10, h, m, 0, 0, time.UTC)
}

func date(y int, mo time.Month, d int) time.Time {
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}

func intPtr(v int) *int { return &v }

func bookingFilterForRoom(roomID uuid.UUID) repository.BookingFilter {
	return repository.BookingFilter{RoomID: &roomID}
}
