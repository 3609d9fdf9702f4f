package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"

	"github.com/Leganyst/studio-booking/internal/apperror"
	"github.com/Leganyst/studio-booking/internal/calendar"
	"github.com/Leganyst/studio-booking/internal/events"
	"github.com/Leganyst/studio-booking/internal/metrics"
	"github.com/Leganyst/studio-booking/internal/model"
	"github.com/Leganyst/studio-booking/internal/pricing"
	"github.com/Leganyst/studio-booking/internal/repository"
)

type BillingService struct {
	tx        repository.Transactor
	bookings  repository.BookingRepository
	billings  repository.BillingRepository
	providers repository.ProviderRepository
	rooms     repository.RoomRepository
	locations repository.LocationRepository
	pricer    *Pricer
	publisher events.Publisher
	metrics   *metrics.Metrics
	log       logrus.FieldLogger
	now       func() time.Time
}

func NewBillingService(
	tx repository.Transactor,
	bookings repository.BookingRepository,
	billings repository.BillingRepository,
	providers repository.ProviderRepository,
	rooms repository.RoomRepository,
	locations repository.LocationRepository,
	pricer *Pricer,
	publisher events.Publisher,
	m *metrics.Metrics,
	log logrus.FieldLogger,
) *BillingService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &BillingService{
		tx:        tx,
		bookings:  bookings,
		billings:  billings,
		providers: providers,
		rooms:     rooms,
		locations: locations,
		pricer:    pricer,
		publisher: publisher,
		metrics:   m,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateBillings выставляет по одному счёту на каждого провайдера среди bookingIDs.
// Всё или ничего: уже выставленное, вне периода или отсутствующее бронирование
// отменяет весь вызов.
func (s *BillingService) CreateBillings(
	ctx context.Context,
	bookingIDs []uuid.UUID,
	periodStart, periodEnd time.Time,
) (created []model.Billing, err error) {
	ctx, span := startSpan(ctx, "BillingService.CreateBillings", attribute.Int("bookings", len(bookingIDs)))
	defer func() { endSpan(span, err) }()

	period, err := billingPeriod(periodStart, periodEnd)
	if err != nil {
		return nil, err
	}
	ids := dedupeIDs(bookingIDs)
	if len(ids) == 0 {
		return nil, apperror.InvalidRange("at least one booking id is required")
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		bookings, err := s.loadBillable(ctx, ids, period)
		if err != nil {
			return err
		}
		created, err = s.bill(ctx, bookings, period)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.afterCreate(ctx, created)
	return created, nil
}

// CreateBillingsForPeriod выставляет счёт на все невыставленные бронирования провайдера за период.
// Если таких нет, возвращается пустой список.
func (s *BillingService) CreateBillingsForPeriod(
	ctx context.Context,
	providerID uuid.UUID,
	periodStart, periodEnd time.Time,
) (created []model.Billing, err error) {
	ctx, span := startSpan(ctx, "BillingService.CreateBillingsForPeriod", attribute.String("provider_id", providerID.String()))
	defer func() { endSpan(span, err) }()

	period, err := billingPeriod(periodStart, periodEnd)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.providers.GetByID(ctx, providerID); err != nil {
			return err
		}
		bookings, err := s.bookings.ListUnbilled(ctx, providerID, period.Start, period.End)
		if err != nil {
			return err
		}
		if len(bookings) == 0 {
			created = []model.Billing{}
			return nil
		}
		created, err = s.bill(ctx, bookings, period)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.afterCreate(ctx, created)
	return created, nil
}

// UnbilledBookings — бронирования провайдера с началом в периоде, ещё не попавшие в счёт.
func (s *BillingService) UnbilledBookings(ctx context.Context, providerID uuid.UUID, periodStart, periodEnd time.Time) ([]model.Booking, error) {
	period, err := billingPeriod(periodStart, periodEnd)
	if err != nil {
		return nil, err
	}
	if _, err := s.providers.GetByID(ctx, providerID); err != nil {
		return nil, err
	}
	return s.bookings.ListUnbilled(ctx, providerID, period.Start, period.End)
}

func (s *BillingService) GetAllBillings(ctx context.Context) ([]model.Billing, error) {
	return s.billings.List(ctx)
}

func (s *BillingService) GetBillingsByServiceProvider(ctx context.Context, providerID uuid.UUID) ([]model.Billing, error) {
	if _, err := s.providers.GetByID(ctx, providerID); err != nil {
		return nil, err
	}
	return s.billings.FindByProvider(ctx, providerID)
}

func (s *BillingService) GetBillingByID(ctx context.Context, id uuid.UUID) (*model.Billing, error) {
	return s.billings.FindByID(ctx, id)
}

func (s *BillingService) GetBillingItems(ctx context.Context, billingID uuid.UUID) ([]model.BillingItem, error) {
	if _, err := s.billings.FindByID(ctx, billingID); err != nil {
		return nil, err
	}
	return s.billings.ItemsByBilling(ctx, billingID)
}

// loadBillable загружает бронирования и проверяет, что их можно выставить в счёт.
func (s *BillingService) loadBillable(ctx context.Context, ids []uuid.UUID, period calendar.TimeRange) ([]model.Booking, error) {
	bookings, err := s.bookings.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	if len(bookings) != len(ids) {
		loaded := make(map[uuid.UUID]struct{}, len(bookings))
		for _, b := range bookings {
			loaded[b.ID] = struct{}{}
		}
		var missing []string
		for _, id := range ids {
			if _, ok := loaded[id]; !ok {
				missing = append(missing, id.String())
			}
		}
		return nil, apperror.New(apperror.KindNotFound, "bookings not found").WithIDs(missing...)
	}

	billed, err := s.billings.BilledBookingIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(billed) > 0 {
		out := make([]string, 0, len(billed))
		for _, id := range billed {
			out = append(out, id.String())
		}
		sort.Strings(out)
		return nil, apperror.AlreadyBilled(out...)
	}

	var outside []string
	for _, b := range bookings {
		if !period.Contains(b.StartsAt) {
			outside = append(outside, b.ID.String())
		}
	}
	if len(outside) > 0 {
		return nil, apperror.PeriodMismatch(outside...)
	}
	return bookings, nil
}

// bill группирует бронирования по провайдеру и сохраняет по счёту на группу.
func (s *BillingService) bill(ctx context.Context, bookings []model.Booking, period calendar.TimeRange) ([]model.Billing, error) {
	groups := make(map[uuid.UUID][]model.Booking)
	for _, b := range bookings {
		groups[b.ServiceProviderID] = append(groups[b.ServiceProviderID], b)
	}
	providerIDs := make([]uuid.UUID, 0, len(groups))
	for id := range groups {
		providerIDs = append(providerIDs, id)
	}
	sort.Slice(providerIDs, func(i, j int) bool { return providerIDs[i].String() < providerIDs[j].String() })

	labels := newSlotLabeler(s.rooms, s.locations)
	createdAt := s.now()
	created := make([]model.Billing, 0, len(groups))
	for _, providerID := range providerIDs {
		items := make([]model.BillingItem, 0, len(groups[providerID]))
		var total float64
		for i := range groups[providerID] {
			b := &groups[providerID][i]
			item, err := s.item(ctx, b, labels)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
			total += item.Amount
		}

		billing := &model.Billing{
			ServiceProviderID: providerID,
			PeriodStart:       period.Start,
			PeriodEnd:         period.End,
			TotalAmount:       pricing.RoundCents(total),
			CreatedAt:         createdAt,
		}
		if err := s.billings.Save(ctx, billing, items); err != nil {
			return nil, err
		}
		created = append(created, *billing)
	}
	return created, nil
}

func (s *BillingService) item(ctx context.Context, b *model.Booking, labels *slotLabeler) (model.BillingItem, error) {
	quote, err := s.pricer.Price(ctx, b)
	if err != nil {
		return model.BillingItem{}, fmt.Errorf("price booking %s: %w", b.ID, err)
	}
	breakdown, err := json.Marshal(quote)
	if err != nil {
		return model.BillingItem{}, fmt.Errorf("encode breakdown: %w", err)
	}
	desc, err := labels.label(ctx, b)
	if err != nil {
		return model.BillingItem{}, err
	}
	return model.BillingItem{
		BookingID:   b.ID,
		Amount:      quote.Total,
		Description: desc,
		Breakdown:   datatypes.JSON(breakdown),
	}, nil
}

func (s *BillingService) afterCreate(ctx context.Context, created []model.Billing) {
	for _, b := range created {
		if s.metrics != nil {
			s.metrics.BillingsCreated.Inc()
			s.metrics.BilledAmount.Add(b.TotalAmount)
		}
		s.log.WithFields(logrus.Fields{
			"billing_id":  b.ID,
			"provider_id": b.ServiceProviderID,
			"total":       b.TotalAmount,
		}).Info("billing created")

		payload := events.Billing{
			BillingID:         b.ID.String(),
			ServiceProviderID: b.ServiceProviderID.String(),
			PeriodStart:       b.PeriodStart,
			PeriodEnd:         b.PeriodEnd,
			TotalAmount:       b.TotalAmount,
		}
		if err := s.publisher.Publish(ctx, events.BillingCreated, payload); err != nil {
			s.log.WithError(err).WithField("event", events.BillingCreated).Warn("publish event failed")
		}
	}
}

func billingPeriod(start, end time.Time) (calendar.TimeRange, error) {
	if start.IsZero() || end.IsZero() || !end.After(start) {
		return calendar.TimeRange{}, apperror.InvalidRange("billing period end must be after its start")
	}
	return calendar.TimeRange{Start: start.UTC(), End: end.UTC()}, nil
}

func dedupeIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// slotLabeler подписывает бронирования именем комнаты и временем в поясе локации.
type slotLabeler struct {
	rooms     repository.RoomRepository
	locations repository.LocationRepository
	roomCache map[uuid.UUID]*model.Room
	locCache  map[uuid.UUID]*time.Location
}

func newSlotLabeler(rooms repository.RoomRepository, locations repository.LocationRepository) *slotLabeler {
	return &slotLabeler{
		rooms:     rooms,
		locations: locations,
		roomCache: map[uuid.UUID]*model.Room{},
		locCache:  map[uuid.UUID]*time.Location{},
	}
}

func (l *slotLabeler) room(ctx context.Context, id uuid.UUID) (*model.Room, *time.Location, error) {
	room, ok := l.roomCache[id]
	if !ok {
		r, err := l.rooms.GetByID(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		room = r
		l.roomCache[id] = room
	}
	loc, ok := l.locCache[room.LocationID]
	if !ok {
		location, err := l.locations.GetByID(ctx, room.LocationID)
		if err != nil {
			return nil, nil, err
		}
		loc = location.Loc()
		l.locCache[room.LocationID] = loc
	}
	return room, loc, nil
}

func (l *slotLabeler) label(ctx context.Context, b *model.Booking) (string, error) {
	room, loc, err := l.room(ctx, b.RoomID)
	if err != nil {
		return "", err
	}
	return room.Name + ", " + calendar.FormatSlot(b.Billable(), loc, false, ""), nil
}
