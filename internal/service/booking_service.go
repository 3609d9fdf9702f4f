package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Leganyst/studio-booking/internal/apperror"
	"github.com/Leganyst/studio-booking/internal/calendar"
	"github.com/Leganyst/studio-booking/internal/events"
	"github.com/Leganyst/studio-booking/internal/metrics"
	"github.com/Leganyst/studio-booking/internal/model"
	"github.com/Leganyst/studio-booking/internal/repository"
)

// BookingInput — данные для создания или изменения бронирования.
type BookingInput struct {
	RoomID            uuid.UUID
	ServiceProviderID uuid.UUID
	StartsAt          time.Time
	DurationMinutes   int
	RestingMinutes    int
	ClientAlias       string
	Upgrades          []model.BookingUpgrade
}

type BookingService struct {
	tx        repository.Transactor
	bookings  repository.BookingRepository
	rooms     repository.RoomRepository
	providers repository.ProviderRepository
	upgrades  repository.UpgradeRepository
	billings  repository.BillingRepository
	pricer    *Pricer
	publisher events.Publisher
	metrics   *metrics.Metrics
	log       logrus.FieldLogger
}

func NewBookingService(
	tx repository.Transactor,
	bookings repository.BookingRepository,
	rooms repository.RoomRepository,
	providers repository.ProviderRepository,
	upgrades repository.UpgradeRepository,
	billings repository.BillingRepository,
	pricer *Pricer,
	publisher events.Publisher,
	m *metrics.Metrics,
	log logrus.FieldLogger,
) *BookingService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &BookingService{
		tx:        tx,
		bookings:  bookings,
		rooms:     rooms,
		providers: providers,
		upgrades:  upgrades,
		billings:  billings,
		pricer:    pricer,
		publisher: publisher,
		metrics:   m,
		log:       log,
	}
}

// CheckAvailable проверяет, что комната свободна на [start, start+duration+resting).
// Строка комнаты блокируется до конца транзакции, поэтому проверка и последующая
// запись атомарны для конкурирующих запросов на ту же комнату.
func (s *BookingService) CheckAvailable(
	ctx context.Context,
	roomID uuid.UUID,
	start time.Time,
	durationMinutes, restingMinutes int,
	excludeBookingID *uuid.UUID,
) error {
	if err := validateLength(durationMinutes, restingMinutes); err != nil {
		return err
	}
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.rooms.Lock(ctx, roomID); err != nil {
			return err
		}
		return s.checkLocked(ctx, roomID, calendar.OccupiedRange(start.UTC(), durationMinutes, restingMinutes), excludeBookingID)
	})
}

func (s *BookingService) checkLocked(ctx context.Context, roomID uuid.UUID, occupied calendar.TimeRange, excludeID *uuid.UUID) error {
	overlapping, err := s.bookings.FindOverlapping(ctx, roomID, occupied, excludeID)
	if err != nil {
		return err
	}
	if len(overlapping) == 0 {
		return nil
	}
	ids := make([]string, 0, len(overlapping))
	for _, b := range overlapping {
		ids = append(ids, b.ID.String())
	}
	return apperror.Conflict("room %s is already booked between %s and %s",
		roomID, occupied.Start.Format(time.RFC3339), occupied.End.Format(time.RFC3339)).WithIDs(ids...)
}

func (s *BookingService) Create(ctx context.Context, in BookingInput) (b *model.Booking, err error) {
	ctx, span := startSpan(ctx, "BookingService.Create", attribute.String("room_id", in.RoomID.String()))
	defer func() { endSpan(span, err) }()

	upgrades, err := normalizeUpgrades(in.Upgrades)
	if err != nil {
		return nil, s.rejected(err)
	}
	if err := validateLength(in.DurationMinutes, in.RestingMinutes); err != nil {
		return nil, s.rejected(err)
	}

	b = &model.Booking{
		RoomID:            in.RoomID,
		ServiceProviderID: in.ServiceProviderID,
		StartsAt:          in.StartsAt.UTC(),
		DurationMinutes:   in.DurationMinutes,
		RestingMinutes:    in.RestingMinutes,
		ClientAlias:       strings.TrimSpace(in.ClientAlias),
		Upgrades:          upgrades,
	}
	b.BlockedUntil = b.Occupied().End

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.validateRefs(ctx, b); err != nil {
			return err
		}
		if err := s.checkLocked(ctx, b.RoomID, b.Occupied(), nil); err != nil {
			return err
		}
		return s.bookings.Create(ctx, b)
	})
	if err != nil {
		return nil, s.rejected(err)
	}

	if s.metrics != nil {
		s.metrics.BookingsCreated.Inc()
	}
	s.log.WithFields(logrus.Fields{
		"booking_id":  b.ID,
		"room_id":     b.RoomID,
		"provider_id": b.ServiceProviderID,
		"starts_at":   b.StartsAt,
	}).Info("booking created")
	s.publish(ctx, events.BookingCreated, b)
	return b, nil
}

func (s *BookingService) Update(ctx context.Context, id uuid.UUID, in BookingInput) (b *model.Booking, err error) {
	ctx, span := startSpan(ctx, "BookingService.Update", attribute.String("booking_id", id.String()))
	defer func() { endSpan(span, err) }()

	upgrades, err := normalizeUpgrades(in.Upgrades)
	if err != nil {
		return nil, s.rejected(err)
	}
	if err := validateLength(in.DurationMinutes, in.RestingMinutes); err != nil {
		return nil, s.rejected(err)
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.bookings.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := s.ensureNotBilled(ctx, id); err != nil {
			return err
		}

		current.RoomID = in.RoomID
		current.ServiceProviderID = in.ServiceProviderID
		current.StartsAt = in.StartsAt.UTC()
		current.DurationMinutes = in.DurationMinutes
		current.RestingMinutes = in.RestingMinutes
		current.ClientAlias = strings.TrimSpace(in.ClientAlias)
		current.Upgrades = upgrades
		current.BlockedUntil = current.Occupied().End

		if err := s.validateRefs(ctx, current); err != nil {
			return err
		}
		if err := s.checkLocked(ctx, current.RoomID, current.Occupied(), &current.ID); err != nil {
			return err
		}
		if err := s.bookings.Update(ctx, current); err != nil {
			return err
		}
		b = current
		return nil
	})
	if err != nil {
		return nil, s.rejected(err)
	}

	s.log.WithFields(logrus.Fields{"booking_id": b.ID, "room_id": b.RoomID}).Info("booking updated")
	s.publish(ctx, events.BookingUpdated, b)
	return b, nil
}

// Delete удаляет бронирование; выставленное в счёт удалить нельзя.
func (s *BookingService) Delete(ctx context.Context, id uuid.UUID) error {
	var deleted *model.Booking
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		b, err := s.bookings.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := s.ensureNotBilled(ctx, id); err != nil {
			return err
		}
		deleted = b
		return s.bookings.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.log.WithField("booking_id", id).Info("booking deleted")
	s.publish(ctx, events.BookingDeleted, deleted)
	return nil
}

func (s *BookingService) Get(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	return s.bookings.GetByID(ctx, id)
}

func (s *BookingService) List(ctx context.Context, f repository.BookingFilter) ([]model.Booking, error) {
	if f.From != nil && f.To != nil && !f.To.After(*f.From) {
		return nil, apperror.InvalidRange("to must be after from")
	}
	return s.bookings.List(ctx, f)
}

// Quote считает стоимость бронирования без выставления счёта.
func (s *BookingService) Quote(ctx context.Context, id uuid.UUID) (*BookingQuote, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.pricer.Price(ctx, b)
}

// FreeSlots возвращает начала в window, с которых бронирование длительностью
// durationMinutes (плюс отдых) не пересечётся с существующими.
// Возвращаемые интервалы содержат только оплачиваемую часть, без отдыха.
func (s *BookingService) FreeSlots(
	ctx context.Context,
	roomID uuid.UUID,
	window calendar.TimeRange,
	durationMinutes, restingMinutes int,
	step time.Duration,
) ([]calendar.TimeRange, error) {
	if err := validateLength(durationMinutes, restingMinutes); err != nil {
		return nil, err
	}
	if !window.End.After(window.Start) {
		return nil, apperror.InvalidRange("window end must be after start")
	}
	if step <= 0 {
		step = time.Duration(durationMinutes) * time.Minute
	}
	if _, err := s.rooms.GetByID(ctx, roomID); err != nil {
		return nil, err
	}

	window = calendar.TimeRange{Start: window.Start.UTC(), End: window.End.UTC()}
	existing, err := s.bookings.FindOverlapping(ctx, roomID, window, nil)
	if err != nil {
		return nil, err
	}
	busy := make([]calendar.TimeRange, 0, len(existing))
	for i := range existing {
		busy = append(busy, existing[i].Occupied())
	}

	length := time.Duration(durationMinutes+restingMinutes) * time.Minute
	starts, err := calendar.FreeStarts(window, length, step, busy)
	if err != nil {
		return nil, apperror.InvalidRange("%v", err)
	}
	slots := make([]calendar.TimeRange, 0, len(starts))
	for _, c := range starts {
		slots = append(slots, calendar.OccupiedRange(c.Start, durationMinutes, 0))
	}
	return slots, nil
}

// validateRefs: комната и провайдер активны и из одной локации, опции существуют и активны.
// Комната читается с блокировкой, что сериализует запись бронирований одной комнаты.
func (s *BookingService) validateRefs(ctx context.Context, b *model.Booking) error {
	room, err := s.rooms.Lock(ctx, b.RoomID)
	if err != nil {
		return err
	}
	if !room.Active {
		return apperror.Conflict("room %s is inactive", room.ID)
	}

	provider, err := s.providers.GetByID(ctx, b.ServiceProviderID)
	if err != nil {
		return err
	}
	if !provider.Active {
		return apperror.Conflict("service provider %s is inactive", provider.ID)
	}
	if provider.LocationID != room.LocationID {
		return apperror.Conflict("room and service provider belong to different locations")
	}

	if len(b.Upgrades) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(b.Upgrades))
	for _, u := range b.Upgrades {
		ids = append(ids, u.UpgradeID)
	}
	found, err := s.upgrades.ListByIDs(ctx, ids)
	if err != nil {
		return err
	}
	byID := make(map[uuid.UUID]model.Upgrade, len(found))
	for _, u := range found {
		byID[u.ID] = u
	}
	for _, id := range ids {
		u, ok := byID[id]
		if !ok {
			return apperror.NotFound("upgrade", id.String())
		}
		if !u.Active {
			return apperror.Conflict("upgrade %s is inactive", id)
		}
	}
	return nil
}

func (s *BookingService) ensureNotBilled(ctx context.Context, id uuid.UUID) error {
	billed, err := s.billings.ExistsForBooking(ctx, id)
	if err != nil {
		return err
	}
	if billed {
		return apperror.AlreadyBilled(id.String())
	}
	return nil
}

func (s *BookingService) rejected(err error) error {
	if s.metrics != nil {
		reason := string(apperror.KindOf(err))
		if reason == "" {
			reason = "internal"
		}
		s.metrics.BookingsRejected.WithLabelValues(reason).Inc()
	}
	return err
}

// publish вызывается после коммита; сбой брокера не отменяет операцию.
func (s *BookingService) publish(ctx context.Context, key string, b *model.Booking) {
	payload := events.Booking{
		BookingID:         b.ID.String(),
		RoomID:            b.RoomID.String(),
		ServiceProviderID: b.ServiceProviderID.String(),
		StartsAt:          b.StartsAt,
		DurationMinutes:   b.DurationMinutes,
		RestingMinutes:    b.RestingMinutes,
	}
	if err := s.publisher.Publish(ctx, key, payload); err != nil {
		s.log.WithError(err).WithField("event", key).Warn("publish event failed")
	}
}

func validateLength(durationMinutes, restingMinutes int) error {
	if durationMinutes <= 0 {
		return apperror.InvalidRange("duration must be positive, got %d minutes", durationMinutes)
	}
	if restingMinutes < 0 {
		return apperror.InvalidRange("resting time must not be negative, got %d minutes", restingMinutes)
	}
	return nil
}

// normalizeUpgrades складывает количества повторяющихся опций и сортирует по ID.
func normalizeUpgrades(in []model.BookingUpgrade) ([]model.BookingUpgrade, error) {
	if len(in) == 0 {
		return nil, nil
	}
	qty := make(map[uuid.UUID]int, len(in))
	for _, u := range in {
		if u.Quantity < 1 {
			return nil, apperror.InvalidRange("upgrade %s: quantity must be at least 1", u.UpgradeID)
		}
		qty[u.UpgradeID] += u.Quantity
	}
	out := make([]model.BookingUpgrade, 0, len(qty))
	for id, q := range qty {
		out = append(out, model.BookingUpgrade{UpgradeID: id, Quantity: q})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpgradeID.String() < out[j].UpgradeID.String() })
	return out, nil
}
