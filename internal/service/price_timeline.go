package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/Leganyst/studio-booking/internal/apperror"
	"github.com/Leganyst/studio-booking/internal/events"
	"github.com/Leganyst/studio-booking/internal/metrics"
	"github.com/Leganyst/studio-booking/internal/model"
	"github.com/Leganyst/studio-booking/internal/repository"
)

// PriceTimeline ведёт цены одной сущности как последовательность окон [validFrom, validTo),
// из которых открыто не более одного. Один тип обслуживает и комнаты, и опции.
type PriceTimeline struct {
	entity    string // room | upgrade
	tx        repository.Transactor
	prices    repository.PriceRepository
	exists    func(ctx context.Context, id uuid.UUID) error
	publisher events.Publisher
	metrics   *metrics.Metrics
	log       logrus.FieldLogger
}

func NewRoomPriceTimeline(
	tx repository.Transactor,
	prices repository.PriceRepository,
	rooms repository.RoomRepository,
	publisher events.Publisher,
	m *metrics.Metrics,
	log logrus.FieldLogger,
) *PriceTimeline {
	return newPriceTimeline("room", tx, prices, func(ctx context.Context, id uuid.UUID) error {
		_, err := rooms.GetByID(ctx, id)
		return err
	}, publisher, m, log)
}

func NewUpgradePriceTimeline(
	tx repository.Transactor,
	prices repository.PriceRepository,
	upgrades repository.UpgradeRepository,
	publisher events.Publisher,
	m *metrics.Metrics,
	log logrus.FieldLogger,
) *PriceTimeline {
	return newPriceTimeline("upgrade", tx, prices, func(ctx context.Context, id uuid.UUID) error {
		_, err := upgrades.GetByID(ctx, id)
		return err
	}, publisher, m, log)
}

func newPriceTimeline(
	entity string,
	tx repository.Transactor,
	prices repository.PriceRepository,
	exists func(context.Context, uuid.UUID) error,
	publisher events.Publisher,
	m *metrics.Metrics,
	log logrus.FieldLogger,
) *PriceTimeline {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &PriceTimeline{
		entity:    entity,
		tx:        tx,
		prices:    prices,
		exists:    exists,
		publisher: publisher,
		metrics:   m,
		log:       log,
	}
}

// Current возвращает открытую цену.
func (t *PriceTimeline) Current(ctx context.Context, entityID uuid.UUID) (*model.Price, error) {
	if err := t.exists(ctx, entityID); err != nil {
		return nil, err
	}
	return t.prices.FindOpen(ctx, entityID)
}

// At возвращает цену, действовавшую в момент at.
func (t *PriceTimeline) At(ctx context.Context, entityID uuid.UUID, at time.Time) (*model.Price, error) {
	if err := t.exists(ctx, entityID); err != nil {
		return nil, err
	}
	return t.prices.FindAt(ctx, entityID, at.UTC())
}

// History отдаёт все цены, новые первыми; validTo каждой равна validFrom следующей по времени.
func (t *PriceTimeline) History(ctx context.Context, entityID uuid.UUID) ([]model.Price, error) {
	if err := t.exists(ctx, entityID); err != nil {
		return nil, err
	}
	return t.prices.FindHistory(ctx, entityID)
}

// SetNewPrice закрывает открытую цену моментом validFrom и открывает новую.
// validFrom должен быть строго позже начала открытой цены.
func (t *PriceTimeline) SetNewPrice(ctx context.Context, entityID uuid.UUID, amount float64, validFrom time.Time) (p *model.Price, err error) {
	ctx, span := startSpan(ctx, "PriceTimeline.SetNewPrice",
		attribute.String("entity", t.entity), attribute.String("entity_id", entityID.String()))
	defer func() { endSpan(span, err) }()

	if amount < 0 {
		return nil, apperror.InvalidRange("price must not be negative")
	}
	if validFrom.IsZero() {
		return nil, apperror.InvalidRange("valid_from is required")
	}
	validFrom = validFrom.UTC()

	err = t.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := t.exists(ctx, entityID); err != nil {
			return err
		}

		open, err := t.prices.FindOpen(ctx, entityID)
		switch {
		case errors.Is(err, apperror.ErrNotFound):
			// первая цена
		case err != nil:
			return err
		default:
			if !validFrom.After(open.ValidFrom) {
				return apperror.InvalidRange("new %s price must start after %s, the start of the current one",
					t.entity, open.ValidFrom.Format(time.RFC3339)).WithIDs(open.ID.String())
			}
			if err := t.prices.Close(ctx, open.ID, validFrom); err != nil {
				return err
			}
		}

		p = &model.Price{EntityID: entityID, Amount: amount, ValidFrom: validFrom}
		if err := t.prices.Create(ctx, p); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// параллельно открыли другую цену
				return apperror.Conflict("%s %s already has an open price", t.entity, entityID)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if t.metrics != nil {
		t.metrics.PricesSet.WithLabelValues(t.entity).Inc()
	}
	t.log.WithFields(logrus.Fields{
		"entity":     t.entity,
		"entity_id":  entityID,
		"price_id":   p.ID,
		"amount":     amount,
		"valid_from": validFrom,
	}).Info("price opened")

	payload := events.Price{
		Entity:    t.entity,
		EntityID:  entityID.String(),
		PriceID:   p.ID.String(),
		Amount:    p.Amount,
		ValidFrom: p.ValidFrom,
	}
	if err := t.publisher.Publish(ctx, events.PriceChanged, payload); err != nil {
		t.log.WithError(err).WithField("event", events.PriceChanged).Warn("publish event failed")
	}
	return p, nil
}
