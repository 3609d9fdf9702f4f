package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/studio-booking/internal/model"
)

// PriceRepository хранит временную шкалу цен одной сущности (комнаты или опции).
type PriceRepository interface {
	// FindOpen возвращает открытую цену (valid_to IS NULL) с блокировкой строки.
	FindOpen(ctx context.Context, entityID uuid.UUID) (*model.Price, error)
	// FindAt возвращает цену, действующую в момент t.
	FindAt(ctx context.Context, entityID uuid.UUID, t time.Time) (*model.Price, error)
	// FindHistory: все цены, новые первыми.
	FindHistory(ctx context.Context, entityID uuid.UUID) ([]model.Price, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Price, error)
	Create(ctx context.Context, p *model.Price) error
	Close(ctx context.Context, id uuid.UUID, validTo time.Time) error
}

type priceRow interface {
	model.RoomPrice | model.UpgradePrice
}

// GormPriceRepository — одна реализация для room_prices и upgrade_prices.
type GormPriceRepository[M priceRow] struct {
	db        *gorm.DB
	entity    string
	column    string
	toPrice   func(M) model.Price
	fromPrice func(model.Price) M
}

func NewGormRoomPriceRepository(db *gorm.DB) *GormPriceRepository[model.RoomPrice] {
	return &GormPriceRepository[model.RoomPrice]{
		db:        db,
		entity:    "room price",
		column:    "room_id",
		toPrice:   model.RoomPrice.ToPrice,
		fromPrice: model.RoomPriceFrom,
	}
}

func NewGormUpgradePriceRepository(db *gorm.DB) *GormPriceRepository[model.UpgradePrice] {
	return &GormPriceRepository[model.UpgradePrice]{
		db:        db,
		entity:    "upgrade price",
		column:    "upgrade_id",
		toPrice:   model.UpgradePrice.ToPrice,
		fromPrice: model.UpgradePriceFrom,
	}
}

func (r *GormPriceRepository[M]) FindOpen(ctx context.Context, entityID uuid.UUID) (*model.Price, error) {
	var row M
	err := forUpdate(conn(ctx, r.db)).
		Where(r.column+" = ? AND valid_to IS NULL", entityID).
		First(&row).Error
	if err != nil {
		return nil, translate(err, "open "+r.entity+" for", entityID.String())
	}
	p := r.toPrice(row)
	return &p, nil
}

func (r *GormPriceRepository[M]) FindAt(ctx context.Context, entityID uuid.UUID, t time.Time) (*model.Price, error) {
	var rows []M
	err := conn(ctx, r.db).
		Where(r.column+" = ?", entityID).
		Where("valid_from <= ? AND (valid_to IS NULL OR valid_to > ?)", t, t).
		Limit(2).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	switch len(rows) {
	case 0:
		return nil, translate(gorm.ErrRecordNotFound, r.entity+" for", fmt.Sprintf("%s at %s", entityID, t.Format(time.RFC3339)))
	case 1:
		p := r.toPrice(rows[0])
		return &p, nil
	default:
		// нарушен инвариант непересекающихся окон, это не ошибка пользователя
		return nil, fmt.Errorf("%s timeline of %s has overlapping windows at %s", r.entity, entityID, t.Format(time.RFC3339))
	}
}

func (r *GormPriceRepository[M]) FindHistory(ctx context.Context, entityID uuid.UUID) ([]model.Price, error) {
	var rows []M
	err := conn(ctx, r.db).
		Where(r.column+" = ?", entityID).
		Order("valid_from DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]model.Price, 0, len(rows))
	for _, row := range rows {
		out = append(out, r.toPrice(row))
	}
	return out, nil
}

func (r *GormPriceRepository[M]) GetByID(ctx context.Context, id uuid.UUID) (*model.Price, error) {
	var row M
	if err := conn(ctx, r.db).First(&row, "id = ?", id).Error; err != nil {
		return nil, translate(err, r.entity, id.String())
	}
	p := r.toPrice(row)
	return &p, nil
}

func (r *GormPriceRepository[M]) Create(ctx context.Context, p *model.Price) error {
	row := r.fromPrice(*p)
	if err := conn(ctx, r.db).Create(&row).Error; err != nil {
		return err
	}
	*p = r.toPrice(row)
	return nil
}

func (r *GormPriceRepository[M]) Close(ctx context.Context, id uuid.UUID, validTo time.Time) error {
	res := conn(ctx, r.db).Model(new(M)).
		Where("id = ? AND valid_to IS NULL", id).
		Update("valid_to", validTo)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "open "+r.entity, id.String())
	}
	return nil
}
