package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/studio-booking/internal/model"
)

type TierRepository interface {
	// FindByPrice возвращает ступени цены по возрастанию from_minutes.
	FindByPrice(ctx context.Context, roomPriceID uuid.UUID) ([]model.RoomPriceTier, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.RoomPriceTier, error)
	// ReplaceAll удаляет все ступени цены и вставляет переданные.
	ReplaceAll(ctx context.Context, roomPriceID uuid.UUID, tiers []model.RoomPriceTier) error
}

type GormTierRepository struct {
	db *gorm.DB
}

func NewGormTierRepository(db *gorm.DB) *GormTierRepository {
	return &GormTierRepository{db: db}
}

func (r *GormTierRepository) FindByPrice(ctx context.Context, roomPriceID uuid.UUID) ([]model.RoomPriceTier, error) {
	var tiers []model.RoomPriceTier
	err := conn(ctx, r.db).
		Where("room_price_id = ?", roomPriceID).
		Order("from_minutes ASC, sort_order ASC").
		Find(&tiers).Error
	if err != nil {
		return nil, err
	}
	return tiers, nil
}

func (r *GormTierRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.RoomPriceTier, error) {
	var t model.RoomPriceTier
	if err := conn(ctx, r.db).First(&t, "id = ?", id).Error; err != nil {
		return nil, translate(err, "tier", id.String())
	}
	return &t, nil
}

func (r *GormTierRepository) ReplaceAll(ctx context.Context, roomPriceID uuid.UUID, tiers []model.RoomPriceTier) error {
	db := conn(ctx, r.db)
	if err := db.Where("room_price_id = ?", roomPriceID).Delete(&model.RoomPriceTier{}).Error; err != nil {
		return err
	}
	if len(tiers) == 0 {
		return nil
	}
	for i := range tiers {
		tiers[i].RoomPriceID = roomPriceID
		tiers[i].SortOrder = i
	}
	return db.Create(&tiers).Error
}
