package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/studio-booking/internal/model"
)

type RoomRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Room, error)
	// Lock читает комнату с блокировкой строки до конца транзакции.
	Lock(ctx context.Context, id uuid.UUID) (*model.Room, error)
	ListByLocation(ctx context.Context, locationID uuid.UUID, onlyActive bool) ([]model.Room, error)
	// NameTaken проверяет уникальность имени в локации без учёта регистра.
	NameTaken(ctx context.Context, locationID uuid.UUID, name string, excludeID *uuid.UUID) (bool, error)
	Create(ctx context.Context, room *model.Room) error
	Update(ctx context.Context, room *model.Room) error
	Deactivate(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type GormRoomRepository struct {
	db *gorm.DB
}

func NewGormRoomRepository(db *gorm.DB) *GormRoomRepository {
	return &GormRoomRepository{db: db}
}

func (r *GormRoomRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Room, error) {
	var room model.Room
	if err := conn(ctx, r.db).First(&room, "id = ?", id).Error; err != nil {
		return nil, translate(err, "room", id.String())
	}
	return &room, nil
}

func (r *GormRoomRepository) Lock(ctx context.Context, id uuid.UUID) (*model.Room, error) {
	var room model.Room
	if err := forUpdate(conn(ctx, r.db)).First(&room, "id = ?", id).Error; err != nil {
		return nil, translate(err, "room", id.String())
	}
	return &room, nil
}

func (r *GormRoomRepository) ListByLocation(ctx context.Context, locationID uuid.UUID, onlyActive bool) ([]model.Room, error) {
	q := conn(ctx, r.db).Where("location_id = ?", locationID)
	if onlyActive {
		q = q.Where("active = ?", true)
	}
	var rooms []model.Room
	if err := q.Order("sort_order ASC, name ASC").Find(&rooms).Error; err != nil {
		return nil, err
	}
	return rooms, nil
}

func (r *GormRoomRepository) NameTaken(ctx context.Context, locationID uuid.UUID, name string, excludeID *uuid.UUID) (bool, error) {
	return nameTaken(conn(ctx, r.db).Model(&model.Room{}), locationID, name, excludeID)
}

func (r *GormRoomRepository) Create(ctx context.Context, room *model.Room) error {
	return conn(ctx, r.db).Create(room).Error
}

func (r *GormRoomRepository) Update(ctx context.Context, room *model.Room) error {
	res := conn(ctx, r.db).Model(&model.Room{}).
		Where("id = ?", room.ID).
		Select("name", "hourly_rate", "active", "sort_order", "color", "updated_at").
		Updates(room)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "room", room.ID.String())
	}
	return nil
}

func (r *GormRoomRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	return deactivate(conn(ctx, r.db).Model(&model.Room{}), "room", id)
}

// Delete удаляет комнату вместе с ценами и их ступенями; вызывается только без бронирований.
func (r *GormRoomRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := conn(ctx, r.db)
	priceIDs := db.Model(&model.RoomPrice{}).Select("id").Where("room_id = ?", id)
	if err := db.Where("room_price_id IN (?)", priceIDs).Delete(&model.RoomPriceTier{}).Error; err != nil {
		return err
	}
	if err := db.Where("room_id = ?", id).Delete(&model.RoomPrice{}).Error; err != nil {
		return err
	}
	res := db.Delete(&model.Room{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "room", id.String())
	}
	return nil
}

// nameTaken и deactivate общие для комнат и провайдеров: одинаковые колонки.
func nameTaken(q *gorm.DB, locationID uuid.UUID, name string, excludeID *uuid.UUID) (bool, error) {
	q = q.Where("location_id = ? AND LOWER(name) = ?", locationID, strings.ToLower(strings.TrimSpace(name)))
	if excludeID != nil {
		q = q.Where("id <> ?", *excludeID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func deactivate(q *gorm.DB, entity string, id uuid.UUID) error {
	res := q.Where("id = ?", id).Update("active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, entity, id.String())
	}
	return nil
}
