package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/studio-booking/internal/calendar"
	"github.com/Leganyst/studio-booking/internal/model"
)

// BookingFilter — фильтр списка бронирований; нулевые поля не ограничивают выборку.
type BookingFilter struct {
	RoomID     *uuid.UUID
	ProviderID *uuid.UUID
	From       *time.Time
	To         *time.Time
}

type BookingRepository interface {
	// Получить бронирование по ID вместе с опциями.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Booking, error)
	// Бронирования по списку ID; отсутствующие просто не попадают в результат.
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Booking, error)
	// Бронирования комнаты, занятый интервал которых пересекается с tr.
	FindOverlapping(ctx context.Context, roomID uuid.UUID, tr calendar.TimeRange, excludeID *uuid.UUID) ([]model.Booking, error)
	Create(ctx context.Context, b *model.Booking) error
	Update(ctx context.Context, b *model.Booking) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountByRoom(ctx context.Context, roomID uuid.UUID) (int64, error)
	CountByProvider(ctx context.Context, providerID uuid.UUID) (int64, error)
	List(ctx context.Context, f BookingFilter) ([]model.Booking, error)
	// Бронирования провайдера с началом в [from, to), ещё не попавшие ни в один счёт.
	ListUnbilled(ctx context.Context, providerID uuid.UUID, from, to time.Time) ([]model.Booking, error)
}

// Реализация на GORM.
type GormBookingRepository struct {
	db *gorm.DB
}

func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

func (r *GormBookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	var b model.Booking
	if err := conn(ctx, r.db).First(&b, "id = ?", id).Error; err != nil {
		return nil, translate(err, "booking", id.String())
	}
	bookings := []model.Booking{b}
	if err := r.attachUpgrades(ctx, bookings); err != nil {
		return nil, err
	}
	return &bookings[0], nil
}

func (r *GormBookingRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Booking, error) {
	if len(ids) == 0 {
		return []model.Booking{}, nil
	}
	var bookings []model.Booking
	if err := conn(ctx, r.db).Where("id IN ?", ids).Order("starts_at ASC").Find(&bookings).Error; err != nil {
		return nil, err
	}
	if err := r.attachUpgrades(ctx, bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *GormBookingRepository) FindOverlapping(
	ctx context.Context,
	roomID uuid.UUID,
	tr calendar.TimeRange,
	excludeID *uuid.UUID,
) ([]model.Booking, error) {
	q := conn(ctx, r.db).
		Model(&model.Booking{}).
		Where("room_id = ?", roomID).
		Where("starts_at < ? AND blocked_until > ?", tr.End, tr.Start) // полуоткрытое пересечение

	if excludeID != nil {
		q = q.Where("id <> ?", *excludeID)
	}

	var bookings []model.Booking
	if err := q.Order("starts_at ASC").Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *GormBookingRepository) Create(ctx context.Context, b *model.Booking) error {
	db := conn(ctx, r.db)
	if err := db.Create(b).Error; err != nil {
		return translateWrite(err)
	}
	return r.insertUpgrades(db, b)
}

func (r *GormBookingRepository) Update(ctx context.Context, b *model.Booking) error {
	db := conn(ctx, r.db)
	res := db.Model(&model.Booking{}).
		Where("id = ?", b.ID).
		Select("room_id", "service_provider_id", "starts_at", "duration_minutes",
			"resting_minutes", "blocked_until", "client_alias", "updated_at").
		Updates(b)
	if res.Error != nil {
		return translateWrite(res.Error)
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "booking", b.ID.String())
	}
	if err := db.Where("booking_id = ?", b.ID).Delete(&model.BookingUpgrade{}).Error; err != nil {
		return err
	}
	return r.insertUpgrades(db, b)
}

func (r *GormBookingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := conn(ctx, r.db)
	if err := db.Where("booking_id = ?", id).Delete(&model.BookingUpgrade{}).Error; err != nil {
		return err
	}
	res := db.Delete(&model.Booking{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "booking", id.String())
	}
	return nil
}

func (r *GormBookingRepository) CountByRoom(ctx context.Context, roomID uuid.UUID) (int64, error) {
	var n int64
	err := conn(ctx, r.db).Model(&model.Booking{}).Where("room_id = ?", roomID).Count(&n).Error
	return n, err
}

func (r *GormBookingRepository) CountByProvider(ctx context.Context, providerID uuid.UUID) (int64, error) {
	var n int64
	err := conn(ctx, r.db).Model(&model.Booking{}).Where("service_provider_id = ?", providerID).Count(&n).Error
	return n, err
}

func (r *GormBookingRepository) List(ctx context.Context, f BookingFilter) ([]model.Booking, error) {
	q := conn(ctx, r.db).Model(&model.Booking{})
	if f.RoomID != nil {
		q = q.Where("room_id = ?", *f.RoomID)
	}
	if f.ProviderID != nil {
		q = q.Where("service_provider_id = ?", *f.ProviderID)
	}
	if f.From != nil {
		q = q.Where("blocked_until > ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("starts_at < ?", *f.To)
	}

	var bookings []model.Booking
	if err := q.Order("starts_at ASC").Find(&bookings).Error; err != nil {
		return nil, err
	}
	if err := r.attachUpgrades(ctx, bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *GormBookingRepository) ListUnbilled(
	ctx context.Context,
	providerID uuid.UUID,
	from, to time.Time,
) ([]model.Booking, error) {
	var bookings []model.Booking
	err := conn(ctx, r.db).
		Model(&model.Booking{}).
		Where("service_provider_id = ?", providerID).
		Where("starts_at >= ? AND starts_at < ?", from, to).
		Where("NOT EXISTS (SELECT 1 FROM billing_items bi WHERE bi.booking_id = bookings.id)").
		Order("starts_at ASC").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	if err := r.attachUpgrades(ctx, bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *GormBookingRepository) insertUpgrades(db *gorm.DB, b *model.Booking) error {
	if len(b.Upgrades) == 0 {
		return nil
	}
	for i := range b.Upgrades {
		b.Upgrades[i].BookingID = b.ID
	}
	return db.Create(&b.Upgrades).Error
}

func (r *GormBookingRepository) attachUpgrades(ctx context.Context, bookings []model.Booking) error {
	if len(bookings) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(bookings))
	for _, b := range bookings {
		ids = append(ids, b.ID)
	}

	var rows []model.BookingUpgrade
	if err := conn(ctx, r.db).Where("booking_id IN ?", ids).Order("upgrade_id ASC").Find(&rows).Error; err != nil {
		return err
	}

	byBooking := make(map[uuid.UUID][]model.BookingUpgrade, len(bookings))
	for _, row := range rows {
		byBooking[row.BookingID] = append(byBooking[row.BookingID], row)
	}
	for i := range bookings {
		bookings[i].Upgrades = byBooking[bookings[i].ID]
	}
	return nil
}
