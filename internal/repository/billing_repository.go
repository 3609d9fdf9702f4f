package repository

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/studio-booking/internal/apperror"
	"github.com/Leganyst/studio-booking/internal/model"
)

type BillingRepository interface {
	ExistsForBooking(ctx context.Context, bookingID uuid.UUID) (bool, error)
	// BilledBookingIDs возвращает те из ids, что уже попали в счёт.
	BilledBookingIDs(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error)
	// Save сохраняет счёт и его строки; повторное выставление бронирования даёт AlreadyBilled.
	Save(ctx context.Context, billing *model.Billing, items []model.BillingItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Billing, error)
	FindByProvider(ctx context.Context, providerID uuid.UUID) ([]model.Billing, error)
	List(ctx context.Context) ([]model.Billing, error)
	ItemsByBilling(ctx context.Context, billingID uuid.UUID) ([]model.BillingItem, error)
}

type GormBillingRepository struct {
	db *gorm.DB
}

func NewGormBillingRepository(db *gorm.DB) *GormBillingRepository {
	return &GormBillingRepository{db: db}
}

func (r *GormBillingRepository) ExistsForBooking(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	var n int64
	if err := conn(ctx, r.db).Model(&model.BillingItem{}).Where("booking_id = ?", bookingID).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *GormBillingRepository) BilledBookingIDs(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var billed []uuid.UUID
	err := conn(ctx, r.db).
		Model(&model.BillingItem{}).
		Where("booking_id IN ?", ids).
		Pluck("booking_id", &billed).Error
	if err != nil {
		return nil, err
	}
	return billed, nil
}

func (r *GormBillingRepository) Save(ctx context.Context, billing *model.Billing, items []model.BillingItem) error {
	db := conn(ctx, r.db)
	if err := db.Create(billing).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].BillingID = billing.ID
	}
	if err := db.Omit("Billing", "Booking").Create(&items).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			ids := make([]string, 0, len(items))
			for _, it := range items {
				ids = append(ids, it.BookingID.String())
			}
			return apperror.AlreadyBilled(ids...)
		}
		return err
	}
	return nil
}

func (r *GormBillingRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Billing, error) {
	var b model.Billing
	if err := conn(ctx, r.db).First(&b, "id = ?", id).Error; err != nil {
		return nil, translate(err, "billing", id.String())
	}
	return &b, nil
}

func (r *GormBillingRepository) FindByProvider(ctx context.Context, providerID uuid.UUID) ([]model.Billing, error) {
	var billings []model.Billing
	err := conn(ctx, r.db).
		Where("service_provider_id = ?", providerID).
		Order("created_at DESC, period_start DESC").
		Find(&billings).Error
	if err != nil {
		return nil, err
	}
	return billings, nil
}

func (r *GormBillingRepository) List(ctx context.Context) ([]model.Billing, error) {
	var billings []model.Billing
	if err := conn(ctx, r.db).Order("created_at DESC, period_start DESC").Find(&billings).Error; err != nil {
		return nil, err
	}
	return billings, nil
}

func (r *GormBillingRepository) ItemsByBilling(ctx context.Context, billingID uuid.UUID) ([]model.BillingItem, error) {
	var items []model.BillingItem
	err := conn(ctx, r.db).
		Where("billing_id = ?", billingID).
		Preload("Booking").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	// строки счёта в порядке начала бронирований
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Booking == nil || items[j].Booking == nil {
			return false
		}
		return items[i].Booking.StartsAt.Before(items[j].Booking.StartsAt)
	})
	return items, nil
}
