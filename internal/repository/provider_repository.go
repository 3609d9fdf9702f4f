package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/studio-booking/internal/model"
)

type ProviderRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.ServiceProvider, error)
	ListByLocation(ctx context.Context, locationID uuid.UUID, onlyActive bool) ([]model.ServiceProvider, error)
	NameTaken(ctx context.Context, locationID uuid.UUID, name string, excludeID *uuid.UUID) (bool, error)
	Create(ctx context.Context, p *model.ServiceProvider) error
	Update(ctx context.Context, p *model.ServiceProvider) error
	Deactivate(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type GormProviderRepository struct {
	db *gorm.DB
}

func NewGormProviderRepository(db *gorm.DB) *GormProviderRepository {
	return &GormProviderRepository{db: db}
}

func (r *GormProviderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ServiceProvider, error) {
	var p model.ServiceProvider
	if err := conn(ctx, r.db).First(&p, "id = ?", id).Error; err != nil {
		return nil, translate(err, "service provider", id.String())
	}
	return &p, nil
}

func (r *GormProviderRepository) ListByLocation(ctx context.Context, locationID uuid.UUID, onlyActive bool) ([]model.ServiceProvider, error) {
	q := conn(ctx, r.db).Where("location_id = ?", locationID)
	if onlyActive {
		q = q.Where("active = ?", true)
	}
	var providers []model.ServiceProvider
	if err := q.Order("sort_order ASC, name ASC").Find(&providers).Error; err != nil {
		return nil, err
	}
	return providers, nil
}

func (r *GormProviderRepository) NameTaken(ctx context.Context, locationID uuid.UUID, name string, excludeID *uuid.UUID) (bool, error) {
	return nameTaken(conn(ctx, r.db).Model(&model.ServiceProvider{}), locationID, name, excludeID)
}

func (r *GormProviderRepository) Create(ctx context.Context, p *model.ServiceProvider) error {
	return conn(ctx, r.db).Create(p).Error
}

func (r *GormProviderRepository) Update(ctx context.Context, p *model.ServiceProvider) error {
	res := conn(ctx, r.db).Model(&model.ServiceProvider{}).
		Where("id = ?", p.ID).
		Select("name", "active", "sort_order", "color", "updated_at").
		Updates(p)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "service provider", p.ID.String())
	}
	return nil
}

func (r *GormProviderRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	return deactivate(conn(ctx, r.db).Model(&model.ServiceProvider{}), "service provider", id)
}

func (r *GormProviderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := conn(ctx, r.db).Delete(&model.ServiceProvider{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "service provider", id.String())
	}
	return nil
}
