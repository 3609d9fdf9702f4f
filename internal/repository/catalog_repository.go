package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/studio-booking/internal/model"
)

type LocationRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Location, error)
	List(ctx context.Context) ([]model.Location, error)
	Create(ctx context.Context, l *model.Location) error
	Update(ctx context.Context, l *model.Location) error
}

type GormLocationRepository struct {
	db *gorm.DB
}

func NewGormLocationRepository(db *gorm.DB) *GormLocationRepository {
	return &GormLocationRepository{db: db}
}

func (r *GormLocationRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Location, error) {
	var l model.Location
	if err := conn(ctx, r.db).First(&l, "id = ?", id).Error; err != nil {
		return nil, translate(err, "location", id.String())
	}
	return &l, nil
}

func (r *GormLocationRepository) List(ctx context.Context) ([]model.Location, error) {
	var locations []model.Location
	if err := conn(ctx, r.db).Order("name ASC").Find(&locations).Error; err != nil {
		return nil, err
	}
	return locations, nil
}

func (r *GormLocationRepository) Create(ctx context.Context, l *model.Location) error {
	return conn(ctx, r.db).Create(l).Error
}

func (r *GormLocationRepository) Update(ctx context.Context, l *model.Location) error {
	res := conn(ctx, r.db).Model(&model.Location{}).
		Where("id = ?", l.ID).
		Select("name", "time_zone", "updated_at").
		Updates(l)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "location", l.ID.String())
	}
	return nil
}

type UpgradeRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Upgrade, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Upgrade, error)
	List(ctx context.Context, onlyActive bool) ([]model.Upgrade, error)
	Create(ctx context.Context, u *model.Upgrade) error
	Update(ctx context.Context, u *model.Upgrade) error
	// CountBookings: сколько бронирований ссылается на опцию.
	CountBookings(ctx context.Context, id uuid.UUID) (int64, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type GormUpgradeRepository struct {
	db *gorm.DB
}

func NewGormUpgradeRepository(db *gorm.DB) *GormUpgradeRepository {
	return &GormUpgradeRepository{db: db}
}

func (r *GormUpgradeRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Upgrade, error) {
	var u model.Upgrade
	if err := conn(ctx, r.db).First(&u, "id = ?", id).Error; err != nil {
		return nil, translate(err, "upgrade", id.String())
	}
	return &u, nil
}

func (r *GormUpgradeRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Upgrade, error) {
	if len(ids) == 0 {
		return []model.Upgrade{}, nil
	}
	var upgrades []model.Upgrade
	if err := conn(ctx, r.db).Where("id IN ?", ids).Find(&upgrades).Error; err != nil {
		return nil, err
	}
	return upgrades, nil
}

func (r *GormUpgradeRepository) List(ctx context.Context, onlyActive bool) ([]model.Upgrade, error) {
	q := conn(ctx, r.db).Model(&model.Upgrade{})
	if onlyActive {
		q = q.Where("active = ?", true)
	}
	var upgrades []model.Upgrade
	if err := q.Order("name ASC").Find(&upgrades).Error; err != nil {
		return nil, err
	}
	return upgrades, nil
}

func (r *GormUpgradeRepository) Create(ctx context.Context, u *model.Upgrade) error {
	return conn(ctx, r.db).Create(u).Error
}

func (r *GormUpgradeRepository) Update(ctx context.Context, u *model.Upgrade) error {
	res := conn(ctx, r.db).Model(&model.Upgrade{}).
		Where("id = ?", u.ID).
		Select("name", "active", "updated_at").
		Updates(u)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "upgrade", u.ID.String())
	}
	return nil
}

func (r *GormUpgradeRepository) CountBookings(ctx context.Context, id uuid.UUID) (int64, error) {
	var n int64
	err := conn(ctx, r.db).Model(&model.BookingUpgrade{}).Where("upgrade_id = ?", id).Count(&n).Error
	return n, err
}

func (r *GormUpgradeRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	return deactivate(conn(ctx, r.db).Model(&model.Upgrade{}), "upgrade", id)
}

// Delete удаляет опцию вместе с её ценами; вызывается только без бронирований.
func (r *GormUpgradeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := conn(ctx, r.db)
	if err := db.Where("upgrade_id = ?", id).Delete(&model.UpgradePrice{}).Error; err != nil {
		return err
	}
	res := db.Delete(&model.Upgrade{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "upgrade", id.String())
	}
	return nil
}

type DurationOptionRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.DurationOption, error)
	ListByLocation(ctx context.Context, locationID uuid.UUID, onlyActive bool) ([]model.DurationOption, error)
	Create(ctx context.Context, d *model.DurationOption) error
	Update(ctx context.Context, d *model.DurationOption) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type GormDurationOptionRepository struct {
	db *gorm.DB
}

func NewGormDurationOptionRepository(db *gorm.DB) *GormDurationOptionRepository {
	return &GormDurationOptionRepository{db: db}
}

func (r *GormDurationOptionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.DurationOption, error) {
	var d model.DurationOption
	if err := conn(ctx, r.db).First(&d, "id = ?", id).Error; err != nil {
		return nil, translate(err, "duration option", id.String())
	}
	return &d, nil
}

func (r *GormDurationOptionRepository) ListByLocation(ctx context.Context, locationID uuid.UUID, onlyActive bool) ([]model.DurationOption, error) {
	q := conn(ctx, r.db).Where("location_id = ?", locationID)
	if onlyActive {
		q = q.Where("active = ?", true)
	}
	var opts []model.DurationOption
	if err := q.Order("sort_order ASC, label ASC").Find(&opts).Error; err != nil {
		return nil, err
	}
	return opts, nil
}

func (r *GormDurationOptionRepository) Create(ctx context.Context, d *model.DurationOption) error {
	return conn(ctx, r.db).Create(d).Error
}

func (r *GormDurationOptionRepository) Update(ctx context.Context, d *model.DurationOption) error {
	res := conn(ctx, r.db).Model(&model.DurationOption{}).
		Where("id = ?", d.ID).
		Select("minutes", "min_minutes", "max_minutes", "step_minutes", "label", "active", "sort_order", "updated_at").
		Updates(d)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "duration option", d.ID.String())
	}
	return nil
}

func (r *GormDurationOptionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := conn(ctx, r.db).Delete(&model.DurationOption{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "duration option", id.String())
	}
	return nil
}
