package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Leganyst/studio-booking/internal/apperror"
	"github.com/Leganyst/studio-booking/internal/model"
	"github.com/Leganyst/studio-booking/internal/repository"
)

// CatalogService — администрирование локаций, комнат, провайдеров, длительностей и опций.
type CatalogService struct {
	tx        repository.Transactor
	locations repository.LocationRepository
	rooms     repository.RoomRepository
	providers repository.ProviderRepository
	durations repository.DurationOptionRepository
	upgrades  repository.UpgradeRepository
	bookings  repository.BookingRepository
	log       logrus.FieldLogger
}

func NewCatalogService(
	tx repository.Transactor,
	locations repository.LocationRepository,
	rooms repository.RoomRepository,
	providers repository.ProviderRepository,
	durations repository.DurationOptionRepository,
	upgrades repository.UpgradeRepository,
	bookings repository.BookingRepository,
	log logrus.FieldLogger,
) *CatalogService {
	return &CatalogService{
		tx:        tx,
		locations: locations,
		rooms:     rooms,
		providers: providers,
		durations: durations,
		upgrades:  upgrades,
		bookings:  bookings,
		log:       log,
	}
}

// DeleteResult сообщает, была ли сущность удалена или только деактивирована.
type DeleteResult struct {
	Deactivated bool `json:"deactivated"`
}

// --- locations ---

func (s *CatalogService) CreateLocation(ctx context.Context, l *model.Location) error {
	if err := validateLocation(l); err != nil {
		return err
	}
	return s.locations.Create(ctx, l)
}

func (s *CatalogService) UpdateLocation(ctx context.Context, l *model.Location) error {
	if err := validateLocation(l); err != nil {
		return err
	}
	return s.locations.Update(ctx, l)
}

func (s *CatalogService) GetLocation(ctx context.Context, id uuid.UUID) (*model.Location, error) {
	return s.locations.GetByID(ctx, id)
}

func (s *CatalogService) ListLocations(ctx context.Context) ([]model.Location, error) {
	return s.locations.List(ctx)
}

func validateLocation(l *model.Location) error {
	l.Name = strings.TrimSpace(l.Name)
	if l.Name == "" {
		return apperror.InvalidRange("location name must not be empty")
	}
	if l.TimeZone == "" {
		l.TimeZone = "UTC"
	}
	if _, err := time.LoadLocation(l.TimeZone); err != nil {
		return apperror.InvalidRange("unknown time zone %q", l.TimeZone)
	}
	return nil
}

// --- rooms ---

func (s *CatalogService) CreateRoom(ctx context.Context, r *model.Room) error {
	if err := validateNamed(&r.Name, r.HourlyRate); err != nil {
		return err
	}
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.locations.GetByID(ctx, r.LocationID); err != nil {
			return err
		}
		if err := s.uniqueRoomName(ctx, r.LocationID, r.Name, nil); err != nil {
			return err
		}
		return s.rooms.Create(ctx, r)
	})
}

// UpdateRoom меняет имя, ставку, активность и оформление; локация не меняется.
func (s *CatalogService) UpdateRoom(ctx context.Context, r *model.Room) error {
	if err := validateNamed(&r.Name, r.HourlyRate); err != nil {
		return err
	}
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.rooms.Lock(ctx, r.ID)
		if err != nil {
			return err
		}
		r.LocationID = current.LocationID
		if err := s.uniqueRoomName(ctx, r.LocationID, r.Name, &r.ID); err != nil {
			return err
		}
		return s.rooms.Update(ctx, r)
	})
}

func (s *CatalogService) GetRoom(ctx context.Context, id uuid.UUID) (*model.Room, error) {
	return s.rooms.GetByID(ctx, id)
}

func (s *CatalogService) ListRooms(ctx context.Context, locationID uuid.UUID, onlyActive bool) ([]model.Room, error) {
	if _, err := s.locations.GetByID(ctx, locationID); err != nil {
		return nil, err
	}
	return s.rooms.ListByLocation(ctx, locationID, onlyActive)
}

// DeleteRoom деактивирует комнату с бронированиями и удаляет комнату без них.
func (s *CatalogService) DeleteRoom(ctx context.Context, id uuid.UUID) (DeleteResult, error) {
	var res DeleteResult
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.rooms.Lock(ctx, id); err != nil {
			return err
		}
		n, err := s.bookings.CountByRoom(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			res.Deactivated = true
			return s.rooms.Deactivate(ctx, id)
		}
		return s.rooms.Delete(ctx, id)
	})
	if err != nil {
		return res, err
	}
	s.log.WithFields(logrus.Fields{"room_id": id, "deactivated": res.Deactivated}).Info("room deleted")
	return res, nil
}

func (s *CatalogService) uniqueRoomName(ctx context.Context, locationID uuid.UUID, name string, exclude *uuid.UUID) error {
	taken, err := s.rooms.NameTaken(ctx, locationID, name, exclude)
	if err != nil {
		return err
	}
	if taken {
		return apperror.Conflict("room %q already exists in this location", name)
	}
	return nil
}

// --- service providers ---

func (s *CatalogService) CreateProvider(ctx context.Context, p *model.ServiceProvider) error {
	if err := validateNamed(&p.Name, 0); err != nil {
		return err
	}
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.locations.GetByID(ctx, p.LocationID); err != nil {
			return err
		}
		if err := s.uniqueProviderName(ctx, p.LocationID, p.Name, nil); err != nil {
			return err
		}
		return s.providers.Create(ctx, p)
	})
}

func (s *CatalogService) UpdateProvider(ctx context.Context, p *model.ServiceProvider) error {
	if err := validateNamed(&p.Name, 0); err != nil {
		return err
	}
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.providers.GetByID(ctx, p.ID)
		if err != nil {
			return err
		}
		p.LocationID = current.LocationID
		if err := s.uniqueProviderName(ctx, p.LocationID, p.Name, &p.ID); err != nil {
			return err
		}
		return s.providers.Update(ctx, p)
	})
}

func (s *CatalogService) GetProvider(ctx context.Context, id uuid.UUID) (*model.ServiceProvider, error) {
	return s.providers.GetByID(ctx, id)
}

func (s *CatalogService) ListProviders(ctx context.Context, locationID uuid.UUID, onlyActive bool) ([]model.ServiceProvider, error) {
	if _, err := s.locations.GetByID(ctx, locationID); err != nil {
		return nil, err
	}
	return s.providers.ListByLocation(ctx, locationID, onlyActive)
}

func (s *CatalogService) DeleteProvider(ctx context.Context, id uuid.UUID) (DeleteResult, error) {
	var res DeleteResult
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.providers.GetByID(ctx, id); err != nil {
			return err
		}
		n, err := s.bookings.CountByProvider(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			res.Deactivated = true
			return s.providers.Deactivate(ctx, id)
		}
		return s.providers.Delete(ctx, id)
	})
	if err != nil {
		return res, err
	}
	s.log.WithFields(logrus.Fields{"provider_id": id, "deactivated": res.Deactivated}).Info("service provider deleted")
	return res, nil
}

func (s *CatalogService) uniqueProviderName(ctx context.Context, locationID uuid.UUID, name string, exclude *uuid.UUID) error {
	taken, err := s.providers.NameTaken(ctx, locationID, name, exclude)
	if err != nil {
		return err
	}
	if taken {
		return apperror.Conflict("service provider %q already exists in this location", name)
	}
	return nil
}

// --- duration options ---

func (s *CatalogService) CreateDurationOption(ctx context.Context, d *model.DurationOption) error {
	if err := validateDurationOption(d); err != nil {
		return err
	}
	if _, err := s.locations.GetByID(ctx, d.LocationID); err != nil {
		return err
	}
	return s.durations.Create(ctx, d)
}

func (s *CatalogService) UpdateDurationOption(ctx context.Context, d *model.DurationOption) error {
	if err := validateDurationOption(d); err != nil {
		return err
	}
	current, err := s.durations.GetByID(ctx, d.ID)
	if err != nil {
		return err
	}
	d.LocationID = current.LocationID
	return s.durations.Update(ctx, d)
}

func (s *CatalogService) ListDurationOptions(ctx context.Context, locationID uuid.UUID, onlyActive bool) ([]model.DurationOption, error) {
	if _, err := s.locations.GetByID(ctx, locationID); err != nil {
		return nil, err
	}
	return s.durations.ListByLocation(ctx, locationID, onlyActive)
}

func (s *CatalogService) DeleteDurationOption(ctx context.Context, id uuid.UUID) error {
	return s.durations.Delete(ctx, id)
}

// validateDurationOption: либо фиксированная длительность, либо min/max/step, но не обе формы сразу.
func validateDurationOption(d *model.DurationOption) error {
	d.Label = strings.TrimSpace(d.Label)
	if d.Label == "" {
		return apperror.InvalidRange("duration option label must not be empty")
	}
	variable := d.MinMinutes != nil || d.MaxMinutes != nil || d.StepMinutes != nil
	switch {
	case d.Minutes != nil && variable:
		return apperror.InvalidRange("duration option is either fixed or variable, not both")
	case d.Minutes != nil:
		if *d.Minutes <= 0 {
			return apperror.InvalidRange("fixed duration must be positive")
		}
	case variable:
		if d.MinMinutes == nil || d.MaxMinutes == nil || d.StepMinutes == nil {
			return apperror.InvalidRange("variable duration needs min, max and step")
		}
		if *d.MinMinutes <= 0 || *d.StepMinutes <= 0 || *d.MaxMinutes < *d.MinMinutes {
			return apperror.InvalidRange("variable duration needs 0 < min <= max and a positive step")
		}
	default:
		return apperror.InvalidRange("duration option needs minutes or min/max/step")
	}
	return nil
}

// --- upgrades ---

func (s *CatalogService) CreateUpgrade(ctx context.Context, u *model.Upgrade) error {
	if err := validateNamed(&u.Name, 0); err != nil {
		return err
	}
	return s.upgrades.Create(ctx, u)
}

func (s *CatalogService) UpdateUpgrade(ctx context.Context, u *model.Upgrade) error {
	if err := validateNamed(&u.Name, 0); err != nil {
		return err
	}
	return s.upgrades.Update(ctx, u)
}

func (s *CatalogService) GetUpgrade(ctx context.Context, id uuid.UUID) (*model.Upgrade, error) {
	return s.upgrades.GetByID(ctx, id)
}

func (s *CatalogService) ListUpgrades(ctx context.Context, onlyActive bool) ([]model.Upgrade, error) {
	return s.upgrades.List(ctx, onlyActive)
}

func (s *CatalogService) DeleteUpgrade(ctx context.Context, id uuid.UUID) (DeleteResult, error) {
	var res DeleteResult
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.upgrades.GetByID(ctx, id); err != nil {
			return err
		}
		n, err := s.upgrades.CountBookings(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			res.Deactivated = true
			return s.upgrades.Deactivate(ctx, id)
		}
		return s.upgrades.Delete(ctx, id)
	})
	if err != nil {
		return res, err
	}
	s.log.WithFields(logrus.Fields{"upgrade_id": id, "deactivated": res.Deactivated}).Info("upgrade deleted")
	return res, nil
}

func validateNamed(name *string, rate float64) error {
	*name = strings.TrimSpace(*name)
	if *name == "" {
		return apperror.InvalidRange("name must not be empty")
	}
	if rate < 0 {
		return apperror.InvalidRange("hourly rate must not be negative")
	}
	return nil
}
