package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Leganyst/studio-booking/internal/calendar"
	"github.com/Leganyst/studio-booking/internal/export"
	"github.com/Leganyst/studio-booking/internal/repository"
	"github.com/Leganyst/studio-booking/internal/storage"
)

// ExportResult: при настроенном хранилище заполнен URL, иначе Data.
type ExportResult struct {
	FileName    string
	ContentType string
	Data        []byte
	URL         string
}

type ExportService struct {
	billings  repository.BillingRepository
	providers repository.ProviderRepository
	rooms     repository.RoomRepository
	locations repository.LocationRepository
	store     storage.ObjectStore // nil: без загрузки
	urlExpiry time.Duration
	log       logrus.FieldLogger
}

func NewExportService(
	billings repository.BillingRepository,
	providers repository.ProviderRepository,
	rooms repository.RoomRepository,
	locations repository.LocationRepository,
	store storage.ObjectStore,
	urlExpiry time.Duration,
	log logrus.FieldLogger,
) *ExportService {
	return &ExportService{
		billings:  billings,
		providers: providers,
		rooms:     rooms,
		locations: locations,
		store:     store,
		urlExpiry: urlExpiry,
		log:       log,
	}
}

func (s *ExportService) Export(ctx context.Context, billingID uuid.UUID, format export.Format) (res *ExportResult, err error) {
	ctx, span := startSpan(ctx, "ExportService.Export")
	defer func() { endSpan(span, err) }()

	doc, err := s.document(ctx, billingID)
	if err != nil {
		return nil, err
	}
	data, err := export.Render(format, doc)
	if err != nil {
		return nil, err
	}

	res = &ExportResult{
		FileName:    doc.FileName(format),
		ContentType: format.ContentType(),
	}
	if s.store == nil {
		res.Data = data
		return res, nil
	}

	if err := s.store.Put(ctx, res.FileName, data, res.ContentType); err != nil {
		return nil, err
	}
	url, err := s.store.PresignedURL(ctx, res.FileName, s.urlExpiry)
	if err != nil {
		return nil, err
	}
	res.URL = url
	s.log.WithFields(logrus.Fields{"billing_id": billingID, "object": res.FileName}).Info("billing exported")
	return res, nil
}

func (s *ExportService) document(ctx context.Context, billingID uuid.UUID) (export.Document, error) {
	billing, err := s.billings.FindByID(ctx, billingID)
	if err != nil {
		return export.Document{}, err
	}
	provider, err := s.providers.GetByID(ctx, billing.ServiceProviderID)
	if err != nil {
		return export.Document{}, err
	}
	items, err := s.billings.ItemsByBilling(ctx, billingID)
	if err != nil {
		return export.Document{}, err
	}

	labels := newSlotLabeler(s.rooms, s.locations)
	doc := export.Document{
		BillingID:    billing.ID.String(),
		ProviderName: provider.Name,
		PeriodStart:  billing.PeriodStart,
		PeriodEnd:    billing.PeriodEnd,
		CreatedAt:    billing.CreatedAt,
		Total:        billing.TotalAmount,
		Lines:        make([]export.Line, 0, len(items)),
	}
	for _, it := range items {
		line := export.Line{
			BookingID:   it.BookingID.String(),
			Description: it.Description,
			Amount:      it.Amount,
		}
		if it.Booking != nil {
			room, loc, err := labels.room(ctx, it.Booking.RoomID)
			if err != nil {
				return export.Document{}, fmt.Errorf("billing %s item %s: %w", billingID, it.ID, err)
			}
			line.Room = room.Name
			line.Slot = calendar.FormatSlot(it.Booking.Billable(), loc, false, "")
			line.DurationMinutes = it.Booking.DurationMinutes
		}
		doc.Lines = append(doc.Lines, line)
	}
	return doc, nil
}
