package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Leganyst/studio-booking/internal/apperror"
	"github.com/Leganyst/studio-booking/internal/model"
	"github.com/Leganyst/studio-booking/internal/pricing"
	"github.com/Leganyst/studio-booking/internal/repository"
)

// TierService управляет ступенями длительности цены комнаты.
// Набор ступеней меняется только целиком и только у открытой цены.
type TierService struct {
	tx     repository.Transactor
	prices repository.PriceRepository
	tiers  repository.TierRepository
	log    logrus.FieldLogger
}

func NewTierService(
	tx repository.Transactor,
	prices repository.PriceRepository,
	tiers repository.TierRepository,
	log logrus.FieldLogger,
) *TierService {
	return &TierService{tx: tx, prices: prices, tiers: tiers, log: log}
}

func (s *TierService) List(ctx context.Context, roomPriceID uuid.UUID) ([]model.RoomPriceTier, error) {
	if _, err := s.prices.GetByID(ctx, roomPriceID); err != nil {
		return nil, err
	}
	return s.tiers.FindByPrice(ctx, roomPriceID)
}

// Create и Update одинаково заменяют набор ступеней целиком.
func (s *TierService) Create(ctx context.Context, roomPriceID uuid.UUID, tiers []pricing.Tier) ([]model.RoomPriceTier, error) {
	return s.replace(ctx, roomPriceID, tiers)
}

func (s *TierService) Update(ctx context.Context, roomPriceID uuid.UUID, tiers []pricing.Tier) ([]model.RoomPriceTier, error) {
	return s.replace(ctx, roomPriceID, tiers)
}

// Delete удаляет одну ступень; оставшиеся должны по-прежнему покрывать длительность без разрывов.
func (s *TierService) Delete(ctx context.Context, roomPriceID, tierID uuid.UUID) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.lockOpen(ctx, roomPriceID); err != nil {
			return err
		}
		current, err := s.tiers.FindByPrice(ctx, roomPriceID)
		if err != nil {
			return err
		}

		rest := make([]model.RoomPriceTier, 0, len(current))
		found := false
		for _, t := range current {
			if t.ID == tierID {
				found = true
				continue
			}
			rest = append(rest, t)
		}
		if !found {
			return apperror.NotFound("tier", tierID.String())
		}

		if len(rest) > 0 {
			check := make([]pricing.Tier, 0, len(rest))
			for _, t := range rest {
				check = append(check, t.ToTier())
			}
			if err := pricing.ValidateTiers(check); err != nil {
				return err
			}
		}
		return s.tiers.ReplaceAll(ctx, roomPriceID, rest)
	})
	if err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"room_price_id": roomPriceID, "tier_id": tierID}).Info("tier deleted")
	return nil
}

func (s *TierService) replace(ctx context.Context, roomPriceID uuid.UUID, in []pricing.Tier) ([]model.RoomPriceTier, error) {
	normalized, err := pricing.Normalize(in)
	if err != nil {
		return nil, err
	}

	rows := make([]model.RoomPriceTier, 0, len(normalized))
	for _, t := range normalized {
		rows = append(rows, model.RoomPriceTier{
			FromMinutes: t.FromMinutes,
			ToMinutes:   t.ToMinutes,
			PriceType:   string(t.Type),
			Price:       t.Price,
		})
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.lockOpen(ctx, roomPriceID); err != nil {
			return err
		}
		return s.tiers.ReplaceAll(ctx, roomPriceID, rows)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"room_price_id": roomPriceID, "tiers": len(rows)}).Info("tiers replaced")
	return rows, nil
}

// lockOpen проверяет, что цена существует и открыта, и блокирует её строку.
func (s *TierService) lockOpen(ctx context.Context, roomPriceID uuid.UUID) error {
	price, err := s.prices.GetByID(ctx, roomPriceID)
	if err != nil {
		return err
	}
	if price.ValidTo != nil {
		return apperror.Conflict("room price %s is closed, its tiers are history", roomPriceID)
	}
	open, err := s.prices.FindOpen(ctx, price.EntityID)
	if err != nil {
		return err
	}
	if open.ID != price.ID {
		return apperror.Conflict("room price %s is no longer open", roomPriceID)
	}
	return nil
}
