// Package pricing считает стоимость длительности брони по ступеням.
package pricing

import (
	"math"
	"sort"
	"strings"

	"github.com/Leganyst/studio-booking/internal/apperror"
	"github.com/Leganyst/studio-booking/internal/calendar"
)

type PriceType string

const (
	PriceTypeFixed  PriceType = "FIXED"
	PriceTypeHourly PriceType = "HOURLY"
)

// ParsePriceType принимает FIXED или HOURLY в любом регистре.
func ParsePriceType(s string) (PriceType, error) {
	switch PriceType(strings.ToUpper(strings.TrimSpace(s))) {
	case PriceTypeFixed:
		return PriceTypeFixed, nil
	case PriceTypeHourly:
		return PriceTypeHourly, nil
	default:
		return "", apperror.Conflict("price type must be FIXED or HOURLY, got %q", s)
	}
}

// Tier тарифицирует минуты брони [FromMinutes, ToMinutes).
// ToMinutes == nil у последней, открытой ступени.
type Tier struct {
	FromMinutes int       `json:"from_minutes"`
	ToMinutes   *int      `json:"to_minutes,omitempty"`
	Type        PriceType `json:"price_type"`
	Price       float64   `json:"price"`
}

func (t Tier) Span() calendar.MinuteSpan {
	return calendar.MinuteSpan{From: t.FromMinutes, To: t.ToMinutes}
}

// DefaultTiers: одна открытая почасовая ступень, если у комнаты нет ступенчатой цены.
func DefaultTiers(hourlyRate float64) []Tier {
	return []Tier{{FromMinutes: 0, Type: PriceTypeHourly, Price: hourlyRate}}
}

// Normalize приводит тип к каноническому написанию, сортирует по FromMinutes и валидирует.
func Normalize(tiers []Tier) ([]Tier, error) {
	out := append([]Tier(nil), tiers...)
	for i := range out {
		pt, err := ParsePriceType(string(out[i].Type))
		if err != nil {
			return nil, err
		}
		// в БД и в Calculate только FIXED/HOURLY
		out[i].Type = pt
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].FromMinutes < out[j].FromMinutes })
	if err := ValidateTiers(out); err != nil {
		return nil, err
	}
	return out, nil
}

// ValidateTiers проверяет упорядоченный набор: начало с 0, без дыр и наложений,
// закрытые ступени не пустые, открытая не больше одной и только последней.
func ValidateTiers(tiers []Tier) error {
	if len(tiers) == 0 {
		return apperror.InvalidRange("at least one tier is required")
	}
	if tiers[0].FromMinutes != 0 {
		return apperror.InvalidRange("first tier must start at 0 minutes, got %d", tiers[0].FromMinutes)
	}

	open := 0
	for i, t := range tiers {
		if _, err := ParsePriceType(string(t.Type)); err != nil {
			return err
		}
		if t.Price < 0 {
			return apperror.InvalidRange("tier %d: price must not be negative", i)
		}
		if t.ToMinutes == nil {
			open++
			if open > 1 {
				return apperror.InvalidRange("only one tier may be open-ended")
			}
		} else if t.FromMinutes >= *t.ToMinutes {
			return apperror.InvalidRange("tier %d: from %d must be below to %d", i, t.FromMinutes, *t.ToMinutes)
		}

		if i == 0 {
			continue
		}
		prev := tiers[i-1]
		if prev.ToMinutes == nil {
			return apperror.InvalidRange("tier %d overlaps the open-ended tier starting at %d", i, prev.FromMinutes)
		}
		switch {
		case *prev.ToMinutes < t.FromMinutes:
			return apperror.InvalidRange("gap between %d and %d minutes", *prev.ToMinutes, t.FromMinutes)
		case *prev.ToMinutes > t.FromMinutes:
			return apperror.InvalidRange("tiers overlap between %d and %d minutes", t.FromMinutes, *prev.ToMinutes)
		}
	}
	return nil
}

// Line — вклад одной ступени в расчёт.
type Line struct {
	FromMinutes int       `json:"from_minutes"`
	ToMinutes   *int      `json:"to_minutes,omitempty"`
	Type        PriceType `json:"price_type"`
	Minutes     int       `json:"minutes"`
	Amount      float64   `json:"amount"`
}

type Quote struct {
	Total float64 `json:"total"`
	Lines []Line  `json:"lines"`
}

// Calculate считает durationMinutes по проверенным ступеням в порядке возрастания.
// Каждая задетая ступень добавляет своё: FIXED один раз, HOURLY поминутно.
// Последняя ступень считается открытой, длительность за её границей идёт по её условиям.
func Calculate(durationMinutes int, tiers []Tier) (Quote, error) {
	if durationMinutes < 0 {
		return Quote{}, apperror.InvalidRange("duration must not be negative, got %d", durationMinutes)
	}
	if len(tiers) == 0 {
		return Quote{}, apperror.InvalidRange("no tiers to price against")
	}

	q := Quote{Lines: []Line{}}
	last := len(tiers) - 1
	for i, t := range tiers {
		span := t.Span()
		if i == last {
			span.To = nil
		}
		m := span.Overlap(durationMinutes)
		if m <= 0 {
			continue
		}

		var amount float64
		switch t.Type {
		case PriceTypeFixed:
			amount = t.Price
		case PriceTypeHourly:
			amount = t.Price * float64(m) / 60
		default:
			return Quote{}, apperror.Conflict("price type must be FIXED or HOURLY, got %q", t.Type)
		}

		q.Lines = append(q.Lines, Line{
			FromMinutes: t.FromMinutes,
			ToMinutes:   t.ToMinutes,
			Type:        t.Type,
			Minutes:     m,
			Amount:      amount,
		})
		q.Total += amount
	}
	q.Total = RoundCents(q.Total)
	return q, nil
}

// RoundCents округляет до копеек, половину от нуля.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
