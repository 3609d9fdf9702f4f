package calendar

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidTimeRange = errors.New("invalid time range")
	ErrSlotDuration     = errors.New("slot duration must be positive")
)

// TimeRange представляет временной интервал [Start, End).
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// NewTimeRange создаёт интервал; End должен быть строго позже Start.
func NewTimeRange(start, end time.Time) (TimeRange, error) {
	if start.IsZero() || end.IsZero() || !end.After(start) {
		return TimeRange{}, ErrInvalidTimeRange
	}
	return TimeRange{Start: start, End: end}, nil
}

// OccupiedRange — интервал, на который бронь занимает комнату:
// [start, start + duration + resting).
func OccupiedRange(start time.Time, durationMinutes, restingMinutes int) TimeRange {
	total := time.Duration(durationMinutes+restingMinutes) * time.Minute
	return TimeRange{Start: start, End: start.Add(total)}
}

// Contains: t лежит в [Start, End).
func (tr TimeRange) Contains(t time.Time) bool {
	return !t.Before(tr.Start) && t.Before(tr.End)
}

func (tr TimeRange) Duration() time.Duration {
	return tr.End.Sub(tr.Start)
}

// Overlaps по полуоткрытым интервалам: касание концами не пересечение.
func (tr TimeRange) Overlaps(other TimeRange) bool {
	return rangesOverlap(tr, other, false)
}

// HasOverlap проверяет, пересекается ли newRange с existing.
// при inclusive = true касание концами считается пересечением.
func HasOverlap(
	newRange TimeRange,
	existing []TimeRange,
	inclusive bool,
) (bool, []TimeRange) {
	var conflicts []TimeRange

	for _, tr := range existing {
		if rangesOverlap(newRange, tr, inclusive) {
			conflicts = append(conflicts, tr)
		}
	}

	return len(conflicts) > 0, conflicts
}

func rangesOverlap(a, b TimeRange, inclusive bool) bool {
	if inclusive {
		return !a.Start.After(b.End) && !b.Start.After(a.End)
	}

	// Полуоткрытые интервалы [Start, End)
	// пересекаются, если a.Start < b.End && b.Start < a.End
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// FreeStarts идёт по window с шагом step и возвращает интервалы [cur, cur+length),
// которые помещаются в window и не пересекают занятые. Хвост короче length отбрасывается.
func FreeStarts(window TimeRange, length, step time.Duration, busy []TimeRange) ([]TimeRange, error) {
	if length <= 0 || step <= 0 {
		return nil, ErrSlotDuration
	}
	if !window.End.After(window.Start) {
		return []TimeRange{}, nil
	}

	free := []TimeRange{}
	for cur := window.Start; !cur.Add(length).After(window.End); cur = cur.Add(step) {
		candidate := TimeRange{Start: cur, End: cur.Add(length)}
		if has, _ := HasOverlap(candidate, busy, false); has {
			continue
		}
		free = append(free, candidate)
	}
	return free, nil
}

var enWeekdays = map[time.Weekday]string{
	time.Monday:    "Mon",
	time.Tuesday:   "Tue",
	time.Wednesday: "Wed",
	time.Thursday:  "Thu",
	time.Friday:    "Fri",
	time.Saturday:  "Sat",
	time.Sunday:    "Sun",
}

// FormatSlot форматирует интервал в строку вида "Wed, 01.01.2025, 10:00–11:00".
// Если loc != nil, время переводится в указанный часовой пояс.
// Если includeID = true, в конце добавляется идентификатор в скобках.
func FormatSlot(tr TimeRange, loc *time.Location, includeID bool, id string) string {
	start := tr.Start
	end := tr.End

	if loc != nil {
		start = start.In(loc)
		end = end.In(loc)
	}

	base := fmt.Sprintf("%s, %s, %s–%s",
		enWeekdays[start.Weekday()],
		start.Format("02.01.2006"),
		start.Format("15:04"),
		end.Format("15:04"),
	)

	if includeID && id != "" {
		return fmt.Sprintf("%s (ID: %s)", base, id)
	}
	return base
}
