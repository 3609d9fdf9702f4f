package calendar

import (
	"strings"
	"testing"
	"time"
)

func mustTime(t *testing.T, year int, month time.Month, day, hour, min int) time.Time {
	t.Helper()
	return time.Date(year, month, day, hour, min, 0, 0, time.UTC)
}

func intPtr(v int) *int { return &v }

//
// TimeRange
//

func TestNewTimeRange_RejectsEmptyAndReversed(t *testing.T) {
	start := mustTime(t, 2025, 1, 1, 10, 0)

	if _, err := NewTimeRange(start, start); err != ErrInvalidTimeRange {
		t.Fatalf("expected ErrInvalidTimeRange for empty range, got %v", err)
	}
	if _, err := NewTimeRange(start, start.Add(-time.Minute)); err != ErrInvalidTimeRange {
		t.Fatalf("expected ErrInvalidTimeRange for reversed range, got %v", err)
	}
	if _, err := NewTimeRange(time.Time{}, start); err != ErrInvalidTimeRange {
		t.Fatalf("expected ErrInvalidTimeRange for zero start, got %v", err)
	}
}

func TestOccupiedRange_IncludesRestingTime(t *testing.T) {
	start := mustTime(t, 2025, 1, 1, 9, 0)

	tr := OccupiedRange(start, 60, 15)
	if !tr.End.Equal(mustTime(t, 2025, 1, 1, 10, 15)) {
		t.Fatalf("expected end 10:15, got %v", tr.End)
	}
	if tr.Duration() != 75*time.Minute {
		t.Fatalf("expected 75m, got %v", tr.Duration())
	}
}

func TestTimeRange_Contains_HalfOpen(t *testing.T) {
	tr := TimeRange{Start: mustTime(t, 2025, 1, 1, 9, 0), End: mustTime(t, 2025, 1, 1, 10, 0)}

	if !tr.Contains(tr.Start) {
		t.Fatalf("start must be contained")
	}
	if tr.Contains(tr.End) {
		t.Fatalf("end must not be contained")
	}
}

//
// HasOverlap
//

func TestHasOverlap_TouchingDoesNotConflict(t *testing.T) {
	newRange := TimeRange{
		Start: mustTime(t, 2025, 1, 1, 10, 0),
		End:   mustTime(t, 2025, 1, 1, 11, 0),
	}
	existing := []TimeRange{
		{Start: mustTime(t, 2025, 1, 1, 11, 0), End: mustTime(t, 2025, 1, 1, 12, 0)},
		{Start: mustTime(t, 2025, 1, 1, 9, 0), End: mustTime(t, 2025, 1, 1, 10, 0)},
	}

	has, conflicts := HasOverlap(newRange, existing, false)
	if has {
		t.Fatalf("expected no overlap, got conflicts: %+v", conflicts)
	}
	if !newRange.Overlaps(TimeRange{Start: mustTime(t, 2025, 1, 1, 10, 59), End: mustTime(t, 2025, 1, 1, 12, 0)}) {
		t.Fatalf("expected one-minute overlap to be detected")
	}
}

func TestHasOverlap_TouchInclusive(t *testing.T) {
	newRange := TimeRange{
		Start: mustTime(t, 2025, 1, 1, 10, 0),
		End:   mustTime(t, 2025, 1, 1, 11, 0),
	}
	existing := []TimeRange{
		{Start: mustTime(t, 2025, 1, 1, 11, 0), End: mustTime(t, 2025, 1, 1, 12, 0)},
	}

	has, _ := HasOverlap(newRange, existing, true)
	if !has {
		t.Fatalf("expected overlap in inclusive mode")
	}
}

func TestHasOverlap_OverlapFound(t *testing.T) {
	newRange := TimeRange{
		Start: mustTime(t, 2025, 1, 1, 10, 30),
		End:   mustTime(t, 2025, 1, 1, 11, 30),
	}
	existing := []TimeRange{
		{Start: mustTime(t, 2025, 1, 1, 9, 0), End: mustTime(t, 2025, 1, 1, 10, 0)},
		{Start: mustTime(t, 2025, 1, 1, 11, 0), End: mustTime(t, 2025, 1, 1, 12, 0)},
	}

	has, conflicts := HasOverlap(newRange, existing, false)
	if !has {
		t.Fatalf("expected overlap, got none")
	}
	if len(conflicts) != 1 {
		t.Fatalf("expected 1 conflict, got %d", len(conflicts))
	}
}

//
// FreeStarts
//

func TestFreeStarts_SkipsBusyAndDropsTail(t *testing.T) {
	window := TimeRange{Start: mustTime(t, 2025, 1, 1, 9, 0), End: mustTime(t, 2025, 1, 1, 11, 50)}
	busy := []TimeRange{
		{Start: mustTime(t, 2025, 1, 1, 9, 30), End: mustTime(t, 2025, 1, 1, 10, 0)},
	}

	free, err := FreeStarts(window, 30*time.Minute, 30*time.Minute, busy)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []time.Time{
		mustTime(t, 2025, 1, 1, 9, 0),
		mustTime(t, 2025, 1, 1, 10, 0),
		mustTime(t, 2025, 1, 1, 10, 30),
		mustTime(t, 2025, 1, 1, 11, 0),
	}
	if len(free) != len(want) {
		t.Fatalf("expected %d free slots, got %d: %+v", len(want), len(free), free)
	}
	for i := range want {
		if !free[i].Start.Equal(want[i]) {
			t.Fatalf("slot %d: expected start %v, got %v", i, want[i], free[i].Start)
		}
	}
}

func TestFreeStarts_InvalidStep(t *testing.T) {
	window := TimeRange{Start: mustTime(t, 2025, 1, 1, 9, 0), End: mustTime(t, 2025, 1, 1, 10, 0)}

	if _, err := FreeStarts(window, time.Hour, 0, nil); err != ErrSlotDuration {
		t.Fatalf("expected ErrSlotDuration, got %v", err)
	}
}

//
// MinuteSpan
//

func TestMinuteSpan_Overlap(t *testing.T) {
	closed := MinuteSpan{From: 0, To: intPtr(60)}
	open := MinuteSpan{From: 60}

	cases := []struct {
		name     string
		span     MinuteSpan
		duration int
		want     int
	}{
		{"closed partially covered", closed, 30, 30},
		{"closed fully covered", closed, 90, 60},
		{"open not reached", open, 60, 0},
		{"open cut at duration", open, 150, 90},
	}
	for _, tc := range cases {
		if got := tc.span.Overlap(tc.duration); got != tc.want {
			t.Fatalf("%s: Overlap(%d) = %d, want %d", tc.name, tc.duration, got, tc.want)
		}
	}
	if !closed.Touches(open) {
		t.Fatalf("expected [0,60) to touch [60,∞)")
	}
}

//
// FormatSlot
//

func TestFormatSlot_WithID(t *testing.T) {
	tr := TimeRange{
		Start: mustTime(t, 2025, 1, 1, 10, 0),
		End:   mustTime(t, 2025, 1, 1, 11, 0),
	}

	str := FormatSlot(tr, time.UTC, true, "b-123")
	if str != "Wed, 01.01.2025, 10:00–11:00 (ID: b-123)" {
		t.Fatalf("unexpected format: %q", str)
	}
	if strings.Contains(FormatSlot(tr, nil, false, "b-123"), "ID") {
		t.Fatalf("id must be omitted when includeID is false")
	}
}

//
// Paginate
//

func TestPaginate_LastPage(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6}
	page := Paginate(items, PageRequest{Page: 2, Size: 4})

	if len(page.Items) != 2 || page.Items[0] != 5 {
		t.Fatalf("expected [5 6] on last page, got %v", page.Items)
	}
	if !page.HasPrev || page.HasNext || page.TotalPages != 2 {
		t.Fatalf("expected HasPrev=true HasNext=false TotalPages=2, got %+v", page)
	}
}

func TestPaginate_Empty(t *testing.T) {
	var items []int
	page := Paginate(items, PageRequest{Page: 1, Size: 10})

	if page.Items == nil {
		t.Fatalf("items must be empty, not nil")
	}
	if len(page.Items) != 0 || page.HasNext || page.HasPrev || page.TotalPages != 0 {
		t.Fatalf("unexpected page for empty list: %+v", page)
	}
}

func TestPaginate_DefaultsAndLimits(t *testing.T) {
	items := make([]int, 1200)

	page := Paginate(items, PageRequest{})
	if page.Page != 1 || page.PageSize != DefaultPageSize || len(page.Items) != DefaultPageSize {
		t.Fatalf("defaults not applied: page=%d size=%d len=%d", page.Page, page.PageSize, len(page.Items))
	}

	page = Paginate(items, PageRequest{Page: 1, Size: 10000})
	if page.PageSize != MaxPageSize || len(page.Items) != MaxPageSize || page.TotalPages != 3 {
		t.Fatalf("size must be capped: size=%d len=%d pages=%d", page.PageSize, len(page.Items), page.TotalPages)
	}

	page = Paginate(items, PageRequest{Page: 9, Size: 500})
	if len(page.Items) != 0 || page.HasNext || !page.HasPrev || page.Total != 1200 {
		t.Fatalf("page past the end: %+v", page)
	}
}
