package calendar

// MinuteSpan — полуоткрытый диапазон минут [From, To) от начала брони.
// To == nil у открытого диапазона.
type MinuteSpan struct {
	From int
	To   *int
}

func (s MinuteSpan) Open() bool { return s.To == nil }

// Overlap — сколько минут из [0, duration) попадает в диапазон.
// Открытый диапазон обрезается по duration.
func (s MinuteSpan) Overlap(duration int) int {
	end := duration
	if s.To != nil && *s.To < end {
		end = *s.To
	}
	start := s.From
	if start < 0 {
		start = 0
	}
	if end <= start {
		return 0
	}
	return end - start
}

// Touches: s кончается ровно там, где начинается next.
func (s MinuteSpan) Touches(next MinuteSpan) bool {
	return s.To != nil && *s.To == next.From
}
