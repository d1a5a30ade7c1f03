package schedule

import (
	"testing"
	"time"
)

func TestRelativeLabel(t *testing.T) {
	day := func(y int, m time.Month, d, hour int) time.Time {
		return time.Date(y, m, d, hour, 0, 0, 0, time.UTC)
	}
	now := day(2025, 3, 10, 12)

	tests := []struct {
		name      string
		scheduled time.Time
		now       time.Time
		want      string
	}{
		{"same day", day(2025, 3, 10, 18), now, "Сегодня"},
		{"next day", day(2025, 3, 11, 9), now, "Завтра"},
		// Календарный день, не 24 часа: 23:00 -> 01:00 следующего дня
		{"late evening to early morning", day(2025, 3, 11, 1), day(2025, 3, 10, 23), "Завтра"},
		{"in two days", day(2025, 3, 12, 9), now, "Через 2 дня"},
		{"in five days", day(2025, 3, 15, 9), now, "Через 5 дней"},
		{"in a week", day(2025, 3, 17, 9), now, "Через 7 дней"},
		{"beyond a week", day(2025, 3, 18, 9), now, "18.03.2025"},
		{"yesterday", day(2025, 3, 9, 9), now, "Вчера"},
		{"three days ago", day(2025, 3, 7, 9), now, "3 дня назад"},
		{"week ago", day(2025, 3, 3, 9), now, "7 дней назад"},
		{"long past", day(2025, 1, 1, 9), now, "01.01.2025"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RelativeLabel(tt.scheduled, tt.now)
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRelativeLabelAcrossDSTChange(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	// 9 марта 2025 в этой зоне длится 23 часа (переход на летнее время)
	now := time.Date(2025, 3, 9, 12, 0, 0, 0, loc)
	scheduled := time.Date(2025, 3, 10, 1, 0, 0, 0, loc)

	if got := DaysBetween(now, scheduled); got != 1 {
		t.Errorf("DaysBetween across DST day = %d, want 1", got)
	}
	if got := RelativeLabel(scheduled, now); got != "Завтра" {
		t.Errorf("got %q, want %q", got, "Завтра")
	}
}

func TestDaysBetweenCrossesMonth(t *testing.T) {
	from := time.Date(2025, 2, 28, 23, 59, 0, 0, time.UTC)
	to := time.Date(2025, 3, 1, 0, 1, 0, 0, time.UTC)
	if got := DaysBetween(from, to); got != 1 {
		t.Errorf("expected 1 day across month boundary, got %d", got)
	}
}

func TestDayWord(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{1, "день"},
		{2, "дня"},
		{4, "дня"},
		{5, "дней"},
		{11, "дней"},
		{12, "дней"},
		{21, "день"},
		{22, "дня"},
		{25, "дней"},
	}
	for _, tt := range tests {
		if got := dayWord(tt.n); got != tt.want {
			t.Errorf("dayWord(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
