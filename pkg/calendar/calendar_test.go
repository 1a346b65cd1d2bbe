package calendar

import (
	"testing"
	"time"
)

func TestWindowAscendingAndContiguous(t *testing.T) {
	tc := NewXSHG()
	end := time.Date(2025, 6, 18, 0, 0, 0, 0, time.UTC) // a Wednesday
	win := tc.Window(end, 5)
	if len(win) != 5 {
		t.Fatalf("expected 5 dates, got %d", len(win))
	}
	for i := 1; i < len(win); i++ {
		if !win[i].After(win[i-1]) {
			t.Fatalf("window not ascending at %d: %v >= %v", i, win[i-1], win[i])
		}
	}
	for _, d := range win {
		if !tc.IsTradingDay(d) {
			t.Fatalf("non-trading day %v in window", d)
		}
	}
}

func TestPrevTradingDaySkipsWeekend(t *testing.T) {
	tc := NewXSHG()
	monday := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)
	prev := tc.PrevTradingDay(monday)
	if wd := prev.Weekday(); wd == time.Saturday || wd == time.Sunday {
		t.Fatalf("previous trading day landed on weekend: %v", prev)
	}
	if !prev.Before(monday) {
		t.Fatalf("previous trading day not before input")
	}
}

func TestWindowZero(t *testing.T) {
	tc := NewXSHG()
	if win := tc.Window(time.Now(), 0); win != nil {
		t.Fatalf("expected nil window, got %v", win)
	}
}
