package schedule

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		expr    string
		wantErr bool
	}{
		{"daily at 9am", "0 9 * * *", false},
		{"every 5 minutes", "*/5 * * * *", false},
		{"weekdays", "30 18 * * 1-5", false},
		{"list", "0,15,30,45 * * * *", false},
		{"range step", "0 8-20/4 * * *", false},
		{"sunday as 7", "0 9 * * 7", false},
		{"macro", "@daily", false},
		{"too few fields", "0 9 * *", true},
		{"too many fields", "0 9 * * * *", true},
		{"minute out of range", "60 9 * * *", true},
		{"hour out of range", "0 24 * * *", true},
		{"day zero", "0 9 0 * *", true},
		{"bad step", "*/0 * * * *", true},
		{"reversed range", "0 9 * * 5-1", true},
		{"garbage", "a b c d e", true},
		{"empty list element", "0, * * * *", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.expr, nil)
			if (err != nil) != tt.wantErr {
				t.Errorf("Parse(%q) error = %v, wantErr %v", tt.expr, err, tt.wantErr)
			}
		})
	}
}

func TestNext(t *testing.T) {
	base := time.Date(2026, 10, 15, 10, 30, 0, 0, time.UTC) // Thursday
	tests := []struct {
		name string
		expr string
		from time.Time
		want time.Time
	}{
		{"daily already passed", "0 9 * * *", base, time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)},
		{"daily later today", "0 12 * * *", base, time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)},
		{"strictly after", "30 10 * * *", base, time.Date(2026, 10, 16, 10, 30, 0, 0, time.UTC)},
		{"every 15 minutes", "*/15 * * * *", base, time.Date(2026, 10, 15, 10, 45, 0, 0, time.UTC)},
		{"next monday", "0 9 * * 1", base, time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)},
		{"sunday as 7", "0 9 * * 7", base, time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)},
		{"first of month", "0 0 1 * *", base, time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)},
		{"year rollover", "0 0 1 1 *", base, time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"dom or dow", "0 9 20 * 1", base, time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)},
		{"leap day", "0 0 29 2 *", base, time.Date(2028, 2, 29, 0, 0, 0, 0, time.UTC)},
		{"seconds ignored", "31 10 * * *", base.Add(45 * time.Second), time.Date(2026, 10, 15, 10, 31, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Parse(tt.expr, time.UTC)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if got := s.Next(tt.from); !got.Equal(tt.want) {
				t.Errorf("Next = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNext_NeverFires(t *testing.T) {
	s, err := Parse("0 0 31 2 *", nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := s.Next(time.Now()); !got.IsZero() {
		t.Errorf("Next = %v, want zero", got)
	}
}

func TestNext_InLocation(t *testing.T) {
	s, err := ParseIn("0 9 * * *", "America/New_York")
	if err != nil {
		t.Skipf("tz database unavailable: %v", err)
	}
	// 12:00 UTC is 08:00 in New York during daylight time.
	from := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	got := s.Next(from)
	if want := time.Date(2026, 10, 15, 13, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("Next = %v, want %v", got.UTC(), want)
	}

	// Across the November DST change the local hour stays fixed.
	from = time.Date(2026, 11, 1, 14, 0, 0, 0, time.UTC)
	got = s.Next(from)
	if want := time.Date(2026, 11, 2, 14, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("Next across DST = %v, want %v", got.UTC(), want)
	}
}

func TestParseIn_BadZone(t *testing.T) {
	if _, err := ParseIn(DefaultExpr, "Not/AZone"); err == nil {
		t.Error("expected error for unknown timezone")
	}
}

func TestWait_Cancelled(t *testing.T) {
	s, err := Parse(DefaultExpr, nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Wait(ctx, time.Now()); !errors.Is(err, context.Canceled) {
		t.Errorf("Wait error = %v, want context.Canceled", err)
	}
}

func TestWait_Fires(t *testing.T) {
	s, err := Parse("* * * * *", nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	// Pretend it is one millisecond before the next minute boundary.
	next := time.Date(2026, 10, 15, 10, 31, 0, 0, time.UTC)
	got, err := s.Wait(context.Background(), next.Add(-time.Millisecond))
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if !got.Equal(next) {
		t.Errorf("Wait = %v, want %v", got, next)
	}
}
