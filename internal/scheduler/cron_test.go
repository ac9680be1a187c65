// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

package scheduler

import (
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
		{"monday at 9am", "0 9 * * 1", false},
		{"first of month", "0 0 1 * *", false},
		{"weekday hours", "0 * * * 1-5", false},
		{"minute list", "0,15,30,45 * * * *", false},
		{"ranged step", "0-30/10 * * * *", false},
		{"sunday as 7", "0 0 * * 7", false},
		{"descriptor", "@daily", false},
		{"descriptor uppercase", "@WEEKLY", false},
		{"too few fields", "0 9 * *", true},
		{"too many fields", "0 9 * * * *", true},
		{"invalid minute", "60 9 * * *", true},
		{"invalid hour", "0 24 * * *", true},
		{"invalid day of month", "0 0 0 * *", true},
		{"invalid month", "0 0 1 13 *", true},
		{"invalid step", "*/0 * * * *", true},
		{"reversed range", "0 9-5 * * *", true},
		{"empty list item", "0, * * * *", true},
		{"not a number", "a * * * *", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.expr)
			if (err != nil) != tt.wantErr {
				t.Errorf("Parse(%q) error = %v, wantErr %v", tt.expr, err, tt.wantErr)
			}
		})
	}
}

func TestSchedule_Next(t *testing.T) {
	// Wednesday
	base := time.Date(2026, 3, 11, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		expr string
		want time.Time
	}{
		{"next minute", "* * * * *", time.Date(2026, 3, 11, 10, 31, 0, 0, time.UTC)},
		{"later today", "0 12 * * *", time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC)},
		{"tomorrow", "0 9 * * *", time.Date(2026, 3, 12, 9, 0, 0, 0, time.UTC)},
		{"quarter hour", "*/15 * * * *", time.Date(2026, 3, 11, 10, 45, 0, 0, time.UTC)},
		{"next monday", "0 9 * * 1", time.Date(2026, 3, 16, 9, 0, 0, 0, time.UTC)},
		{"sunday via 7", "0 0 * * 7", time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"first of next month", "0 0 1 * *", time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)},
		{"next year", "0 0 1 1 *", time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"dom or dow", "0 0 13 * 5", time.Date(2026, 3, 13, 0, 0, 0, 0, time.UTC)},
		{"hourly descriptor", "@hourly", time.Date(2026, 3, 11, 11, 0, 0, 0, time.UTC)},
		{"leap day", "0 0 29 2 *", time.Date(2028, 2, 29, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Parse(tt.expr)
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.expr, err)
			}
			got := s.Next(base, time.UTC)
			if !got.Equal(tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestSchedule_Next_StrictlyAfter(t *testing.T) {
	s, err := Parse("0 9 * * *")
	if err != nil {
		t.Fatal(err)
	}
	at := time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)
	want := time.Date(2026, 3, 12, 9, 0, 0, 0, time.UTC)
	if got := s.Next(at, nil); !got.Equal(want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestSchedule_Next_Never(t *testing.T) {
	s, err := Parse("0 0 30 2 *")
	if err != nil {
		t.Fatal(err)
	}
	if got := s.Next(time.Now(), time.UTC); !got.IsZero() {
		t.Errorf("Expected zero time for Feb 30, got %v", got)
	}
}

func TestSchedule_Next_Timezone(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Jakarta")
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}
	s, err := Parse("0 9 * * *")
	if err != nil {
		t.Fatal(err)
	}

	// 03:00 UTC is 10:00 in Jakarta (UTC+7); next 09:00 local is 02:00 UTC tomorrow.
	after := time.Date(2026, 3, 11, 3, 0, 0, 0, time.UTC)
	got := s.Next(after, loc).UTC()
	want := time.Date(2026, 3, 12, 2, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestNextRun(t *testing.T) {
	after := time.Date(2026, 3, 11, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name    string
		expr    string
		tz      string
		want    time.Time
		wantErr bool
	}{
		{"utc default", "0 12 * * *", "", time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC), false},
		{"explicit utc", "0 12 * * *", "UTC", time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC), false},
		{"bad expression", "bad", "", time.Time{}, true},
		{"bad timezone", "0 12 * * *", "Mars/Olympus", time.Time{}, true},
		{"never fires", "0 0 31 4 *", "", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextRun(tt.expr, tt.tz, after)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NextRun() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !got.Equal(tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
			if !tt.wantErr && got.Location() != time.UTC {
				t.Errorf("Expected UTC result, got %v", got.Location())
			}
		})
	}
}

func TestValidateSchedule(t *testing.T) {
	if err := ValidateSchedule("0 9 * * 1-5", "UTC"); err != nil {
		t.Errorf("Expected valid schedule, got %v", err)
	}
	if err := ValidateSchedule("0 9 * * 1-5", "Nowhere/City"); err == nil {
		t.Error("Expected timezone error")
	}
	if err := ValidateSchedule("0 25 * * *", ""); err == nil {
		t.Error("Expected expression error")
	}
}
