package timeparsing

import (
	"testing"
	"time"
)

func TestParseCompactDuration(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC) // a Monday morning

	tests := []struct {
		input   string
		want    time.Time
		wantErr bool
	}{
		{input: "+6h", want: time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)},
		{input: "-6h", want: time.Date(2026, 3, 2, 3, 0, 0, 0, time.UTC)},
		{input: "+1d", want: time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC)},
		{input: "-2d", want: time.Date(2026, 2, 28, 9, 0, 0, 0, time.UTC)},
		{input: "+2w", want: time.Date(2026, 3, 16, 9, 0, 0, 0, time.UTC)},
		{input: "+3m", want: time.Date(2026, 6, 2, 9, 0, 0, 0, time.UTC)},
		{input: "+1y", want: time.Date(2027, 3, 2, 9, 0, 0, 0, time.UTC)},

		// No sign reads as positive.
		{input: "1d", want: time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC)},
		{input: "2w", want: time.Date(2026, 3, 16, 9, 0, 0, 0, time.UTC)},

		// Multi-digit amounts.
		{input: "+48h", want: time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)},
		{input: "+365d", want: time.Date(2027, 3, 2, 9, 0, 0, 0, time.UTC)},

		{input: "", wantErr: true},
		{input: "6", wantErr: true},
		{input: "d", wantErr: true},
		{input: "6d+", wantErr: true},
		{input: "++1d", wantErr: true},
		{input: "+ 6h", wantErr: true},
		{input: "1x", wantErr: true},
		{input: "2026-03-02", wantErr: true},
		{input: "tomorrow", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseCompactDuration(tt.input, now)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCompactDuration(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && !got.Equal(tt.want) {
				t.Errorf("ParseCompactDuration(%q) = %v, want %v", tt.input, got, tt.want)
			}
			if gotOK := IsCompactDuration(tt.input); gotOK == tt.wantErr {
				t.Errorf("IsCompactDuration(%q) = %v, want %v", tt.input, gotOK, !tt.wantErr)
			}
		})
	}
}

func TestParseCompactDurationCalendarEdges(t *testing.T) {
	// Month arithmetic follows time.AddDate: Jan 31 + 1m overflows past
	// February instead of clamping.
	jan31 := time.Date(2026, 1, 31, 9, 0, 0, 0, time.UTC)
	got, err := ParseCompactDuration("+1m", jan31)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Month() != time.March || got.Day() != 3 {
		t.Errorf("Jan 31 + 1m = %v, want Mar 3", got)
	}

	// A day step lands on the leap day when there is one.
	got, err = ParseCompactDuration("+1d", time.Date(2028, 2, 28, 9, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Month() != time.February || got.Day() != 29 {
		t.Errorf("Feb 28, 2028 + 1d = %v, want Feb 29", got)
	}
}

func TestParseCompactDurationKeepsLocation(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tz database unavailable")
	}
	got, err := ParseCompactDuration("+1d", time.Date(2026, 3, 2, 9, 0, 0, 0, loc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Location() != loc {
		t.Errorf("location = %v, want %v", got.Location(), loc)
	}
}
