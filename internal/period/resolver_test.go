package period

import (
	"errors"
	"testing"
	"time"
)

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestResolve(t *testing.T) {
	last := ts("2026-03-01T18:00:00Z")

	tests := []struct {
		name       string
		now        time.Time
		last       *time.Time
		cutoffHour int
		wantStart  time.Time
		wantEnd    time.Time
		wantErr    error
	}{
		{
			name:       "continues from last closure end",
			now:        ts("2026-03-02T10:30:00Z"),
			last:       &last,
			cutoffHour: 18,
			wantStart:  ts("2026-03-01T18:00:00Z"),
			wantEnd:    ts("2026-03-02T10:30:00Z"),
		},
		{
			name:       "bootstrap after cutoff uses today's cutoff",
			now:        ts("2026-03-02T19:15:00Z"),
			cutoffHour: 18,
			wantStart:  ts("2026-03-02T18:00:00Z"),
			wantEnd:    ts("2026-03-02T19:15:00Z"),
		},
		{
			name:       "bootstrap before cutoff uses yesterday's cutoff",
			now:        ts("2026-03-02T09:00:00Z"),
			cutoffHour: 18,
			wantStart:  ts("2026-03-01T18:00:00Z"),
			wantEnd:    ts("2026-03-02T09:00:00Z"),
		},
		{
			name:       "bootstrap exactly at cutoff starts a fresh period",
			now:        ts("2026-03-02T18:00:00Z"),
			cutoffHour: 18,
			wantStart:  ts("2026-03-02T18:00:00Z"),
			wantEnd:    ts("2026-03-02T18:00:00Z"),
		},
		{
			name:       "midnight cutoff",
			now:        ts("2026-03-02T01:00:00Z"),
			cutoffHour: 0,
			wantStart:  ts("2026-03-02T00:00:00Z"),
			wantEnd:    ts("2026-03-02T01:00:00Z"),
		},
		{
			name:       "out of range cutoff falls back to default",
			now:        ts("2026-03-02T19:00:00Z"),
			cutoffHour: 99,
			wantStart:  ts("2026-03-02T18:00:00Z"),
			wantEnd:    ts("2026-03-02T19:00:00Z"),
		},
		{
			name:       "now before last closure end is an inversion",
			now:        ts("2026-03-01T12:00:00Z"),
			last:       &last,
			cutoffHour: 18,
			wantErr:    ErrPeriodInversion,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, err := Resolve(tt.now, tt.last, tt.cutoffHour)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Resolve() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve() unexpected error: %v", err)
			}
			if !start.Equal(tt.wantStart) {
				t.Errorf("start = %s, want %s", start, tt.wantStart)
			}
			if !end.Equal(tt.wantEnd) {
				t.Errorf("end = %s, want %s", end, tt.wantEnd)
			}
		})
	}
}

func TestResolve_NonUTCInputsNormalize(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, loc) // 14:00 UTC

	start, end, err := Resolve(now, nil, 18)
	if err != nil {
		t.Fatalf("Resolve() unexpected error: %v", err)
	}
	if got, want := start, ts("2026-03-01T18:00:00Z"); !got.Equal(want) {
		t.Errorf("start = %s, want %s", got, want)
	}
	if end.Location() != time.UTC {
		t.Errorf("end location = %v, want UTC", end.Location())
	}
}
