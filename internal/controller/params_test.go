package controller

import (
	"testing"
	"time"
)

func TestParseISO8601Date(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{in: "2024-01-15", want: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{in: "2024-01-15T10:00:00Z", want: time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)},
		{in: "2024-01-15T10:00:00.5Z", want: time.Date(2024, 1, 15, 10, 0, 0, 500000000, time.UTC)},
		{in: "2024-01-15T11:00:00+01:00", want: time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)},
		{in: "2024-01-15T10:00:00", want: time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)},
		{in: "15/01/2024", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseISO8601Date(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected an error for %q, got %v", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}
