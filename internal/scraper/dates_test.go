package scraper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want *time.Time
	}{
		{
			name: "rfc3339 normalized to utc",
			raw:  "2024-03-15T10:00:00Z",
			want: timePtr(time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)),
		},
		{
			name: "rfc3339 with offset",
			raw:  "2024-03-15T12:00:00+02:00",
			want: timePtr(time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)),
		},
		{
			name: "iso without zone",
			raw:  "2024-03-15T10:00:00",
			want: timePtr(time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)),
		},
		{
			name: "plain iso date",
			raw:  "2024-03-15",
			want: timePtr(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)),
		},
		{
			name: "greek convention day first slash",
			raw:  "15/03/2024",
			want: timePtr(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)),
		},
		{
			name: "day first dash",
			raw:  "15-03-2024",
			want: timePtr(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)),
		},
		{
			name: "year first slash",
			raw:  "2024/03/15",
			want: timePtr(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)),
		},
		{
			name: "long form day first",
			raw:  "15 March 2024",
			want: timePtr(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)),
		},
		{
			name: "long form month first",
			raw:  "March 15, 2024",
			want: timePtr(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)),
		},
		{
			name: "surrounding whitespace",
			raw:  "  2024-03-15  ",
			want: timePtr(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)),
		},
		{name: "unparsable", raw: "not a date", want: nil},
		{name: "empty", raw: "", want: nil},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ParseDate(tt.raw)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.True(t, tt.want.Equal(*got), "want %v, got %v", tt.want, got)
		})
	}
}

func timePtr(t time.Time) *time.Time {
	return &t
}
