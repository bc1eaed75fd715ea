package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeInterval(t *testing.T) {
	tests := []struct {
		input   string
		want    TimeInterval
		wantErr bool
	}{
		{input: "6m", want: TimeInterval{Months: 6}},
		{input: "1y", want: TimeInterval{Years: 1}},
		{input: "1y:2m:1w:3d", want: TimeInterval{Years: 1, Months: 2, Weeks: 1, Days: 3}},
		{input: "2w:3d", want: TimeInterval{Weeks: 2, Days: 3}},
		{input: "10d", want: TimeInterval{Days: 10}},
		{input: "", wantErr: true},
		{input: ":", wantErr: true},
		{input: "3x", wantErr: true},
		{input: "d", wantErr: true},
		{input: "3d:1m", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTimeInterval(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestTimeIntervalBefore(t *testing.T) {
	now := time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC)

	ti := &TimeInterval{Years: 1, Months: 1, Weeks: 1, Days: 1}
	assert.Equal(t, time.Date(2023, 2, 23, 12, 0, 0, 0, time.UTC), ti.Before(now))
	assert.Equal(t, 8*24*time.Hour, ti.ToDuration())
}
