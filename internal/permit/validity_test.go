package permit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func datePtr(year int, month time.Month, day int) *time.Time {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name     string
		issuedAt *time.Time
		now      time.Time
		want     Validity
	}{
		{
			name:     "within issuance year",
			issuedAt: datePtr(2024, time.March, 1),
			now:      time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC),
			want:     ValidityValid,
		},
		{
			name:     "last day of issuance year",
			issuedAt: datePtr(2024, time.March, 1),
			now:      time.Date(2024, time.December, 31, 23, 0, 0, 0, time.UTC),
			want:     ValidityValid,
		},
		{
			name:     "early january grace",
			issuedAt: datePtr(2024, time.March, 1),
			now:      time.Date(2025, time.January, 10, 9, 0, 0, 0, time.UTC),
			want:     ValidityInGracePeriod,
		},
		{
			name:     "last grace day",
			issuedAt: datePtr(2024, time.March, 1),
			now:      time.Date(2025, time.January, 15, 23, 0, 0, 0, time.UTC),
			want:     ValidityInGracePeriod,
		},
		{
			name:     "day after grace",
			issuedAt: datePtr(2024, time.March, 1),
			now:      time.Date(2025, time.January, 16, 0, 30, 0, 0, time.UTC),
			want:     ValidityExpired,
		},
		{
			name:     "years later",
			issuedAt: datePtr(2022, time.May, 20),
			now:      time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC),
			want:     ValidityExpired,
		},
		{
			name:     "no issuance date",
			issuedAt: nil,
			now:      time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC),
			want:     ValidityUnknown,
		},
		{
			name:     "future issuance date",
			issuedAt: datePtr(2026, time.February, 1),
			now:      time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC),
			want:     ValidityValid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.issuedAt, tt.now))
		})
	}
}

func TestYearWindow(t *testing.T) {
	from, to := YearWindow(2025, time.UTC)

	assert.Equal(t, time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, 2025, to.Year())
	assert.Equal(t, time.December, to.Month())
	assert.Equal(t, 31, to.Day())
	assert.True(t, to.Before(time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)))
}
