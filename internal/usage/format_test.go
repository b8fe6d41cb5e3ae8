package usage_test

import (
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idelchi/mailusage/internal/usage"
)

func TestFormatSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 B"},
		{1, "1 B"},
		{1023, "1023 B"},
		{1024, "1.00 KB"},
		{1500, "1.46 KB"},
		{2000, "1.95 KB"},
		{2048, "2.00 KB"},
		{3 * usage.MB, "3.00 MB"},
		{3 * usage.GB / 2, "1.50 GB"},
		{usage.TB, "1.00 TB"},
		{2048 * usage.TB, "2048.00 TB"},
		{-5, "0 B"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(strconv.FormatInt(tt.bytes, 10), func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, usage.FormatSize(tt.bytes))
		})
	}
}

func TestFormatSizeRoundTrip(t *testing.T) {
	t.Parallel()

	factors := map[string]int64{"B": 1, "KB": usage.KB, "MB": usage.MB, "GB": usage.GB, "TB": usage.TB}

	for _, b := range []int64{0, 7, 999, 1024, 1025, 65535, 1048575, 1048576, 123456789, 987654321012, 5 * usage.TB, math.MaxInt64} {
		formatted := usage.FormatSize(b)

		fields := strings.Fields(formatted)
		require.Len(t, fields, 2, formatted)

		factor, ok := factors[fields[1]]
		require.True(t, ok, "unknown unit in %q", formatted)

		n, err := strconv.ParseFloat(fields[0], 64)
		require.NoError(t, err)

		// Two decimals leave at most half a hundredth of a unit of error.
		assert.InDelta(t, float64(b), n*float64(factor), 0.005*float64(factor)+1, formatted)
	}
}

func TestFormatCount(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "0", usage.FormatCount(0))
	assert.Equal(t, "1,500", usage.FormatCount(1500))
	assert.Equal(t, "1,073,741,824", usage.FormatCount(usage.GB))
}

func TestSizeHumanFollowsSizeBytes(t *testing.T) {
	t.Parallel()

	record := usage.UsageRecord{Account: "u1", Email: "e2@d1", Domain: "d1", SizeBytes: 1500}
	assert.Equal(t, "1.46 KB", record.SizeHuman())

	record.SizeBytes = 0
	assert.Equal(t, "0 B", record.SizeHuman())
}
