package usage

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// Binary size thresholds used by FormatSize.
const (
	KB int64 = 1 << 10
	MB int64 = 1 << 20
	GB int64 = 1 << 30
	TB int64 = 1 << 40
)

// unit pairs a suffix with its threshold, largest first.
type unit struct {
	suffix    string
	threshold int64
}

//nolint:gochecknoglobals // Lookup table
var units = []unit{
	{"TB", TB},
	{"GB", GB},
	{"MB", MB},
	{"KB", KB},
}

// FormatSize renders a byte count with the largest binary unit it reaches,
// using two decimals for KB and above and a bare integer for bytes.
// Negative values are clamped to zero.
func FormatSize(sizeBytes int64) string {
	if sizeBytes < 0 {
		sizeBytes = 0
	}

	for _, u := range units {
		if sizeBytes >= u.threshold {
			return fmt.Sprintf("%.2f %s", float64(sizeBytes)/float64(u.threshold), u.suffix)
		}
	}

	return fmt.Sprintf("%d B", sizeBytes)
}

// FormatCount renders an integer with thousands separators (e.g. 1,500).
func FormatCount(n int64) string {
	return humanize.Comma(n)
}
