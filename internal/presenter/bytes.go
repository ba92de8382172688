package presenter

import (
	"fmt"
	"strings"
)

const (
	BYTE = 1.0 << (10 * iota)
	KIBIBYTE
	MEBIBYTE
	GIBIBYTE
	TEBIBYTE
)

// formatBytes renders a size with a 1024-based unit. Zero means unknown.
func formatBytes(bytes int64) string {
	if bytes <= 0 {
		return "?"
	}

	unit := "B"
	value := float64(bytes)

	switch {
	case value >= TEBIBYTE:
		unit = "TB"
		value = value / TEBIBYTE
	case value >= GIBIBYTE:
		unit = "GB"
		value = value / GIBIBYTE
	case value >= MEBIBYTE:
		unit = "MB"
		value = value / MEBIBYTE
	case value >= KIBIBYTE:
		unit = "KB"
		value = value / KIBIBYTE
	}

	stringValue := strings.TrimSuffix(
		fmt.Sprintf("%.2f", value), ".00",
	)

	return fmt.Sprintf("%s %s", stringValue, unit)
}
