package util

import "fmt"

var byteUnits = []string{"B", "KB", "MB", "GB", "TB", "PB"}

// FormatBytes renders a byte count in a human-readable unit, e.g.
// "45.23 MB".
func FormatBytes(size int64) string {
	value := float64(size)

	for _, unit := range byteUnits {
		if value < 1024.0 || unit == byteUnits[len(byteUnits)-1] {
			return fmt.Sprintf("%.2f %s", value, unit)
		}
		value /= 1024.0
	}

	return fmt.Sprintf("%.2f B", value)
}
