package monitor

import (
	"fmt"
	"time"
)

// FormatTemperature formats degrees Celsius as "X.X°C"
func FormatTemperature(celsius float64) string {
	return fmt.Sprintf("%.1f°C", celsius)
}

// FormatHumidity formats relative humidity as "X%"
func FormatHumidity(pct float64) string {
	return fmt.Sprintf("%.0f%%", pct)
}

// FormatPercentage formats a ratio (0-1) as percentage
func FormatPercentage(ratio float64) string {
	return fmt.Sprintf("%.1f%%", ratio*100)
}

// FormatAge formats how long ago a reading was taken as "Xs", "Xm Ys" or "Xh Ym".
func FormatAge(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	seconds := int64(d / time.Second)
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	return FormatDuration(seconds)
}

// FormatDuration formats duration in seconds to "Xh Ym" or "Xm Ys"
func FormatDuration(seconds int64) string {
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm %ds", minutes, seconds%60)
}
