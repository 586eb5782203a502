package gyeonggi

import "fmt"

const (
	NoInformation = "no information"
	ArrivingSoon  = "arriving soon"
)

// FormatTime renders predicted seconds-until-arrival as display text
func FormatTime(seconds int) string {
	if seconds <= 0 {
		return NoInformation
	}
	if seconds <= 60 {
		return ArrivingSoon
	}
	minutes := seconds / 60
	remaining := seconds % 60
	if minutes > 0 {
		return fmt.Sprintf("%dm%ds", minutes, remaining)
	}
	return fmt.Sprintf("%ds", remaining)
}

// FormatArrivalMessage appends the stops-away count when the feed reports one
func FormatArrivalMessage(seconds, stopsAway int) string {
	text := FormatTime(seconds)
	if stopsAway > 0 {
		return fmt.Sprintf("%s[%d stops away]", text, stopsAway)
	}
	return text
}
