package arrivals

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// NoArrivalSortKey ranks messages that carry no usable time after everything else
const NoArrivalSortKey = 99999

// Both feeds' phrasings are accepted: Seoul sends Korean text such as
// "3분45초후[2번째 전]", Gyeonggi messages are rendered as "3m45s[2 stops away]".
// The English units must directly follow the digits so "[2 stops away]" is
// never read as seconds.
var (
	minSecRegex = regexp.MustCompile(`(\d+)(?:분\s*|m)(\d+)(?:초|s)`)
	minRegex    = regexp.MustCompile(`(\d+)(?:분|m)`)
	secRegex    = regexp.MustCompile(`(\d+)(?:초|s)`)

	arrivingSoonPhrases = []string{"곧 도착", "arriving soon"}
)

// ParseArrivalTime converts a displayed arrival message into seconds until
// arrival. It never fails: unrecognized text gets NoArrivalSortKey.
func ParseArrivalTime(msg string) int {
	for _, phrase := range arrivingSoonPhrases {
		if strings.Contains(msg, phrase) {
			return 0
		}
	}

	if m := minSecRegex.FindStringSubmatch(msg); m != nil {
		return toSeconds(m[1], m[2])
	}
	if m := minRegex.FindStringSubmatch(msg); m != nil {
		return toSeconds(m[1], "0")
	}
	if m := secRegex.FindStringSubmatch(msg); m != nil {
		return toSeconds("0", m[1])
	}
	return NoArrivalSortKey
}

// maxMinutes keeps minutes*60 + 59 within int
const maxMinutes = (math.MaxInt - 59) / 60

// toSeconds combines captured digit runs. Runs too long to represent give
// NoArrivalSortKey for the whole message.
func toSeconds(minStr, secStr string) int {
	minutes, err := strconv.Atoi(minStr)
	if err != nil || minutes > maxMinutes {
		return NoArrivalSortKey
	}
	seconds, err := strconv.Atoi(secStr)
	if err != nil || seconds > math.MaxInt-minutes*60 {
		return NoArrivalSortKey
	}
	return minutes*60 + seconds
}
