package arrivals

import (
	"strconv"
	"testing"
)

func TestParseArrivalTime(t *testing.T) {
	tests := []struct {
		msg      string
		expected int
	}{
		// Arriving soon
		{"곧 도착", 0},
		{"arriving soon", 0},
		{"arriving soon[2 stops away]", 0},

		// Minutes and seconds
		{"3분45초후[2번째 전]", 225},
		{"3분 45초", 225},
		{"3m45s", 225},
		{"2m5s[3 stops away]", 125},
		{"10m10s[9 stops away]", 610},

		// Minutes only
		{"5분후[3번째 전]", 300},
		{"5m", 300},

		// Seconds only
		{"20초후[1번째 전]", 20},
		{"40s", 40},

		// No usable time
		{"no information", NoArrivalSortKey},
		{"no information[4 stops away]", NoArrivalSortKey},
		{"no arrival information", NoArrivalSortKey},
		{"운행종료", NoArrivalSortKey},
		{"출발대기", NoArrivalSortKey},
		{"", NoArrivalSortKey},

		// Digit runs too long for an int
		{"153722867280912931분", NoArrivalSortKey},
		{"99999999999999999999분5초", NoArrivalSortKey},
		{"5분99999999999999999999초", NoArrivalSortKey},
		{"99999999999999999999s", NoArrivalSortKey},
		{strconv.Itoa(maxMinutes) + "m59s", maxMinutes*60 + 59},
		{strconv.Itoa(maxMinutes+1) + "m", NoArrivalSortKey},
	}

	for _, tc := range tests {
		t.Run(tc.msg, func(t *testing.T) {
			if got := ParseArrivalTime(tc.msg); got != tc.expected {
				t.Errorf("ParseArrivalTime(%q) = %d, expected %d", tc.msg, got, tc.expected)
			}
		})
	}
}
