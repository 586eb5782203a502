package models

// ArrivalRecord is one route's upcoming-vehicle prediction at one station,
// normalized from whichever upstream feed served it.
// ArrivalMsg1 is always displayable text; ArrivalMsg2 may be empty.
type ArrivalRecord struct {
	RouteID     string `json:"busRouteId"`
	RouteName   string `json:"rtNm"`
	RouteType   string `json:"routeType"`
	ArrivalMsg1 string `json:"arrmsg1"`
	ArrivalMsg2 string `json:"arrmsg2"`
	Direction   string `json:"direction"`
	StationID   string `json:"arsId"`
}

// RankedArrival is an ArrivalRecord with the seconds-until-arrival key used for ordering
type RankedArrival struct {
	ArrivalRecord
	SortKey int `json:"sortKey"`
}
