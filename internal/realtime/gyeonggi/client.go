package gyeonggi

import (
	"context"
	"fmt"
	"log"
	"net/url"

	"github.com/busnow/api/internal/upstream"
	"github.com/busnow/api/models"
)

const (
	DefaultArrivalsURL = "https://apis.data.go.kr/6410000/busarrivalservice/v2/getBusArrivalListv2"

	FeedArrivals = "gyeonggi.arrivals"
)

// result codes returned in msgHeader.resultCode
const (
	resultOK     = "0"
	resultNoData = "4"
)

// Item is one route entry of the combined arrivals call
type Item struct {
	RouteID         upstream.FlexString `json:"routeId"`
	RouteName       upstream.FlexString `json:"routeName"`
	RouteTypeCd     upstream.FlexString `json:"routeTypeCd"`
	RouteDestName   string              `json:"routeDestName"`
	PredictTimeSec1 upstream.FlexInt    `json:"predictTimeSec1"`
	PredictTimeSec2 upstream.FlexInt    `json:"predictTimeSec2"`
	LocationNo1     upstream.FlexInt    `json:"locationNo1"`
	LocationNo2     upstream.FlexInt    `json:"locationNo2"`
}

type response struct {
	Response struct {
		MsgHeader struct {
			ResultCode    upstream.FlexString `json:"resultCode"`
			ResultMessage string              `json:"resultMessage"`
		} `json:"msgHeader"`
		MsgBody struct {
			BusArrivalList upstream.OneOrMany[Item] `json:"busArrivalList"`
		} `json:"msgBody"`
	} `json:"response"`
}

// Client fetches arrivals from the Gyeonggi Province Bus feed
type Client struct {
	http       *upstream.Client
	serviceKey string
	url        string
}

// NewClient creates a Gyeonggi feed client. httpClient should carry the
// feed's LegacyTransport.
func NewClient(httpClient *upstream.Client, serviceKey, arrivalsURL string) *Client {
	if arrivalsURL == "" {
		arrivalsURL = DefaultArrivalsURL
	}
	return &Client{
		http:       httpClient,
		serviceKey: serviceKey,
		url:        arrivalsURL,
	}
}

// Arrivals returns one record per route serving the station. Any failure is
// logged and yields an empty list.
func (c *Client) Arrivals(ctx context.Context, stationID string) []models.ArrivalRecord {
	items, err := c.fetch(ctx, stationID)
	if err != nil {
		log.Printf("Gyeonggi: failed to fetch arrivals for %s: %v", stationID, err)
		return []models.ArrivalRecord{}
	}

	records := make([]models.ArrivalRecord, 0, len(items))
	for _, item := range items {
		records = append(records, Normalize(stationID, item))
	}
	return records
}

// Normalize converts one feed item into an ArrivalRecord. The second message
// is empty unless a second vehicle has a positive prediction.
func Normalize(stationID string, item Item) models.ArrivalRecord {
	msg2 := ""
	if item.PredictTimeSec2.Int() > 0 {
		msg2 = FormatArrivalMessage(item.PredictTimeSec2.Int(), item.LocationNo2.Int())
	}
	return models.ArrivalRecord{
		RouteID:     item.RouteID.String(),
		RouteName:   item.RouteName.String(),
		RouteType:   item.RouteTypeCd.String(),
		ArrivalMsg1: FormatArrivalMessage(item.PredictTimeSec1.Int(), item.LocationNo1.Int()),
		ArrivalMsg2: msg2,
		Direction:   item.RouteDestName,
		StationID:   stationID,
	}
}

func (c *Client) fetch(ctx context.Context, stationID string) ([]Item, error) {
	params := url.Values{
		"serviceKey": {c.serviceKey},
		"stationId":  {stationID},
		"format":     {"json"},
	}

	var body response
	if err := c.http.GetJSON(ctx, FeedArrivals, c.url, params, &body); err != nil {
		return nil, err
	}

	switch code := body.Response.MsgHeader.ResultCode.String(); code {
	case "", resultOK, resultNoData:
	default:
		return nil, fmt.Errorf("%w: resultCode %s: %s", upstream.ErrUnavailable, code, body.Response.MsgHeader.ResultMessage)
	}
	return body.Response.MsgBody.BusArrivalList, nil
}
