package seoul

import (
	"context"
	"fmt"
	"log"
	"net/url"

	"golang.org/x/sync/errgroup"

	"github.com/busnow/api/internal/upstream"
	"github.com/busnow/api/models"
)

const (
	DefaultRoutesURL   = "http://ws.bus.go.kr/api/rest/stationinfo/getRouteByStation"
	DefaultArrivalsURL = "http://ws.bus.go.kr/api/rest/stationinfo/getStationByUid"

	// Feed names reported to the upstream observer
	FeedRoutes   = "seoul.routes"
	FeedArrivals = "seoul.arrivals"

	// NoArrivalInfo is arrmsg1 for a route that passes the station but has no live prediction
	NoArrivalInfo = "no arrival information"
)

// header codes returned in msgHeader.headerCd
const (
	headerOK     = "0"
	headerNoData = "4"
)

// Route is one entry of the routes-by-station call
type Route struct {
	RouteID   upstream.FlexString `json:"busRouteId"`
	RouteName upstream.FlexString `json:"busRouteNm"`
	RouteType upstream.FlexString `json:"busRouteType"`
}

// Arrival is one entry of the arrivals-by-station call
type Arrival struct {
	RouteID     upstream.FlexString `json:"busRouteId"`
	RouteName   upstream.FlexString `json:"rtNm"`
	ArrivalMsg1 string              `json:"arrmsg1"`
	ArrivalMsg2 string              `json:"arrmsg2"`
	Direction   string              `json:"adirection"`
}

type envelope[T any] struct {
	MsgHeader struct {
		HeaderCd  upstream.FlexString `json:"headerCd"`
		HeaderMsg string              `json:"headerMsg"`
	} `json:"msgHeader"`
	MsgBody struct {
		ItemList upstream.OneOrMany[T] `json:"itemList"`
	} `json:"msgBody"`
}

// Client fetches arrivals from the Seoul Metropolitan Bus feed, which splits
// route metadata and live predictions across two calls joined by route id
type Client struct {
	http        *upstream.Client
	serviceKey  string
	routesURL   string
	arrivalsURL string
}

// NewClient creates a Seoul feed client. Empty URLs fall back to the public endpoints.
func NewClient(httpClient *upstream.Client, serviceKey, routesURL, arrivalsURL string) *Client {
	if routesURL == "" {
		routesURL = DefaultRoutesURL
	}
	if arrivalsURL == "" {
		arrivalsURL = DefaultArrivalsURL
	}
	return &Client{
		http:        httpClient,
		serviceKey:  serviceKey,
		routesURL:   routesURL,
		arrivalsURL: arrivalsURL,
	}
}

// Arrivals returns one record per route passing the station. Failures in either
// call are logged and treated as an empty result for that call only.
func (c *Client) Arrivals(ctx context.Context, arsID string) []models.ArrivalRecord {
	var (
		routes   []Route
		arrivals []Arrival
	)

	// Neither goroutine returns an error, so one failure never cancels the other call
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := c.fetchRoutes(gctx, arsID)
		if err != nil {
			log.Printf("Seoul: failed to fetch routes for %s (continuing with none): %v", arsID, err)
		}
		routes = r
		return nil
	})
	g.Go(func() error {
		a, err := c.fetchArrivals(gctx, arsID)
		if err != nil {
			log.Printf("Seoul: failed to fetch arrivals for %s (continuing with none): %v", arsID, err)
		}
		arrivals = a
		return nil
	})
	_ = g.Wait()

	return Merge(arsID, routes, arrivals)
}

// Merge joins the route list with live arrivals by route id, keeping route order.
// Routes without a live entry get the NoArrivalInfo sentinel.
func Merge(arsID string, routes []Route, arrivals []Arrival) []models.ArrivalRecord {
	byRoute := make(map[string]Arrival, len(arrivals))
	for _, a := range arrivals {
		byRoute[a.RouteID.String()] = a
	}

	records := make([]models.ArrivalRecord, 0, len(routes))
	for _, r := range routes {
		rec := models.ArrivalRecord{
			RouteID:     r.RouteID.String(),
			RouteName:   r.RouteName.String(),
			RouteType:   r.RouteType.String(),
			ArrivalMsg1: NoArrivalInfo,
			StationID:   arsID,
		}
		if a, ok := byRoute[rec.RouteID]; ok {
			rec.ArrivalMsg1 = a.ArrivalMsg1
			rec.ArrivalMsg2 = a.ArrivalMsg2
			rec.Direction = a.Direction
			if rec.ArrivalMsg1 == "" {
				rec.ArrivalMsg1 = NoArrivalInfo
			}
		}
		records = append(records, rec)
	}
	return records
}

func (c *Client) params(arsID string) url.Values {
	return url.Values{
		"serviceKey": {c.serviceKey},
		"arsId":      {arsID},
		"resultType": {"json"},
	}
}

func (c *Client) fetchRoutes(ctx context.Context, arsID string) ([]Route, error) {
	var body envelope[Route]
	if err := c.http.GetJSON(ctx, FeedRoutes, c.routesURL, c.params(arsID), &body); err != nil {
		return nil, err
	}
	if err := checkHeader(body.MsgHeader.HeaderCd.String(), body.MsgHeader.HeaderMsg); err != nil {
		return nil, err
	}
	return body.MsgBody.ItemList, nil
}

func (c *Client) fetchArrivals(ctx context.Context, arsID string) ([]Arrival, error) {
	var body envelope[Arrival]
	if err := c.http.GetJSON(ctx, FeedArrivals, c.arrivalsURL, c.params(arsID), &body); err != nil {
		return nil, err
	}
	if err := checkHeader(body.MsgHeader.HeaderCd.String(), body.MsgHeader.HeaderMsg); err != nil {
		return nil, err
	}
	return body.MsgBody.ItemList, nil
}

// checkHeader turns an application-level error code into ErrUnavailable.
// A missing header is accepted since older responses omit it.
func checkHeader(code, msg string) error {
	switch code {
	case "", headerOK, headerNoData:
		return nil
	default:
		return fmt.Errorf("%w: headerCd %s: %s", upstream.ErrUnavailable, code, msg)
	}
}
