package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"ridelink/internal/config"
	"ridelink/internal/ride-service/core/domain/model"
	"ridelink/internal/ride-service/core/myerrors"
	"ridelink/internal/ride-service/core/ports"

	"github.com/twpayne/go-polyline"
)

// Client talks to the external geocoding/routing collaborator:
//
//	GET /geocode?q=<address>           -> {"lat": .., "lng": ..}
//	GET /route?from=<lat,lng>&to=...   -> {"polyline": .., "distance_meters": .., "duration_seconds": ..}
//
// Failures are user-facing: NotFound/NoRoute come back as upstream errors
// and are never retried here.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(cfg *config.Routingconfig) ports.IRoutingClient {
	return &Client{
		baseURL: cfg.BaseURL,
		http: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
	}
}

type geocodeResponse struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type routeResponse struct {
	Polyline        string  `json:"polyline"`
	DistanceMeters  float64 `json:"distance_meters"`
	DurationSeconds float64 `json:"duration_seconds"`
}

func (c *Client) Geocode(ctx context.Context, address string) (model.LatLng, error) {
	u := fmt.Sprintf("%s/geocode?q=%s", c.baseURL, url.QueryEscape(address))

	var res geocodeResponse
	if err := c.getJSON(ctx, u, &res); err != nil {
		if myerrors.KindOf(err) == myerrors.KindNotFound {
			return model.LatLng{}, myerrors.ErrAddressNotFound
		}
		return model.LatLng{}, err
	}
	return model.LatLng{Lat: res.Lat, Lng: res.Lng}, nil
}

func (c *Client) Route(ctx context.Context, from, to model.LatLng) (ports.RouteResult, error) {
	u := fmt.Sprintf("%s/route?from=%f,%f&to=%f,%f", c.baseURL, from.Lat, from.Lng, to.Lat, to.Lng)

	var res routeResponse
	if err := c.getJSON(ctx, u, &res); err != nil {
		if myerrors.KindOf(err) == myerrors.KindNotFound {
			return ports.RouteResult{}, myerrors.ErrRouteResolutionFailed
		}
		return ports.RouteResult{}, err
	}

	points, err := decodeRoute(res.Polyline)
	if err != nil {
		return ports.RouteResult{}, myerrors.Wrap(myerrors.KindUpstream, "malformed route polyline", err)
	}

	return ports.RouteResult{
		Polyline:        res.Polyline,
		Points:          points,
		DistanceMeters:  res.DistanceMeters,
		DurationSeconds: res.DurationSeconds,
	}, nil
}

func (c *Client) getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return myerrors.Wrap(myerrors.KindUpstream, "build routing request", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return myerrors.Wrap(myerrors.KindUpstream, "routing service unreachable", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return myerrors.E(myerrors.KindNotFound, "routing service: not found")
	case resp.StatusCode != http.StatusOK:
		return myerrors.E(myerrors.KindUpstream, fmt.Sprintf("routing service returned %d", resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return myerrors.Wrap(myerrors.KindUpstream, "decode routing response", err)
	}
	return nil
}

// decodeRoute expands the compact polyline into the redundant point
// sequence stored on the ride.
func decodeRoute(encoded string) ([]model.LatLng, error) {
	if encoded == "" {
		return nil, nil
	}
	coords, _, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, err
	}
	points := make([]model.LatLng, 0, len(coords))
	for _, c := range coords {
		points = append(points, model.LatLng{Lat: c[0], Lng: c[1]})
	}
	return points, nil
}
