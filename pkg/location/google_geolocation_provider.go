package location

import (
	"context"

	"googlemaps.github.io/maps"
)

type geolocator interface {
	Geolocate(ctx context.Context, r *maps.GeolocationRequest) (*maps.GeolocationResult, error)
}

// GoogleGeolocationProvider uses the Google Maps API to get location data.
type GoogleGeolocationProvider struct {
	client     geolocator // Maps API client for making geolocation requests
	modemIndex int

	wifiScanner func(ctx context.Context) ([]maps.WiFiAccessPoint, error)
	cellScanner func(ctx context.Context, modemIndex int) ([]maps.CellTower, error)
}

// NewGoogleGeolocationProvider creates a new GoogleGeolocationProvider instance.
func NewGoogleGeolocationProvider(apiKey string) (*GoogleGeolocationProvider, error) {
	c, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	return &GoogleGeolocationProvider{
		client:      c,
		wifiScanner: getWiFiAccessPoints,
		cellScanner: getCellTowers,
	}, nil
}

// GetLocation retrieves the device's location using Google Maps Geolocation API.
// WiFi and cell data are best effort; without them the lookup falls back to the IP address.
func (g *GoogleGeolocationProvider) GetLocation(ctx context.Context) (Location, error) {
	req := &maps.GeolocationRequest{
		ConsiderIP: true,
	}

	if wifiAPs, err := g.wifiScanner(ctx); err == nil {
		req.WiFiAccessPoints = wifiAPs
	}
	if cellTowers, err := g.cellScanner(ctx, g.modemIndex); err == nil {
		req.CellTowers = cellTowers
	}

	resp, err := g.client.Geolocate(ctx, req)
	if err != nil {
		return Location{}, err
	}

	return Location{
		Latitude:  resp.Location.Lat,
		Longitude: resp.Location.Lng,
		Accuracy:  resp.Accuracy,
	}, nil
}

// Close is a no-op; the maps client holds no resources.
func (g *GoogleGeolocationProvider) Close() error {
	return nil
}
