package travel

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"tutorroute/models"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const defaultDistanceMatrixURL = "https://maps.googleapis.com/maps/api/distancematrix/json"

// distanceMatrixResponse is the subset of the Google Distance Matrix response we read.
type distanceMatrixResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Rows         []struct {
		Elements []struct {
			Status   string `json:"status"`
			Duration struct {
				Value int `json:"value"`
			} `json:"duration"`
			Distance struct {
				Value int `json:"value"`
			} `json:"distance"`
		} `json:"elements"`
	} `json:"rows"`
}

// GoogleProvider resolves legs through the Google Distance Matrix API.
type GoogleProvider struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
	Limiter *rate.Limiter
	Logger  *zap.Logger
}

// NewGoogleProvider builds a provider throttled to requestsPerSecond calls.
func NewGoogleProvider(apiKey string, requestsPerSecond float64, timeout time.Duration, logger *zap.Logger) *GoogleProvider {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GoogleProvider{
		APIKey:  apiKey,
		BaseURL: defaultDistanceMatrixURL,
		Client:  &http.Client{Timeout: timeout},
		Limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		Logger:  logger,
	}
}

func (g *GoogleProvider) Leg(ctx context.Context, origin, destination models.Location, mode models.TravelMode) (Leg, error) {
	if g.APIKey == "" {
		return Leg{}, fmt.Errorf("google distance matrix: API key not configured")
	}
	if g.Limiter != nil {
		if err := g.Limiter.Wait(ctx); err != nil {
			return Leg{}, fmt.Errorf("google distance matrix: rate limiter: %w", err)
		}
	}

	q := url.Values{}
	q.Set("origins", formatLatLng(origin))
	q.Set("destinations", formatLatLng(destination))
	q.Set("mode", string(mode))
	q.Set("key", g.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return Leg{}, fmt.Errorf("google distance matrix: build request: %w", err)
	}
	client := g.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return Leg{}, fmt.Errorf("google distance matrix: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Leg{}, fmt.Errorf("google distance matrix: unexpected status %d", resp.StatusCode)
	}

	var body distanceMatrixResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Leg{}, fmt.Errorf("google distance matrix: decode response: %w", err)
	}
	if body.Status != "OK" {
		return Leg{}, fmt.Errorf("google distance matrix: status %s: %s", body.Status, body.ErrorMessage)
	}
	if len(body.Rows) == 0 || len(body.Rows[0].Elements) == 0 {
		return Leg{}, ErrNoRoute
	}
	el := body.Rows[0].Elements[0]
	if el.Status != "OK" {
		g.Logger.Debug("distance matrix element not routable",
			zap.String("status", el.Status), zap.String("mode", string(mode)))
		return Leg{}, ErrNoRoute
	}
	return Leg{DurationSeconds: el.Duration.Value, DistanceMeters: el.Distance.Value}, nil
}

func formatLatLng(l models.Location) string {
	return strconv.FormatFloat(l.Lat, 'f', 6, 64) + "," + strconv.FormatFloat(l.Lng, 'f', 6, 64)
}
