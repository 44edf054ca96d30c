package distance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"route-optimizer-service/internal/domain"
	"route-optimizer-service/internal/metrics"
	"route-optimizer-service/internal/platform/obs"
	"route-optimizer-service/internal/ports"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultOSRMBaseURL = "http://router.project-osrm.org"
	defaultOSRMTimeout = 10 * time.Second
)

// OSRMDistanceProvider implements DistanceMatrixProvider using the OSRM table service.
//
// One GetMatrix call issues exactly one table request. Requests are throttled
// client-side and bounded by the HTTP client timeout; failures are never retried.
// The provider is safe for concurrent use.
type OSRMDistanceProvider struct {
	session *http.Client
	baseURL string
	profile string
	limiter *rate.Limiter
}

// OSRMOptions configures an OSRMDistanceProvider. Zero values select defaults.
type OSRMOptions struct {
	BaseURL string
	Timeout time.Duration
	// RequestsPerSecond <= 0 disables throttling.
	RequestsPerSecond float64
}

func NewOSRMDistanceProvider(opts OSRMOptions) *OSRMDistanceProvider {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultOSRMBaseURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultOSRMTimeout
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	return &OSRMDistanceProvider{
		session: &http.Client{Timeout: timeout},
		baseURL: baseURL,
		profile: "driving",
		limiter: limiter,
	}
}

type osrmTableResponse struct {
	Code      string       `json:"code"`
	Message   string       `json:"message"`
	Distances [][]*float64 `json:"distances"`
	Durations [][]*float64 `json:"durations"`
}

// GetMatrix returns N×N distances (meters) and durations (seconds) for coords, in order.
func (o *OSRMDistanceProvider) GetMatrix(
	ctx context.Context,
	coords []domain.Coordinates,
) (_ *ports.TravelMatrix, err error) {
	defer obs.Time(ctx, "osrm.GetMatrix")(&err)
	defer func() {
		if err != nil {
			metrics.ProviderRequests.WithLabelValues("error").Inc()
		} else {
			metrics.ProviderRequests.WithLabelValues("ok").Inc()
		}
	}()

	n := len(coords)
	if n == 0 {
		return &ports.TravelMatrix{Distances: [][]float64{}, Durations: [][]float64{}}, nil
	}

	if err := o.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("osrm get matrix: rate limiter: %w: %v", ports.ErrProviderTimeout, err)
	}

	parts := make([]string, n)
	for i, c := range coords {
		lonLat := c.CoordsToList()
		parts[i] = fmt.Sprintf("%.6f,%.6f", lonLat[0], lonLat[1])
	}
	endpoint := fmt.Sprintf(
		"%s/table/v1/%s/%s?annotations=distance,duration",
		o.baseURL, o.profile, strings.Join(parts, ";"),
	)

	req, err := o.newRequest(ctx, http.MethodGet, endpoint)
	if err != nil {
		return nil, fmt.Errorf("osrm get matrix: %w", err)
	}

	resp, err := o.do(req)
	if err != nil {
		return nil, fmt.Errorf("osrm get matrix: %w", err)
	}
	defer resp.Body.Close()

	var tr osrmTableResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		if terr := classifyTransportError(err); errors.Is(terr, ports.ErrProviderTimeout) {
			return nil, fmt.Errorf("osrm get matrix: read response: %w", terr)
		}
		return nil, fmt.Errorf("osrm get matrix: decode response: %w: %v", ports.ErrMalformedMatrix, err)
	}

	if tr.Code != "" && tr.Code != "Ok" {
		return nil, fmt.Errorf("osrm get matrix: code %q %s: %w", tr.Code, tr.Message, ports.ErrMalformedMatrix)
	}

	distances, err := squareMatrix("distances", tr.Distances, n)
	if err != nil {
		return nil, fmt.Errorf("osrm get matrix: %w", err)
	}
	durations, err := squareMatrix("durations", tr.Durations, n)
	if err != nil {
		return nil, fmt.Errorf("osrm get matrix: %w", err)
	}

	return &ports.TravelMatrix{Distances: distances, Durations: durations}, nil
}

// squareMatrix converts an OSRM annotation into an n×n matrix.
// A missing annotation, a wrong shape or a null cell is malformed.
func squareMatrix(name string, raw [][]*float64, n int) ([][]float64, error) {
	if raw == nil {
		return nil, fmt.Errorf("%s missing: %w", name, ports.ErrMalformedMatrix)
	}
	if len(raw) != n {
		return nil, fmt.Errorf("%s has %d rows, want %d: %w", name, len(raw), n, ports.ErrMalformedMatrix)
	}

	out := make([][]float64, n)
	for i, row := range raw {
		if len(row) != n {
			return nil, fmt.Errorf("%s row %d has %d cells, want %d: %w", name, i, len(row), n, ports.ErrMalformedMatrix)
		}
		out[i] = make([]float64, n)
		for j, cell := range row {
			if cell == nil {
				return nil, fmt.Errorf("%s[%d][%d] is null: %w", name, i, j, ports.ErrMalformedMatrix)
			}
			out[i][j] = *cell
		}
	}
	return out, nil
}
