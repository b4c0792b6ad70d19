package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/healthweb/planboard/internal/domain"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// maxWeekBodyBytes caps the size of a week response we are willing to decode
const maxWeekBodyBytes = 2 << 20

// PlanAPIClient implements domain.WeekPlanFetcher against the plan REST API
type PlanAPIClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewPlanAPIClient creates a client for the plan API rooted at baseURL (e.g. http://host/api)
func NewPlanAPIClient(baseURL string, timeout time.Duration) *PlanAPIClient {
	return &PlanAPIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// FetchWeek handles GET /plans/weeks?matchId=&weekStart=
// The caller's bearer token is taken from the context.
func (c *PlanAPIClient) FetchWeek(ctx context.Context, matchID int64, weekStart time.Time) (*domain.PlanWeek, error) {
	query := url.Values{}
	query.Set("matchId", strconv.FormatInt(matchID, 10))
	query.Set("weekStart", domain.DateKey(weekStart))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/plans/weeks?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if token := domain.AccessTokenFromContext(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("plan api request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxWeekBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read plan api response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, domain.ErrWeekNotFound
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("plan api returned status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var week domain.PlanWeek
	if err := json.Unmarshal(body, &week); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedWeek, err)
	}
	return &week, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
