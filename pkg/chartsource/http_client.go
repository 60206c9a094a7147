package chartsource

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	canvas "github.com/goliatone/go-canvas/components/canvas"
)

// DefaultPathTemplate is the chart listing path; {user} is replaced by the
// escaped user id.
const DefaultPathTemplate = "/charts/{user}"

const (
	defaultMaxFailures uint32 = 5
	defaultOpenTimeout        = 30 * time.Second
	defaultInterval           = 60 * time.Second
	maxResponseBytes          = 8 << 20
)

// ErrUnavailable wraps failures caused by the breaker refusing the call.
var ErrUnavailable = errors.New("chartsource: service unavailable")

// StatusError is a non-2xx answer from the chart service.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("chartsource: remote error %d: %s", e.Code, e.Body)
}

// countsAsSuccess keeps per-user answers (4xx) and caller cancellation from
// tripping the breaker shared by every user. Timeouts and throttling still
// count as failures.
func countsAsSuccess(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var status *StatusError
	if errors.As(err, &status) {
		return status.Code >= 400 && status.Code < 500 &&
			status.Code != http.StatusRequestTimeout && status.Code != http.StatusTooManyRequests
	}
	return false
}

// BreakerConfig tunes the circuit breaker in front of the remote service.
type BreakerConfig struct {
	MaxFailures uint32        `yaml:"max_failures" koanf:"max_failures"`
	Timeout     time.Duration `yaml:"timeout" koanf:"timeout"`
	Interval    time.Duration `yaml:"interval" koanf:"interval"`
}

// HTTPConfig configures the HTTP chart source.
type HTTPConfig struct {
	BaseURL      string
	Token        string
	PathTemplate string
	HTTPClient   *http.Client
	Breaker      BreakerConfig
	Logger       *zap.Logger
}

// HTTPClient lists a user's charts from the analysis service.
type HTTPClient struct {
	baseURL string
	token   string
	path    string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	logger  *zap.Logger
}

var _ canvas.ChartSource = (*HTTPClient)(nil)

// NewHTTPClient builds a client for the remote chart listing endpoint.
func NewHTTPClient(cfg HTTPConfig) (*HTTPClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("chartsource: base url is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	path := cfg.PathTemplate
	if path == "" {
		path = DefaultPathTemplate
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &HTTPClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		path:    path,
		client:  httpClient,
		logger:  logger,
	}
	c.breaker = newBreaker(cfg.Breaker, logger)
	return c, nil
}

func newBreaker(cfg BreakerConfig, logger *zap.Logger) *gobreaker.CircuitBreaker[[]byte] {
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = defaultMaxFailures
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultOpenTimeout
	}
	interval := cfg.Interval
	if interval == 0 {
		interval = defaultInterval
	}
	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:         "chartsource",
		MaxRequests:  1,
		Interval:     interval,
		Timeout:      timeout,
		IsSuccessful: countsAsSuccess,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
}

// FetchCharts implements canvas.ChartSource. Entries that cannot be decoded
// at all are skipped; entries with an unusable definition keep their place
// with the placeholder definition.
func (c *HTTPClient) FetchCharts(ctx context.Context, userID string) ([]canvas.ChartEntry, error) {
	if userID == "" {
		return nil, canvas.ErrMissingUser
	}
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.get(ctx, userID)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return nil, err
	}
	entries, skipped, err := DecodeCharts(body)
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		c.logger.Warn("skipped undecodable chart entries",
			zap.String("user_id", userID),
			zap.Int("skipped", skipped),
		)
	}
	return entries, nil
}

func (c *HTTPClient) get(ctx context.Context, userID string) ([]byte, error) {
	endpoint := c.baseURL + strings.ReplaceAll(c.path, "{user}", url.PathEscape(userID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("chartsource: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chartsource: http request: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("chartsource: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return body, nil
}

type chartList struct {
	Charts []json.RawMessage `json:"charts"`
}

// DecodeCharts parses a chart listing: either a bare array of entries or an
// object with a "charts" array. It reports how many entries were skipped.
func DecodeCharts(body []byte) ([]canvas.ChartEntry, int, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, 0, errors.New("chartsource: empty response")
	}
	var raw []json.RawMessage
	switch body[0] {
	case '[':
		if err := json.Unmarshal(body, &raw); err != nil {
			return nil, 0, fmt.Errorf("chartsource: decode response: %w", err)
		}
	case '{':
		var list chartList
		if err := json.Unmarshal(body, &list); err != nil {
			return nil, 0, fmt.Errorf("chartsource: decode response: %w", err)
		}
		raw = list.Charts
	default:
		return nil, 0, errors.New("chartsource: response is not a chart list")
	}
	entries := make([]canvas.ChartEntry, 0, len(raw))
	skipped := 0
	for _, item := range raw {
		var entry canvas.ChartEntry
		if err := json.Unmarshal(item, &entry); err != nil {
			skipped++
			continue
		}
		entries = append(entries, entry)
	}
	return entries, skipped, nil
}
