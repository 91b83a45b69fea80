package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
)

// ChartsOptions parameterise the analytics API client.
type ChartsOptions struct {
	BaseURL        string
	Platform       string
	ClientID       string
	Token          string
	TestingMode    bool
	TopN           int
	RankingWindow  string
	Timeout        time.Duration
	PoliteInterval time.Duration
	RetryMax       int
	RetryWaitMin   time.Duration
	RetryWaitMax   time.Duration
}

// Charts speaks to the streams-charts analytics API.
type Charts struct {
	opts    ChartsOptions
	logger  zerolog.Logger
	client  *retryablehttp.Client
	limiter *throttle
	baseURL string
}

// NewCharts constructs an analytics API client.
func NewCharts(opts ChartsOptions, logger zerolog.Logger) *Charts {
	if opts.Platform == "" {
		opts.Platform = "twitch"
	}
	if opts.TopN <= 0 {
		opts.TopN = 20
	}
	if opts.RankingWindow == "" {
		opts.RankingWindow = Window7Days
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.PoliteInterval <= 0 {
		opts.PoliteInterval = 200 * time.Millisecond
	}

	client := retryablehttp.NewClient()
	client.HTTPClient.Timeout = opts.Timeout
	client.RetryMax = opts.RetryMax
	if opts.RetryWaitMin > 0 {
		client.RetryWaitMin = opts.RetryWaitMin
	}
	if opts.RetryWaitMax > 0 {
		client.RetryWaitMax = opts.RetryWaitMax
	}
	client.Logger = nil

	return &Charts{
		opts:    opts,
		logger:  logger.With().Str("component", "charts_client").Logger(),
		client:  client,
		limiter: newThrottle(opts.PoliteInterval),
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
	}
}

type rankingItem struct {
	ChannelName    string `json:"channel_name"`
	AverageViewers *int   `json:"average_viewers"`
}

type rankingResponse struct {
	Data []rankingItem `json:"data"`
}

// FetchRanking returns the top-N channel names for the configured window,
// sorted descending by average viewers. Ties keep the response order.
func (c *Charts) FetchRanking(ctx context.Context) ([]string, error) {
	endpoint := c.channelsURL("", c.opts.RankingWindow)

	body, status, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: ranking request: %v", ErrSourceUnavailable, err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: ranking status %d: %s", ErrSourceUnavailable, status, trimBody(body))
	}

	var parsed rankingResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: decode ranking: %v", ErrSourceUnavailable, err)
	}

	items := parsed.Data
	sort.SliceStable(items, func(i, j int) bool {
		return viewersOrZero(items[i]) > viewersOrZero(items[j])
	})
	if len(items) > c.opts.TopN {
		items = items[:c.opts.TopN]
	}

	keys := make([]string, 0, len(items))
	for _, item := range items {
		keys = append(keys, item.ChannelName)
	}

	c.logger.Info().Int("count", len(keys)).Str("window", c.opts.RankingWindow).Msg("fetched streamer ranking")
	return keys, nil
}

type historyPayload struct {
	AverageViewers *int `json:"average_viewers"`
	StreamDays     *int `json:"stream_days"`
}

type historyResponse struct {
	Data *historyPayload `json:"data"`
}

// FetchHistory returns one streamer's snapshot for one window, tagged with
// the window label, or nil when the response carries no data.
func (c *Charts) FetchHistory(ctx context.Context, entity, window string) (*HistoryRecord, error) {
	if err := c.limiter.wait(ctx); err != nil {
		return nil, err
	}

	endpoint := c.channelsURL(entity, window)

	body, status, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: history request for %s (%s): %v", ErrSourceUnavailable, entity, window, err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: history status %d for %s (%s): %s", ErrSourceUnavailable, status, entity, window, trimBody(body))
	}

	var parsed historyResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: decode history for %s (%s): %v", ErrSourceUnavailable, entity, window, err)
	}

	data := parsed.Data
	if data == nil || (data.AverageViewers == nil && data.StreamDays == nil) {
		c.logger.Debug().Str("streamer", entity).Str("window", window).Msg("history response empty")
		return nil, nil
	}

	return &HistoryRecord{
		EntityKey:      entity,
		Period:         window,
		AverageViewers: data.AverageViewers,
		StreamDays:     data.StreamDays,
	}, nil
}

func (c *Charts) channelsURL(entity, window string) string {
	path := c.baseURL + "/channels"
	if entity != "" {
		path += "/" + url.PathEscape(entity)
	}

	query := url.Values{}
	query.Set("platform", c.opts.Platform)
	query.Set("time", window)
	if c.opts.TestingMode {
		query.Set("testing_mode", "true")
	}

	return path + "?" + query.Encode()
}

func (c *Charts) get(ctx context.Context, endpoint string) ([]byte, int, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Client-ID", c.opts.ClientID)
	req.Header.Set("Token", c.opts.Token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

func viewersOrZero(item rankingItem) int {
	if item.AverageViewers == nil {
		return 0
	}
	return *item.AverageViewers
}

func trimBody(body []byte) string {
	const max = 256
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		return s[:max]
	}
	return s
}

var (
	_ RankingFetcher = (*Charts)(nil)
	_ HistoryFetcher = (*Charts)(nil)
)
