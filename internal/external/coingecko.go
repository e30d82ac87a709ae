package external

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kjannette/pi-tracker/internal/httputil"
	"github.com/pkg/errors"
)

const (
	DefaultCoinGeckoURL = "https://api.coingecko.com/api/v3"
	PiNetworkID         = "pi-network"
)

// ErrNoQuote is returned when the response parses but lacks the requested pair.
var ErrNoQuote = errors.New("quote missing from response")

type CoinGeckoClient struct {
	baseURL    string
	httpClient *http.Client
	retry      httputil.RetryConfig
	piID       string
}

type Options struct {
	BaseURL string
	Timeout time.Duration
	Retry   httputil.RetryConfig
	// PiID overrides the CoinGecko id used by PiPrice.
	PiID string
}

func NewCoinGeckoClient(opts Options) *CoinGeckoClient {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultCoinGeckoURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.PiID == "" {
		opts.PiID = PiNetworkID
	}
	return &CoinGeckoClient{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: &http.Client{Timeout: opts.Timeout},
		retry:      opts.Retry,
		piID:       opts.PiID,
	}
}

// SimplePrice returns the price of coin id quoted in vs, read from
// {"<id>": {"<vs>": <number>}}.
func (c *CoinGeckoClient) SimplePrice(ctx context.Context, id, vs string) (float64, error) {
	id = strings.ToLower(strings.TrimSpace(id))
	vs = strings.ToLower(strings.TrimSpace(vs))

	q := url.Values{}
	q.Set("ids", id)
	q.Set("vs_currencies", vs)
	endpoint := c.baseURL + "/simple/price?" + q.Encode()

	resp, err := httputil.Do(ctx, c.httpClient, c.retry, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	})
	if err != nil {
		return 0, errors.Wrapf(err, "coingecko fetch %s/%s", id, vs)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, errors.Errorf("coingecko returned status %d for %s/%s", resp.StatusCode, id, vs)
	}

	var data map[string]map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return 0, errors.Wrapf(err, "decode %s/%s", id, vs)
	}

	quotes, ok := data[id]
	if !ok {
		return 0, errors.Wrapf(ErrNoQuote, "%s/%s", id, vs)
	}
	price, ok := quotes[vs]
	if !ok {
		return 0, errors.Wrapf(ErrNoQuote, "%s/%s", id, vs)
	}
	return price, nil
}

// PiPrice returns the Pi price in USD.
func (c *CoinGeckoClient) PiPrice(ctx context.Context) (float64, error) {
	return c.SimplePrice(ctx, c.piID, "usd")
}

// USDRate returns how many units of code one US dollar buys.
func (c *CoinGeckoClient) USDRate(ctx context.Context, code string) (float64, error) {
	return c.SimplePrice(ctx, "usd", code)
}
