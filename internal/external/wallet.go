package external

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/kjannette/pi-tracker/internal/httputil"
	"github.com/pkg/errors"
)

const DefaultPiWalletURL = "https://api.minepi.com"

// WalletClient reads the locked balance reported by the Pi wallet API.
type WalletClient struct {
	baseURL    string
	httpClient *http.Client
	retry      httputil.RetryConfig
}

func NewWalletClient(opts Options) *WalletClient {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultPiWalletURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &WalletClient{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: &http.Client{Timeout: opts.Timeout},
		retry:      opts.Retry,
	}
}

func (c *WalletClient) LockedBalance(ctx context.Context) (float64, error) {
	endpoint := c.baseURL + "/wallet/locked"
	resp, err := httputil.Do(ctx, c.httpClient, c.retry, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	})
	if err != nil {
		return 0, errors.Wrap(err, "locked balance fetch")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, errors.Errorf("wallet API returned status %d", resp.StatusCode)
	}

	var data struct {
		LockedBalance *float64 `json:"locked_balance"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return 0, errors.Wrap(err, "decode locked balance")
	}
	if data.LockedBalance == nil {
		return 0, errors.Wrap(ErrNoQuote, "locked_balance")
	}
	return *data.LockedBalance, nil
}
