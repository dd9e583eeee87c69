//nolint:tagliatelle // ExchangeRate-API uses snake case
package midmarket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sig-0/remitrates/storage/types"
)

const exchangeRateAPIURL = "https://v6.exchangerate-api.com/v6"

var errAPIFailure = errors.New("exchange rate API failure")

type exchangeRateResponse struct {
	Result         string          `json:"result"`
	ErrorType      string          `json:"error-type"`
	BaseCode       string          `json:"base_code"`
	TargetCode     string          `json:"target_code"`
	ConversionRate decimal.Decimal `json:"conversion_rate"`
}

// ExchangeRateAPI fetches mid-market rates from the ExchangeRate-API pair endpoint
type ExchangeRateAPI struct {
	client *http.Client
	url    string
	apiKey string
}

// NewExchangeRateAPI creates a new instance of the ExchangeRate-API source
func NewExchangeRateAPI(apiKey string, timeout time.Duration) *ExchangeRateAPI {
	return &ExchangeRateAPI{
		client: &http.Client{
			Timeout: timeout,
		},
		url:    exchangeRateAPIURL,
		apiKey: apiKey,
	}
}

func (s *ExchangeRateAPI) Rate(ctx context.Context, base, target string) (decimal.Decimal, error) {
	endpoint, err := url.JoinPath(
		s.url,
		s.apiKey,
		"pair",
		types.NormalizeCode(base),
		types.NormalizeCode(target),
	)
	if err != nil {
		return decimal.Zero, fmt.Errorf("unable to build request URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return decimal.Zero, fmt.Errorf("unable to create new GET request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("unable to execute GET request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decimal.Zero, fmt.Errorf("invalid status code received: %d", resp.StatusCode)
	}

	var apiResp exchangeRateResponse
	if err = json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return decimal.Zero, fmt.Errorf("unable to decode response: %w", err)
	}

	if apiResp.Result != "success" {
		if apiResp.ErrorType == "unsupported-code" {
			return decimal.Zero, fmt.Errorf("%w: %s", ErrUnsupportedPair, Pair(base, target))
		}

		return decimal.Zero, fmt.Errorf("%w: %s", errAPIFailure, apiResp.ErrorType)
	}

	if !apiResp.ConversionRate.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s", errInvalidRate, apiResp.ConversionRate)
	}

	return apiResp.ConversionRate, nil
}
