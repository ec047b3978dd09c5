package rates

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
)

const providerCrossRate = "crossrate"

// CrossRate derives a KZT quote in two legs: the asset's USD price from
// CoinGecko, then the USD/KZT fiat rate from an exchange-rate feed. A failed
// first leg short-circuits; the fiat call is never made.
type CrossRate struct {
	gecko   *CoinGecko
	fxURL   string
	client  *http.Client
	timeout time.Duration
}

// NewCrossRate builds the fallback provider. fxURL must not end with a slash.
func NewCrossRate(gecko *CoinGecko, fxURL string, timeout time.Duration) *CrossRate {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &CrossRate{
		gecko:   gecko,
		fxURL:   fxURL,
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

// Name implements Provider.
func (x *CrossRate) Name() string { return providerCrossRate }

// Fetch returns usd_price * usd_kzt for the asset.
func (x *CrossRate) Fetch(ctx context.Context, asset Asset) (float64, error) {
	if !Supported(asset) {
		return 0, newError(providerCrossRate, asset, ReasonUnsupportedAsset, nil)
	}

	// Both legs run under the fallback's own, tighter timeout.
	legCtx, cancel := context.WithTimeout(ctx, x.timeout)
	usdPrice, err := x.gecko.FetchUSD(legCtx, asset)
	cancel()
	if err != nil {
		return 0, err
	}

	usdKZT, err := x.usdToKZT(ctx, asset)
	if err != nil {
		return 0, err
	}
	return usdPrice * usdKZT, nil
}

func (x *CrossRate) usdToKZT(ctx context.Context, asset Asset) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, x.timeout)
	defer cancel()

	body, err := fetchBody(ctx, x.client, providerCrossRate, asset, x.fxURL+"/latest/USD")
	if err != nil {
		return 0, err
	}

	rate := gjson.GetBytes(body, "rates.KZT")
	if !rate.Exists() || rate.Type != gjson.Number || rate.Float() <= 0 {
		return 0, newError(providerCrossRate, asset, ReasonSchemaMismatch,
			errors.New("missing or non-positive rates.KZT in response"))
	}
	return rate.Float(), nil
}
