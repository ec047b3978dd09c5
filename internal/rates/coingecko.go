package rates

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"
)

const providerCoinGecko = "coingecko"

// CoinGecko queries the CoinGecko simple price endpoint for a direct KZT quote.
type CoinGecko struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
}

// NewCoinGecko builds the primary provider. baseURL must not end with a slash.
func NewCoinGecko(baseURL string, timeout time.Duration) *CoinGecko {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &CoinGecko{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

// Name implements Provider.
func (g *CoinGecko) Name() string { return providerCoinGecko }

// Fetch returns the direct KZT quote for the asset.
func (g *CoinGecko) Fetch(ctx context.Context, asset Asset) (float64, error) {
	return g.simplePrice(ctx, asset, "kzt")
}

// FetchUSD returns the USD quote for the asset. The cross-rate fallback uses
// it as the first leg of its derivation.
func (g *CoinGecko) FetchUSD(ctx context.Context, asset Asset) (float64, error) {
	return g.simplePrice(ctx, asset, "usd")
}

func (g *CoinGecko) simplePrice(ctx context.Context, asset Asset, vs string) (float64, error) {
	id, ok := CoinID(asset)
	if !ok {
		return 0, newError(providerCoinGecko, asset, ReasonUnsupportedAsset, nil)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=%s",
		g.baseURL, url.QueryEscape(id), url.QueryEscape(vs))
	body, err := fetchBody(ctx, g.client, providerCoinGecko, asset, endpoint)
	if err != nil {
		return 0, err
	}

	price := gjson.GetBytes(body, id+"."+vs)
	if !price.Exists() || price.Type != gjson.Number || price.Float() <= 0 {
		return 0, newError(providerCoinGecko, asset, ReasonSchemaMismatch,
			fmt.Errorf("missing or non-positive %s.%s in response", id, vs))
	}
	return price.Float(), nil
}
