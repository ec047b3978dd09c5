// Package rates resolves crypto asset prices in KZT from external feeds.
package rates

// Asset identifies a supported crypto asset.
type Asset string

const (
	USDT Asset = "USDT"
	BTC  Asset = "BTC"
	ETH  Asset = "ETH"
	TON  Asset = "TON"
)

// coinIDs maps assets to CoinGecko coin identifiers.
var coinIDs = map[Asset]string{
	USDT: "tether",
	BTC:  "bitcoin",
	ETH:  "ethereum",
	TON:  "the-open-network",
}

// assetOrder fixes the presentation order used by ResolveAll and keyboards.
var assetOrder = []Asset{USDT, BTC, ETH, TON}

// All returns the supported assets in display order.
func All() []Asset {
	out := make([]Asset, len(assetOrder))
	copy(out, assetOrder)
	return out
}

// Supported reports whether the asset belongs to the closed supported set.
func Supported(a Asset) bool {
	_, ok := coinIDs[a]
	return ok
}

// CoinID returns the CoinGecko identifier for the asset.
func CoinID(a Asset) (string, bool) {
	id, ok := coinIDs[a]
	return id, ok
}

// String implements fmt.Stringer.
func (a Asset) String() string {
	return string(a)
}
