package domain

// Asset is one entry of the tracked-token catalog. Mint is the SPL mint
// address used by on-chain venues; PriceID is the CoinGecko coin id.
type Asset struct {
	Symbol  string `json:"symbol" toml:"symbol"`
	Name    string `json:"name" toml:"name"`
	Mint    string `json:"mint" toml:"mint"`
	PriceID string `json:"coingeckoId" toml:"coingecko_id"`
}

// Tradable reports whether the asset carries a mint address.
func (a Asset) Tradable() bool {
	return a.Mint != ""
}

// USDCMint is the quote token every venue is priced against.
const USDCMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
