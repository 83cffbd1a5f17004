package domain

// AssetKind enumerates the kinds of holdable (and non-holdable) assets the
// core understands.
type AssetKind string

const (
	AssetSecurity      AssetKind = "SECURITY"
	AssetCrypto        AssetKind = "CRYPTO"
	AssetCash          AssetKind = "CASH"
	AssetFxRate        AssetKind = "FX_RATE"
	AssetOption        AssetKind = "OPTION"
	AssetCommodity     AssetKind = "COMMODITY"
	AssetProperty      AssetKind = "PROPERTY"
	AssetVehicle       AssetKind = "VEHICLE"
	AssetCollectible   AssetKind = "COLLECTIBLE"
	AssetPreciousMetal AssetKind = "PRECIOUS_METAL"
	AssetLiability     AssetKind = "LIABILITY"
	AssetOther         AssetKind = "OTHER"
)

// AlternativeAssetKinds lists kinds excluded from performance-eligible
// market value even when priced (step 1).
var AlternativeAssetKinds = map[AssetKind]bool{
	AssetProperty:      true,
	AssetVehicle:       true,
	AssetCollectible:   true,
	AssetPreciousMetal: true,
	AssetLiability:     true,
}

// PricingMode controls whether an asset needs market pricing at all.
type PricingMode string

const (
	PricingNone   PricingMode = "NONE"
	PricingMarket PricingMode = "MARKET"
	PricingManual PricingMode = "MANUAL"
)

// ProviderInstrument is the provider-specific symbol form produced by the
// resolver chain; see internal/marketdata/resolver.
type ProviderInstrument struct {
	Symbol   string
	Currency string
}

// Asset is the catalog entry for anything holdable or priceable.
type Asset struct {
	ID                string // "SEC:<TICKER>:<MIC>" | "FX:<FROM>:<TO>" | "$CASH-<CCY>"
	Kind              AssetKind
	Symbol            string
	MIC               string
	Currency          string
	Name              string
	PricingMode       PricingMode
	PreferredProvider string
	ProviderOverrides map[string]ProviderInstrument
	IsActive          bool
}

// IsHoldable reports whether this asset can appear in a position
// (everything except synthetic FX-rate placeholders).
func (a Asset) IsHoldable() bool { return a.Kind != AssetFxRate }

// NeedsPricing reports whether the valuation layer must look up a quote.
func (a Asset) NeedsPricing() bool { return a.PricingMode == PricingMarket }

// IsAlternative reports whether this asset kind is excluded from
// performance-eligible market value.
func (a Asset) IsAlternative() bool { return AlternativeAssetKinds[a.Kind] }

// CashAssetID returns the canonical asset id for a currency's cash bucket.
func CashAssetID(currency string) string { return "$CASH-" + currency }

// FxAssetID returns the canonical asset id for an FX pair.
func FxAssetID(from, to string) string { return "FX:" + from + ":" + to }

// SecurityAssetID returns the canonical asset id for a listed security.
func SecurityAssetID(ticker, mic string) string { return "SEC:" + ticker + ":" + mic }
