package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAsset_IsHoldable_ExcludesOnlyFxRate(t *testing.T) {
	assert.False(t, Asset{Kind: AssetFxRate}.IsHoldable())
	assert.True(t, Asset{Kind: AssetSecurity}.IsHoldable())
	assert.True(t, Asset{Kind: AssetCash}.IsHoldable())
}

func TestAsset_NeedsPricing_OnlyForMarketPricingMode(t *testing.T) {
	assert.True(t, Asset{PricingMode: PricingMarket}.NeedsPricing())
	assert.False(t, Asset{PricingMode: PricingManual}.NeedsPricing())
	assert.False(t, Asset{PricingMode: PricingNone}.NeedsPricing())
}

func TestAsset_IsAlternative_MatchesAlternativeAssetKinds(t *testing.T) {
	for kind := range AlternativeAssetKinds {
		assert.True(t, Asset{Kind: kind}.IsAlternative(), "expected %s to be alternative", kind)
	}
	assert.False(t, Asset{Kind: AssetSecurity}.IsAlternative())
	assert.False(t, Asset{Kind: AssetCash}.IsAlternative())
}

func TestAssetIDHelpers_ProduceCanonicalIDs(t *testing.T) {
	assert.Equal(t, "$CASH-USD", CashAssetID("USD"))
	assert.Equal(t, "FX:EUR:USD", FxAssetID("EUR", "USD"))
	assert.Equal(t, "SEC:AAPL:XNAS", SecurityAssetID("AAPL", "XNAS"))
}
