package costs

import (
	"fmt"

	"costlab-hq/tokenbench/pkg/providers"
)

// Tier is one rate schedule of a provider's pricing.
// All rates are USD per million tokens.
type Tier struct {
	// Threshold is the qualifying token count this tier starts above.
	// The first tier must have threshold 0.
	Threshold int64

	// InputPerMTok is the uncached input rate.
	InputPerMTok float64

	// CachedInputPerMTok is the cache read rate. Nil means the provider
	// does not document one for this tier.
	CachedInputPerMTok *float64

	// OutputPerMTok is the output rate.
	OutputPerMTok float64

	// CacheWriteEphemeralPerMTok is the 5 minute cache write rate (Anthropic).
	CacheWriteEphemeralPerMTok *float64

	// CacheWritePersistentPerMTok is the 1 hour cache write rate (Anthropic).
	CacheWritePersistentPerMTok *float64
}

// CacheWriteRate returns the write rate for the given mode.
// CacheModeNone bills at the ephemeral rate, which is the API default TTL.
func (t Tier) CacheWriteRate(mode providers.CacheMode) *float64 {
	if mode == providers.CacheModePersistent {
		return t.CacheWritePersistentPerMTok
	}
	return t.CacheWriteEphemeralPerMTok
}

// Pricing is a provider's complete billing model.
type Pricing struct {
	// TierKey decides which token count selects a tier
	TierKey providers.TierKey

	// Tiers are ordered by ascending Threshold
	Tiers []Tier

	// CacheMode selects the cache write rate
	CacheMode providers.CacheMode
}

// Validate checks the tier schedule.
func (p Pricing) Validate() error {
	switch p.TierKey {
	case providers.TierKeyInput, providers.TierKeyInputOutput:
	default:
		return fmt.Errorf("tier_key must be %q or %q, got %q",
			providers.TierKeyInput, providers.TierKeyInputOutput, p.TierKey)
	}
	if !p.CacheMode.Valid() {
		return fmt.Errorf("unknown cache_mode %q", p.CacheMode)
	}
	if len(p.Tiers) == 0 {
		return fmt.Errorf("at least one tier is required")
	}
	if p.Tiers[0].Threshold != 0 {
		return fmt.Errorf("first tier threshold must be 0, got %d", p.Tiers[0].Threshold)
	}
	for i, t := range p.Tiers {
		if i > 0 && t.Threshold <= p.Tiers[i-1].Threshold {
			return fmt.Errorf("tier %d threshold %d must exceed previous threshold %d",
				i, t.Threshold, p.Tiers[i-1].Threshold)
		}
		if t.InputPerMTok < 0 || t.OutputPerMTok < 0 {
			return fmt.Errorf("tier %d has a negative rate", i)
		}
		for _, r := range []*float64{t.CachedInputPerMTok, t.CacheWriteEphemeralPerMTok, t.CacheWritePersistentPerMTok} {
			if r != nil && *r < 0 {
				return fmt.Errorf("tier %d has a negative rate", i)
			}
		}
	}
	return nil
}

// PriceSheet maps provider identifiers to their pricing.
type PriceSheet map[string]Pricing

// Breakdown is the normalized cost of one call in USD.
// TotalCost is always the exact sum of the three buckets.
type Breakdown struct {
	UncachedInputCost float64 `json:"uncached_input_cost"`
	CachedInputCost   float64 `json:"cached_input_cost"`
	OutputCost        float64 `json:"output_cost"`
	TotalCost         float64 `json:"total_cost"`

	// Tier is the index of the tier that priced the call
	Tier int `json:"tier"`

	// PricingIncomplete is set when a bucket had tokens but no documented rate
	PricingIncomplete bool   `json:"pricing_incomplete,omitempty"`
	IncompleteReason  string `json:"incomplete_reason,omitempty"`
}

// Rate returns a pointer to v, for building optional rates.
func Rate(v float64) *float64 {
	return &v
}
