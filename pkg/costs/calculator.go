package costs

import (
	"fmt"
	"strings"
	"sync"

	"costlab-hq/tokenbench/pkg/config"
	"costlab-hq/tokenbench/pkg/providers"
)

const perMillion = 1_000_000.0

// Compute prices one call. It is pure: the same inputs always yield the same
// Breakdown, and nothing outside the arguments is read.
func Compute(usage providers.TokenUsage, pricing Pricing) (Breakdown, error) {
	if err := usage.Validate(); err != nil {
		return Breakdown{}, err
	}
	if err := pricing.Validate(); err != nil {
		return Breakdown{}, fmt.Errorf("invalid pricing: %w", err)
	}

	if usage.IsZero() {
		return Breakdown{}, nil
	}

	idx := SelectTier(pricing, usage.QualifyingTokens(pricing.TierKey))
	tier := pricing.Tiers[idx]

	b := Breakdown{Tier: idx}
	var missing []string

	b.UncachedInputCost = tokenCost(usage.UncachedInputTokens(), tier.InputPerMTok)

	if reads := usage.CacheReadTokens(); reads > 0 {
		if tier.CachedInputPerMTok == nil {
			missing = append(missing, "cached input rate")
		} else {
			b.CachedInputCost += tokenCost(reads, *tier.CachedInputPerMTok)
		}
	}
	if writes := usage.CacheWriteTokens; writes > 0 {
		rate := tier.CacheWriteRate(pricing.CacheMode)
		if rate == nil {
			missing = append(missing, "cache write rate")
		} else {
			b.CachedInputCost += tokenCost(writes, *rate)
		}
	}

	b.OutputCost = tokenCost(usage.OutputTokens, tier.OutputPerMTok)
	b.TotalCost = b.UncachedInputCost + b.CachedInputCost + b.OutputCost

	if len(missing) > 0 {
		b.PricingIncomplete = true
		b.IncompleteReason = fmt.Sprintf("tier %d has no documented %s", idx, strings.Join(missing, " or "))
	}

	return b, nil
}

// SelectTier returns the index of the tier whose threshold the qualifying
// count exceeds by the most. A count equal to a threshold stays in the lower tier.
func SelectTier(pricing Pricing, qualifying int64) int {
	idx := 0
	for i := 1; i < len(pricing.Tiers); i++ {
		if qualifying > pricing.Tiers[i].Threshold {
			idx = i
		}
	}
	return idx
}

func tokenCost(tokens int64, perMTok float64) float64 {
	return float64(tokens) * perMTok / perMillion
}

// Calculator prices calls against a provider price sheet.
// It is thread-safe and supports hot-reload of pricing.
type Calculator struct {
	sheet PriceSheet

	// mu protects sheet for concurrent access
	mu sync.RWMutex
}

// NewCalculator creates a calculator over a validated price sheet.
func NewCalculator(sheet PriceSheet) (*Calculator, error) {
	if err := validateSheet(sheet); err != nil {
		return nil, err
	}
	return &Calculator{sheet: copySheet(sheet)}, nil
}

// NewCalculatorFromConfig builds the price sheet from provider configuration.
func NewCalculatorFromConfig(cfgs map[string]config.ProviderConfig) (*Calculator, error) {
	sheet, err := SheetFromConfig(cfgs)
	if err != nil {
		return nil, err
	}
	return NewCalculator(sheet)
}

// Compute prices a call for the named provider.
func (c *Calculator) Compute(provider string, usage providers.TokenUsage) (Breakdown, error) {
	pricing, err := c.Pricing(provider)
	if err != nil {
		return Breakdown{}, err
	}
	return Compute(usage, pricing)
}

// Pricing returns the pricing for a provider.
func (c *Calculator) Pricing(provider string) (Pricing, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.sheet[provider]
	if !ok {
		return Pricing{}, &providers.ConfigError{
			Provider: provider,
			Field:    "pricing",
			Message:  "no pricing configured",
		}
	}
	return p, nil
}

// UpdatePricing swaps the price sheet (hot-reload support).
// An invalid sheet is rejected and the current one is kept.
func (c *Calculator) UpdatePricing(sheet PriceSheet) error {
	if err := validateSheet(sheet); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.sheet = copySheet(sheet)
	return nil
}

func validateSheet(sheet PriceSheet) error {
	for name, p := range sheet {
		if err := p.Validate(); err != nil {
			return &providers.ConfigError{Provider: name, Field: "pricing", Message: err.Error()}
		}
	}
	return nil
}

func copySheet(sheet PriceSheet) PriceSheet {
	out := make(PriceSheet, len(sheet))
	for k, v := range sheet {
		v.Tiers = append([]Tier(nil), v.Tiers...)
		out[k] = v
	}
	return out
}

// SheetFromConfig converts provider pricing configuration into a PriceSheet.
func SheetFromConfig(cfgs map[string]config.ProviderConfig) (PriceSheet, error) {
	sheet := make(PriceSheet, len(cfgs))
	for name, pc := range cfgs {
		p := FromConfig(pc.Pricing)
		if err := p.Validate(); err != nil {
			return nil, &providers.ConfigError{Provider: name, Field: "pricing", Message: err.Error()}
		}
		sheet[name] = p
	}
	return sheet, nil
}

// FromConfig converts one pricing section.
func FromConfig(pc config.PricingConfig) Pricing {
	p := Pricing{
		TierKey:   providers.TierKey(pc.TierKey),
		CacheMode: providers.CacheMode(pc.CacheMode),
		Tiers:     make([]Tier, 0, len(pc.Tiers)),
	}
	for _, t := range pc.Tiers {
		p.Tiers = append(p.Tiers, Tier{
			Threshold:                   t.AboveTokens,
			InputPerMTok:                t.Input,
			CachedInputPerMTok:          t.CachedInput,
			OutputPerMTok:               t.Output,
			CacheWriteEphemeralPerMTok:  t.CacheWriteEphemeral,
			CacheWritePersistentPerMTok: t.CacheWritePersistent,
		})
	}
	return p
}
