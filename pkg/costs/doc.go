// Package costs turns provider-reported token usage into a normalized cost
// breakdown.
//
// # Pricing Model
//
// Each provider has a Pricing: an ordered list of Tiers, an explicit TierKey
// and an optional CacheMode. Rates are USD per million tokens.
//
// The tier is chosen from the qualifying token count, which is either the
// input tokens (TierKeyInput) or input plus output (TierKeyInputOutput). A
// tier applies when the count is strictly greater than its threshold, so with
// tiers {0, 128000} a count of 128,000 stays in tier 0 and 128,001 moves to
// tier 1.
//
// # Buckets
//
// Input is split into disjoint buckets, each priced at its own rate:
//
//	uncached = (input - cached)    * input rate
//	cached   = cache reads         * cached rate
//	         + cache writes        * write rate for the cache mode
//	output   = output              * output rate
//	total    = uncached + cached + output
//
// When a bucket has tokens but the tier has no documented rate for it, the
// bucket costs 0 and the Breakdown is flagged PricingIncomplete.
//
// # Usage
//
//	calc, err := costs.NewCalculator(costs.PriceSheet{"openai": pricing})
//	if err != nil {
//		return err
//	}
//
//	b, err := calc.Compute("openai", resp.Usage)
//	fmt.Printf("total: $%.6f\n", b.TotalCost)
//
// # Pricing Updates
//
// UpdatePricing swaps the sheet under a write lock; calls in flight keep the
// Pricing value they already read.
package costs
