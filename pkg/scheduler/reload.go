package scheduler

import (
	"fmt"
	"time"

	"costlab-hq/tokenbench/pkg/config"
	"costlab-hq/tokenbench/pkg/costs"
	"costlab-hq/tokenbench/pkg/experiment"
)

// PricingUpdater accepts a new price sheet. *costs.Calculator implements it.
type PricingUpdater interface {
	Pricing(provider string) (costs.Pricing, error)
	UpdatePricing(sheet costs.PriceSheet) error
}

// IntervalSetter accepts a new per-provider call interval.
// *ratelimit.IntervalLimiter implements it.
type IntervalSetter interface {
	SetInterval(provider string, d time.Duration)
}

// WithReloadTargets sets what ApplyConfig updates besides the plan.
func WithReloadTargets(pricing PricingUpdater, intervals IntervalSetter) Option {
	return func(s *Scheduler) {
		s.pricing = pricing
		s.intervals = intervals
	}
}

// ApplyConfig applies a reloaded configuration: pricing, call intervals and
// the experiment plan. Everything is validated first, so a bad edit changes
// nothing. Client settings such as models and endpoints need a restart, and
// so does pricing.cache_mode: clients send it with every request and billing
// must match what was sent.
func (s *Scheduler) ApplyConfig(cfg *config.Config) error {
	sheet, err := costs.SheetFromConfig(cfg.Providers)
	if err != nil {
		return fmt.Errorf("reload pricing: %w", err)
	}
	if err := s.checkCacheModes(sheet); err != nil {
		return fmt.Errorf("reload pricing: %w", err)
	}

	plan := experiment.PlanFromConfig(cfg.Experiment)
	plan.MaxTokens = s.Plan().MaxTokens
	if err := plan.Validate(); err != nil {
		return fmt.Errorf("reload plan: %w", err)
	}

	if s.pricing != nil {
		if err := s.pricing.UpdatePricing(sheet); err != nil {
			return fmt.Errorf("reload pricing: %w", err)
		}
	}
	if s.intervals != nil {
		for name, pc := range cfg.Providers {
			s.intervals.SetInterval(name, pc.Interval())
		}
	}
	if err := s.SetPlan(plan); err != nil {
		return err
	}

	s.logger.Info("configuration applied",
		"providers", plan.Providers,
		"trials", plan.Trials,
	)
	return nil
}

func (s *Scheduler) checkCacheModes(sheet costs.PriceSheet) error {
	if s.pricing == nil {
		return nil
	}
	for name, next := range sheet {
		current, err := s.pricing.Pricing(name)
		if err != nil {
			continue
		}
		if current.CacheMode != next.CacheMode {
			return fmt.Errorf("providers.%s.pricing.cache_mode changed from %q to %q; restart to apply",
				name, current.CacheMode, next.CacheMode)
		}
	}
	return nil
}
