package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// QuoteCalculationsTotal counts quote calculation passes by outcome.
	QuoteCalculationsTotal *prometheus.CounterVec
	// QuoteSlabMissTotal counts priced options whose base cost matched no markup slab.
	QuoteSlabMissTotal prometheus.Counter
	// QuoteFinalTotal records the final total of each priced option.
	QuoteFinalTotal *prometheus.HistogramVec
	// QuoteFinalizationsTotal counts finalize task outcomes.
	QuoteFinalizationsTotal *prometheus.CounterVec
	// TaxConfigCacheTotal counts tax configuration cache lookups by result.
	TaxConfigCacheTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		QuoteCalculationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quote_calculations_total",
			Help:      "Count of quote calculation passes by outcome.",
		}, []string{"result"})
		QuoteSlabMissTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quote_markup_slab_miss_total",
			Help:      "Number of priced options whose base total fell outside every markup slab.",
		})
		QuoteFinalTotal = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "quote_final_total",
			Help:      "Distribution of final totals per package type in base currency units.",
			Buckets:   prometheus.ExponentialBuckets(1000, 2.5, 10),
		}, []string{"package"})
		QuoteFinalizationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quote_finalizations_total",
			Help:      "Count of quote finalization outcomes.",
		}, []string{"result"})
		TaxConfigCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tax_config_cache_total",
			Help:      "Tax configuration cache lookups by result.",
		}, []string{"result"})

		mustRegisterCollector(reg, QuoteCalculationsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				QuoteCalculationsTotal = v
			}
		})
		mustRegisterCollector(reg, QuoteSlabMissTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				QuoteSlabMissTotal = v
			}
		})
		mustRegisterCollector(reg, QuoteFinalTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.HistogramVec); ok {
				QuoteFinalTotal = v
			}
		})
		mustRegisterCollector(reg, QuoteFinalizationsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				QuoteFinalizationsTotal = v
			}
		})
		mustRegisterCollector(reg, TaxConfigCacheTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				TaxConfigCacheTotal = v
			}
		})
	})
}

// IncQuoteCalculation records a calculation outcome when metrics are registered.
func IncQuoteCalculation(result string) {
	if QuoteCalculationsTotal != nil {
		QuoteCalculationsTotal.WithLabelValues(result).Inc()
	}
}

// IncSlabMiss records an option priced without a matching slab.
func IncSlabMiss() {
	if QuoteSlabMissTotal != nil {
		QuoteSlabMissTotal.Inc()
	}
}

// ObserveFinalTotal records the final total of a priced option.
func ObserveFinalTotal(packageType string, total float64) {
	if QuoteFinalTotal != nil {
		QuoteFinalTotal.WithLabelValues(packageType).Observe(total)
	}
}

// IncQuoteFinalization records a finalize outcome.
func IncQuoteFinalization(result string) {
	if QuoteFinalizationsTotal != nil {
		QuoteFinalizationsTotal.WithLabelValues(result).Inc()
	}
}

// IncTaxConfigCache records a tax configuration cache lookup.
func IncTaxConfigCache(result string) {
	if TaxConfigCacheTotal != nil {
		TaxConfigCacheTotal.WithLabelValues(result).Inc()
	}
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
