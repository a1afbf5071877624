package catalog

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics describes store state and persistence health. A nil *Metrics is a
// valid no-op.
type Metrics struct {
	PersistDuration prometheus.Histogram
	PersistFailures prometheus.Counter
	Products        prometheus.Gauge
	Wishlisted      prometheus.Gauge
	CartItems       prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	m := &Metrics{
		PersistDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "persist_duration_seconds",
			Help:      "Time spent writing the store document",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
		PersistFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "persist_failures_total",
			Help:      "Store writes that failed and were rolled back",
		}),
		Products: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "products",
			Help:      "Products in the catalog",
		}),
		Wishlisted: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "wishlisted_products",
			Help:      "Product ids in the wishlist",
		}),
		CartItems: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "cart_items",
			Help:      "Sum of quantities in the cart",
		}),
	}

	reg.MustRegister(m.PersistDuration, m.PersistFailures, m.Products, m.Wishlisted, m.CartItems)
	return m
}

func (m *Metrics) observePersist(d time.Duration, err error) {
	if m == nil {
		return
	}
	m.PersistDuration.Observe(d.Seconds())
	if err != nil {
		m.PersistFailures.Inc()
	}
}

func (m *Metrics) setState(products, wishlisted, cartItems int) {
	if m == nil {
		return
	}
	m.Products.Set(float64(products))
	m.Wishlisted.Set(float64(wishlisted))
	m.CartItems.Set(float64(cartItems))
}
