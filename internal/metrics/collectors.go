package metrics

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dropDatabas3/idlink/internal/cache"
)

// poolCollector expone gauges del pool de Postgres.
type poolCollector struct {
	pool func() *pgxpool.Pool

	acquiredDesc *prometheus.Desc
	idleDesc     *prometheus.Desc
	totalDesc    *prometheus.Desc
}

func NewPoolCollector(pool func() *pgxpool.Pool) prometheus.Collector {
	return &poolCollector{
		pool:         pool,
		acquiredDesc: prometheus.NewDesc("pg_pool_acquired", "Conexiones adquiridas", nil, nil),
		idleDesc:     prometheus.NewDesc("pg_pool_idle", "Conexiones inactivas", nil, nil),
		totalDesc:    prometheus.NewDesc("pg_pool_total", "Conexiones totales", nil, nil),
	}
}

func (c *poolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.acquiredDesc
	ch <- c.idleDesc
	ch <- c.totalDesc
}

func (c *poolCollector) Collect(ch chan<- prometheus.Metric) {
	if c.pool == nil {
		return
	}
	p := c.pool()
	if p == nil {
		return
	}
	stat := p.Stat()
	ch <- prometheus.MustNewConstMetric(c.acquiredDesc, prometheus.GaugeValue, float64(stat.AcquiredConns()))
	ch <- prometheus.MustNewConstMetric(c.idleDesc, prometheus.GaugeValue, float64(stat.IdleConns()))
	ch <- prometheus.MustNewConstMetric(c.totalDesc, prometheus.GaugeValue, float64(stat.TotalConns()))
}

// cacheCollector expone las estadísticas del cache de autorizaciones pendientes.
type cacheCollector struct {
	client cache.Client

	keysDesc   *prometheus.Desc
	hitsDesc   *prometheus.Desc
	missesDesc *prometheus.Desc
}

func NewCacheCollector(c cache.Client) prometheus.Collector {
	return &cacheCollector{
		client:     c,
		keysDesc:   prometheus.NewDesc("idlink_cache_keys", "Claves en el cache", []string{"driver"}, nil),
		hitsDesc:   prometheus.NewDesc("idlink_cache_hits", "Hits del cache", []string{"driver"}, nil),
		missesDesc: prometheus.NewDesc("idlink_cache_misses", "Misses del cache", []string{"driver"}, nil),
	}
}

func (c *cacheCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.keysDesc
	ch <- c.hitsDesc
	ch <- c.missesDesc
}

func (c *cacheCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	st, err := c.client.Stats(ctx)
	if err != nil {
		return
	}
	ch <- prometheus.MustNewConstMetric(c.keysDesc, prometheus.GaugeValue, float64(st.Keys), st.Driver)
	ch <- prometheus.MustNewConstMetric(c.hitsDesc, prometheus.CounterValue, float64(st.Hits), st.Driver)
	ch <- prometheus.MustNewConstMetric(c.missesDesc, prometheus.CounterValue, float64(st.Misses), st.Driver)
}
