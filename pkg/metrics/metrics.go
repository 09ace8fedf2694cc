// Package metrics 提供 Prometheus helper，包含常用 counter/gauge/histogram 模板
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wyfcoding/onlinestore/pkg/logger"
)

// Metrics 指标集合
type Metrics struct {
	// HTTP 请求计数
	HTTPRequestsTotal prometheus.Counter
	// HTTP 请求耗时
	HTTPRequestDuration prometheus.Histogram

	// 数据库查询计数
	DBQueriesTotal prometheus.Counter
	// 数据库查询耗时
	DBQueryDuration prometheus.Histogram

	// 业务指标
	CheckoutsTotal       prometheus.Counter
	OrdersTotal          prometheus.Counter
	CartMergesTotal      prometheus.Counter
	ShipmentsBookedTotal prometheus.Counter
	CarrierErrorsTotal   prometheus.Counter
	CleanupFailuresTotal prometheus.Counter
}

// New 创建指标实例
func New(serviceName string) *Metrics {
	return &Metrics{
		HTTPRequestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "store",
			Subsystem: serviceName,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}),
		HTTPRequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "store",
			Subsystem: serviceName,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		DBQueriesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "store",
			Subsystem: serviceName,
			Name:      "db_queries_total",
			Help:      "Total database queries",
		}),
		DBQueryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "store",
			Subsystem: serviceName,
			Name:      "db_query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		CheckoutsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "store",
			Subsystem: serviceName,
			Name:      "checkouts_total",
			Help:      "Total checkout aggregations computed",
		}),
		OrdersTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "store",
			Subsystem: serviceName,
			Name:      "orders_total",
			Help:      "Total orders created",
		}),
		CartMergesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "store",
			Subsystem: serviceName,
			Name:      "cart_merges_total",
			Help:      "Total guest cart merges performed",
		}),
		ShipmentsBookedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "store",
			Subsystem: serviceName,
			Name:      "shipments_booked_total",
			Help:      "Total shipments booked with the carrier",
		}),
		CarrierErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "store",
			Subsystem: serviceName,
			Name:      "carrier_errors_total",
			Help:      "Total carrier API failures",
		}),
		CleanupFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "store",
			Subsystem: serviceName,
			Name:      "cleanup_failures_total",
			Help:      "Total best-effort cleanup steps that failed",
		}),
	}
}

// Register 注册所有指标
func (m *Metrics) Register() error {
	collectors := []prometheus.Collector{
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.DBQueriesTotal,
		m.DBQueryDuration,
		m.CheckoutsTotal,
		m.OrdersTotal,
		m.CartMergesTotal,
		m.ShipmentsBookedTotal,
		m.CarrierErrorsTotal,
		m.CleanupFailuresTotal,
	}

	for _, collector := range collectors {
		if err := prometheus.DefaultRegisterer.Register(collector); err != nil {
			logger.Error(context.Background(), "Failed to register metric", "error", err)
			return err
		}
	}

	logger.Info(context.Background(), "Metrics registered successfully")
	return nil
}

// Handler 返回 Prometheus 指标的 HTTP handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.Handler()
}
