package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

const namespace = "salonlink"

var (
	registry     = prometheus.NewRegistry()
	registerOnce sync.Once

	referralsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "referrals_created_total",
		Help:      "Referrals created together with their discount code.",
	})
	redemptionOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "referral_redemptions_total",
		Help:      "Redemption attempts by matching path and outcome.",
	}, []string{"path", "outcome"})
	referralTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "referral_transitions_total",
		Help:      "Referral status transitions applied outside redemption.",
	}, []string{"to"})
	commissionAmount = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "commission_amount_total",
		Help:      "Commission amount suggested at redemption, by party.",
	}, []string{"party"})
	webhookDeliveries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "webhook_deliveries_total",
		Help:      "Commerce webhook deliveries by topic and result.",
	}, []string{"topic", "result"})
	orderSyncResults = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_sync_total",
		Help:      "Order sync runs by resulting sync status.",
	}, []string{"status"})
	commerceRequests = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "commerce_request_duration_seconds",
		Help:      "Latency of commerce platform API calls.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation", "result"})
)

// Register 注册全部指标（重复调用安全）
func Register() {
	registerOnce.Do(func() {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			referralsCreated,
			redemptionOutcomes,
			referralTransitions,
			commissionAmount,
			webhookDeliveries,
			orderSyncResults,
			commerceRequests,
		)
	})
}

// Handler 返回 /metrics 处理器
func Handler() http.Handler {
	Register()
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
}

// Registry 返回指标注册表
func Registry() *prometheus.Registry {
	Register()
	return registry
}

// ReferralCreated 记录推荐创建
func ReferralCreated() {
	referralsCreated.Inc()
}

// RedemptionOutcome 记录核销结果
func RedemptionOutcome(path, outcome string) {
	redemptionOutcomes.WithLabelValues(path, outcome).Inc()
}

// ReferralTransition 记录状态流转
func ReferralTransition(to string, count int64) {
	if count <= 0 {
		return
	}
	referralTransitions.WithLabelValues(to).Add(float64(count))
}

// CommissionSuggested 记录建议佣金金额
func CommissionSuggested(party string, amount decimal.Decimal) {
	if !amount.IsPositive() {
		return
	}
	value, _ := amount.Float64()
	commissionAmount.WithLabelValues(party).Add(value)
}

// WebhookDelivery 记录 webhook 接收结果
func WebhookDelivery(topic, result string) {
	webhookDeliveries.WithLabelValues(topic, result).Inc()
}

// OrderSynced 记录订单同步结果
func OrderSynced(status string) {
	orderSyncResults.WithLabelValues(status).Inc()
}

// ObserveCommerceRequest 记录平台调用耗时
func ObserveCommerceRequest(operation, result string, seconds float64) {
	commerceRequests.WithLabelValues(operation, result).Observe(seconds)
}
