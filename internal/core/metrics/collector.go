package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dep2p/go-nearlink/pkg/types"
)

// Collector nearlink 运行指标
//
// nil 接收者上的所有方法都是空操作，组件无需判断指标是否启用。
type Collector struct {
	devicesKnown     prometheus.Gauge
	sightings        *prometheus.CounterVec
	sightingsDropped prometheus.Counter

	activeConnections prometheus.Gauge
	connectAttempts   *prometheus.CounterVec
	connectFailures   *prometheus.CounterVec
	disconnects       *prometheus.CounterVec
	switches          *prometheus.CounterVec
	switchesThrottled prometheus.Counter
	reconnects        prometheus.Counter
	qualityScore      *prometheus.GaugeVec
}

// NewCollector 创建指标收集器并注册到 reg
//
// reg 为 nil 时使用独立的 Registry。
func NewCollector(namespace string, reg prometheus.Registerer) (*Collector, error) {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	c := &Collector{
		devicesKnown: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "discovery", Name: "devices",
			Help: "Number of devices in the unified device list.",
		}),
		sightings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "discovery", Name: "sightings_total",
			Help: "Raw sightings merged, by transport.",
		}, []string{"transport"}),
		sightingsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "discovery", Name: "sightings_dropped_total",
			Help: "Sightings dropped because the device list was full.",
		}),
		activeConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "connection", Name: "active",
			Help: "Number of live connections.",
		}),
		connectAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "connection", Name: "attempts_total",
			Help: "Transport open attempts, by transport.",
		}, []string{"transport"}),
		connectFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "connection", Name: "failures_total",
			Help: "Failed connects, by error kind.",
		}, []string{"kind"}),
		disconnects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "connection", Name: "disconnects_total",
			Help: "Closed connections, by transport.",
		}, []string{"transport"}),
		switches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "connection", Name: "switches_total",
			Help: "Completed transport switches.",
		}, []string{"from", "to", "reason"}),
		switchesThrottled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "connection", Name: "switches_throttled_total",
			Help: "Transport switches rejected by the rate limiter.",
		}),
		reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "connection", Name: "reconnects_scheduled_total",
			Help: "Reconnect attempts scheduled.",
		}),
		qualityScore: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "quality", Name: "score",
			Help: "Latest connection quality score, by transport.",
		}, []string{"transport"}),
	}

	for _, col := range []prometheus.Collector{
		c.devicesKnown, c.sightings, c.sightingsDropped,
		c.activeConnections, c.connectAttempts, c.connectFailures, c.disconnects,
		c.switches, c.switchesThrottled, c.reconnects, c.qualityScore,
	} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// ============================================================================
//                              发现
// ============================================================================

// SetDevices 设置设备数量
func (c *Collector) SetDevices(n int) {
	if c == nil {
		return
	}
	c.devicesKnown.Set(float64(n))
}

// Sighting 记录一次合并的发现
func (c *Collector) Sighting(t types.Transport) {
	if c == nil {
		return
	}
	c.sightings.WithLabelValues(t.String()).Inc()
}

// SightingDropped 记录一次因容量丢弃的发现
func (c *Collector) SightingDropped() {
	if c == nil {
		return
	}
	c.sightingsDropped.Inc()
}

// ============================================================================
//                              连接
// ============================================================================

// SetActiveConnections 设置活跃连接数
func (c *Collector) SetActiveConnections(n int) {
	if c == nil {
		return
	}
	c.activeConnections.Set(float64(n))
}

// ConnectAttempt 记录一次通道打开尝试
func (c *Collector) ConnectAttempt(t types.Transport) {
	if c == nil {
		return
	}
	c.connectAttempts.WithLabelValues(t.String()).Inc()
}

// ConnectFailed 按错误类别记录连接失败
func (c *Collector) ConnectFailed(err error) {
	if c == nil {
		return
	}
	c.connectFailures.WithLabelValues(types.KindOf(err).String()).Inc()
}

// Disconnected 记录一次断开
func (c *Collector) Disconnected(t types.Transport) {
	if c == nil {
		return
	}
	c.disconnects.WithLabelValues(t.String()).Inc()
}

// Switched 记录一次通道切换
func (c *Collector) Switched(from, to types.Transport, reason types.SwitchReason) {
	if c == nil {
		return
	}
	c.switches.WithLabelValues(from.String(), to.String(), reason.String()).Inc()
}

// SwitchThrottled 记录一次被限流的切换
func (c *Collector) SwitchThrottled() {
	if c == nil {
		return
	}
	c.switchesThrottled.Inc()
}

// ReconnectScheduled 记录一次重连安排
func (c *Collector) ReconnectScheduled() {
	if c == nil {
		return
	}
	c.reconnects.Inc()
}

// Quality 记录质量评分
func (c *Collector) Quality(t types.Transport, score float64) {
	if c == nil {
		return
	}
	c.qualityScore.WithLabelValues(t.String()).Set(score)
}
