package monitoring

import (
	"streamkit/internal/core/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector exports session and stream figures to prometheus.
type Collector struct {
	streamsActive       *prometheus.GaugeVec
	streamsCreatedTotal *prometheus.CounterVec

	sessionSendBytes   prometheus.Gauge
	sessionRecvBytes   prometheus.Gauge
	sessionSendBitrate prometheus.Gauge
	sessionRecvBitrate prometheus.Gauge
	sessionUserCount   prometheus.Gauge
}

func NewCollector() *Collector {
	return &Collector{
		streamsActive: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "streamkit_streams_active",
			Help: "Number of streams currently owned by the session",
		}, []string{"role"}),

		streamsCreatedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "streamkit_streams_created_total",
			Help: "Total number of streams created",
		}, []string{"role"}),

		sessionSendBytes: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "streamkit_session_send_bytes",
			Help: "Total bytes sent across all streams in the session",
		}),

		sessionRecvBytes: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "streamkit_session_recv_bytes",
			Help: "Total bytes received across all streams in the session",
		}),

		sessionSendBitrate: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "streamkit_session_send_bitrate_kbps",
			Help: "Aggregate send bitrate of the session in kbps",
		}),

		sessionRecvBitrate: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "streamkit_session_recv_bitrate_kbps",
			Help: "Aggregate receive bitrate of the session in kbps",
		}),

		sessionUserCount: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "streamkit_session_user_count",
			Help: "Number of participants in the session",
		}),
	}
}

func (c *Collector) RecordStreamCreated(role domain.StreamRole) {
	c.streamsActive.WithLabelValues(string(role)).Inc()
	c.streamsCreatedTotal.WithLabelValues(string(role)).Inc()
}

func (c *Collector) RecordStreamClosed(role domain.StreamRole) {
	c.streamsActive.WithLabelValues(string(role)).Dec()
}

func (c *Collector) RecordSessionStats(stats domain.SessionStats) {
	c.sessionSendBytes.Set(float64(stats.SendBytes))
	c.sessionRecvBytes.Set(float64(stats.RecvBytes))
	c.sessionSendBitrate.Set(float64(stats.SendBitrate))
	c.sessionRecvBitrate.Set(float64(stats.RecvBitrate))
	c.sessionUserCount.Set(float64(stats.UserCount))
}
