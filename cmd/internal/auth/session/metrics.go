package session

import "github.com/prometheus/client_golang/prometheus"

// Login and lookup outcome labels.
const (
	resultSuccess            = "success"
	resultInvalidCredentials = "invalid_credentials"
	resultError              = "error"

	resultHit       = "hit"
	resultMiss      = "miss"
	resultExpired   = "expired"
	resultMalformed = "malformed"
)

// Metrics are the registry's Prometheus collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	logins         *prometheus.CounterVec
	lookups        *prometheus.CounterVec
	active         prometheus.Gauge
	cleanupRemoved prometheus.Counter
	revoked        prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg when reg is non-nil.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gatehouse",
			Subsystem: "session",
			Name:      "logins_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gatehouse",
			Subsystem: "session",
			Name:      "lookups_total",
			Help:      "Token lookups by result.",
		}, []string{"result"}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "gatehouse",
			Subsystem: "session",
			Name:      "sessions_active",
			Help:      "Sessions currently held in memory, expired-but-unswept included.",
		}),
		cleanupRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gatehouse",
			Subsystem: "session",
			Name:      "cleanup_removed_total",
			Help:      "Expired sessions removed by cleanup sweeps.",
		}),
		revoked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gatehouse",
			Subsystem: "session",
			Name:      "revoked_total",
			Help:      "Sessions removed by explicit revocation.",
		}),
	}

	if reg != nil {
		for _, c := range []prometheus.Collector{m.logins, m.lookups, m.active, m.cleanupRemoved, m.revoked} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func (m *Metrics) login(result string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(result).Inc()
}

func (m *Metrics) lookup(result string) {
	if m == nil {
		return
	}
	m.lookups.WithLabelValues(result).Inc()
}

func (m *Metrics) setActive(n int) {
	if m == nil {
		return
	}
	m.active.Set(float64(n))
}

func (m *Metrics) cleaned(n int) {
	if m == nil || n == 0 {
		return
	}
	m.cleanupRemoved.Add(float64(n))
}

func (m *Metrics) revokedN(n int) {
	if m == nil || n == 0 {
		return
	}
	m.revoked.Add(float64(n))
}
