// Package metrics counts credential lifecycle outcomes and exposes them in
// Prometheus text format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
	ResultExpired  = "expired"
	ResultError    = "error"
)

// Recorder receives one event per finished operation.
type Recorder interface {
	Register(result string)
	Login(result string)
	Refresh(result string)
}

// Nop discards everything.
type Nop struct{}

func (Nop) Register(string) {}
func (Nop) Login(string)    {}
func (Nop) Refresh(string)  {}

// Prometheus keeps its counters on a private registry so several instances
// can coexist in one process (tests).
type Prometheus struct {
	registry *prometheus.Registry
	register *prometheus.CounterVec
	login    *prometheus.CounterVec
	refresh  *prometheus.CounterVec
}

func NewPrometheus() *Prometheus {
	counter := func(name, help string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gophauth",
			Name:      name,
			Help:      help,
		}, []string{"result"})
	}

	p := &Prometheus{
		registry: prometheus.NewRegistry(),
		register: counter("register_total", "Registrations by result."),
		login:    counter("login_total", "Login attempts by result."),
		refresh:  counter("refresh_total", "Refresh token exchanges by result."),
	}

	p.registry.MustRegister(
		p.register,
		p.login,
		p.refresh,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return p
}

func (p *Prometheus) Register(result string) { p.register.WithLabelValues(result).Inc() }
func (p *Prometheus) Login(result string)    { p.login.WithLabelValues(result).Inc() }
func (p *Prometheus) Refresh(result string)  { p.refresh.WithLabelValues(result).Inc() }

// Registry exposes the underlying registry, mostly for tests.
func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
