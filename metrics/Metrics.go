package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the service counters. Each instance owns its registry so
// tests can build as many as they like.
type Metrics struct {
	Registry      *prometheus.Registry
	FollowToggles *prometheus.CounterVec
	ListBuilds    *prometheus.CounterVec
	PostsCreated  prometheus.Counter
	PartialPosts  prometheus.Counter
	Uploads       *prometheus.CounterVec
	HTTPRequests  *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		FollowToggles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "threadhive",
			Name:      "follow_toggles_total",
			Help:      "Follow toggles by resulting state.",
		}, []string{"result"}),
		ListBuilds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "threadhive",
			Name:      "list_builds_total",
			Help:      "Profile list builds by variant.",
		}, []string{"variant"}),
		PostsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "threadhive",
			Name:      "posts_created_total",
			Help:      "Post documents created.",
		}),
		PartialPosts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "threadhive",
			Name:      "partial_posts_total",
			Help:      "Posts persisted without their attachment URLs.",
		}),
		Uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "threadhive",
			Name:      "attachment_uploads_total",
			Help:      "Attachment uploads by outcome.",
		}, []string{"outcome"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "threadhive",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status class.",
		}, []string{"route", "status"}),
	}

	m.Registry.MustRegister(
		m.FollowToggles,
		m.ListBuilds,
		m.PostsCreated,
		m.PartialPosts,
		m.Uploads,
		m.HTTPRequests,
	)
	return m
}

// The helpers below are no-ops on a nil *Metrics so modules can run without
// instrumentation.

func (m *Metrics) FollowToggled(following bool) {
	if m == nil {
		return
	}
	result := "unfollowed"
	if following {
		result = "followed"
	}
	m.FollowToggles.WithLabelValues(result).Inc()
}

func (m *Metrics) ListBuilt(variant string) {
	if m == nil {
		return
	}
	m.ListBuilds.WithLabelValues(variant).Inc()
}

func (m *Metrics) PostCreated() {
	if m == nil {
		return
	}
	m.PostsCreated.Inc()
}

func (m *Metrics) PostPartial() {
	if m == nil {
		return
	}
	m.PartialPosts.Inc()
}

func (m *Metrics) Uploaded(ok bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	m.Uploads.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Request(route string, status int) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, statusClass(status)).Inc()
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
