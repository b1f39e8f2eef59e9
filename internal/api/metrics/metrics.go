// Package metrics defines the custom Prometheus metrics of the forum API. It
// is the single source of truth for metric names, labels and help strings.
//
// All metrics register with the default registry through promauto, which is
// the registry echoprometheus serves on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "forum"

// ── Session metrics ───────────────────────────────────────────────────────────

// AuthLoginsTotal counts login attempts.
// Label:
//   - result: "success", "user_not_found", "bad_credentials", "resigned" or "error"
var AuthLoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// AuthReissuesTotal counts access token reissues.
// Label:
//   - result: "issued", "stale" (refresh token superseded or revoked) or "error"
var AuthReissuesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_reissues_total",
		Help:      "Total number of access token reissue attempts, by result.",
	},
	[]string{"result"},
)

// SessionRejectionsTotal counts requests rejected by the session verifier.
// Label:
//   - reason: the rejection category (e.g. "not_logged_in", "expired_access_token")
var SessionRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_rejections_total",
		Help:      "Total number of requests rejected by the session verifier, by reason.",
	},
	[]string{"reason"},
)

// ── Content metrics ───────────────────────────────────────────────────────────

var CommentsDeletedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "content_comments_deleted_total",
		Help:      "Total number of comment rows removed by delete requests, cascades included.",
	},
)

var LikesDeletedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "content_likes_deleted_total",
		Help:      "Total number of like rows removed, cascades and unlikes included.",
	},
)

var PostsDeletedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "content_posts_deleted_total",
		Help:      "Total number of posts deleted.",
	},
)

// ── Audit pipeline ────────────────────────────────────────────────────────────

// AuditQueueDepth tracks the number of deletion events waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of deletion audit events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
