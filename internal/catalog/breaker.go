package catalog

import (
	"context"
	"errors"
	"net/http"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/actuallystonmai/cinematch/internal/domain"
	"github.com/actuallystonmai/cinematch/internal/logging"
	"github.com/actuallystonmai/cinematch/internal/metrics"
)

const breakerName = "tmdb-search"

// defaultBreakerSettings opens the circuit after at least 5 requests with a
// 60% failure rate and probes again after 30s. The breaker never retries.
func defaultBreakerSettings() gobreaker.Settings {
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)
	return gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
		IsSuccessful: isBreakerSuccess,
	}
}

// isBreakerSuccess counts only failures that say the catalog itself is
// unhealthy: transport errors, 5xx and 429. Client-side problems (bad key,
// cancelled request) do not trip the breaker.
func isBreakerSuccess(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, context.Canceled) || domain.IsConfigurationError(err) {
		return true
	}
	if httpErr, ok := domain.AsUpstreamHTTPError(err); ok {
		return httpErr.StatusCode < 500 && httpErr.StatusCode != http.StatusTooManyRequests
	}
	return false
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
