package monitoring

import (
	"fmt"

	"github.com/Jacobbrewer1/warden/cmd/bot/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TotalDiscordEvents is the total number of gateway events.
	TotalDiscordEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_total_discord_events", config.AppName),
			Help: "Total number of events",
		},
		[]string{"event"},
	)

	// HttpTotalRequests is the total number of http requests.
	HttpTotalRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_http_total_requests", config.AppName),
			Help: "Total number of http requests",
		},
		[]string{"path", "method", "status_code"},
	)

	// HttpRequestDuration is the duration of the http request.
	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: fmt.Sprintf("%s_http_request_duration", config.AppName),
			Help: "Duration of the http request",
		},
		[]string{"path", "method", "status_code"},
	)

	TotalDiscordGuilds = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: fmt.Sprintf("%s_total_discord_guilds", config.AppName),
			Help: "Total number of discord guilds",
		},
	)

	// DiscordInteractionDuration is the duration of interaction handling by command or component action.
	DiscordInteractionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: fmt.Sprintf("%s_discord_interaction_duration", config.AppName),
			Help: "Duration of the discord interaction",
		},
		[]string{"interaction"},
	)

	// DiscordInteractionPanics is the number of recovered panics in interaction handlers.
	DiscordInteractionPanics = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_discord_interaction_panics", config.AppName),
			Help: "Number of recovered panics in interaction handlers",
		},
	)

	// SweepRemoved is the number of entries removed by the periodic sweeper.
	SweepRemoved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_sweep_removed_total", config.AppName),
			Help: "Number of expired entries removed by the sweeper",
		},
		[]string{"target"},
	)
)
