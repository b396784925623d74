package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/warden/cmd/bot/monitoring"
	"github.com/Jacobbrewer1/warden/pkg/logging"
	"github.com/Jacobbrewer1/warden/pkg/request"
	"github.com/gorilla/mux"
)

type Controller func(w http.ResponseWriter, r *http.Request)

func middlewareHttp(a IApp, handler Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().UTC()
		cw := request.NewClientWriter(w)

		// Recover from any panics that occur in the handler.
		defer func() {
			if rec := recover(); rec != nil {
				a.Log().Error("Panic in handler",
					slog.String(logging.KeyError, fmt.Sprint(rec)),
					slog.String("stack", string(debug.Stack())),
				)
				request.WriteJSON(a.Log(), cw, http.StatusInternalServerError, request.NewMessage(request.ErrInternalServer.Error()))
			}
		}()

		var path string
		route := mux.CurrentRoute(r)
		if route != nil { // The route may be nil if the request is not routed.
			var err error
			path, err = route.GetPathTemplate()
			if err != nil {
				// An error here is only returned if the route does not define a path.
				a.Log().Error("Error getting path template", slog.String(logging.KeyError, err.Error()))
				path = r.URL.Path
			}
		} else {
			path = r.URL.Path
		}

		defer func() {
			// The status code is only known once the handler has returned.
			status := strconv.Itoa(cw.StatusCode())
			monitoring.HttpTotalRequests.WithLabelValues(path, r.Method, status).Inc()
			monitoring.HttpRequestDuration.WithLabelValues(path, r.Method, status).Observe(time.Since(now).Seconds())
		}()

		handler(cw, r)
	}
}

// interactionHandler is the handler for a single kind of interaction.
type interactionHandler func(i *discordgo.InteractionCreate)

// recoverInteraction turns a panic in an interaction handler into a logged error and a generic reply.
func recoverInteraction(a IApp, name string, next interactionHandler) interactionHandler {
	return func(i *discordgo.InteractionCreate) {
		now := time.Now()
		defer func() {
			monitoring.DiscordInteractionDuration.WithLabelValues(name).Observe(time.Since(now).Seconds())
		}()

		defer func() {
			if rec := recover(); rec != nil {
				monitoring.DiscordInteractionPanics.Inc()
				a.Log().Error("Panic handling interaction",
					slog.String("interaction", name),
					slog.String(logging.KeyError, fmt.Sprint(rec)),
					slog.String("stack", string(debug.Stack())),
				)

				if err := respondSlashError(a, i); err != nil {
					a.Log().Error("Error responding to interaction", slog.String(logging.KeyError, err.Error()))
				}
			}
		}()

		next(i)
	}
}
