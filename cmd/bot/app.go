package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/warden/cmd/bot/config"
	"github.com/Jacobbrewer1/warden/cmd/bot/monitoring"
	"github.com/Jacobbrewer1/warden/pkg/auditlog"
	"github.com/Jacobbrewer1/warden/pkg/dataaccess"
	"github.com/Jacobbrewer1/warden/pkg/logging"
	"github.com/Jacobbrewer1/warden/pkg/request"
	"github.com/Jacobbrewer1/warden/pkg/tickets"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// PathMetrics is the path for metrics.
	PathMetrics = "/metrics"

	// PathHealth is the path for the health check.
	PathHealth = "/health"

	shutdownTimeout = 10 * time.Second
)

// IApp is the interface for the application.
type IApp interface {
	// Log returns the application logger.
	Log() *slog.Logger

	// Session returns the discord session.
	Session() *discordgo.Session
}

type App struct {
	l   *slog.Logger
	cfg *config.Config

	// r is the router for the monitoring server.
	r *mux.Router

	// svr is the monitoring server.
	svr *http.Server

	// s is the discord session.
	s *discordgo.Session

	store    dataaccess.Store
	manager  *tickets.Manager
	registry *tickets.ComponentRegistry
	audit    *auditlog.Recorder
	replies  *replyWaiter

	// eventNotifier receives every gateway event for the event metrics.
	eventNotifier chan any

	// ctx is cancelled when the application shuts down. Handlers derive their contexts from it.
	ctx context.Context

	guildsMut sync.Mutex
	// guilds holds the ticket command registered in each joined guild.
	guilds map[string]*discordgo.ApplicationCommand
}

// NewApp creates a new instance of App.
func NewApp(
	l *slog.Logger,
	cfg *config.Config,
	r *mux.Router,
	s *discordgo.Session,
	store dataaccess.Store,
	manager *tickets.Manager,
	registry *tickets.ComponentRegistry,
	audit *auditlog.Recorder,
	replies *replyWaiter,
) *App {
	return &App{
		l:        l,
		cfg:      cfg,
		r:        r,
		s:        s,
		store:    store,
		manager:  manager,
		registry: registry,
		audit:    audit,
		replies:  replies,
		ctx:      context.Background(),
		guilds:   make(map[string]*discordgo.ApplicationCommand),
	}
}

func (a *App) Log() *slog.Logger {
	return a.l
}

func (a *App) Session() *discordgo.Session {
	return a.s
}

// Run connects to discord and serves until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.ctx = ctx
	monitoring.TotalDiscordGuilds.Set(0)

	if a.eventNotifier == nil {
		// Buffered so that a slow metrics consumer never blocks the gateway.
		a.eventNotifier = make(chan any, 100)
	}
	a.s.SetEventNotifier(a.eventNotifier)
	go a.eventListener()

	a.registerDiscordHandlers()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := a.audit.Run(ctx); err != nil {
			a.l.Error("Audit recorder stopped", slog.String(logging.KeyError, err.Error()))
		}
	}()
	go func() {
		defer wg.Done()
		a.runSweeper(ctx, a.cfg.Tickets.SweepInterval)
	}()

	if err := a.s.Open(); err != nil {
		return fmt.Errorf("error opening connection to Discord: %w", err)
	}
	a.l.Info("Bot is now running.")

	a.setupRoutes()
	a.runServer()

	<-ctx.Done()
	a.l.Info("Shutting down")

	if err := a.shutdown(); err != nil {
		a.l.Error("Error shutting down application", slog.String(logging.KeyError, err.Error()))
	}

	// The audit recorder flushes its queue before returning.
	wg.Wait()

	closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.store.Close(closeCtx); err != nil {
		return fmt.Errorf("error closing store: %w", err)
	}
	return nil
}

func (a *App) shutdown() error {
	monitoring.TotalDiscordGuilds.Set(0)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.svr.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("error stopping monitoring server: %w", err))
	}

	if err := a.unregisterSlashCommands(); err != nil {
		errs = append(errs, err)
	}

	if err := a.s.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing connection to Discord: %w", err))
	}
	return errors.Join(errs...)
}

func (a *App) setupRoutes() {
	a.r.HandleFunc(PathMetrics, middlewareHttp(a, promhttp.Handler().ServeHTTP)).Methods(http.MethodGet)
	a.r.HandleFunc(PathHealth, middlewareHttp(a, a.healthCheck())).Methods(http.MethodGet)

	a.r.NotFoundHandler = request.NotFoundHandler(a.l)
	a.r.MethodNotAllowedHandler = request.MethodNotAllowedHandler(a.l)
}

func (a *App) runServer() {
	a.svr = &http.Server{
		Addr:              ":" + a.cfg.MonitoringPort,
		Handler:           a.r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		a.l.Info("Starting monitoring server", slog.String("addr", a.svr.Addr))
		if err := a.svr.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.l.Error("Error starting monitoring server", slog.String(logging.KeyError, err.Error()))
			a.l.Warn("Monitoring server will not be available")
		}
	}()
}

func (a *App) registerDiscordHandlers() {
	a.s.AddHandler(a.readyHandler())

	// Bot joined or became available in a guild.
	a.s.AddHandler(a.guildJoinedHandler())

	// Bot left guild.
	a.s.AddHandler(a.guildLeaveHandler())

	// Replies to the setup wizard.
	a.s.AddHandler(a.messageCreateHandler())

	a.s.AddHandler(a.interactionCreateHandler())
}

func (a *App) readyHandler() func(s *discordgo.Session, r *discordgo.Ready) {
	return func(_ *discordgo.Session, r *discordgo.Ready) {
		a.l.Info(fmt.Sprintf("Logged in as %s#%s", r.User.Username, r.User.Discriminator))

		ids := make([]string, 0, len(r.Guilds))
		for _, g := range r.Guilds {
			ids = append(ids, g.ID)
		}

		go a.manager.Settings().Preload(a.ctx, ids)
	}
}

func (a *App) messageCreateHandler() func(s *discordgo.Session, m *discordgo.MessageCreate) {
	return func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Author == nil || m.Author.Bot {
			return
		}
		a.replies.Deliver(m.Message)
	}
}

func (a *App) eventListener() {
	for e := range a.eventNotifier {
		switch t := e.(type) {
		case *discordgo.Event:
			if t.Type != "" {
				monitoring.TotalDiscordEvents.WithLabelValues(t.Type).Inc()
			} else {
				// If there is no type, then use the operation name.
				monitoring.TotalDiscordEvents.WithLabelValues(strings.ToUpper(t.Operation.String())).Inc()
			}
		default:
			a.l.Error("Unknown event type", slog.String("type", fmt.Sprintf("%T", e)))
			monitoring.TotalDiscordEvents.WithLabelValues("UNKNOWN").Inc()
		}
	}
}
