package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/nats-io/nats.go"
	"github.com/riskibarqy/matchmaker/internal/config"
	"github.com/riskibarqy/matchmaker/internal/domain/availability"
	"github.com/riskibarqy/matchmaker/internal/domain/club"
	"github.com/riskibarqy/matchmaker/internal/domain/notification"
	"github.com/riskibarqy/matchmaker/internal/domain/player"
	"github.com/riskibarqy/matchmaker/internal/domain/rsvp"
	"github.com/riskibarqy/matchmaker/internal/domain/session"
	"github.com/riskibarqy/matchmaker/internal/domain/timeslot"
	"github.com/riskibarqy/matchmaker/internal/infrastructure/changefeed"
	"github.com/riskibarqy/matchmaker/internal/infrastructure/jobqueue"
	"github.com/riskibarqy/matchmaker/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/matchmaker/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/matchmaker/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/matchmaker/internal/interfaces/httpapi"
	basecache "github.com/riskibarqy/matchmaker/internal/platform/cache"
	idgen "github.com/riskibarqy/matchmaker/internal/platform/id"
	"github.com/riskibarqy/matchmaker/internal/platform/logging"
	"github.com/riskibarqy/matchmaker/internal/platform/resilience"
	"github.com/riskibarqy/matchmaker/internal/usecase"
)

// App owns the HTTP server and everything that has to be released on shutdown.
type App struct {
	Server *http.Server

	logger     *logging.Logger
	db         *sqlx.DB
	natsConn   *nats.Conn
	subscriber *changefeed.Subscriber
	notifier   *usecase.Notifier
	windows    *usecase.ConfirmationWindows
	liveViews  *liveViews
}

type repositories struct {
	players      player.Repository
	clubs        club.Repository
	availability availability.Repository
	slots        timeslot.Repository
	sessions     session.Repository
	rsvps        rsvp.Repository
	invalidate   func()
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	a := &App{logger: logger}
	ok := false
	defer func() {
		if !ok {
			a.Close(context.Background())
		}
	}()

	repos, err := a.openRepositories(ctx, cfg)
	if err != nil {
		return nil, err
	}

	notifier, err := usecase.NewNotifier(newPublisher(cfg, logger), cfg.NotifyWorkers, logger)
	if err != nil {
		return nil, crerr.Wrap(err, "build notifier")
	}
	a.notifier = notifier

	modes := usecase.NewModeController()
	a.windows = usecase.NewConfirmationWindows(cfg.ConfirmWindow, modes)

	sessionSvc := usecase.NewSessionService(
		repos.players,
		repos.availability,
		repos.slots,
		repos.sessions,
		repos.rsvps,
		idgen.NewUUIDGenerator(),
		a.windows,
		modes,
		notifier,
		logger,
		usecase.SessionServiceConfig{
			Location: cfg.Location,
			SlotFuzz: cfg.SlotFuzz,
		},
	)
	rsvpSvc := usecase.NewRsvpService(repos.slots, repos.sessions, repos.rsvps, modes, logger, cfg.Location)
	proposalSvc := usecase.NewProposalService(
		repos.players,
		repos.clubs,
		repos.availability,
		repos.slots,
		repos.sessions,
		repos.rsvps,
		cfg.Location,
	)

	var feed feedSubscriber
	if cfg.NATSEnabled {
		conn, err := nats.Connect(cfg.NATSURL,
			nats.Name(cfg.ServiceName),
			nats.MaxReconnects(-1),
			nats.ReconnectWait(2*time.Second),
		)
		if err != nil {
			return nil, crerr.Wrapf(err, "connect nats url=%s", cfg.NATSURL)
		}
		a.natsConn = conn
		a.subscriber = changefeed.NewSubscriber(conn, cfg.NATSSubjectPrefix, logger)
		feed = a.subscriber
	}

	a.liveViews = newLiveViews(proposalSvc, modes, feed, repos.invalidate, usecase.ReconcilerConfig{
		RsvpDebounce:    cfg.RsvpDebounce,
		MinFetchSpacing: cfg.MinFetchSpacing,
		FetchRetries:    cfg.FetchRetries,
		FetchBackoff:    cfg.FetchBackoff,
	}, cfg.LiveViewIdleTTL, logger)

	handler := httpapi.NewHandler(proposalSvc, sessionSvc, rsvpSvc, a.liveViews, cfg.Location, logger)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins)

	a.Server = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	ok = true
	return a, nil
}

func (a *App) openRepositories(ctx context.Context, cfg config.Config) (repositories, error) {
	var repos repositories

	switch cfg.StoreDriver {
	case config.StorePostgres:
		db, err := openTracedDB(normalizeDBURL(cfg.DBURL, cfg.ServiceName), dbNameFromURL(cfg.DBURL))
		if err != nil {
			return repositories{}, crerr.Wrap(err, "open postgres")
		}
		db.SetMaxOpenConns(cfg.DBMaxOpenConns)
		a.db = db

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			return repositories{}, crerr.Wrapf(err, "ping postgres db=%s", dbNameFromURL(cfg.DBURL))
		}

		repos = repositories{
			players:      postgres.NewPlayerRepository(db),
			clubs:        postgres.NewClubRepository(db),
			availability: postgres.NewAvailabilityRepository(db),
			slots:        postgres.NewTimeSlotRepository(db),
			sessions:     postgres.NewSessionRepository(db),
			rsvps:        postgres.NewRsvpRepository(db),
		}
		a.logger.Info("store ready", "driver", cfg.StoreDriver, "db", dbNameFromURL(cfg.DBURL))
	default:
		repos = repositories{
			players:      memory.NewPlayerRepository(memory.SeedPlayers()),
			clubs:        memory.NewClubRepository(memory.SeedClubs()),
			availability: memory.NewAvailabilityRepository(memory.SeedAvailability(time.Now(), cfg.Location)),
			slots:        memory.NewTimeSlotRepository(),
			sessions:     memory.NewSessionRepository(),
			rsvps:        memory.NewRsvpRepository(),
		}
		a.logger.Info("store ready", "driver", config.StoreMemory)
	}

	if cfg.CacheEnabled {
		playerCache := cache.NewPlayerRepository(repos.players, basecache.NewStore(cfg.CacheTTL))
		clubCache := cache.NewClubRepository(repos.clubs, basecache.NewStore(cfg.CacheTTL))
		repos.players = playerCache
		repos.clubs = clubCache
		repos.invalidate = func() {
			playerCache.Invalidate(context.Background())
			clubCache.Invalidate(context.Background())
		}
	}

	return repos, nil
}

func newPublisher(cfg config.Config, logger *logging.Logger) notification.Publisher {
	if !cfg.QStashEnabled {
		return jobqueue.NewLogPublisher(logger)
	}
	return jobqueue.NewQStashPublisher(jobqueue.QStashPublisherConfig{
		BaseURL:          cfg.QStashBaseURL,
		Token:            cfg.QStashToken,
		TargetBaseURL:    cfg.QStashTargetBaseURL,
		Retries:          cfg.QStashRetries,
		InternalJobToken: cfg.InternalJobToken,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.QStashCircuitEnabled,
			FailureThreshold: cfg.QStashCircuitFailureCount,
			OpenTimeout:      cfg.QStashCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.QStashCircuitHalfOpenMaxReq,
		},
	}, logger)
}

// Close completes open confirmation windows first so their notifications are
// still queued, then releases feeds, workers and the store.
func (a *App) Close(ctx context.Context) {
	if a.windows != nil {
		if n := a.windows.ConfirmAll(); n > 0 {
			a.logger.InfoContext(ctx, "confirmed pending sessions on shutdown", "count", n)
		}
	}
	if a.liveViews != nil {
		a.liveViews.Close()
	}
	if a.subscriber != nil {
		if err := a.subscriber.Close(); err != nil {
			a.logger.WarnContext(ctx, "close change feed failed", "error", err)
		}
	}
	if a.natsConn != nil {
		if err := a.natsConn.Drain(); err != nil {
			a.logger.WarnContext(ctx, "drain nats failed", "error", err)
		}
	}
	if a.notifier != nil {
		a.notifier.Close()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.WarnContext(ctx, "close db failed", "error", err)
		}
	}
}
