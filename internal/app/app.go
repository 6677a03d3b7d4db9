package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/humanbelnik/kinomatch/internal/config"
	http_init "github.com/humanbelnik/kinomatch/internal/delivery/http/init"
	http_access_middleware "github.com/humanbelnik/kinomatch/internal/delivery/http/middleware/access"
	http_movie "github.com/humanbelnik/kinomatch/internal/delivery/http/movie"
	http_session "github.com/humanbelnik/kinomatch/internal/delivery/http/session"
	http_swagger "github.com/humanbelnik/kinomatch/internal/delivery/http/swagger"
	http_swipe "github.com/humanbelnik/kinomatch/internal/delivery/http/swipe"
	ws_session "github.com/humanbelnik/kinomatch/internal/delivery/ws/session"
	infra_memory "github.com/humanbelnik/kinomatch/internal/infra/memory"
	infra_postgres_cursor "github.com/humanbelnik/kinomatch/internal/infra/postgres/cursor"
	infra_postgres_filter "github.com/humanbelnik/kinomatch/internal/infra/postgres/filter"
	infra_pg_init "github.com/humanbelnik/kinomatch/internal/infra/postgres/init"
	infra_postgres_item "github.com/humanbelnik/kinomatch/internal/infra/postgres/item"
	infra_postgres_match "github.com/humanbelnik/kinomatch/internal/infra/postgres/match"
	infra_postgres_notify "github.com/humanbelnik/kinomatch/internal/infra/postgres/notify"
	infra_postgres_reaction "github.com/humanbelnik/kinomatch/internal/infra/postgres/reaction"
	infra_postgres_session "github.com/humanbelnik/kinomatch/internal/infra/postgres/session"
	infra_redis_cache "github.com/humanbelnik/kinomatch/internal/infra/redis/cache"
	infra_redis_init "github.com/humanbelnik/kinomatch/internal/infra/redis/init"
	infra_tmdb "github.com/humanbelnik/kinomatch/internal/infra/tmdb"
	usecase_feed "github.com/humanbelnik/kinomatch/internal/usecase/feed"
	usecase_match "github.com/humanbelnik/kinomatch/internal/usecase/match"
	usecase_movie "github.com/humanbelnik/kinomatch/internal/usecase/movie"
	usecase_presence "github.com/humanbelnik/kinomatch/internal/usecase/presence"
	usecase_session "github.com/humanbelnik/kinomatch/internal/usecase/session"
	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"

	FanoutLocal    = "local"
	FanoutPostgres = "postgres"
)

// NewLogger builds the process logger from the logging section.
func NewLogger(cfg config.Logging) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

type storage struct {
	session       usecase_session.Storage
	likers        usecase_match.Likers
	announcements usecase_match.AnnouncementRepository
	db            *sqlx.DB
}

func newStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*storage, error) {
	switch cfg.Storage.Driver {
	case DriverMemory:
		logger.Warn("using in-memory storage, state is lost on restart")
		store := infra_memory.New()
		return &storage{
			session:       store.Storage(),
			likers:        store.Ledger(),
			announcements: store.Announcements(),
		}, nil
	case DriverPostgres:
		db := infra_pg_init.MustEstablishConn(cfg.Postgres)
		if err := infra_pg_init.Migrate(ctx, db); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
		ledger := infra_postgres_reaction.New(db)
		matches := infra_postgres_match.New(db)
		return &storage{
			session: usecase_session.Storage{
				Sessions: infra_postgres_session.New(db),
				Filters:  infra_postgres_filter.New(db),
				Cursors:  infra_postgres_cursor.New(db),
				Items:    infra_postgres_item.New(db),
				Ledger:   ledger,
				Matches:  matches,
			},
			likers:        ledger,
			announcements: matches,
			db:            db,
		}, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// Go wires every component and serves until ctx is cancelled.
func Go(ctx context.Context, cfg *config.Config) error {
	logger := NewLogger(cfg.Logging)
	slog.SetDefault(logger)

	store, err := newStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if store.db != nil {
		defer store.db.Close()
	}

	g, ctx := errgroup.WithContext(ctx)

	presence := usecase_presence.New(cfg.Presence.Timeout)
	hubOpts := []ws_session.Option{
		ws_session.WithLogger(logger),
		ws_session.WithIntervals(0, cfg.Presence.SweepInterval),
	}

	// Usecases publish to the hub directly, or through NOTIFY so that
	// every instance's hub receives the event.
	var publisher usecase_session.Publisher
	var hub *ws_session.Hub
	switch {
	case cfg.Events.Fanout == FanoutPostgres && store.db != nil:
		notifier := infra_postgres_notify.NewPublisher(store.db, logger)
		hub = ws_session.NewHub(presence, append(hubOpts, ws_session.WithRelay(notifier))...)
		listener := infra_postgres_notify.NewListener(cfg.Postgres.DSN(), hub, logger)
		publisher = notifier
		g.Go(func() error {
			notifier.Run(ctx)
			return nil
		})
		g.Go(func() error { return listener.Run(ctx) })
	default:
		if cfg.Events.Fanout == FanoutPostgres {
			logger.Warn("postgres fan-out needs postgres storage, using local delivery")
		}
		hub = ws_session.NewHub(presence, hubOpts...)
		publisher = hub
	}
	g.Go(func() error {
		hub.Run(ctx)
		return nil
	})

	tmdb := infra_tmdb.New(cfg.TMDB, logger)

	detector := usecase_match.New(store.likers, store.announcements,
		usecase_match.WithQuorum(cfg.Session.Quorum),
		usecase_match.WithLogger(logger))
	feed := usecase_feed.New(tmdb,
		usecase_feed.WithLogger(logger),
		usecase_feed.WithBatchSize(cfg.Feed.BatchSize),
		usecase_feed.WithMaxPages(cfg.Feed.MaxPages),
		usecase_feed.WithResumePages(cfg.Feed.ResumePages),
		usecase_feed.WithRetry(cfg.Feed.Attempts, cfg.Feed.RetryDelay))
	sessionUC := usecase_session.New(store.session, detector, feed, publisher,
		usecase_session.WithLogger(logger),
		usecase_session.WithPresence(presence),
		usecase_session.WithSessionTTL(cfg.Session.TTL),
		usecase_session.WithCodeAttempts(cfg.Session.CodeAttempts),
		usecase_session.WithCleanupPeriod(cfg.Session.CleanupPeriod),
		usecase_session.WithTimeouts(cfg.Session.LedgerTimeout, cfg.Feed.Timeout))

	movieOpts := []usecase_movie.Option{
		usecase_movie.WithLogger(logger),
		usecase_movie.WithMemo(cfg.Details.CacheSize, cfg.Details.CacheTTL),
	}
	if cfg.Redis.Enabled {
		redisConn := infra_redis_init.MustEstablishConn(cfg.Redis)
		defer redisConn.Close()
		movieOpts = append(movieOpts, usecase_movie.WithCache(infra_redis_cache.New(redisConn, infra_redis_cache.DefaultPrefix)))
	}
	movieUC := usecase_movie.New(tmdb, movieOpts...)

	controllerPool := http_init.NewControllerPool(cfg.HTTP.AllowedOrigins,
		http_init.WithLogger(logger),
		http_init.WithMiddleware(http_access_middleware.ReadOnly(cfg.HTTP.Mode)))
	controllerPool.Add(http_swagger.New())
	controllerPool.Add(http_session.New(sessionUC, hub, http_session.WithLogger(logger)))
	controllerPool.Add(http_swipe.New(sessionUC, http_swipe.WithLogger(logger)))
	controllerPool.Add(http_movie.New(movieUC, http_movie.WithLogger(logger)))
	controllerPool.Register()

	g.Go(func() error {
		return controllerPool.RunAll(ctx, cfg.HTTP.Host, cfg.HTTP.Port)
	})

	return g.Wait()
}

// Migrate applies the schema and exits.
func Migrate(ctx context.Context, cfg *config.Config) error {
	db := infra_pg_init.MustEstablishConn(cfg.Postgres)
	defer db.Close()
	return infra_pg_init.Migrate(ctx, db)
}
