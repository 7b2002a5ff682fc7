package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/certisched-api/internal/handler"
	"github.com/noah-isme/certisched-api/internal/migrations"
	"github.com/noah-isme/certisched-api/internal/models"
	"github.com/noah-isme/certisched-api/internal/realtime"
	"github.com/noah-isme/certisched-api/internal/repository"
	"github.com/noah-isme/certisched-api/internal/service"
	"github.com/noah-isme/certisched-api/pkg/cache"
	"github.com/noah-isme/certisched-api/pkg/config"
	"github.com/noah-isme/certisched-api/pkg/database"
	"github.com/noah-isme/certisched-api/pkg/lock"
	"github.com/noah-isme/certisched-api/pkg/storage"
)

const (
	shutdownTimeout = 10 * time.Second
	publishTimeout  = 2 * time.Second
	readHeaderLimit = 10 * time.Second
)

type groupStore interface {
	LoadGroup(ctx context.Context, groupID string) (*models.GroupSnapshot, error)
	CommitGroup(ctx context.Context, groupID string, changes models.GroupChangeset) error
	Groups(ctx context.Context) ([]string, error)
}

type auditSink interface {
	Insert(ctx context.Context, ticket models.AuditTicket) error
}

// App holds the wired services shared by the HTTP server and the CLI commands.
type App struct {
	Config *config.Config
	Logger *zap.Logger

	Store      groupStore
	Metrics    *service.MetricsService
	Notifier   *service.ChangeNotifier
	Audit      *service.AuditService
	Tokens     *service.TokenService
	Scheduling *service.SchedulingService
	Manual     *service.ManualSchedulingService
	Improviso  *service.ImprovisoService
	Sweeper    *service.ApprovalSweeper
	Calendar   *service.CalendarService
	Techs      *service.TechnicianService
	Territory  *service.TerritoryService
	Scores     *service.ScoreAdjustmentService
	Hub        *realtime.Hub

	db      *sqlx.DB
	redis   *redis.Client
	changes handler.LastChangeReader
	checks  map[string]handler.ReadinessCheck
	closers []func()
}

// New wires every backend selected by cfg. Close must be called when done.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: service.NewMetricsService(),
		checks:  make(map[string]handler.ReadinessCheck),
	}
	if err := a.wire(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) wire(ctx context.Context) error {
	cfg := a.Config

	if a.needsRedis() {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		a.redis = client
		a.closers = append(a.closers, func() { _ = client.Close() })
		a.checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	}

	if a.needsDatabase() {
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		a.db = db
		a.closers = append(a.closers, func() { _ = db.Close() })
		a.checks["database"] = func(ctx context.Context) error { return db.PingContext(ctx) }
		if cfg.Database.MigrateOnBoot {
			if _, err := migrations.Apply(ctx, db, a.Logger); err != nil {
				return fmt.Errorf("apply migrations: %w", err)
			}
		}
	}

	store, err := a.buildStore()
	if err != nil {
		return err
	}
	a.Store = store

	sink, err := a.buildAuditSink()
	if err != nil {
		return err
	}
	a.Audit = service.NewAuditService(sink, service.AuditConfig{
		Workers:    cfg.Audit.Workers,
		BufferSize: cfg.Audit.BufferSize,
		MaxRetries: cfg.Audit.MaxRetries,
		RetryDelay: cfg.Audit.RetryDelay,
	}, a.Metrics, a.Logger.Named("audit"))
	a.Audit.Start(context.Background())
	a.closers = append(a.closers, a.Audit.Stop)

	a.Notifier = service.NewChangeNotifier(a.Logger.Named("notifier"))
	a.changes = a.Notifier
	if cfg.Notify.WebsocketEnabled {
		a.Hub = realtime.NewHub(cfg.CORS.AllowedOrigins, a.Metrics, a.Logger.Named("realtime"))
		a.closers = append(a.closers, a.Notifier.Subscribe(a.Hub.Publish), a.Hub.Close)
	}
	if a.redis != nil {
		publisher := repository.NewRedisChangePublisher(a.redis, cfg.Notify.RedisChannel, a.Logger.Named("notify"))
		a.changes = publisher
		a.closers = append(a.closers, a.Notifier.Subscribe(a.redisRelay(publisher)))
	}

	a.Tokens = service.NewTokenService(service.TokenConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer})

	deps := service.WorkspaceDeps{
		Store:    store,
		Locker:   a.buildLocker(),
		Audit:    a.Audit,
		Notifier: a.Notifier,
		Metrics:  a.Metrics,
		Logger:   a.Logger,
		Location: cfg.Scheduling.Location(),
	}
	validate := validator.New()
	schedCfg := SchedulingConfig(cfg.Scheduling)

	a.Scheduling = service.NewSchedulingService(deps, schedCfg, validate)
	a.Manual = service.NewManualSchedulingService(deps, schedCfg, validate)
	a.Improviso = service.NewImprovisoService(deps, validate)
	a.Sweeper = service.NewApprovalSweeper(deps)
	a.Calendar = service.NewCalendarService(deps, validate)
	a.Techs = service.NewTechnicianService(deps, validate)
	a.Territory = service.NewTerritoryService(deps, validate)
	a.Scores = service.NewScoreAdjustmentService(deps, validate)
	return nil
}

func (a *App) needsRedis() bool {
	return a.Config.Redis.Enabled || a.Config.Lock.Backend == config.LockRedis
}

func (a *App) needsDatabase() bool {
	return a.Config.Store.Backend == config.StorePostgres || a.Config.Audit.Backend == config.AuditPostgres
}

func (a *App) buildStore() (groupStore, error) {
	switch a.Config.Store.Backend {
	case "", config.StoreMemory:
		return repository.NewMemoryStore(), nil
	case config.StoreFile:
		fs, err := storage.NewLocalStorage(a.Config.Store.SnapshotDir)
		if err != nil {
			return nil, err
		}
		return repository.NewFileStore(fs), nil
	case config.StorePostgres:
		return repository.NewPostgresStore(a.db), nil
	default:
		return nil, fmt.Errorf("unsupported store backend %q", a.Config.Store.Backend)
	}
}

func (a *App) buildAuditSink() (auditSink, error) {
	switch a.Config.Audit.Backend {
	case config.AuditMemory:
		return repository.NewMemoryAuditStore(), nil
	case "", config.AuditJSONL:
		path := a.Config.Audit.FilePath
		if path == "" {
			path = "./data/audit.jsonl"
		}
		fs, err := storage.NewLocalStorage(filepath.Dir(path))
		if err != nil {
			return nil, err
		}
		return repository.NewJSONLAuditStore(fs, filepath.Base(path)), nil
	case config.AuditPostgres:
		return repository.NewAuditRepository(a.db), nil
	default:
		return nil, fmt.Errorf("unsupported audit backend %q", a.Config.Audit.Backend)
	}
}

func (a *App) buildLocker() lock.Locker {
	if a.Config.Lock.Backend == config.LockRedis && a.redis != nil {
		return lock.NewRedisLocker(a.redis, lock.RedisConfig{
			TTL:          a.Config.Lock.TTL,
			WaitTimeout:  a.Config.Lock.WaitTimeout,
			PollInterval: a.Config.Lock.PollInterval,
			Logger:       a.Logger.Named("lock"),
		})
	}
	return lock.NewMemoryLocker(a.Config.Lock.WaitTimeout)
}

// redisRelay mirrors local notices to Redis for other instances.
func (a *App) redisRelay(publisher *repository.RedisChangePublisher) func(models.ChangeNotice) {
	return func(notice models.ChangeNotice) {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := publisher.Publish(ctx, notice); err != nil {
			a.Logger.Warn("relay change notice", zap.String("group_id", notice.GroupID), zap.Error(err))
		}
	}
}

// SchedulingConfig maps the environment settings onto the engine rules.
func SchedulingConfig(cfg config.SchedulingConfig) service.SchedulingConfig {
	return service.SchedulingConfig{
		WindowDays: cfg.WindowBusinessDays,
		Limits: service.ShiftLimits{
			Virtual:    cfg.VirtualPerShift,
			Presential: cfg.PresentialPerShift,
		},
		Weights: service.DemandWeights{
			Active:     cfg.ActiveWeight,
			Backlog:    cfg.BacklogWeight,
			Medium:     cfg.LevelMediumThreshold,
			High:       cfg.LevelHighThreshold,
			WindowDays: cfg.DemandWindowBusinessDays,
		},
	}
}

// DB exposes the database handle, nil unless a postgres backend is configured.
func (a *App) DB() *sqlx.DB {
	return a.db
}

// RunSweeper runs the periodic D+1 sweep until ctx is done.
func (a *App) RunSweeper(ctx context.Context) {
	a.Logger.Info("auto approval sweeper started", zap.Duration("interval", a.Config.Sweeper.Interval))
	a.Sweeper.Run(ctx, a.Config.Sweeper.Interval, a.Config.Sweeper.Groups, a.Store)
}

// Serve runs the HTTP server, plus the sweeper when enabled, until ctx is done.
func (a *App) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.Config.Port),
		Handler:           a.Router(),
		ReadHeaderTimeout: readHeaderLimit,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if a.Config.Sweeper.Enabled {
		go a.RunSweeper(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", a.Config.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	a.Logger.Info("server shutting down")
	return srv.Shutdown(shutdownCtx)
}

// Close releases resources in reverse wiring order.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
