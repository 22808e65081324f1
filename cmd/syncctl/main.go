// Package main is the syncctl management CLI. It drives the same sync
// service the API exposes, against the same lock, so an operator shell
// and a running instance never reconcile concurrently.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"content-sync-service/internal/app/service"
	cacheloader "content-sync-service/internal/cache"
	"content-sync-service/internal/config"
	"content-sync-service/internal/domain"
	"content-sync-service/internal/infra/postgres"
	"content-sync-service/internal/infra/postgres/migrations"
	"content-sync-service/internal/infra/provider/registry"
	rediscache "content-sync-service/internal/infra/redis"
	"content-sync-service/internal/logger"
	"content-sync-service/internal/publisher"
	"content-sync-service/pkg/locker"
)

// exitErr carries a numeric exit code through the cobra error path.
type exitErr struct {
	code int
	msg  string
}

func (e *exitErr) Error() string { return e.msg }

// codeError returns an exitErr for the given code.
func codeError(code int, format string, args ...any) error {
	return &exitErr{code: code, msg: fmt.Sprintf(format, args...)}
}

// Exit codes: 1 usage or unclassified, 2 sync failure (unrecoverable
// fetch, lock held, unknown provider), 3 environment failure (config,
// database, Redis).
const (
	exitSync  = 2
	exitSetup = 3
)

// syncFlags holds the parsed flags for the sync command.
type syncFlags struct {
	limit         int
	dryRun        bool
	force         bool
	deleteRemoved bool
	category      string
}

func main() {
	var configPath string

	root := &cobra.Command{
		Use:           "syncctl",
		Short:         "Manage provider content synchronization",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default: ./config/config.yaml)")

	var flags syncFlags
	syncCmd := &cobra.Command{
		Use:   "sync [provider]",
		Short: "Reconcile provider content into the local database",
		Long: "Fetches each provider's current item set and applies the minimal " +
			"create/update/deactivate diff. With a provider argument, syncs only " +
			"that provider. Runs under the shared sync lock; exits nonzero when " +
			"another run is already in progress.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			providerID := ""
			if len(args) == 1 {
				providerID = args[0]
			}
			return runSync(configPath, providerID, flags)
		},
	}

	f := syncCmd.Flags()
	f.IntVar(&flags.limit, "limit", 0, "Cap records fetched per provider (0 = provider default)")
	f.BoolVar(&flags.dryRun, "dry-run", false, "Report the plan without writing rows")
	f.BoolVar(&flags.force, "force", false, "Invalidate the serving cache even when nothing changed")
	f.BoolVar(&flags.deleteRemoved, "delete-removed", false, "Hard-delete rows that vanished remotely instead of deactivating them")
	f.StringVar(&flags.category, "category", "", "Extra tag stamped on every fetched item")

	invalidateCmd := &cobra.Command{
		Use:   "invalidate [provider]",
		Short: "Drop cached content so the next read repopulates",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			providerID := ""
			if len(args) == 1 {
				providerID = args[0]
			}
			return runInvalidate(configPath, providerID)
		},
	}

	providersCmd := &cobra.Command{
		Use:   "providers",
		Short: "List configured providers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProviders(configPath)
		},
	}

	var runsLimit int
	runsCmd := &cobra.Command{
		Use:   "runs [provider]",
		Short: "Show recent sync run history",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			providerID := ""
			if len(args) == 1 {
				providerID = args[0]
			}
			return runRuns(configPath, providerID, runsLimit)
		},
	}
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "Maximum runs to show")

	root.AddCommand(syncCmd, invalidateCmd, providersCmd, runsCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		var ee *exitErr
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		os.Exit(1)
	}
}

// env bundles the dependencies a command needs. Fields are populated by
// the setup* helpers; close releases whatever was opened.
type env struct {
	cfg       *config.Config
	log       *logger.Logger
	db        *gorm.DB
	redis     *redis.Client
	loader    *cacheloader.Loader
	providers []domain.Provider
	closers   []func()
}

func (e *env) close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
}

// setupBase loads config and the logger. CLI log output goes to stderr
// so stdout stays clean for command output.
func setupBase(configPath string) (*env, error) {
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, codeError(exitSetup, "loading config: %s", err)
	}

	logCfg := logger.Config{
		Level:  cfg.Logger.Level,
		Format: cfg.Logger.Format,
		Output: "stderr",
	}
	log, err := logger.New(logCfg, logger.SentryConfig{
		Enabled:     cfg.Sentry.Enabled,
		DSN:         cfg.Sentry.DSN,
		Environment: cfg.Sentry.Environment,
		SampleRate:  cfg.Sentry.SampleRate,
	})
	if err != nil {
		return nil, codeError(exitSetup, "initializing logger: %s", err)
	}

	e := &env{cfg: cfg, log: log}
	e.closers = append(e.closers, func() { _ = log.Sync() })

	return e, nil
}

func (e *env) setupDatabase() error {
	db, err := postgres.NewConnection(
		postgres.Config{
			Host:         e.cfg.Database.Host,
			Port:         e.cfg.Database.Port,
			Name:         e.cfg.Database.Name,
			User:         e.cfg.Database.User,
			Password:     e.cfg.Database.Password,
			SSLMode:      e.cfg.Database.SSLMode,
			MaxOpenConns: e.cfg.Database.MaxOpenConns,
			MaxIdleConns: e.cfg.Database.MaxIdleConns,
			MaxLifetime:  e.cfg.Database.MaxLifetime,
		},
		e.log.Logger,
	)
	if err != nil {
		return codeError(exitSetup, "connecting to database: %s", err)
	}
	e.db = db
	e.closers = append(e.closers, func() { _ = postgres.Close(db) })

	if err := migrations.Run(db); err != nil {
		return codeError(exitSetup, "running migrations: %s", err)
	}

	return nil
}

func (e *env) setupRedis(ctx context.Context) error {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", e.cfg.Redis.Host, e.cfg.Redis.Port),
		Password: e.cfg.Redis.Password,
		DB:       e.cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return codeError(exitSetup, "connecting to Redis: %s", err)
	}
	e.redis = client
	e.closers = append(e.closers, func() { _ = client.Close() })

	store := rediscache.NewCache(client, e.log.Logger, e.cfg.Cache.KeyPrefix)
	e.loader = cacheloader.NewLoader(store, e.cfg.Cache.MaxStale, e.log.Logger)

	return nil
}

func (e *env) setupProviders() {
	e.providers = registry.NewProviders(e.cfg.Provider, e.log.Logger)
}

// syncService wires the full sync stack. The publisher is attached only
// when enabled, matching the API process.
func (e *env) syncService() (*service.SyncService, error) {
	var pub domain.Publisher
	if e.cfg.Publisher.Enabled {
		var err error
		pub, err = publisher.NewRabbitMQ(
			publisher.Config{
				URL:        e.cfg.Publisher.URL,
				Exchange:   e.cfg.Publisher.Exchange,
				RoutingKey: e.cfg.Publisher.RoutingKey,
				Queue:      e.cfg.Publisher.Queue,
			},
			e.log.Logger,
		)
		if err != nil {
			return nil, codeError(exitSetup, "connecting to RabbitMQ: %s", err)
		}
		e.closers = append(e.closers, func() { _ = pub.Close() })
	}

	repo := postgres.NewRepository(e.db)
	distLocker := locker.NewRedisLocker(e.redis, e.log.Logger)

	return service.NewSyncService(repo, e.providers, e.loader, pub, distLocker, e.cfg.Sync.LockTTL, e.log.Logger), nil
}

func runSync(configPath, providerID string, flags syncFlags) error {
	if flags.limit < 0 {
		return codeError(1, "--limit must be >= 0, got %d", flags.limit)
	}

	e, err := setupBase(configPath)
	if err != nil {
		return err
	}
	defer e.close()

	ctx, cancel := context.WithTimeout(context.Background(), e.cfg.Sync.Timeout)
	defer cancel()

	if err := e.setupDatabase(); err != nil {
		return err
	}
	if err := e.setupRedis(ctx); err != nil {
		return err
	}
	e.setupProviders()

	if len(e.providers) == 0 {
		return codeError(exitSetup, "no providers enabled")
	}

	svc, err := e.syncService()
	if err != nil {
		return err
	}

	opts := service.SyncOptions{
		Limit:         flags.limit,
		DryRun:        flags.dryRun,
		Force:         flags.force,
		DeleteRemoved: flags.deleteRemoved,
		Category:      flags.category,
	}

	var runs []*domain.SyncRun
	if providerID == "" {
		runs, err = svc.SyncAllLocked(ctx, opts)
	} else {
		var run *domain.SyncRun
		run, err = svc.SyncProviderLocked(ctx, providerID, opts)
		if run != nil {
			runs = []*domain.SyncRun{run}
		}
	}

	if err != nil {
		switch {
		case errors.Is(err, domain.ErrSyncLocked):
			return codeError(exitSync, "sync already running (lock held by another process)")
		case errors.Is(err, domain.ErrUnknownProvider):
			return codeError(exitSync, "unknown provider %q (see: syncctl providers)", providerID)
		default:
			printRuns(os.Stdout, runs)
			return codeError(exitSync, "sync failed: %s", err)
		}
	}

	printRuns(os.Stdout, runs)

	for _, run := range runs {
		if run.Status == domain.SyncStatusFailed {
			return codeError(exitSync, "sync failed for %s: %s", run.ProviderID, run.Error)
		}
	}

	return nil
}

func runInvalidate(configPath, providerID string) error {
	e, err := setupBase(configPath)
	if err != nil {
		return err
	}
	defer e.close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := e.setupRedis(ctx); err != nil {
		return err
	}

	target := providerID
	if target == "" {
		target = "all providers"
		err = e.loader.InvalidatePrefix(ctx, "")
	} else {
		err = e.loader.InvalidatePrefix(ctx, cacheloader.ProviderContentPrefix(providerID))
		if err == nil {
			err = e.loader.InvalidatePrefix(ctx, cacheloader.ListingPrefix())
		}
	}
	if err != nil {
		return codeError(exitSetup, "invalidating cache: %s", err)
	}

	fmt.Printf("cache invalidated: %s\n", target)

	return nil
}

func runProviders(configPath string) error {
	e, err := setupBase(configPath)
	if err != nil {
		return err
	}
	defer e.close()

	e.setupProviders()

	if len(e.providers) == 0 {
		fmt.Println("no providers enabled")
		return nil
	}

	for _, p := range e.providers {
		fmt.Println(p.Name())
	}

	return nil
}

func runRuns(configPath, providerID string, limit int) error {
	e, err := setupBase(configPath)
	if err != nil {
		return err
	}
	defer e.close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := e.setupDatabase(); err != nil {
		return err
	}

	repo := postgres.NewRepository(e.db)
	runs, err := repo.ListSyncRuns(ctx, providerID, limit)
	if err != nil {
		return codeError(exitSetup, "listing sync runs: %s", err)
	}

	if len(runs) == 0 {
		fmt.Println("no sync runs recorded")
		return nil
	}

	printRuns(os.Stdout, runs)

	return nil
}

// printRuns writes an aligned run table to out.
func printRuns(out io.Writer, runs []*domain.SyncRun) {
	if len(runs) == 0 {
		return
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tPROVIDER\tSTATUS\tCREATED\tUPDATED\tDEACTIVATED\tDELETED\tSKIPPED\tDURATION\tERROR")
	for _, r := range runs {
		if r == nil {
			continue
		}
		status := string(r.Status)
		if r.DryRun {
			status += " (dry-run)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\t%s\t%s\n",
			r.StartedAt.Format(time.RFC3339),
			r.ProviderID,
			status,
			r.Created,
			r.Updated,
			r.Deactivated,
			r.Deleted,
			r.Skipped,
			r.Duration.Round(time.Millisecond),
			r.Error,
		)
	}
	_ = w.Flush()
}
