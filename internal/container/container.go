package container

import (
	"context"
	"errors"
	"fmt"

	"catalog/crawler/internal/checkpoint"
	"catalog/crawler/internal/client"
	"catalog/crawler/internal/config"
	"catalog/crawler/internal/domain"
	"catalog/crawler/internal/exporter"
	"catalog/crawler/internal/normalize"
	"catalog/crawler/internal/proxy"
	"catalog/crawler/internal/queue"
	"catalog/crawler/internal/repository"
	"catalog/crawler/internal/service"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Container holds all initialized components
type Container struct {
	Config     *config.Config
	RunID      string
	Fetcher    client.PageFetcher
	Checkpoint checkpoint.Store
	Repository repository.ProductRepository

	Engine *service.Engine

	redis *redis.Client
}

// New creates a container with all dependencies of a crawl initialized
func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	container := &Container{
		Config: cfg,
		RunID:  uuid.NewString(),
	}
	if err := container.init(ctx); err != nil {
		_ = container.Close()
		return nil, err
	}

	log.WithField("run_id", container.RunID).Info("✅ Container initialized")
	return container, nil
}

func (c *Container) init(ctx context.Context) error {
	cfg := c.Config

	fetcher, err := newFetcher(ctx, cfg)
	if err != nil {
		return err
	}
	c.Fetcher = fetcher

	if needsRedis(cfg) {
		if err := c.connectRedis(ctx); err != nil {
			return err
		}
	}

	c.Checkpoint = c.newCheckpointStore()

	if err := c.openRepository(ctx); err != nil {
		return err
	}

	parser := client.NewCatalogParser(cfg.Site)
	fetchOpts := client.FetchOptions{
		Wait:    client.WaitNetworkIdle,
		Timeout: cfg.Crawler.RequestTimeout(),
	}
	explorer := service.NewExplorer(cfg.Site.RootURL, fetcher, parser, normalize.New(cfg.Site.StopWords...), fetchOpts)

	opts := []service.Option{
		service.WithRunID(c.RunID),
		service.WithInterPageDelay(cfg.Crawler.InterPageDelay()),
		service.WithRequestTimeout(cfg.Crawler.RequestTimeout()),
		service.WithRetries(cfg.Crawler.MaxRetries, cfg.Crawler.RetryBackoff()),
		service.WithPageParam(cfg.Crawler.PageParam),
	}
	if c.Checkpoint != nil {
		writer := checkpoint.NewWriter(c.Checkpoint, c.RunID, cfg.Checkpoint.Interval, cfg.Checkpoint.PerCategory)
		opts = append(opts, service.WithCheckpointer(writer))
	}
	if cfg.Queue.Enabled {
		redisQueue, err := queue.NewRedisQueue(ctx, c.redis, cfg.Queue)
		if err != nil {
			return err
		}
		opts = append(opts, service.WithListener(queue.NewStreamListener(redisQueue, c.RunID)))
	}

	c.Engine = service.NewEngine(explorer, fetcher, parser, opts...)
	return nil
}

// NewForExport creates a container that only reads the checkpoint store and writes artifacts
func NewForExport(ctx context.Context, cfg *config.Config) (*Container, error) {
	container := &Container{Config: cfg}

	if cfg.Checkpoint.Backend == "redis" {
		if err := container.connectRedis(ctx); err != nil {
			return nil, err
		}
	}
	container.Checkpoint = container.newCheckpointStore()
	if container.Checkpoint == nil {
		return nil, errors.New("checkpoint.backend is none, nothing to export")
	}

	return container, nil
}

// Run crawls the catalog and persists the final result.
// Artifacts are written even when the crawl was interrupted, so partial work is kept.
func (c *Container) Run(ctx context.Context) error {
	result, crawlErr := c.Engine.Crawl(ctx)
	if result == nil {
		return crawlErr
	}

	logger := log.WithField("run_id", result.RunID)
	for _, failure := range result.Failures {
		logger.WithField("url", failure.Category.URL).Warnf("Category %q failed: %s", failure.Category.NormalizedPath, failure.Reason)
	}

	switch result.Status() {
	case domain.CrawlEmpty:
		logger.Warn("⚠️ Crawl finished without products and without failures")
	case domain.CrawlFailed:
		logger.Errorf("❌ Crawl produced no products, %d categories failed", len(result.Failures))
	case domain.CrawlCompletedWithFailures:
		logger.Warnf("⚠️ Crawl completed with %d products and %d failed categories", len(result.Records), len(result.Failures))
	default:
		logger.Infof("🎉 Crawl completed with %d products", len(result.Records))
	}

	// persistence must finish even if the crawl was cancelled
	if err := c.persist(context.WithoutCancel(ctx), result.RunID, result.Records); err != nil {
		return errors.Join(crawlErr, err)
	}
	return crawlErr
}

// ExportCheckpoint writes the final artifacts from the last saved snapshot
func (c *Container) ExportCheckpoint(ctx context.Context) error {
	snapshot, err := c.Checkpoint.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load checkpoint: %w", err)
	}

	log.WithFields(log.Fields{
		"run_id":   snapshot.RunID,
		"saved_at": snapshot.SavedAt,
		"records":  len(snapshot.Records),
	}).Info("📦 Exporting checkpoint snapshot")

	return c.persist(ctx, snapshot.RunID, snapshot.Records)
}

// persist fans the records out to every configured sink
func (c *Container) persist(ctx context.Context, runID string, records []domain.ProductRecord) error {
	if len(records) == 0 {
		log.Info("No products to persist, skipping final artifacts")
		return nil
	}

	jsonPath, csvPath := exporter.Paths(c.Config.Output.Dir, c.Config.Output.BaseName)
	g, ctx := errgroup.WithContext(ctx)

	if c.Config.Output.JSON {
		g.Go(func() error {
			if err := exporter.WriteJSON(jsonPath, records); err != nil {
				return err
			}
			log.Infof("💾 Saved %d products to %s", len(records), jsonPath)
			return nil
		})
	}

	if c.Config.Output.CSV {
		g.Go(func() error {
			if err := exporter.WriteCSV(csvPath, records); err != nil {
				return err
			}
			log.Infof("💾 Saved %d products to %s", len(records), csvPath)
			return nil
		})
	}

	if c.Repository != nil {
		g.Go(func() error {
			if err := c.Repository.SaveProducts(ctx, runID, records); err != nil {
				return err
			}
			log.Infof("💾 Saved %d products to the %s database", len(records), c.Config.Output.Database)
			return nil
		})
	}

	return g.Wait()
}

// Close performs cleanup when shutting down
func (c *Container) Close() error {
	log.Info("Shutting down container...")

	var errs []error
	if c.Fetcher != nil {
		errs = append(errs, c.Fetcher.Close())
	}
	if c.Repository != nil {
		errs = append(errs, c.Repository.Close())
	}
	if c.redis != nil {
		errs = append(errs, c.redis.Close())
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("failed to shut down cleanly: %w", err)
	}

	log.Info("Container shut down successfully")
	return nil
}

func (c *Container) connectRedis(ctx context.Context) error {
	rdb := redis.NewClient(&redis.Options{
		Addr:     c.Config.Redis.Addr(),
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.Database,
	})

	// Test connection
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		_ = rdb.Close()
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Info("✅ Connected to Redis successfully")
	c.redis = rdb
	return nil
}

func (c *Container) newCheckpointStore() checkpoint.Store {
	switch c.Config.Checkpoint.Backend {
	case "file":
		return checkpoint.NewFileStore(c.Config.Checkpoint.Path)
	case "redis":
		return checkpoint.NewRedisStore(c.redis, c.Config.Checkpoint.Key)
	default:
		return nil
	}
}

func needsRedis(cfg *config.Config) bool {
	return cfg.Queue.Enabled || cfg.Checkpoint.Backend == "redis"
}

func newFetcher(ctx context.Context, cfg *config.Config) (client.PageFetcher, error) {
	switch cfg.Fetcher.Type {
	case "http":
		proxySupplier, err := proxy.NewProxySupplier(ctx, cfg.Fetcher.Proxies, cfg.Site.RootURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize proxy supplier: %w", err)
		}
		return client.NewHTTPFetcher(cfg.Fetcher, proxySupplier), nil
	default:
		fetcher, err := client.NewBrowserFetcher(cfg.Fetcher)
		if err != nil {
			return nil, fmt.Errorf("failed to start browser: %w", err)
		}
		return fetcher, nil
	}
}

func (c *Container) openRepository(ctx context.Context) error {
	switch c.Config.Output.Database {
	case "postgres":
		repo, err := repository.NewPostgresRepository(ctx, c.Config.Database.DSN())
		if err != nil {
			return err
		}
		c.Repository = repo
	case "sqlite":
		repo, err := repository.NewSQLiteRepository(ctx, c.Config.Output.SQLitePath)
		if err != nil {
			return err
		}
		c.Repository = repo
	}
	return nil
}
