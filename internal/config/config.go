package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Site       SiteConfig       `mapstructure:"site"`
	Crawler    CrawlerConfig    `mapstructure:"crawler"`
	Fetcher    FetcherConfig    `mapstructure:"fetcher"`
	Checkpoint CheckpointConfig `mapstructure:"checkpoint"`
	Output     OutputConfig     `mapstructure:"output"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Queue      QueueConfig      `mapstructure:"queue"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// SiteConfig describes the target catalog and the selectors used to read it
type SiteConfig struct {
	RootURL string `mapstructure:"root_url"`

	// Navigation menus holding the root categories
	MenuSelectors    []string `mapstructure:"menu_selectors"`
	MenuLinkSelector string   `mapstructure:"menu_link_selector"`
	MenuNameSelector string   `mapstructure:"menu_name_selector"`

	// Child category block on a category page
	ChildBlockSelector string `mapstructure:"child_block_selector"`
	ChildLinkSelector  string `mapstructure:"child_link_selector"`

	// Product listing
	ProductCardSelector  string `mapstructure:"product_card_selector"`
	ProductNameSelector  string `mapstructure:"product_name_selector"`
	ProductImageSelector string `mapstructure:"product_image_selector"`
	NextPageSelector     string `mapstructure:"next_page_selector"`
	DisabledClass        string `mapstructure:"disabled_class"`

	StopWords []string `mapstructure:"stop_words"`
}

// CrawlerConfig holds traversal engine settings
type CrawlerConfig struct {
	InterPageDelayMs int    `mapstructure:"inter_page_delay_ms"`
	RequestTimeoutMs int    `mapstructure:"request_timeout_ms"`
	MaxRetries       int    `mapstructure:"max_retries"`
	RetryBackoffMs   int    `mapstructure:"retry_backoff_ms"`
	PageParam        string `mapstructure:"page_param"`
}

// FetcherConfig selects and tunes the page fetcher
type FetcherConfig struct {
	Type                 string   `mapstructure:"type"` // "browser" or "http"
	Headless             bool     `mapstructure:"headless"`
	BrowserBin           string   `mapstructure:"browser_bin"`
	IdleTimeoutMs        int      `mapstructure:"idle_timeout_ms"`
	UserAgent            string   `mapstructure:"user_agent"`
	MaxRequestsPerSecond int      `mapstructure:"max_requests_per_second"`
	MaxRetries           int      `mapstructure:"max_retries"`
	RespectRobots        bool     `mapstructure:"respect_robots"`
	Proxies              []string `mapstructure:"proxies"`
}

// CheckpointConfig holds intermediate snapshot settings
type CheckpointConfig struct {
	Backend     string `mapstructure:"backend"` // "none", "file" or "redis"
	Path        string `mapstructure:"path"`
	Key         string `mapstructure:"key"`
	Interval    int    `mapstructure:"interval"`
	PerCategory bool   `mapstructure:"per_category"`
}

// OutputConfig holds final artifact settings
type OutputConfig struct {
	Dir        string `mapstructure:"dir"`
	BaseName   string `mapstructure:"base_name"`
	JSON       bool   `mapstructure:"json"`
	CSV        bool   `mapstructure:"csv"`
	Database   string `mapstructure:"database"` // "none", "postgres" or "sqlite"
	SQLitePath string `mapstructure:"sqlite_path"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

// DSN builds a pgx connection string
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Password, d.Name)
}

// RedisConfig holds Redis connection details
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	Database int    `mapstructure:"database"`
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// QueueConfig controls publishing of crawl events to Redis streams
type QueueConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	StreamPrefix  string `mapstructure:"stream_prefix"`
	ConsumerGroup string `mapstructure:"consumer_group"` // Created up front when set
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "text" or "json"
}

func (c CrawlerConfig) InterPageDelay() time.Duration {
	return time.Duration(c.InterPageDelayMs) * time.Millisecond
}

func (c CrawlerConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMs) * time.Millisecond
}

func (c CrawlerConfig) RetryBackoff() time.Duration {
	return time.Duration(c.RetryBackoffMs) * time.Millisecond
}

func (f FetcherConfig) IdleTimeout() time.Duration {
	return time.Duration(f.IdleTimeoutMs) * time.Millisecond
}

// Load loads configuration from a YAML file with environment variable overrides.
// An empty path searches for config.yaml in the working directory; a missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	setDefaults(v)

	v.SetEnvPrefix("CRAWLER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// Validate checks value ranges and enum fields
func (c *Config) Validate() error {
	if c.Site.RootURL == "" {
		return errors.New("site.root_url is required")
	}
	if len(c.Site.MenuSelectors) == 0 {
		return errors.New("site.menu_selectors must not be empty")
	}
	if c.Site.ProductCardSelector == "" {
		return errors.New("site.product_card_selector is required")
	}
	if c.Crawler.InterPageDelayMs < 0 {
		return errors.New("crawler.inter_page_delay_ms must be >= 0")
	}
	if c.Crawler.RequestTimeoutMs <= 0 {
		return errors.New("crawler.request_timeout_ms must be > 0")
	}
	if c.Crawler.MaxRetries < 0 {
		return errors.New("crawler.max_retries must be >= 0")
	}
	if c.Crawler.RetryBackoffMs < 0 {
		return errors.New("crawler.retry_backoff_ms must be >= 0")
	}
	if c.Crawler.PageParam == "" {
		return errors.New("crawler.page_param is required")
	}
	if c.Checkpoint.Interval < 0 {
		return errors.New("checkpoint.interval must be >= 0")
	}
	if !slices.Contains([]string{"browser", "http"}, c.Fetcher.Type) {
		return fmt.Errorf("fetcher.type %q is not one of browser, http", c.Fetcher.Type)
	}
	if !slices.Contains([]string{"none", "file", "redis"}, c.Checkpoint.Backend) {
		return fmt.Errorf("checkpoint.backend %q is not one of none, file, redis", c.Checkpoint.Backend)
	}
	if !slices.Contains([]string{"none", "postgres", "sqlite"}, c.Output.Database) {
		return fmt.Errorf("output.database %q is not one of none, postgres, sqlite", c.Output.Database)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("site.root_url", "https://www.jpmascota.com/")
	v.SetDefault("site.menu_selectors", []string{
		".navleft-container.hidden-md-down .parentMenu",
		".nav-container.hidden-md-down .parentMenu",
	})
	v.SetDefault("site.menu_link_selector", "a")
	v.SetDefault("site.menu_name_selector", "span")
	v.SetDefault("site.child_block_selector", ".block-categories.hidden-sm-down .category-sub-menu")
	v.SetDefault("site.child_link_selector", "a")
	v.SetDefault("site.product_card_selector", ".products.row.product_content.grid .item-product")
	v.SetDefault("site.product_name_selector", ".product_desc .product_name")
	v.SetDefault("site.product_image_selector", ".img_block img")
	v.SetDefault("site.next_page_selector", "a.next.js-search-link")
	v.SetDefault("site.disabled_class", "disabled")
	v.SetDefault("site.stop_words", []string{})

	v.SetDefault("crawler.inter_page_delay_ms", 2000)
	v.SetDefault("crawler.request_timeout_ms", 30000)
	v.SetDefault("crawler.max_retries", 1)
	v.SetDefault("crawler.retry_backoff_ms", 1000)
	v.SetDefault("crawler.page_param", "page")

	v.SetDefault("fetcher.type", "browser")
	v.SetDefault("fetcher.headless", true)
	v.SetDefault("fetcher.browser_bin", "")
	v.SetDefault("fetcher.idle_timeout_ms", 5000)
	v.SetDefault("fetcher.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	v.SetDefault("fetcher.max_requests_per_second", 2)
	v.SetDefault("fetcher.max_retries", 2)
	v.SetDefault("fetcher.respect_robots", false)
	v.SetDefault("fetcher.proxies", []string{})

	v.SetDefault("checkpoint.backend", "file")
	v.SetDefault("checkpoint.path", "./output/checkpoint.json")
	v.SetDefault("checkpoint.key", "crawler:checkpoint:snapshot")
	v.SetDefault("checkpoint.interval", 100)
	v.SetDefault("checkpoint.per_category", false)

	v.SetDefault("output.dir", "./output")
	v.SetDefault("output.base_name", "productos")
	v.SetDefault("output.json", true)
	v.SetDefault("output.csv", true)
	v.SetDefault("output.database", "none")
	v.SetDefault("output.sqlite_path", "./output/products.db")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "catalog")
	v.SetDefault("database.user", "catalog_user")
	v.SetDefault("database.password", "catalog_pass")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.database", 0)

	v.SetDefault("queue.enabled", false)
	v.SetDefault("queue.stream_prefix", "crawler:stream:")
	v.SetDefault("queue.consumer_group", "catalog-consumers")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}
