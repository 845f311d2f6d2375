package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone    = "Asia/Seoul"
	configPathEnv      = "LAWSUIT_MONITOR_CONFIG"
	logLevelEnv        = "LOG_LEVEL"
	courtListenerEnv   = "COURTLISTENER_TOKEN"
	slackWebhookEnv    = "SLACK_WEBHOOK_URL"
	lookbackDaysEnv    = "LOOKBACK_DAYS"
	showCandidatesEnv  = "SHOW_CANDIDATES"
	ledgerBackendEnv   = "LEDGER_BACKEND"
	ledgerDirEnv       = "LEDGER_DIR"
	databaseDSNEnv     = "DATABASE_DSN"
	redisURLEnv        = "REDIS_URL"
	reportTimezoneEnv  = "REPORT_TIMEZONE"
	defaultGoogleNews  = "https://news.google.com/rss/search?q=AI+copyright+lawsuit+training+data&hl=en-US&gl=US&ceid=US:en"
	defaultArchiveBase = "https://www.courtlistener.com"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Ledger        LedgerConfig       `yaml:"ledger"`
	Archive       ArchiveConfig      `yaml:"archive"`
	Matching      MatchingConfig     `yaml:"matching"`
	Scoring       ScoringConfig      `yaml:"scoring"`
	Report        ReportConfig       `yaml:"report"`
	Notifications NotificationConfig `yaml:"notifications"`
	Metrics       MetricsConfig      `yaml:"metrics"`
	Keywords      []string           `yaml:"keywords"`
	Sites         []SiteConfig       `yaml:"sites" validate:"dive"`
}

// LoggingConfig selects slog level and handler format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format" validate:"omitempty,oneof=text json"`
}

// SchedulerConfig defines how often runs fire and which timezone bounds a reporting day.
type SchedulerConfig struct {
	Interval time.Duration  `yaml:"interval" validate:"gt=0"`
	Timezone string         `yaml:"timezone"`
	location *time.Location `yaml:"-"`
}

// Location resolves the reporting timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, err := time.LoadLocation(defaultTimezone)
	if err != nil {
		return time.FixedZone("KST", 9*60*60)
	}
	return loc
}

// LedgerConfig picks the dedup ledger backend.
type LedgerConfig struct {
	Backend    string        `yaml:"backend" validate:"oneof=file postgres redis"`
	Dir        string        `yaml:"dir" validate:"required_if=Backend file"`
	RetainDays int           `yaml:"retainDays" validate:"gte=0"`
	DSN        string        `yaml:"dsn" validate:"required_if=Backend postgres"`
	RedisURL   string        `yaml:"redisUrl" validate:"required_if=Backend redis"`
	RedisTTL   time.Duration `yaml:"redisTtl"`
}

// ArchiveConfig describes the docket archive (CourtListener) collaborator.
type ArchiveConfig struct {
	BaseURL          string   `yaml:"baseUrl" validate:"required,url"`
	Token            string   `yaml:"token"`
	Queries          []string `yaml:"queries" validate:"min=1"`
	MaxResults       int      `yaml:"maxResults" validate:"gte=1"`
	Concurrency      int      `yaml:"concurrency" validate:"gte=1"`
	SkipDocumentText bool     `yaml:"skipDocumentText"`
}

// MatchingConfig tunes the news-to-docket matcher.
type MatchingConfig struct {
	LookbackDays       int     `yaml:"lookbackDays" validate:"gte=1"`
	ConfirmThreshold   float64 `yaml:"confirmThreshold" validate:"gt=0,lte=1"`
	CandidateThreshold float64 `yaml:"candidateThreshold" validate:"gt=0,ltefield=ConfirmThreshold"`
	TextWeight         float64 `yaml:"textWeight" validate:"gte=0,lte=1"`
	ShowCandidates     bool    `yaml:"showCandidates"`
}

// ScoringConfig bounds section extraction.
type ScoringConfig struct {
	MaxScanChars    int `yaml:"maxScanChars" validate:"gte=0"`
	MaxExcerptChars int `yaml:"maxExcerptChars" validate:"gte=0"`
}

// ReportConfig shapes the run report.
type ReportConfig struct {
	TopN int `yaml:"topN" validate:"gte=0"`
	// CountDuplicates includes already-reported items in the daily counters.
	CountDuplicates bool `yaml:"countDuplicates"`
}

// NotificationConfig encapsulates outbound channels.
type NotificationConfig struct {
	Slack SlackConfig `yaml:"slack"`
}

// SlackConfig holds the incoming-webhook URL.
type SlackConfig struct {
	WebhookURL string `yaml:"webhookUrl" validate:"omitempty,url"`
	SkipEmpty  bool   `yaml:"skipEmpty"`
}

// MetricsConfig controls the Prometheus listener used by `serve`.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// SiteConfig describes a single news site with its scanner strategy.
type SiteConfig struct {
	Name       string            `yaml:"name" validate:"required"`
	Scanner    string            `yaml:"scanner" validate:"required"`
	Categories []CategoryConfig  `yaml:"categories" validate:"min=1,dive"`
	Options    map[string]string `yaml:"options"`
}

// CategoryConfig holds a concrete endpoint to scan (feed URL or listing page).
type CategoryConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url" validate:"required,url"`
}

// Load reads YAML configuration (if present), applies environment overrides
// and validates the result. path wins over LAWSUIT_MONITOR_CONFIG.
func Load(path string) (Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				return Config{}, fmt.Errorf("parse %s: %w", path, err)
			}
			cfg = mergeConfig(cfg, fileCfg)
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	if len(cfg.Sites) == 0 {
		cfg.Sites = defaultConfig().Sites
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks struct constraints.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(courtListenerEnv); v != "" {
		c.Archive.Token = strings.TrimSpace(v)
	}

	if v := os.Getenv(slackWebhookEnv); v != "" {
		c.Notifications.Slack.WebhookURL = v
	}

	if v := os.Getenv(lookbackDaysEnv); v != "" {
		if days, err := strconv.Atoi(v); err == nil && days > 0 {
			c.Matching.LookbackDays = days
		} else {
			log.Printf("config: ignoring %s=%q", lookbackDaysEnv, v)
		}
	}

	if v := os.Getenv(showCandidatesEnv); v != "" {
		if show, err := strconv.ParseBool(v); err == nil {
			c.Matching.ShowCandidates = show
		}
	}

	if v := os.Getenv(ledgerBackendEnv); v != "" {
		c.Ledger.Backend = v
	}

	if v := os.Getenv(ledgerDirEnv); v != "" {
		c.Ledger.Dir = v
	}

	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Ledger.DSN = v
	}

	if v := os.Getenv(redisURLEnv); v != "" {
		c.Ledger.RedisURL = v
	}

	if v := os.Getenv(reportTimezoneEnv); v != "" {
		c.Scheduler.Timezone = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		c.Scheduler.Timezone = defaultTimezone
		c.Scheduler.location = nil
		return
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	if override.Scheduler.Interval != 0 {
		base.Scheduler.Interval = override.Scheduler.Interval
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	if override.Ledger.Backend != "" {
		base.Ledger.Backend = override.Ledger.Backend
	}
	if override.Ledger.Dir != "" {
		base.Ledger.Dir = override.Ledger.Dir
	}
	if override.Ledger.RetainDays != 0 {
		base.Ledger.RetainDays = override.Ledger.RetainDays
	}
	if override.Ledger.DSN != "" {
		base.Ledger.DSN = override.Ledger.DSN
	}
	if override.Ledger.RedisURL != "" {
		base.Ledger.RedisURL = override.Ledger.RedisURL
	}
	if override.Ledger.RedisTTL != 0 {
		base.Ledger.RedisTTL = override.Ledger.RedisTTL
	}

	if override.Archive.BaseURL != "" {
		base.Archive.BaseURL = override.Archive.BaseURL
	}
	if override.Archive.Token != "" {
		base.Archive.Token = override.Archive.Token
	}
	if len(override.Archive.Queries) > 0 {
		base.Archive.Queries = override.Archive.Queries
	}
	if override.Archive.MaxResults != 0 {
		base.Archive.MaxResults = override.Archive.MaxResults
	}
	if override.Archive.Concurrency != 0 {
		base.Archive.Concurrency = override.Archive.Concurrency
	}
	base.Archive.SkipDocumentText = base.Archive.SkipDocumentText || override.Archive.SkipDocumentText

	if override.Matching.LookbackDays != 0 {
		base.Matching.LookbackDays = override.Matching.LookbackDays
	}
	if override.Matching.ConfirmThreshold != 0 {
		base.Matching.ConfirmThreshold = override.Matching.ConfirmThreshold
	}
	if override.Matching.CandidateThreshold != 0 {
		base.Matching.CandidateThreshold = override.Matching.CandidateThreshold
	}
	if override.Matching.TextWeight != 0 {
		base.Matching.TextWeight = override.Matching.TextWeight
	}
	base.Matching.ShowCandidates = base.Matching.ShowCandidates || override.Matching.ShowCandidates

	if override.Scoring.MaxScanChars != 0 {
		base.Scoring.MaxScanChars = override.Scoring.MaxScanChars
	}
	if override.Scoring.MaxExcerptChars != 0 {
		base.Scoring.MaxExcerptChars = override.Scoring.MaxExcerptChars
	}

	if override.Report.TopN != 0 {
		base.Report.TopN = override.Report.TopN
	}
	base.Report.CountDuplicates = base.Report.CountDuplicates || override.Report.CountDuplicates

	if override.Notifications.Slack.WebhookURL != "" {
		base.Notifications.Slack.WebhookURL = override.Notifications.Slack.WebhookURL
	}
	base.Notifications.Slack.SkipEmpty = base.Notifications.Slack.SkipEmpty || override.Notifications.Slack.SkipEmpty

	if override.Metrics.Addr != "" {
		base.Metrics.Addr = override.Metrics.Addr
	}

	if len(override.Keywords) > 0 {
		base.Keywords = override.Keywords
	}

	if len(override.Sites) > 0 {
		base.Sites = override.Sites
	}

	return base
}

func defaultConfig() Config {
	cfg := Config{
		Logging:   LoggingConfig{Level: "info", Format: "text"},
		Scheduler: SchedulerConfig{Interval: time.Hour, Timezone: defaultTimezone},
		Ledger: LedgerConfig{
			Backend:    "file",
			Dir:        "data/ledger",
			RetainDays: 7,
			RedisTTL:   72 * time.Hour,
		},
		Archive: ArchiveConfig{
			BaseURL: defaultArchiveBase,
			Queries: []string{
				`"artificial intelligence" AND copyright`,
				`"training data" AND (copyright OR infringement)`,
				`"large language model"`,
				`scraping AND ("machine learning" OR "generative AI")`,
			},
			MaxResults:  20,
			Concurrency: 4,
		},
		Matching: MatchingConfig{
			LookbackDays:       3,
			ConfirmThreshold:   0.6,
			CandidateThreshold: 0.35,
			TextWeight:         0.7,
		},
		Scoring: ScoringConfig{MaxScanChars: 4000, MaxExcerptChars: 280},
		Report:  ReportConfig{TopN: 5},
		Metrics: MetricsConfig{Addr: ":9108"},
		Keywords: []string{
			"lawsuit", "sue", "sued", "suit", "complaint", "court", "litigation", "class action",
			"copyright", "infring",
		},
		Sites: []SiteConfig{
			{
				Name:    "google-news",
				Scanner: "rss",
				Categories: []CategoryConfig{
					{Name: "ai-copyright", URL: defaultGoogleNews},
				},
			},
		},
	}
	cfg.bindTimezone()
	return cfg
}
