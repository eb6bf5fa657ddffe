package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

const configPathEnv = "REVIEWPULSE_CONFIG"

type Config struct {
	AppEnv      string `yaml:"appEnv"`
	HTTPAddr    string `yaml:"httpAddr"`
	MetricsAddr string `yaml:"metricsAddr"`

	MySQLDSN  string `yaml:"mysqlDsn"`
	RedisAddr string `yaml:"redisAddr"`
	RedisDB   int    `yaml:"redisDb"`
	RedisPass string `yaml:"-"`

	Workers  int    `yaml:"workers"`
	Timezone string `yaml:"timezone"`

	Sources  []SourceConfig `yaml:"sources"`
	Classify ClassifyConfig `yaml:"classify"`
	Polarity PolarityConfig `yaml:"polarity"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Telegram TelegramConfig `yaml:"telegram"`

	CacheTTL time.Duration `yaml:"-"`

	location *time.Location
}

// SourceConfig describes one configured origin. Kind selects the adapter:
// "page" (HTML scraping), "card" (paginated card feed), "rest"
// (authenticated JSON endpoint).
type SourceConfig struct {
	Name       string   `yaml:"name"`
	Kind       string   `yaml:"kind"`
	URL        string   `yaml:"url"`
	APIKey     string   `yaml:"apiKey"`
	ProductIDs []string `yaml:"productIds"`
	PageSize   int      `yaml:"pageSize"`
	MaxPages   int      `yaml:"maxPages"`
}

type ClassifyConfig struct {
	PositiveThreshold float64  `yaml:"positiveThreshold"`
	NegativeThreshold float64  `yaml:"negativeThreshold"`
	DefectKeywords    []string `yaml:"defectKeywords"`
}

type PolarityConfig struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"-"`
}

type ScheduleConfig struct {
	// Ingest is a 5-field cron expression (minute hour dom month dow).
	Ingest  string         `yaml:"ingest"`
	Reports []ReportConfig `yaml:"reports"`
}

// ReportConfig binds a cron rule to an aggregation window. The window is
// [now - windowDays, now) at fire time.
type ReportConfig struct {
	Name       string   `yaml:"name"`
	Cron       string   `yaml:"cron"`
	WindowDays int      `yaml:"windowDays"`
	Sources    []string `yaml:"sources"`
}

type TelegramConfig struct {
	BotToken     string `yaml:"-"`
	AlertChatID  string `yaml:"alertChatId"`
	ReportChatID string `yaml:"reportChatId"`
}

// Location resolves the configured timezone, defaulting to UTC.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		loc, err := time.LoadLocation(c.Timezone)
		if err != nil {
			log.Warn().Str("timezone", c.Timezone).Msg("unknown timezone, using UTC")
			loc = time.UTC
		}
		c.location = loc
	}
	return c.location
}

// Load reads the YAML file named by REVIEWPULSE_CONFIG (when set) over
// built-in defaults, then applies env overrides for secrets and
// connection strings. Configuration is read once at start; no hot reload.
func Load() Config {
	c := defaults()

	if path := os.Getenv(configPathEnv); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("config file unreadable, using defaults")
		} else if err := yaml.Unmarshal(raw, &c); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("config file invalid, using defaults")
			c = defaults()
		}
	}

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}

	c.AppEnv = env("APP_ENV", c.AppEnv)
	c.HTTPAddr = env("HTTP_ADDR", c.HTTPAddr)
	c.MetricsAddr = env("METRICS_ADDR", c.MetricsAddr)
	c.MySQLDSN = env("MYSQL_DSN", c.MySQLDSN)
	c.RedisAddr = env("REDIS_ADDR", c.RedisAddr)
	c.RedisPass = env("REDIS_PASSWORD", "")
	c.RedisDB = atoi("REDIS_DB", c.RedisDB)
	c.Workers = atoi("INGEST_WORKERS", c.Workers)
	c.CacheTTL = time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second
	c.Polarity.Endpoint = env("POLARITY_URL", c.Polarity.Endpoint)
	c.Polarity.APIKey = env("POLARITY_API_KEY", "")
	c.Telegram.BotToken = env("TELEGRAM_BOT_TOKEN", "")
	c.Telegram.AlertChatID = env("TELEGRAM_ALERT_CHAT_ID", c.Telegram.AlertChatID)
	c.Telegram.ReportChatID = env("TELEGRAM_REPORT_CHAT_ID", c.Telegram.ReportChatID)

	if c.Telegram.BotToken == "" {
		log.Warn().Msg("TELEGRAM_BOT_TOKEN is empty, alerts and reports go to the log only")
	}
	if c.Polarity.Endpoint == "" {
		log.Warn().Msg("polarity endpoint is empty, all reviews classify neutral")
	}

	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func defaults() Config {
	return Config{
		AppEnv:      "prod",
		HTTPAddr:    ":8080",
		MetricsAddr: ":9100",
		MySQLDSN:    "root:root@tcp(localhost:3306)/reviewpulse?parseTime=true&charset=utf8mb4,utf8&loc=UTC",
		RedisAddr:   "localhost:6379",
		Workers:     4,
		Timezone:    "UTC",
		CacheTTL:    15 * time.Minute,
		Classify: ClassifyConfig{
			PositiveThreshold: 0.1,
			NegativeThreshold: -0.1,
			DefectKeywords:    []string{"defect", "defective", "broken", "faulty", "refund"},
		},
		Schedule: ScheduleConfig{
			Ingest: "0 10 * * *",
			Reports: []ReportConfig{
				{Name: "weekly", Cron: "5 10 * * 1", WindowDays: 7},
				{Name: "monthly", Cron: "10 10 1 * *", WindowDays: 30},
			},
		},
	}
}
