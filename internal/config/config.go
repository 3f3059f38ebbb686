// Load envs from .env
// Load YAML config
// Override with env vars
// Validate config

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "configs/config.yaml"

type Config struct {
	Crawl  Crawl    `yaml:"crawl"`
	Boards []string `yaml:"boards"`
	AI     AI       `yaml:"ai"`
	Fetch  Fetch    `yaml:"fetch"`
	Output Output   `yaml:"output"`
	//Optional sinks
	DatabaseURL string   `yaml:"database_url"`
	RedisURL    string   `yaml:"redis_url"`
	Telegram    Telegram `yaml:"telegram"`
	Log         Log      `yaml:"log"`
	//Cron spec used by crawl --schedule
	Schedule string `yaml:"schedule"`
}

type AI struct {
	Provider    string        `yaml:"provider"`
	Model       string        `yaml:"model"`
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
	//Indeed listings already carry skills and salary, so extraction can be narrowed
	SkipSalary       bool          `yaml:"skip_salary"`
	SkipTechnologies bool          `yaml:"skip_technologies"`
	CacheTTL         time.Duration `yaml:"cache_ttl"`
}

type Fetch struct {
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	UserAgent         string        `yaml:"user_agent"`
	Headless          bool          `yaml:"headless"`
	CookiesPath       string        `yaml:"cookies_path"`
	ScreenshotDir     string        `yaml:"screenshot_dir"`
}

type Output struct {
	SnapshotPath string `yaml:"snapshot_path"`
	ExcelPath    string `yaml:"excel_path"`
}

type Telegram struct {
	Token  string `yaml:"token"`
	ChatID int64  `yaml:"chat_id"`
}

type Log struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

var aiProviders = map[string]bool{"groq": true, "openai": true, "claude": true, "gemini": true, "ollama": true}

// Default returns a Config with every default filled in.
func Default() *Config {
	return &Config{
		Crawl:  DefaultCrawl(),
		Boards: []string{"linkedin"},
		AI: AI{
			Provider:    "groq",
			Temperature: 0.1,
			Timeout:     60 * time.Second,
			CacheTTL:    30 * 24 * time.Hour,
		},
		Fetch: Fetch{
			Timeout:           30 * time.Second,
			RequestsPerSecond: 1,
			UserAgent:         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
			Headless:          true,
			CookiesPath:       ".cookies/cookies-indeed.json",
			ScreenshotDir:     "logs/screenshots",
		},
		Output: Output{
			SnapshotPath: "output/jobs.json",
			ExcelPath:    "output/jobs.xlsx",
		},
		Log:      Log{Level: "info", File: "logs/scraper.log"},
		Schedule: "@every 6h",
	}
}

// Load reads .env, then the YAML file at path (a missing file is not an
// error), then environment overrides, then validates.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	//Load yaml config
	if path == "" {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		slog.Debug("config file not found, using defaults", "path", path)
	case err != nil:
		return nil, fmt.Errorf("%w: read %s: %v", ErrInvalidConfig, path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: parse %s: %v", ErrInvalidConfig, path, err)
		}
	}

	//Override with env vars
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the whole configuration and normalizes the crawl section.
func (c *Config) Validate() error {
	crawl, err := NewCrawl(c.Crawl)
	if err != nil {
		return err
	}
	c.Crawl = crawl

	if len(c.Boards) == 0 {
		return fmt.Errorf("%w: at least one board is required", ErrInvalidConfig)
	}
	for i, b := range c.Boards {
		b = strings.ToLower(strings.TrimSpace(b))
		if b != "linkedin" && b != "indeed" {
			return fmt.Errorf("%w: unknown board %q", ErrInvalidConfig, b)
		}
		c.Boards[i] = b
	}

	if c.Crawl.AIAnalysis {
		c.AI.Provider = strings.ToLower(c.AI.Provider)
		if !aiProviders[c.AI.Provider] {
			return fmt.Errorf("%w: unknown ai provider %q", ErrInvalidConfig, c.AI.Provider)
		}
		if c.AI.Provider != "ollama" && c.AI.APIKey == "" {
			return fmt.Errorf("%w: ai provider %s needs an API key", ErrInvalidConfig, c.AI.Provider)
		}
	}

	if (c.Telegram.Token == "") != (c.Telegram.ChatID == 0) {
		return fmt.Errorf("%w: telegram needs both a bot token and a chat id", ErrInvalidConfig)
	}
	if c.Fetch.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: fetch.requests_per_second must not be negative", ErrInvalidConfig)
	}
	return nil
}

// LogLevel maps the configured level name to a slog level.
func (c *Config) LogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func applyEnv(cfg *Config) error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %q is not an integer", key, v))
				return
			}
			*dst = n
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %q is not a boolean", key, v))
				return
			}
			*dst = b
		}
	}
	list := func(key string, dst *[]string) {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.Split(v, ",")
		}
	}

	list("JOB_SEARCH_POSITIONS", &cfg.Crawl.Positions)
	str("JOB_SEARCH_LOCATION", &cfg.Crawl.Location)
	str("JOB_TYPE", &cfg.Crawl.WorkMode)
	boolean("LINKEDIN_EASY_APPLY", &cfg.Crawl.EasyApply)
	integer("LINKEDIN_MAX_JOBS", &cfg.Crawl.MaxJobs)
	integer("LINKEDIN_MAX_JOBS_PER_POSITION", &cfg.Crawl.MaxJobsPerPosition)
	str("LINKEDIN_EXPERIENCE_LEVEL", &cfg.Crawl.ExperienceLevel)
	str("LINKEDIN_PUBLISH_TIMESPAN", &cfg.Crawl.PostingWindow)
	boolean("LINKEDIN_LESS_THAN_TEN_APPLICANTS", &cfg.Crawl.LowApplicants)
	boolean("USE_AZURE_OPENAI", &cfg.Crawl.AIAnalysis)
	boolean("USE_AI_ANALYSIS", &cfg.Crawl.AIAnalysis)
	str("JOB_DESIRED_LANGUAGE", &cfg.Crawl.DesiredLanguage)
	integer("MAX_EMPTY_PAGES", &cfg.Crawl.MaxEmptyPages)
	integer("MAX_AI_TOKENS", &cfg.Crawl.MaxAITokens)
	list("JOB_BOARDS", &cfg.Boards)

	str("AI_PROVIDER", &cfg.AI.Provider)
	str("AI_MODEL", &cfg.AI.Model)
	str("AI_BASE_URL", &cfg.AI.BaseURL)
	str("OLLAMA_HOST", &cfg.AI.BaseURL)
	//provider specific keys first, AI_API_KEY wins when both are set
	switch strings.ToLower(cfg.AI.Provider) {
	case "groq":
		str("GROQ_API_KEY", &cfg.AI.APIKey)
	case "openai":
		str("OPENAI_API_KEY", &cfg.AI.APIKey)
	case "claude":
		str("ANTHROPIC_API_KEY", &cfg.AI.APIKey)
	case "gemini":
		str("GEMINI_API_KEY", &cfg.AI.APIKey)
	}
	str("AI_API_KEY", &cfg.AI.APIKey)

	str("DATABASE_URL", &cfg.DatabaseURL)
	str("REDIS_URL", &cfg.RedisURL)
	str("TELEGRAM_BOT_TOKEN", &cfg.Telegram.Token)
	if chatID := os.Getenv("TELEGRAM_CHAT_ID"); chatID != "" {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("TELEGRAM_CHAT_ID: %q is not an integer", chatID))
		} else {
			cfg.Telegram.ChatID = id
		}
	}
	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FILE", &cfg.Log.File)
	str("SCRAPE_SCHEDULE", &cfg.Schedule)
	str("SNAPSHOT_PATH", &cfg.Output.SnapshotPath)
	str("EXCEL_PATH", &cfg.Output.ExcelPath)

	if len(errs) > 0 {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}
