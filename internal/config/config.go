package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"NewsRelay/internal/domain"
)

const (
	configPathEnv       = "NEWSRELAY_CONFIG"
	dotenvPathEnv       = "NEWSRELAY_DOTENV"
	logLevelEnv         = "LOG_LEVEL"
	newsAPIKeyEnv       = "NEWS_API_KEY"
	newsCategoryEnv     = "NEWS_CATEGORY"
	intervalEnv         = "AGENT_INTERVAL_MINUTES"
	autoStartEnv        = "AGENT_AUTOSTART"
	telegramTokenEnv    = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv   = "TELEGRAM_CHAT_ID"
	httpAddrEnv         = "HTTP_ADDR"
	defaultDotenvPath   = ".env"
	defaultSourceURL    = "https://newsapi.org/v2/top-headlines"
	defaultTelegramURL  = "https://api.telegram.org"
	defaultHTTPTimeout  = 10 * time.Second
	defaultSendInterval = time.Second
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Agent         AgentConfig        `yaml:"agent"`
	Source        SourceConfig       `yaml:"source"`
	Notifications NotificationConfig `yaml:"notifications"`
	Filter        FilterConfig       `yaml:"filter"`
	Server        ServerConfig       `yaml:"server"`
}

// LoggingConfig selects the process log level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// AgentConfig holds the agent defaults used when callers omit fields.
type AgentConfig struct {
	Category        string `yaml:"category"`
	IntervalMinutes int    `yaml:"intervalMinutes"`
	AutoStart       bool   `yaml:"autoStart"`
	LogCapacity     int    `yaml:"logCapacity"`
}

// SourceConfig describes the news provider endpoint.
type SourceConfig struct {
	Endpoint string        `yaml:"endpoint"`
	APIKey   string        `yaml:"apiKey"`
	Language string        `yaml:"language"`
	PageSize int           `yaml:"pageSize"`
	Timeout  time.Duration `yaml:"timeout"`
}

// NotificationConfig encapsulates outbound channels.
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	APIURL       string        `yaml:"apiUrl"`
	BotToken     string        `yaml:"botToken"`
	ChatID       string        `yaml:"chatId"`
	Timeout      time.Duration `yaml:"timeout"`
	SendInterval time.Duration `yaml:"sendInterval"`
}

// FilterConfig toggles deduplication of already delivered articles.
type FilterConfig struct {
	SkipAlreadySent bool `yaml:"skipAlreadySent"`
	MemorySize      int  `yaml:"memorySize"`
}

// ServerConfig describes the control API listener.
type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowedOrigins"`
	RunRatePerMin  float64  `yaml:"runRatePerMinute"`
	RunBurst       int      `yaml:"runBurst"`
}

// AgentDefaults assembles the agent config from configured credentials and defaults.
func (c Config) AgentDefaults() domain.AgentConfig {
	return domain.AgentConfig{
		SourceToken:     c.Source.APIKey,
		SinkBotToken:    c.Notifications.Telegram.BotToken,
		SinkChannelID:   c.Notifications.Telegram.ChatID,
		Category:        domain.Category(c.Agent.Category),
		IntervalMinutes: c.Agent.IntervalMinutes,
	}.Normalize()
}

// Load reads YAML configuration (if present), a .env file (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	loadDotenv()
	cfg.applyEnvOverrides()

	return cfg
}

// loadDotenv populates unset environment variables; a missing file is not an error.
func loadDotenv() {
	path := os.Getenv(dotenvPathEnv)
	if path == "" {
		path = defaultDotenvPath
	}
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := godotenv.Load(path); err != nil {
		log.Printf("config: cannot load %s: %v", path, err)
	}
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(newsAPIKeyEnv); v != "" {
		c.Source.APIKey = v
	}

	if v := os.Getenv(newsCategoryEnv); v != "" {
		c.Agent.Category = strings.ToLower(strings.TrimSpace(v))
	}

	if v := os.Getenv(intervalEnv); v != "" {
		if n, err := strconv.Atoi(v); err != nil {
			log.Printf("config: invalid %s=%q, keeping %d", intervalEnv, v, c.Agent.IntervalMinutes)
		} else {
			c.Agent.IntervalMinutes = n
		}
	}

	if v := os.Getenv(autoStartEnv); v != "" {
		if b, err := strconv.ParseBool(v); err != nil {
			log.Printf("config: invalid %s=%q", autoStartEnv, v)
		} else {
			c.Agent.AutoStart = b
		}
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}

	if v := os.Getenv(httpAddrEnv); v != "" {
		c.Server.Addr = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if override.Agent.Category != "" {
		base.Agent.Category = override.Agent.Category
	}
	if override.Agent.IntervalMinutes != 0 {
		base.Agent.IntervalMinutes = override.Agent.IntervalMinutes
	}
	if override.Agent.AutoStart {
		base.Agent.AutoStart = true
	}
	if override.Agent.LogCapacity > 0 {
		base.Agent.LogCapacity = override.Agent.LogCapacity
	}

	if override.Source.Endpoint != "" {
		base.Source.Endpoint = override.Source.Endpoint
	}
	if override.Source.APIKey != "" {
		base.Source.APIKey = override.Source.APIKey
	}
	if override.Source.Language != "" {
		base.Source.Language = override.Source.Language
	}
	if override.Source.PageSize > 0 {
		base.Source.PageSize = override.Source.PageSize
	}
	if override.Source.Timeout > 0 {
		base.Source.Timeout = override.Source.Timeout
	}

	tg := override.Notifications.Telegram
	if tg.APIURL != "" {
		base.Notifications.Telegram.APIURL = tg.APIURL
	}
	if tg.BotToken != "" {
		base.Notifications.Telegram.BotToken = tg.BotToken
	}
	if tg.ChatID != "" {
		base.Notifications.Telegram.ChatID = tg.ChatID
	}
	if tg.Timeout > 0 {
		base.Notifications.Telegram.Timeout = tg.Timeout
	}
	if tg.SendInterval > 0 {
		base.Notifications.Telegram.SendInterval = tg.SendInterval
	}

	if override.Filter.SkipAlreadySent {
		base.Filter.SkipAlreadySent = true
	}
	if override.Filter.MemorySize > 0 {
		base.Filter.MemorySize = override.Filter.MemorySize
	}

	if override.Server.Addr != "" {
		base.Server.Addr = override.Server.Addr
	}
	if len(override.Server.AllowedOrigins) > 0 {
		base.Server.AllowedOrigins = override.Server.AllowedOrigins
	}
	if override.Server.RunRatePerMin > 0 {
		base.Server.RunRatePerMin = override.Server.RunRatePerMin
	}
	if override.Server.RunBurst > 0 {
		base.Server.RunBurst = override.Server.RunBurst
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Agent: AgentConfig{
			Category:        string(domain.DefaultCategory),
			IntervalMinutes: domain.DefaultIntervalMinutes,
			LogCapacity:     50,
		},
		Source: SourceConfig{
			Endpoint: defaultSourceURL,
			Language: "fr",
			PageSize: 5,
			Timeout:  defaultHTTPTimeout,
		},
		Notifications: NotificationConfig{
			Telegram: TelegramConfig{
				APIURL:       defaultTelegramURL,
				Timeout:      defaultHTTPTimeout,
				SendInterval: defaultSendInterval,
			},
		},
		Filter: FilterConfig{MemorySize: 500},
		Server: ServerConfig{
			Addr:          ":8080",
			RunRatePerMin: 6,
			RunBurst:      2,
		},
	}
}
