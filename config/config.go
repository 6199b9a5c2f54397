package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	OAuth      OAuthConfig      `mapstructure:"oauth"`
	Email      EmailConfig      `mapstructure:"email"`
	CORS       CORSConfig       `mapstructure:"cors"`
	Moderation ModerationConfig `mapstructure:"moderation"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Notify     NotifyConfig     `mapstructure:"notify"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

type OAuthConfig struct {
	Github GithubOAuthConfig `mapstructure:"github"`
}

type GithubOAuthConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURI  string `mapstructure:"redirect_uri"`
}

type EmailConfig struct {
	SMTPHost string `mapstructure:"smtp_host"`
	SMTPPort int    `mapstructure:"smtp_port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	SiteName string `mapstructure:"site_name"` // 邮件中展示的站点名
	SiteURL  string `mapstructure:"site_url"`  // 评论跳转链接前缀
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

type ModerationConfig struct {
	MinLength    int      `mapstructure:"min_length"`    // 评论最短字符数
	MaxLength    int      `mapstructure:"max_length"`    // 评论最长字符数
	MaxLinks     int      `mapstructure:"max_links"`     // 允许的最大链接数
	Blocklist    []string `mapstructure:"blocklist"`     // 敏感词列表（精确匹配）
	SpamPatterns []string `mapstructure:"spam_patterns"` // 垃圾内容正则列表
}

type RateLimitConfig struct {
	Backend     string        `mapstructure:"backend"` // memory 或 redis
	Window      time.Duration `mapstructure:"window"`
	MaxRequests int           `mapstructure:"max_requests"`
}

type NotifyConfig struct {
	QueueName  string `mapstructure:"queue_name"`
	MaxWorkers int    `mapstructure:"max_workers"`
}

// DefaultModeration 内容过滤的默认规则
func DefaultModeration() ModerationConfig {
	return ModerationConfig{
		MinLength: 2,
		MaxLength: 1000,
		MaxLinks:  2,
		Blocklist: []string{"spam", "scam"},
		SpamPatterns: []string{
			`(?i)\b(buy|sell|discount|offer)\b`,
			`(?i)\b(casino|gambling|bet)\b`,
			`\$\d+|\d+\$`,
			`(?i)\b(earn money|make money)\b`,
		},
	}
}

// DefaultRateLimit 默认限流策略：5 分钟内最多 5 条
func DefaultRateLimit() RateLimitConfig {
	return RateLimitConfig{
		Backend:     "memory",
		Window:      5 * time.Minute,
		MaxRequests: 5,
	}
}

func Load(configPath string) (*Config, error) {
	// 优先尝试读取 config.local.yaml（包含真实密钥，不提交到git）
	dir := filepath.Dir(configPath)
	localConfigPath := filepath.Join(dir, "config.local.yaml")

	// 检查 config.local.yaml 是否存在
	if _, err := os.Stat(localConfigPath); err == nil {
		configPath = localConfigPath
	}

	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	// 环境变量覆盖
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

// applyDefaults 补齐未配置的过滤与限流参数
func applyDefaults(cfg *Config) {
	def := DefaultModeration()
	if cfg.Moderation.MinLength == 0 {
		cfg.Moderation.MinLength = def.MinLength
	}
	if cfg.Moderation.MaxLength == 0 {
		cfg.Moderation.MaxLength = def.MaxLength
	}
	if cfg.Moderation.MaxLinks == 0 {
		cfg.Moderation.MaxLinks = def.MaxLinks
	}
	if len(cfg.Moderation.Blocklist) == 0 {
		cfg.Moderation.Blocklist = def.Blocklist
	}
	if len(cfg.Moderation.SpamPatterns) == 0 {
		cfg.Moderation.SpamPatterns = def.SpamPatterns
	}

	rl := DefaultRateLimit()
	if cfg.RateLimit.Backend == "" {
		cfg.RateLimit.Backend = rl.Backend
	}
	if cfg.RateLimit.Window == 0 {
		cfg.RateLimit.Window = rl.Window
	}
	if cfg.RateLimit.MaxRequests == 0 {
		cfg.RateLimit.MaxRequests = rl.MaxRequests
	}

	if cfg.Notify.QueueName == "" {
		cfg.Notify.QueueName = "comment_notify"
	}
	if cfg.Notify.MaxWorkers == 0 {
		cfg.Notify.MaxWorkers = 2
	}
}
