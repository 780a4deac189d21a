package conf

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/behindthegarage/kidsclubplans-conversational/internal/pkg/logger"
)

type Config struct {
	Client ClientConfig  `mapstructure:"client"`
	Chat   ChatConfig    `mapstructure:"chat"`
	Log    logger.Config `mapstructure:"log"`
}

// ClientConfig configures how the client reaches the planning backend. The
// base URL is injected into every component at construction; nothing reads
// the environment at call time.
type ClientConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryBaseDelay time.Duration `mapstructure:"retry_base_delay"`
}

type ChatConfig struct {
	WelcomeMessage string `mapstructure:"welcome_message"`
	TokenEncoding  string `mapstructure:"token_encoding"`
}

const defaultWelcome = "Hi! I can help you plan activities for your program. " +
	"Ask me for ideas, a full day plan, or search the activity catalog."

func setDefaults(v *viper.Viper) {
	v.SetDefault("client.base_url", "http://localhost:8000")
	v.SetDefault("client.timeout", 30*time.Second)
	v.SetDefault("client.max_retries", 2)
	v.SetDefault("client.retry_base_delay", 400*time.Millisecond)
	v.SetDefault("chat.welcome_message", defaultWelcome)
	v.SetDefault("chat.token_encoding", "cl100k_base")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "console")
	v.SetDefault("log.enablecaller", true)
	v.SetDefault("log.file.filename", "logs/kcp.log")
	v.SetDefault("log.file.maxsize", 50)
	v.SetDefault("log.file.maxage", 14)
	v.SetDefault("log.file.maxbackups", 5)
	v.SetDefault("log.file.compress", true)
}

// LoadConfig reads configuration from the given file, with environment
// variable overrides (KCP_CLIENT_BASE_URL and so on). An empty path loads
// defaults only.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("KCP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}
