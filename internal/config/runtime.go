package config

import (
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// RuntimeConfig holds model-runtime tunables that operators may change
// without a restart.
type RuntimeConfig struct {
	OpenAIBaseURL       string  `mapstructure:"openaiBaseUrl"`
	ChatTimeoutSeconds  float64 `mapstructure:"chatTimeoutSeconds"`
	EmbedTimeoutSeconds float64 `mapstructure:"embedTimeoutSeconds"`
}

func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		OpenAIBaseURL:       "https://api.openai.com/v1",
		ChatTimeoutSeconds:  60,
		EmbedTimeoutSeconds: 30,
	}
}

// RuntimeHolder serves the current RuntimeConfig and hot-reloads it when the
// backing file changes.
type RuntimeHolder struct {
	current atomic.Value // holds RuntimeConfig
}

func NewRuntimeHolder() (*RuntimeHolder, error) {
	v := viper.New()

	v.SetConfigName("runtime")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/polaris/config")
	v.AddConfigPath("/etc/polaris")
	v.AddConfigPath(".")

	v.SetEnvPrefix("POLARIS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultRuntimeConfig()
	v.SetDefault("runtime.openaiBaseUrl", defaults.OpenAIBaseURL)
	v.SetDefault("runtime.chatTimeoutSeconds", defaults.ChatTimeoutSeconds)
	v.SetDefault("runtime.embedTimeoutSeconds", defaults.EmbedTimeoutSeconds)

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileFound = false
	}

	holder := &RuntimeHolder{}
	if err := holder.load(v); err != nil {
		return nil, err
	}

	if fileFound {
		v.OnConfigChange(func(_ fsnotify.Event) {
			if err := holder.load(v); err != nil {
				zap.L().Warn("failed to reload runtime config", zap.Error(err))
			}
		})
		v.WatchConfig()
	}

	return holder, nil
}

func (h *RuntimeHolder) load(v *viper.Viper) error {
	cfg := DefaultRuntimeConfig()
	if err := v.UnmarshalKey("runtime", &cfg); err != nil {
		return err
	}
	if strings.TrimSpace(cfg.OpenAIBaseURL) == "" {
		cfg.OpenAIBaseURL = DefaultRuntimeConfig().OpenAIBaseURL
	}
	if cfg.ChatTimeoutSeconds <= 0 {
		cfg.ChatTimeoutSeconds = DefaultRuntimeConfig().ChatTimeoutSeconds
	}
	if cfg.EmbedTimeoutSeconds <= 0 {
		cfg.EmbedTimeoutSeconds = DefaultRuntimeConfig().EmbedTimeoutSeconds
	}
	h.current.Store(cfg)
	return nil
}

// Current returns the last loaded RuntimeConfig.
func (h *RuntimeHolder) Current() RuntimeConfig {
	if v, ok := h.current.Load().(RuntimeConfig); ok {
		return v
	}
	return DefaultRuntimeConfig()
}
