package config

import (
	"github.com/spf13/viper"
)

// Config holds everything the pipeline reads from the environment or an
// optional config file. The sentiment lexicon lives here rather than in code:
// the word lists are deployment data, not program logic.
type Config struct {
	DataDir             string `mapstructure:"data_dir"`
	MessagesFile        string `mapstructure:"messages_file"`
	SessionsFile        string `mapstructure:"sessions_file"`
	SessionsPluginsFile string `mapstructure:"sessions_plugins_file"`

	// SatisfactionThreshold is the minimum rating counted as a satisfied
	// session in operator scorecards.
	SatisfactionThreshold int `mapstructure:"satisfaction_threshold"`

	// MinSample is the minimum number of qualifying records an insight needs
	// before it is reported instead of "insufficient data".
	MinSample int `mapstructure:"min_sample"`

	// PeakQuantile is the hourly-volume quantile above which an hour counts
	// as a peak hour.
	PeakQuantile float64 `mapstructure:"peak_quantile"`

	Lexicon Lexicon `mapstructure:"lexicon"`
}

// Lexicon is the keyword table driving sentiment classification.
type Lexicon struct {
	Positive []string `mapstructure:"positive"`
	Negative []string `mapstructure:"negative"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("data_dir", "data")
	v.SetDefault("messages_file", "messages.csv")
	v.SetDefault("sessions_file", "sessions.csv")
	v.SetDefault("sessions_plugins_file", "sessions_plugins.csv")
	v.SetDefault("satisfaction_threshold", 4)
	v.SetDefault("min_sample", 1)
	v.SetDefault("peak_quantile", 0.8)
	v.SetDefault("lexicon.positive", defaultPositive)
	v.SetDefault("lexicon.negative", defaultNegative)

	v.SetEnvPrefix("CX")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// No config file: defaults plus env are enough.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default word lists carried over from the production dashboard this module
// replaces. Matching is case-insensitive substring, so multi-word phrases are
// allowed.
var defaultNegative = []string{
	"problema", "erro", "falha", "ruim", "péssimo", "terrível", "horrível",
	"demora", "lento", "não funciona", "quebrado", "defeito", "reclamação",
	"insatisfeito", "cancelar", "reembolso", "devolver",
	"problem", "error", "broken", "terrible", "awful", "refund", "complaint",
	"not working", "cancel",
}

var defaultPositive = []string{
	"obrigado", "obrigada", "excelente", "ótimo", "perfeito", "maravilhoso",
	"satisfeito", "feliz", "recomendo", "parabéns", "adorei", "amei",
	"thank you", "thanks", "great", "excellent", "perfect", "awesome", "love",
}
