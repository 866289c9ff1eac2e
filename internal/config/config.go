// internal/config/config.go
package config

import (
	"log"

	"github.com/spf13/viper"
)

type Config struct {
	Database struct {
		URL string `mapstructure:"url"`
	} `mapstructure:"database"`
	Server struct {
		Port string `mapstructure:"port"`
	} `mapstructure:"server"`
	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
	CORS struct {
		AllowedOrigins   []string `mapstructure:"allowed_origins"`
		AllowedMethods   []string `mapstructure:"allowed_methods"`
		AllowedHeaders   []string `mapstructure:"allowed_headers"`
		ExposedHeaders   []string `mapstructure:"exposed_headers"`
		AllowCredentials bool     `mapstructure:"allow_credentials"`
		MaxAge           int      `mapstructure:"max_age"`
	} `mapstructure:"cors"`
	JWT struct {
		SecretKey       string        `mapstructure:"secret_key"`
		ExpirationHours int `mapstructure:"expiration_hours"`
	} `mapstructure:"jwt"`
	OpenRouter struct {
		APIKey    string  `mapstructure:"api_key"`
		APIURL    string  `mapstructure:"api_url"`
		Model     string  `mapstructure:"model"`
		TimeoutMs int     `mapstructure:"timeout_ms"`
		UseMock   bool    `mapstructure:"use_mock"` // 開発用: 実APIを呼ばず決定的なモック結果を返す
		Temp      float64 `mapstructure:"temperature"`
		MaxTokens int     `mapstructure:"max_tokens"`
	} `mapstructure:"openrouter"`
	Mailer struct {
		Type string `mapstructure:"type"` // "log" または "ses"
	} `mapstructure:"mailer"`
	SES SESConfig `mapstructure:"ses"`
	App struct {
		BaseURL string `mapstructure:"base_url"` // 確認メールのリンク生成用
	} `mapstructure:"app"`
}

// SESConfig は AWS SES 用の設定です。
// auth_type は "iam_role" または "static_credentials" を指定します。
type SESConfig struct {
	Region          string `mapstructure:"region"`
	From            string `mapstructure:"from"`
	AuthType        string `mapstructure:"auth_type"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
}

var Cfg Config

func LoadConfig(path string) error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(path)
	viper.AddConfigPath(".")

	// 秘匿値は環境変数から注入する (設定ファイルには書かない)
	viper.SetEnvPrefix("APP")
	viper.AutomaticEnv()
	viper.BindEnv("database.url", "DATABASE_URL")
	viper.BindEnv("jwt.secret_key", "JWT_SECRET_KEY")
	viper.BindEnv("openrouter.api_key", "OPENROUTER_API_KEY")
	viper.BindEnv("openrouter.use_mock", "OPENROUTER_USE_MOCK")
	viper.BindEnv("ses.access_key_id", "SES_ACCESS_KEY_ID")
	viper.BindEnv("ses.secret_access_key", "SES_SECRET_ACCESS_KEY")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("Warning: Config file not found. Using default settings or environment variables if available.")
		} else {
			log.Printf("Error reading config file: %s\n", err)
			return err
		}
	}

	err := viper.Unmarshal(&Cfg)
	if err != nil {
		log.Printf("Error unmarshalling config: %s\n", err)
		return err
	}

	// --- デフォルト値の設定 ---
	if Cfg.Server.Port == "" {
		Cfg.Server.Port = DefaultServerPort
	}
	if Cfg.Log.Level == "" {
		Cfg.Log.Level = DefaultLogLevel
	}
	if Cfg.OpenRouter.APIURL == "" {
		Cfg.OpenRouter.APIURL = DefaultOpenRouterAPIURL
	}
	if Cfg.OpenRouter.Model == "" {
		Cfg.OpenRouter.Model = DefaultOpenRouterModel
	}
	if Cfg.OpenRouter.TimeoutMs <= 0 {
		Cfg.OpenRouter.TimeoutMs = DefaultOpenRouterTimeoutMs
	}
	if Cfg.JWT.ExpirationHours <= 0 {
		Cfg.JWT.ExpirationHours = DefaultJWTExpirationHours
	}
	if Cfg.Database.URL == "" {
		log.Println("Warning: Database URL is not set in config.")
	}

	log.Println("Config loaded successfully")
	return nil
}
