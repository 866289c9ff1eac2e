// internal/config/constants.go
package config

// アプリケーション情報
const (
	AppName    = "FlashcardsKeep"
	AppVersion = "0.3.0"
)

// デフォルト設定値
const (
	DefaultServerPort          = ":8080"
	DefaultLogLevel            = "info"
	DefaultOpenRouterAPIURL    = "https://openrouter.ai/api"
	DefaultOpenRouterModel     = "openai/gpt-4o-mini"
	DefaultOpenRouterTimeoutMs = 30000
	DefaultJWTExpirationHours  = 24
)

// 生成対象テキストの長さ制限 (文字数)
const (
	SourceTextMinLength = 1000
	SourceTextMaxLength = 10000
)
