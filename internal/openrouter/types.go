// internal/openrouter/types.go
package openrouter

import "encoding/json"

// ErrorCode はゲートウェイエラーの分類コードです。
// 呼び出し側はメッセージ文字列ではなくこのコードで分岐します。
type ErrorCode string

const (
	CodeConfigError     ErrorCode = "CONFIG_ERROR"
	CodeValidationError ErrorCode = "VALIDATION_ERROR"
	CodeAuthError       ErrorCode = "AUTH_ERROR"
	CodeRateLimited     ErrorCode = "RATE_LIMITED"
	CodeTimeout         ErrorCode = "TIMEOUT"
	CodeNetworkError    ErrorCode = "NETWORK_ERROR"
	CodeBadResponse     ErrorCode = "BAD_RESPONSE"
	CodeUpstreamError   ErrorCode = "UPSTREAM_ERROR"
	CodeUnknown         ErrorCode = "UNKNOWN"
)

// Error はOpenRouter呼び出しの失敗を表します
type Error struct {
	Code    ErrorCode
	Message string
	Status  int // HTTPステータスコード (該当する場合のみ)
	cause   error
}

func newError(code ErrorCode, message string, status int, cause error) *Error {
	return &Error{Code: code, Message: message, Status: status, cause: cause}
}

// NewBadResponseError はレスポンスが期待した構造でなかった場合のエラーを生成します。
// 構造検証を呼び出し側で追加実施するときに使います。
func NewBadResponseError(message string) *Error {
	return newError(CodeBadResponse, message, 0, nil)
}

func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// CodeOf はエラーから分類コードを取り出します。*Error 以外は UNKNOWN 扱い。
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	if orErr, ok := err.(*Error); ok {
		return orErr.Code
	}
	return CodeUnknown
}

// MessageRole はチャットメッセージのロールです
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

type Message struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
}

// ModelParams は生成パラメータです。nil のフィールドはリクエストに含めません。
type ModelParams struct {
	Temperature      *float64 `json:"temperature,omitempty"`
	TopP             *float64 `json:"top_p,omitempty"`
	MaxTokens        *int     `json:"max_tokens,omitempty"`
	PresencePenalty  *float64 `json:"presence_penalty,omitempty"`
	FrequencyPenalty *float64 `json:"frequency_penalty,omitempty"`
}

// JSONSchema は response_format で要求するスキーマ定義です
type JSONSchema struct {
	Name   string         `json:"name"`
	Schema map[string]any `json:"schema"`
}

// ResponseFormat はレスポンスをJSONスキーマに従わせる宣言です
type ResponseFormat struct {
	Type       string     `json:"type"` // "json_schema" 固定
	JSONSchema JSONSchema `json:"json_schema"`
}

// requestBody は /chat/completions へのリクエストボディ
type requestBody struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
	ModelParams
}

// chatResponse はレスポンスボディの必要部分のみ
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// ChatResult はチャット呼び出しの成功結果です
type ChatResult struct {
	RawText    string
	ParsedJSON json.RawMessage // response_format 宣言時のみセット
}
