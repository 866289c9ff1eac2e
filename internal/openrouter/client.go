// internal/openrouter/client.go
package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const DefaultTimeout = 30 * time.Second

// Config はクライアント生成時の設定です
type Config struct {
	APIKey  string
	APIURL  string // 例: https://openrouter.ai/api
	Model   string
	Params  ModelParams
	Timeout time.Duration // 0 の場合は DefaultTimeout
}

// Client はOpenRouterのchat-completionエンドポイントへの薄いラッパーです。
// 設定変更 (ConfigureModel / SetResponseFormat 等) と実行中の Chat を
// 同一インスタンスで同時に行うことは想定していません。並行呼び出しする場合は
// 呼び出し側でインスタンスを分けてください。リトライは行いません。
type Client struct {
	apiKey         string
	apiURL         string
	model          string
	params         ModelParams
	systemMessage  string
	responseFormat *ResponseFormat
	timeout        time.Duration
	httpClient     *http.Client
	logger         *slog.Logger
}

func New(cfg Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, newError(CodeConfigError, "API key is required", 0, nil)
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, newError(CodeConfigError, "model name is required", 0, nil)
	}
	if err := validateParams(&cfg.Params); err != nil {
		return nil, newError(CodeConfigError, "invalid model parameters: "+err.Error(), 0, err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	apiURL := strings.TrimRight(cfg.APIURL, "/")
	if apiURL == "" {
		apiURL = "https://openrouter.ai/api"
	}

	return &Client{
		apiKey:     cfg.APIKey,
		apiURL:     apiURL,
		model:      cfg.Model,
		params:     cfg.Params,
		timeout:    timeout,
		httpClient: &http.Client{},
		logger:     logger.With(slog.String("component", "openrouter")),
	}, nil
}

// Model は現在のモデル名を返します
func (c *Client) Model() string {
	return c.model
}

// ConfigureModel はモデル名と生成パラメータを変更します
func (c *Client) ConfigureModel(model string, params *ModelParams) error {
	if strings.TrimSpace(model) == "" {
		return newError(CodeValidationError, "model name must be a non-empty string", 0, nil)
	}
	if params != nil {
		if err := validateParams(params); err != nil {
			return newError(CodeValidationError, "invalid model parameters: "+err.Error(), 0, err)
		}
		c.params = *params
	}
	c.model = model
	c.logger.Debug("Model configured", "model", model)
	return nil
}

// SetSystemMessage はシステムメッセージを設定します (空文字で解除)
func (c *Client) SetSystemMessage(message string) {
	c.systemMessage = message
}

// SetResponseFormat はレスポンスのJSONスキーマを宣言します (nil で解除)
func (c *Client) SetResponseFormat(format *ResponseFormat) error {
	if format != nil {
		if format.JSONSchema.Name == "" || format.JSONSchema.Schema == nil {
			return newError(CodeValidationError, "invalid response format: missing name or schema", 0, nil)
		}
		format.Type = "json_schema"
	}
	c.responseFormat = format
	return nil
}

// Chat は1回のchat-completion呼び出しを実行します。
// タイムアウト (設定値、デフォルト30秒) はコンテキストによる協調的キャンセルで
// 実現します。呼び出し元のctxキャンセルも同様に TIMEOUT として扱います。
func (c *Client) Chat(ctx context.Context, userMessage string) (*ChatResult, error) {
	if strings.TrimSpace(userMessage) == "" {
		return nil, newError(CodeValidationError, "user message cannot be empty", 0, nil)
	}

	body := requestBody{
		Model:          c.model,
		Messages:       c.buildMessages(userMessage),
		ResponseFormat: c.responseFormat,
		ModelParams:    c.params,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, newError(CodeUnknown, "failed to encode request body: "+err.Error(), 0, err)
	}

	c.logDebugPayload("Sending chat request", payload)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, newError(CodeUnknown, "failed to build request: "+err.Error(), 0, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			c.logger.Warn("Chat request timed out or cancelled", "elapsed_ms", time.Since(started).Milliseconds())
			return nil, newError(CodeTimeout, "request timed out", 0, err)
		}
		c.logger.Warn("Chat request transport failure", "error", err.Error())
		return nil, newError(CodeNetworkError, "network request failed", 0, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, newError(CodeTimeout, "request timed out while reading response", 0, err)
		}
		return nil, newError(CodeNetworkError, "failed to read response body", resp.StatusCode, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logDebugPayload("Upstream returned error body", respBody)
		switch {
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			c.logger.Error("Chat request authentication failed", "status", resp.StatusCode)
			return nil, newError(CodeAuthError, "authentication failed", resp.StatusCode, nil)
		case resp.StatusCode == http.StatusTooManyRequests:
			c.logger.Warn("Chat request rate limited", "status", resp.StatusCode)
			return nil, newError(CodeRateLimited, "rate limit exceeded", resp.StatusCode, nil)
		default:
			c.logger.Error("Chat request upstream error", "status", resp.StatusCode)
			return nil, newError(CodeUpstreamError, "upstream API error", resp.StatusCode, nil)
		}
	}

	result, err := c.parseChatResponse(respBody)
	if err != nil {
		return nil, err
	}

	c.logger.Info("Chat request completed",
		"model", c.model,
		"latency_ms", time.Since(started).Milliseconds(),
		"content_len", len(result.RawText),
	)
	return result, nil
}

func (c *Client) buildMessages(userMessage string) []Message {
	messages := make([]Message, 0, 2)
	if c.systemMessage != "" {
		messages = append(messages, Message{Role: RoleSystem, Content: c.systemMessage})
	}
	messages = append(messages, Message{Role: RoleUser, Content: userMessage})
	return messages
}

func (c *Client) parseChatResponse(raw []byte) (*ChatResult, error) {
	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		c.logger.Error("Invalid response structure from OpenRouter", "error", err.Error())
		return nil, newError(CodeBadResponse, "invalid response structure", 0, err)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == nil {
		c.logger.Error("Missing content in OpenRouter response")
		return nil, newError(CodeBadResponse, "missing content in response", 0, nil)
	}

	content := *parsed.Choices[0].Message.Content
	result := &ChatResult{RawText: content}

	if c.responseFormat != nil {
		if !json.Valid([]byte(content)) {
			c.logger.Error("Response content is not valid JSON despite declared schema",
				"schema", c.responseFormat.JSONSchema.Name)
			return nil, newError(CodeBadResponse, "failed to parse JSON response", 0, errors.New("content is not valid JSON"))
		}
		result.ParsedJSON = json.RawMessage(content)
	}

	return result, nil
}

// logDebugPayload はJSONペイロードを秘匿キーをマスキングした上でデバッグ出力します
func (c *Client) logDebugPayload(msg string, payload []byte) {
	if !c.logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	var generic any
	if err := json.Unmarshal(payload, &generic); err != nil {
		c.logger.Debug(msg, "payload", "(non-JSON payload)")
		return
	}
	c.logger.Debug(msg, "payload", Redact(generic))
}

func validateParams(p *ModelParams) error {
	if p.Temperature != nil && (*p.Temperature < 0 || *p.Temperature > 2) {
		return errors.New("temperature must be between 0 and 2")
	}
	if p.TopP != nil && (*p.TopP < 0 || *p.TopP > 1) {
		return errors.New("top_p must be between 0 and 1")
	}
	if p.MaxTokens != nil && *p.MaxTokens <= 0 {
		return errors.New("max_tokens must be positive")
	}
	if p.PresencePenalty != nil && (*p.PresencePenalty < -2 || *p.PresencePenalty > 2) {
		return errors.New("presence_penalty must be between -2 and 2")
	}
	if p.FrequencyPenalty != nil && (*p.FrequencyPenalty < -2 || *p.FrequencyPenalty > 2) {
		return errors.New("frequency_penalty must be between -2 and 2")
	}
	return nil
}
