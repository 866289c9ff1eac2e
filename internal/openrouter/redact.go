// internal/openrouter/redact.go
package openrouter

import "strings"

const redactedPlaceholder = "[REDACTED]"

// sensitiveKeys はログ出力時に値をマスキングするキー名のリストです (小文字で定義)。
// キー名の大文字小文字は区別しません。
var sensitiveKeys = map[string]bool{
	"apikey":        true,
	"api_key":       true,
	"authorization": true,
	"password":      true,
	"secret":        true,
	"token":         true,
	"access_token":  true,
	"cookie":        true,
	"set-cookie":    true,
}

// Redact は構造化データを再帰的に走査し、秘匿キーに対応する値を
// マスキングした新しい値を返します。元の値は変更しません。
func Redact(v any) any {
	switch data := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(data))
		for key, value := range data {
			if sensitiveKeys[strings.ToLower(key)] {
				out[key] = redactedPlaceholder
				continue
			}
			out[key] = Redact(value)
		}
		return out
	case []any:
		out := make([]any, len(data))
		for i, item := range data {
			out[i] = Redact(item)
		}
		return out
	default:
		return v
	}
}
