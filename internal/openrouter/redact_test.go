// internal/openrouter/redact_test.go
package openrouter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedact(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  any
	}{
		{
			name:  "正常系: 秘匿キーの値をマスキングする",
			input: map[string]any{"api_key": "sk-12345", "model": "test/model"},
			want:  map[string]any{"api_key": "[REDACTED]", "model": "test/model"},
		},
		{
			name:  "正常系: キー名の大文字小文字は区別しない",
			input: map[string]any{"Authorization": "Bearer abc", "APIKey": "sk-12345"},
			want:  map[string]any{"Authorization": "[REDACTED]", "APIKey": "[REDACTED]"},
		},
		{
			name: "正常系: ネストしたマップも再帰的に走査する",
			input: map[string]any{
				"headers": map[string]any{"Cookie": "session=abc", "Accept": "application/json"},
			},
			want: map[string]any{
				"headers": map[string]any{"Cookie": "[REDACTED]", "Accept": "application/json"},
			},
		},
		{
			name: "正常系: スライス内のマップも走査する",
			input: []any{
				map[string]any{"token": "t1"},
				map[string]any{"content": "hello"},
			},
			want: []any{
				map[string]any{"token": "[REDACTED]"},
				map[string]any{"content": "hello"},
			},
		},
		{
			name:  "正常系: プリミティブ値はそのまま返す",
			input: "plain string",
			want:  "plain string",
		},
		{
			name:  "正常系: nilはそのまま返す",
			input: nil,
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Redact(tt.input)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRedact_DoesNotMutateInput(t *testing.T) {
	input := map[string]any{
		"api_key": "sk-12345",
		"nested":  map[string]any{"password": "hunter2"},
	}

	got := Redact(input)

	require.IsType(t, map[string]any{}, got)
	assert.Equal(t, "sk-12345", input["api_key"])
	assert.Equal(t, "hunter2", input["nested"].(map[string]any)["password"])
	assert.Equal(t, "[REDACTED]", got.(map[string]any)["api_key"])
}
