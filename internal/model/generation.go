// internal/model/generation.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// Generation はAI生成1回分の永続レコードを表します
type Generation struct {
	GenerationID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"generation_id"`
	TenantID              uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	Model                 string    `gorm:"not null" json:"model"`
	GeneratedCount        int       `gorm:"not null" json:"generated_count"`
	AcceptedUneditedCount *int      `json:"accepted_unedited_count"` // 非同期更新されるためNULL許可
	AcceptedEditedCount   *int      `json:"accepted_edited_count"`
	SourceTextHash        string    `gorm:"type:varchar(32);not null;index" json:"-"` // MD5 (重複検知・分析用で秘匿目的ではない)
	SourceTextLength      int       `gorm:"not null" json:"source_text_length"`
	GenerationDurationMs  int64     `gorm:"not null" json:"generation_duration_ms"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

func (Generation) TableName() string {
	return "generations"
}

// GenerationErrorLog はAIゲートウェイ呼び出し失敗の記録です (ベストエフォート保存)
type GenerationErrorLog struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID         uuid.UUID `gorm:"type:uuid;not null;index"`
	Model            string    `gorm:"not null"`
	SourceTextHash   string    `gorm:"type:varchar(32);not null"`
	SourceTextLength int       `gorm:"not null"`
	ErrorCode        string    `gorm:"type:varchar(50);not null"`
	ErrorMessage     string    `gorm:"type:varchar(500);not null"` // 500文字で切り詰め済み
	CreatedAt        time.Time
}

func (GenerationErrorLog) TableName() string {
	return "generation_error_logs"
}

// 生成リクエストDTO (source_text は 1000〜10000 文字)
type CreateGenerationRequest struct {
	SourceText string `json:"source_text" validate:"required,min=1000,max=10000"`
}

// FlashcardProposal は未永続の候補カードDTO
type FlashcardProposal struct {
	TempID uuid.UUID `json:"temp_id"`
	Front  string    `json:"front"`
	Back   string    `json:"back"`
	Source string    `json:"source"` // ai-full または ai-edited
}

// 生成レスポンスDTO
type CreateGenerationResponse struct {
	GenerationID        uuid.UUID            `json:"generation_id"`
	FlashcardsProposals []*FlashcardProposal `json:"flashcards_proposals"`
	GeneratedCount      int                  `json:"generated_count"`
}
