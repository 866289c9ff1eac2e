// internal/model/flashcard.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// フラッシュカードの出所
const (
	SourceAIFull   = "ai-full"   // AI生成のまま
	SourceAIEdited = "ai-edited" // AI生成をユーザーが編集
	SourceManual   = "manual"    // 手動作成
)

// IsAISource は AI 由来の source かどうかを返します
func IsAISource(source string) bool {
	return source == SourceAIFull || source == SourceAIEdited
}

// Flashcard は学習用フラッシュカードを表します
type Flashcard struct {
	FlashcardID  uuid.UUID      `gorm:"type:uuid;primaryKey" json:"flashcard_id"`
	TenantID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"-"`
	Front        string         `gorm:"not null" json:"front"` // 表面 (1〜200文字)
	Back         string         `gorm:"not null" json:"back"`  // 裏面 (1〜500文字)
	Source       string         `gorm:"type:varchar(20);not null" json:"source"`
	GenerationID *uuid.UUID     `gorm:"type:uuid;index" json:"generation_id"` // AI由来の場合のみ非NULL
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"` // 論理削除用
}

func (Flashcard) TableName() string {
	return "flashcards"
}

// ValidateSourcePairing は source と generation_id の組み合わせ不変条件を検証します。
// AI由来 (ai-full / ai-edited) なら generation_id 必須、manual なら必ず NULL。
func ValidateSourcePairing(source string, generationID *uuid.UUID) error {
	switch source {
	case SourceAIFull, SourceAIEdited:
		if generationID == nil {
			return ErrInvalidInput
		}
	case SourceManual:
		if generationID != nil {
			return ErrInvalidInput
		}
	default:
		return ErrInvalidInput
	}
	return nil
}

// フラッシュカード一括作成リクエストの1項目DTO
type CreateFlashcardItem struct {
	Front        string     `json:"front" validate:"required,min=1,max=200"`
	Back         string     `json:"back" validate:"required,min=1,max=500"`
	Source       string     `json:"source" validate:"required,oneof=ai-full ai-edited manual"`
	GenerationID *uuid.UUID `json:"generation_id"`
}

// フラッシュカード一括作成リクエストDTO
type CreateFlashcardsRequest struct {
	Flashcards []CreateFlashcardItem `json:"flashcards" validate:"required,min=1,dive"`
}

// フラッシュカード一括作成レスポンスDTO
type CreateFlashcardsResponse struct {
	Flashcards []*Flashcard `json:"flashcards"`
}

// フラッシュカード更新（部分）リクエストDTO
type PatchFlashcardRequest struct {
	Front *string `json:"front,omitempty" validate:"omitempty,min=1,max=200"`
	Back  *string `json:"back,omitempty" validate:"omitempty,min=1,max=500"`
}

// 一覧取得クエリDTO (デフォルト値はハンドラで補完)
type ListFlashcardsQuery struct {
	Page   int    `validate:"min=1"`
	Limit  int    `validate:"min=1,max=100"`
	Q      string // 前方・後方一致ではなく部分一致検索
	Sort   string `validate:"oneof=created_at updated_at"`
	Order  string `validate:"oneof=asc desc"`
	Source string `validate:"omitempty,oneof=ai-full ai-edited manual"`
}

// ページネーション情報
type PaginationMeta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalItems int64 `json:"total_items"`
	TotalPages int64 `json:"total_pages"`
}

// 一覧取得レスポンスDTO
type ListFlashcardsResponse struct {
	Items      []*Flashcard   `json:"items"`
	Pagination PaginationMeta `json:"pagination"`
}
