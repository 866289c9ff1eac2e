//go:generate mockery --name FlashcardRepository --output ./mocks --outpkg mocks --case=underscore
package repository

import (
	"context"
	"errors"
	"fmt"

	"go_5_flashcards_keep/internal/middleware"
	"go_5_flashcards_keep/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FlashcardRepository インターフェース
type FlashcardRepository interface {
	CreateBatch(ctx context.Context, tx *gorm.DB, cards []*model.Flashcard) error
	FindByID(ctx context.Context, db *gorm.DB, tenantID, flashcardID uuid.UUID) (*model.Flashcard, error)
	FindByTenant(ctx context.Context, db *gorm.DB, tenantID uuid.UUID, query *model.ListFlashcardsQuery) ([]*model.Flashcard, int64, error)
	Update(ctx context.Context, tx *gorm.DB, tenantID, flashcardID uuid.UUID, updates map[string]interface{}) error
	Delete(ctx context.Context, tx *gorm.DB, tenantID, flashcardID uuid.UUID) error
}

type gormFlashcardRepository struct{}

func NewGormFlashcardRepository() FlashcardRepository {
	return &gormFlashcardRepository{}
}

// CreateBatch は複数カードを1つのINSERTで作成します。
// バッチの原子性は呼び出し側のトランザクション (tx) が保証します。
func (r *gormFlashcardRepository) CreateBatch(ctx context.Context, tx *gorm.DB, cards []*model.Flashcard) error {
	logger := middleware.GetLogger(ctx)
	if len(cards) == 0 {
		return nil
	}
	result := tx.WithContext(ctx).Create(cards)
	if result.Error != nil {
		logger.Error("Error creating flashcards batch in DB",
			"error", result.Error,
			"tenant_id", cards[0].TenantID.String(),
			"count", len(cards),
		)
		return fmt.Errorf("gormFlashcardRepository.CreateBatch: %w", result.Error)
	}
	return nil
}

func (r *gormFlashcardRepository) FindByID(ctx context.Context, db *gorm.DB, tenantID, flashcardID uuid.UUID) (*model.Flashcard, error) {
	logger := middleware.GetLogger(ctx)
	var card model.Flashcard
	result := db.WithContext(ctx).Where("tenant_id = ? AND flashcard_id = ?", tenantID, flashcardID).First(&card)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding flashcard by ID in DB",
			"error", result.Error,
			"tenant_id", tenantID.String(),
			"flashcard_id", flashcardID.String(),
		)
		return nil, fmt.Errorf("gormFlashcardRepository.FindByID: %w", result.Error)
	}
	return &card, nil
}

// FindByTenant はページネーション付きでカード一覧と総件数を返します
func (r *gormFlashcardRepository) FindByTenant(ctx context.Context, db *gorm.DB, tenantID uuid.UUID, query *model.ListFlashcardsQuery) ([]*model.Flashcard, int64, error) {
	logger := middleware.GetLogger(ctx)

	base := db.WithContext(ctx).Model(&model.Flashcard{}).Where("tenant_id = ?", tenantID)
	if query.Q != "" {
		like := "%" + query.Q + "%"
		base = base.Where("front LIKE ? OR back LIKE ?", like, like)
	}
	if query.Source != "" {
		base = base.Where("source = ?", query.Source)
	}

	var total int64
	if result := base.Count(&total); result.Error != nil {
		logger.Error("Error counting flashcards in DB",
			"error", result.Error,
			"tenant_id", tenantID.String(),
		)
		return nil, 0, fmt.Errorf("gormFlashcardRepository.FindByTenant(count): %w", result.Error)
	}

	offset := (query.Page - 1) * query.Limit
	var cards []*model.Flashcard
	result := base.
		Order(fmt.Sprintf("%s %s", query.Sort, query.Order)).
		Limit(query.Limit).
		Offset(offset).
		Find(&cards)
	if result.Error != nil {
		logger.Error("Error finding flashcards by tenant in DB",
			"error", result.Error,
			"tenant_id", tenantID.String(),
		)
		return nil, 0, fmt.Errorf("gormFlashcardRepository.FindByTenant: %w", result.Error)
	}
	return cards, total, nil
}

func (r *gormFlashcardRepository) Update(ctx context.Context, tx *gorm.DB, tenantID, flashcardID uuid.UUID, updates map[string]interface{}) error {
	logger := middleware.GetLogger(ctx)
	if len(updates) == 0 {
		return nil
	}
	result := tx.WithContext(ctx).Model(&model.Flashcard{}).Where("tenant_id = ? AND flashcard_id = ?", tenantID, flashcardID).Updates(updates)
	if result.Error != nil {
		logger.Error("Error updating flashcard in DB",
			"error", result.Error,
			"tenant_id", tenantID.String(),
			"flashcard_id", flashcardID.String(),
		)
		return fmt.Errorf("gormFlashcardRepository.Update: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *gormFlashcardRepository) Delete(ctx context.Context, tx *gorm.DB, tenantID, flashcardID uuid.UUID) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Where("tenant_id = ?", tenantID).Delete(&model.Flashcard{}, "flashcard_id = ?", flashcardID)
	if result.Error != nil {
		logger.Error("Error deleting flashcard in DB",
			"error", result.Error,
			"tenant_id", tenantID.String(),
			"flashcard_id", flashcardID.String(),
		)
		return fmt.Errorf("gormFlashcardRepository.Delete: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}
