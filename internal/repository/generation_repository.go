//go:generate mockery --name GenerationRepository --output ./mocks --outpkg mocks --case=underscore
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

// GenerationRepository インターフェース
type GenerationRepository interface {
	Create(ctx context.Context, tx *gorm.DB, generation *model.Generation) error
	FindByID(ctx context.Context, db *gorm.DB, tenantID, generationID uuid.UUID) (*model.Generation, error)
	UpdateCounters(ctx context.Context, tx *gorm.DB, tenantID, generationID uuid.UUID, updates map[string]interface{}) error
	CreateErrorLog(ctx context.Context, db *gorm.DB, errorLog *model.GenerationErrorLog) error
}

type gormGenerationRepository struct{}

func NewGormGenerationRepository() GenerationRepository {
	return &gormGenerationRepository{}
}

func (r *gormGenerationRepository) Create(ctx context.Context, tx *gorm.DB, generation *model.Generation) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Create(generation)
	if result.Error != nil {
		logger.Error("Error creating generation in DB",
			"error", result.Error,
			"tenant_id", generation.TenantID.String(),
			"model", generation.Model,
		)
		return fmt.Errorf("gormGenerationRepository.Create: %w", result.Error)
	}
	return nil
}

func (r *gormGenerationRepository) FindByID(ctx context.Context, db *gorm.DB, tenantID, generationID uuid.UUID) (*model.Generation, error) {
	logger := middleware.GetLogger(ctx)
	var generation model.Generation
	result := db.WithContext(ctx).Where("tenant_id = ? AND generation_id = ?", tenantID, generationID).First(&generation)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding generation by ID in DB",
			"error", result.Error,
			"tenant_id", tenantID.String(),
			"generation_id", generationID.String(),
		)
		return nil, fmt.Errorf("gormGenerationRepository.FindByID: %w", result.Error)
	}
	return &generation, nil
}

// UpdateCounters は受入カウンタの補償的更新を行います。
// クランプ (0〜generated_count) はサービス層で計算済みの値を受け取ります。
func (r *gormGenerationRepository) UpdateCounters(ctx context.Context, tx *gorm.DB, tenantID, generationID uuid.UUID, updates map[string]interface{}) error {
	logger := middleware.GetLogger(ctx)
	if len(updates) == 0 {
		return nil
	}
	result := tx.WithContext(ctx).Model(&model.Generation{}).Where("tenant_id = ? AND generation_id = ?", tenantID, generationID).Updates(updates)
	if result.Error != nil {
		logger.Error("Error updating generation counters in DB",
			"error", result.Error,
			"tenant_id", tenantID.String(),
			"generation_id", generationID.String(),
		)
		return fmt.Errorf("gormGenerationRepository.UpdateCounters: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

// CreateErrorLog は生成失敗ログを保存します (呼び出し側でベストエフォート扱い)
func (r *gormGenerationRepository) CreateErrorLog(ctx context.Context, db *gorm.DB, errorLog *model.GenerationErrorLog) error {
	logger := middleware.GetLogger(ctx)
	result := db.WithContext(ctx).Create(errorLog)
	if result.Error != nil {
		logger.Error("Error creating generation error log in DB",
			"error", result.Error,
			"tenant_id", errorLog.TenantID.String(),
		)
		return fmt.Errorf("gormGenerationRepository.CreateErrorLog: %w", result.Error)
	}
	return nil
}
