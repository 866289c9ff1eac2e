package service

import (
	"context"
	"errors"
	"unicode/utf8"

	"go_5_flashcards_keep/internal/middleware"
	"go_5_flashcards_keep/internal/model"
	"go_5_flashcards_keep/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FlashcardService interface {
	CreateFlashcards(ctx context.Context, tenantID uuid.UUID, items []model.CreateFlashcardItem) ([]*model.Flashcard, error)
	ListFlashcards(ctx context.Context, tenantID uuid.UUID, query *model.ListFlashcardsQuery) (*model.ListFlashcardsResponse, error)
	GetFlashcard(ctx context.Context, tenantID, flashcardID uuid.UUID) (*model.Flashcard, error)
	PatchFlashcard(ctx context.Context, tenantID, flashcardID uuid.UUID, req *model.PatchFlashcardRequest) (*model.Flashcard, error)
	DeleteFlashcard(ctx context.Context, tenantID, flashcardID uuid.UUID) error
}

type flashcardService struct {
	db       *gorm.DB
	cardRepo repository.FlashcardRepository
	genRepo  repository.GenerationRepository
}

func NewFlashcardService(db *gorm.DB, cardRepo repository.FlashcardRepository, genRepo repository.GenerationRepository) FlashcardService {
	return &flashcardService{
		db:       db,
		cardRepo: cardRepo,
		genRepo:  genRepo,
	}
}

// CreateFlashcards は複数カードを1トランザクションで作成します。
// 1件でも失敗した場合は全体をロールバックします。
// AI由来カードの作成は対応する生成レコードの受入カウンタにも反映します。
func (s *flashcardService) CreateFlashcards(ctx context.Context, tenantID uuid.UUID, items []model.CreateFlashcardItem) ([]*model.Flashcard, error) {
	logger := middleware.GetLogger(ctx)

	if len(items) == 0 {
		return nil, model.NewAppError("VALIDATION_ERROR", "作成するカードが指定されていません。", "flashcards", model.ErrInvalidInput)
	}

	// source と generation_id の組み合わせ検証
	for i, item := range items {
		if err := model.ValidateSourcePairing(item.Source, item.GenerationID); err != nil {
			logger.Warn("Invalid source pairing", "index", i, "source", item.Source)
			return nil, model.NewAppError("VALIDATION_ERROR", "sourceとgeneration_idの組み合わせが正しくありません。", "generation_id", model.ErrInvalidInput)
		}
	}

	cards := make([]*model.Flashcard, 0, len(items))
	// 生成ID別の受入件数 (ai-full / ai-edited)
	uneditedByGen := make(map[uuid.UUID]int)
	editedByGen := make(map[uuid.UUID]int)

	for _, item := range items {
		card := &model.Flashcard{
			FlashcardID:  uuid.New(),
			TenantID:     tenantID,
			Front:        item.Front,
			Back:         item.Back,
			Source:       item.Source,
			GenerationID: item.GenerationID,
		}
		cards = append(cards, card)
		if item.GenerationID != nil {
			switch item.Source {
			case model.SourceAIFull:
				uneditedByGen[*item.GenerationID]++
			case model.SourceAIEdited:
				editedByGen[*item.GenerationID]++
			}
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 参照先の生成レコードが自テナントのものであることを確認
		genIDs := make(map[uuid.UUID]struct{})
		for gid := range uneditedByGen {
			genIDs[gid] = struct{}{}
		}
		for gid := range editedByGen {
			genIDs[gid] = struct{}{}
		}
		for gid := range genIDs {
			generation, err := s.genRepo.FindByID(ctx, tx, tenantID, gid)
			if err != nil {
				if errors.Is(err, model.ErrNotFound) {
					return model.NewAppError("VALIDATION_ERROR", "指定された生成履歴が見つかりません。", "generation_id", model.ErrInvalidInput)
				}
				return err
			}

			updates := buildCounterUpdates(generation, uneditedByGen[gid], editedByGen[gid])
			if len(updates) > 0 {
				if err := s.genRepo.UpdateCounters(ctx, tx, tenantID, gid, updates); err != nil {
					return err
				}
			}
		}

		return s.cardRepo.CreateBatch(ctx, tx, cards)
	})
	if err != nil {
		var appErr *model.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		logger.Error("Failed to create flashcards", "error", err, "count", len(cards))
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "カードの作成に失敗しました。", "", model.ErrInternalServer)
	}

	logger.Info("Flashcards created", "tenant_id", tenantID, "count", len(cards))
	return cards, nil
}

// ListFlashcards はページネーション付きでカード一覧を返します
func (s *flashcardService) ListFlashcards(ctx context.Context, tenantID uuid.UUID, query *model.ListFlashcardsQuery) (*model.ListFlashcardsResponse, error) {
	logger := middleware.GetLogger(ctx)

	cards, total, err := s.cardRepo.FindByTenant(ctx, s.db, tenantID, query)
	if err != nil {
		logger.Error("Failed to list flashcards", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "カード一覧の取得に失敗しました。", "", model.ErrInternalServer)
	}

	totalPages := total / int64(query.Limit)
	if total%int64(query.Limit) != 0 {
		totalPages++
	}

	return &model.ListFlashcardsResponse{
		Items: cards,
		Pagination: model.PaginationMeta{
			Page:       query.Page,
			Limit:      query.Limit,
			TotalItems: total,
			TotalPages: totalPages,
		},
	}, nil
}

// GetFlashcard は単一カードを取得します
func (s *flashcardService) GetFlashcard(ctx context.Context, tenantID, flashcardID uuid.UUID) (*model.Flashcard, error) {
	logger := middleware.GetLogger(ctx)
	card, err := s.cardRepo.FindByID(ctx, s.db, tenantID, flashcardID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewAppError("NOT_FOUND", "カードが見つかりません。", "", model.ErrNotFound)
		}
		logger.Error("Failed to get flashcard", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "カードの取得に失敗しました。", "", model.ErrInternalServer)
	}
	return card, nil
}

// PatchFlashcard はカードの内容を部分更新します。
// ai-full のカードを編集した場合は ai-edited に再分類し、
// 生成レコードの受入カウンタを補償的に付け替えます。
func (s *flashcardService) PatchFlashcard(ctx context.Context, tenantID, flashcardID uuid.UUID, req *model.PatchFlashcardRequest) (*model.Flashcard, error) {
	logger := middleware.GetLogger(ctx)

	if req.Front == nil && req.Back == nil {
		return nil, model.NewAppError("VALIDATION_ERROR", "更新項目が指定されていません。", "", model.ErrInvalidInput)
	}
	if req.Front != nil {
		if n := utf8.RuneCountInString(*req.Front); n < 1 || n > 200 {
			return nil, model.NewAppError("VALIDATION_ERROR", "表面は1〜200文字で入力してください。", "front", model.ErrInvalidInput)
		}
	}
	if req.Back != nil {
		if n := utf8.RuneCountInString(*req.Back); n < 1 || n > 500 {
			return nil, model.NewAppError("VALIDATION_ERROR", "裏面は1〜500文字で入力してください。", "back", model.ErrInvalidInput)
		}
	}

	var updated *model.Flashcard
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		card, err := s.cardRepo.FindByID(ctx, tx, tenantID, flashcardID)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return model.NewAppError("NOT_FOUND", "カードが見つかりません。", "", model.ErrNotFound)
			}
			return err
		}

		updates := make(map[string]interface{})
		contentChanged := false
		if req.Front != nil && *req.Front != card.Front {
			updates["front"] = *req.Front
			card.Front = *req.Front
			contentChanged = true
		}
		if req.Back != nil && *req.Back != card.Back {
			updates["back"] = *req.Back
			card.Back = *req.Back
			contentChanged = true
		}

		reclassified := contentChanged && card.Source == model.SourceAIFull
		if reclassified {
			updates["source"] = model.SourceAIEdited
			card.Source = model.SourceAIEdited
		}

		if len(updates) == 0 {
			updated = card
			return nil
		}

		if err := s.cardRepo.Update(ctx, tx, tenantID, flashcardID, updates); err != nil {
			return err
		}

		if reclassified && card.GenerationID != nil {
			// カウンタの付け替え失敗はカード更新自体を妨げない
			if err := s.reclassifyCounters(ctx, tx, tenantID, *card.GenerationID); err != nil {
				logger.Warn("Failed to reclassify generation counters", "error", err, "generation_id", card.GenerationID)
			}
		}

		updated = card
		return nil
	})
	if err != nil {
		var appErr *model.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		logger.Error("Failed to patch flashcard", "error", err, "flashcard_id", flashcardID)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "カードの更新に失敗しました。", "", model.ErrInternalServer)
	}

	return updated, nil
}

// DeleteFlashcard はカードを論理削除します。
// AI由来カードの場合は対応する受入カウンタを減算します (下限0でクランプ)。
func (s *flashcardService) DeleteFlashcard(ctx context.Context, tenantID, flashcardID uuid.UUID) error {
	logger := middleware.GetLogger(ctx)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		card, err := s.cardRepo.FindByID(ctx, tx, tenantID, flashcardID)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return model.NewAppError("NOT_FOUND", "カードが見つかりません。", "", model.ErrNotFound)
			}
			return err
		}

		if err := s.cardRepo.Delete(ctx, tx, tenantID, flashcardID); err != nil {
			return err
		}

		if card.GenerationID != nil && model.IsAISource(card.Source) {
			if err := s.decrementCounter(ctx, tx, tenantID, *card.GenerationID, card.Source); err != nil {
				logger.Warn("Failed to decrement generation counter", "error", err, "generation_id", card.GenerationID)
			}
		}
		return nil
	})
	if err != nil {
		var appErr *model.AppError
		if errors.As(err, &appErr) {
			return err
		}
		logger.Error("Failed to delete flashcard", "error", err, "flashcard_id", flashcardID)
		return model.NewAppError("INTERNAL_SERVER_ERROR", "カードの削除に失敗しました。", "", model.ErrInternalServer)
	}
	return nil
}

// --- カウンタ補償ヘルパー ---

func counterValue(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func clampCounter(v, max int) int {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}

// buildCounterUpdates は受入件数の加算値をクランプ付きで組み立てます
func buildCounterUpdates(generation *model.Generation, addUnedited, addEdited int) map[string]interface{} {
	updates := make(map[string]interface{})
	if addUnedited > 0 {
		updates["accepted_unedited_count"] = clampCounter(counterValue(generation.AcceptedUneditedCount)+addUnedited, generation.GeneratedCount)
	}
	if addEdited > 0 {
		updates["accepted_edited_count"] = clampCounter(counterValue(generation.AcceptedEditedCount)+addEdited, generation.GeneratedCount)
	}
	return updates
}

// reclassifyCounters は ai-full から ai-edited への再分類をカウンタへ反映します
func (s *flashcardService) reclassifyCounters(ctx context.Context, tx *gorm.DB, tenantID, generationID uuid.UUID) error {
	generation, err := s.genRepo.FindByID(ctx, tx, tenantID, generationID)
	if err != nil {
		return err
	}
	updates := map[string]interface{}{
		"accepted_unedited_count": clampCounter(counterValue(generation.AcceptedUneditedCount)-1, generation.GeneratedCount),
		"accepted_edited_count":   clampCounter(counterValue(generation.AcceptedEditedCount)+1, generation.GeneratedCount),
	}
	return s.genRepo.UpdateCounters(ctx, tx, tenantID, generationID, updates)
}

// decrementCounter は削除されたカードの分だけ受入カウンタを減算します
func (s *flashcardService) decrementCounter(ctx context.Context, tx *gorm.DB, tenantID, generationID uuid.UUID, source string) error {
	generation, err := s.genRepo.FindByID(ctx, tx, tenantID, generationID)
	if err != nil {
		return err
	}
	updates := make(map[string]interface{})
	switch source {
	case model.SourceAIFull:
		updates["accepted_unedited_count"] = clampCounter(counterValue(generation.AcceptedUneditedCount)-1, generation.GeneratedCount)
	case model.SourceAIEdited:
		updates["accepted_edited_count"] = clampCounter(counterValue(generation.AcceptedEditedCount)-1, generation.GeneratedCount)
	}
	return s.genRepo.UpdateCounters(ctx, tx, tenantID, generationID, updates)
}
