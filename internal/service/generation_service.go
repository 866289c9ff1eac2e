//go:generate mockery --name ChatClient --output ./mocks --outpkg mocks --case=underscore
package service

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"go_5_flashcards_keep/internal/config"
	"go_5_flashcards_keep/internal/middleware"
	"go_5_flashcards_keep/internal/model"
	"go_5_flashcards_keep/internal/openrouter"
	"go_5_flashcards_keep/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	proposalFrontMaxLen = 200
	proposalBackMaxLen  = 500
	errorLogMaxLen      = 500
)

// proposalSystemMessage はAIに渡すシステムメッセージです。
// 出力は flashcards 配列を持つJSONオブジェクトに固定します。
const proposalSystemMessage = "あなたは学習用フラッシュカードの作成アシスタントです。" +
	"与えられたテキストから重要な概念を抽出し、質問(front)と答え(back)のペアを日本語で生成してください。" +
	"frontは200文字以内、backは500文字以内とし、必ず次の形式のJSONのみを返してください: " +
	`{"flashcards":[{"front":"...","back":"..."}]}`

// proposalsSchema は response_format で宣言するJSONスキーマです
var proposalsSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"flashcards": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"front": map[string]any{"type": "string"},
					"back":  map[string]any{"type": "string"},
				},
				"required": []string{"front", "back"},
			},
		},
	},
	"required": []string{"flashcards"},
}

// ChatClient は生成サービスが利用するAIゲートウェイの抽象です
type ChatClient interface {
	Chat(ctx context.Context, userMessage string) (*openrouter.ChatResult, error)
	Model() string
}

// NewProposalChatClient はフラッシュカード提案用に構成済みの openrouter クライアントを生成します
func NewProposalChatClient(cfg *config.Config, logger *slog.Logger) (*openrouter.Client, error) {
	var params openrouter.ModelParams
	if cfg.OpenRouter.Temp > 0 {
		temp := cfg.OpenRouter.Temp
		params.Temperature = &temp
	}
	if cfg.OpenRouter.MaxTokens > 0 {
		maxTokens := cfg.OpenRouter.MaxTokens
		params.MaxTokens = &maxTokens
	}

	client, err := openrouter.New(openrouter.Config{
		APIKey:  cfg.OpenRouter.APIKey,
		APIURL:  cfg.OpenRouter.APIURL,
		Model:   cfg.OpenRouter.Model,
		Params:  params,
		Timeout: time.Duration(cfg.OpenRouter.TimeoutMs) * time.Millisecond,
	}, logger)
	if err != nil {
		return nil, err
	}

	client.SetSystemMessage(proposalSystemMessage)
	if err := client.SetResponseFormat(&openrouter.ResponseFormat{
		JSONSchema: openrouter.JSONSchema{
			Name:   "flashcard_proposals",
			Schema: proposalsSchema,
		},
	}); err != nil {
		return nil, err
	}
	return client, nil
}

type GenerationService interface {
	CreateGeneration(ctx context.Context, tenantID uuid.UUID, req *model.CreateGenerationRequest) (*model.CreateGenerationResponse, error)
	GetGeneration(ctx context.Context, tenantID, generationID uuid.UUID) (*model.Generation, error)
}

type generationService struct {
	db      *gorm.DB
	genRepo repository.GenerationRepository
	chat    ChatClient
	cfg     *config.Config
}

func NewGenerationService(db *gorm.DB, genRepo repository.GenerationRepository, chat ChatClient, cfg *config.Config) GenerationService {
	return &generationService{
		db:      db,
		genRepo: genRepo,
		chat:    chat,
		cfg:     cfg,
	}
}

// proposalsPayload はAIレスポンスのJSON構造です
type proposalsPayload struct {
	Flashcards []struct {
		Front string `json:"front"`
		Back  string `json:"back"`
	} `json:"flashcards"`
}

// CreateGeneration はソーステキストからフラッシュカード候補を生成します。
// AIゲートウェイが成功した場合のみ生成レコードを保存します。
// ゲートウェイ失敗時はエラーログをベストエフォートで保存し、元のエラーをそのまま返します。
func (s *generationService) CreateGeneration(ctx context.Context, tenantID uuid.UUID, req *model.CreateGenerationRequest) (*model.CreateGenerationResponse, error) {
	logger := middleware.GetLogger(ctx)

	sourceHash := hashSourceText(req.SourceText)
	sourceLen := utf8.RuneCountInString(req.SourceText)
	startedAt := time.Now()

	var proposals []*model.FlashcardProposal
	var err error
	if s.cfg.OpenRouter.UseMock {
		proposals = s.mockProposals(sourceHash, sourceLen)
	} else {
		proposals, err = s.generateProposals(ctx, req.SourceText)
	}
	durationMs := time.Since(startedAt).Milliseconds()

	if err != nil {
		// 失敗ログの保存は元のエラーを握り潰さないようベストエフォートで行う
		s.recordGenerationError(ctx, tenantID, sourceHash, sourceLen, err)
		return nil, err
	}

	generation := &model.Generation{
		GenerationID:         uuid.New(),
		TenantID:             tenantID,
		Model:                s.modelName(),
		GeneratedCount:       len(proposals),
		SourceTextHash:       sourceHash,
		SourceTextLength:     sourceLen,
		GenerationDurationMs: durationMs,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.genRepo.Create(ctx, tx, generation)
	})
	if err != nil {
		logger.Error("Failed to persist generation record", "error", err, "tenant_id", tenantID)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "生成結果の保存に失敗しました。", "", model.ErrInternalServer)
	}

	logger.Info("Generation completed",
		"generation_id", generation.GenerationID,
		"generated_count", generation.GeneratedCount,
		"duration_ms", durationMs,
	)

	return &model.CreateGenerationResponse{
		GenerationID:        generation.GenerationID,
		FlashcardsProposals: proposals,
		GeneratedCount:      generation.GeneratedCount,
	}, nil
}

// GetGeneration は生成メタデータを取得します
func (s *generationService) GetGeneration(ctx context.Context, tenantID, generationID uuid.UUID) (*model.Generation, error) {
	logger := middleware.GetLogger(ctx)
	generation, err := s.genRepo.FindByID(ctx, s.db, tenantID, generationID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewAppError("NOT_FOUND", "生成履歴が見つかりません。", "", model.ErrNotFound)
		}
		logger.Error("Error finding generation", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部エラー", "", err)
	}
	return generation, nil
}

// generateProposals はAIゲートウェイを呼び出し、レスポンスを候補リストに変換します
func (s *generationService) generateProposals(ctx context.Context, sourceText string) ([]*model.FlashcardProposal, error) {
	logger := middleware.GetLogger(ctx)

	result, err := s.chat.Chat(ctx, sourceText)
	if err != nil {
		return nil, err
	}

	var payload proposalsPayload
	if err := json.Unmarshal(result.ParsedJSON, &payload); err != nil {
		logger.Warn("AI response JSON did not match expected structure", "error", err)
		return nil, openrouter.NewBadResponseError(fmt.Sprintf("unexpected response structure: %v", err))
	}

	proposals := make([]*model.FlashcardProposal, 0, len(payload.Flashcards))
	skipped := 0
	for _, fc := range payload.Flashcards {
		front := truncateRunes(fc.Front, proposalFrontMaxLen)
		back := truncateRunes(fc.Back, proposalBackMaxLen)
		if front == "" || back == "" {
			skipped++
			continue
		}
		proposals = append(proposals, &model.FlashcardProposal{
			TempID: uuid.New(),
			Front:  front,
			Back:   back,
			Source: model.SourceAIFull,
		})
	}
	if skipped > 0 {
		logger.Warn("Skipped invalid proposals from AI response", "skipped", skipped)
	}
	return proposals, nil
}

// mockProposals は開発用の決定的な候補を返します (実APIは呼びません)
func (s *generationService) mockProposals(sourceHash string, sourceLen int) []*model.FlashcardProposal {
	items := []struct{ front, back string }{
		{"このテキストの主題は何ですか？", fmt.Sprintf("約%d文字のテキストから抽出された主要な概念です。", sourceLen)},
		{"重要なキーワードを1つ挙げてください。", fmt.Sprintf("ハッシュ %s に対応するソーステキスト中のキーワードです。", sourceHash[:8])},
		{"この内容を一文で要約してください。", "ソーステキストの要点をまとめた模擬回答です。"},
	}
	proposals := make([]*model.FlashcardProposal, 0, len(items))
	for _, it := range items {
		proposals = append(proposals, &model.FlashcardProposal{
			TempID: uuid.New(),
			Front:  it.front,
			Back:   it.back,
			Source: model.SourceAIFull,
		})
	}
	return proposals
}

// recordGenerationError は失敗内容を保存します。保存自体の失敗はログに残すだけです。
func (s *generationService) recordGenerationError(ctx context.Context, tenantID uuid.UUID, sourceHash string, sourceLen int, genErr error) {
	logger := middleware.GetLogger(ctx)

	errorLog := &model.GenerationErrorLog{
		ID:               uuid.New(),
		TenantID:         tenantID,
		Model:            s.modelName(),
		SourceTextHash:   sourceHash,
		SourceTextLength: sourceLen,
		ErrorCode:        string(openrouter.CodeOf(genErr)),
		ErrorMessage:     truncateRunes(genErr.Error(), errorLogMaxLen),
	}
	if err := s.genRepo.CreateErrorLog(ctx, s.db, errorLog); err != nil {
		logger.Error("Failed to record generation error log", "error", err, "tenant_id", tenantID)
	}
}

// modelName はモック動作時 (クライアント未構成) でも設定値から名前を解決します
func (s *generationService) modelName() string {
	if s.chat != nil {
		return s.chat.Model()
	}
	return s.cfg.OpenRouter.Model
}

func hashSourceText(text string) string {
	sum := md5.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
