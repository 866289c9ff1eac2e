package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"go_5_flashcards_keep/internal/middleware"
	"go_5_flashcards_keep/internal/model"
	"go_5_flashcards_keep/internal/openrouter"
	"go_5_flashcards_keep/internal/review"
	"go_5_flashcards_keep/internal/service"
	"go_5_flashcards_keep/internal/webutil"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type GenerationHandler struct {
	service service.GenerationService
	store   *review.Store
	logger  *slog.Logger
}

func NewGenerationHandler(s service.GenerationService, store *review.Store, logger *slog.Logger) *GenerationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GenerationHandler{
		service: s,
		store:   store,
		logger:  logger,
	}
}

// PostGeneration はソーステキストからフラッシュカード候補を生成するハンドラ
func (h *GenerationHandler) PostGeneration(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PostGeneration"))

	tenantID, err := middleware.GetTenantIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("UNAUTHORIZED", "認証情報が見つかりません。", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}
	logger = logger.With(slog.String("tenant_id", tenantID.String()))

	var req model.CreateGenerationRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
		logger.Warn("Failed to decode request body", slog.String("error", err.Error()))
		appErr := model.NewAppError("INVALID_REQUEST_BODY", "リクエストボディの形式が正しくありません。", "", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}

	if err := webutil.Validator.Struct(req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			logger.Warn("Validation failed", slog.Any("errors", validationErrors.Error()))
			appErr := webutil.NewValidationErrorResponse(validationErrors)
			webutil.HandleError(w, logger, appErr)
		} else {
			logger.Error("Unexpected error during validation", slog.Any("error", err))
			webutil.HandleError(w, logger, err)
		}
		return
	}

	resp, err := h.service.CreateGeneration(r.Context(), tenantID, &req)
	if err != nil {
		h.handleGatewayError(w, logger, err)
		return
	}

	// 生成成功でレビューセッションを開始する (テナントごとに1つ、既存は置き換え)
	h.store.Put(tenantID, review.NewSession(resp.GenerationID, resp.FlashcardsProposals))

	logger.Info("Generation created successfully",
		slog.String("generation_id", resp.GenerationID.String()),
		slog.Int("generated_count", resp.GeneratedCount),
	)
	webutil.RespondWithJSON(w, http.StatusCreated, resp, logger)
}

// GetGeneration は生成メタデータを取得するハンドラ
func (h *GenerationHandler) GetGeneration(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetGeneration"))

	tenantID, err := middleware.GetTenantIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("UNAUTHORIZED", "認証情報が見つかりません。", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}
	logger = logger.With(slog.String("tenant_id", tenantID.String()))

	generationIDStr := chi.URLParam(r, "generation_id")
	generationID, err := uuid.Parse(generationIDStr)
	if err != nil {
		logger.Warn("Invalid generation ID format in URL", slog.String("generation_id_str", generationIDStr))
		appErr := model.NewAppError("INVALID_URL_PARAM", "generation_idの形式が正しくありません。", "generation_id", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}

	generation, err := h.service.GetGeneration(r.Context(), tenantID, generationID)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, generation, logger)
}

// handleGatewayError はAIゲートウェイのエラー分類をHTTPステータスへ変換します。
// レート制限は 429、上流起因 (タイムアウト/ネットワーク/不正レスポンス/上流エラー) は 502、
// 認証・設定不備は内部エラーとして 500 を返します。
func (h *GenerationHandler) handleGatewayError(w http.ResponseWriter, logger *slog.Logger, err error) {
	code := openrouter.CodeOf(err)
	switch code {
	case openrouter.CodeRateLimited:
		logger.Warn("Generation rejected: upstream rate limit", slog.Any("error", err))
		webutil.RespondWithJSON(w, http.StatusTooManyRequests, model.APIErrorResponse{
			Error: model.ErrorDetail{
				Code:    "SERVICE_UNAVAILABLE",
				Message: "AIサービスが混み合っています。しばらく待ってから再度お試しください。",
			},
		}, logger)
	case openrouter.CodeTimeout, openrouter.CodeNetworkError, openrouter.CodeBadResponse, openrouter.CodeUpstreamError:
		logger.Error("Generation failed: upstream error", slog.String("code", string(code)), slog.Any("error", err))
		webutil.RespondWithJSON(w, http.StatusBadGateway, model.APIErrorResponse{
			Error: model.ErrorDetail{
				Code:    "UPSTREAM_ERROR",
				Message: "AIサービスとの通信に失敗しました。時間をおいて再度お試しください。",
			},
		}, logger)
	case openrouter.CodeAuthError, openrouter.CodeConfigError:
		logger.Error("Generation failed: gateway misconfiguration", slog.String("code", string(code)), slog.Any("error", err))
		webutil.RespondWithJSON(w, http.StatusInternalServerError, model.APIErrorResponse{
			Error: model.ErrorDetail{
				Code:    "INTERNAL_ERROR",
				Message: "サーバー内部でエラーが発生しました。",
			},
		}, logger)
	case openrouter.CodeValidationError:
		logger.Warn("Generation rejected: invalid input", slog.Any("error", err))
		webutil.RespondWithJSON(w, http.StatusBadRequest, model.APIErrorResponse{
			Error: model.ErrorDetail{
				Code:    "VALIDATION_ERROR",
				Message: "入力内容が正しくありません。",
			},
		}, logger)
	default:
		webutil.HandleError(w, logger, err)
	}
}
