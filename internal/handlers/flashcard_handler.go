package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"go_5_flashcards_keep/internal/middleware"
	"go_5_flashcards_keep/internal/model"
	"go_5_flashcards_keep/internal/service"
	"go_5_flashcards_keep/internal/webutil"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	defaultListPage  = 1
	defaultListLimit = 20
)

type FlashcardHandler struct {
	service service.FlashcardService
	logger  *slog.Logger
}

func NewFlashcardHandler(s service.FlashcardService, logger *slog.Logger) *FlashcardHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &FlashcardHandler{
		service: s,
		logger:  logger,
	}
}

// PostFlashcards は複数カードを一括作成するハンドラ
func (h *FlashcardHandler) PostFlashcards(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PostFlashcards"))

	tenantID, err := middleware.GetTenantIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("UNAUTHORIZED", "認証情報が見つかりません。", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}
	logger = logger.With(slog.String("tenant_id", tenantID.String()))

	var req model.CreateFlashcardsRequest
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

	cards, err := h.service.CreateFlashcards(r.Context(), tenantID, req.Flashcards)
	if err != nil {
		logger.Error("Error creating flashcards in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Flashcards created successfully", slog.Int("count", len(cards)))
	webutil.RespondWithJSON(w, http.StatusCreated, model.CreateFlashcardsResponse{Flashcards: cards}, logger)
}

// GetFlashcards はページネーション付きの一覧取得ハンドラ
func (h *FlashcardHandler) GetFlashcards(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetFlashcards"))

	tenantID, err := middleware.GetTenantIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("UNAUTHORIZED", "認証情報が見つかりません。", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}
	logger = logger.With(slog.String("tenant_id", tenantID.String()))

	query, appErr := parseListQuery(r)
	if appErr != nil {
		logger.Warn("Invalid list query", slog.String("error", appErr.Error()))
		webutil.HandleError(w, logger, appErr)
		return
	}

	resp, err := h.service.ListFlashcards(r.Context(), tenantID, query)
	if err != nil {
		logger.Error("Error listing flashcards in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	if resp.Items == nil {
		resp.Items = []*model.Flashcard{}
	}
	webutil.RespondWithJSON(w, http.StatusOK, resp, logger)
}

// GetFlashcard は単一カード取得のハンドラ
func (h *FlashcardHandler) GetFlashcard(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetFlashcard"))

	tenantID, flashcardID, ok := h.resolveCard(w, r, logger)
	if !ok {
		return
	}
	logger = logger.With(slog.String("tenant_id", tenantID.String()), slog.String("flashcard_id", flashcardID.String()))

	card, err := h.service.GetFlashcard(r.Context(), tenantID, flashcardID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			logger.Info("Flashcard not found in service")
		} else {
			logger.Error("Error getting flashcard from service", slog.Any("error", err))
		}
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, card, logger)
}

// PatchFlashcard はカードの部分更新ハンドラ
func (h *FlashcardHandler) PatchFlashcard(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PatchFlashcard"))

	tenantID, flashcardID, ok := h.resolveCard(w, r, logger)
	if !ok {
		return
	}
	logger = logger.With(slog.String("tenant_id", tenantID.String()), slog.String("flashcard_id", flashcardID.String()))

	var req model.PatchFlashcardRequest
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

	card, err := h.service.PatchFlashcard(r.Context(), tenantID, flashcardID, &req)
	if err != nil {
		logger.Error("Error patching flashcard in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Flashcard patched successfully")
	webutil.RespondWithJSON(w, http.StatusOK, card, logger)
}

// DeleteFlashcard はカード削除のハンドラ
func (h *FlashcardHandler) DeleteFlashcard(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "DeleteFlashcard"))

	tenantID, flashcardID, ok := h.resolveCard(w, r, logger)
	if !ok {
		return
	}
	logger = logger.With(slog.String("tenant_id", tenantID.String()), slog.String("flashcard_id", flashcardID.String()))

	if err := h.service.DeleteFlashcard(r.Context(), tenantID, flashcardID); err != nil {
		logger.Error("Error deleting flashcard in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Flashcard deleted successfully")
	webutil.RespondNoContent(w)
}

// --- ヘルパー ---

func (h *FlashcardHandler) resolveCard(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (uuid.UUID, uuid.UUID, bool) {
	tenantID, err := middleware.GetTenantIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("UNAUTHORIZED", "認証情報が見つかりません。", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return uuid.Nil, uuid.Nil, false
	}

	flashcardIDStr := chi.URLParam(r, "flashcard_id")
	flashcardID, err := uuid.Parse(flashcardIDStr)
	if err != nil {
		logger.Warn("Invalid flashcard ID format in URL", slog.String("flashcard_id_str", flashcardIDStr))
		appErr := model.NewAppError("INVALID_URL_PARAM", "flashcard_idの形式が正しくありません。", "flashcard_id", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return uuid.Nil, uuid.Nil, false
	}

	return tenantID, flashcardID, true
}

// parseListQuery はクエリパラメータを解釈し、デフォルト値を補完します
func parseListQuery(r *http.Request) (*model.ListFlashcardsQuery, *model.AppError) {
	q := r.URL.Query()

	query := &model.ListFlashcardsQuery{
		Page:   defaultListPage,
		Limit:  defaultListLimit,
		Q:      q.Get("q"),
		Sort:   "created_at",
		Order:  "desc",
		Source: q.Get("source"),
	}

	if pageStr := q.Get("page"); pageStr != "" {
		page, err := strconv.Atoi(pageStr)
		if err != nil {
			return nil, model.NewAppError("INVALID_QUERY_PARAM", "pageは数値で指定してください。", "page", model.ErrInvalidInput)
		}
		query.Page = page
	}
	if limitStr := q.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return nil, model.NewAppError("INVALID_QUERY_PARAM", "limitは数値で指定してください。", "limit", model.ErrInvalidInput)
		}
		query.Limit = limit
	}
	if sort := q.Get("sort"); sort != "" {
		query.Sort = sort
	}
	if order := q.Get("order"); order != "" {
		query.Order = order
	}

	if err := webutil.Validator.Struct(query); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return nil, webutil.NewValidationErrorResponse(validationErrors)
		}
		return nil, model.NewAppError("INVALID_QUERY_PARAM", "クエリパラメータが正しくありません。", "", model.ErrInvalidInput)
	}

	return query, nil
}
