package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"go_5_flashcards_keep/internal/middleware"
	"go_5_flashcards_keep/internal/model"
	"go_5_flashcards_keep/internal/review"
	"go_5_flashcards_keep/internal/webutil"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// CommitReviewRequest はコミットAPIのリクエストボディ
type CommitReviewRequest struct {
	Mode string `json:"mode" validate:"required,oneof=accepted all"`
}

// CommitReviewResponse はコミット結果
type CommitReviewResponse struct {
	CommittedCount int `json:"committed_count"`
	RemainingCount int `json:"remaining_count"`
}

// ReviewSessionResponse はセッションのスナップショットと派生カウントです
type ReviewSessionResponse struct {
	GenerationID     uuid.UUID         `json:"generation_id"`
	Proposals        []review.Proposal `json:"proposals"`
	AcceptedCount    int               `json:"accepted_count"`
	NonRejectedCount int               `json:"non_rejected_count"`
}

type ReviewHandler struct {
	store     *review.Store
	committer *review.Committer
	logger    *slog.Logger
}

func NewReviewHandler(store *review.Store, committer *review.Committer, logger *slog.Logger) *ReviewHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReviewHandler{
		store:     store,
		committer: committer,
		logger:    logger,
	}
}

// AcceptProposal は候補を受入済みにマークします (冪等)
func (h *ReviewHandler) AcceptProposal(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "AcceptProposal"))

	tenantID, session, tempID, ok := h.resolveProposal(w, r, logger)
	if !ok {
		return
	}
	logger = logger.With(slog.String("tenant_id", tenantID.String()), slog.String("temp_id", tempID.String()))

	if err := session.Accept(tempID); err != nil {
		logger.Warn("Proposal not found in session")
		appErr := model.NewAppError("NOT_FOUND", "指定された候補が見つかりません。", "temp_id", model.ErrNotFound)
		webutil.HandleError(w, logger, appErr)
		return
	}

	logger.Info("Proposal accepted")
	h.respondSession(w, session, logger)
}

// RejectProposal は候補を却下済みにマークします (冪等)
func (h *ReviewHandler) RejectProposal(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "RejectProposal"))

	tenantID, session, tempID, ok := h.resolveProposal(w, r, logger)
	if !ok {
		return
	}
	logger = logger.With(slog.String("tenant_id", tenantID.String()), slog.String("temp_id", tempID.String()))

	if err := session.Reject(tempID); err != nil {
		logger.Warn("Proposal not found in session")
		appErr := model.NewAppError("NOT_FOUND", "指定された候補が見つかりません。", "temp_id", model.ErrNotFound)
		webutil.HandleError(w, logger, appErr)
		return
	}

	logger.Info("Proposal rejected")
	h.respondSession(w, session, logger)
}

// EditProposal は候補の内容を編集します。
// ai-full の候補を編集すると ai-edited に再分類されます。
func (h *ReviewHandler) EditProposal(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "EditProposal"))

	tenantID, session, tempID, ok := h.resolveProposal(w, r, logger)
	if !ok {
		return
	}
	logger = logger.With(slog.String("tenant_id", tenantID.String()), slog.String("temp_id", tempID.String()))

	var req model.PatchFlashcardRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
		logger.Warn("Failed to decode request body", slog.String("error", err.Error()))
		appErr := model.NewAppError("INVALID_REQUEST_BODY", "リクエストボディの形式が正しくありません。", "", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}
	if req.Front == nil && req.Back == nil {
		appErr := model.NewAppError("VALIDATION_ERROR", "更新項目が指定されていません。", "", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}

	current, err := session.Get(tempID)
	if err != nil {
		logger.Warn("Proposal not found in session")
		appErr := model.NewAppError("NOT_FOUND", "指定された候補が見つかりません。", "temp_id", model.ErrNotFound)
		webutil.HandleError(w, logger, appErr)
		return
	}

	front := current.Front
	back := current.Back
	if req.Front != nil {
		front = *req.Front
	}
	if req.Back != nil {
		back = *req.Back
	}

	if err := session.Edit(tempID, front, back); err != nil {
		logger.Warn("Proposal edit rejected", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Proposal edited")
	h.respondSession(w, session, logger)
}

// Commit はレビュー済み候補をフラッシュカードとして永続化します
func (h *ReviewHandler) Commit(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "Commit"))

	tenantID, err := middleware.GetTenantIDFromContext(r.Context())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	logger = logger.With(slog.String("tenant_id", tenantID.String()))

	session, ok := h.store.Get(tenantID)
	if !ok {
		appErr := model.NewAppError("NO_ACTIVE_SESSION", "アクティブなレビューセッションがありません。", "", model.ErrNotFound)
		webutil.HandleError(w, logger, appErr)
		return
	}

	var req CommitReviewRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
		logger.Warn("Failed to decode request body", slog.String("error", err.Error()))
		appErr := model.NewAppError("INVALID_REQUEST_BODY", "リクエストボディの形式が正しくありません。", "", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}
	if err := webutil.Validator.Struct(req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			appErr := webutil.NewValidationErrorResponse(validationErrors)
			webutil.HandleError(w, logger, appErr)
		} else {
			webutil.HandleError(w, logger, err)
		}
		return
	}

	var committed int
	if req.Mode == "all" {
		committed, err = h.committer.CommitAll(r.Context(), tenantID, session)
	} else {
		committed, err = h.committer.CommitAccepted(r.Context(), tenantID, session)
	}
	if err != nil {
		logger.Error("Commit failed", slog.String("mode", req.Mode), slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	remaining := session.Len()
	if remaining == 0 {
		h.store.Delete(tenantID)
	}

	logger.Info("Review committed", slog.String("mode", req.Mode), slog.Int("committed", committed), slog.Int("remaining", remaining))
	webutil.RespondWithJSON(w, http.StatusOK, CommitReviewResponse{
		CommittedCount: committed,
		RemainingCount: remaining,
	}, logger)
}

// GetSession は現在のセッションのスナップショットを返します
func (h *ReviewHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetSession"))

	tenantID, err := middleware.GetTenantIDFromContext(r.Context())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	session, ok := h.store.Get(tenantID)
	if !ok {
		appErr := model.NewAppError("NO_ACTIVE_SESSION", "アクティブなレビューセッションがありません。", "", model.ErrNotFound)
		webutil.HandleError(w, logger, appErr)
		return
	}

	h.respondSession(w, session, logger)
}

// DeleteSession はセッションを破棄します (冪等)
func (h *ReviewHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "DeleteSession"))

	tenantID, err := middleware.GetTenantIDFromContext(r.Context())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	h.store.Delete(tenantID)
	logger.Info("Review session discarded", slog.String("tenant_id", tenantID.String()))
	webutil.RespondNoContent(w)
}

// --- ヘルパー ---

// resolveProposal は認証情報・セッション・temp_id をまとめて解決します
func (h *ReviewHandler) resolveProposal(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (uuid.UUID, *review.Session, uuid.UUID, bool) {
	tenantID, err := middleware.GetTenantIDFromContext(r.Context())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return uuid.Nil, nil, uuid.Nil, false
	}

	session, ok := h.store.Get(tenantID)
	if !ok {
		appErr := model.NewAppError("NO_ACTIVE_SESSION", "アクティブなレビューセッションがありません。", "", model.ErrNotFound)
		webutil.HandleError(w, logger, appErr)
		return uuid.Nil, nil, uuid.Nil, false
	}

	tempIDStr := chi.URLParam(r, "temp_id")
	tempID, err := uuid.Parse(tempIDStr)
	if err != nil {
		logger.Warn("Invalid temp ID format in URL", slog.String("temp_id_str", tempIDStr))
		appErr := model.NewAppError("INVALID_URL_PARAM", "temp_idの形式が正しくありません。", "temp_id", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return uuid.Nil, nil, uuid.Nil, false
	}

	return tenantID, session, tempID, true
}

func (h *ReviewHandler) respondSession(w http.ResponseWriter, session *review.Session, logger *slog.Logger) {
	webutil.RespondWithJSON(w, http.StatusOK, ReviewSessionResponse{
		GenerationID:     session.GenerationID(),
		Proposals:        session.Snapshot(),
		AcceptedCount:    session.AcceptedCount(),
		NonRejectedCount: session.NonRejectedCount(),
	}, logger)
}
