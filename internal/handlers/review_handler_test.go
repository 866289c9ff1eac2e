// internal/handlers/review_handler_test.go
package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go_5_flashcards_keep/internal/handlers"
	"go_5_flashcards_keep/internal/model"
	"go_5_flashcards_keep/internal/review"
	review_mocks "go_5_flashcards_keep/internal/review/mocks"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupReviewRouter(t *testing.T, tenantID uuid.UUID) (*chi.Mux, *review.Store, *review_mocks.FlashcardCreator) {
	t.Helper()
	store := review.NewStore()
	mockCreator := review_mocks.NewFlashcardCreator(t)
	committer := review.NewCommitter(mockCreator, nil)
	handler := handlers.NewReviewHandler(store, committer, newTestLogger())

	router := chi.NewRouter()
	router.Use(tenantContextMiddleware(tenantID))
	router.Route("/api/v1/reviews", func(r chi.Router) {
		r.Get("/", handler.GetSession)
		r.Delete("/", handler.DeleteSession)
		r.Post("/commit", handler.Commit)
		r.Post("/proposals/{temp_id}/accept", handler.AcceptProposal)
		r.Post("/proposals/{temp_id}/reject", handler.RejectProposal)
		r.Patch("/proposals/{temp_id}", handler.EditProposal)
	})
	return router, store, mockCreator
}

// seedSession はテナントのセッションを候補付きで登録します
func seedSession(store *review.Store, tenantID uuid.UUID, count int) (*review.Session, []*model.FlashcardProposal) {
	proposals := make([]*model.FlashcardProposal, 0, count)
	for i := 0; i < count; i++ {
		proposals = append(proposals, &model.FlashcardProposal{
			TempID: uuid.New(),
			Front:  "質問",
			Back:   "答え",
			Source: model.SourceAIFull,
		})
	}
	session := review.NewSession(uuid.New(), proposals)
	store.Put(tenantID, session)
	return session, proposals
}

func decodeSessionResponse(t *testing.T, rr *httptest.ResponseRecorder) handlers.ReviewSessionResponse {
	t.Helper()
	var resp handlers.ReviewSessionResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp), rr.Body.String())
	return resp
}

func TestReviewHandler_AcceptProposal(t *testing.T) {
	tenantID := uuid.New()

	t.Run("正常系: 候補を承認しセッションの状態を返す", func(t *testing.T) {
		router, store, _ := setupReviewRouter(t, tenantID)
		_, proposals := seedSession(store, tenantID, 2)

		req := newJSONRequest(t, "POST", "/api/v1/reviews/proposals/"+proposals[0].TempID.String()+"/accept", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		resp := decodeSessionResponse(t, rr)
		assert.Equal(t, 1, resp.AcceptedCount)
		assert.Equal(t, 2, resp.NonRejectedCount)
		require.Len(t, resp.Proposals, 2)
		assert.True(t, resp.Proposals[0].Accepted)
	})

	t.Run("異常系: セッションがない場合は404", func(t *testing.T) {
		router, _, _ := setupReviewRouter(t, tenantID)

		req := newJSONRequest(t, "POST", "/api/v1/reviews/proposals/"+uuid.NewString()+"/accept", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		errResp := decodeErrorResponse(t, rr)
		assert.Equal(t, "NO_ACTIVE_SESSION", errResp.Error.Code)
	})

	t.Run("異常系: セッションにない候補IDは404", func(t *testing.T) {
		router, store, _ := setupReviewRouter(t, tenantID)
		seedSession(store, tenantID, 1)

		req := newJSONRequest(t, "POST", "/api/v1/reviews/proposals/"+uuid.NewString()+"/accept", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("異常系: temp_idがUUIDでない場合は400", func(t *testing.T) {
		router, store, _ := setupReviewRouter(t, tenantID)
		seedSession(store, tenantID, 1)

		req := newJSONRequest(t, "POST", "/api/v1/reviews/proposals/not-a-uuid/accept", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestReviewHandler_RejectProposal(t *testing.T) {
	tenantID := uuid.New()

	t.Run("正常系: 候補を却下するとNonRejectedCountが減る", func(t *testing.T) {
		router, store, _ := setupReviewRouter(t, tenantID)
		_, proposals := seedSession(store, tenantID, 3)

		req := newJSONRequest(t, "POST", "/api/v1/reviews/proposals/"+proposals[1].TempID.String()+"/reject", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		resp := decodeSessionResponse(t, rr)
		assert.Equal(t, 0, resp.AcceptedCount)
		assert.Equal(t, 2, resp.NonRejectedCount)
		// 却下された候補もリストには残る
		require.Len(t, resp.Proposals, 3)
		assert.True(t, resp.Proposals[1].Rejected)
	})

	t.Run("正常系: 承認済み候補の却下で承認が解除される", func(t *testing.T) {
		router, store, _ := setupReviewRouter(t, tenantID)
		session, proposals := seedSession(store, tenantID, 1)
		require.NoError(t, session.Accept(proposals[0].TempID))

		req := newJSONRequest(t, "POST", "/api/v1/reviews/proposals/"+proposals[0].TempID.String()+"/reject", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		resp := decodeSessionResponse(t, rr)
		assert.Equal(t, 0, resp.AcceptedCount)
	})
}

func TestReviewHandler_EditProposal(t *testing.T) {
	tenantID := uuid.New()

	t.Run("正常系: frontのみ編集しai-editedに再分類される", func(t *testing.T) {
		router, store, _ := setupReviewRouter(t, tenantID)
		_, proposals := seedSession(store, tenantID, 1)

		body := map[string]string{"front": "編集後の質問"}
		req := newJSONRequest(t, "PATCH", "/api/v1/reviews/proposals/"+proposals[0].TempID.String(), body)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		resp := decodeSessionResponse(t, rr)
		require.Len(t, resp.Proposals, 1)
		assert.Equal(t, "編集後の質問", resp.Proposals[0].Front)
		assert.Equal(t, "答え", resp.Proposals[0].Back) // 未指定の面は変更しない
		assert.Equal(t, model.SourceAIEdited, resp.Proposals[0].Source)
	})

	t.Run("異常系: 更新項目なしは400", func(t *testing.T) {
		router, store, _ := setupReviewRouter(t, tenantID)
		_, proposals := seedSession(store, tenantID, 1)

		req := newJSONRequest(t, "PATCH", "/api/v1/reviews/proposals/"+proposals[0].TempID.String(), map[string]string{})
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("異常系: 文字数超過は400で内容を変更しない", func(t *testing.T) {
		router, store, _ := setupReviewRouter(t, tenantID)
		session, proposals := seedSession(store, tenantID, 1)

		longFront := make([]rune, 201)
		for i := range longFront {
			longFront[i] = 'あ'
		}
		body := map[string]string{"front": string(longFront)}
		req := newJSONRequest(t, "PATCH", "/api/v1/reviews/proposals/"+proposals[0].TempID.String(), body)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		got, err := session.Get(proposals[0].TempID)
		require.NoError(t, err)
		assert.Equal(t, "質問", got.Front)
		assert.Equal(t, model.SourceAIFull, got.Source)
	})
}

func TestReviewHandler_Commit(t *testing.T) {
	tenantID := uuid.New()

	t.Run("正常系: acceptedモードは承認済みのみ保存する", func(t *testing.T) {
		router, store, mockCreator := setupReviewRouter(t, tenantID)
		session, proposals := seedSession(store, tenantID, 3)
		require.NoError(t, session.Accept(proposals[0].TempID))

		mockCreator.On("CreateFlashcards", mock.Anything, tenantID, mock.MatchedBy(func(items []model.CreateFlashcardItem) bool {
			return len(items) == 1 && items[0].Front == proposals[0].Front
		})).Return([]*model.Flashcard{{}}, nil).Once()

		req := newJSONRequest(t, "POST", "/api/v1/reviews/commit", handlers.CommitReviewRequest{Mode: "accepted"})
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		var resp handlers.CommitReviewResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, 1, resp.CommittedCount)
		assert.Equal(t, 2, resp.RemainingCount)

		// 候補が残っている間はセッションを維持する
		_, ok := store.Get(tenantID)
		assert.True(t, ok)
	})

	t.Run("正常系: allモードで全候補を保存するとセッションが破棄される", func(t *testing.T) {
		router, store, mockCreator := setupReviewRouter(t, tenantID)
		seedSession(store, tenantID, 2)

		mockCreator.On("CreateFlashcards", mock.Anything, tenantID, mock.MatchedBy(func(items []model.CreateFlashcardItem) bool {
			return len(items) == 2
		})).Return([]*model.Flashcard{{}, {}}, nil).Once()

		req := newJSONRequest(t, "POST", "/api/v1/reviews/commit", handlers.CommitReviewRequest{Mode: "all"})
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var resp handlers.CommitReviewResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, 2, resp.CommittedCount)
		assert.Equal(t, 0, resp.RemainingCount)

		_, ok := store.Get(tenantID)
		assert.False(t, ok)
	})

	t.Run("異常系: 保存対象が0件の場合は400でセッションを維持する", func(t *testing.T) {
		router, store, _ := setupReviewRouter(t, tenantID)
		seedSession(store, tenantID, 2) // 誰も承認していない

		req := newJSONRequest(t, "POST", "/api/v1/reviews/commit", handlers.CommitReviewRequest{Mode: "accepted"})
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		errResp := decodeErrorResponse(t, rr)
		assert.Equal(t, "EMPTY_COMMIT", errResp.Error.Code)

		_, ok := store.Get(tenantID)
		assert.True(t, ok)
	})

	t.Run("異常系: 不正なmodeは400", func(t *testing.T) {
		router, store, _ := setupReviewRouter(t, tenantID)
		seedSession(store, tenantID, 1)

		req := newJSONRequest(t, "POST", "/api/v1/reviews/commit", map[string]string{"mode": "rejected"})
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("異常系: セッションがない場合は404", func(t *testing.T) {
		router, _, _ := setupReviewRouter(t, tenantID)

		req := newJSONRequest(t, "POST", "/api/v1/reviews/commit", handlers.CommitReviewRequest{Mode: "accepted"})
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		errResp := decodeErrorResponse(t, rr)
		assert.Equal(t, "NO_ACTIVE_SESSION", errResp.Error.Code)
	})

	t.Run("異常系: 保存失敗時は候補とフラグを維持する", func(t *testing.T) {
		router, store, mockCreator := setupReviewRouter(t, tenantID)
		session, proposals := seedSession(store, tenantID, 2)
		require.NoError(t, session.Accept(proposals[0].TempID))

		mockCreator.On("CreateFlashcards", mock.Anything, tenantID, mock.AnythingOfType("[]model.CreateFlashcardItem")).
			Return(nil, model.ErrInternalServer).Once()

		req := newJSONRequest(t, "POST", "/api/v1/reviews/commit", handlers.CommitReviewRequest{Mode: "accepted"})
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Equal(t, 2, session.Len())
		assert.Equal(t, 1, session.AcceptedCount())
	})
}

func TestReviewHandler_GetSession(t *testing.T) {
	tenantID := uuid.New()

	t.Run("正常系: セッションのスナップショットを返す", func(t *testing.T) {
		router, store, _ := setupReviewRouter(t, tenantID)
		session, proposals := seedSession(store, tenantID, 2)
		require.NoError(t, session.Accept(proposals[0].TempID))

		req := newJSONRequest(t, "GET", "/api/v1/reviews", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		resp := decodeSessionResponse(t, rr)
		assert.Equal(t, session.GenerationID(), resp.GenerationID)
		assert.Len(t, resp.Proposals, 2)
		assert.Equal(t, 1, resp.AcceptedCount)
		assert.Equal(t, 2, resp.NonRejectedCount)
	})

	t.Run("異常系: セッションがない場合は404", func(t *testing.T) {
		router, _, _ := setupReviewRouter(t, tenantID)

		req := newJSONRequest(t, "GET", "/api/v1/reviews", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestReviewHandler_DeleteSession(t *testing.T) {
	tenantID := uuid.New()

	t.Run("正常系: セッションを破棄し204を返す", func(t *testing.T) {
		router, store, _ := setupReviewRouter(t, tenantID)
		seedSession(store, tenantID, 2)

		req := newJSONRequest(t, "DELETE", "/api/v1/reviews", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNoContent, rr.Code)
		_, ok := store.Get(tenantID)
		assert.False(t, ok)
	})

	t.Run("正常系: セッションがなくても204 (冪等)", func(t *testing.T) {
		router, _, _ := setupReviewRouter(t, tenantID)

		req := newJSONRequest(t, "DELETE", "/api/v1/reviews", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNoContent, rr.Code)
	})
}
