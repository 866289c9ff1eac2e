// internal/handlers/generation_handler_test.go
package handlers_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go_5_flashcards_keep/internal/handlers"
	"go_5_flashcards_keep/internal/model"
	"go_5_flashcards_keep/internal/openrouter"
	"go_5_flashcards_keep/internal/review"
	svc_mocks "go_5_flashcards_keep/internal/service/mocks"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupGenerationRouter(t *testing.T, tenantID uuid.UUID) (*chi.Mux, *svc_mocks.GenerationService, *review.Store) {
	t.Helper()
	mockService := svc_mocks.NewGenerationService(t)
	store := review.NewStore()
	handler := handlers.NewGenerationHandler(mockService, store, newTestLogger())

	router := chi.NewRouter()
	router.Use(tenantContextMiddleware(tenantID))
	router.Post("/api/v1/generations", handler.PostGeneration)
	router.Get("/api/v1/generations/{generation_id}", handler.GetGeneration)
	return router, mockService, store
}

func TestGenerationHandler_PostGeneration(t *testing.T) {
	tenantID := uuid.New()
	validBody := model.CreateGenerationRequest{SourceText: strings.Repeat("学習内容のテキスト", 150)}

	t.Run("正常系: 201を返しレビューセッションを開始する", func(t *testing.T) {
		router, mockService, store := setupGenerationRouter(t, tenantID)

		generationID := uuid.New()
		proposals := []*model.FlashcardProposal{
			{TempID: uuid.New(), Front: "質問1", Back: "答え1", Source: model.SourceAIFull},
			{TempID: uuid.New(), Front: "質問2", Back: "答え2", Source: model.SourceAIFull},
		}
		mockService.On("CreateGeneration", mock.Anything, tenantID, &validBody).
			Return(&model.CreateGenerationResponse{
				GenerationID:        generationID,
				FlashcardsProposals: proposals,
				GeneratedCount:      2,
			}, nil).Once()

		req := newJSONRequest(t, "POST", "/api/v1/generations", validBody)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

		var resp model.CreateGenerationResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, generationID, resp.GenerationID)
		assert.Equal(t, 2, resp.GeneratedCount)
		require.Len(t, resp.FlashcardsProposals, 2)

		// レビューセッションがストアに登録されていること
		session, ok := store.Get(tenantID)
		require.True(t, ok)
		assert.Equal(t, generationID, session.GenerationID())
		assert.Equal(t, 2, session.Len())
	})

	t.Run("正常系: 新しい生成は既存のセッションを置き換える", func(t *testing.T) {
		router, mockService, store := setupGenerationRouter(t, tenantID)
		oldSession := review.NewSession(uuid.New(), []*model.FlashcardProposal{
			{TempID: uuid.New(), Front: "古い質問", Back: "古い答え", Source: model.SourceAIFull},
		})
		store.Put(tenantID, oldSession)

		newGenerationID := uuid.New()
		mockService.On("CreateGeneration", mock.Anything, tenantID, &validBody).
			Return(&model.CreateGenerationResponse{
				GenerationID:        newGenerationID,
				FlashcardsProposals: []*model.FlashcardProposal{},
				GeneratedCount:      0,
			}, nil).Once()

		req := newJSONRequest(t, "POST", "/api/v1/generations", validBody)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusCreated, rr.Code)
		session, ok := store.Get(tenantID)
		require.True(t, ok)
		assert.Equal(t, newGenerationID, session.GenerationID())
	})

	t.Run("異常系: ゲートウェイエラーの分類ごとにHTTPステータスを変換する", func(t *testing.T) {
		tests := []struct {
			name         string
			serviceErr   error
			expectedCode int
			expectedBody string
		}{
			{
				name:         "レート制限は429",
				serviceErr:   &openrouter.Error{Code: openrouter.CodeRateLimited, Message: "rate limit exceeded", Status: 429},
				expectedCode: http.StatusTooManyRequests,
				expectedBody: "SERVICE_UNAVAILABLE",
			},
			{
				name:         "タイムアウトは502",
				serviceErr:   &openrouter.Error{Code: openrouter.CodeTimeout, Message: "request timed out"},
				expectedCode: http.StatusBadGateway,
				expectedBody: "UPSTREAM_ERROR",
			},
			{
				name:         "ネットワーク障害は502",
				serviceErr:   &openrouter.Error{Code: openrouter.CodeNetworkError, Message: "network request failed"},
				expectedCode: http.StatusBadGateway,
				expectedBody: "UPSTREAM_ERROR",
			},
			{
				name:         "不正レスポンスは502",
				serviceErr:   openrouter.NewBadResponseError("missing content in response"),
				expectedCode: http.StatusBadGateway,
				expectedBody: "UPSTREAM_ERROR",
			},
			{
				name:         "上流エラーは502",
				serviceErr:   &openrouter.Error{Code: openrouter.CodeUpstreamError, Message: "upstream API error", Status: 500},
				expectedCode: http.StatusBadGateway,
				expectedBody: "UPSTREAM_ERROR",
			},
			{
				name:         "認証エラーは詳細を伏せて500",
				serviceErr:   &openrouter.Error{Code: openrouter.CodeAuthError, Message: "authentication failed", Status: 401},
				expectedCode: http.StatusInternalServerError,
				expectedBody: "INTERNAL_ERROR",
			},
			{
				name:         "設定不備は詳細を伏せて500",
				serviceErr:   &openrouter.Error{Code: openrouter.CodeConfigError, Message: "API key is required"},
				expectedCode: http.StatusInternalServerError,
				expectedBody: "INTERNAL_ERROR",
			},
			{
				name:         "入力検証エラーは400",
				serviceErr:   &openrouter.Error{Code: openrouter.CodeValidationError, Message: "user message cannot be empty"},
				expectedCode: http.StatusBadRequest,
				expectedBody: "VALIDATION_ERROR",
			},
		}

		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				router, mockService, store := setupGenerationRouter(t, tenantID)
				mockService.On("CreateGeneration", mock.Anything, tenantID, &validBody).
					Return(nil, tc.serviceErr).Once()

				req := newJSONRequest(t, "POST", "/api/v1/generations", validBody)
				rr := httptest.NewRecorder()
				router.ServeHTTP(rr, req)

				assert.Equal(t, tc.expectedCode, rr.Code, rr.Body.String())
				errResp := decodeErrorResponse(t, rr)
				assert.Equal(t, tc.expectedBody, errResp.Error.Code)
				// 上流のエラー本文をそのまま返さないこと
				assert.NotContains(t, errResp.Error.Message, tc.serviceErr.Error())

				// 失敗時はセッションを開始しない
				_, ok := store.Get(tenantID)
				assert.False(t, ok)
			})
		}
	})

	t.Run("異常系: 分類不能なエラーは500", func(t *testing.T) {
		router, mockService, _ := setupGenerationRouter(t, tenantID)
		mockService.On("CreateGeneration", mock.Anything, tenantID, &validBody).
			Return(nil, errors.New("unexpected failure")).Once()

		req := newJSONRequest(t, "POST", "/api/v1/generations", validBody)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})

	t.Run("異常系: ソーステキストが短すぎる場合は400でサービスを呼ばない", func(t *testing.T) {
		router, _, _ := setupGenerationRouter(t, tenantID)

		body := model.CreateGenerationRequest{SourceText: "短いテキスト"}
		req := newJSONRequest(t, "POST", "/api/v1/generations", body)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		errResp := decodeErrorResponse(t, rr)
		assert.Equal(t, "VALIDATION_ERROR", errResp.Error.Code)
	})

	t.Run("異常系: 不正なJSONボディは400", func(t *testing.T) {
		router, _, _ := setupGenerationRouter(t, tenantID)

		req := newJSONRequest(t, "POST", "/api/v1/generations", `{"source_text": `)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("異常系: 認証情報がない場合は403", func(t *testing.T) {
		mockService := svc_mocks.NewGenerationService(t)
		handler := handlers.NewGenerationHandler(mockService, review.NewStore(), newTestLogger())
		router := chi.NewRouter() // テナント注入ミドルウェアなし
		router.Post("/api/v1/generations", handler.PostGeneration)

		req := newJSONRequest(t, "POST", "/api/v1/generations", validBody)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})
}

func TestGenerationHandler_GetGeneration(t *testing.T) {
	tenantID := uuid.New()
	generationID := uuid.New()

	t.Run("正常系: 生成メタデータを返す", func(t *testing.T) {
		router, mockService, _ := setupGenerationRouter(t, tenantID)

		generation := &model.Generation{
			GenerationID:   generationID,
			TenantID:       tenantID,
			Model:          "test/model",
			GeneratedCount: 5,
		}
		mockService.On("GetGeneration", mock.Anything, tenantID, generationID).
			Return(generation, nil).Once()

		req := newJSONRequest(t, "GET", "/api/v1/generations/"+generationID.String(), nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var resp model.Generation
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, generationID, resp.GenerationID)
		assert.Equal(t, 5, resp.GeneratedCount)
	})

	t.Run("異常系: IDがUUIDでない場合は400", func(t *testing.T) {
		router, _, _ := setupGenerationRouter(t, tenantID)

		req := newJSONRequest(t, "GET", "/api/v1/generations/not-a-uuid", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		errResp := decodeErrorResponse(t, rr)
		assert.Equal(t, "INVALID_URL_PARAM", errResp.Error.Code)
	})

	t.Run("異常系: 存在しない場合は404", func(t *testing.T) {
		router, mockService, _ := setupGenerationRouter(t, tenantID)

		mockService.On("GetGeneration", mock.Anything, tenantID, generationID).
			Return(nil, model.NewAppError("NOT_FOUND", "生成履歴が見つかりません。", "", model.ErrNotFound)).Once()

		req := newJSONRequest(t, "GET", "/api/v1/generations/"+generationID.String(), nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}
