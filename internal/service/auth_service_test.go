package service_test // メインコードとは別のパッケージにすることで、公開されているものしかテストできなくなり、より良いテストになる

import (
	"context"
	"errors"
	"testing"
	"time"

	"go_5_flashcards_keep/internal/config"
	"go_5_flashcards_keep/internal/model"
	"go_5_flashcards_keep/internal/repository/mocks"
	"go_5_flashcards_keep/internal/service"
	servicemocks "go_5_flashcards_keep/internal/service/mocks" // Mailerのモック

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// --- テストスイートの定義 ---
// 関連するテストと、共通のセットアップをまとめる
type AuthServiceTestSuite struct {
	suite.Suite // testifyのSuiteを埋め込む

	db             *gorm.DB
	mockTenantRepo *mocks.TenantRepository
	mockTokenRepo  *mocks.TokenRepository
	mockMailer     *servicemocks.Mailer
	cfg            *config.Config
	authService    service.AuthService
}

// --- セットアップメソッド ---
// 各テスト(`TestXxx`)が実行される直前に呼ばれる
func (s *AuthServiceTestSuite) SetupTest() {
	// 各テストの前に、モックを新しく生成してクリーンな状態にする
	s.mockTenantRepo = new(mocks.TenantRepository)
	s.mockTokenRepo = new(mocks.TokenRepository)
	s.mockMailer = new(servicemocks.Mailer)

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	s.Require().NoError(err)
	s.Require().NoError(db.AutoMigrate(&model.Tenant{}, &model.UserVerificationToken{}))
	s.db = db

	// テスト用のダミー設定
	s.cfg = &config.Config{}
	s.cfg.JWT.SecretKey = "test-secret"
	s.cfg.JWT.ExpirationHours = 1
	s.cfg.App.BaseURL = "http://localhost:3000"

	// テスト対象のサービスにモックを注入してインスタンスを生成
	s.authService = service.NewAuthService(s.db, s.mockTenantRepo, s.mockTokenRepo, s.mockMailer, s.cfg)
}

// --- テストランナー ---
// この関数が `go test` から実際に呼ばれる
func TestAuthService(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}

// --- RegisterTenantメソッドのテスト ---
func (s *AuthServiceTestSuite) TestRegisterTenant() {
	// テストケースをテーブルとして定義
	testCases := []struct {
		name        string
		req         *model.RegisterRequest
		setupMocks  func()
		checkResult func(tenant *model.Tenant, err error)
	}{
		{
			name: "Success - 正常に登録できる",
			req:  &model.RegisterRequest{Name: "taro", Email: "taro@example.com", Password: "password123"},
			setupMocks: func() {
				s.mockTenantRepo.On("FindByEmail", mock.Anything, mock.Anything, "taro@example.com").Return(nil, model.ErrNotFound).Once()
				s.mockTenantRepo.On("FindByName", mock.Anything, mock.Anything, "taro").Return(nil, model.ErrNotFound).Once()
				s.mockTenantRepo.On("Create", mock.Anything, mock.Anything, mock.AnythingOfType("*model.Tenant")).Return(nil).Once()
				s.mockTokenRepo.On("CreateVerificationToken", mock.Anything, mock.Anything, mock.AnythingOfType("*model.UserVerificationToken")).Return(nil).Once()
				s.mockMailer.On("Send", mock.Anything, "taro@example.com", mock.Anything, mock.Anything).Return(nil).Once()
			},
			checkResult: func(tenant *model.Tenant, err error) {
				s.NoError(err)
				s.Require().NotNil(tenant)
				s.Equal("taro@example.com", tenant.Email)
				s.False(tenant.IsActive)
				// パスワードは平文では保存されない
				s.NoError(bcrypt.CompareHashAndPassword([]byte(tenant.PasswordHash), []byte("password123")))
			},
		},
		{
			name: "Failure - Emailが重複している",
			req:  &model.RegisterRequest{Name: "taro", Email: "taro@example.com", Password: "password123"},
			setupMocks: func() {
				s.mockTenantRepo.On("FindByEmail", mock.Anything, mock.Anything, "taro@example.com").Return(&model.Tenant{}, nil).Once()
			},
			checkResult: func(tenant *model.Tenant, err error) {
				s.Nil(tenant)
				var appErr *model.AppError
				s.Require().ErrorAs(err, &appErr)
				s.Equal("DUPLICATE_EMAIL", appErr.Detail.Code)
			},
		},
		{
			name: "Failure - 名前が重複している",
			req:  &model.RegisterRequest{Name: "taro", Email: "taro@example.com", Password: "password123"},
			setupMocks: func() {
				s.mockTenantRepo.On("FindByEmail", mock.Anything, mock.Anything, "taro@example.com").Return(nil, model.ErrNotFound).Once()
				s.mockTenantRepo.On("FindByName", mock.Anything, mock.Anything, "taro").Return(&model.Tenant{}, nil).Once()
			},
			checkResult: func(tenant *model.Tenant, err error) {
				s.Nil(tenant)
				var appErr *model.AppError
				s.Require().ErrorAs(err, &appErr)
				s.Equal("DUPLICATE_NAME", appErr.Detail.Code)
			},
		},
		{
			name: "Failure - レースコンディションによるINSERT時の重複",
			req:  &model.RegisterRequest{Name: "taro", Email: "taro@example.com", Password: "password123"},
			setupMocks: func() {
				s.mockTenantRepo.On("FindByEmail", mock.Anything, mock.Anything, "taro@example.com").Return(nil, model.ErrNotFound).Once()
				s.mockTenantRepo.On("FindByName", mock.Anything, mock.Anything, "taro").Return(nil, model.ErrNotFound).Once()
				s.mockTenantRepo.On("Create", mock.Anything, mock.Anything, mock.AnythingOfType("*model.Tenant")).Return(model.ErrConflict).Once()
			},
			checkResult: func(tenant *model.Tenant, err error) {
				s.Nil(tenant)
				var appErr *model.AppError
				s.Require().ErrorAs(err, &appErr)
				s.Equal("DUPLICATE_ENTRY", appErr.Detail.Code)
			},
		},
		{
			name: "Failure - 確認メールの送信に失敗",
			req:  &model.RegisterRequest{Name: "taro", Email: "taro@example.com", Password: "password123"},
			setupMocks: func() {
				s.mockTenantRepo.On("FindByEmail", mock.Anything, mock.Anything, "taro@example.com").Return(nil, model.ErrNotFound).Once()
				s.mockTenantRepo.On("FindByName", mock.Anything, mock.Anything, "taro").Return(nil, model.ErrNotFound).Once()
				s.mockTenantRepo.On("Create", mock.Anything, mock.Anything, mock.AnythingOfType("*model.Tenant")).Return(nil).Once()
				s.mockTokenRepo.On("CreateVerificationToken", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
				s.mockMailer.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("ses unavailable")).Once()
			},
			checkResult: func(tenant *model.Tenant, err error) {
				s.Nil(tenant)
				var appErr *model.AppError
				s.Require().ErrorAs(err, &appErr)
				s.Equal("EMAIL_SEND_FAILED", appErr.Detail.Code)
			},
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			// SetupTestが呼ばれてモックがリセットされる
			s.SetupTest()

			tc.setupMocks()

			createdTenant, err := s.authService.RegisterTenant(context.Background(), tc.req)

			tc.checkResult(createdTenant, err)

			s.mockTenantRepo.AssertExpectations(s.T())
			s.mockTokenRepo.AssertExpectations(s.T())
			s.mockMailer.AssertExpectations(s.T())
		})
	}
}

// --- Loginメソッドのテスト ---
func (s *AuthServiceTestSuite) TestLogin() {
	tenantID := uuid.New()
	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	s.Require().NoError(err)

	activeTenant := &model.Tenant{
		TenantID:     tenantID,
		Name:         "taro",
		Email:        "taro@example.com",
		PasswordHash: string(hashed),
		IsActive:     true,
	}

	s.Run("Success - JWTが発行されsubjectがテナントIDになる", func() {
		s.SetupTest()
		s.mockTenantRepo.On("FindByEmail", mock.Anything, mock.Anything, "taro@example.com").Return(activeTenant, nil).Once()

		resp, err := s.authService.Login(context.Background(), &model.LoginRequest{Email: "taro@example.com", Password: "password123"})

		s.Require().NoError(err)
		s.Require().NotNil(resp)

		token, err := jwt.Parse(resp.AccessToken, func(t *jwt.Token) (interface{}, error) {
			return []byte("test-secret"), nil
		})
		s.Require().NoError(err)
		s.True(token.Valid)
		subject, err := token.Claims.GetSubject()
		s.Require().NoError(err)
		s.Equal(tenantID.String(), subject)
	})

	s.Run("Failure - パスワードが一致しない", func() {
		s.SetupTest()
		s.mockTenantRepo.On("FindByEmail", mock.Anything, mock.Anything, "taro@example.com").Return(activeTenant, nil).Once()

		resp, err := s.authService.Login(context.Background(), &model.LoginRequest{Email: "taro@example.com", Password: "wrong-password"})

		s.Nil(resp)
		var appErr *model.AppError
		s.Require().ErrorAs(err, &appErr)
		s.Equal("AUTHENTICATION_FAILED", appErr.Detail.Code)
	})

	s.Run("Failure - 存在しないユーザーでも同じエラーを返す", func() {
		s.SetupTest()
		s.mockTenantRepo.On("FindByEmail", mock.Anything, mock.Anything, "nobody@example.com").Return(nil, model.ErrNotFound).Once()

		resp, err := s.authService.Login(context.Background(), &model.LoginRequest{Email: "nobody@example.com", Password: "password123"})

		s.Nil(resp)
		var appErr *model.AppError
		s.Require().ErrorAs(err, &appErr)
		s.Equal("AUTHENTICATION_FAILED", appErr.Detail.Code)
	})

	s.Run("Failure - 未有効化アカウントはログインできない", func() {
		s.SetupTest()
		inactive := *activeTenant
		inactive.IsActive = false
		s.mockTenantRepo.On("FindByEmail", mock.Anything, mock.Anything, "taro@example.com").Return(&inactive, nil).Once()

		resp, err := s.authService.Login(context.Background(), &model.LoginRequest{Email: "taro@example.com", Password: "password123"})

		s.Nil(resp)
		var appErr *model.AppError
		s.Require().ErrorAs(err, &appErr)
		s.Equal("ACCOUNT_NOT_ACTIVE", appErr.Detail.Code)
	})
}

// --- VerifyAccountメソッドのテスト ---
func (s *AuthServiceTestSuite) TestVerifyAccount() {
	s.Run("Success - アカウントが有効化される", func() {
		s.SetupTest()

		// 有効化対象のテナントを実DBに用意する
		tenant := &model.Tenant{
			TenantID:     uuid.New(),
			Name:         "verify-target-" + uuid.NewString(),
			Email:        uuid.NewString() + "@example.com",
			PasswordHash: "hash",
			IsActive:     false,
		}
		s.Require().NoError(s.db.Create(tenant).Error)

		tokenString := "valid-token"
		s.mockTokenRepo.On("FindVerificationToken", mock.Anything, mock.Anything, tokenString).
			Return(&model.UserVerificationToken{
				Token:     tokenString,
				TenantID:  tenant.TenantID,
				ExpiresAt: time.Now().Add(1 * time.Hour),
			}, nil).Once()
		s.mockTokenRepo.On("DeleteVerificationToken", mock.Anything, mock.Anything, tokenString).Return(nil).Once()

		err := s.authService.VerifyAccount(context.Background(), tokenString)

		s.Require().NoError(err)
		var updated model.Tenant
		s.Require().NoError(s.db.Where("tenant_id = ?", tenant.TenantID).First(&updated).Error)
		s.True(updated.IsActive)
		s.mockTokenRepo.AssertExpectations(s.T())
	})

	s.Run("Failure - 期限切れトークンは削除されINVALID_TOKEN", func() {
		s.SetupTest()

		tokenString := "expired-token"
		s.mockTokenRepo.On("FindVerificationToken", mock.Anything, mock.Anything, tokenString).
			Return(&model.UserVerificationToken{
				Token:     tokenString,
				TenantID:  uuid.New(),
				ExpiresAt: time.Now().Add(-1 * time.Minute),
			}, nil).Once()
		s.mockTokenRepo.On("DeleteVerificationToken", mock.Anything, mock.Anything, tokenString).Return(nil).Once()

		err := s.authService.VerifyAccount(context.Background(), tokenString)

		var appErr *model.AppError
		s.Require().ErrorAs(err, &appErr)
		s.Equal("INVALID_TOKEN", appErr.Detail.Code)
		s.mockTokenRepo.AssertExpectations(s.T())
	})

	s.Run("Failure - 存在しないトークンはINVALID_TOKEN", func() {
		s.SetupTest()

		tokenString := "unknown-token"
		s.mockTokenRepo.On("FindVerificationToken", mock.Anything, mock.Anything, tokenString).
			Return(nil, model.ErrNotFound).Once()

		err := s.authService.VerifyAccount(context.Background(), tokenString)

		var appErr *model.AppError
		s.Require().ErrorAs(err, &appErr)
		s.Equal("INVALID_TOKEN", appErr.Detail.Code)
	})
}

// --- GetTenantメソッドのテスト ---
func (s *AuthServiceTestSuite) TestGetTenant() {
	tenantID := uuid.New()

	s.Run("Success - テナント情報を返す", func() {
		s.SetupTest()
		s.mockTenantRepo.On("FindByID", mock.Anything, mock.Anything, tenantID).
			Return(&model.Tenant{TenantID: tenantID, Name: "taro"}, nil).Once()

		tenant, err := s.authService.GetTenant(context.Background(), tenantID)

		s.Require().NoError(err)
		s.Equal("taro", tenant.Name)
	})

	s.Run("Failure - 存在しない場合はTENANT_NOT_FOUND", func() {
		s.SetupTest()
		s.mockTenantRepo.On("FindByID", mock.Anything, mock.Anything, tenantID).
			Return(nil, model.ErrNotFound).Once()

		tenant, err := s.authService.GetTenant(context.Background(), tenantID)

		s.Nil(tenant)
		var appErr *model.AppError
		s.Require().ErrorAs(err, &appErr)
		s.Equal("TENANT_NOT_FOUND", appErr.Detail.Code)
	})
}
