package middleware_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/middleware"
	"storefront/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

const testSecret = "test-secret"

// =====================
// UserRepository モック
// =====================

type MockUserRepoForMiddleware struct {
	mock.Mock
}

func (m *MockUserRepoForMiddleware) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepoForMiddleware) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserRepoForMiddleware) FindByID(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserRepoForMiddleware) FindByIDs(ctx context.Context, ids []string) ([]model.User, error) {
	args := m.Called(ctx, ids)
	users, _ := args.Get(0).([]model.User)
	return users, args.Error(1)
}

var _ repository.UserRepository = (*MockUserRepoForMiddleware)(nil)

// =====================
// helper
// =====================

type okResponse struct {
	UserID string `json:"user_id"`
}

func mustMakeJWT(t *testing.T, secret string, sub string, method jwt.SigningMethod, exp time.Time) string {
	t.Helper()

	claims := jwt.RegisteredClaims{
		Subject:   sub,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	s, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("SignedString failed: %v", err)
	}
	return s
}

func runRequest(t *testing.T, e *echo.Echo, authHeader string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func echoUserID(c echo.Context) error {
	return c.JSON(http.StatusOK, okResponse{UserID: middleware.UserID(c)})
}

func decodeOK(t *testing.T, rec *httptest.ResponseRecorder) okResponse {
	t.Helper()
	var r okResponse
	_ = json.NewDecoder(rec.Body).Decode(&r)
	return r
}

// =====================
// AuthJWT
// =====================

func TestAuthJWT_Unauthorized(t *testing.T) {
	valid := time.Now().Add(time.Hour)
	cases := map[string]string{
		"no header":     "",
		"bad scheme":    "Token abc.def.ghi",
		"bad signature": "Bearer " + mustMakeJWT(t, "wrong-secret", "u1", jwt.SigningMethodHS256, valid),
		"wrong alg":     "Bearer " + mustMakeJWT(t, testSecret, "u1", jwt.SigningMethodHS512, valid),
		"expired":       "Bearer " + mustMakeJWT(t, testSecret, "u1", jwt.SigningMethodHS256, time.Now().Add(-time.Minute)),
		"no subject":    "Bearer " + mustMakeJWT(t, testSecret, "", jwt.SigningMethodHS256, valid),
	}

	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			e := echo.New()
			e.GET("/protected", echoUserID, middleware.AuthJWT(testSecret))

			rec := runRequest(t, e, header)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

// 正常：ctxにuser_idが入る
func TestAuthJWT_Success_SetsUserID(t *testing.T) {
	e := echo.New()
	e.GET("/protected", echoUserID, middleware.AuthJWT(testSecret))

	raw := mustMakeJWT(t, testSecret, "user-123", jwt.SigningMethodHS256, time.Now().Add(time.Hour))
	rec := runRequest(t, e, "Bearer "+raw)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-123", decodeOK(t, rec).UserID)
}

func TestOptionalAuthJWT_AnonymousPasses(t *testing.T) {
	e := echo.New()
	e.GET("/protected", echoUserID, middleware.OptionalAuthJWT(testSecret))

	rec := runRequest(t, e, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "", decodeOK(t, rec).UserID)
}

func TestOptionalAuthJWT_WithToken(t *testing.T) {
	e := echo.New()
	e.GET("/protected", echoUserID, middleware.OptionalAuthJWT(testSecret))

	raw := mustMakeJWT(t, testSecret, "user-9", jwt.SigningMethodHS256, time.Now().Add(time.Hour))
	rec := runRequest(t, e, "Bearer "+raw)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-9", decodeOK(t, rec).UserID)
}

// 壊れたトークンは匿名扱いにしない
func TestOptionalAuthJWT_BadTokenRejected(t *testing.T) {
	e := echo.New()
	e.GET("/protected", echoUserID, middleware.OptionalAuthJWT(testSecret))

	raw := mustMakeJWT(t, "wrong-secret", "user-9", jwt.SigningMethodHS256, time.Now().Add(time.Hour))
	rec := runRequest(t, e, "Bearer "+raw)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// =====================
// IdentityGuard
// =====================

func TestIdentityGuard(t *testing.T) {
	raw := mustMakeJWT(t, testSecret, "u1", jwt.SigningMethodHS256, time.Now().Add(time.Hour))

	t.Run("existing user", func(t *testing.T) {
		repo := new(MockUserRepoForMiddleware)
		repo.On("FindByID", mock.Anything, "u1").Return(&model.User{ID: "u1"}, nil)

		e := echo.New()
		e.GET("/protected", echoUserID, middleware.AuthJWT(testSecret), middleware.IdentityGuard(repo))

		rec := runRequest(t, e, "Bearer "+raw)
		assert.Equal(t, http.StatusOK, rec.Code)
		repo.AssertExpectations(t)
	})

	t.Run("deleted user", func(t *testing.T) {
		repo := new(MockUserRepoForMiddleware)
		repo.On("FindByID", mock.Anything, "u1").Return(nil, repository.ErrNotFound)

		e := echo.New()
		e.GET("/protected", echoUserID, middleware.AuthJWT(testSecret), middleware.IdentityGuard(repo))

		rec := runRequest(t, e, "Bearer "+raw)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("storage failure", func(t *testing.T) {
		repo := new(MockUserRepoForMiddleware)
		repo.On("FindByID", mock.Anything, "u1").Return(nil, assert.AnError)

		e := echo.New()
		e.GET("/protected", echoUserID, middleware.AuthJWT(testSecret), middleware.IdentityGuard(repo))

		rec := runRequest(t, e, "Bearer "+raw)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("anonymous skips lookup", func(t *testing.T) {
		repo := new(MockUserRepoForMiddleware)

		e := echo.New()
		e.GET("/protected", echoUserID, middleware.OptionalAuthJWT(testSecret), middleware.IdentityGuard(repo))

		rec := runRequest(t, e, "")
		assert.Equal(t, http.StatusOK, rec.Code)
		repo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})
}

// =====================
// ContextLogger
// =====================

func TestContextLogger_AttachesLogger(t *testing.T) {
	e := echo.New()
	e.Use(echomw.RequestID(), middleware.ContextLogger(zerolog.New(zerolog.NewTestWriter(t))))

	var got *zerolog.Logger
	e.GET("/protected", func(c echo.Context) error {
		got = zerolog.Ctx(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})

	rec := runRequest(t, e, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	if assert.NotNil(t, got) {
		assert.NotEqual(t, zerolog.Disabled, got.GetLevel())
	}
}
