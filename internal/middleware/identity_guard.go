package middleware

import (
	"errors"
	"net/http"

	"storefront/internal/repository"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// トークンのユーザーがまだ存在するか確認する。
// 匿名リクエスト（OptionalAuthJWTで通したもの）はそのまま通す。
func IdentityGuard(userRepo repository.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID := UserID(c)
			if userID == "" {
				return next(c)
			}

			ctx := c.Request().Context()
			_, err := userRepo.FindByID(ctx, userID)
			if errors.Is(err, repository.ErrNotFound) {
				return c.JSON(http.StatusNotFound, errorResponse{Error: "NOT_FOUND", Message: "User does not exist"})
			}
			if err != nil {
				zerolog.Ctx(ctx).Error().Err(err).Str("userId", userID).Msg("identity lookup failed")
				return c.JSON(http.StatusInternalServerError, errorResponse{Error: "STORAGE_OPERATION_FAILED", Message: "database operation failed"})
			}

			return next(c)
		}
	}
}
