package middleware

import (
	"errors"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

const (
	CtxUserIDKey = "user_id" // string
	ctxTokenKey  = "jwt"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// server側のHTTPErrorHandlerが{error, message}に整形する
var ErrUnauthorized = echo.NewHTTPError(http.StatusUnauthorized, "authentication required")

// Bearerトークン必須
func AuthJWT(secret string) echo.MiddlewareFunc {
	return jwtMiddleware(secret, false)
}

// トークンが無ければ匿名で通す。不正なトークンは401
func OptionalAuthJWT(secret string) echo.MiddlewareFunc {
	return jwtMiddleware(secret, true)
}

func jwtMiddleware(secret string, optional bool) echo.MiddlewareFunc {
	parse := echojwt.WithConfig(echojwt.Config{
		SigningKey:    []byte(secret),
		SigningMethod: jwt.SigningMethodHS256.Alg(),
		ContextKey:    ctxTokenKey,
		TokenLookup:   "header:" + echo.HeaderAuthorization + ":Bearer ",
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(jwt.RegisteredClaims)
		},
		ContinueOnIgnoredError: optional,
		ErrorHandler: func(c echo.Context, err error) error {
			var missing *echojwt.TokenExtractionError
			if optional && errors.As(err, &missing) {
				return nil
			}
			return ErrUnauthorized
		},
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return parse(func(c echo.Context) error {
			token, ok := c.Get(ctxTokenKey).(*jwt.Token)
			if !ok {
				// 匿名
				return next(c)
			}

			//subにuser_idが入っている
			claims, ok := token.Claims.(*jwt.RegisteredClaims)
			if !ok || claims.Subject == "" {
				return ErrUnauthorized
			}
			c.Set(CtxUserIDKey, claims.Subject)
			return next(c)
		})
	}
}

// AuthJWTが入れたuser_id。匿名なら空文字
func UserID(c echo.Context) string {
	id, _ := c.Get(CtxUserIDKey).(string)
	return id
}
