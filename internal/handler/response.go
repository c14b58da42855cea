package handler

import (
	"errors"
	"net/http"
	"strconv"

	"storefront/internal/middleware"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// 単体操作のレスポンス
type DataResponse[T any] struct {
	Data T `json:"data"`
}

var statusByKind = map[usecase.ErrorKind]int{
	usecase.KindNotFound:              http.StatusNotFound,
	usecase.KindAlreadyExists:         http.StatusConflict,
	usecase.KindOperationNotPerformed: http.StatusBadRequest,
	usecase.KindInvalidInput:          http.StatusBadRequest,
	usecase.KindWrongPassword:         http.StatusUnauthorized,
	usecase.KindStorageFailed:         http.StatusInternalServerError,
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if ae, ok := usecase.AsAppError(err); ok {
		status, known := statusByKind[ae.Kind]
		if !known {
			status = http.StatusInternalServerError
		}
		return c.JSON(status, ErrorResponse{Error: string(ae.Kind), Message: ae.Message})
	}

	//500
	zerolog.Ctx(c.Request().Context()).Error().Err(err).Msg("unhandled error")
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: string(usecase.KindStorageFailed), Message: "internal error"})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: string(usecase.KindInvalidInput), Message: msg})
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "UNAUTHORIZED", Message: "authentication required"})
}

// bodyのbindとvalidate
func bindAndValidate(c echo.Context, req any) error {
	if err := (&echo.DefaultBinder{}).BindBody(c, req); err != nil {
		return errors.New("invalid body")
	}
	if err := c.Validate(req); err != nil {
		return err
	}
	return nil
}

// AuthJWTが入れたuser_id
func getUserIDFromContext(c echo.Context) (string, bool) {
	id := middleware.UserID(c)
	return id, id != ""
}

func parseProductID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("productId"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid productId")
	}
	return id, nil
}

// echo内部のエラー（404ルート、JWT、レート制限など）も同じ形で返す
func HTTPErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		msg := http.StatusText(status)
		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			if m, ok := he.Message.(string); ok {
				msg = m
			} else {
				msg = http.StatusText(status)
			}
		} else {
			logger.Error().Err(err).Str("path", c.Path()).Msg("unhandled error")
		}

		code := "ERROR"
		switch status {
		case http.StatusUnauthorized:
			code = "UNAUTHORIZED"
		case http.StatusNotFound:
			code = string(usecase.KindNotFound)
		case http.StatusTooManyRequests:
			code = "RATE_LIMITED"
		case http.StatusServiceUnavailable:
			code = "TIMEOUT"
		case http.StatusBadRequest:
			code = string(usecase.KindInvalidInput)
		}
		if status >= 500 && status != http.StatusServiceUnavailable {
			code = string(usecase.KindStorageFailed)
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(status)
		} else {
			writeErr = c.JSON(status, ErrorResponse{Error: code, Message: msg})
		}
		if writeErr != nil {
			logger.Error().Err(writeErr).Msg("error response write failed")
		}
	}
}
