package api

import (
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/yakoovad/member-search/internal/auth"
	"github.com/yakoovad/member-search/internal/service"
	"github.com/yakoovad/member-search/pkg/logger"
	"go.uber.org/zap"
)

const (
	errorCodeUnauthorized service.ErrorCode = "UNAUTHORIZED"
	errorCodeForbidden    service.ErrorCode = "FORBIDDEN"

	loggerKey = "logger"
)

func ZapLoggerMiddleware(l *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			req := c.Request()
			res := c.Response()

			requestID := c.Response().Header().Get(echo.HeaderXRequestID)

			reqLogger := l.With(
				zap.String("request_id", requestID),
			)

			c.Set(loggerKey, reqLogger)

			ctx := logger.WithLogger(req.Context(), reqLogger)
			c.SetRequest(req.WithContext(ctx))

			err := next(c)

			latency := time.Since(start)

			fields := []zap.Field{
				zap.String("method", req.Method),
				zap.String("uri", req.RequestURI),
				zap.String("remote_ip", c.RealIP()),
				zap.Int("status", res.Status),
				zap.Duration("latency", latency),
				zap.Int64("bytes_in", req.ContentLength),
				zap.Int64("bytes_out", res.Size),
			}

			if err != nil {
				fields = append(fields, zap.Error(err))
				reqLogger.Error("request failed", fields...)
			} else {
				reqLogger.Info("request completed", fields...)
			}

			return err
		}
	}
}

func GetLoggerFromContext(c echo.Context) *zap.Logger {
	if l, ok := c.Get(loggerKey).(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}

// AuthMiddleware admits requests whose bearer token has one of the allowed types.
func AuthMiddleware(allowed ...auth.TokenType) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			token, found := strings.CutPrefix(header, "Bearer ")
			if !found || token == "" {
				return c.JSON(http.StatusUnauthorized, errorBody(errorCodeUnauthorized, "missing bearer token"))
			}

			claims, err := auth.VerifyToken(token)
			if err != nil {
				GetLoggerFromContext(c).Warn("rejected invalid token", zap.Error(err))
				return c.JSON(http.StatusUnauthorized, errorBody(errorCodeUnauthorized, "invalid token"))
			}

			l := GetLoggerFromContext(c).With(zap.String("subject", claims.Subject))
			if !slices.Contains(allowed, claims.Role) {
				l.Warn("token role not allowed", zap.String("role", string(claims.Role)))
				return c.JSON(http.StatusForbidden, errorBody(errorCodeForbidden, "token type not allowed"))
			}

			c.Set(loggerKey, l)
			c.SetRequest(c.Request().WithContext(logger.WithLogger(c.Request().Context(), l)))

			return next(c)
		}
	}
}

func errorBody(code service.ErrorCode, message string) any {
	return struct {
		Error *service.Error `json:"error"`
	}{Error: service.NewError(code, message)}
}
