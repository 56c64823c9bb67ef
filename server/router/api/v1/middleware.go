package v1

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/echomind/ai/observability/logging"
	"github.com/hrygo/echomind/server/auth"
)

// authMiddleware resolves the bearer token. Requests without a valid token
// continue as anonymous; handlers treat user id 0 as a no-op caller.
func (s *APIV1Service) authMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		if claims := s.authenticator.Authenticate(req.Context(), req.Header.Get(echo.HeaderAuthorization)); claims != nil {
			c.SetRequest(req.WithContext(auth.SetUserClaimsInContext(req.Context(), claims)))
		}
		return next(c)
	}
}

// loggingMiddleware attaches a request-scoped logger carrying request_id and user_id.
func (s *APIV1Service) loggingMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		requestID := c.Response().Header().Get(echo.HeaderXRequestID)
		logger := logging.FromContext(ctx).WithFields(map[string]any{
			"request_id": requestID,
			"user_id":    auth.UserIDFromContext(ctx),
		})
		c.SetRequest(c.Request().WithContext(logging.ToContext(ctx, logger)))

		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}
		logger.Debug("api request",
			"method", c.Request().Method,
			"route", c.Path(),
			"status", c.Response().Status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil
	}
}

func (s *APIV1Service) metricsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		// Errors are rendered here so the recorded status is the one sent.
		if err := next(c); err != nil {
			c.Error(err)
		}
		s.Metrics.RecordHTTPRequest(c.Request().Method, c.Path(), c.Response().Status, time.Since(start))
		return nil
	}
}
