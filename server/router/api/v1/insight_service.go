package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/echomind/server/auth"
)

// ListInsights delivers the caller's current insights; every returned insight is marked surfaced.
func (s *APIV1Service) ListInsights(c echo.Context) error {
	ctx := c.Request().Context()
	userID := auth.UserIDFromContext(ctx)

	setting, err := s.session(c).Settings(ctx)
	if err != nil {
		return storeError(err, "load settings")
	}
	if !setting.ProactiveInsights {
		return c.JSON(http.StatusOK, map[string]any{"insights": []*Insight{}})
	}
	return c.JSON(http.StatusOK, map[string]any{"insights": convertInsights(s.feedFor(userID).Refresh(ctx))})
}

func (s *APIV1Service) SurfaceInsight(c echo.Context) error {
	ctx := c.Request().Context()
	if err := s.Insights.MarkSurfaced(ctx, auth.UserIDFromContext(ctx), c.Param("id")); err != nil {
		return storeError(err, "mark insight surfaced")
	}
	return c.NoContent(http.StatusNoContent)
}

// DismissInsight hides the insight for this user's feed and persists the dismissal.
func (s *APIV1Service) DismissInsight(c echo.Context) error {
	ctx := c.Request().Context()
	userID := auth.UserIDFromContext(ctx)
	if err := s.feedFor(userID).Dismiss(ctx, c.Param("id")); err != nil {
		return storeError(err, "dismiss insight")
	}
	return c.NoContent(http.StatusNoContent)
}
