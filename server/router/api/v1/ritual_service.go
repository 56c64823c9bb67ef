package v1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/echomind/server/auth"
	"github.com/hrygo/echomind/store"
)

type generateRitualRequest struct {
	Type string `json:"type"`
}

// GenerateRitual returns {"ritual": null} when generation fails.
func (s *APIV1Service) GenerateRitual(c echo.Context) error {
	var req generateRitualRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body").SetInternal(err)
	}
	ritualType := store.RitualType(req.Type)
	if !ritualType.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "type must be daily or weekly")
	}

	ctx := c.Request().Context()
	summary := s.Rituals.GenerateRitual(ctx, auth.UserIDFromContext(ctx), ritualType)
	return c.JSON(http.StatusOK, map[string]any{"ritual": convertRitual(summary)})
}

func (s *APIV1Service) ListRituals(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		limit = n
	}

	ctx := c.Request().Context()
	list, err := s.Rituals.FetchRitualHistory(ctx, auth.UserIDFromContext(ctx), limit)
	if err != nil {
		return storeError(err, "list rituals")
	}
	return c.JSON(http.StatusOK, map[string]any{"rituals": convertRituals(list)})
}
