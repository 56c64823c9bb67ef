package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"

	"github.com/hrygo/echomind/server/auth"
	"github.com/hrygo/echomind/store"
)

const dashboardRitualLimit = 3

// GetDashboard loads conversations, insights and recent rituals concurrently.
func (s *APIV1Service) GetDashboard(c echo.Context) error {
	ctx := c.Request().Context()
	userID := auth.UserIDFromContext(ctx)
	session := s.session(c)

	setting, err := session.Settings(ctx)
	if err != nil {
		return storeError(err, "load settings")
	}

	var (
		conversations []*store.Conversation
		insights      = []*store.ProactiveInsight{}
		rituals       []*store.RitualSummary
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		conversations, err = session.ListConversations(gctx)
		return err
	})
	if setting.ProactiveInsights {
		g.Go(func() error {
			// Insight failures degrade to an empty list inside the feed.
			insights = s.feedFor(userID).Refresh(gctx)
			return nil
		})
	}
	g.Go(func() error {
		var err error
		rituals, err = s.Rituals.FetchRitualHistory(gctx, userID, dashboardRitualLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return storeError(err, "load dashboard")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"conversations": convertConversations(conversations),
		"insights":      convertInsights(insights),
		"rituals":       convertRituals(rituals),
		"settings":      convertSetting(setting),
	})
}
