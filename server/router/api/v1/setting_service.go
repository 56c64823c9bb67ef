package v1

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/echomind/store"
)

// updateSettingsRequest is a partial update; absent fields keep their value.
type updateSettingsRequest struct {
	Persona           *string `json:"persona"`
	EmotionTagging    *bool   `json:"emotionTagging"`
	ProactiveInsights *bool   `json:"proactiveInsights"`
	RitualReminders   *bool   `json:"ritualReminders"`
	DailyRitualHour   *int    `json:"dailyRitualHour"`
	WeeklyRitualDay   *string `json:"weeklyRitualDay"`
}

func (s *APIV1Service) GetSettings(c echo.Context) error {
	setting, err := s.session(c).Settings(c.Request().Context())
	if err != nil {
		return storeError(err, "load settings")
	}
	return c.JSON(http.StatusOK, map[string]any{"settings": convertSetting(setting)})
}

func (s *APIV1Service) UpdateSettings(c echo.Context) error {
	var req updateSettingsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body").SetInternal(err)
	}

	ctx := c.Request().Context()
	session := s.session(c)
	if session.UserID() == 0 {
		return c.JSON(http.StatusOK, map[string]any{"settings": convertSetting(store.DefaultUserSetting(0))})
	}
	setting, err := session.Settings(ctx)
	if err != nil {
		return storeError(err, "load settings")
	}
	if err := applySettings(setting, &req); err != nil {
		return err
	}
	saved, err := session.UpdateSettings(ctx, setting)
	if err != nil {
		return storeError(err, "save settings")
	}
	return c.JSON(http.StatusOK, map[string]any{"settings": convertSetting(saved)})
}

func applySettings(setting *store.UserSetting, req *updateSettingsRequest) error {
	if req.Persona != nil {
		persona := strings.TrimSpace(*req.Persona)
		if persona == "" {
			persona = store.DefaultPersona
		}
		setting.Persona = persona
	}
	if req.EmotionTagging != nil {
		setting.EmotionTagging = *req.EmotionTagging
	}
	if req.ProactiveInsights != nil {
		setting.ProactiveInsights = *req.ProactiveInsights
	}
	if req.RitualReminders != nil {
		setting.RitualReminders = *req.RitualReminders
	}
	if req.DailyRitualHour != nil {
		if *req.DailyRitualHour < 0 || *req.DailyRitualHour > 23 {
			return echo.NewHTTPError(http.StatusBadRequest, "dailyRitualHour must be between 0 and 23")
		}
		setting.DailyRitualHour = *req.DailyRitualHour
	}
	if req.WeeklyRitualDay != nil {
		day, ok := parseWeekday(*req.WeeklyRitualDay)
		if !ok {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid weeklyRitualDay")
		}
		setting.WeeklyRitualDay = day
	}
	return nil
}

func parseWeekday(s string) (time.Weekday, bool) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), strings.TrimSpace(s)) {
			return d, true
		}
	}
	return time.Sunday, false
}
