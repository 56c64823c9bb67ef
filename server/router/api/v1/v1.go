package v1

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/echomind/ai"
	"github.com/hrygo/echomind/ai/core/llm"
	"github.com/hrygo/echomind/ai/emotion"
	"github.com/hrygo/echomind/ai/insight"
	"github.com/hrygo/echomind/ai/metrics"
	"github.com/hrygo/echomind/ai/ritual"
	"github.com/hrygo/echomind/internal/profile"
	"github.com/hrygo/echomind/server/auth"
	"github.com/hrygo/echomind/server/service/conversation"
	"github.com/hrygo/echomind/store"
)

type APIV1Service struct {
	// Domain services
	Sessions   *conversation.Registry
	Classifier *emotion.Classifier
	Insights   *insight.Manager
	Rituals    *ritual.Service

	// Shared infra
	Profile       *profile.Profile
	Store         *store.Store
	Metrics       *metrics.PrometheusExporter
	LLMService    llm.Service
	authenticator *auth.Authenticator

	feedsMu sync.Mutex
	feeds   map[int32]*insight.Feed
}

// Deps overrides the capabilities NewAPIV1Service would otherwise build from the profile.
type Deps struct {
	LLM            llm.Service
	InsightGen     insight.Generator
	RitualGen      ritual.Generator
	SessionOptions []conversation.Option
}

func NewAPIV1Service(p *profile.Profile, s *store.Store, exporter *metrics.PrometheusExporter, deps Deps) *APIV1Service {
	if exporter == nil {
		exporter = metrics.NewPrometheusExporter(metrics.DefaultConfig())
	}
	service := &APIV1Service{
		Profile:       p,
		Store:         s,
		Metrics:       exporter,
		authenticator: auth.NewAuthenticator(p.Secret),
		feeds:         make(map[int32]*insight.Feed),
	}
	aiConfig := ai.NewConfigFromProfile(p)

	llmService, classifierLLM := deps.LLM, deps.LLM
	if llmService == nil && aiConfig.Enabled {
		if err := aiConfig.Validate(); err != nil {
			slog.Warn("AI config validation failed", "error", err)
		} else {
			llmService = newLLMService(&aiConfig.LLM)
			classifierLLM = newLLMService(&aiConfig.Classifier.LLM)
			if llmService != nil {
				// Warmup is best-effort; failures don't affect startup.
				go func() {
					ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
					defer cancel()
					llmService.Warmup(ctx)
				}()
			}
		}
	}
	service.LLMService = llmService

	sessionOptions := append([]conversation.Option{}, deps.SessionOptions...)
	if classifierLLM != nil {
		service.Classifier = emotion.NewClassifier(classifierLLM,
			emotion.WithStructuredOutput(aiConfig.Classifier.Structured),
			emotion.WithRecorder(exporter),
		)
		sessionOptions = append(sessionOptions, conversation.WithClassifier(service.Classifier))
	}
	if llmService != nil {
		sessionOptions = append(sessionOptions, conversation.WithResponder(
			conversation.NewLLMResponder(llmService, aiConfig.LLM.Model, exporter),
		))
	}
	service.Sessions = conversation.NewRegistry(func(userID int32) *conversation.Session {
		return conversation.NewSession(userID, s, sessionOptions...)
	})

	insightGen := deps.InsightGen
	if insightGen == nil {
		if aiConfig.Insight.Remote() {
			insightGen = insight.NewHTTPGenerator(aiConfig.Insight.Endpoint, aiConfig.Insight.APIKey, aiConfig.Insight.Timeout)
		} else {
			insightGen = insight.NewHistoryGenerator(s, insight.DefaultHistoryConfig())
		}
	}
	service.Insights = insight.NewManager(insightGen, s, exporter)

	ritualGen := deps.RitualGen
	if ritualGen == nil {
		switch {
		case aiConfig.Ritual.Remote():
			ritualGen = ritual.NewHTTPGenerator(aiConfig.Ritual.Endpoint, aiConfig.Ritual.APIKey, aiConfig.Ritual.Timeout)
		case llmService != nil:
			ritualGen = ritual.NewLLMGenerator(llmService, s)
		default:
			slog.Info("ritual generation disabled: no LLM and no remote endpoint")
		}
	}
	service.Rituals = ritual.NewService(ritualGen, s, exporter)

	return service
}

func newLLMService(cfg *llm.Config) llm.Service {
	svc, err := llm.NewService(cfg)
	if err != nil {
		slog.Warn("Failed to initialize LLM service", "provider", cfg.Provider, "model", cfg.Model, "error", err)
		return nil
	}
	slog.Info("LLM service initialized", "provider", cfg.Provider, "model", cfg.Model)
	return svc
}

// RegisterRoutes mounts the API under /api/v1.
func (s *APIV1Service) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1", s.authMiddleware, s.loggingMiddleware, s.metricsMiddleware)

	g.GET("/conversations", s.ListConversations)
	g.POST("/conversations", s.CreateConversation)
	g.GET("/conversations/active", s.GetActiveConversation)
	g.POST("/conversations/:id/select", s.SelectConversation)
	g.DELETE("/conversations/:id", s.DeleteConversation)

	g.POST("/messages", s.SendMessage)
	g.POST("/messages/raw", s.AddMessage)
	g.POST("/classify", s.Classify)

	g.GET("/insights", s.ListInsights)
	g.POST("/insights/:id/surface", s.SurfaceInsight)
	g.POST("/insights/:id/dismiss", s.DismissInsight)

	g.GET("/rituals", s.ListRituals)
	g.POST("/rituals", s.GenerateRitual)

	g.GET("/settings", s.GetSettings)
	g.PATCH("/settings", s.UpdateSettings)

	g.GET("/dashboard", s.GetDashboard)
}

// feedFor returns the user's insight feed; its dismissed set lives as long as the process.
func (s *APIV1Service) feedFor(userID int32) *insight.Feed {
	if userID == 0 {
		return insight.NewFeed(s.Insights, 0)
	}
	s.feedsMu.Lock()
	defer s.feedsMu.Unlock()
	feed, ok := s.feeds[userID]
	if !ok {
		feed = insight.NewFeed(s.Insights, userID)
		s.feeds[userID] = feed
	}
	return feed
}
