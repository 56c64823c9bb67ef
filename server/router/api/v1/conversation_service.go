package v1

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/echomind/ai/emotion"
	"github.com/hrygo/echomind/server/auth"
	"github.com/hrygo/echomind/server/service/conversation"
	"github.com/hrygo/echomind/store"
)

type createConversationRequest struct {
	Title *string `json:"title"`
}

type sendMessageRequest struct {
	Content string `json:"content"`
}

type addMessageRequest struct {
	Emotion *emotion.Classification `json:"emotion"`
	Role    string                  `json:"role"`
	Content string                  `json:"content"`
}

type classifyRequest struct {
	Text string `json:"text"`
}

type turnResponse struct {
	User      *Message               `json:"user"`
	Assistant *Message               `json:"assistant"`
	Emotion   emotion.Classification `json:"emotion"`
}

func (s *APIV1Service) session(c echo.Context) *conversation.Session {
	return s.Sessions.Get(auth.UserIDFromContext(c.Request().Context()))
}

// storeError maps a store failure to an HTTP error.
func storeError(err error, action string) error {
	if errors.Is(err, store.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "not found").SetInternal(err)
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "failed to "+action).SetInternal(err)
}

func parseConversationID(c echo.Context) (int32, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 32)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid conversation id")
	}
	return int32(id), nil
}

func (s *APIV1Service) ListConversations(c echo.Context) error {
	list, err := s.session(c).ListConversations(c.Request().Context())
	if err != nil {
		return storeError(err, "list conversations")
	}
	return c.JSON(http.StatusOK, map[string]any{"conversations": convertConversations(list)})
}

func (s *APIV1Service) CreateConversation(c echo.Context) error {
	var req createConversationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body").SetInternal(err)
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		req.Title = nil
	}
	conv, err := s.session(c).CreateConversation(c.Request().Context(), req.Title)
	if err != nil {
		return storeError(err, "create conversation")
	}
	return c.JSON(http.StatusOK, map[string]any{"conversation": convertConversation(conv)})
}

func (s *APIV1Service) GetActiveConversation(c echo.Context) error {
	conv, messages := s.session(c).Active()
	return c.JSON(http.StatusOK, map[string]any{
		"conversation": convertConversation(conv),
		"messages":     convertMessages(messages),
	})
}

func (s *APIV1Service) SelectConversation(c echo.Context) error {
	id, err := parseConversationID(c)
	if err != nil {
		return err
	}
	session := s.session(c)
	messages, err := session.SelectConversation(c.Request().Context(), id)
	if err != nil {
		return storeError(err, "select conversation")
	}
	conv, _ := session.Active()
	return c.JSON(http.StatusOK, map[string]any{
		"conversation": convertConversation(conv),
		"messages":     convertMessages(messages),
	})
}

func (s *APIV1Service) DeleteConversation(c echo.Context) error {
	id, err := parseConversationID(c)
	if err != nil {
		return err
	}
	if err := s.session(c).DeleteConversation(c.Request().Context(), id); err != nil {
		return storeError(err, "delete conversation")
	}
	return c.NoContent(http.StatusNoContent)
}

// SendMessage runs a full chat turn on the active conversation.
func (s *APIV1Service) SendMessage(c echo.Context) error {
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body").SetInternal(err)
	}
	if strings.TrimSpace(req.Content) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "content is required")
	}

	turn, err := s.session(c).Send(c.Request().Context(), req.Content)
	switch {
	case errors.Is(err, conversation.ErrStaleConversation):
		return echo.NewHTTPError(http.StatusConflict, "active conversation changed").SetInternal(err)
	case err != nil && (turn == nil || turn.User == nil):
		return storeError(err, "store message")
	case err != nil:
		// The user message is stored; only the reply failed.
		return c.JSON(http.StatusBadGateway, map[string]any{
			"message": "failed to generate reply",
			"turn":    convertTurn(turn),
		})
	}
	return c.JSON(http.StatusOK, map[string]any{"turn": convertTurn(turn)})
}

func convertTurn(turn *conversation.Turn) *turnResponse {
	if turn == nil {
		return nil
	}
	return &turnResponse{
		User:      convertMessage(turn.User),
		Assistant: convertMessage(turn.Assistant),
		Emotion:   turn.Emotion,
	}
}

// AddMessage stores a message verbatim, optionally with a precomputed emotion.
func (s *APIV1Service) AddMessage(c echo.Context) error {
	var req addMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body").SetInternal(err)
	}
	role := store.MessageRole(req.Role)
	if !role.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "role must be user or assistant")
	}
	if req.Emotion != nil {
		normalized := emotion.FromStore(req.Emotion.ToStore())
		req.Emotion = &normalized
	}

	msg, err := s.session(c).AddMessage(c.Request().Context(), role, req.Content, req.Emotion)
	if err != nil {
		return storeError(err, "store message")
	}
	return c.JSON(http.StatusOK, map[string]any{"message": convertMessage(msg)})
}

// Classify exposes the emotion classifier. Without an LLM it returns the neutral default.
func (s *APIV1Service) Classify(c echo.Context) error {
	var req classifyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body").SetInternal(err)
	}
	result := emotion.Default()
	if s.Classifier != nil {
		result = s.Classifier.Classify(c.Request().Context(), req.Text)
	}
	return c.JSON(http.StatusOK, result)
}
