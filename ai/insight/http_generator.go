package insight

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/echomind/store"
)

// HTTPGenerator asks a remote capability for insights: POST {"userId"} -> {"insights": [...]}.
type HTTPGenerator struct {
	client   *http.Client
	endpoint string
	apiKey   string
	now      func() time.Time
}

func NewHTTPGenerator(endpoint, apiKey string, timeout time.Duration) *HTTPGenerator {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPGenerator{
		client:   &http.Client{Timeout: timeout},
		endpoint: endpoint,
		apiKey:   apiKey,
		now:      time.Now,
	}
}

type generateRequest struct {
	UserID int32 `json:"userId"`
}

type remoteInsight struct {
	ID          string          `json:"id"`
	InsightType string          `json:"insight_type"`
	Type        string          `json:"type"`
	Title       string          `json:"title"`
	Message     string          `json:"message"`
	Priority    json.RawMessage `json:"priority"`
	IsSurfaced  bool            `json:"is_surfaced"`
	IsDismissed bool            `json:"is_dismissed"`
	CreatedAt   string          `json:"created_at"`
}

type generateResponse struct {
	Insights []remoteInsight `json:"insights"`
}

func (g *HTTPGenerator) Generate(ctx context.Context, userID int32) ([]*store.ProactiveInsight, error) {
	body, err := json.Marshal(&generateRequest{UserID: userID})
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal insight request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to construct insight request to %s", g.endpoint)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to post insight request to %s", g.endpoint)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read insight response from %s", g.endpoint)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.Errorf("insight endpoint %s returned status %d", g.endpoint, resp.StatusCode)
	}

	var decoded generateResponse
	if err := json.Unmarshal(b, &decoded); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal insight response")
	}

	list := make([]*store.ProactiveInsight, 0, len(decoded.Insights))
	for _, r := range decoded.Insights {
		insightType := r.InsightType
		if insightType == "" {
			insightType = r.Type
		}
		if insightType == "" || (r.Title == "" && r.Message == "") {
			continue
		}
		id := r.ID
		if id == "" {
			id = DeriveID(userID, insightType, r.Title, r.Message)
		}
		list = append(list, &store.ProactiveInsight{
			ID:          id,
			UserID:      userID,
			Type:        insightType,
			Title:       r.Title,
			Message:     r.Message,
			Priority:    parsePriority(r.Priority),
			IsSurfaced:  r.IsSurfaced || r.IsDismissed,
			IsDismissed: r.IsDismissed,
			CreatedTs:   g.parseCreatedAt(r.CreatedAt),
		})
	}
	return list, nil
}

func (g *HTTPGenerator) parseCreatedAt(s string) int64 {
	if t, err := time.Parse(time.RFC3339, strings.TrimSpace(s)); err == nil {
		return t.UnixMilli()
	}
	return g.now().UnixMilli()
}

// parsePriority accepts "high" style labels or 1..3 numbers.
func parsePriority(raw json.RawMessage) store.InsightPriority {
	if len(raw) == 0 {
		return store.InsightPriorityNormal
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return store.NormalizeInsightPriority(strings.ToLower(strings.TrimSpace(s)))
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		switch {
		case n <= 1:
			return store.InsightPriorityLow
		case n >= 3:
			return store.InsightPriorityHigh
		}
	}
	return store.InsightPriorityNormal
}
