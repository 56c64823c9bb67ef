package ritual

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

// HTTPGenerator asks a remote capability for a retrospective:
// POST {"userId", "type"} -> ritual summary document.
type HTTPGenerator struct {
	client   *http.Client
	endpoint string
	apiKey   string
}

func NewHTTPGenerator(endpoint, apiKey string, timeout time.Duration) *HTTPGenerator {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &HTTPGenerator{
		client:   &http.Client{Timeout: timeout},
		endpoint: endpoint,
		apiKey:   apiKey,
	}
}

type generateRequest struct {
	UserID int32  `json:"userId"`
	Type   string `json:"type"`
}

// document is the wire form shared by the remote capability and the LLM generator.
type document struct {
	Summary          string   `json:"summary"`
	GoalsReviewed    []string `json:"goals_reviewed"`
	Accomplishments  []string `json:"accomplishments"`
	Intentions       []string `json:"intentions"`
	GrowthHighlights []string `json:"growth_highlights"`
	MoodTrend        string   `json:"mood_trend"`
}

type remoteDocument struct {
	document
	PeriodStart string `json:"period_start,omitempty"`
	PeriodEnd   string `json:"period_end,omitempty"`
}

func (d *document) toSummary() (*store.RitualSummary, error) {
	if strings.TrimSpace(d.Summary) == "" {
		return nil, errors.New("ritual document has no summary")
	}
	return &store.RitualSummary{
		Summary:          strings.TrimSpace(d.Summary),
		GoalsReviewed:    cleanList(d.GoalsReviewed),
		Accomplishments:  cleanList(d.Accomplishments),
		Intentions:       cleanList(d.Intentions),
		GrowthHighlights: cleanList(d.GrowthHighlights),
		MoodTrend:        strings.TrimSpace(d.MoodTrend),
	}, nil
}

func cleanList(list []string) []string {
	out := make([]string, 0, len(list))
	for _, item := range list {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseTime(s string) int64 {
	if t, err := time.Parse(time.RFC3339, strings.TrimSpace(s)); err == nil {
		return t.UnixMilli()
	}
	return 0
}

func (g *HTTPGenerator) Generate(ctx context.Context, userID int32, ritualType store.RitualType) (*store.RitualSummary, error) {
	body, err := json.Marshal(&generateRequest{UserID: userID, Type: string(ritualType)})
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal ritual request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to construct ritual request to %s", g.endpoint)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to post ritual request to %s", g.endpoint)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read ritual response from %s", g.endpoint)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.Errorf("ritual endpoint %s returned status %d", g.endpoint, resp.StatusCode)
	}

	var doc remoteDocument
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal ritual response")
	}
	summary, err := doc.toSummary()
	if err != nil {
		return nil, err
	}
	summary.PeriodStart = parseTime(doc.PeriodStart)
	summary.PeriodEnd = parseTime(doc.PeriodEnd)
	return summary, nil
}
