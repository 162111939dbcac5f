package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"ranking-session-service/internal/domain"
)

// HTTPGrader submits payloads to a remote grading endpoint. The grading
// algorithm is entirely server-side; this client only ships the payload and
// decodes the returned record. The endpoint is assumed idempotent per
// quiz+learner, so retries after a failure are safe.
type HTTPGrader struct {
	url    string
	client *http.Client
}

func NewHTTPGrader(url string, client *http.Client) *HTTPGrader {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPGrader{url: url, client: client}
}

func (g *HTTPGrader) Submit(ctx context.Context, payload domain.SubmissionPayload) (domain.ScoreRecord, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return domain.ScoreRecord{}, fmt.Errorf("encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return domain.ScoreRecord{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return domain.ScoreRecord{}, fmt.Errorf("grading request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.ScoreRecord{}, fmt.Errorf("grading service returned %s", resp.Status)
	}

	var record domain.ScoreRecord
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return domain.ScoreRecord{}, fmt.Errorf("decode score record: %w", err)
	}
	return record, nil
}
