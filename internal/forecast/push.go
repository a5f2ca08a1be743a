package forecast

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/lcc-aid/fsystem-backend/internal/models"
	"github.com/rs/zerolog/log"
)

// Pusher forwards finalized forecast records to the spreadsheet sync
// endpoint. Pushes are fire and forget: a failure is logged and
// reported once, never retried, and never blocks the import itself.
type Pusher struct {
	url    string
	client *http.Client
}

// NewPusher returns a pusher for the given sync URL. An empty URL
// disables pushing.
func NewPusher(url string) *Pusher {
	return &Pusher{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Enabled reports whether a sync URL is configured.
func (p *Pusher) Enabled() bool {
	return p.url != ""
}

// Push sends the records as a JSON array. Errors are logged with the
// record count so a failed sync can be redone by hand.
func (p *Pusher) Push(ctx context.Context, records []models.ForecastRecord) {
	if !p.Enabled() || len(records) == 0 {
		return
	}

	body, err := json.Marshal(records)
	if err != nil {
		log.Error().Err(err).Int("records", len(records)).Msg("marshaling forecast push failed")
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		log.Error().Err(err).Int("records", len(records)).Msg("building forecast push request failed")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		log.Error().Err(err).Int("records", len(records)).Msg("forecast push failed")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		log.Error().Err(fmt.Errorf("unexpected status %d", resp.StatusCode)).Int("records", len(records)).Msg("forecast push rejected")
	}
}
