// Package announce posts new-version announcements to a chat webhook.
package announce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/componentize/repodata/errors"
	"github.com/componentize/repodata/internal/httpclient"
	"github.com/componentize/repodata/version"
)

// Support statuses worth announcing. Anything else (experimental,
// deprecated, dead) only adds noise to the channel.
var announceableStatuses = map[string]bool{
	"active":     true,
	"maintained": true,
}

// Announcer posts a message for each registry-supported release. It
// satisfies the ingest notifier interface.
type Announcer struct {
	httpClient   *http.Client
	webhookURL   string
	channel      string
	defaultEmail string
	logger       *zap.SugaredLogger
}

// NewAnnouncer creates a release announcer. An empty webhook URL disables
// posting entirely; the announcer then silently drops every version.
func NewAnnouncer(webhookURL, channel, defaultEmail string, logger *zap.SugaredLogger) *Announcer {
	return &Announcer{
		httpClient:   httpclient.New(10 * time.Second),
		webhookURL:   webhookURL,
		channel:      channel,
		defaultEmail: defaultEmail,
		logger:       logger,
	}
}

// Announce posts a message for the version unless it is suppressed.
// Suppression rules: versions without an announceable support status,
// versions not supported by the registry team, and services (their
// releases are deployed, not adopted).
func (a *Announcer) Announce(ctx context.Context, v *version.Version) error {
	if a.webhookURL == "" {
		return nil
	}
	if suppressed, reason := a.suppression(v); suppressed {
		a.logger.Debugw("Announcement suppressed",
			"version_id", v.ID,
			"name", v.Name,
			"reason", reason,
		)
		return nil
	}
	return a.post(ctx, message(v))
}

func (a *Announcer) suppression(v *version.Version) (bool, string) {
	if v.SupportStatus == nil || !announceableStatuses[*v.SupportStatus] {
		return true, "support status not announceable"
	}
	if !v.HasDefaultSupport(a.defaultEmail) {
		return true, "not supported by the registry team"
	}
	if v.Type != nil && *v.Type == "service" {
		return true, "services are not announced"
	}
	return false, ""
}

// payload is the incoming-webhook message body
type payload struct {
	Channel string `json:"channel,omitempty"`
	Text    string `json:"text"`
}

func message(v *version.Version) string {
	return fmt.Sprintf("New version released: *%s @ %s* (<%s|view the repository>)",
		v.Name, v.Version, v.URL)
}

func (a *Announcer) post(ctx context.Context, text string) error {
	body, err := json.Marshal(payload{Channel: a.channel, Text: text})
	if err != nil {
		return errors.Wrap(err, "marshal announcement payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.webhookURL, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "build announcement request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "post announcement")
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.Newf("announcement webhook returned status %d", resp.StatusCode)
	}
	return nil
}
