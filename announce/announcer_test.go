package announce

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/componentize/repodata/version"
)

const defaultEmail = "components.support@example.com"

func testVersion(t *testing.T, typ, status, email string) *version.Version {
	t.Helper()
	strPtr := func(s string) *string {
		if s == "" {
			return nil
		}
		return &s
	}
	v, err := version.New("o-table", "https://github.com/acme/o-table", "v1.2.3",
		strPtr(typ), strPtr(status), strPtr(email), nil,
		version.Manifests{Component: version.Manifest{}}, version.Markdown{})
	require.NoError(t, err)
	return v
}

func newTestAnnouncer(t *testing.T) (*Announcer, *[]payload) {
	t.Helper()
	var received []payload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p payload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		received = append(received, p)
	}))
	t.Cleanup(server.Close)

	a := NewAnnouncer(server.URL, "#releases", defaultEmail, zap.NewNop().Sugar())
	a.httpClient = server.Client()
	return a, &received
}

func TestAnnouncer_Announce(t *testing.T) {
	a, received := newTestAnnouncer(t)

	v := testVersion(t, "module", "active", defaultEmail)
	require.NoError(t, a.Announce(context.Background(), v))

	require.Len(t, *received, 1)
	got := (*received)[0]
	assert.Equal(t, "#releases", got.Channel)
	assert.Contains(t, got.Text, "o-table @ 1.2.3")
	assert.Contains(t, got.Text, "https://github.com/acme/o-table")
}

func TestAnnouncer_Suppression(t *testing.T) {
	tests := []struct {
		name       string
		typ        string
		status     string
		email      string
		suppressed bool
	}{
		{"active module with default support", "module", "active", defaultEmail, false},
		{"maintained module with default support", "module", "maintained", defaultEmail, false},
		{"experimental status", "module", "experimental", defaultEmail, true},
		{"deprecated status", "module", "deprecated", defaultEmail, true},
		{"missing status", "module", "", defaultEmail, true},
		{"team-supported repo", "module", "active", "team@example.com", true},
		{"service", "service", "active", defaultEmail, true},
		{"untyped repo with default support", "", "active", defaultEmail, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, received := newTestAnnouncer(t)
			require.NoError(t, a.Announce(context.Background(), testVersion(t, tt.typ, tt.status, tt.email)))
			if tt.suppressed {
				assert.Empty(t, *received)
			} else {
				assert.Len(t, *received, 1)
			}
		})
	}
}

func TestAnnouncer_DisabledWithoutWebhook(t *testing.T) {
	a := NewAnnouncer("", "#releases", defaultEmail, zap.NewNop().Sugar())
	assert.NoError(t, a.Announce(context.Background(), testVersion(t, "module", "active", defaultEmail)))
}

func TestAnnouncer_WebhookFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	a := NewAnnouncer(server.URL, "#releases", defaultEmail, zap.NewNop().Sugar())
	a.httpClient = server.Client()

	err := a.Announce(context.Background(), testVersion(t, "module", "active", defaultEmail))
	assert.Error(t, err)
}
