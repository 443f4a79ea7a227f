package ingest

import (
	"strings"

	"github.com/componentize/repodata/version"
)

// normalizedSupport is the support metadata extracted from the primary
// manifest after coercion.
type normalizedSupport struct {
	Type    *string
	Status  *string
	Email   *string
	Channel *string
}

// normalizeManifest coerces the fields of the primary manifest that become
// database columns. Type and support status become string-or-null, and the
// support contact follows a precedence chain: an explicit contact email,
// else an email-shaped value embedded in the free-text support field, else
// the registry default. The default chat channel applies only when the
// contact resolved to the default address.
func normalizeManifest(manifest version.Manifest, defaultEmail, defaultChannel string) normalizedSupport {
	var normalized normalizedSupport

	if typ, ok := manifest["type"].(string); ok {
		normalized.Type = &typ
	}
	if status, ok := manifest["supportStatus"].(string); ok {
		normalized.Status = &status
	}

	var email, channel string
	if contact, ok := manifest["supportContact"].(map[string]interface{}); ok {
		email, _ = contact["email"].(string)
		channel, _ = contact["channel"].(string)
	}
	support, _ := manifest["support"].(string)

	if email == "" && strings.Contains(support, "@") {
		email = support
	}
	if email == "" {
		email = defaultEmail
	}
	if channel == "" && email == defaultEmail {
		channel = defaultChannel
	}

	normalized.Email = &email
	if channel != "" {
		normalized.Channel = &channel
	}
	return normalized
}
