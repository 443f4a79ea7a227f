package version

import (
	"fmt"
	"regexp"
	"strings"
)

// Demo is one runnable demo declared by the component manifest, with
// computed preview URLs.
type Demo struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`

	SupportingURLs struct {
		Live string  `json:"live"`
		HTML *string `json:"html"`
	} `json:"supportingUrls"`

	Display struct {
		Live bool `json:"live"`
		HTML bool `json:"html"`
	} `json:"display"`
}

// Demos returns the component's demos, filtered to non-hidden well-formed
// entries. demoServiceURL is the base URL of the demo build service. When
// brand is non-empty and a demo declares brands that do not include it, the
// demo's display flags are turned off but the demo itself is kept.
// Returns nil when the manifest declares no demos.
func (v *Version) Demos(demoServiceURL, brand string) []Demo {
	if v.Manifests.Component == nil {
		return nil
	}
	raw, ok := v.Manifests.Component["demos"].([]interface{})
	if !ok {
		return nil
	}

	demos := []Demo{}
	for _, entry := range raw {
		manifest, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		if hidden, _ := manifest["hidden"].(bool); hidden {
			continue
		}
		demo, ok := v.normalizeDemo(demoServiceURL, manifest)
		if !ok {
			continue
		}
		if brand != "" && !demoHasBrand(manifest, brand) {
			demo.Display.Live = false
			demo.Display.HTML = false
		}
		demos = append(demos, demo)
	}

	if len(demos) == 0 {
		return nil
	}
	return demos
}

// normalizeDemo validates a raw demo entry and computes its preview URLs.
// A demo needs a string name; title and description must be strings when
// present.
func (v *Version) normalizeDemo(demoServiceURL string, manifest map[string]interface{}) (Demo, bool) {
	var demo Demo

	name, ok := manifest["name"].(string)
	if !ok || name == "" {
		return demo, false
	}
	if title, present := manifest["title"]; present {
		if _, ok := title.(string); !ok {
			return demo, false
		}
	}
	if description, present := manifest["description"]; present {
		if _, ok := description.(string); !ok {
			return demo, false
		}
	}

	demo.Title = name
	if title, _ := manifest["title"].(string); title != "" {
		demo.Title = title
	}
	if description, _ := manifest["description"].(string); description != "" {
		demo.Description = &description
	}

	liveURL := fmt.Sprintf("%s/%s@%s/%s",
		strings.TrimSuffix(demoServiceURL, "/"), v.Name, v.Version, name)
	demo.SupportingURLs.Live = liveURL
	demo.Display.Live = true

	// The HTML preview is present unless the demo opts out
	if displayHTML, present := manifest["display_html"].(bool); !present || displayHTML {
		htmlURL := liveURL + "/html"
		demo.SupportingURLs.HTML = &htmlURL
		demo.Display.HTML = true
	}

	return demo, true
}

func demoHasBrand(manifest map[string]interface{}, brand string) bool {
	raw, ok := manifest["brands"].([]interface{})
	if !ok {
		// A demo without declared brands is visible under any brand filter
		return true
	}
	for _, b := range raw {
		if s, ok := b.(string); ok && strings.EqualFold(strings.TrimSpace(s), brand) {
			return true
		}
	}
	return false
}

// chatChannelPattern matches "org/channel", "#channel" or "channel"
var chatChannelPattern = regexp.MustCompile(`^(([^/]+)(/))?#?(.+)$`)

// ChatChannel is the parsed support chat channel
type ChatChannel struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// ParseChatChannel parses a manifest support channel value into a channel
// name and workspace URL. defaultOrg applies when the value does not name a
// workspace. Returns nil for an empty value.
func ParseChatChannel(raw, defaultOrg string) *ChatChannel {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	matches := chatChannelPattern.FindStringSubmatch(raw)
	if matches == nil {
		return nil
	}
	org := matches[2]
	if org == "" {
		org = defaultOrg
	}
	channel := matches[4]
	return &ChatChannel{
		Name: "#" + channel,
		URL:  fmt.Sprintf("https://%s.slack.com/messages/%s", org, channel),
	}
}
