package server

import (
	"strings"

	"github.com/componentize/repodata/version"
)

// repoSummary is the external shape of one repository in the repo listing:
// identity plus the derived presentation fields of its latest version.
type repoSummary struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	URL           string   `json:"url"`
	Type          *string  `json:"type"`
	Category      *string  `json:"category"`
	Description   *string  `json:"description"`
	Keywords      []string `json:"keywords"`
	Brands        []string `json:"brands"`
	SupportStatus *string  `json:"supportStatus"`
	LatestVersion string   `json:"latestVersion"`
}

// versionDetail is the external shape of one version: the stored record
// plus every derived field.
type versionDetail struct {
	*version.Version

	Description    *string              `json:"description"`
	Keywords       []string             `json:"keywords"`
	Brands         []string             `json:"brands"`
	Category       *string              `json:"category"`
	Languages      []string             `json:"languages"`
	ImageSetScheme *string              `json:"imageSetScheme"`
	Dependencies   []version.Dependency `json:"dependencies"`
	Demos          []version.Demo       `json:"demos"`
	ChatChannel    *version.ChatChannel `json:"supportChatChannel"`
}

func serializeRepo(v *version.Version) repoSummary {
	return repoSummary{
		ID:            v.RepoID,
		Name:          v.Name,
		URL:           v.URL,
		Type:          v.Type,
		Category:      v.Category(),
		Description:   v.Description(),
		Keywords:      v.Keywords(),
		Brands:        v.Brands(),
		SupportStatus: v.SupportStatus,
		LatestVersion: v.Version,
	}
}

func (s *Server) serializeVersion(v *version.Version, brand string) versionDetail {
	var channel *version.ChatChannel
	if v.SupportChannel != nil {
		channel = version.ParseChatChannel(*v.SupportChannel, s.chatOrg())
	}
	return versionDetail{
		Version:        v,
		Description:    v.Description(),
		Keywords:       v.Keywords(),
		Brands:         v.Brands(),
		Category:       v.Category(),
		Languages:      v.Languages(),
		ImageSetScheme: v.ImageSetScheme(),
		Dependencies:   v.Dependencies(),
		Demos:          v.Demos(s.registry.DemoServiceURL, brand),
		ChatChannel:    channel,
	}
}

// chatOrg derives the default chat workspace from the configured default
// support channel ("org/channel").
func (s *Server) chatOrg() string {
	org, _, found := strings.Cut(s.registry.DefaultSupportChannel, "/")
	if !found {
		return s.registry.DefaultSupportChannel
	}
	return org
}
