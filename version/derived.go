package version

import (
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"
)

// Derived fields are computed from the manifest bag on every read. Nothing
// in this file is persisted.

// Description falls back through the manifests in precedence order:
// component, about, package, bower. Returns nil when none declares one.
func (v *Version) Description() *string {
	for _, m := range []Manifest{v.Manifests.Component, v.Manifests.About, v.Manifests.Package, v.Manifests.Bower} {
		if desc, ok := manifestString(m, "description"); ok && desc != "" {
			return &desc
		}
	}
	return nil
}

// Keywords returns the union of keywords across the component, package and
// bower manifests, trimmed, case-folded and de-duplicated.
func (v *Version) Keywords() []string {
	keywords := []string{}
	seen := map[string]bool{}
	for _, m := range []Manifest{v.Manifests.Component, v.Manifests.Package, v.Manifests.Bower} {
		for _, keyword := range extractKeywords(m) {
			keyword = strings.ToLower(strings.TrimSpace(keyword))
			if keyword == "" || seen[keyword] {
				continue
			}
			seen[keyword] = true
			keywords = append(keywords, keyword)
		}
	}
	return keywords
}

// extractKeywords reads a manifest keywords field that may be either a
// comma/whitespace separated string or an array.
func extractKeywords(m Manifest) []string {
	if m == nil {
		return nil
	}
	switch keywords := m["keywords"].(type) {
	case string:
		if strings.TrimSpace(keywords) == "" {
			return nil
		}
		return regexp.MustCompile(`[,\s]+`).Split(strings.TrimSpace(keywords), -1)
	case []interface{}:
		var out []string
		for _, k := range keywords {
			if s, ok := k.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Brands returns the declared brands, lower-cased. Brands are only
// meaningful for versions of type "module"; every other type returns nil.
func (v *Version) Brands() []string {
	if v.Type == nil || *v.Type != "module" || v.Manifests.Component == nil {
		return nil
	}
	raw, ok := v.Manifests.Component["brands"].([]interface{})
	if !ok {
		return []string{}
	}
	brands := []string{}
	for _, b := range raw {
		if s, ok := b.(string); ok {
			brands = append(brands, strings.ToLower(strings.TrimSpace(s)))
		}
	}
	return brands
}

// Category returns the component's declared category, if any
func (v *Version) Category() *string {
	if cat, ok := manifestString(v.Manifests.Component, "category"); ok {
		return &cat
	}
	return nil
}

// Languages lists the file extensions of the declared entry points, from
// the bower manifest first, falling back to the package manifest.
func (v *Version) Languages() []string {
	var mains []string
	if v.Manifests.Bower != nil {
		switch main := v.Manifests.Bower["main"].(type) {
		case string:
			mains = append(mains, main)
		case []interface{}:
			for _, m := range main {
				if s, ok := m.(string); ok {
					mains = append(mains, s)
				}
			}
		}
	} else if main, ok := manifestString(v.Manifests.Package, "main"); ok {
		mains = append(mains, main)
	}

	seen := map[string]bool{}
	languages := []string{}
	for _, main := range mains {
		ext := strings.ToLower(strings.TrimPrefix(path.Ext(main), "."))
		if ext == "" || seen[ext] {
			continue
		}
		seen[ext] = true
		languages = append(languages, ext)
	}
	sort.Strings(languages)
	return languages
}

// ImageSetScheme returns the image set scheme qualified with the major
// version, or nil when the version has no image set manifest.
func (v *Version) ImageSetScheme() *string {
	if scheme, ok := manifestString(v.Manifests.ImageSet, "scheme"); ok {
		qualified := fmt.Sprintf("%s-v%d", scheme, v.VersionMajor)
		return &qualified
	}
	return nil
}

// Dependency is one declared dependency, tagged with the ecosystem of the
// manifest that declared it.
type Dependency struct {
	Name       string `json:"name"`
	Version    string `json:"version"`
	Source     string `json:"source"`
	IsDev      bool   `json:"isDev"`
	IsOptional bool   `json:"isOptional"`
}

// Dependencies flattens the dependency sections of the bower and package
// manifests. Returns nil when the version has neither manifest.
func (v *Version) Dependencies() []Dependency {
	type depManifest struct {
		source string
		data   Manifest
	}
	var manifests []depManifest
	if v.Manifests.Bower != nil {
		manifests = append(manifests, depManifest{"bower", v.Manifests.Bower})
	}
	if v.Manifests.Package != nil {
		manifests = append(manifests, depManifest{"npm", v.Manifests.Package})
	}
	if len(manifests) == 0 {
		return nil
	}

	sections := []struct {
		key        string
		isDev      bool
		isOptional bool
	}{
		{"dependencies", false, false},
		{"devDependencies", true, false},
		{"optionalDependencies", false, true},
	}

	dependencies := []Dependency{}
	for _, m := range manifests {
		for _, section := range sections {
			deps, ok := m.data[section.key].(map[string]interface{})
			if !ok {
				continue
			}
			names := make([]string, 0, len(deps))
			for name := range deps {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				versionRange, _ := deps[name].(string)
				dependencies = append(dependencies, Dependency{
					Name:       name,
					Version:    versionRange,
					Source:     m.source,
					IsDev:      section.isDev,
					IsOptional: section.isOptional,
				})
			}
		}
	}
	return dependencies
}

func manifestString(m Manifest, key string) (string, bool) {
	if m == nil {
		return "", false
	}
	s, ok := m[key].(string)
	return s, ok
}
