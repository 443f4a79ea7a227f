package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescriptionFallbackChain(t *testing.T) {
	tests := []struct {
		name      string
		manifests Manifests
		expected  *string
	}{
		{
			name: "component wins",
			manifests: Manifests{
				Component: Manifest{"description": "from component"},
				About:     Manifest{"description": "from about"},
				Package:   Manifest{"description": "from package"},
			},
			expected: strPtr("from component"),
		},
		{
			name: "about when component has none",
			manifests: Manifests{
				Component: Manifest{},
				About:     Manifest{"description": "from about"},
				Bower:     Manifest{"description": "from bower"},
			},
			expected: strPtr("from about"),
		},
		{
			name: "package before bower",
			manifests: Manifests{
				Package: Manifest{"description": "from package"},
				Bower:   Manifest{"description": "from bower"},
			},
			expected: strPtr("from package"),
		},
		{
			name: "bower as last resort",
			manifests: Manifests{
				Bower: Manifest{"description": "from bower"},
			},
			expected: strPtr("from bower"),
		},
		{
			name: "non-string descriptions are skipped",
			manifests: Manifests{
				Component: Manifest{"description": 42},
				About:     Manifest{"description": "from about"},
			},
			expected: strPtr("from about"),
		},
		{
			name:      "no manifests",
			manifests: Manifests{},
			expected:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &Version{Manifests: tt.manifests}
			assert.Equal(t, tt.expected, v.Description())
		})
	}
}

func TestKeywordsUnion(t *testing.T) {
	v := &Version{Manifests: Manifests{
		Component: Manifest{"keywords": []interface{}{"Table", "grid"}},
		Package:   Manifest{"keywords": "grid, sortable data"},
		Bower:     Manifest{"keywords": []interface{}{"TABLE", "rows", 7}},
	}}

	assert.Equal(t, []string{"table", "grid", "sortable", "data", "rows"}, v.Keywords())
}

func TestKeywordsEmpty(t *testing.T) {
	v := &Version{}
	assert.Empty(t, v.Keywords())

	v = &Version{Manifests: Manifests{Component: Manifest{"keywords": "   "}}}
	assert.Empty(t, v.Keywords())
}

func TestBrandsOnlyForModules(t *testing.T) {
	manifests := Manifests{
		Component: Manifest{"brands": []interface{}{" Core ", "Internal"}},
	}

	module := &Version{Type: strPtr("module"), Manifests: manifests}
	assert.Equal(t, []string{"core", "internal"}, module.Brands())

	service := &Version{Type: strPtr("service"), Manifests: manifests}
	assert.Nil(t, service.Brands())

	untyped := &Version{Manifests: manifests}
	assert.Nil(t, untyped.Brands())

	noBrands := &Version{Type: strPtr("module"), Manifests: Manifests{Component: Manifest{}}}
	assert.Empty(t, noBrands.Brands())
}

func TestLanguages(t *testing.T) {
	tests := []struct {
		name      string
		manifests Manifests
		expected  []string
	}{
		{
			name: "bower main as array",
			manifests: Manifests{
				Bower: Manifest{"main": []interface{}{"main.js", "main.scss", "util.js"}},
			},
			expected: []string{"js", "scss"},
		},
		{
			name: "bower main as string",
			manifests: Manifests{
				Bower: Manifest{"main": "main.css"},
			},
			expected: []string{"css"},
		},
		{
			name: "bower shadows package",
			manifests: Manifests{
				Bower:   Manifest{"main": "main.js"},
				Package: Manifest{"main": "index.ts"},
			},
			expected: []string{"js"},
		},
		{
			name: "package fallback",
			manifests: Manifests{
				Package: Manifest{"main": "index.ts"},
			},
			expected: []string{"ts"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &Version{Manifests: tt.manifests}
			assert.Equal(t, tt.expected, v.Languages())
		})
	}
}

func TestImageSetScheme(t *testing.T) {
	v := &Version{
		VersionMajor: 2,
		Manifests:    Manifests{ImageSet: Manifest{"scheme": "icons"}},
	}
	require.NotNil(t, v.ImageSetScheme())
	assert.Equal(t, "icons-v2", *v.ImageSetScheme())

	assert.Nil(t, (&Version{}).ImageSetScheme())
}

func TestDependenciesFlattened(t *testing.T) {
	v := &Version{Manifests: Manifests{
		Bower: Manifest{
			"dependencies":    map[string]interface{}{"o-colors": "^4.0.0"},
			"devDependencies": map[string]interface{}{"o-test": "^1.0.0"},
		},
		Package: Manifest{
			"dependencies":         map[string]interface{}{"lodash": "^4.17.0"},
			"optionalDependencies": map[string]interface{}{"fsevents": "^2.0.0"},
		},
	}}

	deps := v.Dependencies()
	require.Len(t, deps, 4)

	assert.Equal(t, Dependency{Name: "o-colors", Version: "^4.0.0", Source: "bower"}, deps[0])
	assert.Equal(t, Dependency{Name: "o-test", Version: "^1.0.0", Source: "bower", IsDev: true}, deps[1])
	assert.Equal(t, Dependency{Name: "lodash", Version: "^4.17.0", Source: "npm"}, deps[2])
	assert.Equal(t, Dependency{Name: "fsevents", Version: "^2.0.0", Source: "npm", IsOptional: true}, deps[3])
}

func TestDependenciesNilWithoutManifests(t *testing.T) {
	v := &Version{Manifests: Manifests{Component: Manifest{}}}
	assert.Nil(t, v.Dependencies())
}

func TestCategory(t *testing.T) {
	v := &Version{Manifests: Manifests{Component: Manifest{"category": "layout"}}}
	require.NotNil(t, v.Category())
	assert.Equal(t, "layout", *v.Category())

	assert.Nil(t, (&Version{}).Category())
}
