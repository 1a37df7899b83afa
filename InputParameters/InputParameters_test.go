package InputParameters

import (
	"bytes"
	"testing"

	"github.com/notargets/gobeso/filter"
	"github.com/notargets/gobeso/mesh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterParameters(t *testing.T) {
	{ // The example file parses and validates
		fp := &FilterParameters{}
		require.NoError(t, fp.Parse([]byte(ExampleFile)))
		require.NoError(t, fp.Validate())
		assert.Equal(t, "Cantilever", fp.Title)
		assert.Equal(t, 2.5, fp.RMin)
		ft, err := fp.Type()
		require.NoError(t, err)
		assert.Equal(t, filter.Filter1, ft)
		assert.Equal(t, []mesh.Domain{
			{Name: "SolidDesign", Optimized: true},
			{Name: "ShellNonDesign", Thickness: 0.5},
		}, fp.MeshDomains())
		var buf bytes.Buffer
		fp.Print(&buf)
		assert.Contains(t, buf.String(), "Domains[ShellNonDesign] = thickness 0.5, optimized false")
	}
	{ // Validation
		valid := func() *FilterParameters {
			return &FilterParameters{
				FilterType: "filter2",
				RMin:       1,
				Domains:    []DomainParameters{{ElSet: "Eall", Optimized: true}},
			}
		}
		require.NoError(t, valid().Validate())
		for name, breakIt := range map[string]func(fp *FilterParameters){
			"type":      func(fp *FilterParameters) { fp.FilterType = "filter9" },
			"rmin":      func(fp *FilterParameters) { fp.RMin = 0 },
			"parallel":  func(fp *FilterParameters) { fp.ParallelDegree = -1 },
			"domains":   func(fp *FilterParameters) { fp.Domains = nil },
			"elset":     func(fp *FilterParameters) { fp.Domains[0].ElSet = "" },
			"thickness": func(fp *FilterParameters) { fp.Domains[0].Thickness = -1 },
			"optimized": func(fp *FilterParameters) { fp.Domains[0].Optimized = false },
		} {
			fp := valid()
			breakIt(fp)
			assert.Error(t, fp.Validate(), name)
		}
	}
	{ // Malformed YAML
		fp := &FilterParameters{}
		assert.Error(t, fp.Parse([]byte("RMin: [1, 2")))
	}
}
