package validation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/ecvt-build/internal/builderr"
)

func validPlan(t *testing.T) Plan {
	t.Helper()
	dir := t.TempDir()
	model := filepath.Join(dir, "ecvt.scad")
	params := filepath.Join(dir, "ecvt.json")
	require.NoError(t, os.WriteFile(model, []byte("cube(1);"), 0o644))
	require.NoError(t, os.WriteFile(params, []byte(`{"parameterSets":{"default":{}}}`), 0o644))

	return Plan{
		ParameterSets: []string{"default", "small"},
		Parts:         []string{"assembly", "base"},
		ModelFile:     model,
		ParamsFile:    params,
		BuildFolder:   filepath.Join(dir, "build"),
	}
}

func TestValidate_ValidPlan(t *testing.T) {
	res := Validate(validPlan(t))
	assert.True(t, res.IsValid(), "%v", res.Errors)
	assert.NoError(t, res.Err())
}

func TestValidate_Names(t *testing.T) {
	tests := []struct {
		name  string
		sets  []string
		parts []string
	}{
		{"empty set", []string{""}, []string{"base"}},
		{"dot set", []string{".."}, []string{"base"}},
		{"separator in set", []string{"a/b"}, []string{"base"}},
		{"backslash in part", []string{"default"}, []string{`a\b`}},
		{"quote in part", []string{"default"}, []string{`gear"`}},
		{"control char", []string{"default"}, []string{"gear\n"}},
		{"duplicate part", []string{"default"}, []string{"base", "base"}},
		{"no parts", []string{"default"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPlan(t)
			p.ParameterSets = tt.sets
			p.Parts = tt.parts

			res := Validate(p)
			require.False(t, res.IsValid())
			assert.Len(t, res.Errors, 1, "%v", res.Errors)
		})
	}
}

func TestValidate_QuotesAllowedInSetNames(t *testing.T) {
	p := validPlan(t)
	p.ParameterSets = []string{`wide "v2"`}
	assert.True(t, Validate(p).IsValid())
}

func TestValidate_MissingFiles(t *testing.T) {
	p := validPlan(t)
	p.ModelFile = filepath.Join(t.TempDir(), "missing.scad")
	p.ParamsFile = t.TempDir()

	res := Validate(p)
	require.Len(t, res.Errors, 2)
	assert.Equal(t, "model file", res.Errors[0].Field)
	assert.Equal(t, "parameter file", res.Errors[1].Field)
}

func TestValidate_ReportInsideBuildFolder(t *testing.T) {
	p := validPlan(t)
	p.ReportPaths = []string{filepath.Join(p.BuildFolder, "report.xlsx"), filepath.Join(filepath.Dir(p.BuildFolder), "report.xlsx")}

	res := Validate(p)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "report path", res.Errors[0].Field)
}

func TestValidationResult_ErrIsConfiguration(t *testing.T) {
	p := validPlan(t)
	p.Parts = []string{"", `a"b`}

	err := Validate(p).Err()
	require.Error(t, err)
	assert.Equal(t, builderr.KindConfiguration, builderr.KindOf(err))
	assert.Contains(t, err.Error(), "2 problem(s)")
}
