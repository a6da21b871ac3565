package builderr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New(KindToolNotFound, "openscad not found in %d locations", 3)
	require.NotNil(t, err)

	assert.Equal(t, KindToolNotFound, err.Kind)
	assert.Equal(t, "openscad not found in 3 locations", err.Error())
	assert.Nil(t, err.Unwrap())
}

func TestWrap(t *testing.T) {
	cause := errors.New("permission denied")
	err := Wrap(cause, KindFilesystem, "failed to remove %s", "build")

	require.NotNil(t, err)
	assert.Same(t, cause, errors.Unwrap(err))
	assert.Equal(t, "failed to remove build: permission denied", err.Error())
	assert.True(t, errors.Is(err, cause))
}

func TestWrap_Nil(t *testing.T) {
	assert.Nil(t, Wrap(nil, KindFilesystem, "unused"))
}

func TestWithContext_RendersSortedKeys(t *testing.T) {
	err := New(KindBuildUnit, "openscad failed").
		WithContext("part", "carrier").
		WithContext("exit_code", 1)

	assert.Equal(t, "openscad failed (exit_code=1, part=carrier)", err.Error())
}

func TestKindOf_ThroughWrapping(t *testing.T) {
	inner := New(KindConfiguration, "bad params")
	outer := fmt.Errorf("loading: %w", inner)

	assert.Equal(t, KindConfiguration, KindOf(outer))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
	assert.True(t, errors.Is(outer, &Error{Kind: KindConfiguration}))
	assert.False(t, errors.Is(outer, &Error{Kind: KindBuildUnit}))
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"plain", errors.New("boom"), 1},
		{"configuration", New(KindConfiguration, "x"), 2},
		{"tool not found", New(KindToolNotFound, "x"), 3},
		{"filesystem", New(KindFilesystem, "x"), 4},
		{"build unit", fmt.Errorf("wrapped: %w", New(KindBuildUnit, "x")), 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}
