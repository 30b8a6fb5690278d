package reporter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pwreport/pwreport"
)

func TestArtifactRegistry_OverwriteWithinAttempt(t *testing.T) {
	t.Parallel()

	reg := newArtifactRegistry()

	reg.Register(0, pwreport.Artifact{Name: "login.png", MediaType: "image/png", Path: "a.png"})
	reg.Register(0, pwreport.Artifact{Name: "login.png", MediaType: "image/png", Path: "b.png"})

	got := reg.ForAttempt(0)
	require.Len(t, got, 1)
	assert.Equal(t, "b.png", got[0].Path, "latest payload wins")
	assert.Equal(t, 1, reg.Len())
}

func TestArtifactRegistry_AttemptsKeptApart(t *testing.T) {
	t.Parallel()

	reg := newArtifactRegistry()

	reg.Register(0, pwreport.Artifact{Name: "login.png", Path: "attempt0.png"})
	reg.Register(1, pwreport.Artifact{Name: "login.png", Path: "attempt1.png"})

	require.Len(t, reg.ForAttempt(0), 1)
	require.Len(t, reg.ForAttempt(1), 1)
	assert.Equal(t, "attempt0.png", reg.ForAttempt(0)[0].Path)
	assert.Equal(t, "attempt1.png", reg.ForAttempt(1)[0].Path)
}

func TestArtifactRegistry_OrderIsFirstRegistered(t *testing.T) {
	t.Parallel()

	reg := newArtifactRegistry()

	reg.Register(0, pwreport.Artifact{Name: "a.png", Path: "1"})
	reg.Register(0, pwreport.Artifact{Name: "b.png", Path: "2"})
	reg.Register(0, pwreport.Artifact{Name: "a.png", Path: "3"})

	got := reg.ForAttempt(0)
	require.Len(t, got, 2)
	assert.Equal(t, "a.png", got[0].Name)
	assert.Equal(t, "3", got[0].Path)
	assert.Equal(t, "b.png", got[1].Name)
}
