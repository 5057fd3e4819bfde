//go:build unit || !integration

package version

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func setVersion(t *testing.T, gitVersion, buildDate string) {
	oldVersion, oldDate := GITVERSION, BUILDDATE
	t.Cleanup(func() {
		GITVERSION, BUILDDATE = oldVersion, oldDate
	})
	GITVERSION, BUILDDATE = gitVersion, buildDate
}

func TestGet(t *testing.T) {
	setVersion(t, "v1.2.3", "2023-04-01T10:00:00Z")

	info, err := Get()
	require.NoError(t, err)
	require.Equal(t, "1", info.Major)
	require.Equal(t, "2", info.Minor)
	require.Equal(t, "v1.2.3", info.GitVersion)
	require.Equal(t, 2023, info.BuildDate.Year())
}

func TestGetDefault(t *testing.T) {
	info, err := Get()
	require.NoError(t, err)
	require.Equal(t, "0", info.Major)
}

func TestGetRejectsBadVersion(t *testing.T) {
	setVersion(t, "not-a-version", "2023-04-01T10:00:00Z")
	_, err := Get()
	require.Error(t, err)

	setVersion(t, "v1.0.0", "yesterday")
	_, err = Get()
	require.Error(t, err)
}
