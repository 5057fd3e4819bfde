package version

import (
	"strconv"
	"time"

	"github.com/Masterminds/semver"
	"github.com/pkg/errors"

	"github.com/CoopHive/bacalhau/pkg/model"
)

// Get returns the version of the running binary. It fails only when the
// values injected at build time are malformed.
func Get() (*model.BuildVersionInfo, error) {
	s, err := semver.NewVersion(GITVERSION)
	if err != nil {
		return nil, errors.Wrapf(err, "could not parse GITVERSION %q", GITVERSION)
	}
	buildDate, err := time.Parse("2006-01-02T15:04:05Z", BUILDDATE)
	if err != nil {
		return nil, errors.Wrapf(err, "could not parse BUILDDATE %q", BUILDDATE)
	}

	return &model.BuildVersionInfo{
		GitVersion: GITVERSION,
		Major:      strconv.FormatInt(s.Major(), 10), //nolint:gomnd
		Minor:      strconv.FormatInt(s.Minor(), 10), //nolint:gomnd
		GitCommit:  GITCOMMIT,
		BuildDate:  buildDate,
		GOOS:       GOOS,
		GOARCH:     GOARCH,
	}, nil
}
