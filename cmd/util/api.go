package util

import (
	"context"

	"github.com/pkg/errors"

	"github.com/CoopHive/bacalhau/pkg/dashboard/client"
	"github.com/CoopHive/bacalhau/pkg/session"
)

// GetAPIClient builds a dashboard client from the resolved configuration.
// The session is started from the configured token, if any.
func GetAPIClient(ctx context.Context) (*client.APIClient, *session.Session, error) {
	cfg := GetConfig(ctx)
	s, err := session.FromToken(cfg.API.Token)
	if err != nil {
		return nil, nil, errors.Wrap(err, "invalid api token")
	}
	apiClient := client.NewAPIClient(cfg.API.URL, client.Options{
		Timeout: cfg.API.Timeout.AsTimeDuration(),
		Retries: cfg.API.Retries,
		Session: s,
	})
	return apiClient, s, nil
}
