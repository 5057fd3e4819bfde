// Package client talks to the dashboard API that serves job information and
// records moderation decisions.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/CoopHive/bacalhau/pkg/bacerrors"
	"github.com/CoopHive/bacalhau/pkg/dashboard/types"
	"github.com/CoopHive/bacalhau/pkg/telemetry"
)

const (
	DefaultTimeout = 30 * time.Second
	apiPrefix      = "/api/v1"
)

// TokenSource supplies the bearer token sent with moderation calls.
// *session.Session implements it.
type TokenSource interface {
	Token() string
}

type Options struct {
	Timeout time.Duration
	// Retries is how many times a failed GET is retried. Moderation calls
	// are never retried.
	Retries int
	Session TokenSource
	// Transport replaces the default HTTP transport, mainly for tests.
	Transport http.RoundTripper
}

// APIClient is a client for the dashboard API.
type APIClient struct {
	BaseURI        string
	DefaultHeaders map[string]string

	Client   *http.Client
	retrying *retryablehttp.Client
	session  TokenSource
}

// NewAPIClient returns a client for the dashboard rooted at baseURI.
func NewAPIClient(baseURI string, options Options) *APIClient {
	if options.Timeout <= 0 {
		options.Timeout = DefaultTimeout
	}
	httpClient := &http.Client{
		Timeout:   options.Timeout,
		Transport: otelhttp.NewTransport(options.Transport),
	}

	retrying := retryablehttp.NewClient()
	retrying.HTTPClient = httpClient
	retrying.RetryMax = options.Retries
	retrying.RetryWaitMin = 100 * time.Millisecond //nolint:gomnd
	retrying.RetryWaitMax = 2 * time.Second        //nolint:gomnd
	retrying.Logger = zerologLeveledLogger{}
	retrying.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &APIClient{
		BaseURI:        strings.TrimSuffix(baseURI, "/"),
		DefaultHeaders: map[string]string{},
		Client:         httpClient,
		retrying:       retrying,
		session:        options.Session,
	}
}

// GetJobInfo fetches the job, its state, events and moderation trail.
func (apiClient *APIClient) GetJobInfo(ctx context.Context, jobID string) (*types.JobInfo, error) {
	ctx, span := telemetry.NewSpan(ctx, telemetry.GetTracer(), "pkg/dashboard/client.GetJobInfo", telemetry.WithJobID(jobID))
	defer span.End()

	var info types.JobInfo
	if err := apiClient.get(ctx, jobPath(jobID, "info"), &info); err != nil {
		return nil, telemetry.RecordErrorOnSpan(span)(err)
	}
	return &info, nil
}

// GetJobInputs fetches the content the job consumed.
func (apiClient *APIClient) GetJobInputs(ctx context.Context, jobID string) ([]types.JobRelation, error) {
	return apiClient.relations(ctx, jobID, "inputs")
}

// GetJobOutputs fetches the content the job produced.
func (apiClient *APIClient) GetJobOutputs(ctx context.Context, jobID string) ([]types.JobRelation, error) {
	return apiClient.relations(ctx, jobID, "outputs")
}

func (apiClient *APIClient) relations(ctx context.Context, jobID string, direction string) ([]types.JobRelation, error) {
	ctx, span := telemetry.NewSpan(ctx, telemetry.GetTracer(), "pkg/dashboard/client.GetJobRelations",
		telemetry.WithJobID(jobID), oteltrace.WithAttributes(attribute.String(telemetry.AttributeResource, direction)))
	defer span.End()

	relations := []types.JobRelation{}
	if err := apiClient.get(ctx, jobPath(jobID, direction), &relations); err != nil {
		return nil, telemetry.RecordErrorOnSpan(span)(err)
	}
	return relations, nil
}

// Moderate records decision against a moderation request. It needs a
// session token.
func (apiClient *APIClient) Moderate(
	ctx context.Context,
	requestID int64,
	decision types.ModerateRequest,
) (*types.ModerateResult, error) {
	ctx, span := telemetry.NewSpan(ctx, telemetry.GetTracer(), "pkg/dashboard/client.Moderate")
	defer span.End()

	var result types.ModerateResult
	path := fmt.Sprintf("%s/request/%s", apiPrefix, strconv.FormatInt(requestID, 10))
	if err := apiClient.post(ctx, path, decision, &result); err != nil {
		return nil, telemetry.RecordErrorOnSpan(span)(err)
	}
	return &result, nil
}

func jobPath(jobID string, resource string) string {
	return fmt.Sprintf("%s/job/%s/%s", apiPrefix, url.PathEscape(jobID), resource)
}

func (apiClient *APIClient) get(ctx context.Context, path string, out interface{}) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, apiClient.BaseURI+path, nil)
	if err != nil {
		return bacerrors.NewResponseUnknownError(fmt.Errorf("dashboard: error creating GET request: %v", err))
	}
	apiClient.setHeaders(req.Header)

	res, err := apiClient.retrying.Do(req)
	if err != nil {
		return transportError(ctx, err)
	}
	return decodeResponse(res, out)
}

func (apiClient *APIClient) post(ctx context.Context, path string, in interface{}, out interface{}) error {
	var body bytes.Buffer
	if err := json.NewEncoder(&body).Encode(in); err != nil {
		return bacerrors.NewResponseUnknownError(fmt.Errorf("dashboard: error encoding request body: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiClient.BaseURI+path, &body)
	if err != nil {
		return bacerrors.NewResponseUnknownError(fmt.Errorf("dashboard: error creating POST request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")
	apiClient.setHeaders(req.Header)
	if apiClient.session != nil {
		if token := apiClient.session.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	req.Close = true

	res, err := apiClient.Client.Do(req) //nolint:bodyclose // closed in decodeResponse
	if err != nil {
		return transportError(ctx, err)
	}
	return decodeResponse(res, out)
}

func (apiClient *APIClient) setHeaders(header http.Header) {
	header.Set("Accept", "application/json")
	for key, value := range apiClient.DefaultHeaders {
		header.Set(key, value)
	}
}

func transportError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return bacerrors.NewResponseUnknownError(fmt.Errorf("dashboard: after sending request: %v", err))
}

// decodeResponse reads res into out, or turns a non-2xx response into an
// *bacerrors.ErrorResponse. The dashboard answers errors either with a JSON
// error body or with plain text.
func decodeResponse(res *http.Response, out interface{}) error {
	defer res.Body.Close()

	responseBody, err := io.ReadAll(res.Body)
	if err != nil {
		return bacerrors.NewResponseUnknownError(fmt.Errorf("dashboard: error reading response body: %v", err))
	}

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		serverError := &bacerrors.ErrorResponse{}
		if err := json.Unmarshal(responseBody, serverError); err != nil || serverError.Message == "" {
			message := strings.TrimSpace(string(responseBody))
			if message == "" {
				message = http.StatusText(res.StatusCode)
			}
			serverError = &bacerrors.ErrorResponse{
				Code:    bacerrors.UnknownError,
				Message: message,
				Details: map[string]interface{}{},
				Err:     message,
			}
		}
		serverError.StatusCode = res.StatusCode
		return serverError
	}

	if len(bytes.TrimSpace(responseBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(responseBody, out); err != nil {
		return bacerrors.NewResponseUnknownError(fmt.Errorf("dashboard: error decoding response body: %v", err))
	}
	return nil
}
