package sonar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"

	"github.com/zen-systems/qualitygates/pkg/config"
)

// Quality gate states reported by the server.
const (
	GateOK    = "OK"
	GateWarn  = "WARN"
	GateError = "ERROR"
	GateNone  = "NONE"
)

// Compute engine task states.
const (
	TaskPending    = "PENDING"
	TaskInProgress = "IN_PROGRESS"
	TaskSuccess    = "SUCCESS"
	TaskFailed     = "FAILED"
	TaskCanceled   = "CANCELED"
)

const (
	projectStatusPath = "/api/qualitygates/project_status"
	ceComponentPath   = "/api/ce/component"
)

// Client queries a single SonarQube instance. Transport-level retries on
// connection errors and 5xx responses are handled by retryablehttp; pending
// background analyses are polled using the instance's wait settings.
type Client struct {
	baseURL    string
	username   string
	password   string
	timeToWait time.Duration
	maxPolls   int
	httpClient *retryablehttp.Client
	logger     zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the diagnostics logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient.HTTPClient = hc
	}
}

// WithRetryMax sets the number of transport retries per request.
func WithRetryMax(n int) Option {
	return func(c *Client) {
		c.httpClient.RetryMax = n
	}
}

// WithRetryWait sets the transport retry backoff bounds.
func WithRetryWait(minWait, maxWait time.Duration) Option {
	return func(c *Client) {
		c.httpClient.RetryWaitMin = minWait
		c.httpClient.RetryWaitMax = maxWait
	}
}

// NewClient creates a client for the given instance.
func NewClient(inst *config.InstanceConfig, opts ...Option) *Client {
	hc := retryablehttp.NewClient()
	hc.RetryMax = 3
	hc.HTTPClient.Timeout = 30 * time.Second
	// Hand back the last response once retries run out so its status is classified.
	hc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	c := &Client{
		baseURL:    inst.URL,
		username:   inst.Username,
		password:   inst.Password,
		timeToWait: time.Duration(inst.TimeToWait) * time.Millisecond,
		maxPolls:   inst.MaxRetries,
		httpClient: hc,
		logger:     zerolog.Nop(),
	}
	// A token authenticates as the username with an empty password.
	if inst.Token != "" {
		c.username = inst.Token
		c.password = ""
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.maxPolls <= 0 {
		c.maxPolls = 1
	}
	hc.Logger = leveledLogger{c.logger}
	return c
}

// QualityGateStatus waits for any pending analysis of the project and
// returns the raw gate state (GateOK, GateWarn, GateError or GateNone).
func (c *Client) QualityGateStatus(ctx context.Context, projectKey string) (string, error) {
	if err := c.WaitForAnalysis(ctx, projectKey); err != nil {
		return "", err
	}
	status, err := c.ProjectStatus(ctx, projectKey)
	if err != nil {
		return "", err
	}
	return status.Status, nil
}

// ProjectStatus is the gate evaluation reported for a project.
type ProjectStatus struct {
	Status     string      `json:"status"`
	Conditions []Condition `json:"conditions,omitempty"`
}

// Condition is a single gate condition and its evaluation.
type Condition struct {
	Status         string `json:"status"`
	MetricKey      string `json:"metricKey"`
	Comparator     string `json:"comparator"`
	ErrorThreshold string `json:"errorThreshold,omitempty"`
	ActualValue    string `json:"actualValue,omitempty"`
}

type projectStatusResponse struct {
	ProjectStatus *ProjectStatus `json:"projectStatus"`
}

// ProjectStatus fetches the current quality gate state of a project.
func (c *Client) ProjectStatus(ctx context.Context, projectKey string) (*ProjectStatus, error) {
	var resp projectStatusResponse
	query := url.Values{"projectKey": {projectKey}}
	if err := c.get(ctx, projectStatusPath, query, &resp); err != nil {
		return nil, err
	}
	if resp.ProjectStatus == nil || resp.ProjectStatus.Status == "" {
		return nil, fmt.Errorf("malformed project status response for %q", projectKey)
	}
	return resp.ProjectStatus, nil
}

// Task is a compute engine background task.
type Task struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type ceComponentResponse struct {
	Queue   []Task `json:"queue"`
	Current *Task  `json:"current"`
}

// AnalysisPending reports whether the server still has background analysis
// work queued or running for the project.
func (c *Client) AnalysisPending(ctx context.Context, projectKey string) (bool, error) {
	var resp ceComponentResponse
	query := url.Values{"component": {projectKey}}
	if err := c.get(ctx, ceComponentPath, query, &resp); err != nil {
		return false, err
	}
	if len(resp.Queue) > 0 {
		return true, nil
	}
	if resp.Current != nil {
		switch resp.Current.Status {
		case TaskPending, TaskInProgress:
			return true, nil
		}
	}
	return false, nil
}

// WaitForAnalysis polls until no analysis is pending, at most maxPolls times.
func (c *Client) WaitForAnalysis(ctx context.Context, projectKey string) error {
	for attempt := 1; attempt <= c.maxPolls; attempt++ {
		pending, err := c.AnalysisPending(ctx, projectKey)
		if err != nil {
			return err
		}
		if !pending {
			return nil
		}
		c.logger.Debug().
			Str("project", projectKey).
			Int("attempt", attempt).
			Dur("wait", c.timeToWait).
			Msg("analysis pending")
		if attempt == c.maxPolls {
			break
		}
		if err := sleep(ctx, c.timeToWait); err != nil {
			return err
		}
	}
	return fmt.Errorf("%w: %q after %d polls", ErrAnalysisPending, projectKey, c.maxPolls)
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := c.baseURL + path + "?" + query.Encode()
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	c.logger.Debug().Str("endpoint", endpoint).Msg("sonar request")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return newAPIError(path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// leveledLogger adapts zerolog to retryablehttp.LeveledLogger.
type leveledLogger struct {
	logger zerolog.Logger
}

func (l leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error().Fields(keysAndValues).Msg(msg)
}

func (l leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info().Fields(keysAndValues).Msg(msg)
}

func (l leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn().Fields(keysAndValues).Msg(msg)
}
