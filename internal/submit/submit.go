// Package submit hands assembled reports to a destination.
package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"perfgate/internal/alert"
	"perfgate/internal/report"
	"perfgate/internal/store"
)

// Result is what a destination returns for a submitted report.
type Result struct {
	ID     uuid.UUID     `json:"uuid"`
	Alerts []alert.Alert `json:"alerts"`
}

// Submitter sends a report somewhere and returns the alerts it raised.
type Submitter interface {
	Submit(ctx context.Context, rep *report.Report) (*Result, error)
}

// HTTPSubmitter posts reports to a perfgate-compatible API.
type HTTPSubmitter struct {
	Host    string
	Project string
	Token   string
	Client  *http.Client
}

// NewHTTPSubmitter returns an HTTPSubmitter with a default client.
func NewHTTPSubmitter(host, project, token string) *HTTPSubmitter {
	return &HTTPSubmitter{
		Host:    host,
		Project: project,
		Token:   token,
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Endpoint returns the reports URL for the project.
func (s *HTTPSubmitter) Endpoint() (string, error) {
	if s.Host == "" {
		return "", fmt.Errorf("submit host is not configured")
	}
	if s.Project == "" {
		return "", fmt.Errorf("project is required to submit a report")
	}
	base, err := url.Parse(strings.TrimRight(s.Host, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid host %q: %w", s.Host, err)
	}
	return base.JoinPath("v0", "projects", s.Project, "reports").String(), nil
}

func (s *HTTPSubmitter) Submit(ctx context.Context, rep *report.Report) (*Result, error) {
	endpoint, err := s.Endpoint()
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(rep)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if s.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to submit report: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("report submission failed with status %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}

	var res Result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &res, nil
}

// LocalSubmitter evaluates reports against local history and stores them.
// Detection reads history before the new report is written.
type LocalSubmitter struct {
	Store    store.Store
	Detector *alert.Detector
}

func (s *LocalSubmitter) Submit(ctx context.Context, rep *report.Report) (*Result, error) {
	var alerts []alert.Alert
	if s.Detector != nil {
		alerts = s.Detector.Detect(ctx, rep)
	}
	id, err := s.Store.SaveReport(ctx, rep, alerts)
	if err != nil {
		return nil, fmt.Errorf("failed to save report: %w", err)
	}
	return &Result{ID: id, Alerts: alerts}, nil
}
