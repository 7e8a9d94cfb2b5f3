// Package report assembles folded benchmark results into a submittable
// report.
package report

import (
	"errors"
	"fmt"
	"time"

	"perfgate/internal/adapter"
	"perfgate/internal/fold"
	"perfgate/internal/metric"
	"perfgate/internal/threshold"
)

const (
	DefaultBranch  = "main"
	DefaultTestbed = "localhost"
)

// ErrTimeWindow is returned when a report would end before it starts.
var ErrTimeWindow = errors.New("report end time is before start time")

// Settings echo the configuration a report was produced with.
type Settings struct {
	Adapter adapter.Kind    `json:"adapter,omitempty"`
	Average adapter.Average `json:"average,omitempty"`
	Fold    *fold.Op        `json:"fold,omitempty"`
}

// Report is one benchmark run ready for submission.
type Report struct {
	Project    string            `json:"project,omitempty"`
	Branch     string            `json:"branch"`
	Hash       string            `json:"hash,omitempty"`
	Testbed    string            `json:"testbed"`
	StartTime  time.Time         `json:"start_time"`
	EndTime    time.Time         `json:"end_time"`
	Results    []*metric.Results `json:"results"`
	Settings   Settings          `json:"settings"`
	Thresholds []threshold.Spec  `json:"thresholds,omitempty"`
}

// Latest returns the last result in the report, or nil.
func (r *Report) Latest() *metric.Results {
	if len(r.Results) == 0 {
		return nil
	}
	return r.Results[len(r.Results)-1]
}

// Elapsed returns the duration of the run.
func (r *Report) Elapsed() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}

// Input is everything needed to assemble a report.
type Input struct {
	Project    string
	Branch     string
	Testbed    string
	Hash       string
	Start      time.Time
	End        time.Time
	Backdate   *time.Time
	Results    []*metric.Results
	Settings   Settings
	Thresholds []threshold.Spec
}

// Assembler builds reports, filling in the default branch and testbed.
type Assembler struct {
	DefaultBranch  string
	DefaultTestbed string
}

// NewAssembler returns an Assembler. Empty defaults fall back to "main" and
// "localhost".
func NewAssembler(branch, testbed string) *Assembler {
	if branch == "" {
		branch = DefaultBranch
	}
	if testbed == "" {
		testbed = DefaultTestbed
	}
	return &Assembler{DefaultBranch: branch, DefaultTestbed: testbed}
}

// Assemble builds a report from in. With a backdate the run keeps its
// measured duration but starts at the backdate.
func (a *Assembler) Assemble(in Input) (*Report, error) {
	if in.End.Before(in.Start) {
		return nil, fmt.Errorf("%w: start %s, end %s", ErrTimeWindow, in.Start.Format(time.RFC3339), in.End.Format(time.RFC3339))
	}
	start, end := in.Start, in.End
	if in.Backdate != nil {
		elapsed := in.End.Sub(in.Start)
		start = *in.Backdate
		end = start.Add(elapsed)
	}

	branch := in.Branch
	if branch == "" {
		branch = a.DefaultBranch
	}
	testbed := in.Testbed
	if testbed == "" {
		testbed = a.DefaultTestbed
	}
	results := in.Results
	if results == nil {
		results = []*metric.Results{}
	}

	return &Report{
		Project:    in.Project,
		Branch:     branch,
		Hash:       in.Hash,
		Testbed:    testbed,
		StartTime:  start.UTC(),
		EndTime:    end.UTC(),
		Results:    results,
		Settings:   in.Settings,
		Thresholds: in.Thresholds,
	}, nil
}
