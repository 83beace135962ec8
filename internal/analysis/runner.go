// Package analysis orchestrates one full agent run: upload the workbook,
// submit the instruction, await the result, and persist the artifacts.
package analysis

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/klytics/sheetagent/internal/agent"
	"github.com/klytics/sheetagent/internal/artifacts"
	"github.com/klytics/sheetagent/internal/progress"
	"github.com/klytics/sheetagent/internal/runlog"
	"github.com/klytics/sheetagent/internal/workbook"
)

// Request describes one analysis to perform.
type Request struct {
	Workbook      string
	Question      string
	Instructions  string
	SkipArtifacts bool
	// Command names the CLI entry point for the run history.
	Command string
}

// Outcome is what a finished analysis produced.
type Outcome struct {
	Text       string   `json:"text"`
	Model      string   `json:"model,omitempty"`
	SavedFiles []string `json:"savedFiles,omitempty"`
	DurationMs int64    `json:"durationMs"`
}

// Runner executes analysis requests against one agent backend.
type Runner struct {
	Client agent.Client
	Store  *artifacts.Store
	Log    *runlog.Logger
	// Quiet suppresses the terminal spinner (used by the watcher).
	Quiet   bool
	Verbose bool
}

// Run drives the whole pipeline. The input workbook is only ever read.
func (r *Runner) Run(ctx context.Context, req Request) (*Outcome, error) {
	start := time.Now()
	outcome, err := r.run(ctx, req)

	if r.Log != nil {
		entry := runlog.Entry{
			Timestamp:  start,
			Command:    req.Command,
			Provider:   r.Client.Name(),
			Workbook:   req.Workbook,
			Question:   req.Question,
			DurationMs: time.Since(start).Milliseconds(),
		}
		if err != nil {
			entry.Status = "error"
			entry.Error = err.Error()
		} else {
			entry.Status = "ok"
			entry.Model = outcome.Model
			entry.Artifacts = outcome.SavedFiles
		}
		r.Log.Log(entry)
	}

	return outcome, err
}

func (r *Runner) run(ctx context.Context, req Request) (*Outcome, error) {
	if err := workbook.Check(req.Workbook); err != nil {
		return nil, agent.WrapError(agent.KindIO, "workbook preflight failed", err)
	}

	sp := r.spinner("Uploading " + filepath.Base(req.Workbook) + "…")
	sp.Start()

	file, err := r.Client.Upload(ctx, req.Workbook)
	if err != nil {
		sp.Fail("upload failed")
		return nil, err
	}
	r.debugf("uploaded %s as %s", req.Workbook, file.ID)

	sp.Update("Agent is analyzing…")
	run, err := r.Client.Submit(ctx, file, req.Instructions, req.Question)
	if err != nil {
		sp.Fail("submit failed")
		return nil, err
	}

	result, err := r.Client.Await(ctx, run)
	if err != nil {
		sp.Fail("agent run failed")
		return nil, err
	}
	sp.Stop("analysis complete")

	outcome := &Outcome{Text: result.Text, Model: result.Model}

	if !req.SkipArtifacts && len(result.Artifacts) > 0 {
		saved, err := r.saveArtifacts(ctx, result.Artifacts)
		outcome.SavedFiles = saved
		if err != nil {
			return outcome, err
		}
	}

	return outcome, nil
}

func (r *Runner) saveArtifacts(ctx context.Context, refs []agent.ArtifactRef) ([]string, error) {
	bar := r.bar("Downloading artifacts", len(refs))

	var saved []string
	for _, ref := range refs {
		data, err := r.Client.FetchArtifact(ctx, ref)
		if err != nil {
			return saved, err
		}
		path, err := r.Store.Save(ref.Filename, data)
		if err != nil {
			return saved, agent.WrapError(agent.KindIO, "could not save artifact", err)
		}
		saved = append(saved, path)
		bar.Increment(ref.Filename)
	}

	bar.Finish(fmt.Sprintf("%d artifact(s) saved to %s", len(saved), r.Store.Dir))
	return saved, nil
}

func (r *Runner) spinner(label string) *progress.Spinner {
	sp := progress.NewSpinner(label)
	if r.Quiet {
		sp.Enabled = false
	}
	return sp
}

func (r *Runner) bar(label string, total int) *progress.Bar {
	b := progress.NewBar(label, total)
	if r.Quiet {
		b.Enabled = false
	}
	return b
}

func (r *Runner) debugf(format string, args ...any) {
	if r.Verbose {
		fmt.Fprintf(os.Stderr, "debug: "+format+"\n", args...)
	}
}
