package analysis

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/klytics/sheetagent/internal/agent"
	"github.com/klytics/sheetagent/internal/artifacts"
	"github.com/klytics/sheetagent/internal/runlog"
)

// fakeClient is an in-memory agent backend.
type fakeClient struct {
	uploads   int
	submits   int
	fetches   int
	failAwait error
	result    agent.Result
	artifacts map[string][]byte
}

func (f *fakeClient) Name() string { return "fake" }

func (f *fakeClient) Upload(ctx context.Context, path string) (agent.FileRef, error) {
	if _, err := os.Stat(path); err != nil {
		return agent.FileRef{}, agent.WrapError(agent.KindIO, "could not read workbook", err)
	}
	f.uploads++
	return agent.FileRef{ID: "file-1", Name: filepath.Base(path)}, nil
}

func (f *fakeClient) Submit(ctx context.Context, file agent.FileRef, instructions, question string) (*agent.Run, error) {
	f.submits++
	return &agent.Run{ID: "run-1"}, nil
}

func (f *fakeClient) Await(ctx context.Context, run *agent.Run) (*agent.Result, error) {
	if f.failAwait != nil {
		return nil, f.failAwait
	}
	r := f.result
	return &r, nil
}

func (f *fakeClient) Followup(ctx context.Context, run *agent.Run, question string) (*agent.Run, error) {
	return &agent.Run{ID: "run-2"}, nil
}

func (f *fakeClient) FetchArtifact(ctx context.Context, ref agent.ArtifactRef) ([]byte, error) {
	f.fetches++
	data, ok := f.artifacts[ref.FileID]
	if !ok {
		return nil, agent.Errorf(agent.KindRemote, "unknown artifact %s", ref.FileID)
	}
	return data, nil
}

func newRunner(t *testing.T, client agent.Client, outDir string) *Runner {
	t.Helper()
	return &Runner{
		Client: client,
		Store:  artifacts.NewStore(outDir),
		Log:    runlog.NewLogger(filepath.Join(t.TempDir(), "history.jsonl"), true),
		Quiet:  true,
	}
}

func writeWorkbook(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.xlsx")
	if err := os.WriteFile(path, []byte("workbook-bytes"), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunSavesArtifactsAndPreservesInput(t *testing.T) {
	dictBytes := []byte(`{"sheets":[{"name":"S","rows":1,"cols":1}]}`)
	client := &fakeClient{
		result: agent.Result{
			Text:      "TL;DR: looks healthy.",
			Artifacts: []agent.ArtifactRef{{FileID: "art-1", Filename: "data_dictionary.json"}},
		},
		artifacts: map[string][]byte{"art-1": dictBytes},
	}
	outDir := t.TempDir()
	runner := newRunner(t, client, outDir)

	input := writeWorkbook(t)
	before, _ := os.ReadFile(input)

	outcome, err := runner.Run(context.Background(), Request{
		Workbook:     input,
		Question:     "how are we doing?",
		Instructions: "analyze",
		Command:      "run",
	})
	if err != nil {
		t.Fatal(err)
	}

	if outcome.Text != "TL;DR: looks healthy." {
		t.Errorf("text = %q", outcome.Text)
	}
	if len(outcome.SavedFiles) != 1 {
		t.Fatalf("saved = %v", outcome.SavedFiles)
	}

	saved, err := os.ReadFile(filepath.Join(outDir, "data_dictionary.json"))
	if err != nil {
		t.Fatal(err)
	}
	if string(saved) != string(dictBytes) {
		t.Errorf("artifact bytes = %q", saved)
	}

	after, _ := os.ReadFile(input)
	if string(after) != string(before) {
		t.Error("input workbook was modified")
	}
}

func TestRunIsIdempotent(t *testing.T) {
	client := &fakeClient{
		result: agent.Result{
			Text:      "same every time",
			Artifacts: []agent.ArtifactRef{{FileID: "art-1", Filename: "chart.png"}},
		},
		artifacts: map[string][]byte{"art-1": []byte("png-v1")},
	}
	outDir := t.TempDir()
	runner := newRunner(t, client, outDir)
	input := writeWorkbook(t)
	req := Request{Workbook: input, Question: "q", Instructions: "i", Command: "run"}

	for i := 0; i < 2; i++ {
		if _, err := runner.Run(context.Background(), req); err != nil {
			t.Fatal(err)
		}
	}

	data, err := os.ReadFile(filepath.Join(outDir, "chart.png"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "png-v1" {
		t.Errorf("after two runs content = %q — overwrite must not append", data)
	}
}

func TestRunRemoteFailureLeavesNoArtifacts(t *testing.T) {
	client := &fakeClient{
		failAwait: agent.NewError(agent.KindRemote, "sandbox crashed"),
	}
	outDir := t.TempDir()
	runner := newRunner(t, client, outDir)

	_, err := runner.Run(context.Background(), Request{
		Workbook:     writeWorkbook(t),
		Question:     "q",
		Instructions: "i",
		Command:      "run",
	})
	if err == nil {
		t.Fatal("expected remote failure")
	}
	if !agent.IsKind(err, agent.KindRemote) {
		t.Errorf("kind = %q", agent.KindOf(err))
	}

	files, _ := os.ReadDir(outDir)
	if len(files) != 0 {
		t.Errorf("no artifacts should be written, found %d", len(files))
	}
}

func TestRunMissingWorkbookFailsBeforeUpload(t *testing.T) {
	client := &fakeClient{}
	runner := newRunner(t, client, t.TempDir())

	_, err := runner.Run(context.Background(), Request{
		Workbook:     filepath.Join(t.TempDir(), "ghost.xlsx"),
		Question:     "q",
		Instructions: "i",
		Command:      "run",
	})
	if err == nil {
		t.Fatal("expected preflight failure")
	}
	if !agent.IsKind(err, agent.KindIO) {
		t.Errorf("kind = %q, want %q", agent.KindOf(err), agent.KindIO)
	}
	if client.uploads != 0 || client.submits != 0 {
		t.Error("nothing should reach the client on preflight failure")
	}
}

func TestRunSkipArtifacts(t *testing.T) {
	client := &fakeClient{
		result: agent.Result{
			Text:      "answer only",
			Artifacts: []agent.ArtifactRef{{FileID: "art-1", Filename: "chart.png"}},
		},
		artifacts: map[string][]byte{"art-1": []byte("png")},
	}
	outDir := t.TempDir()
	runner := newRunner(t, client, outDir)

	outcome, err := runner.Run(context.Background(), Request{
		Workbook:      writeWorkbook(t),
		Question:      "q",
		Instructions:  "i",
		SkipArtifacts: true,
		Command:       "run",
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(outcome.SavedFiles) != 0 {
		t.Errorf("saved = %v, want none", outcome.SavedFiles)
	}
	if client.fetches != 0 {
		t.Error("artifacts should not be fetched when skipped")
	}
}

func TestRunRecordsHistory(t *testing.T) {
	client := &fakeClient{result: agent.Result{Text: "ok"}}
	logPath := filepath.Join(t.TempDir(), "history.jsonl")
	runner := &Runner{
		Client: client,
		Store:  artifacts.NewStore(t.TempDir()),
		Log:    runlog.NewLogger(logPath, true),
		Quiet:  true,
	}

	if _, err := runner.Run(context.Background(), Request{
		Workbook:     writeWorkbook(t),
		Question:     "q",
		Instructions: "i",
		Command:      "run",
	}); err != nil {
		t.Fatal(err)
	}

	entries, err := runlog.Read(logPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("history entries = %d", len(entries))
	}
	if entries[0].Status != "ok" || entries[0].Provider != "fake" {
		t.Errorf("entry = %+v", entries[0])
	}
}
