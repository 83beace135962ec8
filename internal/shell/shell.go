// Package shell provides the interactive sheetagent REPL: one workbook,
// uploaded once, questioned repeatedly in the same agent conversation.
package shell

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/klytics/sheetagent/internal/agent"
	"github.com/klytics/sheetagent/internal/artifacts"
	"github.com/klytics/sheetagent/internal/progress"
	"github.com/klytics/sheetagent/internal/prompt"
)

// Session manages an interactive analysis session against one workbook.
type Session struct {
	Client   agent.Client
	Workbook string
	Store    *artifacts.Store

	HistoryFile string
	StartTime   time.Time

	run       *Run
	questions []string
	pending   []agent.ArtifactRef
}

// Run aliases the agent run handle so callers only import this package.
type Run = agent.Run

// NewSession creates a session for the given workbook.
func NewSession(client agent.Client, workbook string, store *artifacts.Store) *Session {
	home, _ := os.UserHomeDir()
	histFile := filepath.Join(home, ".sheetagent", "shell_history")
	os.MkdirAll(filepath.Dir(histFile), 0755)

	return &Session{
		Client:      client,
		Workbook:    workbook,
		Store:       store,
		HistoryFile: histFile,
		StartTime:   time.Now(),
	}
}

// Start runs the REPL loop. Blocks until 'exit' or Ctrl+D.
func (s *Session) Start(ctx context.Context) error {
	completer := readline.NewPrefixCompleter(
		readline.PcItem("ask"),
		readline.PcItem("artifacts"),
		readline.PcItem("save"),
		readline.PcItem("history"),
		readline.PcItem("help"),
		readline.PcItem("exit"),
		readline.PcItem("quit"),
	)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "sheetagent> ",
		HistoryFile:     s.HistoryFile,
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	fmt.Printf("sheetagent — interactive analysis of %s\n", s.Workbook)
	fmt.Println("Type a question, 'save' to download artifacts, 'exit' to quit.")
	fmt.Println()

	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF or interrupt
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		switch {
		case line == "exit" || line == "quit":
			elapsed := time.Since(s.StartTime).Round(time.Second)
			fmt.Printf("\nSession ended. %d questions asked in %s.\n", len(s.questions), elapsed)
			return nil

		case line == "help":
			s.printHelp()

		case line == "history":
			for i, q := range s.questions {
				fmt.Printf("%3d  %s\n", i+1, q)
			}

		case line == "artifacts":
			if len(s.pending) == 0 {
				fmt.Println("No artifacts from the last answer.")
				continue
			}
			for _, a := range s.pending {
				fmt.Printf("  %s (%s)\n", a.Filename, a.FileID)
			}

		case line == "save":
			s.save(ctx)

		default:
			question := strings.TrimSpace(strings.TrimPrefix(line, "ask "))
			if err := s.ask(ctx, question); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			}
		}
	}

	return nil
}

// ask sends a question. The first question uploads the workbook and starts
// the conversation; later ones are follow-ups on the same thread.
func (s *Session) ask(ctx context.Context, question string) error {
	s.questions = append(s.questions, question)

	sp := progress.NewSpinner("Waiting for agent…")
	sp.Start()

	var (
		run *Run
		err error
	)
	if s.run == nil {
		sp.Update("Uploading " + filepath.Base(s.Workbook) + "…")
		var file agent.FileRef
		file, err = s.Client.Upload(ctx, s.Workbook)
		if err != nil {
			sp.Fail("upload failed")
			return err
		}
		sp.Update("Waiting for agent…")
		run, err = s.Client.Submit(ctx, file, prompt.Analyst(), question)
	} else {
		run, err = s.Client.Followup(ctx, s.run, question)
	}
	if err != nil {
		sp.Fail("agent request failed")
		return err
	}

	result, err := s.Client.Await(ctx, run)
	if err != nil {
		sp.Fail("agent run failed")
		return err
	}
	sp.Stop("answer received")

	s.run = run
	s.pending = result.Artifacts

	fmt.Println(result.Text)
	if len(result.Artifacts) > 0 {
		fmt.Printf("\n%d artifact(s) available — type 'save' to download.\n", len(result.Artifacts))
	}
	return nil
}

func (s *Session) save(ctx context.Context) {
	if len(s.pending) == 0 {
		fmt.Println("Nothing to save.")
		return
	}
	for _, ref := range s.pending {
		data, err := s.Client.FetchArtifact(ctx, ref)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			continue
		}
		path, err := s.Store.Save(ref.Filename, data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			continue
		}
		fmt.Printf("Saved %s\n", path)
	}
	s.pending = nil
}

func (s *Session) printHelp() {
	fmt.Println(`Commands:
  <question>   Ask the agent about the workbook
  ask <q>      Same as above
  artifacts    List files produced by the last answer
  save         Download the last answer's artifacts
  history      Show questions asked this session
  exit         Leave the shell`)
}
