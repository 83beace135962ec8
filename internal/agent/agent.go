// Package agent provides a unified client for remote AI agent services that
// execute analysis code against an uploaded workbook in a sandboxed container.
package agent

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

// FileRef identifies a workbook uploaded to the remote service.
type FileRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Size int64  `json:"size,omitempty"`
}

// ArtifactRef identifies a file the agent produced inside its sandbox.
type ArtifactRef struct {
	FileID   string `json:"fileId"`
	Filename string `json:"filename"`
}

// Result holds the terminal output of an agent run.
type Result struct {
	Text      string        `json:"text"`
	Artifacts []ArtifactRef `json:"artifacts,omitempty"`
	Model     string        `json:"model,omitempty"`
}

// Run is a handle to a submitted agent run. Fields are backend-specific;
// synchronous backends may carry the terminal result directly.
type Run struct {
	ID     string
	Thread string

	// done is set by backends whose Submit call is itself terminal.
	done *Result
	// assistant is the OpenAI assistant bound to this run's thread.
	assistant string
	// system is the analyst briefing, replayed on synchronous follow-ups.
	system string
	// history carries the conversation for follow-up questions on
	// backends without a server-side thread.
	history []turn
	file    FileRef
}

type turn struct {
	role string
	text string
}

// Client is the capability set every agent backend must implement.
type Client interface {
	// Name returns the backend identifier.
	Name() string

	// Upload transfers a local file to the service's sandbox storage.
	Upload(ctx context.Context, path string) (FileRef, error)

	// Submit starts a run bound to the uploaded file. instructions is the
	// system-level analyst briefing; question is the user's message.
	Submit(ctx context.Context, file FileRef, instructions, question string) (*Run, error)

	// Await blocks until the run reaches a terminal state.
	Await(ctx context.Context, run *Run) (*Result, error)

	// Followup sends another question on the same run's conversation.
	Followup(ctx context.Context, run *Run, question string) (*Run, error)

	// FetchArtifact downloads the bytes of a produced file.
	FetchArtifact(ctx context.Context, ref ArtifactRef) ([]byte, error)
}

// Options tunes a backend client.
type Options struct {
	// BaseURL overrides the service endpoint. Used by tests.
	BaseURL string
	// PollInterval is the delay between run status checks.
	PollInterval time.Duration
	// Timeout bounds the whole Await phase.
	Timeout time.Duration
	// HTTPClient overrides the transport. Used by tests.
	HTTPClient *http.Client
}

const (
	defaultPollInterval = 2 * time.Second
	defaultAwaitTimeout = 10 * time.Minute
)

func (o *Options) fill() {
	if o.PollInterval <= 0 {
		o.PollInterval = defaultPollInterval
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultAwaitTimeout
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Timeout: 120 * time.Second}
	}
}

// New creates a backend client for the named provider.
func New(provider, model, apiKey string, opts Options) (Client, error) {
	opts.fill()

	switch strings.ToLower(provider) {
	case "openai":
		if apiKey == "" {
			return nil, NewError(KindConfiguration, "no OpenAI API key — pass --api-key or set OPENAI_API_KEY")
		}
		return newOpenAIClient(apiKey, model, opts), nil
	case "anthropic":
		if apiKey == "" {
			return nil, NewError(KindConfiguration, "no Anthropic API key — pass --api-key or set ANTHROPIC_API_KEY")
		}
		return newAnthropicClient(apiKey, model, opts), nil
	default:
		return nil, Errorf(KindConfiguration, "unknown agent provider %q — supported providers: openai, anthropic", provider)
	}
}

// ResolveAPIKey picks the credential for a provider: explicit flag value
// first, then the provider's environment variable, then the config value.
func ResolveAPIKey(provider, flagValue, configValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}

	var envVar string
	switch strings.ToLower(provider) {
	case "openai":
		envVar = "OPENAI_API_KEY"
	case "anthropic":
		envVar = "ANTHROPIC_API_KEY"
	default:
		return "", Errorf(KindConfiguration, "unknown agent provider %q", provider)
	}

	if v := os.Getenv(envVar); v != "" {
		return v, nil
	}
	if configValue != "" {
		return configValue, nil
	}
	return "", Errorf(KindConfiguration, "no API key for provider %s — pass --api-key, set %s, or add it to the config file", provider, envVar)
}

// statusErr formats a non-2xx HTTP response into a readable message.
func statusErr(op string, status int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	if len(msg) > 512 {
		msg = msg[:512] + "…"
	}
	return fmt.Errorf("%s: API returned status %d: %s", op, status, msg)
}
