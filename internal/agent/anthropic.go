package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

const (
	anthropicBaseURL      = "https://api.anthropic.com/v1"
	anthropicAPIVersion   = "2023-06-01"
	anthropicBetaFeatures = "code-execution-2025-05-22,files-api-2025-04-14"
	defaultClaudeModel    = "claude-sonnet-4-20250514"
	anthropicMaxTokens    = 8192
)

// anthropicClient drives the Anthropic Messages API with the code execution
// tool. The messages call is synchronous, so Submit already yields the
// terminal result and Await just hands it back.
type anthropicClient struct {
	apiKey  string
	model   string
	baseURL string
	opts    Options
	client  *http.Client
}

func newAnthropicClient(apiKey, model string, opts Options) *anthropicClient {
	if model == "" {
		model = defaultClaudeModel
	}
	baseURL := anthropicBaseURL
	if opts.BaseURL != "" {
		baseURL = opts.BaseURL
	}
	return &anthropicClient{
		apiKey:  apiKey,
		model:   model,
		baseURL: baseURL,
		opts:    opts,
		client:  opts.HTTPClient,
	}
}

// Name returns the backend identifier.
func (c *anthropicClient) Name() string { return "anthropic" }

// Upload sends the workbook to the Files API so the code execution
// container can mount it.
func (c *anthropicClient) Upload(ctx context.Context, path string) (FileRef, error) {
	f, err := os.Open(path)
	if err != nil {
		return FileRef{}, WrapError(KindIO, fmt.Sprintf("could not read workbook %s", path), err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return FileRef{}, WrapError(KindUpload, "could not build upload form", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return FileRef{}, WrapError(KindIO, fmt.Sprintf("could not read workbook %s", path), err)
	}
	if err := mw.Close(); err != nil {
		return FileRef{}, WrapError(KindUpload, "could not build upload form", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/files", &buf)
	if err != nil {
		return FileRef{}, WrapError(KindUpload, "could not create upload request", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var uploaded struct {
		ID        string `json:"id"`
		Filename  string `json:"filename"`
		SizeBytes int64  `json:"size_bytes"`
	}
	if err := c.do(req, &uploaded); err != nil {
		return FileRef{}, WrapError(KindUpload, "file upload failed", err)
	}
	return FileRef{ID: uploaded.ID, Name: uploaded.Filename, Size: uploaded.SizeBytes}, nil
}

type anthropicContentBlock struct {
	Type   string `json:"type"`
	Text   string `json:"text,omitempty"`
	FileID string `json:"file_id,omitempty"`
	// Content carries nested blocks on code_execution_tool_result.
	Content json.RawMessage `json:"content,omitempty"`
}

type anthropicMessage struct {
	Role    string                  `json:"role"`
	Content []anthropicContentBlock `json:"content"`
}

type anthropicResponse struct {
	Content    []anthropicContentBlock `json:"content"`
	Model      string                  `json:"model"`
	StopReason string                  `json:"stop_reason"`
	Error      *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Submit sends the instructions, question, and uploaded workbook in a single
// messages call with the code execution tool enabled.
func (c *anthropicClient) Submit(ctx context.Context, file FileRef, instructions, question string) (*Run, error) {
	userBlocks := []anthropicContentBlock{
		{Type: "text", Text: question},
		{Type: "container_upload", FileID: file.ID},
	}
	messages := []anthropicMessage{{Role: "user", Content: userBlocks}}

	result, err := c.converse(ctx, instructions, messages)
	if err != nil {
		return nil, err
	}

	run := &Run{
		ID:     fmt.Sprintf("run_%d", time.Now().UnixNano()),
		done:   result,
		file:   file,
		system: instructions,
	}
	run.history = append(run.history, turn{role: "user", text: question})
	run.history = append(run.history, turn{role: "assistant", text: result.Text})
	return run, nil
}

// Followup replays the conversation so far with the new question appended.
// The workbook stays attached to the first user turn.
func (c *anthropicClient) Followup(ctx context.Context, run *Run, question string) (*Run, error) {
	if run == nil || len(run.history) == 0 {
		return nil, NewError(KindRemote, "no active conversation to follow up on")
	}

	messages := make([]anthropicMessage, 0, len(run.history)+1)
	for i, t := range run.history {
		blocks := []anthropicContentBlock{{Type: "text", Text: t.text}}
		if i == 0 && run.file.ID != "" {
			blocks = append(blocks, anthropicContentBlock{Type: "container_upload", FileID: run.file.ID})
		}
		messages = append(messages, anthropicMessage{Role: t.role, Content: blocks})
	}
	messages = append(messages, anthropicMessage{
		Role:    "user",
		Content: []anthropicContentBlock{{Type: "text", Text: question}},
	})

	result, err := c.converse(ctx, run.system, messages)
	if err != nil {
		return nil, err
	}

	next := &Run{
		ID:     fmt.Sprintf("run_%d", time.Now().UnixNano()),
		done:   result,
		file:   run.file,
		system: run.system,
	}
	next.history = append(next.history, run.history...)
	next.history = append(next.history, turn{role: "user", text: question})
	next.history = append(next.history, turn{role: "assistant", text: result.Text})
	return next, nil
}

func (c *anthropicClient) converse(ctx context.Context, system string, messages []anthropicMessage) (*Result, error) {
	payload := map[string]any{
		"model":      c.model,
		"max_tokens": anthropicMaxTokens,
		"system":     system,
		"messages":   messages,
		"tools": []map[string]string{
			{"type": "code_execution_20250522", "name": "code_execution"},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, WrapError(KindRemote, "could not marshal request", err)
	}
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return nil, WrapError(KindRemote, "could not create request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var resp anthropicResponse
	if err := c.do(req, &resp); err != nil {
		return nil, WrapError(KindRemote, "agent request failed", err)
	}
	if resp.Error != nil {
		return nil, Errorf(KindRemote, "API error: %s", resp.Error.Message)
	}
	return c.parse(&resp)
}

// codeExecutionOutput is the nested shape inside code_execution_tool_result
// blocks: stdout, stderr, return code, and any files written by the sandbox.
type codeExecutionOutput struct {
	Type       string `json:"type"`
	Stderr     string `json:"stderr"`
	ReturnCode int    `json:"return_code"`
	Content    []struct {
		Type     string `json:"type"`
		FileID   string `json:"file_id"`
		Filename string `json:"filename"`
	} `json:"content"`
}

func (c *anthropicClient) parse(resp *anthropicResponse) (*Result, error) {
	result := &Result{Model: resp.Model}

	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			if result.Text != "" {
				result.Text += "\n"
			}
			result.Text += block.Text
		case "code_execution_tool_result":
			var out codeExecutionOutput
			if err := json.Unmarshal(block.Content, &out); err != nil {
				continue
			}
			if out.Type == "code_execution_result" && out.ReturnCode != 0 {
				return nil, Errorf(KindRemote, "sandbox execution failed (exit %d): %s", out.ReturnCode, out.Stderr)
			}
			for _, f := range out.Content {
				if f.FileID == "" {
					continue
				}
				name := f.Filename
				if name == "" {
					name = f.FileID
				}
				result.Artifacts = append(result.Artifacts, ArtifactRef{FileID: f.FileID, Filename: name})
			}
		}
	}

	if result.Text == "" && len(result.Artifacts) == 0 {
		return nil, NewError(KindRemote, "agent returned no output")
	}
	return result, nil
}

// Await returns the result captured at submit time; the messages call is
// synchronous so there is nothing to poll.
func (c *anthropicClient) Await(ctx context.Context, run *Run) (*Result, error) {
	if run == nil || run.done == nil {
		return nil, NewError(KindRemote, "run has no result")
	}
	return run.done, nil
}

// FetchArtifact downloads a sandbox-produced file from the Files API.
func (c *anthropicClient) FetchArtifact(ctx context.Context, ref ArtifactRef) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/files/"+ref.FileID+"/content", nil)
	if err != nil {
		return nil, WrapError(KindRemote, "could not create download request", err)
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, WrapError(KindRemote, fmt.Sprintf("download of %s failed", ref.Filename), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, WrapError(KindRemote, fmt.Sprintf("download of %s failed", ref.Filename), err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, WrapError(KindRemote, fmt.Sprintf("download of %s failed", ref.Filename),
			statusErr("fetch artifact", resp.StatusCode, body))
	}
	return body, nil
}

func (c *anthropicClient) setHeaders(req *http.Request) {
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicAPIVersion)
	req.Header.Set("anthropic-beta", anthropicBetaFeatures)
}

// do executes the request, retrying rate limits and server errors with
// exponential backoff.
func (c *anthropicClient) do(req *http.Request, out any) error {
	var bodyBytes []byte
	if req.Body != nil {
		var err error
		bodyBytes, err = io.ReadAll(req.Body)
		if err != nil {
			return fmt.Errorf("could not buffer request body: %w", err)
		}
	}
	c.setHeaders(req)

	var lastErr error
	for attempt := 0; attempt < maxHTTPRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(math.Pow(2, float64(attempt))) * time.Second)
		}
		if bodyBytes != nil {
			req.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("could not read response: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = statusErr(req.Method+" "+req.URL.Path, resp.StatusCode, respBody)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return statusErr(req.Method+" "+req.URL.Path, resp.StatusCode, respBody)
		}

		if out == nil {
			return nil
		}
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("could not parse response: %w", err)
		}
		return nil
	}
	return lastErr
}
