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
	openaiBaseURL      = "https://api.openai.com/v1"
	openaiBetaHeader   = "assistants=v2"
	defaultOpenAIModel = "gpt-4.1"
	maxHTTPRetries     = 3
)

// openaiClient drives the OpenAI Assistants API with the code interpreter
// tool: file upload, thread + run creation, run polling, and artifact
// content download.
type openaiClient struct {
	apiKey  string
	model   string
	baseURL string
	opts    Options
	client  *http.Client
}

func newOpenAIClient(apiKey, model string, opts Options) *openaiClient {
	if model == "" {
		model = defaultOpenAIModel
	}
	baseURL := openaiBaseURL
	if opts.BaseURL != "" {
		baseURL = opts.BaseURL
	}
	return &openaiClient{
		apiKey:  apiKey,
		model:   model,
		baseURL: baseURL,
		opts:    opts,
		client:  opts.HTTPClient,
	}
}

// Name returns the backend identifier.
func (c *openaiClient) Name() string { return "openai" }

type openaiFile struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Bytes    int64  `json:"bytes"`
}

type openaiErrorBody struct {
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Upload sends the workbook bytes as a multipart form with the
// "assistants" purpose so the code interpreter container can read it.
func (c *openaiClient) Upload(ctx context.Context, path string) (FileRef, error) {
	f, err := os.Open(path)
	if err != nil {
		return FileRef{}, WrapError(KindIO, fmt.Sprintf("could not read workbook %s", path), err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("purpose", "assistants"); err != nil {
		return FileRef{}, WrapError(KindUpload, "could not build upload form", err)
	}
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

	var uploaded openaiFile
	if err := c.do(req, &uploaded); err != nil {
		return FileRef{}, WrapError(KindUpload, "file upload failed", err)
	}

	return FileRef{ID: uploaded.ID, Name: uploaded.Filename, Size: uploaded.Bytes}, nil
}

// Submit creates an assistant with the code interpreter tool, a thread with
// the user's question and attached workbook, and starts a run.
func (c *openaiClient) Submit(ctx context.Context, file FileRef, instructions, question string) (*Run, error) {
	assistant := map[string]any{
		"name":         "Spreadsheet Analyst",
		"model":        c.model,
		"instructions": instructions,
		"tools":        []map[string]string{{"type": "code_interpreter"}},
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := c.postJSON(ctx, "/assistants", assistant, &created); err != nil {
		return nil, WrapError(KindRemote, "could not create assistant", err)
	}

	var thread struct {
		ID string `json:"id"`
	}
	if err := c.postJSON(ctx, "/threads", map[string]any{}, &thread); err != nil {
		return nil, WrapError(KindRemote, "could not create thread", err)
	}

	if err := c.addMessage(ctx, thread.ID, question, &file); err != nil {
		return nil, err
	}

	run, err := c.startRun(ctx, thread.ID, created.ID)
	if err != nil {
		return nil, err
	}
	run.file = file
	return run, nil
}

// Followup adds another user message to the run's thread and starts a new
// run with the same assistant.
func (c *openaiClient) Followup(ctx context.Context, run *Run, question string) (*Run, error) {
	if run == nil || run.Thread == "" {
		return nil, NewError(KindRemote, "no active thread to follow up on")
	}
	if err := c.addMessage(ctx, run.Thread, question, nil); err != nil {
		return nil, err
	}
	next, err := c.startRun(ctx, run.Thread, run.assistant)
	if err != nil {
		return nil, err
	}
	next.file = run.file
	return next, nil
}

func (c *openaiClient) addMessage(ctx context.Context, threadID, question string, file *FileRef) error {
	message := map[string]any{
		"role":    "user",
		"content": question,
	}
	if file != nil {
		message["attachments"] = []map[string]any{{
			"file_id": file.ID,
			"tools":   []map[string]string{{"type": "code_interpreter"}},
		}}
	}
	if err := c.postJSON(ctx, "/threads/"+threadID+"/messages", message, nil); err != nil {
		return WrapError(KindRemote, "could not post message", err)
	}
	return nil
}

func (c *openaiClient) startRun(ctx context.Context, threadID, assistantID string) (*Run, error) {
	var started struct {
		ID          string `json:"id"`
		AssistantID string `json:"assistant_id"`
	}
	body := map[string]any{"assistant_id": assistantID}
	if err := c.postJSON(ctx, "/threads/"+threadID+"/runs", body, &started); err != nil {
		return nil, WrapError(KindRemote, "could not start run", err)
	}
	return &Run{ID: started.ID, Thread: threadID, assistant: assistantID}, nil
}

type openaiRunStatus struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	Model     string `json:"model"`
	LastError *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"last_error"`
}

// Await polls the run until it reaches a terminal status, then collects the
// assistant's messages for text output and artifact references.
func (c *openaiClient) Await(ctx context.Context, run *Run) (*Result, error) {
	if run.done != nil {
		return run.done, nil
	}

	deadline := time.Now().Add(c.opts.Timeout)
	ticker := time.NewTicker(c.opts.PollInterval)
	defer ticker.Stop()

	for {
		var status openaiRunStatus
		if err := c.getJSON(ctx, "/threads/"+run.Thread+"/runs/"+run.ID, &status); err != nil {
			return nil, WrapError(KindRemote, "could not poll run", err)
		}

		switch status.Status {
		case "completed":
			return c.collect(ctx, run, status.Model)
		case "failed", "cancelled", "expired", "incomplete":
			msg := "run " + status.Status
			if status.LastError != nil {
				msg = fmt.Sprintf("run %s: %s (%s)", status.Status, status.LastError.Message, status.LastError.Code)
			}
			return nil, NewError(KindRemote, msg)
		}

		if time.Now().After(deadline) {
			return nil, Errorf(KindRemote, "run did not finish within %s", c.opts.Timeout)
		}

		select {
		case <-ctx.Done():
			return nil, WrapError(KindRemote, "run interrupted", ctx.Err())
		case <-ticker.C:
		}
	}
}

type openaiMessageList struct {
	Data []struct {
		Role    string `json:"role"`
		Content []struct {
			Type string `json:"type"`
			Text *struct {
				Value       string `json:"value"`
				Annotations []struct {
					Type     string `json:"type"`
					Text     string `json:"text"`
					FilePath *struct {
						FileID string `json:"file_id"`
					} `json:"file_path"`
				} `json:"annotations"`
			} `json:"text"`
			ImageFile *struct {
				FileID string `json:"file_id"`
			} `json:"image_file"`
		} `json:"content"`
	} `json:"data"`
}

func (c *openaiClient) collect(ctx context.Context, run *Run, model string) (*Result, error) {
	var msgs openaiMessageList
	path := "/threads/" + run.Thread + "/messages?run_id=" + run.ID + "&order=asc"
	if err := c.getJSON(ctx, path, &msgs); err != nil {
		return nil, WrapError(KindRemote, "could not fetch run output", err)
	}

	result := &Result{Model: model}
	imageCount := 0
	for _, m := range msgs.Data {
		if m.Role != "assistant" {
			continue
		}
		for _, block := range m.Content {
			switch {
			case block.Text != nil:
				if result.Text != "" {
					result.Text += "\n"
				}
				result.Text += block.Text.Value
				for _, ann := range block.Text.Annotations {
					if ann.FilePath == nil {
						continue
					}
					result.Artifacts = append(result.Artifacts, ArtifactRef{
						FileID:   ann.FilePath.FileID,
						Filename: filepath.Base(ann.Text),
					})
				}
			case block.ImageFile != nil:
				imageCount++
				result.Artifacts = append(result.Artifacts, ArtifactRef{
					FileID:   block.ImageFile.FileID,
					Filename: fmt.Sprintf("chart_%d.png", imageCount),
				})
			}
		}
	}

	if result.Text == "" && len(result.Artifacts) == 0 {
		return nil, NewError(KindRemote, "run completed but produced no output")
	}
	return result, nil
}

// FetchArtifact downloads the raw bytes of a sandbox-produced file.
func (c *openaiClient) FetchArtifact(ctx context.Context, ref ArtifactRef) ([]byte, error) {
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

func (c *openaiClient) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("OpenAI-Beta", openaiBetaHeader)
}

func (c *openaiClient) postJSON(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("could not marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *openaiClient) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("could not create request: %w", err)
	}
	return c.do(req, out)
}

// do executes the request, retrying on rate limits and server errors with
// exponential backoff. Request bodies are buffered so retries can replay.
func (c *openaiClient) do(req *http.Request, out any) error {
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
			var apiErr openaiErrorBody
			if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != nil {
				return fmt.Errorf("API error: %s", apiErr.Error.Message)
			}
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
