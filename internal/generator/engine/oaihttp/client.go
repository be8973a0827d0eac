package oaihttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/yungbote/promptgen-backend/internal/config"
	"github.com/yungbote/promptgen-backend/internal/generator/engine"
)

const (
	modeNone       = "none"
	modeAuto       = "auto"
	modeGuided     = "guided_json"
	modeStructured = "json_schema"
	modePrompt     = "prompt"

	defaultCompletionsPath = "/v1/chat/completions"
	maxErrorBody           = 1 << 20
)

// Engine posts dialogue prompts to an OpenAI-compatible chat completions
// endpoint. It is safe for concurrent use.
type Engine struct {
	endpoint     string
	apiKey       string
	defaultModel string
	maxTokens    int

	callTimeout time.Duration
	retryDelay  time.Duration

	schema schemaPolicy

	hc *http.Client
}

// schemaPolicy decides how structured output is requested on each attempt.
type schemaPolicy struct {
	mode           string
	extraAttempts  int
	maxPromptBytes int
}

func New(cfg config.GeneratorConfig) (*Engine, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("oai_http: base_url required")
	}
	path := strings.TrimSpace(cfg.ChatCompletionsPath)
	if path == "" {
		path = defaultCompletionsPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	e := &Engine{
		endpoint:     base + path,
		apiKey:       strings.TrimSpace(cfg.APIKey),
		defaultModel: strings.TrimSpace(cfg.Model),
		maxTokens:    cfg.MaxTokens,
		callTimeout:  cfg.Timeout.Duration,
		retryDelay:   250 * time.Millisecond,
		schema:       newSchemaPolicy(cfg.JSONSchema),
		hc:           &http.Client{Transport: newTransport()},
	}
	if e.callTimeout <= 0 {
		e.callTimeout = 60 * time.Second
	}
	return e, nil
}

// NewWithHTTPClient swaps the transport, mostly so tests can stub the upstream.
func NewWithHTTPClient(cfg config.GeneratorConfig, hc *http.Client) (*Engine, error) {
	e, err := New(cfg)
	if err != nil {
		return nil, err
	}
	if hc != nil {
		e.hc = hc
	}
	return e, nil
}

func newTransport() *http.Transport {
	dialer := &net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          32,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 2 * time.Minute,
	}
}

func newSchemaPolicy(cfg config.JSONSchemaConfig) schemaPolicy {
	p := schemaPolicy{
		mode:           strings.ToLower(strings.TrimSpace(cfg.Mode)),
		extraAttempts:  cfg.MaxRetries,
		maxPromptBytes: cfg.MaxPromptBytes,
	}
	if p.mode == "" {
		p.mode = modeAuto
	}
	if p.extraAttempts < 0 {
		p.extraAttempts = 0
	}
	if p.maxPromptBytes <= 0 {
		p.maxPromptBytes = 64 << 10
	}
	return p
}

// attempts is the total number of calls allowed for one generation. The same
// budget covers retryable upstream statuses on every call and invalid JSON on
// strict schema calls.
func (p schemaPolicy) attempts() int {
	return 1 + p.extraAttempts
}

// native reports whether the schema travels in the request body on this attempt.
// In auto mode only the first attempt does; later ones fall back to a prompt.
func (p schemaPolicy) native(attempt int) bool {
	switch p.mode {
	case modeGuided, modeStructured:
		return true
	case modeAuto:
		return attempt == 0
	}
	return false
}

func (p schemaPolicy) prompted(attempt int) bool {
	return p.mode == modePrompt || (p.mode == modeAuto && attempt > 0)
}

// GenerateText runs one completion. Strict schema requests are checked for
// well-formed JSON and retried; upstream 429 and 5xx answers are retried after
// a short pause. Any other HTTP failure and refusals return immediately.
func (e *Engine) GenerateText(ctx context.Context, model string, messages []engine.Message, opts engine.GenerateOptions) (string, error) {
	msgs := toWire(messages)
	if len(msgs) == 0 {
		return "", errors.New("oai_http: no messages")
	}
	if strings.TrimSpace(model) == "" {
		model = e.defaultModel
	}

	total := e.schema.attempts()
	var lastErr error
	for attempt := 0; attempt < total; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		out, retry, err := e.attempt(ctx, e.buildRequest(model, msgs, opts, attempt), opts.JSONSchema)
		if err == nil {
			return out, nil
		}
		if !retry {
			return "", err
		}
		lastErr = err

		var he *HTTPError
		if errors.As(err, &he) && attempt+1 < total {
			if werr := e.pause(ctx, attempt); werr != nil {
				return "", werr
			}
		}
	}
	if lastErr == nil {
		lastErr = errors.New("oai_http: generation failed")
	}
	return "", lastErr
}

// attempt performs a single round trip and reports whether a failure is worth
// another try.
func (e *Engine) attempt(ctx context.Context, req completionRequest, schema *engine.JSONSchema) (string, bool, error) {
	var resp completionResponse
	if err := e.post(ctx, req, &resp); err != nil {
		var he *HTTPError
		if errors.As(err, &he) {
			return "", he.Retryable(), err
		}
		return "", ctx.Err() == nil && !errors.Is(err, context.DeadlineExceeded), err
	}
	if reason := resp.refusal(); reason != "" {
		return "", false, &RefusalError{Reason: reason}
	}
	text := resp.text()
	if strings.TrimSpace(text) == "" {
		return "", true, ErrEmptyCompletion
	}
	if schema == nil || !schema.Strict {
		return text, false, nil
	}
	clean := stripFences(text)
	if err := checkJSON(clean); err != nil {
		return "", true, err
	}
	return clean, false, nil
}

func (e *Engine) pause(ctx context.Context, attempt int) error {
	t := time.NewTimer(e.retryDelay * time.Duration(attempt+1))
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (e *Engine) post(ctx context.Context, body completionRequest, out *completionResponse) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}

	callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, e.endpoint, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
