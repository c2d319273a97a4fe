package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// remote forwards requests to a model server that speaks
// POST {endpoint}/predict {"model":..., "instances":[{...}]} -> {"predictions":[x]}.
type remote struct {
	info             ModelInfo
	httpClient       *http.Client
	endpoint         string
	model            string
	inputs           []string
	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
}

type remoteRequest struct {
	Model     string           `json:"model,omitempty"`
	Instances []map[string]any `json:"instances"`
}

type remoteResponse struct {
	Predictions []float64 `json:"predictions"`
}

func newRemote(a *Artifact, path string, o Options) (*remote, error) {
	if a.Endpoint == "" {
		return nil, errors.New("remote artifact has no endpoint")
	}
	u, err := url.Parse(a.Endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid endpoint %q", a.Endpoint)
	}
	model := a.Model
	if model == "" {
		model = a.Name
	}
	r := &remote{
		httpClient:       &http.Client{Timeout: o.HTTPTimeout},
		endpoint:         strings.TrimRight(a.Endpoint, "/"),
		model:            model,
		inputs:           append([]string(nil), a.Inputs...),
		retryMaxAttempts: o.RetryMax,
		retryBaseDelay:   o.BaseDelay,
		retryMaxDelay:    o.MaxDelay,
	}
	r.info = ModelInfo{
		Name:     a.Name,
		Kind:     KindRemote,
		Path:     path,
		Inputs:   r.inputs,
		Features: a.Features,
		Endpoint: r.endpoint,
	}
	return r, nil
}

func (r *remote) Info() ModelInfo { return r.info }

func (r *remote) Predict(ctx context.Context, req Request) (float64, error) {
	if err := checkInputs(r.info.Name, r.inputs); err != nil {
		return 0, err
	}
	inst := make(map[string]any, len(r.inputs))
	for _, in := range r.inputs {
		inst[in], _ = req.Value(in)
	}
	payload, err := json.Marshal(remoteRequest{Model: r.model, Instances: []map[string]any{inst}})
	if err != nil {
		return 0, fmt.Errorf("marshal request: %w", err)
	}
	endpoint := r.endpoint + "/predict"
	maxAttempts := r.retryMaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	backoff := r.retryBaseDelay
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return 0, fmt.Errorf("build request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("User-Agent", "profitscope")

		resp, err := r.httpClient.Do(httpReq)
		if err != nil {
			if isRetryableNetErr(err) && attempt < maxAttempts {
				lastErr = err
				sleepCtx(ctx, r.capDelay(withJitter(backoff)))
				backoff *= 2
				continue
			}
			return 0, &UnreachableError{Host: r.endpoint, Err: err}
		}
		value, retry, err := r.readResponse(resp)
		if err == nil {
			return value, nil
		}
		lastErr = err
		if retry == 0 || attempt == maxAttempts {
			break
		}
		if retry < 0 {
			retry = withJitter(backoff)
			backoff *= 2
		}
		sleepCtx(ctx, r.capDelay(retry))
	}
	return 0, lastErr
}

// readResponse decodes one response. retry is 0 when the error is final, a
// positive server-requested delay, or negative for default backoff.
func (r *remote) readResponse(resp *http.Response) (value float64, retry time.Duration, err error) {
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		var raw map[string]any
		_ = json.Unmarshal(body, &raw)
		apiErr := &APIError{StatusCode: resp.StatusCode, Raw: raw, RequestID: extractRequestID(resp)}
		src := raw
		if v, ok := raw["error"].(map[string]any); ok {
			src = v
		} else if s, ok := raw["error"].(string); ok {
			apiErr.Message = s
		}
		if msg, ok := src["message"].(string); ok {
			apiErr.Message = msg
		}
		if code, ok := src["code"].(string); ok {
			apiErr.Code = code
		}
		if msg, ok := raw["detail"].(string); ok && apiErr.Message == "" {
			apiErr.Message = msg
		}
		err = classifyAPIError(apiErr, resp, r.model)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			if ra := resp.Header.Get("Retry-After"); ra != "" {
				if secs, perr := parseRetryAfterSeconds(ra); perr == nil && secs > 0 {
					return 0, time.Duration(secs) * time.Second, err
				}
			}
			return 0, -1, err
		}
		return 0, 0, err
	}
	var out remoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, 0, &PredictionError{Model: r.model, Reason: "decode response", Err: err}
	}
	if len(out.Predictions) != 1 {
		return 0, 0, &PredictionError{Model: r.model, Reason: fmt.Sprintf("expected 1 prediction, got %d", len(out.Predictions))}
	}
	return out.Predictions[0], 0, nil
}

func (r *remote) capDelay(d time.Duration) time.Duration {
	if r.retryMaxDelay > 0 && d > r.retryMaxDelay {
		return r.retryMaxDelay
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func isRetryableNetErr(err error) bool {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}
	return errors.Is(err, io.EOF)
}

// parseRetryAfterSeconds interprets a Retry-After value as seconds or an HTTP date.
func parseRetryAfterSeconds(v string) (int, error) {
	if s, err := strconv.Atoi(v); err == nil {
		return s, nil
	}
	if t, err := http.ParseTime(v); err == nil {
		d := time.Until(t)
		if d < 0 {
			d = 0
		}
		return int(d.Seconds()), nil
	}
	return 0, fmt.Errorf("invalid Retry-After: %q", v)
}

// extractRequestID pulls a best-effort request ID from common headers.
func extractRequestID(resp *http.Response) string {
	for _, k := range []string{"X-Request-Id", "X-Amzn-Requestid", "X-Correlation-Id"} {
		if v := resp.Header.Get(k); v != "" {
			return v
		}
	}
	return ""
}

// withJitter returns a backoff duration with +/- 20% jitter applied.
func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 500 * time.Millisecond
	}
	f := 0.8 + rand.Float64()*0.4
	out := time.Duration(float64(d) * f)
	if out <= 0 {
		return d
	}
	return out
}
