package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/hbpc002/log-lottery/internal/platform/correlation"
	apperrors "github.com/hbpc002/log-lottery/internal/platform/errors"
	"github.com/hbpc002/log-lottery/internal/platform/retry"
	"github.com/hbpc002/log-lottery/internal/platform/version"
)

const submitPath = "/api/submit-person"

type submitter struct {
	client   *http.Client
	endpoint string
	policy   retry.Policy
}

func newSubmitter(client *http.Client, baseURL string, policy retry.Policy) *submitter {
	return &submitter{client: client, endpoint: baseURL + submitPath, policy: policy}
}

// submit posts p, retrying transient failures. The error wraps a *retry.StatusError
// when the server answered with a non-200 status.
func (s *submitter) submit(ctx context.Context, p person) (string, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal submission: %w", err)
	}

	return retry.Do(ctx, s.policy, retry.ClassifyHTTP, func(ctx context.Context) (string, error) {
		return s.post(ctx, body)
	})
}

func (s *submitter) post(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.UserAgent("loadgen"))
	req.Header.Set(correlation.Header, correlation.NewID())

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("post submission: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var envelope apperrors.Response
	msg := string(raw)
	if json.Unmarshal(raw, &envelope) == nil && envelope.Msg != "" {
		msg = envelope.Msg
	}

	if resp.StatusCode != http.StatusOK {
		return "", &retry.StatusError{StatusCode: resp.StatusCode, Body: msg}
	}
	return msg, nil
}

func isDuplicate(err error) bool {
	var statusErr *retry.StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusConflict
}
