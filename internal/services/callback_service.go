package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"

	"tripchat/pkg/utils"
)

// CallbackError carries the failure detail delivered to the caller.
type CallbackError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// callbackPayload is the wire shape posted to the caller's endpoint.
type callbackPayload struct {
	Status string         `json:"status"`
	Data   interface{}    `json:"data,omitempty"`
	Error  *CallbackError `json:"error,omitempty"`
}

type CallbackConfig struct {
	Token          string
	TimeoutSeconds int
	MaxRetries     int
	BackoffBase    time.Duration
	BackoffMax     time.Duration
}

func NewCallbackConfigFromEnv() CallbackConfig {
	return CallbackConfig{
		Token:          utils.GetEnv("CALLBACK_TOKEN", ""),
		TimeoutSeconds: utils.GetEnvInt("CALLBACK_TIMEOUT_SECONDS", 10),
		MaxRetries:     utils.GetEnvInt("CALLBACK_MAX_RETRIES", 2),
		BackoffBase:    time.Duration(utils.GetEnvFloat("CALLBACK_BACKOFF_BASE_SECONDS", 0.5) * float64(time.Second)),
		BackoffMax:     time.Duration(utils.GetEnvFloat("CALLBACK_BACKOFF_MAX_SECONDS", 5.0) * float64(time.Second)),
	}
}

type CallbackServiceInterface interface {
	// DeliverSuccess posts {"status": "SUCCESS", "data": ...} to the callback
	// URL. Returns false when delivery failed permanently.
	DeliverSuccess(ctx context.Context, callbackURL string, data interface{}) bool

	// DeliverFailure posts {"status": "FAILED", "error": ...}.
	DeliverFailure(ctx context.Context, callbackURL string, cbErr CallbackError) bool
}

type CallbackService struct {
	client *http.Client
	config CallbackConfig
}

func NewCallbackService(config CallbackConfig) CallbackServiceInterface {
	return &CallbackService{
		client: &http.Client{Timeout: time.Duration(config.TimeoutSeconds) * time.Second},
		config: config,
	}
}

func (s *CallbackService) DeliverSuccess(ctx context.Context, callbackURL string, data interface{}) bool {
	return s.deliver(ctx, callbackURL, callbackPayload{Status: "SUCCESS", Data: data})
}

func (s *CallbackService) DeliverFailure(ctx context.Context, callbackURL string, cbErr CallbackError) bool {
	return s.deliver(ctx, callbackURL, callbackPayload{Status: "FAILED", Error: &cbErr})
}

// isRetryableStatus reports whether an HTTP status is worth another attempt.
// Timeouts and connection errors never reach here; they are always retried.
func isRetryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

func (s *CallbackService) deliver(ctx context.Context, callbackURL string, payload callbackPayload) bool {
	parsed, err := url.Parse(callbackURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		log.Printf("Callback URL is malformed, giving up: %s", callbackURL)
		return false
	}

	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Callback payload could not be encoded: %v", err)
		return false
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = s.config.BackoffBase
	policy.MaxInterval = s.config.BackoffMax
	policy.RandomizationFactor = 0
	policy.Multiplier = 2

	attempts := uint64(s.config.MaxRetries)
	retrier := backoff.WithContext(backoff.WithMaxRetries(policy, attempts), ctx)

	attempt := 0
	operation := func() error {
		attempt++
		err := s.post(ctx, callbackURL, body)
		if err == nil {
			if attempt > 1 {
				log.Printf("Callback succeeded after retry: attempt=%d url=%s", attempt, callbackURL)
			}
			return nil
		}
		if permanent, ok := err.(*backoff.PermanentError); ok {
			return permanent
		}
		log.Printf("Callback delivery failed, retrying: attempt=%d url=%s error=%v", attempt, callbackURL, err)
		return err
	}

	if err := backoff.Retry(operation, retrier); err != nil {
		log.Printf("Callback delivery failed permanently: attempts=%d url=%s error=%v", attempt, callbackURL, err)
		return false
	}
	return true
}

func (s *CallbackService) post(ctx context.Context, callbackURL string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, callbackURL, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.config.Token != "" {
		req.Header.Set("X-Callback-Token", s.config.Token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		// Timeouts and connection errors are transient.
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	statusErr := fmt.Errorf("callback endpoint returned %d", resp.StatusCode)
	if isRetryableStatus(resp.StatusCode) {
		return statusErr
	}
	return backoff.Permanent(statusErr)
}
