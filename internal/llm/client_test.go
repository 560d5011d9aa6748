package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completion(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": content}}},
	})
	return string(b)
}

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *[]time.Duration) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c := New(Config{APIKey: "sk-test", BaseURL: srv.URL + "/", RetryBackoff: time.Second}, nil)
	var waits []time.Duration
	c.sleep = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	return c, &waits
}

func TestGenerate(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req Request
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, DefaultModel, req.Model)
		assert.Equal(t, DefaultMaxTokens, req.MaxTokens)
		assert.InDelta(t, DefaultTemperature, req.Temperature, 1e-9)
		if assert.Len(t, req.Messages, 2) {
			assert.Contains(t, req.Messages[1].Content, "in the healthcare industry")
			assert.Contains(t, req.Messages[1].Content, "lineItem5Amount")
		}

		_, _ = io.WriteString(w, completion("```json\n{\"companyName\": \"Acme\", \"tax\": \"$$8.50\", \"lineItem1Qty\": 3}\n```"))
	})

	fields, err := c.Generate(context.Background(), "healthcare", "")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"companyName": "Acme", "tax": "$8.50", "lineItem1Qty": "3"}, fields)
}

func TestRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c, waits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = io.WriteString(w, completion(`{"poNumber":"PO-123456"}`))
	})

	fields, err := c.Generate(context.Background(), "", "")
	require.NoError(t, err)
	assert.Equal(t, "PO-123456", fields["poNumber"])
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *waits)
}

func TestClientErrorsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":{"message":"bad key"}}`)
	})

	_, err := c.Generate(context.Background(), "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad key")
	assert.Equal(t, int32(1), calls.Load())
}

func TestForwardReturnsFinalServerError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, `{"error":{"message":"upstream"}}`)
	})

	status, body, err := c.Forward(context.Background(), []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, status)
	assert.JSONEq(t, `{"error":{"message":"upstream"}}`, string(body))
}

func TestForwardRunsConcurrently(t *testing.T) {
	const callers = 3
	var arrived atomic.Int32
	together := make(chan struct{})
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if arrived.Add(1) == callers {
			close(together)
		}
		select {
		case <-together:
			_, _ = io.WriteString(w, `{}`)
		case <-time.After(5 * time.Second):
			w.WriteHeader(http.StatusGatewayTimeout)
		}
	})
	c.cfg.MaxRetries = 1

	statuses := make(chan int, callers)
	var wg sync.WaitGroup
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			status, _, err := c.Forward(context.Background(), []byte(`{}`))
			assert.NoError(t, err)
			statuses <- status
		}()
	}
	wg.Wait()
	close(statuses)

	for status := range statuses {
		assert.Equal(t, http.StatusOK, status)
	}
}

func TestThrottleHonorsContext(t *testing.T) {
	c := New(Config{APIKey: "sk-test"}, nil)
	c.lastRequest = time.Now().Add(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, c.throttle(ctx), context.Canceled)
}

func TestNotConfigured(t *testing.T) {
	c := New(Config{}, nil)
	assert.False(t, c.Configured())
	_, err := c.Generate(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, _, err = c.Forward(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestParseResponse(t *testing.T) {
	fields, err := ParseResponse("```\n{\"company\": {\"companyName\": \"Globex\"}, \"total\": 12.5, \"ok\": true}\n```")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"companyName": "Globex", "total": "12.5", "ok": "true"}, fields)

	_, err = ParseResponse("Sure! Here is your data.")
	assert.Error(t, err)
}

func TestUserPromptDefaults(t *testing.T) {
	p := UserPrompt(" ", "")
	assert.Contains(t, p, "for a medium enterprise in the general business industry")
	assert.Contains(t, p, "8.5% tax")
}
