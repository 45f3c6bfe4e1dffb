package portal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, baseURL string, opts ...Option) *Client {
	t.Helper()
	client, err := NewClient(baseURL, opts...)
	require.NoError(t, err)
	t.Cleanup(client.Close)
	return client
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func TestRequestSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/asset-owner/42/withAssetId", r.URL.Path)
		assert.Equal(t, DefaultOrigin, r.Header.Get("Origin"))
		writeJSON(w, map[string]any{"assetId": 7})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	res, err := client.FetchAssetID(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, 200, res.StatusCode)
	assert.Nil(t, res.Err)
	assert.Equal(t, 7, res.AssetID)
	assert.Equal(t, 7, client.AssetID(), "asset id should be cached")
}

func TestRequestRefreshAndRetryOnce(t *testing.T) {
	var assetCalls, refreshCalls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/refresh-token":
			atomic.AddInt32(&refreshCalls, 1)
			writeJSON(w, map[string]any{"user": map[string]any{"assetOwnerId": 42}})
		case "/asset-owner/42/withAssetId":
			if atomic.AddInt32(&assetCalls, 1) == 1 {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			writeJSON(w, map[string]any{"assetId": 7})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	res, err := client.FetchAssetID(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, 200, res.StatusCode)
	assert.Equal(t, 7, res.AssetID)
	assert.Equal(t, int32(1), atomic.LoadInt32(&refreshCalls), "exactly one refresh")
	assert.Equal(t, int32(2), atomic.LoadInt32(&assetCalls), "exactly one retry")
	assert.Equal(t, 42, client.AssetOwnerID(), "owner id picked up from refresh response")
}

func TestRequestRefreshFails(t *testing.T) {
	var authFailures int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			writeJSON(w, map[string]any{
				"user": map[string]any{"id": 1, "email": "a@b.se", "role": 2, "assetOwnerId": 42},
			})
		case "/auth/refresh-token":
			w.WriteHeader(http.StatusUnauthorized)
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, WithAuthFailedHandler(func(error) {
		atomic.AddInt32(&authFailures, 1)
	}))

	_, err := client.Login(context.Background(), "a@b.se", "secret")
	require.NoError(t, err)
	require.Equal(t, 42, client.AssetOwnerID())

	_, err = client.FetchAssetID(context.Background(), 0)
	require.Error(t, err)
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, int32(1), atomic.LoadInt32(&authFailures), "on_auth_failed invoked exactly once")
	assert.Equal(t, 0, client.AssetOwnerID(), "owner-scoped state cleared on auth failure")
}

func TestRequestStillUnauthorizedAfterRefresh(t *testing.T) {
	var assetCalls, refreshCalls, authFailures int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/refresh-token" {
			atomic.AddInt32(&refreshCalls, 1)
			writeJSON(w, map[string]any{})
			return
		}
		atomic.AddInt32(&assetCalls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, WithAuthFailedHandler(func(error) {
		atomic.AddInt32(&authFailures, 1)
	}))

	_, err := client.FetchAssetID(context.Background(), 42)
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, int32(1), atomic.LoadInt32(&refreshCalls), "never enters a refresh loop")
	assert.Equal(t, int32(2), atomic.LoadInt32(&assetCalls), "retried exactly once")
	assert.Equal(t, int32(1), atomic.LoadInt32(&authFailures))
}

func TestRequestRetriesTransientErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch atomic.AddInt32(&calls, 1) {
		case 1:
			w.WriteHeader(http.StatusInternalServerError)
		case 2:
			w.WriteHeader(http.StatusTooManyRequests)
		default:
			writeJSON(w, map[string]any{"assetId": 7})
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	res, err := client.FetchAssetID(context.Background(), 42, WithCallRetryAttempts(3))
	require.NoError(t, err)
	assert.Equal(t, 200, res.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestRequestRetryBudgetExhausted(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	_, err := client.FetchAssetID(context.Background(), 42, WithCallRetryAttempts(1))
	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode, "last failing response surfaces")
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls), "initial call plus one retry")
}

func TestRequestCapturedErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	res, err := client.FetchAssetID(context.Background(), 42, WithCapturedErrors(), WithCallRetryAttempts(0))
	require.NoError(t, err, "captured mode returns failures in the envelope")
	require.NotNil(t, res.Err)
	assert.Equal(t, 404, res.StatusCode)
	assert.Equal(t, 404, res.Err.StatusCode)
	assert.False(t, res.OK())
}

func TestRequestAPIErrorHandler(t *testing.T) {
	var notified int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, WithAPIErrorHandler(func(e *APIError) {
		atomic.AddInt32(&notified, 1)
		assert.Equal(t, 404, e.StatusCode)
	}))

	_, err := client.FetchAssetID(context.Background(), 42, WithCallRetryAttempts(0))
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&notified))
}

func TestRequestValidationBeforeNetwork(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	_, err := client.FetchAsset(context.Background(), 0)
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "assetID", valErr.Field)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls), "no network call for caller misuse")

	_, err = client.FetchUptimePie(context.Background(), 7, "2026-13")
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "period", valErr.Field)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestRequestNotModified(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, `"abc123"`, r.Header.Get("If-None-Match"))
		w.WriteHeader(http.StatusNotModified)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	res, err := client.FetchInvoices(context.Background(), 42, WithConditionalETag(`"abc123"`))
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.True(t, res.NotModified())
	assert.Nil(t, res.Err)
	assert.Nil(t, res.Invoices, "empty 304 body is never parsed")
}

func TestRequestSchemaFailureIsAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"somethingElse": true})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	_, err := client.FetchAssetID(context.Background(), 42)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.True(t, apiErr.IsSchema())
	assert.Equal(t, "assetId", apiErr.Schema.Field)
	assert.Equal(t, 200, apiErr.StatusCode, "transport succeeded, data invalid")
}

func TestBackoffDelay(t *testing.T) {
	client := newTestClient(t, "http://localhost:1")

	t.Run("non-decreasing in attempt number", func(t *testing.T) {
		prev := time.Duration(0)
		for attempt := 1; attempt <= 5; attempt++ {
			delay := client.backoffDelay(attempt, "")
			assert.GreaterOrEqual(t, delay, backoffBase*time.Duration(attempt))
			assert.Less(t, delay, backoffBase*time.Duration(attempt)+backoffJitter)
			assert.GreaterOrEqual(t, delay, prev)
			prev = delay
		}
	})

	t.Run("honors larger Retry-After", func(t *testing.T) {
		delay := client.backoffDelay(1, "30")
		assert.GreaterOrEqual(t, delay, 30*time.Second)
	})

	t.Run("ignores smaller Retry-After", func(t *testing.T) {
		delay := client.backoffDelay(4, "1")
		assert.GreaterOrEqual(t, delay, backoffBase*4)
	})

	t.Run("ignores junk Retry-After", func(t *testing.T) {
		delay := client.backoffDelay(1, "soon")
		assert.Less(t, delay, backoffBase+backoffJitter)
	})
}

func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{"delta seconds", "15", 15 * time.Second},
		{"zero", "0", 0},
		{"negative", "-3", 0},
		{"junk", "whenever", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseRetryAfter(tt.value))
		})
	}

	t.Run("http date", func(t *testing.T) {
		at := time.Now().Add(10 * time.Second).UTC()
		got := parseRetryAfter(at.Format(http.TimeFormat))
		assert.Greater(t, got, 5*time.Second)
		assert.LessOrEqual(t, got, 10*time.Second)
	})
}

func TestConcurrencyLimiter(t *testing.T) {
	var inFlight, peak int32
	var mu sync.Mutex
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&inFlight, 1)
		mu.Lock()
		if n > peak {
			peak = n
		}
		mu.Unlock()
		time.Sleep(50 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		writeJSON(w, map[string]any{"assetId": 7})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, WithMaxConcurrent(2))

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := client.FetchAssetID(context.Background(), 42)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.LessOrEqual(t, peak, int32(2), "at most N requests in flight")
}

func TestRequestTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	start := time.Now()
	_, err := client.FetchAssetID(context.Background(), 42, WithCallTimeout(100*time.Millisecond), WithCallRetryAttempts(0))
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second, "per-call timeout overrides the default")
}
