package apikit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Get_ParamsInQueryString(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		assert.Equal(t, "name", r.URL.Query().Get("sort"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client := New(WithBaseURL(server.URL))

	res, err := client.Get(context.Background(), "/items", map[string]string{
		"page": "1",
		"sort": "name",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.NotEmpty(t, res.RequestID)

	var payload struct {
		OK bool `json:"ok"`
	}
	require.NoError(t, res.Into(&payload))
	assert.True(t, payload.OK)
}

func TestClient_Delete_SendsNoBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "42", r.URL.Query().Get("id"))
		assert.Zero(t, r.ContentLength)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := New(WithBaseURL(server.URL))

	res, err := client.Delete(context.Background(), "/items", map[string]string{"id": "42"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, res.StatusCode)
}

func TestClient_Post_JSONBody(t *testing.T) {
	type item struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.Header.Get("Content-Type"), "application/json")
		assert.Empty(t, r.URL.RawQuery)

		var got item
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, item{Name: "widget", Count: 3}, got)

		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := New(WithBaseURL(server.URL))

	res, err := client.Post(context.Background(), "/items", item{Name: "widget", Count: 3})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, res.StatusCode)
}

func TestClient_Post_FormEncodingFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("Content-Type"), "application/x-www-form-urlencoded")
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "widget", r.PostFormValue("name"))
		assert.Equal(t, "3", r.PostFormValue("count"))
	}))
	defer server.Close()

	client := New(WithBaseURL(server.URL), WithFormEncoding())

	_, err := client.Post(context.Background(), "/items", map[string]string{
		"name":  "widget",
		"count": "3",
	})
	require.NoError(t, err)
}

func TestClient_CredentialsAndDefaultHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		assert.Equal(t, "tenant-1", r.Header.Get("X-Tenant"))
		assert.Equal(t, "my-agent", r.Header.Get("User-Agent"))
	}))
	defer server.Close()

	client := New(
		WithBaseURL(server.URL),
		WithAuthToken("secret-token"),
		WithHeader("X-Tenant", "tenant-1"),
		WithUserAgent("my-agent"),
	)

	_, err := client.Get(context.Background(), "/me", nil)
	require.NoError(t, err)
}

func TestClient_ErrorStatusMapsToStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	client := New(WithBaseURL(server.URL))

	res, err := client.Get(context.Background(), "/missing", nil)
	require.Error(t, err)

	statusErr, ok := AsStatusError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, statusErr.Code)
	assert.Contains(t, string(statusErr.Body), "not found")

	// The decoded response is still returned alongside the error.
	require.NotNil(t, res)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestClient_UnsupportedMethod(t *testing.T) {
	client := New()

	_, err := client.Do(context.Background(), Request{Method: "TRACE", Path: "/"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported method")
}

func TestClient_HooksFireOncePerRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bad" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	var successes, failures int
	client := New(
		WithBaseURL(server.URL),
		WithSuccessHook(func(res *Response) {
			successes++
			assert.Equal(t, http.StatusOK, res.StatusCode)
		}),
		WithErrorHook(func(res *Response, err error) {
			failures++
			require.NotNil(t, res)
			assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
			assert.Error(t, err)
		}),
	)

	_, err := client.Get(context.Background(), "/good", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, successes)
	assert.Equal(t, 0, failures)

	_, err = client.Get(context.Background(), "/bad", nil)
	require.Error(t, err)
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, failures)
}

func TestClient_HookPanicDoesNotBreakRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := New(
		WithBaseURL(server.URL),
		WithSuccessHook(func(*Response) { panic("boom") }),
	)

	res, err := client.Get(context.Background(), "/", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestToFormData(t *testing.T) {
	form, err := toFormData(map[string]string{"a": "1"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1"}, form)

	form, err = toFormData(url.Values{"a": {"1", "2"}})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1"}, form)

	form, err = toFormData(map[string]interface{}{"n": 3})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"n": "3"}, form)

	_, err = toFormData(42)
	require.Error(t, err)
}
