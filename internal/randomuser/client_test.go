package randomuser

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoProfiles = `{
	"results": [
		{"name": {"first": "Amy", "last": "Jones"}, "location": {"country": "UK", "postcode": "LS1"}, "login": {"uuid": "u-1"}},
		{"name": {"first": "Bob", "last": "Smith"}, "location": {"country": "USA", "postcode": 73301}, "login": {"uuid": "u-2"}}
	],
	"info": {"seed": "abc", "results": 2, "page": 3, "version": "1.4"}
}`

func TestFetch_BuildsQueryAndDecodes(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		assert.Equal(t, "profilegrid-test", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, twoProfiles)
	}))
	defer srv.Close()

	c := New(srv.URL, WithUserAgent("profilegrid-test"), WithSeed("abc"))
	resp, err := c.Fetch(context.Background(), 2, 3)
	require.NoError(t, err)

	assert.Equal(t, "page=3&results=2&seed=abc", gotQuery)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "u-1", resp.Results[0].UUID())
	assert.Equal(t, "73301", string(resp.Results[1].Location.Postcode))
	assert.Equal(t, Info{Seed: "abc", Results: 2, Page: 3, Version: "1.4"}, resp.Info)
}

func TestFetch_OmitsPageWhenZero(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		fmt.Fprint(w, `{"results": [], "info": {}}`)
	}))
	defer srv.Close()

	_, err := New(srv.URL).Fetch(context.Background(), 3, 0)
	require.NoError(t, err)
	assert.Equal(t, "results=3", gotQuery)
}

func TestFetch_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := New(srv.URL).Fetch(context.Background(), 1, 0)
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.Code)
	assert.Contains(t, err.Error(), "failed to fetch profiles from API")
	assert.Contains(t, err.Error(), "status: 503")
}

func TestFetch_UpstreamErrorPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error": "Uh oh, something has gone wrong."}`)
	}))
	defer srv.Close()

	_, err := New(srv.URL).Fetch(context.Background(), 1, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUpstream))
}

func TestFetch_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results": [`)
	}))
	defer srv.Close()

	_, err := New(srv.URL).Fetch(context.Background(), 1, 0)
	assert.Error(t, err)
}

func TestFetch_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := New(url).Fetch(context.Background(), 1, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch profiles from API")
}

func TestFetch_NoRetry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := New(srv.URL).Fetch(context.Background(), 1, 0)
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestFetch_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	_, err := New(srv.URL, WithTimeout(50*time.Millisecond)).Fetch(context.Background(), 1, 0)
	assert.Error(t, err)
}

func TestFetch_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, twoProfiles)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(srv.URL).Fetch(ctx, 1, 0)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestProfiles_ReturnsRecords(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, twoProfiles)
	}))
	defer srv.Close()

	ps, err := New(srv.URL).Profiles(context.Background(), 2, 1)
	require.NoError(t, err)
	assert.Len(t, ps, 2)
}

func TestWithProxy_ExplicitProxyIsUsed(t *testing.T) {
	var proxied int32
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&proxied, 1)
		fmt.Fprint(w, twoProfiles)
	}))
	defer proxy.Close()

	c := New("http://randomuser.invalid/api", WithProxy(proxy.URL, ""))
	_, err := c.Fetch(context.Background(), 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&proxied))
}

func TestNew_DefaultBaseURL(t *testing.T) {
	c := New("")
	u, err := c.requestURL(3, 2)
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL+"?page=2&results=3", u)
}
