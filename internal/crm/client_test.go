package crm

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/lead-relay/pkg/logging"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return NewClient(ts.URL+"/", "tok", time.Second, logging.New("error"))
}

func TestFetchConfig_TopLevel(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/lead/config", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{
			"locations": [{"id": 9007199254740993, "name": "Mesa"}, {"id": "abc", "name": "Midtown"}, {"name": "no id"}],
			"sources": ["Google Ads - Tanner", {"name": "Website"}, ""]
		}`)
	})

	snap, err := c.FetchConfig(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Locations, 2)
	assert.Equal(t, "9007199254740993", snap.Locations[0].ID)
	assert.Equal(t, "Mesa", snap.Locations[0].Name)
	assert.Equal(t, "abc", snap.Locations[1].ID)
	assert.Equal(t, []string{"Google Ads - Tanner", "Website"}, snap.Sources)
}

func TestFetchConfig_NestedUnderData(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"locations": {"unexpected": true}, "data": {"locations": [{"id": 7, "name": "Scottsdale"}], "sources": ["Website"]}}`)
	})

	snap, err := c.FetchConfig(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Locations, 1)
	assert.Equal(t, "7", snap.Locations[0].ID)
	assert.Equal(t, []string{"Website"}, snap.Sources)
}

func TestFetchConfig_Errors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, strings.Repeat("x", 500), http.StatusUnauthorized)
	})
	_, err := c.FetchConfig(context.Background())
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	assert.Len(t, statusErr.Body, maxErrorBody)

	c = newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `not json`)
	})
	_, err = c.FetchConfig(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode config")

	c = NewClient("http://127.0.0.1:0", "", time.Second, nil)
	_, err = c.FetchConfig(context.Background())
	require.ErrorIs(t, err, ErrMissingToken)
}

func TestFetchConfig_Timeout(t *testing.T) {
	block := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer ts.Close()
	defer close(block)

	c := NewClient(ts.URL, "tok", 50*time.Millisecond, logging.New("error"))
	_, err := c.FetchConfig(context.Background())
	require.Error(t, err)
	assert.Equal(t, "timeout", attemptStatus(err))
}

func TestPostLead_FormEncoded(t *testing.T) {
	var got url.Values
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/lead/simplified", r.URL.Path)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.NoError(t, r.ParseForm())
		got = r.PostForm
		w.WriteHeader(http.StatusCreated)
	})

	form := url.Values{"first_name": {"Jane"}, "location_id": {"9007199254740993"}}
	require.NoError(t, c.PostLead(context.Background(), form))
	assert.Equal(t, "Jane", got.Get("first_name"))
	assert.Equal(t, "9007199254740993", got.Get("location_id"))
}

func TestPostLead_NetworkError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	ts.Close()

	c := NewClient(ts.URL, "tok", time.Second, logging.New("error"))
	err := c.PostLead(context.Background(), url.Values{})
	require.Error(t, err)
	var statusErr *StatusError
	assert.False(t, errors.As(err, &statusErr))
}
