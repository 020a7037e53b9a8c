package aigateway

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/previewgate/internal/domain"
)

func TestProxy_ForwardsWithPrefixStripped(t *testing.T) {
	var gotPath, gotQuery, gotHost, gotAuth, gotBody string
	upstreamSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotHost = r.Host
		gotAuth = r.Header.Get("Authorization")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"chatcmpl-1"}`))
	}))
	defer upstreamSrv.Close()

	p, err := New(upstreamSrv.URL+"/v1/acct/gw", nil)
	require.NoError(t, err)
	assert.True(t, p.Configured())

	req := httptest.NewRequest(http.MethodPost, "http://build.example.dev/api/proxy/openai/chat/completions?stream=false", strings.NewReader(`{"model":"x"}`))
	req.Header.Set("Authorization", "Bearer sk-test")
	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `{"id":"chatcmpl-1"}`, rec.Body.String())
	assert.Equal(t, "/v1/acct/gw/chat/completions", gotPath)
	assert.Equal(t, "stream=false", gotQuery)
	assert.Equal(t, strings.TrimPrefix(upstreamSrv.URL, "http://"), gotHost)
	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, `{"model":"x"}`, gotBody)
}

func TestProxy_UnconfiguredAnswers503(t *testing.T) {
	p, err := New("", nil)
	require.NoError(t, err)
	assert.False(t, p.Configured())

	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "http://build.example.dev/api/proxy/openai/x", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body["error"])
}

func TestProxy_UpstreamDownAnswers502(t *testing.T) {
	dead := httptest.NewServer(http.NotFoundHandler())
	addr := dead.URL
	dead.Close()

	p, err := New(addr, nil)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "http://build.example.dev/api/proxy/openai", nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestNew_RejectsInvalidURL(t *testing.T) {
	_, err := New("not a url", nil)

	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestStripPrefix(t *testing.T) {
	assert.Equal(t, "/", stripPrefix("/api/proxy/openai"))
	assert.Equal(t, "/v1/models", stripPrefix("/api/proxy/openai/v1/models"))
}
