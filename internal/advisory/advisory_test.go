package advisory_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kubev2v/inventory-advisor/internal/advisory"
	"github.com/kubev2v/inventory-advisor/internal/findings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type request struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func completionServer(t *testing.T, handle func(req request) (int, string)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		code, body := handle(req)
		w.WriteHeader(code)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIClientAdvise(t *testing.T) {
	srv := completionServer(t, func(req request) (int, string) {
		assert.Equal(t, "model-a", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "disk full", req.Messages[1].Content)
		return http.StatusOK, `{"choices":[{"message":{"role":"assistant","content":"free some space"}}]}`
	})

	text, err := advisory.NewOpenAIClient("sk-test", "model-a", srv.URL).Advise(context.Background(), "disk full")

	require.NoError(t, err)
	assert.Equal(t, "free some space", text)
}

func TestOpenAIClientFallsBackToSecondModel(t *testing.T) {
	var models []string
	srv := completionServer(t, func(req request) (int, string) {
		models = append(models, req.Model)
		if req.Model == "model-a" {
			return http.StatusNotFound, `{"error":{"message":"model not found"}}`
		}
		return http.StatusOK, `{"choices":[{"message":{"content":"ok"}}]}`
	})

	client := advisory.NewOpenAIClient("sk-test", "model-a", srv.URL, advisory.WithFallbackModel("model-b"))
	text, err := client.Advise(context.Background(), "p")

	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, []string{"model-a", "model-b"}, models)
}

func TestOpenAIClientErrors(t *testing.T) {
	srv := completionServer(t, func(request) (int, string) {
		return http.StatusInternalServerError, `{"error":{"message":"overloaded"}}`
	})

	_, err := advisory.NewOpenAIClient("sk-test", "m", srv.URL).Advise(context.Background(), "p")
	assert.ErrorIs(t, err, advisory.ErrAdvisoryUnavailable)
	assert.Contains(t, err.Error(), "overloaded")

	_, err = advisory.NewOpenAIClient("", "m", srv.URL).Advise(context.Background(), "p")
	assert.ErrorIs(t, err, advisory.ErrAdvisoryUnavailable)
}

func TestNormalizeMessage(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "Host esx01.local.com not responding", want: "Host [HOSTNAME] not responding"},
		{in: "Lost access to 10.1.2.3 at 12:30:01", want: "Lost access to [IP] at [TIME]"},
		{in: "Backup failed on 2024-05-01 ", want: "Backup failed on [DATE]"},
		{in: "VM_payroll01 has a zombie disk", want: "[VM] has a zombie disk"},
		{in: "san01_datastore_gold is low", want: "[DATASTORE] is low"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, advisory.NormalizeMessage(tt.in))
		})
	}
}

type fakeProvider struct {
	calls int32
	text  string
	err   error
}

func (f *fakeProvider) Advise(context.Context, string) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.text, f.err
}

func TestServiceCachesByNormalizedMessage(t *testing.T) {
	p := &fakeProvider{text: "reconnect the host"}
	svc := advisory.NewService(p)

	first := svc.Remediation(context.Background(), "Host esx01.local.com not responding")
	second := svc.Remediation(context.Background(), "Host esx02.local.com not responding")

	assert.Equal(t, "reconnect the host", first.Text)
	assert.True(t, first.Available)
	assert.False(t, first.Cached)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Key, second.Key)
	assert.EqualValues(t, 1, atomic.LoadInt32(&p.calls))
}

func TestServiceCacheExpires(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	p := &fakeProvider{text: "t"}
	svc := advisory.NewService(p, advisory.WithCacheClock(func() time.Time { return now }))

	svc.Remediation(context.Background(), "m")
	now = now.Add(advisory.DefaultCacheTTL)
	svc.Remediation(context.Background(), "m")

	assert.EqualValues(t, 2, atomic.LoadInt32(&p.calls))
}

func TestServiceReturnsPlaceholder(t *testing.T) {
	failing := advisory.NewService(&fakeProvider{err: errors.New("down")})
	a := failing.Remediation(context.Background(), "m")
	assert.Equal(t, advisory.PlaceholderText, a.Text)
	assert.False(t, a.Available)

	disabled := advisory.NewService(nil)
	assert.Equal(t, advisory.PlaceholderText, disabled.Remediation(context.Background(), "m").Text)

	assert.Equal(t, advisory.PlaceholderText, failing.Remediation(context.Background(), "  ").Text)
}

func TestServiceForFindingSharesAdviceAcrossTargets(t *testing.T) {
	p := &fakeProvider{text: "upgrade the guest"}
	svc := advisory.NewService(p)

	a := svc.ForFinding(context.Background(), findings.Finding{Target: "web01", Type: findings.TypeEOLOS, Reason: "web01 runs CentOS 7"})
	b := svc.ForFinding(context.Background(), findings.Finding{Target: "web02", Type: findings.TypeEOLOS, Reason: "web02 runs CentOS 7"})

	assert.Equal(t, a.Key, b.Key)
	assert.True(t, b.Cached)
	assert.EqualValues(t, 1, atomic.LoadInt32(&p.calls))
}
