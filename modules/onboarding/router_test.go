package onboarding_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openbank/onboarding/modules/onboarding"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	fx := newFlowFixture(t, defaultCfg(), nil)
	srv := httptest.NewServer(onboarding.Router(fx.flow, slog.New(slog.DiscardHandler)))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func TestRouterProcessLifecycle(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	resp, created := doJSON(t, http.MethodPost, srv.URL+"/processes", map[string]any{
		"clientId":  "client-1",
		"type":      "SINGLE_OWNER",
		"variables": map[string]any{"isUSCitizen": false},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "STARTED", created["state"])
	assert.Equal(t, "s500.1", created["screenCode"])

	id, ok := created["id"].(string)
	require.True(t, ok)
	require.NotEmpty(t, id)

	resp, fetched := doJSON(t, http.MethodGet, srv.URL+"/processes/"+id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "SINGLE_OWNER", fetched["type"])

	resp, moved := doJSON(t, http.MethodPost, srv.URL+"/processes/"+id+"/events", map[string]any{
		"event": "START_FLOW",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ANSWER_ACCOUNT_QUESTIONS", moved["state"])

	resp, advanced := doJSON(t, http.MethodPost, srv.URL+"/processes/"+id+"/advance", map[string]any{
		"payload": map[string]any{"isUSCitizen": true},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "US_PASSPORT_DETAILS", advanced["state"])
	assert.Equal(t, "s510.15", advanced["screenCode"])

	resp, patched := doJSON(t, http.MethodPatch, srv.URL+"/processes/"+id+"/variables", map[string]any{
		"variables": map[string]any{"note": "x"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "US_PASSPORT_DETAILS", patched["state"])
}

func TestRouterHistory(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	_, created := doJSON(t, http.MethodPost, srv.URL+"/processes", map[string]any{
		"clientId": "client-1",
		"type":     "MULTI_OWNER",
	})
	id := created["id"].(string)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/processes/"+id+"/history", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var records []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&records))
	require.Len(t, records, 1)
	assert.Equal(t, "STARTED", records[0]["toState"])
}

func TestRouterErrorMapping(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	t.Run("unknown process is 404", func(t *testing.T) {
		t.Parallel()
		resp, body := doJSON(t, http.MethodGet, srv.URL+"/processes/nope", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "not_found", body["error"])
	})

	t.Run("unknown type is 400", func(t *testing.T) {
		t.Parallel()
		resp, body := doJSON(t, http.MethodPost, srv.URL+"/processes", map[string]any{
			"clientId": "client-1",
			"type":     "JOINT_VENTURE",
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "invalid_input", body["error"])
	})

	t.Run("rejected event is 409", func(t *testing.T) {
		t.Parallel()
		_, created := doJSON(t, http.MethodPost, srv.URL+"/processes", map[string]any{
			"clientId": "client-1",
			"type":     "SINGLE_OWNER",
		})
		id := created["id"].(string)

		resp, body := doJSON(t, http.MethodPost, srv.URL+"/processes/"+id+"/events", map[string]any{
			"event": "CREATE_ACCOUNT",
		})
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Equal(t, "event_not_accepted", body["error"])
	})

	t.Run("failed preconditions carry details", func(t *testing.T) {
		t.Parallel()
		_, created := doJSON(t, http.MethodPost, srv.URL+"/processes/conversions", map[string]any{
			"clientId":       "client-1",
			"minorAccountId": "minor-1",
		})
		id := created["id"].(string)

		_, confirmed := doJSON(t, http.MethodPost, srv.URL+"/processes/"+id+"/events", map[string]any{
			"event": "CONFIRM_CONVERSION",
		})
		require.Equal(t, "WAITING_FOR_CONVERSION_CONFIRMATION", confirmed["state"])

		resp, body := doJSON(t, http.MethodPost, srv.URL+"/processes/"+id+"/events", map[string]any{
			"event":   "COMPLETE_CONVERSION",
			"payload": map[string]any{"converted": true},
		})
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Equal(t, "preconditions_not_met", body["error"])

		details, ok := body["details"].([]any)
		require.True(t, ok)
		require.Len(t, details, 1)
		detail := details[0].(map[string]any)
		assert.Equal(t, "VOICE_SCORE_TOO_LOW", detail["code"])
	})

	t.Run("async result with unknown type is 400", func(t *testing.T) {
		t.Parallel()
		_, created := doJSON(t, http.MethodPost, srv.URL+"/processes", map[string]any{
			"clientId": "client-1",
			"type":     "SINGLE_OWNER",
		})
		id := created["id"].(string)

		resp, body := doJSON(t, http.MethodPost, srv.URL+"/processes/"+id+"/async-results", map[string]any{
			"type": "astrology",
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "invalid_input", body["error"])
	})
}
