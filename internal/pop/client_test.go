package pop

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/seyi-falode/blogpilot/internal/common"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		APIKey:    "test-key",
		BaseURL:   srv.URL,
		TargetURL: "https://example.com",
	}, discardLogger())
}

func TestSubmit_Success(t *testing.T) {
	var gotBody map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/expose/get-terms/", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"status":"SUCCESS","taskId":"tsk-42","msg":"queued"}`))
	})

	taskID, err := c.Submit(context.Background(), "vitamin c serum")
	require.NoError(t, err)
	require.Equal(t, "tsk-42", taskID)
	require.Equal(t, "test-key", gotBody["apiKey"])
	require.Equal(t, "vitamin c serum", gotBody["keyword"])
	require.Equal(t, "United Kingdom", gotBody["locationName"])
	require.Equal(t, "https://example.com", gotBody["targetUrl"])
	require.Equal(t, "english", gotBody["targetLanguage"])
}

func TestSubmit_NumericTaskID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"SUCCESS","taskId":90210}`))
	})

	taskID, err := c.Submit(context.Background(), "retinol")
	require.NoError(t, err)
	require.Equal(t, "90210", taskID)
}

func TestSubmit_Rejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"FAILURE","msg":"invalid api key"}`))
	})

	_, err := c.Submit(context.Background(), "retinol")
	require.Error(t, err)
	require.Equal(t, common.CodeRejected, common.CodeOf(err))
	require.Contains(t, err.Error(), "invalid api key")
}

func TestSubmit_NonJSONResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>502 Bad Gateway</html>"))
	})

	_, err := c.Submit(context.Background(), "retinol")
	require.Error(t, err)
	require.Equal(t, common.CodeTransport, common.CodeOf(err))
}

func TestSubmit_MissingTaskID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"SUCCESS","msg":"queued"}`))
	})

	_, err := c.Submit(context.Background(), "retinol")
	require.Error(t, err)
	require.Equal(t, common.CodeTransport, common.CodeOf(err))
}

func TestFetchStatus_ParsesPayload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/task/tsk-7/results/", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":"IN_PROGRESS","msg":"Processing","value":45}`))
	})

	rep, err := c.FetchStatus(context.Background(), "tsk-7")
	require.NoError(t, err)
	require.Equal(t, "Processing", rep.RawStatus)
	require.Equal(t, 45, rep.Progress)
	require.False(t, rep.Terminal)
	require.False(t, rep.Complete())
}

func TestFetchStatus_CompletedReport(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"SUCCESS","msg":"Done","value":100,"pageScore":87.5,` +
			`"cleanedContentBrief":{"content":"use these terms"}}`))
	})

	rep, err := c.FetchStatus(context.Background(), "tsk-8")
	require.NoError(t, err)
	require.True(t, rep.Complete())
	require.Equal(t, 87.5, rep.Score)
	require.Equal(t, "use these terms", rep.Content)
}

func TestFetchStatus_WeakFieldsDefaultToUnknown(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	rep, err := c.FetchStatus(context.Background(), "tsk-9")
	require.NoError(t, err)
	require.Equal(t, StatusUnknown, rep.RawStatus)
	require.Equal(t, 0, rep.Progress)
	require.False(t, rep.Terminal)
}

func TestFetchStatus_SchemaRejectsWrongTypes(t *testing.T) {
	// A stringly-typed "value" must fail the parse instead of being misread
	// as a zero-progress Unknown observation.
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"msg":"Processing","value":"45"}`))
	})

	_, err := c.FetchStatus(context.Background(), "tsk-10")
	require.Error(t, err)
	require.Contains(t, err.Error(), "schema")
}

func TestFetchStatus_NonJSONBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("gateway timeout"))
	})

	_, err := c.FetchStatus(context.Background(), "tsk-11")
	require.Error(t, err)
}

func TestFetchStatus_Non2xx(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.FetchStatus(context.Background(), "tsk-12")
	require.Error(t, err)
}
