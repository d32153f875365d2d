package hikcentral

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/accesssync/internal/domain"
	"github.com/saturnino-fabrica-de-software/accesssync/internal/repository/memory"
)

type capturedRequest struct {
	Path    string
	Headers http.Header
	Body    map[string]any
}

func newTestServer(t *testing.T, status int, response string) (*httptest.Server, *[]capturedRequest) {
	t.Helper()
	var captured []capturedRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)

		assert.True(t, Verify("app-secret", "app-key",
			r.Header.Get(HeaderNonce), r.Header.Get(HeaderTimestamp), raw, r.Header.Get(HeaderSignature)),
			"request signature should verify")

		var body map[string]any
		_ = json.Unmarshal(raw, &body)
		captured = append(captured, capturedRequest{Path: r.URL.Path, Headers: r.Header.Clone(), Body: body})

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(server.Close)

	return server, &captured
}

func newTestClient(baseURL string, dryRun bool) (*Client, *memory.RequestLog) {
	log := memory.NewRequestLog(100)
	c := NewClient(Config{
		BaseURL:   baseURL,
		AppKey:    "app-key",
		AppSecret: "app-secret",
		Timeout:   2 * time.Second,
		DryRun:    dryRun,
	}, log, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return c, log
}

func TestClient_CreatePerson(t *testing.T) {
	validTo := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rec := &domain.WorkerRecord{InternalID: "w-1", NationalID: "123", Name: "Ali", Gender: "male", ValidTo: validTo}

	t.Run("returns the assigned person id", func(t *testing.T) {
		server, captured := newTestServer(t, http.StatusOK, `{"code":"0","msg":"Success","data":{"personId":"E1"}}`)
		client, log := newTestClient(server.URL, false)

		id, err := client.CreatePerson(context.Background(), rec)
		require.NoError(t, err)
		assert.Equal(t, "E1", id)

		require.Len(t, *captured, 1)
		req := (*captured)[0]
		assert.Equal(t, pathPersonAdd, req.Path)
		assert.Equal(t, "app-key", req.Headers.Get(HeaderKey))
		assert.Equal(t, SignedHeaders, req.Headers.Get(HeaderSignatureHeaders))
		assert.Equal(t, "Ali", req.Body["personName"])
		assert.Equal(t, "123", req.Body["certificateNo"])
		assert.Equal(t, "1", req.Body["gender"])
		assert.Equal(t, "2025-01-01T00:00:00+00:00", req.Body["endTime"])

		events, _ := log.ListRecent(context.Background(), 10)
		require.Len(t, events, 1)
		assert.True(t, events[0].Success)
		assert.Equal(t, pathPersonAdd, events[0].Endpoint)
	})

	t.Run("numeric code is accepted", func(t *testing.T) {
		server, _ := newTestServer(t, http.StatusOK, `{"code":0,"data":"E7"}`)
		client, _ := newTestClient(server.URL, false)

		id, err := client.CreatePerson(context.Background(), rec)
		require.NoError(t, err)
		assert.Equal(t, "E7", id)
	})

	t.Run("application error code fails with msg", func(t *testing.T) {
		server, _ := newTestServer(t, http.StatusOK, `{"code":"128","msg":"Person code already exists"}`)
		client, log := newTestClient(server.URL, false)

		_, err := client.CreatePerson(context.Background(), rec)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrExternalSystem)
		assert.Contains(t, err.Error(), "Person code already exists")

		events, _ := log.ListRecent(context.Background(), 10)
		require.Len(t, events, 1)
		assert.False(t, events[0].Success)
	})

	t.Run("missing person id fails", func(t *testing.T) {
		server, _ := newTestServer(t, http.StatusOK, `{"code":"0","data":{}}`)
		client, _ := newTestClient(server.URL, false)

		_, err := client.CreatePerson(context.Background(), rec)
		assert.ErrorIs(t, err, domain.ErrExternalSystem)
	})

	t.Run("dry run returns the internal id without network", func(t *testing.T) {
		client, log := newTestClient("http://127.0.0.1:1", true)

		id, err := client.CreatePerson(context.Background(), rec)
		require.NoError(t, err)
		assert.Equal(t, "w-1", id)

		events, _ := log.ListRecent(context.Background(), 10)
		require.Len(t, events, 1)
		assert.True(t, events[0].DryRun)
	})
}

func TestClient_Failures(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		response string
		contains string
	}{
		{"http error with envelope", http.StatusForbidden, `{"code":"0x02401007","msg":"signature mismatch"}`, "signature mismatch"},
		{"http error with plain body", http.StatusBadGateway, `upstream down`, "upstream down"},
		{"malformed body", http.StatusOK, `<html>`, "decode response"},
		{"empty code", http.StatusOK, `{"msg":""}`, "code "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := newTestServer(t, tt.status, tt.response)
			client, _ := newTestClient(server.URL, false)

			err := client.DeletePerson(context.Background(), "E1")
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrExternalSystem)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestClient_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client, log := newTestClient(server.URL, false)
	err := client.UpdatePerson(context.Background(), "E1", &domain.WorkerRecord{Name: "Ali"})
	assert.ErrorIs(t, err, domain.ErrExternalSystem)

	events, _ := log.ListRecent(context.Background(), 10)
	require.Len(t, events, 1)
	assert.NotEmpty(t, events[0].Message)
}

func TestClient_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	client, _ := newTestClient(server.URL, false)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := client.DeletePerson(ctx, "E1")
	assert.ErrorIs(t, err, domain.ErrExternalSystem)
}

func TestClient_OperationPayloads(t *testing.T) {
	server, captured := newTestServer(t, http.StatusOK, `{"code":"0"}`)
	client, log := newTestClient(server.URL, false)
	ctx := context.Background()

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	image := []byte("jpeg-bytes")

	require.NoError(t, client.ExtendValidity(ctx, "E1", to))
	require.NoError(t, client.AttachBiometric(ctx, "E1", image))
	require.NoError(t, client.GrantAccess(ctx, "E1", "7", from, to))
	require.NoError(t, client.DeletePerson(ctx, "E1"))

	reqs := *captured
	require.Len(t, reqs, 4)

	assert.Equal(t, pathPersonUpdate, reqs[0].Path)
	assert.Equal(t, "E1", reqs[0].Body["personId"])
	assert.Equal(t, "2026-01-01T00:00:00+00:00", reqs[0].Body["endTime"])
	assert.NotContains(t, reqs[0].Body, "personName")

	assert.Equal(t, pathFaceAdd, reqs[1].Path)
	assert.Equal(t, base64.StdEncoding.EncodeToString(image), reqs[1].Body["faceData"])

	assert.Equal(t, pathPrivilegeGrant, reqs[2].Path)
	assert.Equal(t, "7", reqs[2].Body["privilegeGroupId"])
	assert.Equal(t, []any{map[string]any{"id": "E1"}}, reqs[2].Body["list"])

	assert.Equal(t, pathPersonDelete, reqs[3].Path)

	events, _ := log.ListRecent(context.Background(), 10)
	require.Len(t, events, 4)
	// newest first; the face upload is the third newest
	assert.NotContains(t, events[2].RequestBody, base64.StdEncoding.EncodeToString(image))
}

func TestClient_AttachBiometric_EmptyImage(t *testing.T) {
	client, _ := newTestClient("http://127.0.0.1:1", false)
	err := client.AttachBiometric(context.Background(), "E1", nil)
	assert.ErrorIs(t, err, domain.ErrExternalSystem)
}
