package httprecord

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	syncErrors "github.com/i4ali/macrosnap/errors"
	"github.com/i4ali/macrosnap/record"
	"github.com/i4ali/macrosnap/remote"
)

func TestAccountStatus(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status remote.AccountStatus
	}{
		{"available", `{"status":"available"}`, remote.StatusAvailable},
		{"no account", `{"status":"no_account"}`, remote.StatusNoAccount},
		{"restricted", `{"status":"restricted"}`, remote.StatusRestricted},
		{"unrecognized", `{"status":"weird"}`, remote.StatusUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "/account", r.URL.Path)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(server.URL, "macrosnap")
			status, err := client.AccountStatus(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.status, status)
		})
	}
}

func TestAccountStatusNetworkError(t *testing.T) {
	client := NewClient("http://127.0.0.1:0", "macrosnap")
	_, err := client.AccountStatus(context.Background())
	require.Error(t, err)
	assert.True(t, syncErrors.IsRetryable(err))
}

func TestEnsureZone(t *testing.T) {
	for _, code := range []int{http.StatusCreated, http.StatusOK, http.StatusConflict} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/zones/macrosnap", r.URL.Path)
			w.WriteHeader(code)
		}))

		client := NewClient(server.URL, "macrosnap")
		assert.NoError(t, client.EnsureZone(context.Background()), "status %d", code)
		server.Close()
	}
}

func TestSaveBatch(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/zones/macrosnap/records:batch", r.URL.Path)

		var req saveBatchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Records, 2)

		resp := saveBatchResponse{Results: []wireSaveResult{
			{Record: &req.Records[0]},
			{Error: &wireError{Code: "conflict", Message: "stale"}},
		}}
		resp.Results[0].Record.ID = "srv-1"
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient(server.URL, "macrosnap")
	records := []record.Record{
		{Type: "Preset", Fields: record.Fields{
			record.FieldName:      "Breakfast",
			record.FieldProtein:   30.0,
			record.FieldUpdatedAt: now,
		}},
		{Type: "Preset", ID: "srv-2", Fields: record.Fields{
			record.FieldName: "Lunch",
		}},
	}

	results, err := client.SaveBatch(context.Background(), records)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.NoError(t, results[0].Err)
	assert.Equal(t, "srv-1", results[0].Record.ID)
	ts, ok := results[0].Record.Fields.Time(record.FieldUpdatedAt)
	require.True(t, ok)
	assert.True(t, ts.Equal(now))

	assert.Error(t, results[1].Err)
}

func TestSaveBatchRejectsOversizedBatch(t *testing.T) {
	client := NewClient("http://unused", "macrosnap")

	records := make([]record.Record, remote.MaxBatchSize+1)
	for i := range records {
		records[i] = record.Record{Type: "Preset", Fields: record.Fields{record.FieldName: "x"}}
	}

	_, err := client.SaveBatch(context.Background(), records)
	require.Error(t, err)
	assert.Equal(t, syncErrors.KindInvalid, syncErrors.KindOf(err))
}

func TestSaveBatchEmptyIsNoop(t *testing.T) {
	client := NewClient("http://unused", "macrosnap")
	results, err := client.SaveBatch(context.Background(), nil)
	assert.NoError(t, err)
	assert.Nil(t, results)
}

func TestQuery(t *testing.T) {
	since := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/zones/macrosnap/records", r.URL.Path)
		assert.Equal(t, "MacroEntry", r.URL.Query().Get("type"))
		assert.Equal(t, since.Format(time.RFC3339Nano), r.URL.Query().Get("since"))

		resp := queryResponse{Results: []wireQueryResult{
			{Record: &wireRecord{Type: "MacroEntry", ID: "e-1", Fields: map[string]wireField{
				record.FieldProtein: {Type: wireDouble, Value: 25.0},
			}}},
			{Error: &wireError{Code: "corrupt", Message: "bad record"}},
		}}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient(server.URL, "macrosnap")
	results, err := client.Query(context.Background(), "MacroEntry", since)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.NoError(t, results[0].Err)
	assert.Equal(t, "e-1", results[0].Record.ID)
	assert.Error(t, results[1].Err)
}

func TestQuerySchemaNotProvisioned(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(wireError{Code: codeSchemaNotProvisioned, Message: "record type not provisioned"})
	}))
	defer server.Close()

	client := NewClient(server.URL, "macrosnap")
	_, err := client.Query(context.Background(), "MacroEntry", time.Time{})
	require.Error(t, err)
	assert.True(t, syncErrors.IsSchemaNotProvisioned(err))
}

func TestServerErrorsAreRetryable(t *testing.T) {
	for _, code := range []int{http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
		}))

		client := NewClient(server.URL, "macrosnap")
		_, err := client.Query(context.Background(), "Goal", time.Time{})
		require.Error(t, err, "status %d", code)
		assert.True(t, syncErrors.IsRetryable(err), "status %d", code)
		server.Close()
	}
}

func TestDelete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/zones/macrosnap/records/g-1", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClient(server.URL, "macrosnap")
	assert.NoError(t, client.Delete(context.Background(), "g-1"))
}

func TestDeleteNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(wireError{Code: codeNotFound, Message: "no such record"})
	}))
	defer server.Close()

	client := NewClient(server.URL, "macrosnap")
	err := client.Delete(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, syncErrors.IsNotFound(err))
}
