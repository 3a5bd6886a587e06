package app

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prosper-investor/internal/config"
	"prosper-investor/internal/monitor"
	"prosper-investor/internal/store"
)

type fakeRunner struct {
	events   []string
	rejected []error
	err      error
}

func (f *fakeRunner) RunEvent(_ context.Context, event string) error {
	f.events = append(f.events, event)
	return f.err
}

func (f *fakeRunner) RejectEvent(_ context.Context, reason error) {
	f.rejected = append(f.rejected, reason)
}

func pushBody(data string) string {
	return `{"message":{"data":"` + data + `","messageId":"m-1"},"subscription":"projects/p/subscriptions/s"}`
}

func doRequest(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestDecodeEventName(t *testing.T) {
	var env pushEnvelope
	env.Message.Data = base64.StdEncoding.EncodeToString([]byte("buy_notes\n"))
	name, err := decodeEventName(env)
	require.NoError(t, err)
	assert.Equal(t, "buy_notes", name)

	env.Message.Data = "%%%"
	_, err = decodeEventName(env)
	assert.Error(t, err)

	env.Message.Data = ""
	_, err = decodeEventName(env)
	assert.ErrorIs(t, err, errEmptyEventData)
}

func TestPubSub_RunsDecodedEvent(t *testing.T) {
	runner := &fakeRunner{}
	router := newRouter(runner, nil, nil)

	rec := doRequest(t, router, http.MethodPost, "/pubsub", pushBody(base64.StdEncoding.EncodeToString([]byte(EventAccountSummary))))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{EventAccountSummary}, runner.events)
}

func TestPubSub_RejectsUndecodableMessage(t *testing.T) {
	runner := &fakeRunner{}
	router := newRouter(runner, nil, nil)

	rec := doRequest(t, router, http.MethodPost, "/pubsub", pushBody("not base64!"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, router, http.MethodPost, "/pubsub", `{"message":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, runner.events)
	assert.Len(t, runner.rejected, 2)
}

func TestPubSub_EmptyDataIsRejected(t *testing.T) {
	runner := &fakeRunner{}
	router := newRouter(runner, nil, nil)

	rec := doRequest(t, router, http.MethodPost, "/pubsub", pushBody(""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.Len(t, runner.rejected, 1)
	assert.ErrorIs(t, runner.rejected[0], errEmptyEventData)
}

func TestPubSub_RunFailureIs500(t *testing.T) {
	runner := &fakeRunner{err: errors.New("upstream down")}
	router := newRouter(runner, nil, nil)

	rec := doRequest(t, router, http.MethodPost, "/pubsub", pushBody(base64.StdEncoding.EncodeToString([]byte(EventBuyNotes))))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "upstream down")
}

func TestHealthz(t *testing.T) {
	rec := doRequest(t, newRouter(&fakeRunner{}, nil, nil), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestEvents_ListsJournal(t *testing.T) {
	st, err := store.NewSQLite(config.DatabaseConfig{InMemory: true})
	require.NoError(t, err)
	defer st.Close()
	svc, err := monitor.NewService(st, nil)
	require.NoError(t, err)

	ctx := context.Background()
	svc.RecordOutcome(ctx, "run-1", monitor.OutcomePayload{Outcome: string(OutcomeNoMatches)})
	svc.RecordSelection(ctx, "run-1", monitor.SelectionPayload{ListingCount: 3})

	router := newRouter(&fakeRunner{}, svc, nil)
	rec := doRequest(t, router, http.MethodGet, "/events?type=OUTCOME&limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var events []struct {
		RunID   string          `json:"run_id"`
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
	require.Len(t, events, 1)
	assert.Equal(t, "run-1", events[0].RunID)
	assert.JSONEq(t, `{"outcome":"no_matches"}`, string(events[0].Payload))
}

func TestEvents_DisabledWithoutJournal(t *testing.T) {
	rec := doRequest(t, newRouter(&fakeRunner{}, nil, nil), http.MethodGet, "/events", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
