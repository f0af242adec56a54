package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeBroker struct {
	topics   []string
	payloads [][]byte
	err      error
}

func (f *fakeBroker) Publish(topic string, retained bool, payload []byte) error {
	f.topics = append(f.topics, topic)
	f.payloads = append(f.payloads, payload)
	return f.err
}

func TestMQTTPublisher(t *testing.T) {
	broker := &fakeBroker{}
	p := NewMQTTPublisher(broker, "labcatalog/")

	err := p.Publish(context.Background(), Event{Type: EventNoteCreated, Subject: "Acetone", Payload: map[string]any{"method": "NIOSH 1501"}})
	require.NoError(t, err)
	require.Len(t, broker.topics, 1)
	assert.Equal(t, "labcatalog/note.created", broker.topics[0])

	var got Event
	require.NoError(t, json.Unmarshal(broker.payloads[0], &got))
	assert.Equal(t, "Acetone", got.Subject)
}

func TestWebhookPublisher(t *testing.T) {
	var body map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := NewWebhookPublisher(srv.URL)
	err := p.Publish(context.Background(), Event{Type: EventNoteUpdated, Subject: "n1", Payload: map[string]any{"status": "closed"}})
	require.NoError(t, err)
	assert.Equal(t, "Note n1 updated: status closed", body["text"])
}

func TestWebhookPublisher_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	err := NewWebhookPublisher(srv.URL).Publish(context.Background(), Event{Type: "x"})
	assert.Error(t, err)
}

func TestWebhookPublisher_PostsOnceOnServerError(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := NewWebhookPublisher(srv.URL).Publish(context.Background(), Event{Type: EventNoteCreated, Subject: "Acetone"})
	assert.ErrorContains(t, err, "status 503")
	assert.Equal(t, int32(1), hits.Load())
}

func TestFanout_AbsorbsFailures(t *testing.T) {
	failing := &fakeBroker{err: errors.New("broker down")}
	ok := &fakeBroker{}
	f := NewFanout(zap.NewNop(), NewMQTTPublisher(failing, "p"), NewMQTTPublisher(ok, "p"))

	err := f.Publish(context.Background(), Event{Type: EventTrainingsReplaced, Subject: "e1"})
	assert.NoError(t, err)
	assert.Len(t, failing.topics, 1)
	assert.Len(t, ok.topics, 1)
}
