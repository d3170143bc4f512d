package stream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/model"
	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/testutil"
)

func TestSSE_DeliversEventsInOrder(t *testing.T) {
	backend := testutil.NewBackend(t)
	s := NewSSE(backend.URL(), "")
	assert.Equal(t, backend.URL()+DefaultPath, s.URL())

	msgs := make(chan Message, 8)
	done := make(chan error, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { done <- s.Subscribe(ctx, func(m Message) { msgs <- m }) }()

	require.Eventually(t, func() bool { return backend.Subscribers() == 1 }, 2*time.Second, 5*time.Millisecond)

	backend.PushEvent("ping", `{}`)
	backend.PushBracket(&model.BracketState{Teams: []model.Team{{ID: "1", Name: "Owls"}}})

	first := <-msgs
	assert.Equal(t, "ping", first.Event)

	second := <-msgs
	assert.Equal(t, EventBracket, second.Event)
	b, err := model.DecodeBracket(second.Data)
	require.NoError(t, err)
	assert.Equal(t, "Owls", b.Teams[0].Name)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err, "cancellation is not an error")
	case <-time.After(2 * time.Second):
		t.Fatal("Subscribe did not return after cancel")
	}
}

func TestSSE_ServerCloseEndsSubscription(t *testing.T) {
	backend := testutil.NewBackend(t)
	s := NewSSE(backend.URL(), DefaultPath)

	done := make(chan error, 1)
	go func() { done <- s.Subscribe(context.Background(), func(Message) {}) }()
	require.Eventually(t, func() bool { return backend.Subscribers() == 1 }, 2*time.Second, 5*time.Millisecond)

	backend.CloseStreams()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Subscribe did not return after server close")
	}

	// No reconnect attempt.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, backend.Subscribers())
	assert.Len(t, backend.RequestsTo(DefaultPath), 1)
}

func TestSSE_ConnectFailureIsReturned(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := NewSSE(srv.URL, "").Subscribe(context.Background(), func(Message) {})
	assert.Error(t, err)
}
