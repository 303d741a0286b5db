package appwatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"focusd/internal/blocker"
)

// scriptedProvider replays a fixed sequence of probe results, repeating the
// last one once exhausted. The sentinel "FAIL" produces a probe error.
type scriptedProvider struct {
	mu        sync.Mutex
	responses []string
	index     int
}

func (p *scriptedProvider) Foreground(_ context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	response := p.responses[len(p.responses)-1]
	if p.index < len(p.responses) {
		response = p.responses[p.index]
		p.index++
	}
	if response == "FAIL" {
		return "", errors.New("probe failed")
	}
	return response, nil
}

func collectEvents(t *testing.T, sink <-chan blocker.Event, want int) []string {
	t.Helper()

	var ids []string
	deadline := time.After(2 * time.Second)
	for len(ids) < want {
		select {
		case event := <-sink:
			ids = append(ids, event.AppID)
		case <-deadline:
			t.Fatalf("timed out waiting for %d events, got %v", want, ids)
		}
	}
	return ids
}

func TestPollerEmitsOnChangeOnly(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		"com.example.a",
		"com.example.a",
		"",
		"FAIL",
		"com.example.b",
		"com.example.b",
	}}
	sink := make(chan blocker.Event, 16)
	poller := NewPoller(provider, 5*time.Millisecond, sink)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go poller.Run(ctx)

	ids := collectEvents(t, sink, 2)
	require.Equal(t, []string{"com.example.a", "com.example.b"}, ids)

	// The repeated final value never produces another event.
	select {
	case event := <-sink:
		t.Fatalf("unexpected extra event: %s", event.AppID)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPollerStopsOnContextCancel(t *testing.T) {
	provider := &scriptedProvider{responses: []string{"com.example.a"}}
	sink := make(chan blocker.Event) // unbuffered, nobody reading

	poller := NewPoller(provider, 5*time.Millisecond, sink)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		poller.Run(ctx)
		close(done)
	}()

	// The poller is parked on the send; cancellation must release it.
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop after context cancellation")
	}
}

func TestCommandProviderTrimsOutput(t *testing.T) {
	provider := NewCommandProvider("printf 'com.example.app\\n'")

	appID, err := provider.Foreground(context.Background())
	require.NoError(t, err)
	require.Equal(t, "com.example.app", appID)
}

func TestCommandProviderReportsFailure(t *testing.T) {
	provider := NewCommandProvider("exit 3")

	_, err := provider.Foreground(context.Background())
	require.Error(t, err)
}
