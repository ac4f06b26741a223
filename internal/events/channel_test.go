package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runeEvent(r rune) Event {
	return KeyEvent(tea.Key{Type: tea.KeyRunes, Runes: []rune{r}})
}

func TestChannel_FIFO(t *testing.T) {
	ch := NewChannel()
	sent := []Event{InitEvent(), runeEvent('a'), QueryEvent("git"), runeEvent('b'), QuitEvent()}
	for _, ev := range sent {
		require.True(t, ch.Send(ev))
	}
	assert.Equal(t, len(sent), ch.Len())

	for _, want := range sent {
		got, err := ch.Next(context.Background())
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.Zero(t, ch.Len())
}

func TestChannel_OrderedAcrossGoroutines(t *testing.T) {
	const total = 5000
	ch := NewChannel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < total; i++ {
			ch.Send(QueryEvent(string(rune('a' + i%26))))
		}
		ch.Close()
	}()

	var received []string
	for {
		ev, err := ch.Next(context.Background())
		if errors.Is(err, ErrClosed) {
			break
		}
		require.NoError(t, err)
		received = append(received, ev.Query)
	}
	wg.Wait()

	require.Len(t, received, total)
	for i, q := range received {
		assert.Equal(t, string(rune('a'+i%26)), q, "event %d", i)
	}
}

func TestChannel_NextBlocksUntilSend(t *testing.T) {
	ch := NewChannel()
	got := make(chan Event, 1)

	go func() {
		ev, err := ch.Next(context.Background())
		if err == nil {
			got <- ev
		}
		close(got)
	}()

	select {
	case <-got:
		t.Fatal("Next returned before any event was sent")
	case <-time.After(50 * time.Millisecond):
	}

	ch.Send(runeEvent('x'))
	select {
	case ev := <-got:
		assert.Equal(t, runeEvent('x'), ev)
	case <-time.After(2 * time.Second):
		t.Fatal("Next did not return after Send")
	}
}

func TestChannel_NextHonoursContext(t *testing.T) {
	ch := NewChannel()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := ch.Next(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestChannel_CloseDrainsThenFails(t *testing.T) {
	ch := NewChannel()
	ch.Send(runeEvent('a'))
	ch.Close()

	assert.False(t, ch.Send(runeEvent('b')))

	ev, err := ch.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, runeEvent('a'), ev)

	_, err = ch.Next(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestEventString(t *testing.T) {
	tests := []struct {
		ev   Event
		want string
	}{
		{InitEvent(), "init"},
		{QuitEvent(), "quit"},
		{runeEvent('q'), "key(q)"},
		{KeyEvent(tea.Key{Type: tea.KeyEnter}), "key(enter)"},
		{QueryEvent("ls"), `search_query_changed("ls")`},
		{FailureEvent(errors.New("boom")), "failure(boom)"},
		{Event{Kind: Kind(42)}, "kind(42)"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.ev.String())
	}
}
