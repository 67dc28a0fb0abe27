package events

import (
	"context"
	"sync"
	"testing"
	"time"
)

// TestChanEmitterDelivery verifies events reach a subscriber in order.
func TestChanEmitterDelivery(t *testing.T) {
	e := NewChanEmitter(10)
	sub := e.Subscribe()

	ctx := context.Background()
	e.Emit(ctx, Event{Type: EventThinking, Data: ThinkingData{Query: "hi"}})
	e.Emit(ctx, Event{Type: EventDone, Data: MessageData{Content: "bye"}})
	e.Close()

	var got []EventType
	for ev := range sub.Events() {
		got = append(got, ev.Type)
		if ev.Timestamp.IsZero() {
			t.Error("Timestamp not set on emit")
		}
	}

	if len(got) != 2 || got[0] != EventThinking || got[1] != EventDone {
		t.Errorf("events = %v", got)
	}
}

// TestChanEmitterEmitAfterClose verifies closed emitter drops events silently.
func TestChanEmitterEmitAfterClose(t *testing.T) {
	e := NewChanEmitter(1)
	e.Close()

	// Не должно паниковать и не должно блокироваться
	done := make(chan struct{})
	go func() {
		e.Emit(context.Background(), Event{Type: EventDone})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Emit blocked after Close")
	}
}

// TestChanEmitterConcurrentClose verifies Close racing with active emitters
// never panics: выход из TUI посреди взаимодействия закрывает эмиттер,
// пока фоновая goroutine ещё шлёт события.
func TestChanEmitterConcurrentClose(t *testing.T) {
	for run := 0; run < 50; run++ {
		e := NewChanEmitter(4)
		ctx, cancel := context.WithCancel(context.Background())

		var wg sync.WaitGroup
		for g := 0; g < 8; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 100; i++ {
					e.Emit(ctx, Event{Type: EventThinking})
				}
			}()
		}

		go func() {
			for range e.Subscribe().Events() {
			}
		}()

		e.Close()
		cancel() // отпускает эмиттеры, застрявшие на полном буфере
		wg.Wait()
	}
}

// TestChanEmitterContextCancel verifies Emit honors context on a full channel.
func TestChanEmitterContextCancel(t *testing.T) {
	e := NewChanEmitter(0) // небуферизованный, без читателей

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		e.Emit(ctx, Event{Type: EventDone})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Emit did not honor cancelled context")
	}
}
