package events

import (
	"context"
	"sync"
	"time"
)

// ChanEmitter — стандартная реализация Emitter через канал.
//
// Thread-safe. Используется как дефолтная реализация во всём приложении.
type ChanEmitter struct {
	mu     sync.RWMutex
	ch     chan Event
	closed bool
}

// NewChanEmitter создаёт ChanEmitter с буферизованным каналом.
//
// buffer = 0 даёт небуферизованный (blocking) канал.
func NewChanEmitter(buffer int) *ChanEmitter {
	return &ChanEmitter{
		ch: make(chan Event, buffer),
	}
}

// Emit отправляет событие в канал.
//
// Если эмиттер закрыт — событие молча отбрасывается; при отменённом
// context отправка прерывается. Timestamp проставляется здесь,
// если вызывающий его не заполнил.
func (e *ChanEmitter) Emit(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	// RLock держится на время отправки: Close ждёт write-lock и не
	// закроет канал под активной отправкой.
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return
	}

	select {
	case e.ch <- event:
	case <-ctx.Done():
	}
}

// Subscribe возвращает Subscriber для чтения событий.
//
// Канал общий: несколько подписчиков делят один поток событий.
func (e *ChanEmitter) Subscribe() Subscriber {
	return &chanSubscriber{ch: e.ch}
}

// Close закрывает канал. После закрытия Emit не отправляет события.
func (e *ChanEmitter) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	close(e.ch)
}

// chanSubscriber реализует Subscriber поверх общего канала.
type chanSubscriber struct {
	ch <-chan Event
}

// Events возвращает read-only канал событий.
func (s *chanSubscriber) Events() <-chan Event {
	return s.ch
}

// Close — no-op: общий канал закрывается только через ChanEmitter.Close().
func (s *chanSubscriber) Close() {}

var _ Emitter = (*ChanEmitter)(nil)
var _ Subscriber = (*chanSubscriber)(nil)
