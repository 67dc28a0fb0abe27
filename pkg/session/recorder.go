package session

import (
	"context"
	"time"

	"github.com/mkarpenko/echo-ai/pkg/llm"
	"github.com/mkarpenko/echo-ai/pkg/utils"
)

// Recorder зеркалирует сообщения истории в сессию.
//
// Ошибки записи логируются, но не прерывают диалог: потеря одной
// записи в журнале дешевле сорванного ответа.
type Recorder struct {
	store     *Store
	sessionID string
}

// NewRecorder создает рекордер для существующей сессии.
func NewRecorder(store *Store, sessionID string) *Recorder {
	return &Recorder{store: store, sessionID: sessionID}
}

// SessionID возвращает сессию, в которую идёт запись.
func (r *Recorder) SessionID() string {
	return r.sessionID
}

// Record сохраняет сообщение в сессию.
func (r *Recorder) Record(msg llm.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := r.store.Append(ctx, r.sessionID, msg); err != nil {
		utils.Error("failed to record message", "session_id", r.sessionID, "error", err)
	}
}
