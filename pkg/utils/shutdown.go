// Graceful shutdown: отмена контекста по SIGINT/SIGTERM.
package utils

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// SetupGracefulShutdown устанавливает обработчик сигналов завершения.
//
// При получении SIGINT (Ctrl+C) или SIGTERM вызывает cancel, давая
// приложению корректно завершить работу и сбросить логи.
//
// Возвращает функцию освобождения ресурсов для defer:
//
//	ctx, cancel := context.WithCancel(context.Background())
//	defer SetupGracefulShutdown(cancel)()
func SetupGracefulShutdown(cancel context.CancelFunc) func() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-done:
		}
	}()

	return func() {
		signal.Stop(sigCh)
		close(done)
	}
}
