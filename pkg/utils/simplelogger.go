// Package utils предоставляет простой файловый логгер для TUI приложений.
//
// TUI владеет терминалом, поэтому логи уходят в файл: логгер создаёт
// .log файл с timestamp в имени. Thread-safe через sync.Mutex.
package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var (
	logFile      *os.File
	logMutex     sync.Mutex
	initialized  bool
	debugEnabled bool
)

// InitLogger создает .log файл в указанной директории.
//
// Имя файла: echoai-YYYY-MM-DD-HH-MM.log. Пустая dir — текущая директория.
// debug включает запись Debug-сообщений (иначе они отбрасываются).
func InitLogger(dir string, debug bool) error {
	logMutex.Lock()
	defer logMutex.Unlock()

	if initialized {
		return nil
	}

	timestamp := time.Now().Format("2006-01-02-15-04")
	filename := fmt.Sprintf("echoai-%s.log", timestamp)
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create log dir: %w", err)
		}
		filename = filepath.Join(dir, filename)
	}

	var err error
	logFile, err = os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	initialized = true
	debugEnabled = debug

	// Пишем напрямую без Info чтобы избежать deadlock (мьютекс уже захвачен)
	now := time.Now().Format("2006-01-02 15:04:05")
	initLine := fmt.Sprintf("[%s] INFO: Logger initialized file=%s\n", now, filename)
	if _, err := logFile.WriteString(initLine); err != nil {
		fmt.Fprintf(os.Stderr, "%s", initLine)
		fmt.Fprintf(os.Stderr, "[LOGGER ERROR: WriteString failed: %v]\n", err)
	}

	return nil
}

// Info — информационное сообщение.
func Info(msg string, keyvals ...any) {
	write("INFO", msg, keyvals...)
}

// Error — сообщение об ошибке.
func Error(msg string, keyvals ...any) {
	write("ERROR", msg, keyvals...)
}

// Debug — отладочное сообщение. Пишется только при включенном debug.
func Debug(msg string, keyvals ...any) {
	logMutex.Lock()
	enabled := debugEnabled
	logMutex.Unlock()
	if !enabled {
		return
	}
	write("DEBUG", msg, keyvals...)
}

// Warn — предупреждение.
func Warn(msg string, keyvals ...any) {
	write("WARN", msg, keyvals...)
}

// write — внутренняя функция записи в лог.
//
// Формат: [YYYY-MM-DD HH:MM:SS] LEVEL: message key1=value1 key2=value2
// При ошибке записи в файл — fallback на stderr.
func write(level, msg string, keyvals ...any) {
	logMutex.Lock()
	defer logMutex.Unlock()

	if logFile == nil {
		return
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	line := fmt.Sprintf("[%s] %s: %s", timestamp, level, msg)

	for i := 0; i < len(keyvals); i += 2 {
		if i+1 < len(keyvals) {
			line += fmt.Sprintf(" %v=%v", keyvals[i], keyvals[i+1])
		}
	}

	line += "\n"

	if _, err := logFile.WriteString(line); err != nil {
		fmt.Fprintf(os.Stderr, "%s", line)
		fmt.Fprintf(os.Stderr, "[LOGGER ERROR: WriteString failed: %v]\n", err)
		return
	}

	if err := logFile.Sync(); err != nil {
		fmt.Fprintf(os.Stderr, "[LOGGER WARNING: Sync failed: %v]\n", err)
	}
}

// Close закрывает лог-файл. Вызывается через defer в main().
func Close() {
	logMutex.Lock()
	defer logMutex.Unlock()

	if logFile != nil {
		if err := logFile.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "[LOGGER WARNING: Close failed: %v]\n", err)
		}
		logFile = nil
		initialized = false
	}
}
