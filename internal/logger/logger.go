package logger

import (
	"errors"
	"sync"
)

// ErrAlreadyInitialized is returned by Init until Shutdown has been called
var ErrAlreadyInitialized = errors.New("logger already initialized")

// global 程序層級 logger；每個 CLI 指令 Init 一次，結束時 Shutdown
var global struct {
	mu sync.RWMutex
	l  Logger
}

// Init 依設定建立全域 logger
func Init(config Config) error {
	global.mu.Lock()
	defer global.mu.Unlock()

	if global.l != nil {
		return ErrAlreadyInitialized
	}
	l, err := New(config)
	if err != nil {
		return err
	}
	global.l = l
	return nil
}

// Get 回傳全域 logger；尚未 Init 時回傳 NullLogger
func Get() Logger {
	global.mu.RLock()
	defer global.mu.RUnlock()

	if global.l == nil {
		return NullLogger{}
	}
	return global.l
}

// Swap installs l as the global logger and returns the previous one (nil
// when none was set). The previous logger is not shut down.
func Swap(l Logger) Logger {
	global.mu.Lock()
	defer global.mu.Unlock()

	prev := global.l
	global.l = l
	return prev
}

// With 以全域 logger 建立子 logger
func With(args ...any) Logger {
	return Get().With(args...)
}

// Component tags the global logger with a component name such as
// "session" or "webdav"
func Component(name string) Logger {
	return Get().With("component", name)
}

// Shutdown 卸下全域 logger 並關閉其 writers；可重複呼叫
func Shutdown() error {
	global.mu.Lock()
	l := global.l
	global.l = nil
	global.mu.Unlock()

	if l == nil {
		return nil
	}
	return l.Shutdown()
}

// NullLogger 丟棄所有訊息
type NullLogger struct{}

func (NullLogger) Debug(string, ...any) {}
func (NullLogger) Info(string, ...any)  {}
func (NullLogger) Warn(string, ...any)  {}
func (NullLogger) Error(string, ...any) {}
func (n NullLogger) With(...any) Logger { return n }
func (NullLogger) Shutdown() error      { return nil }
