package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// SlogLogger 以 log/slog 輸出；訊息與每個屬性都經過 Sanitizer.ReplaceAttr
type SlogLogger struct {
	logger *slog.Logger

	// 只有 New 回傳的根 logger 持有 closers，With 的子 logger 不會重複關閉
	closers []io.Closer
}

// New 依設定組合 console 與 rotating file 輸出
func New(config Config) (*SlogLogger, error) {
	out, closers, err := openOutputs(config)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{
		Level:       config.Level,
		ReplaceAttr: NewSanitizer().ReplaceAttr,
	}
	var h slog.Handler = slog.NewTextHandler(out, opts)
	if config.Format == FormatJSON {
		h = slog.NewJSONHandler(out, opts)
	}
	return &SlogLogger{logger: slog.New(h), closers: closers}, nil
}

func openOutputs(config Config) (io.Writer, []io.Closer, error) {
	var (
		writers []io.Writer
		closers []io.Closer
	)
	if !config.Quiet {
		console := config.Writer
		if console == nil {
			console = os.Stderr
		}
		writers = append(writers, console)
	}
	if config.File.Enabled() {
		if err := os.MkdirAll(filepath.Dir(config.File.Path), 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		file := &lumberjack.Logger{
			Filename:   config.File.Path,
			MaxSize:    config.File.MaxSizeMB,
			MaxAge:     config.File.MaxAgeDays,
			MaxBackups: config.File.MaxBackups,
			Compress:   config.File.Compress,
		}
		writers = append(writers, file)
		closers = append(closers, file)
	}

	switch len(writers) {
	case 0:
		return io.Discard, nil, nil
	case 1:
		return writers[0], closers, nil
	}
	return io.MultiWriter(writers...), closers, nil
}

func (l *SlogLogger) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }
func (l *SlogLogger) Info(msg string, args ...any)  { l.logger.Info(msg, args...) }
func (l *SlogLogger) Warn(msg string, args ...any)  { l.logger.Warn(msg, args...) }
func (l *SlogLogger) Error(msg string, args ...any) { l.logger.Error(msg, args...) }

func (l *SlogLogger) With(args ...any) Logger {
	return &SlogLogger{logger: l.logger.With(args...)}
}

// Shutdown 關閉 log 檔；回傳最後一個錯誤
func (l *SlogLogger) Shutdown() error {
	var lastErr error
	for _, c := range l.closers {
		if err := c.Close(); err != nil {
			lastErr = err
		}
	}
	l.closers = nil
	return lastErr
}
