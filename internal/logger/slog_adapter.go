package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// SlogLogger slog 實作，擁有輸出 writers
type SlogLogger struct {
	entry
	writers []io.WriteCloser // 需要關閉的 writers
}

// NewSlogLogger 建立新的 slog logger
func NewSlogLogger(config Config) (*SlogLogger, error) {
	var writers []io.Writer
	var closeableWriters []io.WriteCloser

	for _, output := range config.Outputs {
		switch output.Type {
		case OutputStdout, OutputStderr:
			w := streamWriter(output)
			writers = append(writers, w)
			if wc, ok := w.(io.WriteCloser); ok && !isStdStream(wc) {
				closeableWriters = append(closeableWriters, wc)
			}
		case OutputFile:
			if !config.File.Enabled {
				continue
			}
			fileWriter, err := createFileWriter(config.File)
			if err != nil {
				return nil, fmt.Errorf("failed to create file writer: %w", err)
			}
			writers = append(writers, fileWriter)
			closeableWriters = append(closeableWriters, fileWriter)
		}
	}

	if len(writers) == 0 {
		writers = append(writers, os.Stderr)
	}

	opts := &slog.HandlerOptions{
		Level: convertLevel(config.Level),
	}

	var handler slog.Handler
	w := io.MultiWriter(writers...)
	if config.Format == FormatJSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return &SlogLogger{
		entry: entry{
			logger:    slog.New(handler),
			sanitizer: newConfiguredSanitizer(config),
		},
		writers: closeableWriters,
	}, nil
}

// streamWriter 回傳指定的 writer，未指定時使用標準串流
func streamWriter(output OutputConfig) io.Writer {
	if output.Writer != nil {
		return output.Writer
	}
	if output.Type == OutputStdout {
		return os.Stdout
	}
	return os.Stderr
}

func isStdStream(wc io.WriteCloser) bool {
	return wc == os.Stdout || wc == os.Stderr || wc == os.Stdin
}

// createFileWriter 建立檔案 writer（使用 lumberjack 支援 rotation）
func createFileWriter(config FileConfig) (io.WriteCloser, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("log file path cannot be empty")
	}

	// 確保目錄存在
	if err := os.MkdirAll(filepath.Dir(config.Path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	return &lumberjack.Logger{
		Filename:   config.Path,
		MaxSize:    config.MaxSizeMB,
		MaxAge:     config.MaxAgeDays,
		MaxBackups: config.MaxBackups,
		Compress:   config.Compress,
	}, nil
}

// convertLevel 轉換內部 Level 到 slog.Level
func convertLevel(level Level) slog.Level {
	switch level {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Shutdown 優雅關閉，關閉所有 writers
func (l *SlogLogger) Shutdown() error {
	var lastErr error
	for _, w := range l.writers {
		if err := w.Close(); err != nil {
			lastErr = err
		}
	}
	l.writers = nil
	return lastErr
}

// entry 實際寫入日誌，子 logger 只共用 entry，不擁有 writers
type entry struct {
	logger    *slog.Logger
	sanitizer *Sanitizer
}

func (e *entry) log(level slog.Level, msg string, args []any) {
	e.logger.Log(context.Background(), level, e.sanitizer.Sanitize(msg), e.sanitizer.SanitizeArgs(args)...)
}

func (e *entry) Debug(msg string, args ...any) { e.log(slog.LevelDebug, msg, args) }
func (e *entry) Info(msg string, args ...any)  { e.log(slog.LevelInfo, msg, args) }
func (e *entry) Warn(msg string, args ...any)  { e.log(slog.LevelWarn, msg, args) }
func (e *entry) Error(msg string, args ...any) { e.log(slog.LevelError, msg, args) }

// With 建立帶 context 的子 logger
func (e *entry) With(args ...any) Logger {
	return &entry{
		logger:    e.logger.With(e.sanitizer.SanitizeArgs(args)...),
		sanitizer: e.sanitizer,
	}
}

// Sync lumberjack 每次寫入即落盤，無需額外 flush
func (e *entry) Sync() error { return nil }

// Shutdown 子 logger 不擁有 writers
func (e *entry) Shutdown() error { return nil }
