package logger

import (
	"fmt"
	"os"
	"sync"
)

// LegacyEnvVar 設為 "true" 時改用舊版 logger
const LegacyEnvVar = "MISTERGEN_USE_LEGACY_LOGGER"

var (
	mu            sync.RWMutex
	defaultLogger Logger = nullLogger
	initialized   bool
)

var nullLogger = &NullLogger{}

// Init 初始化全域 logger；重複初始化前須先 Shutdown
func Init(config Config) error {
	mu.Lock()
	defer mu.Unlock()

	if initialized {
		return fmt.Errorf("logger already initialized; call Shutdown() before re-initializing")
	}

	l, err := newLogger(config)
	if err != nil {
		return err
	}

	defaultLogger = l
	initialized = true
	return nil
}

// newLogger 依環境變數選擇 slog 或 legacy 實作
func newLogger(config Config) (Logger, error) {
	if os.Getenv(LegacyEnvVar) == "true" {
		legacy := NewLegacyLogger()
		legacy.SetLevel(config.Level)
		legacy.sanitizer = newConfiguredSanitizer(config)
		return legacy, nil
	}

	l, err := NewSlogLogger(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create slog logger: %w", err)
	}
	return l, nil
}

// newConfiguredSanitizer 建立含設定中秘密值的 sanitizer
func newConfiguredSanitizer(config Config) *Sanitizer {
	s := NewSanitizer()
	for _, secret := range config.Secrets {
		s.AddSecret(secret)
	}
	return s
}

// Get 取得全域 logger，未初始化時回傳 NullLogger
func Get() Logger {
	mu.RLock()
	defer mu.RUnlock()
	return defaultLogger
}

// With 建立帶 context 的子 logger
func With(args ...any) Logger {
	return Get().With(args...)
}

// Sync 強制 flush
func Sync() error {
	return Get().Sync()
}

// Shutdown 關閉全域 logger 的輸出並回到 NullLogger，可重複呼叫
func Shutdown() error {
	mu.Lock()
	if !initialized {
		mu.Unlock()
		return nil
	}

	l := defaultLogger
	defaultLogger = nullLogger
	initialized = false
	mu.Unlock() // 在鎖外關閉 writers

	return l.Shutdown()
}

// NullLogger 空 logger（不做任何事）
type NullLogger struct{}

func (n *NullLogger) Debug(msg string, args ...any) {}
func (n *NullLogger) Info(msg string, args ...any)  {}
func (n *NullLogger) Warn(msg string, args ...any)  {}
func (n *NullLogger) Error(msg string, args ...any) {}
func (n *NullLogger) With(args ...any) Logger       { return n }
func (n *NullLogger) Sync() error                   { return nil }
func (n *NullLogger) Shutdown() error               { return nil }
