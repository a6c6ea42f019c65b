package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// LegacyLogger 舊版 logger（使用 fmt.Fprint*，用於回退）
type LegacyLogger struct {
	level     *levelVar
	out       io.Writer // debug/info
	errOut    io.Writer // warn/error
	fields    []any
	sanitizer *Sanitizer
}

type levelVar struct {
	mu    sync.RWMutex
	level Level
}

// NewLegacyLogger 建立 legacy logger，輸出到 stderr
func NewLegacyLogger() *LegacyLogger {
	return NewLegacyLoggerTo(os.Stderr, os.Stderr)
}

// NewLegacyLoggerTo 建立寫到指定 writers 的 legacy logger
func NewLegacyLoggerTo(out, errOut io.Writer) *LegacyLogger {
	return &LegacyLogger{
		level:     &levelVar{level: LevelInfo},
		out:       out,
		errOut:    errOut,
		sanitizer: NewSanitizer(),
	}
}

// SetLevel 設定日誌級別，子 logger 一併生效
func (l *LegacyLogger) SetLevel(level Level) {
	l.level.mu.Lock()
	defer l.level.mu.Unlock()
	l.level.level = level
}

func (l *LegacyLogger) shouldLog(level Level) bool {
	l.level.mu.RLock()
	defer l.level.mu.RUnlock()
	return level >= l.level.level
}

func (l *LegacyLogger) write(w io.Writer, level Level, msg string, args []any) {
	if !l.shouldLog(level) {
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", strings.ToUpper(level.String()), l.sanitizer.Sanitize(msg))
	all := append(append([]any{}, l.fields...), l.sanitizer.SanitizeArgs(args)...)
	for i := 0; i+1 < len(all); i += 2 {
		fmt.Fprintf(&b, " %v=%v", all[i], all[i+1])
	}
	if len(all)%2 == 1 {
		fmt.Fprintf(&b, " %v", all[len(all)-1])
	}
	fmt.Fprintln(w, b.String())
}

func (l *LegacyLogger) Debug(msg string, args ...any) { l.write(l.out, LevelDebug, msg, args) }
func (l *LegacyLogger) Info(msg string, args ...any)  { l.write(l.out, LevelInfo, msg, args) }
func (l *LegacyLogger) Warn(msg string, args ...any)  { l.write(l.errOut, LevelWarn, msg, args) }
func (l *LegacyLogger) Error(msg string, args ...any) { l.write(l.errOut, LevelError, msg, args) }

// With 建立帶欄位的子 logger，共用級別與 writers
func (l *LegacyLogger) With(args ...any) Logger {
	return &LegacyLogger{
		level:     l.level,
		out:       l.out,
		errOut:    l.errOut,
		fields:    append(append([]any{}, l.fields...), l.sanitizer.SanitizeArgs(args)...),
		sanitizer: l.sanitizer,
	}
}

// Sync 強制 flush
func (l *LegacyLogger) Sync() error {
	return nil
}

// Shutdown 優雅關閉
func (l *LegacyLogger) Shutdown() error {
	return nil
}
