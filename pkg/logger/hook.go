package logger

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
)

// LogrusContextHook добавляет в запись лога файл и строку вызова
type LogrusContextHook struct{}

// Levels уровни, на которых срабатывает хук
func (m LogrusContextHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire заполняет поле source первым вызовом вне пакетов logrus и logger
func (m LogrusContextHook) Fire(entry *logrus.Entry) error {
	pcs := make([]uintptr, 16)
	n := runtime.Callers(4, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "sirupsen/logrus") &&
			!strings.HasSuffix(filepath.Dir(frame.File), "pkg/logger") {
			entry.Data["source"] = fmt.Sprintf("%s:%d", filepath.Base(frame.File), frame.Line)
			break
		}
		if !more {
			break
		}
	}
	return nil
}
