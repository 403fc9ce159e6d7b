package logger

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

type Logger struct {
	logger *log.Logger
	level  Level

	mu        sync.RWMutex
	publisher Publisher
	fields    []interface{}
}

type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

// Entry - структурированная запись для внешних приемников логов
type Entry struct {
	Timestamp time.Time
	Level     string
	Message   string
	Fields    map[string]interface{}
}

// Publisher принимает копию каждой записи (например, CloudWatch Logs)
type Publisher interface {
	Publish(ctx context.Context, entry Entry) error
}

func New(level string) *Logger {
	l := &Logger{
		logger: log.New(os.Stdout, "", 0),
		level:  parseLevel(level),
	}
	return l
}

func parseLevel(level string) Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return DEBUG
	case "info":
		return INFO
	case "warn":
		return WARN
	case "error":
		return ERROR
	default:
		return INFO
	}
}

// SetLogPublisher включает дублирование записей во внешний приемник
func (l *Logger) SetLogPublisher(p Publisher) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.publisher = p
}

// With возвращает логгер с постоянными полями, общий приемник сохраняется
func (l *Logger) With(args ...interface{}) *Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()

	fields := make([]interface{}, 0, len(l.fields)+len(args))
	fields = append(fields, l.fields...)
	fields = append(fields, args...)

	return &Logger{
		logger:    l.logger,
		level:     l.level,
		publisher: l.publisher,
		fields:    fields,
	}
}

func (l *Logger) Debug(msg string, args ...interface{}) {
	if l.level <= DEBUG {
		l.log("DEBUG", msg, args...)
	}
}

func (l *Logger) Info(msg string, args ...interface{}) {
	if l.level <= INFO {
		l.log("INFO", msg, args...)
	}
}

func (l *Logger) Warn(msg string, args ...interface{}) {
	if l.level <= WARN {
		l.log("WARN", msg, args...)
	}
}

func (l *Logger) Error(msg string, err error, args ...interface{}) {
	if l.level <= ERROR {
		if err != nil {
			args = append(args, "error", err.Error())
		}
		l.log("ERROR", msg, args...)
	}
}

func (l *Logger) log(level, msg string, args ...interface{}) {
	now := time.Now()

	l.mu.RLock()
	publisher := l.publisher
	if len(l.fields) > 0 {
		args = append(append([]interface{}{}, l.fields...), args...)
	}
	l.mu.RUnlock()

	message := fmt.Sprintf("[%s] [%s] %s", now.Format("2006-01-02 15:04:05"), level, msg)

	if len(args) > 0 {
		message += " |"
		for i := 0; i < len(args); i += 2 {
			if i+1 < len(args) {
				message += fmt.Sprintf(" %v=%v", args[i], args[i+1])
			}
		}
	}

	l.logger.Println(message)

	if publisher != nil {
		// ошибки приемника не логируем, чтобы не уйти в рекурсию
		_ = publisher.Publish(context.Background(), Entry{
			Timestamp: now,
			Level:     level,
			Message:   msg,
			Fields:    toFields(args),
		})
	}
}

func toFields(args []interface{}) map[string]interface{} {
	if len(args) < 2 {
		return nil
	}

	fields := make(map[string]interface{}, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		fields[fmt.Sprint(args[i])] = args[i+1]
	}
	return fields
}
