package util

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"
)

type contextKey string

// RequestIDKey carries the request ID through context for log tagging.
const RequestIDKey contextKey = "request_id"

func LogInfo(format string, v ...any) {
	log.Printf("[INFO] "+format, v...)
}

func LogWarn(format string, v ...any) {
	log.Printf("[WARN] "+format, v...)
}

func LogFatal(format string, v ...any) {
	log.Fatalf("[FATAL] "+format, v...)
}

// LogInfoCtx logs with the request ID from ctx when one is present.
func LogInfoCtx(ctx context.Context, format string, v ...any) {
	if reqID, ok := ctx.Value(RequestIDKey).(string); ok && reqID != "" {
		log.Printf("[INFO] [request_id="+reqID+"] "+format, v...)
		return
	}
	LogInfo(format, v...)
}

func LogWarnCtx(ctx context.Context, format string, v ...any) {
	if reqID, ok := ctx.Value(RequestIDKey).(string); ok && reqID != "" {
		log.Printf("[WARN] [request_id="+reqID+"] "+format, v...)
		return
	}
	LogWarn(format, v...)
}

func GetEnvString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func GetEnvInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		LogWarn("Invalid int for %s: %v, using default %d", key, err, fallback)
		return fallback
	}
	return i
}

func GetEnvDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		LogWarn("Invalid duration for %s: %v, using default %v", key, err, fallback)
		return fallback
	}
	return d
}

const dayFormat = "2006-01-02"

// Today returns the current UTC calendar day as YYYY-MM-DD.
func Today() string {
	return time.Now().UTC().Format(dayFormat)
}

func ValidDay(date string) bool {
	_, err := time.Parse(dayFormat, date)
	return err == nil
}

// PrevDay returns the calendar day before date. Invalid input yields "".
func PrevDay(date string) string {
	t, err := time.Parse(dayFormat, date)
	if err != nil {
		return ""
	}
	return t.AddDate(0, 0, -1).Format(dayFormat)
}

// DayBefore returns the day cutoff days before date, for retention cleanup.
func DayBefore(date string, days int) string {
	t, err := time.Parse(dayFormat, date)
	if err != nil {
		return ""
	}
	return t.AddDate(0, 0, -days).Format(dayFormat)
}
