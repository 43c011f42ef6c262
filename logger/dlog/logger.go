package dlog

import (
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
)

var Log *slog.Logger

func init() {
	Setup()
}

func Setup() {
	err := os.MkdirAll("logs", os.ModePerm)
	if err != nil {
		panic(err)
	}
	Log = createLogger()
}

func Info(msg string, args ...any) {
	Log.Info(msg, args...)
}
func Error(msg string, args ...any) {
	Log.Error(msg, args...)
}
func Warn(msg string, args ...any) {
	Log.Warn(msg, args...)
}
func Debug(msg string, args ...any) {
	Log.Debug(msg, args...)
}

func createLogger() *slog.Logger {
	opts := &slog.HandlerOptions{
		AddSource: true,
	}

	return slog.New(slogmulti.Fanout(
		getPrettyHandler(opts),
		getJsonHandler(opts),
	))
}

func getJsonHandler(opts *slog.HandlerOptions) slog.Handler {
	fileJson, err := os.OpenFile("logs/default.json", os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0600)
	if err != nil {
		panic(err)
	}
	return slog.NewJSONHandler(fileJson, opts)
}

func getPrettyHandler(opts *slog.HandlerOptions) *Handler {
	filePretty, err := os.OpenFile("logs/pretty.log", os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0600)
	if err != nil {
		panic(err)
	}

	return NewHandler(DualWriter{
		Stdout: os.Stdout,
		File:   filePretty,
	}, opts)
}
