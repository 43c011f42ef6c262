package dlog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/net/context"
)

type color int

const (
	timeFormat = "[2006-01-02 15:04:05.000]"

	reset = "\033[0m"

	cyan         color = 36
	lightGray    color = 37
	lightRed     color = 91
	green        color = 92
	lightYellow  color = 93
	lightBlue    color = 94
	lightMagenta color = 95
	white        color = 97
)

func colorizer(colorCode color, v string) string {
	return fmt.Sprintf("\033[%sm%s%s", strconv.Itoa(int(colorCode)), v, reset)
}

type DualWriter struct {
	Stdout *os.File
	File   io.Writer
}

func (t DualWriter) Write(p []byte) (n int, err error) {
	n, err = t.Stdout.Write(p)
	if err != nil {
		return n, err
	}
	return t.File.Write(p)
}

type Handler struct {
	h        slog.Handler
	b        *bytes.Buffer
	m        *sync.Mutex
	writer   DualWriter
	colorize bool
}

func NewHandler(writer DualWriter, opts *slog.HandlerOptions) *Handler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	buf := &bytes.Buffer{}
	return &Handler{
		b: buf,
		h: slog.NewJSONHandler(buf, &slog.HandlerOptions{
			Level:       opts.Level,
			AddSource:   opts.AddSource,
			ReplaceAttr: suppressDefaults(opts.ReplaceAttr),
		}),
		m:        &sync.Mutex{},
		writer:   writer,
		colorize: true,
	}
}

func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.h.Enabled(ctx, level)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{h: h.h.WithAttrs(attrs), b: h.b, m: h.m, writer: h.writer, colorize: h.colorize}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{h: h.h.WithGroup(name), b: h.b, m: h.m, writer: h.writer, colorize: h.colorize}
}

func (h *Handler) computeAttrs(ctx context.Context, r slog.Record) (map[string]any, error) {
	h.m.Lock()
	defer func() {
		h.b.Reset()
		h.m.Unlock()
	}()
	if err := h.h.Handle(ctx, r); err != nil {
		return nil, fmt.Errorf("error when calling inner handler's Handle: %w", err)
	}

	var attrs map[string]any
	err := json.Unmarshal(h.b.Bytes(), &attrs)
	if err != nil {
		return nil, fmt.Errorf("error when unmarshaling inner handler's Handle result: %w", err)
	}
	return attrs, nil
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	colorize := func(code color, value string) string {
		return value
	}
	if h.colorize {
		colorize = colorizer
	}

	level := r.Level.String() + ":"
	switch {
	case r.Level <= slog.LevelDebug:
		level = colorize(lightGray, level)
	case r.Level <= slog.LevelInfo:
		level = colorize(cyan, level)
	case r.Level < slog.LevelError:
		level = colorize(lightYellow, level)
	case r.Level <= slog.LevelError+1:
		level = colorize(lightRed, level)
	default:
		level = colorize(lightMagenta, level)
	}

	timestamp := colorize(lightGray, r.Time.Format(timeFormat))
	msg := colorize(white, r.Message)

	attrs, err := h.computeAttrs(ctx, r)
	if err != nil {
		return err
	}

	var file string
	if source, ok := attrs["source"].(map[string]interface{}); ok {
		if line, ok2 := source["line"].(float64); ok2 {
			file = source["file"].(string) + ":" + strconv.Itoa(int(line))
		}
		delete(attrs, "source")
	}

	var fields string
	if len(attrs) > 0 {
		jsonBytes, err := json.Marshal(attrs)
		if err != nil {
			return fmt.Errorf("error when marshaling attrs: %w", err)
		}
		fields = colorize(green, string(jsonBytes))
	}

	out := strings.Builder{}
	out.WriteString(timestamp)
	out.WriteString(" ")
	out.WriteString(level)
	out.WriteString(" ")
	if len(file) > 0 {
		out.WriteString(file)
		out.WriteString(" ")
	}
	out.WriteString(msg)
	if len(fields) > 0 {
		out.WriteString(" ")
		out.WriteString(fields)
	}
	out.WriteString("\n")

	// debug stays out of the terminal, file only
	if r.Level <= slog.LevelDebug {
		_, err := h.writer.File.Write([]byte(out.String()))
		return err
	}

	_, err = io.WriteString(h.writer, out.String())
	return err
}

func suppressDefaults(next func([]string, slog.Attr) slog.Attr) func([]string, slog.Attr) slog.Attr {
	return func(groups []string, a slog.Attr) slog.Attr {
		if a.Key == slog.TimeKey ||
			a.Key == slog.LevelKey ||
			a.Key == slog.MessageKey {
			return slog.Attr{}
		}
		if next == nil {
			return a
		}
		return next(groups, a)
	}
}
