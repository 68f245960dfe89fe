package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
)

const (
	ansiReset = "\033[0m"
	ansiGray  = "\033[90m"
)

// systemKey is shown as a bracketed prefix instead of a key=value pair.
const systemKey = "system"

// levelStyle is the label and color printed for one level.
type levelStyle struct {
	level slog.Level
	label string
	color string
}

var levelStyles = []levelStyle{
	{slog.LevelError, "ERROR", "\033[31m"},
	{slog.LevelWarn, "WARN", "\033[33m"},
	{slog.LevelInfo, "INFO", "\033[36m"},
	{slog.LevelDebug, "DEBUG", ansiGray},
}

// styleFor returns the style of the highest level not above l.
func styleFor(l slog.Level) levelStyle {
	for _, s := range levelStyles {
		if l >= s.level {
			return s
		}
	}
	return levelStyle{level: l, label: fmt.Sprintf("LEVEL(%d)", l), color: ansiReset}
}

// MavenHandler writes one line per record in Maven-style:
//
//	[LEVEL] [SYSTEM] [HH:MM:SS] message key=value key=value
//
// Colors are used only when the writer is a terminal.
type MavenHandler struct {
	w      io.Writer
	mu     *sync.Mutex
	level  slog.Leveler
	color  bool
	system string      // "api", "import", "extractor", ...
	prefix string      // group path for keys added after WithGroup, e.g. "tx."
	attrs  []slog.Attr // already prefixed
}

// NewMavenHandler creates a new Maven-style handler
func NewMavenHandler(w io.Writer, opts *slog.HandlerOptions) *MavenHandler {
	h := &MavenHandler{
		w:     w,
		mu:    &sync.Mutex{},
		level: slog.LevelInfo,
		color: isTerminal(w),
	}
	if opts != nil && opts.Level != nil {
		h.level = opts.Level
	}
	return h
}

// isTerminal checks if the writer is a terminal (for color output)
func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}

// Enabled reports whether the handler handles records at the given level.
func (h *MavenHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle formats and writes a log record
func (h *MavenHandler) Handle(_ context.Context, r slog.Record) error {
	var buf strings.Builder

	style := styleFor(r.Level)
	h.bracket(&buf, style.label, style.color)
	if h.system != "" {
		buf.WriteString(" ")
		h.bracket(&buf, h.system, "")
	}
	buf.WriteString(" ")
	h.bracket(&buf, r.Time.Format("15:04:05"), ansiGray)

	buf.WriteString(" ")
	buf.WriteString(r.Message)

	for _, a := range h.attrs {
		writeAttr(&buf, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		if a.Key != systemKey {
			writeAttr(&buf, h.prefix, a)
		}
		return true
	})
	buf.WriteString("\n")

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, buf.String())
	return err
}

func (h *MavenHandler) bracket(buf *strings.Builder, text, color string) {
	if h.color && color != "" {
		buf.WriteString(color)
		defer buf.WriteString(ansiReset)
	}
	buf.WriteString("[")
	buf.WriteString(text)
	buf.WriteString("]")
}

// writeAttr appends " key=value". Group attrs are flattened into dotted keys.
func writeAttr(buf *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		inner := prefix
		if a.Key != "" {
			inner += a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			writeAttr(buf, inner, ga)
		}
		return
	}

	buf.WriteString(" ")
	buf.WriteString(prefix)
	buf.WriteString(a.Key)
	buf.WriteString("=")
	buf.WriteString(formatValue(a.Value))
}

// formatValue renders a value, quoting it when it would break key=value parsing.
// Decimals and calendar dates print through their String methods.
func formatValue(v slog.Value) string {
	var s string
	switch v.Kind() {
	case slog.KindTime:
		s = v.Time().Format(time.RFC3339)
	case slog.KindDuration:
		s = v.Duration().Round(time.Millisecond).String()
	case slog.KindAny:
		switch x := v.Any().(type) {
		case error:
			s = x.Error()
		case fmt.Stringer:
			s = x.String()
		default:
			s = fmt.Sprint(x)
		}
	default:
		s = v.String()
	}

	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		return strconv.Quote(s)
	}
	return s
}

// WithAttrs returns a new handler with the given attributes added.
// A "system" attribute replaces the bracketed system name.
func (h *MavenHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := h.clone()
	for _, a := range attrs {
		if a.Key == systemKey && h.prefix == "" {
			c.system = a.Value.String()
			continue
		}
		if a.Value.Kind() == slog.KindGroup && a.Key == "" {
			c.attrs = append(c.attrs, a)
			continue
		}
		a.Key = h.prefix + a.Key
		c.attrs = append(c.attrs, a)
	}
	return c
}

// WithGroup returns a new handler with the given group name added
func (h *MavenHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := h.clone()
	c.prefix = h.prefix + name + "."
	return c
}

func (h *MavenHandler) clone() *MavenHandler {
	c := *h
	c.attrs = slices.Clip(h.attrs)
	return &c
}
