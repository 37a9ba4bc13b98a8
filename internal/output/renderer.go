package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"github.com/atikulmunna/uartwatch/internal/logger"
	"github.com/atikulmunna/uartwatch/internal/model"
)

// Renderer writes console lines and monitor events to an output stream.
type Renderer interface {
	Render(entry model.LogEntry) error
	RenderEvent(ev model.Event) error
}

// New returns the renderer for a format name: text, json or none.
func New(format string, w io.Writer) (Renderer, error) {
	switch format {
	case "text", "":
		return NewTextRenderer(w), nil
	case "json":
		return NewJSONRenderer(w), nil
	case "none":
		return Discard{}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q: must be text, json or none", format)
	}
}

// ---------------------------------------------------------------------------
// Text Renderer (colorized terminal output)
// ---------------------------------------------------------------------------

var (
	styleInfo  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")) // gray
	styleDebug = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Faint(true)
	styleWarn  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))            // yellow
	styleError = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true) // red bold
	styleFatal = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")).
			Background(lipgloss.Color("196")).
			Bold(true) // white on red
	styleSource = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Faint(true) // cyan
	styleOrigin = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))            // magenta
)

// TextRenderer prints lines to the terminal with severity-based colors.
type TextRenderer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewTextRenderer returns a Renderer that writes colorized text to w.
func NewTextRenderer(w io.Writer) *TextRenderer {
	return &TextRenderer{w: w}
}

func (r *TextRenderer) Render(entry model.LogEntry) error {
	tag := styleLevelTag(entry.Level)
	src := styleSource.Render(entry.Source)
	ts := entry.Timestamp.Format("15:04:05")

	// A trailing CR would return the cursor over the prefix.
	msg := strings.TrimRight(entry.Message, "\r")
	return r.println(fmt.Sprintf("%s %s %s %s", ts, tag, src, msg))
}

func (r *TextRenderer) RenderEvent(ev model.Event) error {
	tag := styleLevelTag(ev.Level)
	origin := styleOrigin.Render(fmt.Sprintf("[%s]", ev.Kind))
	ts := ev.Time.Format("15:04:05")
	return r.println(fmt.Sprintf("%s %s %s %s", ts, tag, origin, ev.Message))
}

func (r *TextRenderer) println(line string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := fmt.Fprintln(r.w, line)
	return err
}

func styleLevelTag(level string) string {
	padded := fmt.Sprintf("%-5s", strings.ToUpper(level))
	switch strings.ToLower(level) {
	case "trace", "debug":
		return styleDebug.Render(padded)
	case "warn", "warning":
		return styleWarn.Render(padded)
	case "error":
		return styleError.Render(padded)
	case "fatal", "panic":
		return styleFatal.Render(padded)
	default:
		return styleInfo.Render(padded)
	}
}

// ---------------------------------------------------------------------------
// JSON Renderer (structured output for piping)
// ---------------------------------------------------------------------------

// JSONRenderer prints each line or event as a single JSON object per line.
type JSONRenderer struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSONRenderer returns a Renderer that writes JSON lines to w.
func NewJSONRenderer(w io.Writer) *JSONRenderer {
	return &JSONRenderer{enc: json.NewEncoder(w)}
}

func (r *JSONRenderer) Render(entry model.LogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enc.Encode(entry)
}

func (r *JSONRenderer) RenderEvent(ev model.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enc.Encode(ev)
}

// Discard renders nothing.
type Discard struct{}

func (Discard) Render(model.LogEntry) error { return nil }
func (Discard) RenderEvent(model.Event) error { return nil }

// Filter drops console lines below a minimum level. Events always pass.
type Filter struct {
	Renderer
	min logrus.Level
}

// NewFilter wraps r so that only lines at min or more severe are rendered.
// Lines whose level name logrus does not know are dropped.
func NewFilter(r Renderer, min string) (*Filter, error) {
	lvl, err := logger.ParseLevel(min)
	if err != nil {
		return nil, err
	}
	return &Filter{Renderer: r, min: lvl}, nil
}

func (f *Filter) Render(entry model.LogEntry) error {
	if !logger.Admits(f.min, entry.Level) {
		return nil
	}
	return f.Renderer.Render(entry)
}
