package console

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"vacpac/internal/manifest"
)

// Prefix tags every line written by a Logger.
const Prefix = "VACPAC"

var (
	prefixStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	debugStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	asyncStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	nameStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	paramStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
	docStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	pathStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

// Logger writes prefixed, glyph-tagged progress lines. Colors are used only
// when the destination is a terminal and NO_COLOR is unset.
type Logger struct {
	mu      sync.Mutex
	out     io.Writer
	color   bool
	verbose bool
}

// New creates a Logger writing to out.
func New(out io.Writer, verbose bool) *Logger {
	return &Logger{
		out:     out,
		color:   colorEnabled(out),
		verbose: verbose,
	}
}

// Discard returns a Logger that writes nothing.
func Discard() *Logger {
	return &Logger{out: io.Discard}
}

func colorEnabled(w io.Writer) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Verbose reports whether Debug output is shown.
func (l *Logger) Verbose() bool {
	return l.verbose
}

func (l *Logger) paint(style lipgloss.Style, s string) string {
	if !l.color {
		return s
	}
	return style.Render(s)
}

func (l *Logger) write(glyph string, style lipgloss.Style, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.out, "%s %s %s\n", l.paint(prefixStyle, Prefix), l.paint(style, glyph), msg)
}

// Info logs a progress step.
func (l *Logger) Info(format string, args ...interface{}) {
	l.write("→", infoStyle, format, args...)
}

// Success logs a completed step.
func (l *Logger) Success(format string, args ...interface{}) {
	l.write("✓", successStyle, format, args...)
}

// Warn logs a recoverable problem.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.write("⚠", warnStyle, format, args...)
}

// Error logs a failure.
func (l *Logger) Error(format string, args ...interface{}) {
	l.write("✗", errorStyle, format, args...)
}

// Debug logs detail shown only in verbose mode.
func (l *Logger) Debug(format string, args ...interface{}) {
	if !l.verbose {
		return
	}
	l.write("·", debugStyle, format, args...)
}

// Path highlights a file location inside a message.
func (l *Logger) Path(p string) string {
	return l.paint(pathStyle, "'"+p+"'")
}

// Block logs a titled multi-line body, such as generated file contents.
func (l *Logger) Block(title, body string) {
	l.Info("%s\n---\n%s", title, strings.TrimRight(body, "\n"))
}

// ReportFunction logs one exported callable the way it will appear in the
// manifest.
func (l *Logger) ReportFunction(fn manifest.FunctionMetadata) {
	var b strings.Builder
	b.WriteString(l.paint(headerStyle, "Found export"))
	b.WriteString("\n  ")
	if fn.Async {
		b.WriteString(l.paint(asyncStyle, "async") + " ")
	}
	if fn.Generator {
		b.WriteString(l.paint(asyncStyle, "*"))
	}
	b.WriteString(l.paint(nameStyle, fn.Identifier))
	b.WriteString(" (")
	for i, p := range fn.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(l.paint(paramStyle, p.Name))
	}
	b.WriteString(")\n  docString : ")
	if fn.DocString == "" {
		b.WriteString("none found")
	} else {
		lines := strings.Split(fn.DocString, "\n")
		for _, line := range lines {
			b.WriteString("\n")
			b.WriteString(l.paint(docStyle, "    | "+line))
		}
	}
	l.Info("%s", b.String())
}
