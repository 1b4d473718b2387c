package cli

import (
	"bytes"
	"errors"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/robinvdvleuten/beancount-plugins/ast"
	"github.com/robinvdvleuten/beancount-plugins/formatter"
	"github.com/robinvdvleuten/beancount-plugins/plugin"
)

var (
	errCaretStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#FF5F87", Dark: "#FF5F87"})
	errContextStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#808080", Dark: "#808080"})
)

// ErrorRenderer renders errors with terminal styling and source context.
type ErrorRenderer struct {
	filename string
	sources  map[string][]byte
}

// NewErrorRenderer creates a renderer that shows the lines of source around errors
// positioned in filename. Errors in other files, such as includes, read their source
// from disk when it is needed.
func NewErrorRenderer(filename string, source []byte) *ErrorRenderer {
	r := &ErrorRenderer{filename: filename, sources: map[string][]byte{}}
	if source != nil {
		r.sources[filename] = source
	}
	return r
}

// positioned is implemented by parser.ParseError and plugin.Error.
type positioned interface {
	error
	GetPosition() ast.Position
	GetDirective() ast.Directive
}

// Render formats a single error with styling and context.
func (r *ErrorRenderer) Render(err error) string {
	var runErr *plugin.RunError
	if errors.As(err, &runErr) {
		return r.RenderAll(runErr.Errors)
	}

	var e positioned
	if !errors.As(err, &e) {
		return err.Error()
	}

	if directive := e.GetDirective(); directive != nil {
		return r.renderWithContext(e.Error(), directive)
	}

	pos := e.GetPosition()
	if source := r.source(pos.Filename); source != nil && pos.Line > 0 {
		return r.renderWithSourceContext(pos, e.Error(), source)
	}

	return e.Error()
}

// RenderAll formats multiple errors, separating them with blank lines.
func (r *ErrorRenderer) RenderAll(errs []error) string {
	if len(errs) == 0 {
		return ""
	}

	var buf strings.Builder
	for i, err := range errs {
		buf.WriteString(strings.TrimRight(r.Render(err), "\n"))

		if i < len(errs)-1 {
			buf.WriteString("\n\n")
		}
	}

	return buf.String()
}

// source returns the content of filename. Errors without a filename belong to the
// rendered file.
func (r *ErrorRenderer) source(filename string) []byte {
	if filename == "" {
		filename = r.filename
	}
	if source, ok := r.sources[filename]; ok {
		return source
	}

	source, err := os.ReadFile(filename)
	if err != nil {
		source = nil
	}
	r.sources[filename] = source
	return source
}

func (r *ErrorRenderer) renderWithSourceContext(pos ast.Position, message string, sourceContent []byte) string {
	var buf strings.Builder

	buf.WriteString(errorStyle.Render(message))
	buf.WriteString("\n\n")

	sourceLines := strings.Split(string(sourceContent), "\n")

	startLine := max(pos.Line-3, 0)
	endLine := min(pos.Line+1, len(sourceLines)-1)

	for i := startLine; i <= endLine; i++ {
		buf.WriteString("   ")
		buf.WriteString(errContextStyle.Render(sourceLines[i]))
		buf.WriteByte('\n')

		if i == pos.Line-1 && pos.Column > 0 {
			buf.WriteString("   ")
			buf.WriteString(strings.Repeat(" ", pos.Column-1))
			buf.WriteString(errCaretStyle.Render("^"))
			buf.WriteByte('\n')
		}
	}

	return buf.String()
}

// renderWithContext shows the entry at fault as it would be printed, which also works
// for entries a plugin generated and that have no source lines.
func (r *ErrorRenderer) renderWithContext(message string, directive ast.Directive) string {
	var buf strings.Builder

	buf.WriteString(errorStyle.Render(message))
	buf.WriteString("\n\n")

	var entry bytes.Buffer
	if err := formatter.New().FormatDirective(directive, &entry); err != nil {
		return message
	}

	for _, line := range strings.Split(entry.String(), "\n") {
		if line == "" {
			continue
		}
		buf.WriteString("   ")
		buf.WriteString(errContextStyle.Render(line))
		buf.WriteByte('\n')
	}

	return buf.String()
}
