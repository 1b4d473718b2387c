package telemetry

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// slowThreshold marks operations highlighted as slow in styled reports.
const slowThreshold = 100 * time.Millisecond

// Styles colours a timing report.
type Styles struct {
	Name lipgloss.Style
	Tree lipgloss.Style
	Fast lipgloss.Style
	Slow lipgloss.Style
}

// NewStyles returns report styles. With color false every style renders plain text.
func NewStyles(color bool) *Styles {
	if !color {
		plain := lipgloss.NewStyle()
		return &Styles{Name: plain, Tree: plain, Fast: plain, Slow: plain}
	}
	return &Styles{
		Name: lipgloss.NewStyle().Bold(true),
		Tree: lipgloss.NewStyle().Faint(true),
		Fast: lipgloss.NewStyle().Faint(true),
		Slow: lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
	}
}

// formatTimingTree writes a root node and its children:
//
//	apply ledger.beancount: 125ms
//	├─ load: 85ms
//	│  └─ parser.parse ledger.beancount: 45ms
//	└─ plugin entry_manipulation: 40ms
func formatTimingTree(w io.Writer, root *timerNode, styles *Styles) {
	if styles == nil {
		styles = NewStyles(false)
	}

	_, _ = fmt.Fprintf(w, "%s: %s\n", styles.Name.Render(root.name), styles.timing(root.duration()))

	for i, child := range root.children {
		formatNode(w, child, "", i == len(root.children)-1, styles)
	}
}

func formatNode(w io.Writer, node *timerNode, prefix string, isLast bool, styles *Styles) {
	branch, extension := "├─ ", "│  "
	if isLast {
		branch, extension = "└─ ", "   "
	}

	_, _ = fmt.Fprintf(w, "%s%s: %s\n", styles.Tree.Render(prefix+branch), node.name, styles.timing(node.duration()))

	for i, child := range node.children {
		formatNode(w, child, prefix+extension, i == len(node.children)-1, styles)
	}
}

func (s *Styles) timing(d time.Duration) string {
	text := formatDuration(d)
	if d >= slowThreshold {
		return s.Slow.Render(text)
	}
	return s.Fast.Render(text)
}

// formatDuration shows milliseconds below one second and seconds above.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%.0fms", float64(d)/float64(time.Millisecond))
	}
	return fmt.Sprintf("%.2fs", float64(d)/float64(time.Second))
}
