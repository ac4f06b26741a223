package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"

	"github.com/NeverVane/historic/internal/selector"
)

const (
	cursorMarker = ">> "
	blankMarker  = "   "
	promptText   = "> "
	minWidth     = 20
)

// Styles used by the view
type Styles struct {
	PromptBox  lipgloss.Style
	Prompt     lipgloss.Style
	Query      lipgloss.Style
	Cursor     lipgloss.Style
	ModeInsert lipgloss.Style
	ModeNormal lipgloss.Style
	Counter    lipgloss.Style
	ListBox    lipgloss.Style
	Item       lipgloss.Style
	Selected   lipgloss.Style
	Empty      lipgloss.Style
	Help       help.Styles
}

// DefaultStyles builds the styles for r
func DefaultStyles(r *lipgloss.Renderer) Styles {
	gray := lipgloss.Color("8")
	bright := lipgloss.AdaptiveColor{Light: "0", Dark: "15"}

	return Styles{
		PromptBox: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("12")).
			Padding(0, 1),
		Prompt:     r.NewStyle().Foreground(lipgloss.Color("12")).Bold(true),
		Query:      r.NewStyle().Foreground(bright),
		Cursor:     r.NewStyle().Foreground(bright),
		ModeInsert: r.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		ModeNormal: r.NewStyle().Foreground(lipgloss.Color("11")).Bold(true),
		Counter:    r.NewStyle().Foreground(gray),
		ListBox: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(gray),
		Item:     r.NewStyle().Foreground(lipgloss.Color("7")),
		Selected: r.NewStyle().Foreground(bright).Italic(true).Bold(true),
		Empty:    r.NewStyle().Foreground(gray).Italic(true),
		Help: help.Styles{
			Ellipsis:       r.NewStyle().Foreground(gray),
			ShortKey:       r.NewStyle().Foreground(lipgloss.Color("7")),
			ShortDesc:      r.NewStyle().Foreground(gray),
			ShortSeparator: r.NewStyle().Foreground(gray),
			FullKey:        r.NewStyle().Foreground(lipgloss.Color("7")),
			FullDesc:       r.NewStyle().Foreground(gray),
			FullSeparator:  r.NewStyle().Foreground(gray),
		},
	}
}

// ViewOptions controls the layout
type ViewOptions struct {
	// MaxVisible caps the list rows; 0 fits the screen
	MaxVisible int
	ShowHelp   bool
}

// View projects a selector.State onto a frame. The prompt sits on top. The
// unfiltered list is drawn bottom-to-top so the highest ranked command is
// nearest the prompt; filter results are drawn best first.
type View struct {
	styles Styles
	keys   selector.KeyMap
	help   help.Model
	opts   ViewOptions
}

// NewView creates a view
func NewView(styles Styles, keys selector.KeyMap, opts ViewOptions) *View {
	h := help.New()
	h.Styles = styles.Help

	return &View{
		styles: styles,
		keys:   keys,
		help:   h,
		opts:   opts,
	}
}

// Render returns the frame for s on a width x height screen
func (v *View) Render(s selector.State, width, height int) string {
	if width < minWidth {
		width = minWidth
	}

	sections := []string{v.renderPrompt(s, width)}

	var helpLine string
	if v.opts.ShowHelp {
		v.help.Width = width
		helpLine = v.help.ShortHelpView(v.keys.ShortHelp(s.Mode))
	}

	// Two border rows around the list
	rows := height - lipgloss.Height(sections[0]) - 2
	if helpLine != "" {
		rows -= lipgloss.Height(helpLine)
	}
	sections = append(sections, v.renderList(s, width, rows))

	if helpLine != "" {
		sections = append(sections, helpLine)
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (v *View) renderPrompt(s selector.State, width int) string {
	ti := textinput.New()
	ti.Prompt = promptText
	ti.PromptStyle = v.styles.Prompt
	ti.TextStyle = v.styles.Query
	ti.Cursor.Style = v.styles.Cursor
	ti.Cursor.TextStyle = v.styles.Query
	ti.Cursor.SetMode(cursor.CursorStatic)
	ti.SetValue(s.Query)
	ti.CursorEnd()
	if s.Mode == selector.ModeInsert {
		ti.Focus()
	} else {
		ti.Blur()
	}

	mode := v.styles.ModeInsert
	if s.Mode == selector.ModeNormal {
		mode = v.styles.ModeNormal
	}

	counter := fmt.Sprintf("%d/%d", len(s.Displayed()), len(s.Candidates))
	line := ti.View() + " " + mode.Render("["+s.Mode.String()+"]") + " " + v.styles.Counter.Render(counter)

	// Width excludes the border
	return v.styles.PromptBox.Width(width - 2).Render(line)
}

func (v *View) renderList(s selector.State, width, rows int) string {
	inner := width - 2
	if rows < 1 {
		rows = 1
	}
	if v.opts.MaxVisible > 0 && rows > v.opts.MaxVisible {
		rows = v.opts.MaxVisible
	}

	list := s.Displayed()
	if len(list) == 0 {
		msg := "No history for this session"
		if s.Filtering() {
			msg = "No matching commands"
		}
		return v.styles.ListBox.Width(inner).Render(v.styles.Empty.Render(msg))
	}

	order := screenOrder(len(list), s.Filtering())
	pos := cursorRow(s.Cursor, len(list), s.Filtering())

	start := 0
	if pos >= rows {
		start = pos - rows + 1
	}
	end := start + rows
	if end > len(order) {
		end = len(order)
	}

	lines := make([]string, 0, end-start)
	for row := start; row < end; row++ {
		idx := order[row]
		text := strings.ReplaceAll(list[idx], "\n", " ")

		style, marker := v.styles.Item, blankMarker
		if row == pos {
			style, marker = v.styles.Selected, cursorMarker
		}
		lines = append(lines, style.MaxWidth(inner).Render(marker+text))
	}

	return v.styles.ListBox.Width(inner).Render(strings.Join(lines, "\n"))
}

// screenOrder lists the indices of an n-item list from the top row down
func screenOrder(n int, filtering bool) []int {
	order := make([]int, n)
	for i := range order {
		if filtering {
			order[i] = i
		} else {
			order[i] = n - 1 - i
		}
	}
	return order
}

// cursorRow is the screen row of the cursor. An out of range cursor marks
// index 0, the entry a confirmation would pick.
func cursorRow(cursor, n int, filtering bool) int {
	if cursor < 0 || cursor >= n {
		cursor = 0
	}
	if filtering {
		return cursor
	}
	return n - 1 - cursor
}
