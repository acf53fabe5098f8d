package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/v7h-lab/Nomen-origins/internal/explorer"
	"github.com/v7h-lab/Nomen-origins/internal/geo"
	"github.com/v7h-lab/Nomen-origins/internal/markup"
	"github.com/v7h-lab/Nomen-origins/internal/model"
	"github.com/v7h-lab/Nomen-origins/internal/tour"
)

type styles struct {
	Title     lipgloss.Style
	Muted     lipgloss.Style
	Error     lipgloss.Style
	Tag       lipgloss.Style
	Name      lipgloss.Style
	User      lipgloss.Style
	Assistant lipgloss.Style
	Selected  lipgloss.Style
	Caption   lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		Title:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#1e293b")).Background(lipgloss.Color("#e2e8f0")).Padding(0, 1),
		Muted:     lipgloss.NewStyle().Foreground(lipgloss.Color("#64748b")),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("#dc2626")).Bold(true),
		Tag:       lipgloss.NewStyle().Foreground(lipgloss.Color("#475569")).Border(lipgloss.RoundedBorder()).Padding(0, 1),
		Name:      lipgloss.NewStyle().Bold(true).Underline(true),
		User:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#2563eb")),
		Assistant: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#d97706")),
		Selected:  lipgloss.NewStyle().Bold(true).Reverse(true),
		Caption:   lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#0f766e")),
	}
}

func (m *Model) View() string {
	var sb strings.Builder
	sb.WriteString(m.renderHeader())
	sb.WriteString("\n\n")
	sb.WriteString(m.viewport.View())
	sb.WriteString("\n")
	sb.WriteString(m.renderFooter())
	return sb.String()
}

func (m *Model) renderHeader() string {
	title := m.styles.Title.Render("Nomen Origins")
	if m.state.Touring {
		title += " " + m.styles.Caption.Render("touring")
	}
	return title
}

func (m *Model) renderFooter() string {
	var sb strings.Builder
	if m.err != nil {
		sb.WriteString(m.styles.Error.Render(m.err.Error()))
	}
	sb.WriteString("\n")
	sb.WriteString(m.input.View())
	sb.WriteString("\n")
	sb.WriteString(m.styles.Muted.Render("enter submit · ctrl+t tour · ctrl+n/p waypoint · esc back · ctrl+c quit"))
	return sb.String()
}

func (m *Model) renderBody() string {
	switch m.state.View {
	case explorer.ViewLoading:
		return m.styles.Muted.Render(fmt.Sprintf("Tracing the history of %s...", m.state.Query))
	case explorer.ViewDetail:
		return m.renderDetail()
	case explorer.ViewChat:
		return m.renderChat()
	default:
		return m.styles.Muted.Render("Trace where a name was born and how it travelled.\nTry \"Sophia\" or \"strong Celtic names for girls\".")
	}
}

func (m *Model) renderDetail() string {
	st := m.state
	if st.Result == nil {
		return m.styles.Error.Render(st.Error)
	}
	r := st.Result

	var sb strings.Builder
	head := m.styles.Name.Render(r.Name)
	if g := r.CompactGender(); g != "" {
		head = lipgloss.JoinHorizontal(lipgloss.Center, head, " ", m.styles.Tag.Render(g))
	}
	sb.WriteString(head + "\n")
	sb.WriteString(r.Meaning + "\n\n")

	if caption := m.caption(); caption != "" {
		sb.WriteString(m.styles.Caption.Render("♪ "+caption) + "\n\n")
	}

	for i, w := range r.Locations {
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color(geo.CategoryColor(w.Category))).Render("●")
		line := fmt.Sprintf("%s %s", dot, w.Name)
		if i == st.Selected {
			line = m.styles.Selected.Render(fmt.Sprintf("● %s", w.Name))
		}
		sb.WriteString(line + "\n")
		if i == st.Selected {
			sb.WriteString("  " + m.styles.Muted.Render(w.Significance) + "\n")
		}
	}
	sb.WriteString("\n")

	var md strings.Builder
	if len(r.OriginRoots) > 0 {
		fmt.Fprintf(&md, "**Roots:** %s\n\n", strings.Join(r.OriginRoots, ", "))
	}
	section(&md, "History", r.History)
	section(&md, "Cultural significance", r.CulturalSignificance)
	section(&md, "Fun fact", r.FunFact)
	if len(r.RelatedNames) > 0 {
		fmt.Fprintf(&md, "## Related names\n\n%s\n", strings.Join(r.RelatedNames, ", "))
	}
	sb.WriteString(m.markdown(md.String()))
	return sb.String()
}

func section(md *strings.Builder, title, body string) {
	if body == "" {
		return
	}
	fmt.Fprintf(md, "## %s\n\n%s\n\n", title, body)
}

// caption is the narration for the current tour step.
func (m *Model) caption() string {
	st := m.state
	if !st.Touring || st.Result == nil {
		return ""
	}
	if st.TourStep == tour.IntroStep {
		return tour.IntroText(st.Result)
	}
	if st.TourStep >= 0 && st.TourStep < len(st.Result.Locations) {
		return st.Result.Locations[st.TourStep].Significance
	}
	return ""
}

func (m *Model) renderChat() string {
	var sb strings.Builder
	for _, msg := range m.state.Transcript {
		if msg.Role == model.RoleUser {
			sb.WriteString(m.styles.User.Render("You") + "\n")
			sb.WriteString(markup.Plain(msg.Text) + "\n\n")
			continue
		}
		sb.WriteString(m.styles.Assistant.Render("Nomen") + "\n")
		sb.WriteString(m.markdown(markup.Markdown(msg.Text)))
	}
	if m.state.ChatLoading {
		sb.WriteString(m.styles.Muted.Render("Thinking...") + "\n")
	}
	return sb.String()
}

func (m *Model) markdown(md string) (out string) {
	if m.renderer == nil {
		return md
	}
	// glamour can panic on odd input; fall back to the source.
	defer func() {
		if r := recover(); r != nil {
			out = md
		}
	}()
	rendered, err := m.renderer.Render(md)
	if err != nil {
		return md
	}
	return rendered
}
