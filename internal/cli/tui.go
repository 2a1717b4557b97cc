package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/mvnmirror/pkg/analysis"
	"github.com/matzehuels/mvnmirror/pkg/report"
)

var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	listCriticalStyle = lipgloss.NewStyle().Foreground(colorRed)
)

// missingItem is one row of the missing-artifact browser.
type missingItem struct {
	Coordinate string
	Bucket     analysis.Bucket
	Chains     []string
}

// missingItems flattens a report's missing-analysis buckets into display
// rows, critical buckets first, each row carrying its provenance chains.
func missingItems(rep *report.Report) []missingItem {
	var items []missingItem
	for _, bucket := range rep.MissingAnalysis.Buckets() {
		for _, key := range bucket.Keys {
			item := missingItem{Coordinate: key.String(), Bucket: bucket.Name}
			if entry, ok := rep.Dependencies[key]; ok {
				for _, c := range entry.Chains {
					item.Chains = append(item.Chains, strings.Join(c, " "+iconArrow+" "))
				}
			}
			items = append(items, item)
		}
	}
	return items
}

// missingListModel is the bubbletea model for browsing missing artifacts.
// Enter toggles the provenance chains of the selected artifact.
type missingListModel struct {
	Items    []missingItem
	Cursor   int
	Offset   int
	Height   int
	Expanded bool
}

func newMissingListModel(items []missingItem) missingListModel {
	return missingListModel{Items: items, Height: 15}
}

func (m missingListModel) Init() tea.Cmd {
	return nil
}

func (m missingListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				m.Expanded = false
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Items)-1 {
				m.Cursor++
				m.Expanded = false
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter", " ":
			m.Expanded = !m.Expanded
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m missingListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Missing artifacts"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ chains  q quit"))
	b.WriteString("\n\n")

	end := m.Offset + m.Height
	if end > len(m.Items) {
		end = len(m.Items)
	}

	for i := m.Offset; i < end; i++ {
		it := m.Items[i]

		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}

		bucketStyle := listDimStyle
		if it.Bucket == analysis.BucketEssential || it.Bucket == analysis.BucketPlugin {
			bucketStyle = listCriticalStyle
		}

		line := fmt.Sprintf("%s%s  %s", cursor, bucketStyle.Render(fmt.Sprintf("%-9s", it.Bucket)), it.Coordinate)
		if i == m.Cursor {
			b.WriteString(listSelectedStyle.Render(line))
		} else {
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")

		if i == m.Cursor && m.Expanded {
			if len(it.Chains) == 0 {
				b.WriteString(listDimStyle.Render("      (direct dependency, no recorded chain)"))
				b.WriteString("\n")
			}
			for _, c := range it.Chains {
				b.WriteString(listDimStyle.Render("      " + c))
				b.WriteString("\n")
			}
		}
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Items))))
	return b.String()
}
