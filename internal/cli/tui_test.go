package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/mvnmirror/pkg/analysis"
	"github.com/matzehuels/mvnmirror/pkg/artifact"
	"github.com/matzehuels/mvnmirror/pkg/report"
)

func testReport() *report.Report {
	essential := artifact.Key{GroupID: "com.acme", ArtifactID: "core"}
	optional := artifact.Key{GroupID: "org.extra", ArtifactID: "nice"}

	return &report.Report{
		MissingAnalysis: analysis.Partition{
			Essential: []artifact.Key{essential},
			Optional:  []artifact.Key{optional},
		},
		Dependencies: map[artifact.Key]report.Entry{
			essential: {
				Chains: [][]string{{"com.acme:app", "com.acme:core"}},
			},
			optional: {},
		},
	}
}

func TestMissingItems(t *testing.T) {
	items := missingItems(testReport())
	if len(items) != 2 {
		t.Fatalf("items = %v", items)
	}
	// Essential comes first (bucket display order).
	if items[0].Bucket != analysis.BucketEssential || items[0].Coordinate != "com.acme:core" {
		t.Errorf("first item = %+v", items[0])
	}
	if len(items[0].Chains) != 1 || !strings.Contains(items[0].Chains[0], "com.acme:app") {
		t.Errorf("chains = %v", items[0].Chains)
	}
	if items[1].Bucket != analysis.BucketOptional {
		t.Errorf("second item = %+v", items[1])
	}
}

func TestMissingListNavigation(t *testing.T) {
	m := newMissingListModel(missingItems(testReport()))

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	m = next.(missingListModel)
	if m.Cursor != 1 {
		t.Errorf("cursor = %d after down", m.Cursor)
	}

	// Moving past the end stays put.
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	m = next.(missingListModel)
	if m.Cursor != 1 {
		t.Errorf("cursor = %d, want clamped at 1", m.Cursor)
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}})
	m = next.(missingListModel)
	if m.Cursor != 0 {
		t.Errorf("cursor = %d after up", m.Cursor)
	}
}

func TestMissingListExpandChains(t *testing.T) {
	m := newMissingListModel(missingItems(testReport()))

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(missingListModel)
	if !m.Expanded {
		t.Fatal("enter should expand the selected item")
	}
	view := m.View()
	if !strings.Contains(view, "com.acme:app") {
		t.Errorf("expanded view missing chain:\n%s", view)
	}

	// Moving collapses again.
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	m = next.(missingListModel)
	if m.Expanded {
		t.Error("navigation should collapse the expansion")
	}
}

func TestMissingListQuit(t *testing.T) {
	m := newMissingListModel(missingItems(testReport()))
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("q should quit")
	}
}
