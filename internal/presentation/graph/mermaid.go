package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/cohort/pkg/domain"
	"github.com/aretw0/cohort/pkg/module"
	"github.com/aretw0/cohort/pkg/state"
)

// Overlay contains a person's progress to visualize on the graph.
type Overlay struct {
	Visited []string
	Current string
}

// OverlayFrom builds an overlay from a stored module snapshot.
func OverlayFrom(ms domain.ModuleSnapshot) *Overlay {
	o := &Overlay{Current: ms.Current()}
	for _, rec := range ms.Trail {
		o.Visited = append(o.Visited, rec.Name)
	}
	return o
}

// GenerateMermaid produces a Mermaid flowchart of a module's states.
// It applies semantic styling:
// - Initial: ((Circle))
// - Terminal: (((Double circle)))
// - Encounter: [[Subroutine]]
// - Guard: {{Hexagon}}
// - SetAttribute: [/Parallelogram/]
// - Default: [Rectangle]
// It also applies overlay styles (Visited/Current) if provided.
func GenerateMermaid(m *module.Module, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, name := range m.StateNames() {
		tmpl, _ := m.State(name)
		safeID := sanitizeMermaidID(name)

		opener, closer := "[", "]"
		switch tmpl.Kind() {
		case state.KindInitial:
			opener, closer = "((", "))"
		case state.KindTerminal:
			opener, closer = "(((", ")))"
		case state.KindEncounter:
			opener, closer = "[[", "]]"
		case state.KindGuard:
			opener, closer = "{{", "}}"
		case state.KindSetAttribute:
			opener, closer = "[/", "/]"
		}

		label := escapeLabel(name)
		if tmpl.Kind() == state.KindDelay {
			label += " <br/> ⏱️"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, label, closer)

		seen := make(map[string]bool)
		for _, target := range tmpl.Targets() {
			if seen[target] {
				continue
			}
			seen[target] = true
			arrow := "-->"
			if target == name {
				arrow = "-. loop .->"
			}
			fmt.Fprintf(&sb, "    %s %s %s\n", safeID, arrow, sanitizeMermaidID(target))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for contrast regardless of theme.
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visited := make(map[string]bool)
		for _, name := range overlay.Visited {
			if _, ok := m.State(name); !ok {
				continue
			}
			safeID := sanitizeMermaidID(name)
			if !visited[safeID] && name != overlay.Current {
				visited[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}

		if overlay.Current != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.Current))
		}
	}

	return sb.String()
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	var sb strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}
	return sb.String()
}
