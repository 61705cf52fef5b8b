package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/cohort/pkg/domain"
	"github.com/aretw0/cohort/pkg/module"
)

// ModuleMarkdown summarizes a module template.
func ModuleMarkdown(m *module.Module) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", m.Name())
	fmt.Fprintf(&sb, "- **Key**: `%s`\n", m.Key())
	if m.Submodule() {
		sb.WriteString("- **Submodule**: yes\n")
	}
	fmt.Fprintf(&sb, "- **States**: %d\n\n", len(m.StateNames()))

	if remarks := m.Remarks(); len(remarks) > 0 {
		for _, r := range remarks {
			fmt.Fprintf(&sb, "> %s\n", r)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("| State | Kind | Transitions |\n|---|---|---|\n")
	for _, name := range m.StateNames() {
		tmpl, _ := m.State(name)
		targets := tmpl.Targets()
		if len(targets) == 0 {
			targets = []string{"-"}
		}
		fmt.Fprintf(&sb, "| %s | %s | %s |\n", name, tmpl.Kind(), strings.Join(targets, ", "))
	}
	return sb.String()
}

// SnapshotMarkdown summarizes where a person stands in each module.
func SnapshotMarkdown(snap domain.Snapshot) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Person %s\n\n", snap.PersonID)
	if !snap.Time.IsZero() {
		fmt.Fprintf(&sb, "As of %s.\n\n", snap.Time.Format(time.DateOnly))
	}

	names := make([]string, 0, len(snap.Modules))
	for name := range snap.Modules {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		ms := snap.Modules[name]
		status := "in progress"
		if ms.Completed {
			status = "completed"
		}
		fmt.Fprintf(&sb, "## %s (%s)\n\n", name, status)
		sb.WriteString("| State | Entered | Exited |\n|---|---|---|\n")
		for _, rec := range ms.Trail {
			fmt.Fprintf(&sb, "| %s | %s | %s |\n", rec.Name, stamp(rec.Entered), stamp(rec.Exited))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func stamp(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(time.DateTime)
}
