package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/cohort/internal/presentation/graph"
	"github.com/aretw0/cohort/pkg/domain"
	"github.com/aretw0/cohort/pkg/module"
)

func buildModule(t *testing.T) *module.Module {
	t.Helper()
	b := module.NewBuilder("Asthma")
	b.State("Initial").Initial().Go("Onset Delay")
	b.State("Onset Delay").Delay(5, "years").Distribute(0.3, "Asthma Onset").Distribute(0.7, "Terminal")
	b.State("Asthma Onset").Set("asthma", true).Go("Checkup")
	b.State("Checkup").Encounter(true).Go("Controlled")
	b.State("Controlled").Guard("asthma", "==", false).Go("Terminal")
	b.State("Terminal").Terminal()
	m, err := b.Build("asthma")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return m
}

func TestGenerateMermaid(t *testing.T) {
	m := buildModule(t)
	out := graph.GenerateMermaid(m, nil)

	contains := []string{
		"graph TD\n",
		`Initial(("Initial"))`,
		`Terminal((("Terminal")))`,
		`Onset_Delay["Onset Delay <br/> ⏱️"]`,
		`Asthma_Onset[/"Asthma Onset"/]`,
		`Checkup[["Checkup"]]`,
		`Controlled{{"Controlled"}}`,
		"Initial --> Onset_Delay",
		"Onset_Delay --> Asthma_Onset",
		"Onset_Delay --> Terminal",
		"Controlled --> Terminal",
	}
	for _, want := range contains {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q\n%s", want, out)
		}
	}
	if strings.Contains(out, "classDef") {
		t.Error("no overlay styles expected without an overlay")
	}
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	m := buildModule(t)
	ms := domain.ModuleSnapshot{Trail: []domain.StateRecord{
		{Name: "Onset Delay"},
		{Name: "Initial"},
		{Name: "Deleted State"},
	}}

	out := graph.GenerateMermaid(m, graph.OverlayFrom(ms))

	for _, want := range []string{
		"classDef visited",
		"class Initial visited;",
		"class Onset_Delay current;",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q\n%s", want, out)
		}
	}
	if strings.Contains(out, "Deleted_State") {
		t.Error("states missing from the module must not be styled")
	}
	if strings.Contains(out, "class Onset_Delay visited;") {
		t.Error("current state should only carry the current class")
	}
}
