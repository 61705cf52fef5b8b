package runtime_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/cohort/internal/runtime"
	"github.com/aretw0/cohort/pkg/domain"
	"github.com/aretw0/cohort/pkg/module"
	"github.com/aretw0/cohort/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scripted is a Template whose behavior is driven by the test.
type scripted struct {
	name    string
	kind    state.Kind
	targets []string
	// next is what Transition returns; it may differ from targets to simulate defects.
	next string
	run  func(p *domain.Person, at time.Time) bool
	// exitedBy, when set, reports an exit that many nanoseconds before the run time.
	exitedBy time.Duration
}

func (s *scripted) Name() string      { return s.name }
func (s *scripted) Kind() state.Kind  { return s.kind }
func (s *scripted) Targets() []string { return s.targets }
func (s *scripted) Clone() state.Instance {
	return &scriptedInstance{tmpl: s}
}

type scriptedInstance struct {
	tmpl    *scripted
	entered time.Time
	exited  time.Time
	ran     bool
}

func (i *scriptedInstance) Name() string     { return i.tmpl.name }
func (i *scriptedInstance) Kind() state.Kind { return i.tmpl.kind }
func (i *scriptedInstance) Terminal() bool   { return i.tmpl.kind == state.KindTerminal }

func (i *scriptedInstance) Run(p *domain.Person, at time.Time) bool {
	if !i.ran {
		i.entered, i.ran = at, true
	}
	if i.tmpl.run == nil || !i.tmpl.run(p, at) {
		return false
	}
	i.exited = at.Add(-i.tmpl.exitedBy)
	return true
}

func (i *scriptedInstance) Transition(*domain.Person, time.Time) (string, error) {
	if i.tmpl.next == "" {
		return "", domain.ErrNoTransition
	}
	return i.tmpl.next, nil
}

func (i *scriptedInstance) Entered() (time.Time, bool) { return i.entered, i.ran }
func (i *scriptedInstance) Exited() (time.Time, bool)  { return i.exited, i.ran && !i.exited.IsZero() }

func always(*domain.Person, time.Time) bool { return true }

func terminal() *scripted {
	return &scripted{name: "End", kind: state.KindTerminal}
}

func TestProcess_TransitionToMissingStateIsFatal(t *testing.T) {
	initial := &scripted{name: "Initial", kind: state.KindInitial, targets: []string{"End"}, next: "Ghost", run: always}
	m, err := module.New("broken", "Broken", false, nil, initial, terminal())
	require.NoError(t, err)

	engine := runtime.NewEngine()
	p := domain.NewPerson("p1", 1)
	p.SetActiveWellnessEncounter(true)

	done, err := engine.Process(context.Background(), p, m, t0)
	require.Error(t, err)
	assert.False(t, done)

	var terr *runtime.TransitionError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, "Initial", terr.From)
	assert.Equal(t, "Ghost", terr.To)
	assert.True(t, errors.Is(err, domain.ErrStateNotFound))

	assert.Equal(t, 1, state.HistoryOf(p, m.Name()).Len(), "history must not grow on a broken transition")
	assert.False(t, p.InEncounterScope(m.Name()), "scoped flag must be cleared on error")
	assert.True(t, p.ActiveWellnessEncounter(), "global signal belongs to the caller")
}

func TestProcess_TransitionErrorFromState(t *testing.T) {
	initial := &scripted{name: "Initial", kind: state.KindInitial, targets: []string{"End"}, run: always}
	m, err := module.New("stuck", "Stuck", false, nil, initial, terminal())
	require.NoError(t, err)

	_, err = runtime.NewEngine().Process(context.Background(), domain.NewPerson("p", 1), m, t0)
	var terr *runtime.TransitionError
	require.True(t, errors.As(err, &terr))
	assert.Empty(t, terr.To)
	assert.True(t, errors.Is(err, domain.ErrNoTransition))
}

func TestProcess_RewindDepthGuard(t *testing.T) {
	// Every run claims to have exited one second before it was observed,
	// so each transition asks for a rewind one level deeper.
	initial := &scripted{name: "Initial", kind: state.KindInitial, targets: []string{"Echo"}, next: "Echo", run: always}
	echo := &scripted{name: "Echo", kind: state.KindSimple, targets: []string{"Echo", "End"}, next: "Echo", run: always, exitedBy: time.Second}
	m, err := module.New("echo", "Echo", false, nil, initial, echo, terminal())
	require.NoError(t, err)

	engine := runtime.NewEngine(runtime.WithMaxRewindDepth(10))
	p := domain.NewPerson("p1", 1)

	_, err = engine.Process(context.Background(), p, m, t0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrRewindDepthExceeded))

	var derr *runtime.RewindDepthError
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, 10, derr.Limit)
}

func TestProcess_StepLimit(t *testing.T) {
	initial := &scripted{name: "Initial", kind: state.KindInitial, targets: []string{"Spin"}, next: "Spin", run: always}
	spin := &scripted{name: "Spin", kind: state.KindSimple, targets: []string{"Spin", "End"}, next: "Spin", run: always}
	m, err := module.New("spin", "Spin", false, nil, initial, spin, terminal())
	require.NoError(t, err)

	engine := runtime.NewEngine(runtime.WithMaxSteps(50))
	p := domain.NewPerson("p1", 1)

	_, err = engine.Process(context.Background(), p, m, t0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrStepLimit))
	assert.Equal(t, 51, state.HistoryOf(p, m.Name()).Len())
}

func TestProcess_NilArguments(t *testing.T) {
	b := module.NewBuilder("X")
	b.State("Initial").Initial().Go("End")
	b.State("End").Terminal()
	m := build(t, b)

	engine := runtime.NewEngine()
	_, err := engine.Process(context.Background(), nil, m, t0)
	assert.Error(t, err)
	_, err = engine.Process(context.Background(), domain.NewPerson("p", 1), nil, t0)
	assert.Error(t, err)
}

func TestProcess_EncounterScopeMirrorsSignalDuringCall(t *testing.T) {
	var observed []bool
	initial := &scripted{name: "Initial", kind: state.KindInitial, targets: []string{"End"}, next: "End",
		run: func(p *domain.Person, _ time.Time) bool {
			observed = append(observed, p.InEncounterScope("Wellness"))
			return false
		}}
	m, err := module.New("wellness", "Wellness", false, nil, initial, terminal())
	require.NoError(t, err)

	engine := runtime.NewEngine()
	p := domain.NewPerson("p1", 1)

	_, err = engine.Process(context.Background(), p, m, t0)
	require.NoError(t, err)

	p.SetActiveWellnessEncounter(true)
	_, err = engine.Process(context.Background(), p, m, t0.Add(day))
	require.NoError(t, err)

	assert.Equal(t, []bool{false, true}, observed)
	assert.False(t, p.InEncounterScope("Wellness"))
	_, present := p.Attributes[domain.EncounterScopeKey("Wellness")]
	assert.False(t, present)
}

func TestProcess_OccupiedHistoryKeyIsAnError(t *testing.T) {
	b := module.NewBuilder("Occupied")
	b.State("Initial").Initial().Go("End")
	b.State("End").Terminal()
	m := build(t, b)

	p := domain.NewPerson("p1", 1)
	p.Attributes[domain.HistoryKey(m.Name())] = 42

	var done bool
	var err error
	require.NotPanics(t, func() {
		done, err = runtime.NewEngine().Process(context.Background(), p, m, t0)
	})
	assert.False(t, done)
	assert.True(t, errors.Is(err, domain.ErrDerivedAttribute))
	assert.Equal(t, 42, p.Attributes[domain.HistoryKey(m.Name())], "foreign value left in place")
}
