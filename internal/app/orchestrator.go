package app

import (
	"fmt"

	"pathfinder-service/internal/domain"
)

type Phase string

const (
	PhaseCareer    Phase = "career"
	PhaseAcademic  Phase = "academic"
	PhaseCognitive Phase = "cognitive"
	PhaseComplete  Phase = "complete"
)

var phaseProgress = map[Phase]int{
	PhaseCareer:    10,
	PhaseAcademic:  50,
	PhaseCognitive: 85,
	PhaseComplete:  100,
}

// Orchestrator sequences career, academic and cognitive phases strictly in
// order and accumulates their outputs.
type Orchestrator struct {
	phase Phase
	agg   domain.Aggregate
}

func NewOrchestrator() *Orchestrator {
	return &Orchestrator{phase: PhaseCareer}
}

func (o *Orchestrator) Phase() Phase {
	return o.phase
}

// Progress is the percentage shown for the current phase.
func (o *Orchestrator) Progress() int {
	return phaseProgress[o.phase]
}

func (o *Orchestrator) CompleteCareer(result domain.BlockResult) error {
	if err := o.expect(PhaseCareer); err != nil {
		return err
	}
	o.agg.Career = result.Clone()
	o.phase = PhaseAcademic
	return nil
}

func (o *Orchestrator) CompleteAcademic(result domain.BlockResult) error {
	if err := o.expect(PhaseAcademic); err != nil {
		return err
	}
	o.agg.Academic = result.Clone()
	o.phase = PhaseCognitive
	return nil
}

func (o *Orchestrator) CompleteCognitive(score int) error {
	if err := o.expect(PhaseCognitive); err != nil {
		return err
	}
	o.agg.CognitiveScore = score
	o.agg.CognitivePlayed = true
	o.phase = PhaseComplete
	return nil
}

// Aggregate returns a copy of the accumulated output. It is only available
// once every phase completed.
func (o *Orchestrator) Aggregate() (domain.Aggregate, bool) {
	if o.phase != PhaseComplete {
		return domain.Aggregate{}, false
	}
	return domain.Aggregate{
		Career:          o.agg.Career.Clone(),
		Academic:        o.agg.Academic.Clone(),
		CognitiveScore:  o.agg.CognitiveScore,
		CognitivePlayed: o.agg.CognitivePlayed,
	}, true
}

func (o *Orchestrator) expect(p Phase) error {
	if o.phase != p {
		return fmt.Errorf("complete %s during %s: %w", p, o.phase, domain.ErrPhaseOrder)
	}
	return nil
}
