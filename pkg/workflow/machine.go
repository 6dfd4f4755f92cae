package workflow

import (
	"fmt"
	"sort"

	"idealab-be/internal/entity"

	"github.com/felixgeelhaar/statekit"
)

// ReplayContext is carried through the pipeline statechart during history replay.
type ReplayContext struct {
	Steps    int
	Terminal bool
}

const (
	stDiscovery       statekit.StateID = statekit.StateID(entity.StageDiscovery)
	stBasicValidation statekit.StateID = statekit.StateID(entity.StageBasicValidation)
	stTechValidation  statekit.StateID = statekit.StateID(entity.StageTechValidation)
	stLeadershipPitch statekit.StateID = statekit.StateID(entity.StageLeadershipPitch)
	stMVP             statekit.StateID = statekit.StateID(entity.StageMVP)
	stRejected        statekit.StateID = statekit.StateID(entity.StageRejected)

	evAccept          statekit.EventType = statekit.EventType(entity.ActionAccept)
	evReject          statekit.EventType = statekit.EventType(entity.ActionReject)
	evApprove         statekit.EventType = statekit.EventType(entity.ActionApprove)
	evRequestMoreInfo statekit.EventType = statekit.EventType(entity.ActionRequestMoreInfo)
)

// NewPipelineMachine builds the idea pipeline as a statechart. It must agree with
// the transition table edge for edge; machine_test.go enforces that.
func NewPipelineMachine() (*statekit.MachineConfig[*ReplayContext], error) {
	return statekit.NewMachine[*ReplayContext]("idea-pipeline").
		WithInitial(stDiscovery).
		WithContext(&ReplayContext{}).
		WithAction("countStep", countStep).
		WithAction("markTerminal", markTerminal).
		State(stDiscovery).
			On(evAccept).Target(stBasicValidation).Do("countStep").
			On(evReject).Target(stRejected).Do("countStep").
			Done().
		State(stBasicValidation).
			On(evAccept).Target(stTechValidation).Do("countStep").
			On(evReject).Target(stRejected).Do("countStep").
			Done().
		State(stTechValidation).
			On(evAccept).Target(stLeadershipPitch).Do("countStep").
			On(evReject).Target(stRejected).Do("countStep").
			On(evRequestMoreInfo).Target(stBasicValidation).Do("countStep").
			Done().
		State(stLeadershipPitch).
			On(evApprove).Target(stMVP).Do("countStep").
			On(evRequestMoreInfo).Target(stTechValidation).Do("countStep").
			On(evReject).Target(stRejected).Do("countStep").
			Done().
		State(stMVP).
			Final().
			OnEntry("markTerminal").
			Done().
		State(stRejected).
			Final().
			OnEntry("markTerminal").
			Done().
		Build()
}

func countStep(ctx **ReplayContext, _ statekit.Event) {
	if ctx == nil || *ctx == nil {
		return
	}
	(*ctx).Steps++
}

func markTerminal(ctx **ReplayContext, _ statekit.Event) {
	if ctx == nil || *ctx == nil {
		return
	}
	(*ctx).Terminal = true
}

// HistoryReport is the outcome of replaying an idea's status updates.
type HistoryReport struct {
	Consistent bool
	Steps      int
	FinalStage entity.Stage
	Terminal   bool
	Problems   []string
}

// VerifyHistory replays history through the statechart and checks that every
// record chains from the one before it, follows a table edge, and that the chain
// ends at current.
func VerifyHistory(table *TransitionTable, current entity.Stage, history []*entity.StatusUpdate) (*HistoryReport, error) {
	report := &HistoryReport{Problems: make([]string, 0)}
	if len(history) == 0 {
		report.Problems = append(report.Problems, "history has no creation record")
		return report, nil
	}

	records := make([]*entity.StatusUpdate, len(history))
	copy(records, history)
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Sequence != records[j].Sequence {
			return records[i].Sequence < records[j].Sequence
		}
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})

	first := records[0]
	if first.PreviousStage != nil || first.NewStage != entity.StageDiscovery {
		report.Problems = append(report.Problems, "first record is not the creation of the idea in discovery")
	}

	machine, err := NewPipelineMachine()
	if err != nil {
		return nil, fmt.Errorf("failed to build pipeline machine: %w", err)
	}
	rc := &ReplayContext{}
	interp := statekit.NewInterpreter(machine)
	interp.UpdateContext(func(c **ReplayContext) {
		*c = rc
	})
	interp.Start()
	defer interp.Stop()

	expected := entity.StageDiscovery
	for _, r := range records[1:] {
		if r.PreviousStage == nil {
			report.Problems = append(report.Problems, fmt.Sprintf("record %d has no previous stage", r.Sequence))
			break
		}
		if *r.PreviousStage != expected {
			report.Problems = append(report.Problems, fmt.Sprintf("record %d starts from %q but the idea was in %q", r.Sequence, *r.PreviousStage, expected))
			break
		}
		next, err := table.NextStage(expected, r.Action)
		if err != nil {
			report.Problems = append(report.Problems, fmt.Sprintf("record %d: %v", r.Sequence, err))
			break
		}
		if next != r.NewStage {
			report.Problems = append(report.Problems, fmt.Sprintf("record %d moves to %q but %q from %q leads to %q", r.Sequence, r.NewStage, r.Action, expected, next))
			break
		}

		interp.Send(statekit.Event{Type: statekit.EventType(r.Action), Payload: r})
		if !interp.Matches(statekit.StateID(r.NewStage)) {
			report.Problems = append(report.Problems, fmt.Sprintf("record %d: statechart did not reach %q", r.Sequence, r.NewStage))
			break
		}
		expected = r.NewStage
	}

	if len(report.Problems) == 0 && expected != current {
		report.Problems = append(report.Problems, fmt.Sprintf("history ends in %q but the idea is in %q", expected, current))
	}

	report.Steps = rc.Steps
	report.Terminal = rc.Terminal
	report.FinalStage = expected
	report.Consistent = len(report.Problems) == 0
	return report, nil
}
