package workflow

import "idealab-be/internal/entity"

// Transition is one edge of the pipeline.
type Transition struct {
	From   entity.Stage
	Action entity.Action
	To     entity.Stage
}

// pipeline is the only definition of the stage topology. request_more_info sends
// an idea back to the stage it came from.
var pipeline = []Transition{
	{entity.StageDiscovery, entity.ActionAccept, entity.StageBasicValidation},
	{entity.StageDiscovery, entity.ActionReject, entity.StageRejected},
	{entity.StageBasicValidation, entity.ActionAccept, entity.StageTechValidation},
	{entity.StageBasicValidation, entity.ActionReject, entity.StageRejected},
	{entity.StageTechValidation, entity.ActionAccept, entity.StageLeadershipPitch},
	{entity.StageTechValidation, entity.ActionReject, entity.StageRejected},
	{entity.StageTechValidation, entity.ActionRequestMoreInfo, entity.StageBasicValidation},
	{entity.StageLeadershipPitch, entity.ActionApprove, entity.StageMVP},
	{entity.StageLeadershipPitch, entity.ActionRequestMoreInfo, entity.StageTechValidation},
	{entity.StageLeadershipPitch, entity.ActionReject, entity.StageRejected},
}

// TransitionTable maps (stage, action) to the next stage.
type TransitionTable struct {
	edges map[entity.Stage]map[entity.Action]entity.Stage
}

func NewTransitionTable() *TransitionTable {
	edges := make(map[entity.Stage]map[entity.Action]entity.Stage)
	for _, t := range pipeline {
		if edges[t.From] == nil {
			edges[t.From] = make(map[entity.Action]entity.Stage)
		}
		edges[t.From][t.Action] = t.To
	}
	return &TransitionTable{edges: edges}
}

// NextStage fails with KindInvalidTransition when the pair is not an edge.
func (t *TransitionTable) NextStage(current entity.Stage, action entity.Action) (entity.Stage, error) {
	next, ok := t.edges[current][action]
	if !ok {
		return "", InvalidTransition("action %q is not allowed from stage %q", action, current)
	}
	return next, nil
}

// ActionsFrom returns the actions defined out of stage in canonical order.
func (t *TransitionTable) ActionsFrom(stage entity.Stage) []entity.Action {
	actions := make([]entity.Action, 0)
	for _, a := range entity.WorkflowActions {
		if _, ok := t.edges[stage][a]; ok {
			actions = append(actions, a)
		}
	}
	return actions
}

func (t *TransitionTable) Transitions() []Transition {
	out := make([]Transition, len(pipeline))
	copy(out, pipeline)
	return out
}
