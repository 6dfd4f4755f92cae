package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Stage string
type Action string
type Category string

const (
	StageDiscovery       Stage = "discovery"
	StageBasicValidation Stage = "basic_validation"
	StageTechValidation  Stage = "tech_validation"
	StageLeadershipPitch Stage = "leadership_pitch"
	StageMVP             Stage = "mvp"
	StageRejected        Stage = "rejected"

	ActionAccept          Action = "accept"
	ActionReject          Action = "reject"
	ActionApprove         Action = "approve"
	ActionRequestMoreInfo Action = "request_more_info"
	// ActionSubmit only ever labels the creation record of an idea.
	ActionSubmit Action = "submit"

	CategoryTechnology Category = "technology"
	CategoryProcess    Category = "process"
	CategoryProduct    Category = "product"
	CategoryService    Category = "service"
	CategoryOther      Category = "other"

	MaxIdeaTags = 10
)

// Stages lists the pipeline in order, terminal sinks last.
var Stages = []Stage{
	StageDiscovery,
	StageBasicValidation,
	StageTechValidation,
	StageLeadershipPitch,
	StageMVP,
	StageRejected,
}

// WorkflowActions are the actions a reviewer may apply to an idea.
var WorkflowActions = []Action{
	ActionAccept,
	ActionReject,
	ActionApprove,
	ActionRequestMoreInfo,
}

var Categories = []Category{
	CategoryTechnology,
	CategoryProcess,
	CategoryProduct,
	CategoryService,
	CategoryOther,
}

func (s Stage) IsValid() bool {
	for _, known := range Stages {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no workflow action may leave the stage.
func (s Stage) IsTerminal() bool {
	return s == StageMVP || s == StageRejected
}

func (a Action) IsValid() bool {
	for _, known := range WorkflowActions {
		if a == known {
			return true
		}
	}
	return false
}

func (c Category) IsValid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseStage rejects unknown values instead of coercing them.
func ParseStage(raw string) (Stage, bool) {
	s := Stage(strings.TrimSpace(strings.ToLower(raw)))
	return s, s.IsValid()
}

// ParseAction accepts only reviewer actions; "submit" is not parseable.
func ParseAction(raw string) (Action, bool) {
	a := Action(strings.TrimSpace(strings.ToLower(raw)))
	return a, a.IsValid()
}

type Idea struct {
	Id               uuid.UUID
	Title            string
	Description      string
	ProblemStatement string
	TargetAudience   string
	Category         Category
	Tags             []string
	DocumentURL      *string
	Stage            Stage
	SubmittedBy      uuid.UUID
	CreatedAt        time.Time
	UpdatedAt        *time.Time
}
