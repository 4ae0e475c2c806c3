// Package dispatch routes action requests to named handlers. It validates
// requests, bounds how many run at once, times them out, reports metrics and
// notifies listeners of every outcome.
package dispatch

import (
	"time"
)

// ActionRequest is what a caller submits.
type ActionRequest struct {
	ID        string    `json:"id"`
	Method    string    `json:"method"`
	Params    Params    `json:"params"`
	Timestamp time.Time `json:"timestamp"`
}

// ActionResponse is always produced, success or not.
type ActionResponse struct {
	ID         string    `json:"id"`
	Success    bool      `json:"success"`
	Result     any       `json:"result,omitempty"`
	Error      string    `json:"error,omitempty"`
	Code       string    `json:"code,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	DurationMs float64   `json:"durationMs"`
}

// Required context keys.
const (
	CtxSessionID     = "sessionId"
	CtxParticipantID = "participantId"
	CtxTurnNumber    = "turnNumber"
	CtxRoundNumber   = "roundNumber"
)

// RequiredContext is checked on every request, before handler-specific keys.
var RequiredContext = []string{CtxSessionID, CtxParticipantID, CtxTurnNumber, CtxRoundNumber}

// ActionContext carries who is acting and when.
type ActionContext map[string]any

// NewActionContext builds a context with the four required keys.
func NewActionContext(sessionID, participantID string, turn, round int) ActionContext {
	return ActionContext{
		CtxSessionID:     sessionID,
		CtxParticipantID: participantID,
		CtxTurnNumber:    turn,
		CtxRoundNumber:   round,
	}
}

func (c ActionContext) SessionID() string     { return Params(c).StringOr(CtxSessionID, "") }
func (c ActionContext) ParticipantID() string { return Params(c).StringOr(CtxParticipantID, "") }

// Category groups catalog entries.
type Category string

const (
	CategoryCombat   Category = "combat"
	CategoryMovement Category = "movement"
	CategorySocial   Category = "social"
	CategoryMagic    Category = "magic"
	CategoryUtility  Category = "utility"
	CategorySystem   Category = "system"
)

// ParamType is the declared JSON type of a parameter.
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeNumber  ParamType = "number"
	TypeBoolean ParamType = "boolean"
	TypeObject  ParamType = "object"
	TypeArray   ParamType = "array"
)

// ParamDef describes one parameter in the function catalog.
type ParamDef struct {
	Name        string    `json:"name" yaml:"name"`
	Type        ParamType `json:"type" yaml:"type"`
	Description string    `json:"description" yaml:"description"`
	Required    bool      `json:"required" yaml:"required"`
	Enum        []string  `json:"enum,omitempty" yaml:"enum"`
	Default     any       `json:"default,omitempty" yaml:"default"`
}

// FunctionDef is one entry of the function catalog a caller can query.
type FunctionDef struct {
	Name           string     `json:"name" yaml:"name"`
	Description    string     `json:"description" yaml:"description"`
	Category       Category   `json:"category" yaml:"category"`
	Parameters     []ParamDef `json:"parameters" yaml:"parameters"`
	RequiresTarget bool       `json:"requiresTarget,omitempty" yaml:"requires_target"`
	RequiresItem   bool       `json:"requiresItem,omitempty" yaml:"requires_item"`
	Restricted     bool       `json:"restricted,omitempty" yaml:"restricted"`
	Usage          string     `json:"usage,omitempty" yaml:"usage"`
	Prereq         string     `json:"-" yaml:"prereq"`
}
