package ir

import "time"

// AgentDescriptor is the static orchestration metadata of a validator.
//
// Priority orders validators that are otherwise unordered: lower values run
// and report first. Dependencies name validators whose results this one
// consumes; they are ordering hints, never gates.
type AgentDescriptor struct {
	Name         string        `json:"name" yaml:"name"`
	Description  string        `json:"description" yaml:"description"`
	Priority     int           `json:"priority" yaml:"priority"`
	Dependencies []string      `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	Timeout      time.Duration `json:"timeout" yaml:"timeout"`
}
