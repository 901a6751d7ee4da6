package engine

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/roach88/nomina/internal/ir"
)

// Tier is a group of validators that run concurrently. Agents are ordered
// by priority, then declaration order.
type Tier struct {
	Index  int      `json:"index"`
	Agents []string `json:"agents"`
}

// Plan is the execution order computed from validator descriptors.
type Plan struct {
	Tiers []Tier `json:"tiers"`

	// Unresolved maps an agent to dependency names that match no
	// registered validator. They are ignored for ordering.
	Unresolved map[string][]string `json:"unresolved,omitempty"`

	tierOf   map[string]int
	position map[string]int
}

// TierOf returns the tier index of agent, or -1 if it is not planned.
// Plans decoded from JSON have no index and are scanned instead.
func (p *Plan) TierOf(agent string) int {
	if p.tierOf == nil {
		for _, t := range p.Tiers {
			for _, a := range t.Agents {
				if a == agent {
					return t.Index
				}
			}
		}
		return -1
	}
	if t, ok := p.tierOf[agent]; ok {
		return t
	}
	return -1
}

// Agents returns every planned agent in execution order.
func (p *Plan) Agents() []string {
	var out []string
	for _, t := range p.Tiers {
		out = append(out, t.Agents...)
	}
	return out
}

// String renders the plan on one line: "[a b] → [c] → [d]".
func (p *Plan) String() string {
	parts := make([]string, len(p.Tiers))
	for i, t := range p.Tiers {
		parts[i] = "[" + strings.Join(t.Agents, " ") + "]"
	}
	return strings.Join(parts, " → ")
}

// BuildPlan validates descriptors and groups them into tiers with Kahn's
// algorithm. A validator's tier is one more than the deepest tier among its
// dependencies; validators without resolvable dependencies land in tier 0.
//
// Dependency names that match no descriptor are soft hints: they are logged
// at warn level and recorded in Plan.Unresolved. Cycles fail with
// ErrCodeCycleDetected.
func BuildPlan(descs []ir.AgentDescriptor, logger *slog.Logger) (*Plan, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(descs) == 0 {
		return nil, &PlanError{Code: ErrCodeNoValidators, Message: "no validators registered"}
	}

	position := make(map[string]int, len(descs))
	order := make([]string, 0, len(descs))
	for i, d := range descs {
		name := d.Name
		switch {
		case strings.TrimSpace(name) == "":
			return nil, &PlanError{Code: ErrCodeInvalidDescriptor, Message: fmt.Sprintf("validator #%d has an empty name", i+1)}
		case d.Timeout < 0:
			return nil, &PlanError{Code: ErrCodeInvalidDescriptor, Message: fmt.Sprintf("negative timeout %s", d.Timeout), Agents: []string{name}}
		}
		if _, dup := position[name]; dup {
			return nil, &PlanError{Code: ErrCodeDuplicateAgent, Message: "validator registered twice", Agents: []string{name}}
		}
		position[name] = i
		order = append(order, name)
	}

	graph := make(dependencyGraph, len(descs))
	unresolved := make(map[string][]string)
	for _, d := range descs {
		graph[d.Name] = []string{}
		for _, dep := range d.Dependencies {
			if _, ok := position[dep]; !ok {
				unresolved[d.Name] = append(unresolved[d.Name], dep)
				logger.Warn("ignoring unknown dependency", "agent", d.Name, "dependency", dep)
				continue
			}
			graph[d.Name] = append(graph[d.Name], dep)
		}
	}
	if path := findCycle(order, graph); path != nil {
		return nil, NewCycleError(path)
	}

	// Kahn over reversed edges (dependency → dependent), tracking depth.
	dependents := make(map[string][]string, len(descs))
	inDegree := make(map[string]int, len(descs))
	for _, name := range order {
		for _, dep := range graph[name] {
			dependents[dep] = append(dependents[dep], name)
			inDegree[name]++
		}
	}
	depth := make(map[string]int, len(descs))
	var queue []string
	for _, name := range order {
		depth[name] = 0
		if inDegree[name] == 0 {
			queue = append(queue, name)
		}
	}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		for _, next := range dependents[node] {
			depth[next] = max(depth[next], depth[node]+1)
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	maxDepth := 0
	for _, d := range depth {
		maxDepth = max(maxDepth, d)
	}
	tiers := make([]Tier, maxDepth+1)
	for i := range tiers {
		tiers[i].Index = i
	}
	for _, name := range order {
		t := depth[name]
		tiers[t].Agents = append(tiers[t].Agents, name)
	}
	for _, t := range tiers {
		sort.SliceStable(t.Agents, func(i, j int) bool {
			a, b := descs[position[t.Agents[i]]], descs[position[t.Agents[j]]]
			if a.Priority != b.Priority {
				return a.Priority < b.Priority
			}
			return position[a.Name] < position[b.Name]
		})
	}

	plan := &Plan{
		Tiers:    tiers,
		tierOf:   depth,
		position: position,
	}
	if len(unresolved) > 0 {
		plan.Unresolved = unresolved
	}
	return plan, nil
}
