package scheduler

import (
	"sort"

	"github.com/beelab/hive/internal/agent"
	"github.com/beelab/hive/internal/capability"
	"github.com/beelab/hive/internal/task"
)

// Candidate pairs an agent with its fitness score for one task.
type Candidate struct {
	Agent *agent.Agent
	Score float64
}

// Matcher scores agents against task capability requirements. It holds no
// state; all inputs arrive per call so the coordinator can serialize
// assignment decisions around it.
type Matcher struct{}

// NewMatcher creates a Matcher.
func NewMatcher() *Matcher {
	return &Matcher{}
}

// Fitness returns the capability-weighted proficiency score of an agent for
// the given requirements, or -1 when the agent is disqualified: missing a
// required capability or holding one below its minimum proficiency.
func (m *Matcher) Fitness(a *agent.Agent, required []capability.Requirement) float64 {
	if len(required) == 0 {
		// Unconstrained tasks rank agents by overall trust.
		return a.TrustScore
	}
	var score, totalWeight float64
	for _, req := range required {
		cap, held := a.Capabilities[req.Name]
		if !held || cap.Proficiency < req.MinProficiency {
			return -1
		}
		w := req.EffectiveWeight()
		score += w * cap.Proficiency
		totalWeight += w
	}
	if totalWeight == 0 {
		return 0
	}
	return score / totalWeight
}

// Rank scores every candidate against the task and returns the qualified
// ones ordered best-first: fitness desc, then trust desc, then least
// recently active. Disqualified agents are dropped.
func (m *Matcher) Rank(t *task.Task, candidates []*agent.Agent) []Candidate {
	ranked := make([]Candidate, 0, len(candidates))
	for _, a := range candidates {
		score := m.Fitness(a, t.Required)
		if score < 0 {
			continue
		}
		ranked = append(ranked, Candidate{Agent: a, Score: score})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		if ranked[i].Agent.TrustScore != ranked[j].Agent.TrustScore {
			return ranked[i].Agent.TrustScore > ranked[j].Agent.TrustScore
		}
		return ranked[i].Agent.LastActive.Before(ranked[j].Agent.LastActive)
	})
	return ranked
}

// Match returns the best qualified candidate for the task, or nil when no
// agent qualifies.
func (m *Matcher) Match(t *task.Task, candidates []*agent.Agent) *Candidate {
	ranked := m.Rank(t, candidates)
	if len(ranked) == 0 {
		return nil
	}
	best := ranked[0]
	return &best
}
