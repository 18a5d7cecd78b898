// Package capability defines the named-skill value types shared by agents
// and tasks. An agent holds a set of capabilities with proficiency levels
// that evolve with task outcomes; a task declares requirements with minimum
// proficiencies and weights used for match scoring.
package capability

// Adjustment factors applied to proficiency after a task outcome.
// Success moves proficiency up by learning_rate*0.1; failure moves it down
// by half that rate.
const (
	successGainFactor = 0.1
	failureLossFactor = 0.05
)

// Capability is a named skill with a proficiency level and a learning rate.
type Capability struct {
	// Name identifies the skill, e.g. "data_processing".
	Name string `json:"name" mapstructure:"name"`

	// Proficiency is the current skill level from 0.0 (novice) to 1.0 (expert).
	Proficiency float64 `json:"proficiency" mapstructure:"proficiency"`

	// LearningRate controls how quickly proficiency moves with experience,
	// in [0.0, 1.0].
	LearningRate float64 `json:"learning_rate" mapstructure:"learning_rate"`
}

// Requirement is a capability demanded by a task. A candidate agent whose
// proficiency for Name is below MinProficiency is disqualified outright;
// among qualified candidates, Weight scales the capability's contribution
// to the match score.
type Requirement struct {
	Name           string  `json:"name" mapstructure:"name"`
	MinProficiency float64 `json:"min_proficiency" mapstructure:"min_proficiency"`
	Weight         float64 `json:"weight" mapstructure:"weight"`
}

// Valid reports whether the capability's numeric fields are within bounds
// and its name is non-empty.
func (c Capability) Valid() bool {
	return c.Name != "" &&
		c.Proficiency >= 0 && c.Proficiency <= 1 &&
		c.LearningRate >= 0 && c.LearningRate <= 1
}

// Valid reports whether the requirement is well-formed. A zero weight is
// allowed and treated as 1.0 by EffectiveWeight.
func (r Requirement) Valid() bool {
	return r.Name != "" &&
		r.MinProficiency >= 0 && r.MinProficiency <= 1 &&
		r.Weight >= 0
}

// EffectiveWeight returns the requirement's weight, defaulting to 1.0 when
// unset so that unweighted requirement lists behave as a plain proficiency
// sum.
func (r Requirement) EffectiveWeight() float64 {
	if r.Weight == 0 {
		return 1.0
	}
	return r.Weight
}

// Adjusted returns a copy of the capability with proficiency moved by one
// task outcome: up by LearningRate*0.1 on success, down by LearningRate*0.05
// on failure, clamped to [0, 1].
func (c Capability) Adjusted(success bool) Capability {
	delta := c.LearningRate * successGainFactor
	if !success {
		delta = -c.LearningRate * failureLossFactor
	}
	c.Proficiency = Clamp(c.Proficiency + delta)
	return c
}

// Decayed returns a copy of the capability with proficiency reduced by the
// given disuse decay amount, clamped to [0, 1]. Used by the periodic
// evolution cycle for capabilities that have not been exercised.
func (c Capability) Decayed(amount float64) Capability {
	c.Proficiency = Clamp(c.Proficiency - amount)
	return c
}

// Clamp bounds a proficiency-like value to [0, 1].
func Clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
