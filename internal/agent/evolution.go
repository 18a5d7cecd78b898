package agent

import (
	"time"

	"github.com/google/uuid"
)

// EvolveResult summarizes one evolution cycle for observability.
type EvolveResult struct {
	// Evolved lists agents that went through a learning pass.
	Evolved []uuid.UUID

	// Learned maps agent ID to capability names acquired this cycle.
	Learned map[uuid.UUID][]string
}

// EvolveCycle runs one background evolution pass. For each idle agent it
// applies disuse decay to capabilities, replenishes energy, and acquires a
// learned capability when the agent's experience count crosses the next
// threshold. Agents briefly pass through the Learning state so they are not
// offered assignments mid-cycle.
//
// Non-idle agents only pay the activity energy decay; their capabilities are
// untouched.
func (r *Registry) EvolveCycle() EvolveResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := EvolveResult{Learned: make(map[uuid.UUID][]string)}
	now := time.Now()

	for _, a := range r.agents {
		switch a.State {
		case StateBusy:
			a.Energy = clampEnergy(a.Energy - r.energyDecayRate)
			continue
		case StateSuspended, StateFailed, StateLearning:
			continue
		}

		// Idle: run the learning pass.
		a.State = StateLearning

		for name, c := range a.Capabilities {
			a.Capabilities[name] = c.Decayed(r.disuseDecay)
		}

		if names := r.acquireLearned(a); len(names) > 0 {
			result.Learned[a.ID] = names
		}

		a.Energy = clampEnergy(a.Energy + r.energyRecovery)
		a.State = StateIdle
		a.LastActive = now
		result.Evolved = append(result.Evolved, a.ID)
	}
	return result
}

// acquireLearned grants the agent any learnable capabilities whose
// experience thresholds it has crossed. The first capability unlocks at the
// configured threshold, each further one at double the previous. Learner
// agents unlock at half the usual thresholds.
func (r *Registry) acquireLearned(a *Agent) []string {
	if len(r.learnable) == 0 || r.learnedThreshold <= 0 {
		return nil
	}

	threshold := r.learnedThreshold
	if a.Type == TypeLearner {
		threshold /= 2
	}

	var acquired []string
	for _, c := range r.learnable {
		if a.ExperienceCount < threshold {
			break
		}
		if _, held := a.Capabilities[c.Name]; !held {
			a.Capabilities[c.Name] = c
			acquired = append(acquired, c.Name)
		}
		threshold *= 2
	}
	return acquired
}
