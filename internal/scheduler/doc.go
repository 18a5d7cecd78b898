// Package scheduler implements capability matching between tasks and agents.
//
// Matching is a pure function of the task's requirements and the candidate
// set: agents missing a required capability, or holding one below the task's
// minimum proficiency, are disqualified outright; the rest are scored by
// weighted proficiency and ranked with trust and recency as tie-breakers.
// The coordinator owns candidate selection and the atomicity of the
// resulting assignment.
package scheduler
