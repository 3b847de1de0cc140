package models

import (
	"fmt"
	"strings"
	"time"
)

// ActivationState is the visibility state of a post, driven by image checks.
type ActivationState string

const (
	StateActive   ActivationState = "active"
	StateInactive ActivationState = "inactive"
)

// Verdict is the outcome of probing an image reference.
type Verdict bool

const (
	Reachable   Verdict = true
	Unreachable Verdict = false
)

// Activation is the pair of lifecycle fields that must always be written together.
type Activation struct {
	IsActive  bool
	CheckedAt *time.Time
}

// State reports the activation state for the pair.
func (a Activation) State() ActivationState {
	return StateOf(a.IsActive)
}

// StateOf maps the persisted is_active flag to a state.
func StateOf(isActive bool) ActivationState {
	if isActive {
		return StateActive
	}
	return StateInactive
}

// Transition returns the state a post moves to after a verdict. The verdict
// alone decides it, whatever the current state; no state is terminal.
func Transition(verdict Verdict) ActivationState {
	if verdict == Reachable {
		return StateActive
	}
	return StateInactive
}

// ApplyVerdict stamps a verdict observed at checkedAt.
// A verdict older than the current stamp leaves the pair unchanged.
func (a Activation) ApplyVerdict(verdict Verdict, checkedAt time.Time) (Activation, bool) {
	checkedAt = checkedAt.UTC()
	if a.CheckedAt != nil && checkedAt.Before(*a.CheckedAt) {
		return a, false
	}
	next := Transition(verdict)
	return Activation{IsActive: next == StateActive, CheckedAt: &checkedAt}, true
}

const (
	MaxTitleLength    = 200
	MaxImageURLLength = 500
	MaxTagLength      = 50
	MaxTags           = 20
)

// NormalizeTags trims tags, drops empties and duplicates, and keeps input order.
func NormalizeTags(raw []string) ([]string, error) {
	out := make([]string, 0, len(raw))
	seen := map[string]struct{}{}
	for _, tag := range raw {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if len(tag) > MaxTagLength {
			return nil, fmt.Errorf("tag too long: %q", tag)
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	if len(out) > MaxTags {
		return nil, fmt.Errorf("at most %d tags allowed", MaxTags)
	}
	return out, nil
}
