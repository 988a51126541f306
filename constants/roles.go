package constants

import "strings"

// Role is an expert persona for the extraction prompt. Role shifts the
// extraction emphasis, never the output structure.
type Role string

const (
	RoleFracturing   Role = "fracturing specialist"
	RoleReservoirSim Role = "reservoir simulation specialist"
	RoleMachineLearn Role = "machine learning specialist"
	RoleGeneralist   Role = "generalist"
)

var allRoles = []Role{
	RoleFracturing,
	RoleReservoirSim,
	RoleMachineLearn,
	RoleGeneralist,
}

// Mode is an extraction detail level. Mode changes depth, never structure.
type Mode string

const (
	ModeFast     Mode = "fast"
	ModeStandard Mode = "standard"
	ModeDeep     Mode = "deep"
)

var allModes = []Mode{ModeFast, ModeStandard, ModeDeep}

func Roles() []string {
	result := make([]string, len(allRoles))
	for i, r := range allRoles {
		result[i] = string(r)
	}
	return result
}

func Modes() []string {
	result := make([]string, len(allModes))
	for i, m := range allModes {
		result[i] = string(m)
	}
	return result
}

// CanonicalizeRole maps free-form input to a known role, defaulting to the
// generalist persona.
func CanonicalizeRole(input string) (Role, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	for _, r := range allRoles {
		if normalized == string(r) {
			return r, true
		}
	}
	return RoleGeneralist, false
}

// CanonicalizeMode maps free-form input to a known mode, defaulting to
// standard.
func CanonicalizeMode(input string) (Mode, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	for _, m := range allModes {
		if normalized == string(m) {
			return m, true
		}
	}
	return ModeStandard, false
}
