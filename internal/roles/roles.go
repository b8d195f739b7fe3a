package roles

import (
	"fmt"
	"strings"
)

type Role string

const (
	User      Role = "ROLE_USER"
	Moderator Role = "ROLE_MODERATOR"
	Admin     Role = "ROLE_ADMIN"
)

// hierarchy maps each role to the roles it directly inherits.
var hierarchy = map[Role][]Role{
	User:      {},
	Moderator: {User},
	Admin:     {Moderator, User},
}

func All() []Role {
	return []Role{User, Moderator, Admin}
}

func IsValid(r string) bool {
	_, ok := hierarchy[Role(r)]
	return ok
}

// Default is assigned when a registration carries no explicit roles.
func Default() []Role {
	return []Role{User}
}

// Inherits reports whether current equals required or transitively inherits
// it through the hierarchy table. A visited set bounds the traversal, so a
// malformed table with a cycle returns false instead of recursing forever.
func Inherits(current, required Role) bool {
	return inherits(hierarchy, current, required, map[Role]struct{}{})
}

func inherits(h map[Role][]Role, current, required Role, visited map[Role]struct{}) bool {
	if current == required {
		return true
	}
	if _, seen := visited[current]; seen {
		return false
	}
	visited[current] = struct{}{}
	for _, parent := range h[current] {
		if inherits(h, parent, required, visited) {
			return true
		}
	}
	return false
}

// AnyInherits checks a multi-role account against a single required role.
func AnyInherits(current []Role, required Role) bool {
	for _, r := range current {
		if Inherits(r, required) {
			return true
		}
	}
	return false
}

// Normalize trims, validates and deduplicates a raw roles list. An empty
// list falls back to Default.
func Normalize(raw []string) ([]Role, error) {
	seen := map[Role]struct{}{}
	var clean []Role

	for _, r := range raw {
		name := strings.ToUpper(strings.TrimSpace(r))
		if !IsValid(name) {
			return nil, fmt.Errorf("invalid role: %s", r)
		}
		role := Role(name)
		if _, ok := seen[role]; !ok {
			seen[role] = struct{}{}
			clean = append(clean, role)
		}
	}
	if len(clean) == 0 {
		return Default(), nil
	}
	return clean, nil
}

// ValidateHierarchy is run once at startup. It rejects tables that reference
// unknown roles or contain a cycle, so per-request checks never have to.
func ValidateHierarchy() error {
	return validateHierarchy(hierarchy)
}

func validateHierarchy(h map[Role][]Role) error {
	for role, parents := range h {
		for _, p := range parents {
			if _, ok := h[p]; !ok {
				return fmt.Errorf("role %s inherits unknown role %s", role, p)
			}
		}
	}
	for role := range h {
		if cyclic(h, role, role, map[Role]struct{}{}) {
			return fmt.Errorf("role hierarchy contains a cycle through %s", role)
		}
	}
	return nil
}

func cyclic(h map[Role][]Role, start, current Role, visited map[Role]struct{}) bool {
	if _, seen := visited[current]; seen {
		return false
	}
	visited[current] = struct{}{}
	for _, parent := range h[current] {
		if parent == start {
			return true
		}
		if cyclic(h, start, parent, visited) {
			return true
		}
	}
	return false
}
