package roles

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// Registry holds the known role definitions. It is constructed explicitly in
// the composition root and passed to whoever needs role lookup; there is no
// package-level registry.
type Registry struct {
	mu     sync.RWMutex
	roles  map[string]Role
	order  []string // registration order, for deterministic lookups
	logger *slog.Logger
}

// NewRegistry creates an empty role registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		roles:  make(map[string]Role),
		logger: logger,
	}
}

// Register validates and stores a role. Registration is idempotent by ID:
// registering an existing ID replaces the previous definition. Requirements
// with unknown validator identifiers or non-positive weights are rejected
// here, so scoring never encounters an unresolved validator.
func (r *Registry) Register(role Role) error {
	if strings.TrimSpace(role.ID) == "" {
		return fmt.Errorf("role id must not be empty")
	}
	if !role.Primary.Valid() {
		return fmt.Errorf("role %q: unknown primary capability %q", role.ID, role.Primary)
	}
	for _, sec := range role.Secondary {
		if !sec.Valid() {
			return fmt.Errorf("role %q: unknown secondary capability %q", role.ID, sec)
		}
	}
	for _, req := range role.Requirements {
		if req.Weight <= 0 {
			return fmt.Errorf("role %q: requirement %q has non-positive weight %v", role.ID, req.Name, req.Weight)
		}
		if _, err := ResolveValidator(req.Validator); err != nil {
			return fmt.Errorf("role %q: requirement %q: %w", role.ID, req.Name, err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	_, replaced := r.roles[role.ID]
	if !replaced {
		r.order = append(r.order, role.ID)
	}
	r.roles[role.ID] = role

	r.logger.Info("role registered",
		"role", role.ID,
		"capability", role.Primary,
		"requirements", len(role.Requirements),
		"replaced", replaced)
	return nil
}

// Get returns the role registered under id.
func (r *Registry) Get(id string) (Role, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	role, ok := r.roles[id]
	return role, ok
}

// List returns all roles in registration order.
func (r *Registry) List() []Role {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Role, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.roles[id])
	}
	return out
}

// RolesByCapability returns roles declaring c, primary matches before
// secondary, each group in registration order.
func (r *Registry) RolesByCapability(c Capability) []Role {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var primary, secondary []Role
	for _, id := range r.order {
		role := r.roles[id]
		switch {
		case role.Primary == c:
			primary = append(primary, role)
		case role.HasCapability(c):
			secondary = append(secondary, role)
		}
	}
	return append(primary, secondary...)
}

// Len returns the number of registered roles.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.roles)
}
