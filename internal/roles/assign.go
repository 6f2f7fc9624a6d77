package roles

import "log/slog"

// Assignment maps one agent to the role it will speak as.
type Assignment struct {
	AgentID string `json:"agent_id"`
	RoleID  string `json:"role_id"`
}

// BalancedAssignment assigns roles to agents by capability coverage. The
// candidate role list is built by walking capabilities in order, taking
// primary matches across all capabilities before any secondary match, and
// de-duplicating while preserving first-seen order. Agents are then paired
// with candidates positionally; agents beyond the candidate count receive
// the fallback role.
func BalancedAssignment(reg *Registry, agents []string, capabilities []Capability, logger *slog.Logger) []Assignment {
	if logger == nil {
		logger = slog.Default()
	}
	if len(capabilities) == 0 {
		capabilities = DefaultCapabilityOrder()
	}

	var candidates []string
	seen := make(map[string]bool)
	add := func(role Role) {
		if role.ID == FallbackRoleID || seen[role.ID] {
			return
		}
		seen[role.ID] = true
		candidates = append(candidates, role.ID)
	}
	for _, cap := range capabilities {
		for _, role := range reg.RolesByCapability(cap) {
			if role.Primary == cap {
				add(role)
			}
		}
	}
	for _, cap := range capabilities {
		for _, role := range reg.RolesByCapability(cap) {
			add(role)
		}
	}

	assignments := make([]Assignment, 0, len(agents))
	for i, agent := range agents {
		roleID := FallbackRoleID
		if i < len(candidates) {
			roleID = candidates[i]
		} else {
			logger.Debug("no specialist role left, assigning fallback",
				"agent", agent, "role", FallbackRoleID)
		}
		assignments = append(assignments, Assignment{AgentID: agent, RoleID: roleID})
	}
	return assignments
}

// CustomAssignment applies an explicit agent-to-role mapping. Agents mapped
// to unknown role IDs are dropped with a warning and excluded from the
// discussion. Agents absent from overrides are also excluded; callers who
// want defaults for the rest should use BalancedAssignment first.
func CustomAssignment(reg *Registry, agents []string, overrides map[string]string, logger *slog.Logger) []Assignment {
	if logger == nil {
		logger = slog.Default()
	}

	assignments := make([]Assignment, 0, len(agents))
	for _, agent := range agents {
		roleID, ok := overrides[agent]
		if !ok {
			continue
		}
		if _, known := reg.Get(roleID); !known {
			logger.Warn("unknown role in custom assignment, excluding agent",
				"agent", agent, "role", roleID)
			continue
		}
		assignments = append(assignments, Assignment{AgentID: agent, RoleID: roleID})
	}
	return assignments
}
