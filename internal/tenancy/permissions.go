package tenancy

import (
	"fmt"
	"sort"
)

// Resource is a permission-controlled area of a tenant.
type Resource string

// Action is an operation on a Resource.
type Action string

const (
	ResourceComments  Resource = "comments"
	ResourceLeads     Resource = "leads"
	ResourceTeam      Resource = "team"
	ResourceSettings  Resource = "settings"
	ResourceAnalytics Resource = "analytics"
)

const (
	ActionView        Action = "view"
	ActionReply       Action = "reply"
	ActionDelete      Action = "delete"
	ActionModerate    Action = "moderate"
	ActionCreate      Action = "create"
	ActionUpdate      Action = "update"
	ActionInvite      Action = "invite"
	ActionRemove      Action = "remove"
	ActionManageRoles Action = "manageRoles"
)

// catalog lists every valid (resource, action) pair.
var catalog = map[Resource][]Action{
	ResourceComments:  {ActionView, ActionReply, ActionDelete, ActionModerate},
	ResourceLeads:     {ActionView, ActionCreate, ActionUpdate, ActionDelete},
	ResourceTeam:      {ActionView, ActionInvite, ActionRemove, ActionManageRoles},
	ResourceSettings:  {ActionView, ActionUpdate},
	ResourceAnalytics: {ActionView},
}

// IsKnown reports whether action is defined for resource.
func IsKnown(resource Resource, action Action) bool {
	for _, a := range catalog[resource] {
		if a == action {
			return true
		}
	}
	return false
}

// PermissionMatrix maps resource to action to granted. Missing entries are denied.
type PermissionMatrix map[Resource]map[Action]bool

// Allows reports whether the matrix grants action on resource.
func (m PermissionMatrix) Allows(resource Resource, action Action) bool {
	if m == nil {
		return false
	}
	return m[resource][action]
}

// Validate rejects resources or actions outside the catalog.
func (m PermissionMatrix) Validate() error {
	for resource, actions := range m {
		if _, ok := catalog[resource]; !ok {
			return fmt.Errorf("unknown resource %q", resource)
		}
		for action := range actions {
			if !IsKnown(resource, action) {
				return fmt.Errorf("unknown action %q for resource %q", action, resource)
			}
		}
	}
	return nil
}

// Merge returns a copy of m with every entry of patch applied on top.
func (m PermissionMatrix) Merge(patch PermissionMatrix) PermissionMatrix {
	out := m.Clone()
	for resource, actions := range patch {
		if out[resource] == nil {
			out[resource] = make(map[Action]bool, len(actions))
		}
		for action, granted := range actions {
			out[resource][action] = granted
		}
	}
	return out
}

// Clone returns a deep copy.
func (m PermissionMatrix) Clone() PermissionMatrix {
	out := make(PermissionMatrix, len(m))
	for resource, actions := range m {
		copied := make(map[Action]bool, len(actions))
		for action, granted := range actions {
			copied[action] = granted
		}
		out[resource] = copied
	}
	return out
}

// Granted lists "resource.action" strings for every granted entry, sorted.
func (m PermissionMatrix) Granted() []string {
	out := make([]string, 0)
	for resource, actions := range m {
		for action, granted := range actions {
			if granted {
				out = append(out, string(resource)+"."+string(action))
			}
		}
	}
	sort.Strings(out)
	return out
}

// FullAccess returns a matrix granting every catalogued action.
func FullAccess() PermissionMatrix {
	out := make(PermissionMatrix, len(catalog))
	for resource, actions := range catalog {
		out[resource] = make(map[Action]bool, len(actions))
		for _, action := range actions {
			out[resource][action] = true
		}
	}
	return out
}
