package tenancy

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ManagerRoleName is the system role given to the registering tenant admin.
const ManagerRoleName = "Manager"

//go:embed system_roles.yaml
var systemRolesYAML []byte

type seedFile struct {
	Thresholds map[Resource]map[Action]int `yaml:"thresholds"`
	Roles      []struct {
		Name        string `yaml:"name"`
		Level       int    `yaml:"level"`
		Description string `yaml:"description"`
	} `yaml:"roles"`
}

// RoleTemplate describes a system role before it is bound to a tenant.
type RoleTemplate struct {
	Name        string
	Description string
	Level       int
	Permissions PermissionMatrix
}

// SystemRoles returns the seeded role templates, highest level first.
func SystemRoles() ([]RoleTemplate, error) {
	return parseSystemRoles(systemRolesYAML)
}

func parseSystemRoles(data []byte) ([]RoleTemplate, error) {
	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse system roles: %w", err)
	}

	out := make([]RoleTemplate, 0, len(file.Roles))
	for _, r := range file.Roles {
		perms := make(PermissionMatrix, len(file.Thresholds))
		for resource, actions := range file.Thresholds {
			perms[resource] = make(map[Action]bool, len(actions))
			for action, min := range actions {
				perms[resource][action] = r.Level >= min
			}
		}
		if err := perms.Validate(); err != nil {
			return nil, fmt.Errorf("system role %q: %w", r.Name, err)
		}
		out = append(out, RoleTemplate{
			Name:        r.Name,
			Description: r.Description,
			Level:       r.Level,
			Permissions: perms,
		})
	}
	return out, nil
}
