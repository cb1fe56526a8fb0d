package rbac

import "github.com/Baaaki/yamdb/internal/models"

// FieldRule restricts what may be written to a single field.
type FieldRule struct {
	// Reserved values are rejected on every write.
	Reserved []string
	// AdminOnly fields are silently dropped from writes by non-admins.
	AdminOnly bool
}

// SelfAlias is the path segment that addresses the caller's own user record.
const SelfAlias = "me"

var fieldPolicy = map[Resource]map[string]FieldRule{
	ResourceUser: {
		"username": {Reserved: []string{SelfAlias}},
		"role":     {AdminOnly: true},
		"is_staff": {AdminOnly: true},
	},
}

// IsReserved reports whether value may not be stored in resource.field.
func IsReserved(resource Resource, field, value string) bool {
	for _, r := range fieldPolicy[resource][field].Reserved {
		if r == value {
			return true
		}
	}
	return false
}

// WritableFields removes the fields actor may not write from a pending update.
// The map is modified in place and returned.
func WritableFields(actor *models.User, resource Resource, fields map[string]any) map[string]any {
	if actor != nil && actor.IsAdmin() {
		return fields
	}
	for name, rule := range fieldPolicy[resource] {
		if rule.AdminOnly {
			delete(fields, name)
		}
	}
	return fields
}
