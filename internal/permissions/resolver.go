package permissions

import (
	"fmt"

	"gorm.io/gorm"

	"callcrm-backend/internal/models"
)

// Wildcard matches any resource or action in a permission row.
const Wildcard = "*"

// Resolver answers allow/deny questions from an immutable rule table.
// It is loaded once at startup and never mutated at serve time.
type Resolver struct {
	rules map[string]map[string]map[string]bool
}

var global *Resolver

// Init loads the permission table from the database into the process-wide
// resolver. Must run after the table has been seeded.
func Init(db *gorm.DB) error {
	r, err := Load(db)
	if err != nil {
		return err
	}
	global = r
	return nil
}

// Load reads all permission rows into a new Resolver.
func Load(db *gorm.DB) (*Resolver, error) {
	var rows []models.Permission
	if err := db.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load permissions: %w", err)
	}
	return NewResolver(rows), nil
}

// NewResolver builds a Resolver from explicit rows. Only allowed=true rows
// grant anything; everything else is a deny.
func NewResolver(rows []models.Permission) *Resolver {
	rules := make(map[string]map[string]map[string]bool)
	for _, row := range rows {
		if !row.Allowed {
			continue
		}
		if rules[row.Role] == nil {
			rules[row.Role] = make(map[string]map[string]bool)
		}
		if rules[row.Role][row.Resource] == nil {
			rules[row.Role][row.Resource] = make(map[string]bool)
		}
		rules[row.Role][row.Resource][row.Action] = true
	}
	return &Resolver{rules: rules}
}

// Allowed reports whether role may perform action on resource. Lookup order:
// full wildcard (admin), exact match, then (resource, *). No match is a deny.
func (r *Resolver) Allowed(role, resource, action string) bool {
	byResource, ok := r.rules[role]
	if !ok {
		return false
	}
	if byResource[Wildcard][Wildcard] {
		return true
	}
	if actions, ok := byResource[resource]; ok {
		if actions[action] || actions[Wildcard] {
			return true
		}
	}
	return false
}

// Allowed consults the process-wide resolver. Deny when Init has not run.
func Allowed(role, resource, action string) bool {
	if global == nil {
		return false
	}
	return global.Allowed(role, resource, action)
}
