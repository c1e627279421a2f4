package bootstrap

import (
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"callcrm-backend/internal/auth"
	"callcrm-backend/internal/models"
)

// Run seeds the admin user and the permission table. Both are idempotent:
// existing rows are left alone so operator edits survive restarts.
func Run(db *gorm.DB) {
	if db == nil {
		log.Warn("bootstrap: skipping; database not initialized")
		return
	}

	ensureAdminUser(db)
	seedPermissions(db)
}

func ensureAdminUser(db *gorm.DB) {
	email := strings.TrimSpace(os.Getenv("ADMIN_EMAIL"))
	if email == "" {
		email = "admin@callcrm.local"
	}

	var profile models.Profile
	if err := db.Where("email = ?", email).First(&profile).Error; err == nil {
		return
	}

	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		log.Warn("bootstrap: ADMIN_PASSWORD not set, skipping admin creation")
		return
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		log.WithError(err).Error("bootstrap: failed to hash admin password")
		return
	}

	name := strings.TrimSpace(os.Getenv("ADMIN_NAME"))
	if name == "" {
		name = "System Administrator"
	}

	profile = models.Profile{
		Email:    email,
		Password: hashed,
		FullName: name,
		Role:     models.RoleAdmin,
		IsActive: true,
	}

	if err := db.Create(&profile).Error; err != nil {
		log.WithError(err).WithField("email", email).Error("bootstrap: failed to create admin user")
		return
	}

	log.WithField("email", email).Info("bootstrap: created admin user")
}

// defaultPermissions is the static authorization policy. Admin holds the
// full wildcard; supervisors manage campaigns and validate sales; agents
// work leads, calls and sales of their own. Everything absent is a deny.
var defaultPermissions = []models.Permission{
	{Role: models.RoleAdmin, Resource: "*", Action: "*", Allowed: true},

	{Role: models.RoleSupervisor, Resource: "leads", Action: "create", Allowed: true},
	{Role: models.RoleSupervisor, Resource: "leads", Action: "read", Allowed: true},
	{Role: models.RoleSupervisor, Resource: "leads", Action: "update", Allowed: true},
	{Role: models.RoleSupervisor, Resource: "leads", Action: "assign", Allowed: true},
	{Role: models.RoleSupervisor, Resource: "campaigns", Action: "create", Allowed: true},
	{Role: models.RoleSupervisor, Resource: "campaigns", Action: "read", Allowed: true},
	{Role: models.RoleSupervisor, Resource: "campaigns", Action: "update", Allowed: true},
	{Role: models.RoleSupervisor, Resource: "products", Action: "create", Allowed: true},
	{Role: models.RoleSupervisor, Resource: "products", Action: "read", Allowed: true},
	{Role: models.RoleSupervisor, Resource: "calls", Action: "create", Allowed: true},
	{Role: models.RoleSupervisor, Resource: "calls", Action: "read", Allowed: true},
	{Role: models.RoleSupervisor, Resource: "sales", Action: "create", Allowed: true},
	{Role: models.RoleSupervisor, Resource: "sales", Action: "read", Allowed: true},
	{Role: models.RoleSupervisor, Resource: "sales", Action: "validate", Allowed: true},
	{Role: models.RoleSupervisor, Resource: "reports", Action: "read", Allowed: true},

	{Role: models.RoleAgent, Resource: "leads", Action: "create", Allowed: true},
	{Role: models.RoleAgent, Resource: "leads", Action: "read", Allowed: true},
	{Role: models.RoleAgent, Resource: "leads", Action: "update", Allowed: true},
	{Role: models.RoleAgent, Resource: "campaigns", Action: "read", Allowed: true},
	{Role: models.RoleAgent, Resource: "products", Action: "read", Allowed: true},
	{Role: models.RoleAgent, Resource: "calls", Action: "create", Allowed: true},
	{Role: models.RoleAgent, Resource: "calls", Action: "read", Allowed: true},
	{Role: models.RoleAgent, Resource: "sales", Action: "create", Allowed: true},
	{Role: models.RoleAgent, Resource: "sales", Action: "read", Allowed: true},
}

func seedPermissions(db *gorm.DB) {
	created := 0
	for _, perm := range defaultPermissions {
		var existing models.Permission
		err := db.Where("role = ? AND resource = ? AND action = ?",
			perm.Role, perm.Resource, perm.Action).First(&existing).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			log.WithError(err).Error("bootstrap: failed to query permission table")
			return
		}
		if err := db.Create(&perm).Error; err != nil {
			log.WithError(err).Error("bootstrap: failed to seed permission")
			return
		}
		created++
	}

	if created > 0 {
		log.WithField("count", created).Info("bootstrap: seeded permissions")
	}
}
