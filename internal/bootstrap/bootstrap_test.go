package bootstrap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"callcrm-backend/internal/auth"
	"callcrm-backend/internal/models"
	"callcrm-backend/internal/permissions"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Profile{},
		&models.Permission{},
	))
	return db
}

func TestRunSeedsAdminAndPermissions(t *testing.T) {
	db := setupTestDB(t)
	t.Setenv("ADMIN_EMAIL", "root@example.com")
	t.Setenv("ADMIN_PASSWORD", "bootstrap-secret")

	Run(db)

	var admin models.Profile
	require.NoError(t, db.Where("email = ?", "root@example.com").First(&admin).Error)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.True(t, admin.IsActive)
	assert.True(t, auth.CheckPassword("bootstrap-secret", admin.Password))

	var count int64
	require.NoError(t, db.Model(&models.Permission{}).Count(&count).Error)
	assert.Equal(t, int64(len(defaultPermissions)), count)
}

func TestRunIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	t.Setenv("ADMIN_EMAIL", "root@example.com")
	t.Setenv("ADMIN_PASSWORD", "bootstrap-secret")

	Run(db)
	Run(db)

	var admins int64
	require.NoError(t, db.Model(&models.Profile{}).Count(&admins).Error)
	assert.Equal(t, int64(1), admins)

	var perms int64
	require.NoError(t, db.Model(&models.Permission{}).Count(&perms).Error)
	assert.Equal(t, int64(len(defaultPermissions)), perms)
}

func TestSeededPolicyResolves(t *testing.T) {
	db := setupTestDB(t)
	t.Setenv("ADMIN_PASSWORD", "bootstrap-secret")

	Run(db)

	resolver, err := permissions.Load(db)
	require.NoError(t, err)

	assert.True(t, resolver.Allowed(models.RoleAdmin, "users", "read"))
	assert.True(t, resolver.Allowed(models.RoleSupervisor, "sales", "validate"))
	assert.True(t, resolver.Allowed(models.RoleAgent, "leads", "create"))

	assert.False(t, resolver.Allowed(models.RoleAgent, "sales", "validate"))
	assert.False(t, resolver.Allowed(models.RoleAgent, "leads", "assign"))
	assert.False(t, resolver.Allowed(models.RoleAgent, "reports", "read"))
	assert.False(t, resolver.Allowed(models.RoleSupervisor, "users", "read"))
}
