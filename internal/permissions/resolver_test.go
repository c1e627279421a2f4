package permissions

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"callcrm-backend/internal/models"
)

func testResolver() *Resolver {
	return NewResolver([]models.Permission{
		{Role: "admin", Resource: "*", Action: "*", Allowed: true},
		{Role: "supervisor", Resource: "sales", Action: "validate", Allowed: true},
		{Role: "supervisor", Resource: "leads", Action: "*", Allowed: true},
		{Role: "agent", Resource: "leads", Action: "read", Allowed: true},
		{Role: "agent", Resource: "calls", Action: "create", Allowed: false},
	})
}

func TestResolverAdminWildcard(t *testing.T) {
	r := testResolver()

	assert.True(t, r.Allowed("admin", "sales", "validate"))
	assert.True(t, r.Allowed("admin", "anything", "whatsoever"))
}

func TestResolverExactMatch(t *testing.T) {
	r := testResolver()

	assert.True(t, r.Allowed("supervisor", "sales", "validate"))
	assert.True(t, r.Allowed("agent", "leads", "read"))
	assert.False(t, r.Allowed("agent", "leads", "update"))
	assert.False(t, r.Allowed("agent", "sales", "validate"))
}

func TestResolverResourceWildcard(t *testing.T) {
	r := testResolver()

	assert.True(t, r.Allowed("supervisor", "leads", "read"))
	assert.True(t, r.Allowed("supervisor", "leads", "assign"))
	assert.False(t, r.Allowed("supervisor", "campaigns", "create"))
}

func TestResolverDefaultDeny(t *testing.T) {
	r := testResolver()

	assert.False(t, r.Allowed("unknown_role", "leads", "read"))
	assert.False(t, r.Allowed("", "leads", "read"))
}

func TestResolverIgnoresDisallowedRows(t *testing.T) {
	// allowed=false rows must not grant anything
	r := testResolver()
	assert.False(t, r.Allowed("agent", "calls", "create"))
}

func TestPackageAllowedDeniesBeforeInit(t *testing.T) {
	saved := global
	global = nil
	defer func() { global = saved }()

	assert.False(t, Allowed("admin", "leads", "read"))
}
