package reports

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"callcrm-backend/internal/database"
	"callcrm-backend/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Profile{},
		&models.Call{},
		&models.Sale{},
	))

	database.DB = db
	return db
}

func testRouter(userID, role string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Set("role", role)
		c.Next()
	})
	router.GET("/reports/daily-summary", HandleDailySummary)
	router.GET("/reports/agent-performance", HandleAgentPerformance)
	return router
}

type dailySummary struct {
	Date           string  `json:"date"`
	TotalCalls     int64   `json:"total_calls"`
	CompletedCalls int64   `json:"completed_calls"`
	TotalSales     int64   `json:"total_sales"`
	PendingSales   int64   `json:"pending_sales"`
	ValidatedSales int64   `json:"validated_sales"`
	TotalRevenue   float64 `json:"total_revenue"`
}

func getDailySummary(t *testing.T, router *gin.Engine) dailySummary {
	t.Helper()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/reports/daily-summary", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Summary dailySummary `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Summary
}

func TestDailySummaryBreaksDownStatuses(t *testing.T) {
	db := setupTestDB(t)

	now := time.Now()
	yesterday := now.Add(-30 * time.Hour)

	require.NoError(t, db.Create(&models.Call{AgentID: "agent-1", PhoneNumber: "1", Status: "completed", StartedAt: now}).Error)
	require.NoError(t, db.Create(&models.Call{AgentID: "agent-1", PhoneNumber: "2", Status: "no_answer", StartedAt: now}).Error)
	require.NoError(t, db.Create(&models.Call{AgentID: "agent-1", PhoneNumber: "3", Status: "completed", StartedAt: yesterday}).Error)

	require.NoError(t, db.Create(&models.Sale{LeadID: "l1", ProductID: "p1", AgentID: "agent-1", PremiumAmount: 100, Status: models.SaleStatusPending, SaleDate: now}).Error)
	require.NoError(t, db.Create(&models.Sale{LeadID: "l2", ProductID: "p1", AgentID: "agent-1", PremiumAmount: 200, Status: models.SaleStatusValidated, SaleDate: now}).Error)
	require.NoError(t, db.Create(&models.Sale{LeadID: "l3", ProductID: "p1", AgentID: "agent-1", PremiumAmount: 50, Status: models.SaleStatusRejected, SaleDate: now}).Error)
	require.NoError(t, db.Create(&models.Sale{LeadID: "l4", ProductID: "p1", AgentID: "agent-1", PremiumAmount: 999, Status: models.SaleStatusPending, SaleDate: yesterday}).Error)

	summary := getDailySummary(t, testRouter("supervisor-1", models.RoleSupervisor))

	assert.Equal(t, time.Now().Format("2006-01-02"), summary.Date)
	assert.Equal(t, int64(2), summary.TotalCalls)
	assert.Equal(t, int64(1), summary.CompletedCalls)
	assert.Equal(t, int64(3), summary.TotalSales)
	assert.Equal(t, int64(1), summary.PendingSales)
	assert.Equal(t, int64(1), summary.ValidatedSales)
	assert.Equal(t, 350.0, summary.TotalRevenue)
}

func TestDailySummaryIsGlobalForAgents(t *testing.T) {
	db := setupTestDB(t)

	now := time.Now()
	require.NoError(t, db.Create(&models.Sale{LeadID: "l1", ProductID: "p1", AgentID: "agent-1", PremiumAmount: 100, Status: models.SaleStatusPending, SaleDate: now}).Error)
	require.NoError(t, db.Create(&models.Sale{LeadID: "l2", ProductID: "p1", AgentID: "agent-2", PremiumAmount: 500, Status: models.SaleStatusPending, SaleDate: now}).Error)
	require.NoError(t, db.Create(&models.Call{AgentID: "agent-2", PhoneNumber: "1", Status: "completed", StartedAt: now}).Error)

	// the summary is floor-wide; agents see the same numbers as everyone
	summary := getDailySummary(t, testRouter("agent-1", models.RoleAgent))

	assert.Equal(t, int64(1), summary.TotalCalls)
	assert.Equal(t, int64(2), summary.TotalSales)
	assert.Equal(t, 600.0, summary.TotalRevenue)
}

func TestDailySummaryEmptyDay(t *testing.T) {
	setupTestDB(t)

	summary := getDailySummary(t, testRouter("supervisor-1", models.RoleSupervisor))

	assert.Equal(t, int64(0), summary.TotalCalls)
	assert.Equal(t, int64(0), summary.CompletedCalls)
	assert.Equal(t, int64(0), summary.TotalSales)
	assert.Equal(t, int64(0), summary.PendingSales)
	assert.Equal(t, int64(0), summary.ValidatedSales)
	assert.Equal(t, 0.0, summary.TotalRevenue)
}

func TestAgentPerformanceAggregates(t *testing.T) {
	db := setupTestDB(t)

	agent := models.Profile{ID: "agent-1", Email: "ana@example.com", FullName: "Ana", Role: models.RoleAgent, IsActive: true}
	require.NoError(t, db.Create(&agent).Error)
	// supervisors never appear in the report
	boss := models.Profile{ID: "sup-1", Email: "sup@example.com", FullName: "Sup", Role: models.RoleSupervisor, IsActive: true}
	require.NoError(t, db.Create(&boss).Error)

	require.NoError(t, db.Create(&models.Call{AgentID: "agent-1", PhoneNumber: "1", StartedAt: time.Now(), DurationSeconds: 60}).Error)
	require.NoError(t, db.Create(&models.Call{AgentID: "agent-1", PhoneNumber: "2", StartedAt: time.Now(), DurationSeconds: 0}).Error)
	require.NoError(t, db.Create(&models.Sale{LeadID: "l1", ProductID: "p1", AgentID: "agent-1", PremiumAmount: 100, AgentCommission: 10, SaleDate: time.Now()}).Error)
	require.NoError(t, db.Create(&models.Sale{LeadID: "l2", ProductID: "p1", AgentID: "agent-1", PremiumAmount: 200, AgentCommission: 20, SaleDate: time.Now()}).Error)

	router := testRouter("sup-1", models.RoleSupervisor)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/reports/agent-performance", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Performance []struct {
			AgentID         string  `json:"agent_id"`
			TotalCalls      int64   `json:"total_calls"`
			CompletedCalls  int64   `json:"completed_calls"`
			AvgCallDuration float64 `json:"avg_call_duration"`
			TotalSales      int64   `json:"total_sales"`
			TotalCommission float64 `json:"total_commission"`
		} `json:"performance"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Performance, 1)

	row := resp.Performance[0]
	assert.Equal(t, "agent-1", row.AgentID)
	assert.Equal(t, int64(2), row.TotalCalls)
	assert.Equal(t, int64(1), row.CompletedCalls)
	// average spans every call, so the unanswered 0s dial halves it
	assert.Equal(t, 30.0, row.AvgCallDuration)
	assert.Equal(t, int64(2), row.TotalSales)
	assert.Equal(t, 30.0, row.TotalCommission)
}

func TestAgentPerformanceNoCalls(t *testing.T) {
	db := setupTestDB(t)

	agent := models.Profile{ID: "agent-1", Email: "ana@example.com", FullName: "Ana", Role: models.RoleAgent, IsActive: true}
	require.NoError(t, db.Create(&agent).Error)

	router := testRouter("sup-1", models.RoleSupervisor)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/reports/agent-performance", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Performance []struct {
			TotalCalls      int64   `json:"total_calls"`
			AvgCallDuration float64 `json:"avg_call_duration"`
		} `json:"performance"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Performance, 1)
	assert.Equal(t, int64(0), resp.Performance[0].TotalCalls)
	assert.Equal(t, 0.0, resp.Performance[0].AvgCallDuration)
}
