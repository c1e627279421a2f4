package sales

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

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
		&models.Campaign{},
		&models.Product{},
		&models.Lead{},
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
	router.GET("/sales", HandleList)
	router.POST("/sales", HandleCreate)
	router.PUT("/sales/:id/validate", HandleValidate)
	return router
}

func seedProductAndLead(t *testing.T, db *gorm.DB, baseCommission float64) (models.Product, models.Lead) {
	t.Helper()

	campaign := models.Campaign{Name: "Salud Q3", Insurer: "Mapfre", CreatedBy: "boss"}
	require.NoError(t, db.Create(&campaign).Error)

	product := models.Product{
		CampaignID:     campaign.ID,
		Name:           "Salud Plus",
		Type:           "salud",
		BaseCommission: baseCommission,
		IsActive:       true,
	}
	require.NoError(t, db.Create(&product).Error)

	lead := models.Lead{FirstName: "Ana", Phone: "+34600000001", Status: models.LeadStatusInteresado}
	require.NoError(t, db.Create(&lead).Error)

	return product, lead
}

func TestHandleCreateFreezesCommissions(t *testing.T) {
	db := setupTestDB(t)
	product, lead := seedProductAndLead(t, db, 10)
	router := testRouter("agent-1", models.RoleAgent)

	body, _ := json.Marshal(gin.H{
		"lead_id":        lead.ID,
		"product_id":     product.ID,
		"premium_amount": 1200.0,
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/sales", bytes.NewReader(body))
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var sale models.Sale
	require.NoError(t, db.First(&sale).Error)
	assert.Equal(t, models.SaleStatusPending, sale.Status)
	assert.Equal(t, "agent-1", sale.AgentID)
	assert.Equal(t, 120.0, sale.AgentCommission)
	assert.Equal(t, 12.0, sale.SupervisorCommission)

	// later rate changes must not touch the stored amounts
	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", product.ID).
		Update("base_commission", 50).Error)
	require.NoError(t, db.First(&sale, "id = ?", sale.ID).Error)
	assert.Equal(t, 120.0, sale.AgentCommission)

	var updated models.Lead
	require.NoError(t, db.First(&updated, "id = ?", lead.ID).Error)
	assert.Equal(t, models.LeadStatusVenta, updated.Status)
}

func TestHandleCreateRejectsBadPremium(t *testing.T) {
	db := setupTestDB(t)
	product, lead := seedProductAndLead(t, db, 10)
	router := testRouter("agent-1", models.RoleAgent)

	body, _ := json.Marshal(gin.H{
		"lead_id":        lead.ID,
		"product_id":     product.ID,
		"premium_amount": 0,
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/sales", bytes.NewReader(body))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleCreateUnknownProduct(t *testing.T) {
	db := setupTestDB(t)
	_, lead := seedProductAndLead(t, db, 10)
	router := testRouter("agent-1", models.RoleAgent)

	body, _ := json.Marshal(gin.H{
		"lead_id":        lead.ID,
		"product_id":     "missing",
		"premium_amount": 100.0,
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/sales", bytes.NewReader(body))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleValidateTransitions(t *testing.T) {
	db := setupTestDB(t)
	product, lead := seedProductAndLead(t, db, 10)

	sale := models.Sale{
		LeadID:        lead.ID,
		ProductID:     product.ID,
		AgentID:       "agent-1",
		PremiumAmount: 500,
		Status:        models.SaleStatusPending,
	}
	require.NoError(t, db.Create(&sale).Error)

	router := testRouter("supervisor-1", models.RoleSupervisor)

	body, _ := json.Marshal(gin.H{"status": "validated"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/sales/"+sale.ID+"/validate", bytes.NewReader(body))
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var updated models.Sale
	require.NoError(t, db.First(&updated, "id = ?", sale.ID).Error)
	assert.Equal(t, models.SaleStatusValidated, updated.Status)
	require.NotNil(t, updated.ValidatedBy)
	assert.Equal(t, "supervisor-1", *updated.ValidatedBy)
	assert.NotNil(t, updated.ValidatedAt)

	var updatedLead models.Lead
	require.NoError(t, db.First(&updatedLead, "id = ?", lead.ID).Error)
	assert.Equal(t, models.LeadStatusVentaValidada, updatedLead.Status)
}

func TestHandleValidateRejectionMarksLeadLost(t *testing.T) {
	db := setupTestDB(t)
	product, lead := seedProductAndLead(t, db, 10)

	sale := models.Sale{
		LeadID:        lead.ID,
		ProductID:     product.ID,
		AgentID:       "agent-1",
		PremiumAmount: 500,
		Status:        models.SaleStatusPending,
	}
	require.NoError(t, db.Create(&sale).Error)

	router := testRouter("supervisor-1", models.RoleSupervisor)

	body, _ := json.Marshal(gin.H{"status": "rejected"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/sales/"+sale.ID+"/validate", bytes.NewReader(body))
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var updatedLead models.Lead
	require.NoError(t, db.First(&updatedLead, "id = ?", lead.ID).Error)
	assert.Equal(t, models.LeadStatusPerdido, updatedLead.Status)
}

func TestHandleValidateOnlyPending(t *testing.T) {
	db := setupTestDB(t)
	product, lead := seedProductAndLead(t, db, 10)

	sale := models.Sale{
		LeadID:        lead.ID,
		ProductID:     product.ID,
		AgentID:       "agent-1",
		PremiumAmount: 500,
		Status:        models.SaleStatusValidated,
	}
	require.NoError(t, db.Create(&sale).Error)

	router := testRouter("supervisor-1", models.RoleSupervisor)

	body, _ := json.Marshal(gin.H{"status": "rejected"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/sales/"+sale.ID+"/validate", bytes.NewReader(body))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleValidateBadStatus(t *testing.T) {
	setupTestDB(t)
	router := testRouter("supervisor-1", models.RoleSupervisor)

	body, _ := json.Marshal(gin.H{"status": "maybe"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/sales/some-id/validate", bytes.NewReader(body))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleListScopesAgents(t *testing.T) {
	db := setupTestDB(t)
	product, lead := seedProductAndLead(t, db, 10)

	mine := models.Sale{LeadID: lead.ID, ProductID: product.ID, AgentID: "agent-1", PremiumAmount: 100, Status: models.SaleStatusPending}
	other := models.Sale{LeadID: lead.ID, ProductID: product.ID, AgentID: "agent-2", PremiumAmount: 200, Status: models.SaleStatusPending}
	require.NoError(t, db.Create(&mine).Error)
	require.NoError(t, db.Create(&other).Error)

	router := testRouter("agent-1", models.RoleAgent)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/sales", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Sales []models.Sale `json:"sales"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Sales, 1)
	assert.Equal(t, mine.ID, resp.Sales[0].ID)
}
