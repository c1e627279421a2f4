package sales

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"callcrm-backend/internal/database"
	apperrors "callcrm-backend/internal/errors"
	"callcrm-backend/internal/metrics"
	"callcrm-backend/internal/models"
	"callcrm-backend/pkg/utils"
)

// HandleList returns sales visible to the caller, newest first. Agents only
// see sales they registered.
func HandleList(c *gin.Context) {
	userID := c.GetString("user_id")
	role := c.GetString("role")

	query := database.DB.
		Preload("Lead").
		Preload("Product").
		Preload("Agent").
		Order("sale_date DESC")

	if role == models.RoleAgent {
		query = query.Where("agent_id = ?", userID)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var sales []models.Sale
	if err := query.Find(&sales).Error; err != nil {
		utils.SendErrorResponse(c, http.StatusInternalServerError,
			apperrors.Wrap(err, "STORE_FAILURE", "Failed to fetch sales"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"sales": sales})
}

// HandleCreate registers a pending sale. Commission amounts are computed
// here from the product's current rate and never recomputed; the lead moves
// to venta as a side effect.
func HandleCreate(c *gin.Context) {
	userID := c.GetString("user_id")

	var req struct {
		LeadID           string      `json:"lead_id"`
		ProductID        string      `json:"product_id"`
		SupervisorID     *string     `json:"supervisor_id"`
		PolicyNumber     string      `json:"policy_number"`
		PremiumAmount    float64     `json:"premium_amount"`
		PaymentFrequency string      `json:"payment_frequency"`
		CustomerData     models.JSON `json:"customer_data"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format"})
		return
	}

	if req.LeadID == "" || req.ProductID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}

	if req.PremiumAmount <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "premium_amount must be greater than zero"})
		return
	}

	var product models.Product
	if err := database.DB.First(&product, "id = ?", req.ProductID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		} else {
			utils.SendErrorResponse(c, http.StatusInternalServerError,
				apperrors.Wrap(err, "STORE_FAILURE", "Failed to fetch product"))
		}
		return
	}

	var lead models.Lead
	if err := database.DB.First(&lead, "id = ?", req.LeadID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Lead not found"})
		} else {
			utils.SendErrorResponse(c, http.StatusInternalServerError,
				apperrors.Wrap(err, "STORE_FAILURE", "Failed to fetch lead"))
		}
		return
	}

	agentCommission, supervisorCommission := Commission(req.PremiumAmount, product.BaseCommission)

	frequency := req.PaymentFrequency
	if frequency == "" {
		frequency = "mensual"
	}

	sale := models.Sale{
		LeadID:               req.LeadID,
		ProductID:            req.ProductID,
		AgentID:              userID,
		SupervisorID:         req.SupervisorID,
		PolicyNumber:         req.PolicyNumber,
		PremiumAmount:        req.PremiumAmount,
		PaymentFrequency:     frequency,
		Status:               models.SaleStatusPending,
		AgentCommission:      agentCommission,
		SupervisorCommission: supervisorCommission,
		CustomerData:         req.CustomerData,
		SaleDate:             time.Now(),
	}

	if err := database.DB.Create(&sale).Error; err != nil {
		utils.SendErrorResponse(c, http.StatusInternalServerError,
			apperrors.Wrap(err, "STORE_FAILURE", "Failed to create sale"))
		return
	}

	if err := database.DB.Model(&lead).Update("status", models.LeadStatusVenta).Error; err != nil {
		log.WithError(err).WithField("lead_id", lead.ID).Warn("failed to move lead to venta")
	}

	metrics.SalesCreated.Inc()
	log.WithFields(log.Fields{
		"sale_id":          sale.ID,
		"agent_id":         userID,
		"premium":          sale.PremiumAmount,
		"agent_commission": sale.AgentCommission,
	}).Info("sale registered")

	c.JSON(http.StatusOK, gin.H{"sale": sale})
}

// HandleValidate resolves a pending sale to validated or rejected. Only
// pending sales can be resolved; commissions are left untouched.
func HandleValidate(c *gin.Context) {
	userID := c.GetString("user_id")
	saleID := c.Param("id")

	var req struct {
		Status string `json:"status"`
		Notes  string `json:"notes"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format"})
		return
	}

	if req.Status != models.SaleStatusValidated && req.Status != models.SaleStatusRejected {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be validated or rejected"})
		return
	}

	var sale models.Sale
	if err := database.DB.First(&sale, "id = ?", saleID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Sale not found"})
		} else {
			utils.SendErrorResponse(c, http.StatusInternalServerError,
				apperrors.Wrap(err, "STORE_FAILURE", "Failed to fetch sale"))
		}
		return
	}

	if sale.Status != models.SaleStatusPending {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Sale is not pending"})
		return
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":       req.Status,
		"validated_by": userID,
		"validated_at": now,
	}

	if err := database.DB.Model(&sale).Updates(updates).Error; err != nil {
		utils.SendErrorResponse(c, http.StatusInternalServerError,
			apperrors.Wrap(err, "STORE_FAILURE", "Failed to validate sale"))
		return
	}

	leadStatus := models.LeadStatusVentaValidada
	if req.Status == models.SaleStatusRejected {
		leadStatus = models.LeadStatusPerdido
	}
	if err := database.DB.Model(&models.Lead{}).
		Where("id = ?", sale.LeadID).
		Update("status", leadStatus).Error; err != nil {
		log.WithError(err).WithField("lead_id", sale.LeadID).Warn("failed to update lead after validation")
	}

	metrics.SalesValidated.Inc()
	log.WithFields(log.Fields{
		"sale_id":      sale.ID,
		"status":       req.Status,
		"validated_by": userID,
	}).Info("sale resolved")

	c.JSON(http.StatusOK, gin.H{"sale": sale})
}
