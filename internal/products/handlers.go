package products

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"callcrm-backend/internal/database"
	apperrors "callcrm-backend/internal/errors"
	"callcrm-backend/internal/models"
	"callcrm-backend/pkg/utils"
)

// HandleList returns active products, optionally scoped to one campaign via
// the campaign_id query parameter.
func HandleList(c *gin.Context) {
	query := database.DB.
		Preload("Campaign").
		Where("is_active = ?", true).
		Order("created_at DESC")
	if campaignID := c.Query("campaign_id"); campaignID != "" {
		query = query.Where("campaign_id = ?", campaignID)
	}

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		utils.SendErrorResponse(c, http.StatusInternalServerError,
			apperrors.Wrap(err, "STORE_FAILURE", "Failed to fetch products"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"products": products})
}

// HandleCreate creates a product under an existing campaign.
func HandleCreate(c *gin.Context) {
	var req struct {
		CampaignID       string      `json:"campaign_id"`
		Name             string      `json:"name"`
		Type             string      `json:"type"`
		Description      string      `json:"description"`
		BaseCommission   float64     `json:"base_commission"`
		CustomFormFields models.JSON `json:"custom_form_fields"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format"})
		return
	}

	if req.CampaignID == "" || req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}

	if req.BaseCommission < 0 || req.BaseCommission > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "base_commission must be between 0 and 100"})
		return
	}

	var campaign models.Campaign
	if err := database.DB.First(&campaign, "id = ?", req.CampaignID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Campaign not found"})
		} else {
			utils.SendErrorResponse(c, http.StatusInternalServerError,
				apperrors.Wrap(err, "STORE_FAILURE", "Failed to fetch campaign"))
		}
		return
	}

	product := models.Product{
		CampaignID:       req.CampaignID,
		Name:             req.Name,
		Type:             req.Type,
		Description:      req.Description,
		BaseCommission:   req.BaseCommission,
		CustomFormFields: req.CustomFormFields,
		IsActive:         true,
	}

	if err := database.DB.Create(&product).Error; err != nil {
		utils.SendErrorResponse(c, http.StatusInternalServerError,
			apperrors.Wrap(err, "STORE_FAILURE", "Failed to create product"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"product": product})
}
