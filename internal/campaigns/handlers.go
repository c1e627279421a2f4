package campaigns

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"callcrm-backend/internal/database"
	apperrors "callcrm-backend/internal/errors"
	"callcrm-backend/internal/models"
	"callcrm-backend/pkg/utils"
)

// HandleList returns all campaigns with their products and creator.
func HandleList(c *gin.Context) {
	var campaigns []models.Campaign
	if err := database.DB.
		Preload("Products").
		Preload("Creator").
		Order("created_at DESC").
		Find(&campaigns).Error; err != nil {
		utils.SendErrorResponse(c, http.StatusInternalServerError,
			apperrors.Wrap(err, "STORE_FAILURE", "Failed to fetch campaigns"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"campaigns": campaigns})
}

// HandleCreate creates a campaign owned by the caller.
func HandleCreate(c *gin.Context) {
	userID := c.GetString("user_id")

	var req struct {
		Name        string     `json:"name"`
		Description string     `json:"description"`
		Insurer     string     `json:"insurer"`
		StartDate   *time.Time `json:"start_date"`
		EndDate     *time.Time `json:"end_date"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format"})
		return
	}

	if req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}

	campaign := models.Campaign{
		Name:        req.Name,
		Description: req.Description,
		Insurer:     req.Insurer,
		Status:      "active",
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		CreatedBy:   userID,
	}

	if err := database.DB.Create(&campaign).Error; err != nil {
		utils.SendErrorResponse(c, http.StatusInternalServerError,
			apperrors.Wrap(err, "STORE_FAILURE", "Failed to create campaign"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"campaign": campaign})
}

// HandleUpdate applies a partial update. Campaigns are never deleted;
// retiring one is a status change to paused or completed.
func HandleUpdate(c *gin.Context) {
	campaignID := c.Param("id")

	var req struct {
		Name        *string    `json:"name"`
		Description *string    `json:"description"`
		Insurer     *string    `json:"insurer"`
		Status      *string    `json:"status"`
		StartDate   *time.Time `json:"start_date"`
		EndDate     *time.Time `json:"end_date"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format"})
		return
	}

	var campaign models.Campaign
	if err := database.DB.First(&campaign, "id = ?", campaignID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Campaign not found"})
		} else {
			utils.SendErrorResponse(c, http.StatusInternalServerError,
				apperrors.Wrap(err, "STORE_FAILURE", "Failed to fetch campaign"))
		}
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Insurer != nil {
		updates["insurer"] = *req.Insurer
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}
	if req.StartDate != nil {
		updates["start_date"] = *req.StartDate
	}
	if req.EndDate != nil {
		updates["end_date"] = *req.EndDate
	}

	if len(updates) > 0 {
		if err := database.DB.Model(&campaign).Updates(updates).Error; err != nil {
			utils.SendErrorResponse(c, http.StatusInternalServerError,
				apperrors.Wrap(err, "STORE_FAILURE", "Failed to update campaign"))
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"campaign": campaign})
}
