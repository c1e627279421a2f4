package users

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"callcrm-backend/internal/database"
	apperrors "callcrm-backend/internal/errors"
	"callcrm-backend/internal/models"
	"callcrm-backend/pkg/utils"
)

// HandleList returns all user profiles. Admin-only via the permission table.
func HandleList(c *gin.Context) {
	var profiles []models.Profile
	if err := database.DB.Order("created_at DESC").Find(&profiles).Error; err != nil {
		utils.SendErrorResponse(c, http.StatusInternalServerError,
			apperrors.Wrap(err, "STORE_FAILURE", "Failed to fetch users"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": profiles})
}

// HandleUpdate modifies a user's profile. Password changes go through the
// auth endpoints, never here.
func HandleUpdate(c *gin.Context) {
	profileID := c.Param("id")

	var req struct {
		FullName  *string `json:"full_name"`
		Role      *string `json:"role"`
		Phone     *string `json:"phone"`
		AvatarURL *string `json:"avatar_url"`
		IsActive  *bool   `json:"is_active"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format"})
		return
	}

	if req.Role != nil {
		switch *req.Role {
		case models.RoleAdmin, models.RoleSupervisor, models.RoleAgent:
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role"})
			return
		}
	}

	var profile models.Profile
	if err := database.DB.First(&profile, "id = ?", profileID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		} else {
			utils.SendErrorResponse(c, http.StatusInternalServerError,
				apperrors.Wrap(err, "STORE_FAILURE", "Failed to fetch user"))
		}
		return
	}

	updates := map[string]interface{}{}
	if req.FullName != nil {
		updates["full_name"] = *req.FullName
	}
	if req.Role != nil {
		updates["role"] = *req.Role
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.AvatarURL != nil {
		updates["avatar_url"] = *req.AvatarURL
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) > 0 {
		if err := database.DB.Model(&profile).Updates(updates).Error; err != nil {
			utils.SendErrorResponse(c, http.StatusInternalServerError,
				apperrors.Wrap(err, "STORE_FAILURE", "Failed to update user"))
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"user": profile})
}
