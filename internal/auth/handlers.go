package auth

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"callcrm-backend/internal/database"
	apperrors "callcrm-backend/internal/errors"
	"callcrm-backend/internal/models"
	"callcrm-backend/internal/sessions"
	"callcrm-backend/pkg/utils"
)

var validRoles = map[string]struct{}{
	models.RoleAdmin:      {},
	models.RoleSupervisor: {},
	models.RoleAgent:      {},
}

// HandleSignup creates an identity plus its CRM profile.
func HandleSignup(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		FullName string `json:"full_name"`
		Role     string `json:"role"`
		Phone    string `json:"phone"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format"})
		return
	}

	if req.Email == "" || req.Password == "" || req.FullName == "" || req.Role == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}

	if _, ok := validRoles[req.Role]; !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role"})
		return
	}

	var existing models.Profile
	if err := database.DB.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "User with this email already exists"})
		return
	}

	hashed, err := HashPassword(req.Password)
	if err != nil {
		utils.SendErrorResponse(c, http.StatusInternalServerError,
			apperrors.Wrap(err, "HASH_FAILED", "Failed to create user"))
		return
	}

	profile := models.Profile{
		Email:    req.Email,
		Password: hashed,
		FullName: req.FullName,
		Role:     req.Role,
		Phone:    req.Phone,
		IsActive: true,
	}

	if err := database.DB.Create(&profile).Error; err != nil {
		utils.SendErrorResponse(c, http.StatusInternalServerError,
			apperrors.Wrap(err, "STORE_FAILURE", "Failed to create profile"))
		return
	}

	log.WithFields(log.Fields{"email": profile.Email, "role": profile.Role}).Info("user created")

	c.JSON(http.StatusOK, gin.H{
		"message": "User created successfully",
		"user": gin.H{
			"id":        profile.ID,
			"email":     profile.Email,
			"full_name": profile.FullName,
			"role":      profile.Role,
		},
	})
}

// HandleLogin verifies credentials and issues a bearer token.
func HandleLogin(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format"})
		return
	}

	if req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
		return
	}

	var profile models.Profile
	if err := database.DB.Where("email = ? AND is_active = ?", req.Email, true).First(&profile).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		utils.SendErrorResponse(c, http.StatusInternalServerError,
			apperrors.Wrap(err, "STORE_FAILURE", "Failed to query user"))
		return
	}

	if !CheckPassword(req.Password, profile.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, expiry, err := GenerateToken(profile)
	if err != nil {
		utils.SendErrorResponse(c, http.StatusInternalServerError,
			apperrors.Wrap(err, "TOKEN_FAILED", "Failed to generate token"))
		return
	}

	sessionID := ""
	if sessions.GlobalManager != nil {
		sessionID, err = sessions.GlobalManager.CreateSession(sessions.Data{
			UserID:    profile.ID,
			Email:     profile.Email,
			Role:      profile.Role,
			IPAddress: utils.GetClientIP(c),
			UserAgent: c.GetHeader("User-Agent"),
		})
		if err != nil {
			log.WithError(err).Warn("failed to record login session")
		}
	}

	log.WithFields(log.Fields{"email": profile.Email, "ip": utils.GetClientIP(c)}).Info("login")

	c.JSON(http.StatusOK, gin.H{
		"message":    "Login successful",
		"token":      token,
		"expires_at": expiry.Unix(),
		"session_id": sessionID,
		"user": gin.H{
			"id":        profile.ID,
			"email":     profile.Email,
			"full_name": profile.FullName,
			"role":      profile.Role,
		},
	})
}

// HandleLogout blacklists the presented token.
func HandleLogout(c *gin.Context) {
	tokenString := c.GetString("token")
	userID := c.GetString("user_id")

	expiry := time.Now().Add(24 * time.Hour)
	if v, exists := c.Get("token_expiry"); exists {
		if t, ok := v.(time.Time); ok {
			expiry = t
		}
	}

	BlacklistToken(database.DB, tokenString, userID, expiry)

	if sessions.GlobalManager != nil {
		sessions.GlobalManager.DeleteUserSessions(userID)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// HandleGetProfile returns the caller's own profile.
func HandleGetProfile(c *gin.Context) {
	profile, exists := c.Get("profile")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized access"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}
