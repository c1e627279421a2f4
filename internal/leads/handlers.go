package leads

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"callcrm-backend/internal/database"
	apperrors "callcrm-backend/internal/errors"
	"callcrm-backend/internal/models"
	"callcrm-backend/pkg/utils"
)

// HandleList returns leads visible to the caller. Agents only see leads
// assigned to them; the filter is applied in the query, not post-filtered.
func HandleList(c *gin.Context) {
	userID := c.GetString("user_id")
	role := c.GetString("role")

	query := database.DB.
		Preload("Campaign").
		Preload("Agent").
		Preload("Supervisor").
		Order("created_at DESC")

	if role == models.RoleAgent {
		query = query.Where("assigned_agent = ?", userID)
	}

	var leads []models.Lead
	if err := query.Find(&leads).Error; err != nil {
		utils.SendErrorResponse(c, http.StatusInternalServerError,
			apperrors.Wrap(err, "STORE_FAILURE", "Failed to fetch leads"))
		return
	}

	list := make([]gin.H, 0, len(leads))
	for i := range leads {
		list = append(list, leadResponse(&leads[i]))
	}

	c.JSON(http.StatusOK, gin.H{"leads": list})
}

// HandleCreate creates a lead and appends the "created" audit row.
func HandleCreate(c *gin.Context) {
	userID := c.GetString("user_id")

	var req struct {
		CampaignID         *string    `json:"campaign_id"`
		AssignedAgent      *string    `json:"assigned_agent"`
		AssignedSupervisor *string    `json:"assigned_supervisor"`
		FirstName          string     `json:"first_name"`
		LastName           string     `json:"last_name"`
		Phone              string     `json:"phone"`
		Email              string     `json:"email"`
		DNI                string     `json:"dni"`
		Priority           string     `json:"priority"`
		Source             string     `json:"source"`
		NextFollowUp       *time.Time `json:"next_follow_up"`
		Notes              string     `json:"notes"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format"})
		return
	}

	if req.FirstName == "" || req.Phone == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}

	priority := req.Priority
	if priority == "" {
		priority = "normal"
	}

	lead := models.Lead{
		CampaignID:         req.CampaignID,
		AssignedAgent:      req.AssignedAgent,
		AssignedSupervisor: req.AssignedSupervisor,
		FirstName:          req.FirstName,
		LastName:           req.LastName,
		Phone:              req.Phone,
		Email:              req.Email,
		DNI:                req.DNI,
		Status:             models.LeadStatusNuevo,
		Priority:           priority,
		Source:             req.Source,
		NextFollowUp:       req.NextFollowUp,
		Notes:              req.Notes,
	}

	if err := database.DB.Create(&lead).Error; err != nil {
		utils.SendErrorResponse(c, http.StatusInternalServerError,
			apperrors.Wrap(err, "STORE_FAILURE", "Failed to create lead"))
		return
	}

	appendHistory(lead.ID, userID, "created", "", "Lead created")

	c.JSON(http.StatusOK, gin.H{"lead": lead})
}

// HandleUpdate applies a partial update to a lead.
func HandleUpdate(c *gin.Context) {
	leadID := c.Param("id")

	var req struct {
		CampaignID      *string    `json:"campaign_id"`
		FirstName       *string    `json:"first_name"`
		LastName        *string    `json:"last_name"`
		Phone           *string    `json:"phone"`
		Email           *string    `json:"email"`
		DNI             *string    `json:"dni"`
		Status          *string    `json:"status"`
		Priority        *string    `json:"priority"`
		Source          *string    `json:"source"`
		NextFollowUp    *time.Time `json:"next_follow_up"`
		LastContactDate *time.Time `json:"last_contact_date"`
		Notes           *string    `json:"notes"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format"})
		return
	}

	var lead models.Lead
	if err := database.DB.First(&lead, "id = ?", leadID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Lead not found"})
		} else {
			utils.SendErrorResponse(c, http.StatusInternalServerError,
				apperrors.Wrap(err, "STORE_FAILURE", "Failed to fetch lead"))
		}
		return
	}

	updates := map[string]interface{}{}
	if req.CampaignID != nil {
		updates["campaign_id"] = *req.CampaignID
	}
	if req.FirstName != nil {
		updates["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		updates["last_name"] = *req.LastName
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.DNI != nil {
		updates["dni"] = *req.DNI
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}
	if req.Priority != nil {
		updates["priority"] = *req.Priority
	}
	if req.Source != nil {
		updates["source"] = *req.Source
	}
	if req.NextFollowUp != nil {
		updates["next_follow_up"] = *req.NextFollowUp
	}
	if req.LastContactDate != nil {
		updates["last_contact_date"] = *req.LastContactDate
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}

	if len(updates) > 0 {
		if err := database.DB.Model(&lead).Updates(updates).Error; err != nil {
			utils.SendErrorResponse(c, http.StatusInternalServerError,
				apperrors.Wrap(err, "STORE_FAILURE", "Failed to update lead"))
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"lead": lead})
}

// HandleAssign assigns an agent and supervisor to a lead.
func HandleAssign(c *gin.Context) {
	userID := c.GetString("user_id")
	leadID := c.Param("id")

	var req struct {
		AgentID      string `json:"agent_id"`
		SupervisorID string `json:"supervisor_id"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format"})
		return
	}

	if req.AgentID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}

	var lead models.Lead
	if err := database.DB.First(&lead, "id = ?", leadID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Lead not found"})
		} else {
			utils.SendErrorResponse(c, http.StatusInternalServerError,
				apperrors.Wrap(err, "STORE_FAILURE", "Failed to fetch lead"))
		}
		return
	}

	previousAgent := ""
	if lead.AssignedAgent != nil {
		previousAgent = *lead.AssignedAgent
	}

	updates := map[string]interface{}{"assigned_agent": req.AgentID}
	if req.SupervisorID != "" {
		updates["assigned_supervisor"] = req.SupervisorID
	}

	if err := database.DB.Model(&lead).Updates(updates).Error; err != nil {
		utils.SendErrorResponse(c, http.StatusInternalServerError,
			apperrors.Wrap(err, "STORE_FAILURE", "Failed to assign lead"))
		return
	}

	appendHistory(lead.ID, userID, "assigned", previousAgent, "Assigned to agent: "+req.AgentID)

	c.JSON(http.StatusOK, gin.H{"lead": lead})
}

// HandleHistory returns a lead's audit trail, newest first.
func HandleHistory(c *gin.Context) {
	leadID := c.Param("id")

	var history []models.LeadHistory
	if err := database.DB.
		Preload("User").
		Where("lead_id = ?", leadID).
		Order("created_at DESC").
		Find(&history).Error; err != nil {
		utils.SendErrorResponse(c, http.StatusInternalServerError,
			apperrors.Wrap(err, "STORE_FAILURE", "Failed to fetch history"))
		return
	}

	list := make([]gin.H, 0, len(history))
	for _, entry := range history {
		item := gin.H{
			"id":         entry.ID,
			"lead_id":    entry.LeadID,
			"user_id":    entry.UserID,
			"action":     entry.Action,
			"old_value":  entry.OldValue,
			"new_value":  entry.NewValue,
			"created_at": entry.CreatedAt,
		}
		if entry.User != nil {
			item["user"] = gin.H{"full_name": entry.User.FullName, "email": entry.User.Email}
		}
		list = append(list, item)
	}

	c.JSON(http.StatusOK, gin.H{"history": list})
}

// appendHistory writes an audit row. The trail is best-effort: a failed
// history insert never fails the primary operation.
func appendHistory(leadID, userID, action, oldValue, newValue string) {
	entry := models.LeadHistory{
		LeadID:   leadID,
		UserID:   &userID,
		Action:   action,
		OldValue: oldValue,
		NewValue: newValue,
	}
	if err := database.DB.Create(&entry).Error; err != nil {
		log.WithError(err).WithField("lead_id", leadID).Warn("failed to append lead history")
	}
}

func leadResponse(lead *models.Lead) gin.H {
	resp := gin.H{
		"id":                  lead.ID,
		"campaign_id":         lead.CampaignID,
		"assigned_agent":      lead.AssignedAgent,
		"assigned_supervisor": lead.AssignedSupervisor,
		"first_name":          lead.FirstName,
		"last_name":           lead.LastName,
		"phone":               lead.Phone,
		"email":               lead.Email,
		"dni":                 lead.DNI,
		"status":              lead.Status,
		"priority":            lead.Priority,
		"source":              lead.Source,
		"last_contact_date":   lead.LastContactDate,
		"next_follow_up":      lead.NextFollowUp,
		"notes":               lead.Notes,
		"created_at":          lead.CreatedAt,
		"updated_at":          lead.UpdatedAt,
	}
	if lead.Campaign != nil {
		resp["campaign"] = gin.H{"name": lead.Campaign.Name, "insurer": lead.Campaign.Insurer}
	}
	if lead.Agent != nil {
		resp["agent"] = gin.H{"full_name": lead.Agent.FullName, "email": lead.Agent.Email}
	}
	if lead.Supervisor != nil {
		resp["supervisor"] = gin.H{"full_name": lead.Supervisor.FullName, "email": lead.Supervisor.Email}
	}
	return resp
}
