package calls

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

// HandleList returns calls visible to the caller, newest first. Agents only
// see their own calls.
func HandleList(c *gin.Context) {
	userID := c.GetString("user_id")
	role := c.GetString("role")

	query := database.DB.
		Preload("Lead").
		Preload("Agent").
		Order("started_at DESC").
		Limit(100)

	if role == models.RoleAgent {
		query = query.Where("agent_id = ?", userID)
	}
	if leadID := c.Query("lead_id"); leadID != "" {
		query = query.Where("lead_id = ?", leadID)
	}

	var calls []models.Call
	if err := query.Find(&calls).Error; err != nil {
		utils.SendErrorResponse(c, http.StatusInternalServerError,
			apperrors.Wrap(err, "STORE_FAILURE", "Failed to fetch calls"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"calls": calls})
}

// HandleCreate opens a call record in the ringing state. The caller is
// always the acting agent; client-supplied agent ids are ignored.
func HandleCreate(c *gin.Context) {
	userID := c.GetString("user_id")

	var req struct {
		LeadID      *string `json:"lead_id"`
		PhoneNumber string  `json:"phone_number"`
		Direction   string  `json:"direction"`
		SIPCallID   string  `json:"sip_call_id"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format"})
		return
	}

	if req.PhoneNumber == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}

	direction := req.Direction
	if direction == "" {
		direction = "outbound"
	}

	call := models.Call{
		LeadID:      req.LeadID,
		AgentID:     userID,
		PhoneNumber: req.PhoneNumber,
		Direction:   direction,
		Status:      "ringing",
		StartedAt:   time.Now(),
		SIPCallID:   req.SIPCallID,
	}

	if err := database.DB.Create(&call).Error; err != nil {
		utils.SendErrorResponse(c, http.StatusInternalServerError,
			apperrors.Wrap(err, "STORE_FAILURE", "Failed to create call"))
		return
	}

	if call.LeadID != nil {
		if err := database.DB.Model(&models.Lead{}).
			Where("id = ?", *call.LeadID).
			Update("last_contact_date", time.Now()).Error; err != nil {
			log.WithError(err).WithField("lead_id", *call.LeadID).Warn("failed to stamp lead contact date")
		}
	}

	metrics.CallsStarted.Inc()

	c.JSON(http.StatusOK, gin.H{"call": call})
}

// HandleEnd closes a call and computes its durations. Ending an already
// ended call is rejected; the close is terminal.
func HandleEnd(c *gin.Context) {
	callID := c.Param("id")

	var req struct {
		Status       string     `json:"status"`
		AnsweredAt   *time.Time `json:"answered_at"`
		Outcome      string     `json:"outcome"`
		Notes        string     `json:"notes"`
		RecordingURL string     `json:"recording_url"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format"})
		return
	}

	var call models.Call
	if err := database.DB.First(&call, "id = ?", callID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Call not found"})
		} else {
			utils.SendErrorResponse(c, http.StatusInternalServerError,
				apperrors.Wrap(err, "STORE_FAILURE", "Failed to fetch call"))
		}
		return
	}

	if call.EndedAt != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Call already ended"})
		return
	}

	ended := time.Now()
	answered := call.AnsweredAt
	if req.AnsweredAt != nil {
		answered = req.AnsweredAt
	}

	duration := int(ended.Sub(call.StartedAt).Seconds())
	talkTime := 0
	if answered != nil {
		talkTime = int(ended.Sub(*answered).Seconds())
		if talkTime < 0 {
			talkTime = 0
		}
	}

	status := req.Status
	if status == "" {
		status = "completed"
	}

	updates := map[string]interface{}{
		"status":            status,
		"ended_at":          ended,
		"duration_seconds":  duration,
		"talk_time_seconds": talkTime,
	}
	if answered != nil {
		updates["answered_at"] = *answered
	}
	if req.Outcome != "" {
		updates["outcome"] = req.Outcome
	}
	if req.Notes != "" {
		updates["notes"] = req.Notes
	}
	if req.RecordingURL != "" {
		updates["recording_url"] = req.RecordingURL
	}

	if err := database.DB.Model(&call).Updates(updates).Error; err != nil {
		utils.SendErrorResponse(c, http.StatusInternalServerError,
			apperrors.Wrap(err, "STORE_FAILURE", "Failed to update call"))
		return
	}

	metrics.CallsCompleted.Inc()

	c.JSON(http.StatusOK, gin.H{"call": call})
}
