package reports

import (
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"callcrm-backend/internal/database"
	apperrors "callcrm-backend/internal/errors"
	"callcrm-backend/internal/models"
	"callcrm-backend/pkg/utils"
)

// HandleDailySummary aggregates today's activity since local midnight:
// call counts, sale counts by status, and premium revenue. The numbers are
// floor-wide for every caller; only the list endpoints are role-scoped.
func HandleDailySummary(c *gin.Context) {
	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.Add(24 * time.Hour)

	callWindow := func() *gorm.DB {
		return database.DB.Model(&models.Call{}).
			Where("started_at >= ? AND started_at < ?", dayStart, dayEnd)
	}
	saleWindow := func() *gorm.DB {
		return database.DB.Model(&models.Sale{}).
			Where("sale_date >= ? AND sale_date < ?", dayStart, dayEnd)
	}

	var totalCalls, completedCalls int64
	var totalSales, pendingSales, validatedSales int64
	var totalRevenue float64

	if err := callWindow().Count(&totalCalls).Error; err != nil {
		utils.SendErrorResponse(c, http.StatusInternalServerError,
			apperrors.Wrap(err, "STORE_FAILURE", "Failed to aggregate calls"))
		return
	}
	if err := callWindow().Where("status = ?", "completed").Count(&completedCalls).Error; err != nil {
		utils.SendErrorResponse(c, http.StatusInternalServerError,
			apperrors.Wrap(err, "STORE_FAILURE", "Failed to aggregate calls"))
		return
	}

	if err := saleWindow().Count(&totalSales).Error; err != nil {
		utils.SendErrorResponse(c, http.StatusInternalServerError,
			apperrors.Wrap(err, "STORE_FAILURE", "Failed to aggregate sales"))
		return
	}
	if err := saleWindow().Where("status = ?", models.SaleStatusPending).Count(&pendingSales).Error; err != nil {
		utils.SendErrorResponse(c, http.StatusInternalServerError,
			apperrors.Wrap(err, "STORE_FAILURE", "Failed to aggregate sales"))
		return
	}
	if err := saleWindow().Where("status = ?", models.SaleStatusValidated).Count(&validatedSales).Error; err != nil {
		utils.SendErrorResponse(c, http.StatusInternalServerError,
			apperrors.Wrap(err, "STORE_FAILURE", "Failed to aggregate sales"))
		return
	}
	if err := saleWindow().
		Select("COALESCE(SUM(premium_amount), 0)").
		Scan(&totalRevenue).Error; err != nil {
		utils.SendErrorResponse(c, http.StatusInternalServerError,
			apperrors.Wrap(err, "STORE_FAILURE", "Failed to aggregate revenue"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"summary": gin.H{
			"date":            dayStart.Format("2006-01-02"),
			"total_calls":     totalCalls,
			"completed_calls": completedCalls,
			"total_sales":     totalSales,
			"pending_sales":   pendingSales,
			"validated_sales": validatedSales,
			"total_revenue":   totalRevenue,
		},
	})
}

// HandleAgentPerformance returns per-agent call and sale aggregates across
// every agent. The average duration spans all of an agent's calls, answered
// or not, so unanswered dials drag the average down.
func HandleAgentPerformance(c *gin.Context) {
	var agents []models.Profile
	if err := database.DB.
		Where("role = ?", models.RoleAgent).
		Order("full_name").
		Find(&agents).Error; err != nil {
		utils.SendErrorResponse(c, http.StatusInternalServerError,
			apperrors.Wrap(err, "STORE_FAILURE", "Failed to fetch agents"))
		return
	}

	performance := make([]gin.H, 0, len(agents))
	for _, agent := range agents {
		var totalCalls, completedCalls, totalSales int64
		var totalDuration, totalCommission float64

		if err := database.DB.Model(&models.Call{}).
			Where("agent_id = ?", agent.ID).
			Count(&totalCalls).Error; err != nil {
			utils.SendErrorResponse(c, http.StatusInternalServerError,
				apperrors.Wrap(err, "STORE_FAILURE", "Failed to aggregate agent calls"))
			return
		}
		if err := database.DB.Model(&models.Call{}).
			Where("agent_id = ? AND duration_seconds > 0", agent.ID).
			Count(&completedCalls).Error; err != nil {
			utils.SendErrorResponse(c, http.StatusInternalServerError,
				apperrors.Wrap(err, "STORE_FAILURE", "Failed to aggregate agent calls"))
			return
		}
		if err := database.DB.Model(&models.Call{}).
			Where("agent_id = ?", agent.ID).
			Select("COALESCE(SUM(duration_seconds), 0)").
			Scan(&totalDuration).Error; err != nil {
			utils.SendErrorResponse(c, http.StatusInternalServerError,
				apperrors.Wrap(err, "STORE_FAILURE", "Failed to aggregate agent calls"))
			return
		}
		if err := database.DB.Model(&models.Sale{}).
			Where("agent_id = ?", agent.ID).
			Count(&totalSales).Error; err != nil {
			utils.SendErrorResponse(c, http.StatusInternalServerError,
				apperrors.Wrap(err, "STORE_FAILURE", "Failed to aggregate agent sales"))
			return
		}
		if err := database.DB.Model(&models.Sale{}).
			Where("agent_id = ?", agent.ID).
			Select("COALESCE(SUM(agent_commission), 0)").
			Scan(&totalCommission).Error; err != nil {
			utils.SendErrorResponse(c, http.StatusInternalServerError,
				apperrors.Wrap(err, "STORE_FAILURE", "Failed to aggregate agent sales"))
			return
		}

		avgDuration := 0.0
		if totalCalls > 0 {
			avgDuration = math.Round(totalDuration / float64(totalCalls))
		}

		performance = append(performance, gin.H{
			"agent_id":          agent.ID,
			"full_name":         agent.FullName,
			"email":             agent.Email,
			"total_calls":       totalCalls,
			"completed_calls":   completedCalls,
			"avg_call_duration": avgDuration,
			"total_sales":       totalSales,
			"total_commission":  totalCommission,
		})
	}

	c.JSON(http.StatusOK, gin.H{"performance": performance})
}
