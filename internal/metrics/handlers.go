package metrics

import (
	"net/http"
	"runtime"

	"github.com/gin-gonic/gin"

	"callcrm-backend/internal/database"
	"callcrm-backend/internal/models"
)

// HandleSystemMetrics returns runtime stats and entity counts. Admin-only.
func HandleSystemMetrics(c *gin.Context) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	var users, leads, calls, sales int64
	database.DB.Model(&models.Profile{}).Count(&users)
	database.DB.Model(&models.Lead{}).Count(&leads)
	database.DB.Model(&models.Call{}).Count(&calls)
	database.DB.Model(&models.Sale{}).Count(&sales)

	c.JSON(http.StatusOK, gin.H{
		"runtime": gin.H{
			"goroutines":      runtime.NumGoroutine(),
			"memory_alloc_mb": memStats.Alloc / 1024 / 1024,
			"memory_sys_mb":   memStats.Sys / 1024 / 1024,
			"gc_runs":         memStats.NumGC,
		},
		"entities": gin.H{
			"users": users,
			"leads": leads,
			"calls": calls,
			"sales": sales,
		},
	})
}
