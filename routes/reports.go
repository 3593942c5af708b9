package routes

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"document-rag-platform/middleware"
	"document-rag-platform/services"
	"document-rag-platform/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// SetupReportRoutes registers curator-only Excel report downloads.
func SetupReportRoutes(router *gin.Engine, export *services.ExportService, authMiddleware *middleware.AuthMiddleware) {
	reports := router.Group("/reports")
	reports.Use(authMiddleware.RequireAuth())

	reports.GET("/ingestion.xlsx", func(c *gin.Context) {
		data, err := export.IngestionReport(c.Request.Context())
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to build ingestion report", nil)
			return
		}

		filename := fmt.Sprintf("ingestion_%s.xlsx", time.Now().UTC().Format("20060102_150405"))
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		c.Data(200, xlsxContentType, data)
	})

	reports.GET("/chat.xlsx", func(c *gin.Context) {
		var from, to time.Time
		if v := c.Query("from"); v != "" {
			parsed, err := time.Parse("2006-01-02", v)
			if err != nil {
				utils.RespondWithBadRequest(c, "from must be YYYY-MM-DD", nil)
				return
			}
			from = parsed
		}
		if v := c.Query("to"); v != "" {
			parsed, err := time.Parse("2006-01-02", v)
			if err != nil {
				utils.RespondWithBadRequest(c, "to must be YYYY-MM-DD", nil)
				return
			}
			to = parsed.Add(24*time.Hour - time.Nanosecond)
		}

		data, err := export.ChatReport(c.Request.Context(), from, to)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to build chat report", nil)
			return
		}

		filename := fmt.Sprintf("chat_%s.xlsx", time.Now().UTC().Format("20060102_150405"))
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		c.Data(200, xlsxContentType, data)
	})
}
