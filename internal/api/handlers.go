package api

import (
	"io"
	"net/http"

	"pingwatch/internal/configuration"
	"pingwatch/internal/incident"
	"pingwatch/internal/monitor"

	"github.com/gin-gonic/gin"
)

const maxIncidentLimit = 100

type IncidentQueryParams struct {
	Limit int `form:"limit"`
}

type HistoryQueryParams struct {
	URL   string `form:"url"`
	Limit int    `form:"limit"`
}

type StatsResponse struct {
	State       monitor.State    `json:"state"`
	Stats       monitor.RunStats `json:"stats"`
	Incidents   int64            `json:"incidents"`
	SuccessRate float64          `json:"success_rate"`
	Targets     []string         `json:"targets"`
}

func (s *Server) HealthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "pingwatch",
	})
}

func (s *Server) StatsHandler(c *gin.Context) {
	stats := s.source.Stats()

	var targets []string
	for _, t := range s.source.Targets() {
		targets = append(targets, t.URL)
	}

	c.JSON(http.StatusOK, StatsResponse{
		State:       s.source.State(),
		Stats:       stats,
		Incidents:   stats.Incidents(),
		SuccessRate: stats.SuccessRate(),
		Targets:     targets,
	})
}

func (s *Server) IncidentsHandler(c *gin.Context) {
	var queryParams IncidentQueryParams

	if err := c.ShouldBindQuery(&queryParams); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid query parameters", "error": err.Error()})
		return
	}

	if queryParams.Limit <= 0 || queryParams.Limit > maxIncidentLimit {
		queryParams.Limit = maxIncidentLimit
	}

	records := s.source.RecentIncidents(queryParams.Limit)
	if records == nil {
		records = []incident.Record{}
	}

	c.JSON(http.StatusOK, records)
}

func (s *Server) HistoryHandler(c *gin.Context) {
	if s.db == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Probe history is disabled"})
		return
	}

	var queryParams HistoryQueryParams

	if err := c.ShouldBindQuery(&queryParams); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid query parameters", "error": err.Error()})
		return
	}

	if queryParams.URL == "" {
		summary, err := s.db.Summary()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to summarize history", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, summary)
		return
	}

	histories, err := s.db.Recent(queryParams.URL, queryParams.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to retrieve history", "error": err.Error()})
		return
	}

	if len(histories) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "Record not found"})
		return
	}

	c.JSON(http.StatusOK, histories)
}

func (s *Server) UpdateConfigHandler(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Failed to read request body", "error": err.Error()})
		return
	}

	if err := configuration.UpdateConfig(s.configPath, body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Failed to update configuration", "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Configuration updated successfully. Please restart the application to apply changes."})
}
