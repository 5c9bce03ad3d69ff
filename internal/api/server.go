package api

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"sunclock/config"
	"sunclock/internal/chart"
	"sunclock/internal/log"
	"sunclock/internal/reference"
	"sunclock/internal/solar"
	"sunclock/internal/storage"
	"sunclock/internal/tracker"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
)

//go:embed templates/*.html
var templates embed.FS

type Server struct {
	router      *gin.Engine
	server      *http.Server
	tracker     *tracker.Tracker
	db          *storage.Database
	sources     []reference.Source
	port        int
	refresh     int
	config      *config.Config
	configPath  string
	configMutex sync.RWMutex
}

type ServerConfig struct {
	Port     int
	Tracker  *tracker.Tracker
	Database *storage.Database
	// Sources are the reference implementations offered by /compare.
	Sources    []reference.Source
	Config     *config.Config
	ConfigPath string
}

func NewServer(cfg ServerConfig) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger())

	refresh := 1
	if cfg.Config != nil && cfg.Config.API.RefreshSeconds > 0 {
		refresh = cfg.Config.API.RefreshSeconds
	}
	sources := cfg.Sources
	if sources == nil {
		sources = reference.Offline()
	}

	s := &Server{
		router:     router,
		tracker:    cfg.Tracker,
		db:         cfg.Database,
		sources:    sources,
		port:       cfg.Port,
		refresh:    refresh,
		config:     cfg.Config,
		configPath: cfg.ConfigPath,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	tmpl := template.Must(template.New("").ParseFS(templates, "templates/*.html"))
	s.router.SetHTMLTemplate(tmpl)

	s.router.GET("/", s.dashboardHandler)
	s.router.GET("/dashboard", s.dashboardHandler)
	s.router.HEAD("/", s.dashboardHandler)
	s.router.HEAD("/dashboard", s.dashboardHandler)

	s.router.GET("/health", s.healthHandler)

	api := s.router.Group("/api/v1")
	{
		api.GET("/sun", s.sunHandler)
		api.GET("/sun/times", s.sunTimesHandler)
		api.GET("/chart", s.chartHandler)
		api.GET("/stream", s.streamHandler)
		api.GET("/history", s.historyHandler)
		api.GET("/history/summary", s.historySummaryHandler)
		api.GET("/compare", s.compareHandler)

		api.GET("/config/location", s.getLocationConfigHandler)
		api.PUT("/config/location", s.updateLocationConfigHandler)
	}
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s.router,
	}

	log.Infof("API server starting on port %d", s.port)
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// errorStatus maps calculation failures to HTTP statuses.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, solar.ErrInvalidCoordinates):
		return http.StatusBadRequest
	case errors.Is(err, solar.ErrUndefinedResult):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) current() (*solar.Report, error) {
	return s.tracker.Current()
}

// reportForQuery resolves the optional date query parameter.
func (s *Server) reportForQuery(c *gin.Context) (*solar.Report, bool) {
	dateStr := c.Query("date")
	var (
		report *solar.Report
		err    error
	)
	if dateStr == "" {
		report, err = s.current()
	} else {
		date, perr := time.Parse("2006-01-02", dateStr)
		if perr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date format"})
			return nil, false
		}
		report, err = s.tracker.ReportFor(date)
	}
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return nil, false
	}
	return report, true
}

type dashboardData struct {
	Title   string
	Refresh int
	Site    string
	Report  *solar.Report
	Dial    *chart.Dial
	Error   string
}

func (s *Server) dashboardHandler(c *gin.Context) {
	data := dashboardData{
		Title:   "Sun clock",
		Refresh: s.refresh,
		Site:    s.tracker.Site().Name,
	}

	report, err := s.current()
	if err == nil {
		data.Report = report
		data.Dial, err = chart.Build(report)
	}
	if err != nil {
		data.Error = err.Error()
		c.HTML(errorStatus(err), "dashboard.html", data)
		return
	}

	c.HTML(http.StatusOK, "dashboard.html", data)
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"tracking":  s.tracker.IsRunning(),
		"has_data":  s.tracker.Latest() != nil,
		"storage":   s.db != nil,
		"timestamp": time.Now(),
	})
}

func (s *Server) sunHandler(c *gin.Context) {
	report, err := s.current()
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) sunTimesHandler(c *gin.Context) {
	report, ok := s.reportForQuery(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"date":          report.Date,
		"sunrise":       solar.FormatTime(report.Sunrise),
		"sunset":        solar.FormatTime(report.Sunset),
		"next_sunrise":  solar.FormatTime(report.NextSunrise),
		"sunrise_label": report.SunriseLabel(),
		"day_length":    report.DayLength,
		"zenith":        report.Zenith,
		"utc_offset":    report.UTCOffset,
	})
}

func (s *Server) chartHandler(c *gin.Context) {
	report, err := s.current()
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}
	dial, err := chart.Build(report)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, dial)
}

func (s *Server) requireDatabase(c *gin.Context) bool {
	if s.db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "History storage is disabled"})
		return false
	}
	return true
}

func parseDay(value string) bool {
	_, err := time.Parse("2006-01-02", value)
	return err == nil
}

func (s *Server) historyHandler(c *gin.Context) {
	if !s.requireDatabase(c) {
		return
	}

	fromStr := c.Query("from")
	toStr := c.Query("to")
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit <= 0 || limit > 1000 {
		limit = 100
	}

	if fromStr != "" && toStr != "" {
		if !parseDay(fromStr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'from' date format"})
			return
		}
		if !parseDay(toStr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'to' date format"})
			return
		}

		records, err := s.db.GetRecordsByRange(fromStr, toStr)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, records)
		return
	}

	records, err := s.db.GetRecordsWithLimit(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, records)
}

func (s *Server) historySummaryHandler(c *gin.Context) {
	if !s.requireDatabase(c) {
		return
	}

	now := time.Now()
	fromStr := c.DefaultQuery("from", now.AddDate(0, 0, -30).Format("2006-01-02"))
	toStr := c.DefaultQuery("to", now.Format("2006-01-02"))
	if !parseDay(fromStr) || !parseDay(toStr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date format"})
		return
	}

	summary, err := s.db.GetSummary(fromStr, toStr)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) compareHandler(c *gin.Context) {
	report, ok := s.reportForQuery(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	results, err := reference.Compare(ctx, report, s.sources)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"date":        report.Date,
		"sunrise":     solar.FormatTime(report.Sunrise),
		"sunset":      solar.FormatTime(report.Sunset),
		"comparisons": results,
	})
}

// LocationConfigResponse is the site the tracker follows.
type LocationConfigResponse struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	UTCOffset string  `json:"utc_offset"`
	Zenith    string  `json:"zenith"`
	Lookahead bool    `json:"lookahead"`
}

type LocationConfigRequest struct {
	Name      string   `json:"name"`
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
	// UTCOffset is "auto" or hours; empty keeps the current setting.
	UTCOffset string `json:"utc_offset"`
	Zenith    string `json:"zenith"`
	Lookahead *bool  `json:"lookahead"`
}

func (s *Server) requireConfig(c *gin.Context) bool {
	if s.config == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Configuration is not available"})
		return false
	}
	return true
}

func (s *Server) getLocationConfigHandler(c *gin.Context) {
	if !s.requireConfig(c) {
		return
	}

	s.configMutex.RLock()
	defer s.configMutex.RUnlock()

	c.JSON(http.StatusOK, LocationConfigResponse{
		Name:      s.config.Location.Name,
		Latitude:  s.config.Location.Latitude,
		Longitude: s.config.Location.Longitude,
		UTCOffset: s.config.Location.UTCOffset,
		Zenith:    s.config.Solar.Zenith,
		Lookahead: s.config.Solar.Lookahead,
	})
}

func (s *Server) updateLocationConfigHandler(c *gin.Context) {
	if !s.requireConfig(c) {
		return
	}

	var req LocationConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.configMutex.RLock()
	location := s.config.Location
	solarCfg := s.config.Solar
	s.configMutex.RUnlock()

	location.Latitude = *req.Latitude
	location.Longitude = *req.Longitude
	if strings.TrimSpace(req.Name) != "" {
		location.Name = req.Name
	}
	if strings.TrimSpace(req.UTCOffset) != "" {
		location.UTCOffset = req.UTCOffset
	}
	if strings.TrimSpace(req.Zenith) != "" {
		solarCfg.Zenith = req.Zenith
	}
	if req.Lookahead != nil {
		solarCfg.Lookahead = *req.Lookahead
	}

	site, err := tracker.SiteFromConfig(location, solarCfg)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := s.tracker.UpdateSite(site)
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}

	s.configMutex.Lock()
	s.config.Location = location
	s.config.Solar = solarCfg
	s.configMutex.Unlock()

	if err := s.saveConfigToFile(); err != nil {
		log.Warnf("Failed to save config to file: %v", err)
		c.JSON(http.StatusOK, gin.H{
			"message": "Location applied but not persisted to file",
			"warning": err.Error(),
			"report":  report,
		})
		return
	}

	log.Infof("Location updated: %.4f, %.4f", location.Latitude, location.Longitude)

	c.JSON(http.StatusOK, gin.H{
		"message": "Location updated successfully",
		"report":  report,
	})
}

func (s *Server) saveConfigToFile() error {
	s.configMutex.RLock()
	defer s.configMutex.RUnlock()

	configPath := s.configPath
	if configPath == "" {
		configPath = "config.yaml"
	}

	viper.SetConfigFile(configPath)

	viper.Set("location.name", s.config.Location.Name)
	viper.Set("location.latitude", s.config.Location.Latitude)
	viper.Set("location.longitude", s.config.Location.Longitude)
	viper.Set("location.utc_offset", s.config.Location.UTCOffset)
	viper.Set("solar.zenith", s.config.Solar.Zenith)
	viper.Set("solar.lookahead", s.config.Solar.Lookahead)

	return viper.WriteConfig()
}
