package main

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/eshaffer321/travel-backoffice/internal/domain/audit"
	"github.com/eshaffer321/travel-backoffice/internal/infrastructure/config"
	"github.com/eshaffer321/travel-backoffice/internal/infrastructure/logging"
	"github.com/eshaffer321/travel-backoffice/internal/infrastructure/storage"
)

// APIServer serves the read-only dashboard. It reads what the back office
// last stored and never re-runs the audit.
type APIServer struct {
	storage storage.Repository
	logger  *slog.Logger
}

func NewAPIServer(repo storage.Repository, logger *slog.Logger) *APIServer {
	return &APIServer{
		storage: repo,
		logger:  logger,
	}
}

// StatsResponse is the dashboard headline
type StatsResponse struct {
	audit.Summary
	LastReconciliation *RunSummary `json:"last_reconciliation,omitempty"`
}

// RunSummary is a reconciliation run without its records
type RunSummary struct {
	ID                   string  `json:"id"`
	CreatedAt            string  `json:"created_at"`
	Matched              int     `json:"matched"`
	PartialMatch         int     `json:"partial_match"`
	MissingInCompany     int     `json:"missing_in_company"`
	MissingInSupplier    int     `json:"missing_in_supplier"`
	TotalPriceDifference float64 `json:"total_price_difference"`
}

// ReportRow is one line of the reports table
type ReportRow struct {
	ID              string  `json:"id"`
	FileName        string  `json:"file_name"`
	FlightDate      string  `json:"flight_date"`
	Route           string  `json:"route"`
	PaxCount        int     `json:"pax_count"`
	TotalRevenue    float64 `json:"total_revenue"`
	TotalDiscount   float64 `json:"total_discount"`
	ManualDiscount  float64 `json:"manual_discount"`
	FilteredRevenue float64 `json:"filtered_revenue"`
	IssueCount      int     `json:"issue_count"`
}

// ReportDetail is a stored report plus the breakdown of its manual discount
type ReportDetail struct {
	*audit.FlightReport
	DiscountLines []DiscountLine `json:"discount_lines,omitempty"`
}

// DiscountLine is one row of a manual discount breakdown. Fixed discounts
// have a single line without count or rate.
type DiscountLine struct {
	Label  string  `json:"label"`
	Count  int     `json:"count,omitempty"`
	Rate   float64 `json:"rate,omitempty"`
	Amount float64 `json:"amount"`
}

func discountLines(r audit.FlightReport) []DiscountLine {
	if r.ManualDiscount == nil {
		return nil
	}
	if value, ok := r.ManualDiscount.Fixed(); ok {
		return []DiscountLine{{Label: string(audit.DiscountFixed), Amount: value}}
	}
	rates, ok := r.ManualDiscount.Rates()
	if !ok {
		return nil
	}

	counts := audit.CountPassengers(r.Passengers)
	var lines []DiscountLine
	add := func(t audit.PassengerType, n int, rate float64) {
		if n == 0 || rate == 0 {
			return
		}
		amount := decimal.NewFromFloat(rate).Mul(decimal.NewFromInt(int64(n)))
		lines = append(lines, DiscountLine{Label: string(t), Count: n, Rate: rate, Amount: amount.InexactFloat64()})
	}
	add(audit.PassengerAdult, counts.Adult, rates.Adult)
	add(audit.PassengerChild, counts.Child, rates.Child)
	add(audit.PassengerInfant, counts.Infant, rates.Infant)
	return lines
}

func toRunSummary(run storage.ReconciliationRun) RunSummary {
	return RunSummary{
		ID:                   run.ID,
		CreatedAt:            run.CreatedAt.UTC().Format(time.RFC3339),
		Matched:              run.Summary.Matched,
		PartialMatch:         run.Summary.PartialMatch,
		MissingInCompany:     run.Summary.MissingInCompany,
		MissingInSupplier:    run.Summary.MissingInSupplier,
		TotalPriceDifference: run.Summary.TotalPriceDifference,
	}
}

func (s *APIServer) getStats(c *gin.Context) {
	reports, err := s.storage.ListReports(c.Request.Context())
	if err != nil {
		s.logger.Error("Failed to list reports", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch stats"})
		return
	}

	response := StatsResponse{Summary: audit.Summarize(reports)}

	runs, err := s.storage.ListReconciliationRuns(c.Request.Context(), 1)
	if err == nil && len(runs) > 0 {
		last := toRunSummary(runs[0])
		response.LastReconciliation = &last
	}

	c.JSON(http.StatusOK, response)
}

func (s *APIServer) getReports(c *gin.Context) {
	reports, err := s.storage.ListReports(c.Request.Context())
	if err != nil {
		s.logger.Error("Failed to list reports", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch reports"})
		return
	}

	route := strings.ToUpper(strings.TrimSpace(c.Query("route")))
	issuesOnly := c.Query("issues") == "true"

	rows := make([]ReportRow, 0, len(reports))
	for _, r := range reports {
		if route != "" && !strings.Contains(strings.ToUpper(r.Route), route) {
			continue
		}
		if issuesOnly && len(r.Issues) == 0 {
			continue
		}
		rows = append(rows, ReportRow{
			ID:              r.ID,
			FileName:        r.FileName,
			FlightDate:      r.FlightDate,
			Route:           r.Route,
			PaxCount:        r.PaxCount,
			TotalRevenue:    r.TotalRevenue,
			TotalDiscount:   r.TotalDiscount,
			ManualDiscount:  r.ManualDiscountValue,
			FilteredRevenue: r.FilteredRevenue,
			IssueCount:      len(r.Issues),
		})
	}

	c.JSON(http.StatusOK, gin.H{"reports": rows, "count": len(rows)})
}

func (s *APIServer) getReportDetail(c *gin.Context) {
	report, err := s.storage.GetReport(c.Request.Context(), c.Param("reportId"))
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Report not found"})
		return
	}
	if err != nil {
		s.logger.Error("Failed to get report", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch report"})
		return
	}

	c.JSON(http.StatusOK, ReportDetail{FlightReport: report, DiscountLines: discountLines(*report)})
}

func (s *APIServer) getRuns(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit <= 0 {
		limit = 10
	}

	runs, err := s.storage.ListReconciliationRuns(c.Request.Context(), limit)
	if err != nil {
		s.logger.Error("Failed to list runs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch runs"})
		return
	}

	out := make([]RunSummary, 0, len(runs))
	for _, run := range runs {
		out = append(out, toRunSummary(run))
	}
	c.JSON(http.StatusOK, gin.H{"runs": out, "count": len(out)})
}

func (s *APIServer) getRunDetail(c *gin.Context) {
	run, err := s.storage.GetReconciliationRun(c.Request.Context(), c.Param("runId"))
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Run not found"})
		return
	}
	if err != nil {
		s.logger.Error("Failed to get run", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch run"})
		return
	}

	c.JSON(http.StatusOK, run)
}

// setupRouter builds the gin engine with CORS and the read-only routes.
func setupRouter(server *APIServer, allowedOrigins []string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/api/health"},
	}))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api := router.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "healthy"})
		})
		api.GET("/stats", server.getStats)
		api.GET("/reports", server.getReports)
		api.GET("/reports/:reportId", server.getReportDetail)
		api.GET("/reconciliation/runs", server.getRuns)
		api.GET("/reconciliation/runs/:runId", server.getRunDetail)
	}

	return router
}

func main() {
	cfg := config.LoadOrEnv()
	logger := logging.NewLoggerWithSystem(cfg.Observability.Logging, "dashboard")

	store, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	origins := cfg.Server.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}

	gin.SetMode(gin.ReleaseMode)
	router := setupRouter(NewAPIServer(store, logger), origins)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logger.Info("Starting dashboard server", "port", port, "db", cfg.Storage.DatabasePath)
	if err := router.Run(":" + port); err != nil {
		logger.Error("Failed to start server", "error", err)
		os.Exit(1)
	}
}
