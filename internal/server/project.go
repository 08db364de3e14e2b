package server

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	projectdomain "github.com/taylorbuilt/drawline/internal/project/domain"
	"github.com/taylorbuilt/drawline/internal/quickbooks"
)

type initializeProjectRequest struct {
	Estimate        quickbooks.Estimate `json:"estimate"`
	HoldbackPercent *decimal.Decimal    `json:"holdback_percent"`
}

func (s *Server) InitializeProject(c *gin.Context) {
	var req initializeProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if strings.TrimSpace(req.Estimate.ID) == "" {
		AbortWithError(c, newValidationError("estimate.Id", "required", "estimate id is required"))
		return
	}

	holdback := s.billing.Get().DefaultHoldback()
	if req.HoldbackPercent != nil {
		holdback = *req.HoldbackPercent
	}
	if holdback.IsNegative() || holdback.GreaterThan(decimal.NewFromInt(100)) {
		AbortWithError(c, newValidationError("holdback_percent", "invalid_holdback_percent", "holdback percent must be between 0 and 100"))
		return
	}

	project, err := s.projectSvc.Initialize(c.Request.Context(), quickbooks.Normalize(req.Estimate), holdback)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": project})
}

func (s *Server) ListProjects(c *gin.Context) {
	resp, err := s.projectSvc.ListProjects(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetProject(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	project, err := s.projectSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": project})
}

func (s *Server) DeleteProject(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := s.projectSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type calculateDrawRequest struct {
	PercentComplete decimal.Decimal `json:"percent_complete"`
}

func (s *Server) CalculateDraw(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	var req calculateDrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	calc, err := s.projectSvc.Calculate(c.Request.Context(), id, req.PercentComplete)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": calc})
}

type createDrawRequest struct {
	PercentComplete decimal.Decimal `json:"percent_complete"`
	InvoiceNumber   string          `json:"invoice_number"`
	Notes           string          `json:"notes"`
}

func (s *Server) CreateDraw(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	var req createDrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.projectSvc.CreateDraw(c.Request.Context(), projectdomain.CreateDrawRequest{
		EstimateID:      id,
		PercentComplete: req.PercentComplete,
		InvoiceNumber:   strings.TrimSpace(req.InvoiceNumber),
		Notes:           strings.TrimSpace(req.Notes),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type releaseHoldbackRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	InvoiceNumber string          `json:"invoice_number"`
	Notes         string          `json:"notes"`
}

func (s *Server) ReleaseHoldback(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	var req releaseHoldbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if !req.Amount.IsPositive() {
		AbortWithError(c, newValidationError("amount", "invalid_amount", "amount must be positive"))
		return
	}

	resp, err := s.projectSvc.ReleaseHoldback(c.Request.Context(), projectdomain.ReleaseHoldbackRequest{
		EstimateID:    id,
		ReleaseAmount: req.Amount,
		InvoiceNumber: strings.TrimSpace(req.InvoiceNumber),
		Notes:         strings.TrimSpace(req.Notes),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type markDrawPaidRequest struct {
	PaidDate string `json:"paid_date"`
}

func (s *Server) MarkDrawPaid(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	drawNumber, err := strconv.Atoi(c.Param("num"))
	if err != nil {
		AbortWithError(c, newValidationError("num", "invalid_draw_number", "invalid draw number"))
		return
	}

	var req markDrawPaidRequest
	if err := c.ShouldBindJSON(&req); err != nil && err != io.EOF {
		AbortWithError(c, invalidRequestError())
		return
	}

	paidDate, err := parseOptionalDate(req.PaidDate)
	if err != nil {
		AbortWithError(c, newValidationError("paid_date", "invalid_paid_date", "invalid paid_date"))
		return
	}

	draw, err := s.projectSvc.MarkDrawPaid(c.Request.Context(), id, drawNumber, paidDate)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": draw})
}

func (s *Server) ExportProject(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	data, err := s.projectSvc.Export(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="project_`+id+`.json"`)
	c.Data(http.StatusOK, "application/json", []byte(data))
}

func (s *Server) ImportProject(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	project, err := s.projectSvc.Import(c.Request.Context(), string(body))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": project})
}

func parseOptionalDate(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return &t, nil
		}
	}
	return nil, ErrInvalidRequest
}
