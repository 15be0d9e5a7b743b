package handler

import (
	"bytes"
	"html/template"
	"net/http"
	"time"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	reportService service.ReportService
	emailService  service.EmailService
}

func NewReportHandler(reportService service.ReportService, emailService service.EmailService) *ReportHandler {
	return &ReportHandler{reportService: reportService, emailService: emailService}
}

func (h *ReportHandler) RegisterRoutes(router *gin.RouterGroup) {
	reports := router.Group("/api/reports")
	{
		reports.GET("/summary", middleware.RequireAnyUser(), h.Summary)
		reports.GET("/materials", middleware.RequireAnyUser(), h.MaterialSummary)
		reports.GET("/products", middleware.RequireAnyUser(), h.ProductSummary)
		reports.POST("/email", middleware.RequireAdmin(), h.EmailSummary)
	}
	router.POST("/api/notifications/email", middleware.RequireAdmin(), h.SendEmail)
}

// Summary returns both record kinds in one payload for the dashboard
// @Summary      Combined recovery summary
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Param        start_date  query     string  false  "Range start (YYYY-MM-DD, defaults to month start)"
// @Param        end_date    query     string  false  "Range end (YYYY-MM-DD, defaults to month end)"
// @Success      200         {object}  response.Response{data=object}
// @Router       /api/reports/summary [get]
func (h *ReportHandler) Summary(c *gin.Context) {
	start, end := reportRange(c)
	actor := actorFromContext(c)

	materialSummary, err := h.reportService.MaterialSummary(c.Request.Context(), actor, start, end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to build summary: "+err.Error()))
		return
	}
	productSummary, err := h.reportService.ProductSummary(c.Request.Context(), actor, start, end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to build summary: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"materials": materialSummary,
		"products":  productSummary,
	}))
}

type SendEmailRequest struct {
	Recipients []string `json:"recipients" binding:"required,min=1,dive,email"`
	Subject    string   `json:"subject" binding:"required"`
	Body       string   `json:"body" binding:"required"`
}

// SendEmail relays an arbitrary message through the configured SMTP provider
// @Summary      Send transactional email
// @Tags         reports
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      handler.SendEmailRequest  true  "Recipients, subject and HTML body"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Router       /api/notifications/email [post]
func (h *ReportHandler) SendEmail(c *gin.Context) {
	var req SendEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	if err := h.emailService.Send(c.Request.Context(), req.Recipients, req.Subject, req.Body); err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to send email: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Email sent"))
}

// reportRange defaults to the current month when the query omits dates.
func reportRange(c *gin.Context) (time.Time, time.Time) {
	now := time.Now()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 1, 0).Add(-time.Second)

	if v := c.Query("start_date"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			start = t
		}
	}
	if v := c.Query("end_date"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			end = t.Add(24*time.Hour - time.Second)
		}
	}
	return start, end
}

// MaterialSummary returns status, branch and material breakdowns
// @Summary      Material recovery summary
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Param        start_date  query     string  false  "Range start (YYYY-MM-DD, defaults to month start)"
// @Param        end_date    query     string  false  "Range end (YYYY-MM-DD, defaults to month end)"
// @Success      200         {object}  response.Response{data=model.RecoverySummaryResponse}
// @Router       /api/reports/materials [get]
func (h *ReportHandler) MaterialSummary(c *gin.Context) {
	start, end := reportRange(c)
	summary, err := h.reportService.MaterialSummary(c.Request.Context(), actorFromContext(c), start, end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to build summary: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, summary))
}

// ProductSummary returns status counts, penalty totals and calendar counts
// @Summary      Product recovery summary
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Param        start_date  query     string  false  "Range start (YYYY-MM-DD, defaults to month start)"
// @Param        end_date    query     string  false  "Range end (YYYY-MM-DD, defaults to month end)"
// @Success      200         {object}  response.Response{data=model.ProductSummaryResponse}
// @Router       /api/reports/products [get]
func (h *ReportHandler) ProductSummary(c *gin.Context) {
	start, end := reportRange(c)
	summary, err := h.reportService.ProductSummary(c.Request.Context(), actorFromContext(c), start, end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to build summary: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, summary))
}

type EmailSummaryRequest struct {
	Recipients []string `json:"recipients" binding:"required,min=1,dive,email"`
	StartDate  string   `json:"start_date"`
	EndDate    string   `json:"end_date"`
}

// EmailSummary mails both summaries to the given recipients
// @Summary      Email recovery summary
// @Description  Renders the material and product summaries for the range into an HTML report and mails it
// @Tags         reports
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      handler.EmailSummaryRequest  true  "Recipients and range"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Router       /api/reports/email [post]
func (h *ReportHandler) EmailSummary(c *gin.Context) {
	var req EmailSummaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	now := time.Now()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 1, 0).Add(-time.Second)
	if req.StartDate != "" {
		t, err := time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid start_date"))
			return
		}
		start = t
	}
	if req.EndDate != "" {
		t, err := time.Parse("2006-01-02", req.EndDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid end_date"))
			return
		}
		end = t.Add(24*time.Hour - time.Second)
	}

	actor := actorFromContext(c)
	materialSummary, err := h.reportService.MaterialSummary(c.Request.Context(), actor, start, end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to build summary: "+err.Error()))
		return
	}
	productSummary, err := h.reportService.ProductSummary(c.Request.Context(), actor, start, end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to build summary: "+err.Error()))
		return
	}

	body, err := renderSummaryEmail(materialSummary, productSummary)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to render report: "+err.Error()))
		return
	}

	subject := "회수 현황 리포트 " + start.Format("2006-01-02") + " ~ " + end.Format("2006-01-02")
	if err := h.emailService.Send(c.Request.Context(), req.Recipients, subject, body); err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to send report: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"recipients": req.Recipients,
		"start_date": start.Format("2006-01-02"),
		"end_date":   end.Format("2006-01-02"),
	}))
}

const summaryEmailTemplate = `<!DOCTYPE html>
<html lang="ko">
<head>
<meta charset="utf-8">
<style>
  body { font-family: 'Malgun Gothic', sans-serif; color: #222; }
  h2 { border-bottom: 2px solid #333; padding-bottom: 4px; }
  table { border-collapse: collapse; margin-bottom: 24px; }
  th, td { border: 1px solid #999; padding: 6px 14px; font-size: 13px; }
  th { background: #eef1f5; }
</style>
</head>
<body>
<h2>회수 현황 리포트</h2>
<p>기간: {{.Material.TimeRangeStartDate.Format "2006-01-02"}} ~ {{.Material.TimeRangeEndDate.Format "2006-01-02"}}</p>

<h3>자재 회수</h3>
<table>
  <tr><th>상태</th><th>건수</th></tr>
  {{range .Material.StatusCounts}}<tr><td>{{.Status}}</td><td>{{.Count}}</td></tr>
  {{end}}
</table>

<h3>제품 회수</h3>
<table>
  <tr><th>상태</th><th>건수</th></tr>
  {{range .Product.StatusCounts}}<tr><td>{{.Status}}</td><td>{{.Count}}</td></tr>
  {{end}}
</table>

<h3>위약금 합계</h3>
<table>
  <tr><th>상태</th><th>합계</th></tr>
  {{range .Product.PenaltyTotals}}<tr><td>{{.Status}}</td><td>{{.Total}}</td></tr>
  {{end}}
</table>
</body>
</html>`

var summaryEmailTmpl = template.Must(template.New("summary_email").Parse(summaryEmailTemplate))

func renderSummaryEmail(material model.RecoverySummaryResponse, product model.ProductSummaryResponse) (string, error) {
	var buf bytes.Buffer
	err := summaryEmailTmpl.Execute(&buf, map[string]interface{}{
		"Material": material,
		"Product":  product,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
