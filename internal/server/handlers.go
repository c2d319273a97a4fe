package server

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/KaramelBytes/profitscope/internal/chart"
	"github.com/KaramelBytes/profitscope/internal/dashboard"
	"github.com/KaramelBytes/profitscope/internal/predict"
	"github.com/KaramelBytes/profitscope/internal/sales"
)

type recordsResponse struct {
	Count      int            `json:"count"`
	Shown      int            `json:"shown"`
	RangeValid bool           `json:"range_valid"`
	Message    string         `json:"message,omitempty"`
	Warning    string         `json:"warning,omitempty"`
	Records    []sales.Record `json:"records"`
}

type optionsResponse struct {
	dashboard.Selectors
	Model    predict.ModelInfo `json:"model"`
	History  bool              `json:"history"`
	Warnings []string          `json:"warnings,omitempty"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"records": s.app.Dataset().Len(),
		"model":   s.app.Model().Name,
	})
}

// GET /api/options
func (s *Server) options(c *gin.Context) {
	c.JSON(http.StatusOK, optionsResponse{
		Selectors: s.app.Selectors(),
		Model:     s.app.Model(),
		History:   s.app.HistoryEnabled(),
		Warnings:  s.app.Warnings(),
	})
}

// GET /api/records?market=&product_type=&start=&end=&raw=1&limit=
func (s *Server) records(c *gin.Context) {
	q, ok := s.bindQuery(c)
	if !ok {
		return
	}
	limit, err := intParam(c, "limit", 0)
	if err != nil {
		badRequest(c, err)
		return
	}
	res := s.app.Table(q)
	resp := recordsResponse{Count: len(res.Records), RangeValid: res.RangeValid, Records: res.Records}
	if !res.RangeValid {
		resp.Warning = q.Range.Validate().Error()
	} else if !q.Raw && !q.Range.Start.IsZero() && !q.Range.End.IsZero() {
		resp.Message = dashboard.RangeMessage(q.Range)
	}
	if limit > 0 && limit < len(resp.Records) {
		resp.Records = resp.Records[:limit]
	}
	resp.Shown = len(resp.Records)
	c.JSON(http.StatusOK, resp)
}

// GET /api/records.xlsx
func (s *Server) recordsWorkbook(c *gin.Context) {
	q, ok := s.bindQuery(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := s.app.Export(&buf, q); err != nil {
		s.writeError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="records.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// GET /api/summary?group_by=Date&measure=Profit
func (s *Server) summary(c *gin.Context) {
	q, ok := s.bindQuery(c)
	if !ok {
		return
	}
	groupBy, err := sales.ParseField(c.DefaultQuery("group_by", string(sales.FieldDate)))
	if err != nil {
		badRequest(c, err)
		return
	}
	measure, err := sales.ParseMeasure(c.DefaultQuery("measure", string(sales.MeasureProfit)))
	if err != nil {
		badRequest(c, err)
		return
	}
	sum, err := s.app.Summary(q.Criteria, groupBy, measure)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

// GET /api/describe[?format=markdown]
func (s *Server) describe(c *gin.Context) {
	q, ok := s.bindQuery(c)
	if !ok {
		return
	}
	rep, err := s.app.Describe(q)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if c.Query("format") == "markdown" {
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(rep.Markdown()))
		return
	}
	c.JSON(http.StatusOK, rep)
}

// GET /api/charts/timeseries.png
func (s *Server) timeSeriesChart(c *gin.Context) {
	q, ok := s.bindQuery(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := s.app.TimeSeries(&buf, q.Criteria); err != nil {
		s.writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

// GET /api/charts/comparison.png?filtered=1
func (s *Server) comparisonChart(c *gin.Context) {
	q, ok := s.bindQuery(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := s.app.Comparison(&buf, q.Criteria, truthy(c.Query("filtered"))); err != nil {
		s.writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

// POST /api/predict
func (s *Server) predict(c *gin.Context) {
	var in predict.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	p, err := s.app.Predict(c.Request.Context(), in)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// GET /api/predictions?limit=
func (s *Server) predictions(c *gin.Context) {
	limit, err := intParam(c, "limit", 50)
	if err != nil {
		badRequest(c, err)
		return
	}
	entries, err := s.app.History(c.Request.Context(), limit)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(entries), "predictions": entries})
}

func (s *Server) bindQuery(c *gin.Context) (dashboard.Query, bool) {
	crit, err := dashboard.ParseCriteria(c.Query("market"), c.Query("product_type"), c.Query("start"), c.Query("end"))
	if err != nil {
		badRequest(c, err)
		return dashboard.Query{}, false
	}
	return dashboard.Query{Criteria: crit, Raw: truthy(c.Query("raw"))}, true
}

// writeError maps recoverable interaction errors onto status codes. Only
// unexpected failures are logged.
func (s *Server) writeError(c *gin.Context, err error) {
	var (
		rangeErr  *sales.InvalidRangeError
		valErr    *predict.ValidationError
		schemaErr *predict.SchemaMismatchError
		predErr   *predict.PredictionError
		rateErr   *predict.RateLimitError
		authErr   *predict.AuthError
		notFound  *predict.ModelNotFoundError
		srvErr    *predict.ServerError
		downErr   *predict.UnreachableError
	)
	switch {
	case errors.As(err, &rangeErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "warning": true})
	case errors.Is(err, chart.ErrNoData):
		c.JSON(http.StatusNotFound, gin.H{"error": "No data for the selected filters.", "no_data": true})
	case errors.As(err, &valErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "fields": valErr.Fields})
	case errors.As(err, &schemaErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "missing": schemaErr.Missing, "extra": schemaErr.Extra})
	case errors.As(err, &predErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.As(err, &rateErr):
		if rateErr.RetryAfter > 0 {
			c.Header("Retry-After", strconv.Itoa(int(rateErr.RetryAfter.Seconds())))
		}
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
	case errors.As(err, &authErr), errors.As(err, &notFound), errors.As(err, &srvErr), errors.As(err, &downErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	case errors.Is(err, dashboard.ErrHistoryDisabled):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		s.logger.Printf("✗ Error: %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func intParam(c *gin.Context, name string, def int) (int, error) {
	v := c.Query(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errors.New("invalid " + name + ": " + v)
	}
	return n, nil
}

func truthy(v string) bool {
	b, err := strconv.ParseBool(v)
	return err == nil && b
}
