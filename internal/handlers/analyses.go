package handlers

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cputemp_fitting/internal/models"
	"cputemp_fitting/internal/report"
	"cputemp_fitting/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	maxBodyBytes  = 8 << 20 // 8 MB of sensor log
	defaultSource = "api"

	errInvalidStepSize = "invalid 'step_size'; use a positive integer of seconds"
	errInvalidLimit    = "invalid 'limit'; use a positive integer"
	errInvalidCore     = "invalid core index"
	errRunNotFound     = "analysis run not found"
	errAnalyze         = "failed to analyze log"
	errLoadRun         = "failed to load analysis run"
	errListRuns        = "failed to list analysis runs"
)

// FitResultResponse is one fitted segment. JSON has no NaN or Inf, so a
// non-finite coefficient is null and Finite is false.
type FitResultResponse struct {
	Kind      string   `json:"kind" example:"REGRESSION"`
	ValidFrom float64  `json:"valid_from" example:"0"`
	ValidTo   float64  `json:"valid_to" example:"60"`
	Intercept *float64 `json:"intercept" example:"50"`
	Slope     *float64 `json:"slope" example:"0.1"`
	Finite    bool     `json:"finite" example:"true"`
	Line      string   `json:"line"`
}

// CoreResponse holds the ordered results of one core, or the reason it failed.
type CoreResponse struct {
	Core    int                 `json:"core"`
	Results []FitResultResponse `json:"results"`
	Error   string              `json:"error,omitempty"`
}

// RunResponse is a stored analysis run. Cores is omitted in listings.
type RunResponse struct {
	ID        string         `json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	Source    string         `json:"source"`
	StepSize  int            `json:"step_size"`
	Samples   int            `json:"samples"`
	CoreCount int            `json:"core_count"`
	Strict    bool           `json:"strict"`
	Cores     []CoreResponse `json:"cores,omitempty"`
}

func finiteOrNil(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func toFitResultResponse(r models.FitResult) FitResultResponse {
	return FitResultResponse{
		Kind:      r.Kind.String(),
		ValidFrom: r.ValidFrom,
		ValidTo:   r.ValidTo,
		Intercept: finiteOrNil(r.Intercept),
		Slope:     finiteOrNil(r.Slope),
		Finite:    r.Finite(),
		Line:      report.FormatResult(r),
	}
}

func toRunResponse(run *models.AnalysisRun) RunResponse {
	resp := RunResponse{
		ID:        run.ID,
		CreatedAt: run.CreatedAt,
		Source:    run.Source,
		StepSize:  run.StepSize,
		Samples:   run.Samples,
		CoreCount: run.CoreCount,
		Strict:    run.Strict,
	}
	for _, core := range run.Cores {
		cr := CoreResponse{Core: core.Core, Results: make([]FitResultResponse, 0, len(core.Results)), Error: core.Err}
		for _, r := range core.Results {
			cr.Results = append(cr.Results, toFitResultResponse(r))
		}
		resp.Cores = append(resp.Cores, cr)
	}
	return resp
}

// @Summary      Analyze a sensor log
// @Description  Body is the raw log, one line per sample with one "°C" reading per core. Fits every core and stores the run.
// @Tags         analyses
// @Accept       plain
// @Produce      json
// @Param        step_size  query     int     false  "Seconds between lines (default from config)"  example(30)
// @Param        source     query     string  false  "Label stored with the run"  example(sensors.txt)
// @Param        body       body      string  true   "Raw sensor log"
// @Success      200        {object}  RunResponse
// @Failure      400        {object}  map[string]string
// @Failure      401        {object}  map[string]string
// @Failure      500        {object}  map[string]string
// @Router       /api/v1/analyses [post]
// @Security     BearerAuth
func (h *Handler) createAnalysis(c *gin.Context) {
	step := 0
	if qs := c.Query("step_size"); qs != "" {
		v, err := strconv.Atoi(qs)
		if err != nil || v <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidStepSize})
			return
		}
		step = v
	}
	source := strings.TrimSpace(c.Query("source"))
	if source == "" {
		source = defaultSource
	}

	run, err := h.services.Analysis.Analyze(c.Request.Context(), service.AnalyzeParams{
		Source:   source,
		StepSize: step,
		Input:    http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes),
	})
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.logAndJSONError(c, http.StatusInternalServerError, errAnalyze, "analysis_create_failed", err, "source", source)
		}
		return
	}
	c.JSON(http.StatusOK, toRunResponse(run))
}

// @Summary      List analysis runs
// @Description  Run headers, newest first
// @Tags         analyses
// @Produce      json
// @Param        limit  query     int  false  "Maximum runs (default 20, max 200)"
// @Success      200    {object}  map[string]interface{}  "count, runs"
// @Failure      400    {object}  map[string]string
// @Failure      401    {object}  map[string]string
// @Failure      500    {object}  map[string]string
// @Router       /api/v1/analyses [get]
// @Security     BearerAuth
func (h *Handler) listAnalyses(c *gin.Context) {
	limit := 0
	if qs := c.Query("limit"); qs != "" {
		v, err := strconv.Atoi(qs)
		if err != nil || v <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidLimit})
			return
		}
		limit = v
	}

	runs, err := h.services.Analysis.ListRuns(c.Request.Context(), limit)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errListRuns, "analysis_list_failed", err)
		return
	}
	out := make([]RunResponse, 0, len(runs))
	for i := range runs {
		out = append(out, toRunResponse(&runs[i]))
	}
	c.JSON(http.StatusOK, gin.H{
		"count": len(out),
		"runs":  out,
	})
}

// @Summary      Get an analysis run
// @Tags         analyses
// @Produce      json
// @Param        id   path      string  true  "Run ID"
// @Success      200  {object}  RunResponse
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/analyses/{id} [get]
// @Security     BearerAuth
func (h *Handler) getAnalysis(c *gin.Context) {
	id := c.Param("id")
	run, err := h.services.Analysis.GetRun(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrRunNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": errRunNotFound})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, errLoadRun, "analysis_get_failed", err, "run_id", id)
		return
	}
	c.JSON(http.StatusOK, toRunResponse(run))
}

// @Summary      Core report
// @Description  The fitted segments of one core, one formatted line each
// @Tags         analyses
// @Produce      plain
// @Param        id    path      string  true  "Run ID"
// @Param        core  path      int     true  "Core index"
// @Success      200   {string}  string
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/analyses/{id}/cores/{core}/report [get]
// @Security     BearerAuth
func (h *Handler) getCoreReport(c *gin.Context) {
	id := c.Param("id")
	core, err := strconv.Atoi(c.Param("core"))
	if err != nil || core < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidCore})
		return
	}

	lines, err := h.services.Analysis.CoreReport(c.Request.Context(), id, core)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRunNotFound), errors.Is(err, service.ErrCoreNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrCoreFailed):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		default:
			h.logAndJSONError(c, http.StatusInternalServerError, errLoadRun, "analysis_report_failed", err, "run_id", id, "core", core)
		}
		return
	}

	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(b.String()))
}
