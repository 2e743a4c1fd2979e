package handlers

import (
	"context"
	"io"
	"net/http"
	"time"

	"cputemp_fitting/internal/models"
	"cputemp_fitting/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(ctx context.Context, username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(ctx context.Context, username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockAnalysis struct {
	run       *models.AnalysisRun
	runs      []models.AnalysisRun
	lines     []string
	err       error
	body      string
	lastP     service.AnalyzeParams
	lastID    string
	lastCore  int
	lastLimit int
}

func (m *mockAnalysis) Evaluate(ctx context.Context, p service.AnalyzeParams) (*models.AnalysisRun, error) {
	return m.Analyze(ctx, p)
}
func (m *mockAnalysis) Analyze(ctx context.Context, p service.AnalyzeParams) (*models.AnalysisRun, error) {
	m.lastP = p
	if p.Input != nil {
		b, err := io.ReadAll(p.Input)
		if err != nil {
			return nil, err
		}
		m.body = string(b)
	}
	return m.run, m.err
}
func (m *mockAnalysis) GetRun(ctx context.Context, id string) (*models.AnalysisRun, error) {
	m.lastID = id
	return m.run, m.err
}
func (m *mockAnalysis) ListRuns(ctx context.Context, limit int) ([]models.AnalysisRun, error) {
	m.lastLimit = limit
	return m.runs, m.err
}
func (m *mockAnalysis) CoreReport(ctx context.Context, id string, core int) ([]string, error) {
	m.lastID = id
	m.lastCore = core
	return m.lines, m.err
}

type mockEventLog struct {
	resp     []models.RunEvent
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastType string

	batches    [][]models.RunEvent
	sinceErr   error
	sinceCalls int
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.RunEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

// Since hands out one configured batch per call, then empty batches.
func (m *mockEventLog) Since(ctx context.Context, cur service.EventCursor) ([]models.RunEvent, service.EventCursor, error) {
	m.sinceCalls++
	if m.sinceErr != nil {
		return nil, cur, m.sinceErr
	}
	if len(m.batches) == 0 {
		return nil, cur, nil
	}
	b := m.batches[0]
	m.batches = m.batches[1:]
	return b, cur, nil
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
