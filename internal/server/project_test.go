package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"github.com/taylorbuilt/drawline/internal/clock"
	"github.com/taylorbuilt/drawline/internal/config"
	"github.com/taylorbuilt/drawline/internal/invoicedoc"
	projectrepo "github.com/taylorbuilt/drawline/internal/project/repository"
	projectservice "github.com/taylorbuilt/drawline/internal/project/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeRenderer struct {
	calls int
}

func (f *fakeRenderer) RenderDocument(ctx context.Context, doc invoicedoc.Document) (io.Reader, error) {
	f.calls++
	_ = ctx
	_ = doc
	return bytes.NewReader([]byte("%PDF-1.4 fake")), nil
}

func newTestServer(t *testing.T) (*Server, *fakeRenderer) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	store, err := projectrepo.NewGormStore(db)
	require.NoError(t, err)

	billing := config.NewStaticBillingConfigHolder(config.DefaultBillingConfig())

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := projectservice.NewService(projectservice.ServiceParam{
		Store:   store,
		Log:     zap.NewNop(),
		Clock:   clock.NewFakeClock(time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)),
		GenID:   node,
		Billing: billing,
	})

	renderer := &fakeRenderer{}

	srv := NewServer(ServerParams{
		Gin:        NewEngine(zap.NewNop()),
		Cfg:        config.Config{Environment: "test"},
		Billing:    billing,
		ProjectSvc: svc,
		Assembler:  invoicedoc.NewAssembler(billing),
		Renderer:   renderer,
	})

	return srv, renderer
}

func doRequest(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, req)
	return w
}

const estimateBody = `{
	"estimate": {
		"Id": "1042",
		"DocNumber": "JOB-7",
		"TotalAmt": 10000,
		"CustomerRef": {"value": "55", "name": "Morgan Homes Ltd"},
		"CustomerMemo": {"value": "Cedar Deck Build"}
	}
}`

func TestInitializeAndDrawFlow(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doRequest(t, srv, http.MethodPost, "/api/projects", estimateBody)
	require.Equal(t, http.StatusOK, w.Code)

	var initResp struct {
		Data struct {
			EstimateID      string `json:"estimate_id"`
			EstimateName    string `json:"estimate_name"`
			HoldbackPercent string `json:"holdback_percent"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &initResp))
	require.Equal(t, "1042", initResp.Data.EstimateID)
	require.Equal(t, "Cedar Deck Build", initResp.Data.EstimateName)
	require.Equal(t, "10", initResp.Data.HoldbackPercent)

	w = doRequest(t, srv, http.MethodPost, "/api/projects/1042/draws", `{"percent_complete": 50}`)
	require.Equal(t, http.StatusOK, w.Code)

	var drawResp struct {
		Data struct {
			Draw struct {
				DrawNumber     int    `json:"draw_number"`
				InvoiceNumber  string `json:"invoice_number"`
				GrossAmount    string `json:"gross_amount"`
				HoldbackAmount string `json:"holdback_amount"`
				NetPayable     string `json:"net_payable"`
			} `json:"draw"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &drawResp))
	require.Equal(t, 1, drawResp.Data.Draw.DrawNumber)
	require.Equal(t, "JOB-7-001", drawResp.Data.Draw.InvoiceNumber)
	require.Equal(t, "5000", drawResp.Data.Draw.GrossAmount)
	require.Equal(t, "500", drawResp.Data.Draw.HoldbackAmount)
	require.Equal(t, "4500", drawResp.Data.Draw.NetPayable)

	w = doRequest(t, srv, http.MethodGet, "/api/projects", "")
	require.Equal(t, http.StatusOK, w.Code)

	var listResp struct {
		Data []struct {
			EstimateID      string `json:"estimate_id"`
			PercentComplete string `json:"percent_complete"`
			DrawCount       int    `json:"draw_count"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listResp))
	require.Len(t, listResp.Data, 1)
	require.Equal(t, "50", listResp.Data[0].PercentComplete)
	require.Equal(t, 1, listResp.Data[0].DrawCount)
}

func TestInitializeRequiresEstimateID(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doRequest(t, srv, http.MethodPost, "/api/projects", `{"estimate": {"TotalAmt": 500}}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "validation_error")
}

func TestCalculateUninitializedProject(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doRequest(t, srv, http.MethodPost, "/api/projects/ghost/calculate", `{"percent_complete": 25}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "project_not_initialized")
}

func TestReleaseHoldbackValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	doRequest(t, srv, http.MethodPost, "/api/projects", estimateBody)
	doRequest(t, srv, http.MethodPost, "/api/projects/1042/draws", `{"percent_complete": 50}`)

	w := doRequest(t, srv, http.MethodPost, "/api/projects/1042/holdback/release", `{"amount": -10}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, srv, http.MethodPost, "/api/projects/1042/holdback/release", `{"amount": 9999}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "insufficient_holdback")

	w = doRequest(t, srv, http.MethodPost, "/api/projects/1042/holdback/release", `{"amount": 500}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "holdback_release")
}

func TestMarkDrawPaid(t *testing.T) {
	srv, _ := newTestServer(t)

	doRequest(t, srv, http.MethodPost, "/api/projects", estimateBody)
	doRequest(t, srv, http.MethodPost, "/api/projects/1042/draws", `{"percent_complete": 40}`)

	w := doRequest(t, srv, http.MethodPost, "/api/projects/1042/draws/1/paid", `{"paid_date": "2026-04-01"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"is_paid":true`)

	w = doRequest(t, srv, http.MethodPost, "/api/projects/1042/draws/99/paid", "")
	require.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(t, srv, http.MethodPost, "/api/projects/none/draws/1/paid", "")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteProject(t *testing.T) {
	srv, _ := newTestServer(t)

	doRequest(t, srv, http.MethodPost, "/api/projects", estimateBody)

	w := doRequest(t, srv, http.MethodDelete, "/api/projects/1042", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, srv, http.MethodGet, "/api/projects/1042", "")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestExportImportEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	doRequest(t, srv, http.MethodPost, "/api/projects", estimateBody)
	doRequest(t, srv, http.MethodPost, "/api/projects/1042/draws", `{"percent_complete": 30}`)

	w := doRequest(t, srv, http.MethodGet, "/api/projects/1042/export", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Header().Get("Content-Disposition"), "project_1042.json")
	exported := w.Body.String()

	doRequest(t, srv, http.MethodDelete, "/api/projects/1042", "")

	w = doRequest(t, srv, http.MethodPost, "/api/projects/import", exported)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, srv, http.MethodGet, "/api/projects/1042", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "Cedar Deck Build")

	w = doRequest(t, srv, http.MethodPost, "/api/projects/import", `{"broken`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "invalid_project_data")
}

func TestRenderDrawPDF(t *testing.T) {
	srv, renderer := newTestServer(t)

	doRequest(t, srv, http.MethodPost, "/api/projects", estimateBody)
	doRequest(t, srv, http.MethodPost, "/api/projects/1042/draws", `{"percent_complete": 50}`)

	w := doRequest(t, srv, http.MethodGet, "/api/projects/1042/draws/1/pdf", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1, renderer.calls)
	require.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	require.Contains(t, w.Header().Get("Content-Disposition"), "50%_Invoice_JOB-7-001")

	w = doRequest(t, srv, http.MethodGet, "/api/projects/1042/draws/9/pdf", "")
	require.Equal(t, http.StatusNotFound, w.Code)
}
