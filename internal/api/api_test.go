package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"equipment-lifecycle/config"
	"equipment-lifecycle/internal/access"
	"equipment-lifecycle/internal/apperr"
	"equipment-lifecycle/internal/auth"
	"equipment-lifecycle/internal/export"
	"equipment-lifecycle/internal/lifecycle"
	"equipment-lifecycle/internal/metrics"
	"equipment-lifecycle/internal/model"
)

var testNow = time.Date(2025, time.March, 10, 9, 30, 0, 0, time.UTC)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	reg := prometheus.NewRegistry()
	rec, err := metrics.New(reg)
	require.NoError(t, err)

	session := access.NewSession()
	coord := lifecycle.New(context.Background(), nil, session, zap.NewNop(),
		lifecycle.WithClock(func() time.Time { return testNow }),
		lifecycle.WithMetrics(rec),
	)
	authn := auth.New(coord, 3, time.Minute, zap.NewNop(), rec)
	srv := NewServer(coord, session, authn, zap.NewNop())

	cfg := config.Default().Server
	cfg.RateLimitPerSec = 1000
	cfg.RateLimitBurst = 1000
	return NewRouter(srv, &cfg, reg)
}

func do(r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(TokenHeader, token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func loginAs(t *testing.T, r *gin.Engine, username, password string) string {
	t.Helper()
	w := do(r, http.MethodPost, "/api/session", "", gin.H{"username": username, "password": password})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp sessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestStatusFor(t *testing.T) {
	testCases := []struct {
		err  error
		want int
	}{
		{apperr.Validation("op", "blank"), http.StatusBadRequest},
		{apperr.Authentication("op", "bad"), http.StatusUnauthorized},
		{apperr.Permission("op", "no"), http.StatusForbidden},
		{apperr.NotFound("op", "equipment", 1), http.StatusNotFound},
		{apperr.Connectivity("op", errors.New("down")), http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, statusFor(tc.err), "%v", tc.err)
	}
}

func TestRequiresToken(t *testing.T) {
	r := setupRouter(t)

	w := do(r, http.MethodGet, "/api/catalog", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token := loginAs(t, r, "admin", "admin123")
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/api/catalog", "stale", nil).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/api/catalog", token, nil).Code)
}

func TestLogin(t *testing.T) {
	r := setupRouter(t)

	testCases := []struct {
		name string
		body any
		want int
	}{
		{"valid", gin.H{"username": "engineer", "password": "engineer123", "role": "Engineer"}, http.StatusCreated},
		{"administrator label", gin.H{"username": "admin", "password": "admin123", "role": "Administrator"}, http.StatusCreated},
		{"wrong role claim", gin.H{"username": "engineer", "password": "engineer123", "role": "admin"}, http.StatusUnauthorized},
		{"unknown role", gin.H{"username": "engineer", "password": "engineer123", "role": "owner"}, http.StatusBadRequest},
		{"wrong password", gin.H{"username": "manager", "password": "x"}, http.StatusUnauthorized},
		{"blank", gin.H{}, http.StatusBadRequest},
		{"not json", "[", http.StatusBadRequest},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(r, http.MethodPost, "/api/session", "", tc.body)
			assert.Equal(t, tc.want, w.Code, w.Body.String())
		})
	}
}

func TestSession_PermissionsAndLogout(t *testing.T) {
	r := setupRouter(t)
	token := loginAs(t, r, "technician", "tech123")

	w := do(r, http.MethodGet, "/api/session/permissions", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	perms := decode[struct {
		Actor       access.Actor              `json:"actor"`
		Permissions map[access.Operation]bool `json:"permissions"`
	}](t, w)
	assert.Equal(t, model.RoleTechnician, perms.Actor.Role)
	assert.Equal(t, map[access.Operation]bool{access.CompleteMaintenance: true, access.ViewReports: true}, perms.Permissions)

	assert.Equal(t, http.StatusNoContent, do(r, http.MethodDelete, "/api/session", token, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/api/equipment", token, nil).Code)
}

func TestLoginReplacesPreviousToken(t *testing.T) {
	r := setupRouter(t)
	first := loginAs(t, r, "admin", "admin123")
	second := loginAs(t, r, "manager", "manager123")

	assert.NotEqual(t, first, second)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/api/equipment", first, nil).Code)
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodPost, "/api/equipment", second,
		gin.H{"name": "Lathe", "inventory_number": "INV100"}).Code)
}

func TestEquipmentAndMaintenanceLifecycle(t *testing.T) {
	r := setupRouter(t)
	token := loginAs(t, r, "engineer", "engineer123")

	w := do(r, http.MethodGet, "/api/equipment/inventory-number", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	inv := decode[map[string]string](t, w)["inventory_number"]
	assert.Equal(t, "INV20250310093000", inv)

	w = do(r, http.MethodPost, "/api/equipment", token, gin.H{
		"name":             "Band Saw",
		"inventory_number": inv,
		"model":            "BS-1",
		"status":           "In service",
		"commission_date":  "02.01.2024",
		"department_id":    3,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[model.Equipment](t, w)
	assert.Equal(t, int64(8), created.ID)
	assert.Equal(t, time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC), created.CommissionDate)

	w = do(r, http.MethodPost, "/api/maintenance", token, gin.H{
		"equipment_id": created.ID,
		"planned_date": "2025-03-12",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	m := decode[model.Maintenance](t, w)
	assert.Equal(t, model.MaintenancePlanned, m.Status)
	assert.Equal(t, "Band Saw", m.EquipmentName)

	statusOf := func(id int64) model.EquipmentStatus {
		w := do(r, http.MethodGet, "/api/equipment", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		for _, e := range decode[[]model.Equipment](t, w) {
			if e.ID == id {
				return e.Status
			}
		}
		t.Fatalf("equipment %d missing", id)
		return ""
	}
	assert.Equal(t, model.StatusUnderMaintenance, statusOf(created.ID))

	w = do(r, http.MethodPost, "/api/maintenance/"+itoa(m.ID)+"/complete", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.MaintenanceCompleted, decode[model.Maintenance](t, w).Status)
	assert.Equal(t, model.StatusInService, statusOf(created.ID))

	path := "/api/equipment/" + itoa(created.ID)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodDelete, path, token, nil).Code)
	assert.Equal(t, http.StatusNoContent, do(r, http.MethodDelete, path+"?confirm=true", token, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodPost, path+"/retire", token, nil).Code)

	w = do(r, http.MethodGet, "/api/maintenance", token, nil)
	for _, rec := range decode[[]model.Maintenance](t, w) {
		assert.NotEqual(t, created.ID, rec.EquipmentID, "maintenance is deleted with its equipment")
	}
}

func TestEquipment_BadInput(t *testing.T) {
	r := setupRouter(t)
	token := loginAs(t, r, "admin", "admin123")

	testCases := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"unknown status", http.MethodPost, "/api/equipment", gin.H{"name": "A", "inventory_number": "B", "status": "broken"}, http.StatusBadRequest},
		{"bad date", http.MethodPost, "/api/equipment", gin.H{"name": "A", "inventory_number": "B", "commission_date": "soon"}, http.StatusBadRequest},
		{"blank name", http.MethodPost, "/api/equipment", gin.H{"name": " ", "inventory_number": "B"}, http.StatusBadRequest},
		{"under maintenance on create", http.MethodPost, "/api/equipment", gin.H{"name": "A", "inventory_number": "B", "status": "under maintenance"}, http.StatusBadRequest},
		{"bad id", http.MethodPut, "/api/equipment/abc", gin.H{"name": "A", "inventory_number": "B"}, http.StatusBadRequest},
		{"missing id", http.MethodPut, "/api/equipment/999", gin.H{"name": "A", "inventory_number": "B"}, http.StatusNotFound},
		{"maintenance for retired", http.MethodPost, "/api/maintenance", gin.H{"equipment_id": 4, "planned_date": "2025-04-01"}, http.StatusBadRequest},
		{"maintenance without equipment", http.MethodPost, "/api/maintenance", gin.H{"planned_date": "2025-04-01"}, http.StatusBadRequest},
		{"complete missing", http.MethodPost, "/api/maintenance/999/complete", nil, http.StatusNotFound},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(r, tc.method, tc.path, token, tc.body)
			assert.Equal(t, tc.want, w.Code, w.Body.String())
		})
	}
}

func TestTechnicianCannotAddEquipment(t *testing.T) {
	r := setupRouter(t)
	token := loginAs(t, r, "technician", "tech123")

	w := do(r, http.MethodPost, "/api/equipment", token, gin.H{"name": "Lathe", "inventory_number": "INV100"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "permission", decode[map[string]string](t, w)["kind"])

	w = do(r, http.MethodGet, "/api/equipment", token, nil)
	assert.Len(t, decode[[]model.Equipment](t, w), 7)
}

func TestCatalogFilter(t *testing.T) {
	r := setupRouter(t)
	token := loginAs(t, r, "manager", "manager123")

	w := do(r, http.MethodPut, "/api/catalog/filter", token, gin.H{"department_id": 3, "search": "press"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	view := decode[lifecycle.CatalogView](t, w)
	assert.Equal(t, int64(3), view.DepartmentID)
	require.Len(t, view.Items, 2)
	assert.Equal(t, 2, view.Statistics.Total)
	assert.Len(t, view.Departments, 4)

	w = do(r, http.MethodPut, "/api/catalog/filter", token, gin.H{"department_id": 42})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDepartments(t *testing.T) {
	r := setupRouter(t)
	token := loginAs(t, r, "admin", "admin123")

	w := do(r, http.MethodPost, "/api/departments", token, gin.H{"name": "Laboratory", "code": "lab"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	d := decode[model.Department](t, w)
	assert.Equal(t, "LAB", d.Code)

	w = do(r, http.MethodPost, "/api/departments", token, gin.H{"name": "Lab 2", "code": "LAB"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPut, "/api/departments/"+itoa(d.ID), token, gin.H{"name": "Laboratory", "code": "lab", "description": "Test lab"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Test lab", decode[model.Department](t, w).Description)

	assert.Equal(t, http.StatusNoContent, do(r, http.MethodDelete, "/api/departments/"+itoa(d.ID), token, nil).Code)

	w = do(r, http.MethodGet, "/api/departments?active=true", token, nil)
	assert.Len(t, decode[[]model.Department](t, w), 4)
	w = do(r, http.MethodGet, "/api/departments", token, nil)
	assert.Len(t, decode[[]model.Department](t, w), 5)

	w = do(r, http.MethodPut, "/api/departments/"+itoa(d.ID), token, gin.H{"name": "Laboratory", "code": "lab", "active": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, decode[model.Department](t, w).IsActive)
	w = do(r, http.MethodGet, "/api/departments?active=true", token, nil)
	assert.Len(t, decode[[]model.Department](t, w), 5)
}

func TestReports(t *testing.T) {
	r := setupRouter(t)
	token := loginAs(t, r, "manager", "manager123")

	w := do(r, http.MethodGet, "/api/reports/equipment", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	eq := decode[struct {
		Header lifecycle.ReportHeader `json:"header"`
		Report struct {
			Total    int                           `json:"total"`
			ByStatus map[model.EquipmentStatus]int `json:"by_status"`
		} `json:"report"`
	}](t, w)
	assert.Equal(t, "2025-03-10 09:30", eq.Header.GeneratedAt)
	assert.Equal(t, lifecycle.ModeMemory, eq.Header.Mode)
	assert.Equal(t, lifecycle.AllDepartmentsScope, eq.Header.Scope)
	assert.Equal(t, 7, eq.Report.Total)
	assert.Equal(t, 2, eq.Report.ByStatus[model.StatusUnderMaintenance])

	w = do(r, http.MethodGet, "/api/reports/maintenance", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/api/reports/equipment.xlsx", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, export.ContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "equipment_report_2025-03-10.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Equipment")
	require.NoError(t, err)
	assert.Len(t, rows, 8)
}

func TestReports_RequireSession(t *testing.T) {
	r := setupRouter(t)
	token := loginAs(t, r, "admin", "admin123")
	assert.Equal(t, http.StatusNoContent, do(r, http.MethodDelete, "/api/session", token, nil).Code)

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/api/reports/equipment.xlsx", token, nil).Code)
}

func TestStatusAndResync(t *testing.T) {
	r := setupRouter(t)
	token := loginAs(t, r, "admin", "admin123")

	w := do(r, http.MethodGet, "/api/status", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	st := decode[lifecycle.Status](t, w)
	assert.Equal(t, lifecycle.ModeMemory, st.Mode)
	assert.False(t, st.DurableConfigured)

	w = do(r, http.MethodPost, "/api/status/resync", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPolicyIsPublicAndCached(t *testing.T) {
	r := setupRouter(t)

	first := do(r, http.MethodGet, "/api/policy", "", nil)
	require.Equal(t, http.StatusOK, first.Code)
	second := do(r, http.MethodGet, "/api/policy", "", nil)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())

	policy := decode[struct {
		Roles map[model.Role][]access.Operation `json:"roles"`
	}](t, first)
	assert.Equal(t, []access.Operation{access.ViewReports}, policy.Roles[model.RoleManager])
}

func TestMetricsEndpoint(t *testing.T) {
	r := setupRouter(t)
	loginAs(t, r, "admin", "admin123")

	w := do(r, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `equipd_logins_total{result="success"} 1`)
}

func itoa(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
