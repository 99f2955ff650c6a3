package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/allthebeans-backend/internal/db"
	"github.com/yungbote/allthebeans-backend/internal/handlers"
	"github.com/yungbote/allthebeans-backend/internal/mappers"
	"github.com/yungbote/allthebeans-backend/internal/repos"
	"github.com/yungbote/allthebeans-backend/internal/server"
	"github.com/yungbote/allthebeans-backend/internal/services"
	"github.com/yungbote/allthebeans-backend/internal/testutil"
)

const (
	testImagesLocation  = "https://cdn.example.com/images/"
	testCurrencyCulture = "en-GB"
)

func newAPI(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	theDB := testutil.OpenTestDB(t)
	log := testutil.NewTestLogger(t)
	exec := db.NewExecutionStrategy(theDB, log)
	beanRepo := repos.NewBeanRepo(theDB, log)
	countryRepo := repos.NewCountryRepo(theDB, log)
	botdRepo := repos.NewBeanOfTheDayRepo(theDB, log)

	beanService := services.NewBeanService(log, exec, beanRepo, countryRepo)
	botdService := services.NewBeanOfTheDayService(log, exec, beanRepo, botdRepo, nil)

	mapper, err := mappers.NewBeanMapper(testImagesLocation, testCurrencyCulture)
	if err != nil {
		t.Fatalf("NewBeanMapper: %v", err)
	}

	return server.NewRouter(server.RouterConfig{
		BeanHandler: handlers.NewBeanHandler(beanService, botdService, mapper),
	})
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func createPayload(name, country string) map[string]any {
	return map[string]any{
		"index":       3,
		"isBOTD":      true,
		"cost":        "2.50",
		"image":       "roast.png",
		"colour":      "dark roast",
		"name":        name,
		"description": "bold and smoky",
		"country":     country,
	}
}

func createBean(t *testing.T, router *gin.Engine, name, country string) mappers.BeanResponse {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/beans", createPayload(name, country))
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /beans: status=%d body=%s", rec.Code, rec.Body.String())
	}
	var resp mappers.BeanResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	return resp
}

// Route ids are dashless hex; uuid.Parse accepts that form directly.
func beanPath(resp mappers.BeanResponse) string {
	return "/beans/" + resp.ID
}

func TestHealthcheck(t *testing.T) {
	router := newAPI(t)
	rec := doJSON(t, router, http.MethodGet, "/healthcheck", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d, want 200", rec.Code)
	}
}

func TestCreateAndGetBean(t *testing.T) {
	router := newAPI(t)

	created := createBean(t, router, "Midnight", "Peru")
	if len(created.ID) != 32 || strings.Contains(created.ID, "-") {
		t.Fatalf("ID=%q, want 32 dashless hex chars", created.ID)
	}
	if created.Image != testImagesLocation+"roast.png" {
		t.Fatalf("Image=%q", created.Image)
	}
	if created.Colour != "dark roast" {
		t.Fatalf("Colour=%q", created.Colour)
	}
	if !strings.Contains(created.Cost, "2.50") {
		t.Fatalf("Cost=%q, want amount rendered", created.Cost)
	}

	rec := doJSON(t, router, http.MethodGet, beanPath(created), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET by id: status=%d body=%s", rec.Code, rec.Body.String())
	}
	var fetched mappers.BeanResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &fetched); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if fetched.ID != created.ID || fetched.Country != "Peru" {
		t.Fatalf("fetched=%+v", fetched)
	}
}

func TestGetAllBeansPaginatesAndSearches(t *testing.T) {
	router := newAPI(t)
	createBean(t, router, "Test", "Peru")
	createBean(t, router, "Other", "Kenya")

	rec := doJSON(t, router, http.MethodGet, "/beans?pageNumber=1&pageSize=1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /beans: status=%d body=%s", rec.Code, rec.Body.String())
	}
	var page mappers.BeansResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(page.Beans) != 1 || page.Total != 2 {
		t.Fatalf("beans=%d total=%d, want 1 of 2", len(page.Beans), page.Total)
	}

	rec = doJSON(t, router, http.MethodGet, "/beans?search=kenya", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("search: status=%d", rec.Code)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if page.Total != 1 || len(page.Beans) != 1 || page.Beans[0].Name != "Other" {
		t.Fatalf("search result=%+v", page)
	}
}

func TestGetAllBeansRejectsBadPagination(t *testing.T) {
	router := newAPI(t)
	rec := doJSON(t, router, http.MethodGet, "/beans?pageNumber=0", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d, want 400", rec.Code)
	}
}

func TestGetBeanNotFound(t *testing.T) {
	router := newAPI(t)
	rec := doJSON(t, router, http.MethodGet, "/beans/"+uuid.NewString(), nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status=%d, want 404", rec.Code)
	}
	var envelope handlers.ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	if envelope.Error.Message == "" {
		t.Fatalf("error envelope missing message: %s", rec.Body.String())
	}
}

func TestGetBeanMalformedID(t *testing.T) {
	router := newAPI(t)
	rec := doJSON(t, router, http.MethodGet, "/beans/not-a-uuid", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d, want 400", rec.Code)
	}
}

func TestCreateBeanValidation(t *testing.T) {
	router := newAPI(t)

	tests := []struct {
		name   string
		mutate func(map[string]any)
	}{
		{"missing name", func(p map[string]any) { delete(p, "name") }},
		{"missing cost", func(p map[string]any) { delete(p, "cost") }},
		{"negative cost", func(p map[string]any) { p["cost"] = "-1.00" }},
		{"bad image name", func(p map[string]any) { p["image"] = "../../etc/passwd" }},
		{"oversized name", func(p map[string]any) { p["name"] = strings.Repeat("x", 101) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := createPayload("Valid", "Peru")
			tt.mutate(payload)
			rec := doJSON(t, router, http.MethodPost, "/beans", payload)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status=%d body=%s, want 400", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestCreateBeanDuplicateNameConflicts(t *testing.T) {
	router := newAPI(t)
	createBean(t, router, "Midnight", "Peru")

	rec := doJSON(t, router, http.MethodPost, "/beans", createPayload("Midnight", "Kenya"))
	if rec.Code != http.StatusConflict {
		t.Fatalf("status=%d body=%s, want 409", rec.Code, rec.Body.String())
	}
}

func TestPutCreatesWhenMissing(t *testing.T) {
	router := newAPI(t)

	missing := uuid.NewString()
	rec := doJSON(t, router, http.MethodPut, "/beans/"+missing, createPayload("Midnight", "Peru"))
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT: status=%d body=%s", rec.Code, rec.Body.String())
	}
	var resp mappers.BeanResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ID == strings.ReplaceAll(missing, "-", "") {
		t.Fatalf("PUT adopted the client-supplied id")
	}
}

func TestPutUpdatesExisting(t *testing.T) {
	router := newAPI(t)
	created := createBean(t, router, "Midnight", "Peru")

	rec := doJSON(t, router, http.MethodPut, beanPath(created), createPayload("Renamed", "Kenya"))
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT: status=%d body=%s", rec.Code, rec.Body.String())
	}
	var resp mappers.BeanResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ID != created.ID || resp.Name != "Renamed" || resp.Country != "Kenya" {
		t.Fatalf("updated=%+v", resp)
	}
}

func TestPatchBean(t *testing.T) {
	router := newAPI(t)
	created := createBean(t, router, "Midnight", "Peru")

	rec := doJSON(t, router, http.MethodPatch, beanPath(created), map[string]any{"name": "Renamed"})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("PATCH: status=%d body=%s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodGet, beanPath(created), nil)
	var resp mappers.BeanResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Name != "Renamed" || resp.Country != "Peru" {
		t.Fatalf("patched=%+v", resp)
	}
}

func TestPatchBeanRequiresAField(t *testing.T) {
	router := newAPI(t)
	created := createBean(t, router, "Midnight", "Peru")

	rec := doJSON(t, router, http.MethodPatch, beanPath(created), map[string]any{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d, want 400", rec.Code)
	}
}

func TestDeleteBean(t *testing.T) {
	router := newAPI(t)
	created := createBean(t, router, "Midnight", "Peru")

	rec := doJSON(t, router, http.MethodDelete, beanPath(created), nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("DELETE: status=%d body=%s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodGet, beanPath(created), nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("GET after delete: status=%d, want 404", rec.Code)
	}

	rec = doJSON(t, router, http.MethodDelete, beanPath(created), nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("repeat DELETE: status=%d, want 404", rec.Code)
	}
}

func TestBeanOfTheDayEndpoint(t *testing.T) {
	router := newAPI(t)
	created := createBean(t, router, "Midnight", "Peru")

	rec := doJSON(t, router, http.MethodGet, "/beans/of-the-day", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	var resp mappers.BeanResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ID != created.ID {
		t.Fatalf("of-the-day=%q, want the only bean %q", resp.ID, created.ID)
	}

	// Repeat call on the same day returns the recorded pick.
	rec = doJSON(t, router, http.MethodGet, "/beans/of-the-day", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("repeat: status=%d", rec.Code)
	}
	var repeat mappers.BeanResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &repeat); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if repeat.ID != resp.ID {
		t.Fatalf("repeat pick %q differs from %q", repeat.ID, resp.ID)
	}
}

func TestBeanOfTheDayEmptyCatalog(t *testing.T) {
	router := newAPI(t)
	rec := doJSON(t, router, http.MethodGet, "/beans/of-the-day", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status=%d, want 404", rec.Code)
	}
}

func TestMethodAndRoutePrecedence(t *testing.T) {
	router := newAPI(t)
	createBean(t, router, "Midnight", "Peru")

	// "of-the-day" must not be swallowed by the :id route.
	rec := doJSON(t, router, http.MethodGet, "/beans/of-the-day", nil)
	if rec.Code == http.StatusBadRequest {
		t.Fatalf("of-the-day was parsed as a bean id: %s", rec.Body.String())
	}
}

func TestPutMalformedBody(t *testing.T) {
	router := newAPI(t)
	req := httptest.NewRequest(http.MethodPut, "/beans/"+uuid.NewString(), strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d, want 400", rec.Code)
	}
}

func TestCreateBeanUnknownColourRejected(t *testing.T) {
	router := newAPI(t)
	payload := createPayload("Midnight", "Peru")
	payload["colour"] = "ultraviolet"
	rec := doJSON(t, router, http.MethodPost, "/beans", payload)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d body=%s, want 400", rec.Code, rec.Body.String())
	}
}
