package api

import (
	"net/http"
	"strings"
	"testing"
)

func TestProjectEDL_HappyPath(t *testing.T) {
	router := NewRouter(testConfig(t))
	doRequest(t, router, http.MethodPut, "/api/projects/proj_1", []byte(sampleProject))

	rr := doRequest(t, router, http.MethodGet, "/api/projects/proj_1/edl", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	if got := rr.Header().Get("Content-Disposition"); got != `attachment; filename="Promo-proj_1.edl"` {
		t.Fatalf("Content-Disposition = %q", got)
	}
	edl := rr.Body.String()
	if !strings.HasPrefix(edl, "TITLE: Promo\n") {
		t.Fatalf("EDL = %q", edl)
	}
	if !strings.Contains(edl, "001  AX       V     C        00:00:00:00 00:00:02:00 00:00:00:00 00:00:02:00") {
		t.Fatalf("missing event line: %q", edl)
	}
}

func TestProjectEDL_NotFound(t *testing.T) {
	router := NewRouter(testConfig(t))

	rr := doRequest(t, router, http.MethodGet, "/api/projects/missing/edl", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
}

func TestProjectEDL_EmptyTimeline(t *testing.T) {
	router := NewRouter(testConfig(t))
	doRequest(t, router, http.MethodPut, "/api/projects/empty", []byte(`{"id":"empty","name":"Empty","assets":[]}`))

	rr := doRequest(t, router, http.MethodGet, "/api/projects/empty/edl", nil)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rr.Code)
	}
	if code := decodeJSONBody(t, rr)["code"]; code != "EMPTY_TIMELINE" {
		t.Fatalf("code = %v", code)
	}
}

func TestProjectEDL_UndecodableProject(t *testing.T) {
	router := NewRouter(testConfig(t))
	doRequest(t, router, http.MethodPut, "/api/projects/odd", []byte(`{"id":"odd","assets":"not-a-list"}`))

	rr := doRequest(t, router, http.MethodGet, "/api/projects/odd/edl", nil)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rr.Code)
	}
}
