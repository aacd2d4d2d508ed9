package paging

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestParseDefaults(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/activities", nil)
	p := Parse(r)
	if p.Page != 1 || p.Limit != DefaultLimit {
		t.Errorf("defaults: got %+v", p)
	}
}

func TestParseExplicitValues(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/activities?page=3&limit=50", nil)
	p := Parse(r)
	if p.Page != 3 || p.Limit != 50 {
		t.Errorf("explicit: got %+v", p)
	}
}

func TestParseClampsAndIgnoresGarbage(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/activities?page=-2&limit=9999", nil)
	p := Parse(r)
	if p.Page != 1 {
		t.Errorf("negative page: got %d, want 1", p.Page)
	}
	if p.Limit != MaxLimit {
		t.Errorf("oversized limit: got %d, want %d", p.Limit, MaxLimit)
	}

	r = httptest.NewRequest(http.MethodGet, "/api/activities?page=abc&limit=xyz", nil)
	p = Parse(r)
	if p.Page != 1 || p.Limit != DefaultLimit {
		t.Errorf("garbage values: got %+v", p)
	}
}
