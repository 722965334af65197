package httputil

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func paginationContext(query string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?"+query, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec)
}

func TestParsePagination(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantPage   int
		wantLimit  int
		wantOffset int
	}{
		{"defaults", "", 1, 20, 0},
		{"explicit", "page=3&limit=10", 3, 10, 20},
		{"limit capped", "limit=500", 1, 100, 0},
		{"zero page falls back", "page=0", 1, 20, 0},
		{"negative values fall back", "page=-1&limit=-5", 1, 20, 0},
		{"garbage falls back", "page=abc&limit=xyz", 1, 20, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, limit, offset := ParsePagination(paginationContext(tt.query))
			if page != tt.wantPage || limit != tt.wantLimit || offset != tt.wantOffset {
				t.Errorf("got %d/%d/%d, want %d/%d/%d",
					page, limit, offset, tt.wantPage, tt.wantLimit, tt.wantOffset)
			}
		})
	}
}

func TestBuildMeta(t *testing.T) {
	tests := []struct {
		name  string
		total int64
		page  int
		limit int
		want  Meta
	}{
		{
			name:  "middle page",
			total: 45, page: 2, limit: 20,
			want: Meta{Page: 2, Limit: 20, Total: 45, TotalPages: 3, HasNextPage: true, HasPrevPage: true},
		},
		{
			name:  "first page",
			total: 45, page: 1, limit: 20,
			want: Meta{Page: 1, Limit: 20, Total: 45, TotalPages: 3, HasNextPage: true, HasPrevPage: false},
		},
		{
			name:  "last page",
			total: 45, page: 3, limit: 20,
			want: Meta{Page: 3, Limit: 20, Total: 45, TotalPages: 3, HasNextPage: false, HasPrevPage: true},
		},
		{
			name:  "empty result",
			total: 0, page: 1, limit: 20,
			want: Meta{Page: 1, Limit: 20, Total: 0, TotalPages: 0, HasNextPage: false, HasPrevPage: false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuildMeta(tt.total, tt.page, tt.limit); got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}
