package echoapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/ripoti/core"
)

func Test_bindOrdering(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []core.DBOrdering
	}{
		{name: "none", query: "", want: nil},
		{name: "empty", query: "?ordering=", want: nil},
		{name: "single", query: "?ordering=name", want: []core.DBOrdering{{Field: "name", Ascending: true}}},
		{
			name:  "list",
			query: "?ordering=-grade,%20student_id",
			want:  []core.DBOrdering{{Field: "grade", Ascending: false}, {Field: "student_id", Ascending: true}},
		},
		{
			name:  "repeated param",
			query: "?ordering=name&ordering=-created_at",
			want:  []core.DBOrdering{{Field: "name", Ascending: true}, {Field: "created_at", Ascending: false}},
		},
		{name: "blank entries", query: "?ordering=,-,name,", want: []core.DBOrdering{{Field: "name", Ascending: true}}},
		{name: "duplicates", query: "?ordering=-name,name", want: []core.DBOrdering{{Field: "name", Ascending: false}}},
	}
	e := echo.New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/students"+tt.query, nil)
			ctx := e.NewContext(req, httptest.NewRecorder())
			assert.Equal(t, tt.want, bindOrdering(ctx))
		})
	}
}
