package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/satyammistari/sqlcollections/internal/generator"
)

const blogSchema = `
-- @collection
CREATE TABLE blog (
  id INTEGER PRIMARY KEY, -- ignore
  slug TEXT,
  title TEXT
);

-- @attribute
CREATE TABLE tags (
  id INTEGER PRIMARY KEY, -- ignore
  name TEXT -- @aggregate
);

CREATE TABLE blog_tags (
  blog_id INTEGER REFERENCES blog(id),
  tag_id INTEGER REFERENCES tags(id)
);
`

func init() {
	gin.SetMode(gin.TestMode)
}

func do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	router := NewRouter(NewHandler(generator.DefaultConfig(), ""))
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	rec := do(t, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestGenerate(t *testing.T) {
	tests := []struct {
		name   string
		target string
		want   []string
		ctype  string
	}{
		{"yaml", "/v1/generate", []string{"insert_sql:", "INSERT INTO blog (slug, title) VALUES ($1, $2)", "array_agg(DISTINCT tags.name)"}, "application/yaml"},
		{"json", "/v1/generate?format=json", []string{`"insert_sql"`, `"read_sql"`}, "application/json"},
		{"sqlite", "/v1/generate?dialect=sqlite", []string{"VALUES (?, ?)", "json_group_array(DISTINCT tags.name)"}, "application/yaml"},
		{"toml", "/v1/generate?format=toml", []string{"[insert_sql]"}, "application/toml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, http.MethodPost, tt.target, blogSchema)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d: %s", rec.Code, rec.Body)
			}
			if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, tt.ctype) {
				t.Errorf("content type = %q", ct)
			}
			if rec.Header().Get("X-Fingerprint") == "" {
				t.Error("missing fingerprint header")
			}
			for _, w := range tt.want {
				if !strings.Contains(rec.Body.String(), w) {
					t.Errorf("body missing %q:\n%s", w, rec.Body)
				}
			}
		})
	}
}

func TestGenerateErrors(t *testing.T) {
	tests := []struct {
		name   string
		target string
		body   string
		code   int
	}{
		{"bad format", "/v1/generate?format=xml", blogSchema, http.StatusBadRequest},
		{"bad dialect", "/v1/generate?dialect=oracle", blogSchema, http.StatusBadRequest},
		{"malformed", "/v1/generate", "CREATE TABLE t (\n  id INTEGER,\n", http.StatusUnprocessableEntity},
		{"unresolved", "/v1/generate", "-- @collection\nCREATE TABLE a (b_id INTEGER REFERENCES b(id));", http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, http.MethodPost, tt.target, tt.body)
			if rec.Code != tt.code {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.code, rec.Body)
			}
			var resp response
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatal(err)
			}
			if resp.Status != "error" || resp.Error == "" {
				t.Errorf("response = %+v", resp)
			}
		})
	}
}
