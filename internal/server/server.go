// Package server exposes the generator over HTTP for editor and CI previews.
package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/satyammistari/sqlcollections/internal/config"
	"github.com/satyammistari/sqlcollections/internal/generator"
	"github.com/satyammistari/sqlcollections/internal/pipeline"
	"github.com/satyammistari/sqlcollections/internal/relations"
	"github.com/satyammistari/sqlcollections/internal/reporter"
	"github.com/satyammistari/sqlcollections/internal/schema"
)

// maxSchemaBytes caps the request body.
const maxSchemaBytes = 4 << 20

type response struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Line    int    `json:"line,omitempty"`
}

func fail(c *gin.Context, code int, err error, message string) {
	resp := response{Status: "error", Message: message}
	if err != nil {
		resp.Error = err.Error()
	}
	var se *schema.SchemaError
	if errors.As(err, &se) {
		resp.Line = se.Line
	}
	c.JSON(code, resp)
}

// Handler generates documents with base as the default configuration.
type Handler struct {
	base    generator.Config
	section string
}

func NewHandler(base generator.Config, section string) *Handler {
	return &Handler{base: base, section: section}
}

// Generate reads a schema from the body and responds with the encoded
// document. Schema problems are 422, bad parameters 400.
func (h *Handler) Generate(c *gin.Context) {
	format, err := config.ParseFormat(c.DefaultQuery("format", string(config.YAML)))
	if err != nil {
		fail(c, http.StatusBadRequest, err, "Invalid format")
		return
	}
	cfg := h.base
	if d := c.Query("dialect"); d != "" {
		dialect, err := generator.ParseDialect(d)
		if err != nil {
			fail(c, http.StatusBadRequest, err, "Invalid dialect")
			return
		}
		cfg.Dialect = dialect
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxSchemaBytes+1))
	if err != nil {
		fail(c, http.StatusBadRequest, err, "Failed to read body")
		return
	}
	if len(body) > maxSchemaBytes {
		fail(c, http.StatusRequestEntityTooLarge, nil, "Schema too large")
		return
	}

	res, err := pipeline.Run(c.Request.Context(), string(body), pipeline.Options{Generator: cfg})
	if err != nil {
		if isSchemaError(err) {
			fail(c, http.StatusUnprocessableEntity, err, "Schema rejected")
			return
		}
		fail(c, http.StatusInternalServerError, err, "Generation failed")
		return
	}
	out, err := res.Document.Marshal(format, h.section)
	if err != nil {
		fail(c, http.StatusInternalServerError, err, "Encoding failed")
		return
	}
	c.Header("X-Fingerprint", fmt.Sprintf("%016x", config.Fingerprint(out)))
	c.Data(http.StatusOK, contentType(format), out)
}

func isSchemaError(err error) bool {
	var (
		se *schema.SchemaError
		ur *relations.UnresolvedReferenceError
		ce *relations.CyclicDependencyError
		ee *generator.EmptySelectError
	)
	return errors.As(err, &se) || errors.As(err, &ur) || errors.As(err, &ce) || errors.As(err, &ee)
}

func contentType(f config.Format) string {
	switch f {
	case config.JSON:
		return "application/json; charset=utf-8"
	case config.TOML:
		return "application/toml; charset=utf-8"
	}
	return "application/yaml; charset=utf-8"
}

// NewRouter registers the routes on a gin engine with permissive CORS.
func NewRouter(h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if reporter.Verbose {
		router.Use(gin.Logger())
	}
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:    []string{"Content-Type"},
		ExposeHeaders:   []string{"X-Fingerprint"},
		MaxAge:          12 * time.Hour,
	}))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, response{Status: "success", Message: "ok"})
	})
	v1 := router.Group("/v1")
	{
		v1.POST("/generate", h.Generate)
	}
	return router
}

// New returns an http.Server listening on addr.
func New(addr string, h *Handler) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      NewRouter(h),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}
