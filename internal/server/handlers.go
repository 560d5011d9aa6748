package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/ginjaninja78/purchase-order-xml/internal/currency"
	"github.com/ginjaninja78/purchase-order-xml/internal/dom"
	"github.com/ginjaninja78/purchase-order-xml/internal/form"
	"github.com/ginjaninja78/purchase-order-xml/internal/generator"
	"github.com/ginjaninja78/purchase-order-xml/internal/populate"
	"github.com/ginjaninja78/purchase-order-xml/internal/reorder"
	"github.com/ginjaninja78/purchase-order-xml/internal/types"
	"github.com/ginjaninja78/purchase-order-xml/internal/validation"
)

// FormRequest carries the form HTML.
type FormRequest struct {
	HTML string `json:"html" binding:"required"`
}

// ReorderRequest selects a layout operation; see reorder.Request.
type ReorderRequest struct {
	HTML string `json:"html" binding:"required"`
	reorder.Request
}

// PopulateRequest selects the field source: "random" (Seed, LineItems),
// "chatgpt" (Industry, CompanyType) or "fields".
type PopulateRequest struct {
	HTML        string            `json:"html" binding:"required"`
	Source      string            `json:"source" binding:"required"`
	Fields      map[string]string `json:"fields"`
	Industry    string            `json:"industry"`
	CompanyType string            `json:"companyType"`
	Seed        uint64            `json:"seed"`
	LineItems   int               `json:"lineItems"`
	Clear       bool              `json:"clear"`
}

// EditRequest sets one field.
type EditRequest struct {
	HTML  string `json:"html" binding:"required"`
	Field string `json:"field" binding:"required"`
	Value string `json:"value"`
}

func parseForm(c *gin.Context, raw string) (*html.Node, bool) {
	doc, err := dom.ParseString(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid form HTML", "details": err.Error()})
		return nil, false
	}
	return doc, true
}

func renderForm(c *gin.Context, doc *html.Node) (string, bool) {
	out, err := dom.Render(doc)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render form", "details": err.Error()})
		return "", false
	}
	return out, true
}

// statusOf maps engine errors to HTTP statuses.
func statusOf(err error) int {
	switch {
	case errors.Is(err, dom.ErrMissingAnchor):
		return http.StatusUnprocessableEntity
	case errors.Is(err, reorder.ErrRowReorderDisabled):
		return http.StatusForbidden
	case errors.Is(err, types.ErrUnknownField),
		errors.Is(err, reorder.ErrNotDraggable),
		errors.Is(err, reorder.ErrIndexOutOfRange),
		errors.Is(err, reorder.ErrColumnLimit):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// Template serves the default form.
func (s *Server) Template() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(form.Default()))
	}
}

// Generate returns a random field map. Query: seed, lines, options.
func (s *Server) Generate() gin.HandlerFunc {
	return func(c *gin.Context) {
		gen, err := newGenerator(c.Query("seed"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid seed", "details": err.Error()})
			return
		}
		if lines := c.Query("lines"); lines != "" {
			n, err := strconv.Atoi(lines)
			if err != nil || n < 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid lines"})
				return
			}
			gen.LineItems = n
		}
		gen.WithOptions = c.Query("options") == "true"
		c.JSON(http.StatusOK, gin.H{"fields": gen.Generate()})
	}
}

func newGenerator(seed string) (*generator.Generator, error) {
	if seed == "" {
		return generator.NewRandom(), nil
	}
	n, err := strconv.ParseUint(seed, 10, 64)
	if err != nil {
		return nil, err
	}
	return generator.New(n), nil
}

// Export converts form HTML to XML.
func (s *Server) Export() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req FormRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		doc, ok := parseForm(c, req.HTML)
		if !ok {
			return
		}

		out, err := s.exporter.Export(doc)
		if err != nil {
			c.JSON(statusOf(err), gin.H{"error": "Failed to export form", "details": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"xml":         out.XML,
			"poNumber":    out.Snapshot.PONumber,
			"headerColor": out.Layout.HeaderColor,
		})
	}
}

// Reorder applies one swap and returns the updated form.
func (s *Server) Reorder() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ReorderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		doc, ok := parseForm(c, req.HTML)
		if !ok {
			return
		}

		if err := s.engine.Apply(doc, req.Request); err != nil {
			c.JSON(statusOf(err), gin.H{"error": "Failed to reorder", "details": err.Error()})
			return
		}
		out, ok := renderForm(c, doc)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"html": out})
	}
}

// Populate fills the form from the selected source and recalculates.
func (s *Server) Populate() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PopulateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		doc, ok := parseForm(c, req.HTML)
		if !ok {
			return
		}

		var fields map[string]string
		switch req.Source {
		case "random":
			gen := generator.NewRandom()
			if req.Seed != 0 {
				gen = generator.New(req.Seed)
			}
			if req.LineItems > 0 {
				gen.LineItems = req.LineItems
			}
			fields = gen.Generate()
		case "chatgpt":
			var err error
			fields, err = s.llm.Generate(c.Request.Context(), req.Industry, req.CompanyType)
			if err != nil {
				s.logger.Warn("chatgpt populate failed", zap.Error(err))
				c.JSON(statusOf(err), gin.H{"error": "Failed to generate data", "details": err.Error()})
				return
			}
		case "fields":
			fields = req.Fields
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown source %q", req.Source)})
			return
		}

		if req.Clear {
			populate.Clear(doc)
		}
		rep := s.populator.Apply(doc, fields)
		s.calc.RecalculateAll(doc)

		out, ok := renderForm(c, doc)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"html": out, "report": rep})
	}
}

// Edit sets one field and applies the recalculation the edit triggers.
func (s *Server) Edit() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req EditRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		doc, ok := parseForm(c, req.HTML)
		if !ok {
			return
		}

		field, err := s.populator.Locate(doc, req.Field)
		if err != nil {
			c.JSON(statusOf(err), gin.H{"error": "Failed to locate field", "details": err.Error()})
			return
		}
		dom.SetText(field, currency.FixDoubleSymbol(req.Value))
		s.calc.FieldEdited(doc, field)

		snap, err := s.exporter.Extract(doc)
		if err != nil {
			c.JSON(statusOf(err), gin.H{"error": "Failed to read form", "details": err.Error()})
			return
		}
		out, ok := renderForm(c, doc)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"html": out, "totals": snap.Totals})
	}
}

// Validate reports the filled/empty state and warnings of the form.
func (s *Server) Validate() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req FormRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		doc, ok := parseForm(c, req.HTML)
		if !ok {
			return
		}

		snap, err := s.exporter.Extract(doc)
		if err != nil {
			c.JSON(statusOf(err), gin.H{"error": "Failed to read form", "details": err.Error()})
			return
		}
		c.JSON(http.StatusOK, validation.Validate(snap))
	}
}

// ChatGPT proxies a chat-completions request body to OpenAI with the
// server-side key.
func (s *Server) ChatGPT() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
			return
		}
		if !s.llm.Configured() {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "OpenAI API key not configured"})
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request", "details": err.Error()})
			return
		}
		status, resp, err := s.llm.Forward(c.Request.Context(), body)
		if err != nil {
			s.logger.Error("chatgpt proxy failed", zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to reach OpenAI", "details": err.Error()})
			return
		}
		c.Data(status, "application/json", resp)
	}
}
