package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/ginjaninja78/purchase-order-xml/internal/config"
	"github.com/ginjaninja78/purchase-order-xml/internal/converter"
	"github.com/ginjaninja78/purchase-order-xml/internal/dom"
	"github.com/ginjaninja78/purchase-order-xml/internal/extract"
	"github.com/ginjaninja78/purchase-order-xml/internal/form"
	"github.com/ginjaninja78/purchase-order-xml/internal/llm"
	"github.com/ginjaninja78/purchase-order-xml/internal/reorder"
	"github.com/ginjaninja78/purchase-order-xml/internal/sections"
	"github.com/ginjaninja78/purchase-order-xml/internal/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(t *testing.T, client *llm.Client) *gin.Engine {
	t.Helper()
	cfg := config.DefaultMainConfig()
	exporter, err := converter.NewExporter(cfg, nil)
	require.NoError(t, err)
	return New(cfg, exporter, client, nil).Router()
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func parse(t *testing.T, raw string) *html.Node {
	t.Helper()
	doc, err := dom.ParseString(raw)
	require.NoError(t, err)
	return doc
}

func snapshotOf(t *testing.T, raw string) *types.Snapshot {
	t.Helper()
	snap, err := extract.New(nil, nil, nil).Extract(parse(t, raw))
	require.NoError(t, err)
	return snap
}

func TestTemplate(t *testing.T) {
	r := newRouter(t, nil)
	for _, path := range []string{"/", "/api/template"} {
		w := do(t, r, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, form.Default(), w.Body.String())
		assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	}
}

func TestGenerate(t *testing.T) {
	r := newRouter(t, nil)
	w := do(t, r, http.MethodGet, "/api/generate?seed=7&lines=2", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Fields map[string]string `json:"fields"`
	}
	decode(t, w, &resp)
	assert.NotEmpty(t, resp.Fields["poNumber"])
	assert.NotEmpty(t, resp.Fields["lineItem2Desc"])
	assert.Empty(t, resp.Fields["lineItem3Desc"])

	again := do(t, r, http.MethodGet, "/api/generate?seed=7&lines=2", nil)
	assert.Equal(t, w.Body.String(), again.Body.String())

	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodGet, "/api/generate?seed=x", nil).Code)
}

func TestPopulateEditExport(t *testing.T) {
	r := newRouter(t, nil)

	w := do(t, r, http.MethodPost, "/api/populate", PopulateRequest{
		HTML:   form.Default(),
		Source: "fields",
		Fields: map[string]string{
			"poNumber":      "PO-777",
			"lineItem1Item": "A-1",
			"lineItem1Qty":  "2",
			"lineItem1Rate": "10",
			"bogus":         "x",
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var populated struct {
		HTML   string `json:"html"`
		Report struct {
			Unknown []string `json:"unknown"`
		} `json:"report"`
	}
	decode(t, w, &populated)
	assert.Equal(t, []string{"bogus"}, populated.Report.Unknown)
	snap := snapshotOf(t, populated.HTML)
	assert.Equal(t, "20.00", snap.LineItems[0].Amount)
	assert.Equal(t, "20.00", snap.Totals.Subtotal)

	w = do(t, r, http.MethodPost, "/api/edit", EditRequest{HTML: populated.HTML, Field: "lineItem1Qty", Value: "3"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var edited struct {
		HTML   string       `json:"html"`
		Totals types.Totals `json:"totals"`
	}
	decode(t, w, &edited)
	assert.Equal(t, "30.00", edited.Totals.Subtotal)

	w = do(t, r, http.MethodPost, "/api/export", FormRequest{HTML: edited.HTML})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var exported map[string]string
	decode(t, w, &exported)
	assert.Equal(t, "PO-777", exported["poNumber"])
	assert.True(t, strings.HasPrefix(exported["xml"], "<?xml"))
}

func TestPopulateRandomIsConsistent(t *testing.T) {
	r := newRouter(t, nil)
	w := do(t, r, http.MethodPost, "/api/populate", PopulateRequest{HTML: form.Default(), Source: "random", Seed: 42})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		HTML string `json:"html"`
	}
	decode(t, w, &resp)

	w = do(t, r, http.MethodPost, "/api/validate", FormRequest{HTML: resp.HTML})
	require.Equal(t, http.StatusOK, w.Code)
	var report struct {
		Filled    int `json:"filled"`
		LineItems int `json:"lineItems"`
	}
	decode(t, w, &report)
	assert.Positive(t, report.Filled)
	assert.Positive(t, report.LineItems)
}

func TestReorder(t *testing.T) {
	r := newRouter(t, nil)

	w := do(t, r, http.MethodPost, "/api/reorder", ReorderRequest{
		HTML:    form.Default(),
		Request: reorder.Request{Op: reorder.OpPair, Group: "vendor"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		HTML string `json:"html"`
	}
	decode(t, w, &resp)
	assert.Equal(t, sections.ShipTo, sections.VendorOrder(parse(t, resp.HTML)).Left)

	cases := map[string]struct {
		html string
		req  reorder.Request
		code int
	}{
		"rows disabled": {form.Default(), reorder.Request{Op: reorder.OpRows, From: 0, To: 1}, http.StatusForbidden},
		"bad column":    {form.Default(), reorder.Request{Op: reorder.OpColumns, From: 1, To: 99}, http.StatusBadRequest},
		"bad section":   {form.Default(), reorder.Request{Op: reorder.OpSections, A: "header", B: "nowhere"}, http.StatusBadRequest},
		"unknown op":    {form.Default(), reorder.Request{Op: "spin"}, http.StatusBadRequest},
		"missing html":  {"", reorder.Request{Op: reorder.OpColumns}, http.StatusBadRequest},
		"no item table": {"<p>x</p>", reorder.Request{Op: reorder.OpColumns, From: 1, To: 2}, http.StatusUnprocessableEntity},
		"sections":      {form.Default(), reorder.Request{Op: reorder.OpSections, A: "vendor", B: "shipping"}, http.StatusOK},
		"columns":       {form.Default(), reorder.Request{Op: reorder.OpColumns, From: 1, To: 2}, http.StatusOK},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			w := do(t, r, http.MethodPost, "/api/reorder", ReorderRequest{HTML: tc.html, Request: tc.req})
			assert.Equal(t, tc.code, w.Code, w.Body.String())
		})
	}
}

func TestEditUnknownField(t *testing.T) {
	r := newRouter(t, nil)
	w := do(t, r, http.MethodPost, "/api/edit", EditRequest{HTML: form.Default(), Field: "nope", Value: "1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatGPTProxy(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"echo":` + string(body) + `}`))
	}))
	defer upstream.Close()

	client := llm.New(llm.Config{APIKey: "sk-test", BaseURL: upstream.URL}, nil)
	r := newRouter(t, client)

	w := do(t, r, http.MethodPost, "/api/chatgpt", map[string]any{"model": "gpt-4o-mini"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"echo":{"model":"gpt-4o-mini"}}`, w.Body.String())

	assert.Equal(t, http.StatusMethodNotAllowed, do(t, r, http.MethodGet, "/api/chatgpt", nil).Code)
}

func TestChatGPTWithoutKey(t *testing.T) {
	r := newRouter(t, nil)
	w := do(t, r, http.MethodPost, "/api/chatgpt", map[string]any{})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "not configured")

	w = do(t, r, http.MethodPost, "/api/populate", PopulateRequest{HTML: form.Default(), Source: "chatgpt"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestCORSConfig(t *testing.T) {
	assert.True(t, CORSConfig([]string{"*"}).AllowAllOrigins)
	c := CORSConfig([]string{"http://localhost:3000"})
	assert.False(t, c.AllowAllOrigins)
	assert.Equal(t, []string{"http://localhost:3000"}, c.AllowOrigins)
}
