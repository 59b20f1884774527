// Package web provides the embedded web UI for the calculator.
package web

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/lemonberrylabs/bitcalc/pkg/arith"
	"github.com/lemonberrylabs/bitcalc/pkg/calculator"
	"github.com/lemonberrylabs/bitcalc/pkg/expr"
	"github.com/lemonberrylabs/bitcalc/pkg/store"
)

//go:embed templates/*.html
var templateFS embed.FS

// recentLimit is the number of calculations shown on the dashboard.
const recentLimit = 20

// Handler serves the web UI pages.
type Handler struct {
	calc    *calculator.Calculator
	funcMap template.FuncMap
}

// pageData wraps all page-specific data with common fields.
type pageData struct {
	NavActive string
	WordWidth int
	Data      any
}

// New creates a new web UI handler.
func New(calc *calculator.Calculator) *Handler {
	return &Handler{
		calc: calc,
		funcMap: template.FuncMap{
			"timeAgo":     timeAgo,
			"formatTime":  formatTime,
			"joinTokens":  joinTokens,
			"resultClass": resultClass,
			"formatStack": formatStack,
			"truncate":    truncate,
		},
	}
}

func (h *Handler) render(c *fiber.Ctx, page string, navActive string, data any) error {
	// Parse per page so define blocks do not clash across pages.
	tmpl := template.Must(
		template.New("").Funcs(h.funcMap).ParseFS(templateFS, "templates/layout.html", "templates/"+page),
	)

	pd := pageData{
		NavActive: navActive,
		WordWidth: arith.Width,
		Data:      data,
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, page, pd); err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString(fmt.Sprintf("template error: %v", err))
	}

	c.Set("Content-Type", "text/html; charset=utf-8")
	return c.Send(buf.Bytes())
}

// Register adds web UI routes to the Fiber app.
func (h *Handler) Register(app *fiber.App) {
	app.Get("/ui", h.dashboard)
	app.Post("/ui/evaluate", h.evaluate)
	app.Get("/ui/calculations/:id", h.calculationDetail)
	app.Get("/ui/operators", h.operatorList)

	// Redirect root to UI
	app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect("/ui")
	})
}

// --- Page Data Types ---

type dashboardContent struct {
	Expression   string
	FormError    string
	Calculations []*store.Calculation
}

type calculationContent struct {
	Calculation *store.Calculation
	Trace       *expr.Trace
}

type operatorContent struct {
	Operators []expr.Operator
	MaxWord   arith.Word
	MinWord   arith.Word
}

type notFoundContent struct {
	Message string
}

// --- Page Handlers ---

func (h *Handler) dashboard(c *fiber.Ctx) error {
	return h.renderDashboard(c, "", "")
}

func (h *Handler) renderDashboard(c *fiber.Ctx, expression, formError string) error {
	calcs, err := h.calc.History().List(c.UserContext(), recentLimit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString(err.Error())
	}
	return h.render(c, "dashboard.html", "dashboard", dashboardContent{
		Expression:   expression,
		FormError:    formError,
		Calculations: calcs,
	})
}

func (h *Handler) evaluate(c *fiber.Ctx) error {
	expression := strings.TrimSpace(c.FormValue("expression"))
	resp, err := h.calc.Evaluate(c.UserContext(), calculator.Request{Expression: expression})
	if errors.Is(err, calculator.ErrInvalidRequest) {
		c.Status(fiber.StatusBadRequest)
		return h.renderDashboard(c, expression, err.Error())
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString(err.Error())
	}
	return c.Redirect("/ui/calculations/"+resp.Calculation.ID, fiber.StatusSeeOther)
}

func (h *Handler) calculationDetail(c *fiber.Ctx) error {
	id := c.Params("id")
	calc, err := h.calc.History().Get(c.UserContext(), id)
	if err != nil {
		c.Status(fiber.StatusNotFound)
		return h.render(c, "not_found.html", "", notFoundContent{
			Message: fmt.Sprintf("Calculation '%s' not found", id),
		})
	}

	// Evaluation is deterministic, so the trace is rebuilt rather than stored.
	return h.render(c, "calculation.html", "dashboard", calculationContent{
		Calculation: calc,
		Trace:       expr.Explain(calc.Tokens, h.calc.ErrorMessage()),
	})
}

func (h *Handler) operatorList(c *fiber.Ctx) error {
	return h.render(c, "operators.html", "operators", operatorContent{
		Operators: expr.Operators(),
		MaxWord:   arith.MaxWord,
		MinWord:   arith.MinWord,
	})
}

// --- Template Helpers ---

func timeAgo(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		m := int(d.Minutes())
		if m == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", m)
	case d < 24*time.Hour:
		h := int(d.Hours())
		if h == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", h)
	default:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04:05")
}

func joinTokens(tokens []string) string {
	return strings.Join(tokens, " ")
}

func resultClass(calc *store.Calculation) string {
	if calc.Error != "" {
		return "result-error"
	}
	return "result-ok"
}

func formatStack(stack []arith.Word) string {
	parts := make([]string, len(stack))
	for i, w := range stack {
		parts[i] = expr.FormatWord(w)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// truncate shortens s to maxLen runes.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
