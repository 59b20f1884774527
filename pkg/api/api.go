// Package api implements the REST API of the calculator server.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"

	"github.com/lemonberrylabs/bitcalc/pkg/arith"
	"github.com/lemonberrylabs/bitcalc/pkg/calculator"
	"github.com/lemonberrylabs/bitcalc/pkg/expr"
	"github.com/lemonberrylabs/bitcalc/pkg/store"
)

// Server is the REST API server.
type Server struct {
	app  *fiber.App
	calc *calculator.Calculator
}

// New creates a new API server backed by calc. When accessLog is true every
// request is logged by fiber's logger middleware.
func New(calc *calculator.Calculator, accessLog bool) *Server {
	srv := &Server{calc: calc}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
	})
	if accessLog {
		app.Use(logger.New())
	}

	app.Get("/healthz", srv.health)

	app.Post("/v1/evaluate", srv.evaluate)
	app.Post("/v1/arith/:op", srv.apply)
	app.Get("/v1/operators", srv.listOperators)

	app.Get("/v1/calculations", srv.listCalculations)
	app.Get("/v1/calculations/:id", srv.getCalculation)
	app.Delete("/v1/calculations", srv.clearCalculations)

	srv.app = app
	return srv
}

// Listen starts the HTTP server on the given address.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App returns the underlying Fiber app (useful for testing).
func (s *Server) App() *fiber.App {
	return s.app
}

// apiError writes the error envelope used by every endpoint.
func apiError(c *fiber.Ctx, code int, status, message string) error {
	return c.Status(code).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": message,
			"status":  status,
		},
	})
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok", "wordWidth": arith.Width})
}

// --- Evaluation ---

type evaluateRequest struct {
	Expression string   `json:"expression"`
	Tokens     []string `json:"tokens"`
	Explain    bool     `json:"explain"`
}

func (s *Server) evaluate(c *fiber.Ctx) error {
	var req evaluateRequest
	if err := c.BodyParser(&req); err != nil {
		return apiError(c, 400, "INVALID_ARGUMENT", fmt.Sprintf("invalid request body: %v", err))
	}

	resp, err := s.calc.Evaluate(c.UserContext(), calculator.Request{
		Expression: req.Expression,
		Tokens:     req.Tokens,
		Explain:    req.Explain,
	})
	if errors.Is(err, calculator.ErrInvalidRequest) {
		return apiError(c, 400, "INVALID_ARGUMENT", err.Error())
	}
	if err != nil {
		slog.Error("evaluate failed", "error", err)
		return apiError(c, 500, "INTERNAL", err.Error())
	}

	out := calculationToJSON(resp.Calculation)
	if resp.Trace != nil {
		out["trace"] = resp.Trace
	}
	return c.JSON(out)
}

type applyRequest struct {
	A json.Number `json:"a"`
	B json.Number `json:"b"`
}

func (s *Server) apply(c *fiber.Ctx) error {
	op := c.Params("op")

	var req applyRequest
	if err := c.BodyParser(&req); err != nil {
		return apiError(c, 400, "INVALID_ARGUMENT", fmt.Sprintf("invalid request body: %v", err))
	}
	a, err := operand(req.A)
	if err != nil {
		return apiError(c, 400, "INVALID_ARGUMENT", fmt.Sprintf("operand a: %v", err))
	}
	b, err := operand(req.B)
	if err != nil {
		return apiError(c, 400, "INVALID_ARGUMENT", fmt.Sprintf("operand b: %v", err))
	}

	result, err := s.calc.Apply(op, a, b)
	if err != nil {
		return apiError(c, 404, "NOT_FOUND", err.Error())
	}
	return c.JSON(fiber.Map{
		"operation": op,
		"a":         a,
		"b":         b,
		"result":    result,
	})
}

// operand parses an integer operand with literal clamping. A missing operand
// is 0.
func operand(n json.Number) (arith.Word, error) {
	if n == "" {
		return 0, nil
	}
	return expr.ParseLiteral(n.String())
}

func (s *Server) listOperators(c *fiber.Ctx) error {
	ops := expr.Operators()
	items := make([]fiber.Map, len(ops))
	for i, op := range ops {
		items[i] = fiber.Map{
			"symbol":        op.Symbol,
			"name":          op.Name,
			"precedence":    op.Precedence,
			"associativity": op.Associativity.String(),
			"unary":         op.Unary,
		}
	}
	return c.JSON(fiber.Map{"operators": items})
}

// --- History ---

func (s *Server) listCalculations(c *fiber.Ctx) error {
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return apiError(c, 400, "INVALID_ARGUMENT", fmt.Sprintf("invalid limit %q", v))
		}
		limit = n
	}

	calcs, err := s.calc.History().List(c.UserContext(), limit)
	if err != nil {
		return apiError(c, 500, "INTERNAL", err.Error())
	}

	items := make([]fiber.Map, len(calcs))
	for i, calc := range calcs {
		items[i] = calculationToJSON(calc)
	}
	return c.JSON(fiber.Map{"calculations": items})
}

func (s *Server) getCalculation(c *fiber.Ctx) error {
	calc, err := s.calc.History().Get(c.UserContext(), c.Params("id"))
	if errors.Is(err, store.ErrNotFound) {
		return apiError(c, 404, "NOT_FOUND", err.Error())
	}
	if err != nil {
		return apiError(c, 500, "INTERNAL", err.Error())
	}
	return c.JSON(calculationToJSON(calc))
}

func (s *Server) clearCalculations(c *fiber.Ctx) error {
	n, err := s.calc.History().Clear(c.UserContext())
	if err != nil {
		return apiError(c, 500, "INTERNAL", err.Error())
	}
	return c.JSON(fiber.Map{"deleted": n})
}

func calculationToJSON(calc *store.Calculation) fiber.Map {
	m := fiber.Map{
		"id":         calc.ID,
		"tokens":     calc.Tokens,
		"result":     calc.Result,
		"createTime": calc.CreateTime.Format(time.RFC3339Nano),
	}
	if calc.Expression != "" {
		m["expression"] = calc.Expression
	}
	if len(calc.Postfix) > 0 {
		m["postfix"] = calc.Postfix
	}
	if calc.Error != "" {
		m["error"] = calc.Error
	}
	return m
}
