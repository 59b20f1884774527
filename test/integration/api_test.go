package integration

import (
	"net/http"
	"testing"
)

// TestAPI_EvaluateExpression verifies evaluating a free-form expression.
func TestAPI_EvaluateExpression(t *testing.T) {
	code, out := postJSON(t, "evaluate", map[string]any{"expression": "(2 + 3) * 4", "explain": true})
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", code, out)
	}
	if out["result"] != "20" {
		t.Errorf("expected result 20, got %v", out["result"])
	}
	trace, ok := out["trace"].(map[string]any)
	if !ok {
		t.Fatal("expected trace in response")
	}
	steps, _ := trace["steps"].([]any)
	if len(steps) != 5 {
		t.Errorf("expected 5 steps, got %d", len(steps))
	}
}

// TestAPI_EvaluateInvalid verifies the error envelope for bad requests.
func TestAPI_EvaluateInvalid(t *testing.T) {
	code, out := postJSON(t, "evaluate", map[string]any{})
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
	errObj, _ := out["error"].(map[string]any)
	if errObj["status"] != "INVALID_ARGUMENT" {
		t.Errorf("expected INVALID_ARGUMENT, got %v", errObj["status"])
	}
}

// TestAPI_Arith verifies single operations.
func TestAPI_Arith(t *testing.T) {
	code, out := postJSON(t, "arith/multiply", map[string]any{"a": 6, "b": 7})
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", code, out)
	}
	if out["result"] != float64(42) {
		t.Errorf("expected 42, got %v", out["result"])
	}

	code, _ = postJSON(t, "arith/modulo", map[string]any{"a": 6, "b": 7})
	if code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown operation, got %d", code)
	}
}

// TestAPI_CalculationHistory verifies that evaluations are recorded.
func TestAPI_CalculationHistory(t *testing.T) {
	code, out := postJSON(t, "evaluate", map[string]any{"tokens": []string{"40", "+", "2"}})
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	id, _ := out["id"].(string)
	if id == "" {
		t.Fatal("expected calculation id")
	}

	code, got := getJSON(t, "calculations/"+id)
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if got["result"] != "42" {
		t.Errorf("expected stored result 42, got %v", got["result"])
	}

	code, list := getJSON(t, "calculations?limit=1")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	calcs, _ := list["calculations"].([]any)
	if len(calcs) != 1 {
		t.Fatalf("expected 1 calculation, got %d", len(calcs))
	}

	code, _ = getJSON(t, "calculations/does-not-exist")
	if code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", code)
	}
}

// TestAPI_Operators verifies the operator table endpoint.
func TestAPI_Operators(t *testing.T) {
	code, out := getJSON(t, "operators")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	ops, _ := out["operators"].([]any)
	if len(ops) != 6 {
		t.Errorf("expected 6 operators, got %d", len(ops))
	}
}
