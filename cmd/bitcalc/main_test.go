package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lemonberrylabs/bitcalc/pkg/arith"
	"github.com/lemonberrylabs/bitcalc/pkg/expr"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCommandPresence(t *testing.T) {
	cmd := newRootCommand()
	for _, name := range []string{"eval", "rpn", "apply", "ops", "batch", "history", "serve"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := newRootCommand()

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)

	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "text", format.DefValue)
}

func TestInvalidFormat(t *testing.T) {
	_, err := execute(t, "--format", "xml", "ops")
	require.Error(t, err)
	assert.Equal(t, exitCommandError, getExitCode(err))

	_, err = execute(t, "--log-format", "logfmt", "ops")
	assert.Equal(t, exitCommandError, getExitCode(err))
}

func TestEval(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"expression", []string{"eval", "(2 + 3) x 4"}, "20\n"},
		{"split arguments", []string{"eval", "2", "+", "3"}, "5\n"},
		{"tokens", []string{"eval", "--tokens", "2,+,3,x,4"}, "14\n"},
		{"negative literal", []string{"eval", "--", "-3 x 4"}, "-12\n"},
		{"saturates", []string{"eval", "2 ^ 99"}, expr.FormatWord(arith.MaxWord) + "\n"},
		{"single token", []string{"eval", "--tokens", "+"}, "+\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestEvalExplainJSON(t *testing.T) {
	out, err := execute(t, "--format", "json", "eval", "--explain", "√9")
	require.NoError(t, err)

	var got evalOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "3", got.Result)
	assert.Equal(t, []string{"√", "9"}, got.Tokens)
	assert.Equal(t, []string{"9", "√"}, got.Postfix)
	require.Len(t, got.Steps, 2)
	assert.Equal(t, []arith.Word{3}, got.Steps[1].Stack)
}

func TestEvalExplainText(t *testing.T) {
	out, err := execute(t, "eval", "--explain", "1 + 2")
	require.NoError(t, err)
	assert.Contains(t, out, "postfix: 1 2 +")
	assert.Contains(t, out, "[3]")
}

func TestEvalMalformed(t *testing.T) {
	out, err := execute(t, "eval", "--tokens", "(,+,)")
	require.Error(t, err)
	assert.Equal(t, exitFailure, getExitCode(err))
	assert.Equal(t, expr.ErrorMessage+"\n", out)

	out, err = execute(t, "--error-message", "ERR", "eval", "--tokens", "(,+,)")
	require.Error(t, err)
	assert.Equal(t, "ERR\n", out)
}

func TestEvalInvalidInput(t *testing.T) {
	_, err := execute(t, "eval")
	require.Error(t, err)
	assert.Equal(t, exitCommandError, getExitCode(err))

	_, err = execute(t, "eval", "2 % 3")
	assert.Equal(t, exitCommandError, getExitCode(err))
}

func TestHistory(t *testing.T) {
	db := filepath.Join(t.TempDir(), "history.db")

	_, err := execute(t, "eval", "--db", db, "1 + 2")
	require.NoError(t, err)
	_, err = execute(t, "eval", "--db", db, "6 ÷ 2")
	require.NoError(t, err)

	out, err := execute(t, "--format", "json", "history", "--db", db)
	require.NoError(t, err)
	var calcs []struct {
		Expression string `json:"expression"`
		Result     string `json:"result"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &calcs))
	require.Len(t, calcs, 2)
	assert.Equal(t, "6 ÷ 2", calcs[0].Expression)
	assert.Equal(t, "3", calcs[1].Result)

	out, err = execute(t, "history", "--db", db, "--clear")
	require.NoError(t, err)
	assert.Equal(t, "deleted 2 calculations\n", out)

	out, err = execute(t, "history", "--db", db)
	require.NoError(t, err)
	assert.NotContains(t, out, "1 + 2")
}

func TestHistoryRequiresDB(t *testing.T) {
	t.Setenv("BITCALC_DB", "")
	_, err := execute(t, "history")
	require.Error(t, err)
	assert.Equal(t, exitCommandError, getExitCode(err))
}

func TestRPN(t *testing.T) {
	out, err := execute(t, "rpn", "2", "3", "4", "x", "+")
	require.NoError(t, err)
	assert.Equal(t, "14\n", out)

	out, err = execute(t, "rpn", "--", "-9", "√")
	require.NoError(t, err)
	assert.Equal(t, "0\n", out)

	_, err = execute(t, "rpn", "5")
	require.Error(t, err)
	assert.Equal(t, exitFailure, getExitCode(err))

	_, err = execute(t, "rpn", "1", "2", "%")
	assert.ErrorIs(t, err, expr.ErrUnknownOperator)
}

func TestApply(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"apply", "multiply", "65536", "65536"}, expr.FormatWord(arith.MaxWord)},
		{[]string{"apply", "sqrt", "1000"}, "31"},
		{[]string{"apply", "negate", "5"}, "-5"},
		{[]string{"apply", "divide", "--", "-7", "2"}, "-3"},
	}
	for _, tt := range tests {
		t.Run(tt.args[1], func(t *testing.T) {
			out, err := execute(t, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want+"\n", out)
		})
	}

	_, err := execute(t, "apply", "add", "1")
	assert.Equal(t, exitCommandError, getExitCode(err))

	_, err = execute(t, "apply", "modulo", "1", "2")
	assert.Equal(t, exitCommandError, getExitCode(err))

	_, err = execute(t, "apply", "add", "one", "2")
	assert.Equal(t, exitCommandError, getExitCode(err))
}

func TestOps(t *testing.T) {
	out, err := execute(t, "ops")
	require.NoError(t, err)
	assert.Contains(t, out, "sqrt")
	assert.Contains(t, out, "right")

	out, err = execute(t, "--format", "json", "ops")
	require.NoError(t, err)
	var got struct {
		Width     int              `json:"width"`
		Operators []operatorOutput `json:"operators"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, arith.Width, got.Width)
	assert.Len(t, got.Operators, 6)
	assert.Equal(t, "power", got.Operators[0].Name)
}

func TestBatch(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	require.NoError(t, os.WriteFile(good, []byte("cases:\n  - name: sum\n    expression: 2 + 2\n    want: \"4\"\n"), 0o644))

	out, err := execute(t, "batch", good)
	require.NoError(t, err)
	assert.Contains(t, out, "PASS  sum = 4")
	assert.Contains(t, out, "1 cases: 1 passed, 0 failed, 0 errors")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("cases:\n  - name: sum\n    expression: 2 + 2\n    want: \"5\"\n"), 0o644))

	out, err = execute(t, "batch", bad)
	require.Error(t, err)
	assert.Equal(t, exitFailure, getExitCode(err))
	assert.Contains(t, out, "FAIL  sum = 4, want 5")

	_, err = execute(t, "batch", filepath.Join(dir, "missing.yaml"))
	assert.Equal(t, exitCommandError, getExitCode(err))
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, exitSuccess, getExitCode(nil))
	assert.Equal(t, exitFailure, getExitCode(assert.AnError))
	assert.Equal(t, exitCommandError, getExitCode(wrapExitError(exitCommandError, "x", assert.AnError)))
}
