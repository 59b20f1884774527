// Package batch runs a file of calculator cases and reports which ones
// produced their expected result.
//
// A batch file is YAML:
//
//	cases:
//	  - name: precedence
//	    tokens: ["2", "+", "3", "x", "4"]
//	    want: "14"
//	  - name: grouping
//	    expression: (2 + 3) x 4
//	    want: "20"
//
// A case without want is evaluated and reported but never fails.
package batch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lemonberrylabs/bitcalc/pkg/calculator"
)

// Status is the outcome of one case.
type Status string

const (
	StatusPass      Status = "pass"
	StatusFail      Status = "fail"
	StatusEvaluated Status = "evaluated"
	StatusError     Status = "error"
)

// File is a parsed batch file.
type File struct {
	Cases []Case `yaml:"cases"`
}

// Case is one entry of a batch file. Exactly one of Expression and Tokens
// must be set.
type Case struct {
	Name       string   `yaml:"name"`
	Expression string   `yaml:"expression,omitempty"`
	Tokens     []string `yaml:"tokens,omitempty"`
	Want       *string  `yaml:"want,omitempty"`
}

// Result is the outcome of one case.
type Result struct {
	Name   string   `json:"name" yaml:"name"`
	Tokens []string `json:"tokens,omitempty" yaml:"tokens,omitempty"`
	Result string   `json:"result" yaml:"result"`
	Want   *string  `json:"want,omitempty" yaml:"want,omitempty"`
	Status Status   `json:"status" yaml:"status"`
	Error  string   `json:"error,omitempty" yaml:"error,omitempty"`
}

// Report summarizes a batch run.
type Report struct {
	Total   int      `json:"total" yaml:"total"`
	Passed  int      `json:"passed" yaml:"passed"`
	Failed  int      `json:"failed" yaml:"failed"`
	Errors  int      `json:"errors" yaml:"errors"`
	Results []Result `json:"results" yaml:"results"`
}

// OK reports whether no case failed or errored.
func (r *Report) OK() bool {
	return r.Failed == 0 && r.Errors == 0
}

// Parse decodes a batch file.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse batch file: %w", err)
	}
	if len(f.Cases) == 0 {
		return nil, errors.New("batch file has no cases")
	}
	for i, c := range f.Cases {
		if c.Name == "" {
			f.Cases[i].Name = fmt.Sprintf("case-%d", i+1)
		}
	}
	return &f, nil
}

// Load reads and parses the batch file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Run evaluates every case of f with calc. Invalid cases are reported with
// StatusError; only a failure of calc itself aborts the run.
func Run(ctx context.Context, calc *calculator.Calculator, f *File) (*Report, error) {
	report := &Report{Results: make([]Result, 0, len(f.Cases))}
	for _, c := range f.Cases {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		res := Result{Name: c.Name, Want: c.Want}
		resp, err := calc.Evaluate(ctx, calculator.Request{Expression: c.Expression, Tokens: c.Tokens})
		switch {
		case errors.Is(err, calculator.ErrInvalidRequest):
			res.Status = StatusError
			res.Error = err.Error()
			report.Errors++
		case err != nil:
			return nil, fmt.Errorf("case %s: %w", c.Name, err)
		default:
			res.Tokens = resp.Calculation.Tokens
			res.Result = resp.Calculation.Result
			switch {
			case c.Want == nil:
				res.Status = StatusEvaluated
			case *c.Want == res.Result:
				res.Status = StatusPass
				report.Passed++
			default:
				res.Status = StatusFail
				report.Failed++
			}
		}
		report.Results = append(report.Results, res)
	}
	report.Total = len(report.Results)
	return report, nil
}

// WriteJSON writes r as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

// WriteYAML writes r as YAML.
func (r *Report) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return err
	}
	return enc.Close()
}
