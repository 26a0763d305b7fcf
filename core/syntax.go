package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Language guesses the editor language from the file name.
func Language(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".tf"), strings.HasSuffix(lower, ".tfvars"), strings.HasSuffix(lower, ".hcl"):
		return "hcl"
	case strings.HasSuffix(lower, ".json"):
		return "json"
	case strings.HasSuffix(lower, ".yaml"), strings.HasSuffix(lower, ".yml"):
		return "yaml"
	default:
		return "plaintext"
	}
}

// Extension returns the upper-cased extension used as the file badge.
func Extension(name string) string {
	ext := strings.TrimPrefix(path.Ext(name), ".")
	if ext == "" {
		return strings.ToUpper(name)
	}
	return strings.ToUpper(ext)
}

type Diagnostic struct {
	Severity string
	Summary  string
	Detail   string
	Line     int
	Column   int
}

func (d Diagnostic) String() string {
	msg := d.Summary
	if d.Detail != "" {
		msg = fmt.Sprintf("%s: %s", d.Summary, d.Detail)
	}
	if d.Line > 0 {
		return fmt.Sprintf("%d:%d %s", d.Line, d.Column, msg)
	}
	return msg
}

// Diagnose reports syntax problems in a generated file. Only HCL and JSON are
// checked; anything else yields no diagnostics.
func Diagnose(name, content string) []Diagnostic {
	lower := strings.ToLower(name)
	parser := hclparse.NewParser()

	switch {
	case strings.HasSuffix(lower, ".tf.json"), strings.HasSuffix(lower, ".tfvars.json"):
		_, diags := parser.ParseJSON([]byte(content), name)
		return fromHCL(diags)
	case Language(name) == "hcl":
		_, diags := parser.ParseHCL([]byte(content), name)
		return fromHCL(diags)
	case Language(name) == "json":
		var v interface{}
		if err := json.Unmarshal([]byte(content), &v); err != nil {
			d := Diagnostic{Severity: "error", Summary: "Invalid JSON", Detail: err.Error()}
			var syntaxErr *json.SyntaxError
			if errors.As(err, &syntaxErr) {
				d.Line, d.Column = position(content, syntaxErr.Offset)
			}
			return []Diagnostic{d}
		}
	}
	return nil
}

// HasErrors reports whether any diagnostic is an error.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == "error" {
			return true
		}
	}
	return false
}

func fromHCL(diags hcl.Diagnostics) []Diagnostic {
	var out []Diagnostic
	for _, diag := range diags {
		d := Diagnostic{
			Severity: "warning",
			Summary:  diag.Summary,
			Detail:   diag.Detail,
		}
		if diag.Severity == hcl.DiagError {
			d.Severity = "error"
		}
		if diag.Subject != nil {
			d.Line = diag.Subject.Start.Line
			d.Column = diag.Subject.Start.Column
		}
		out = append(out, d)
	}
	return out
}

func position(content string, offset int64) (int, int) {
	line, col := 1, 1
	for i, r := range content {
		if int64(i) >= offset {
			break
		}
		if r == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}
