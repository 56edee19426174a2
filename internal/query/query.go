// Package query evaluates user-supplied field expressions against a
// registry response.
//
// Expressions starting with "$" are RFC 9535 JSONPath and are evaluated
// over a decoded document. Anything else is a dot-path handled by dotpath
// directly on the response text. Both kinds share the dotpath failure
// policy: a query that does not resolve yields dotpath.NotFound.
package query

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jacoelho/crator/internal/dotpath"
	"github.com/theory/jsonpath"
)

var (
	ErrInvalidQuery = errors.New("invalid query")
	ErrEmptyLabel   = errors.New("query label cannot be empty")
)

// Query is a labelled expression.
type Query struct {
	Label string
	Expr  string

	path *jsonpath.Path
}

// Field is the result of evaluating a Query.
type Field struct {
	Label string `json:"label" yaml:"label"`
	Value string `json:"value" yaml:"value"`
}

// Parse parses a query in label=expr format.
func Parse(input string) (Query, error) {
	label, expr, ok := strings.Cut(input, "=")
	if !ok {
		return Query{}, fmt.Errorf("%w: must be in format label=expr, got: %s", ErrInvalidQuery, input)
	}

	label = strings.TrimSpace(label)
	if label == "" {
		return Query{}, ErrEmptyLabel
	}

	return New(label, strings.TrimSpace(expr))
}

// New validates expr and returns a Query for it.
func New(label, expr string) (Query, error) {
	q := Query{Label: label, Expr: expr}

	if expr == "" {
		return Query{}, fmt.Errorf("%w: expression for %s is empty", ErrInvalidQuery, label)
	}

	if q.isJSONPath() {
		path, err := jsonpath.Parse(expr)
		if err != nil {
			return Query{}, fmt.Errorf("%w: JSONPath %s: %v", ErrInvalidQuery, expr, err)
		}
		q.path = path
		return q, nil
	}

	for segment := range strings.SplitSeq(expr, ".") {
		if segment == "" {
			return Query{}, fmt.Errorf("%w: empty segment in path %s", ErrInvalidQuery, expr)
		}
	}

	return q, nil
}

func (q Query) isJSONPath() bool {
	return strings.HasPrefix(q.Expr, "$")
}

// Evaluate resolves every query against body. The body is decoded at most
// once, and only when a JSONPath query needs it.
func Evaluate(body []byte, queries []Query) []Field {
	if len(queries) == 0 {
		return nil
	}

	var (
		text    = string(body)
		doc     any
		decoded bool
		valid   bool
	)

	fields := make([]Field, 0, len(queries))
	for _, q := range queries {
		value := dotpath.NotFound

		switch {
		case q.path == nil:
			value = dotpath.Extract(text, q.Expr)
		default:
			if !decoded {
				decoded = true
				valid = json.Unmarshal(body, &doc) == nil
			}
			if valid {
				value = selectFirst(q.path, doc)
			}
		}

		fields = append(fields, Field{Label: q.Label, Value: value})
	}

	return fields
}

func selectFirst(path *jsonpath.Path, doc any) string {
	results := path.Select(doc)
	if len(results) == 0 {
		return dotpath.NotFound
	}
	return render(results[0])
}

// render formats a selected node the way dotpath would print the same
// value: strings unquoted, everything else as compact JSON.
func render(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case nil:
		return "null"
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return dotpath.NotFound
		}
		return string(raw)
	}
}
