package fleet

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Filter is a node in a filter expression tree. Values are created with the
// constructor functions (Eq, Ne, Gt, Ge, Lt, Le, In, And, Or, Not, StartsWith,
// Raw) and compiled to the remote query grammar by QueryOptions.ToValues or
// CompileFilter. The interface is sealed; outside packages cannot add node
// types.
type Filter interface {
	compile(b *strings.Builder, nested bool) error
}

// Tautologies emitted for degenerate boolean nodes. An empty In or Or must
// match nothing rather than silently matching everything, and an empty And
// must match everything.
const (
	matchAll  = "1 eq 1"
	matchNone = "1 eq 0"
)

type comparison struct {
	field string
	op    string
	value any
}

type inFilter struct {
	field  string
	values []any
}

type andFilter struct {
	operands []Filter
}

type orFilter struct {
	operands []Filter
}

type notFilter struct {
	operand Filter
}

type funcFilter struct {
	name  string
	field string
	value any
}

type rawFilter struct {
	expr string
}

type groupFilter struct {
	inner Filter
}

// Eq matches records whose field equals value.
func Eq(field string, value any) Filter {
	return &comparison{field: field, op: "eq", value: value}
}

// Ne matches records whose field does not equal value.
func Ne(field string, value any) Filter {
	return &comparison{field: field, op: "ne", value: value}
}

// Gt matches records whose field is greater than value.
func Gt(field string, value any) Filter {
	return &comparison{field: field, op: "gt", value: value}
}

// Ge matches records whose field is greater than or equal to value.
func Ge(field string, value any) Filter {
	return &comparison{field: field, op: "ge", value: value}
}

// Lt matches records whose field is less than value.
func Lt(field string, value any) Filter {
	return &comparison{field: field, op: "lt", value: value}
}

// Le matches records whose field is less than or equal to value.
func Le(field string, value any) Filter {
	return &comparison{field: field, op: "le", value: value}
}

// In matches records whose field equals any of the supplied values. It
// compiles to a disjunction of equality predicates in the supplied order; an
// empty value set compiles to a predicate that matches nothing.
func In(field string, values ...any) Filter {
	return &inFilter{field: field, values: values}
}

// And matches records satisfying every operand. With no operands it compiles
// to an always-true predicate.
func And(filters ...Filter) Filter {
	return &andFilter{operands: filters}
}

// Or matches records satisfying at least one operand. With no operands it
// compiles to an always-false predicate.
func Or(filters ...Filter) Filter {
	return &orFilter{operands: filters}
}

// Not inverts a filter. The operand is always emitted in its own grouping.
func Not(filter Filter) Filter {
	return &notFilter{operand: filter}
}

// StartsWith matches records whose string field begins with prefix.
func StartsWith(field, prefix string) Filter {
	return &funcFilter{name: "startswith", field: field, value: prefix}
}

// Raw passes a predicate through verbatim. It is the caller's responsibility
// to supply a well-formed clause; the compiler never re-escapes it, and only
// adds grouping when the clause is nested under a boolean combinator.
func Raw(expr string) Filter {
	return &rawFilter{expr: expr}
}

// CompileFilter serializes a filter tree to the remote grammar's predicate
// string.
func CompileFilter(filter Filter) (string, error) {
	if filter == nil {
		return "", &FilterError{Reason: "nil filter"}
	}

	var b strings.Builder

	err := filter.compile(&b, false)
	if err != nil {
		return "", err
	}

	return b.String(), nil
}

var fieldSegment = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// writeFieldPath renders a dotted field path as the grammar's navigation
// syntax, one slash-separated hop per dot.
func writeFieldPath(b *strings.Builder, path string) error {
	if path == "" {
		return &FilterError{Reason: "empty field path"}
	}

	segments := strings.Split(path, ".")
	for i, segment := range segments {
		if !fieldSegment.MatchString(segment) {
			return &FilterError{Field: path, Reason: "field path segments must be identifiers"}
		}

		if i > 0 {
			b.WriteByte('/')
		}

		b.WriteString(segment)
	}

	return nil
}

// writeLiteral renders a Go value as the grammar's literal syntax. Strings
// are single-quoted with embedded quotes doubled, times use the datetime
// literal form, numbers and booleans are emitted bare, nil becomes null.
func writeLiteral(b *strings.Builder, field string, value any) error {
	switch v := value.(type) {
	case nil:
		b.WriteString("null")
	case string:
		b.WriteByte('\'')
		b.WriteString(strings.ReplaceAll(v, "'", "''"))
		b.WriteByte('\'')
	case bool:
		b.WriteString(strconv.FormatBool(v))
	case int:
		b.WriteString(strconv.Itoa(v))
	case int32:
		b.WriteString(strconv.FormatInt(int64(v), 10))
	case int64:
		b.WriteString(strconv.FormatInt(v, 10))
	case uint:
		b.WriteString(strconv.FormatUint(uint64(v), 10))
	case uint32:
		b.WriteString(strconv.FormatUint(uint64(v), 10))
	case uint64:
		b.WriteString(strconv.FormatUint(v, 10))
	case float32:
		b.WriteString(strconv.FormatFloat(float64(v), 'f', -1, 32))
	case float64:
		b.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
	case time.Time:
		b.WriteString("datetime'")
		b.WriteString(v.UTC().Format(time.RFC3339))
		b.WriteByte('\'')
	default:
		return &FilterError{Field: field, Reason: "unsupported literal type"}
	}

	return nil
}

func (f *comparison) compile(b *strings.Builder, _ bool) error {
	err := writeFieldPath(b, f.field)
	if err != nil {
		return err
	}

	b.WriteByte(' ')
	b.WriteString(f.op)
	b.WriteByte(' ')

	return writeLiteral(b, f.field, f.value)
}

func (f *inFilter) compile(b *strings.Builder, _ bool) error {
	if len(f.values) == 0 {
		b.WriteString(matchNone)

		return nil
	}

	if len(f.values) > 1 {
		b.WriteByte('(')
	}

	for i, value := range f.values {
		if i > 0 {
			b.WriteString(" or ")
		}

		err := writeFieldPath(b, f.field)
		if err != nil {
			return err
		}

		b.WriteString(" eq ")

		err = writeLiteral(b, f.field, value)
		if err != nil {
			return err
		}
	}

	if len(f.values) > 1 {
		b.WriteByte(')')
	}

	return nil
}

func (f *andFilter) compile(b *strings.Builder, nested bool) error {
	return compileJoined(b, f.operands, " and ", matchAll, nested)
}

func (f *orFilter) compile(b *strings.Builder, nested bool) error {
	return compileJoined(b, f.operands, " or ", matchNone, nested)
}

// compileJoined serializes a boolean combinator. Nested combinators are
// wrapped in their own grouping so the output never depends on the grammar's
// operator precedence.
func compileJoined(b *strings.Builder, operands []Filter, sep, empty string, nested bool) error {
	if len(operands) == 0 {
		b.WriteString(empty)

		return nil
	}

	grouped := nested && len(operands) > 1
	if grouped {
		b.WriteByte('(')
	}

	for i, operand := range operands {
		if operand == nil {
			return &FilterError{Reason: "nil filter operand"}
		}

		if i > 0 {
			b.WriteString(sep)
		}

		err := operand.compile(b, true)
		if err != nil {
			return err
		}
	}

	if grouped {
		b.WriteByte(')')
	}

	return nil
}

func (f *notFilter) compile(b *strings.Builder, _ bool) error {
	if f.operand == nil {
		return &FilterError{Reason: "nil filter operand"}
	}

	b.WriteString("not (")

	err := f.operand.compile(b, false)
	if err != nil {
		return err
	}

	b.WriteByte(')')

	return nil
}

func (f *funcFilter) compile(b *strings.Builder, _ bool) error {
	b.WriteString(f.name)
	b.WriteByte('(')

	err := writeFieldPath(b, f.field)
	if err != nil {
		return err
	}

	b.WriteByte(',')

	err = writeLiteral(b, f.field, f.value)
	if err != nil {
		return err
	}

	b.WriteByte(')')

	return nil
}

func (f *rawFilter) compile(b *strings.Builder, nested bool) error {
	if f.expr == "" {
		return &FilterError{Reason: "empty raw predicate"}
	}

	if nested {
		b.WriteByte('(')
	}

	b.WriteString(f.expr)

	if nested {
		b.WriteByte(')')
	}

	return nil
}

func (f *groupFilter) compile(b *strings.Builder, _ bool) error {
	if f.inner == nil {
		return &FilterError{Reason: "nil filter operand"}
	}

	b.WriteByte('(')

	err := f.inner.compile(b, false)
	if err != nil {
		return err
	}

	b.WriteByte(')')

	return nil
}

// MergeScoped combines enforced scope filters with a caller filter. Scopes
// and the caller filter are joined with a logical AND, left-to-right, each
// inside its own grouping so precedence cannot leak between them. A nil
// caller filter yields just the scopes; with no scopes the caller filter is
// returned unchanged.
func MergeScoped(caller Filter, scopes ...Filter) Filter {
	if len(scopes) == 0 {
		return caller
	}

	operands := make([]Filter, 0, len(scopes)+1)
	for _, scope := range scopes {
		operands = append(operands, &groupFilter{inner: scope})
	}

	if caller != nil {
		operands = append(operands, &groupFilter{inner: caller})
	}

	if len(operands) == 1 {
		return operands[0]
	}

	return &andFilter{operands: operands}
}

// filterPaths collects every field path referenced by a filter tree, in
// compile order. Raw predicates contribute nothing; their content is opaque.
func filterPaths(filter Filter, paths []string) []string {
	switch f := filter.(type) {
	case *comparison:
		return append(paths, f.field)
	case *inFilter:
		return append(paths, f.field)
	case *funcFilter:
		return append(paths, f.field)
	case *andFilter:
		for _, operand := range f.operands {
			paths = filterPaths(operand, paths)
		}

		return paths
	case *orFilter:
		for _, operand := range f.operands {
			paths = filterPaths(operand, paths)
		}

		return paths
	case *notFilter:
		return filterPaths(f.operand, paths)
	case *groupFilter:
		return filterPaths(f.inner, paths)
	default:
		return paths
	}
}
