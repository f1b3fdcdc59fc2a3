package fleet

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// QueryOptions describes a single request against a resource: filter, expand,
// select, ordering and paging. The zero value selects everything. Options
// compile to the remote protocol's query string with ToValues; compilation is
// pure and performs no I/O, so a request is only issued once the options are
// known to be well formed.
type QueryOptions struct {
	// Filter restricts the returned records.
	Filter Filter

	// Expand inlines related records in place of deferred references. Order
	// is preserved in the compiled output.
	Expand []Expand

	// Select limits the returned fields, in order.
	Select []string

	// OrderBy sorts the result, applied left to right.
	OrderBy []OrderBy

	// Top caps the number of returned records. Negative values are rejected.
	Top *int

	// Skip drops leading records before Top applies. Negative values are
	// rejected.
	Skip *int
}

// Expand names a relation to inline, optionally with nested options applied
// to the related records.
type Expand struct {
	Relation string
	Options  *QueryOptions
}

// OrderBy is a single ordering term.
type OrderBy struct {
	Field string
	Desc  bool
}

// NewQueryOptions creates an empty QueryOptions.
func NewQueryOptions() *QueryOptions {
	return &QueryOptions{}
}

// WithFilter sets the filter.
func (o *QueryOptions) WithFilter(filter Filter) *QueryOptions {
	o.Filter = filter

	return o
}

// WithExpand appends an expanded relation, optionally with nested options.
func (o *QueryOptions) WithExpand(relation string, options *QueryOptions) *QueryOptions {
	o.Expand = append(o.Expand, Expand{Relation: relation, Options: options})

	return o
}

// WithSelect appends selected fields.
func (o *QueryOptions) WithSelect(fields ...string) *QueryOptions {
	o.Select = append(o.Select, fields...)

	return o
}

// WithOrderBy appends an ordering term.
func (o *QueryOptions) WithOrderBy(field string, desc bool) *QueryOptions {
	o.OrderBy = append(o.OrderBy, OrderBy{Field: field, Desc: desc})

	return o
}

// WithTop caps the number of returned records.
func (o *QueryOptions) WithTop(top int) *QueryOptions {
	o.Top = &top

	return o
}

// WithSkip drops leading records.
func (o *QueryOptions) WithSkip(skip int) *QueryOptions {
	o.Skip = &skip

	return o
}

// ToValues compiles the options into the protocol's query parameters for the
// named resource. Filters, expands and selects are validated against the
// resource's static schema when the resource is known; unknown fields or
// relations fail with InvalidOption or InvalidFilter before any request is
// issued.
func (o *QueryOptions) ToValues(resource string) (url.Values, error) {
	values := url.Values{}

	if o == nil {
		return values, nil
	}

	err := o.validate(resource)
	if err != nil {
		return nil, err
	}

	if o.Filter != nil {
		clause, err := CompileFilter(o.Filter)
		if err != nil {
			return nil, err
		}

		values.Set("$filter", clause)
	}

	if len(o.Expand) > 0 {
		clause, err := compileExpand(resource, o.Expand)
		if err != nil {
			return nil, err
		}

		values.Set("$expand", clause)
	}

	if len(o.Select) > 0 {
		values.Set("$select", strings.Join(o.Select, ","))
	}

	if len(o.OrderBy) > 0 {
		values.Set("$orderby", compileOrderBy(o.OrderBy))
	}

	if o.Top != nil {
		values.Set("$top", strconv.Itoa(*o.Top))
	}

	if o.Skip != nil {
		values.Set("$skip", strconv.Itoa(*o.Skip))
	}

	return values, nil
}

// validate rejects malformed options before compilation. Schema checks only
// apply when the resource is present in the static tables.
func (o *QueryOptions) validate(resource string) error {
	if o.Top != nil && *o.Top < 0 {
		return &OptionError{Option: "$top", Value: *o.Top, Reason: "must be non-negative"}
	}

	if o.Skip != nil && *o.Skip < 0 {
		return &OptionError{Option: "$skip", Value: *o.Skip, Reason: "must be non-negative"}
	}

	for _, field := range o.Select {
		if field == "" {
			return &OptionError{Option: "$select", Reason: "empty field name"}
		}
	}

	for _, term := range o.OrderBy {
		if term.Field == "" {
			return &OptionError{Option: "$orderby", Reason: "empty field name"}
		}
	}

	s, known := schemaFor(resource)
	if !known {
		return nil
	}

	for _, field := range o.Select {
		if !s.knownField(field) {
			return &OptionError{Option: "$select", Value: field, Reason: fmt.Sprintf("unknown field on %s", resource)}
		}
	}

	if o.Filter != nil {
		err := validateFilterPaths(resource, s, o.Filter)
		if err != nil {
			return err
		}
	}

	return nil
}

// validateFilterPaths checks every navigation hop in the filter's field paths
// against the resource's to-one relation table.
func validateFilterPaths(resource string, s resourceSchema, filter Filter) error {
	for _, path := range filterPaths(filter, nil) {
		segments := strings.Split(path, ".")

		current := resource
		cs := s

		for i, segment := range segments {
			last := i == len(segments)-1
			if last {
				if !cs.knownField(segment) {
					return &FilterError{Field: path, Reason: fmt.Sprintf("unknown field %q on %s", segment, current)}
				}

				break
			}

			target, ok := cs.toOne[segment]
			if !ok {
				return &FilterError{Field: path, Reason: fmt.Sprintf("unknown relation %q on %s", segment, current)}
			}

			ts, ok := schemaFor(target)
			if !ok {
				// Target resource is outside the static tables; the
				// remaining hops cannot be checked.
				break
			}

			current = target
			cs = ts
		}
	}

	return nil
}

// compileExpand serializes expand terms, recursing into nested options. The
// nested option separator is ";" and each term compiles as
// relation($select=...;$filter=...).
func compileExpand(resource string, terms []Expand) (string, error) {
	s, known := schemaFor(resource)

	var b strings.Builder

	for i, term := range terms {
		if term.Relation == "" {
			return "", &OptionError{Option: "$expand", Reason: "empty relation name"}
		}

		target := ""

		if known {
			t, ok := s.relationTarget(term.Relation)
			if !ok {
				return "", &OptionError{Option: "$expand", Value: term.Relation, Reason: fmt.Sprintf("unknown relation on %s", resource)}
			}

			target = t
		}

		if i > 0 {
			b.WriteByte(',')
		}

		b.WriteString(term.Relation)

		if term.Options == nil {
			continue
		}

		nested, err := term.Options.ToValues(target)
		if err != nil {
			return "", err
		}

		if len(nested) == 0 {
			continue
		}

		b.WriteByte('(')

		first := true

		for _, key := range []string{"$filter", "$expand", "$select", "$orderby", "$top", "$skip"} {
			if !nested.Has(key) {
				continue
			}

			if !first {
				b.WriteByte(';')
			}

			first = false

			b.WriteString(key)
			b.WriteByte('=')
			b.WriteString(nested.Get(key))
		}

		b.WriteByte(')')
	}

	return b.String(), nil
}

// compileOrderBy serializes ordering terms as "field asc" or "field desc",
// comma-joined.
func compileOrderBy(terms []OrderBy) string {
	parts := make([]string, 0, len(terms))

	for _, term := range terms {
		direction := "asc"
		if term.Desc {
			direction = "desc"
		}

		parts = append(parts, strings.ReplaceAll(term.Field, ".", "/")+" "+direction)
	}

	return strings.Join(parts, ",")
}
