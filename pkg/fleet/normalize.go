package fleet

import "fmt"

// NormalizeRecords rewrites every record in place so relation fields carry a
// single canonical shape. See NormalizeRecord.
func NormalizeRecords(resource string, records []map[string]any) error {
	for i, record := range records {
		err := NormalizeRecord(resource, record)
		if err != nil {
			return fmt.Errorf("normalizing %s record %d: %w", resource, i, err)
		}
	}

	return nil
}

// NormalizeRecord rewrites a raw decoded record in place. To-one relations
// arrive in one of two wire shapes: a deferred reference object carrying
// "__id", or, when expanded, a list of zero or one related records. Deferred
// references collapse to {"__id": id}; expanded lists are kept and their
// element is normalized recursively. A to-one list with more than one element
// means the server and client disagree about the data model, which is a hard
// DecodeInconsistency error rather than something to guess around. To-many
// relations must be lists and are normalized per element. Fields outside the
// resource's schema pass through untouched, as does the whole record when the
// resource itself is unknown.
func NormalizeRecord(resource string, record map[string]any) error {
	s, known := schemaFor(resource)
	if !known || record == nil {
		return nil
	}

	for field, target := range s.toOne {
		value, ok := record[field]
		if !ok || value == nil {
			continue
		}

		normalized, err := normalizeToOne(resource, field, target, value)
		if err != nil {
			return err
		}

		record[field] = normalized
	}

	for field, target := range s.toMany {
		value, ok := record[field]
		if !ok || value == nil {
			continue
		}

		list, ok := value.([]any)
		if !ok {
			return &DecodeError{Resource: resource, Field: field, Reason: fmt.Sprintf("expected list for to-many relation, got %T", value)}
		}

		err := normalizeList(resource, field, target, list)
		if err != nil {
			return err
		}
	}

	return nil
}

func normalizeToOne(resource, field, target string, value any) (any, error) {
	switch v := value.(type) {
	case map[string]any:
		id, ok := v["__id"]
		if !ok {
			return nil, &DecodeError{Resource: resource, Field: field, Reason: "deferred reference without __id"}
		}

		return map[string]any{"__id": id}, nil
	case []any:
		if len(v) > 1 {
			return nil, &DecodeError{Resource: resource, Field: field, Reason: fmt.Sprintf("expanded to-one relation holds %d records", len(v))}
		}

		err := normalizeList(resource, field, target, v)
		if err != nil {
			return nil, err
		}

		return v, nil
	default:
		return nil, &DecodeError{Resource: resource, Field: field, Reason: fmt.Sprintf("unexpected shape %T for to-one relation", value)}
	}
}

func normalizeList(resource, field, target string, list []any) error {
	for _, element := range list {
		related, ok := element.(map[string]any)
		if !ok {
			return &DecodeError{Resource: resource, Field: field, Reason: fmt.Sprintf("expected record in expanded relation, got %T", element)}
		}

		err := NormalizeRecord(target, related)
		if err != nil {
			return err
		}
	}

	return nil
}
