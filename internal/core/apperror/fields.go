package apperror

import "sort"

// FieldErrors collects field-level validation messages so that every problem
// can be reported in one response instead of failing on the first one.
// The first message recorded for a field wins.
type FieldErrors map[string]string

// Add records msg for field unless the field already has a message.
func (f FieldErrors) Add(field, msg string) {
	if _, exists := f[field]; exists {
		return
	}
	f[field] = msg
}

// Has reports whether field has a recorded message.
func (f FieldErrors) Has(field string) bool {
	_, ok := f[field]
	return ok
}

// Fields returns the sorted list of fields with errors.
func (f FieldErrors) Fields() []string {
	out := make([]string, 0, len(f))
	for k := range f {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Err returns nil when no errors were collected, otherwise a validation
// AppError carrying the field map under details["fields"].
func (f FieldErrors) Err() error {
	if len(f) == 0 {
		return nil
	}
	fields := make(map[string]string, len(f))
	for k, v := range f {
		fields[k] = v
	}
	return NewValidation("validation failed").WithDetail("fields", fields)
}

// FieldErrorsOf extracts the field map from a validation error produced by FieldErrors.Err.
func FieldErrorsOf(err error) map[string]string {
	appErr, ok := AsAppError(err)
	if !ok || appErr.Details == nil {
		return nil
	}
	fields, _ := appErr.Details["fields"].(map[string]string)
	return fields
}
