// Package validation parses and checks the query parameters of the public
// click endpoint and the admin list endpoint.
package validation

// FieldError is a validation failure scoped to one query parameter.
type FieldError struct {
	Field   string
	Message string
}

// FieldErrors is an ordered list of validation failures.
type FieldErrors []FieldError

// Add appends a failure for field.
func (e *FieldErrors) Add(field, message string) {
	*e = append(*e, FieldError{Field: field, Message: message})
}

// Empty reports whether no failures were recorded.
func (e FieldErrors) Empty() bool {
	return len(e) == 0
}

// Message returns the first failure's message, used as the envelope summary.
func (e FieldErrors) Message() string {
	if len(e) == 0 {
		return ""
	}
	return e[0].Message
}

// Details converts the list to the field -> message map of the error envelope.
// When a field failed more than once the first message is kept.
func (e FieldErrors) Details() map[string]string {
	if len(e) == 0 {
		return nil
	}
	details := make(map[string]string, len(e))
	for _, fe := range e {
		if _, ok := details[fe.Field]; !ok {
			details[fe.Field] = fe.Message
		}
	}
	return details
}
