package validator

// Validator validates structs (via struct tags) and single values (via a tag expression).
type Validator interface {
	Validate(data any) error
	ValidateVar(field any, tag string) error
}
