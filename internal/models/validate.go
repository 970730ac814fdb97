package models

// FieldCheck validates one field. Check returns "" when the value is acceptable.
type FieldCheck struct {
	Field string
	Check func() string
}

// Validatable is implemented by entities that expose field-level checks.
type Validatable interface {
	FieldChecks() []FieldCheck
}

// ValidateOptions narrows which fields Validate inspects.
// Include and Exclude are mutually exclusive.
type ValidateOptions struct {
	Include []string
	Exclude []string
}

// Validate runs the entity's field checks and aggregates failures into a
// single field-keyed validation error. Audit columns are never checked.
func Validate(v Validatable, opts ValidateOptions) error {
	if len(opts.Include) > 0 && len(opts.Exclude) > 0 {
		return NewConfigError("include and exclude are mutually exclusive")
	}

	include := toSet(opts.Include)
	exclude := toSet(opts.Exclude)

	fields := map[string]string{}
	for _, fc := range v.FieldChecks() {
		if IsAuditField(fc.Field) {
			continue
		}
		if len(include) > 0 {
			if _, ok := include[fc.Field]; !ok {
				continue
			}
		}
		if _, ok := exclude[fc.Field]; ok {
			continue
		}
		if _, failed := fields[fc.Field]; failed {
			continue
		}
		if msg := fc.Check(); msg != "" {
			fields[fc.Field] = msg
		}
	}

	if len(fields) > 0 {
		return NewFieldValidationError(fields)
	}
	return nil
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}
