package errors

// ErrorCode classifies a generator failure. The CLI picks its help text by code.
type ErrorCode int

const (
	UnknownErrorCode ErrorCode = iota
	SyntaxErrorCode
	ValidationErrorCode
	RegistrationErrorCode
	SchemaErrorCode
	GenerationErrorCode
	TemplateErrorCode
	FileSystemErrorCode
	ShapeErrorCode
	DependencyErrorCode
	WeaveErrorCode
	ConfigurationErrorCode
)

var codeNames = [...]string{
	UnknownErrorCode:       "UnknownError",
	SyntaxErrorCode:        "SyntaxError",
	ValidationErrorCode:    "ValidationError",
	RegistrationErrorCode:  "RegistrationError",
	SchemaErrorCode:        "SchemaError",
	GenerationErrorCode:    "GenerationError",
	TemplateErrorCode:      "TemplateError",
	FileSystemErrorCode:    "FileSystemError",
	ShapeErrorCode:         "ShapeError",
	DependencyErrorCode:    "DependencyError",
	WeaveErrorCode:         "WeaveError",
	ConfigurationErrorCode: "ConfigurationError",
}

func (c ErrorCode) String() string {
	if c < 0 || int(c) >= len(codeNames) {
		return codeNames[UnknownErrorCode]
	}
	return codeNames[c]
}

// CodeOf returns the code of the first KnockoffError in err's tree
func CodeOf(err error) ErrorCode {
	var ke KnockoffError
	if As(err, &ke) {
		return ke.ErrorCode()
	}
	return UnknownErrorCode
}
