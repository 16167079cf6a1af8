package enml

// ValidationError reports call-time input the pipeline refuses to process.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid input: " + e.Field + ": " + e.Reason
}
