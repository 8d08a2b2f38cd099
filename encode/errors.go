package encode

// ValidationError reports malformed caller input (bad accession, bad date
// string, missing identifying data). It is always raised before any I/O.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}

// NotFoundError reports an accession absent from the cache, the bulk
// listing, and the remote portal.
type NotFoundError struct {
	Accession string
	Inner     error
}

func (e *NotFoundError) Error() string {
	return "experiment not found: " + e.Accession
}

func (e *NotFoundError) Unwrap() error {
	return e.Inner
}
