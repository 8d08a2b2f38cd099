package portal

import "strconv"

// NotFoundError is returned when the portal has no record for an accession.
type NotFoundError struct {
	Accession string
}

func (e *NotFoundError) Error() string {
	return "portal has no record for accession " + e.Accession
}

// RequestError wraps a failed portal request. The cause is attached for
// callers that want to retry the whole operation; the client itself never
// retries.
type RequestError struct {
	URL    string
	Status int
	Inner  error
}

func (e *RequestError) Error() string {
	msg := "portal request failed: " + e.URL
	if e.Status != 0 {
		msg += " (status " + strconv.Itoa(e.Status) + ")"
	}
	if e.Inner != nil {
		msg += ": " + e.Inner.Error()
	}
	return msg
}

func (e *RequestError) Unwrap() error {
	return e.Inner
}
