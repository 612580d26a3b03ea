package message

import "fmt"

// DecodeErrType classifies the reasons why a line could not be decoded.
type DecodeErrType uint32

const (
	// Malformed means the line is not a JSON envelope with src, dest and body.
	Malformed DecodeErrType = iota
	// MissingType means the body has no "type" field.
	MissingType
	// UnknownType means the "type" is not part of the registry.
	UnknownType
	// InvalidPayload means the body fields do not match the payload variant.
	InvalidPayload
)

// String ...
func (t DecodeErrType) String() string {
	switch t {
	case Malformed:
		return "Malformed"
	case MissingType:
		return "Missing Type"
	case UnknownType:
		return "Unknown Type"
	case InvalidPayload:
		return "Invalid Payload"
	default:
		return "Unknown"
	}
}

// DecodeErr is returned by Decode. The runtime treats it as non-fatal: the
// offending line is dropped.
type DecodeErr struct {
	errType     DecodeErrType
	payloadType string
	cause       error
}

// NewDecodeErr ...
func NewDecodeErr(errType DecodeErrType, payloadType string, cause error) DecodeErr {
	return DecodeErr{
		errType:     errType,
		payloadType: payloadType,
		cause:       cause,
	}
}

// Error implements the error interface.
func (e DecodeErr) Error() string {
	m := fmt.Sprintf("decode: %s", e.errType)
	if e.payloadType != "" {
		m += fmt.Sprintf(", type %q", e.payloadType)
	}
	if e.cause != nil {
		m += fmt.Sprintf(": %v", e.cause)
	}
	return m
}

// Unwrap returns the underlying cause, if any.
func (e DecodeErr) Unwrap() error {
	return e.cause
}

// Kind returns the classification of the error.
func (e DecodeErr) Kind() DecodeErrType {
	return e.errType
}

// IsDecode checks that an error is a DecodeErr and that its kind matches t.
func IsDecode(err error, t DecodeErrType) bool {
	decodeErr, ok := err.(DecodeErr)
	return ok && decodeErr.errType == t
}
