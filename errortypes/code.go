package errortypes

// Error codes.
const (
	UnknownErrorCode = 999
	TimeoutErrorCode = iota
	BadInputErrorCode
	BadServerResponseErrorCode
	FailedToRequestBidsErrorCode
	BidderTemporarilyDisabledErrorCode
	NoAdaptersErrorCode
)

// Warning codes.
const (
	InvalidPrivacyConsentWarningCode = iota + 10001
	InvalidPrivacySignalWarningCode
	CategoryMappingWarningCode
)

// Coder is implemented by every error type in this package.
type Coder interface {
	Code() int
	Severity() Severity
}

// ReadCode returns the code carried by err, or UnknownErrorCode.
func ReadCode(err error) int {
	if c, ok := err.(Coder); ok {
		return c.Code()
	}
	return UnknownErrorCode
}
