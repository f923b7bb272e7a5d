package errortypes

// Timeout marks a bidder call that was cut off by the auction deadline. Hosts cannot act on it, so
// it is not logged.
type Timeout struct{ Message string }

func (e *Timeout) Error() string      { return e.Message }
func (e *Timeout) Code() int          { return TimeoutErrorCode }
func (e *Timeout) Severity() Severity { return SeverityFatal }

// BadInput marks a problem with what the caller sent, such as an invalid bid request or bidder
// params. Server side failures use BadServerResponse instead.
type BadInput struct{ Message string }

func (e *BadInput) Error() string      { return e.Message }
func (e *BadInput) Code() int          { return BadInputErrorCode }
func (e *BadInput) Severity() Severity { return SeverityFatal }

// BadServerResponse marks a bidder that answered with an unexpected status or an unreadable body.
// Connection failures are not reported this way since they usually point at host config.
type BadServerResponse struct{ Message string }

func (e *BadServerResponse) Error() string      { return e.Message }
func (e *BadServerResponse) Code() int          { return BadServerResponseErrorCode }
func (e *BadServerResponse) Severity() Severity { return SeverityFatal }

// FailedToRequestBids is raised when an adapter built no outgoing requests and gave no reason.
type FailedToRequestBids struct{ Message string }

func (e *FailedToRequestBids) Error() string      { return e.Message }
func (e *FailedToRequestBids) Code() int          { return FailedToRequestBidsErrorCode }
func (e *FailedToRequestBids) Severity() Severity { return SeverityFatal }

// BidderTemporarilyDisabled flags a bidder that was skipped while the rest of the auction goes on.
type BidderTemporarilyDisabled struct{ Message string }

func (e *BidderTemporarilyDisabled) Error() string      { return e.Message }
func (e *BidderTemporarilyDisabled) Code() int          { return BidderTemporarilyDisabledErrorCode }
func (e *BidderTemporarilyDisabled) Severity() Severity { return SeverityWarning }

// NoAdapters is returned when no bidder is left to call.
type NoAdapters struct{ Message string }

func (e *NoAdapters) Error() string      { return e.Message }
func (e *NoAdapters) Code() int          { return NoAdaptersErrorCode }
func (e *NoAdapters) Severity() Severity { return SeverityFatal }

// Warning is the only non-fatal error type. WarningCode says what was ignored or repaired.
type Warning struct {
	Message     string
	WarningCode int
}

func (e *Warning) Error() string      { return e.Message }
func (e *Warning) Code() int          { return e.WarningCode }
func (e *Warning) Severity() Severity { return SeverityWarning }
