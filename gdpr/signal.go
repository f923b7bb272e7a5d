package gdpr

import (
	"github.com/prebid/auction-core/errortypes"
)

// Signal is the regs.gdpr flag. SignalAmbiguous means the request did not say.
type Signal int

const (
	SignalAmbiguous Signal = -1
	SignalNo        Signal = 0
	SignalYes       Signal = 1
)

var errInvalidSignal = &errortypes.BadInput{Message: "GDPR signal should be integer 0 or 1"}

// SignalFromRegs converts the openrtb regs.gdpr field. Anything other than 0 or 1 is ambiguous
// and comes back with an error.
func SignalFromRegs(gdpr *int8) (Signal, error) {
	switch {
	case gdpr == nil:
		return SignalAmbiguous, nil
	case *gdpr == 0:
		return SignalNo, nil
	case *gdpr == 1:
		return SignalYes, nil
	default:
		return SignalAmbiguous, errInvalidSignal
	}
}

// SignalNormalize resolves an ambiguous signal with the host default. Only a default of "0" turns
// it into SignalNo.
func SignalNormalize(signal Signal, gdprDefaultValue string) Signal {
	if signal != SignalAmbiguous {
		return signal
	}
	if gdprDefaultValue == "0" {
		return SignalNo
	}
	return SignalYes
}
