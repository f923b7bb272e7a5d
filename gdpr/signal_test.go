package gdpr

import (
	"testing"

	"github.com/prebid/auction-core/util/ptrutil"
	"github.com/stretchr/testify/assert"
)

func TestSignalFromRegs(t *testing.T) {
	testCases := []struct {
		description    string
		regsGDPR       *int8
		expectedSignal Signal
		expectErr      bool
	}{
		{description: "absent", expectedSignal: SignalAmbiguous},
		{description: "zero", regsGDPR: ptrutil.ToPtr[int8](0), expectedSignal: SignalNo},
		{description: "one", regsGDPR: ptrutil.ToPtr[int8](1), expectedSignal: SignalYes},
		{description: "two", regsGDPR: ptrutil.ToPtr[int8](2), expectedSignal: SignalAmbiguous, expectErr: true},
		{description: "negative", regsGDPR: ptrutil.ToPtr[int8](-1), expectedSignal: SignalAmbiguous, expectErr: true},
	}

	for _, test := range testCases {
		t.Run(test.description, func(t *testing.T) {
			signal, err := SignalFromRegs(test.regsGDPR)
			assert.Equal(t, test.expectedSignal, signal)
			assert.Equal(t, test.expectErr, err != nil)
		})
	}
}

func TestSignalNormalize(t *testing.T) {
	testCases := []struct {
		description    string
		signal         Signal
		hostDefault    string
		expectedSignal Signal
	}{
		{description: "explicit-no-ignores-default", signal: SignalNo, hostDefault: "1", expectedSignal: SignalNo},
		{description: "explicit-yes-ignores-default", signal: SignalYes, hostDefault: "0", expectedSignal: SignalYes},
		{description: "ambiguous-default-0", signal: SignalAmbiguous, hostDefault: "0", expectedSignal: SignalNo},
		{description: "ambiguous-default-1", signal: SignalAmbiguous, hostDefault: "1", expectedSignal: SignalYes},
		{description: "ambiguous-default-unset", signal: SignalAmbiguous, hostDefault: "", expectedSignal: SignalYes},
	}

	for _, test := range testCases {
		t.Run(test.description, func(t *testing.T) {
			assert.Equal(t, test.expectedSignal, SignalNormalize(test.signal, test.hostDefault))
		})
	}
}
