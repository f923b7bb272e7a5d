package adapters

import (
	"fmt"
	"net/http"

	"github.com/prebid/auction-core/errortypes"
)

// CheckResponseStatusCodeForErrors maps a non-200 bidder status to an error. A 400 blames the
// request and anything else blames the bidder.
func CheckResponseStatusCodeForErrors(response *ResponseData) error {
	if response.StatusCode == http.StatusOK {
		return nil
	}

	msg := fmt.Sprintf("Unexpected status code: %d. Run with request.debug = 1 for more info", response.StatusCode)
	if response.StatusCode == http.StatusBadRequest {
		return &errortypes.BadInput{Message: msg}
	}
	return &errortypes.BadServerResponse{Message: msg}
}

// IsResponseStatusCodeNoContent reports a 204, which bidders use to say "no bid".
func IsResponseStatusCodeNoContent(response *ResponseData) bool {
	return response.StatusCode == http.StatusNoContent
}
