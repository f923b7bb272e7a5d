package endpoints

import (
	"encoding/json"
	"net/http"

	"github.com/golang/glog"
)

const notSet = "not-set"

type versionResponse struct {
	Revision string `json:"revision"`
	Version  string `json:"version"`
}

// NewVersionEndpoint serves the build tag and commit the binary was built from. Values left empty
// by the build are reported as "not-set".
func NewVersionEndpoint(version, revision string) http.HandlerFunc {
	body, err := json.Marshal(versionResponse{
		Revision: orNotSet(revision),
		Version:  orNotSet(version),
	})
	if err != nil {
		glog.Fatalf("error creating /version endpoint response: %v", err)
	}

	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(body)
	}
}

func orNotSet(v string) string {
	if v == "" {
		return notSet
	}
	return v
}
