package api

import (
	"encoding/json"
	"net/http"

	"github.com/scitix/contactmerge/internal/triage"
)

type CommonResponse struct {
	Code    int32  `json:"code"`
	Message string `json:"message"`
}

type StatusResponse struct {
	CommonResponse
	Report *triage.Report `json:"report,omitempty"`
}

func EncodeResponse(w http.ResponseWriter, response interface{}) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	return json.NewEncoder(w).Encode(response)
}

// Code define
const (
	OK                int32 = 200
	RequestParamError int32 = 2001
)

// CodeMap is a mapping for code and error info
var CodeMap = map[int32]string{
	OK:                "Success",
	RequestParamError: "Request params error",
}
