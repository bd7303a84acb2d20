package api

import (
	"encoding/json"
	"net/http"
)

func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

// errorBody is the JSON shape for every failed operation.
type errorBody struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// successBody is the JSON shape for simple successful commands.
type successBody struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func writeCode(w http.ResponseWriter, c Code) {
	writeJSON(w, c.HTTPStatus(), errorBody{Error: c.Message(), Code: int(c)})
}

func writeSuccess(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, successBody{Status: "success", Message: message})
}
