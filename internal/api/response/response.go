// Package response writes the service's wire formats. The report endpoints
// have an externally fixed contract: JSON objects for IDs and errors, plain
// text while a report is in progress, and a CSV attachment once complete.
package response

import (
	"encoding/json"
	"fmt"
	"net/http"
)

type errorEnvelope struct {
	Error string `json:"error"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, errorEnvelope{Error: message})
}

func Text(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, message)
}

// CSV serves data as a downloadable attachment.
func CSV(w http.ResponseWriter, filename, data string) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, data)
}
