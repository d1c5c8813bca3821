// Package response writes the JSON envelope shared by every endpoint:
//
//	{"status": true,  "message": "...", "data": ...}
//	{"status": false, "message": "Request Failed", "error": ...}
package response

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mmynk/splitledger/internal/validation"
)

// Envelope messages.
const (
	MsgSuccess         = "Request Success"
	MsgFailed          = "Request Failed"
	MsgNoData          = "No data found"
	MsgDataFound       = "Data Found Successfully"
	MsgRecordFound     = "Record found successfully."
	MsgAdded           = "Successfully Added."
	MsgUpdated         = "Successfully updated."
	MsgDeleted         = "Record Deleted successfully."
	MsgUnauthorised    = "Unauthorised User"
	MsgTooManyRequests = "Too Many Attempts."
	MsgServerError     = "Something went wrong."
)

// Field is an extra top-level key written next to data.
type Field struct {
	Key   string
	Value any
}

// With builds a Field.
func With(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// JSON writes body with the given status code.
func JSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

// Success writes a 200 envelope. An empty message becomes MsgSuccess.
func Success(w http.ResponseWriter, message string, data any, extra ...Field) {
	if message == "" {
		message = MsgSuccess
	}
	body := map[string]any{
		"status":  true,
		"message": message,
		"data":    data,
	}
	for _, f := range extra {
		body[f.Key] = f.Value
	}
	JSON(w, http.StatusOK, body)
}

// Fail writes a failure envelope. errValue is a message string or a list
// of per-field errors.
func Fail(w http.ResponseWriter, status int, errValue any) {
	JSON(w, status, map[string]any{
		"status":  false,
		"message": MsgFailed,
		"error":   errValue,
	})
}

// NoData writes the 400 returned for an empty list.
func NoData(w http.ResponseWriter) {
	JSON(w, http.StatusBadRequest, map[string]any{
		"status":  false,
		"message": MsgNoData,
	})
}

// Invalid writes a 406 with the field errors.
func Invalid(w http.ResponseWriter, errs validation.Errors) {
	Fail(w, http.StatusNotAcceptable, errs)
}
