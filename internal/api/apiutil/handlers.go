package apiutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"
)

const maxBodyBytes = 1 << 20

type FieldError struct {
	Field  string
	Reason string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

type HandlerError struct {
	Status  int
	Message string
	Err     error
}

func (e HandlerError) Error() string {
	return e.Message
}

func (e HandlerError) Unwrap() error {
	return e.Err
}

func BadRequest(message string, err error) HandlerError {
	return HandlerError{Status: http.StatusBadRequest, Message: message, Err: err}
}

func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return fmt.Errorf("missing request body")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return err
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	if err := encoder.Encode(payload); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err := w.Write(buf.Bytes())
	return err
}

// WriteError reports err to the client. HandlerErrors keep their status and
// message; anything else is logged and answered with a 500.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	logger := log.Ctx(r.Context())

	var herr HandlerError
	if !errors.As(err, &herr) {
		logger.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if herr.Status >= http.StatusInternalServerError {
		logger.Error().Err(herr.Err).Str("path", r.URL.Path).Msg(herr.Message)
	} else {
		logger.Debug().Err(herr.Err).Int("status", herr.Status).Msg(herr.Message)
	}
	http.Error(w, herr.Message, herr.Status)
}
