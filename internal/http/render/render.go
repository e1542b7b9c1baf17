// Package render padroniza os envelopes JSON devolvidos pela API.
package render

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"
)

// SuccessEnvelope padroniza respostas com dados.
type SuccessEnvelope struct {
	Data  any `json:"data"`
	Error any `json:"error"`
}

// ErrorEnvelope padroniza respostas de erro.
type ErrorEnvelope struct {
	Data  any        `json:"data"`
	Error *ErrorBody `json:"error"`
}

// ErrorBody descreve falhas normalizadas.
type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// JSON escreve envelope de sucesso.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(SuccessEnvelope{Data: data, Error: nil})
}

// Error escreve envelope de erro e mantém formato consistente.
func Error(w http.ResponseWriter, status int, code, message string, details interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorEnvelope{
		Data:  nil,
		Error: &ErrorBody{Code: code, Message: message, Details: details},
	})
}

// Internal registra a causa e devolve erro genérico.
func Internal(w http.ResponseWriter, err error, label string) {
	log.Error().Err(err).Str("handler", label).Msg("erro interno")
	Error(w, http.StatusInternalServerError, "INTERNAL", "erro interno", nil)
}

// Decode lê o corpo JSON. Corpo vazio é aceito quando allowEmpty for true.
func Decode(r *http.Request, dst any, allowEmpty bool) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err != nil && allowEmpty && errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
