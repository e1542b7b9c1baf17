package util

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Titulo string  `json:"titulo" validate:"required"`
	Email  string  `json:"email" validate:"omitempty,email"`
	Nota   float64 `json:"nota" validate:"gte=0,lte=10"`
	Tipo   string  `json:"tipo" validate:"oneof=fisica juridica"`
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(sample{Titulo: "x", Nota: 5, Tipo: "fisica"}))

	err := Validate(sample{Email: "nope", Nota: 11, Tipo: "outro"})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "obrigatório", verr.Fields["titulo"])
	assert.Equal(t, "email inválido", verr.Fields["email"])
	assert.Equal(t, "deve ser menor ou igual a 10", verr.Fields["nota"])
	assert.Equal(t, "deve ser um de: fisica juridica", verr.Fields["tipo"])
}
