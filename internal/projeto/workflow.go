package projeto

import (
	"errors"
	"fmt"
	"strings"
)

// Etapa é a fase do projeto no fluxo do edital.
type Etapa string

const (
	EtapaInscricao   Etapa = "inscricao"
	EtapaHabilitacao Etapa = "habilitacao"
	EtapaAvaliacao   Etapa = "avaliacao"
	EtapaRecurso     Etapa = "recurso"
	EtapaConcluido   Etapa = "concluido"
)

// Etapas em ordem.
var Etapas = []Etapa{EtapaInscricao, EtapaHabilitacao, EtapaAvaliacao, EtapaRecurso, EtapaConcluido}

const (
	StatusPendente  = "pendente"
	StatusAprovado  = "aprovado"
	StatusReprovado = "reprovado"
)

var (
	ErrInvalidEtapa      = errors.New("etapa inválida")
	ErrInvalidStatus     = errors.New("status inválido")
	ErrInvalidTransition = errors.New("transição de etapa não permitida")
	ErrStageUndecided    = errors.New("etapa atual ainda não foi decidida")
)

// ParseEtapa normaliza e valida o nome da etapa.
func ParseEtapa(raw string) (Etapa, error) {
	e := Etapa(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range Etapas {
		if e == known {
			return e, nil
		}
	}
	return "", ErrInvalidEtapa
}

// ParseStatus aceita apenas decisões (aprovado ou reprovado) e pendente.
func ParseStatus(raw string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch s {
	case StatusPendente, StatusAprovado, StatusReprovado:
		return s, nil
	}
	return "", ErrInvalidStatus
}

func (e Etapa) index() int {
	for i, known := range Etapas {
		if known == e {
			return i
		}
	}
	return -1
}

// CheckAdvance valida a passagem from→to dado o status da etapa atual e
// devolve o status com que o projeto entra na nova etapa.
//
// As etapas avançam de uma em uma; recurso pode ser pulado quando o projeto
// sai aprovado da avaliação. Reprovado na avaliação só segue para recurso.
func CheckAdvance(from, to Etapa, status string) (string, error) {
	fi, ti := from.index(), to.index()
	if fi < 0 || ti < 0 {
		return "", ErrInvalidEtapa
	}
	skipRecurso := from == EtapaAvaliacao && to == EtapaConcluido
	if ti != fi+1 && !skipRecurso {
		return "", fmt.Errorf("%w: %s → %s", ErrInvalidTransition, from, to)
	}
	if status == StatusPendente {
		return "", ErrStageUndecided
	}

	switch {
	case from == EtapaAvaliacao && to == EtapaRecurso:
		if status != StatusReprovado {
			return "", fmt.Errorf("%w: recurso só cabe a projeto reprovado", ErrInvalidTransition)
		}
		return StatusPendente, nil
	case to == EtapaConcluido && from == EtapaRecurso:
		// resultado final herda a decisão do recurso
		return status, nil
	case status != StatusAprovado:
		return "", fmt.Errorf("%w: projeto reprovado em %s", ErrInvalidTransition, from)
	case to == EtapaConcluido:
		return StatusAprovado, nil
	default:
		return StatusPendente, nil
	}
}

// AppealOutcome é o status da etapa de recurso depois da decisão.
func AppealOutcome(deferido bool) string {
	if deferido {
		return StatusAprovado
	}
	return StatusReprovado
}
