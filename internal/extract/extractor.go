// Package extract projeta nome, e-mail e telefone de registros heterogêneos.
// O conhecimento específico de cada tipo fica em tabelas de caminhos
// candidatos (paths.yaml), nunca em ramificações de código.
package extract

import (
	"github.com/gestaozabele/cultura/internal/fieldpath"
)

// Kind identifica um tipo de registro com tabela de caminhos própria.
type Kind string

const (
	KindAgente          Kind = "agente"
	KindColetivoSemCNPJ Kind = "coletivo_sem_cnpj"
	KindEspacoCultural  Kind = "espaco_cultural"

	KindPessoaFisica   Kind = "fisica"
	KindPessoaJuridica Kind = "juridica"
	KindColetivo       Kind = "coletivo"
)

// Extractor expõe os campos de exibição de um registro.
type Extractor interface {
	Name(record map[string]any) (string, bool)
	Email(record map[string]any) (string, bool)
	Phone(record map[string]any) (string, bool)
}

// Paths é a estratégia padrão: listas ordenadas de caminhos por campo.
type Paths struct {
	Names  []string `yaml:"name"`
	Emails []string `yaml:"email"`
	Phones []string `yaml:"phone"`
}

func (p Paths) Name(record map[string]any) (string, bool) {
	return fieldpath.Resolve(record, p.Names)
}

func (p Paths) Email(record map[string]any) (string, bool) {
	return fieldpath.Resolve(record, p.Emails)
}

func (p Paths) Phone(record map[string]any) (string, bool) {
	return fieldpath.Resolve(record, p.Phones)
}

// Result é a projeção efêmera de um registro; nunca é persistida.
type Result struct {
	Name  *string `json:"nome"`
	Email *string `json:"email"`
	Phone *string `json:"telefone"`
}

// Extract aplica o extrator a um registro.
func Extract(ex Extractor, record map[string]any) Result {
	var res Result
	if v, ok := ex.Name(record); ok {
		res.Name = &v
	}
	if v, ok := ex.Email(record); ok {
		res.Email = &v
	}
	if v, ok := ex.Phone(record); ok {
		res.Phone = &v
	}
	return res
}
