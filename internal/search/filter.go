// Package search filtra coleções heterogêneas por nome ou e-mail extraídos.
package search

import (
	"strings"

	"github.com/gestaozabele/cultura/internal/docstore"
	"github.com/gestaozabele/cultura/internal/extract"
)

// Filter devolve os registros cujo nome ou e-mail contém o termo, sem
// diferenciar maiúsculas. Termo em branco devolve a coleção original.
func Filter(records []docstore.Record, term string, ex extract.Extractor) []docstore.Record {
	needle := Normalize(term)
	if needle == "" {
		return records
	}

	out := make([]docstore.Record, 0, len(records))
	for _, rec := range records {
		if Match(rec, needle, ex) {
			out = append(out, rec)
		}
	}
	return out
}

// Normalize prepara o termo de busca para comparação.
func Normalize(term string) string {
	return strings.ToLower(strings.TrimSpace(term))
}

// Match compara um termo já normalizado com nome e e-mail do registro.
// Campos ausentes valem string vazia.
func Match(record map[string]any, needle string, ex extract.Extractor) bool {
	name, _ := ex.Name(record)
	if strings.Contains(strings.ToLower(name), needle) {
		return true
	}
	email, _ := ex.Email(record)
	return strings.Contains(strings.ToLower(email), needle)
}
