package search

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gestaozabele/cultura/internal/docstore"
	"github.com/gestaozabele/cultura/internal/extract"
)

func fixtures() []docstore.Record {
	return []docstore.Record{
		{"id": "1", "tipo": "fisica", "dadosPessoais": map[string]any{"nomeCompleto": "Ana Silva"}, "userEmail": "ana@x.com"},
		{"id": "2", "tipo": "fisica", "nomeCompleto": "Bruno Costa", "contato": map[string]any{"email": "bruno@cultura.gov.br"}},
		{"id": "3", "tipo": "juridica", "dadosPessoaJuridica": map[string]any{"razaoSocial": "Maria Produções LTDA"}},
		{"id": "4", "tipo": "coletivo"},
		{"id": "5", "tipo": "fisica", "nomeCompleto": "Mariana Alves", "email": "mari@x.com"},
	}
}

func ids(recs []docstore.Record) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.ID())
	}
	return out
}

func TestFilterScenario(t *testing.T) {
	ex := extract.Default().Proponente()
	recs := fixtures()

	assert.Equal(t, []string{"1"}, ids(Filter(recs, "silva", ex)))
	assert.Empty(t, Filter(recs, "bruno silva", ex))
	assert.NotContains(t, ids(Filter(recs, "bruno", ex)), "1")
}

func TestFilterBlankIsIdentity(t *testing.T) {
	ex := extract.Default().Proponente()
	recs := fixtures()

	for _, term := range []string{"", "   ", "\t\n"} {
		got := Filter(recs, term, ex)
		assert.Equal(t, recs, got)
		assert.Equal(t, []string{"1", "2", "3", "4", "5"}, ids(got))
	}
}

func TestFilterCaseInsensitive(t *testing.T) {
	ex := extract.Default().Proponente()
	recs := fixtures()

	assert.Equal(t, ids(Filter(recs, "ana", ex)), ids(Filter(recs, "ANA", ex)))
	assert.Equal(t, []string{"1", "5"}, ids(Filter(recs, "AnA", ex)))
}

func TestFilterMatchesEmail(t *testing.T) {
	ex := extract.Default().Proponente()
	assert.Equal(t, []string{"2"}, ids(Filter(fixtures(), "cultura.gov", ex)))
}

func TestFilterNarrowing(t *testing.T) {
	ex := extract.Default().Proponente()
	recs := fixtures()

	terms := []string{"a", "ar", "mar", "maria", "maria p"}
	prev := Filter(recs, terms[0], ex)
	for _, term := range terms[1:] {
		next := Filter(recs, term, ex)
		for _, id := range ids(next) {
			assert.Contains(t, ids(prev), id, "termo %q", term)
		}
		prev = next
	}
}

func TestFilterAbsentFieldsNeverMatch(t *testing.T) {
	ex := extract.Default().Proponente()
	got := Filter([]docstore.Record{{"id": "x"}}, "x", ex)
	assert.Empty(t, got)
}

func TestFilterPreservesOrderAndInput(t *testing.T) {
	ex := extract.Default().Proponente()
	recs := fixtures()
	before := ids(recs)

	got := Filter(recs, "x.com", ex)
	assert.Equal(t, []string{"1", "5"}, ids(got))
	assert.Equal(t, before, ids(recs))
}
