package extract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProponenteFisica(t *testing.T) {
	reg := Default()
	record := map[string]any{
		"tipo":          "fisica",
		"dadosPessoais": map[string]any{"nomeCompleto": "Ana Silva"},
		"userEmail":     "ana@x.com",
	}

	ex := reg.Proponente()
	name, ok := ex.Name(record)
	require.True(t, ok)
	assert.Equal(t, "Ana Silva", name)

	email, ok := ex.Email(record)
	require.True(t, ok)
	assert.Equal(t, "ana@x.com", email)

	_, ok = ex.Phone(record)
	assert.False(t, ok)
}

func TestProponenteTipos(t *testing.T) {
	ex := Default().Proponente()

	juridica := map[string]any{
		"tipo": "juridica",
		"dadosPessoaJuridica": map[string]any{
			"nomeFantasia": "Ponto de Cultura Zabelê",
		},
		"contato": map[string]any{"email": "contato@zabele.org", "telefone": "(86) 3222-0000"},
	}
	name, _ := ex.Name(juridica)
	assert.Equal(t, "Ponto de Cultura Zabelê", name)
	phone, _ := ex.Phone(juridica)
	assert.Equal(t, "(86) 3222-0000", phone)

	coletivo := map[string]any{
		"tipo":        "COLETIVO",
		"responsavel": map[string]any{"nomeCompleto": "Bruno Lima", "email": "bruno@x.com"},
	}
	name, _ = ex.Name(coletivo)
	assert.Equal(t, "Bruno Lima", name)
	email, _ := ex.Email(coletivo)
	assert.Equal(t, "bruno@x.com", email)
}

func TestProponenteSemTipo(t *testing.T) {
	ex := Default().Proponente()
	record := map[string]any{"nomeCompleto": "Sem Tipo", "tipo": 3}

	res := Extract(ex, record)
	assert.Nil(t, res.Name)
	assert.Nil(t, res.Email)
	assert.Nil(t, res.Phone)
}

func TestCategoriaLegado(t *testing.T) {
	reg := Default()

	atual := map[string]any{"dadosEspaco": map[string]any{"nomeEspaco": "Casa do Forró"}, "nome": "legado"}
	legado := map[string]any{"nome": "Teatro Velho", "responsavel": map[string]any{"telefone": "86999990000"}}

	ex := reg.For(KindEspacoCultural)
	name, _ := ex.Name(atual)
	assert.Equal(t, "Casa do Forró", name)

	res := Extract(ex, legado)
	require.NotNil(t, res.Name)
	assert.Equal(t, "Teatro Velho", *res.Name)
	require.NotNil(t, res.Phone)
	assert.Equal(t, "86999990000", *res.Phone)
	assert.Nil(t, res.Email)
}

func TestForDesconhecido(t *testing.T) {
	ex := Default().For(Kind("inexistente"))
	_, ok := ex.Name(map[string]any{"nome": "x"})
	assert.False(t, ok)
}

func TestLoadOverride(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "paths.yaml")
	content := []byte(`
agente:
  name: [apelido, nome]
  email: [emailPrincipal]
  phone: [fone]
`)
	require.NoError(t, os.WriteFile(file, content, 0o600))

	reg, err := Load(file)
	require.NoError(t, err)

	name, ok := reg.For(KindAgente).Name(map[string]any{"apelido": "Mestre Zé", "nome": "José"})
	require.True(t, ok)
	assert.Equal(t, "Mestre Zé", name)

	// tipos não sobrescritos continuam com a tabela embutida
	name, ok = reg.For(KindEspacoCultural).Name(map[string]any{"nomeEspaco": "Galpão"})
	require.True(t, ok)
	assert.Equal(t, "Galpão", name)
}

func TestLoadRejeitaTabelaIncompleta(t *testing.T) {
	file := filepath.Join(t.TempDir(), "paths.yaml")
	require.NoError(t, os.WriteFile(file, []byte("agente:\n  name: [nome]\n"), 0o600))

	_, err := Load(file)
	assert.Error(t, err)
}

func TestDefaultKinds(t *testing.T) {
	assert.ElementsMatch(t, []Kind{
		KindAgente, KindColetivoSemCNPJ, KindEspacoCultural,
		KindPessoaFisica, KindPessoaJuridica, KindColetivo,
	}, Default().Kinds())
}
