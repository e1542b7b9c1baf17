package extract

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gestaozabele/cultura/internal/fieldpath"
)

//go:embed paths.yaml
var defaultPaths []byte

// Registry guarda a tabela de caminhos por tipo.
type Registry struct {
	kinds map[Kind]Paths
}

// Default devolve o registro com a tabela embutida.
func Default() *Registry {
	reg, err := parse(defaultPaths)
	if err != nil {
		panic(fmt.Sprintf("extract: tabela embutida inválida: %v", err))
	}
	return reg
}

// Load parte da tabela embutida e sobrescreve os tipos presentes no arquivo
// informado. Caminho vazio devolve apenas a tabela embutida.
func Load(path string) (*Registry, error) {
	reg := Default()
	path = strings.TrimSpace(path)
	if path == "" {
		return reg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("extract: ler %s: %w", path, err)
	}
	override, err := parse(raw)
	if err != nil {
		return nil, fmt.Errorf("extract: %s: %w", path, err)
	}
	for kind, paths := range override.kinds {
		reg.kinds[kind] = paths
	}
	return reg, nil
}

func parse(raw []byte) (*Registry, error) {
	var table map[string]Paths
	if err := yaml.Unmarshal(raw, &table); err != nil {
		return nil, err
	}
	reg := &Registry{kinds: make(map[Kind]Paths, len(table))}
	for name, paths := range table {
		kind := Kind(strings.TrimSpace(name))
		if len(paths.Names) == 0 || len(paths.Emails) == 0 || len(paths.Phones) == 0 {
			return nil, fmt.Errorf("tipo %s sem caminhos para nome, e-mail ou telefone", kind)
		}
		reg.kinds[kind] = paths
	}
	return reg, nil
}

// For devolve o extrator do tipo. Tipos desconhecidos resultam em extrator
// vazio, que sempre reporta ausência.
func (r *Registry) For(kind Kind) Extractor {
	return r.kinds[kind]
}

// Kinds lista os tipos registrados.
func (r *Registry) Kinds() []Kind {
	kinds := make([]Kind, 0, len(r.kinds))
	for k := range r.kinds {
		kinds = append(kinds, k)
	}
	return kinds
}

// Proponente escolhe a tabela a partir do campo "tipo" do próprio registro.
func (r *Registry) Proponente() Extractor {
	return proponenteExtractor{reg: r}
}

type proponenteExtractor struct {
	reg *Registry
}

func (p proponenteExtractor) pick(record map[string]any) Paths {
	tipo, ok := fieldpath.Resolve(record, []string{"tipo"})
	if !ok {
		return Paths{}
	}
	switch Kind(strings.ToLower(tipo)) {
	case KindPessoaFisica, KindPessoaJuridica, KindColetivo:
		return p.reg.kinds[Kind(strings.ToLower(tipo))]
	}
	return Paths{}
}

func (p proponenteExtractor) Name(record map[string]any) (string, bool) {
	return p.pick(record).Name(record)
}

func (p proponenteExtractor) Email(record map[string]any) (string, bool) {
	return p.pick(record).Email(record)
}

func (p proponenteExtractor) Phone(record map[string]any) (string, bool) {
	return p.pick(record).Phone(record)
}
