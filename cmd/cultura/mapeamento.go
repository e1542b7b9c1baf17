package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gestaozabele/cultura/internal/config"
	"github.com/gestaozabele/cultura/internal/docstore"
	"github.com/gestaozabele/cultura/internal/extract"
	"github.com/gestaozabele/cultura/internal/mapping"
	"github.com/gestaozabele/cultura/internal/tui"
)

var mapeamentoFlags struct {
	cidade    string
	categoria string
	busca     string
	saida     string
	paths     string
}

var mapeamentoCmd = &cobra.Command{
	Use:   "mapeamento",
	Short: "Consulta o mapeamento cultural de um município",
}

var mapeamentoBrowseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Abre a consulta interativa (agentes, coletivos e espaços)",
	Long: `Abre a consulta interativa do mapeamento.

Teclas:
  tab / 1-3  troca de aba
  /          filtra por nome ou e-mail (esc limpa)
  c          troca de município
  r          recarrega após falha
  q          sai`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		fetcher, registry, closeFn, err := openMapping(ctx)
		if err != nil {
			return err
		}
		defer closeFn()

		browser := mapping.NewBrowser(fetcher, registry)
		p := tea.NewProgram(tui.New(ctx, browser, mapeamentoFlags.cidade), tea.WithAltScreen())
		_, err = p.Run()
		return err
	},
}

var mapeamentoExportCmd = &cobra.Command{
	Use:     "export",
	Short:   "Exporta uma categoria em CSV",
	Example: `  cultura mapeamento export --cidade 2211209 --categoria espacos --busca cordel -o espacos.csv`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		fetcher, registry, closeFn, err := openMapping(ctx)
		if err != nil {
			return err
		}
		defer closeFn()

		out := cmd.OutOrStdout()
		if mapeamentoFlags.saida != "" && mapeamentoFlags.saida != "-" {
			f, err := os.Create(mapeamentoFlags.saida)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}

		n, err := runExport(ctx, mapping.NewBrowser(fetcher, registry), mapeamentoFlags.cidade, mapeamentoFlags.categoria, mapeamentoFlags.busca, out)
		if err != nil {
			return err
		}
		log.Info().Int("linhas", n).Str("cidade", mapeamentoFlags.cidade).Msg("exportação concluída")
		return nil
	},
}

func init() {
	pf := mapeamentoCmd.PersistentFlags()
	pf.StringVar(&mapeamentoFlags.cidade, "cidade", "", "código do município (cityId)")
	pf.StringVar(&mapeamentoFlags.paths, "paths", "", "arquivo YAML com caminhos de extração (padrão: EXTRACT_PATHS_FILE)")

	ef := mapeamentoExportCmd.Flags()
	ef.StringVar(&mapeamentoFlags.categoria, "categoria", "", "agentes, coletivos ou espacos")
	ef.StringVar(&mapeamentoFlags.busca, "busca", "", "filtro por nome ou e-mail")
	ef.StringVarP(&mapeamentoFlags.saida, "output", "o", "", "arquivo de saída (padrão: stdout)")
	_ = mapeamentoExportCmd.MarkFlagRequired("categoria")

	mapeamentoCmd.AddCommand(mapeamentoBrowseCmd, mapeamentoExportCmd)
}

// openMapping monta o serviço de mapeamento sobre o armazenamento configurado.
func openMapping(ctx context.Context) (mapping.Fetcher, *extract.Registry, func(), error) {
	registry, err := loadRegistry()
	if err != nil {
		return nil, nil, nil, err
	}

	dsCfg, err := config.LoadDocStore()
	if err != nil {
		return nil, nil, nil, err
	}

	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if dsCfg.Provider == config.DocStorePostgres {
		pool, err := openPool(ctx)
		if err != nil {
			return nil, nil, nil, err
		}
		closers = append(closers, pool.Close)

		store, _, err := docstore.Open(ctx, dsCfg, pool)
		if err != nil {
			closeAll()
			return nil, nil, nil, err
		}
		return mapping.NewService(store, log.Logger), registry, closeAll, nil
	}

	store, closeStore, err := docstore.Open(ctx, dsCfg, nil)
	if err != nil {
		return nil, nil, nil, err
	}
	closers = append(closers, func() { _ = closeStore(context.Background()) })
	return mapping.NewService(store, log.Logger), registry, closeAll, nil
}

func loadRegistry() (*extract.Registry, error) {
	path := mapeamentoFlags.paths
	if path == "" {
		path = strings.TrimSpace(os.Getenv("EXTRACT_PATHS_FILE"))
	}
	if path == "" {
		return extract.Default(), nil
	}
	return extract.Load(path)
}

// runExport carrega o município, aplica a busca e escreve as linhas visíveis.
func runExport(ctx context.Context, browser *mapping.Browser, cityID, categoria, busca string, out io.Writer) (int, error) {
	cat, ok := mapping.ParseCategoria(categoria)
	if !ok {
		return 0, fmt.Errorf("categoria inválida: %q", categoria)
	}
	if strings.TrimSpace(cityID) == "" {
		return 0, errors.New("informe --cidade")
	}

	browser.Load(ctx, cityID)
	browser.SetSearch(cat, busca)

	view := browser.View(cat)
	if view.State == mapping.StateError {
		return 0, errors.New(view.Error)
	}
	if err := gocsv.Marshal(view.Rows, out); err != nil {
		return 0, err
	}
	return len(view.Rows), nil
}
