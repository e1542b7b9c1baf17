package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gestaozabele/cultura/internal/tenant"
)

var cidadeCmd = &cobra.Command{
	Use:   "cidade",
	Short: "Cadastro de municípios atendidos",
}

var cidadeFlags struct {
	codigo       string
	slug         string
	nome         string
	uf           string
	domain       string
	settingsFile string
	settingsJSON string
}

var cidadeCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Registra um município",
	Example: `  cultura cidade create --codigo 2211209 --nome "São João do Piauí" --uf PI
  cultura cidade create --codigo 2211209 --nome "São João do Piauí" --settings '{"corPrimaria":"#123456"}'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		pool, err := openPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		service := tenant.NewService(tenant.NewRepository(pool))
		return runCidadeCreate(ctx, service, cmd.OutOrStdout())
	},
}

var cidadeListCmd = &cobra.Command{
	Use:   "list",
	Short: "Lista os municípios",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		pool, err := openPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		service := tenant.NewService(tenant.NewRepository(pool))
		return runCidadeList(ctx, service, cmd.OutOrStdout())
	},
}

func init() {
	f := cidadeCreateCmd.Flags()
	f.StringVar(&cidadeFlags.codigo, "codigo", "", "código do município (cityId)")
	f.StringVar(&cidadeFlags.slug, "slug", "", "slug (gerado do nome quando omitido)")
	f.StringVar(&cidadeFlags.nome, "nome", "", "nome exibido")
	f.StringVar(&cidadeFlags.uf, "uf", "", "sigla do estado")
	f.StringVar(&cidadeFlags.domain, "domain", "", "domínio do portal do município")
	f.StringVar(&cidadeFlags.settingsFile, "settings-file", "", "arquivo JSON com configurações visuais")
	f.StringVar(&cidadeFlags.settingsJSON, "settings", "", "JSON literal com configurações visuais")

	cidadeCmd.AddCommand(cidadeCreateCmd, cidadeListCmd)
}

type cidadeCreator interface {
	Create(ctx context.Context, input tenant.CreateTenantInput) (*tenant.Tenant, error)
}

type cidadeLister interface {
	List(ctx context.Context) ([]tenant.Tenant, error)
}

func runCidadeCreate(ctx context.Context, service cidadeCreator, out io.Writer) error {
	if cidadeFlags.codigo == "" || cidadeFlags.nome == "" {
		return errors.New("codigo e nome são obrigatórios")
	}

	settings := map[string]any{}
	if cidadeFlags.settingsFile != "" {
		raw, err := os.ReadFile(cidadeFlags.settingsFile)
		if err != nil {
			return fmt.Errorf("ler settings-file: %w", err)
		}
		if err := json.Unmarshal(raw, &settings); err != nil {
			return fmt.Errorf("parse settings-file: %w", err)
		}
	} else if cidadeFlags.settingsJSON != "" {
		if err := json.Unmarshal([]byte(cidadeFlags.settingsJSON), &settings); err != nil {
			return fmt.Errorf("parse settings: %w", err)
		}
	}

	created, err := service.Create(ctx, tenant.CreateTenantInput{
		Codigo:      cidadeFlags.codigo,
		Slug:        cidadeFlags.slug,
		DisplayName: cidadeFlags.nome,
		UF:          cidadeFlags.uf,
		Domain:      cidadeFlags.domain,
		Settings:    settings,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "município criado: %s (%s) id=%s\n", created.DisplayName, created.Codigo, created.ID)
	return nil
}

func runCidadeList(ctx context.Context, service cidadeLister, out io.Writer) error {
	tenants, err := service.List(ctx)
	if err != nil {
		return err
	}
	if len(tenants) == 0 {
		fmt.Fprintln(out, "nenhum município cadastrado")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CÓDIGO\tNOME\tUF\tSLUG\tDOMÍNIO")
	for _, t := range tenants {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", t.Codigo, t.DisplayName, t.UF, t.Slug, t.Domain)
	}
	return tw.Flush()
}
