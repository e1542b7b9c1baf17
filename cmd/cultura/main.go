// Command cultura reúne as ferramentas de operação do portal: cadastro de
// municípios, consulta do mapeamento cultural e emissão de tokens de
// desenvolvimento.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gestaozabele/cultura/internal/db"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:           "cultura",
	Short:         "Ferramentas de operação do portal de cultura",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load()

		level := zerolog.InfoLevel
		if verbose {
			level = zerolog.DebugLevel
		}
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).Level(level)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "logs detalhados")

	rootCmd.AddCommand(cidadeCmd, mapeamentoCmd, tokenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "erro:", err)
		os.Exit(1)
	}
}

// openPool conecta no banco usando DB_DSN ou DATABASE_URL.
func openPool(ctx context.Context) (*pgxpool.Pool, error) {
	dsn := strings.TrimSpace(os.Getenv("DB_DSN"))
	if dsn == "" {
		dsn = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	}
	if dsn == "" {
		return nil, fmt.Errorf("defina DB_DSN ou DATABASE_URL")
	}
	return db.NewPool(ctx, dsn)
}
