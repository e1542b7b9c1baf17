package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/gestaozabele/cultura/internal/auth"
)

var tokenFlags struct {
	subject string
	roles   []string
	cidades []string
	ttl     time.Duration
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Emite um token de acesso para desenvolvimento",
	Long: `Emite um JWT assinado com JWT_SECRET. Em produção os tokens vêm do
provedor de identidade; use apenas em ambientes locais.`,
	Example: `  cultura token --sub gestor@zabele --role GESTOR --cidade 2211209`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runToken(os.Getenv("JWT_SECRET"), cmd.OutOrStdout())
	},
}

func init() {
	f := tokenCmd.Flags()
	f.StringVar(&tokenFlags.subject, "sub", "", "identificador do usuário")
	f.StringSliceVar(&tokenFlags.roles, "role", nil, "papéis (ADMIN, GESTOR, AVALIADOR, PROPONENTE)")
	f.StringSliceVar(&tokenFlags.cidades, "cidade", nil, "municípios liberados")
	f.DurationVar(&tokenFlags.ttl, "ttl", time.Hour, "validade do token")
}

var knownRoles = map[string]bool{
	auth.RoleAdmin:      true,
	auth.RoleGestor:     true,
	auth.RoleAvaliador:  true,
	auth.RoleProponente: true,
}

func runToken(secret string, out io.Writer) error {
	secret = strings.TrimSpace(secret)
	if len(secret) < 32 {
		return errors.New("JWT_SECRET deve ter pelo menos 32 caracteres")
	}
	if strings.TrimSpace(tokenFlags.subject) == "" {
		return errors.New("informe --sub")
	}

	roles := make([]string, 0, len(tokenFlags.roles))
	for _, r := range tokenFlags.roles {
		r = strings.ToUpper(strings.TrimSpace(r))
		if !knownRoles[r] {
			return fmt.Errorf("papel desconhecido: %s", r)
		}
		roles = append(roles, r)
	}
	if len(roles) == 0 {
		return errors.New("informe ao menos um --role")
	}

	token, err := auth.NewJWTManager(secret, tokenFlags.ttl).GenerateAccessToken(tokenFlags.subject, roles, tokenFlags.cidades)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, token)
	return nil
}
