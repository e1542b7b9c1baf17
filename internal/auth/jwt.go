package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Papéis reconhecidos pelo portal.
const (
	RoleAdmin      = "ADMIN"
	RoleGestor     = "GESTOR"
	RoleAvaliador  = "AVALIADOR"
	RoleProponente = "PROPONENTE"
)

// Claims representa as informações presentes no token emitido pelo provedor
// de identidade.
type Claims struct {
	Roles   []string `json:"roles"`
	Cidades []string `json:"cidades,omitempty"`
	jwt.RegisteredClaims
}

// HasRole indica se o token possui algum dos papéis informados.
func (c *Claims) HasRole(roles ...string) bool {
	for _, have := range c.Roles {
		for _, want := range roles {
			if strings.EqualFold(strings.TrimSpace(have), want) {
				return true
			}
		}
	}
	return false
}

// JWTManager encapsula geração e validação de tokens.
type JWTManager struct {
	secret    []byte
	accessTTL time.Duration
}

// NewJWTManager cria o gerenciador com segredo e TTL configurados.
func NewJWTManager(secret string, accessTTL time.Duration) *JWTManager {
	return &JWTManager{secret: []byte(secret), accessTTL: accessTTL}
}

// GenerateAccessToken cria um JWT HS256. Em produção os tokens vêm do
// provedor de identidade; aqui serve a desenvolvimento e testes.
func (m *JWTManager) GenerateAccessToken(subject string, roles, cidades []string) (string, error) {
	now := time.Now().UTC()

	claims := Claims{
		Roles:   roles,
		Cidades: cidades,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Audience:  jwt.ClaimStrings{"cultura"},
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ParseAndValidate verifica assinatura e expiração.
func (m *JWTManager) ParseAndValidate(tokenString string) (*Claims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	token, err := parser.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("token inválido")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, errors.New("token sem subject")
	}

	return claims, nil
}
