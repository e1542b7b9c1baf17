package edital

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Closer encerra editais vencidos em agenda cron.
type Closer struct {
	service *Service
	cron    *cron.Cron
	logger  zerolog.Logger
	timeout time.Duration
}

// NewCloser registra o job na agenda informada (formato cron de 5 campos).
func NewCloser(service *Service, schedule string, logger zerolog.Logger) (*Closer, error) {
	c := &Closer{
		service: service,
		cron:    cron.New(),
		logger:  logger.With().Str("component", "edital_closer").Logger(),
		timeout: time.Minute,
	}
	if _, err := c.cron.AddFunc(schedule, c.Run); err != nil {
		return nil, fmt.Errorf("edital: agenda inválida %q: %w", schedule, err)
	}
	return c, nil
}

// Run executa uma rodada de encerramento.
func (c *Closer) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	n, err := c.service.CloseExpired(ctx)
	if err != nil {
		c.logger.Error().Err(err).Msg("falha ao encerrar editais")
		return
	}
	c.logger.Debug().Int("encerrados", n).Msg("rodada concluída")
}

func (c *Closer) Start() {
	c.cron.Start()
}

// Stop aguarda o job em andamento terminar.
func (c *Closer) Stop() {
	<-c.cron.Stop().Done()
}
