package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vulnwatch/notifications-engine/internal/restapi"
	"github.com/vulnwatch/notifications-engine/internal/session"
	"github.com/vulnwatch/notifications-engine/internal/transport"
)

type Config struct {
	StreamURL     string        `env:"STREAM_URL" envDefault:"ws://localhost:8090/stream"`
	APIBaseURL    string        `env:"API_BASE_URL" envDefault:"http://localhost:8090"`
	PageSize      int           `env:"HISTORICAL_PAGE_SIZE" envDefault:"20"`
	BadgeInterval time.Duration `env:"BADGE_POLL_INTERVAL" envDefault:"30s"`
}

func main() {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		panic(err)
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	client := restapi.NewClient(cfg.APIBaseURL)
	sess := session.New(session.Config{
		StreamURL:     cfg.StreamURL,
		PageSize:      cfg.PageSize,
		BadgeInterval: cfg.BadgeInterval,
	}, transport.NewWebsocketDialer(nil), client, session.Callbacks{
		OnWarning: func(msg string) {
			log.Warn().Msg(fmt.Sprintf("stream warning: %s", msg))
		},
		OnGivenUp: func() {
			log.Error().Msg("stream disconnected, reconnect attempts exhausted")
		},
		OnBadge: func(count int) {
			log.Info().Msg(fmt.Sprintf("server badge count is %d", count))
		},
	})
	sess.Store().SetOnChange(func() {
		counts := sess.Store().Unread()
		log.Info().Msg(fmt.Sprintf("merged view changed, %d notifications, %d unread",
			len(sess.Store().Merged()), counts.Total))
	})
	sess.Start(context.Background())

	wait := make(chan struct{})
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt)
		<-sigint
		sess.Close()
		close(wait)
	}()
	log.Info().Msg(fmt.Sprintf("notification engine started against %s", cfg.StreamURL))

	<-wait
}
