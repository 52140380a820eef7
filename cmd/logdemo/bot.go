package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/lingobot/logging"
	"github.com/spf13/cobra"
	tele "gopkg.in/telebot.v4"
)

const tokenEnv = "LOGDEMO_TELEGRAM_TOKEN"

var botToken string

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Run an echo bot with the logging middleware",
	Long:  "Run a long-polling Telegram echo bot. The token comes from --token or " + tokenEnv + ".",
	RunE: func(cmd *cobra.Command, args []string) error {
		token := botToken
		if token == "" {
			token = os.Getenv(tokenEnv)
		}
		if strings.TrimSpace(token) == "" {
			return errors.New("telegram token is empty")
		}

		svc, err := openService()
		if err != nil {
			return err
		}
		defer svc.Close()

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		return runBot(ctx, svc, token)
	},
}

func init() {
	botCmd.Flags().StringVar(&botToken, "token", "", "bot token")
}

func runBot(ctx context.Context, svc *logging.Service, token string) error {
	b, err := tele.NewBot(tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		return err
	}

	b.Use(logging.Middleware(svc, logging.MiddlewareOptions{}))
	b.Handle("/start", func(c tele.Context) error {
		svc.LogUserAction(logging.RequestContext(c), "start", nil)
		return c.Send("Hi! Send me any word.")
	})
	b.Handle(tele.OnText, func(c tele.Context) error {
		svc.LogUserAction(logging.RequestContext(c), "echo", logging.Fields{"length": len(c.Text())})
		return c.Send(c.Text())
	})

	go b.Start()
	svc.LogAction("bot_started", logging.Fields{"username": b.Me.Username})

	<-ctx.Done()
	b.Stop()
	svc.LogAction("bot_stopped", nil)
	return nil
}
