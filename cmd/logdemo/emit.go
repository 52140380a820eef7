package main

import (
	"context"
	"errors"

	"github.com/lingobot/logging"
	"github.com/spf13/cobra"
	tele "gopkg.in/telebot.v4"
)

var emitCmd = &cobra.Command{
	Use:   "emit",
	Short: "Write one sample record per operation",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService()
		if err != nil {
			return err
		}
		defer svc.Close()

		emitSamples(cmd.Context(), svc)
		return nil
	},
}

func emitSamples(ctx context.Context, log logging.Logger) {
	user := &tele.User{ID: 1001, Username: "demo", FirstName: "Demo", LastName: "User"}
	state := &logging.UserState{Phase: "quiz", Data: map[string]any{"question": 3}}
	ctx = logging.WithRequest(ctx, logging.RequestInfo{UserID: user.ID, Username: user.Username, State: state})

	log.LogAction("bot_started", logging.Fields{"version": "demo"})
	log.LogActionAt(logging.LevelWarn, "cache_cold", logging.Fields{"entries": 0})
	log.LogUserMessage(user, "Wie sagt man 'apple' auf Deutsch?", state)
	log.LogUserAction(ctx, "answer_submitted", logging.Fields{"correct": true})
	log.LogDebug(ctx, "session loaded", nil)
	log.LogInfo(ctx, "lesson progress saved", logging.Fields{"lesson_id": 12})
	log.LogWarn(ctx, "slow translation lookup", logging.Fields{"ms": 850})
	log.LogErr(ctx, logging.WithStack(errors.New("lesson 99 not found")), logging.Fields{"lesson_id": 99})
	log.LogError(ctx, logging.Plain("reminder queue is full"), nil)
	log.LogWithCaller(logging.LevelInfo, "GET /health 200", "http-access", nil)
}
