// echoai — терминальный ассистент.
// Основная точка входа для интерактивного интерфейса.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/mkarpenko/echo-ai/pkg/app"
	"github.com/mkarpenko/echo-ai/pkg/tui"
	"github.com/mkarpenko/echo-ai/pkg/utils"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configFlag := flag.String("config", "", "path to config.yaml")
	modelFlag := flag.String("model", "", `model reference "namespace:model", overrides config`)
	sessionFlag := flag.String("session", "", "session id to resume")
	flag.Parse()

	// 1. Конфигурация
	cfg, cfgPath, err := app.InitializeConfig(&app.DefaultConfigPathFinder{ConfigFlag: *configFlag})
	if err != nil {
		return err
	}
	if *modelFlag != "" {
		cfg.Agent.DefaultModel = *modelFlag
	}

	// 2. Компоненты
	ctx := context.Background()
	components, err := app.Initialize(ctx, cfg)
	if err != nil {
		return err
	}
	defer components.Close()
	defer utils.Close()

	utils.Info("application started", "config", cfgPath, "model", cfg.Agent.DefaultModel)

	// 3. Сессия: возобновляем указанную или создаем новую
	sessionID := *sessionFlag
	if sessionID != "" {
		messages, err := components.Sessions.Load(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("failed to resume session: %w", err)
		}
		components.History.Replace(messages)
		utils.Info("session resumed", "session_id", sessionID, "messages", len(messages))
	} else {
		sessionID, err = components.Sessions.Create(ctx,
			time.Now().Format("chat 2006-01-02 15:04"), nil)
		if err != nil {
			return fmt.Errorf("failed to create session: %w", err)
		}
	}
	components.AttachSession(sessionID)

	// 4. TUI
	chat := tui.NewChatTui(components.Emitter.Subscribe(), tui.ChatConfig{
		Title:         "Echo AI",
		ModelName:     cfg.Agent.DefaultModel,
		Streaming:     cfg.Agent.StreamingEnabled(),
		ShowTimestamp: true,
	})

	chat.OnInput(func(input string) {
		if _, err := components.Interactor.Interact(ctx, input); err != nil {
			utils.Error("interaction rejected", "error", err)
		}
	})

	if err := chat.Run(); err != nil {
		return err
	}

	utils.Info("application exited normally", "session_id", sessionID)
	return nil
}
