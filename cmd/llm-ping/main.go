// llm-ping — утилита проверки доступности модели и поддержки tool calling.
//
// Использование:
//
//	llm-ping [config.yaml] [namespace:model]
//
// Без аргументов берёт config.yaml из текущей директории и дефолтную
// модель из секции agent.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/mkarpenko/echo-ai/pkg/config"
	"github.com/mkarpenko/echo-ai/pkg/models"
)

func main() {
	cfgPath := "config.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("Failed to load config from %s: %v", cfgPath, err)
	}

	ref := cfg.Agent.DefaultModel
	if len(os.Args) > 2 {
		ref = os.Args[2]
	}

	fmt.Printf("Pinging %s ...\n", ref)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	registry := models.NewRegistry(cfg)
	start := time.Now()
	entry, err := registry.Resolve(ctx, ref)
	if err != nil {
		fmt.Printf("FAIL: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("OK: %s responded in %s\n", ref, time.Since(start).Round(time.Millisecond))
	if entry.SupportsTools {
		fmt.Println("Tool calling: supported")
	} else {
		fmt.Println("Tool calling: NOT supported (will run in plain chat mode)")
	}
}
