package main

import (
	"log"

	chatbotplatform "github.com/j-c-fstk-dev/chatbot-platform"
	"github.com/j-c-fstk-dev/chatbot-platform/config"
	"github.com/j-c-fstk-dev/chatbot-platform/internal/options"
)

func main() {
	cfg := &config.Config{}
	if err := config.LoadConfig(cfg); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	opts := []options.Option{
		chatbotplatform.WithConfig(cfg),
	}

	// Mail delivery is optional; the auth flows degrade gracefully without it.
	if cfg.Mail.FromAddress != "" {
		opts = append(opts, chatbotplatform.WithMail())
	}

	application, err := chatbotplatform.New(opts...)
	if err != nil {
		log.Fatalf("Failed to build application: %v", err)
	}

	application.Run()
}
