package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"chatbot-feedback/internal/application"
	"chatbot-feedback/internal/config"
	"chatbot-feedback/internal/domain/model"
	"chatbot-feedback/internal/infra/logging"
)

type seedConv struct {
	Inputs   []string
	Rating   int
	Feedback string
	Rated    bool
}

var demo = []seedConv{
	{Inputs: []string{"hello", "how are you?"}, Rating: 5, Feedback: "Friendly and quick.", Rated: true},
	{Inputs: []string{"what is your name?"}, Rating: 3, Rated: true},
	{Inputs: []string{"tell me a joke"}},
}

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	force := flag.Bool("force", false, "seed even when conversations already exist")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, false)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger, closer, err := logging.New(cfg.Log, false)
	if err != nil {
		log.Fatalf("logging: %v", err)
	}
	defer closer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a, err := application.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("app: %v", err)
	}
	defer a.Close()

	existing, err := a.Store.List(ctx)
	if err != nil {
		log.Fatalf("list conversations: %v", err)
	}
	if len(existing) > 0 && !*force {
		fmt.Printf("%d conversations already present. No changes.\n", len(existing))
		return
	}

	for _, s := range demo {
		c, err := a.Store.Create(ctx)
		if err != nil {
			log.Fatalf("create: %v", err)
		}
		for _, in := range s.Inputs {
			if _, err := a.Store.AppendMessage(ctx, c.ID, model.NewUserMessage(in)); err != nil {
				log.Fatalf("append: %v", err)
			}
			if _, err := a.Store.AppendMessage(ctx, c.ID, model.NewAIMessage(a.Responder.Respond(in))); err != nil {
				log.Fatalf("append: %v", err)
			}
		}
		if s.Rated {
			fb, err := model.NewFeedback(s.Rating, s.Feedback)
			if err != nil {
				log.Fatalf("feedback: %v", err)
			}
			if _, err := a.Store.SetFeedback(ctx, c.ID, *fb); err != nil {
				log.Fatalf("set feedback: %v", err)
			}
		}
		fmt.Printf("Seeded conversation %d (%d messages)\n", c.ID, 2*len(s.Inputs))
	}
	fmt.Printf("Done. Storage driver: %s\n", a.Slot.Driver())
}
