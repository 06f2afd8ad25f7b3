package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/tofunori/farewatch/config"
	"github.com/tofunori/farewatch/internal/integrations/flightapi"
	"github.com/tofunori/farewatch/internal/integrations/flightapi/amadeushttp"
	"github.com/tofunori/farewatch/internal/integrations/flightapi/fake"
	"github.com/tofunori/farewatch/internal/notify"
	"github.com/tofunori/farewatch/internal/services/assistant"
	"github.com/tofunori/farewatch/internal/services/monitor"
	"github.com/tofunori/farewatch/internal/storage"
	"github.com/tofunori/farewatch/internal/storage/filehistory"
)

func main() {
	interactive := flag.Bool("interactive", false, "start a conversational session instead of a one-shot query")
	flag.Parse()

	cfg, err := config.LoadConfig(os.Getenv("configPath"))
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	provider := newProvider(cfg)
	store, err := filehistory.New(cfg.Storage.FilePath)
	if err != nil {
		panic(err)
	}
	defer store.Close()

	llmCfg := assistant.LLMConfig{
		Provider: cfg.LLM.Provider,
		Model:    cfg.LLM.Model,
		APIKey:   cfg.LLM.APIKey,
		BaseURL:  cfg.LLM.BaseURL,
	}

	if *interactive {
		runInteractive(ctx, llmCfg, provider, store)
		return
	}

	query := strings.Join(flag.Args(), " ")
	if query == "" {
		fmt.Fprintln(os.Stderr, "usage: fare-assistant [-interactive] <query>")
		os.Exit(2)
	}

	a, err := newAssistant(llmCfg)
	if err != nil {
		panic(err)
	}
	fmt.Println(answer(ctx, a, provider, store, query))
}

func newProvider(cfg *config.Config) flightapi.Client {
	if cfg.Amadeus.APIKey != "" && cfg.Amadeus.APISecret != "" {
		return amadeushttp.New(cfg.Amadeus.BaseURL, cfg.Amadeus.APIKey,
			cfg.Amadeus.APISecret, cfg.Amadeus.Currency)
	}
	return fake.New()
}

func newAssistant(llmCfg assistant.LLMConfig) (*assistant.Assistant, error) {
	if llmCfg.APIKey == "" {
		// Keyword extraction still works without a model behind it.
		return assistant.New(nil), nil
	}
	llm, err := assistant.NewCompleter(llmCfg)
	if err != nil {
		return nil, err
	}
	return assistant.New(llm), nil
}

// answer runs a full search for one free-text query: extract params,
// execute a single check cycle, render the reply.
func answer(ctx context.Context, a *assistant.Assistant, provider flightapi.Client, store storage.Store, query string) string {
	p := a.ExtractParams(ctx, query)
	if p.Origin == "" || p.Destination == "" {
		return "I could not work out the origin and destination. Try something like: flights from Montreal to Lima in May under 800$."
	}

	m := monitor.New(provider, store, notify.LogNotifier{}, p.ToMonitorConfig())
	result, err := m.CheckAllPrices(ctx)
	if err != nil {
		return fmt.Sprintf("Search failed: %v", err)
	}
	return a.RenderReply(ctx, query, p, result)
}

func runInteractive(ctx context.Context, llmCfg assistant.LLMConfig, provider flightapi.Client, store storage.Store) {
	a, err := newAssistant(llmCfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}

	fmt.Println("Flight assistant. Describe a trip, or use /provider, /model, /key, /quit.")
	sc := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !sc.Scan() || ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			field, value, _ := strings.Cut(strings.TrimPrefix(line, "/"), " ")
			switch field {
			case "quit", "exit":
				return
			case "provider":
				llmCfg.Provider = value
			case "model":
				llmCfg.Model = value
			case "key":
				llmCfg.APIKey = value
			default:
				fmt.Println("unknown command:", field)
				continue
			}
			if a, err = newAssistant(llmCfg); err != nil {
				fmt.Println("assistant setup failed:", err)
				return
			}
			fmt.Printf("llm: provider=%s model=%s\n", llmCfg.Provider, llmCfg.Model)
			continue
		}

		fmt.Println(answer(ctx, a, provider, store, line))
	}
}
