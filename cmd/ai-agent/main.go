package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/aman-zulfiqar/solana-farm-engine/internal/ai"
	"github.com/aman-zulfiqar/solana-farm-engine/internal/config"
)

func main() {
	query := flag.String("q", "", "ask one question about farm activity and exit")
	model := flag.String("model", "", "OpenRouter model name (defaults to the agent default)")
	farmID := flag.String("farm", "", "restrict questions to one farm id")
	showSQL := flag.Bool("sql", true, "print the generated SQL")
	flag.Parse()

	_, filename, _, _ := runtime.Caller(0)
	_ = godotenv.Load(filepath.Join(filepath.Dir(filename), "../..", ".env"))

	cfg := config.Load()
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetLevel(cfg.Level())

	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}
	if cfg.OpenRouterAPIKey == "" {
		logger.Fatal("OPENROUTER_API_KEY is required for the farm activity agent")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	agent, err := ai.NewAgent(ctx, ai.AgentConfig{
		ClickHouseAddr:     cfg.ClickHouseAddr,
		ClickHouseDatabase: cfg.ClickHouseDatabase,
		ClickHouseUsername: cfg.ClickHouseUsername,
		ClickHousePassword: cfg.ClickHousePassword,
		OpenRouterAPIKey:   cfg.OpenRouterAPIKey,
		Model:              *model,
		Logger:             logger,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create farm activity agent")
	}
	defer agent.Close()

	s := &session{agent: agent, farmID: *farmID, showSQL: *showSQL}

	if *query != "" {
		if err := s.ask(ctx, *query); err != nil {
			logger.WithError(err).Fatal("question failed")
		}
		return
	}

	s.repl(ctx)
}

type session struct {
	agent   *ai.Agent
	farmID  string
	showSQL bool
}

// scoped narrows a question to one farm when -farm is set.
func (s *session) scoped(q string) string {
	if s.farmID == "" {
		return q
	}
	return fmt.Sprintf("%s (only consider rows where farm_id = '%s')", q, s.farmID)
}

func (s *session) ask(ctx context.Context, q string) error {
	res, err := s.agent.Ask(ctx, s.scoped(q))
	if err != nil {
		return err
	}
	if s.showSQL {
		fmt.Printf("SQL:\n%s\n\n", res.SQL)
	}
	fmt.Printf("%s\n", res.Answer)
	return nil
}

func (s *session) repl(ctx context.Context) {
	scope := "all farms"
	if s.farmID != "" {
		scope = "farm " + s.farmID
	}
	fmt.Printf("Farm activity agent over farm_actions (%s)\n", scope)
	fmt.Println("Ask a question and press Enter. Empty line exits.")

	// One question every two seconds, bursts of three.
	limiter := rate.NewLimiter(rate.Limit(0.5), 3)
	in := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("\n> ")
		if !in.Scan() {
			return
		}
		q := strings.TrimSpace(in.Text())
		if q == "" {
			fmt.Println("bye")
			return
		}
		if err := limiter.Wait(ctx); err != nil {
			return
		}
		if err := s.ask(ctx, q); err != nil {
			fmt.Println("error:", err)
		}
	}
}
