// Command farmctl reads farm state and runs farm actions from the terminal.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solana-farm-engine/internal/config"
	"github.com/aman-zulfiqar/solana-farm-engine/internal/farm"
	"github.com/aman-zulfiqar/solana-farm-engine/internal/farmengine"
	"github.com/aman-zulfiqar/solana-farm-engine/internal/units"
)

const usage = `usage: farmctl <command> [flags]

commands:
  farms                               list farms with pool state
  view     -farm ID                   show one farm and the wallet's position
  estimate -farm ID -amt N [-reverse] convert an amount on one leg into the other
  deposit  -farm ID -a N -b N         add liquidity and stake the LP tokens
  withdraw -farm ID (-amt N | -max)   unstake LP tokens and withdraw both legs
  harvest  -farm ID                   claim pending rewards
  stake    -farm ID                   stake deposited LP tokens
  remove   -farm ID                   withdraw deposited-but-unstaked liquidity
  history  -farm ID [-limit N]        show past actions`

func loadEnv() {
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(filename), "../..")
	_ = godotenv.Load(filepath.Join(projectRoot, ".env"))
}

func main() {
	loadEnv()

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(2)
	}
	cmd, args := os.Args[1], os.Args[2:]

	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	farmID := fs.String("farm", "", "farm id, e.g. sol-usdc")
	amt := fs.Float64("amt", 0, "amount in display units")
	amtA := fs.Float64("a", 0, "deposit amount of the first token")
	amtB := fs.Float64("b", 0, "deposit amount of the second token")
	reverse := fs.Bool("reverse", false, "estimate from the second token into the first")
	useMax := fs.Bool("max", false, "withdraw the full staked amount")
	limit := fs.Int("limit", 20, "history rows")
	verbose := fs.Bool("v", false, "debug logging")
	_ = fs.Parse(args)

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetLevel(logrus.WarnLevel)
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fail("invalid configuration", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	engine, err := farmengine.NewEngineFromConfig(ctx, cfg, logger)
	if err != nil {
		fail("failed to init farm engine", err)
	}
	defer engine.Close()

	if cmd == "farms" {
		if err := engine.RefreshAll(ctx); err != nil {
			logger.WithError(err).Warn("some farms failed to load")
		}
		for _, o := range engine.Farms() {
			v := o.View()
			fmt.Printf("%-12s %-14s pooled=%s %s / %s %s  tvl=%s apy=%s\n",
				v.FarmID, v.Name, v.PooledA.Text, v.SymbolA, v.PooledB.Text, v.SymbolB, v.TVL, v.APY)
		}
		return
	}

	if *farmID == "" {
		fmt.Println("missing -farm")
		os.Exit(2)
	}
	o, err := engine.Farm(*farmID)
	if err != nil {
		fail("unknown farm", err)
	}

	switch cmd {
	case "view", "estimate", "history":
		if err := o.Refresh(ctx); err != nil {
			logger.WithError(err).Warn("farm state incomplete")
		}
	case "deposit", "withdraw", "harvest", "stake", "remove":
		if err := engine.Connect(ctx); err != nil {
			if !engine.Connected() {
				fail("wallet connect failed", err)
			}
			logger.WithError(err).Warn("farm state incomplete")
		}
	default:
		fmt.Println(usage)
		os.Exit(2)
	}

	switch cmd {
	case "view":
		printView(o.View())
	case "estimate":
		amount := mustAmount(*amt)
		out, err := o.Estimate(amount, *reverse)
		if err != nil {
			fail("estimate failed", err)
		}
		from, to := o.Farm().Pool.TokenA.Mint.Symbol, o.Farm().Pool.TokenB.Mint.Symbol
		if *reverse {
			from, to = to, from
		}
		fmt.Printf("%s %s ~ %s %s\n", amount, from, out, to)
	case "history":
		items, err := engine.History(ctx, *farmID, *limit)
		if err != nil {
			fail("history failed", err)
		}
		for _, ev := range items {
			fmt.Printf("%s %-16s %-9s a=%s b=%s lp=%s %s\n",
				ev.Timestamp.Format(time.DateTime), ev.Action, ev.Status, ev.AmountA, ev.AmountB, ev.Amount, ev.Error)
		}
	case "deposit":
		report(o.Deposit(ctx, mustAmount(*amtA), mustAmount(*amtB)))
	case "withdraw":
		amount := o.WithdrawMax()
		if !*useMax {
			amount = mustAmount(*amt)
		}
		report(o.Withdraw(ctx, amount))
	case "harvest":
		report(o.Harvest(ctx))
	case "stake":
		report(o.Stake(ctx))
	case "remove":
		report(o.RemoveLiquidity(ctx))
	}
}

func mustAmount(f float64) decimal.Decimal {
	d, err := units.FromFloat(f)
	if err != nil {
		fail("invalid amount", err)
	}
	return d
}

func report(res *farmengine.ActionResult, err error) {
	var subErr *farmengine.SubmissionError
	if errors.As(err, &subErr) {
		fmt.Println(subErr.Message())
		fmt.Println(farmengine.FailureDescription)
		os.Exit(1)
	}
	if err != nil {
		fail("action rejected", err)
	}
	fmt.Printf("%s confirmed in %s\n", res.Kind, res.Duration.Round(time.Millisecond))
	for _, sig := range res.Signatures {
		fmt.Println("  ", sig)
	}
	if res.RefreshErr != nil {
		fmt.Println("warning: state refresh incomplete:", res.RefreshErr)
	}
}

func printView(v farmengine.PositionView) {
	fmt.Printf("%s (%s)\n", v.Name, v.FarmID)
	fmt.Printf("  pooled          %s %s / %s %s\n", v.PooledA.Text, v.SymbolA, v.PooledB.Text, v.SymbolB)
	fmt.Printf("  lp in farm      %s\n", v.LPSupply.Text)
	fmt.Printf("  tvl / apy       %s / %s\n", v.TVL, v.APY)
	if !v.Connected {
		fmt.Println("  wallet          not connected")
		return
	}
	fmt.Printf("  staked          %s\n", v.Staked.Text)
	fmt.Printf("  pending reward  %s %s\n", v.PendingReward.Text, v.Reward)
	if v.ShowStake {
		fmt.Printf("  unstaked        %s\n", v.DepositedUnstaked.Text)
	}
	for _, kind := range farm.AllActions {
		st := v.Actions[kind]
		fmt.Printf("  %-16s disabled=%v\n", kind, st.Disabled)
	}
}

func fail(msg string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	os.Exit(1)
}
