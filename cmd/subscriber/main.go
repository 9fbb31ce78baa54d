// Command subscriber tails farm actions and notifications from Redis Pub/Sub.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/aman-zulfiqar/solana-farm-engine/internal/cache"
	"github.com/aman-zulfiqar/solana-farm-engine/internal/config"
	"github.com/aman-zulfiqar/solana-farm-engine/internal/constants"
	"github.com/aman-zulfiqar/solana-farm-engine/internal/models"
)

func main() {
	_, filename, _, _ := runtime.Caller(0)
	_ = godotenv.Load(filepath.Join(filepath.Dir(filename), "../..", ".env"))

	farmID := flag.String("farm", "", "only follow one farm's actions")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	cfg := config.Load()
	logger.SetLevel(cfg.Level())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutting down subscriber")
		cancel()
	}()

	rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{Addr: cfg.RedisAddr}, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to Redis")
	}
	defer rc.Close()

	pubsub := cache.NewPubSubManager(rc.Client(), logger)

	channel := constants.PubSubChannelActions
	if *farmID != "" {
		channel = cache.FarmChannel(*farmID)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return pubsub.SubscribeActions(gctx, channel, func(ev *models.FarmActionEvent) {
			logger.WithFields(logrus.Fields{
				"farm":     ev.FarmID,
				"action":   ev.Action,
				"status":   ev.Status,
				"owner":    ev.Owner,
				"sigs":     len(ev.Signatures),
				"duration": ev.DurationMS,
			}).Info("action")
		})
	})
	g.Go(func() error {
		return pubsub.SubscribeNotifications(gctx, func(n models.Notification) {
			entry := logger.WithFields(logrus.Fields{"farm": n.FarmID, "action": n.Action})
			if n.Severity == models.SeverityError {
				entry.Warnf("%s %s", n.Message, n.Description)
				return
			}
			entry.Info(n.Message)
		})
	})

	logger.WithField("channel", channel).Info("subscriber running, press Ctrl+C to stop")
	if err := g.Wait(); err != nil {
		logger.WithError(err).Fatal("subscription failed")
	}
}
