package application

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/rocketscienceinc/pictionary-server/internal/config"
	"github.com/rocketscienceinc/pictionary-server/internal/feed"
	"github.com/rocketscienceinc/pictionary-server/internal/game"
	"github.com/rocketscienceinc/pictionary-server/internal/storage"
	"github.com/rocketscienceinc/pictionary-server/internal/words"
	"github.com/rocketscienceinc/pictionary-server/transport/rest"
	"github.com/rocketscienceinc/pictionary-server/transport/tcp"
)

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	var wg sync.WaitGroup
	defer wg.Wait()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	bank, err := words.FromConfig(conf.Game.WordFile, conf.Game.Words)
	if err != nil {
		return fmt.Errorf("could not build word bank: %w", err)
	}

	publisher, err := initFeed(ctx, logger, conf, &wg)
	if err != nil {
		return err
	}

	server := tcp.New(logger, tcp.Options{
		PollInterval: conf.Server.PollInterval,
		WriteTimeout: conf.Server.WriteTimeout,
		SendQueue:    conf.Server.SendQueue,
		MaxFrameSize: conf.Server.MaxFrameSize,
		ReadBuffer:   conf.Server.ReadBuffer,
	})

	if err = server.Listen(conf.Server.GetAddr()); err != nil {
		return fmt.Errorf("could not start game server: %w", err)
	}

	engine := game.New(logger, server, bank, publisher, game.Options{
		MinPlayers:         conf.Game.MinPlayers,
		CountdownSeconds:   conf.Game.CountdownSeconds,
		TickInterval:       conf.Game.TickInterval,
		RoundRestartDelay:  conf.Game.RoundRestartDelay,
		GuessRate:          conf.Game.GuessRate,
		GuessBurst:         conf.Game.GuessBurst,
		CloseGuessDistance: conf.Game.CloseGuessDistance,
		GuesserPoints:      conf.Game.GuesserPoints,
		DrawerPoints:       conf.Game.DrawerPoints,
	})

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "addr", conf.GetHTTPAddr())
		if httpErr := rest.Start(ctx, conf.GetHTTPAddr(), rest.NewHandlers(logger, server)); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run game server
	tcpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting game server", "addr", conf.Server.GetAddr(), "words", bank.Len())
		tcpErrCh <- server.Serve(ctx, engine)
	}()

	select {
	case err = <-httpErrCh:
		cancel()
		<-tcpErrCh

		return fmt.Errorf("HTTP server error: %w", err)
	case err = <-tcpErrCh:
		if err != nil {
			return fmt.Errorf("game server error: %w", err)
		}

		log.Info("Application context canceled, shutting down")

		return nil
	}
}

// initFeed - connects to redis and starts the event feed when it is enabled.
func initFeed(ctx context.Context, logger *slog.Logger, conf *config.Config, wg *sync.WaitGroup) (feed.Publisher, error) {
	log := logger.With("method", "initFeed")

	if !conf.Redis.Enabled {
		return feed.Nop{}, nil
	}

	redisStorage, err := storage.NewRedis(ctx, conf.Redis.GetRedisAddr())
	if err != nil {
		return nil, fmt.Errorf("could not connect to redis storage: %w", err)
	}

	redisFeed := feed.NewRedisFeed(logger, redisStorage, conf.Redis.Channel, conf.Redis.QueueSize)

	wg.Add(1)
	go func() {
		defer wg.Done()

		redisFeed.Run(ctx)

		if err := redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}()

	log.Info("Publishing game events", "channel", conf.Redis.Channel)

	return redisFeed, nil
}
