package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"bitnostr/bot"
	"bitnostr/channel"
	"bitnostr/config"
	"bitnostr/crypto"
	"bitnostr/discovery"
	"bitnostr/envelope"
	"bitnostr/llm"
	"bitnostr/messaging"
	"bitnostr/models"
	"bitnostr/relay"
	"bitnostr/storage"
)

// botLookback keeps the bot from answering mentions posted before it started.
const botLookback = 5 * time.Second

type options struct {
	dataDir     string
	relays      []string
	geohashes   []string
	nickname    string
	bot         bool
	ephemeral   bool
	logLevel    string
	logFormat   string
	sendDM      string
	sendChannel string
	message     string
	teleported  bool
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	logger, err := newLogger(opts.logLevel, opts.logFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	if err := run(opts, logger); err != nil {
		logger.Fatal().Err(err).Msg("bitnostr stopped")
	}
}

func parseFlags(args []string) (options, error) {
	var opts options

	flagSet := pflag.NewFlagSet("bitnostr", pflag.ContinueOnError)
	flagSet.StringVar(&opts.dataDir, "data-dir", "", "data directory (default: $"+config.DataDirEnv+" or the OS config dir)")
	flagSet.StringArrayVar(&opts.relays, "relay", nil, "relay URL; repeatable, replaces the configured relays")
	flagSet.StringArrayVar(&opts.geohashes, "geohash", nil, "only listen to these geohash channels; repeatable")
	flagSet.StringVar(&opts.nickname, "nickname", "", "nickname tag for channel messages")
	flagSet.BoolVar(&opts.bot, "bot", false, "run the channel chatbot")
	flagSet.BoolVar(&opts.ephemeral, "ephemeral", false, "use a fresh identity that is never written to disk")
	flagSet.StringVar(&opts.logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	flagSet.StringVar(&opts.logFormat, "log-format", "console", "log format (console, json)")
	flagSet.StringVar(&opts.sendDM, "send-dm", "", "send one direct message to this npub or hex public key and exit")
	flagSet.StringVar(&opts.sendChannel, "send-channel", "", "send one message to this geohash channel and exit")
	flagSet.StringVarP(&opts.message, "message", "m", "", "message content for --send-dm or --send-channel")
	flagSet.BoolVar(&opts.teleported, "teleported", false, "mark channel messages as teleported")

	if err := flagSet.Parse(args); err != nil {
		return options{}, err
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return options{}, fmt.Errorf("unexpected argument: %s", rest[0])
	}
	if opts.sendDM != "" && opts.sendChannel != "" {
		return options{}, errors.New("--send-dm and --send-channel are mutually exclusive")
	}
	if (opts.sendDM != "" || opts.sendChannel != "") && strings.TrimSpace(opts.message) == "" {
		return options{}, errors.New("--message is required when sending")
	}
	if opts.sendChannel != "" && !channel.ValidGeohash(opts.sendChannel) {
		return options{}, fmt.Errorf("invalid geohash %q", opts.sendChannel)
	}
	for _, geohash := range opts.geohashes {
		if !channel.ValidGeohash(geohash) {
			return options{}, fmt.Errorf("invalid geohash %q", geohash)
		}
	}
	return opts, nil
}

func newLogger(level, format string) (zerolog.Logger, error) {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("parse log level: %w", err)
	}

	var logger zerolog.Logger
	switch format {
	case "console":
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	case "json":
		logger = zerolog.New(os.Stderr)
	default:
		return zerolog.Logger{}, fmt.Errorf("unknown log format %q", format)
	}
	return logger.Level(parsed).With().Timestamp().Logger(), nil
}

// withInstance tags every log line with the persisted instance ID.
func withInstance(logger zerolog.Logger, instanceID string) zerolog.Logger {
	return logger.With().Str("instance", instanceID).Logger()
}

func run(opts options, logger zerolog.Logger) error {
	cfg, cfgPath, err := config.LoadOrCreate(opts.dataDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger = withInstance(logger, cfg.InstanceID)
	dataDir := filepath.Dir(cfgPath)
	if err := config.LoadEnv(dataDir); err != nil {
		return err
	}
	if len(opts.relays) > 0 {
		cfg.Relays = relay.NormalizeRelays(opts.relays)
	}
	if opts.bot {
		cfg.Bot.Enabled = true
	}
	if opts.nickname != "" {
		cfg.Nickname = opts.nickname
	}

	id, err := loadIdentity(cfg, opts.ephemeral)
	if err != nil {
		return err
	}
	logger.Info().
		Str("pubkey", id.PublicKey).
		Str("npub", id.Npub()).
		Str("config", cfgPath).
		Int("relays", len(cfg.Relays)).
		Msg("identity ready")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fanout, err := relay.NewFanout(relay.FanoutOptions{
		Relays:         cfg.Relays,
		Transport:      relay.NewPoolTransport(ctx),
		Logger:         logger.With().Str("component", "relay").Logger(),
		PublishTimeout: cfg.PublishTimeout(),
		SeenCacheSize:  cfg.SeenCacheSize,
	})
	if err != nil {
		return err
	}
	if len(fanout.Relays()) == 0 {
		return errors.New("no usable relays configured")
	}

	store, err := storage.Open()
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn().Err(err).Msg("storage close error")
		}
	}()

	client, err := messaging.New(messaging.Options{
		Codec:               envelope.NewCodec(envelope.Options{}),
		Fanout:              fanout,
		Logger:              logger.With().Str("component", "messaging").Logger(),
		DMLookback:          cfg.DMLookback(),
		ChannelLookback:     cfg.ChannelLookback(),
		RequireVerifiedSeal: cfg.RequireVerifiedSeal,
		OnUnverifiedSeal: func(dm models.DirectMessage) {
			if err := store.LogUnverifiedSeal(dm.Gift.ID, dm.SenderPubKey); err != nil {
				logger.Warn().Err(err).Msg("record security event")
			}
		},
	})
	if err != nil {
		return err
	}

	switch {
	case opts.sendDM != "":
		_, report, err := client.SendDirectMessage(ctx, id, opts.sendDM, opts.message)
		if err != nil {
			return err
		}
		printReport(report)
		return nil
	case opts.sendChannel != "":
		_, report, err := client.SendChannelMessage(ctx, id, opts.sendChannel, opts.message, channel.Options{
			Nickname:   cfg.Nickname,
			Teleported: opts.teleported,
		})
		if err != nil {
			return err
		}
		printReport(report)
		return nil
	}

	return listen(ctx, cfg, opts, id, fanout, client, store, logger)
}

func listen(ctx context.Context, cfg *config.Config, opts options, id crypto.Identity, fanout *relay.Fanout, client *messaging.Client, store *storage.Store, logger zerolog.Logger) error {
	if cfg.MDNSDiscovery {
		stopDiscovery, err := startDiscovery(ctx, fanout, logger.With().Str("component", "discovery").Logger())
		if err != nil {
			logger.Warn().Err(err).Msg("mdns discovery unavailable")
		} else {
			defer stopDiscovery()
		}
	}

	var chatbot *bot.Bot
	if cfg.Bot.Enabled {
		var err error
		chatbot, err = newBot(cfg, id, client, store, logger.With().Str("component", "bot").Logger())
		if err != nil {
			return err
		}
		go func() {
			if err := chatbot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error().Err(err).Msg("bot worker stopped")
			}
		}()
	}

	dms := client.SubscribeDirectMessages(ctx, id, time.Time{}, func(dm models.DirectMessage) {
		event := logger.Info().
			Str("sender", crypto.ShortKey(dm.SenderPubKey)).
			Time("sent_at", time.Unix(dm.Timestamp, 0)).
			Bool("seal_verified", dm.SealVerified)
		if payload, err := messaging.DecodeBitchatPayload(dm.Content); err == nil {
			event.Int("payload_bytes", len(payload)).Msg("bitchat direct message")
			return
		}
		event.Str("content", dm.Content).Msg("direct message")
	})
	defer dms.Close()

	geohashes := opts.geohashes
	if len(geohashes) == 0 {
		geohashes = cfg.Bot.Geohashes
	}
	var since time.Time
	if chatbot != nil {
		since = time.Now().Add(-botLookback)
	}
	channels := client.SubscribeChannel(ctx, since, func(msg models.ChannelMessage) {
		logger.Info().
			Str("geohash", msg.Geohash).
			Str("nickname", msg.Nickname).
			Bool("teleported", msg.Teleported).
			Str("sender", crypto.ShortKey(msg.Event.PubKey)).
			Str("content", msg.Content).
			Msg("channel message")
		if chatbot != nil {
			chatbot.Enqueue(msg)
		}
	}, geohashes...)
	defer channels.Close()

	logger.Info().Msg("listening, press Ctrl+C to exit")
	<-ctx.Done()
	logger.Info().Msg("shutting down")
	return nil
}

func loadIdentity(cfg *config.Config, ephemeral bool) (crypto.Identity, error) {
	if override := config.SecretKeyOverride(); override != "" {
		id, err := crypto.ParseSecretKey(override)
		if err != nil {
			return crypto.Identity{}, fmt.Errorf("%s: %w", config.SecretKeyEnv, err)
		}
		return id, nil
	}
	if ephemeral {
		return crypto.GenerateIdentity()
	}
	return crypto.EnsureIdentity(cfg.IdentityKeyPath)
}

func newBot(cfg *config.Config, id crypto.Identity, client *messaging.Client, store *storage.Store, logger zerolog.Logger) (*bot.Bot, error) {
	var completer llm.Completer
	if apiKey := config.APIKey(); apiKey != "" {
		completer = llm.NewOpenAI(nil, cfg.Bot.BaseURL, apiKey)
	} else {
		logger.Warn().Msg(config.APIKeyEnv + " is not set, the bot will only answer commands")
	}

	return bot.New(bot.Options{
		Identity:   id,
		Publisher:  client,
		Memory:     store,
		Completer:  completer,
		Logger:     logger,
		Name:       cfg.Bot.Name,
		Nickname:   cfg.Bot.Nickname,
		Model:      cfg.Bot.Model,
		PasteURL:   cfg.Bot.PasteURL,
		MemorySize: cfg.Bot.MemorySize,
	})
}

// startDiscovery adds LAN relays found by an initial scan, then keeps following announcements.
func startDiscovery(ctx context.Context, fanout *relay.Fanout, logger zerolog.Logger) (func(), error) {
	scanner, err := discovery.NewRelayScanner(discovery.Config{Logger: logger})
	if err != nil {
		return nil, err
	}
	if err := scanner.Start(); err != nil {
		return nil, err
	}

	pinned := fanout.Relays()
	if err := scanner.Refresh(ctx); err != nil {
		logger.Debug().Err(err).Msg("initial relay scan failed")
	}
	for _, found := range scanner.ListRelays() {
		fanout.AddRelays(found.URL)
	}

	go discovery.Follow(ctx, scanner.Events(), fanout, pinned)
	return scanner.Stop, nil
}

func printReport(report relay.Report) {
	fmt.Printf("event %s: %s\n", report.EventID, report)
	for _, result := range report.Results {
		status := "ok"
		if result.Err != nil {
			status = result.Err.Error()
		}
		fmt.Printf("  %-45s %s\n", result.URL, status)
	}
}
