package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/crypto/bcrypt"

	"eventease/internal/auth"
	"eventease/internal/codec"
	"eventease/internal/config"
	"eventease/internal/console"
	"eventease/internal/digest"
	appLog "eventease/internal/log"
	"eventease/internal/store"
)

const version = "1.0.0"

type flagConfig struct {
	configPath  string
	dataFile    string
	digest      bool
	digestOnce  bool
	newPassword string
}

func main() {
	os.Exit(run())
}

func run() int {
	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "eventease: %v\n", err)
		return 1
	}
	if flags.dataFile != "" {
		conf.DataFile = flags.dataFile
	}

	level, err := appLog.ParseLevel(conf.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "eventease: %v\n", err)
		return 1
	}
	if err := appLog.Configure(level, conf.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "eventease: %v\n", err)
		return 1
	}
	defer appLog.Sync()

	appLog.Info("eventease starting", "version", version)
	appLog.Info("effective config",
		"data_file", conf.DataFile,
		"timezone", conf.Timezone,
		"max_events", conf.MaxEvents,
		"digest_cron", conf.Digest.Cron,
		"digest_horizon_hours", conf.Digest.HorizonHours,
		"digest", flags.digest,
		"digest_once", flags.digestOnce,
	)

	if flags.newPassword != "" {
		if err := setAdminPassword(flags.configPath, flags.newPassword, bcrypt.DefaultCost); err != nil {
			appLog.Error("failed to set admin password", err)
			fmt.Fprintf(os.Stderr, "eventease: %v\n", err)
			return 1
		}
		fmt.Println("Admin password updated.")
		return 0
	}

	loc, err := conf.Location()
	if err != nil {
		appLog.Error("invalid timezone", err)
		return 1
	}

	if flags.digest || flags.digestOnce {
		if err := runDigest(conf, loc, flags.digestOnce); err != nil {
			appLog.Error("digest failed", err)
			fmt.Fprintf(os.Stderr, "eventease: %v\n", err)
			return 1
		}
		return 0
	}

	if conf.AdminPasswordHash == "" {
		appLog.Warn("no admin password configured; seeding the default, change it with -set-admin-password")
		if err := setAdminPassword(flags.configPath, auth.DefaultPassword, bcrypt.DefaultCost); err != nil {
			appLog.Error("failed to seed admin password", err)
			return 1
		}
		conf, err = config.Load(flags.configPath)
		if err != nil {
			appLog.Error("failed to reload config", err, "config_path", flags.configPath)
			return 1
		}
		if flags.dataFile != "" {
			conf.DataFile = flags.dataFile
		}
	}

	s, err := store.Open(codec.NewFile(conf.DataFile), store.WithCapacity(conf.MaxEvents), store.WithLocation(loc))
	if err != nil {
		appLog.Error("failed to load events", err, "data_file", conf.DataFile)
		fmt.Fprintf(os.Stderr, "eventease: %v\n", err)
		return 1
	}

	c := console.New(os.Stdin, os.Stdout, s, auth.NewGate(conf.AdminPasswordHash), console.Options{
		ExportDuration: conf.ExportDuration(),
	})
	if err := c.Run(); err != nil {
		appLog.Error("session ended with error", err)
		fmt.Fprintf(os.Stderr, "eventease: %v\n", err)
		return 1
	}
	appLog.Info("eventease exiting")
	return 0
}

func setAdminPassword(configPath, password string, cost int) error {
	hash, err := auth.HashPassword(password, cost)
	if err != nil {
		return err
	}
	return config.UpdateAdminHash(configPath, hash)
}

// runDigest writes one digest, or keeps writing on the configured schedule
// until SIGINT/SIGTERM.
func runDigest(conf *config.Config, loc *time.Location, once bool) error {
	var out io.Writer = os.Stdout
	if conf.Digest.Output != "" {
		f, err := os.OpenFile(conf.Digest.Output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	sched, err := digest.NewScheduler(conf.Digest.Cron, codec.NewFile(conf.DataFile), conf.DigestHorizon(), loc, out)
	if err != nil {
		return err
	}
	if once {
		_, err := sched.RunOnce()
		return err
	}

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	return sched.Run(ctx)
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "eventease.yaml", "Path to config file")
	flag.StringVar(&cfg.dataFile, "data", "", "Events file (overrides config if set)")
	flag.BoolVar(&cfg.digest, "digest", false, "Write the upcoming-events digest on the configured cron schedule")
	flag.BoolVar(&cfg.digestOnce, "digest-once", false, "Write one upcoming-events digest and exit")
	flag.StringVar(&cfg.newPassword, "set-admin-password", "", "Store a new admin password hash in the config file and exit")

	flag.Parse()

	return cfg
}
