package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dennis-mud/dennis/pkg/boltstore"
	"github.com/dennis-mud/dennis/pkg/server"
	"github.com/spf13/pflag"
)

func main() {
	flags := pflag.NewFlagSet("dennis", pflag.ExitOnError)
	confFile := flags.StringP("conf", "c", "", "Path to game config file (.yaml)")
	dbPath := flags.String("db", "", "Path to the bbolt world database, overrides config")
	telnetPort := flags.Int("port", 0, "Telnet port, overrides config")
	webPort := flags.Int("web-port", 0, "Web port, overrides config (enables the web listener)")
	textDir := flags.String("textdir", "", "Path to text files directory, overrides config")
	makeWizard := flags.String("make-wizard", "", "Grant wizard rights to an existing user and exit")
	showVersion := flags.BoolP("version", "v", false, "Print the version and exit")
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: dennis [-c config.yaml] [flags]\n\n")
		flags.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEvery config key can also be set from the environment with the %s prefix,\n", server.EnvPrefix)
		fmt.Fprintf(os.Stderr, "e.g. %sTELNET_PORT=4000 or %sDB_FILENAME=world.db.\n", server.EnvPrefix, server.EnvPrefix)
	}
	flags.Parse(os.Args[1:])

	if *showVersion {
		fmt.Println(server.VersionString())
		return
	}
	log.Printf("Welcome to %s", server.VersionString())

	// Load game config if specified, otherwise use defaults
	var gc *server.GameConf
	if *confFile != "" {
		var err error
		gc, err = server.LoadGameConf(*confFile)
		if err != nil {
			log.Fatalf("Error loading game config: %v", err)
		}
		log.Printf("Loaded game config from %s", *confFile)
	} else {
		gc = server.DefaultGameConf()
	}
	if err := gc.ApplyEnv(); err != nil {
		log.Fatalf("Error loading game config: %v", err)
	}

	// Command-line flags override config file and environment values
	if *dbPath != "" {
		gc.Database.Filename = *dbPath
	}
	if *telnetPort != 0 {
		gc.Telnet.Port = *telnetPort
	}
	if *webPort != 0 {
		gc.Web.Enabled = true
		gc.Web.Port = *webPort
	}
	if *textDir != "" {
		gc.TextDir = *textDir
	}

	store, err := boltstore.Open(gc.Database.Filename)
	if err != nil {
		log.Fatalf("Error opening database: %v", err)
	}
	defer store.Close()

	if store.HasData() {
		if err := store.LoadAll(); err != nil {
			log.Fatalf("Error loading database: %v", err)
		}
		if err := store.RotateBackups(gc.Database.Backups); err != nil {
			log.Printf("WARNING: backup rotation failed: %v", err)
		}
	} else {
		log.Printf("Empty database at %s, creating the first room", gc.Database.Filename)
		if err := store.Seed(); err != nil {
			log.Fatalf("Error seeding database: %v", err)
		}
	}

	if *makeWizard != "" {
		u := store.UserByName(*makeWizard)
		if u == nil {
			log.Fatalf("No such user: %s", *makeWizard)
		}
		u.Wizard = true
		if err := store.UpsertUser(u); err != nil {
			log.Fatalf("Error saving user: %v", err)
		}
		log.Printf("%s is now a wizard", u.Name)
		return
	}

	game := server.NewGame(store, gc)
	srv := server.NewServer(game)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	game.WatchTextFiles(ctx)

	// Warn players, wait out the delay, then stop.
	sigCtx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()
	go func() {
		<-sigCtx.Done()
		if ctx.Err() != nil {
			return
		}
		log.Printf("Shutdown requested, stopping in %d seconds", gc.ShutdownDelay)
		game.Loop.Post(func() { game.ShutdownNotice(gc.ShutdownDelay) })
		time.Sleep(time.Duration(gc.ShutdownDelay) * time.Second)
		cancel()
	}()

	if err := srv.Run(ctx); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
