package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kunkel-music-bot/bot"
	"kunkel-music-bot/config"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
	"gopkg.in/natefinch/lumberjack.v2"
)

type MusicBot struct {
	Config *bot.Configuration `yaml:"MusicBot" validate:"required"`
}

// loadConfig loads the config from the provided yaml files
// into the Configuration object and overrides it from the
// environment and the provided env files.
func loadConfig(configFiles []string, envFiles []string) (*bot.Configuration, error) {
	var musicBot MusicBot
	if err := config.LoadAndValidateConfiguration(configFiles, envFiles, &musicBot); err != nil {
		return nil, err
	}
	return musicBot.Config, nil
}

// loadHelp reads the content of the help command from
// the provided file, a missing file means no help.
func loadHelp(path string) (string, error) {
	if len(path) == 0 {
		return "", nil
	}
	content, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.WithField("File", path).Debug("No help file")
		return "", nil
	}
	return string(content), err
}

// logOutput returns the writer the logs are written to, the
// standard error and optionally a rotated log file.
func logOutput(cmd *cli.Command) io.Writer {
	path := cmd.String("log-file")
	if len(path) == 0 {
		return os.Stderr
	}
	return io.MultiWriter(os.Stderr, &lumberjack.Logger{
		Filename:   path,
		MaxSize:    int(cmd.Int("log-max-size")),
		MaxBackups: 3,
		MaxAge:     28,
	})
}

func run(ctx context.Context, cmd *cli.Command) error {
	out := logOutput(cmd)
	log.SetOutput(out)

	configuration, err := loadConfig(cmd.StringSlice("config"), cmd.StringSlice("env"))
	if err != nil {
		return fmt.Errorf("could not load the configuration: %w", err)
	}
	help, err := loadHelp(cmd.String("help-file"))
	if err != nil {
		return fmt.Errorf("could not load the help: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	shutdownSignal := make(chan os.Signal, 2)
	signal.Notify(shutdownSignal, syscall.SIGTERM, syscall.SIGINT)

	musicBot := bot.NewBot(ctx, configuration, help)
	musicBot.SetLogOutput(out)
	if err := musicBot.Init(); err != nil {
		return err
	}

	go func() {
		// graceful shutdown
		<-shutdownSignal
		log.Warn("Shutdown requested ...")
		cancel()
		<-time.After(configuration.ShutdownTimeout + 5*time.Second)
		log.Fatal("Forced shutdown")
	}()

	if err := musicBot.Run(); err != nil {
		return err
	}
	log.Print("Clean Shutdown")
	return nil
}

func main() {
	app := &cli.Command{
		Name:  "kunkel-music-bot",
		Usage: "Discord bot that plays music in voice channels",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Files with configuration, later files override earlier ones",
				Value:   []string{"config.yaml"},
			},
			&cli.StringSliceFlag{
				Name:  "env",
				Usage: "Dotenv files loaded into the environment",
				Value: []string{".env"},
			},
			&cli.StringFlag{
				Name:  "help-file",
				Usage: "File with the content of the help command",
				Value: "help.txt",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Also write the logs to this file, rotated by size",
			},
			&cli.IntFlag{
				Name:  "log-max-size",
				Usage: "Size in megabytes of the log file before it is rotated",
				Value: 10,
			},
		},
		Action: run,
	}
	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
