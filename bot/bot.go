package bot

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"time"

	"kunkel-music-bot/bot/audioplayer"
	"kunkel-music-bot/bot/blocked_command"
	"kunkel-music-bot/bot/permissions"
	"kunkel-music-bot/bot/slash_command"
	"kunkel-music-bot/bot/transaction"
	"kunkel-music-bot/bot/voice"
	"kunkel-music-bot/builder"
	"kunkel-music-bot/datastore"
	"kunkel-music-bot/service/music"
	"kunkel-music-bot/youtube"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

type Bot struct {
	log             *log.Logger
	ctx             context.Context
	ready           atomic.Bool
	builder         *builder.Builder
	datastore       *datastore.Datastore
	youtube         *youtube.Youtube
	registry        *audioplayer.Registry
	music           *music.MusicService
	connector       *voice.Connector
	permissions     *permissions.PermissionsChecker
	transactions    *transaction.Transactions
	blockedCommands *blocked_command.BlockedCommands
	session         *discordgo.Session
	config          *Configuration
	helpContent     string
	logOutput       io.Writer
}

type Configuration struct {
	LogLevel        log.Level                          `yaml:"LogLevel" env:"LOG_LEVEL" validate:"required"`
	DiscordToken    string                             `yaml:"DiscordToken" env:"DISCORD_TOKEN" validate:"required"`
	ShutdownTimeout time.Duration                      `yaml:"ShutdownTimeout" validate:"required"`
	Datastore       *datastore.Configuration           `yaml:"Datastore" validate:"required"`
	Builder         *builder.Configuration             `yaml:"Builder" validate:"required"`
	SlashCommands   *slash_command.SlashCommandsConfig `yaml:"SlashCommands" validate:"required"`
	Youtube         *youtube.Configuration             `yaml:"Youtube" validate:"required"`
	Voice           *voice.Configuration               `yaml:"Voice" validate:"required"`
	Music           *music.Configuration               `yaml:"Music" validate:"required"`
}

// NewBot constructs an object that connects the logic in the
// service module with the discord api and the datastore.
func NewBot(ctx context.Context, config *Configuration, help string) *Bot {
	l := log.New()
	l.SetLevel(config.LogLevel)
	l.Debug("Creating Discord music bot ...")

	bot := &Bot{
		ctx:             ctx,
		log:             l,
		builder:         builder.NewBuilder(config.Builder),
		datastore:       datastore.NewDatastore(config.Datastore),
		youtube:         youtube.NewYoutube(config.Youtube),
		registry:        audioplayer.NewRegistry(),
		blockedCommands: blocked_command.NewBlockedCommands(),
		config:          config,
		helpContent:     help,
	}
	session := func() *discordgo.Session { return bot.session }
	bot.connector = voice.NewConnector(session, config.Voice, l)
	bot.permissions = permissions.NewPermissionsChecker(session)
	bot.transactions = transaction.NewTransactions(session, l)
	l.Info("Discord music bot created")
	return bot
}

// SetLogOutput sets the writer the logs of the bot and
// all of it's components are written to.
func (bot *Bot) SetLogOutput(w io.Writer) {
	bot.logOutput = w
	bot.log.SetOutput(w)
	bot.datastore.SetOutput(w)
	bot.youtube.SetLogOutput(w)
}

// Init connects to a postgres database, if the history is enabled,
// initializes the tables in the datastore and constructs the music
// service. A failure to connect to the datastore disables the history.
func (bot *Bot) Init() error {
	bot.log.Debug("Initializing the bot ...")

	var history music.History
	if err := bot.datastore.Connect(bot.ctx); err == nil {
		if err := bot.datastore.Init(bot.ctx); err != nil {
			return err
		}
		history = bot.datastore.History
	} else if errors.Is(err, datastore.ErrDisabled) {
		bot.log.Info("History is disabled")
	} else {
		bot.log.Warnf("Could not connect to the datastore, history is disabled: %v", err)
	}

	bot.music = music.NewMusicService(
		bot.config.Music,
		bot.registry,
		&voiceConnector{bot.connector, bot.permissions},
		bot.youtube,
		bot.newNotifier,
		history,
	)
	if bot.logOutput != nil {
		bot.music.SetLogOutput(bot.logOutput)
	}
	bot.log.Info("Bot initialized")
	return nil
}

// Run is a long lived worker that creates a new discord session,
// verifies it, adds required intents and discord event handlers,
// then runs while the context is alive.
func (bot *Bot) Run() error {
	bot.log.Info("Creating new Discord session...")
	session, err := discordgo.New("Bot " + bot.config.DiscordToken)
	if err != nil {
		return err
	}
	bot.session = session

	// Set intents required by the bot
	intentsHandler := &DiscordIntentsHandler{bot}
	intentsHandler.setIntents()

	// Set handlers for events emitted by the discord
	eventHandler := &DiscordEventHandler{bot}
	eventHandler.setHandlers()

	if err := session.Open(); err != nil {
		return err
	}
	defer bot.shutdown()

	// Register slash commands required by the bot
	bot.log.Debug("Registering global slash commands ...")
	if err := slash_command.Register(
		bot.session,
		bot.config.SlashCommands,
	); err != nil {
		bot.log.Warn(err)
	}

	<-bot.ctx.Done()
	return nil
}

// shutdown stops all the sessions, so the bot leaves
// all the voice channels, then closes the datastore
// and the discord session.
func (bot *Bot) shutdown() {
	bot.ready.Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), bot.config.ShutdownTimeout)
	defer cancel()
	bot.log.WithField("Sessions", bot.registry.Len()).Info("Stopping all sessions ...")
	if err := bot.music.Shutdown(ctx); err != nil {
		bot.log.Warnf("Could not stop all sessions: %v", err)
	}
	if err := bot.datastore.Close(); err != nil {
		bot.log.Warnf("Could not close the datastore: %v", err)
	}
	bot.log.Info("Closing discord session ... ")
	if err := bot.session.Close(); err != nil {
		bot.log.Warnf("Could not close the discord session: %v", err)
	}
}
