package datastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"kunkel-music-bot/datastore/history"

	"github.com/caarlos0/env/v11"
	_ "github.com/lib/pq"
	log "github.com/sirupsen/logrus"
)

var ErrDisabled = errors.New("datastore is disabled")

type Datastore struct {
	*log.Logger
	*sql.DB
	History *history.HistoryStore
	config  *Configuration
}

type Configuration struct {
	LogLevel         log.Level     `yaml:"LogLevel" validate:"required"`
	Enabled          bool          `yaml:"Enabled"`
	HistoryRetention time.Duration `yaml:"HistoryRetention"`
}

// PostgresEnv holds the connection parameters of
// the postgres database, read from the environment.
type PostgresEnv struct {
	Host     string `env:"POSTGRES_HOST,required"`
	Port     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	User     string `env:"POSTGRES_USER,required"`
	Password string `env:"POSTGRES_PASSWORD,required"`
	Database string `env:"POSTGRES_DB,required"`
	SSLMode  string `env:"POSTGRES_SSLMODE" envDefault:"disable"`
}

// DSN returns the postgres connection string.
func (e PostgresEnv) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		e.Host,
		e.Port,
		e.User,
		e.Password,
		e.Database,
		e.SSLMode,
	)
}

// ParsePostgresEnv reads the postgres connection
// parameters from the environment.
func ParsePostgresEnv() (PostgresEnv, error) {
	var e PostgresEnv
	if err := env.Parse(&e); err != nil {
		return e, fmt.Errorf("postgres environment: %w", err)
	}
	return e, nil
}

// NewDatastore constructs an object that handles persisting
// the played tracks to the postgres database and recieving them
// from it. It does not implement any of the bot's logics.
func NewDatastore(config *Configuration) *Datastore {
	l := log.New()
	l.SetLevel(config.LogLevel)
	l.Debug("Datastore created")
	return &Datastore{Logger: l, config: config}
}

// Enabled returns true if the datastore is configured to be used.
func (datastore *Datastore) Enabled() bool {
	return datastore.config.Enabled
}

// Connect opens a new postges connection based on the
// environment variables.
func (datastore *Datastore) Connect(ctx context.Context) error {
	if !datastore.Enabled() {
		return ErrDisabled
	}
	datastore.Info("Oppening postgres connection ...")

	e, err := ParsePostgresEnv()
	if err != nil {
		return err
	}
	db, err := sql.Open("postgres", e.DSN())
	if err != nil {
		return err
	}
	// NOTE: ping the databse so we make sure there is a valid connection
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return err
	}
	datastore.DB = db
	datastore.History = history.NewHistoryStore(
		db,
		datastore.Logger,
		datastore.config.HistoryRetention,
	)

	datastore.Info("Postgres connection established")
	return nil
}

// Init creates all the tables required by the datastore
// and runs the goroutine required for deleting the
// outdated history entries.
func (datastore *Datastore) Init(ctx context.Context) error {
	datastore.Debug("Initializing datastore ...")

	if datastore.History == nil {
		return ErrDisabled
	}
	if err := datastore.History.Init(); err != nil {
		return err
	}
	go datastore.History.RunCleanup(ctx)

	datastore.Info("Datastore initialized")
	return nil
}

// Close closes the postgres connection, if it was opened.
func (datastore *Datastore) Close() error {
	if datastore.DB == nil {
		return nil
	}
	return datastore.DB.Close()
}
