package history

import (
	"context"
	"database/sql"
	"sync/atomic"
	"time"

	"kunkel-music-bot/model"

	"github.com/lib/pq"
	log "github.com/sirupsen/logrus"
)

type HistoryStore struct {
	log       *log.Logger
	db        *sql.DB
	retention time.Duration
	idx       atomic.Int64
}

// NewHistoryStore creates an object that handles persisting
// and fetching the played tracks in postgres database.
// Entries older than the provided retention are removed by
// RunCleanup, a non-positive retention keeps all the entries.
func NewHistoryStore(db *sql.DB, log *log.Logger, retention time.Duration) *HistoryStore {
	return &HistoryStore{
		log:       log,
		db:        db,
		retention: retention,
	}
}

// Init creates the required tables for the History store.
func (store *HistoryStore) Init() error {
	return store.createHistoryTable()
}

// Destroy drops the created tables for the History store.
func (store *HistoryStore) Destroy() error {
	return store.dropHistoryTable()
}

func (store *HistoryStore) nextIdx() int64 {
	return store.idx.Add(1) % 100
}

// PersistEntry saves the provided entry and returns it
// with it's id and played at time set by the database.
func (store *HistoryStore) PersistEntry(ctx context.Context, entry *model.HistoryEntry) (*model.HistoryEntry, error) {
	i, t := store.nextIdx(), time.Now()

	store.log.WithFields(log.Fields{
		"GuildID":   entry.GuildID,
		"SessionID": entry.SessionID,
	}).Tracef("[H%d]Start: Persist history entry", i)

	info := entry.Info
	if info == nil {
		info = &model.TrackInfo{}
	}
	requester := entry.Requester
	if requester == nil {
		requester = &model.Requester{}
	}
	playedAt := entry.PlayedAt
	if playedAt.IsZero() {
		playedAt = time.Now()
	}

	newEntry := &model.HistoryEntry{
		Info:      &model.TrackInfo{},
		Requester: &model.Requester{},
	}
	if err := store.db.QueryRowContext(
		ctx,
		`
        INSERT INTO "track_history" (
            guild_id, session_id, video_id, title, url,
            duration_seconds, requester_id, requester_name, played_at
        ) VALUES
            ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id, guild_id, session_id, video_id, title, url,
            duration_seconds, requester_id, requester_name, played_at;
        `,
		entry.GuildID,
		entry.SessionID,
		info.VideoID,
		info.Title,
		info.Url,
		info.DurationSeconds,
		requester.ID,
		requester.Name,
		playedAt,
	).Scan(
		&newEntry.ID, &newEntry.GuildID, &newEntry.SessionID,
		&newEntry.Info.VideoID, &newEntry.Info.Title, &newEntry.Info.Url,
		&newEntry.Info.DurationSeconds,
		&newEntry.Requester.ID, &newEntry.Requester.Name,
		&newEntry.PlayedAt,
	); err != nil {
		store.log.Tracef("[H%d]Error: %v", i, err)
		return nil, err
	}
	store.log.WithField(
		"Latency", time.Since(t),
	).Tracef("[H%d]Done : History entry persisted", i)
	return newEntry, nil
}

// GetHistory fetches at most limit entries played in the guild
// identified by the provided guildID, the latest entries first.
func (store *HistoryStore) GetHistory(ctx context.Context, guildID string, limit int) ([]*model.HistoryEntry, error) {
	i, t := store.nextIdx(), time.Now()

	store.log.WithField(
		"GuildID", guildID,
	).Tracef("[H%d]Start: Fetch %d history entries", i, limit)

	rows, err := store.db.QueryContext(
		ctx,
		`
        SELECT id, guild_id, session_id, video_id, title, url,
            duration_seconds, requester_id, requester_name, played_at
        FROM "track_history"
        WHERE "track_history".guild_id = $1
        ORDER BY played_at DESC, id DESC
        LIMIT $2;
        `,
		guildID,
		limit,
	)
	if err != nil {
		store.log.Tracef("[H%d]Error: %v", i, err)
		return nil, err
	}
	defer rows.Close()

	entries := make([]*model.HistoryEntry, 0)
	for rows.Next() {
		entry := &model.HistoryEntry{
			Info:      &model.TrackInfo{},
			Requester: &model.Requester{},
		}
		if err := rows.Scan(
			&entry.ID, &entry.GuildID, &entry.SessionID,
			&entry.Info.VideoID, &entry.Info.Title, &entry.Info.Url,
			&entry.Info.DurationSeconds,
			&entry.Requester.ID, &entry.Requester.Name,
			&entry.PlayedAt,
		); err != nil {
			store.log.Tracef("[H%d]Error: %v", i, err)
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		store.log.Tracef("[H%d]Error: %v", i, err)
		return nil, err
	}
	store.log.WithField(
		"Latency", time.Since(t),
	).Tracef("[H%d]Done : Fetched %d history entries", i, len(entries))
	return entries, nil
}

// RemoveEntries removes the entries with the provided ids,
// that belong to the guild identified by the provided guildID.
func (store *HistoryStore) RemoveEntries(ctx context.Context, guildID string, ids ...uint) error {
	if len(ids) == 0 {
		return nil
	}
	i, t := store.nextIdx(), time.Now()

	store.log.WithField(
		"GuildID", guildID,
	).Tracef("[H%d]Start: Remove %d history entries", i, len(ids))

	ids64 := make([]int64, 0, len(ids))
	for _, id := range ids {
		ids64 = append(ids64, int64(id))
	}
	if _, err := store.db.ExecContext(
		ctx,
		`
        DELETE FROM "track_history"
        WHERE "track_history".guild_id = $1 AND
            "track_history".id = ANY($2);
        `,
		guildID,
		pq.Array(ids64),
	); err != nil {
		store.log.Tracef("[H%d]Error: %v", i, err)
		return err
	}
	store.log.WithField(
		"Latency", time.Since(t),
	).Tracef("[H%d]Done : History entries removed", i)
	return nil
}

// ClearHistory removes all the entries of the guild
// identified by the provided guildID.
func (store *HistoryStore) ClearHistory(ctx context.Context, guildID string) error {
	i, t := store.nextIdx(), time.Now()

	store.log.WithField(
		"GuildID", guildID,
	).Tracef("[H%d]Start: Clear history", i)

	if _, err := store.db.ExecContext(
		ctx,
		`
        DELETE FROM "track_history"
        WHERE "track_history".guild_id = $1;
        `,
		guildID,
	); err != nil {
		store.log.Tracef("[H%d]Error: %v", i, err)
		return err
	}
	store.log.WithField(
		"Latency", time.Since(t),
	).Tracef("[H%d]Done : History cleared", i)
	return nil
}

// RunCleanup is a long lived worker, that removes
// outdated history entries from the store at interval.
func (store *HistoryStore) RunCleanup(ctx context.Context) {
	if store.retention <= 0 {
		return
	}
	interval := store.retention / 2
	if interval < time.Second {
		interval = time.Second
	}
	store.log.WithFields(log.Fields{
		"Retention": store.retention,
		"Interval":  interval,
	}).Debug(
		"Running history cleanup",
	)
	done := ctx.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	store.RemoveOutdated(ctx)

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			store.RemoveOutdated(ctx)
		}
	}
}

// RemoveOutdated removes all the entries played
// before the configured retention, and returns the
// number of removed entries.
func (store *HistoryStore) RemoveOutdated(ctx context.Context) int64 {
	if store.retention <= 0 {
		return 0
	}
	i, t := store.nextIdx(), time.Now()

	store.log.Tracef(
		"[H%d]Start: Remove outdated history entries", i,
	)

	res, err := store.db.ExecContext(
		ctx,
		`
        DELETE FROM "track_history"
        WHERE "track_history".played_at <= $1;
        `,
		time.Now().Add(store.retention*(-1)),
	)
	if err != nil {
		store.log.Tracef(
			"[H%d]Error: %v", i, err,
		)
		return 0
	}
	n, _ := res.RowsAffected()

	store.log.WithField(
		"Latency", time.Since(t),
	).Tracef("[H%d]Done : %d outdated history entries removed", i, n)
	return n
}

// createHistoryTable creates the "track_history" table
// with it's index if it does not already exist
func (store *HistoryStore) createHistoryTable() error {
	i, t := store.nextIdx(), time.Now()

	store.log.WithField("TableName", "track_history").Tracef(
		"[H%d]Start: Create psql table (if not exists)", i,
	)

	if _, err := store.db.Exec(
		`
        CREATE TABLE IF NOT EXISTS "track_history" (
            id SERIAL,
            guild_id VARCHAR NOT NULL,
            session_id VARCHAR NOT NULL,
            video_id VARCHAR NOT NULL,
            title VARCHAR NOT NULL,
            url VARCHAR NOT NULL,
            duration_seconds INTEGER NOT NULL,
            requester_id VARCHAR NOT NULL,
            requester_name VARCHAR NOT NULL,
            played_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            PRIMARY KEY (id)
        );
        CREATE INDEX IF NOT EXISTS "track_history_guild_played_at"
            ON "track_history" (guild_id, played_at DESC);
        `,
	); err != nil {
		store.log.Tracef("[H%d]Error: %v", i, err)
		return err
	}
	store.log.WithField(
		"Latency", time.Since(t),
	).Tracef("[H%d]Done : psql table created", i)
	return nil
}

// dropHistoryTable drops the "track_history" table if it exists
func (store *HistoryStore) dropHistoryTable() error {
	i, t := store.nextIdx(), time.Now()

	store.log.WithField("TableName", "track_history").Tracef(
		"[H%d]Start: Drop psql table (if exists)", i,
	)

	if _, err := store.db.Exec(
		`
        DROP TABLE IF EXISTS "track_history";
        `,
	); err != nil {
		store.log.Tracef("[H%d]Error: %v", i, err)
		return err
	}
	store.log.WithField(
		"Latency", time.Since(t),
	).Tracef("[H%d]Done : psql table dropped", i)
	return nil
}
