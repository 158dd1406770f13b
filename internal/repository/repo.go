package repository

import (
	"context"
	"database/sql"
	"errors"
)

func NewRepo(db *sql.DB) *Repo { return &Repo{db: db} }

// UpsertSettings seeds the guild's row with defaults if absent and
// returns the current settings.
func (r *Repo) UpsertSettings(ctx context.Context, guild string) (*Settings, error) {
	_, _ = r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO settings(guild_id) VALUES (?)`, guild,
	)
	return r.GetSettings(ctx, guild)
}

func (r *Repo) GetSettings(ctx context.Context, guild string) (*Settings, error) {
	row := r.db.QueryRowContext(ctx, `
	SELECT guild_id, default_volume, queue_page_size
	FROM settings WHERE guild_id = ?`, guild)

	var s Settings
	if err := row.Scan(&s.GuildID, &s.DefaultVolume, &s.QueuePageSize); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, err
	}
	return &s, nil
}

func (r *Repo) UpdateSettings(ctx context.Context, s *Settings) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE settings SET
		  default_volume=?,
		  queue_page_size=?
		WHERE guild_id=?`,
		s.DefaultVolume, s.QueuePageSize, s.GuildID,
	)
	return err
}
