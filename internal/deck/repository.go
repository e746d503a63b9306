package deck

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Repository defines the persistence contract for the config store.
// The store loads one snapshot at startup and saves the full snapshot
// after every successful mutation, so a crash immediately after a
// successful call never loses that change.
type Repository interface {
	// Load retrieves the persisted snapshot. A fresh database returns a
	// snapshot with no pages; the store seeds a default page in that case.
	Load(ctx context.Context) (*Snapshot, error)

	// Save persists the full snapshot atomically.
	Save(ctx context.Context, snap *Snapshot) error
}

// deck_state keys.
const (
	stateKeyActivePage = "active_page"
	stateKeyBrightness = "brightness"
)

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
// The db parameter should be an open SQLite connection with the
// deck-core schema migrated.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Load reads pages, buttons and deck state into a Snapshot.
func (r *SQLiteRepository) Load(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{Brightness: MaxBrightness}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, position, bg_color, text_color, created_at, updated_at
		FROM pages
		ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("querying pages: %w", err)
	}
	defer rows.Close()

	index := make(map[string]int)
	for rows.Next() {
		var p Page
		var bg, fg, created, updated string
		if err := rows.Scan(&p.ID, &p.Title, &p.Position, &bg, &fg, &created, &updated); err != nil {
			return nil, fmt.Errorf("scanning page: %w", err)
		}
		if p.Background, err = ParseRGB(bg); err != nil {
			return nil, fmt.Errorf("page %s: %w", p.ID, err)
		}
		if p.TextColor, err = ParseRGB(fg); err != nil {
			return nil, fmt.Errorf("page %s: %w", p.ID, err)
		}
		p.CreatedAt = parseTime(created)
		p.UpdatedAt = parseTime(updated)
		p.Buttons = make(map[int]*Button)
		index[p.ID] = len(snap.Pages)
		snap.Pages = append(snap.Pages, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating pages: %w", err)
	}

	if err := r.loadButtons(ctx, snap, index); err != nil {
		return nil, err
	}
	if err := r.loadState(ctx, snap); err != nil {
		return nil, err
	}

	return snap, nil
}

func (r *SQLiteRepository) loadButtons(ctx context.Context, snap *Snapshot, index map[string]int) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT page_id, slot, label, icon, font_size, bg_color, text_color, enabled, action
		FROM buttons`)
	if err != nil {
		return fmt.Errorf("querying buttons: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var pageID string
		var slot int
		var b Button
		var bg, fg, action sql.NullString
		var enabled int
		if err := rows.Scan(&pageID, &slot, &b.Label, &b.Icon, &b.FontSize, &bg, &fg, &enabled, &action); err != nil {
			return fmt.Errorf("scanning button: %w", err)
		}
		b.Enabled = enabled != 0
		if bg.Valid {
			c, err := ParseRGB(bg.String)
			if err != nil {
				return fmt.Errorf("button %s/%d: %w", pageID, slot, err)
			}
			b.Background = &c
		}
		if fg.Valid {
			c, err := ParseRGB(fg.String)
			if err != nil {
				return fmt.Errorf("button %s/%d: %w", pageID, slot, err)
			}
			b.TextColor = &c
		}
		if action.Valid && action.String != "" {
			var a Action
			if err := json.Unmarshal([]byte(action.String), &a); err != nil {
				return fmt.Errorf("button %s/%d action: %w", pageID, slot, err)
			}
			b.Action = &a
		}
		i, ok := index[pageID]
		if !ok {
			// Orphan row, page is gone so the button is unreachable.
			continue
		}
		snap.Pages[i].Buttons[slot] = &b
	}
	return rows.Err()
}

func (r *SQLiteRepository) loadState(ctx context.Context, snap *Snapshot) error {
	rows, err := r.db.QueryContext(ctx, `SELECT key, value FROM deck_state`)
	if err != nil {
		return fmt.Errorf("querying deck state: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return fmt.Errorf("scanning deck state: %w", err)
		}
		switch key {
		case stateKeyActivePage:
			snap.ActivePageID = value
		case stateKeyBrightness:
			level, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("deck state brightness: %w", err)
			}
			snap.Brightness = level
		}
	}
	return rows.Err()
}

// Save replaces the persisted snapshot in a single transaction.
func (r *SQLiteRepository) Save(ctx context.Context, snap *Snapshot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // No-op after commit

	// Snapshot semantics: replace everything. Buttons cascade from pages.
	for _, stmt := range []string{
		`DELETE FROM buttons`,
		`DELETE FROM pages`,
		`DELETE FROM deck_state`,
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clearing snapshot: %w", err)
		}
	}

	for i := range snap.Pages {
		p := &snap.Pages[i]
		_, err := tx.ExecContext(ctx, `
			INSERT INTO pages (id, title, position, bg_color, text_color, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.Title, p.Position, p.Background.Hex(), p.TextColor.Hex(),
			formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
		if err != nil {
			return fmt.Errorf("inserting page %s: %w", p.ID, err)
		}

		for slot, b := range p.Buttons {
			var bg, fg, action any
			if b.Background != nil {
				bg = b.Background.Hex()
			}
			if b.TextColor != nil {
				fg = b.TextColor.Hex()
			}
			if b.Action != nil {
				data, err := json.Marshal(b.Action)
				if err != nil {
					return fmt.Errorf("marshalling action %s/%d: %w", p.ID, slot, err)
				}
				action = string(data)
			}
			enabled := 0
			if b.Enabled {
				enabled = 1
			}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO buttons (page_id, slot, label, icon, font_size, bg_color, text_color, enabled, action)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				p.ID, slot, b.Label, b.Icon, b.FontSize, bg, fg, enabled, action)
			if err != nil {
				return fmt.Errorf("inserting button %s/%d: %w", p.ID, slot, err)
			}
		}
	}

	state := map[string]string{
		stateKeyActivePage: snap.ActivePageID,
		stateKeyBrightness: strconv.Itoa(snap.Brightness),
	}
	for key, value := range state {
		if _, err := tx.ExecContext(ctx, `INSERT INTO deck_state (key, value) VALUES (?, ?)`, key, value); err != nil {
			return fmt.Errorf("inserting deck state %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing snapshot: %w", err)
	}
	return nil
}

// Timestamps are stored as ISO-8601 UTC strings.
const timeFormat = "2006-01-02T15:04:05Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeFormat, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
