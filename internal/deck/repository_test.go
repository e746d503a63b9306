package deck

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// setupTestDB creates an in-memory SQLite database with the deck schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	schema := `
		CREATE TABLE pages (
			id          TEXT PRIMARY KEY,
			title       TEXT NOT NULL,
			position    INTEGER NOT NULL,
			bg_color    TEXT NOT NULL DEFAULT '#000000',
			text_color  TEXT NOT NULL DEFAULT '#ffffff',
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);
		CREATE TABLE buttons (
			page_id     TEXT NOT NULL REFERENCES pages(id) ON DELETE CASCADE,
			slot        INTEGER NOT NULL,
			label       TEXT NOT NULL DEFAULT '',
			icon        TEXT NOT NULL DEFAULT '',
			font_size   INTEGER NOT NULL DEFAULT 14,
			bg_color    TEXT,
			text_color  TEXT,
			enabled     INTEGER NOT NULL DEFAULT 1,
			action      TEXT,
			PRIMARY KEY (page_id, slot)
		);
		CREATE TABLE deck_state (
			key         TEXT PRIMARY KEY,
			value       TEXT NOT NULL
		);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		t.Fatalf("failed to create test schema: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func testSnapshot() *Snapshot {
	now := time.Date(2026, 2, 15, 10, 0, 0, 0, time.UTC)
	red := RGB{R: 200, G: 40, B: 40}
	return &Snapshot{
		Pages: []Page{
			{
				ID:         "page-1",
				Title:      "Main",
				Position:   0,
				Background: Black,
				TextColor:  White,
				Buttons: map[int]*Button{
					0: {
						Label:      "Reboot",
						FontSize:   14,
						Background: &red,
						Enabled:    true,
						Action: &Action{
							Type:     ActionPlugin,
							PluginID: "system.reboot",
							Config:   map[string]any{"confirm": true},
						},
					},
					3: {
						Label:    "Blank action",
						FontSize: 12,
						Enabled:  false,
					},
				},
				CreatedAt: now,
				UpdatedAt: now,
			},
			{
				ID:         "page-2",
				Title:      "Network",
				Position:   1,
				Background: RGB{R: 10, G: 20, B: 30},
				TextColor:  White,
				Buttons:    map[int]*Button{},
				CreatedAt:  now,
				UpdatedAt:  now,
			},
		},
		ActivePageID: "page-2",
		Brightness:   65,
	}
}

func TestSQLiteRepositorySaveAndLoad(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	want := testSnapshot()
	if err := repo.Save(ctx, want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(got.Pages) != 2 {
		t.Fatalf("loaded %d pages, want 2", len(got.Pages))
	}
	if got.ActivePageID != "page-2" {
		t.Errorf("ActivePageID = %q, want page-2", got.ActivePageID)
	}
	if got.Brightness != 65 {
		t.Errorf("Brightness = %d, want 65", got.Brightness)
	}

	main := got.Pages[0]
	if main.ID != "page-1" || main.Title != "Main" {
		t.Errorf("first page = %s/%s, want page-1/Main", main.ID, main.Title)
	}
	if main.Background != Black || main.TextColor != White {
		t.Errorf("page colours = %v/%v", main.Background, main.TextColor)
	}
	if !main.CreatedAt.Equal(want.Pages[0].CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", main.CreatedAt, want.Pages[0].CreatedAt)
	}

	button := main.Buttons[0]
	if button == nil {
		t.Fatal("slot 0 button missing after round trip")
	}
	if button.Label != "Reboot" || !button.Enabled {
		t.Errorf("button = %+v", button)
	}
	if button.Background == nil || *button.Background != (RGB{R: 200, G: 40, B: 40}) {
		t.Errorf("button background = %v", button.Background)
	}
	if button.TextColor != nil {
		t.Errorf("button text colour = %v, want nil override", button.TextColor)
	}
	if button.Action == nil || button.Action.PluginID != "system.reboot" {
		t.Fatalf("button action = %+v", button.Action)
	}
	if confirm, ok := button.Action.Config["confirm"].(bool); !ok || !confirm {
		t.Errorf("action config = %v", button.Action.Config)
	}

	plain := main.Buttons[3]
	if plain == nil || plain.Action != nil || plain.Enabled {
		t.Errorf("slot 3 button = %+v, want disabled without action", plain)
	}
}

func TestSQLiteRepositorySaveReplacesPrevious(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	if err := repo.Save(ctx, testSnapshot()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	smaller := testSnapshot()
	smaller.Pages = smaller.Pages[:1]
	smaller.ActivePageID = "page-1"
	delete(smaller.Pages[0].Buttons, 3)
	if err := repo.Save(ctx, smaller); err != nil {
		t.Fatalf("second Save() error = %v", err)
	}

	got, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got.Pages) != 1 {
		t.Errorf("loaded %d pages, want 1", len(got.Pages))
	}
	if len(got.Pages[0].Buttons) != 1 {
		t.Errorf("loaded %d buttons, want 1", len(got.Pages[0].Buttons))
	}
}

func TestSQLiteRepositoryLoadEmpty(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)

	got, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got.Pages) != 0 {
		t.Errorf("empty database loaded %d pages", len(got.Pages))
	}
	if got.Brightness != MaxBrightness {
		t.Errorf("empty database brightness = %d, want %d", got.Brightness, MaxBrightness)
	}
}
