package main

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Kenpir/library-recommendation-system/internal/models"
	"github.com/Kenpir/library-recommendation-system/internal/notify"
	"github.com/Kenpir/library-recommendation-system/internal/repositories"
	"github.com/Kenpir/library-recommendation-system/internal/services"
	"github.com/Kenpir/library-recommendation-system/internal/shared"
	tu "github.com/Kenpir/library-recommendation-system/internal/testing"
)

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			catalog := &tu.MockService{ServiceName: "Bookhive"}
			metadata := &tu.MockService{ServiceName: "OpenLibrary"}
			api := &services.APIService{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Catalog:    catalog,
				Metadata:   metadata,
				API:        api,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.catalog != services.Service(catalog) {
				t.Error("expected catalog to be set")
			}
			if runner.metadata != services.Service(metadata) {
				t.Error("expected metadata to be set")
			}
			if runner.api != api {
				t.Error("expected api to be set")
			}
			if runner.engine == nil {
				t.Error("expected engine to be constructed")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Config: nil,
			})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Logger: nil,
			})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Output: nil,
			})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil httpClient uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				HTTPClient: nil,
			})

			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})

		t.Run("with nil notifier uses terminal", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.notifier == nil {
				t.Error("expected default notifier to be set")
			}
			if runner.confirmer == nil {
				t.Error("expected default confirmer to be set")
			}
		})

		t.Run("with explicit notifier keeps it", func(t *testing.T) {
			nop := notify.Nop{Answer: true}
			runner := NewRunner(RunnerOpts{
				Notifier:  nop,
				Confirmer: nop,
			})

			if runner.notifier != notify.Notifier(nop) {
				t.Error("expected provided notifier to be kept")
			}
		})

		t.Run("with configPath sets field", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				ConfigPath: "/test/path/config.toml",
			})

			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, true)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			expected := `{"key":"value"}` + "\n"
			if result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			// channels cannot be marshaled to JSON
			data := make(chan int)
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			data := map[string]string{"key": "value"}
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writePlain("hello %s", "world")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if result != "hello world" {
				t.Errorf("expected 'hello world', got %q", result)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			err := runner.writePlain("test")

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		if len(commands) == 0 {
			t.Error("expected at least one command to be registered")
		}

		names := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Errorf("command at index %d is nil", i)
				continue
			}
			names[cmd.Name] = true
		}

		for _, want := range []string{"setup", "auth", "shelves", "books", "cover", "api", "tui"} {
			if !names[want] {
				t.Errorf("expected command %q to be registered", want)
			}
		}
	})

	t.Run("bookRepo", func(t *testing.T) {
		t.Run("errors without a database", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			_, err := runner.bookRepo()
			if err == nil {
				t.Fatal("expected error without a database")
			}
			if !errors.Is(err, shared.ErrServiceUnavailable) {
				t.Errorf("expected ErrServiceUnavailable, got %v", err)
			}
		})
	})
}

func TestListShelves(t *testing.T) {
	t.Run("returns shelves from the catalog", func(t *testing.T) {
		catalog := &tu.MockService{
			ServiceName: "Bookhive",
			Shelves: []models.Shelf{
				{ID: "s1", Name: "Reading", BookCount: 3},
				{ID: "s2", Name: "Finished", BookCount: 12},
				{ID: "s3", Name: "Wishlist", BookCount: 7},
			},
		}
		runner := NewRunner(RunnerOpts{Catalog: catalog, Output: &bytes.Buffer{}})

		shelves, err := runner.listShelves(context.Background(), 0)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(shelves) != 3 {
			t.Errorf("expected 3 shelves, got %d", len(shelves))
		}
	})

	t.Run("applies the limit", func(t *testing.T) {
		catalog := &tu.MockService{
			Shelves: []models.Shelf{
				{ID: "s1", Name: "Reading"},
				{ID: "s2", Name: "Finished"},
				{ID: "s3", Name: "Wishlist"},
			},
		}
		runner := NewRunner(RunnerOpts{Catalog: catalog, Output: &bytes.Buffer{}})

		shelves, err := runner.listShelves(context.Background(), 2)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(shelves) != 2 {
			t.Errorf("expected 2 shelves, got %d", len(shelves))
		}
	})

	t.Run("errors without a catalog service", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

		_, err := runner.listShelves(context.Background(), 0)
		if err == nil {
			t.Fatal("expected error without a catalog service")
		}
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("propagates catalog failures", func(t *testing.T) {
		catalog := &tu.MockService{Err: errors.New("boom")}
		runner := NewRunner(RunnerOpts{Catalog: catalog, Output: &bytes.Buffer{}})

		_, err := runner.listShelves(context.Background(), 0)
		if err == nil {
			t.Fatal("expected error from failing catalog")
		}
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})
}

// newTestCache creates a migrated sqlite database with one cached book and
// returns the database plus the book's ID.
func newTestCache(t *testing.T) (runner *Runner, bookID string) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "cache.db")
	db, err := shared.NewDatabase(dbPath)
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	repo := repositories.NewBookRepository(db)
	book := models.NewPersistedBook(0, "local", "", models.Book{
		Title:  "The Dispossessed",
		Author: "Ursula K. Le Guin",
	})
	if err := repo.Create(book); err != nil {
		t.Fatalf("failed to create book: %v", err)
	}

	runner = NewRunner(RunnerOpts{
		DB:       db,
		Output:   &bytes.Buffer{},
		Notifier: notify.Nop{},
	})
	return runner, book.ID()
}

// writeTestPNG writes a small valid PNG and returns its path.
func writeTestPNG(t *testing.T, dir string) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 16), G: uint8(y * 16), B: 128, A: 255})
		}
	}

	path := filepath.Join(dir, "cover.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create image file: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

func TestSetCover(t *testing.T) {
	t.Run("stores the encoded cover on the cached book", func(t *testing.T) {
		runner, bookID := newTestCache(t)
		path := writeTestPNG(t, t.TempDir())

		persisted, err := runner.setCover(bookID, path)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if !strings.HasPrefix(persisted.CoverImage(), "data:image/") {
			t.Errorf("expected a data URI cover, got %q", persisted.CoverImage())
		}

		// The stored row reflects the new cover too.
		repo, err := runner.bookRepo()
		if err != nil {
			t.Fatalf("expected book repo, got %v", err)
		}
		reloaded, err := repo.Get(bookID)
		if err != nil {
			t.Fatalf("failed to reload book: %v", err)
		}
		if reloaded.CoverImage() != persisted.CoverImage() {
			t.Error("expected the cover to be persisted")
		}
	})

	t.Run("rejects a missing file", func(t *testing.T) {
		runner, bookID := newTestCache(t)

		_, err := runner.setCover(bookID, "/nonexistent/cover.png")
		if err == nil {
			t.Fatal("expected error for missing file")
		}
		if !errors.Is(err, shared.ErrFileNotFound) {
			t.Errorf("expected ErrFileNotFound, got %v", err)
		}
	})

	t.Run("errors for an unknown book", func(t *testing.T) {
		runner, _ := newTestCache(t)
		path := writeTestPNG(t, t.TempDir())

		_, err := runner.setCover("no-such-book", path)
		if err == nil {
			t.Fatal("expected error for unknown book")
		}
	})

	t.Run("errors without a database", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

		_, err := runner.setCover("b1", "cover.png")
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}
