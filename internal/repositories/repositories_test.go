package repositories

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/Kenpir/library-recommendation-system/internal/models"
	"github.com/Kenpir/library-recommendation-system/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		t.Fatalf("failed to enable foreign keys: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func TestUserRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		user := models.NewUser(0, "test@example.com", "Test User")

		err := repo.Create(user)
		if err != nil {
			t.Fatalf("failed to create user: %v", err)
		}

		if user.ID() == "" {
			t.Error("user ID should be set after creation")
		}
	})

	t.Run("Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		user := models.NewUser(0, "test@example.com", "Test User")

		if err := repo.Create(user); err != nil {
			t.Fatalf("failed to create user: %v", err)
		}

		retrieved, err := repo.Get(user.ID())
		if err != nil {
			t.Fatalf("failed to get user: %v", err)
		}

		if retrieved.ID() != user.ID() {
			t.Errorf("expected ID %s, got %s", user.ID(), retrieved.ID())
		}

		if retrieved.Email() != user.Email() {
			t.Errorf("expected email %s, got %s", user.Email(), retrieved.Email())
		}
	})

	t.Run("GetByEmail", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		user := models.NewUser(0, "reader@example.com", "Reader")

		if err := repo.Create(user); err != nil {
			t.Fatalf("failed to create user: %v", err)
		}

		retrieved, err := repo.GetByEmail("reader@example.com")
		if err != nil {
			t.Fatalf("failed to get user by email: %v", err)
		}

		if retrieved.ID() != user.ID() {
			t.Errorf("expected ID %s, got %s", user.ID(), retrieved.ID())
		}
	})

	t.Run("Update", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		user := models.NewUser(0, "test@example.com", "Test User")

		if err := repo.Create(user); err != nil {
			t.Fatalf("failed to create user: %v", err)
		}

		retrieved, err := repo.Get(user.ID())
		if err != nil {
			t.Fatalf("failed to get user: %v", err)
		}

		if err := repo.Update(retrieved); err != nil {
			t.Fatalf("failed to update user: %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		user := models.NewUser(0, "test@example.com", "Test User")

		if err := repo.Create(user); err != nil {
			t.Fatalf("failed to create user: %v", err)
		}

		if err := repo.Delete(user.ID()); err != nil {
			t.Fatalf("failed to delete user: %v", err)
		}

		_, err := repo.Get(user.ID())
		if err == nil {
			t.Error("expected error when getting deleted user")
		}
	})

	t.Run("List", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)

		users := []*models.User{
			models.NewUser(0, "user1@example.com", "User One"),
			models.NewUser(0, "user2@example.com", "User Two"),
			models.NewUser(0, "user3@example.com", "User Three"),
		}

		for _, user := range users {
			if err := repo.Create(user); err != nil {
				t.Fatalf("failed to create user: %v", err)
			}
		}

		retrieved, err := repo.List(map[string]any{})
		if err != nil {
			t.Fatalf("failed to list users: %v", err)
		}

		if len(retrieved) != 3 {
			t.Errorf("expected 3 users, got %d", len(retrieved))
		}

		filtered, err := repo.List(map[string]any{"email": "user2@example.com"})
		if err != nil {
			t.Fatalf("failed to list filtered users: %v", err)
		}

		if len(filtered) != 1 {
			t.Errorf("expected 1 user, got %d", len(filtered))
		}

		if len(filtered) > 0 && filtered[0].Email() != "user2@example.com" {
			t.Errorf("expected user2@example.com, got %s", filtered[0].Email())
		}
	})
}

func TestBookRepository(t *testing.T) {
	t.Run("Create & Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewBookRepository(db)
		bookDTO := models.Book{
			ID:     "bh123",
			Title:  "The Left Hand of Darkness",
			Author: "Ursula K. Le Guin",
			ISBN:   "9780441478125",
			Pages:  304,
		}

		book := models.NewPersistedBook(0, "bookhive", "bh123", bookDTO)

		if err := repo.Create(book); err != nil {
			t.Fatalf("failed to create book: %v", err)
		}

		retrieved, err := repo.GetByServiceID("bookhive", "bh123")
		if err != nil {
			t.Fatalf("failed to get book: %v", err)
		}

		if retrieved.Title() != "The Left Hand of Darkness" {
			t.Errorf("expected title 'The Left Hand of Darkness', got %s", retrieved.Title())
		}

		if retrieved.ISBN() != "9780441478125" {
			t.Errorf("expected ISBN '9780441478125', got %s", retrieved.ISBN())
		}
	})

	t.Run("GetByISBN", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewBookRepository(db)

		book := models.NewPersistedBook(0, "bookhive", "bh123", models.Book{
			ID:     "bh123",
			Title:  "The Dispossessed",
			Author: "Ursula K. Le Guin",
			ISBN:   "9780061054884",
		})

		if err := repo.Create(book); err != nil {
			t.Fatalf("failed to create book: %v", err)
		}

		retrieved, err := repo.GetByISBN("9780061054884")
		if err != nil {
			t.Fatalf("failed to get book by ISBN: %v", err)
		}

		if retrieved.ISBN() != "9780061054884" {
			t.Errorf("expected ISBN '9780061054884', got %s", retrieved.ISBN())
		}
	})

	t.Run("Update preserves cover image", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewBookRepository(db)
		book := models.NewPersistedBook(0, "bookhive", "bh456", models.Book{
			ID:    "bh456",
			Title: "Annihilation",
		})

		if err := repo.Create(book); err != nil {
			t.Fatalf("failed to create book: %v", err)
		}

		book.SetCoverImage("data:image/jpeg;base64,/9j/4AAQ")
		if err := repo.Update(book); err != nil {
			t.Fatalf("failed to update book: %v", err)
		}

		retrieved, err := repo.Get(book.ID())
		if err != nil {
			t.Fatalf("failed to get book: %v", err)
		}

		if retrieved.CoverImage() != "data:image/jpeg;base64,/9j/4AAQ" {
			t.Errorf("expected cover image to persist, got %s", retrieved.CoverImage())
		}
	})
}

func TestBookCacheAdapter_CacheBook(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewBookRepository(db)
	adapter := NewBookCacheAdapter(repo)

	bookDTO := models.Book{
		ID:     "bh123",
		Title:  "The Left Hand of Darkness",
		Author: "Ursula K. Le Guin",
		ISBN:   "9780441478125",
		Pages:  304,
	}

	if err := adapter.CacheBook("bookhive", "bh123", bookDTO); err != nil {
		t.Fatalf("failed to cache book: %v", err)
	}

	if err := adapter.CacheBook("bookhive", "bh123", bookDTO); err != nil {
		t.Fatalf("caching duplicate book should not error: %v", err)
	}

	retrieved, err := repo.GetByServiceID("bookhive", "bh123")
	if err != nil {
		t.Fatalf("failed to retrieve cached book: %v", err)
	}

	if retrieved.Title() != "The Left Hand of Darkness" {
		t.Errorf("expected title 'The Left Hand of Darkness', got %s", retrieved.Title())
	}
}

func TestBookCacheAdapter_UpdateBook(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewBookRepository(db)
	adapter := NewBookCacheAdapter(repo)

	original := models.Book{
		ID:     "bh123",
		Title:  "Good Omens",
		Author: "Terry Pratchett",
	}

	if err := adapter.CacheBook("bookhive", "bh123", original); err != nil {
		t.Fatalf("failed to cache book: %v", err)
	}

	enriched := original
	enriched.ISBN = "9780060853983"
	enriched.Pages = 412

	if err := adapter.UpdateBook("bookhive", "bh123", enriched); err != nil {
		t.Fatalf("failed to update book: %v", err)
	}

	retrieved, err := repo.GetByServiceID("bookhive", "bh123")
	if err != nil {
		t.Fatalf("failed to retrieve book: %v", err)
	}

	if retrieved.ISBN() != "9780060853983" {
		t.Errorf("expected ISBN '9780060853983', got %s", retrieved.ISBN())
	}

	if retrieved.Pages() != 412 {
		t.Errorf("expected 412 pages, got %d", retrieved.Pages())
	}

	t.Run("creates the book when absent", func(t *testing.T) {
		if err := adapter.UpdateBook("bookhive", "bh999", models.Book{ID: "bh999", Title: "New Arrival"}); err != nil {
			t.Fatalf("failed to update uncached book: %v", err)
		}

		retrieved, err := repo.GetByServiceID("bookhive", "bh999")
		if err != nil {
			t.Fatalf("failed to retrieve book: %v", err)
		}

		if retrieved.Title() != "New Arrival" {
			t.Errorf("expected title 'New Arrival', got %s", retrieved.Title())
		}
	})
}

func TestShelfCacheAdapter(t *testing.T) {
	setup := func(t *testing.T) (*sql.DB, *ShelfCacheAdapter, *BookCacheAdapter) {
		t.Helper()

		db := setupTestDB(t)
		t.Cleanup(func() { db.Close() })

		userRepo := NewUserRepository(db)
		user := models.NewUser(0, "reader@example.com", "Reader")
		if err := userRepo.Create(user); err != nil {
			t.Fatalf("failed to create user: %v", err)
		}

		bookRepo := NewBookRepository(db)
		adapter := NewShelfCacheAdapter(
			NewShelfRepository(db),
			bookRepo,
			NewShelfBookRepository(db),
			"bookhive",
			user.ID(),
		)

		return db, adapter, NewBookCacheAdapter(bookRepo)
	}

	export := func() *models.ShelfExport {
		return &models.ShelfExport{
			Shelf: models.Shelf{
				ID:          "bh123",
				Name:        "Reading List",
				Description: "Currently reading",
				Public:      true,
			},
			Books: []models.Book{
				{ID: "b1", Title: "The Dispossessed", Author: "Ursula K. Le Guin", ISBN: "9780061054884"},
				{ID: "b2", Title: "Good Omens", Author: "Terry Pratchett", ISBN: "9780060853983"},
			},
		}
	}

	t.Run("SaveShelf and LoadShelf round trip", func(t *testing.T) {
		_, adapter, books := setup(t)

		exp := export()
		for _, book := range exp.Books {
			if err := books.CacheBook("bookhive", book.ID, book); err != nil {
				t.Fatalf("failed to cache book: %v", err)
			}
		}

		if err := adapter.SaveShelf(exp); err != nil {
			t.Fatalf("failed to save shelf: %v", err)
		}

		loaded, err := adapter.LoadShelf("bh123")
		if err != nil {
			t.Fatalf("failed to load shelf: %v", err)
		}

		if loaded.Shelf.Name != "Reading List" {
			t.Errorf("expected name 'Reading List', got %s", loaded.Shelf.Name)
		}

		if loaded.Shelf.BookCount != 2 {
			t.Errorf("expected book count 2, got %d", loaded.Shelf.BookCount)
		}

		if len(loaded.Books) != 2 {
			t.Fatalf("expected 2 books, got %d", len(loaded.Books))
		}

		if loaded.Books[0].Title != "The Dispossessed" {
			t.Errorf("expected first book 'The Dispossessed', got %s", loaded.Books[0].Title)
		}

		if loaded.Books[1].ISBN != "9780060853983" {
			t.Errorf("expected second book ISBN '9780060853983', got %s", loaded.Books[1].ISBN)
		}
	})

	t.Run("SaveShelf upserts on second save", func(t *testing.T) {
		db, adapter, books := setup(t)

		exp := export()
		for _, book := range exp.Books {
			if err := books.CacheBook("bookhive", book.ID, book); err != nil {
				t.Fatalf("failed to cache book: %v", err)
			}
		}

		if err := adapter.SaveShelf(exp); err != nil {
			t.Fatalf("failed to save shelf: %v", err)
		}

		renamed := export()
		renamed.Shelf.Name = "Finished"
		renamed.Books = renamed.Books[:1]

		if err := adapter.SaveShelf(renamed); err != nil {
			t.Fatalf("failed to save shelf again: %v", err)
		}

		loaded, err := adapter.LoadShelf("bh123")
		if err != nil {
			t.Fatalf("failed to load shelf: %v", err)
		}

		if loaded.Shelf.Name != "Finished" {
			t.Errorf("expected updated name 'Finished', got %s", loaded.Shelf.Name)
		}

		if len(loaded.Books) != 1 {
			t.Errorf("expected 1 book after replace, got %d", len(loaded.Books))
		}

		shelves, err := NewShelfRepository(db).List(map[string]any{"service": "bookhive"})
		if err != nil {
			t.Fatalf("failed to list shelves: %v", err)
		}

		if len(shelves) != 1 {
			t.Errorf("expected a single cached shelf row, got %d", len(shelves))
		}
	})

	t.Run("SaveShelf skips uncached books", func(t *testing.T) {
		_, adapter, books := setup(t)

		exp := export()
		// Only the first book is cached
		if err := books.CacheBook("bookhive", exp.Books[0].ID, exp.Books[0]); err != nil {
			t.Fatalf("failed to cache book: %v", err)
		}

		if err := adapter.SaveShelf(exp); err != nil {
			t.Fatalf("failed to save shelf: %v", err)
		}

		loaded, err := adapter.LoadShelf("bh123")
		if err != nil {
			t.Fatalf("failed to load shelf: %v", err)
		}

		if len(loaded.Books) != 1 {
			t.Fatalf("expected 1 linked book, got %d", len(loaded.Books))
		}

		if loaded.Books[0].Title != "The Dispossessed" {
			t.Errorf("expected 'The Dispossessed', got %s", loaded.Books[0].Title)
		}
	})

	t.Run("LoadShelf by name", func(t *testing.T) {
		_, adapter, _ := setup(t)

		if err := adapter.SaveShelf(export()); err != nil {
			t.Fatalf("failed to save shelf: %v", err)
		}

		loaded, err := adapter.LoadShelf("Reading List")
		if err != nil {
			t.Fatalf("failed to load shelf by name: %v", err)
		}

		if loaded.Shelf.ID != "bh123" {
			t.Errorf("expected shelf ID 'bh123', got %s", loaded.Shelf.ID)
		}
	})

	t.Run("LoadShelf unknown shelf", func(t *testing.T) {
		_, adapter, _ := setup(t)

		_, err := adapter.LoadShelf("does-not-exist")
		if !errors.Is(err, shared.ErrShelfNotFound) {
			t.Errorf("expected ErrShelfNotFound, got %v", err)
		}
	})

	t.Run("SaveShelf rejects nil export", func(t *testing.T) {
		_, adapter, _ := setup(t)

		if err := adapter.SaveShelf(nil); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestShelfRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	userRepo := NewUserRepository(db)
	user := models.NewUser(0, "test@example.com", "Test User")
	if err := userRepo.Create(user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	shelfRepo := NewShelfRepository(db)
	shelfDTO := models.Shelf{
		ID:          "bh123",
		Name:        "Test Shelf",
		Description: "Test Description",
		BookCount:   10,
		Public:      true,
	}

	shelf := models.NewPersistedShelf(0, "bookhive", "bh123", user.ID(), shelfDTO)

	if err := shelfRepo.Create(shelf); err != nil {
		t.Fatalf("failed to create shelf: %v", err)
	}

	retrieved, err := shelfRepo.GetByServiceID("bookhive", "bh123")
	if err != nil {
		t.Fatalf("failed to get shelf: %v", err)
	}

	if retrieved.Name() != "Test Shelf" {
		t.Errorf("expected name 'Test Shelf', got %s", retrieved.Name())
	}

	if retrieved.UserID() != user.ID() {
		t.Errorf("expected user ID %s, got %s", user.ID(), retrieved.UserID())
	}
}

func TestShelfBookRepository(t *testing.T) {
	seed := func(t *testing.T, db *sql.DB) (*models.PersistedShelf, []*models.PersistedBook) {
		t.Helper()

		shelfRepo := NewShelfRepository(db)
		shelf := models.NewPersistedShelf(0, "local", "", "", models.Shelf{Name: "Reading Queue"})
		if err := shelfRepo.Create(shelf); err != nil {
			t.Fatalf("failed to create shelf: %v", err)
		}

		bookRepo := NewBookRepository(db)
		titles := []string{"Book A", "Book B", "Book C"}
		books := make([]*models.PersistedBook, len(titles))
		for i, title := range titles {
			book := models.NewPersistedBook(0, "local", "", models.Book{Title: title})
			if err := bookRepo.Create(book); err != nil {
				t.Fatalf("failed to create book %s: %v", title, err)
			}
			books[i] = book
		}

		return shelf, books
	}

	t.Run("SetBooks and ListByShelf preserve order", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		shelf, books := seed(t, db)
		repo := NewShelfBookRepository(db)

		ids := []string{books[2].ID(), books[0].ID(), books[1].ID()}
		if err := repo.SetBooks(shelf.ID(), ids); err != nil {
			t.Fatalf("failed to set books: %v", err)
		}

		rows, err := repo.ListByShelf(shelf.ID())
		if err != nil {
			t.Fatalf("failed to list shelf books: %v", err)
		}

		if len(rows) != 3 {
			t.Fatalf("expected 3 shelf books, got %d", len(rows))
		}

		for i, row := range rows {
			if row.BookID() != ids[i] {
				t.Errorf("position %d: expected book %s, got %s", i, ids[i], row.BookID())
			}
			if row.Position() != i {
				t.Errorf("expected position %d, got %d", i, row.Position())
			}
		}
	})

	t.Run("SetBooks replaces existing membership", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		shelf, books := seed(t, db)
		repo := NewShelfBookRepository(db)

		if err := repo.SetBooks(shelf.ID(), []string{books[0].ID(), books[1].ID()}); err != nil {
			t.Fatalf("failed to set initial books: %v", err)
		}

		if err := repo.SetBooks(shelf.ID(), []string{books[2].ID()}); err != nil {
			t.Fatalf("failed to replace books: %v", err)
		}

		rows, err := repo.ListByShelf(shelf.ID())
		if err != nil {
			t.Fatalf("failed to list shelf books: %v", err)
		}

		if len(rows) != 1 {
			t.Fatalf("expected 1 shelf book after replace, got %d", len(rows))
		}

		if rows[0].BookID() != books[2].ID() {
			t.Errorf("expected book %s, got %s", books[2].ID(), rows[0].BookID())
		}
	})

	t.Run("Remove", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		shelf, books := seed(t, db)
		repo := NewShelfBookRepository(db)

		if err := repo.SetBooks(shelf.ID(), []string{books[0].ID(), books[1].ID()}); err != nil {
			t.Fatalf("failed to set books: %v", err)
		}

		if err := repo.Remove(shelf.ID(), books[0].ID()); err != nil {
			t.Fatalf("failed to remove book: %v", err)
		}

		if err := repo.Remove(shelf.ID(), books[0].ID()); err == nil {
			t.Error("expected error removing book not on shelf")
		}

		rows, err := repo.ListByShelf(shelf.ID())
		if err != nil {
			t.Fatalf("failed to list shelf books: %v", err)
		}

		if len(rows) != 1 {
			t.Errorf("expected 1 shelf book after removal, got %d", len(rows))
		}
	})
}

func TestSyncJobRepository_CreateAndUpdate(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	userRepo := NewUserRepository(db)
	user := models.NewUser(0, "test@example.com", "Test User")
	if err := userRepo.Create(user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	shelfRepo := NewShelfRepository(db)
	sourceShelf := models.NewPersistedShelf(0, "bookhive", "bh123", user.ID(), models.Shelf{
		ID:          "bh123",
		Name:        "Source Shelf",
		Description: "Test source",
		BookCount:   10,
		Public:      false,
	})
	if err := shelfRepo.Create(sourceShelf); err != nil {
		t.Fatalf("failed to create source shelf: %v", err)
	}

	jobRepo := NewSyncJobRepository(db)
	job := models.NewSyncJob(0, user.ID(), "bookhive", sourceShelf.ID(), "openlibrary")

	if err := jobRepo.Create(job); err != nil {
		t.Fatalf("failed to create sync job: %v", err)
	}

	if job.Status() != models.SyncStatusPending {
		t.Errorf("expected status 'pending', got %s", job.Status())
	}

	job.Start()
	job.SetBooksTotal(10)
	job.SetBooksSynced(5)

	if err := jobRepo.Update(job); err != nil {
		t.Fatalf("failed to update sync job: %v", err)
	}

	retrieved, err := jobRepo.Get(job.ID())
	if err != nil {
		t.Fatalf("failed to get sync job: %v", err)
	}

	if retrieved.Status() != models.SyncStatusRunning {
		t.Errorf("expected status 'running', got %s", retrieved.Status())
	}

	if retrieved.BooksTotal() != 10 {
		t.Errorf("expected 10 total books, got %d", retrieved.BooksTotal())
	}

	if retrieved.BooksSynced() != 5 {
		t.Errorf("expected 5 synced books, got %d", retrieved.BooksSynced())
	}

	if retrieved.StartedAt() == nil {
		t.Error("expected started_at to be set")
	}
}

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	seq1, err := NextSequence(db, "users")
	if err != nil {
		t.Fatalf("failed to get first sequence: %v", err)
	}

	if seq1 != 1 {
		t.Errorf("expected first sequence to be 1, got %d", seq1)
	}

	// Get second sequence
	seq2, err := NextSequence(db, "users")
	if err != nil {
		t.Fatalf("failed to get second sequence: %v", err)
	}

	if seq2 != 2 {
		t.Errorf("expected second sequence to be 2, got %d", seq2)
	}

	bookSeq, err := NextSequence(db, "books")
	if err != nil {
		t.Fatalf("failed to get book sequence: %v", err)
	}

	if bookSeq != 1 {
		t.Errorf("expected first book sequence to be 1, got %d", bookSeq)
	}
}
