// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/Kenpir/library-recommendation-system/internal/models"
	"github.com/Kenpir/library-recommendation-system/internal/shared"
)

// MockService is a configurable test double for [services.Service].
//
// The zero value behaves like an empty, always-successful provider; tests
// seed Shelves/Exports/SearchResult to drive the paths they exercise and set
// Err to force failures.
type MockService struct {
	ServiceName  string
	Shelves      []models.Shelf
	Exports      map[string]*models.ShelfExport
	Imported     []*models.ShelfExport
	SearchResult *models.Book
	Err          error
}

func (m *MockService) Authenticate(ctx context.Context, credentials map[string]string) error {
	return m.Err
}

func (m *MockService) GetShelves(ctx context.Context) ([]models.Shelf, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Shelves, nil
}

func (m *MockService) GetShelf(ctx context.Context, shelfID string) (*models.Shelf, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	for i := range m.Shelves {
		if m.Shelves[i].ID == shelfID {
			return &m.Shelves[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", shared.ErrShelfNotFound, shelfID)
}

func (m *MockService) ExportShelf(ctx context.Context, shelfID string) (*models.ShelfExport, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if export, ok := m.Exports[shelfID]; ok {
		return export, nil
	}

	shelf, err := m.GetShelf(ctx, shelfID)
	if err != nil {
		return nil, err
	}
	return &models.ShelfExport{Shelf: *shelf}, nil
}

func (m *MockService) ImportShelf(ctx context.Context, shelf *models.ShelfExport) (*models.Shelf, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if shelf == nil {
		return nil, fmt.Errorf("%w: shelf export cannot be nil", shared.ErrInvalidInput)
	}

	m.Imported = append(m.Imported, shelf)

	imported := shelf.Shelf
	if imported.ID == "" {
		imported.ID = fmt.Sprintf("mock-shelf-%d", len(m.Imported))
	}
	imported.BookCount = len(shelf.Books)
	return &imported, nil
}

func (m *MockService) SearchBook(ctx context.Context, title, author string) (*models.Book, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.SearchResult == nil {
		return nil, fmt.Errorf("%w: no results for '%s' by '%s'", shared.ErrBookNotFound, title, author)
	}
	return m.SearchResult, nil
}

func (m *MockService) Name() string {
	if m.ServiceName == "" {
		return "mock"
	}
	return m.ServiceName
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
