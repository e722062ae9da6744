package formatter

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Kenpir/library-recommendation-system/internal/models"
	th "github.com/Kenpir/library-recommendation-system/internal/testing"
)

func sampleExport() *models.ShelfExport {
	return &models.ShelfExport{
		Shelf: models.Shelf{
			ID:          "shelf123",
			Name:        "Reading List",
			Description: "Books on deck",
			BookCount:   3,
			Public:      true,
		},
		Books: []models.Book{
			{
				ID:     "book1",
				Title:  "The Dispossessed",
				Author: "Ursula K. Le Guin",
				ISBN:   "9780061054884",
				Pages:  387,
			},
			{
				ID:     "book2",
				Title:  "Good Omens",
				Author: "Terry Pratchett, Neil Gaiman",
				ISBN:   "9780060853983",
				Pages:  412,
			},
			{
				ID:    "book3",
				Title: "Beowulf",
			},
		},
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(sampleExport())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "ID,Title,Author,ISBN,Pages") {
			t.Errorf("CSV missing headers, got: %s", output)
		}

		if !strings.Contains(output, "book1") {
			t.Errorf("CSV missing book1 ID")
		}
		if !strings.Contains(output, "The Dispossessed") {
			t.Errorf("CSV missing book1 title")
		}
		if !strings.Contains(output, "Ursula K. Le Guin") {
			t.Errorf("CSV missing book1 author")
		}
		if !strings.Contains(output, "9780061054884") {
			t.Errorf("CSV missing book1 ISBN")
		}
		if !strings.Contains(output, `"Terry Pratchett, Neil Gaiman"`) {
			t.Errorf("CSV should quote authors containing commas")
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		export := sampleExport()

		t.Run("without cover image", func(t *testing.T) {
			data, err := ExportToMarkdown(export, "")
			if err != nil {
				t.Fatalf("ExportToMarkdown failed: %v", err)
			}

			output := string(data)

			if !strings.Contains(output, "# Reading List") {
				t.Errorf("Markdown missing title")
			}

			if !strings.Contains(output, "**Description**: Books on deck") {
				t.Errorf("Markdown missing description")
			}
			if !strings.Contains(output, "**Books**: 3") {
				t.Errorf("Markdown missing book count")
			}
			if !strings.Contains(output, "**Visibility**: Public") {
				t.Errorf("Markdown missing visibility")
			}

			if !strings.Contains(output, "## Books") {
				t.Errorf("Markdown missing books section")
			}
			if !strings.Contains(output, "1. Ursula K. Le Guin - The Dispossessed (ISBN 9780061054884) [387 pp]") {
				t.Errorf("Markdown missing book1, got: %s", output)
			}
			if !strings.Contains(output, "3. Beowulf [—]") {
				t.Errorf("Markdown missing book3 (no author, no ISBN)")
			}
		})

		t.Run("with cover image", func(t *testing.T) {
			data, err := ExportToMarkdown(export, "cover.png")
			if err != nil {
				t.Fatalf("ExportToMarkdown failed: %v", err)
			}

			output := string(data)

			if !strings.Contains(output, "![Cover](cover.png)") {
				t.Errorf("Markdown missing cover image reference")
			}
		})
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(sampleExport())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "Shelf: Reading List") {
			t.Errorf("Text missing shelf name")
		}
		if !strings.Contains(output, "Description: Books on deck") {
			t.Errorf("Text missing description")
		}
		if !strings.Contains(output, "Books: 3") {
			t.Errorf("Text missing book count")
		}

		if !strings.Contains(output, "1. Ursula K. Le Guin - The Dispossessed") {
			t.Errorf("Text missing book1")
		}
		if !strings.Contains(output, "3. Beowulf") {
			t.Errorf("Text missing book3")
		}
	})

	t.Run("ToMetadataJSON", func(t *testing.T) {
		data, err := ToMetadataJSON(sampleExport().Shelf)
		if err != nil {
			t.Fatalf("ToMetadataJSON failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, `"id": "shelf123"`) {
			t.Errorf("JSON missing id field, got: %s", output)
		}
		if !strings.Contains(output, `"name": "Reading List"`) {
			t.Errorf("JSON missing name field")
		}
		if strings.Contains(output, "books") {
			t.Errorf("metadata JSON should not include books")
		}
	})

	t.Run("ExportToJSON", func(t *testing.T) {
		data, err := ExportToJSON(sampleExport())
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, `"shelf123"`) {
			t.Errorf("JSON missing shelf ID")
		}
		if !strings.Contains(output, `"Reading List"`) {
			t.Errorf("JSON missing shelf name")
		}
		if !strings.Contains(output, `"book1"`) {
			t.Errorf("JSON missing book1 ID")
		}
		if !strings.Contains(output, `"9780061054884"`) {
			t.Errorf("JSON missing book1 ISBN")
		}
	})
}

func TestDownloadImage(t *testing.T) {
	t.Run("EmptyURL", func(t *testing.T) {
		_, err := DownloadImage("")
		if err == nil {
			t.Error("DownloadImage with empty URL should return error")
		}
	})

	t.Run("NonOKStatus", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		_, err := DownloadImage(server.URL)
		if err == nil || !strings.Contains(err.Error(), "status 404") {
			t.Errorf("expected a status error, got %v", err)
		}
	})
}

func TestWriteCoverImage(t *testing.T) {
	t.Run("FromDataURI", func(t *testing.T) {
		tempDir := t.TempDir()

		payload := []byte{0x89, 0x50, 0x4E, 0x47}
		uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(payload)

		path, err := WriteCoverImage(uri, tempDir)
		if err != nil {
			t.Fatalf("WriteCoverImage failed: %v", err)
		}

		if !strings.HasSuffix(path, "cover.png") {
			t.Errorf("expected a cover.png path, got '%s'", path)
		}
		th.AssertFileExists(t, path)

		content := th.MustReadFile(t, path)
		if content != string(payload) {
			t.Errorf("cover file content does not match decoded payload")
		}
	})

	t.Run("FromURL", func(t *testing.T) {
		tempDir := t.TempDir()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("jpeg-bytes"))
		}))
		defer server.Close()

		path, err := WriteCoverImage(server.URL, tempDir)
		if err != nil {
			t.Fatalf("WriteCoverImage failed: %v", err)
		}

		if !strings.HasSuffix(path, "cover.jpg") {
			t.Errorf("expected a cover.jpg path, got '%s'", path)
		}
		th.AssertFileExists(t, path)
	})

	t.Run("EmptySource", func(t *testing.T) {
		_, err := WriteCoverImage("", t.TempDir())
		if err == nil {
			t.Error("WriteCoverImage with empty source should return error")
		}
	})

	t.Run("MalformedDataURI", func(t *testing.T) {
		_, err := WriteCoverImage("data:image/png;base64,not-base64!!!", t.TempDir())
		if err == nil {
			t.Error("WriteCoverImage with bad base64 should return error")
		}

		_, err = WriteCoverImage("data:image/png,raw-payload", t.TempDir())
		if err == nil {
			t.Error("WriteCoverImage with non-base64 data URI should return error")
		}
	})
}

func TestWriters(t *testing.T) {
	t.Run("WriteCSVExport", func(t *testing.T) {
		export := sampleExport()

		t.Run("WithDefaultPath", func(t *testing.T) {
			tempDir := t.TempDir()
			originalDir := th.MustGetwd(t)
			th.MustChdir(t, tempDir)
			defer th.MustChdir(t, originalDir)

			result, err := WriteCSVExport(export, "")
			if err != nil {
				t.Fatalf("WriteCSVExport failed: %v", err)
			}

			if result.BooksFile != "shelf123_books.csv" {
				t.Errorf("Expected books file 'shelf123_books.csv', got '%s'", result.BooksFile)
			}
			if result.MetadataFile != "shelf123_metadata.json" {
				t.Errorf("Expected metadata file 'shelf123_metadata.json', got '%s'", result.MetadataFile)
			}

			th.AssertFileExists(t, result.BooksFile)
			th.AssertFileExists(t, result.MetadataFile)

			csvContent := th.MustReadFile(t, result.BooksFile)
			if !strings.Contains(csvContent, "ID,Title,Author,ISBN,Pages") {
				t.Errorf("CSV missing headers")
			}
			if !strings.Contains(csvContent, "book1") || !strings.Contains(csvContent, "The Dispossessed") {
				t.Errorf("CSV missing book data")
			}

			metadataContent := th.MustReadFile(t, result.MetadataFile)
			if !strings.Contains(metadataContent, "shelf123") || !strings.Contains(metadataContent, "Reading List") {
				t.Errorf("Metadata JSON missing expected fields")
			}
		})

		t.Run("WithCustomPath", func(t *testing.T) {
			tempDir := t.TempDir()
			originalDir := th.MustGetwd(t)
			th.MustChdir(t, tempDir)
			defer th.MustChdir(t, originalDir)

			result, err := WriteCSVExport(export, "custom_export")
			if err != nil {
				t.Fatalf("WriteCSVExport failed: %v", err)
			}

			if result.BooksFile != "custom_export_books.csv" {
				t.Errorf("Expected 'custom_export_books.csv', got '%s'", result.BooksFile)
			}
			if result.MetadataFile != "custom_export_metadata.json" {
				t.Errorf("Expected 'custom_export_metadata.json', got '%s'", result.MetadataFile)
			}

			th.AssertFileExists(t, result.BooksFile)
			th.AssertFileExists(t, result.MetadataFile)
		})
	})

	t.Run("WriteMarkdownExport", func(t *testing.T) {
		export := sampleExport()

		t.Run("WithDefaultDirectory", func(t *testing.T) {
			tempDir := t.TempDir()
			originalDir := th.MustGetwd(t)
			th.MustChdir(t, tempDir)
			defer th.MustChdir(t, originalDir)

			result, err := WriteMarkdownExport(export, "", "")
			if err != nil {
				t.Fatalf("WriteMarkdownExport failed: %v", err)
			}

			if result.Directory != "shelf123" {
				t.Errorf("Expected directory 'shelf123', got '%s'", result.Directory)
			}
			th.AssertDirExists(t, result.Directory)

			readmePath := result.Directory + "/README.md"
			th.AssertFileExists(t, readmePath)

			content := th.MustReadFile(t, readmePath)
			if !strings.Contains(content, "# Reading List") {
				t.Errorf("Markdown missing title")
			}
			if !strings.Contains(content, "1. Ursula K. Le Guin - The Dispossessed") {
				t.Errorf("Markdown missing book listing")
			}

			if result.CoverImage != "" {
				t.Errorf("Expected no cover image, got '%s'", result.CoverImage)
			}
		})

		t.Run("WithDataURICover", func(t *testing.T) {
			tempDir := t.TempDir()
			originalDir := th.MustGetwd(t)
			th.MustChdir(t, tempDir)
			defer th.MustChdir(t, originalDir)

			uri := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte{0xFF, 0xD8, 0xFF})

			result, err := WriteMarkdownExport(export, "with_cover", uri)
			if err != nil {
				t.Fatalf("WriteMarkdownExport failed: %v", err)
			}

			if result.CoverImage != "with_cover/cover.jpg" {
				t.Errorf("Expected cover at 'with_cover/cover.jpg', got '%s'", result.CoverImage)
			}
			th.AssertFileExists(t, result.CoverImage)

			content := th.MustReadFile(t, result.Directory+"/README.md")
			if !strings.Contains(content, "![Cover](cover.jpg)") {
				t.Errorf("Markdown missing cover reference")
			}

			if len(result.Files) != 2 {
				t.Errorf("Expected 2 files (cover + README), got %d", len(result.Files))
			}
		})

		t.Run("CoverFailureIsNotFatal", func(t *testing.T) {
			tempDir := t.TempDir()
			originalDir := th.MustGetwd(t)
			th.MustChdir(t, tempDir)
			defer th.MustChdir(t, originalDir)

			result, err := WriteMarkdownExport(export, "bad_cover", "data:image/png;base64,!!!")
			if err != nil {
				t.Fatalf("WriteMarkdownExport should tolerate a bad cover, got: %v", err)
			}

			if result.CoverImage != "" {
				t.Errorf("Expected no cover image after decode failure")
			}
			th.AssertFileExists(t, result.Directory+"/README.md")
		})
	})

	t.Run("WriteTextExport", func(t *testing.T) {
		export := sampleExport()

		t.Run("WithDefaultPath", func(t *testing.T) {
			tempDir := t.TempDir()
			originalDir := th.MustGetwd(t)
			th.MustChdir(t, tempDir)
			defer th.MustChdir(t, originalDir)

			filepath, err := WriteTextExport(export, "")
			if err != nil {
				t.Fatalf("WriteTextExport failed: %v", err)
			}

			if filepath != "shelf123_books.txt" {
				t.Errorf("Expected 'shelf123_books.txt', got '%s'", filepath)
			}

			th.AssertFileExists(t, filepath)

			content := th.MustReadFile(t, filepath)
			if !strings.Contains(content, "Shelf: Reading List") {
				t.Errorf("Text missing shelf name")
			}
			if !strings.Contains(content, "1. Ursula K. Le Guin - The Dispossessed") {
				t.Errorf("Text missing book listing")
			}
		})

		t.Run("WithCustomPath", func(t *testing.T) {
			tempDir := t.TempDir()
			originalDir := th.MustGetwd(t)
			th.MustChdir(t, tempDir)
			defer th.MustChdir(t, originalDir)

			filepath, err := WriteTextExport(export, "my_shelf.txt")
			if err != nil {
				t.Fatalf("WriteTextExport failed: %v", err)
			}

			if filepath != "my_shelf.txt" {
				t.Errorf("Expected 'my_shelf.txt', got '%s'", filepath)
			}

			th.AssertFileExists(t, filepath)
		})
	})

	t.Run("WriteJSONExport", func(t *testing.T) {
		export := sampleExport()

		t.Run("WithDefaultPath", func(t *testing.T) {
			tempDir := t.TempDir()
			originalDir := th.MustGetwd(t)
			th.MustChdir(t, tempDir)
			defer th.MustChdir(t, originalDir)

			filepath, err := WriteJSONExport(export, "")
			if err != nil {
				t.Fatalf("WriteJSONExport failed: %v", err)
			}

			if filepath != "shelf123.json" {
				t.Errorf("Expected 'shelf123.json', got '%s'", filepath)
			}

			th.AssertFileExists(t, filepath)

			content := th.MustReadFile(t, filepath)
			if !strings.Contains(content, `"shelf123"`) {
				t.Errorf("JSON missing shelf ID")
			}
			if !strings.Contains(content, `"Reading List"`) {
				t.Errorf("JSON missing shelf name")
			}
			if !strings.Contains(content, `"book1"`) {
				t.Errorf("JSON missing book data")
			}
		})

		t.Run("WithCustomPath", func(t *testing.T) {
			tempDir := t.TempDir()
			originalDir := th.MustGetwd(t)
			th.MustChdir(t, tempDir)
			defer th.MustChdir(t, originalDir)

			filepath, err := WriteJSONExport(export, "my_export.json")
			if err != nil {
				t.Fatalf("WriteJSONExport failed: %v", err)
			}

			if filepath != "my_export.json" {
				t.Errorf("Expected 'my_export.json', got '%s'", filepath)
			}

			th.AssertFileExists(t, filepath)
		})
	})

	t.Run("WriteBulkExportManifest", func(t *testing.T) {
		t.Run("SuccessfulExport", func(t *testing.T) {
			tempDir := t.TempDir()
			originalDir := th.MustGetwd(t)
			th.MustChdir(t, tempDir)
			defer th.MustChdir(t, originalDir)

			bulkResult := &BulkExportResult{
				TotalShelves:      2,
				SuccessfulExports: 2,
				FailedExports:     0,
				Results: []ShelfExportStatus{
					{
						ShelfID:   "shelf1",
						ShelfName: "Reading List",
						Success:   true,
						Files:     []string{"shelf1_books.csv", "shelf1_metadata.json"},
					},
					{
						ShelfID:   "shelf2",
						ShelfName: "Finished",
						Success:   true,
						Files:     []string{"shelf2/README.md", "shelf2/cover.jpg"},
					},
				},
				OutputDirectory: "exports",
			}

			manifestPath := "manifest.json"
			if err := WriteBulkExportManifest(bulkResult, "csv", manifestPath); err != nil {
				t.Fatalf("WriteBulkExportManifest failed: %v", err)
			}

			th.AssertFileExists(t, manifestPath)

			content := th.MustReadFile(t, manifestPath)
			if !strings.Contains(content, `"format": "csv"`) {
				t.Errorf("Manifest missing format field")
			}
			if !strings.Contains(content, `"total_shelves": 2`) {
				t.Errorf("Manifest missing total_shelves field")
			}
			if !strings.Contains(content, `"successful_exports": 2`) {
				t.Errorf("Manifest missing successful_exports field")
			}
			if !strings.Contains(content, `"shelf1"`) {
				t.Errorf("Manifest missing shelf1 ID")
			}
			if !strings.Contains(content, `"Reading List"`) {
				t.Errorf("Manifest missing shelf1 name")
			}
			if !strings.Contains(content, `"status": "success"`) {
				t.Errorf("Manifest missing success status")
			}
		})

		t.Run("WithFailedExports", func(t *testing.T) {
			tempDir := t.TempDir()
			originalDir := th.MustGetwd(t)
			th.MustChdir(t, tempDir)
			defer th.MustChdir(t, originalDir)

			bulkResult := &BulkExportResult{
				TotalShelves:      2,
				SuccessfulExports: 1,
				FailedExports:     1,
				Results: []ShelfExportStatus{
					{
						ShelfID:   "shelf1",
						ShelfName: "Success Shelf",
						Success:   true,
						Files:     []string{"shelf1.json"},
					},
					{
						ShelfID:   "shelf2",
						ShelfName: "Failed Shelf",
						Success:   false,
						Err:       errFake("authentication failed"),
					},
				},
			}

			manifestPath := "manifest_with_failures.json"
			if err := WriteBulkExportManifest(bulkResult, "markdown", manifestPath); err != nil {
				t.Fatalf("WriteBulkExportManifest failed: %v", err)
			}

			th.AssertFileExists(t, manifestPath)

			content := th.MustReadFile(t, manifestPath)
			if !strings.Contains(content, `"format": "markdown"`) {
				t.Errorf("Manifest missing format field")
			}
			if !strings.Contains(content, `"failed_exports": 1`) {
				t.Errorf("Manifest missing failed_exports count")
			}
			if !strings.Contains(content, `"status": "failed"`) {
				t.Errorf("Manifest missing failed status")
			}
			if !strings.Contains(content, `"authentication failed"`) {
				t.Errorf("Manifest missing error message")
			}
		})

		t.Run("RejectsNilResult", func(t *testing.T) {
			if err := WriteBulkExportManifest(nil, "json", "unused.json"); err == nil {
				t.Error("WriteBulkExportManifest with nil result should return error")
			}
		})
	})
}

type errFake string

func (e errFake) Error() string { return string(e) }
