// package formatter provides functions to export shelf data to various formats (CSV, Markdown, plain text, JSON)
package formatter

import (
	"bytes"
	"encoding/base64"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Kenpir/library-recommendation-system/internal/models"
	"github.com/Kenpir/library-recommendation-system/internal/shared"
)

// ExportToCSV converts a ShelfExport to CSV format with columns: ID, Title, Author, ISBN, Pages
func ExportToCSV(export *models.ShelfExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Author", "ISBN", "Pages"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, book := range export.Books {
		record := []string{
			book.ID,
			book.Title,
			book.Author,
			book.ISBN,
			strconv.Itoa(book.Pages),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a ShelfExport to Markdown format with optional cover image
func ExportToMarkdown(export *models.ShelfExport, imageFilename string) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", export.Shelf.Name))

	if imageFilename != "" {
		buf.WriteString(fmt.Sprintf("![Cover](%s)\n\n", imageFilename))
	}

	if export.Shelf.Description != "" {
		buf.WriteString(fmt.Sprintf("**Description**: %s\n\n", export.Shelf.Description))
	}

	buf.WriteString(fmt.Sprintf("**Books**: %d\n", len(export.Books)))
	buf.WriteString(fmt.Sprintf("**Visibility**: %s\n\n", shared.VisibilityString(export.Shelf.Public)))

	buf.WriteString("## Books\n\n")
	for i, book := range export.Books {
		isbnPart := ""
		if book.ISBN != "" {
			isbnPart = fmt.Sprintf(" (ISBN %s)", book.ISBN)
		}
		buf.WriteString(fmt.Sprintf("%d. %s%s [%s]\n", i+1, bookLine(book), isbnPart, shared.FormatPages(book.Pages)))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a ShelfExport to plain text format
func ExportToText(export *models.ShelfExport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Shelf: %s\n", export.Shelf.Name))
	if export.Shelf.Description != "" {
		buf.WriteString(fmt.Sprintf("Description: %s\n", export.Shelf.Description))
	}
	buf.WriteString(fmt.Sprintf("Books: %d\n\n", len(export.Books)))

	for i, book := range export.Books {
		buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, bookLine(book)))
	}

	return buf.Bytes(), nil
}

// ExportToJSON converts a ShelfExport to indented JSON
func ExportToJSON(export *models.ShelfExport) ([]byte, error) {
	return shared.MarshalJSON(export, true)
}

// bookLine renders "Author - Title", or just the title when the author is unknown.
func bookLine(book models.Book) string {
	if book.Author == "" {
		return book.Title
	}
	return fmt.Sprintf("%s - %s", book.Author, book.Title)
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// WriteCoverImage materializes a book cover into outputDir and returns the written path.
//
// The source is either a base64 data URI (produced by the ingestion pipeline)
// or a remote URL to download. The file extension follows the image MIME type.
func WriteCoverImage(cover string, outputDir string) (string, error) {
	if cover == "" {
		return "", fmt.Errorf("empty cover source provided")
	}

	var (
		data []byte
		mime string
		err  error
	)

	if strings.HasPrefix(cover, "data:") {
		mime, data, err = decodeDataURI(cover)
		if err != nil {
			return "", fmt.Errorf("failed to decode cover data URI: %w", err)
		}
	} else {
		data, err = DownloadImage(cover)
		if err != nil {
			return "", err
		}
		mime = "image/jpeg"
	}

	path := fmt.Sprintf("%s/cover.%s", outputDir, coverExtension(mime))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to save cover image: %w", err)
	}

	return path, nil
}

// decodeDataURI splits a "data:<mime>;base64,<payload>" URI into its parts.
func decodeDataURI(uri string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, fmt.Errorf("not a data URI")
	}

	mime, payload, ok := strings.Cut(rest, ";base64,")
	if !ok {
		return "", nil, fmt.Errorf("unsupported data URI encoding")
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("invalid base64 payload: %w", err)
	}

	return mime, data, nil
}

func coverExtension(mime string) string {
	switch mime {
	case "image/png":
		return "png"
	case "image/webp":
		return "webp"
	case "image/gif":
		return "gif"
	default:
		return "jpg"
	}
}

// ToMetadataJSON generates a JSON representation of shelf metadata (without books)
func ToMetadataJSON(shelf models.Shelf) ([]byte, error) {
	return shared.MarshalJSON(shelf, true)
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	BooksFile    string
	MetadataFile string
}

// WriteCSVExport exports a shelf to CSV format with accompanying metadata JSON file.
//
// Defaults to shelf ID as the base filename & creates {base}_books.csv and {base}_metadata.json
func WriteCSVExport(export *models.ShelfExport, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = export.Shelf.ID
	}

	csvData, err := ExportToCSV(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	booksFile := baseFilepath + "_books.csv"
	if err := os.WriteFile(booksFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadataJSON, err := ToMetadataJSON(export.Shelf)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := baseFilepath + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &CSVExportResult{
		BooksFile:    booksFile,
		MetadataFile: metadataFile,
	}, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory  string
	Files      []string
	CoverImage string
}

// WriteMarkdownExport exports a shelf to Markdown format in a dedicated directory.
//
// Directory name defaults to the shelf ID.
// The cover parameter is optional - a data URI is written directly, a URL is downloaded.
// Creates a directory structure: {dir}/README.md and optionally {dir}/cover.{ext}
func WriteMarkdownExport(export *models.ShelfExport, outputDir string, cover string) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = export.Shelf.ID
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{
		Directory: outputDir,
		Files:     []string{},
	}

	var coverImageFilename string
	if cover != "" {
		coverPath, err := WriteCoverImage(cover, outputDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to write cover image: %v\n", err)
		} else {
			coverImageFilename = coverPath[strings.LastIndex(coverPath, "/")+1:]
			result.CoverImage = coverPath
			result.Files = append(result.Files, coverPath)
		}
	}

	mdData, err := ExportToMarkdown(export, coverImageFilename)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := fmt.Sprintf("%s/README.md", outputDir)
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	result.Files = append(result.Files, mdFile)

	return result, nil
}

// WriteTextExport exports a shelf to plain text format.
//
// Defaults to {shelf.ID}_books.txt as the filename.
func WriteTextExport(export *models.ShelfExport, filepath string) (string, error) {
	if filepath == "" {
		filepath = fmt.Sprintf("%s_books.txt", export.Shelf.ID)
	}

	textData, err := ExportToText(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(filepath, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return filepath, nil
}

// WriteJSONExport exports a shelf to an indented JSON file.
//
// Defaults to {shelf.ID}.json as the filename.
func WriteJSONExport(export *models.ShelfExport, filepath string) (string, error) {
	if filepath == "" {
		filepath = fmt.Sprintf("%s.json", export.Shelf.ID)
	}

	jsonData, err := ExportToJSON(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate JSON: %w", err)
	}

	if err := os.WriteFile(filepath, jsonData, 0644); err != nil {
		return "", fmt.Errorf("failed to write JSON file: %w", err)
	}

	return filepath, nil
}

// ShelfExportStatus records the outcome of exporting a single shelf.
type ShelfExportStatus struct {
	ShelfID   string
	ShelfName string
	Success   bool
	Files     []string
	Err       error
}

// BulkExportResult aggregates the outcomes of a bulk shelf export.
type BulkExportResult struct {
	TotalShelves      int
	SuccessfulExports int
	FailedExports     int
	Results           []ShelfExportStatus
	OutputDirectory   string
	ManifestPath      string
}

// ManifestEntry records the outcome of a single shelf within a bulk export.
type ManifestEntry struct {
	ShelfID   string   `json:"shelf_id"`
	ShelfName string   `json:"shelf_name"`
	Status    string   `json:"status"`
	Files     []string `json:"files,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// ExportManifest is the JSON document written alongside a bulk export,
// summarizing the run and its per-shelf outcomes.
type ExportManifest struct {
	Format            string          `json:"format"`
	GeneratedAt       time.Time       `json:"generated_at"`
	TotalShelves      int             `json:"total_shelves"`
	SuccessfulExports int             `json:"successful_exports"`
	FailedExports     int             `json:"failed_exports"`
	OutputDirectory   string          `json:"output_directory,omitempty"`
	Shelves           []ManifestEntry `json:"shelves"`
}

// WriteBulkExportManifest writes a JSON summary of a bulk export to path.
//
// The manifest records the format, per-shelf status, and output files so a
// bulk export directory is self-describing.
func WriteBulkExportManifest(result *BulkExportResult, format string, path string) error {
	if result == nil {
		return fmt.Errorf("%w: bulk export result cannot be nil", shared.ErrInvalidInput)
	}

	entries := make([]ManifestEntry, 0, len(result.Results))
	for _, res := range result.Results {
		entry := ManifestEntry{
			ShelfID:   res.ShelfID,
			ShelfName: res.ShelfName,
			Status:    "success",
			Files:     res.Files,
		}
		if !res.Success {
			entry.Status = "failed"
			if res.Err != nil {
				entry.Error = res.Err.Error()
			}
		}
		entries = append(entries, entry)
	}

	manifest := ExportManifest{
		Format:            format,
		GeneratedAt:       time.Now().UTC(),
		TotalShelves:      result.TotalShelves,
		SuccessfulExports: result.SuccessfulExports,
		FailedExports:     result.FailedExports,
		OutputDirectory:   result.OutputDirectory,
		Shelves:           entries,
	}

	data, err := shared.MarshalJSON(manifest, true)
	if err != nil {
		return fmt.Errorf("failed to generate manifest JSON: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest file: %w", err)
	}

	return nil
}
