package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/detailerhq/detailer/internal/app"
	"github.com/detailerhq/detailer/internal/common"
	"github.com/detailerhq/detailer/internal/models"
	"github.com/ternarybob/arbor"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	// Command-line flags
	configFiles  configPaths
	convertURI   = flag.String("convert", "", "Convert a source document (PDF or ZIP of images) into a deck")
	documentID   = flag.String("doc", "", "Document ID (defaults to the source file name)")
	mimeKind     = flag.String("kind", "pdf", "Source kind: pdf, zip-images, or single-file")
	listDecks    = flag.Bool("list", false, "List all converted decks")
	exportDoc    = flag.String("export", "", "Export a converted deck to a PDF handout")
	exportUser   = flag.String("user", "", "Export the given user's overlay instead of the canonical deck")
	outPath      = flag.String("out", "deck.pdf", "Output path for -export")
	invalidate   = flag.String("invalidate", "", "Delete a document's cached conversion")
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")

	// Global state
	config *common.Config
	logger arbor.ILogger
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("Detailer version %s\n", common.GetVersion())
		os.Exit(0)
	}

	// Auto-discover config file if not specified
	if len(configFiles) == 0 {
		if _, err := os.Stat("detailer.toml"); err == nil {
			configFiles = append(configFiles, "detailer.toml")
		} else if _, err := os.Stat("deployments/local/detailer.toml"); err == nil {
			configFiles = append(configFiles, "deployments/local/detailer.toml")
		}
	}

	var err error
	config, err = common.LoadFromFiles(configFiles...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger = common.InitLogger(config)
	common.PrintBanner(common.LoadVersionFromFile())

	application, err := app.New(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer application.Close()

	ctx := context.Background()

	switch {
	case *convertURI != "":
		runConvert(ctx, application, *convertURI)
	case *listDecks:
		runList(ctx, application)
	case *exportDoc != "":
		runExport(ctx, application, *exportDoc)
	case *invalidate != "":
		runInvalidate(ctx, application, *invalidate)
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func runConvert(ctx context.Context, application *app.App, sourceURI string) {
	kind, err := models.ParseMimeKind(*mimeKind)
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid -kind")
	}

	docID := *documentID
	if docID == "" {
		docID = defaultDocumentID(sourceURI)
	}

	result, err := application.Orchestrator.Convert(ctx, models.DocumentRef{
		DocumentID: docID,
		SourceURI:  sourceURI,
		MimeKind:   kind,
	})
	if err != nil {
		logger.Fatal().Err(err).Str("source", sourceURI).Msg("Conversion failed")
	}

	status := "converted"
	if result.CacheHit {
		status = "cached"
	}
	if result.Fallback {
		status = "fallback"
	}
	fmt.Printf("%s: %d slides (%s)\n", result.Presentation.Title, result.Presentation.TotalPages, status)
}

// defaultDocumentID derives a document ID from the source file name. The ID
// keys the badger record and the artifact namespace, so path separators must
// not leak into it.
func defaultDocumentID(sourceURI string) string {
	base := filepath.Base(sourceURI)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func runList(ctx context.Context, application *app.App) {
	records, err := application.StorageManager.Presentations().ListAll(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to list decks")
	}

	if len(records) == 0 {
		fmt.Println("No converted decks")
		return
	}
	for _, record := range records {
		fmt.Printf("%-40s %4d pages  converted %s\n", record.ID, record.TotalPages, record.ConvertedAt.Format("2006-01-02 15:04"))
	}
}

func runExport(ctx context.Context, application *app.App, docID string) {
	record, err := application.StorageManager.Presentations().Get(ctx, docID)
	if err != nil {
		logger.Fatal().Err(err).Str("document_id", docID).Msg("Deck not found")
	}

	slides := record.Slides
	title := record.Title
	if *exportUser != "" {
		userOverlay, err := application.OverlayService.GetOrInit(ctx, *exportUser, docID, record)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to load overlay")
		}
		slides = userOverlay.Slides
	}

	if err := application.ExportService.ExportToFile(title, slides, *outPath); err != nil {
		logger.Fatal().Err(err).Msg("Export failed")
	}
	fmt.Printf("Exported %d slides to %s\n", len(slides), *outPath)
}

func runInvalidate(ctx context.Context, application *app.App, docID string) {
	if err := application.Orchestrator.Invalidate(ctx, docID); err != nil {
		logger.Fatal().Err(err).Str("document_id", docID).Msg("Failed to invalidate conversion")
	}
	fmt.Printf("Invalidated conversion for %s\n", docID)
}
