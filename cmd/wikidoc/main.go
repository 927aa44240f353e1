package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	wiki "github.com/goliatone/go-wiki"
)

var (
	moduleBuilder           = wiki.New
	stdout        io.Writer = os.Stdout
	stdin         io.Reader = os.Stdin
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatalf("wikidoc: %v", err)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("wikidoc", flag.ContinueOnError)
	from := fs.String("from", wiki.FormatJSON, "Input format: json, markdown or html")
	to := fs.String("to", wiki.FormatMarkdown, "Output format: json, markdown, html, pdf_html or pdf")
	in := fs.String("in", "", "Input file (defaults to stdin)")
	out := fs.String("out", "", "Output file (defaults to stdout)")
	title := fs.String("title", "", "Title rendered above HTML output")
	baseURL := fs.String("base-url", "", "Absolute URL used to resolve root-relative links")
	mermaid := fs.Bool("mermaid", false, "Render mermaid code blocks as diagrams")
	sharePrefix := fs.String("share-prefix", "", "Prefix prepended to internal document links")
	stripMarks := fs.String("strip-marks", "", "Comma separated mark types to remove")
	strict := fs.Bool("strict", false, "Fail on invalid input instead of exporting an empty document")
	pdfEndpoint := fs.String("pdf-endpoint", "", "PDF service endpoint, required for -to pdf")
	logLevel := fs.String("log-level", "warn", "Log level")

	if err := fs.Parse(args); err != nil {
		return err
	}

	source, err := readInput(*in)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	cfg := wiki.DefaultConfig()
	cfg.Logging.Level = *logLevel
	cfg.PDF.Endpoint = strings.TrimSpace(*pdfEndpoint)

	module, err := moduleBuilder(cfg)
	if err != nil {
		return fmt.Errorf("bootstrap module: %w", err)
	}
	defer module.Close()

	var body []byte
	set, err := module.RegisterCommands(nil, func(_ context.Context, result wiki.ExportResult) error {
		body = result.Body
		return nil
	})
	if err != nil {
		return fmt.Errorf("register commands: %w", err)
	}

	cmd := wiki.ExportDocumentCommand{
		DocumentID:     *in,
		Source:         string(source),
		SourceFormat:   *from,
		Format:         *to,
		Title:          *title,
		BaseURL:        *baseURL,
		IncludeMermaid: *mermaid,
		SharePrefix:    *sharePrefix,
		StripMarks:     splitList(*stripMarks),
		Strict:         *strict,
	}
	if err := set.Export.Execute(context.Background(), cmd); err != nil {
		return fmt.Errorf("export: %w", err)
	}

	return writeOutput(*out, body)
}

func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

func writeOutput(path string, body []byte) error {
	if path == "" || path == "-" {
		_, err := stdout.Write(body)
		return err
	}
	return os.WriteFile(path, body, 0o644)
}

func splitList(raw string) []string {
	var items []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
