// Package knowledge indexes local documents into the knowledge base.
package knowledge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"

	"github.com/beexo-community/beexy/internal/agent/model"
	logx "github.com/beexo-community/beexy/pkg/logger"
)

// Extensions lists the file types that are indexed.
var Extensions = []string{".md", ".txt", ".html", ".htm"}

// MaxContentBytes caps the stored text of a single document.
const MaxContentBytes = 200_000

// DocumentWriter stores knowledge-base documents.
type DocumentWriter interface {
	InsertDocument(ctx context.Context, doc model.KnowledgeDoc) error
}

// Result summarizes one ingestion run.
type Result struct {
	Indexed int
	Skipped int
	Failed  int
}

// IngestFolder walks root and stores every supported file as one document
// titled after its file name. Files that cannot be read or stored are logged
// and counted; only a failure to walk root itself is returned.
func IngestFolder(ctx context.Context, w DocumentWriter, root, source string) (Result, error) {
	if source == "" {
		source = "local"
	}
	var res Result
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			logx.Warn().Err(err).Str("path", path).Msg("Skipping unreadable path")
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || !supported(path) {
			return nil
		}

		text, err := ExtractText(path)
		if err != nil {
			res.Failed++
			logx.Warn().Err(err).Str("path", path).Msg("Failed to read document")
			return nil
		}
		if strings.TrimSpace(text) == "" {
			res.Skipped++
			return nil
		}

		doc := model.KnowledgeDoc{Title: d.Name(), Content: text, Source: source}
		if err := w.InsertDocument(ctx, doc); err != nil {
			res.Failed++
			logx.Warn().Err(err).Str("path", path).Msg("Failed to index document")
			return nil
		}
		res.Indexed++
		logx.Debug().Str("path", path).Int("bytes", len(text)).Msg("Indexed document")
		return nil
	})
	if err != nil {
		return res, fmt.Errorf("ingest %s: %w", root, err)
	}
	return res, nil
}

func supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// ExtractText returns the document text, stripped of markup for HTML files
// and capped at MaxContentBytes.
func ExtractText(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var text string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		text, err = HTMLText(f)
	default:
		var b []byte
		b, err = io.ReadAll(io.LimitReader(f, MaxContentBytes))
		text = strings.ToValidUTF8(string(b), "")
	}
	if err != nil {
		return "", err
	}
	if len(text) > MaxContentBytes {
		text = strings.ToValidUTF8(text[:MaxContentBytes], "")
	}
	return text, nil
}

// HTMLText returns the visible text of an HTML document, one line per text
// node. Script and style content is dropped.
func HTMLText(r io.Reader) (string, error) {
	z := html.NewTokenizer(r)
	var (
		lines []string
		skip  int
	)
	for {
		switch z.Next() {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return strings.Join(lines, "\n"), nil
			}
			return "", z.Err()
		case html.StartTagToken:
			if name, _ := z.TagName(); isHidden(string(name)) {
				skip++
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); isHidden(string(name)) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip > 0 {
				continue
			}
			if t := strings.Join(strings.Fields(string(z.Text())), " "); t != "" {
				lines = append(lines, t)
			}
		}
	}
}

func isHidden(tag string) bool {
	return tag == "script" || tag == "style" || tag == "noscript"
}
