package knowledge

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beexo-community/beexy/internal/agent/model"
)

type docSink struct {
	docs []model.KnowledgeDoc
	fail string
}

func (s *docSink) InsertDocument(_ context.Context, doc model.KnowledgeDoc) error {
	if doc.Title == s.fail {
		return errors.New("insert failed")
	}
	s.docs = append(s.docs, doc)
	return nil
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestIngestFolder(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "faq.md"), "# Seed\nNunca compartas tu seed.")
	writeFile(t, filepath.Join(root, "sub", "guia.HTML"), `<html><head><style>p{}</style><script>var x=1</script></head>
<body><h1>Guía</h1><p>Cómo   enviar
cripto</p></body></html>`)
	writeFile(t, filepath.Join(root, "empty.txt"), "   \n")
	writeFile(t, filepath.Join(root, "logo.png"), "binary")
	writeFile(t, filepath.Join(root, "broken.txt"), "content")

	sink := &docSink{fail: "broken.txt"}
	res, err := IngestFolder(context.Background(), sink, root, "")
	require.NoError(t, err)

	assert.Equal(t, Result{Indexed: 2, Skipped: 1, Failed: 1}, res)
	require.Len(t, sink.docs, 2)

	byTitle := map[string]model.KnowledgeDoc{}
	for _, d := range sink.docs {
		byTitle[d.Title] = d
		assert.Equal(t, "local", d.Source)
	}
	assert.Equal(t, "# Seed\nNunca compartas tu seed.", byTitle["faq.md"].Content)
	assert.Equal(t, "Guía\nCómo enviar cripto", byTitle["guia.HTML"].Content)
}

func TestIngestFolderMissingRoot(t *testing.T) {
	_, err := IngestFolder(context.Background(), &docSink{}, filepath.Join(t.TempDir(), "nope"), "docs")
	assert.Error(t, err)
}

func TestExtractTextCapsContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.txt")
	writeFile(t, path, strings.Repeat("a", MaxContentBytes+10))

	text, err := ExtractText(path)
	require.NoError(t, err)
	assert.Len(t, text, MaxContentBytes)
}
