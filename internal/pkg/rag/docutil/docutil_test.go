package docutil_test

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/rag-assistant/internal/pkg/rag/docutil"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")

	require.NoError(t, docutil.EnsureDir(dir))
	assert.True(t, docutil.DirExists(dir))
	assert.NoError(t, docutil.EnsureDir(dir))
}

func TestFindFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.txt"), "b")
	writeFile(t, filepath.Join(dir, "sub", "a.PDF"), "a")
	writeFile(t, filepath.Join(dir, "notes.csv"), "c")
	writeFile(t, filepath.Join(dir, "~$temp.docx"), "lock")

	files, err := docutil.FindFiles(dir, []string{".txt", ".pdf", ".docx"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "b.txt"),
		filepath.Join(dir, "sub", "a.PDF"),
	}, files)

	_, err = docutil.FindFiles(filepath.Join(dir, "missing"), []string{".txt"})
	assert.Error(t, err)
}

func TestLoadText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Rules.txt")
	writeFile(t, path, "Для поступления нужен паспорт.")

	doc, err := docutil.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "txt", doc.FileType)
	require.Len(t, doc.Pages, 1)
	assert.Equal(t, 0, doc.Pages[0].Number)
	assert.Equal(t, "Для поступления нужен паспорт.", doc.Pages[0].Text)
}

func TestLoadHTML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.html")
	writeFile(t, path, `<html><head><style>p{}</style><script>var x=1;</script></head>
<body><h1>Приём 2025</h1><p>Документы   принимаются
до 20 июля.</p><p>  </p></body></html>`)

	doc, err := docutil.Load(path)
	require.NoError(t, err)
	require.Len(t, doc.Pages, 1)
	assert.Equal(t, "Приём 2025\n\nДокументы принимаются до 20 июля.", doc.Pages[0].Text)
}

func TestLoadDOCX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.docx")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>
<w:p><w:r><w:t>Первый </w:t></w:r><w:r><w:t>абзац</w:t></w:r></w:p>
<w:p></w:p>
<w:p><w:r><w:t>Второй абзац</w:t></w:r></w:p>
</w:body></w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	doc, err := docutil.Load(path)
	require.NoError(t, err)
	require.Len(t, doc.Pages, 1)
	assert.Equal(t, "Первый абзац\n\nВторой абзац", doc.Pages[0].Text)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		path string
		body string
	}{
		{name: "不支持的扩展名", path: filepath.Join(dir, "a.csv"), body: "x"},
		{name: "损坏的PDF", path: filepath.Join(dir, "broken.pdf"), body: "not a pdf"},
		{name: "损坏的DOCX", path: filepath.Join(dir, "broken.docx"), body: "not a zip"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writeFile(t, tt.path, tt.body)
			_, err := docutil.Load(tt.path)
			assert.Error(t, err)
		})
	}

	assert.True(t, docutil.IsSupported("x.PDF"))
	assert.False(t, docutil.IsSupported("x.csv"))
	assert.Equal(t, "Правила_2025", docutil.Stem("/data/Правила_2025.pdf"))
}
