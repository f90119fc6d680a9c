package abstract

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildDocx(t *testing.T, paragraphs ...string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	ct, err := zw.Create("[Content_Types].xml")
	require.NoError(t, err)
	_, err = ct.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"></Types>`))
	require.NoError(t, err)

	doc, err := zw.Create("word/document.xml")
	require.NoError(t, err)

	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range paragraphs {
		sb.WriteString(`<w:p><w:r><w:t>`)
		sb.WriteString(p)
		sb.WriteString(`</w:t></w:r></w:p>`)
	}
	sb.WriteString(`</w:body></w:document>`)
	_, err = doc.Write([]byte(sb.String()))
	require.NoError(t, err)

	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestReadTextDocx(t *testing.T) {
	data := buildDocx(t, "ML for Genomics", "Abstract", body, "Introduction", "Intro text.")

	text, err := ReadText("proposal.docx", bytes.NewReader(data))
	require.NoError(t, err)

	got, err := Extract(text)
	require.NoError(t, err)
	assert.Equal(t, body, got)
}

func TestReadTextPlain(t *testing.T) {
	text, err := ReadText("proposal.md", strings.NewReader("# Abstract\n\n"+body))
	require.NoError(t, err)
	assert.Contains(t, text, body)
}

func TestReadTextEmpty(t *testing.T) {
	_, err := ReadText("proposal.txt", strings.NewReader(""))
	assert.ErrorIs(t, err, ErrNoText)
}

func TestReadTextUnsupported(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	_, err := ReadText("scan.png", bytes.NewReader(png))
	assert.ErrorIs(t, err, ErrUnsupported)
}
