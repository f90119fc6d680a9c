package abstract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const docxMIME = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// maxSourceSize bounds how much of a proposal file is read.
const maxSourceSize = 20 << 20

// ReadText returns the plain text of a proposal file. Plain text, markdown
// and .docx are supported.
func ReadText(name string, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxSourceSize))
	if err != nil {
		return "", fmt.Errorf("read proposal: %w", err)
	}
	if len(data) == 0 {
		return "", ErrNoText
	}

	ext := strings.ToLower(filepath.Ext(name))
	mt := mimetype.Detect(data)

	switch {
	case mt.Is(docxMIME) || (mt.Is("application/zip") && ext == ".docx"):
		return docxText(data)
	case strings.HasPrefix(mt.String(), "text/"), ext == ".txt", ext == ".md", ext == ".markdown":
		return string(data), nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupported, mt.String())
}

// docxText concatenates the runs of word/document.xml, one paragraph per block.
func docxText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}

	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return "", fmt.Errorf("open docx: %w", ErrNoText)
	}

	rc, err := doc.Open()
	if err != nil {
		return "", fmt.Errorf("open docx body: %w", err)
	}
	defer rc.Close()

	var (
		sb     strings.Builder
		inText bool
	)
	dec := xml.NewDecoder(rc)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse docx body: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				sb.WriteByte('\t')
			case "br":
				sb.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteString("\n\n")
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}

	text := sb.String()
	if strings.TrimSpace(text) == "" {
		return "", ErrNoText
	}
	return text, nil
}
