package extract

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"io"
	"strings"
)

// DocxExtractor pulls paragraph text out of the word/document.xml part of a
// DOCX archive. Formatting, tables and headers are ignored; only paragraph
// runs survive, separated by blank lines.
type DocxExtractor struct{}

func (DocxExtractor) Extract(_ context.Context, path string) (*Extraction, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return nil, &Error{Kind: KindCorrupted, Path: path, Cause: err}
	}
	defer archive.Close()

	var doc *zip.File
	for _, f := range archive.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return nil, &Error{Kind: KindCorrupted, Path: path, Cause: errMissingDocumentPart}
	}

	r, err := doc.Open()
	if err != nil {
		return nil, &Error{Kind: KindCorrupted, Path: path, Cause: err}
	}
	defer r.Close()

	text, err := docxParagraphs(r)
	if err != nil {
		return nil, &Error{Kind: KindCorrupted, Path: path, Cause: err}
	}
	return finish(path, text, 0)
}

var errMissingDocumentPart = &xml.SyntaxError{Msg: "word/document.xml not found"}

// docxParagraphs streams the WordprocessingML body: <w:t> holds text runs,
// </w:p> closes a paragraph.
func docxParagraphs(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var (
		sb     strings.Builder
		inText bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
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
	return sb.String(), nil
}
