package docutil

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"
)

// Page 是抽取出的一段纯文本。Number 从 1 开始，0 表示没有页码。
type Page struct {
	Number int
	Text   string
}

// Document 是单个文件抽取后的结果。
type Document struct {
	Path     string
	FileType string
	Pages    []Page
}

// LoadFunc 从文件中抽取纯文本。
type LoadFunc func(path string) ([]Page, error)

var loaders = map[string]LoadFunc{
	".txt":  LoadText,
	".md":   LoadText,
	".pdf":  LoadPDF,
	".docx": LoadDOCX,
	".html": LoadHTML,
	".htm":  LoadHTML,
}

// SupportedExtensions 返回可以抽取的扩展名。
func SupportedExtensions() []string {
	exts := make([]string, 0, len(loaders))
	for ext := range loaders {
		exts = append(exts, ext)
	}
	return exts
}

// IsSupported 判断文件扩展名是否可抽取。
func IsSupported(path string) bool {
	_, ok := loaders[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Load 按扩展名选择抽取器。
func Load(path string) (*Document, error) {
	ext := strings.ToLower(filepath.Ext(path))
	fn, ok := loaders[ext]
	if !ok {
		return nil, fmt.Errorf("unsupported file type %q", ext)
	}

	pages, err := fn(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return &Document{
		Path:     path,
		FileType: strings.TrimPrefix(ext, "."),
		Pages:    pages,
	}, nil
}

// LoadText 读取纯文本文件。
func LoadText(path string) ([]Page, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return []Page{{Text: string(content)}}, nil
}

// LoadPDF 按页抽取 PDF 文本，跳过空白页与无法解析的页。
func LoadPDF(path string) ([]Page, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var pages []Page
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			pages = append(pages, Page{Number: i, Text: text})
		}
	}
	return pages, nil
}

// LoadDOCX 抽取 Word 文档中的非空段落，以空行连接。
func LoadDOCX(path string) ([]Page, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()

		paragraphs, err := docxParagraphs(rc)
		if err != nil {
			return nil, err
		}
		return []Page{{Text: strings.Join(paragraphs, "\n\n")}}, nil
	}
	return nil, fmt.Errorf("word/document.xml not found")
}

// docxParagraphs 收集 w:p 下所有 w:t 的文本。
func docxParagraphs(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)
	var (
		paragraphs []string
		current    strings.Builder
		inText     bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				current.WriteByte('\t')
			case "br":
				current.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if p := strings.TrimSpace(current.String()); p != "" {
					paragraphs = append(paragraphs, p)
				}
				current.Reset()
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}
	return paragraphs, nil
}

// LoadHTML 抽取 HTML 正文段落，忽略脚本与样式。
func LoadHTML(path string) ([]Page, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	doc, err := goquery.NewDocumentFromReader(file)
	if err != nil {
		return nil, err
	}
	doc.Find("script,style,noscript").Remove()

	var paragraphs []string
	doc.Find("h1,h2,h3,h4,h5,h6,p,li,td,pre").Each(func(_ int, s *goquery.Selection) {
		if text := strings.Join(strings.Fields(s.Text()), " "); text != "" {
			paragraphs = append(paragraphs, text)
		}
	})
	if len(paragraphs) == 0 {
		if text := strings.TrimSpace(doc.Find("body").Text()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	}
	return []Page{{Text: strings.Join(paragraphs, "\n\n")}}, nil
}
