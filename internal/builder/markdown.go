package builder

import (
	"bytes"
	"context"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"git.home.luguber.info/inful/docversions/internal/config"
	"git.home.luguber.info/inful/docversions/internal/foundation/errors"
	"git.home.luguber.info/inful/docversions/internal/fsutil"
)

const markdownIndex = "index.md"

// MarkdownBuilder renders a tree of Markdown files to static HTML without any
// external tooling. The first directory containing index.md is the root.
type MarkdownBuilder struct {
	md goldmark.Markdown
}

// NewMarkdownBuilder creates a builder using GitHub flavoured Markdown.
func NewMarkdownBuilder() *MarkdownBuilder {
	return &MarkdownBuilder{md: goldmark.New(goldmark.WithExtensions(extension.GFM))}
}

func (b *MarkdownBuilder) Name() string { return string(config.BuilderMarkdown) }

func (b *MarkdownBuilder) Build(ctx context.Context, source, output string) (Result, error) {
	root, ok, err := FindConfig(source, markdownIndex)
	if err != nil {
		return Result{}, errors.WrapError(err, errors.CategoryFileSystem, "failed to scan source tree").
			WithContext("path", source).
			Build()
	}
	if !ok {
		return noDocs(source, markdownIndex), nil
	}
	res := Result{ConfigPath: filepath.Join(root, markdownIndex), SourcePath: root}
	if err := prepareOutput(output); err != nil {
		return res, err
	}

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return os.MkdirAll(filepath.Join(output, rel), 0o750)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".md") {
			return b.renderFile(path, filepath.Join(output, strings.TrimSuffix(rel, filepath.Ext(rel))+".html"))
		}
		return fsutil.CopyFile(path, filepath.Join(output, rel))
	})
	if walkErr != nil {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		res.Failure = generatorFailure("markdown rendering failed", walkErr, root)
	}
	return res, nil
}

func (b *MarkdownBuilder) renderFile(src, dst string) error {
	data, err := os.ReadFile(src) // #nosec G304 - path inside checked-out tree
	if err != nil {
		return err
	}
	page, err := b.Render(data)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, page, 0o600)
}

// Render converts one Markdown document to a complete HTML page. Relative
// links to .md files are rewritten to the rendered .html name and the first
// heading becomes the page title.
func (b *MarkdownBuilder) Render(source []byte) ([]byte, error) {
	var body bytes.Buffer
	if err := b.md.Convert(source, &body); err != nil {
		return nil, err
	}
	doc, err := html.Parse(strings.NewReader("<!DOCTYPE html><html><head><meta charset=\"utf-8\"></head><body>" + body.String() + "</body></html>"))
	if err != nil {
		return nil, err
	}

	var title string
	var head *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Head:
				head = n
			case atom.A:
				rewriteMarkdownLink(n)
			case atom.H1, atom.H2:
				if title == "" {
					title = strings.TrimSpace(textContent(n))
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if head != nil && title != "" {
		t := &html.Node{Type: html.ElementNode, Data: "title", DataAtom: atom.Title}
		t.AppendChild(&html.Node{Type: html.TextNode, Data: title})
		head.AppendChild(t)
	}

	var out bytes.Buffer
	if err := html.Render(&out, doc); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

func rewriteMarkdownLink(n *html.Node) {
	for i, attr := range n.Attr {
		if attr.Key != "href" {
			continue
		}
		u, err := url.Parse(attr.Val)
		if err != nil || u.Scheme != "" || u.Host != "" || u.Path == "" {
			return
		}
		if strings.EqualFold(filepath.Ext(u.Path), ".md") {
			u.Path = strings.TrimSuffix(u.Path, filepath.Ext(u.Path)) + ".html"
			n.Attr[i].Val = u.String()
		}
		return
	}
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(textContent(c))
	}
	return sb.String()
}
