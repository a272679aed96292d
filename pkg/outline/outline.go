package outline

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"

	"github.com/matzehuels/nodemap/pkg/cache"
	"github.com/matzehuels/nodemap/pkg/errors"
)

// MaxItems bounds the size of a parsed outline.
const MaxItems = 10000

// Item is one entry of an outline.
type Item struct {
	Label    string  `json:"label" yaml:"label" toml:"label"`
	Href     string  `json:"href,omitempty" yaml:"href,omitempty" toml:"href,omitempty"`
	Children []*Item `json:"children,omitempty" yaml:"children,omitempty" toml:"children,omitempty"`
}

// Document is a parsed outline.
type Document struct {
	Root *Item `json:"root"`
}

// Len returns the number of items in the document.
func (d *Document) Len() int {
	n := 0
	d.Walk(func(*Item, *Item, int) bool { n++; return true })
	return n
}

// Walk visits every item depth first, parents before children, in list
// order. fn receives the item, its parent (nil for the root) and its depth.
// Returning false skips the item's children.
func (d *Document) Walk(fn func(item, parent *Item, depth int) bool) {
	if d == nil || d.Root == nil {
		return
	}
	walk(d.Root, nil, 0, fn)
}

func walk(it, parent *Item, depth int, fn func(*Item, *Item, int) bool) {
	if !fn(it, parent, depth) {
		return
	}
	for _, c := range it.Children {
		walk(c, it, depth+1, fn)
	}
}

// Hash returns a stable content hash of the document, used as a cache key.
func Hash(doc *Document) string {
	data, _ := json.Marshal(doc)
	return cache.Hash(data)
}

// Format identifies an outline syntax.
type Format string

const (
	FormatHTML     Format = "html"
	FormatMarkdown Format = "markdown"
	FormatYAML     Format = "yaml"
	FormatTOML     Format = "toml"
	FormatJSON     Format = "json"
)

// Formats lists the supported formats.
var Formats = []Format{FormatHTML, FormatMarkdown, FormatYAML, FormatTOML, FormatJSON}

var extensions = map[string]Format{
	".html":     FormatHTML,
	".htm":      FormatHTML,
	".md":       FormatMarkdown,
	".markdown": FormatMarkdown,
	".yaml":     FormatYAML,
	".yml":      FormatYAML,
	".toml":     FormatTOML,
	".json":     FormatJSON,
}

// ParseFormat parses a format name. Aliases such as "md" and "yml" are
// accepted.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "html", "htm":
		return FormatHTML, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "toml":
		return FormatTOML, nil
	case "json":
		return FormatJSON, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unsupported outline format %q", s)
}

// DetectFormat returns the format implied by the extension of path.
func DetectFormat(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if f, ok := extensions[ext]; ok {
		return f, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "cannot detect outline format of %s", filepath.Base(path))
}

// Parse reads an outline in the given format.
func Parse(r io.Reader, format Format) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read outline: %w", err)
	}
	return ParseBytes(data, format)
}

// ParseBytes parses an in-memory outline.
func ParseBytes(data []byte, format Format) (*Document, error) {
	var (
		doc *Document
		err error
	)
	switch format {
	case FormatHTML:
		doc, err = ParseHTML(bytes.NewReader(data))
	case FormatMarkdown:
		doc, err = ParseMarkdown(data)
	case FormatYAML:
		doc, err = ParseYAML(data)
	case FormatTOML:
		doc, err = ParseTOML(data)
	case FormatJSON:
		doc, err = ParseJSON(data)
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported outline format %q", format)
	}
	if err != nil {
		return nil, err
	}
	if err := Validate(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// ParseFile reads the outline at path, detecting its format from the
// extension.
func ParseFile(path string) (*Document, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	return ParseFileAs(path, format)
}

// ParseFileAs reads the outline at path in the given format.
func ParseFileAs(path string, format Format) (*Document, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "outline file not found: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return ParseBytes(data, format)
}

// Validate checks that doc has a root and that every label and href is
// usable.
func Validate(doc *Document) error {
	if doc == nil || doc.Root == nil {
		return errNoRoot
	}
	var err error
	count := 0
	doc.Walk(func(it, _ *Item, _ int) bool {
		if err != nil {
			return false
		}
		count++
		if count > MaxItems {
			err = errors.New(errors.ErrCodeInvalidOutline, "outline has more than %d items", MaxItems)
			return false
		}
		if e := errors.ValidateLabel(it.Label); e != nil {
			err = e
			return false
		}
		if e := errors.ValidateHref(it.Href); e != nil {
			err = e
			return false
		}
		return true
	})
	return err
}

var errNoRoot = errors.New(errors.ErrCodeNoRoot, "no root item found, one is needed")

// empty reports whether a decoded item carries nothing at all.
func (it *Item) empty() bool {
	return it == nil || (it.Label == "" && it.Href == "" && len(it.Children) == 0)
}

// prune drops nil entries from decoded child lists.
func prune(it *Item) {
	kept := it.Children[:0]
	for _, c := range it.Children {
		if c != nil {
			prune(c)
			kept = append(kept, c)
		}
	}
	it.Children = kept
}
