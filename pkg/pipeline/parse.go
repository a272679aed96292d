package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/nodemap/pkg/errors"
	"github.com/matzehuels/nodemap/pkg/observability"
	"github.com/matzehuels/nodemap/pkg/outline"
)

// Parse reads the outline named by opts.
func Parse(ctx context.Context, opts Options) (*outline.Document, error) {
	format, source := string(opts.Format), opts.Source
	if len(opts.Outline) > 0 {
		source = "inline"
	}
	hooks := observability.Pipeline()
	hooks.OnParseStart(ctx, format, source)
	start := time.Now()

	doc, err := parse(opts)

	n := 0
	if err == nil {
		n = doc.Len()
	}
	hooks.OnParseComplete(ctx, format, source, n, time.Since(start), err)
	return doc, err
}

func parse(opts Options) (*outline.Document, error) {
	if len(opts.Outline) > 0 {
		return outline.ParseBytes(opts.Outline, opts.Format)
	}
	if opts.Format == "" {
		return outline.ParseFile(opts.Source)
	}
	if err := errors.ValidatePath(opts.Source); err != nil {
		return nil, err
	}
	return outline.ParseFileAs(opts.Source, opts.Format)
}
