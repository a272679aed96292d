// Package outline reads tree definitions and attaches them to a node map.
//
// An outline is a single-rooted tree of labelled, optionally linked items.
// It can be written as a nested HTML list, a nested Markdown list, or as a
// YAML, TOML or JSON document whose top-level object is the root item:
//
//	label: Home
//	href: /
//	children:
//	  - label: About
//	    href: /about
//	  - label: Blog
//	    children:
//	      - label: Archive
//
// # Parsing
//
// [Parse] reads from an io.Reader in an explicit [Format]; [ParseFile]
// detects the format from the file extension with [DetectFormat]. Every
// parser returns a NO_ROOT error (see pkg/errors) when the input has no
// root entry, and INVALID_OUTLINE when a label or href is unusable.
//
// For HTML the root is the first item of the first list in the document:
// the label and link come from the item's direct <a> child and its children
// from the lists nested directly inside it.
//
// # Ingestion
//
// [Ingest] attaches a document to an empty map depth first, then resizes
// the map to its current viewport and makes connectors visible. [Extend]
// attaches only the items that were appended to an already ingested
// document; it is what file watching uses.
package outline
