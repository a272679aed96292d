package outline

import (
	"github.com/matzehuels/nodemap/pkg/errors"
	"github.com/matzehuels/nodemap/pkg/nodemap"
)

// Ingest attaches every item of doc to the empty map m, depth first. Once
// the whole tree is attached the map is resized to its current viewport,
// which relays it out from the root, and connectors are made visible.
//
// It must run on the map's scheduler.
func Ingest(m *nodemap.Map, doc *Document) error {
	if err := Validate(doc); err != nil {
		return err
	}
	if m.Root() != nil {
		return errors.New(errors.ErrCodeInvalidInput, "map already holds an outline")
	}

	if err := attach(m, nil, doc.Root); err != nil {
		return err
	}

	w, h := m.Viewport()
	m.Resize(w, h)
	m.ShowConnectors()
	return nil
}

func attach(m *nodemap.Map, parent *nodemap.Node, it *Item) error {
	n, err := m.Attach(parent, it.Label, it.Href)
	if err != nil {
		return err
	}
	for _, c := range it.Children {
		if err := attach(m, n, c); err != nil {
			return err
		}
	}
	return nil
}

// ExtendResult reports what Extend did.
type ExtendResult struct {
	// Added is the number of nodes attached.
	Added int
	// Skipped lists the labels of items that differ from the attached tree
	// in a way that would need node removal or re-parenting.
	Skipped []string
}

// Changed reports whether anything was attached.
func (r ExtendResult) Changed() bool { return r.Added > 0 }

// Extend attaches the items of doc that are missing from m. Children are
// matched by position: a child list may only grow at its end. Items that
// were renamed, removed or reordered are left alone and reported in
// Skipped, together with the subtrees below them.
//
// It must run on the map's scheduler.
func Extend(m *nodemap.Map, doc *Document) (ExtendResult, error) {
	var res ExtendResult
	if err := Validate(doc); err != nil {
		return res, err
	}
	root := m.Root()
	if root == nil {
		if err := Ingest(m, doc); err != nil {
			return res, err
		}
		res.Added = m.Len()
		return res, nil
	}
	if !same(root, doc.Root) {
		res.Skipped = append(res.Skipped, doc.Root.Label)
		return res, nil
	}
	err := extend(m, root, doc.Root, &res)
	return res, err
}

func extend(m *nodemap.Map, n *nodemap.Node, it *Item, res *ExtendResult) error {
	have := n.Children()
	if len(it.Children) < len(have) {
		res.Skipped = append(res.Skipped, it.Label)
	}
	for i, c := range it.Children {
		if i < len(have) {
			if !same(have[i], c) {
				res.Skipped = append(res.Skipped, c.Label)
				continue
			}
			if err := extend(m, have[i], c, res); err != nil {
				return err
			}
			continue
		}
		before := m.Len()
		if err := attach(m, n, c); err != nil {
			return err
		}
		res.Added += m.Len() - before
	}
	return nil
}

func same(n *nodemap.Node, it *Item) bool {
	return n.Label() == it.Label && n.Href() == it.Href
}
