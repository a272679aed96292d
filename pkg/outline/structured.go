package outline

import (
	"bytes"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/nodemap/pkg/errors"
)

// ParseYAML reads an outline whose top-level mapping is the root item.
func ParseYAML(data []byte) (*Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errNoRoot
	}
	var root *Item
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidOutline, err, "invalid YAML outline")
	}
	return structured(root)
}

// ParseTOML reads an outline whose top-level table is the root item.
// Children are arrays of tables:
//
//	label = "Home"
//
//	[[children]]
//	label = "About"
//
//	[[children.children]]
//	label = "Team"
func ParseTOML(data []byte) (*Document, error) {
	var root Item
	if _, err := toml.Decode(string(data), &root); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidOutline, err, "invalid TOML outline")
	}
	return structured(&root)
}

// ParseJSON reads an outline whose top-level object is the root item.
func ParseJSON(data []byte) (*Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errNoRoot
	}
	var root *Item
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidOutline, err, "invalid JSON outline")
	}
	return structured(root)
}

func structured(root *Item) (*Document, error) {
	if root.empty() {
		return nil, errNoRoot
	}
	prune(root)
	return &Document{Root: root}, nil
}
