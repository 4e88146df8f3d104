package catalog

import (
	"strings"

	"github.com/reqrep/transform/messagecontext"
)

// pathSegments splits a dotted nested-field path, e.g. "user.address.zip".
func pathSegments(path string) []string {
	return strings.Split(path, ".")
}

// navigate walks a JSON tree down to the parent of the final segment,
// creating intermediate maps as needed, and returns that parent plus the
// final key.
func navigate(tree any, segments []string, create bool) (map[string]any, string, bool) {
	if len(segments) == 0 {
		return nil, "", false
	}
	m, ok := tree.(map[string]any)
	if !ok {
		return nil, "", false
	}
	for _, seg := range segments[:len(segments)-1] {
		next, ok := m[seg]
		if !ok {
			if !create {
				return nil, "", false
			}
			next = make(map[string]any)
			m[seg] = next
		}
		nm, ok := next.(map[string]any)
		if !ok {
			return nil, "", false
		}
		m = nm
	}
	return m, segments[len(segments)-1], true
}

// SetJsonField sets a (possibly nested, dot-separated) field on the
// request or response JSON body, mutating the shared tree in place per
// the payload package's shared-by-reference invariant.
type SetJsonField struct {
	Path, Value string
}

func (SetJsonField) Name() string { return "set-json-field" }

func (SetJsonField) Configure(p Params) (BufferedTransform, error) {
	path, err := p.require("set-json-field", "path")
	if err != nil {
		return nil, err
	}
	value, err := p.require("set-json-field", "value")
	if err != nil {
		return nil, err
	}
	return SetJsonField{Path: path, Value: value}, nil
}

func (SetJsonField) ShouldApply(c messagecontext.Buffered) bool {
	return c.Payload().IsJson()
}

func (t SetJsonField) Apply(c messagecontext.Buffered) error {
	tree, err := c.Payload().GetJson()
	if err != nil {
		return err
	}
	if tree == nil {
		tree = make(map[string]any)
	}
	parent, key, ok := navigate(tree, pathSegments(t.Path), true)
	if !ok {
		return nil
	}
	parent[key] = t.Value
	c.Payload().SetJson(tree)
	return nil
}

// RemoveJsonField deletes a (possibly nested) field from the JSON body.
type RemoveJsonField struct {
	Path string
}

func (RemoveJsonField) Name() string { return "remove-json-field" }

func (RemoveJsonField) Configure(p Params) (BufferedTransform, error) {
	path, err := p.require("remove-json-field", "path")
	if err != nil {
		return nil, err
	}
	return RemoveJsonField{Path: path}, nil
}

func (RemoveJsonField) ShouldApply(c messagecontext.Buffered) bool {
	return c.Payload().IsJson()
}

func (t RemoveJsonField) Apply(c messagecontext.Buffered) error {
	tree, err := c.Payload().GetJson()
	if err != nil {
		return err
	}
	parent, key, ok := navigate(tree, pathSegments(t.Path), false)
	if !ok {
		return nil
	}
	delete(parent, key)
	c.Payload().SetJson(tree)
	return nil
}

// RenameJsonField moves a top-level-or-nested field to a new path,
// leaving the value absent from its original location.
type RenameJsonField struct {
	From, To string
}

func (RenameJsonField) Name() string { return "rename-json-field" }

func (RenameJsonField) Configure(p Params) (BufferedTransform, error) {
	from, err := p.require("rename-json-field", "from")
	if err != nil {
		return nil, err
	}
	to, err := p.require("rename-json-field", "to")
	if err != nil {
		return nil, err
	}
	return RenameJsonField{From: from, To: to}, nil
}

func (RenameJsonField) ShouldApply(c messagecontext.Buffered) bool {
	return c.Payload().IsJson()
}

func (t RenameJsonField) Apply(c messagecontext.Buffered) error {
	tree, err := c.Payload().GetJson()
	if err != nil {
		return err
	}
	fromParent, fromKey, ok := navigate(tree, pathSegments(t.From), false)
	if !ok {
		return nil
	}
	value, exists := fromParent[fromKey]
	if !exists {
		return nil
	}
	delete(fromParent, fromKey)

	toParent, toKey, ok := navigate(tree, pathSegments(t.To), true)
	if !ok {
		return nil
	}
	toParent[toKey] = value
	c.Payload().SetJson(tree)
	return nil
}
