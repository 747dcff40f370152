package catalog

import (
	"encoding/json"
	"fmt"
)

// CategoryRecord is one raw category payload entry. Children nest under
// CategoryLists to arbitrary depth.
type CategoryRecord struct {
	CategoryID       string           `json:"CategoryId"`
	ParentCategoryID string           `json:"ParentCategoryId"`
	CategoryName     string           `json:"CategoryName"`
	Comment          string           `json:"Comment"`
	IsSystem         bool             `json:"IsSystem"`
	CategoryLists    []CategoryRecord `json:"CategoryLists"`
}

// DecodeCategoryList decodes a category-list Result. An empty array is a
// valid outcome.
func DecodeCategoryList(raw json.RawMessage) ([]CategoryRecord, error) {
	var records []CategoryRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decode category list: %w", err)
	}
	return records, nil
}

// Category is one tree node's payload.
type Category struct {
	ID       string
	Name     string
	ParentID string
	Comment  string
	IsSystem bool
}

// Node is a tree node. Parent and children are id references into the arena,
// so the tree carries no back-pointing node references.
type Node struct {
	Category
	Parent   string // "" for a root
	Children []string
}

// Tree is an arena of category nodes addressed by id. A tree is built fresh
// from every category fetch and superseded, never mutated, on re-fetch.
type Tree struct {
	nodes map[string]*Node
	roots []string
}

// BuildTree converts the raw nested category payload into an addressable
// tree. It is a pure structural transform: no synthetic root is added here,
// and recursion depth is bounded by the payload's own nesting.
func BuildTree(records []CategoryRecord) *Tree {
	t := &Tree{nodes: make(map[string]*Node)}
	for _, rec := range records {
		t.roots = append(t.roots, rec.CategoryID)
		t.insert(rec, "")
	}
	return t
}

func (t *Tree) insert(rec CategoryRecord, parent string) {
	node := &Node{
		Category: Category{
			ID:       rec.CategoryID,
			Name:     rec.CategoryName,
			ParentID: rec.ParentCategoryID,
			Comment:  rec.Comment,
			IsSystem: rec.IsSystem,
		},
		Parent: parent,
	}
	t.nodes[rec.CategoryID] = node
	for _, child := range rec.CategoryLists {
		node.Children = append(node.Children, child.CategoryID)
		t.insert(child, rec.CategoryID)
	}
}

// PrependRoot inserts a parentless node as the first root. The explorer uses
// it for the synthetic "All" entry.
func (t *Tree) PrependRoot(c Category) {
	t.nodes[c.ID] = &Node{Category: c}
	t.roots = append([]string{c.ID}, t.roots...)
}

// Roots returns the root ids in source order.
func (t *Tree) Roots() []string {
	return t.roots
}

// Node returns the node with the given id, or nil.
func (t *Tree) Node(id string) *Node {
	return t.nodes[id]
}

// Len returns the number of nodes in the tree.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Walk visits every node depth-first in source order, roots first. depth is 0
// for roots.
func (t *Tree) Walk(visit func(n *Node, depth int)) {
	for _, id := range t.roots {
		t.walk(id, 0, visit)
	}
}

func (t *Tree) walk(id string, depth int, visit func(n *Node, depth int)) {
	node := t.nodes[id]
	if node == nil {
		return
	}
	visit(node, depth)
	for _, child := range node.Children {
		t.walk(child, depth+1, visit)
	}
}

// FilterScope keeps the top-level records whose IsSystem flag matches the
// requested visibility scope: system categories are the Public partition.
func FilterScope(records []CategoryRecord, scope Scope) []CategoryRecord {
	wantSystem := scope == ScopePublic
	filtered := make([]CategoryRecord, 0, len(records))
	for _, rec := range records {
		if rec.IsSystem == wantSystem {
			filtered = append(filtered, rec)
		}
	}
	return filtered
}
