// Package outree arranges organizational units into a tree by their distinguished names.
package outree

import (
	"github.com/go-ldap/ldap/v3"
)

// Filter selects organizational units.
const Filter = "(objectClass=organizationalUnit)"

// Attributes are requested for every OU search.
var Attributes = []string{"ou", "distinguishedName"}

// Entry is one flat OU as returned by the directory.
type Entry struct {
	ID   string
	Name string
}

// Node is one OU with its nested children.
type Node struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Children []*Node `json:"children"`
}

// Build nests entries under their parents. The parent of an entry is its id without the
// leftmost component; entries whose parent is not in the batch, or whose id has no
// component separator, become roots. Input order is kept at every level and duplicate ids
// after the first are ignored.
func Build(entries []Entry) []*Node {
	nodes := make(map[string]*Node, len(entries))
	order := make([]*Node, 0, len(entries))

	for _, e := range entries {
		if _, dup := nodes[e.ID]; dup {
			continue
		}

		n := &Node{ID: e.ID, Name: e.Name, Children: []*Node{}}
		nodes[e.ID] = n
		order = append(order, n)
	}

	roots := make([]*Node, 0)

	for _, n := range order {
		parentID, ok := Parent(n.ID)
		if !ok {
			roots = append(roots, n)

			continue
		}

		if p, found := nodes[parentID]; found && p != n {
			p.Children = append(p.Children, n)
		} else {
			roots = append(roots, n)
		}
	}

	return roots
}

// Parent strips the leftmost component of a distinguished name.
// Escaped commas inside the first component are not treated as separators.
func Parent(id string) (string, bool) {
	for i := 0; i < len(id); i++ {
		switch id[i] {
		case '\\':
			i++
		case ',':
			return id[i+1:], true
		}
	}

	return "", false
}

// FromLDAP extracts OU entries from search results. Entries without a name are skipped.
func FromLDAP(results []*ldap.Entry) []Entry {
	out := make([]Entry, 0, len(results))

	for _, r := range results {
		name := r.GetEqualFoldAttributeValue("ou")
		if name == "" {
			continue
		}

		id := r.GetEqualFoldAttributeValue("distinguishedName")
		if id == "" {
			id = r.DN
		}

		out = append(out, Entry{ID: id, Name: name})
	}

	return out
}
