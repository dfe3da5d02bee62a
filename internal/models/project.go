package models

// Project is a Redmine project. Parent is set for subprojects.
type Project struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Identifier  string    `json:"identifier,omitempty"`
	Description string    `json:"description,omitempty"`
	Status      int       `json:"status,omitempty"`
	IsPublic    bool      `json:"is_public,omitempty"`
	Parent      *Ref      `json:"parent,omitempty"`
	CreatedOn   Timestamp `json:"created_on"`
	UpdatedOn   Timestamp `json:"updated_on"`
}

// ProjectNode is a project placed in the hierarchy. Parent is a lookup
// reference only; each node is owned by its parent's Children slice.
type ProjectNode struct {
	Project
	Parent   *ProjectNode   `json:"-"`
	Children []*ProjectNode `json:"children"`
}

// Walk visits the node and its descendants depth-first, passing the depth
func (n *ProjectNode) Walk(fn func(node *ProjectNode, depth int)) {
	n.walk(fn, 0)
}

func (n *ProjectNode) walk(fn func(node *ProjectNode, depth int), depth int) {
	fn(n, depth)
	for _, child := range n.Children {
		child.walk(fn, depth+1)
	}
}
