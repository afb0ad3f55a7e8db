package schema

type Table struct {
	Name         string
	Columns      []*Column
	PrimaryKey   []string
	ForeignKeys  []*ForeignKey
	Dependencies []string // referenced tables, used for ordering
}

// HasIdentity reports whether any column is server generated.
func (t *Table) HasIdentity() bool {
	for _, c := range t.Columns {
		if c.Identity {
			return true
		}
	}
	return false
}

type Column struct {
	Name         string  `json:"name"`
	DeclaredType string  `json:"type"`
	Nullable     bool    `json:"nullable"`
	Default      *string `json:"default"`
	Identity     bool    `json:"identity"`
}

type ForeignKey struct {
	Name      string `json:"name"`
	Column    string `json:"column"`
	RefTable  string `json:"ref_table"`
	RefColumn string `json:"ref_column"`
}

type Index struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Unique  bool     `json:"unique"`
}

// Routine is a stored procedure or function. Extra carries dialect specific detail
// such as the argument list or return type.
type Routine struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Extra string `json:"extra,omitempty"`
}

type Trigger struct {
	Name  string `json:"name"`
	Table string `json:"table"`
	Event string `json:"event"`
}
