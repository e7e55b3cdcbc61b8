package columns

// Default is the fallback decision for a class of columns (primary key or
// generated) when no explicit include list applies.
type Default int

const (
	// Unset defers to the next rule.
	Unset Default = iota
	// Include selects the class.
	Include
	// Exclude drops the class.
	Exclude
)

// Policy selects the columns of one clause of a statement: the inserted
// columns, the match columns of a merge, the output columns, and so on.
//
// Rules are evaluated in order, the first that applies wins:
//
//  1. a non-empty Include list selects exactly the named members;
//  2. members named in Exclude are dropped;
//  3. PrimaryKey decides primary-key columns;
//  4. Generated decides generated columns;
//  5. everything else is selected unless ExcludeAll is set.
//
// Names match a member's dotted name, its column name, or the name of the
// owned object it belongs to.
type Policy struct {
	Include    []string
	Exclude    []string
	ExcludeAll bool
	Generated  Default
	PrimaryKey Default
}

// Explicit reports whether the policy names its columns explicitly.
func (p Policy) Explicit() bool {
	return len(p.Include) > 0
}

// Selects reports whether the leaf prop is selected by p.
func (p Policy) Selects(prop *Property) bool {
	if len(p.Include) > 0 {
		return matchAny(p.Include, prop)
	}
	if matchAny(p.Exclude, prop) {
		return false
	}
	if prop.PrimaryKey && p.PrimaryKey != Unset {
		return p.PrimaryKey == Include
	}
	if prop.Generated && p.Generated != Unset {
		return p.Generated == Include
	}
	return !p.ExcludeAll
}

func matchAny(names []string, prop *Property) bool {
	for _, n := range names {
		if matches(n, prop) {
			return true
		}
	}
	return false
}

func matches(name string, prop *Property) bool {
	return name == prop.Name || (prop.Column != "" && name == prop.Column) || (name != "" && name == prop.Owner())
}

// Filter applies policy to props. Owned objects are kept so callers can still
// descend into them, with their children filtered; unmapped leaves are
// always dropped.
func Filter(props []*Property, policy Policy) []*Property {
	out := make([]*Property, 0, len(props))
	for _, p := range props {
		switch {
		case p.IsComplex():
			c := *p
			c.Children = Filter(p.Children, policy)
			out = append(out, &c)
		case p.Column == "":
		case policy.Selects(p):
			out = append(out, p)
		}
	}
	return out
}

// Flatten expands owned objects into their leaves, depth first.
func Flatten(props []*Property) []*Property {
	out := make([]*Property, 0, len(props))
	for _, p := range props {
		if p.IsComplex() {
			out = append(out, Flatten(p.Children)...)
			continue
		}
		out = append(out, p)
	}
	return out
}

// OrderBySelection reorders the flat list to follow the order of the
// explicit include names, so value tuples and output mapping line up with
// the caller's declaration. Without names the list is returned as is.
func OrderBySelection(list []*Property, include []string) []*Property {
	if len(include) == 0 {
		return list
	}
	out := make([]*Property, 0, len(list))
	used := make(map[*Property]bool, len(list))
	for _, name := range include {
		for _, p := range list {
			if !used[p] && matches(name, p) {
				used[p] = true
				out = append(out, p)
			}
		}
	}
	for _, p := range list {
		if !used[p] {
			out = append(out, p)
		}
	}
	return out
}

// Select filters, flattens and orders the tree for policy.
func Select(t *Tree, policy Policy) []*Property {
	return OrderBySelection(Flatten(Filter(t.Props, policy)), policy.Include)
}

// Names returns the dotted names of props.
func Names(props []*Property) []string {
	out := make([]string, len(props))
	for i, p := range props {
		out[i] = p.Name
	}
	return out
}

// ColumnNames returns the column names of props.
func ColumnNames(props []*Property) []string {
	out := make([]string, len(props))
	for i, p := range props {
		out[i] = p.Column
	}
	return out
}
