// Package columns resolves the storable members of entity types and selects
// the subset each clause of a bulk statement works on.
//
// The expensive part, walking the struct and asking the schema provider for
// every member, runs once per type; the resulting tree is cached by a
// Resolver and cloned for every call:
//
//	tree, err := columns.DefaultResolver.Properties(reflect.TypeOf(User{}))
//	insert := columns.Select(tree, columns.Policy{Generated: columns.Exclude})
//	for _, u := range users {
//	    vals, err := columns.Values(insert, u)
//	    ...
//	}
//
// Column names and values always come from the same ordered list, so the
// column list and every value tuple of a statement agree position by
// position.
package columns
