// Package schema describes how entity types map to database tables.
//
// A Provider answers, for a Go struct type, which table it is stored in and
// which column, SQL type, primary-key and generated flags each member carries.
// Two providers are included:
//
//   - Tags derives the mapping from struct declarations and `bulk` tags.
//   - Static serves hand-built Entity values, for types that cannot be tagged.
//
// Owned members are struct-typed members whose fields live in the owning
// entity's table, one level deep:
//
//	type Address struct {
//	    Street string
//	    City   string
//	}
//
//	type Customer struct {
//	    ID      int64   `bulk:",pk,generated"`
//	    Name    string  `bulk:",type=nvarchar(100)"`
//	    Address Address `bulk:",owned"` // Address_Street, Address_City
//	}
//
//	e, err := schema.Tags{}.Entity(reflect.TypeOf(Customer{}))
//	f, _ := e.Field("Address.City")
//	f.Column // Address_City
package schema
