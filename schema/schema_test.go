package schema_test

import (
	"database/sql"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/bulkwrite"
	"github.com/syssam/bulkwrite/schema"
)

type Address struct {
	Street string
	City   string `bulk:"town"`
}

type Audit struct {
	CreatedAt time.Time `bulk:",generated"`
	UpdatedAt *time.Time
}

type Status int

type Customer struct {
	Audit
	ID       int64   `bulk:",pk,generated"`
	Name     string  `bulk:",type=nvarchar(100)"`
	Balance  float64 `bulk:"balance_amount,type=numeric(10,2)"`
	Status   Status
	Token    uuid.UUID
	Nick     sql.NullString
	Address  Address  `bulk:",owned"`
	Shipping *Address `bulk:"Ship,owned"`
	Orders   []int
	Secret   string `bulk:"-"`
	internal string
}

type Invoice struct {
	Id     int
	Number string
}

func (Invoice) TableName() string { return "billing.invoice" }

func TestTagsVerbatim(t *testing.T) {
	e, err := schema.Tags{}.Entity(reflect.TypeOf(&Customer{}))
	require.NoError(t, err)
	assert.Equal(t, "Customers", e.Table)
	assert.Empty(t, e.Schema)
	assert.Equal(t, "Customer", e.Name())

	var paths []string
	for _, f := range e.Fields() {
		paths = append(paths, f.Path)
	}
	assert.Equal(t, []string{
		"CreatedAt", "UpdatedAt", "ID", "Name", "Balance", "Status", "Token", "Nick",
		"Address.Street", "Address.City", "Shipping.Street", "Shipping.City",
	}, paths)

	id, ok := e.Field("ID")
	require.True(t, ok)
	assert.True(t, id.PrimaryKey)
	assert.True(t, id.Generated)

	created, _ := e.Field("CreatedAt")
	assert.True(t, created.Generated)
	assert.False(t, created.PrimaryKey)

	name, _ := e.Field("Name")
	assert.Equal(t, "nvarchar(100)", name.SQLType)

	balance, _ := e.Field("Balance")
	assert.Equal(t, "balance_amount", balance.Column)
	assert.Equal(t, "numeric(10,2)", balance.SQLType)

	street, _ := e.Field("Address.Street")
	assert.Equal(t, "Address_Street", street.Column)
	city, _ := e.Field("Address.City")
	assert.Equal(t, "town", city.Column)
	ship, _ := e.Field("Shipping.Street")
	assert.Equal(t, "Ship_Street", ship.Column)

	assert.True(t, e.Owned("Address"))
	assert.True(t, e.Owned("Shipping"))
	assert.False(t, e.Owned("Name"))

	_, ok = e.Field("Secret")
	assert.False(t, ok)
	assert.True(t, e.Ignored("Secret"))
	_, ok = e.Field("Orders")
	assert.False(t, ok)
}

func TestTagsSnakeCase(t *testing.T) {
	e, err := schema.Tags{Naming: schema.SnakeCase}.Entity(reflect.TypeOf(Customer{}))
	require.NoError(t, err)
	assert.Equal(t, "customers", e.Table)

	created, _ := e.Field("CreatedAt")
	assert.Equal(t, "created_at", created.Column)
	street, _ := e.Field("Address.Street")
	assert.Equal(t, "address_street", street.Column)
}

func TestTagsTableName(t *testing.T) {
	e, err := schema.Tags{}.Entity(reflect.TypeOf(Invoice{}))
	require.NoError(t, err)
	assert.Equal(t, "billing", e.Schema)
	assert.Equal(t, "invoice", e.Table)

	id, _ := e.Field("Id")
	assert.True(t, id.PrimaryKey, "Id is the conventional key")
	assert.False(t, id.Generated)
}

func TestTagsErrors(t *testing.T) {
	_, err := schema.Tags{}.Entity(reflect.TypeOf(42))
	require.Error(t, err)
	assert.True(t, bulkwrite.IsConfigurationError(err))

	type bad struct {
		Name string `bulk:",unique"`
	}
	_, err = schema.Tags{}.Entity(reflect.TypeOf(bad{}))
	require.Error(t, err)
	assert.ErrorIs(t, err, bulkwrite.ErrConfiguration)
	assert.Contains(t, err.Error(), `unknown tag option "unique"`)
}

func TestStatic(t *testing.T) {
	typ := reflect.TypeOf(Invoice{})
	e := schema.NewEntity(typ, "dbo.Invoices",
		&schema.Field{Path: "Id", Column: "InvoiceId", PrimaryKey: true, Generated: true},
		&schema.Field{Path: "Number", Column: "No"},
	)
	e.AddField(&schema.Field{Path: "Number", Column: "InvoiceNo", SQLType: "varchar(20)"})
	p := schema.Static{}.Add(e)

	got, err := p.Entity(reflect.TypeOf(&Invoice{}))
	require.NoError(t, err)
	assert.Equal(t, "dbo", got.Schema)
	assert.Equal(t, "Invoices", got.Table)
	require.Len(t, got.Fields(), 2)
	num, _ := got.Field("Number")
	assert.Equal(t, "InvoiceNo", num.Column)

	_, err = p.Entity(reflect.TypeOf(Customer{}))
	assert.True(t, bulkwrite.IsConfigurationError(err))
}

func TestIsScalar(t *testing.T) {
	tests := []struct {
		v    any
		want bool
	}{
		{1, true},
		{"s", true},
		{[]byte("b"), true},
		{time.Time{}, true},
		{uuid.UUID{}, true},
		{sql.NullInt64{}, true},
		{new(int), true},
		{Status(1), true},
		{Address{}, false},
		{[]int{1}, false},
		{map[string]int{}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, schema.IsScalar(reflect.TypeOf(tt.v)), "%T", tt.v)
	}
	assert.True(t, schema.IsEnum(reflect.TypeOf(Status(0))))
	assert.False(t, schema.IsEnum(reflect.TypeOf(0)))
}

func TestProviderFunc(t *testing.T) {
	p := schema.ProviderFunc(func(t reflect.Type) (*schema.Entity, error) {
		return schema.NewEntity(t, "x"), nil
	})
	e, err := p.Entity(reflect.TypeOf(Invoice{}))
	require.NoError(t, err)
	assert.Equal(t, "x", e.Table)
}
