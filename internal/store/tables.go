// ABOUTME: Column layout of the hierarchical node tables
// ABOUTME: Every tree table shares id/name/parent_id/comment/timestamps plus typed extras

package store

import (
	"fmt"
	"slices"
)

// ColumnKind is the storage type of an extra column.
type ColumnKind string

const (
	KindText ColumnKind = "text"
	KindInt  ColumnKind = "int"
	KindBool ColumnKind = "bool"
)

// Column is a table-specific attribute beyond the shared node columns.
type Column struct {
	Name string
	Kind ColumnKind
}

// TableSchema describes one node table.
type TableSchema struct {
	Name  string
	Extra []Column
}

// Column looks up an extra column by name.
func (t TableSchema) Column(name string) (Column, bool) {
	for _, c := range t.Extra {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Node table names.
const (
	TableCategories      = "categories"
	TableStorelocations  = "storelocations"
	TableFootprints      = "footprints"
	TableManufacturers   = "manufacturers"
	TableSuppliers       = "suppliers"
	TableDevices         = "devices"
	TableAttachmentTypes = "attachment_types"
)

var companyColumns = []Column{
	{Name: "address", Kind: KindText},
	{Name: "phone_number", Kind: KindText},
	{Name: "fax_number", Kind: KindText},
	{Name: "email_address", Kind: KindText},
	{Name: "website", Kind: KindText},
	{Name: "auto_product_url", Kind: KindText},
}

// NodeTables returns the schemas of every built-in node table.
func NodeTables() []TableSchema {
	return []TableSchema{
		{Name: TableCategories, Extra: []Column{
			{Name: "disable_footprints", Kind: KindBool},
			{Name: "disable_manufacturers", Kind: KindBool},
			{Name: "disable_autodatasheets", Kind: KindBool},
		}},
		{Name: TableStorelocations, Extra: []Column{
			{Name: "is_full", Kind: KindBool},
		}},
		{Name: TableFootprints, Extra: []Column{
			{Name: "filename", Kind: KindText},
			{Name: "filename_3d", Kind: KindText},
		}},
		{Name: TableManufacturers, Extra: slices.Clone(companyColumns)},
		{Name: TableSuppliers, Extra: slices.Clone(companyColumns)},
		{Name: TableDevices, Extra: []Column{
			{Name: "order_quantity", Kind: KindInt},
			{Name: "order_only_missing_parts", Kind: KindBool},
		}},
		{Name: TableAttachmentTypes},
	}
}

// zeroValue is the value stored for an extra column that was never set.
func (c Column) zeroValue() any {
	switch c.Kind {
	case KindInt:
		return int64(0)
	case KindBool:
		return false
	default:
		return ""
	}
}

// Normalize converts v to the column's Go representation: string, int64 or bool.
func (c Column) Normalize(v any) (any, error) {
	switch c.Kind {
	case KindText:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case KindBool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case KindInt:
		switch n := v.(type) {
		case int:
			return int64(n), nil
		case int32:
			return int64(n), nil
		case int64:
			return n, nil
		case float64:
			if n == float64(int64(n)) {
				return int64(n), nil
			}
		}
	}
	return nil, fmt.Errorf("column %s expects %s, got %T", c.Name, c.Kind, v)
}
