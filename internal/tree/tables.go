// ABOUTME: Registry of hierarchical tables and their permission categories
// ABOUTME: Binds each store table schema to a category and a display name for its root

package tree

import (
	"github.com/partdb/partdb-core/internal/perm"
	"github.com/partdb/partdb-core/internal/store"
)

// Table describes one forest.
type Table struct {
	Name     string
	Category string // permission category gating every operation
	RootName string // display name of the synthetic root
	Extra    []store.Column
}

var rootNames = map[string]string{
	store.TableCategories:      "Categories",
	store.TableStorelocations:  "Storage locations",
	store.TableFootprints:      "Footprints",
	store.TableManufacturers:   "Manufacturers",
	store.TableSuppliers:       "Suppliers",
	store.TableDevices:         "Devices",
	store.TableAttachmentTypes: "Attachment types",
}

var categories = map[string]string{
	store.TableCategories:      perm.CategoryCategories,
	store.TableStorelocations:  perm.CategoryStorelocations,
	store.TableFootprints:      perm.CategoryFootprints,
	store.TableManufacturers:   perm.CategoryManufacturers,
	store.TableSuppliers:       perm.CategorySuppliers,
	store.TableDevices:         perm.CategoryDevices,
	store.TableAttachmentTypes: perm.CategoryAttachmentTypes,
}

// TablesFrom builds the table registry for the given schemas. Tables without a
// dedicated category use their own name as category.
func TablesFrom(schemas []store.TableSchema) map[string]Table {
	tables := make(map[string]Table, len(schemas))
	for _, s := range schemas {
		t := Table{Name: s.Name, Category: s.Name, RootName: s.Name, Extra: s.Extra}
		if c, ok := categories[s.Name]; ok {
			t.Category = c
		}
		if n, ok := rootNames[s.Name]; ok {
			t.RootName = n
		}
		tables[s.Name] = t
	}
	return tables
}

// Column looks up an extra column by name.
func (t Table) Column(name string) (store.Column, bool) {
	return store.TableSchema{Name: t.Name, Extra: t.Extra}.Column(name)
}
