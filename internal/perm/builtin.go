// ABOUTME: Built-in Part-DB permission categories and their frozen bit offsets
// ABOUTME: Structural categories per tree table plus database, tools and users

package perm

// Structural operations.
const (
	OpRead      = "read"
	OpEdit      = "edit"
	OpCreate    = "create"
	OpMove      = "move"
	OpDelete    = "delete"
	OpShowUsers = "show_users"
)

// Database operations.
const (
	OpSeeStatus     = "see_status"
	OpUpdate        = "update"
	OpReadSettings  = "read_settings"
	OpWriteSettings = "write_settings"
)

// Tools operations.
const (
	OpImport     = "import"
	OpLabels     = "labels"
	OpCalculator = "calculator"
	OpFootprints = "footprints"
	OpICLogos    = "ic_logos"
	OpStatistics = "statistics"
)

// Users operations.
const (
	OpEditUsername       = "edit_username"
	OpChangeGroup        = "change_group"
	OpEditInfos          = "edit_infos"
	OpEditPermissions    = "edit_permissions"
	OpSetPassword        = "set_password"
	OpChangeUserSettings = "change_user_settings"
)

// Category names.
const (
	CategoryCategories      = "categories"
	CategoryStorelocations  = "storelocations"
	CategoryFootprints      = "footprints"
	CategoryManufacturers   = "manufacturers"
	CategorySuppliers       = "suppliers"
	CategoryDevices         = "devices"
	CategoryAttachmentTypes = "attachment_types"
	CategoryDatabase        = "database"
	CategoryTools           = "tools"
	CategoryUsers           = "users"
)

// StructuralCategories lists the categories that gate tree tables.
var StructuralCategories = []string{
	CategoryCategories,
	CategoryStorelocations,
	CategoryFootprints,
	CategoryManufacturers,
	CategorySuppliers,
	CategoryDevices,
	CategoryAttachmentTypes,
}

var structuralLabels = map[string]string{
	CategoryCategories:      "Categories",
	CategoryStorelocations:  "Storage locations",
	CategoryFootprints:      "Footprints",
	CategoryManufacturers:   "Manufacturers",
	CategorySuppliers:       "Suppliers",
	CategoryDevices:         "Devices",
	CategoryAttachmentTypes: "Attachment types",
}

// Structural returns the structural category for a tree table.
func Structural(name, label string) Category {
	return Category{
		Name:  name,
		Label: label,
		Operations: []Operation{
			{Name: OpRead, Offset: 0, Label: "Read"},
			{Name: OpEdit, Offset: 2, Label: "Edit"},
			{Name: OpCreate, Offset: 4, Label: "Create"},
			{Name: OpMove, Offset: 6, Label: "Move"},
			{Name: OpDelete, Offset: 8, Label: "Delete"},
			{Name: OpShowUsers, Offset: 10, Label: "Show last editing users"},
		},
		Rules: []Rule{
			{Triggers: []string{OpEdit, OpDelete, OpMove, OpCreate}, Implies: OpRead},
		},
	}
}

// Database returns the database category.
func Database() Category {
	return Category{
		Name:  CategoryDatabase,
		Label: "Database",
		Operations: []Operation{
			{Name: OpSeeStatus, Offset: 0, Label: "Show status"},
			{Name: OpUpdate, Offset: 2, Label: "Update database"},
			{Name: OpReadSettings, Offset: 4, Label: "Read database settings"},
			{Name: OpWriteSettings, Offset: 6, Label: "Write database settings"},
		},
		Rules: []Rule{
			{Triggers: []string{OpUpdate}, Implies: OpSeeStatus},
			{Triggers: []string{OpWriteSettings}, Implies: OpReadSettings},
		},
	}
}

// Tools returns the tools category.
func Tools() Category {
	return Category{
		Name:  CategoryTools,
		Label: "Tools",
		Operations: []Operation{
			{Name: OpImport, Offset: 0, Label: "Import"},
			{Name: OpLabels, Offset: 2, Label: "Labels"},
			{Name: OpCalculator, Offset: 4, Label: "Resistor calculator"},
			{Name: OpFootprints, Offset: 6, Label: "Footprints"},
			{Name: OpICLogos, Offset: 8, Label: "IC logos"},
			{Name: OpStatistics, Offset: 10, Label: "Statistics"},
		},
	}
}

// Users returns the users category. It gates subject management, including
// editing other subjects' permission masks.
func Users() Category {
	return Category{
		Name:  CategoryUsers,
		Label: "Users",
		Operations: []Operation{
			{Name: OpRead, Offset: 0, Label: "Read"},
			{Name: OpCreate, Offset: 2, Label: "Create"},
			{Name: OpEditUsername, Offset: 4, Label: "Change username"},
			{Name: OpChangeGroup, Offset: 6, Label: "Change group"},
			{Name: OpEditInfos, Offset: 8, Label: "Edit infos"},
			{Name: OpEditPermissions, Offset: 10, Label: "Edit permissions"},
			{Name: OpSetPassword, Offset: 12, Label: "Set password"},
			{Name: OpChangeUserSettings, Offset: 14, Label: "Change user settings"},
			{Name: OpDelete, Offset: 16, Label: "Delete"},
		},
		Rules: []Rule{
			{Triggers: []string{
				OpCreate, OpEditUsername, OpChangeGroup, OpEditInfos,
				OpEditPermissions, OpSetPassword, OpChangeUserSettings, OpDelete,
			}, Implies: OpRead},
		},
	}
}

// DefaultRegistry returns a registry holding every built-in category.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, name := range StructuralCategories {
		mustRegister(r, Structural(name, structuralLabels[name]))
	}
	mustRegister(r, Database())
	mustRegister(r, Tools())
	mustRegister(r, Users())
	return r
}

func mustRegister(r *Registry, c Category) {
	if err := r.Register(c); err != nil {
		panic("perm: invalid built-in category: " + err.Error())
	}
}
