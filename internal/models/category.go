package models

// CustomCategory is an owner-defined product category. CreatedAt and
// UpdatedAt are ISO-8601 strings locally and epoch milliseconds remotely.
type CustomCategory struct {
	ID        string
	OwnerID   string
	Name      string
	Icon      string
	Color     string
	SortOrder int
	IsActive  bool
	CreatedAt string
	UpdatedAt string
}
