package repository

import (
	"database/sql"

	"github.com/iliyamo/site-inspection-api/internal/model"
)

// Table descriptions for every entity.  Column order must match the order
// of the pointers returned by Fields.

var UsersTable = Table[model.User]{
	Name:    "users",
	Columns: []string{"name", "username", "email", "hashed_password", "is_superuser"},
	Fields: func(u *model.User) []any {
		return []any{&u.Name, &u.Username, &u.Email, &u.HashedPassword, &u.IsSuperuser}
	},
}

var ProjectsTable = Table[model.Project]{
	Name: "projects",
	Columns: []string{"name", "description", "address_detail", "latitude", "longitude",
		"customer_id", "status", "created_by"},
	Fields: func(p *model.Project) []any {
		return []any{&p.Name, &p.Description, &p.AddressDetail, &p.Latitude, &p.Longitude,
			&p.CustomerID, &p.Status, &p.CreatedBy}
	},
}

var BuildingsTable = Table[model.Building]{
	Name: "buildings",
	Columns: []string{"name", "address", "year_built", "building_type", "area_sq_meters",
		"levels_count", "sides_count", "owner_id", "latitude", "longitude", "status_construction",
		"construction_start_date", "construction_end_date", "project_id"},
	Fields: func(b *model.Building) []any {
		return []any{&b.Name, &b.Address, &b.YearBuilt, &b.BuildingType, &b.AreaSqMeters,
			&b.LevelsCount, &b.SidesCount, &b.OwnerID, &b.Latitude, &b.Longitude, &b.StatusConstruction,
			&b.ConstructionStartDate, &b.ConstructionEndDate, &b.ProjectID}
	},
}

var BuildingLevelsTable = Table[model.BuildingLevel]{
	Name:    "building_levels",
	Columns: []string{"building_id", "level_name", "description", "primary_usage"},
	Fields: func(l *model.BuildingLevel) []any {
		return []any{&l.BuildingID, &l.LevelName, &l.Description, &l.PrimaryUsage}
	},
}

var BuildingSidesTable = Table[model.BuildingSide]{
	Name:    "building_sides",
	Columns: []string{"building_id", "name", "description", "orientation_degrees"},
	Fields: func(s *model.BuildingSide) []any {
		return []any{&s.BuildingID, &s.Name, &s.Description, &s.OrientationDegrees}
	},
}

var BuildingTypesTable = Table[model.BuildingType]{
	Name:    "building_types",
	Columns: []string{"name", "description"},
	Fields:  func(t *model.BuildingType) []any { return []any{&t.Name, &t.Description} },
}

var CategoriesTable = Table[model.Category]{
	Name:    "categories",
	Columns: []string{"name", "description"},
	Fields:  func(c *model.Category) []any { return []any{&c.Name, &c.Description} },
}

var SubCategoriesTable = Table[model.SubCategory]{
	Name:    "sub_categories",
	Columns: []string{"category_id", "subcategory", "description"},
	Fields: func(s *model.SubCategory) []any {
		return []any{&s.CategoryID, &s.SubCategory, &s.Description}
	},
}

var DefectTypesTable = Table[model.DefectType]{
	Name:    "defect_types",
	Columns: []string{"name", "description"},
	Fields:  func(t *model.DefectType) []any { return []any{&t.Name, &t.Description} },
}

var DefectsTable = Table[model.Defect]{
	Name:    "defects",
	Columns: []string{"defect_type_id", "name", "description"},
	Fields: func(d *model.Defect) []any {
		return []any{&d.DefectTypeID, &d.Name, &d.Description}
	},
}

var PostsTable = Table[model.Post]{
	Name:    "posts",
	Columns: []string{"uuid", "created_by_user_id", "title", "text", "media_url"},
	Fields: func(p *model.Post) []any {
		return []any{&p.UUID, &p.CreatedByUserID, &p.Title, &p.Text, &p.MediaURL}
	},
}

// Stores groups one CRUD per catalogue table.
type Stores struct {
	Projects       *CRUD[model.Project, *model.Project]
	Buildings      *CRUD[model.Building, *model.Building]
	BuildingLevels *CRUD[model.BuildingLevel, *model.BuildingLevel]
	BuildingSides  *CRUD[model.BuildingSide, *model.BuildingSide]
	BuildingTypes  *CRUD[model.BuildingType, *model.BuildingType]
	Categories     *CRUD[model.Category, *model.Category]
	SubCategories  *CRUD[model.SubCategory, *model.SubCategory]
	DefectTypes    *CRUD[model.DefectType, *model.DefectType]
	Defects        *CRUD[model.Defect, *model.Defect]
	Posts          *CRUD[model.Post, *model.Post]
}

// NewStores wires every catalogue table to db.
func NewStores(db *sql.DB) *Stores {
	return &Stores{
		Projects:       NewCRUD[model.Project](db, ProjectsTable),
		Buildings:      NewCRUD[model.Building](db, BuildingsTable),
		BuildingLevels: NewCRUD[model.BuildingLevel](db, BuildingLevelsTable),
		BuildingSides:  NewCRUD[model.BuildingSide](db, BuildingSidesTable),
		BuildingTypes:  NewCRUD[model.BuildingType](db, BuildingTypesTable),
		Categories:     NewCRUD[model.Category](db, CategoriesTable),
		SubCategories:  NewCRUD[model.SubCategory](db, SubCategoriesTable),
		DefectTypes:    NewCRUD[model.DefectType](db, DefectTypesTable),
		Defects:        NewCRUD[model.Defect](db, DefectsTable),
		Posts:          NewCRUD[model.Post](db, PostsTable),
	}
}
