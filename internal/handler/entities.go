package handler

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/site-inspection-api/internal/model"
	"github.com/iliyamo/site-inspection-api/internal/repository"
	"github.com/iliyamo/site-inspection-api/internal/service"
)

// ResourceRoutes is the non-generic view of a Resource used by the router.
type ResourceRoutes interface {
	Create(c echo.Context) error
	List(c echo.Context) error
	Get(c echo.Context) error
	Patch(c echo.Context) error
	Delete(c echo.Context) error
}

// Endpoint binds a resource to its singular and plural path segments.
type Endpoint struct {
	One    string // "project"
	Many   string // "projects"
	Routes ResourceRoutes
}

// Entities holds one Resource per catalogue entity.
type Entities struct {
	Projects       *Resource[model.Project, projectCreate, projectUpdate]
	Buildings      *Resource[model.Building, buildingCreate, buildingUpdate]
	BuildingLevels *Resource[model.BuildingLevel, buildingLevelCreate, buildingLevelUpdate]
	BuildingSides  *Resource[model.BuildingSide, buildingSideCreate, buildingSideUpdate]
	BuildingTypes  *Resource[model.BuildingType, namedCreate, namedUpdate]
	Categories     *Resource[model.Category, namedCreate, namedUpdate]
	SubCategories  *Resource[model.SubCategory, subCategoryCreate, subCategoryUpdate]
	DefectTypes    *Resource[model.DefectType, namedCreate, namedUpdate]
	Defects        *Resource[model.Defect, defectCreate, defectUpdate]

	// LevelsByBuilding serves GET /buildinglevels/building/:building_id.
	LevelsByBuilding echo.HandlerFunc
}

// Endpoints lists the generic resources with their paths.
func (e *Entities) Endpoints() []Endpoint {
	return []Endpoint{
		{One: "project", Many: "projects", Routes: e.Projects},
		{One: "building", Many: "buildings", Routes: e.Buildings},
		{One: "buildinglevel", Many: "buildinglevels", Routes: e.BuildingLevels},
		{One: "buildingside", Many: "buildingsides", Routes: e.BuildingSides},
		{One: "buildingtype", Many: "buildingtypes", Routes: e.BuildingTypes},
		{One: "category", Many: "categories", Routes: e.Categories},
		{One: "subcategory", Many: "subcategories", Routes: e.SubCategories},
		{One: "defecttype", Many: "defecttypes", Routes: e.DefectTypes},
		{One: "defect", Many: "defects", Routes: e.Defects},
	}
}

// change appends col=*v when the field was supplied.
func change[V any](cs []repository.Change, col string, v *V) []repository.Change {
	if v == nil {
		return cs
	}
	return append(cs, repository.Change{Column: col, Value: *v})
}

func ref(label string, id *int64, store ParentStore) []Ref {
	return []Ref{{Label: label, ID: id, Store: store}}
}

func idPtr(id int64) *int64 { return &id }

// ----- Project -----

type projectCreate struct {
	Name          string `json:"name" validate:"required,max=100"`
	Description   string `json:"description" validate:"max=500"`
	AddressDetail string `json:"address_detail" validate:"max=200"`
	Latitude      string `json:"latitude" validate:"max=20"`
	Longitude     string `json:"longitude" validate:"max=20"`
	CustomerID    int64  `json:"customer_id"`
	Status        int    `json:"status"`
}

func (r *projectCreate) trim() { r.Name = strings.TrimSpace(r.Name) }

type projectUpdate struct {
	Name          *string `json:"name" validate:"omitempty,min=1,max=100"`
	Description   *string `json:"description" validate:"omitempty,max=500"`
	AddressDetail *string `json:"address_detail" validate:"omitempty,max=200"`
	Latitude      *string `json:"latitude" validate:"omitempty,max=20"`
	Longitude     *string `json:"longitude" validate:"omitempty,max=20"`
	CustomerID    *int64  `json:"customer_id"`
	Status        *int    `json:"status"`
}

func (r *projectUpdate) trim() { trimPtr(r.Name) }

// ----- Building -----

type buildingCreate struct {
	Name                  string     `json:"name" validate:"required,max=100"`
	Address               string     `json:"address" validate:"max=500"`
	YearBuilt             int        `json:"year_built"`
	BuildingType          int        `json:"building_type"`
	AreaSqMeters          float64    `json:"area_sq_meters"`
	LevelsCount           int        `json:"levels_count"`
	SidesCount            int        `json:"sides_count"`
	OwnerID               int64      `json:"owner_id"`
	Latitude              float64    `json:"latitude"`
	Longitude             float64    `json:"longitude"`
	StatusConstruction    float64    `json:"status_construction"`
	ConstructionStartDate *time.Time `json:"construction_start_date"`
	ConstructionEndDate   *time.Time `json:"construction_end_date"`
	ProjectID             *int64     `json:"project_id" validate:"omitempty,gt=0"`
}

func (r *buildingCreate) trim() { r.Name = strings.TrimSpace(r.Name) }

type buildingUpdate struct {
	Name                  *string    `json:"name" validate:"omitempty,min=1,max=100"`
	Address               *string    `json:"address" validate:"omitempty,max=500"`
	YearBuilt             *int       `json:"year_built"`
	BuildingType          *int       `json:"building_type"`
	AreaSqMeters          *float64   `json:"area_sq_meters"`
	LevelsCount           *int       `json:"levels_count"`
	SidesCount            *int       `json:"sides_count"`
	OwnerID               *int64     `json:"owner_id"`
	Latitude              *float64   `json:"latitude"`
	Longitude             *float64   `json:"longitude"`
	StatusConstruction    *float64   `json:"status_construction"`
	ConstructionStartDate *time.Time `json:"construction_start_date"`
	ConstructionEndDate   *time.Time `json:"construction_end_date"`
	ProjectID             *int64     `json:"project_id" validate:"omitempty,gt=0"`
}

func (r *buildingUpdate) trim() { trimPtr(r.Name) }

// ----- BuildingLevel -----

type buildingLevelCreate struct {
	BuildingID   *int64  `json:"building_id" validate:"omitempty,gt=0"`
	LevelName    string  `json:"level_name" validate:"required,max=50"`
	Description  *string `json:"description" validate:"omitempty,max=255"`
	PrimaryUsage *string `json:"primary_usage" validate:"omitempty,max=50"`
}

func (r *buildingLevelCreate) trim() { r.LevelName = strings.TrimSpace(r.LevelName) }

type buildingLevelUpdate struct {
	BuildingID   *int64  `json:"building_id" validate:"omitempty,gt=0"`
	LevelName    *string `json:"level_name" validate:"omitempty,min=1,max=50"`
	Description  *string `json:"description" validate:"omitempty,max=255"`
	PrimaryUsage *string `json:"primary_usage" validate:"omitempty,max=50"`
}

func (r *buildingLevelUpdate) trim() { trimPtr(r.LevelName) }

// ----- BuildingSide -----

type buildingSideCreate struct {
	BuildingID         int64    `json:"building_id" validate:"required,gt=0"`
	Name               string   `json:"name" validate:"required,max=50"`
	Description        *string  `json:"description" validate:"omitempty,max=255"`
	OrientationDegrees *float64 `json:"orientation_degrees"`
}

func (r *buildingSideCreate) trim() { r.Name = strings.TrimSpace(r.Name) }

type buildingSideUpdate struct {
	BuildingID         *int64   `json:"building_id" validate:"omitempty,gt=0"`
	Name               *string  `json:"name" validate:"omitempty,min=1,max=50"`
	Description        *string  `json:"description" validate:"omitempty,max=255"`
	OrientationDegrees *float64 `json:"orientation_degrees"`
}

func (r *buildingSideUpdate) trim() { trimPtr(r.Name) }

// ----- BuildingType, Category, DefectType -----

// namedCreate is the body of the entities that only carry a name and a
// description.
type namedCreate struct {
	Name        string  `json:"name" validate:"required,max=50"`
	Description *string `json:"description" validate:"omitempty,max=255"`
}

func (r *namedCreate) trim() { r.Name = strings.TrimSpace(r.Name) }

type namedUpdate struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=50"`
	Description *string `json:"description" validate:"omitempty,max=255"`
}

func (r *namedUpdate) trim() { trimPtr(r.Name) }

func (r *namedUpdate) changes() []repository.Change {
	cs := change(nil, "name", r.Name)
	return change(cs, "description", r.Description)
}

// ----- SubCategory -----

type subCategoryCreate struct {
	CategoryID  int64   `json:"category_id" validate:"required,gt=0"`
	SubCategory string  `json:"subcategory" validate:"required,max=50"`
	Description *string `json:"description" validate:"omitempty,max=255"`
}

func (r *subCategoryCreate) trim() { r.SubCategory = strings.TrimSpace(r.SubCategory) }

type subCategoryUpdate struct {
	CategoryID  *int64  `json:"category_id" validate:"omitempty,gt=0"`
	SubCategory *string `json:"subcategory" validate:"omitempty,min=1,max=50"`
	Description *string `json:"description" validate:"omitempty,max=255"`
}

func (r *subCategoryUpdate) trim() { trimPtr(r.SubCategory) }

// ----- Defect -----

type defectCreate struct {
	DefectTypeID int64   `json:"defect_type_id" validate:"required,gt=0"`
	Name         string  `json:"name" validate:"required,max=50"`
	Description  *string `json:"description" validate:"omitempty,max=255"`
}

func (r *defectCreate) trim() { r.Name = strings.TrimSpace(r.Name) }

type defectUpdate struct {
	DefectTypeID *int64  `json:"defect_type_id" validate:"omitempty,gt=0"`
	Name         *string `json:"name" validate:"omitempty,min=1,max=50"`
	Description  *string `json:"description" validate:"omitempty,max=255"`
}

func (r *defectUpdate) trim() { trimPtr(r.Name) }

// NewEntities wires every catalogue resource to its store.
func NewEntities(s *repository.Stores, audit service.AuditPublisher) *Entities {
	e := &Entities{}

	e.Projects = &Resource[model.Project, projectCreate, projectUpdate]{
		Label: "Project", Key: "name", Unique: true, Store: s.Projects, Audit: audit,
		Build: func(r *projectCreate, actor *model.User) *model.Project {
			p := &model.Project{
				Name: r.Name, Description: r.Description, AddressDetail: r.AddressDetail,
				Latitude: r.Latitude, Longitude: r.Longitude, CustomerID: r.CustomerID, Status: r.Status,
			}
			if actor != nil {
				p.CreatedBy = actor.ID
			}
			return p
		},
		Changes: func(r *projectUpdate) []repository.Change {
			cs := change(nil, "name", r.Name)
			cs = change(cs, "description", r.Description)
			cs = change(cs, "address_detail", r.AddressDetail)
			cs = change(cs, "latitude", r.Latitude)
			cs = change(cs, "longitude", r.Longitude)
			cs = change(cs, "customer_id", r.CustomerID)
			return change(cs, "status", r.Status)
		},
		KeyOf: func(p *model.Project) string { return p.Name },
	}

	e.Buildings = &Resource[model.Building, buildingCreate, buildingUpdate]{
		Label: "Building", Key: "name", Unique: true, Store: s.Buildings, Audit: audit,
		Build: func(r *buildingCreate, _ *model.User) *model.Building {
			return &model.Building{
				Name: r.Name, Address: r.Address, YearBuilt: r.YearBuilt, BuildingType: r.BuildingType,
				AreaSqMeters: r.AreaSqMeters, LevelsCount: r.LevelsCount, SidesCount: r.SidesCount,
				OwnerID: r.OwnerID, Latitude: r.Latitude, Longitude: r.Longitude,
				StatusConstruction:    r.StatusConstruction,
				ConstructionStartDate: r.ConstructionStartDate, ConstructionEndDate: r.ConstructionEndDate,
				ProjectID: r.ProjectID,
			}
		},
		Changes: func(r *buildingUpdate) []repository.Change {
			cs := change(nil, "name", r.Name)
			cs = change(cs, "address", r.Address)
			cs = change(cs, "year_built", r.YearBuilt)
			cs = change(cs, "building_type", r.BuildingType)
			cs = change(cs, "area_sq_meters", r.AreaSqMeters)
			cs = change(cs, "levels_count", r.LevelsCount)
			cs = change(cs, "sides_count", r.SidesCount)
			cs = change(cs, "owner_id", r.OwnerID)
			cs = change(cs, "latitude", r.Latitude)
			cs = change(cs, "longitude", r.Longitude)
			cs = change(cs, "status_construction", r.StatusConstruction)
			cs = change(cs, "construction_start_date", r.ConstructionStartDate)
			cs = change(cs, "construction_end_date", r.ConstructionEndDate)
			return change(cs, "project_id", r.ProjectID)
		},
		KeyOf:      func(b *model.Building) string { return b.Name },
		CreateRefs: func(r *buildingCreate) []Ref { return ref("Project", r.ProjectID, s.Projects) },
		UpdateRefs: func(r *buildingUpdate) []Ref { return ref("Project", r.ProjectID, s.Projects) },
	}

	e.BuildingLevels = &Resource[model.BuildingLevel, buildingLevelCreate, buildingLevelUpdate]{
		Label: "BuildingLevel", Key: "level_name", Store: s.BuildingLevels, Audit: audit,
		Build: func(r *buildingLevelCreate, _ *model.User) *model.BuildingLevel {
			return &model.BuildingLevel{
				BuildingID: r.BuildingID, LevelName: r.LevelName,
				Description: r.Description, PrimaryUsage: r.PrimaryUsage,
			}
		},
		Changes: func(r *buildingLevelUpdate) []repository.Change {
			cs := change(nil, "building_id", r.BuildingID)
			cs = change(cs, "level_name", r.LevelName)
			cs = change(cs, "description", r.Description)
			return change(cs, "primary_usage", r.PrimaryUsage)
		},
		KeyOf:      func(l *model.BuildingLevel) string { return l.LevelName },
		CreateRefs: func(r *buildingLevelCreate) []Ref { return ref("Building", r.BuildingID, s.Buildings) },
		UpdateRefs: func(r *buildingLevelUpdate) []Ref { return ref("Building", r.BuildingID, s.Buildings) },
	}
	e.LevelsByBuilding = e.BuildingLevels.ListBy("building_id", "building_id", Ref{Label: "Building", Store: s.Buildings})

	e.BuildingSides = &Resource[model.BuildingSide, buildingSideCreate, buildingSideUpdate]{
		Label: "BuildingSide", Key: "name", Unique: true, Store: s.BuildingSides, Audit: audit,
		Build: func(r *buildingSideCreate, _ *model.User) *model.BuildingSide {
			return &model.BuildingSide{
				BuildingID: r.BuildingID, Name: r.Name,
				Description: r.Description, OrientationDegrees: r.OrientationDegrees,
			}
		},
		Changes: func(r *buildingSideUpdate) []repository.Change {
			cs := change(nil, "building_id", r.BuildingID)
			cs = change(cs, "name", r.Name)
			cs = change(cs, "description", r.Description)
			return change(cs, "orientation_degrees", r.OrientationDegrees)
		},
		KeyOf: func(b *model.BuildingSide) string { return b.Name },
		CreateRefs: func(r *buildingSideCreate) []Ref {
			return ref("Building", idPtr(r.BuildingID), s.Buildings)
		},
		UpdateRefs: func(r *buildingSideUpdate) []Ref { return ref("Building", r.BuildingID, s.Buildings) },
	}

	e.BuildingTypes = &Resource[model.BuildingType, namedCreate, namedUpdate]{
		Label: "BuildingType", Key: "name", Unique: true, Store: s.BuildingTypes, Audit: audit,
		Build: func(r *namedCreate, _ *model.User) *model.BuildingType {
			return &model.BuildingType{Name: r.Name, Description: r.Description}
		},
		Changes: (*namedUpdate).changes,
		KeyOf:   func(t *model.BuildingType) string { return t.Name },
	}

	e.Categories = &Resource[model.Category, namedCreate, namedUpdate]{
		Label: "Category", Key: "name", Unique: true, Store: s.Categories, Audit: audit,
		Build: func(r *namedCreate, _ *model.User) *model.Category {
			return &model.Category{Name: r.Name, Description: r.Description}
		},
		Changes: (*namedUpdate).changes,
		KeyOf:   func(c *model.Category) string { return c.Name },
	}

	e.SubCategories = &Resource[model.SubCategory, subCategoryCreate, subCategoryUpdate]{
		Label: "SubCategory", Key: "subcategory", Unique: true, Store: s.SubCategories, Audit: audit,
		Build: func(r *subCategoryCreate, _ *model.User) *model.SubCategory {
			return &model.SubCategory{CategoryID: r.CategoryID, SubCategory: r.SubCategory, Description: r.Description}
		},
		Changes: func(r *subCategoryUpdate) []repository.Change {
			cs := change(nil, "category_id", r.CategoryID)
			cs = change(cs, "subcategory", r.SubCategory)
			return change(cs, "description", r.Description)
		},
		KeyOf: func(sc *model.SubCategory) string { return sc.SubCategory },
		CreateRefs: func(r *subCategoryCreate) []Ref {
			return ref("Category", idPtr(r.CategoryID), s.Categories)
		},
		UpdateRefs: func(r *subCategoryUpdate) []Ref { return ref("Category", r.CategoryID, s.Categories) },
	}

	e.DefectTypes = &Resource[model.DefectType, namedCreate, namedUpdate]{
		Label: "DefectType", Key: "name", Unique: true, Store: s.DefectTypes, Audit: audit,
		Build: func(r *namedCreate, _ *model.User) *model.DefectType {
			return &model.DefectType{Name: r.Name, Description: r.Description}
		},
		Changes: (*namedUpdate).changes,
		KeyOf:   func(t *model.DefectType) string { return t.Name },
	}

	e.Defects = &Resource[model.Defect, defectCreate, defectUpdate]{
		Label: "Defect", Key: "name", Unique: true, Store: s.Defects, Audit: audit,
		Build: func(r *defectCreate, _ *model.User) *model.Defect {
			return &model.Defect{DefectTypeID: r.DefectTypeID, Name: r.Name, Description: r.Description}
		},
		Changes: func(r *defectUpdate) []repository.Change {
			cs := change(nil, "defect_type_id", r.DefectTypeID)
			cs = change(cs, "name", r.Name)
			return change(cs, "description", r.Description)
		},
		KeyOf: func(d *model.Defect) string { return d.Name },
		CreateRefs: func(r *defectCreate) []Ref {
			return ref("DefectType", idPtr(r.DefectTypeID), s.DefectTypes)
		},
		UpdateRefs: func(r *defectUpdate) []Ref { return ref("DefectType", r.DefectTypeID, s.DefectTypes) },
	}

	return e
}
