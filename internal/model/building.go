package model

import "time"

// Building is a structure under inspection (`buildings`).  ProjectID is
// optional; older rows predate the project relation.
type Building struct {
	Base
	Name                  string     `json:"name"`                    // buildings.name
	Address               string     `json:"address"`                 // buildings.address
	YearBuilt             int        `json:"year_built"`              // buildings.year_built
	BuildingType          int        `json:"building_type"`           // buildings.building_type
	AreaSqMeters          float64    `json:"area_sq_meters"`          // buildings.area_sq_meters
	LevelsCount           int        `json:"levels_count"`            // buildings.levels_count
	SidesCount            int        `json:"sides_count"`             // buildings.sides_count
	OwnerID               int64      `json:"owner_id"`                // buildings.owner_id
	Latitude              float64    `json:"latitude"`                // buildings.latitude
	Longitude             float64    `json:"longitude"`               // buildings.longitude
	StatusConstruction    float64    `json:"status_construction"`     // buildings.status_construction
	ConstructionStartDate *time.Time `json:"construction_start_date"` // buildings.construction_start_date
	ConstructionEndDate   *time.Time `json:"construction_end_date"`   // buildings.construction_end_date
	ProjectID             *int64     `json:"project_id"`              // buildings.project_id -> projects.id
}

// BuildingLevel is one floor of a building (`building_levels`).  Level names
// repeat across buildings, so they are not unique.
type BuildingLevel struct {
	Base
	BuildingID   *int64  `json:"building_id"`   // building_levels.building_id -> buildings.id
	LevelName    string  `json:"level_name"`    // building_levels.level_name
	Description  *string `json:"description"`   // building_levels.description
	PrimaryUsage *string `json:"primary_usage"` // building_levels.primary_usage
}

// BuildingSide is a facade of a building (`building_sides`).
type BuildingSide struct {
	Base
	BuildingID         int64    `json:"building_id"`         // building_sides.building_id -> buildings.id
	Name               string   `json:"name"`                // building_sides.name
	Description        *string  `json:"description"`         // building_sides.description
	OrientationDegrees *float64 `json:"orientation_degrees"` // building_sides.orientation_degrees
}

// BuildingType is a catalogue entry such as "Apartment" (`building_types`).
type BuildingType struct {
	Base
	Name        string  `json:"name"`        // building_types.name
	Description *string `json:"description"` // building_types.description
}
