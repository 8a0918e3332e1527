package model

// DefectType classifies defects, e.g. "Crack" (`defect_types`).
type DefectType struct {
	Base
	Name        string  `json:"name"`        // defect_types.name
	Description *string `json:"description"` // defect_types.description
}

// Defect is a catalogued defect of a given type (`defects`).
type Defect struct {
	Base
	DefectTypeID int64   `json:"defect_type_id"` // defects.defect_type_id -> defect_types.id
	Name         string  `json:"name"`           // defects.name
	Description  *string `json:"description"`    // defects.description
}
