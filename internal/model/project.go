package model

// Project is the top-level grouping of inspected buildings (`projects`).
type Project struct {
	Base
	Name          string `json:"name"`           // projects.name
	Description   string `json:"description"`    // projects.description
	AddressDetail string `json:"address_detail"` // projects.address_detail
	Latitude      string `json:"latitude"`       // projects.latitude
	Longitude     string `json:"longitude"`      // projects.longitude
	CustomerID    int64  `json:"customer_id"`    // projects.customer_id
	Status        int    `json:"status"`         // projects.status
	CreatedBy     int64  `json:"created_by"`     // projects.created_by (users.id of the creator)
}
