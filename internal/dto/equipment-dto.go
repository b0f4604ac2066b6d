package dto

type UnitFilterDTO struct {
	GroupCode string `query:"group_code"`
	Status    string `query:"status"`
	Page      int    `query:"page"`
	Limit     int    `query:"limit"`
}

type GroupAvailabilityDTO struct {
	GroupCode        string `json:"group_code"`
	PhysicalAvailable int   `json:"physical_available"`
	Outstanding      int    `json:"outstanding"`
	VirtualAvailable int    `json:"virtual_available"`
}
