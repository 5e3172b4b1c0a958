package models

import "time"

type MaintenanceCategory string

const (
	CategoryPlumbing   MaintenanceCategory = "Plumbing"
	CategoryElectrical MaintenanceCategory = "Electrical"
	CategoryFurniture  MaintenanceCategory = "Furniture"
	CategoryOther      MaintenanceCategory = "Other"
)

func (c MaintenanceCategory) Valid() bool {
	switch c {
	case CategoryPlumbing, CategoryElectrical, CategoryFurniture, CategoryOther:
		return true
	}
	return false
}

type MaintenancePriority string

const (
	PriorityLow      MaintenancePriority = "Low"
	PriorityMedium   MaintenancePriority = "Medium"
	PriorityHigh     MaintenancePriority = "High"
	PriorityCritical MaintenancePriority = "Critical"
)

func (p MaintenancePriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

type MaintenanceStatus string

const (
	MaintenanceOpen       MaintenanceStatus = "Open"
	MaintenanceInProgress MaintenanceStatus = "In Progress"
	MaintenanceResolved   MaintenanceStatus = "Resolved"
	MaintenanceClosed     MaintenanceStatus = "Closed"
)

func (s MaintenanceStatus) Valid() bool {
	switch s {
	case MaintenanceOpen, MaintenanceInProgress, MaintenanceResolved, MaintenanceClosed:
		return true
	}
	return false
}

// Done reports whether the status counts as resolved.
func (s MaintenanceStatus) Done() bool {
	return s == MaintenanceResolved || s == MaintenanceClosed
}

type MaintenanceRequest struct {
	ID              uint                `gorm:"primaryKey" json:"id"`
	TenantID        uint                `gorm:"not null;index" json:"tenant_id"`
	Tenant          *Tenant             `gorm:"foreignKey:TenantID" json:"tenant,omitempty"`
	Category        MaintenanceCategory `gorm:"type:varchar(20);not null;index" json:"category"`
	Priority        MaintenancePriority `gorm:"type:varchar(20);not null" json:"priority"`
	Description     string              `gorm:"type:text" json:"description"`
	Status          MaintenanceStatus   `gorm:"type:varchar(20);not null;index" json:"status"`
	RequestDate     time.Time           `gorm:"not null" json:"request_date"`
	ResolvedDate    *time.Time          `json:"resolved_date"`
	ImagePath       *string             `json:"image_path"`
	ResolutionNotes *string             `json:"resolution_notes"`
}
