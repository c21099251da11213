package model

import (
	"strings"
	"time"
)

// Equipment is a single tracked piece of IT equipment.
type Equipment struct {
	ID         int64      `json:"id" yaml:"id"`
	Name       string     `json:"name" yaml:"name"`
	Category   Category   `json:"category" yaml:"category"`
	AssignedTo string     `json:"assigned_to" yaml:"assigned_to"`
	LastAudit  *time.Time `json:"last_audit" yaml:"last_audit"`
	HasImage   bool       `json:"has_image" yaml:"has_image"`
}

// Unassigned is the assigned_to value of equipment no employee holds.
const Unassigned = "Unassigned"

// Assigned reports whether the equipment is held by an employee.
func (e Equipment) Assigned() bool {
	return e.AssignedTo != Unassigned
}

// Category is the kind of equipment.
type Category string

// Equipment categories.
const (
	CategoryMonitor  Category = "Monitor"
	CategoryCase     Category = "Case"
	CategoryMouse    Category = "Mouse"
	CategoryKeyboard Category = "Keyboard"
	CategoryLaptop   Category = "Laptop"
)

// AllCategories disables category filtering when listing equipment.
const AllCategories Category = "All categories"

// Categories lists the valid categories in display order.
var Categories = []Category{
	CategoryMonitor,
	CategoryCase,
	CategoryMouse,
	CategoryKeyboard,
	CategoryLaptop,
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory validates a category name. Matching is exact.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.TrimSpace(s))
	if c == "" {
		return "", &ValidationError{Field: "category", Message: "category is required"}
	}
	if !c.Valid() {
		return "", &ValidationError{Field: "category", Message: "unknown category " + string(c)}
	}
	return c, nil
}

// NormalizeAssignee maps an empty assignee or the sentinel literal to Unassigned.
func NormalizeAssignee(assignedTo string) string {
	assignedTo = CleanText(assignedTo)
	if assignedTo == "" {
		return Unassigned
	}
	return assignedTo
}

// NewEquipment cleans and validates the fields of a new equipment record.
func NewEquipment(name, category, assignedTo string) (Equipment, error) {
	e := Equipment{Name: CleanText(name)}
	if e.Name == "" {
		return Equipment{}, &ValidationError{Field: "name", Message: "name is required"}
	}
	c, err := ParseCategory(category)
	if err != nil {
		return Equipment{}, err
	}
	e.Category = c
	e.AssignedTo = NormalizeAssignee(assignedTo)
	return e, nil
}
