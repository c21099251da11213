package model

import "fmt"

// Employee is a person in the employee directory.
type Employee struct {
	ID        int64  `json:"id" yaml:"id"`
	FirstName string `json:"first_name" yaml:"first_name"`
	LastName  string `json:"last_name" yaml:"last_name"`
	Company   string `json:"company" yaml:"company"`
}

// Label returns the display label used to reference the employee from equipment.
func (e Employee) Label() string {
	return EmployeeLabel(e.FirstName, e.LastName, e.Company)
}

// EmployeeLabel formats a display label as "First Last (Company)".
func EmployeeLabel(firstName, lastName, company string) string {
	return fmt.Sprintf("%s %s (%s)", firstName, lastName, company)
}

// NewEmployee cleans and validates the employee fields.
func NewEmployee(firstName, lastName, company string) (Employee, error) {
	e := Employee{
		FirstName: CleanText(firstName),
		LastName:  CleanText(lastName),
		Company:   CleanText(company),
	}
	switch {
	case e.FirstName == "":
		return Employee{}, &ValidationError{Field: "first_name", Message: "first name is required"}
	case e.LastName == "":
		return Employee{}, &ValidationError{Field: "last_name", Message: "last name is required"}
	case e.Company == "":
		return Employee{}, &ValidationError{Field: "company", Message: "company is required"}
	}
	return e, nil
}
