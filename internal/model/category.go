package model

// Categories group events by area of life. The set is fixed but stored values
// are not checked against it.
const (
	CategoryPersonal = "Personal"
	CategoryWork     = "Work"
	CategoryStudy    = "Study"
	CategoryOther    = "Other"
)

// DefaultCategory is assigned when an event is created without one.
const DefaultCategory = CategoryPersonal

// Categories lists the selectable categories in display order.
func Categories() []string {
	return []string{CategoryPersonal, CategoryWork, CategoryStudy, CategoryOther}
}
