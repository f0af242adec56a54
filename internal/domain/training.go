package domain

// Employee roster entry (collection "employees")
type Employee struct {
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"` // "Last, First"
	LastName  string `json:"lastName,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	Trade     string `json:"trade,omitempty"`
}

// DisplayName prefers the combined name and falls back to "Last, First".
func (e Employee) DisplayName() string {
	if e.Name != "" {
		return e.Name
	}
	if e.LastName == "" {
		return e.FirstName
	}
	if e.FirstName == "" {
		return e.LastName
	}
	return e.LastName + ", " + e.FirstName
}

// Training one completed or scheduled training (collection "trainings")
type Training struct {
	ID               string `json:"id"`
	EmployeeID       string `json:"employeeId"`
	Training         string `json:"training"`
	Date             string `json:"date"` // YYYY-MM-DD
	Type             string `json:"type,omitempty"`
	Location         string `json:"location,omitempty"`
	Site             string `json:"site,omitempty"`
	Trade            string `json:"trade,omitempty"`
	Expiration       string `json:"expiration,omitempty"`
	Prerequisites    string `json:"prerequisites,omitempty"`
	EmploymentLength string `json:"employmentLength,omitempty"`
}

// Job trade/site position (collection "jobs")
type Job struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Trade string `json:"trade,omitempty"`
	Site  string `json:"site,omitempty"`
}
