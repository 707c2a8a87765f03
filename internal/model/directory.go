package model

// Administrative profile entities managed through the admin surface. They are
// descriptive only; scheduling goes through User rows with role DOCTOR.

// Doctor rating and department capacity bounds.
const (
	MinDoctorRating       = 0.0
	MaxDoctorRating       = 5.0
	MinDepartmentCapacity = 1
)

type Doctor struct {
	Base
	FirstName       string  `db:"first_name" json:"first_name"`
	LastName        string  `db:"last_name" json:"last_name"`
	Email           string  `db:"email" json:"email"`
	PhoneNumber     string  `db:"phone_number" json:"phone_number"`
	Specialization  string  `db:"specialization" json:"specialization"`
	Department      string  `db:"department" json:"department,omitempty"`
	LicenseNumber   string  `db:"license_number" json:"license_number"`
	Experience      string  `db:"experience" json:"experience,omitempty"`
	Education       string  `db:"education" json:"education,omitempty"`
	ConsultationFee float64 `db:"consultation_fee" json:"consultation_fee"`
	Rating          float64 `db:"rating" json:"rating"`
	PatientCount    int     `db:"patient_count" json:"patient_count"`
	IsAvailable     bool    `db:"is_available" json:"is_available"`
}

type Department struct {
	Base
	Name           string `db:"name" json:"name"`
	Description    string `db:"description" json:"description,omitempty"`
	Head           string `db:"head" json:"head,omitempty"`
	Location       string `db:"location" json:"location,omitempty"`
	Phone          string `db:"phone" json:"phone,omitempty"`
	Email          string `db:"email" json:"email,omitempty"`
	Capacity       int    `db:"capacity" json:"capacity"`
	Services       string `db:"services" json:"services,omitempty"`
	OperatingHours string `db:"operating_hours" json:"operating_hours,omitempty"`
	DoctorCount    int    `db:"doctor_count" json:"doctor_count"`
}

type CreateDoctorRequest struct {
	FirstName       string  `json:"first_name" binding:"required,max=50"`
	LastName        string  `json:"last_name" binding:"required,max=50"`
	Email           string  `json:"email" binding:"required,email,max=100"`
	PhoneNumber     string  `json:"phone_number" binding:"required,max=20"`
	Specialization  string  `json:"specialization" binding:"required,max=100"`
	Department      string  `json:"department" binding:"max=100"`
	LicenseNumber   string  `json:"license_number" binding:"required,max=50"`
	Experience      string  `json:"experience" binding:"max=50"`
	Education       string  `json:"education" binding:"max=200"`
	ConsultationFee float64 `json:"consultation_fee" binding:"min=0"`
	Rating          float64 `json:"rating" binding:"min=0,max=5"`
}

type CreateDepartmentRequest struct {
	Name           string `json:"name" binding:"required,max=100"`
	Description    string `json:"description" binding:"max=500"`
	Head           string `json:"head" binding:"max=100"`
	Location       string `json:"location" binding:"max=200"`
	Phone          string `json:"phone" binding:"max=20"`
	Email          string `json:"email" binding:"omitempty,email,max=100"`
	Capacity       int    `json:"capacity" binding:"required,min=1"`
	Services       string `json:"services" binding:"max=1000"`
	OperatingHours string `json:"operating_hours" binding:"max=100"`
}
