package model

import "time"

// Dashboard projections. Every call re-queries the stores; nothing here is
// cached.

type PatientDashboard struct {
	UpcomingAppointments []*Appointment     `json:"upcoming_appointments"`
	RecentRecords        []*MedicalRecord   `json:"recent_records"`
	HealthStats          PatientHealthStats `json:"health_stats"`
}

type PatientHealthStats struct {
	TotalAppointments     int64 `json:"total_appointments"`
	CompletedAppointments int64 `json:"completed_appointments"`
	TotalRecords          int64 `json:"total_records"`
	UpcomingCount         int   `json:"upcoming_count"`
}

type DoctorDashboard struct {
	TodayAppointments    []*Appointment  `json:"today_appointments"`
	UpcomingAppointments []*Appointment  `json:"upcoming_appointments"`
	RecentPatients       []RecentPatient `json:"recent_patients"`
	Stats                DoctorStats     `json:"stats"`
}

// RecentPatient is a patient the doctor saw most recently, projected from the
// appointment history.
type RecentPatient struct {
	PublicUser
	LastVisit time.Time `json:"last_visit"`
}

type DoctorStats struct {
	TotalAppointments     int64 `json:"total_appointments"`
	ScheduledAppointments int64 `json:"scheduled_appointments"`
	CompletedAppointments int64 `json:"completed_appointments"`
	TodayCount            int   `json:"today_count"`
	RecordsAuthored       int64 `json:"records_authored"`
}

type AdminDashboard struct {
	Stats AdminStats `json:"stats"`
}

type AdminStats struct {
	TotalUsers          int64 `json:"total_users"`
	ActivePatients      int64 `json:"active_patients"`
	ActiveDoctors       int64 `json:"active_doctors"`
	TotalAppointments   int64 `json:"total_appointments"`
	TodayAppointments   int64 `json:"today_appointments"`
	ActiveConsultations int64 `json:"active_consultations"`
	TotalRecords        int64 `json:"total_records"`
}
