package model

import "time"

// MaxShortlistEntries caps the shortlist per student.
const MaxShortlistEntries = 20

// ShortlistEntry is a candidate supervisor a student is considering
type ShortlistEntry struct {
	ID                    int64     `json:"id"`
	StudentID             int64     `json:"student_id"`
	AcademicianID         int64     `json:"academician_id"`
	PostgraduateProgramID *int64    `json:"postgraduate_program_id"`
	CreatedAt             time.Time `json:"created_at"`
}
