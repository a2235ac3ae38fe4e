package domain

import "time"

// Application is one submitted applicant form. Rows are only ever inserted.
type Application struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Name           string    `gorm:"size:255;not null" json:"name"`
	Email          *string   `gorm:"size:255" json:"email"` // NULL when the applicant left it empty
	Phone          string    `gorm:"size:50;not null" json:"phone"`
	Age            int       `gorm:"not null" json:"age"`
	Qualification  string    `gorm:"size:255;not null" json:"qualification"`
	GraduationYear int       `gorm:"not null" json:"graduation_year"`
	Location       string    `gorm:"size:255;not null" json:"location"`
	VideoFilename  string    `gorm:"size:255;not null;uniqueIndex" json:"video_filename"`
	UploadedAt     time.Time `gorm:"not null;index" json:"uploaded_at"`
}

// ApplicationFilter narrows admin listings. Empty fields are ignored.
type ApplicationFilter struct {
	Search   string
	Name     string
	Email    string
	Phone    string
	Location string
	Date     *time.Time
}

// ApplicationSubmitted is published once an application has been committed.
type ApplicationSubmitted struct {
	ApplicationID uint      `json:"application_id"`
	Name          string    `json:"name"`
	Email         *string   `json:"email,omitempty"`
	VideoFilename string    `json:"video_filename"`
	SubmittedAt   time.Time `json:"submitted_at"`
}
