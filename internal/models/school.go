package models

// The tables below belong to the wider school system. This service only reads them.

type Class struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	Grade     int    `json:"grade" gorm:"not null;index"`
	GradeName string `json:"grade_name" gorm:"not null;size:50"`
	Section   string `json:"section" gorm:"size:10"`
}

func (Class) TableName() string {
	return "classes"
}

func (c *Class) DisplayName() string {
	if c.Section == "" {
		return c.GradeName
	}
	return c.GradeName + " " + c.Section
}

type Subject struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"not null;size:100"`
	Code string `json:"code" gorm:"size:20"`
}

func (Subject) TableName() string {
	return "subjects"
}

type ClassSubject struct {
	ClassID   uint `json:"class_id" gorm:"primaryKey"`
	SubjectID uint `json:"subject_id" gorm:"primaryKey"`
}

func (ClassSubject) TableName() string {
	return "class_subjects"
}

type Student struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	FullName string `json:"full_name" gorm:"not null;size:150"`
}

func (Student) TableName() string {
	return "students"
}

type Enrollment struct {
	ClassID    uint `json:"class_id" gorm:"primaryKey"`
	StudentID  uint `json:"student_id" gorm:"primaryKey"`
	RollNumber int  `json:"roll_number" gorm:"not null"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}

// RosterStudent is a student as listed on a class roster.
type RosterStudent struct {
	StudentID  uint   `json:"student_id"`
	FullName   string `json:"full_name"`
	RollNumber int    `json:"roll_number"`
}
