package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CourseLevel string

const (
	LevelBeginner     CourseLevel = "beginner"
	LevelIntermediate CourseLevel = "intermediate"
	LevelAdvanced     CourseLevel = "advanced"
)

type Course struct {
	ID          string      `json:"id" gorm:"primaryKey;size:36"`
	Title       string      `json:"title" gorm:"not null;size:255" validate:"required,max=255"`
	Description string      `json:"description" gorm:"type:text"`
	Category    string      `json:"category" gorm:"size:100;index"`
	Level       CourseLevel `json:"level" gorm:"size:20;default:beginner;index"`
	ImageURL    *string     `json:"image_url" gorm:"size:500"`
	IsPublished bool        `json:"is_published" gorm:"default:false;index"`

	InstructorID string `json:"instructor_id" gorm:"not null;index;size:255"`
	StudentCount int    `json:"student_count" gorm:"default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Instructor User     `json:"instructor" gorm:"foreignKey:InstructorID"`
	Lessons    []Lesson `json:"lessons,omitempty" gorm:"foreignKey:CourseID"`
	Quizzes    []Quiz   `json:"quizzes,omitempty" gorm:"foreignKey:CourseID"`

	// Computed
	LessonCount int `json:"lesson_count" gorm:"-"`
	QuizCount   int `json:"quiz_count" gorm:"-"`
}

func (Course) TableName() string {
	return "courses"
}

func (c *Course) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

type Lesson struct {
	ID       string `json:"id" gorm:"primaryKey;size:36"`
	CourseID string `json:"course_id" gorm:"not null;index;size:36"`

	Title         string  `json:"title" gorm:"not null;size:255" validate:"required,max=255"`
	Content       string  `json:"content" gorm:"type:text"`
	VideoURL      *string `json:"video_url" gorm:"size:500"`
	OrderIndex    int     `json:"order_index" gorm:"not null;default:0;index"`
	IsFreePreview bool    `json:"is_free_preview" gorm:"default:false"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Course Course `json:"-" gorm:"foreignKey:CourseID"`
}

func (Lesson) TableName() string {
	return "lessons"
}

func (l *Lesson) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

type Enrollment struct {
	ID        string `json:"id" gorm:"primaryKey;size:36"`
	StudentID string `json:"student_id" gorm:"not null;size:255;uniqueIndex:idx_enrollment_student_course"`
	CourseID  string `json:"course_id" gorm:"not null;size:36;uniqueIndex:idx_enrollment_student_course"`

	// Progress is a percentage in [0,100].
	Progress    float64    `json:"progress" gorm:"default:0"`
	CompletedAt *time.Time `json:"completed_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Student User   `json:"student" gorm:"foreignKey:StudentID"`
	Course  Course `json:"course" gorm:"foreignKey:CourseID"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}

func (e *Enrollment) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}
