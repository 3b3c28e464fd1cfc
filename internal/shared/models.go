// ============================================================================
// internal/shared/models.go
// Shared data models and structs for MongoDB documents
// ============================================================================

package shared

import (
	"math"
	"time"
)

// ============================================================================
// User Models
// ============================================================================

// User represents a registered account and its academic path.
type User struct {
	ID                string     `bson:"_id" json:"id"`
	Username          string     `bson:"username" json:"username"`
	Password          string     `bson:"password" json:"-"` // Never expose in JSON
	Role              string     `bson:"role" json:"role"`  // user, admin
	GradeSysID        string     `bson:"gradeSysId,omitempty" json:"gradeSysId,omitempty"`
	OverallFinalGrade float64    `bson:"overallFinalGrade" json:"overallFinalGrade"`
	AcademicPath      []Semester `bson:"academicPath" json:"academicPath"`
	CreatedAt         time.Time  `bson:"created_at" json:"created_at"`
}

// Semester is one entry of a user's academic path.
type Semester struct {
	Semester string           `bson:"semester" json:"semester"`
	Courses  []EnrolledCourse `bson:"courses" json:"courses"`
}

// EnrolledCourse is a user's enrollment in a shared course for one semester.
type EnrolledCourse struct {
	CourseID            string       `bson:"courseId" json:"courseId"`
	CourseEvalID        string       `bson:"courseEvalId,omitempty" json:"courseEvalId,omitempty"`
	Assignments         []Assignment `bson:"assignments" json:"assignments"`
	ProjectedFinalGrade float64      `bson:"projectedFinalGrade" json:"projectedFinalGrade"`
	IsFinalGrade        bool         `bson:"isFinalGrade" json:"isFinalGrade"`
}

// Assignment is one graded item of an enrolled course.
type Assignment struct {
	ID     string  `bson:"id" json:"id"`
	Name   string  `bson:"name" json:"name"`
	Weight float64 `bson:"weight" json:"weight"`
	Grade  float64 `bson:"grade" json:"grade"`
}

// ============================================================================
// Course Models
// ============================================================================

// Course is a shared course document. AllGrades is the course-wide ledger of
// finalized grades, keyed by semester then by user id.
type Course struct {
	ID          string           `bson:"_id" json:"id"`
	SchoolName  string           `bson:"schoolName" json:"schoolName"`
	CourseCode  string           `bson:"courseCode" json:"courseCode"`
	CourseName  string           `bson:"courseName" json:"courseName"`
	Weight      float64          `bson:"weight" json:"weight"` // credit weight
	MaxPoints   float64          `bson:"maxPoints" json:"maxPoints"`
	NumStudents int32            `bson:"numStudents" json:"numStudents"`
	AllGrades   []SemesterGrades `bson:"allGrades" json:"allGrades"`
}

// SemesterGrades maps user id to finalized grade for one semester offering.
type SemesterGrades struct {
	Semester string             `bson:"semester" json:"semester"`
	Grades   map[string]float64 `bson:"grades" json:"grades"`
}

// ============================================================================
// Grade System Models
// ============================================================================

// GradeSystem is a shared, reference-counted set of grade bands.
type GradeSystem struct {
	ID        string      `bson:"_id" json:"id"`
	Name      string      `bson:"name" json:"name"`
	MaxPoints float64     `bson:"maxPoints" json:"maxPoints"`
	UsedBy    int32       `bson:"usedBy" json:"usedBy"`
	System    []GradeBand `bson:"system" json:"system"`
}

// GradeBand maps a point range to a grade label. Bands of a valid system are
// sorted ascending by MinPoints and do not overlap.
type GradeBand struct {
	Grade     string  `bson:"grade" json:"grade"`
	MinPoints float64 `bson:"minPoints" json:"minPoints"`
	MaxPoints float64 `bson:"maxPoints" json:"maxPoints"`
}

// ============================================================================
// Course Evaluation Models
// ============================================================================

// CourseEval is a shared, reference-counted grading breakdown template for a
// (course, semester) offering.
type CourseEval struct {
	ID          string           `bson:"_id" json:"id"`
	Name        string           `bson:"name,omitempty" json:"name,omitempty"`
	CourseID    string           `bson:"courseId" json:"courseId"`
	Semester    string           `bson:"semester" json:"semester"`
	UsedBy      int32            `bson:"usedBy" json:"usedBy"`
	Assignments []EvalAssignment `bson:"assignments" json:"assignments"`
}

// EvalAssignment is one (name, weight) pair of an evaluation template.
type EvalAssignment struct {
	Name   string  `bson:"name" json:"name"`
	Weight float64 `bson:"weight" json:"weight"`
}

// ============================================================================
// Helper Methods
// ============================================================================

// FindSemester returns the index of the named semester in the academic path,
// or -1 if absent.
func (u *User) FindSemester(name string) int {
	for i := range u.AcademicPath {
		if u.AcademicPath[i].Semester == name {
			return i
		}
	}
	return -1
}

// FindCourse returns the index of the enrolled course within the semester,
// or -1 if absent.
func (s *Semester) FindCourse(courseID string) int {
	for i := range s.Courses {
		if s.Courses[i].CourseID == courseID {
			return i
		}
	}
	return -1
}

// FindSemesterGrades returns the index of the ledger bucket for the named
// semester, or -1 if absent.
func (c *Course) FindSemesterGrades(semester string) int {
	for i := range c.AllGrades {
		if c.AllGrades[i].Semester == semester {
			return i
		}
	}
	return -1
}

// Round2 rounds to two decimal places, the precision used for all stored
// grade values.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ============================================================================
// Constants
// ============================================================================

const (
	// User roles
	RoleUser  = "user"
	RoleAdmin = "admin"

	// Collection names
	ColUsers        = "users"
	ColCourses      = "courses"
	ColGradeSystems = "gradeSystems"
	ColCourseEvals  = "courseEvals"
)
