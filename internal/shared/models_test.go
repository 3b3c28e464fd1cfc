package shared

import (
	"strings"
	"testing"
)

func TestRound2(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{82.754999, 82.75},
		{82.755, 82.76},
		{0, 0},
		{99.999, 100},
	}
	for _, c := range cases {
		if got := Round2(c.in); got != c.want {
			t.Errorf("Round2(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestUserFindSemester(t *testing.T) {
	u := User{AcademicPath: []Semester{
		{Semester: "2024-fall"},
		{Semester: "2025-spring"},
	}}

	if idx := u.FindSemester("2025-spring"); idx != 1 {
		t.Errorf("FindSemester = %d, want 1", idx)
	}
	if idx := u.FindSemester("2030-fall"); idx != -1 {
		t.Errorf("FindSemester for unknown = %d, want -1", idx)
	}
}

func TestSemesterFindCourse(t *testing.T) {
	s := Semester{Courses: []EnrolledCourse{
		{CourseID: "crs_1"},
		{CourseID: "crs_2"},
	}}

	if idx := s.FindCourse("crs_2"); idx != 1 {
		t.Errorf("FindCourse = %d, want 1", idx)
	}
	if idx := s.FindCourse("crs_9"); idx != -1 {
		t.Errorf("FindCourse for unknown = %d, want -1", idx)
	}
}

func TestCounterOps(t *testing.T) {
	cases := []struct {
		name       string
		prev, next string
		inc, dec   bool
	}{
		{"first attach", "", "gsys_1", true, false},
		{"switch to another entity", "gsys_1", "gsys_2", true, true},
		{"re-attach the same entity", "gsys_1", "gsys_1", false, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			inc, dec := CounterOps(c.prev, c.next)
			if inc != c.inc || dec != c.dec {
				t.Errorf("CounterOps(%q, %q) = %v/%v, want %v/%v",
					c.prev, c.next, inc, dec, c.inc, c.dec)
			}
		})
	}
}

func TestGenerateID(t *testing.T) {
	id := GenerateID("crs")
	if !strings.HasPrefix(id, "crs_") {
		t.Errorf("GenerateID = %s, want crs_ prefix", id)
	}
}
