package grade

import (
	"testing"

	"gradetrack/internal/shared"
)

func TestRecompute(t *testing.T) {
	t.Run("weighted course grade", func(t *testing.T) {
		u := &shared.User{
			ID: "usr_1",
			AcademicPath: []shared.Semester{
				{
					Semester: "2025-fall",
					Courses: []shared.EnrolledCourse{
						{
							CourseID: "crs_1",
							Assignments: []shared.Assignment{
								{ID: "asg_1", Name: "Midterm", Weight: 45, Grade: 80},
								{ID: "asg_2", Name: "Final", Weight: 55, Grade: 85},
							},
						},
					},
				},
			},
		}
		courses := map[string]*shared.Course{
			"crs_1": {ID: "crs_1", Weight: 1},
		}

		Recompute(u, courses)

		got := u.AcademicPath[0].Courses[0].ProjectedFinalGrade
		if got != 82.75 {
			t.Errorf("projected grade = %v, want 82.75", got)
		}
		if u.OverallFinalGrade != 82.75 {
			t.Errorf("overall grade = %v, want 82.75", u.OverallFinalGrade)
		}
	})

	t.Run("overall weighted across courses", func(t *testing.T) {
		u := &shared.User{
			ID: "usr_1",
			AcademicPath: []shared.Semester{
				{
					Semester: "2025-fall",
					Courses: []shared.EnrolledCourse{
						{
							CourseID: "crs_1",
							Assignments: []shared.Assignment{
								{ID: "asg_1", Weight: 100, Grade: 90},
							},
						},
						{
							CourseID: "crs_2",
							Assignments: []shared.Assignment{
								{ID: "asg_2", Weight: 100, Grade: 60},
							},
						},
					},
				},
			},
		}
		courses := map[string]*shared.Course{
			"crs_1": {ID: "crs_1", Weight: 3},
			"crs_2": {ID: "crs_2", Weight: 1},
		}

		Recompute(u, courses)

		// (90*3 + 60*1) / 4 = 82.5
		if u.OverallFinalGrade != 82.5 {
			t.Errorf("overall grade = %v, want 82.5", u.OverallFinalGrade)
		}
	})

	t.Run("zero total weight course is skipped", func(t *testing.T) {
		u := &shared.User{
			ID: "usr_1",
			AcademicPath: []shared.Semester{
				{
					Semester: "2025-fall",
					Courses: []shared.EnrolledCourse{
						{
							CourseID:            "crs_1",
							ProjectedFinalGrade: 77,
							Assignments: []shared.Assignment{
								{ID: "asg_1", Weight: 0, Grade: 90},
							},
						},
						{
							CourseID: "crs_2",
							Assignments: []shared.Assignment{
								{ID: "asg_2", Weight: 50, Grade: 70},
							},
						},
					},
				},
			},
		}
		courses := map[string]*shared.Course{
			"crs_1": {ID: "crs_1", Weight: 2},
			"crs_2": {ID: "crs_2", Weight: 1},
		}

		Recompute(u, courses)

		if got := u.AcademicPath[0].Courses[0].ProjectedFinalGrade; got != 77 {
			t.Errorf("skipped course projected grade = %v, want untouched 77", got)
		}
		if u.OverallFinalGrade != 70 {
			t.Errorf("overall grade = %v, want 70 (zero-weight course excluded)", u.OverallFinalGrade)
		}
	})

	t.Run("finalized grade published to course ledger", func(t *testing.T) {
		u := &shared.User{
			ID: "usr_1",
			AcademicPath: []shared.Semester{
				{
					Semester: "2025-fall",
					Courses: []shared.EnrolledCourse{
						{
							CourseID:     "crs_1",
							IsFinalGrade: true,
							Assignments: []shared.Assignment{
								{ID: "asg_1", Weight: 100, Grade: 88},
							},
						},
					},
				},
			},
		}
		c := &shared.Course{ID: "crs_1", Weight: 1}
		courses := map[string]*shared.Course{"crs_1": c}

		touched := Recompute(u, courses)

		if len(touched) != 1 || touched[0] != "crs_1" {
			t.Fatalf("touched = %v, want [crs_1]", touched)
		}
		if len(c.AllGrades) != 1 || c.AllGrades[0].Semester != "2025-fall" {
			t.Fatalf("ledger bucket missing: %+v", c.AllGrades)
		}
		if got := c.AllGrades[0].Grades["usr_1"]; got != 88 {
			t.Errorf("ledger grade = %v, want 88", got)
		}
	})

	t.Run("republishing overwrites ledger entry", func(t *testing.T) {
		c := &shared.Course{
			ID:     "crs_1",
			Weight: 1,
			AllGrades: []shared.SemesterGrades{
				{Semester: "2025-fall", Grades: map[string]float64{"usr_1": 50}},
			},
		}
		u := &shared.User{
			ID: "usr_1",
			AcademicPath: []shared.Semester{
				{
					Semester: "2025-fall",
					Courses: []shared.EnrolledCourse{
						{
							CourseID:     "crs_1",
							IsFinalGrade: true,
							Assignments: []shared.Assignment{
								{ID: "asg_1", Weight: 100, Grade: 95},
							},
						},
					},
				},
			},
		}

		Recompute(u, map[string]*shared.Course{"crs_1": c})

		if got := c.AllGrades[0].Grades["usr_1"]; got != 95 {
			t.Errorf("ledger grade = %v, want 95", got)
		}
		if len(c.AllGrades) != 1 {
			t.Errorf("ledger has %d buckets, want 1", len(c.AllGrades))
		}
	})

	t.Run("no courses yields zero overall", func(t *testing.T) {
		u := &shared.User{ID: "usr_1", OverallFinalGrade: 42}

		Recompute(u, map[string]*shared.Course{})

		if u.OverallFinalGrade != 0 {
			t.Errorf("overall grade = %v, want 0", u.OverallFinalGrade)
		}
	})
}
