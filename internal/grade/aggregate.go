package grade

import (
	"sort"

	"gradetrack/internal/shared"
)

// Recompute recalculates every projected course grade and the overall final
// grade of the user, in place. courses maps course id to the shared course
// document; finalized course grades are published into the matching course
// ledger. The returned slice holds the ids of courses whose ledger changed.
//
// A course whose assignments carry zero total weight has no defined grade
// and is skipped entirely: its projected grade is left untouched and it
// contributes nothing to the overall grade.
func Recompute(u *shared.User, courses map[string]*shared.Course) []string {
	var overall, totalWeight float64
	touched := make(map[string]bool)

	for i := range u.AcademicPath {
		sem := &u.AcademicPath[i]
		for j := range sem.Courses {
			enrolled := &sem.Courses[j]

			var weightSum, gradeSum float64
			for _, a := range enrolled.Assignments {
				weightSum += a.Weight
				gradeSum += a.Grade * a.Weight
			}
			if weightSum == 0 {
				continue
			}

			courseGrade := shared.Round2(gradeSum / weightSum)
			enrolled.ProjectedFinalGrade = courseGrade

			course, ok := courses[enrolled.CourseID]
			if !ok {
				continue
			}

			overall += courseGrade * course.Weight
			totalWeight += course.Weight

			if enrolled.IsFinalGrade {
				publishFinalGrade(course, sem.Semester, u.ID, courseGrade)
				touched[course.ID] = true
			}
		}
	}

	if totalWeight > 0 {
		u.OverallFinalGrade = shared.Round2(overall / totalWeight)
	} else {
		u.OverallFinalGrade = 0
	}

	ids := make([]string, 0, len(touched))
	for id := range touched {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// publishFinalGrade upserts the user's finalized grade into the course
// ledger, creating the semester bucket if absent.
func publishFinalGrade(c *shared.Course, semester, userID string, grade float64) {
	idx := c.FindSemesterGrades(semester)
	if idx == -1 {
		c.AllGrades = append(c.AllGrades, shared.SemesterGrades{
			Semester: semester,
			Grades:   map[string]float64{userID: grade},
		})
		return
	}

	if c.AllGrades[idx].Grades == nil {
		c.AllGrades[idx].Grades = make(map[string]float64)
	}
	c.AllGrades[idx].Grades[userID] = grade
}
