package courseeval

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"gradetrack/internal/shared"
)

func TestSearchFilter(t *testing.T) {
	t.Run("empty query matches everything", func(t *testing.T) {
		filter := searchFilter(SearchQuery{})
		if len(filter) != 0 {
			t.Errorf("filter = %v, want empty", filter)
		}
	})

	t.Run("course and semester filter directly", func(t *testing.T) {
		filter := searchFilter(SearchQuery{CourseID: "crs_1", Semester: "2025-fall"})
		if filter["courseId"] != "crs_1" {
			t.Errorf("courseId filter = %v, want crs_1", filter["courseId"])
		}
		if filter["semester"] != "2025-fall" {
			t.Errorf("semester filter = %v, want 2025-fall", filter["semester"])
		}
	})

	t.Run("name filters as case-insensitive substring", func(t *testing.T) {
		filter := searchFilter(SearchQuery{Name: "Standard"})

		nameFilter, ok := filter["name"].(bson.M)
		if !ok {
			t.Fatalf("name filter = %v, want bson.M", filter["name"])
		}
		re, ok := nameFilter["$regex"].(primitive.Regex)
		if !ok {
			t.Fatalf("name filter = %v, want $regex", nameFilter)
		}
		if re.Pattern != "Standard" || re.Options != "i" {
			t.Errorf("regex = %+v, want case-insensitive Standard", re)
		}
	})
}

func TestFindMatchingWeights(t *testing.T) {
	existing := []shared.CourseEval{
		{
			ID: "ceval_1",
			Assignments: []shared.EvalAssignment{
				{Name: "Midterm", Weight: 40},
				{Name: "Final", Weight: 60},
			},
		},
	}

	t.Run("same weights in different order match", func(t *testing.T) {
		req := []shared.EvalAssignment{
			{Name: "Exam B", Weight: 60},
			{Name: "Exam A", Weight: 40},
		}

		match := findMatchingWeights(existing, req)
		if match == nil || match.ID != "ceval_1" {
			t.Errorf("got %v, want ceval_1", match)
		}
	})

	t.Run("assignment names do not matter", func(t *testing.T) {
		req := []shared.EvalAssignment{
			{Name: "Completely Different", Weight: 40},
			{Name: "Names", Weight: 60},
		}

		if findMatchingWeights(existing, req) == nil {
			t.Error("weights 40/60 should match regardless of names")
		}
	})

	t.Run("different weights do not match", func(t *testing.T) {
		req := []shared.EvalAssignment{
			{Name: "Midterm", Weight: 50},
			{Name: "Final", Weight: 50},
		}

		if findMatchingWeights(existing, req) != nil {
			t.Error("weights 50/50 should not match 40/60")
		}
	})

	t.Run("different multiplicity does not match", func(t *testing.T) {
		req := []shared.EvalAssignment{
			{Name: "Midterm", Weight: 40},
			{Name: "Final", Weight: 60},
			{Name: "Quiz", Weight: 0},
		}

		if findMatchingWeights(existing, req) != nil {
			t.Error("extra assignment should break the match")
		}
	})
}
