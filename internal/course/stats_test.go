package course

import (
	"reflect"
	"testing"

	"gradetrack/internal/shared"
)

func TestComputeStats(t *testing.T) {
	t.Run("mean median and distribution", func(t *testing.T) {
		grades := []float64{60, 70, 80, 90, 100}

		got := ComputeStats(grades, 100)

		if got.AverageGrade != 80 {
			t.Errorf("average = %v, want 80", got.AverageGrade)
		}
		if got.MedianGrade != 80 {
			t.Errorf("median = %v, want 80", got.MedianGrade)
		}
		want := []int{0, 0, 0, 2, 3}
		if !reflect.DeepEqual(got.GradeDistribution, want) {
			t.Errorf("distribution = %v, want %v", got.GradeDistribution, want)
		}
	})

	t.Run("empty ledger reports zeroes", func(t *testing.T) {
		got := ComputeStats(nil, 100)

		if got.AverageGrade != 0 || got.MedianGrade != 0 {
			t.Errorf("average/median = %v/%v, want 0/0", got.AverageGrade, got.MedianGrade)
		}
		if !reflect.DeepEqual(got.GradeDistribution, []int{0, 0, 0, 0, 0}) {
			t.Errorf("distribution = %v, want all zeroes", got.GradeDistribution)
		}
	})

	t.Run("maxPoints lands in the last bucket", func(t *testing.T) {
		got := ComputeStats([]float64{50}, 50)

		if got.GradeDistribution[len(got.GradeDistribution)-1] != 1 {
			t.Errorf("distribution = %v, want maxPoints in last bucket", got.GradeDistribution)
		}
	})

	t.Run("bucket boundary falls into the upper bucket", func(t *testing.T) {
		// width 20: a grade of exactly 20 belongs to [20,40)
		got := ComputeStats([]float64{20}, 100)

		want := []int{0, 1, 0, 0, 0}
		if !reflect.DeepEqual(got.GradeDistribution, want) {
			t.Errorf("distribution = %v, want %v", got.GradeDistribution, want)
		}
	})

	t.Run("out of range grades are not counted", func(t *testing.T) {
		got := ComputeStats([]float64{-5, 120, 50}, 100)

		total := 0
		for _, n := range got.GradeDistribution {
			total += n
		}
		if total != 1 {
			t.Errorf("distribution counts %d grades, want 1: %v", total, got.GradeDistribution)
		}
	})
}

func TestCollectGrades(t *testing.T) {
	c := &shared.Course{
		AllGrades: []shared.SemesterGrades{
			{Semester: "2024-fall", Grades: map[string]float64{"usr_1": 75, "usr_2": 85}},
			{Semester: "2025-spring", Grades: map[string]float64{"usr_1": 90}},
		},
	}

	grades := CollectGrades(c)

	if len(grades) != 3 {
		t.Fatalf("got %d grades, want 3", len(grades))
	}
	sum := 0.0
	for _, g := range grades {
		sum += g
	}
	if sum != 250 {
		t.Errorf("grade sum = %v, want 250", sum)
	}
}

func TestPruneLedgerEntry(t *testing.T) {
	t.Run("removes the user's entry", func(t *testing.T) {
		c := &shared.Course{
			AllGrades: []shared.SemesterGrades{
				{Semester: "2025-fall", Grades: map[string]float64{"usr_1": 80, "usr_2": 90}},
			},
		}

		if !pruneLedgerEntry(c, "2025-fall", "usr_1") {
			t.Fatal("prune should report a change")
		}
		if _, ok := c.AllGrades[0].Grades["usr_1"]; ok {
			t.Error("entry for usr_1 still present")
		}
		if c.AllGrades[0].Grades["usr_2"] != 90 {
			t.Error("entry for usr_2 was lost")
		}
	})

	t.Run("no change for unknown semester or user", func(t *testing.T) {
		c := &shared.Course{
			AllGrades: []shared.SemesterGrades{
				{Semester: "2025-fall", Grades: map[string]float64{"usr_1": 80}},
			},
		}

		if pruneLedgerEntry(c, "2024-fall", "usr_1") {
			t.Error("unknown semester should not report a change")
		}
		if pruneLedgerEntry(c, "2025-fall", "usr_9") {
			t.Error("unknown user should not report a change")
		}
		if c.AllGrades[0].Grades["usr_1"] != 80 {
			t.Error("ledger was modified")
		}
	})
}

func TestMergeByID(t *testing.T) {
	primary := []shared.Course{{ID: "crs_1"}, {ID: "crs_2"}}
	fallback := []shared.Course{{ID: "crs_2"}, {ID: "crs_3"}}

	merged := mergeByID(primary, fallback)

	want := []string{"crs_1", "crs_2", "crs_3"}
	if len(merged) != len(want) {
		t.Fatalf("got %d courses, want %d", len(merged), len(want))
	}
	for i, id := range want {
		if merged[i].ID != id {
			t.Errorf("position %d: got %s, want %s", i, merged[i].ID, id)
		}
	}
}
