package course

import (
	"github.com/montanaflynn/stats"

	"gradetrack/internal/shared"
)

// The distribution buckets the score range [0, maxPoints] into this many
// equal-width intervals, half-open except the last.
const histogramBuckets = 5

// Stats summarizes every finalized grade recorded for one course.
type Stats struct {
	AverageGrade      float64 `json:"averageGrade"`
	MedianGrade       float64 `json:"medianGrade"`
	GradeDistribution []int   `json:"gradeDistribution"`
}

// CollectGrades flattens the course ledger into a single list of grades
// across all semesters.
func CollectGrades(c *shared.Course) []float64 {
	var grades []float64
	for _, bucket := range c.AllGrades {
		for _, g := range bucket.Grades {
			grades = append(grades, g)
		}
	}
	return grades
}

// ComputeStats computes average, median, and distribution for the grades.
// An empty list reports zeroes across the board.
func ComputeStats(grades []float64, maxPoints float64) Stats {
	result := Stats{GradeDistribution: make([]int, histogramBuckets)}
	if len(grades) == 0 {
		return result
	}

	mean, _ := stats.Mean(grades)
	median, _ := stats.Median(grades)
	result.AverageGrade = mean
	result.MedianGrade = median

	if maxPoints <= 0 {
		return result
	}

	bucketWidth := maxPoints / histogramBuckets
	for _, g := range grades {
		switch {
		case g < 0 || g > maxPoints:
			// out of range, not counted
		case g == maxPoints:
			result.GradeDistribution[histogramBuckets-1]++
		default:
			result.GradeDistribution[int(g/bucketWidth)]++
		}
	}

	return result
}
