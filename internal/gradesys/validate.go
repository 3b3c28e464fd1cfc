package gradesys

import (
	"fmt"
	"sort"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"gradetrack/internal/shared"
)

// ValidateBands sorts the bands ascending by MinPoints and checks the
// resulting list for validity. It returns the sorted list, or the first
// violation found in band order:
//   - a band with a negative bound or MinPoints > MaxPoints, naming the band
//   - two adjacent bands whose ranges overlap, naming both
//
// The input slice is not modified.
func ValidateBands(bands []shared.GradeBand) ([]shared.GradeBand, error) {
	sorted := make([]shared.GradeBand, len(bands))
	copy(sorted, bands)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MinPoints < sorted[j].MinPoints
	})

	for _, band := range sorted {
		if band.MinPoints < 0 || band.MaxPoints < 0 || band.MinPoints > band.MaxPoints {
			return nil, status.Error(codes.InvalidArgument, fmt.Sprintf(
				"minPoints and maxPoints must be positive and minPoints must not exceed maxPoints for grade %s", band.Grade))
		}
	}

	for i := 0; i < len(sorted)-1; i++ {
		if sorted[i].MaxPoints > sorted[i+1].MinPoints {
			return nil, status.Error(codes.InvalidArgument, fmt.Sprintf(
				"grades %s and %s have overlapping ranges", sorted[i].Grade, sorted[i+1].Grade))
		}
	}

	return sorted, nil
}
