package gradesys

import (
	"strings"
	"testing"

	"gradetrack/internal/shared"
)

func TestValidateBands(t *testing.T) {
	t.Run("sorts bands by minPoints", func(t *testing.T) {
		bands := []shared.GradeBand{
			{Grade: "A", MinPoints: 90, MaxPoints: 100},
			{Grade: "C", MinPoints: 70, MaxPoints: 80},
			{Grade: "B", MinPoints: 80, MaxPoints: 90},
		}

		sorted, err := ValidateBands(bands)
		if err != nil {
			t.Fatalf("ValidateBands returned error: %v", err)
		}

		want := []string{"C", "B", "A"}
		for i, g := range want {
			if sorted[i].Grade != g {
				t.Errorf("position %d: got grade %s, want %s", i, sorted[i].Grade, g)
			}
		}
		if bands[0].Grade != "A" {
			t.Error("input slice was reordered")
		}
	})

	t.Run("rejects inverted range naming the band", func(t *testing.T) {
		bands := []shared.GradeBand{
			{Grade: "A", MinPoints: 95, MaxPoints: 90},
		}

		_, err := ValidateBands(bands)
		if err == nil {
			t.Fatal("expected error for inverted range")
		}
		if !strings.Contains(err.Error(), "A") {
			t.Errorf("error should name the offending band: %v", err)
		}
	})

	t.Run("rejects negative bounds", func(t *testing.T) {
		bands := []shared.GradeBand{
			{Grade: "F", MinPoints: -10, MaxPoints: 50},
		}

		if _, err := ValidateBands(bands); err == nil {
			t.Fatal("expected error for negative bound")
		}
	})

	t.Run("rejects overlapping bands naming both", func(t *testing.T) {
		bands := []shared.GradeBand{
			{Grade: "B", MinPoints: 80, MaxPoints: 92},
			{Grade: "A", MinPoints: 90, MaxPoints: 100},
		}

		_, err := ValidateBands(bands)
		if err == nil {
			t.Fatal("expected error for overlapping ranges")
		}
		if !strings.Contains(err.Error(), "B") || !strings.Contains(err.Error(), "A") {
			t.Errorf("error should name both bands: %v", err)
		}
	})

	t.Run("accepts touching boundaries", func(t *testing.T) {
		bands := []shared.GradeBand{
			{Grade: "B", MinPoints: 80, MaxPoints: 90},
			{Grade: "A", MinPoints: 90, MaxPoints: 100},
		}

		if _, err := ValidateBands(bands); err != nil {
			t.Fatalf("bands sharing a boundary should be valid: %v", err)
		}
	})

	t.Run("accepts empty list", func(t *testing.T) {
		sorted, err := ValidateBands(nil)
		if err != nil {
			t.Fatalf("empty band list should be valid: %v", err)
		}
		if len(sorted) != 0 {
			t.Errorf("got %d bands, want 0", len(sorted))
		}
	})
}
