package oura

import "testing"

func TestParseCategory(t *testing.T) {
	for _, slug := range []string{"email", "personal_info", "daily_data", "heart_rate_data", "workout_data", "tags_data"} {
		c, ok := ParseCategory(slug)
		if !ok {
			t.Errorf("expected %q to parse", slug)
		}
		if c.String() != slug {
			t.Errorf("round-trip mismatch: %q != %q", c.String(), slug)
		}
	}

	if _, ok := ParseCategory("bogus_type"); ok {
		t.Error("expected bogus_type to be rejected")
	}
	if _, ok := ParseCategory(""); ok {
		t.Error("expected empty slug to be rejected")
	}
}

func TestCategoryModes(t *testing.T) {
	point := []Category{CategoryEmail, CategoryPersonalInfo}
	ranged := []Category{CategoryDaily, CategoryHeartRate, CategoryWorkout, CategoryTags}

	for _, c := range point {
		if c.Mode() != ModePoint {
			t.Errorf("%s should be a point category", c)
		}
	}
	for _, c := range ranged {
		if c.Mode() != ModeRanged {
			t.Errorf("%s should be a ranged category", c)
		}
	}
}

func TestAllCategoriesOrder(t *testing.T) {
	all := AllCategories()
	want := []Category{CategoryEmail, CategoryPersonalInfo, CategoryDaily, CategoryHeartRate, CategoryWorkout, CategoryTags}

	if len(all) != len(want) {
		t.Fatalf("expected %d categories, got %d", len(want), len(all))
	}
	for i := range want {
		if all[i] != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], all[i])
		}
	}

	// Mutating the returned slice must not affect the table
	all[0] = Category("mutated")
	if AllCategories()[0] != CategoryEmail {
		t.Error("AllCategories returned a shared slice")
	}
}
