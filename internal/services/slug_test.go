package services

import "testing"

func TestSlugify(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		expected string
	}{
		{"The Forest Hiker", "the-forest-hiker"},
		{"  Leading and trailing  ", "leading-and-trailing"},
		{"Fjord & Fjell: Norway!", "fjord-fjell-norway"},
		{"Multiple   spaces", "multiple-spaces"},
		{"already-slugged", "already-slugged"},
	}
	for _, testCase := range cases {
		if got := Slugify(testCase.name); got != testCase.expected {
			t.Errorf("Slugify(%q) = %q, expected %q", testCase.name, got, testCase.expected)
		}
	}
}
