package symptom

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "fever", "fever"},
		{"hyphen and trailing space", "Chest-Pain ", "chest_pain"},
		{"mixed case", "Shortness Of Breath", "shortness_of_breath"},
		{"punctuation stripped", "nausea, (severe)!", "nausea_severe"},
		{"whitespace collapsed", "  stiff   neck ", "stiff_neck"},
		{"empty", "", ""},
		{"blank", "   ", ""},
		{"nan sentinel", "NaN", ""},
		{"none sentinel", "None", ""},
		{"already normalized", "blood_in_sputum", "blood_in_sputum"},
		{"numeric", "grade 2 fever", "grade_2_fever"},
		{"only punctuation", "!!!", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Normalize(tc.in); got != tc.want {
				t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

// Normalizing an already-normalized identifier must yield itself, otherwise
// runtime inputs and training-time vocabulary drift apart.
func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"Chest-Pain", "  Fever!! ", "loss of consciousness", "NaN", "", "a--b  c",
	}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}

func TestNormalizeSet(t *testing.T) {
	in := []string{"Fever", "fever", "Chest-Pain", "", "nan", "chest_pain", "chills"}
	want := []string{"fever", "chest_pain", "chills"}

	got := NormalizeSet(in)
	if len(got) != len(want) {
		t.Fatalf("NormalizeSet returned %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("NormalizeSet[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestCleanText(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"Take REST, and drink   fluids.", "take rest and drink fluids"},
		{"Emergency: go to hospital!", "emergency go to hospital"},
		{"  already clean  ", "already clean"},
	}
	for _, tc := range cases {
		if got := CleanText(tc.in); got != tc.want {
			t.Errorf("CleanText(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
