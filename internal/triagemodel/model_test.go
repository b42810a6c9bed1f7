package triagemodel

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// testModelDoc builds an artifact whose labels are driven by single
// keywords: "emergency" -> High, "consult" -> Medium, otherwise Low.
func testModelDoc() map[string]interface{} {
	return map[string]interface{}{
		"vectorizer": map[string]interface{}{
			"vocabulary": map[string]int{
				"emergency": 0,
				"hospital":  1,
				"consult":   2,
				"doctor":    3,
				"rest":      4,
			},
			"idf": []float64{2.0, 2.0, 1.5, 1.5, 1.0},
		},
		"model": map[string]interface{}{
			"type":    "linear_softmax",
			"classes": []string{"High", "Medium", "Low"},
			"weights": [][]float64{
				{3.0, 3.0, 0.0, 0.0, 0.0},
				{0.0, 0.0, 3.0, 3.0, 0.0},
				{0.0, 0.0, 0.0, 0.0, 1.0},
			},
			"bias": []float64{-1.0, -0.5, 0.5},
		},
	}
}

func writeModelFile(t *testing.T, doc map[string]interface{}) string {
	t.Helper()
	raw, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("failed to marshal model fixture: %v", err)
	}
	path := filepath.Join(t.TempDir(), "triage_model.json")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("failed to write model fixture: %v", err)
	}
	return path
}

func loadTestModel(t *testing.T) *Model {
	t.Helper()
	model, err := Load(writeModelFile(t, testModelDoc()))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return model
}

func TestLoad_Success(t *testing.T) {
	model := loadTestModel(t)

	labels := model.Labels()
	if len(labels) != 3 {
		t.Fatalf("got %d labels, want 3", len(labels))
	}
	if labels[0] != "High" || labels[1] != "Medium" || labels[2] != "Low" {
		t.Errorf("labels = %v, want [High Medium Low]", labels)
	}
}

func TestLoad_Malformed(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(doc map[string]interface{})
	}{
		{"wrong type", func(doc map[string]interface{}) {
			doc["model"].(map[string]interface{})["type"] = "naive_bayes"
		}},
		{"no labels", func(doc map[string]interface{}) {
			doc["model"].(map[string]interface{})["classes"] = []string{}
		}},
		{"idf length mismatch", func(doc map[string]interface{}) {
			doc["vectorizer"].(map[string]interface{})["idf"] = []float64{1.0}
		}},
		{"weight shape mismatch", func(doc map[string]interface{}) {
			doc["model"].(map[string]interface{})["weights"] = [][]float64{{1, 2}}
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc := testModelDoc()
			tc.mutate(doc)
			if _, err := Load(writeModelFile(t, doc)); err == nil {
				t.Fatal("expected load error")
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing model file")
	}
}

func TestClassify(t *testing.T) {
	model := loadTestModel(t)

	cases := []struct {
		text string
		want string
	}{
		{"Seek EMERGENCY care at the nearest hospital!", "High"},
		{"Consult your doctor within a few days.", "Medium"},
		{"Take rest and plenty of fluids.", "Low"},
		// Nothing in vocabulary: bias alone decides, Low has the largest.
		{"completely unrelated words", "Low"},
	}
	for _, tc := range cases {
		got, err := model.Classify(tc.text)
		if err != nil {
			t.Fatalf("Classify(%q) failed: %v", tc.text, err)
		}
		if got != tc.want {
			t.Errorf("Classify(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}

func TestClassify_ReturnsKnownLabel(t *testing.T) {
	model := loadTestModel(t)

	got, err := model.Classify("emergency consult rest hospital doctor")
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	known := map[string]bool{"High": true, "Medium": true, "Low": true}
	if !known[got] {
		t.Errorf("Classify returned unknown label %q", got)
	}
}

func TestBuildText(t *testing.T) {
	got := BuildText("Heart Attack", "Blockage of blood flow.", []string{"Call ambulance!", "Chew aspirin"})
	want := "heart attack blockage of blood flow call ambulance chew aspirin"
	if got != want {
		t.Errorf("BuildText = %q, want %q", got, want)
	}
}
