// Command model-verify loads the triage service's model artifacts and
// reports what they contain. Use it to sanity-check new artifacts before
// deploying them.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/calyx-health/triage.report/internal/diagnosis"
	"github.com/calyx-health/triage.report/internal/metadata"
	"github.com/calyx-health/triage.report/internal/triagemodel"
)

var (
	diagnosisModel = flag.String("diagnosis-model", "models/diagnosis.json", "Path to the diagnosis model bundle")
	triageModel    = flag.String("triage-model", "models/triage.json", "Path to the triage text classifier")
	precautions    = flag.String("precautions", "data/precautions.csv", "Path to the disease precautions table")
	descriptions   = flag.String("descriptions", "data/descriptions.csv", "Path to the disease descriptions table")
)

func main() {
	flag.Parse()

	failed := false

	bundle, err := diagnosis.LoadBundle(*diagnosisModel)
	if err != nil {
		log.Printf("diagnosis bundle: FAILED: %v", err)
		failed = true
	} else {
		classes := bundle.Classifier.Classes()
		fmt.Printf("diagnosis bundle: %d symptoms, %d diseases, %d severity overrides\n",
			len(bundle.Vocabulary), len(classes), len(bundle.SeverityMap))
	}

	triage, err := triagemodel.Load(*triageModel)
	if err != nil {
		log.Printf("triage model: FAILED: %v", err)
		failed = true
	} else {
		fmt.Printf("triage model: labels %v\n", triage.Labels())
	}

	index, err := metadata.LoadIndex(*precautions, *descriptions)
	if err != nil {
		log.Printf("metadata tables: FAILED: %v", err)
		failed = true
	} else {
		fmt.Printf("metadata tables: %d diseases\n", index.Len())
	}

	// Every disease the classifier can predict should have reference
	// metadata to show alongside it.
	if bundle != nil && index != nil {
		missing := 0
		for _, class := range bundle.Classifier.Classes() {
			entry := index.Lookup(class)
			if entry.Description == "" && len(entry.Precautions) == 0 {
				log.Printf("warning: no metadata for disease %q", class)
				missing++
			}
		}
		if missing > 0 {
			fmt.Printf("%d of %d diseases have no metadata\n", missing, len(bundle.Classifier.Classes()))
		}
	}

	if failed {
		os.Exit(1)
	}
	fmt.Println("all artifacts loaded cleanly")
}
