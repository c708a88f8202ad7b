// Command predict runs a single heart attack risk prediction from flags.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"heartrisk/logging"
	"heartrisk/ml"
)

func main() {
	modelsDir := flag.String("models", "models", "artifact directory")
	asJSON := flag.Bool("json", false, "print the full prediction as JSON")
	strict := flag.Bool("strict", false, "fail when a one-hot encoder does not have exactly three categories")
	verbose := flag.Bool("v", false, "verbose logging")

	var input ml.RawInput
	flag.Float64Var(&input.BMI, "bmi", 25.0, "body mass index")
	flag.Float64Var(&input.SleepHours, "sleep", 7.0, "average sleep hours")
	flag.IntVar(&input.PhysicalHealthBadDays, "physical_days", 5, "physical health bad days in the last 30")
	flag.IntVar(&input.MentalHealthBadDays, "mental_days", 5, "mental health bad days in the last 30")
	flag.StringVar(&input.HadAngina, "angina", "No", "had angina (No|Yes)")
	flag.StringVar(&input.HadArthritis, "arthritis", "No", "had arthritis (No|Yes)")
	flag.StringVar(&input.AgeCategory, "age", "Young", "age category (Young|Middle-Aged|Old)")
	flag.StringVar(&input.Sex, "sex", "Male", "sex (Male|Female)")
	flag.StringVar(&input.HadDiabetes, "diabetes", "No", "had diabetes (No|Yes|Borderline)")
	flag.Parse()

	level := "error"
	if *verbose {
		level = "debug"
	}
	logger, err := logging.New(logging.Options{Level: level, Development: true})
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	prediction, err := predict(*modelsDir, input, ml.PredictorOptions{
		Encoder: ml.EncoderOptions{StrictOneHotArity: *strict},
		Logger:  logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Prediction Error: %v\n", err)
		os.Exit(1)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(prediction); err != nil {
			log.Fatalf("failed to encode prediction: %v", err)
		}
		return
	}
	fmt.Printf("Predicted Heart Attack Risk: %s\n", prediction.Risk)
}

func predict(dir string, input ml.RawInput, opts ml.PredictorOptions) (ml.Prediction, error) {
	artifacts, err := ml.LoadArtifacts(dir)
	if err != nil {
		return ml.Prediction{}, err
	}
	predictor, err := ml.NewPredictor(artifacts, opts)
	if err != nil {
		return ml.Prediction{}, err
	}
	return predictor.Predict(context.Background(), input)
}
