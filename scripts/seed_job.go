// seed_job.go — standalone script to submit a sweep job from a CSV dataset
// via the FairSweep API.
//
// Expects a header row. Numeric columns become features; the label and
// sensitive columns are named by flag; remaining non-numeric columns are
// sent as categorical features.
//
// Usage:
//
//	go run scripts/seed_job.go -csv adult.csv -label income -sensitive sex -api http://localhost:8700 -client seed
package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
)

type jobRequest struct {
	Name               string     `json:"name,omitempty"`
	Constraint         string     `json:"constraint,omitempty"`
	GridSize           int        `json:"grid_size,omitempty"`
	EvalFraction       float64    `json:"eval_fraction,omitempty"`
	Seed               int64      `json:"seed,omitempty"`
	Standardize        bool       `json:"standardize,omitempty"`
	IncludePredictions bool       `json:"include_predictions,omitempty"`
	Dataset            jobDataset `json:"dataset"`
}

type jobDataset struct {
	Features    [][]float64 `json:"features"`
	Categorical [][]string  `json:"categorical,omitempty"`
	Labels      []int       `json:"labels"`
	Sensitive   []string    `json:"sensitive"`
}

func main() {
	csvPath := flag.String("csv", "", "path to CSV dataset")
	labelCol := flag.String("label", "label", "name of the binary label column")
	sensitiveCol := flag.String("sensitive", "sensitive", "name of the sensitive attribute column")
	apiURL := flag.String("api", "http://localhost:8700", "FairSweep API base URL")
	clientID := flag.String("client", "seed", "X-Client-ID header value")
	gridSize := flag.Int("grid", 71, "sweep grid size")
	standardize := flag.Bool("standardize", true, "standardize numeric features")
	dryRun := flag.Bool("dry-run", false, "print the job without posting")
	flag.Parse()

	if *csvPath == "" {
		log.Fatal("-csv is required")
	}

	f, err := os.Open(*csvPath)
	if err != nil {
		log.Fatalf("open csv: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		log.Fatalf("parse csv: %v", err)
	}
	if len(records) < 2 {
		log.Fatal("csv needs a header row and at least one data row")
	}

	header := records[0]
	labelIdx, sensIdx := -1, -1
	for i, name := range header {
		if name == *labelCol {
			labelIdx = i
		}
		if name == *sensitiveCol {
			sensIdx = i
		}
	}
	if labelIdx < 0 {
		log.Fatalf("label column %q not found", *labelCol)
	}
	if sensIdx < 0 {
		log.Fatalf("sensitive column %q not found", *sensitiveCol)
	}

	// Probe the first data row to classify the remaining columns.
	numericCols, categoricalCols := classifyColumns(records[1], labelIdx, sensIdx)

	ds := jobDataset{}
	for _, row := range records[1:] {
		features := make([]float64, 0, len(numericCols))
		for _, c := range numericCols {
			v, err := strconv.ParseFloat(row[c], 64)
			if err != nil {
				log.Fatalf("column %s: non-numeric value %q", header[c], row[c])
			}
			features = append(features, v)
		}
		ds.Features = append(ds.Features, features)

		if len(categoricalCols) > 0 {
			cats := make([]string, 0, len(categoricalCols))
			for _, c := range categoricalCols {
				cats = append(cats, row[c])
			}
			ds.Categorical = append(ds.Categorical, cats)
		}

		label, err := strconv.Atoi(row[labelIdx])
		if err != nil || (label != 0 && label != 1) {
			log.Fatalf("label column: non-binary value %q", row[labelIdx])
		}
		ds.Labels = append(ds.Labels, label)
		ds.Sensitive = append(ds.Sensitive, row[sensIdx])
	}

	job := jobRequest{
		Name:        fmt.Sprintf("seeded from %s", *csvPath),
		GridSize:    *gridSize,
		Standardize: *standardize,
		Dataset:     ds,
	}

	if *dryRun {
		fmt.Printf("job: %d rows, %d numeric cols, %d categorical cols, grid %d\n",
			len(ds.Labels), len(numericCols), len(categoricalCols), *gridSize)
		return
	}

	payload, err := json.Marshal(job)
	if err != nil {
		log.Fatalf("marshal job: %v", err)
	}
	req, err := http.NewRequest("POST", *apiURL+"/api/v1/jobs", bytes.NewReader(payload))
	if err != nil {
		log.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Client-ID", *clientID)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("post job: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		log.Fatalf("create job failed: %s", resp.Status)
	}

	var created struct {
		JobID string `json:"job_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		log.Fatalf("decode response: %v", err)
	}
	fmt.Printf("created job %s (%d rows)\n", created.JobID, len(ds.Labels))
}

func classifyColumns(probe []string, labelIdx, sensIdx int) (numeric, categorical []int) {
	for i, v := range probe {
		if i == labelIdx || i == sensIdx {
			continue
		}
		if _, err := strconv.ParseFloat(v, 64); err == nil {
			numeric = append(numeric, i)
		} else {
			categorical = append(categorical, i)
		}
	}
	return numeric, categorical
}
