// rescore.go re-runs fit scoring for a list of submissions through the API,
// e.g. after an RFP's requirements changed.
//
// Usage:
//
//	go run scripts/rescore.go -ids submissions.txt -api http://localhost:8600 -token $TOKEN
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

type scoreResponse struct {
	FitScore       int    `json:"fit_score"`
	ResponseStatus string `json:"response_status"`
	Error          string `json:"error"`
	Kind           string `json:"kind"`
}

func main() {
	idsPath := flag.String("ids", "submissions.txt", "file with one submission id per line, # for comments")
	apiURL := flag.String("api", "http://localhost:8600", "FitScore API base URL")
	token := flag.String("token", os.Getenv("FITSCORE_TOKEN"), "bearer token")
	dryRun := flag.Bool("dry-run", false, "print ids without scoring")
	flag.Parse()

	f, err := os.Open(*idsPath)
	if err != nil {
		log.Fatalf("open ids file: %v", err)
	}
	defer f.Close()

	var ids []uuid.UUID
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		id, err := uuid.Parse(line)
		if err != nil {
			log.Printf("skip %q: not a uuid", line)
			continue
		}
		ids = append(ids, id)
	}
	if err := scanner.Err(); err != nil {
		log.Fatalf("scan ids file: %v", err)
	}

	log.Printf("parsed %d submission ids from %s", len(ids), *idsPath)

	if *dryRun {
		for i, id := range ids {
			fmt.Printf("[%d] %s\n", i+1, id)
		}
		return
	}
	if *token == "" {
		log.Fatal("a bearer token is required (-token or FITSCORE_TOKEN)")
	}

	client := &http.Client{Timeout: 2 * time.Minute}
	scored, failed := 0, 0
	for _, id := range ids {
		body, _ := json.Marshal(map[string]string{"submission_id": id.String()})
		req, err := http.NewRequest("POST", *apiURL+"/api/v1/fit-score", bytes.NewReader(body))
		if err != nil {
			log.Printf("skip %s: %v", id, err)
			failed++
			continue
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+*token)

		resp, err := client.Do(req)
		if err != nil {
			log.Printf("skip %s: %v", id, err)
			failed++
			continue
		}
		var out scoreResponse
		_ = json.NewDecoder(resp.Body).Decode(&out)
		resp.Body.Close()

		switch resp.StatusCode {
		case http.StatusOK:
			log.Printf("%s: %d (%s)", id, out.FitScore, out.ResponseStatus)
			scored++
		case http.StatusPaymentRequired:
			// Every further call would fail the same way.
			log.Fatalf("judge quota exhausted at %s after %d scored", id, scored)
		default:
			log.Printf("skip %s: status %d %s %s", id, resp.StatusCode, out.Error, out.Kind)
			failed++
		}
	}

	log.Printf("done: %d scored, %d failed", scored, failed)
}
