package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"sync/atomic"
)

type scrapeReq struct {
	Subject  string `json:"subject"`
	Class    int    `json:"class,omitempty"`
	Chapter  string `json:"chapter,omitempty"`
	Question string `json:"question,omitempty"`
}

type scrapeResp struct {
	Accepted bool   `json:"accepted"`
	JobID    int64  `json:"job_id"`
	Subject  string `json:"subject"`
}

var jobSeq atomic.Int64

func handleScrape(w http.ResponseWriter, r *http.Request) {
	var req scrapeReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), 400)
		return
	}
	id := jobSeq.Add(1)
	log.Printf("scrape request accepted: job=%d subject=%s class=%d chapter=%q", id, req.Subject, req.Class, req.Chapter)
	_ = json.NewEncoder(w).Encode(scrapeResp{Accepted: true, JobID: id, Subject: req.Subject})
}

func main() {
	addr := ":8083"
	if v := os.Getenv("INGEST_ADDR"); v != "" {
		addr = v
	}
	http.HandleFunc("/scrape", handleScrape)
	log.Printf("Ingest mock listening on %s", addr)
	log.Fatal(http.ListenAndServe(addr, nil))
}
