package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
)

// Minimal OpenAI-compatible chat completions endpoint for local pipeline
// runs. It echoes the last user message inside a fixed template.

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatReq struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatChoice struct {
	Index   int         `json:"index"`
	Message chatMessage `json:"message"`
}

type chatResp struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
}

func handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), 400)
		return
	}
	last := ""
	for _, m := range req.Messages {
		if m.Role == "user" {
			last = m.Content
		}
	}
	answer := fmt.Sprintf("Mock answer for: %.120s", last)
	_ = json.NewEncoder(w).Encode(chatResp{
		ID:     "mock-1",
		Object: "chat.completion",
		Model:  req.Model,
		Choices: []chatChoice{
			{Index: 0, Message: chatMessage{Role: "assistant", Content: answer}},
		},
	})
}

func main() {
	addr := ":8084"
	if v := os.Getenv("LLM_ADDR"); v != "" {
		addr = v
	}
	http.HandleFunc("/v1/chat/completions", handleChat)
	log.Printf("LLM mock listening on %s", addr)
	log.Fatal(http.ListenAndServe(addr, nil))
}
