package main

import (
	_ "embed"
	"log"
	"net/http"
	"time"
)

//go:embed data.json
var jsonData []byte

func main() {
	http.HandleFunc("/me/events", func(w http.ResponseWriter, r *http.Request) {
		// Simulate network latency (100-300ms)
		time.Sleep(time.Duration(100+time.Now().UnixNano()%200) * time.Millisecond)

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Provider", "facebook-mock")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(jsonData); err != nil {
			log.Printf("[Facebook] Write error: %v", err)
		}

		log.Printf("[Facebook] %s %s - 200 OK", r.Method, r.URL.Path)
	})

	http.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"healthy"}`)); err != nil {
			log.Printf("[Facebook] Health write error: %v", err)
		}
	})

	log.Println("Mock Facebook events running on :8092")
	log.Fatal(http.ListenAndServe(":8092", nil))
}
