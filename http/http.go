package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/nordwache/guildbot/logger/dlog"
)

// Setup serves the liveness endpoints. It blocks, run it in a goroutine.
func Setup(port string) {
	http.HandleFunc("/", rootHandler)
	http.HandleFunc("/status", statusHandler)
	err := http.ListenAndServe(":"+port, nil)
	if err != nil {
		dlog.Log.Error("Could not serve on "+port, "err", err)
		panic(err)
	}
}

func statusHandler(w http.ResponseWriter, r *http.Request) {
	logRequest(r)
	codeParams, ok := r.URL.Query()["cli"]
	if ok && len(codeParams) > 0 {
		statusCode, _ := strconv.Atoi(codeParams[0])
		if statusCode >= 200 && statusCode < 600 {
			w.WriteHeader(statusCode)
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"status":"ok"}`)
}

func rootHandler(w http.ResponseWriter, r *http.Request) {
	logRequest(r)
	fmt.Fprintf(w, "Hello! you've requested %s\n", r.URL.Path)
}

func logRequest(r *http.Request) {
	dlog.Log.Debug("Got request", "method", r.Method, "uri", r.RequestURI)
}
