// coach-agentd serves canned answers over the agent streaming protocol so
// the coach client can be developed and demoed without the real backend.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/ironrep/coach/pkg/fakeagent"
)

func main() {
	addr := flag.String("addr", ":8700", "listen address")
	delay := flag.Duration("delay", 40*time.Millisecond, "pause between frames")
	flag.Parse()

	server := fakeagent.New(fakeagent.WithDelay(*delay))

	fmt.Printf("coach-agentd listening on %s\n", *addr)
	if err := http.ListenAndServe(*addr, server.Handler()); err != nil {
		fmt.Fprintf(os.Stderr, "coach-agentd: %v\n", err)
		os.Exit(1)
	}
}
