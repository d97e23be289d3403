package main

import (
	"flag"
	"log"
	"net/http"

	mockSD "github.com/ccastromar/wfx-bot/internal/mocks/sdwebui"
	mockWaifu "github.com/ccastromar/wfx-bot/internal/mocks/waifu"
)

var listenAndServe = http.ListenAndServe

func buildMux() *http.ServeMux {
	mux := http.NewServeMux()
	mockWaifu.RegisterHandlers(mux)
	mockSD.RegisterHandlers(mux)
	return mux
}

// Point the bot at it with
//
//	WAIFUIT_BASE_URL=http://localhost:9000/api/v4
//	STABLE_DIFUSION_URL=http://localhost:9000
func main() {
	addr := flag.String("addr", ":9000", "listen address")
	flag.Parse()

	mux := buildMux()
	log.Printf("[MOCK SERVER] listening on %s", *addr)
	if err := listenAndServe(*addr, mux); err != nil {
		log.Fatal(err)
	}
}
