// matcha-devgate runs the in-memory development gateway and seeds two
// demo accounts, printing ready-to-use tokens for matcha-chat.
package main

import (
	"flag"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"matchakit/logger"
	"matchakit/service/devgate"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	secret := flag.String("secret", "matcha-dev-secret", "HMAC secret for dev tokens")
	flag.Parse()

	gate := devgate.New([]byte(*secret))

	seeded := []struct {
		name string
		id   uuid.UUID
	}{
		{"alice", gate.AddUser("alice@example.com", "Alice", "Martin")},
		{"bob", gate.AddUser("bob@example.com", "Bob", "Durand")},
	}

	fmt.Println("demo users:")
	for _, u := range seeded {
		tok, err := gate.IssueToken(u.id)
		if err != nil {
			logger.Errorf("issue token for %s: %v", u.name, err)
			continue
		}
		fmt.Printf("  %-5s id=%s\n        token=%s\n", u.name, u.id, tok)
	}

	logger.Infof("[devgate] listening on %s", *addr)
	if err := http.ListenAndServe(*addr, gate.Handler()); err != nil {
		logger.Errorf("[devgate] server stopped: %v", err)
	}
}
