// matcha-chat is a line-oriented demo client: it opens one conversation
// session and relays stdin lines through the outbound send path. Lines
// arriving on the live channel are printed as they land in the store.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"

	"matchakit/config"
	"matchakit/logger"
	"matchakit/module/chat"
	"matchakit/module/user"
	"matchakit/service/api"
)

func main() {
	cfg := config.FromEnv()

	apiBase := flag.String("api", cfg.APIBase, "API base URL")
	wsBase := flag.String("ws", cfg.WSBase, "WS base URL (default: derived from -api)")
	token := flag.String("token", cfg.Token, "bearer token (or set MATCHA_TOKEN)")
	email := flag.String("email", "", "login email (used when no token is given)")
	password := flag.String("password", "", "login password")
	peerArg := flag.String("peer", "", "other participant's user id (required)")
	debug := flag.Bool("debug", false, "debug logging")
	flag.Parse()

	if *debug {
		logger.SetDebug()
	}
	cfg.APIBase = *apiBase
	cfg.WSBase = *wsBase
	cfg.Token = *token

	peerID, err := uuid.Parse(*peerArg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "usage: matcha-chat -peer <user-id> [-token <jwt> | -email <addr> -password <pw>]")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client := api.New(cfg)
	if cfg.Token == "" {
		if *email == "" {
			fmt.Fprintln(os.Stderr, "either -token or -email is required")
			os.Exit(2)
		}
		res, err := client.Login(ctx, *email, *password)
		if err != nil {
			logger.Errorf("login failed: %v", err)
			os.Exit(1)
		}
		cfg.Token = res.Token
	}

	selfID, err := user.ResolveID(ctx, client, cfg.Token)
	if err != nil {
		logger.Errorf("cannot resolve current user: %v", err)
		os.Exit(1)
	}

	peer, err := client.GetUser(ctx, peerID)
	if err != nil {
		logger.Warnf("peer profile unavailable: %v", err)
		peer.ID = peerID
	}

	sess, err := chat.Open(ctx, chat.Config{
		SelfID:      selfID,
		PeerID:      peerID,
		API:         client,
		WSURL:       cfg.ChatWSURL(),
		DialTimeout: cfg.DialTimeout,
		Hooks: chat.Hooks{
			OnUpdate: func(msgs []chat.Message) {
				if len(msgs) > 0 {
					printMessage(selfID, msgs[len(msgs)-1])
				}
			},
			OnError: func(msg string) { fmt.Printf("!! %s\n", msg) },
			OnLive: func(live bool) {
				if live {
					fmt.Println("-- live channel connected")
				} else {
					fmt.Println("-- live channel offline (sends fall back to HTTP)")
				}
			},
		},
	})
	if err != nil {
		logger.Errorf("open conversation: %v", err)
		os.Exit(1)
	}
	defer sess.Close()

	fmt.Printf("chat with %s\n", peer.DisplayName())
	if p, ok := sess.PeerPresence(); ok {
		if p.IsOnline {
			fmt.Println("online now")
		} else if p.LastSeen != nil {
			fmt.Printf("last seen %s\n", p.LastSeen.Local().Format(time.RFC822))
		}
	}
	for _, m := range sess.Messages() {
		printMessage(selfID, m)
	}

	lines := make(chan string)
	go func() {
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			lines <- sc.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if err := sess.Send(line); err != nil {
				fmt.Printf("!! send failed: %v\n", err)
			}
		}
	}
}

func printMessage(selfID uuid.UUID, m chat.Message) {
	who := "them"
	if m.SenderID == selfID {
		who = "me"
	}
	fmt.Printf("[%s] %s: %s\n", m.CreatedAt.Local().Format("15:04"), who, m.Content)
}
