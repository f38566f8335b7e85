// Command eventwatch subscribes to the ledger event stream over WebSocket
// and prints each committed event as it arrives.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"

	"github.com/gorilla/websocket"
)

func main() {
	addr := flag.String("addr", "localhost:8481", "Server address")
	token := flag.String("token", "", "JWT for the event stream (see cmd/mktoken)")
	flag.Parse()

	if *token == "" {
		log.Fatal("usage: eventwatch -token <jwt> [-addr host:port]")
	}

	u := url.URL{
		Scheme:   "ws",
		Host:     *addr,
		Path:     "/api/ws/events",
		RawQuery: "token=" + url.QueryEscape(*token),
	}
	log.Printf("connecting to %s", u.Host+u.Path)

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				log.Printf("read: %v", err)
				return
			}
			fmt.Println(string(message))
		}
	}()

	select {
	case <-done:
	case <-interrupt:
		log.Println("closing connection")
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		<-done
	}
}
