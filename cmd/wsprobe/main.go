// Package main opens notification sockets against a running server and
// reports how many connect and how many events arrive.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

// Metrics tracks the probe results
type Metrics struct {
	ConnectionsAttempted int64
	ConnectionsSuccess   int64
	ConnectionsFailed    int64
	EventsReceived       int64
	Errors               int64
}

var metrics Metrics

var httpClient = &http.Client{Timeout: 5 * time.Second}

func main() {
	host := flag.String("host", "localhost:8375", "API server host")
	email := flag.String("email", "root@instaclone.local", "Account email")
	password := flag.String("password", "", "Account password")
	clients := flag.Int("clients", 4, "Number of concurrent sockets (the server allows 12 per user)")
	duration := flag.Duration("duration", 30*time.Second, "Probe duration")
	verbose := flag.Bool("v", false, "Print every received event")
	flag.Parse()

	if *password == "" {
		log.Fatal("-password is required")
	}

	log.Printf("probing %s with %d sockets for %v", *host, *clients, *duration)

	token, err := login(*host, *email, *password)
	if err != nil {
		log.Fatalf("login failed: %v", err)
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup
	stopChan := make(chan struct{})

	for i := 0; i < *clients; i++ {
		wg.Add(1)
		go runClient(*host, token, i, *verbose, stopChan, &wg)
		time.Sleep(50 * time.Millisecond)
	}

	select {
	case <-time.After(*duration):
		log.Println("probe duration reached")
	case <-interrupt:
		log.Println("interrupted")
	}

	close(stopChan)
	wg.Wait()

	printMetrics()
}

func postJSON(u string, payload any, token string, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned status %d", u, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func login(host, email, password string) (string, error) {
	var result struct {
		Access string `json:"access"`
	}
	err := postJSON(fmt.Sprintf("http://%s/api/users/auth/login", host),
		map[string]string{"email": email, "password": password}, "", &result)
	return result.Access, err
}

func getTicket(host, token string) (string, error) {
	var result struct {
		Ticket string `json:"ticket"`
	}
	err := postJSON(fmt.Sprintf("http://%s/api/ws/ticket", host), struct{}{}, token, &result)
	return result.Ticket, err
}

func runClient(host, token string, id int, verbose bool, stopChan <-chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()
	atomic.AddInt64(&metrics.ConnectionsAttempted, 1)

	ticket, err := getTicket(host, token)
	if err != nil {
		log.Printf("client %d: %v", id, err)
		atomic.AddInt64(&metrics.ConnectionsFailed, 1)
		atomic.AddInt64(&metrics.Errors, 1)
		return
	}

	u := url.URL{Scheme: "ws", Host: host, Path: "/api/ws", RawQuery: "ticket=" + url.QueryEscape(ticket)}
	c, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Printf("client %d: dial: %v", id, err)
		atomic.AddInt64(&metrics.ConnectionsFailed, 1)
		atomic.AddInt64(&metrics.Errors, 1)
		return
	}
	if resp != nil && resp.Body != nil {
		defer func() { _ = resp.Body.Close() }()
	}
	defer func() { _ = c.Close() }()

	atomic.AddInt64(&metrics.ConnectionsSuccess, 1)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				return
			}
			atomic.AddInt64(&metrics.EventsReceived, 1)
			if verbose {
				log.Printf("client %d: %s", id, msg)
			}
		}
	}()

	select {
	case <-stopChan:
		_ = c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	case <-done:
		atomic.AddInt64(&metrics.Errors, 1)
	}
}

func printMetrics() {
	log.Println("probe results")
	log.Printf("connections attempted: %d", atomic.LoadInt64(&metrics.ConnectionsAttempted))
	log.Printf("connections successful: %d", atomic.LoadInt64(&metrics.ConnectionsSuccess))
	log.Printf("connections failed: %d", atomic.LoadInt64(&metrics.ConnectionsFailed))
	log.Printf("events received: %d", atomic.LoadInt64(&metrics.EventsReceived))
	log.Printf("errors: %d", atomic.LoadInt64(&metrics.Errors))
}
