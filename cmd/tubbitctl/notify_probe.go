package main

import (
	"bytes"
	"encoding/json"
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

	"tubbit/internal/notifications"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

// probeMetrics tracks the probe results
type probeMetrics struct {
	ConnectionsAttempted int64
	ConnectionsSuccess   int64
	ConnectionsFailed    int64
	EventsReceived       int64
	Errors               int64
}

var probe struct {
	host     string
	email    string
	password string
	clients  int
	duration time.Duration
}

var notifyProbeCmd = &cobra.Command{
	Use:   "notify-probe",
	Short: "Hold notification sockets open and print the events they receive",
	Long: `Logs in as one user, opens --clients notification sockets for that
user and prints every event pushed to them until --duration elapses.
Useful for checking the Redis fan-out between several server replicas.`,
	RunE: runNotifyProbe,
}

func init() {
	f := notifyProbeCmd.Flags()
	f.StringVar(&probe.host, "host", "localhost:8000", "API server host")
	f.StringVar(&probe.email, "email", "", "Account email")
	f.StringVar(&probe.password, "password", "password123", "Account password")
	f.IntVar(&probe.clients, "clients", 1, "Concurrent sockets to open")
	f.DurationVar(&probe.duration, "duration", 30*time.Second, "How long to listen")
	_ = notifyProbeCmd.MarkFlagRequired("email")
}

func runNotifyProbe(cmd *cobra.Command, args []string) error {
	var m probeMetrics
	log.Printf("🚀 Notification probe against %s with %d socket(s) for %v", probe.host, probe.clients, probe.duration)

	token, err := probeLogin(probe.host, probe.email, probe.password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	log.Printf("✅ Logged in as %s", probe.email)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < probe.clients; i++ {
		wg.Add(1)
		go listen(probe.host, token, i, stop, &wg, &m)
		time.Sleep(50 * time.Millisecond)
	}

	select {
	case <-time.After(probe.duration):
		log.Println("⏱️  Probe duration reached")
	case <-interrupt:
		log.Println("🛑 Interrupted by user")
	}
	close(stop)
	wg.Wait()

	log.Println("📊 Probe results")
	log.Printf("Connections attempted: %d", atomic.LoadInt64(&m.ConnectionsAttempted))
	log.Printf("Connections successful: %d", atomic.LoadInt64(&m.ConnectionsSuccess))
	log.Printf("Connections failed: %d", atomic.LoadInt64(&m.ConnectionsFailed))
	log.Printf("Events received: %d", atomic.LoadInt64(&m.EventsReceived))
	log.Printf("Errors: %d", atomic.LoadInt64(&m.Errors))
	if atomic.LoadInt64(&m.ConnectionsSuccess) == 0 {
		return fmt.Errorf("no socket could connect")
	}
	return nil
}

func probeLogin(host, email, password string) (string, error) {
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	loginURL := fmt.Sprintf("http://%s/api/v1/users/login", host)

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Post(loginURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	var envelope struct {
		Message string `json:"message"`
		Data    struct {
			AccessToken string `json:"accessToken"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, envelope.Message)
	}
	if envelope.Data.AccessToken == "" {
		return "", fmt.Errorf("response carried no access token")
	}
	return envelope.Data.AccessToken, nil
}

func listen(host, token string, id int, stop <-chan struct{}, wg *sync.WaitGroup, m *probeMetrics) {
	defer wg.Done()
	atomic.AddInt64(&m.ConnectionsAttempted, 1)

	u := url.URL{Scheme: "ws", Host: host, Path: "/api/v1/ws"}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	conn, resp, err := websocket.DefaultDialer.Dial(u.String(), header)
	if resp != nil && resp.Body != nil {
		defer func() { _ = resp.Body.Close() }()
	}
	if err != nil {
		atomic.AddInt64(&m.ConnectionsFailed, 1)
		atomic.AddInt64(&m.Errors, 1)
		log.Printf("socket %d: dial failed: %v", id, err)
		return
	}
	defer func() { _ = conn.Close() }()
	atomic.AddInt64(&m.ConnectionsSuccess, 1)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var ev notifications.Event
			if err := json.Unmarshal(raw, &ev); err != nil {
				atomic.AddInt64(&m.Errors, 1)
				continue
			}
			atomic.AddInt64(&m.EventsReceived, 1)
			log.Printf("socket %d: %s from user %d (%s %d)", id, ev.Type, ev.ActorID, ev.TargetType, ev.TargetID)
		}
	}()

	select {
	case <-stop:
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		select {
		case <-done:
		case <-time.After(time.Second):
		}
	case <-done:
	}
}
