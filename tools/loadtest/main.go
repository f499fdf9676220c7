package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"net/url"
	"os"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/devaloi/namechat/internal/domain"
)

func main() {
	wsURL := flag.String("url", "ws://localhost:8080/ws", "WebSocket server URL")
	clients := flag.Int("clients", 10, "Number of concurrent clients")
	prefix := flag.String("prefix", "load", "Name prefix registered by each client")
	messages := flag.Int("messages", 10, "Messages per client")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	log.Info().Int("clients", *clients).Int("messages", *messages).Msg("load test")

	var (
		connected  int64
		registered int64
		sent       int64
		received   int64
		errCount   int64
		latencies  []time.Duration
		latencyMu  sync.Mutex
		wg         sync.WaitGroup
	)

	start := time.Now()
	run := start.UnixNano()

	for i := 0; i < *clients; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()

			owner := fmt.Sprintf("0x%040x", run+int64(id))
			conn, _, err := websocket.DefaultDialer.Dial(*wsURL+"?owner="+url.QueryEscape(owner), nil)
			if err != nil {
				atomic.AddInt64(&errCount, 1)
				log.Warn().Err(err).Int("client", id).Msg("dial error")
				return
			}
			defer conn.Close()
			atomic.AddInt64(&connected, 1)

			// Our own chat frames echo back through the room broadcast,
			// which gives the round-trip latency.
			pending := make(map[string]time.Time)
			var pendingMu sync.Mutex

			done := make(chan struct{})
			go func() {
				defer close(done)
				for {
					_, data, err := conn.ReadMessage()
					if err != nil {
						return
					}
					atomic.AddInt64(&received, 1)

					var frame struct {
						Type    string             `json:"type"`
						Owner   string             `json:"owner"`
						Message domain.MessageView `json:"message"`
					}
					if json.Unmarshal(data, &frame) != nil {
						continue
					}
					switch frame.Type {
					case domain.FrameRegistered:
						if frame.Owner == owner {
							atomic.AddInt64(&registered, 1)
						}
					case domain.FrameChat:
						if frame.Message.Author != owner {
							continue
						}
						pendingMu.Lock()
						if sentAt, ok := pending[frame.Message.Content]; ok {
							delete(pending, frame.Message.Content)
							latencyMu.Lock()
							latencies = append(latencies, time.Since(sentAt))
							latencyMu.Unlock()
						}
						pendingMu.Unlock()
					case domain.FrameError:
						atomic.AddInt64(&errCount, 1)
					}
				}
			}()

			reg, _ := json.Marshal(domain.Request{Type: domain.FrameRegister, Name: fmt.Sprintf("%s-%d-%d", *prefix, run, id)})
			conn.WriteMessage(websocket.TextMessage, reg)

			for j := 0; j < *messages; j++ {
				text := fmt.Sprintf("msg %d from %d", j, id)
				chat, _ := json.Marshal(domain.Request{Type: domain.FrameChat, Text: text})

				pendingMu.Lock()
				pending[text] = time.Now()
				pendingMu.Unlock()

				if err := conn.WriteMessage(websocket.TextMessage, chat); err != nil {
					atomic.AddInt64(&errCount, 1)
					return
				}
				atomic.AddInt64(&sent, 1)
				time.Sleep(10 * time.Millisecond)
			}

			// Wait a bit for remaining messages.
			time.Sleep(500 * time.Millisecond)
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			<-done
		}(i)
	}

	wg.Wait()
	elapsed := time.Since(start)

	slices.Sort(latencies)

	fmt.Println("\n=== Load Test Results ===")
	fmt.Printf("Duration:    %s\n", elapsed.Round(time.Millisecond))
	fmt.Printf("Clients:     %d connected, %d registered\n", connected, registered)
	fmt.Printf("Sent:        %d messages\n", sent)
	fmt.Printf("Received:    %d frames\n", received)
	fmt.Printf("Errors:      %d\n", errCount)
	if len(latencies) > 0 {
		fmt.Printf("Latency p50: %s\n", percentile(latencies, 50))
		fmt.Printf("Latency p95: %s\n", percentile(latencies, 95))
		fmt.Printf("Latency p99: %s\n", percentile(latencies, 99))
	}
	fmt.Printf("Throughput:  %.0f msgs/sec\n", float64(sent)/elapsed.Seconds())
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
