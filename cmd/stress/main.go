// cmd/stress/main.go

// Stress fires concurrent consumption requests at a running server and
// verifies the no-oversell invariant end to end: however many requests
// race, recorded consumption never exceeds the stock baseline.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

type state struct {
	Users []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"users"`
	Items []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"items"`
	Consumption []struct {
		ItemID   string `json:"itemId"`
		Quantity int    `json:"quantity"`
	} `json:"consumption"`
}

func main() {
	addr := flag.String("addr", "http://localhost:3000", "server address")
	requests := flag.Int("requests", 50, "concurrent consumption requests")
	quantity := flag.Int("quantity", 1, "units per request")
	stock := flag.Int("stock", 20, "stock baseline of the test item")
	flag.Parse()

	suffix := uuid.NewString()[:8]
	itemName := "stress-item-" + suffix
	userName := "stress-user-" + suffix

	st := post(*addr, "/api/items", map[string]any{
		"name":  itemName,
		"price": 1.5,
		"stock": *stock,
	})
	st = post(*addr, "/api/users", map[string]any{"name": userName})

	itemID, userID := "", ""
	for _, item := range st.Items {
		if item.Name == itemName {
			itemID = item.ID
		}
	}
	for _, user := range st.Users {
		if user.Name == userName {
			userID = user.ID
		}
	}
	if itemID == "" || userID == "" {
		log.Fatal("failed to seed test item and user")
	}
	defer func() {
		del(*addr, "/api/items/"+itemID)
		del(*addr, "/api/users/"+userID)
	}()

	var accepted, rejected, failed int64
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < *requests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			body, _ := json.Marshal(map[string]any{
				"userId":   userID,
				"itemId":   itemID,
				"quantity": *quantity,
			})
			resp, err := http.Post(*addr+"/api/consumption", "application/json", bytes.NewReader(body))
			if err != nil {
				atomic.AddInt64(&failed, 1)
				return
			}
			defer resp.Body.Close()
			switch resp.StatusCode {
			case http.StatusOK:
				atomic.AddInt64(&accepted, 1)
			case http.StatusBadRequest:
				atomic.AddInt64(&rejected, 1)
			default:
				atomic.AddInt64(&failed, 1)
			}
		}()
	}
	wg.Wait()
	elapsed := time.Since(start)

	final := get(*addr, "/api/state")
	consumed := 0
	for _, c := range final.Consumption {
		if c.ItemID == itemID {
			consumed += c.Quantity
		}
	}

	fmt.Printf("requests:  %d (%d units each) in %v\n", *requests, *quantity, elapsed)
	fmt.Printf("accepted:  %d\n", accepted)
	fmt.Printf("rejected:  %d\n", rejected)
	fmt.Printf("failed:    %d\n", failed)
	fmt.Printf("consumed:  %d of %d\n", consumed, *stock)

	if consumed > *stock {
		log.Fatalf("INVARIANT VIOLATED: consumed %d exceeds stock %d", consumed, *stock)
	}
	fmt.Println("invariant holds: no oversell")
}

func post(addr, path string, payload map[string]any) *state {
	body, _ := json.Marshal(payload)
	resp, err := http.Post(addr+path, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Fatalf("POST %s: %v", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("POST %s: status %d", path, resp.StatusCode)
	}
	return decode(resp)
}

func get(addr, path string) *state {
	resp, err := http.Get(addr + path)
	if err != nil {
		log.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	return decode(resp)
}

func del(addr, path string) {
	req, _ := http.NewRequest(http.MethodDelete, addr+path, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Printf("DELETE %s: %v", path, err)
		return
	}
	resp.Body.Close()
}

func decode(resp *http.Response) *state {
	var st state
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		log.Fatalf("decode state: %v", err)
	}
	return &st
}
