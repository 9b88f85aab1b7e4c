package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

func main() {
	baseURL := os.Getenv("LINEAGE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	// Wait for server to start
	time.Sleep(2 * time.Second)

	fmt.Println("Starting Integration Test...")

	fmt.Println("1. Adding members...")
	ids := map[string]string{}
	for _, name := range []string{"Grandma", "Mum", "Uncle", "Child"} {
		var member struct {
			ID string `json:"id"`
		}
		if !sendRequest(baseURL, "POST", "/members", map[string]string{"name": name}, http.StatusCreated, &member) {
			fail("Add member " + name)
		}
		ids[name] = member.ID
	}
	fmt.Println("PASSED: Add members")

	fmt.Println("2. Connecting parents and children...")
	links := [][2]string{{"Grandma", "Mum"}, {"Grandma", "Uncle"}, {"Mum", "Child"}}
	for _, l := range links {
		payload := map[string]string{"type": "parent-child", "from": ids[l[0]], "to": ids[l[1]]}
		if !sendRequest(baseURL, "POST", "/relationships", payload, http.StatusCreated, nil) {
			fail("Connect " + l[0] + " -> " + l[1])
		}
	}
	fmt.Println("PASSED: Connect")

	fmt.Println("3. Refusing a cycle...")
	cycle := map[string]string{"type": "parent-child", "from": ids["Child"], "to": ids["Grandma"]}
	if !sendRequest(baseURL, "POST", "/relationships", cycle, http.StatusConflict, nil) {
		fail("Cycle rejection")
	}
	fmt.Println("PASSED: Cycle rejection")

	fmt.Println("4. Computing layout...")
	var layout struct {
		Placements []struct {
			PersonID   string `json:"personId"`
			Generation int    `json:"generation"`
		} `json:"placements"`
	}
	if !sendRequest(baseURL, "GET", "/layout", nil, http.StatusOK, &layout) {
		fail("Layout")
	}
	for _, p := range layout.Placements {
		if p.PersonID == ids["Child"] && p.Generation != 2 {
			fail(fmt.Sprintf("Layout: child at generation %d", p.Generation))
		}
	}
	fmt.Println("PASSED: Layout")

	fmt.Println("5. Saving...")
	if !sendRequest(baseURL, "POST", "/save", nil, http.StatusOK, nil) {
		fmt.Println("SKIPPED: Save (storage disabled?)")
	} else {
		fmt.Println("PASSED: Save")
	}
}

func fail(step string) {
	fmt.Println("FAILED: " + step)
	os.Exit(1)
}

func sendRequest(baseURL, method, endpoint string, payload interface{}, want int, out interface{}) bool {
	var body io.Reader
	if payload != nil {
		jsonBytes, _ := json.Marshal(payload)
		body = bytes.NewBuffer(jsonBytes)
	}

	req, err := http.NewRequest(method, baseURL+endpoint, body)
	if err != nil {
		fmt.Printf("Error creating request: %v\n", err)
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error sending request: %v\n", err)
		return false
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != want {
		fmt.Printf("Request failed with status %d: %s\n", resp.StatusCode, string(respBody))
		return false
	}
	fmt.Printf("Response: %s\n", string(respBody))

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			fmt.Printf("Error decoding response: %v\n", err)
			return false
		}
	}
	return true
}
