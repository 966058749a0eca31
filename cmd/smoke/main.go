// Command smoke drives a running server through the group, history and query
// endpoints. It mints its own tokens from JWT_SECRET.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type client struct {
	baseURL string
	token   string
	http    *http.Client
}

func mintToken(secret, userID string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func (c *client) do(method, path string, body interface{}) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	return resp.StatusCode, out, err
}

func step(title string) {
	color.Yellow("\n%s", title)
}

// expect runs one request and exits unless it answers with the wanted status.
func (c *client) expect(want int, method, path string, body interface{}) []byte {
	status, out, err := c.do(method, path, body)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	if status != want {
		color.Red("Unexpected status %d (want %d): %s", status, want, string(out))
		os.Exit(1)
	}
	color.Green("Status: %d", status)
	return out
}

func main() {
	_ = godotenv.Load()

	baseURL := flag.String("url", "http://localhost:3000", "server base url")
	userID := flag.String("user", "smoke-user", "user id placed in the token")
	question := flag.String("query", "What have we discussed so far?", "question for /api/query")
	flag.Parse()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		color.Red("JWT_SECRET is not set")
		os.Exit(1)
	}
	token, err := mintToken(secret, *userID)
	if err != nil {
		color.Red("Cannot sign token: %v", err)
		os.Exit(1)
	}

	c := &client{baseURL: *baseURL, token: token, http: &http.Client{Timeout: 2 * time.Minute}}
	color.Cyan("Smoke run against %s as %s", *baseURL, *userID)

	step("1. Health")
	c.expect(http.StatusOK, http.MethodGet, "/health", nil)

	step("2. Create group")
	body := c.expect(http.StatusCreated, http.MethodPost, "/api/groups", map[string]string{"name": "Smoke Test"})
	var created envelope
	var group struct {
		Id    string `json:"id"`
		Chats []struct {
			Id string `json:"id"`
		} `json:"chats"`
	}
	if err := json.Unmarshal(body, &created); err != nil || json.Unmarshal(created.Data, &group) != nil || len(group.Chats) == 0 {
		color.Red("Cannot read group response: %s", string(body))
		os.Exit(1)
	}
	fmt.Printf("group=%s chat=%s\n", group.Id, group.Chats[0].Id)

	step("3. List groups")
	c.expect(http.StatusOK, http.MethodGet, "/api/groups", nil)

	step("4. History")
	c.expect(http.StatusOK, http.MethodGet, fmt.Sprintf("/api/history?workspace_id=%s&thread_id=%s", group.Id, group.Chats[0].Id), nil)

	step("5. Query")
	body = c.expect(http.StatusOK, http.MethodPost, "/api/query", map[string]interface{}{
		"query":        *question,
		"workspace_id": group.Id,
		"thread_id":    group.Chats[0].Id,
	})
	fmt.Println(string(body))

	step("6. Delete group")
	c.expect(http.StatusOK, http.MethodDelete, "/api/groups/"+group.Id, nil)

	color.Cyan("\nSmoke run passed")
}
