package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/rx3lixir/golos/internal/db"
)

// Client talks to the golos HTTP API on behalf of one signed-in user
type Client struct {
	baseURL      string
	http         *http.Client
	userID       uuid.UUID
	accessToken  string
	refreshToken string
	logger       *log.Logger
}

type envelope struct {
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Field   string          `json:"field"`
}

type authData struct {
	User struct {
		ID   uuid.UUID `json:"id"`
		Name string    `json:"name"`
	} `json:"user"`
	Tokens struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	} `json:"tokens"`
}

func main() {
	server := flag.String("server", "http://localhost:8080", "golos API address")
	email := flag.String("email", "", "account email")
	password := flag.String("password", "", "account password")
	name := flag.String("signup", "", "create the account with this display name first")
	flag.Parse()

	if *email == "" || *password == "" {
		fmt.Println("Error: email and password are required")
		fmt.Println("Usage: client -email you@example.com -password SECRET [-signup NAME] [-server http://localhost:8080]")
		os.Exit(1)
	}

	// Setup logger
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    false,
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
		Level:           log.InfoLevel,
	})

	client := NewClient(*server, logger)

	if *name != "" {
		logger.Info("Signing up...", "email", *email)
		if err := client.Signup(*name, *email, *password); err != nil {
			logger.Fatal("Signup failed", "error", err)
		}
	} else {
		logger.Info("Signing in...", "email", *email)
		if err := client.Signin(*email, *password); err != nil {
			logger.Fatal("Signin failed", "error", err)
		}
	}

	logger.Info("✓ Authentication successful", "user_id", client.userID)

	if err := client.Inbox(); err != nil {
		logger.Error("Failed to check notifications", "error", err)
	}

	client.InteractiveMode()
}

func NewClient(baseURL string, logger *log.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/") + "/api/v1",
		http:    &http.Client{Timeout: 60 * time.Second},
		logger:  logger,
	}
}

func (c *Client) Signup(name, email, password string) error {
	return c.authenticate("/auth/signup", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	})
}

func (c *Client) Signin(email, password string) error {
	return c.authenticate("/auth/signin", map[string]string{
		"email":    email,
		"password": password,
	})
}

// Refresh swaps the refresh token for a new pair
func (c *Client) Refresh() error {
	return c.authenticate("/auth/refresh", map[string]string{
		"refresh_token": c.refreshToken,
	})
}

func (c *Client) authenticate(path string, body any) error {
	var data authData
	if err := c.doJSON(http.MethodPost, path, body, &data); err != nil {
		return err
	}

	c.userID = data.User.ID
	c.accessToken = data.Tokens.AccessToken
	c.refreshToken = data.Tokens.RefreshToken
	return nil
}

// Upload publishes an audio file as a new recording
func (c *Client) Upload(filePath, title string) error {
	c.logger.Info("Uploading recording", "file", filePath, "title", title)

	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("title", title); err != nil {
		return err
	}
	fw, err := mw.CreateFormFile("audio", filepath.Base(filePath))
	if err != nil {
		return err
	}
	if _, err := io.Copy(fw, f); err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/recordings", &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var rec struct {
		ID uuid.UUID `json:"id"`
	}
	if err := c.send(req, &rec); err != nil {
		return err
	}

	c.logger.Info("✓ Recording published", "id", rec.ID)
	return nil
}

func (c *Client) Recordings(order string) error {
	path := "/recordings"
	if order != "" {
		path += "?sort=" + url.QueryEscape(order)
	}

	var recordings []*db.Recording
	if err := c.doJSON(http.MethodGet, path, nil, &recordings); err != nil {
		return err
	}

	if len(recordings) == 0 {
		fmt.Println("No recordings yet")
		return nil
	}
	for _, r := range recordings {
		fmt.Printf("%s  %-40s  ★%d (%d)  💬%d\n", r.ID, r.Title, r.RatingsAverage, r.RatingsQuantity, r.CommentsQuantity)
	}
	return nil
}

func (c *Client) Rate(recordingID uuid.UUID, value int) error {
	return c.doJSON(http.MethodPut, "/recordings/"+recordingID.String()+"/ratings", map[string]int{"rating": value}, nil)
}

func (c *Client) Comment(recordingID uuid.UUID, text string) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("text_comment", text); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/recordings/"+recordingID.String()+"/comments", &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.send(req, nil)
}

// Inbox prints the notifications and marks them read
func (c *Client) Inbox() error {
	var notifications []*db.Notification
	if err := c.doJSON(http.MethodGet, "/users/me/notifications", nil, &notifications); err != nil {
		return err
	}

	if len(notifications) == 0 {
		c.logger.Info("No notifications")
		return nil
	}
	for _, n := range notifications {
		fmt.Printf("[%s] %s %s\n", n.CreatedAt.Format(time.DateTime), n.Actor.Name, describe(n))
	}

	return c.doJSON(http.MethodPost, "/users/me/notifications/read", nil, nil)
}

func describe(n *db.Notification) string {
	switch {
	case n.Rating != nil:
		return fmt.Sprintf("rated %q %d/20", n.Rating.RecordingTitle, n.Rating.Rating)
	case n.Comment != nil:
		if n.Comment.TextComment == "" {
			return fmt.Sprintf("left a voice comment on %q", n.Comment.RecordingTitle)
		}
		return fmt.Sprintf("commented on %q: %s", n.Comment.RecordingTitle, n.Comment.TextComment)
	case n.Answer != nil:
		return fmt.Sprintf("answered %q", n.Answer.QuestionTitle)
	}
	return string(n.Kind)
}

// Download saves a recording's audio to outputPath
func (c *Client) Download(recordingID uuid.UUID, outputPath string) error {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+"/recordings/"+recordingID.String()+"/audio", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer out.Close()

	n, err := io.Copy(out, resp.Body)
	if err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	c.logger.Info("✓ Recording downloaded", "path", outputPath, "bytes", n)
	return nil
}

func (c *Client) doJSON(method, path string, body, dst any) error {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, r)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, dst)
}

func (c *Client) send(req *http.Request, dst any) error {
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}
	if dst == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return json.Unmarshal(env.Data, dst)
}

func decodeError(resp *http.Response) error {
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil || env.Message == "" {
		return fmt.Errorf("server returned %s", resp.Status)
	}
	if env.Field != "" {
		return fmt.Errorf("%s (%s): %s", resp.Status, env.Field, env.Message)
	}
	return fmt.Errorf("%s: %s", resp.Status, env.Message)
}

func (c *Client) InteractiveMode() {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("\n---- golos -----")
	fmt.Println("Commands:")
	fmt.Println("upload <file_path> <title>            - Publish a recording")
	fmt.Println("list [newest|top_rated|most_commented] - List recordings")
	fmt.Println("rate <recording_id> <1-20>            - Rate a recording")
	fmt.Println("comment <recording_id> <text>         - Comment on a recording")
	fmt.Println("download <recording_id> [output_path] - Download a recording")
	fmt.Println("inbox                                 - Show notifications")
	fmt.Println("refresh                               - Rotate tokens")
	fmt.Println("quit                                  - Exit the client")
	fmt.Println()

	for {
		fmt.Print(">_ ")
		input, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			c.logger.Error("Error reading input", "error", err)
			continue
		}

		parts := strings.Fields(strings.TrimSpace(input))
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "upload":
			if len(parts) < 3 {
				fmt.Println("Usage: upload <file_path> <title>")
				continue
			}
			if err := c.Upload(parts[1], strings.Join(parts[2:], " ")); err != nil {
				fmt.Println("Error uploading recording:", err)
			}

		case "list":
			order := ""
			if len(parts) > 1 {
				order = parts[1]
			}
			if err := c.Recordings(order); err != nil {
				fmt.Println("Error listing recordings:", err)
			}

		case "rate":
			if len(parts) != 3 {
				fmt.Println("Usage: rate <recording_id> <1-20>")
				continue
			}
			id, err := uuid.Parse(parts[1])
			if err != nil {
				fmt.Println("Invalid recording ID:", err)
				continue
			}
			value, err := strconv.Atoi(parts[2])
			if err != nil {
				fmt.Println("Invalid rating:", err)
				continue
			}
			if err := c.Rate(id, value); err != nil {
				fmt.Println("Error rating recording:", err)
			}

		case "comment":
			if len(parts) < 3 {
				fmt.Println("Usage: comment <recording_id> <text>")
				continue
			}
			id, err := uuid.Parse(parts[1])
			if err != nil {
				fmt.Println("Invalid recording ID:", err)
				continue
			}
			if err := c.Comment(id, strings.Join(parts[2:], " ")); err != nil {
				fmt.Println("Error posting comment:", err)
			}

		case "download":
			if len(parts) < 2 {
				fmt.Println("Usage: download <recording_id> [output_path]")
				continue
			}
			id, err := uuid.Parse(parts[1])
			if err != nil {
				fmt.Println("Invalid recording ID:", err)
				continue
			}

			outputPath := fmt.Sprintf("recording_%s.audio", id.String()[:8])
			if len(parts) >= 3 {
				outputPath = parts[2]
			}

			// Ensure directory exists
			dir := filepath.Dir(outputPath)
			if dir != "." && dir != "" {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					fmt.Println("Error creating directory:", err)
					continue
				}
			}

			if err := c.Download(id, outputPath); err != nil {
				fmt.Println("Error downloading recording:", err)
			}

		case "inbox":
			if err := c.Inbox(); err != nil {
				fmt.Println("Error checking notifications:", err)
			}

		case "refresh":
			if err := c.Refresh(); err != nil {
				fmt.Println("Error refreshing tokens:", err)
			} else {
				fmt.Println("Tokens rotated")
			}

		case "quit", "exit":
			fmt.Println("Goodbye!")
			return

		default:
			fmt.Println("Unknown command:", parts[0])
		}
	}
}
