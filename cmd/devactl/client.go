package main

import (
	"fmt"
	"io"
	"time"

	"github.com/go-resty/resty/v2"
)

// client is a thin REST client for the service API.
type client struct {
	http *resty.Client
}

func newClient(baseURL string) *client {
	return &client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetHeader("Content-Type", "application/json").
			SetTimeout(2 * time.Minute),
	}
}

type chatResponse struct {
	Reply string `json:"reply"`
}

func (c *client) chat(message string) (string, error) {
	var out chatResponse
	resp, err := c.http.R().
		SetBody(map[string]string{"message": message}).
		SetResult(&out).
		Post("/api/chat")
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", fmt.Errorf("http %d: %s", resp.StatusCode(), resp.String())
	}
	return out.Reply, nil
}

type memoryView struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	Tags       []string `json:"tags"`
	Importance int      `json:"importance"`
}

func (c *client) listMemories(out io.Writer) error {
	var res struct {
		Memories []memoryView `json:"memories"`
		Count    int          `json:"count"`
	}
	resp, err := c.http.R().SetResult(&res).Get("/api/memories")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("http %d: %s", resp.StatusCode(), resp.String())
	}
	if res.Count == 0 {
		fmt.Fprintln(out, "no memories stored")
		return nil
	}
	for i, m := range res.Memories {
		fmt.Fprintf(out, "%d. %s — %s", i+1, m.Title, m.Content)
		if len(m.Tags) > 0 {
			fmt.Fprintf(out, " %v", m.Tags)
		}
		fmt.Fprintln(out)
	}
	return nil
}

type reminderView struct {
	ID        string    `json:"id"`
	Task      string    `json:"task"`
	RemindAt  time.Time `json:"remindAt"`
	Completed bool      `json:"completed"`
}

func (c *client) listReminders(out io.Writer, pendingOnly bool) error {
	var res struct {
		Reminders []reminderView `json:"reminders"`
		Count     int            `json:"count"`
	}
	req := c.http.R().SetResult(&res)
	if pendingOnly {
		req.SetQueryParam("pending", "true")
	}
	resp, err := req.Get("/api/reminders")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("http %d: %s", resp.StatusCode(), resp.String())
	}
	if res.Count == 0 {
		fmt.Fprintln(out, "no reminders scheduled")
		return nil
	}
	for i, r := range res.Reminders {
		status := " "
		if r.Completed {
			status = "x"
		}
		fmt.Fprintf(out, "%d. [%s] %s — %s\n", i+1, status, r.RemindAt.Format("2006-01-02 15:04"), r.Task)
	}
	return nil
}
