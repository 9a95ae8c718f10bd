package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

type apiClient struct {
	http *resty.Client
}

func newAPIClient(baseURL string, timeout time.Duration) *apiClient {
	return &apiClient{http: resty.New().SetBaseURL(baseURL).SetTimeout(timeout)}
}

// call runs req and pretty-prints the JSON body to out. Non-2xx responses become errors.
func (c *apiClient) call(req *resty.Request, method, path string, out io.Writer) error {
	resp, err := req.Execute(method, path)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("http %d: %s", resp.StatusCode(), resp.String())
	}
	var v interface{}
	if err := json.Unmarshal(resp.Body(), &v); err != nil {
		_, err = fmt.Fprintln(out, resp.String())
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (c *apiClient) listGrievances(out io.Writer) error {
	return c.call(c.http.R(), resty.MethodGet, "/grievances", out)
}

func (c *apiClient) getGrievance(id string, out io.Writer) error {
	return c.call(c.http.R().SetPathParam("id", id), resty.MethodGet, "/grievances/{id}", out)
}

func (c *apiClient) replyGrievance(id, reply string, out io.Writer) error {
	req := c.http.R().SetPathParam("id", id).SetBody(map[string]string{"reply": reply})
	return c.call(req, resty.MethodPost, "/grievances/{id}/reply", out)
}

func (c *apiClient) listDiary(limit int, out io.Writer) error {
	req := c.http.R()
	if limit > 0 {
		req.SetQueryParam("limit", strconv.Itoa(limit))
	}
	return c.call(req, resty.MethodGet, "/diary", out)
}

func (c *apiClient) deleteDiary(id string, out io.Writer) error {
	return c.call(c.http.R().SetPathParam("id", id), resty.MethodDelete, "/diary/{id}", out)
}

func (c *apiClient) latestMood(username string, out io.Writer) error {
	req := c.http.R()
	if username != "" {
		req.SetQueryParam("username", username)
	}
	return c.call(req, resty.MethodGet, "/mood/latest", out)
}

func (c *apiClient) health(out io.Writer) error {
	return c.call(c.http.R(), resty.MethodGet, "/health", out)
}
