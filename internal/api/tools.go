package api

import (
	"context"

	"github.com/me/sheetify/pkg/model"
)

// ListTools fetches the tool collection in server order.
func (c *Client) ListTools(ctx context.Context) ([]model.Tool, error) {
	resp, err := c.Get(ctx, "/tools")
	if err != nil {
		return nil, err
	}
	var tools []model.Tool
	if err := resp.Decode(&tools); err != nil {
		return nil, err
	}
	if tools == nil {
		tools = []model.Tool{}
	}
	return tools, nil
}

// CreateTool submits a prompt and returns the tool the server generated.
func (c *Client) CreateTool(ctx context.Context, prompt string) (*model.Tool, error) {
	resp, err := c.Post(ctx, "/tools", model.CreateToolRequest{Prompt: prompt})
	if err != nil {
		return nil, err
	}
	var tool model.Tool
	if err := resp.Decode(&tool); err != nil {
		return nil, err
	}
	return &tool, nil
}
