package gravibase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
)

// Filter is the single-attribute equality expression the generic entity
// query understands: attr=="value".
type Filter struct {
	Attribute string
	Value     string
}

func (f Filter) Encode() string {
	return fmt.Sprintf(`%s=="%s"`, f.Attribute, f.Value)
}

// QueryEntities runs a filtered query against the generic entity API and
// decodes the result list into out. The backend answers with either a bare
// array or a {data: [...]} wrapper; both are handled.
func (c *Client) QueryEntities(ctx context.Context, entity string, filter Filter, out any) error {
	endpoint := c.endpoint("application", "api", entity)
	if filter != (Filter{}) {
		endpoint += "?filter=" + url.QueryEscape(filter.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return errors.Wrap(err, "[Client.QueryEntities] build request")
	}

	resp, err := c.authed.Do(req)
	if err != nil {
		return transportError(err)
	}

	if resp.StatusCode != http.StatusOK {
		drain(resp)
		return apiError(CodeLookupFailed, resp.StatusCode, nil)
	}

	blob, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return apiError(CodeLookupFailed, resp.StatusCode, err)
	}

	if err := unmarshalEntityList(blob, out); err != nil {
		return apiError(CodeLookupFailed, resp.StatusCode, err)
	}
	return nil
}

// CreateEntity inserts a new record through the generic entity API.
func (c *Client) CreateEntity(ctx context.Context, entity string, record any) error {
	return c.writeEntity(ctx, http.MethodPost, entity, record)
}

// UpdateEntity replaces an existing record through the generic entity API.
func (c *Client) UpdateEntity(ctx context.Context, entity string, record any) error {
	return c.writeEntity(ctx, http.MethodPut, entity, record)
}

func (c *Client) writeEntity(ctx context.Context, method, entity string, record any) error {
	req, err := c.newJSONRequest(ctx, method, c.endpoint("application", "api", entity), record)
	if err != nil {
		return err
	}

	resp, err := c.authed.Do(req)
	if err != nil {
		return transportError(err)
	}
	defer drain(resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apiError(CodeUpdateFailed, resp.StatusCode, nil)
	}
	return nil
}

func unmarshalEntityList(blob []byte, out any) error {
	trimmed := bytes.TrimSpace(blob)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return json.Unmarshal(trimmed, out)
	}

	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &wrapper); err != nil {
		return err
	}
	if len(wrapper.Data) == 0 {
		wrapper.Data = json.RawMessage("[]")
	}
	return json.Unmarshal(wrapper.Data, out)
}
