package persistence

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/burgstallerstefan/Secudo-sub000/pkg/model"
)

// HTTPClient implements Client against a remote backend speaking the
// JSON CRUD contract. All paths are scoped under /projects/{projectID}.
type HTTPClient struct {
	baseURL   string
	projectID string
	client    *http.Client
}

// NewHTTPClient creates a client bound to one project on the given backend.
func NewHTTPClient(baseURL, projectID string) *HTTPClient {
	return &HTTPClient{
		baseURL:   baseURL,
		projectID: projectID,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

// errorBody is the backend's error response shape.
type errorBody struct {
	Error string `json:"error"`
}

func (c *HTTPClient) resourceURL(parts ...string) string {
	u := fmt.Sprintf("%s/projects/%s", c.baseURL, url.PathEscape(c.projectID))
	for _, p := range parts {
		u += "/" + url.PathEscape(p)
	}
	return u
}

// do executes a request and decodes the JSON response into out (if non-nil).
func (c *HTTPClient) do(ctx context.Context, op, entity, id, method, rawURL string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &RequestError{Op: op, Entity: entity, ID: id, Cause: err}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return &RequestError{Op: op, Entity: entity, ID: id, Cause: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &RequestError{Op: op, Entity: entity, ID: id, Cause: fmt.Errorf("%w: %v", ErrUnavailable, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.decodeError(op, entity, id, resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &RequestError{Op: op, Entity: entity, ID: id, Status: resp.StatusCode, Cause: fmt.Errorf("decode response: %w", err)}
		}
	}
	return nil
}

func (c *HTTPClient) decodeError(op, entity, id string, resp *http.Response) error {
	var eb errorBody
	msg := resp.Status
	if err := json.NewDecoder(resp.Body).Decode(&eb); err == nil && eb.Error != "" {
		msg = eb.Error
	}

	cause := fmt.Errorf("%s", msg)
	switch resp.StatusCode {
	case http.StatusNotFound:
		cause = fmt.Errorf("%w: %s", ErrNotFound, msg)
	case http.StatusConflict:
		cause = fmt.Errorf("%w: %s", ErrConflict, msg)
	case http.StatusBadGateway, http.StatusServiceUnavailable:
		cause = fmt.Errorf("%w: %s", ErrUnavailable, msg)
	}
	return &RequestError{Op: op, Entity: entity, ID: id, Status: resp.StatusCode, Cause: cause}
}

// Nodes

func (c *HTTPClient) ListNodes(ctx context.Context) ([]model.Node, error) {
	var out []model.Node
	err := c.do(ctx, "list", "node", "", http.MethodGet, c.resourceURL("nodes"), nil, &out)
	return out, err
}

func (c *HTTPClient) CreateNode(ctx context.Context, node model.Node) (model.Node, error) {
	var out model.Node
	err := c.do(ctx, "create", "node", node.ID, http.MethodPost, c.resourceURL("nodes"), node, &out)
	return out, err
}

func (c *HTTPClient) UpdateNode(ctx context.Context, node model.Node) (model.Node, error) {
	var out model.Node
	err := c.do(ctx, "update", "node", node.ID, http.MethodPut, c.resourceURL("nodes", node.ID), node, &out)
	return out, err
}

func (c *HTTPClient) DeleteNode(ctx context.Context, id string) error {
	return c.do(ctx, "delete", "node", id, http.MethodDelete, c.resourceURL("nodes", id), nil, nil)
}

// Edges

func (c *HTTPClient) ListEdges(ctx context.Context) ([]model.Edge, error) {
	var out []model.Edge
	err := c.do(ctx, "list", "edge", "", http.MethodGet, c.resourceURL("edges"), nil, &out)
	return out, err
}

func (c *HTTPClient) CreateEdge(ctx context.Context, edge model.Edge) (model.Edge, error) {
	var out model.Edge
	err := c.do(ctx, "create", "edge", edge.ID, http.MethodPost, c.resourceURL("edges"), edge, &out)
	return out, err
}

func (c *HTTPClient) UpdateEdge(ctx context.Context, edge model.Edge) (model.Edge, error) {
	var out model.Edge
	err := c.do(ctx, "update", "edge", edge.ID, http.MethodPut, c.resourceURL("edges", edge.ID), edge, &out)
	return out, err
}

func (c *HTTPClient) DeleteEdge(ctx context.Context, id string) error {
	return c.do(ctx, "delete", "edge", id, http.MethodDelete, c.resourceURL("edges", id), nil, nil)
}

// Data objects

func (c *HTTPClient) ListDataObjects(ctx context.Context) ([]model.DataObject, error) {
	var out []model.DataObject
	err := c.do(ctx, "list", "data object", "", http.MethodGet, c.resourceURL("data-objects"), nil, &out)
	return out, err
}

func (c *HTTPClient) CreateDataObject(ctx context.Context, obj model.DataObject) (model.DataObject, error) {
	var out model.DataObject
	err := c.do(ctx, "create", "data object", obj.ID, http.MethodPost, c.resourceURL("data-objects"), obj, &out)
	return out, err
}

func (c *HTTPClient) UpdateDataObject(ctx context.Context, obj model.DataObject) (model.DataObject, error) {
	var out model.DataObject
	err := c.do(ctx, "update", "data object", obj.ID, http.MethodPut, c.resourceURL("data-objects", obj.ID), obj, &out)
	return out, err
}

func (c *HTTPClient) DeleteDataObject(ctx context.Context, id string) error {
	return c.do(ctx, "delete", "data object", id, http.MethodDelete, c.resourceURL("data-objects", id), nil, nil)
}

// Component-data links

func (c *HTTPClient) ListComponentData(ctx context.Context) ([]model.ComponentDataLink, error) {
	var out []model.ComponentDataLink
	err := c.do(ctx, "list", "component data", "", http.MethodGet, c.resourceURL("component-data"), nil, &out)
	return out, err
}

func (c *HTTPClient) UpsertComponentData(ctx context.Context, link model.ComponentDataLink) error {
	return c.do(ctx, "upsert", "component data", link.NodeID, http.MethodPut, c.resourceURL("component-data"), link, nil)
}

func (c *HTTPClient) DeleteComponentData(ctx context.Context, nodeID, dataObjectID string) error {
	return c.do(ctx, "delete", "component data", nodeID, http.MethodDelete, c.resourceURL("component-data", nodeID, dataObjectID), nil, nil)
}

// Edge-data-flow links

func (c *HTTPClient) ListEdgeFlows(ctx context.Context) ([]model.EdgeDataFlow, error) {
	var out []model.EdgeDataFlow
	err := c.do(ctx, "list", "edge flow", "", http.MethodGet, c.resourceURL("edge-flows"), nil, &out)
	return out, err
}

func (c *HTTPClient) UpsertEdgeFlow(ctx context.Context, flow model.EdgeDataFlow) error {
	return c.do(ctx, "upsert", "edge flow", flow.EdgeID, http.MethodPut, c.resourceURL("edge-flows"), flow, nil)
}

func (c *HTTPClient) DeleteEdgeFlow(ctx context.Context, edgeID, dataObjectID string) error {
	return c.do(ctx, "delete", "edge flow", edgeID, http.MethodDelete, c.resourceURL("edge-flows", edgeID, dataObjectID), nil, nil)
}

// Savepoints

// savepointCreateBody is the request shape for POST .../savepoints.
type savepointCreateBody struct {
	Title string               `json:"title"`
	State model.SavepointState `json:"state"`
}

func (c *HTTPClient) ListSavepoints(ctx context.Context) ([]model.Savepoint, error) {
	var out []model.Savepoint
	err := c.do(ctx, "list", "savepoint", "", http.MethodGet, c.resourceURL("savepoints"), nil, &out)
	return out, err
}

func (c *HTTPClient) CreateSavepoint(ctx context.Context, title string, state model.SavepointState) (model.Savepoint, error) {
	var out model.Savepoint
	body := savepointCreateBody{Title: title, State: state}
	err := c.do(ctx, "create", "savepoint", "", http.MethodPost, c.resourceURL("savepoints"), body, &out)
	return out, err
}

func (c *HTTPClient) GetSavepointState(ctx context.Context, id string) (model.SavepointState, error) {
	var out model.SavepointState
	err := c.do(ctx, "get", "savepoint", id, http.MethodGet, c.resourceURL("savepoints", id), nil, &out)
	return out, err
}

func (c *HTTPClient) DeleteSavepoint(ctx context.Context, id string) error {
	return c.do(ctx, "delete", "savepoint", id, http.MethodDelete, c.resourceURL("savepoints", id), nil, nil)
}

func (c *HTTPClient) RestoreSavepoint(ctx context.Context, id string) (model.RestoreResult, error) {
	var out model.RestoreResult
	err := c.do(ctx, "restore", "savepoint", id, http.MethodPost, c.resourceURL("savepoints", id, "restore"), nil, &out)
	return out, err
}
