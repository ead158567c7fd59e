package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
)

func resource(base string, id ID, suffix ...string) string {
	path := base + "/" + url.PathEscape(id.String())
	for _, s := range suffix {
		path += "/" + s
	}
	return path
}

// ListClients returns every client.
func (c *Client) ListClients(ctx context.Context) ([]ClientRecord, error) {
	var out []ClientRecord
	if err := c.do(ctx, http.MethodGet, "/v1/clients", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetClient loads one client.
func (c *Client) GetClient(ctx context.Context, id ID) (ClientRecord, error) {
	var out ClientRecord
	err := c.do(ctx, http.MethodGet, resource("/v1/clients", id), nil, &out)
	return out, err
}

// CreateClient creates a client.
func (c *Client) CreateClient(ctx context.Context, body ClientPayload) (ClientRecord, error) {
	var out ClientRecord
	err := c.do(ctx, http.MethodPost, "/v1/clients", body, &out)
	return out, err
}

// PatchClient sends a complete payload; see the package doc for why it is never partial.
func (c *Client) PatchClient(ctx context.Context, id ID, body ClientPayload) (ClientRecord, error) {
	var out ClientRecord
	err := c.do(ctx, http.MethodPatch, resource("/v1/clients", id), body, &out)
	return out, err
}

// PatchClientRaw sends body verbatim. Only the destructive-PATCH probe uses it.
func (c *Client) PatchClientRaw(ctx context.Context, id ID, body map[string]any) (ClientRecord, error) {
	var out ClientRecord
	err := c.do(ctx, http.MethodPatch, resource("/v1/clients", id), body, &out)
	return out, err
}

// ListServices returns the service instances of a client.
func (c *Client) ListServices(ctx context.Context, clientID ID) ([]ServiceInstance, error) {
	var out []ServiceInstance
	path := "/v1/services?client_id=" + url.QueryEscape(clientID.String())
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AssignService creates one standalone service instance.
func (c *Client) AssignService(ctx context.Context, req ServiceRequest) (ServiceInstance, error) {
	var out ServiceInstance
	err := c.do(ctx, http.MethodPost, "/v1/services", req, &out)
	return out, err
}

// UpdateService replaces a service instance.
func (c *Client) UpdateService(ctx context.Context, id ID, req ServiceRequest) (ServiceInstance, error) {
	var out ServiceInstance
	err := c.do(ctx, http.MethodPatch, resource("/v1/services", id), req, &out)
	return out, err
}

// DeleteService removes a service instance.
func (c *Client) DeleteService(ctx context.Context, id ID) error {
	return c.do(ctx, http.MethodDelete, resource("/v1/services", id), nil, nil)
}

// ReactivateService re-enables a deactivated service instance.
func (c *Client) ReactivateService(ctx context.Context, id ID) (ServiceInstance, error) {
	var out ServiceInstance
	err := c.do(ctx, http.MethodPost, resource("/v1/services", id, "reactivate"), nil, &out)
	return out, err
}

// ListCatalog returns all catalog items.
func (c *Client) ListCatalog(ctx context.Context) ([]CatalogItem, error) {
	var out []CatalogItem
	if err := c.do(ctx, http.MethodGet, "/v1/catalog", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateCatalogItem adds a catalog item.
func (c *Client) CreateCatalogItem(ctx context.Context, req CatalogItemRequest) (CatalogItem, error) {
	var out CatalogItem
	err := c.do(ctx, http.MethodPost, "/v1/catalog", req, &out)
	return out, err
}

// UpdateCatalogItem replaces a catalog item.
func (c *Client) UpdateCatalogItem(ctx context.Context, id ID, req CatalogItemRequest) (CatalogItem, error) {
	var out CatalogItem
	err := c.do(ctx, http.MethodPatch, resource("/v1/catalog", id), req, &out)
	return out, err
}

// DeleteCatalogItem removes a catalog item.
func (c *Client) DeleteCatalogItem(ctx context.Context, id ID) error {
	return c.do(ctx, http.MethodDelete, resource("/v1/catalog", id), nil, nil)
}

// ListCombos returns all combos.
func (c *Client) ListCombos(ctx context.Context) ([]Combo, error) {
	var out []Combo
	if err := c.do(ctx, http.MethodGet, "/v1/combos", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateCombo creates a combo.
func (c *Client) CreateCombo(ctx context.Context, req ComboRequest) (Combo, error) {
	var out Combo
	err := c.do(ctx, http.MethodPost, "/v1/combos", req, &out)
	return out, err
}

// UpdateCombo replaces a combo including its membership.
func (c *Client) UpdateCombo(ctx context.Context, id ID, req ComboRequest) (Combo, error) {
	var out Combo
	err := c.do(ctx, http.MethodPut, resource("/v1/combos", id), req, &out)
	return out, err
}

// DeleteCombo removes a combo.
func (c *Client) DeleteCombo(ctx context.Context, id ID) error {
	return c.do(ctx, http.MethodDelete, resource("/v1/combos", id), nil, nil)
}

// AssignComboToClient instantiates a combo for a client. The upstream
// explodes it into one service instance per member, each carrying
// origin_plan_id = comboID. Some deployments answer with a status object
// instead of the created instances; that counts as success with no
// instances, and callers reload the client's services anyway.
func (c *Client) AssignComboToClient(ctx context.Context, clientID, comboID ID) ([]ServiceInstance, error) {
	var raw json.RawMessage
	path := resource("/v1/combos", comboID, "assign")
	body := map[string]ID{"client_id": clientID}
	if err := c.do(ctx, http.MethodPost, path, body, &raw); err != nil {
		return nil, err
	}
	out := []ServiceInstance{}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		c.logger.Debug("combo assign returned no instance list", slog.String("path", path))
		return out, nil
	}
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return nil, fmt.Errorf("remote: decode POST %s: %w", path, err)
	}
	return out, nil
}

// ListPlans returns all plans.
func (c *Client) ListPlans(ctx context.Context) ([]Plan, error) {
	var out []Plan
	if err := c.do(ctx, http.MethodGet, "/v1/plans", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreatePlan creates a plan.
func (c *Client) CreatePlan(ctx context.Context, req PlanRequest) (Plan, error) {
	var out Plan
	err := c.do(ctx, http.MethodPost, "/v1/plans", req, &out)
	return out, err
}

// UpdatePlan updates a plan.
func (c *Client) UpdatePlan(ctx context.Context, id ID, req PlanRequest) (Plan, error) {
	var out Plan
	err := c.do(ctx, http.MethodPatch, resource("/v1/plans", id), req, &out)
	return out, err
}

// DeletePlan removes a plan.
func (c *Client) DeletePlan(ctx context.Context, id ID) error {
	return c.do(ctx, http.MethodDelete, resource("/v1/plans", id), nil, nil)
}

// ListInvoices returns invoices, optionally filtered by client.
func (c *Client) ListInvoices(ctx context.Context, clientID ID) ([]Invoice, error) {
	path := "/v1/invoices"
	if !clientID.IsZero() {
		path += "?client_id=" + url.QueryEscape(clientID.String())
	}
	var out []Invoice
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateInvoice persists an invoice.
func (c *Client) CreateInvoice(ctx context.Context, req InvoiceRequest) (Invoice, error) {
	var out Invoice
	err := c.do(ctx, http.MethodPost, "/v1/invoices", req, &out)
	return out, err
}

// InvoicePDF downloads the upstream-rendered PDF.
func (c *Client) InvoicePDF(ctx context.Context, id ID) ([]byte, error) {
	return c.send(ctx, http.MethodGet, resource("/v1/invoices", id, "pdf"), nil, "application/pdf")
}
