package collab

import (
	"context"
	"net/url"
	"time"

	"github.com/Hari2k23/Multi-Agent-Procurement-System/internal/workflow"
)

// #region types

// DemandReport is the inventory position for one item.
type DemandReport struct {
	ItemCode     string `json:"item_code"`
	ItemName     string `json:"item_name"`
	CurrentStock int    `json:"current_stock"`
	ReorderLevel int    `json:"reorder_level"`
	DemandQty    int    `json:"demand_qty"`
	Status       string `json:"status"` // ok | below_reorder_level
}

// NeedsReorder reports whether stock has fallen below the reorder level.
func (d DemandReport) NeedsReorder() bool {
	return d.CurrentStock < d.ReorderLevel
}

// #endregion types

// #region discovery

// Discovery wraps the supplier discovery and inventory service.
type Discovery struct {
	c client
}

// NewDiscovery creates a discovery client with the given call budget.
func NewDiscovery(baseURL string, budget time.Duration) *Discovery {
	return &Discovery{c: newClient("discovery", baseURL, budget)}
}

// Demand fetches the current inventory position for an item.
func (d *Discovery) Demand(ctx context.Context, itemCode string) (DemandReport, error) {
	var out DemandReport
	if err := d.c.getJSON(ctx, "/demand/"+url.PathEscape(itemCode), &out); err != nil {
		return DemandReport{}, err
	}
	return out, nil
}

// Search returns candidate suppliers for an item. An empty result is valid.
func (d *Discovery) Search(ctx context.Context, itemCode, itemName string) ([]workflow.Supplier, error) {
	req := struct {
		ItemCode string `json:"item_code"`
		ItemName string `json:"item_name"`
	}{ItemCode: itemCode, ItemName: itemName}

	var out struct {
		Suppliers []workflow.Supplier `json:"suppliers"`
	}
	if err := d.c.postJSON(ctx, "/suppliers/search", req, &out); err != nil {
		return nil, err
	}
	return out.Suppliers, nil
}

// #endregion discovery
