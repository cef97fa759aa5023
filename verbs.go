package bloomclient

import (
	"context"

	"github.com/pior/bloomclient/protocol"
)

// Create creates a new filter with the given options. A filter that
// already exists is reported as success ("Exists" is treated the same
// as "Done"). Create also releases any per-filter hold queue on
// filter, covering the case where user code explicitly creates a
// filter rather than going through a *Safe command.
func (c *Client) Create(ctx context.Context, filter string, opts protocol.CreateOptions) error {
	defer c.endFilterHold(filter)
	return c.submitCreate(ctx, filter, opts, false)
}

func (c *Client) submitCreate(ctx context.Context, filter string, opts protocol.CreateOptions, internal bool) error {
	cmd := newCommand(filter, "create", protocol.EncodeCreate(filter, opts), protocol.ExpectCreateConfirmation)
	cmd.internal = internal
	_, err := c.submit(ctx, cmd)
	return err
}

// Drop deletes a filter. A filter that does not exist is reported as
// success.
func (c *Client) Drop(ctx context.Context, filter string) error {
	cmd := newCommand(filter, "drop", protocol.EncodeDrop(filter), protocol.ExpectDropConfirmation)
	_, err := c.submit(ctx, cmd)
	return err
}

// Close closes the filter's backing handle on the service without
// removing its data.
func (c *Client) Close(ctx context.Context, filter string) error {
	cmd := newCommand(filter, "close", protocol.EncodeClose(filter), protocol.ExpectConfirmation)
	_, err := c.submit(ctx, cmd)
	return err
}

// Clear resets a filter's contents in place without dropping it.
func (c *Client) Clear(ctx context.Context, filter string) error {
	cmd := newCommand(filter, "clear", protocol.EncodeClear(filter), protocol.ExpectConfirmation)
	_, err := c.submit(ctx, cmd)
	return err
}

// Flush persists a filter's contents to disk. An empty filter flushes
// every filter known to the service; like list, flush carries no
// filter affinity for hold-queue purposes.
func (c *Client) Flush(ctx context.Context, filter string) error {
	cmd := newCommand("", "flush", protocol.EncodeFlush(filter), protocol.ExpectConfirmation)
	_, err := c.submit(ctx, cmd)
	return err
}

// Check reports whether item is present in filter.
func (c *Client) Check(ctx context.Context, filter, item string) (bool, error) {
	cmd := newCommand(filter, "check", protocol.EncodeCheck(filter, item), protocol.ExpectBool)
	v, err := c.submit(ctx, cmd)
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

// Set adds item to filter.
func (c *Client) Set(ctx context.Context, filter, item string) error {
	cmd := newCommand(filter, "set", protocol.EncodeSet(filter, item), protocol.ExpectBool)
	_, err := c.submit(ctx, cmd)
	return err
}

// Bulk adds many items to filter in a single round trip, returning
// whether each item was newly added keyed by the item itself.
func (c *Client) Bulk(ctx context.Context, filter string, items []string) (map[string]bool, error) {
	cmd := newCommand(filter, "bulk", protocol.EncodeBulk(filter, items), protocol.ExpectBoolList)
	cmd.items = items
	v, err := c.submit(ctx, cmd)
	if err != nil {
		return nil, err
	}
	return v.(map[string]bool), nil
}

// Multi checks many items against filter in a single round trip,
// returning each item's membership keyed by the item itself.
func (c *Client) Multi(ctx context.Context, filter string, items []string) (map[string]bool, error) {
	cmd := newCommand(filter, "multi", protocol.EncodeMulti(filter, items), protocol.ExpectBoolList)
	cmd.items = items
	v, err := c.submit(ctx, cmd)
	if err != nil {
		return nil, err
	}
	return v.(map[string]bool), nil
}

// List returns metadata for every filter known to the service, or only
// those whose name starts with prefix when prefix is non-empty. Like
// flush, list carries no filter affinity for hold-queue purposes.
func (c *Client) List(ctx context.Context, prefix string) ([]protocol.FilterInfo, error) {
	cmd := newCommand("", "list", protocol.EncodeList(prefix), protocol.ExpectFilterList)
	v, err := c.submit(ctx, cmd)
	if err != nil {
		return nil, err
	}
	return v.([]protocol.FilterInfo), nil
}

// Info returns metadata for a single filter.
func (c *Client) Info(ctx context.Context, filter string) (protocol.FilterInfo, error) {
	cmd := newCommand(filter, "info", protocol.EncodeInfo(filter), protocol.ExpectInfo)
	v, err := c.submit(ctx, cmd)
	if err != nil {
		return protocol.FilterInfo{}, err
	}
	return v.(protocol.FilterInfo), nil
}

// SetSafe behaves like Set, but if filter does not exist it creates it
// with opts and retries the set exactly once. While the sequence is
// outstanding, other non-create commands against filter are held by
// the engine and released, in submission order, once it completes.
func (c *Client) SetSafe(ctx context.Context, filter, item string, opts protocol.CreateOptions) error {
	_, err := runSafe(ctx, c, filter, opts, "set", protocol.EncodeSet(filter, item), protocol.ExpectBool, nil)
	return err
}

// CheckSafe behaves like Check, but if filter does not exist it
// creates it with opts and retries the check exactly once.
func (c *Client) CheckSafe(ctx context.Context, filter, item string, opts protocol.CreateOptions) (bool, error) {
	v, err := runSafe(ctx, c, filter, opts, "check", protocol.EncodeCheck(filter, item), protocol.ExpectBool, nil)
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

// BulkSafe behaves like Bulk, but if filter does not exist it creates
// it with opts and retries the bulk add exactly once.
func (c *Client) BulkSafe(ctx context.Context, filter string, items []string, opts protocol.CreateOptions) (map[string]bool, error) {
	v, err := runSafe(ctx, c, filter, opts, "bulk", protocol.EncodeBulk(filter, items), protocol.ExpectBoolList, items)
	if err != nil {
		return nil, err
	}
	return v.(map[string]bool), nil
}

// MultiSafe behaves like Multi, but if filter does not exist it
// creates it with opts and retries the check exactly once.
func (c *Client) MultiSafe(ctx context.Context, filter string, items []string, opts protocol.CreateOptions) (map[string]bool, error) {
	v, err := runSafe(ctx, c, filter, opts, "multi", protocol.EncodeMulti(filter, items), protocol.ExpectBoolList, items)
	if err != nil {
		return nil, err
	}
	return v.(map[string]bool), nil
}
