package bloomclient

import (
	"context"

	"github.com/pior/bloomclient/protocol"
)

// runSafe submits verb's command, and if the server reports the
// filter does not exist, creates it with opts and resubmits the exact
// same command exactly once. The create failure, if any, is returned
// directly rather than the stale "filter does not exist" text, so
// callers see why creation failed.
//
// While the sequence is outstanding, beginFilterHold/endFilterHold
// hold every other non-create command against filter in the engine's
// per-filter hold queue, releasing them in FIFO order once this
// sequence produces a user-visible result. The coordinator's own
// probe and retry submissions are marked internal so they are exempt
// from the very hold they are managing.
//
// keys carries the positional item arguments of a bulk/multi request
// so decodeBoolList can rebuild its result map; it is nil for every
// other verb.
func runSafe(ctx context.Context, c *Client, filter string, opts protocol.CreateOptions, verb string, wire []byte, expected protocol.ExpectedType, keys []string) (any, error) {
	c.beginFilterHold(filter)
	defer c.endFilterHold(filter)

	probe := newCommand(filter, verb, wire, expected)
	probe.internal = true
	probe.items = keys
	value, err := c.submit(ctx, probe)
	if err == nil {
		return value, nil
	}

	if !isFilterMissing(err) {
		return value, err
	}

	if createErr := c.submitCreate(ctx, filter, opts, true); createErr != nil {
		return nil, createErr
	}

	retry := newCommand(filter, verb, wire, expected)
	retry.internal = true
	retry.items = keys
	return c.submit(ctx, retry)
}

func isFilterMissing(err error) bool {
	serr, ok := err.(*protocol.ServerError)
	return ok && serr.IsFilterDoesNotExist()
}
