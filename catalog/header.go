package catalog

import "github.com/reqrep/transform/messagecontext"

// AddHeader appends a header value, grounded on middlewares/header's
// Options.Request map, generalized to a per-route configured instance
// instead of a process-wide middleware.
type AddHeader struct {
	Key, Value string
}

func (AddHeader) Name() string { return "add-header" }

func (AddHeader) Configure(p Params) (BufferedTransform, error) {
	key, err := p.require("add-header", "key")
	if err != nil {
		return nil, err
	}
	value, err := p.require("add-header", "value")
	if err != nil {
		return nil, err
	}
	return AddHeader{Key: key, Value: value}, nil
}

func (AddHeader) ShouldApply(messagecontext.Buffered) bool { return true }

func (t AddHeader) Apply(c messagecontext.Buffered) error {
	c.AddHeader(t.Key, t.Value)
	return nil
}

// SetHeader overwrites a header, replacing any existing values.
type SetHeader struct {
	Key, Value string
}

func (SetHeader) Name() string { return "set-header" }

func (SetHeader) Configure(p Params) (BufferedTransform, error) {
	key, err := p.require("set-header", "key")
	if err != nil {
		return nil, err
	}
	value, err := p.require("set-header", "value")
	if err != nil {
		return nil, err
	}
	return SetHeader{Key: key, Value: value}, nil
}

func (SetHeader) ShouldApply(messagecontext.Buffered) bool { return true }

func (t SetHeader) Apply(c messagecontext.Buffered) error {
	c.SetHeader(t.Key, t.Value)
	return nil
}

// RemoveHeader deletes a header, grounded on middlewares/header's
// Options.RequestRemove/ResponseRemove lists.
type RemoveHeader struct {
	Key string
}

func (RemoveHeader) Name() string { return "remove-header" }

func (RemoveHeader) Configure(p Params) (BufferedTransform, error) {
	key, err := p.require("remove-header", "key")
	if err != nil {
		return nil, err
	}
	return RemoveHeader{Key: key}, nil
}

func (RemoveHeader) ShouldApply(messagecontext.Buffered) bool { return true }

func (t RemoveHeader) Apply(c messagecontext.Buffered) error {
	c.RemoveHeader(t.Key)
	return nil
}

// RenameHeader moves a header's values to a new key, dropping the old one.
type RenameHeader struct {
	From, To string
}

func (RenameHeader) Name() string { return "rename-header" }

func (RenameHeader) Configure(p Params) (BufferedTransform, error) {
	from, err := p.require("rename-header", "from")
	if err != nil {
		return nil, err
	}
	to, err := p.require("rename-header", "to")
	if err != nil {
		return nil, err
	}
	return RenameHeader{From: from, To: to}, nil
}

func (t RenameHeader) ShouldApply(c messagecontext.Buffered) bool {
	return c.Header(t.From) != ""
}

func (t RenameHeader) Apply(c messagecontext.Buffered) error {
	for _, v := range c.HeaderValues(t.From) {
		c.AddHeader(t.To, v)
	}
	c.RemoveHeader(t.From)
	return nil
}

// StripAuthorization removes the Authorization header outright — used on
// the request side once a downstream JWT claim transform has already
// projected what it needs, so the upstream never sees the raw credential.
type StripAuthorization struct{}

func (StripAuthorization) Name() string { return "strip-authorization" }

func (StripAuthorization) Configure(Params) (BufferedTransform, error) {
	return StripAuthorization{}, nil
}

func (StripAuthorization) ShouldApply(c messagecontext.Buffered) bool {
	return c.Header("Authorization") != ""
}

func (StripAuthorization) Apply(c messagecontext.Buffered) error {
	c.RemoveHeader("Authorization")
	return nil
}

// RemoveInternalResponseHeaders strips a configured set of response
// headers before the message reaches the original caller, grounded on
// middlewares/header's ResponseRemove list.
type RemoveInternalResponseHeaders struct {
	Keys []string
}

func (RemoveInternalResponseHeaders) Name() string { return "remove-internal-response-headers" }

func (RemoveInternalResponseHeaders) Configure(p Params) (BufferedTransform, error) {
	keys, err := p.require("remove-internal-response-headers", "keys")
	if err != nil {
		return nil, err
	}
	return RemoveInternalResponseHeaders{Keys: list(keys)}, nil
}

func (RemoveInternalResponseHeaders) ShouldApply(messagecontext.Buffered) bool { return true }

func (t RemoveInternalResponseHeaders) Apply(c messagecontext.Buffered) error {
	for _, k := range t.Keys {
		c.RemoveHeader(k)
	}
	return nil
}

// GatewayResponseTag stamps a fixed version/identity header on every
// response, grounded on middlewares/version's Deprecation-header idiom.
type GatewayResponseTag struct {
	Value string
}

func (GatewayResponseTag) Name() string { return "gateway-response-tag" }

func (GatewayResponseTag) Configure(p Params) (BufferedTransform, error) {
	value := p.optional("value", "reqrep-transform")
	return GatewayResponseTag{Value: value}, nil
}

func (GatewayResponseTag) ShouldApply(messagecontext.Buffered) bool { return true }

func (t GatewayResponseTag) Apply(c messagecontext.Buffered) error {
	c.SetHeader("X-Gateway-Version", t.Value)
	return nil
}
