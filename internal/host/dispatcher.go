// Package host exposes the bridge as named operations taking loosely typed
// argument maps, the shape an editor or CLI front end hands over.
package host

import (
	"context"
	"fmt"
	"reflect"
	"sort"

	"github.com/mitchellh/mapstructure"

	"github.com/Cyclone1070/dockerws/internal/bridge"
)

// Validator is implemented by requests that check their own fields.
type Validator interface {
	Validate() error
}

// Handler runs one operation with a typed request.
type Handler[Req, Resp any] func(context.Context, *bridge.Bridge, Req) (Resp, error)

// Operation is a named entry point accepting an argument map.
type Operation interface {
	Name() string
	Execute(ctx context.Context, args map[string]any) (any, error)
}

type operation[Req, Resp any] struct {
	name    string
	bridge  *bridge.Bridge
	handler Handler[Req, Resp]
}

func newOperation[Req, Resp any](name string, b *bridge.Bridge, handler Handler[Req, Resp]) *operation[Req, Resp] {
	return &operation[Req, Resp]{name: name, bridge: b, handler: handler}
}

func (o *operation[Req, Resp]) Name() string {
	return o.name
}

// Execute decodes args into the request, validates it and runs the handler.
func (o *operation[Req, Resp]) Execute(ctx context.Context, args map[string]any) (any, error) {
	var req Req

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       stringToURIHook(o.bridge.Scheme()),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &req,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(args); err != nil {
		return nil, &ArgumentError{Op: o.name, Cause: err}
	}

	if v, ok := any(req).(Validator); ok {
		if err := v.Validate(); err != nil {
			return nil, &ArgumentError{Op: o.name, Cause: err}
		}
	}

	return o.handler(ctx, o.bridge, req)
}

// stringToURIHook parses string arguments destined for bridge.URI fields and
// rejects URIs of another scheme.
func stringToURIHook(scheme string) mapstructure.DecodeHookFuncType {
	uriType := reflect.TypeOf(bridge.URI{})
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if to != uriType || from.Kind() != reflect.String {
			return data, nil
		}
		uri, err := bridge.ParseURI(data.(string))
		if err != nil {
			return nil, err
		}
		if uri.Scheme != scheme {
			return nil, fmt.Errorf("uri %s does not use the %s scheme", uri, scheme)
		}
		return uri, nil
	}
}

// Dispatcher routes operation names to their handlers.
type Dispatcher struct {
	ops map[string]Operation
}

// NewDispatcher registers every bridge operation.
func NewDispatcher(b *bridge.Bridge) *Dispatcher {
	if b == nil {
		panic("bridge is required")
	}
	d := &Dispatcher{ops: make(map[string]Operation)}
	d.register(
		newOperation(OpStat, b, stat),
		newOperation(OpReadDirectory, b, readDirectory),
		newOperation(OpCreateDirectory, b, createDirectory),
		newOperation(OpReadFile, b, readFile),
		newOperation(OpWriteFile, b, writeFile),
		newOperation(OpDelete, b, deleteEntry),
		newOperation(OpRename, b, rename),
		newOperation(OpCopy, b, copyEntry),
		newOperation(OpWatch, b, watch),
		newOperation(OpOpen, b, open),
		newOperation(OpWorkingDirectory, b, workingDirectory),
	)
	return d
}

func (d *Dispatcher) register(ops ...Operation) {
	for _, op := range ops {
		d.ops[op.Name()] = op
	}
}

// Execute runs the named operation.
func (d *Dispatcher) Execute(ctx context.Context, name string, args map[string]any) (any, error) {
	op, ok := d.ops[name]
	if !ok {
		return nil, &UnknownOperationError{Name: name}
	}
	return op.Execute(ctx, args)
}

// Names lists the registered operations in sorted order.
func (d *Dispatcher) Names() []string {
	names := make([]string, 0, len(d.ops))
	for name := range d.ops {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
