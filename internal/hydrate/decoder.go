// Package hydrate decodes persisted document records into typed Go structs.
package hydrate

import (
	"bytes"
	"fmt"

	gojson "github.com/goccy/go-json"

	"github.com/goliatone/go-transient/layering"
)

// Context identifies the record being decoded.
type Context struct {
	Collection string
	ID         string
}

func (c Context) String() string {
	if c.ID == "" {
		return c.Collection
	}
	return c.Collection + "/" + c.ID
}

// PreHook lets callers mutate or normalise the record before decoding.
type PreHook func(Context, map[string]any) (map[string]any, error)

// PostHook lets callers adjust or validate the hydrated struct after decoding.
type PostHook[T any] func(Context, *T) error

// CustomDecoder replaces the default JSON decoding when provided.
type CustomDecoder[T any] func(Context, map[string]any) (T, error)

// DecoderOption configures a Decoder instance.
type DecoderOption[T any] func(*Decoder[T])

// Decoder converts records into strongly typed structs by way of a JSON
// round trip, so T uses `json` tags.
type Decoder[T any] struct {
	preHooks     []PreHook
	postHooks    []PostHook[T]
	configureDec []func(*gojson.Decoder)
	custom       CustomDecoder[T]
}

// WithPreHook applies hook prior to decoding.
func WithPreHook[T any](hook PreHook) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.preHooks = append(d.preHooks, hook)
	}
}

// WithPostHook applies hook after decoding completes.
func WithPostHook[T any](hook PostHook[T]) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.postHooks = append(d.postHooks, hook)
	}
}

// WithUseNumber decodes numbers into interface fields as json.Number.
func WithUseNumber[T any]() DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.configureDec = append(d.configureDec, func(dec *gojson.Decoder) {
			dec.UseNumber()
		})
	}
}

// WithDisallowUnknownFields rejects record keys T has no field for.
func WithDisallowUnknownFields[T any]() DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.configureDec = append(d.configureDec, func(dec *gojson.Decoder) {
			dec.DisallowUnknownFields()
		})
	}
}

// WithCustomDecoder replaces the default JSON decoding path.
func WithCustomDecoder[T any](decoder CustomDecoder[T]) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.custom = decoder
	}
}

func NewDecoder[T any](opts ...DecoderOption[T]) *Decoder[T] {
	d := &Decoder[T]{}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Decode converts record into T applying configured hooks. record itself is
// never modified.
func (d *Decoder[T]) Decode(ctx Context, record map[string]any) (T, error) {
	var zero T

	if record == nil {
		return zero, fmt.Errorf("hydrate: record is nil for %q", ctx)
	}

	current := layering.Clone(record)

	for _, hook := range d.preHooks {
		if hook == nil {
			continue
		}
		next, err := hook(ctx, current)
		if err != nil {
			return zero, fmt.Errorf("hydrate: pre-hook for %q failed: %w", ctx, err)
		}
		if next != nil {
			current = next
		}
	}

	var result T
	if d.custom != nil {
		decoded, err := d.custom(ctx, current)
		if err != nil {
			return zero, fmt.Errorf("hydrate: custom decoder for %q failed: %w", ctx, err)
		}
		result = decoded
	} else {
		buffer, err := gojson.Marshal(current)
		if err != nil {
			return zero, fmt.Errorf("hydrate: marshal record %q: %w", ctx, err)
		}
		decoder := gojson.NewDecoder(bytes.NewReader(buffer))
		for _, configure := range d.configureDec {
			if configure != nil {
				configure(decoder)
			}
		}
		if err := decoder.Decode(&result); err != nil {
			return zero, fmt.Errorf("hydrate: decode %q: %w", ctx, err)
		}
	}

	for _, hook := range d.postHooks {
		if hook == nil {
			continue
		}
		if err := hook(ctx, &result); err != nil {
			return zero, fmt.Errorf("hydrate: post-hook for %q failed: %w", ctx, err)
		}
	}

	return result, nil
}
