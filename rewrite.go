package transient

import (
	"github.com/goliatone/go-transient/layering"
	"github.com/goliatone/go-transient/pkg/schema"
)

// rewrite detaches conf.Path from the persisted set and installs a virtual of
// the same name backed by the shadow slot conf.As.
func rewrite(s *schema.Schema, conf Config, typ schema.Type, defaultValue any) {
	s.Remove(conf.Path)
	s.Virtual(conf.Path).
		Typed(typ).
		Get(getter(conf, defaultValue)).
		Set(setter(conf))
}

// getter reads the shadow slot through conf.Get. A nil-ish result yields the
// declared default; the default is never written back.
func getter(conf Config, defaultValue any) schema.Getter {
	return func(doc *schema.Document) (any, error) {
		current, _ := doc.Slot(conf.As)
		result, err := conf.Get(current, conf.Args...)
		if err != nil {
			return nil, err
		}
		if isNullish(result) {
			return layering.Clone(defaultValue), nil
		}
		return result, nil
	}
}

// setter stores conf.Set(value, args...) in the shadow slot.
func setter(conf Config) schema.VirtualSetter {
	return func(doc *schema.Document, value any) error {
		result, err := conf.Set(value, conf.Args...)
		if err != nil {
			return err
		}
		doc.SetSlot(conf.As, result)
		return nil
	}
}
