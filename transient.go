// Package transient augments a schema with transient fields: fields declared
// like any other but never persisted. Each transient field is replaced by a
// virtual property backed by a private shadow slot on the document, with
// optional get/set transforms, extra transform arguments and links that
// recompute the field whenever a persisted path is written.
//
// A field opts in through its options:
//
//	s := schema.MustNew(
//		schema.Field{Path: "role", Type: schema.String},
//		schema.Field{Path: "description", Options: transient.Declare(transient.Options{
//			Get:    describeRole,
//			LinkTo: []string{"role"},
//		})},
//	)
//	if err := s.Plugin(transient.Plugin()); err != nil {
//		return err
//	}
//
// Application is explicit and per schema. Apply mutates the schema in place
// and must run before documents are created from it.
package transient

import (
	"errors"

	"github.com/goliatone/go-transient/pkg/schema"
)

type pendingField struct {
	conf         Config
	typ          schema.Type
	defaultValue any
}

// Apply rewrites every field of s carrying a truthy transient declaration, in
// declaration order. All declarations are checked before the schema is
// touched, so a rejected schema is left unchanged.
func Apply(s *schema.Schema, opts ...Option) error {
	if s == nil {
		return errors.New("transient: schema is nil")
	}
	cfg := applyOptions(opts)

	fields, err := scan(s)
	if err != nil {
		return err
	}
	if len(fields) == 0 {
		emitApplyComplete(cfg.ctx, 0)
		return nil
	}

	if path, err := check(s, fields); err != nil {
		emitApplyRejected(cfg.ctx, path, err)
		cfg.logger.LogInstall(InstallEvent{Path: path, Err: err})
		return err
	}

	for _, field := range fields {
		conf := field.conf
		rewrite(s, conf, field.typ, field.defaultValue)
		emitFieldRewritten(cfg.ctx, conf)
		if len(conf.LinkTo) > 0 {
			if err := link(s, conf); err != nil {
				emitApplyRejected(cfg.ctx, conf.Path, err)
				cfg.logger.LogInstall(InstallEvent{Path: conf.Path, As: conf.As, LinkTo: conf.LinkTo, Err: err})
				return err
			}
			emitFieldLinked(cfg.ctx, conf)
		}
		cfg.logger.LogInstall(InstallEvent{Path: conf.Path, As: conf.As, LinkTo: conf.LinkTo})
	}
	emitApplyComplete(cfg.ctx, len(fields))
	return nil
}

// Plugin returns Apply bound to opts, for use with schema.Schema.Plugin.
func Plugin(opts ...Option) schema.Plugin {
	return func(s *schema.Schema) error {
		return Apply(s, opts...)
	}
}

// scan collects the transient fields of s in declaration order.
func scan(s *schema.Schema) ([]pendingField, error) {
	var fields []pendingField
	err := s.EachPath(func(path string, st *schema.SchemaType) error {
		decl, _ := st.Option(OptionKey)
		if !truthy(decl) {
			return nil
		}
		fields = append(fields, pendingField{
			conf:         Normalize(path, decl),
			typ:          st.Type(),
			defaultValue: st.Default(),
		})
		return nil
	})
	return fields, err
}

// check rejects shadow slot collisions and links to missing or transient
// paths. It returns the offending field path with the error.
func check(s *schema.Schema, fields []pendingField) (string, error) {
	transientPaths := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		transientPaths[field.conf.Path] = struct{}{}
	}

	slots := make(map[string]string, len(fields))
	for _, field := range fields {
		conf := field.conf
		if s.HasPath(conf.As) || s.HasVirtual(conf.As) {
			return conf.Path, &CollisionError{Path: conf.Path, As: conf.As, With: conf.As}
		}
		if owner, taken := slots[conf.As]; taken {
			return conf.Path, &CollisionError{Path: conf.Path, As: conf.As, With: owner}
		}
		slots[conf.As] = conf.Path
	}

	for _, field := range fields {
		conf := field.conf
		for _, target := range conf.LinkTo {
			if _, isTransient := transientPaths[target]; isTransient {
				return conf.Path, &LinkError{Path: conf.Path, Target: target}
			}
			if _, err := s.Path(target); err != nil {
				return conf.Path, &LinkError{Path: conf.Path, Target: target, Err: err}
			}
		}
	}
	return "", nil
}
