package transient

import (
	"context"
	"strings"

	"github.com/zoobzio/capitan"
)

// Signals for plugin install events.
var (
	SignalFieldRewritten = capitan.NewSignal("transient.field.rewritten", "Transient field detached and installed as virtual")
	SignalFieldLinked    = capitan.NewSignal("transient.field.linked", "Transient field linked to persisted paths")
	SignalApplyRejected  = capitan.NewSignal("transient.apply.rejected", "Transient declarations rejected")
	SignalApplyComplete  = capitan.NewSignal("transient.apply.complete", "Transient plugin applied to schema")
)

// Keys for typed event data.
var (
	KeyPath   = capitan.NewStringKey("path")
	KeyAs     = capitan.NewStringKey("as")
	KeyLinkTo = capitan.NewStringKey("link_to")
	KeyCount  = capitan.NewIntKey("count")
	KeyError  = capitan.NewErrorKey("error")
)

func emitFieldRewritten(ctx context.Context, conf Config) {
	capitan.Emit(ctx, SignalFieldRewritten,
		KeyPath.Field(conf.Path),
		KeyAs.Field(conf.As),
	)
}

func emitFieldLinked(ctx context.Context, conf Config) {
	capitan.Emit(ctx, SignalFieldLinked,
		KeyPath.Field(conf.Path),
		KeyLinkTo.Field(strings.Join(conf.LinkTo, ",")),
	)
}

func emitApplyRejected(ctx context.Context, path string, err error) {
	capitan.Error(ctx, SignalApplyRejected,
		KeyPath.Field(path),
		KeyError.Field(err),
	)
}

func emitApplyComplete(ctx context.Context, count int) {
	capitan.Emit(ctx, SignalApplyComplete,
		KeyCount.Field(count),
	)
}
