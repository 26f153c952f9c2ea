package telemetry

import (
	"context"
	"strings"
)

type actionFunc func(context.Context, Event) error

type actionFactory struct {
	byType map[string]actionFunc
}

func newActionFactory(onLocation, onProgress actionFunc) *actionFactory {
	return &actionFactory{
		byType: map[string]actionFunc{
			TypeLocation: onLocation,
			TypeProgress: onProgress,
		},
	}
}

func (f *actionFactory) get(typ string) (actionFunc, bool) {
	typ = strings.ToLower(strings.TrimSpace(typ))
	fn, ok := f.byType[typ]
	return fn, ok
}
