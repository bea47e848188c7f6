//go:build !tinygo

package config

import (
	"context"

	"github.com/apple/pkl-go/pkl"
)

// LoadFromPath loads the pkl module at the given path and evaluates it into a Layout.
func LoadFromPath(ctx context.Context, path string) (ret *Layout, err error) {
	evaluator, err := pkl.NewEvaluator(ctx, pkl.PreconfiguredOptions)
	if err != nil {
		return nil, err
	}
	defer func() {
		cerr := evaluator.Close()
		if err == nil {
			err = cerr
		}
	}()
	ret, err = Load(ctx, evaluator, pkl.FileSource(path))
	return ret, err
}

// Load evaluates the pkl module at the given source into a Layout.
func Load(ctx context.Context, evaluator pkl.Evaluator, source *pkl.ModuleSource) (*Layout, error) {
	var ret Layout
	if err := evaluator.EvaluateModule(ctx, source, &ret); err != nil {
		return nil, err
	}
	if err := ret.Check(); err != nil {
		return nil, err
	}
	return &ret, nil
}
