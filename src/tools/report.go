package tools

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"webstack-optimizer/src/hostexec"
)

// Status is the outcome of checking one binary.
type Status struct {
	Spec       Spec
	Info       BinaryInfo
	Err        error
	Compatible bool
}

// OK reports whether the binary was found with an acceptable version.
func (s Status) OK() bool {
	return s.Err == nil && s.Compatible
}

// Report checks every spec concurrently and returns statuses in input order.
func Report(ctx context.Context, runner hostexec.Runner, log *zap.Logger, specs []Spec) []Status {
	out := make([]Status, len(specs))
	g, gctx := errgroup.WithContext(ctx)
	for i, spec := range specs {
		g.Go(func() error {
			info, err := Detect(gctx, runner, spec.Name, spec.VersionArgs...)
			st := Status{Spec: spec, Info: info, Err: err}
			if err == nil {
				st.Compatible = IsCompatible(info.Version, spec.MinVersion)
			}
			log.Debug("binary check", zap.String("name", spec.Name), zap.String("path", info.Path),
				zap.String("version", info.Version), zap.Error(err))
			out[i] = st
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// Healthy reports whether every required binary is usable.
func Healthy(statuses []Status) bool {
	for _, s := range statuses {
		if !s.OK() && !s.Spec.Optional {
			return false
		}
	}
	return true
}
