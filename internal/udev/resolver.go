package udev

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/yang-ling/i3pystatus/internal/command"
)

// Resolver produces the udev properties of a device path
type Resolver interface {
	Resolve(ctx context.Context, path string) (AttributeMap, error)
}

// CommandResolver queries udevadm
type CommandResolver struct {
	runner command.Runner
}

func NewCommandResolver(r command.Runner) *CommandResolver {
	return &CommandResolver{runner: r}
}

// Resolve runs udevadm info --query=property --name=<path>
func (r *CommandResolver) Resolve(ctx context.Context, path string) (AttributeMap, error) {
	out, err := r.runner.Run(ctx, "udevadm", "info", "--query=property", "--name="+path)
	if err != nil {
		return nil, err
	}
	return ParseProperties(out), nil
}

// FallbackResolver uses Secondary when Primary's tool is not installed
type FallbackResolver struct {
	Primary   Resolver
	Secondary Resolver
}

func (r *FallbackResolver) Resolve(ctx context.Context, path string) (AttributeMap, error) {
	attrs, err := r.Primary.Resolve(ctx, path)
	if err != nil && command.IsNotFound(err) {
		return r.Secondary.Resolve(ctx, path)
	}
	return attrs, err
}

// ResolveAll resolves every path once, running at most concurrency
// resolutions at a time. A failed resolution leaves an empty map for its
// path; it never fails the batch.
func ResolveAll(ctx context.Context, r Resolver, paths []string, concurrency int, log *logrus.Entry) map[string]AttributeMap {
	if concurrency < 1 {
		concurrency = 1
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	result := make(map[string]AttributeMap, len(paths))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, path := range paths {
		path := path
		g.Go(func() error {
			attrs, err := r.Resolve(gctx, path)
			if err != nil {
				log.WithError(err).WithField("path", path).Warn("resolve udev attributes failed")
				attrs = AttributeMap{}
			}

			mu.Lock()
			result[path] = attrs
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()
	return result
}
