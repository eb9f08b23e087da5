package pipeline

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/yang-ling/i3pystatus/internal/blockdev"
	"github.com/yang-ling/i3pystatus/internal/command"
	"github.com/yang-ling/i3pystatus/internal/config"
	"github.com/yang-ling/i3pystatus/internal/device"
	"github.com/yang-ling/i3pystatus/internal/filter"
	"github.com/yang-ling/i3pystatus/internal/render"
	"github.com/yang-ling/i3pystatus/internal/udev"
)

// Output is the result of one scan
type Output struct {
	FullText string
	// Color is left empty; every fragment carries its own color markup.
	Color string
	// Devices holds the visible devices in the order they were rendered.
	Devices []device.Device
}

// Pipeline runs one discovery, classify and render cycle per call to Run.
// It holds no state between runs.
type Pipeline struct {
	tools       *blockdev.Tools
	resolver    udev.Resolver
	classifier  *device.Classifier
	filters     filter.Chain
	renderer    *render.Renderer
	concurrency int
	log         *logrus.Entry
}

type Option func(*Pipeline)

// WithResolver replaces the udevadm resolver with its database fallback
func WithResolver(r udev.Resolver) Option {
	return func(p *Pipeline) { p.resolver = r }
}

// WithFilter replaces the filter chain built from the ignore settings
func WithFilter(c filter.Chain) Option {
	return func(p *Pipeline) { p.filters = c }
}

func New(cfg *config.Config, runner command.Runner, log *logrus.Entry, opts ...Option) *Pipeline {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	log = log.WithField("component", "pipeline")

	tools := blockdev.NewTools(runner)
	p := &Pipeline{
		tools: tools,
		resolver: &udev.FallbackResolver{
			Primary:   udev.NewCommandResolver(runner),
			Secondary: udev.NewDatabaseResolver(),
		},
		classifier:  device.NewClassifier(tools, cfg.TruncateFSLabels, log),
		filters:     FilterChain(cfg.Ignore),
		renderer:    render.New(StyleFrom(cfg)),
		concurrency: cfg.Concurrency,
		log:         log,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// StyleFrom maps the display settings onto a render style
func StyleFrom(cfg *config.Config) render.Style {
	return render.Style{
		Colors: render.Colors{
			Mounted:            cfg.Colors.Mounted,
			Plugged:            cfg.Colors.Plugged,
			Locked:             cfg.Colors.Locked,
			UnlockedNotMounted: cfg.Colors.UnlockedNotMounted,
			Partitionless:      cfg.Colors.Partitionless,
		},
		LockGlyph:         cfg.Glyphs.Lock,
		UnlockGlyph:       cfg.Glyphs.Unlock,
		PartitionlessText: cfg.PartitionlessText,
		Separator:         cfg.Separator,
	}
}

// FilterChain builds the pre and post filters from the ignore settings
func FilterChain(ignore config.Ignore) filter.Chain {
	chain := filter.Default()

	if len(ignore.PathPrefixes) > 0 {
		chain.Pre = filter.PathPrefix(ignore.PathPrefixes...)
	}

	var post []filter.PostFilter
	if len(ignore.DevNamePrefixes) > 0 {
		post = append(post, filter.AttributePrefix(udev.KeyDevName, ignore.DevNamePrefixes...))
	}
	if len(ignore.Attributes) > 0 {
		post = append(post, filter.AttributeEquals(ignore.Attributes))
	}
	if len(post) > 0 {
		chain.Post = filter.AnyPost(post...)
	}

	return chain
}

// Run scans the system once. If the leaf devices cannot be enumerated the
// output is empty and the error is returned for logging.
func (p *Pipeline) Run(ctx context.Context) (Output, error) {
	leaves, err := p.tools.LeafPaths(ctx)
	if err != nil {
		return Output{}, errors.Wrap(err, "enumerate block devices")
	}

	var candidates []string
	for _, path := range leaves {
		if p.filters.FastExclude(path) {
			p.log.WithField("path", path).Debug("ignored before udev lookup")
			continue
		}
		candidates = append(candidates, path)
	}

	attrs := udev.ResolveAll(ctx, p.resolver, candidates, p.concurrency, p.log)

	var (
		devices   []device.Device
		fragments []string
	)
	for _, path := range candidates {
		if err := ctx.Err(); err != nil {
			return Output{}, err
		}

		if p.filters.Exclude(path, attrs[path]) {
			p.log.WithField("path", path).Debug("ignored")
			continue
		}

		d := p.classifier.Classify(ctx, path, attrs[path])
		p.log.WithFields(logrus.Fields{"path": path, "kind": d.Kind, "state": d.State}).Debug("classified")

		fragment := p.renderer.Fragment(d)
		if fragment == "" {
			continue
		}
		devices = append(devices, d)
		fragments = append(fragments, fragment)
	}

	return Output{FullText: p.renderer.Join(fragments), Devices: devices}, nil
}
