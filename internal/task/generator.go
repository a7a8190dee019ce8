package task

import (
	"context"

	"git.home.luguber.info/inful/docversions/internal/config"
	"git.home.luguber.info/inful/docversions/internal/versioning"
)

// Generator yields the tasks of one version category.
type Generator interface {
	Tasks(ctx context.Context) ([]Task, error)
}

// WorkingtreeGenerator yields one task when the repository has a working tree.
type WorkingtreeGenerator struct{ Env Env }

func (g WorkingtreeGenerator) Tasks(context.Context) ([]Task, error) {
	if !g.Env.Repo.HasWorkingTree() {
		return nil, nil
	}
	return []Task{NewWorkingtreeTask(g.Env)}, nil
}

// BranchGenerator yields one task per remote branch, in source order.
type BranchGenerator struct {
	Env    Env
	Filter versioning.Filter
}

func (g BranchGenerator) Tasks(context.Context) ([]Task, error) {
	names, err := g.Env.Source.ListBranches(g.Env.Repo)
	if err != nil {
		return nil, err
	}
	names = g.Filter.Apply(names)
	tasks := make([]Task, 0, len(names))
	for _, n := range names {
		tasks = append(tasks, NewGitTask(g.Env, versioning.Branch(n)))
	}
	return tasks, nil
}

// TagGenerator yields one task per tag, in source order.
type TagGenerator struct {
	Env    Env
	Filter versioning.Filter
}

func (g TagGenerator) Tasks(context.Context) ([]Task, error) {
	names, err := g.Env.Source.ListTags(g.Env.Repo)
	if err != nil {
		return nil, err
	}
	names = g.Filter.Apply(names)
	tasks := make([]Task, 0, len(names))
	for _, n := range names {
		tasks = append(tasks, NewGitTask(g.Env, versioning.Tag(n)))
	}
	return tasks, nil
}

// Factory concatenates the output of its generators in registration order.
type Factory struct {
	generators []Generator
}

// NewFactory returns an empty factory.
func NewFactory() *Factory { return &Factory{} }

// Add registers a generator.
func (f *Factory) Add(g Generator) { f.generators = append(f.generators, g) }

// Len returns the number of registered generators.
func (f *Factory) Len() int { return len(f.generators) }

// Tasks returns every generator's tasks, never reordering them.
func (f *Factory) Tasks(ctx context.Context) ([]Task, error) {
	var all []Task
	for _, g := range f.generators {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tasks, err := g.Tasks(ctx)
		if err != nil {
			return nil, err
		}
		all = append(all, tasks...)
	}
	return all, nil
}

// FactoryFor registers the generators the versioning configuration selects:
// working tree, then branches, then tags.
func FactoryFor(cfg config.VersioningConfig, env Env) *Factory {
	f := NewFactory()
	if versioning.Includes(cfg.Strategy, versioning.TypeWorkingTree) {
		f.Add(WorkingtreeGenerator{Env: env})
	}
	if versioning.Includes(cfg.Strategy, versioning.TypeBranch) {
		f.Add(BranchGenerator{Env: env, Filter: versioning.NewFilter(cfg.BranchPatterns)})
	}
	if versioning.Includes(cfg.Strategy, versioning.TypeTag) {
		f.Add(TagGenerator{Env: env, Filter: versioning.NewFilter(cfg.TagPatterns)})
	}
	return f
}
