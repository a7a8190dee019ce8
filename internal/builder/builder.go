package builder

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/docversions/internal/config"
	"git.home.luguber.info/inful/docversions/internal/foundation/errors"
)

var (
	// ErrNoDocumentation marks a source tree without generator configuration.
	ErrNoDocumentation = stderrors.New("no documentation configuration found")
	// ErrGeneratorFailed marks a generator run that did not succeed.
	ErrGeneratorFailed = stderrors.New("documentation generator failed")
)

// Result describes one generator run.
type Result struct {
	ConfigPath string // configuration file the generator used
	SourcePath string // directory the generator read from
	Failure    error  // non-nil when the version produced no documentation
}

// Failed reports whether the run produced no documentation.
func (r Result) Failed() bool { return r.Failure != nil }

// Builder generates documentation from source into output.
type Builder interface {
	Name() string
	Build(ctx context.Context, source, output string) (Result, error)
}

// New selects the implementation configured in cfg. envRoot is where the
// sphinx builder keeps its environments.
func New(cfg config.BuilderConfig, envRoot string, runner Runner) (Builder, error) {
	if runner == nil {
		runner = ExecRunner{}
	}
	switch cfg.Kind {
	case config.BuilderSphinx, "":
		return NewSphinxBuilder(cfg.Sphinx, envRoot, runner), nil
	case config.BuilderCommand:
		return NewCommandBuilder(cfg.Marker, cfg.Command, runner)
	case config.BuilderMarkdown:
		return NewMarkdownBuilder(), nil
	default:
		return nil, errors.ConfigError("unknown builder kind").WithContext("kind", string(cfg.Kind)).Build()
	}
}

// prepareOutput creates the output directory; failure here is infrastructure.
func prepareOutput(output string) error {
	if err := os.MkdirAll(output, 0o750); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to create output directory").
			WithContext("path", output).
			Build()
	}
	return nil
}

// FindConfig returns the first directory under root (top-down, lexical order)
// that contains a file called name. .git directories are skipped.
func FindConfig(root, name string) (string, bool, error) {
	var found string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() == ".git" {
			return filepath.SkipDir
		}
		if info, statErr := os.Stat(filepath.Join(path, name)); statErr == nil && info.Mode().IsRegular() {
			found = path
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", false, err
	}
	return found, found != "", nil
}

// noDocs builds the Failure for a tree without configuration.
func noDocs(source, name string) Result {
	return Result{Failure: errors.BuildError("no "+name+" found").
		WithCause(ErrNoDocumentation).
		WithContext("source", source).
		Build()}
}
