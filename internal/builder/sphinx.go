package builder

import (
	"context"
	"crypto/sha1" // #nosec G505 - environment names only, not security sensitive
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"git.home.luguber.info/inful/docversions/internal/config"
	"git.home.luguber.info/inful/docversions/internal/foundation/errors"
	"git.home.luguber.info/inful/docversions/internal/logfields"
)

const (
	sphinxConfigFile   = "conf.py"
	requirementsFile   = "requirements.txt"
	environmentPrefix  = "sphinx-virtualenv-"
	defaultRequirement = "sphinx"
)

// SphinxBuilder runs sphinx-build, optionally inside a virtualenv keyed by the
// requirements it was created from.
type SphinxBuilder struct {
	cfg     config.SphinxConfig
	envRoot string
	runner  Runner
}

// NewSphinxBuilder creates a sphinx builder. Environments live in envRoot.
func NewSphinxBuilder(cfg config.SphinxConfig, envRoot string, runner Runner) *SphinxBuilder {
	if cfg.Python == "" {
		cfg.Python = "python3"
	}
	if cfg.Executable == "" {
		cfg.Executable = "sphinx-build"
	}
	return &SphinxBuilder{cfg: cfg, envRoot: envRoot, runner: runner}
}

func (b *SphinxBuilder) Name() string { return string(config.BuilderSphinx) }

// Build locates conf.py under source and renders HTML into output.
func (b *SphinxBuilder) Build(ctx context.Context, source, output string) (Result, error) {
	docs, ok, err := FindConfig(source, sphinxConfigFile)
	if err != nil {
		return Result{}, errors.WrapError(err, errors.CategoryFileSystem, "failed to scan source tree").
			WithContext("path", source).
			Build()
	}
	if !ok {
		return noDocs(source, sphinxConfigFile), nil
	}
	res := Result{ConfigPath: filepath.Join(docs, sphinxConfigFile), SourcePath: docs}

	executable := b.cfg.Executable
	var env []string
	if b.cfg.Virtualenv {
		envPath, prepErr := b.prepareEnvironment(ctx, docs, source)
		if prepErr != nil {
			res.Failure = generatorFailure("virtualenv preparation failed", prepErr, docs)
			return res, nil
		}
		executable = filepath.Join(envBinDir(envPath), b.cfg.Executable)
		env = environmentFor(envPath)
	}

	if err := prepareOutput(output); err != nil {
		return res, err
	}

	cmd := Command{
		Name: executable,
		Args: []string{"-b", "html", docs, output},
		Dir:  source,
		Env:  env,
	}
	if _, err := b.runner.Run(ctx, cmd); err != nil {
		res.Failure = generatorFailure("sphinx-build failed", err, docs)
	}
	return res, nil
}

// prepareEnvironment creates (once) the virtualenv matching the requirements
// found next to conf.py and returns its path.
func (b *SphinxBuilder) prepareEnvironment(ctx context.Context, docs, cwd string) (string, error) {
	requirements := defaultRequirement
	reqPath := filepath.Join(docs, requirementsFile)
	installArgs := []string{"-m", "pip", "install", defaultRequirement}
	if data, err := os.ReadFile(reqPath); err == nil { // #nosec G304 - path inside checked-out tree
		requirements = string(data)
		installArgs = []string{"-m", "pip", "install", "-r", reqPath}
	}

	python := resolvePython(b.cfg.Python)
	name := EnvironmentName(requirements, python)
	envPath := filepath.Join(b.envRoot, name)
	if info, err := os.Stat(envPath); err == nil && info.IsDir() {
		slog.Debug("Reusing virtualenv", logfields.Path(envPath))
		return envPath, nil
	}

	if err := os.MkdirAll(b.envRoot, 0o750); err != nil {
		return "", err
	}
	slog.Info("Creating virtualenv", logfields.Path(envPath))
	if _, err := b.runner.Run(ctx, Command{Name: python, Args: []string{"-m", "venv", envPath}, Dir: cwd}); err != nil {
		_ = os.RemoveAll(envPath)
		return "", err
	}
	pip := Command{
		Name: filepath.Join(envBinDir(envPath), "python"),
		Args: installArgs,
		Dir:  cwd,
		Env:  environmentFor(envPath),
	}
	if _, err := b.runner.Run(ctx, pip); err != nil {
		// a half-installed environment would be reused by the next build
		_ = os.RemoveAll(envPath)
		return "", err
	}
	return envPath, nil
}

// EnvironmentName derives the virtualenv directory name from the requirements
// text and the interpreter path, so different requirement sets and
// interpreters never share an environment.
func EnvironmentName(requirements, python string) string {
	return environmentPrefix + shortSHA1(requirements) + "-" + shortSHA1(python)
}

func shortSHA1(s string) string {
	sum := sha1.Sum([]byte(s)) // #nosec G401
	return hex.EncodeToString(sum[:])[:6]
}

func resolvePython(python string) string {
	if p, err := exec.LookPath(python); err == nil {
		if abs, absErr := filepath.Abs(p); absErr == nil {
			return abs
		}
		return p
	}
	return python
}

func envBinDir(envPath string) string {
	if runtime.GOOS == "windows" {
		return filepath.Join(envPath, "Scripts")
	}
	return filepath.Join(envPath, "bin")
}

// environmentFor returns the process environment with the virtualenv
// activated.
func environmentFor(envPath string) []string {
	env := make([]string, 0, len(os.Environ())+1)
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, "PATH=") || strings.HasPrefix(kv, "VIRTUAL_ENV=") || strings.HasPrefix(kv, "PYTHONHOME=") {
			continue
		}
		env = append(env, kv)
	}
	path := envBinDir(envPath)
	if current := os.Getenv("PATH"); current != "" {
		path += string(os.PathListSeparator) + current
	}
	return append(env, "PATH="+path, "VIRTUAL_ENV="+envPath)
}

func generatorFailure(msg string, err error, docs string) error {
	return errors.BuildError(msg).
		WithCause(fmt.Errorf("%w: %w", ErrGeneratorFailed, err)).
		WithContext("source", docs).
		Build()
}
