package builder

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docversions/internal/config"
	"git.home.luguber.info/inful/docversions/internal/foundation/errors"
)

// fakeRunner records commands and fails those whose name or args contain
// failOn.
type fakeRunner struct {
	calls  []Command
	failOn string
	onRun  func(Command)
}

func (f *fakeRunner) Run(_ context.Context, c Command) (Output, error) {
	f.calls = append(f.calls, c)
	if f.onRun != nil {
		f.onRun(c)
	}
	if f.failOn != "" && strings.Contains(c.String(), f.failOn) {
		return Output{Stderr: "boom"}, stderrors.New("exit status 2: boom")
	}
	return Output{}, nil
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestFindConfig(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "b", "conf.py"), "")
	writeFile(t, filepath.Join(root, "a", "deep", "conf.py"), "")
	writeFile(t, filepath.Join(root, ".git", "conf.py"), "")

	dir, ok, err := FindConfig(root, "conf.py")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, filepath.Join(root, "a", "deep"), dir)

	writeFile(t, filepath.Join(root, "conf.py"), "")
	dir, ok, err = FindConfig(root, "conf.py")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, root, dir)

	_, ok, err = FindConfig(root, "missing.txt")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestNewSelectsImplementation(t *testing.T) {
	b, err := New(config.BuilderConfig{Kind: config.BuilderSphinx}, t.TempDir(), &fakeRunner{})
	require.NoError(t, err)
	require.Equal(t, "sphinx", b.Name())

	b, err = New(config.BuilderConfig{Kind: config.BuilderMarkdown}, "", nil)
	require.NoError(t, err)
	require.Equal(t, "markdown", b.Name())

	b, err = New(config.BuilderConfig{Kind: config.BuilderCommand, Command: []string{"make", "html"}}, "", nil)
	require.NoError(t, err)
	require.Equal(t, "command", b.Name())

	_, err = New(config.BuilderConfig{Kind: config.BuilderCommand}, "", nil)
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryConfig))

	_, err = New(config.BuilderConfig{Kind: "latex"}, "", nil)
	require.Error(t, err)
}

func TestSphinxBuildWithoutVirtualenv(t *testing.T) {
	source := t.TempDir()
	writeFile(t, filepath.Join(source, "docs", "conf.py"), "project = 'x'\n")
	output := filepath.Join(t.TempDir(), "out")
	runner := &fakeRunner{}

	b := NewSphinxBuilder(config.SphinxConfig{}, t.TempDir(), runner)
	res, err := b.Build(context.Background(), source, output)
	require.NoError(t, err)
	require.False(t, res.Failed())
	require.Equal(t, filepath.Join(source, "docs", "conf.py"), res.ConfigPath)
	require.Equal(t, filepath.Join(source, "docs"), res.SourcePath)
	require.DirExists(t, output)

	require.Len(t, runner.calls, 1)
	require.Equal(t, "sphinx-build", runner.calls[0].Name)
	require.Equal(t, []string{"-b", "html", filepath.Join(source, "docs"), output}, runner.calls[0].Args)
	require.Equal(t, source, runner.calls[0].Dir)
}

func TestSphinxNoConfiguration(t *testing.T) {
	runner := &fakeRunner{}
	b := NewSphinxBuilder(config.SphinxConfig{}, t.TempDir(), runner)
	res, err := b.Build(context.Background(), t.TempDir(), filepath.Join(t.TempDir(), "out"))
	require.NoError(t, err)
	require.True(t, res.Failed())
	require.ErrorIs(t, res.Failure, ErrNoDocumentation)
	require.Empty(t, res.ConfigPath)
	require.Empty(t, runner.calls)
}

func TestSphinxGeneratorFailure(t *testing.T) {
	source := t.TempDir()
	writeFile(t, filepath.Join(source, "conf.py"), "")
	runner := &fakeRunner{failOn: "sphinx-build"}

	b := NewSphinxBuilder(config.SphinxConfig{}, t.TempDir(), runner)
	res, err := b.Build(context.Background(), source, filepath.Join(t.TempDir(), "out"))
	require.NoError(t, err)
	require.True(t, res.Failed())
	require.ErrorIs(t, res.Failure, ErrGeneratorFailed)
	require.True(t, errors.HasCategory(res.Failure, errors.CategoryBuild))
	require.Contains(t, res.Failure.Error(), "boom")
	require.NotEmpty(t, res.ConfigPath)
}

func TestSphinxOutputCreationFailureIsInfrastructure(t *testing.T) {
	source := t.TempDir()
	writeFile(t, filepath.Join(source, "conf.py"), "")
	blocker := filepath.Join(t.TempDir(), "file")
	writeFile(t, blocker, "")

	b := NewSphinxBuilder(config.SphinxConfig{}, t.TempDir(), &fakeRunner{})
	_, err := b.Build(context.Background(), source, filepath.Join(blocker, "out"))
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryFileSystem))
}

func TestSphinxVirtualenv(t *testing.T) {
	source := t.TempDir()
	writeFile(t, filepath.Join(source, "docs", "conf.py"), "")
	writeFile(t, filepath.Join(source, "docs", "requirements.txt"), "sphinx==7.2\n")
	envRoot := t.TempDir()

	runner := &fakeRunner{}
	runner.onRun = func(c Command) {
		if len(c.Args) == 3 && c.Args[1] == "venv" {
			require.NoError(t, os.MkdirAll(c.Args[2], 0o750))
		}
	}

	b := NewSphinxBuilder(config.SphinxConfig{Virtualenv: true, Python: "python-does-not-exist"}, envRoot, runner)
	res, err := b.Build(context.Background(), source, filepath.Join(t.TempDir(), "out"))
	require.NoError(t, err)
	require.False(t, res.Failed())

	envPath := filepath.Join(envRoot, EnvironmentName("sphinx==7.2\n", "python-does-not-exist"))
	require.Len(t, runner.calls, 3)
	require.Equal(t, []string{"-m", "venv", envPath}, runner.calls[0].Args)
	require.Equal(t, []string{"-m", "pip", "install", "-r", filepath.Join(source, "docs", "requirements.txt")}, runner.calls[1].Args)
	require.Equal(t, filepath.Join(envBinDir(envPath), "sphinx-build"), runner.calls[2].Name)
	require.Contains(t, runner.calls[2].Env, "VIRTUAL_ENV="+envPath)

	// second build reuses the environment
	runner.calls = nil
	res, err = b.Build(context.Background(), source, filepath.Join(t.TempDir(), "out"))
	require.NoError(t, err)
	require.False(t, res.Failed())
	require.Len(t, runner.calls, 1)
}

func TestSphinxVirtualenvInstallFailureRemovesEnvironment(t *testing.T) {
	source := t.TempDir()
	writeFile(t, filepath.Join(source, "conf.py"), "")
	envRoot := t.TempDir()

	runner := &fakeRunner{failOn: "pip"}
	runner.onRun = func(c Command) {
		if len(c.Args) == 3 && c.Args[1] == "venv" {
			require.NoError(t, os.MkdirAll(c.Args[2], 0o750))
		}
	}

	b := NewSphinxBuilder(config.SphinxConfig{Virtualenv: true, Python: "python-does-not-exist"}, envRoot, runner)
	res, err := b.Build(context.Background(), source, filepath.Join(t.TempDir(), "out"))
	require.NoError(t, err)
	require.ErrorIs(t, res.Failure, ErrGeneratorFailed)
	require.NoDirExists(t, filepath.Join(envRoot, EnvironmentName("sphinx", "python-does-not-exist")))
}

func TestEnvironmentName(t *testing.T) {
	a := EnvironmentName("sphinx", "/usr/bin/python3")
	require.True(t, strings.HasPrefix(a, "sphinx-virtualenv-"))
	require.Len(t, a, len("sphinx-virtualenv-")+6+1+6)
	require.Equal(t, a, EnvironmentName("sphinx", "/usr/bin/python3"))
	require.NotEqual(t, a, EnvironmentName("sphinx==7", "/usr/bin/python3"))
	require.NotEqual(t, a, EnvironmentName("sphinx", "/usr/local/bin/python3"))
}

func TestCommandBuilderPlaceholders(t *testing.T) {
	source := t.TempDir()
	writeFile(t, filepath.Join(source, "site", "mkdocs.yml"), "")
	output := filepath.Join(t.TempDir(), "out")
	runner := &fakeRunner{}

	b, err := NewCommandBuilder("mkdocs.yml", []string{"mkdocs", "build", "-f", "{config_file}", "-d", "{output}", "--src={source}", "{config_dir}"}, runner)
	require.NoError(t, err)

	res, err := b.Build(context.Background(), source, output)
	require.NoError(t, err)
	require.False(t, res.Failed())
	require.Len(t, runner.calls, 1)
	dir := filepath.Join(source, "site")
	require.Equal(t, "mkdocs", runner.calls[0].Name)
	require.Equal(t, []string{"build", "-f", filepath.Join(dir, "mkdocs.yml"), "-d", output, "--src=" + source, dir}, runner.calls[0].Args)
	require.Equal(t, dir, runner.calls[0].Dir)
}

func TestCommandBuilderFailures(t *testing.T) {
	source := t.TempDir()
	runner := &fakeRunner{failOn: "make"}
	b, err := NewCommandBuilder("Makefile", []string{"make", "html"}, runner)
	require.NoError(t, err)

	res, err := b.Build(context.Background(), source, filepath.Join(t.TempDir(), "out"))
	require.NoError(t, err)
	require.ErrorIs(t, res.Failure, ErrNoDocumentation)

	writeFile(t, filepath.Join(source, "Makefile"), "html:\n")
	res, err = b.Build(context.Background(), source, filepath.Join(t.TempDir(), "out"))
	require.NoError(t, err)
	require.ErrorIs(t, res.Failure, ErrGeneratorFailed)
}
