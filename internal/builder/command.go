package builder

import (
	"context"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/docversions/internal/config"
	"git.home.luguber.info/inful/docversions/internal/foundation/errors"
)

// CommandBuilder runs an arbitrary generator command. The directory holding
// the marker file is treated as the documentation root.
//
// Argument placeholders:
//
//	{source}       checked-out source tree
//	{output}       output directory
//	{config_dir}   directory containing the marker
//	{config_file}  path of the marker file
type CommandBuilder struct {
	marker string
	argv   []string
	runner Runner
}

// NewCommandBuilder validates argv and returns a builder.
func NewCommandBuilder(marker string, argv []string, runner Runner) (*CommandBuilder, error) {
	if len(argv) == 0 || strings.TrimSpace(argv[0]) == "" {
		return nil, errors.ConfigError("builder.command must not be empty").Build()
	}
	if marker == "" {
		marker = sphinxConfigFile
	}
	return &CommandBuilder{marker: marker, argv: append([]string(nil), argv...), runner: runner}, nil
}

func (b *CommandBuilder) Name() string { return string(config.BuilderCommand) }

func (b *CommandBuilder) Build(ctx context.Context, source, output string) (Result, error) {
	dir, ok, err := FindConfig(source, b.marker)
	if err != nil {
		return Result{}, errors.WrapError(err, errors.CategoryFileSystem, "failed to scan source tree").
			WithContext("path", source).
			Build()
	}
	if !ok {
		return noDocs(source, b.marker), nil
	}
	res := Result{ConfigPath: filepath.Join(dir, b.marker), SourcePath: dir}
	if err := prepareOutput(output); err != nil {
		return res, err
	}

	replacer := strings.NewReplacer(
		"{source}", source,
		"{output}", output,
		"{config_dir}", dir,
		"{config_file}", res.ConfigPath,
	)
	args := make([]string, len(b.argv))
	for i, a := range b.argv {
		args[i] = replacer.Replace(a)
	}
	if _, err := b.runner.Run(ctx, Command{Name: args[0], Args: args[1:], Dir: dir}); err != nil {
		res.Failure = generatorFailure("generator command failed", err, dir)
	}
	return res, nil
}
