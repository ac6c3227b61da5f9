package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/pulsekit/internal/program"
)

// Problem is one validation finding.
type Problem struct {
	Path    string `json:"path"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool      `json:"valid"`
	Targets  []string  `json:"targets,omitempty"`
	Programs []string  `json:"programs,omitempty"`
	Problems []Problem `json:"problems,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <path>...",
		Short: "Validate target directories and program files",
		Long: `Validate CUE target directories and YAML program files.

Target directories are compiled and checked for consistency. Programs are
parsed and, for pulse programs, built against their target without writing
a job.

Exit codes:
  0 - Everything is valid
  1 - Validation problems were found
  2 - Command error (path not found, etc.)`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.Context(), rootOpts, args, cmd)
		},
	}
	return cmd
}

func runValidate(ctx context.Context, opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
	result := ValidationResult{}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return outputValidateError(formatter, ErrCodeNotFound, fmt.Sprintf("path not found: %s", path))
		}

		if info.IsDir() {
			formatter.VerboseLog("Validating targets in %s", path)
			loaded, errs := LoadTargets(path)
			if loaded == nil && len(errs) > 0 {
				var loadErr *LoadError
				if errors.As(errs[0], &loadErr) && isCommandError(loadErr.Code) {
					return outputValidateError(formatter, loadErr.Code, loadErr.Message)
				}
			}
			if loaded != nil {
				for name := range loaded.Targets {
					result.Targets = append(result.Targets, name)
				}
			}
			for _, e := range errs {
				result.Problems = append(result.Problems, problemFrom(path, e))
			}
			continue
		}

		switch filepath.Ext(path) {
		case ".yaml", ".yml":
			formatter.VerboseLog("Validating program %s", path)
			if err := validateProgram(ctx, path); err != nil {
				result.Problems = append(result.Problems, problemFrom(path, err))
				continue
			}
			result.Programs = append(result.Programs, path)
		default:
			return outputValidateError(formatter, ErrCodeUnknownInput,
				fmt.Sprintf("%s is neither a targets directory nor a .yaml program", path))
		}
	}

	if len(result.Problems) > 0 {
		return outputValidationProblems(formatter, result)
	}
	result.Valid = true
	if formatter.JSON() {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ All inputs valid (%d targets, %d programs)\n", len(result.Targets), len(result.Programs))
	return nil
}

func validateProgram(ctx context.Context, path string) error {
	p, err := program.LoadFile(path)
	if err != nil {
		return &LoadError{Code: ErrCodeProgram, Message: err.Error()}
	}
	if _, err := program.LowerFile(ctx, p); err != nil {
		return &LoadError{Code: ErrCodeLowering, Message: err.Error()}
	}
	return nil
}

func isCommandError(code string) bool {
	switch code {
	case ErrCodeNotFound, ErrCodeScanError, ErrCodeNoFiles:
		return true
	}
	return false
}

func problemFrom(path string, err error) Problem {
	p := Problem{Path: path, Code: ErrCodeGeneric, Message: err.Error()}
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		p.Code = loadErr.Code
		p.Message = loadErr.Message
		if loadErr.Pos.IsValid() {
			p.Line = loadErr.Pos.Line()
		}
	}
	return p
}

func outputValidateError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

func outputValidationProblems(formatter *OutputFormatter, result ValidationResult) error {
	failed := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d problem(s)", len(result.Problems)))

	if formatter.JSON() {
		first := result.Problems[0]
		if err := formatter.encodeIndented(CLIResponse{
			Status: "error",
			Data:   result,
			Error:  &CLIError{Code: first.Code, Message: first.Message},
		}); err != nil {
			return err
		}
		return failed
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, p := range result.Problems {
		if p.Line > 0 {
			fmt.Fprintf(formatter.Writer, "%s line %d\n", p.Path, p.Line)
		} else {
			fmt.Fprintln(formatter.Writer, p.Path)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", p.Code, p.Message)
	}
	return failed
}
