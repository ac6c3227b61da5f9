package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue/token"

	"github.com/roach88/pulsekit/internal/target"
)

// LoadResult contains the targets compiled from a directory.
type LoadResult struct {
	Targets   map[string]*target.Config
	FileCount int
}

// LoadError is a loading failure with its CLI error code.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadTargets compiles the CUE targets in dir. A nil result means nothing
// could be compiled; otherwise errs holds per-target problems.
func LoadTargets(dir string) (*LoadResult, []error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("targets directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing targets directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(cueFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	targets, errs := target.LoadDir(dir)
	converted := make([]error, len(errs))
	for i, e := range errs {
		converted[i] = convertTargetError(e)
	}
	if targets == nil {
		if len(converted) == 0 {
			converted = []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no targets loaded"}}
		}
		return nil, converted
	}
	return &LoadResult{Targets: targets, FileCount: len(cueFiles)}, converted
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func convertTargetError(err error) *LoadError {
	var verr target.ValidationError
	if errors.As(err, &verr) {
		return &LoadError{Code: verr.Code, Message: err.Error()}
	}
	var cerr *target.CompileError
	if errors.As(err, &cerr) {
		code := ErrCodeBuildFailed
		if cerr.Field != "cue" {
			code = ErrCodeTargetField
		}
		return &LoadError{Code: code, Message: err.Error(), Pos: cerr.Pos}
	}
	return &LoadError{Code: ErrCodeLoadFailed, Message: err.Error()}
}

// Error codes shared by all commands. Target validation reports its own
// E1xx codes.
const (
	ErrCodeGeneric      = "E001" // Generic/unknown error
	ErrCodeScanError    = "E002" // Directory scan error
	ErrCodeNoFiles      = "E003" // No CUE files found
	ErrCodeLoadFailed   = "E004" // CUE load failed
	ErrCodeNotFound     = "E005" // Path not found
	ErrCodeBuildFailed  = "E006" // CUE build failed
	ErrCodeWriteFailed  = "E007" // File write error
	ErrCodeTargetField  = "E008" // Target field failed to compile
	ErrCodeProgram      = "E201" // Program file failed to parse or validate
	ErrCodeLowering     = "E202" // Program failed to build or lower
	ErrCodeStore        = "E203" // Job store error
	ErrCodeUnknownInput = "E204" // Neither a targets directory nor a program file
)
