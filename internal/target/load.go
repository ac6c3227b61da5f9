package target

import (
	"fmt"
	"os"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
)

// LoadDir loads every target declared under the top-level "target" field
// of the CUE package in dir. All compile and validation errors are
// collected.
func LoadDir(dir string) (map[string]*Config, []error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, []error{fmt.Errorf("target directory: %w", err)}
	}
	if !info.IsDir() {
		return nil, []error{fmt.Errorf("not a directory: %s", dir)}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, []error{fmt.Errorf("no CUE instances loaded from %s", dir)}
	}
	if inst := instances[0]; inst.Err != nil {
		return nil, []error{fmt.Errorf("loading CUE files: %w", inst.Err)}
	}

	value := ctx.BuildInstance(instances[0])
	if err := value.Err(); err != nil {
		return nil, []error{formatCUEError(err)}
	}
	return compileAll(value)
}

// LoadString compiles targets from CUE source. It is the in-memory
// counterpart of LoadDir.
func LoadString(src string) (map[string]*Config, []error) {
	value := cuecontext.New().CompileString(src, cue.Filename("target.cue"))
	if err := value.Err(); err != nil {
		return nil, []error{formatCUEError(err)}
	}
	return compileAll(value)
}

func compileAll(value cue.Value) (map[string]*Config, []error) {
	targets := value.LookupPath(cue.ParsePath("target"))
	if !targets.Exists() {
		return nil, []error{&CompileError{Field: "target", Message: "no targets declared", Pos: value.Pos()}}
	}
	iter, err := targets.Fields()
	if err != nil {
		return nil, []error{formatCUEError(err)}
	}

	out := map[string]*Config{}
	var errs []error
	for iter.Next() {
		cfg, err := Compile(iter.Value())
		if err != nil {
			errs = append(errs, fmt.Errorf("target.%s: %w", iter.Selector(), err))
			continue
		}
		for _, verr := range Validate(cfg) {
			errs = append(errs, fmt.Errorf("target.%s: %w", iter.Selector(), verr))
		}
		out[cfg.TargetName] = cfg
	}
	return out, errs
}

// Select returns the named target, or the only target when name is empty.
func Select(targets map[string]*Config, name string) (*Config, error) {
	if name != "" {
		cfg, ok := targets[name]
		if !ok {
			return nil, fmt.Errorf("target %q not found (have %v)", name, names(targets))
		}
		return cfg, nil
	}
	if len(targets) != 1 {
		return nil, fmt.Errorf("target name required, %d targets declared: %v", len(targets), names(targets))
	}
	for _, cfg := range targets {
		return cfg, nil
	}
	return nil, nil
}

func names(targets map[string]*Config) []string {
	out := make([]string, 0, len(targets))
	for name := range targets {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
