package flash

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// Tool is the command line that starts esptool. Args precede the
// write_flash arguments, e.g. {"-m", "esptool"} for a python module run.
type Tool struct {
	Path string
	Args []string
	Env  []string // environment with the venv on PATH, nil to inherit
}

func (t Tool) String() string {
	return strings.TrimSpace(t.Path + " " + strings.Join(t.Args, " "))
}

// lookPath is replaced in tests.
var lookPath = exec.LookPath

// ResolveTool finds esptool. Search order: explicit path, then the venv's
// bin (or Scripts on Windows) directory, then esptool and esptool.py on
// PATH, then "python3 -m esptool". The last fallback is returned even if
// python3 is missing so that the failure surfaces as tool-not-found when
// flashing.
func ResolveTool(explicit, venv string) Tool {
	if explicit != "" {
		return Tool{Path: explicit}
	}

	if venv != "" {
		binDir := venvBinDir(venv)
		for _, name := range esptoolNames() {
			candidate := filepath.Join(binDir, name)
			if _, err := os.Stat(candidate); err == nil {
				return Tool{Path: candidate, Env: buildEnvWithPath(binDir)}
			}
		}
		python := filepath.Join(binDir, pythonExeName())
		if _, err := os.Stat(python); err == nil {
			return Tool{Path: python, Args: []string{"-m", "esptool"}, Env: buildEnvWithPath(binDir)}
		}
	}

	for _, name := range esptoolNames() {
		if p, err := lookPath(name); err == nil {
			return Tool{Path: p}
		}
	}

	python := pythonExeName()
	if p, err := lookPath(python); err == nil {
		python = p
	}
	return Tool{Path: python, Args: []string{"-m", "esptool"}}
}

func venvBinDir(venvPath string) string {
	if runtime.GOOS == "windows" {
		return filepath.Join(venvPath, "Scripts")
	}
	return filepath.Join(venvPath, "bin")
}

func esptoolNames() []string {
	if runtime.GOOS == "windows" {
		return []string{"esptool.exe", "esptool.py.exe"}
	}
	return []string{"esptool", "esptool.py"}
}

func pythonExeName() string {
	if runtime.GOOS == "windows" {
		return "python.exe"
	}
	return "python3"
}

// buildEnvWithPath copies the current environment with binDir prepended to
// PATH.
func buildEnvWithPath(binDir string) []string {
	env := os.Environ()
	result := make([]string, 0, len(env)+1)
	pathSet := false

	for _, e := range env {
		if strings.HasPrefix(e, "PATH=") {
			result = append(result, "PATH="+binDir+string(os.PathListSeparator)+e[5:])
			pathSet = true
		} else {
			result = append(result, e)
		}
	}

	if !pathSet {
		result = append(result, "PATH="+binDir)
	}

	return result
}
