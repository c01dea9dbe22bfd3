package shell

import (
	"fmt"
	"strings"
)

// Snippet returns shell code that prepends binDir to PATH. Evaluating it
// twice does not add the directory twice.
func Snippet(s Type, binDir string) (string, error) {
	switch s {
	case Bash, Zsh:
		q := posixQuote(binDir)
		return fmt.Sprintf("case \":$PATH:\" in\n  *:%s:*) ;;\n  *) export PATH=%s:\"$PATH\" ;;\nesac\n", q, q), nil
	case Fish:
		return fmt.Sprintf("fish_add_path -g %s\n", posixQuote(binDir)), nil
	case PowerShell:
		q := "'" + strings.ReplaceAll(binDir, "'", "''") + "'"
		return fmt.Sprintf("if (-not ($env:PATH -split [IO.Path]::PathSeparator -contains %s)) { $env:PATH = %s + [IO.Path]::PathSeparator + $env:PATH }\n", q, q), nil
	default:
		return "", &UnsupportedShellError{Shell: s.String()}
	}
}

// ActivationLine is the rc file line that evaluates Snippet at startup.
func ActivationLine(s Type) (string, error) {
	switch s {
	case Bash, Zsh:
		return fmt.Sprintf(`eval "$(gdvm env %s)"`, s), nil
	case Fish:
		return fmt.Sprintf("gdvm env %s | source", s), nil
	case PowerShell:
		return fmt.Sprintf("gdvm env %s | Out-String | Invoke-Expression", s), nil
	default:
		return "", &UnsupportedShellError{Shell: s.String()}
	}
}

func posixQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
