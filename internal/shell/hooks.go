package shell

import (
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/NeverVane/historic/internal/logger"
)

// HookManager generates shell integration scripts
type HookManager struct {
	logger     *logger.Logger
	binaryPath string
	supported  []string
}

// NewHookManager creates a hook manager for the running binary
func NewHookManager(supported []string) (*HookManager, error) {
	binaryPath, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %w", err)
	}

	return NewHookManagerForBinary(binaryPath, supported), nil
}

// NewHookManagerForBinary creates a hook manager that calls binaryPath
func NewHookManagerForBinary(binaryPath string, supported []string) *HookManager {
	return &HookManager{
		logger:     logger.GetLogger().WithComponent("hooks"),
		binaryPath: binaryPath,
		supported:  supported,
	}
}

// GenerateHooks returns the integration script for shell
func (hm *HookManager) GenerateHooks(shell string) (string, error) {
	if !hm.isSupported(shell) {
		return "", fmt.Errorf("unsupported shell: %s (supported: %s)", shell, strings.Join(hm.supported, ", "))
	}

	var text string
	switch shell {
	case "bash":
		text = bashHookTemplate
	case "zsh":
		text = zshHookTemplate
	default:
		return "", fmt.Errorf("no integration template for shell: %s", shell)
	}

	tmpl, err := template.New(shell + "_hooks").Parse(text)
	if err != nil {
		return "", fmt.Errorf("failed to parse %s hook template: %w", shell, err)
	}

	var buf strings.Builder
	data := struct {
		BinaryPath string
	}{
		BinaryPath: shellQuote(hm.binaryPath),
	}

	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute %s hook template: %w", shell, err)
	}

	hm.logger.Debug().Str("shell", shell).Msg("Generated shell hooks")
	return buf.String(), nil
}

func (hm *HookManager) isSupported(shell string) bool {
	for _, s := range hm.supported {
		if s == shell {
			return true
		}
	}
	return false
}

// shellQuote wraps s in single quotes for POSIX shells
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

const bashHookTemplate = `# historic bash integration
# Load with: eval "$({{.BinaryPath}} init bash)"

__historic_bin={{.BinaryPath}}
__HISTORIC_LAST=""

# Record the last history entry once per prompt
__historic_record() {
    local entry
    entry=$(HISTTIMEFORMAT= builtin history 1)
    [[ "$entry" =~ ^[[:space:]]*([0-9]+)[[:space:]]+(.*)$ ]] || return
    local num="${BASH_REMATCH[1]}" cmd="${BASH_REMATCH[2]}"

    [[ "$num" == "$__HISTORIC_LAST" ]] && return
    __HISTORIC_LAST="$num"

    ( "$__historic_bin" add -- "$cmd" >/dev/null 2>&1 & )
}

if [[ "$PROMPT_COMMAND" != *"__historic_record"* ]]; then
    PROMPT_COMMAND="__historic_record${PROMPT_COMMAND:+; $PROMPT_COMMAND}"
fi

# Ctrl+R opens the selector and puts the choice on the command line
__historic_search() {
    local selected
    selected=$("$__historic_bin" </dev/tty)
    if [[ -n "$selected" ]]; then
        READLINE_LINE="$selected"
        READLINE_POINT=${#READLINE_LINE}
    fi
}

if [[ $- == *i* ]]; then
    bind -x '"\C-r": __historic_search' 2>/dev/null
fi
`

const zshHookTemplate = `# historic zsh integration
# Load with: eval "$({{.BinaryPath}} init zsh)"

__historic_bin={{.BinaryPath}}

__historic_preexec() {
    __HISTORIC_CMD="$1"
}

__historic_precmd() {
    if [[ -n "$__HISTORIC_CMD" ]]; then
        ( "$__historic_bin" add -- "$__HISTORIC_CMD" >/dev/null 2>&1 & )
    fi
    unset __HISTORIC_CMD
}

autoload -Uz add-zsh-hook
add-zsh-hook preexec __historic_preexec
add-zsh-hook precmd __historic_precmd

# Ctrl+R opens the selector and puts the choice on the command line
__historic_widget() {
    local selected
    selected=$("$__historic_bin" </dev/tty)
    if [[ -n "$selected" ]]; then
        BUFFER="$selected"
        CURSOR=${#BUFFER}
    fi
    zle reset-prompt
}

zle -N __historic_widget
bindkey '^R' __historic_widget
`
