package errors

import "sort"

// Registered codes. H001-H006 are reported by pkg/hooks error types.
const (
	CodeInternal = "H000"

	CodeCellIdentity = "H001"
	CodeCellCount    = "H002"
	CodeEffect       = "H003"
	CodeRenderPanic  = "H004"
	CodeUpdateDepth  = "H005"
	CodeScopeClosed  = "H006"

	CodeHostClosed = "H010"
	CodeQueueFull  = "H011"

	CodeConfigRead    = "H020"
	CodeConfigParse   = "H021"
	CodeConfigInvalid = "H022"

	CodeUnknownDemo   = "H040"
	CodeUnknownAction = "H041"
	CodeServe         = "H042"
)

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	Hint     string
	Example  string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	CodeInternal: {
		Category: CategoryRuntime,
		Message:  "Internal error",
		Detail:   "hookrt failed in a way it has no specific explanation for.",
	},

	// Hook misuse

	CodeCellIdentity: {
		Category: CategoryHook,
		Message:  "Cell kind changed between passes",
		Detail:   "Cells are matched to hook calls by call order. The call at this position created a different kind of cell, or the same kind with a different value type, than on the first pass.",
		Hint:     "Make every pass call the same hooks in the same order. Do not call hooks inside if statements, loops or early returns.",
		Example: `count, setCount := hooks.UseState(s, 0)
if !visible {
    return nil
}`,
	},
	CodeCellCount: {
		Category: CategoryHook,
		Message:  "Cell count changed between passes",
		Detail:   "A render function made a different number of hook calls than on its first pass. This usually means a hook is called conditionally or after an early return.",
		Hint:     "Move the hook call out of the if statement and branch on its result instead.",
		Example: `label, setLabel := hooks.UseState(s, "")
if !editing {
    label = ""
}`,
	},
	CodeEffect: {
		Category: CategoryHook,
		Message:  "Effect panicked",
		Detail:   "An effect or cleanup callback panicked. The panic was recovered and the remaining effects of the pass still ran. A failed effect leaves no cleanup behind.",
		Hint:     "Return an error-free cleanup, and guard resources the effect may not have acquired.",
	},
	CodeRenderPanic: {
		Category: CategoryHook,
		Message:  "Render function panicked",
		Detail:   "The render function, or a memo compute function it called, panicked. The instance was marked failed and renders no further passes until it is unmounted.",
	},
	CodeUpdateDepth: {
		Category: CategoryHook,
		Message:  "Too many re-renders in one flush",
		Detail:   "An instance kept scheduling itself during a single flush. This usually means an effect sets state on every run.",
		Hint:     "Give the effect a dependency list, or only set state when the new value differs.",
		Example: `hooks.UseEffect(s, func() hooks.Cleanup {
    setTotal(sum(items))
    return nil
}, hooks.On(items))`,
	},
	CodeScopeClosed: {
		Category: CategoryHook,
		Message:  "Scope used outside its render pass",
		Detail:   "A Scope is only valid while its render function runs. It was captured and used from an effect, event handler or goroutine.",
		Hint:     "Capture the setter or ref you need during render and use that instead of the Scope.",
	},

	// Host

	CodeHostClosed: {
		Category: CategoryRuntime,
		Message:  "Host is closed",
		Detail:   "The host event loop has stopped and accepts no further work.",
	},
	CodeQueueFull: {
		Category: CategoryRuntime,
		Message:  "Host dispatch queue is full",
		Detail:   "The host event loop is not keeping up with incoming work.",
		Hint:     "Raise host.queue_size in the configuration file.",
	},

	// Configuration

	CodeConfigRead: {
		Category: CategoryConfig,
		Message:  "Cannot read configuration file",
		Hint:     "Check the path passed to --config.",
	},
	CodeConfigParse: {
		Category: CategoryConfig,
		Message:  "Invalid configuration syntax",
		Detail:   "hookrt.json must be valid JSON; hookrt.yaml and hookrt.yml must be valid YAML.",
	},
	CodeConfigInvalid: {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
		Example: `log:
  level: info
max_passes_per_flush: 50
host:
  queue_size: 256`,
	},

	// CLI

	CodeUnknownDemo: {
		Category: CategoryCLI,
		Message:  "Unknown demo",
		Hint:     "Run `hookrt demos` to list the available demos.",
	},
	CodeUnknownAction: {
		Category: CategoryCLI,
		Message:  "Unknown action",
		Hint:     "Run `hookrt demos` to list the actions of each demo.",
	},
	CodeServe: {
		Category: CategoryCLI,
		Message:  "Devtools server failed",
		Hint:     "Check that the address passed to --addr is free.",
	},
}

// GetAllCodes returns all registered error codes in order.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
// This is not safe for concurrent use and should only be called during init.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
