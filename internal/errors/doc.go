// Package errors turns hookrt failures into actionable terminal messages.
//
// Every failure the CLI can report has a registered code. Hook misuse
// codes (H001-H006) match the Code() methods of the error types in
// pkg/hooks, so FromError can look them up directly:
//
//	if err := h.Trigger(ctx, id, "toggle"); err != nil {
//	    errors.PrintError(errors.FromError(err, errors.CodeInternal))
//	}
//	// Output:
//	// ERROR H002: Cell count changed between passes
//	//
//	//   demos/theme.go:42
//	//
//	//   A render function made a different number of hook calls than on
//	//   its first pass. ...
//	//
//	//   Cause: hooks: cell count mismatch in ThemePanel#3: expected 2 cells, got 1
//	//
//	//   Hint: Move the hook call out of the if statement and branch on its result instead.
//
// # Error Categories
//
//   - hook: misuse of the hook API inside render functions
//   - runtime: failures of the runtime or host
//   - config: configuration file errors
//   - cli: command line errors
package errors
