// Package demos contains small components written against pkg/hooks: a
// counter, a random color generator, a themed panel that shares its theme
// through context, and a ticking clock.
//
// Components return View trees. Views carry named actions that a host
// can trigger, standing in for the click handlers of a real UI.
package demos
