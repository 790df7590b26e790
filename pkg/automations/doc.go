// Package automations holds the built-in automations the automations module
// can run. Automations are registered explicitly, in a fixed order, in a
// table built by Builtin; nothing registers itself at import time.
package automations
