package models

// Role restricts an action group to builds that ran on the controller, on a
// worker node, or on either.
type Role string

const (
	RoleAny        Role = "any"        // Runs regardless of where the build executed
	RoleController Role = "controller" // Runs only for builds executed on the controller
	RoleWorker     Role = "worker"     // Runs only for builds delegated to a worker node
)

// Accepts reports whether a node with the given identity satisfies the role
// restriction. The zero value behaves like RoleAny.
func (r Role) Accepts(isController bool) bool {
	switch r {
	case RoleController:
		return isController
	case RoleWorker:
		return !isController
	default:
		return true
	}
}
