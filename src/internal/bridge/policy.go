// FILE: logbridge/src/internal/bridge/policy.go
package bridge

import (
	"strings"

	"logbridge/src/internal/core"
)

// Policy decides whether a record is forwarded at all
type Policy interface {
	Allow(target string, level core.Level) bool
}

// PolicyFunc adapts a plain function to Policy
type PolicyFunc func(target string, level core.Level) bool

func (f PolicyFunc) Allow(target string, level core.Level) bool {
	return f(target, level)
}

// NamespacePolicy forwards every record whose target starts with Namespace
// and gates everything else at MinLevel.
type NamespacePolicy struct {
	Namespace string
	MinLevel  core.Level
}

// DefaultPolicy returns the bridge's built-in policy: own namespace always,
// other targets at INFO and above.
func DefaultPolicy() NamespacePolicy {
	return NamespacePolicy{
		Namespace: core.DefaultNamespace,
		MinLevel:  core.LevelInfo,
	}
}

func (p NamespacePolicy) Allow(target string, level core.Level) bool {
	if p.Namespace != "" && strings.HasPrefix(target, p.Namespace) {
		return true
	}
	return level.AtLeast(p.MinLevel)
}
