package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleAccepts(t *testing.T) {
	tests := []struct {
		name         string
		role         Role
		isController bool
		want         bool
	}{
		{"any accepts controller", RoleAny, true, true},
		{"any accepts worker", RoleAny, false, true},
		{"controller accepts controller", RoleController, true, true},
		{"controller rejects worker", RoleController, false, false},
		{"worker rejects controller", RoleWorker, true, false},
		{"worker accepts worker", RoleWorker, false, true},
		{"zero value behaves like any on controller", Role(""), true, true},
		{"zero value behaves like any on worker", Role(""), false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.role.Accepts(tt.isController))
		})
	}
}
