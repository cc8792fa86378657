// Package rpcapi defines the process-to-process and control-to-process RPC
// surface: request/response messages, gRPC service descriptors, and client
// stubs, hand-written in the shape protoc-gen-go-grpc would emit but carried
// over a JSON codec (see codec.go) since no protoc step runs in this build.
package rpcapi

// Role is the replication role of a Process, encoded on the wire exactly as
// spec'd: NONE=1, HEAD=2, TAIL=3, DISABLED=4.
type Role int32

const (
	RoleNone     Role = 1
	RoleHead     Role = 2
	RoleTail     Role = 3
	RoleDisabled Role = 4
)

func (r Role) String() string {
	switch r {
	case RoleNone:
		return "NONE"
	case RoleHead:
		return "HEAD"
	case RoleTail:
		return "TAIL"
	case RoleDisabled:
		return "DISABLED"
	default:
		return "UNKNOWN"
	}
}

// Tag is the clean/dirty marker on a stored value.
type Tag int32

const (
	TagClean Tag = 1
	TagDirty Tag = 2
)

func (t Tag) String() string {
	if t == TagDirty {
		return "dirty"
	}
	return "clean"
}
