package identity

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Permission is a single capability flag.
type Permission uint8

// The permission set is closed; adding one is a code change.
const (
	PermUpload Permission = 1 << iota
	PermAdmin
	PermReview
)

var permissionTags = []struct {
	perm Permission
	tag  string
}{
	{PermUpload, "upload"},
	{PermAdmin, "admin"},
	{PermReview, "review"},
}

func (p Permission) String() string {
	for _, pt := range permissionTags {
		if pt.perm == p {
			return pt.tag
		}
	}
	return fmt.Sprintf("permission(%d)", uint8(p))
}

// ParsePermission maps a tag ("upload", "admin", "review") to its flag.
// Matching is case-insensitive; unknown tags are an error.
func ParsePermission(s string) (Permission, error) {
	tag := strings.ToLower(strings.TrimSpace(s))
	for _, pt := range permissionTags {
		if pt.tag == tag {
			return pt.perm, nil
		}
	}
	return 0, invalid("identity.ParsePermission", fmt.Sprintf("unknown permission %q", s))
}

// Permissions is a set of Permission flags.
type Permissions uint8

// NewPermissions returns the set containing ps.
func NewPermissions(ps ...Permission) Permissions {
	var set Permissions
	for _, p := range ps {
		set = set.With(p)
	}
	return set
}

// ParsePermissions builds a set from tags. Duplicates are harmless.
func ParsePermissions(tags []string) (Permissions, error) {
	var set Permissions
	for _, t := range tags {
		p, err := ParsePermission(t)
		if err != nil {
			return 0, err
		}
		set = set.With(p)
	}
	return set, nil
}

// Has reports whether p is in the set.
func (s Permissions) Has(p Permission) bool { return s&Permissions(p) != 0 }

// With returns a copy of the set with p added.
func (s Permissions) With(p Permission) Permissions { return s | Permissions(p) }

// List returns the flags in declaration order.
func (s Permissions) List() []Permission {
	out := make([]Permission, 0, len(permissionTags))
	for _, pt := range permissionTags {
		if s.Has(pt.perm) {
			out = append(out, pt.perm)
		}
	}
	return out
}

// Tags returns the tag of every flag in the set.
func (s Permissions) Tags() []string {
	list := s.List()
	out := make([]string, len(list))
	for i, p := range list {
		out[i] = p.String()
	}
	return out
}

// String formats the set as a comma-separated tag list ("upload,admin").
func (s Permissions) String() string { return strings.Join(s.Tags(), ",") }

// MarshalJSON encodes the set as an array of tags.
func (s Permissions) MarshalJSON() ([]byte, error) { return json.Marshal(s.Tags()) }

// UnmarshalJSON decodes an array of tags.
func (s *Permissions) UnmarshalJSON(b []byte) error {
	var tags []string
	if err := json.Unmarshal(b, &tags); err != nil {
		return err
	}
	set, err := ParsePermissions(tags)
	if err != nil {
		return err
	}
	*s = set
	return nil
}
