// Package objects holds the client-side replica of the server's object
// tree: the object model, the Store that applies server messages to it,
// and the traversal and child-synchronization queries built on top.
package objects

import (
	"encoding/json"
	"maps"
	"slices"

	"github.com/google/uuid"

	"github.com/fbuehrmann/netxms/pkg/protocol"
)

// IDSet is a set of object ids.
type IDSet map[uint64]struct{}

// NewIDSet returns a set holding ids.
func NewIDSet(ids ...uint64) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s IDSet) Add(id uint64)      { s[id] = struct{}{} }
func (s IDSet) Remove(id uint64)   { delete(s, id) }
func (s IDSet) Has(id uint64) bool { _, ok := s[id]; return ok }
func (s IDSet) Len() int           { return len(s) }

// Sorted returns the ids in ascending order.
func (s IDSet) Sorted() []uint64 {
	return slices.Sorted(maps.Keys(s))
}

func (s IDSet) Clone() IDSet {
	if s == nil {
		return IDSet{}
	}
	return maps.Clone(s)
}

func (s IDSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

func (s *IDSet) UnmarshalJSON(data []byte) error {
	var ids []uint64
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = NewIDSet(ids...)
	return nil
}

func (s IDSet) MarshalYAML() (any, error) {
	return s.Sorted(), nil
}

// Object is one managed object as replicated from the server. Values
// returned by the Store are private copies.
type Object struct {
	ID                  uint64               `json:"id" yaml:"id"`
	GUID                uuid.UUID            `json:"guid" yaml:"guid"`
	Name                string               `json:"name" yaml:"name"`
	PrimaryName         string               `json:"primary_name,omitempty" yaml:"primary_name,omitempty"`
	Class               Class                `json:"class" yaml:"class"`
	Status              Status               `json:"status" yaml:"status"`
	Deleted             bool                 `json:"deleted,omitempty" yaml:"deleted,omitempty"`
	PrimaryIP           protocol.InetAddress `json:"primary_ip" yaml:"primary_ip"`
	Comments            string               `json:"comments,omitempty" yaml:"comments,omitempty"`
	Geolocation         GeoLocation          `json:"geolocation" yaml:"geolocation"`
	Image               uuid.UUID            `json:"image" yaml:"image"`
	Parents             IDSet                `json:"parents" yaml:"parents"`
	Children            IDSet                `json:"children" yaml:"children"`
	TrustedNodes        IDSet                `json:"trusted_nodes,omitempty" yaml:"trusted_nodes,omitempty"`
	CustomAttributes    map[string]string    `json:"custom_attributes,omitempty" yaml:"custom_attributes,omitempty"`
	ACL                 []AccessEntry        `json:"acl,omitempty" yaml:"acl,omitempty"`
	InheritAccessRights bool                 `json:"inherit_access_rights" yaml:"inherit_access_rights"`

	// Annotations are client-local notes. Server messages never touch them.
	Annotations map[string]string `json:"annotations,omitempty" yaml:"annotations,omitempty"`

	ChildSync SyncState `json:"-" yaml:"-"`
}

func newObject(id uint64) *Object {
	return &Object{
		ID:               id,
		Status:           StatusUnknown,
		Parents:          IDSet{},
		Children:         IDSet{},
		TrustedNodes:     IDSet{},
		CustomAttributes: map[string]string{},
	}
}

// Clone returns a deep copy of o.
func (o *Object) Clone() *Object {
	c := *o
	c.Parents = o.Parents.Clone()
	c.Children = o.Children.Clone()
	c.TrustedNodes = o.TrustedNodes.Clone()
	c.CustomAttributes = maps.Clone(o.CustomAttributes)
	c.ACL = slices.Clone(o.ACL)
	c.Annotations = maps.Clone(o.Annotations)
	return &c
}

// HasParent reports whether id is a direct parent of o.
func (o *Object) HasParent(id uint64) bool { return o.Parents.Has(id) }

// HasChild reports whether id is a direct child of o.
func (o *Object) HasChild(id uint64) bool { return o.Children.Has(id) }

// IsDefaultImage reports whether o uses its class's default image.
func (o *Object) IsDefaultImage() bool { return o.Image == uuid.Nil }
