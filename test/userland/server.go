package userland

import (
	"net/netip"
	"time"

	"github.com/badock/object-graph-rehydrator-go/rehydrator"
)

const ServerClassname = "Server"

const ServerCollection = "servers"

// Server is a compute instance with its attached networks. The host field
// can point at another Server, which makes the type self-referential.
type Server struct {
	ID        string
	Name      string
	State     string
	VCPUs     int64
	CreatedAt time.Time
	Subnet    netip.Prefix
	UserID    string
	ProjectID string
	Networks  []*Network
	Host      *Server
}

// FixupRelationships back-links every attached network to this server.
func (s *Server) FixupRelationships() {
	for _, network := range s.Networks {
		if network != nil {
			network.Server = s
		}
	}
}

func BuildServerBlueprint() (rehydrator.TypeBlueprint, error) {
	return rehydrator.BuildTypeBlueprint(ServerClassname).
		ConstructedBy(func() any { return &Server{} }).
		StoredInCollection(ServerCollection).
		WithSetter("id", rehydrator.StringField(func(s *Server, v string) { s.ID = v })).
		WithSetter("name", rehydrator.StringField(func(s *Server, v string) { s.Name = v })).
		WithSetter("state", rehydrator.StringField(func(s *Server, v string) { s.State = v })).
		WithSetter("vcpus", rehydrator.IntField(func(s *Server, v int64) { s.VCPUs = v })).
		WithSetter("created_at", rehydrator.TimeField(func(s *Server, v time.Time) { s.CreatedAt = v })).
		WithSetter("subnet", rehydrator.PrefixField(func(s *Server, v netip.Prefix) { s.Subnet = v })).
		WithSetter("user_id", rehydrator.StringField(func(s *Server, v string) { s.UserID = v })).
		WithSetter("project_id", rehydrator.StringField(func(s *Server, v string) { s.ProjectID = v })).
		WithSetter("networks", rehydrator.SliceField(func(s *Server, v []*Network) { s.Networks = v })).
		WithSetter("host", rehydrator.ObjectField(func(s *Server, v *Server) { s.Host = v })).
		Finalize()
}
