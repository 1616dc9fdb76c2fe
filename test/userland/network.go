package userland

import (
	"net/netip"

	"github.com/badock/object-graph-rehydrator-go/rehydrator"
)

const NetworkClassname = "Network"

const NetworkCollection = "networks"

// Network is a virtual network attached to a server. The server back-ref is
// filled by Server.FixupRelationships, not by the record itself, unless the
// record carries an explicit server field.
type Network struct {
	ID     string
	Label  string
	CIDR   netip.Prefix
	Server *Server
}

func BuildNetworkBlueprint() (rehydrator.TypeBlueprint, error) {
	return rehydrator.BuildTypeBlueprint(NetworkClassname).
		ConstructedBy(func() any { return &Network{} }).
		StoredInCollection(NetworkCollection).
		WithSetter("id", rehydrator.StringField(func(n *Network, v string) { n.ID = v })).
		WithSetter("label", rehydrator.StringField(func(n *Network, v string) { n.Label = v })).
		WithSetter("cidr", rehydrator.PrefixField(func(n *Network, v netip.Prefix) { n.CIDR = v })).
		WithSetter("server", rehydrator.ObjectField(func(n *Network, v *Server) { n.Server = v })).
		Finalize()
}
