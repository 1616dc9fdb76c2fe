package userland

import (
	"github.com/badock/object-graph-rehydrator-go/rehydrator"
)

const SecurityGroupClassname = "SecurityGroup"

const SecurityGroupCollection = "security_groups"

// SecurityGroup is a named set of firewall rules owned by a user and project.
type SecurityGroup struct {
	ID        string
	Name      string
	Rules     []string
	UserID    string
	ProjectID string
}

func BuildSecurityGroupBlueprint() (rehydrator.TypeBlueprint, error) {
	return rehydrator.BuildTypeBlueprint(SecurityGroupClassname).
		ConstructedBy(func() any { return &SecurityGroup{} }).
		StoredInCollection(SecurityGroupCollection).
		WithSetter("id", rehydrator.StringField(func(g *SecurityGroup, v string) { g.ID = v })).
		WithSetter("name", rehydrator.StringField(func(g *SecurityGroup, v string) { g.Name = v })).
		WithSetter("rules", rehydrator.SliceField(func(g *SecurityGroup, v []string) { g.Rules = v })).
		WithSetter("user_id", rehydrator.StringField(func(g *SecurityGroup, v string) { g.UserID = v })).
		WithSetter("project_id", rehydrator.StringField(func(g *SecurityGroup, v string) { g.ProjectID = v })).
		Finalize()
}
