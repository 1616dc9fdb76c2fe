package rehydrator

import (
	"errors"
)

// ConstructorFunc default-constructs an empty instance of one domain type,
// always returned as a pointer so field setters can mutate it.
type ConstructorFunc func() any

// RelationshipFixer can be implemented by domain objects that need to repair
// internal relationships once population is complete, e.g. back-references
// from child objects to their parent. The engine invokes it exactly once per
// reconstructed object.
type RelationshipFixer interface {
	FixupRelationships()
}

// TypeRegistry resolves classnames to type blueprints and collection names to
// classnames. The engine consults it for every object reconstruction.
type TypeRegistry interface {
	BlueprintFor(classname string) (TypeBlueprint, bool)
	ClassnameForCollection(collection string) (string, bool)
}

// TypeBlueprint describes one registered domain type: how to construct an
// empty instance and how to assign record fields by name.
// Use BuildTypeBlueprint() to create a blueprint with a fluent interface.
type TypeBlueprint struct {
	classname  string
	collection string
	construct  ConstructorFunc
	setters    Setters
}

// Classname returns the type name this blueprint reconstructs.
func (bp TypeBlueprint) Classname() string {
	return bp.classname
}

// Collection returns the store collection backing this type, or the empty
// string when none was declared.
func (bp TypeBlueprint) Collection() string {
	return bp.collection
}

func (bp TypeBlueprint) spawn() any {
	return bp.construct()
}

func (bp TypeBlueprint) setterFor(field string) (FieldSetter, bool) {
	setter, ok := bp.setters[field]

	return setter, ok
}

/***** The builder part starts here! *****/

// BlueprintConstructionBuilderInterface is the first build stage; a blueprint
// is unusable without a constructor.
type BlueprintConstructionBuilderInterface interface {
	ConstructedBy(construct ConstructorFunc) BlueprintPopulationBuilderInterface
}

// BlueprintPopulationBuilderInterface is the second build stage, attaching
// the backing collection and the field setters.
type BlueprintPopulationBuilderInterface interface {
	StoredInCollection(collection string) BlueprintPopulationBuilderInterface
	WithSetter(field string, setter FieldSetter) BlueprintPopulationBuilderInterface
	Finalize() (TypeBlueprint, error)
}

// BlueprintBuilder provides a fluent interface for building type blueprints.
type BlueprintBuilder struct {
	blueprint TypeBlueprint
	buildErrs []error
}

// BuildTypeBlueprint starts building the blueprint for the given classname.
func BuildTypeBlueprint(classname string) BlueprintConstructionBuilderInterface {
	builder := &BlueprintBuilder{
		blueprint: TypeBlueprint{
			classname: classname,
			setters:   make(Setters),
		},
	}

	if classname == "" {
		builder.buildErrs = append(builder.buildErrs, ErrEmptyClassname)
	}

	return builder
}

// ConstructedBy sets the constructor for empty instances of this type.
func (bb *BlueprintBuilder) ConstructedBy(construct ConstructorFunc) BlueprintPopulationBuilderInterface {
	if construct == nil {
		bb.buildErrs = append(bb.buildErrs, ErrNilConstructor)
	}

	bb.blueprint.construct = construct

	return bb
}

// StoredInCollection declares the store collection backing this type, which
// also lets references name the type by collection alone.
func (bb *BlueprintBuilder) StoredInCollection(collection string) BlueprintPopulationBuilderInterface {
	if collection == "" {
		bb.buildErrs = append(bb.buildErrs, ErrEmptyCollectionName)
	}

	bb.blueprint.collection = collection

	return bb
}

// WithSetter attaches the setter for one record field. A later setter for the
// same field replaces the earlier one.
func (bb *BlueprintBuilder) WithSetter(field string, setter FieldSetter) BlueprintPopulationBuilderInterface {
	if field == "" {
		bb.buildErrs = append(bb.buildErrs, ErrEmptyFieldName)
	}

	if setter == nil {
		bb.buildErrs = append(bb.buildErrs, ErrNilFieldSetter)

		return bb
	}

	bb.blueprint.setters[field] = setter

	return bb
}

// Finalize completes the build and returns the blueprint, or the collected
// validation errors.
func (bb *BlueprintBuilder) Finalize() (TypeBlueprint, error) {
	if len(bb.buildErrs) > 0 {
		return TypeBlueprint{}, errors.Join(bb.buildErrs...)
	}

	return bb.blueprint, nil
}

/***** The registry part starts here! *****/

// Registry is the default in-memory TypeRegistry. Register all blueprints
// during startup; lookups are read-only afterwards, so a fully built Registry
// is safe to share between goroutines.
type Registry struct {
	byClassname  map[string]TypeBlueprint
	byCollection map[string]string
}

// NewRegistry creates an empty type registry.
func NewRegistry() *Registry {
	return &Registry{
		byClassname:  make(map[string]TypeBlueprint),
		byCollection: make(map[string]string),
	}
}

// Register adds one blueprint to the registry. Classnames and collections
// must be unique across all registered blueprints.
func (r *Registry) Register(blueprint TypeBlueprint) error {
	if blueprint.classname == "" {
		return ErrEmptyClassname
	}

	if blueprint.construct == nil {
		return ErrNilConstructor
	}

	if _, taken := r.byClassname[blueprint.classname]; taken {
		return ErrDuplicateClassname
	}

	if blueprint.collection != "" {
		if _, taken := r.byCollection[blueprint.collection]; taken {
			return ErrDuplicateCollection
		}

		r.byCollection[blueprint.collection] = blueprint.classname
	}

	r.byClassname[blueprint.classname] = blueprint

	return nil
}

// BlueprintFor returns the blueprint registered for the given classname.
func (r *Registry) BlueprintFor(classname string) (TypeBlueprint, bool) {
	blueprint, ok := r.byClassname[classname]

	return blueprint, ok
}

// ClassnameForCollection returns the classname whose blueprint is backed by
// the given collection.
func (r *Registry) ClassnameForCollection(collection string) (string, bool) {
	classname, ok := r.byCollection[collection]

	return classname, ok
}

var _ TypeRegistry = (*Registry)(nil)
