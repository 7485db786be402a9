// Package autobind registers implementation types into a dependency
// injection container by convention instead of per-type wiring.
//
// A session starts from a set of modules (Go packages), narrows the
// candidate types, and runs one or more generators over them. The stock
// SelectorGenerator works in three steps:
//
//  1. BindableTypeSelector lists the interfaces a type implements and the
//     structs it embeds, dropping empty interfaces and ignored markers.
//  2. A ServiceSelector picks which of those abstractions to register.
//  3. A BindingCreator emits the registrations into a BindingRoot.
//
// Registrations produced by a session can then be configured, globally or
// per implementation type:
//
//	b := autobind.NewBuilder().
//		SelectAllTypesFrom(modules...).
//		Where(autobind.IsStruct)
//
//	gen := autobind.NewSelectorGenerator(
//		autobind.SingleConfigurationCreator{},
//		autobind.Without(autobind.SelectAll, "io.Closer"),
//		autobind.NewBindableTypeSelector(introspector),
//	)
//	if err := b.BindWith(gen, root); err != nil {
//		return err
//	}
//	_ = b.Configure(func(r autobind.Registration) { r.InScope(autobind.ScopeSingleton) })
//
// Type metadata comes from an Introspector. The scanner package provides one
// built on go/types, the reflecttype package one built on reflect. The plan
// and digroot packages provide binding roots.
package autobind
