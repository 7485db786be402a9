package autobind_test

import (
	"io"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iVampireSP/autobind"
	"github.com/iVampireSP/autobind/reflecttype"
)

type Repository interface {
	Find(id int) (string, error)
}

type Logger interface {
	Log(msg string)
}

type Marker interface{}

type UserRepository struct{}

func (*UserRepository) Find(int) (string, error) { return "", nil }
func (*UserRepository) Close() error             { return nil }

type ConsoleLogger struct{}

func (ConsoleLogger) Log(string) {}

type Plain struct{}

type Timestamps struct{ CreatedAt int64 }

type Entity struct {
	Timestamps
	ID int
}

type AuditedService struct {
	Entity
}

func (*AuditedService) Log(string) {}

type ValidationError struct{}

func (ValidationError) Error() string { return "invalid" }

type auditLog struct{}

func (auditLog) Log(string) {}

// newRegistry registers every fixture type.
func newRegistry(t *testing.T) *reflecttype.Registry {
	t.Helper()
	reg := reflecttype.New()
	require.NoError(t, reg.Register(
		reflecttype.TypeOf[Repository](),
		reflecttype.TypeOf[Logger](),
		reflecttype.TypeOf[io.Closer](),
		reflecttype.TypeOf[Marker](),
		reflecttype.TypeOf[error](),
		reflecttype.TypeOf[UserRepository](),
		reflecttype.TypeOf[ConsoleLogger](),
		reflecttype.TypeOf[Plain](),
		reflecttype.TypeOf[Timestamps](),
		reflecttype.TypeOf[Entity](),
		reflecttype.TypeOf[AuditedService](),
		reflecttype.TypeOf[ValidationError](),
		reflecttype.TypeOf[auditLog](),
	))
	return reg
}

func desc[T any](reg *reflecttype.Registry) *autobind.Descriptor {
	return reg.Descriptor(reflect.TypeOf((*T)(nil)).Elem())
}

func keys(ds []*autobind.Descriptor) []string {
	out := make([]string, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.Key())
	}
	return out
}

// staticIntrospector serves fixed answers keyed by descriptor key.
type staticIntrospector struct {
	interfaces map[string][]*autobind.Descriptor
	bases      map[string][]*autobind.Descriptor
}

func (s staticIntrospector) InterfacesOf(t *autobind.Descriptor) []*autobind.Descriptor {
	return s.interfaces[t.Key()]
}

func (s staticIntrospector) BaseChainOf(t *autobind.Descriptor) []*autobind.Descriptor {
	return s.bases[t.Key()]
}

// staticModule is a module with a fixed type list.
type staticModule struct {
	path  string
	types []*autobind.Descriptor
}

func (m staticModule) Path() string                  { return m.path }
func (m staticModule) Types() []*autobind.Descriptor { return m.types }

func iface(pkg, name string, methods int) *autobind.Descriptor {
	return &autobind.Descriptor{PkgPath: pkg, Name: name, Kind: autobind.KindInterface, Exported: true, Methods: methods}
}

func strct(pkg, name string) *autobind.Descriptor {
	return &autobind.Descriptor{PkgPath: pkg, Name: name, Kind: autobind.KindStruct, Exported: true}
}
