package autobind_test

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iVampireSP/autobind"
)

func TestStockSelectors(t *testing.T) {
	t.Parallel()
	const pkg = "example.com/app"
	target := strct(pkg, "sqlUserRepository")
	repo := iface(pkg, "UserRepository", 1)
	closer := iface("io", "Closer", 1)
	base := strct(pkg, "BaseRepository")
	candidates := []*autobind.Descriptor{repo, closer, base}

	tests := []struct {
		name     string
		selector autobind.ServiceSelector
		want     []string
	}{
		{"all", autobind.SelectAll, []string{target.Key(), repo.Key(), closer.Key(), base.Key()}},
		{"self", autobind.SelectSelf, []string{target.Key()}},
		{"interfaces", autobind.SelectAllInterfaces, []string{repo.Key(), closer.Key()}},
		{"base", autobind.SelectBase, []string{base.Key()}},
		{"single interface with two offered", autobind.SelectSingleInterface, []string{}},
		{"default interface", autobind.SelectDefaultInterface, []string{repo.Key()}},
		{"matching", autobind.SelectMatching(regexp.MustCompile(`^Clo`)), []string{closer.Key()}},
		{"without", autobind.Without(autobind.SelectAll, closer.Key()), []string{target.Key(), repo.Key(), base.Key()}},
		{"filter", autobind.Filter(autobind.SelectAll, autobind.IsStruct), []string{target.Key(), base.Key()}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, keys(tt.selector(target, candidates)))
		})
	}
}

func TestSelectAllDeduplicatesSelf(t *testing.T) {
	t.Parallel()
	target := strct("example.com/app", "Service")
	again := strct("example.com/app", "Service")
	assert.Equal(t, []string{target.Key()}, keys(autobind.SelectAll(target, []*autobind.Descriptor{again})))
}

func TestSelectSingleInterface(t *testing.T) {
	t.Parallel()
	target := strct("example.com/app", "Cache")
	store := iface("example.com/app", "Store", 2)
	base := strct("example.com/app", "Base")

	assert.Equal(t, []string{store.Key()}, keys(autobind.SelectSingleInterface(target, []*autobind.Descriptor{store, base})))
	assert.Empty(t, autobind.SelectSingleInterface(target, []*autobind.Descriptor{base}))
}

func TestSelectDefaultInterface(t *testing.T) {
	t.Parallel()
	const pkg = "example.com/app"
	logger := iface(pkg, "Logger", 1)
	store := iface(pkg, "Store", 1)
	candidates := []*autobind.Descriptor{logger, store}

	tests := []struct {
		target string
		want   []string
	}{
		{"LoggerImpl", []string{logger.Key()}},
		{"consoleLogger", []string{logger.Key()}},
		{"Store[T]", []string{store.Key()}},
		{"Clock", []string{}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.target, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, keys(autobind.SelectDefaultInterface(strct(pkg, tt.target), candidates)))
		})
	}
}

func TestSelectorsAreDeterministic(t *testing.T) {
	t.Parallel()
	reg := newRegistry(t)
	resolver := autobind.NewBindableTypeSelector(reg)
	target := desc[UserRepository](reg)

	candidates := resolver.BindableInterfaces(target)
	first := autobind.SelectAll(target, candidates)
	second := autobind.SelectAll(target, candidates)
	assert.Equal(t, keys(first), keys(second))
}
