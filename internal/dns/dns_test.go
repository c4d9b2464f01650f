package dns

import (
	"context"
	"errors"
	"net/netip"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLookup struct {
	hosts    map[string][]string
	services map[string]int
	queried  []string
}

func (f *fakeLookup) LookupNetIP(_ context.Context, _, host string) ([]netip.Addr, error) {
	f.queried = append(f.queried, host)

	raw, ok := f.hosts[host]
	if !ok {
		return nil, errors.New("no such host")
	}

	addrs := make([]netip.Addr, 0, len(raw))
	for _, s := range raw {
		addrs = append(addrs, netip.MustParseAddr(s))
	}
	return addrs, nil
}

func (f *fakeLookup) LookupPort(_ context.Context, _, service string) (int, error) {
	if p, ok := f.services[service]; ok {
		return p, nil
	}
	p, err := strconv.Atoi(service)
	if err != nil {
		return 0, errors.New("unknown port")
	}
	return p, nil
}

func newTestResolver() (*Resolver, *fakeLookup) {
	l := &fakeLookup{
		hosts: map[string][]string{
			"mixed.test":   {"2001:db8::1", "192.0.2.1", "2001:db8::2", "192.0.2.2"},
			"v4first.test": {"192.0.2.10", "2001:db8::10"},
			"v4only.test":  {"192.0.2.3", "192.0.2.4"},
			"v6only.test":  {"2001:db8::3"},
			"mapped.test":  {"::ffff:192.0.2.5"},
			"empty.test":   {},
		},
		services: map[string]int{"https": 443},
	}
	return NewResolver(l), l
}

func TestResolveFirstAnyFollowsResolverOrder(t *testing.T) {
	r, _ := newTestResolver()

	set, err := r.Resolve(context.Background(), "mixed.test:443")
	require.NoError(t, err)

	assert.Equal(t, netip.MustParseAddrPort("[2001:db8::1]:443"), set.First)
	assert.Equal(t, netip.MustParseAddrPort("192.0.2.1:443"), set.First4)
	assert.Equal(t, netip.MustParseAddrPort("[2001:db8::1]:443"), set.First6)
}

func TestSelectUnspecifiedDerivesFamily(t *testing.T) {
	r, _ := newTestResolver()

	set, err := r.Resolve(context.Background(), "v4first.test:22")
	require.NoError(t, err)
	dest, err := set.Select(Unspecified)
	require.NoError(t, err)
	assert.Equal(t, IPv4, dest.Family)
	assert.Equal(t, "192.0.2.10:22", dest.String())

	set, err = r.Resolve(context.Background(), "mixed.test:22")
	require.NoError(t, err)
	dest, err = set.Select(Unspecified)
	require.NoError(t, err)
	assert.Equal(t, IPv6, dest.Family)
}

func TestSelectExplicitFamily(t *testing.T) {
	r, _ := newTestResolver()

	set, err := r.Resolve(context.Background(), "mixed.test:8080")
	require.NoError(t, err)

	dest, err := set.Select(IPv4)
	require.NoError(t, err)
	assert.Equal(t, netip.MustParseAddr("192.0.2.1"), dest.Addr())

	dest, err = set.Select(IPv6)
	require.NoError(t, err)
	assert.Equal(t, netip.MustParseAddr("2001:db8::1"), dest.Addr())
}

func TestSelectFamilyUnavailable(t *testing.T) {
	r, _ := newTestResolver()

	set, err := r.Resolve(context.Background(), "v6only.test")
	require.NoError(t, err)
	_, err = set.Select(IPv4)
	var famErr *FamilyUnavailableError
	require.ErrorAs(t, err, &famErr)
	assert.Equal(t, IPv4, famErr.Family)

	set, err = r.Resolve(context.Background(), "v4only.test")
	require.NoError(t, err)
	_, err = set.Select(IPv6)
	require.ErrorAs(t, err, &famErr)
	assert.Equal(t, IPv6, famErr.Family)
}

func TestPortDefaulting(t *testing.T) {
	r, _ := newTestResolver()

	tests := []struct {
		input string
		want  uint16
	}{
		{"v4only.test", DefaultPort},
		{"v4only.test:0", DefaultPort},
		{"v4only.test:8443", 8443},
		{"v4only.test:https", 443},
		{"192.0.2.9", DefaultPort},
		{"192.0.2.9:22", 22},
		{"::1", DefaultPort},
		{"[::1]", DefaultPort},
		{"[::1]:5432", 5432},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			set, err := r.Resolve(context.Background(), tt.input)
			require.NoError(t, err)
			dest, err := set.Select(Unspecified)
			require.NoError(t, err)
			assert.Equal(t, tt.want, dest.Port())
		})
	}
}

func TestResolveFallsBackToBareHost(t *testing.T) {
	r, l := newTestResolver()

	set, err := r.Resolve(context.Background(), "v4only.test")
	require.NoError(t, err)
	assert.Equal(t, []string{"v4only.test"}, l.queried)
	assert.Equal(t, uint16(0), set.First.Port())
}

func TestResolveUnmapsIPv4InIPv6(t *testing.T) {
	r, _ := newTestResolver()

	set, err := r.Resolve(context.Background(), "mapped.test:80")
	require.NoError(t, err)
	assert.Equal(t, netip.MustParseAddr("192.0.2.5"), set.First4.Addr())
	assert.False(t, set.First6.IsValid())

	dest, err := set.Select(Unspecified)
	require.NoError(t, err)
	assert.Equal(t, IPv4, dest.Family)
}

func TestResolveFailures(t *testing.T) {
	r, _ := newTestResolver()

	for _, input := range []string{"unknown.test", "unknown.test:80", "empty.test", "v4only.test:notaport", ""} {
		t.Run(input, func(t *testing.T) {
			_, err := r.Resolve(context.Background(), input)
			var resErr *ResolutionError
			require.ErrorAs(t, err, &resErr)
			assert.Equal(t, input, resErr.Input)
		})
	}
}

func TestSelectOnEmptySet(t *testing.T) {
	_, err := CandidateSet{Input: "x"}.Select(Unspecified)
	var resErr *ResolutionError
	assert.ErrorAs(t, err, &resErr)
}

func TestFamilyString(t *testing.T) {
	assert.Equal(t, "IPv4", IPv4.String())
	assert.Equal(t, "IPv6", IPv6.String())
	assert.Equal(t, "unspecified", Unspecified.String())
}
